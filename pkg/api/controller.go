package api

// Controller is the I/O surface the harness exposes to behavior states.
// It bridges asynchronous sensor delivery to synchronous state evaluation:
// every sensor arrival updates a latest-value cache and re-evaluates the
// active state.
//
// All sensor accessors resolve through the cache and return a DataNotReady
// error while their channel has never received a message. Derived readings
// (Position, Heading, LaserPoints, ...) fail the same way when their source
// channel is unset; there are no partial or default results.
type Controller interface {
	// Name returns the process-scoped node name. It namespaces Param lookups.
	Name() string

	// Odometry returns the latest odometry message.
	Odometry() (Odometry, error)

	// PointCloud returns the latest point-cloud message.
	PointCloud() (PointCloud, error)

	// LaserPoints returns the decoded geometry of the latest point cloud.
	LaserPoints() ([]Point, error)

	// Position returns the robot's estimated position from odometry.
	Position() (Point, error)

	// Orientation returns the robot's estimated orientation from odometry.
	Orientation() (Quaternion, error)

	// Heading returns the yaw angle in radians, derived from Orientation.
	Heading() (float64, error)

	// LinearVelocity returns the odometry linear velocity.
	LinearVelocity() (Vector3, error)

	// AngularVelocity returns the odometry angular velocity.
	AngularVelocity() (Vector3, error)

	// SetSpeed publishes one velocity command with the given forward linear
	// component and angular (yaw-rate) component. Non-finite inputs are
	// normalized to zero before publishing. It always succeeds.
	SetSpeed(forward, angular float64)

	// MarkTarget publishes one visualization marker.
	MarkTarget(m Marker)

	// Param resolves a node-namespaced configuration value, falling back to
	// def when unset. Resolution is lazy per access, never cached.
	Param(name string, def any) any

	// Transition replaces the active state: the current state is fully
	// deactivated before next is activated. Typically called from inside the
	// active state's own Update; the call stack unwinds normally and the
	// next dispatch uses the new state.
	Transition(next BehaviorState)
}
