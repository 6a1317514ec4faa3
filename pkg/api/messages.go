package api

import (
	"math"
	"time"
)

// Channel names of the subscribed sensor streams and published command
// streams. Payload shapes are fixed at subscription time.
const (
	ChannelOdometry   = "odometry"
	ChannelPointCloud = "point_cloud"
	ChannelVelocity   = "cmd_vel"
	ChannelTarget     = "target"
)

// Vector3 is a 3D vector.
type Vector3 struct {
	X, Y, Z float64
}

// Point is a 3D position.
type Point struct {
	X, Y, Z float64
}

// Quaternion is an orientation in quaternion form.
type Quaternion struct {
	X, Y, Z, W float64
}

// Yaw extracts the rotation about the vertical axis, in radians in
// (-pi, pi]. For a planar robot this is the heading.
func (q Quaternion) Yaw() float64 {
	return math.Atan2(
		2*(q.W*q.Z+q.X*q.Y),
		1-2*(q.Y*q.Y+q.Z*q.Z),
	)
}

// Pose is a position plus orientation.
type Pose struct {
	Position    Point
	Orientation Quaternion
}

// Twist is a velocity command or reading: linear and angular components.
type Twist struct {
	Linear  Vector3
	Angular Vector3
}

// Odometry is the payload of the "odometry" channel: the robot's estimated
// pose and velocity.
type Odometry struct {
	Frame string
	Stamp time.Time
	Pose  Pose
	Twist Twist
}

// PointCloud is the payload of the "point_cloud" channel: obstacle geometry
// already decoded into points in the given frame.
type PointCloud struct {
	Frame  string
	Stamp  time.Time
	Points []Point
}

// MarkerShape selects the geometry of a visualization marker.
type MarkerShape int

const (
	MarkerArrow MarkerShape = iota
	MarkerCube
	MarkerSphere
	MarkerCylinder
)

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Marker is a debug-visualization message published on the "target" channel.
// Construction helpers live in pkg/viz; the harness passes markers through
// without validation.
type Marker struct {
	Namespace string
	ID        int
	Frame     string
	Shape     MarkerShape
	Position  Point
	Scale     Vector3
	Color     Color
	Lifetime  time.Duration
}
