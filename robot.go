package robot

import (
	"github.com/ariporad/warmup-project/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	BehaviorState = api.BehaviorState
	ParamDeclarer = api.ParamDeclarer
	BaseState     = api.BaseState
	Controller    = api.Controller

	Vector3    = api.Vector3
	Point      = api.Point
	Quaternion = api.Quaternion
	Pose       = api.Pose
	Twist      = api.Twist
	Odometry   = api.Odometry
	PointCloud = api.PointCloud
	Marker     = api.Marker

	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot

	Event     = api.Event
	EventType = api.EventType
)

// Re-export common helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	NewDataNotReady = api.NewDataNotReady
	IsDataNotReady  = api.IsDataNotReady
	ErrDataNotReady = api.ErrDataNotReady

	StateName     = api.StateName
	ResolveParams = api.ResolveParams
)

// Re-export channel names for convenience.

const (
	ChannelOdometry   = api.ChannelOdometry
	ChannelPointCloud = api.ChannelPointCloud
	ChannelVelocity   = api.ChannelVelocity
	ChannelTarget     = api.ChannelTarget
)
