package world

import "errors"

var (
	ErrNotObstacle  = errors.New("body is not an obstacle")
	ErrInvalidPose  = errors.New("start pose is not finite")
	ErrNoRobot      = errors.New("world needs a robot")
	ErrUnknownState = errors.New("unknown world state")
)
