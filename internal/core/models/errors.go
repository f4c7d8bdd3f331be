package models

import "errors"

var (
	ErrInvalidDimensions = errors.New("body dimensions must be positive and finite")
	ErrInvalidPose       = errors.New("body pose must be finite")
	ErrImmutableBody     = errors.New("obstacles cannot be moved")
)
