package geometry

import "errors"

var (
	ErrZeroVector          = errors.New("zero-length vector has no direction")
	ErrZeroLengthSegment   = errors.New("segment endpoints coincide")
	ErrTooFewVertices      = errors.New("polygon needs at least 3 vertices")
	ErrRepeatedVertex      = errors.New("polygon has repeated consecutive vertices")
	ErrDegeneratePolygon   = errors.New("polygon encloses no area")
	ErrNonFiniteCoordinate = errors.New("coordinate is NaN or infinite")
)
