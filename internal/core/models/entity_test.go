package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/robosim/internal/core/geometry"
)

func TestNewObstacle(t *testing.T) {
	o, err := NewObstacle(1, 300, 100, 150, 30, 0)
	require.NoError(t, err)

	assert.Equal(t, KindObstacle, o.Kind())
	assert.Equal(t, geometry.V(300, 100), o.Center())
	assert.InDelta(t, math.Sqrt(75*75+15*15), o.BoundingRadius(), 1e-9)

	out := o.Outline()
	require.Equal(t, 4, out.Len())
	for _, v := range out.Vertices() {
		assert.InDelta(t, 75.0, math.Abs(v.X-300), 1e-9)
		assert.InDelta(t, 15.0, math.Abs(v.Y-100), 1e-9)
	}
}

func TestObstacleRotation(t *testing.T) {
	o, err := NewObstacle(1, 0, 0, 10, 2, 90)
	require.NoError(t, err)
	for _, v := range o.Outline().Vertices() {
		assert.InDelta(t, 1.0, math.Abs(v.X), 1e-9)
		assert.InDelta(t, 5.0, math.Abs(v.Y), 1e-9)
	}
}

func TestNewBodyRejectsBadDimensions(t *testing.T) {
	for _, dims := range [][2]float64{{0, 10}, {10, -1}, {math.NaN(), 1}, {math.Inf(1), 1}} {
		_, err := NewBody(0, KindRobot, dims[0], dims[1], geometry.Pose{})
		assert.ErrorIs(t, err, ErrInvalidDimensions, "dims %v", dims)
	}
	_, err := NewObstacle(0, math.NaN(), 0, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidPose)
}

func TestSetPose(t *testing.T) {
	o, err := NewObstacle(1, 0, 0, 10, 10, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, o.SetPose(geometry.NewPose(1, 1, 0)), ErrImmutableBody)

	r, err := NewBody(2, KindRobot, 40, 50, geometry.NewPose(0, 0, 0))
	require.NoError(t, err)
	require.NoError(t, r.SetPose(geometry.NewPose(100, 50, 0)))
	assert.Equal(t, geometry.V(100, 50), r.Center())
	assert.InDelta(t, 80.0, r.Outline().Vertex(0).X, 1e-9)
	assert.InDelta(t, 25.0, r.Outline().Vertex(0).Y, 1e-9)
	assert.ErrorIs(t, r.SetPose(geometry.NewPose(math.Inf(1), 0, 0)), ErrInvalidPose)
}
