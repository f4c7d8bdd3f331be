package world

import (
	"math"

	"github.com/zeusync/robosim/internal/core/geometry"
	"github.com/zeusync/robosim/internal/core/sensor"
)

func posInf() float64 { return math.Inf(1) }

func rangeOver(origin, dir geometry.Vec2, shapes []geometry.Shape) float64 {
	return sensor.Range(origin, dir, 200, shapes)
}
