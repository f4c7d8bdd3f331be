// Package sensor implements the robot's ray distance sensor.
package sensor

import "github.com/zeusync/robosim/internal/core/geometry"

// NoReading is reported when the ray hits nothing within range.
const NoReading = -1.0

// Range casts a ray of length maxRange from origin along dir against every
// target and returns the distance to the closest hit, or NoReading.
//
// Every target is tested and the true minimum wins; the order of targets
// does not matter.
func Range(origin, dir geometry.Vec2, maxRange float64, targets []geometry.Shape) float64 {
	best := NoReading
	for _, t := range targets {
		d, ok := geometry.RayNearestHit(origin, dir, maxRange, t.Outline())
		if !ok {
			continue
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}
