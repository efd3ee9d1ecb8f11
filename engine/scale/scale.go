package scale

import "golang.org/x/exp/constraints"

// Clamp limits t to [min, max]. The bounds may be given in either order.
func Clamp[T constraints.Ordered](t, min, max T) T {
	if min > max {
		min, max = max, min
	}
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}

// ToUnitClamp returns a function that scales a number from the interval [rMin,rMax]
// to the unit interval ([0,1]), if the result falls outside [0,1], it is clamped
// to 0 or 1.
func ToUnitClamp(rMin, rMax float64) func(m float64) float64 {
	return func(m float64) float64 {
		if rMax == rMin {
			return 0
		}
		return Clamp((m-rMin)/(rMax-rMin), 0, 1)
	}
}

// FromUnit returns a function that maps the unit interval onto [tMin,tMax].
func FromUnit(tMin, tMax float64) func(u float64) float64 {
	return func(u float64) float64 {
		return tMin + u*(tMax-tMin)
	}
}
