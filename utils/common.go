package utils

import "math"

const (
	NODETOL = 1.e-12
)

// Index is a list of integer indices into a vector or matrix.
type Index []int

// MachEps is the distance between 1.0 and the next float64.
var MachEps = math.Nextafter(1, 2) - 1

// SqrtEps is used as the "small but above Newton-noise" saturation
// perturbation during phase switching.
var SqrtEps = math.Sqrt(MachEps)

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// HarmonicMean of two half values; zero when either side is zero.
func HarmonicMean(a, b float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	return 1. / (1./a + 1./b)
}
