package common

import (
	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

// Clamp restricts a to [low, high].
func Clamp[T Number](a, low, high T) T {
	return max(low, min(a, high))
}

func Abs[T constraints.Signed | constraints.Float](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

func Sign[T constraints.Signed | constraints.Float](a T) T {
	switch {
	case a > 0:
		return 1
	case a < 0:
		return -1
	}
	return 0
}

/// "Next Largest Power of 2
/// Given a binary integer value x, the next largest power of 2 can be computed by a SWAR algorithm
/// that recursively "folds" the upper bits into the lower bits. This process yields a bit vector with
/// the same most significant 1 as x, but all 1's below it. Adding 1 to that value yields the next
/// largest power of 2. For a 32-bit value:"
func NextPowerOfTwo(x uint32) uint32 {
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return x + 1
}

func IsPowerOfTwo(x uint32) bool {
	return x > 0 && (x&(x-1)) == 0
}

// ReduceAngle maps theta into [-pi, pi).
func ReduceAngle(theta float32) float32 {
	twoPi := 2 * Pi
	theta = math32.Mod(theta, twoPi)
	if theta < -Pi {
		theta += twoPi
	} else if theta >= Pi {
		theta -= twoPi
	}
	return theta
}

const (
	DegToRad = Pi / 180
	RadToDeg = 180 / Pi
)
