package collision

import (
	"github.com/engine-pi/jbox2d/common"
)

/// An axis aligned bounding box.
type AABB struct {
	LowerBound common.Vec2 ///< the lower vertex
	UpperBound common.Vec2 ///< the upper vertex
}

func MakeAABB(lower, upper common.Vec2) AABB {
	return AABB{LowerBound: lower, UpperBound: upper}
}

/// Verify that the bounds are sorted.
func (bb AABB) IsValid() bool {
	d := bb.UpperBound.Sub(bb.LowerBound)
	return d.X >= 0.0 && d.Y >= 0.0 && bb.LowerBound.IsValid() && bb.UpperBound.IsValid()
}

/// Get the center of the AABB.
func (bb AABB) GetCenter() common.Vec2 {
	return bb.LowerBound.Add(bb.UpperBound).Mul(0.5)
}

/// Get the extents of the AABB (half-widths).
func (bb AABB) GetExtents() common.Vec2 {
	return bb.UpperBound.Sub(bb.LowerBound).Mul(0.5)
}

/// Get the perimeter length
func (bb AABB) GetPerimeter() float32 {
	wx := bb.UpperBound.X - bb.LowerBound.X
	wy := bb.UpperBound.Y - bb.LowerBound.Y
	return 2.0 * (wx + wy)
}

/// Combine an AABB into this one.
func (bb *AABB) CombineInPlace(aabb AABB) {
	bb.LowerBound = common.MinVec2(bb.LowerBound, aabb.LowerBound)
	bb.UpperBound = common.MaxVec2(bb.UpperBound, aabb.UpperBound)
}

/// Combine two AABBs.
func Combine(a, b AABB) AABB {
	return AABB{
		LowerBound: common.MinVec2(a.LowerBound, b.LowerBound),
		UpperBound: common.MaxVec2(a.UpperBound, b.UpperBound),
	}
}

/// Does this aabb contain the provided AABB.
func (bb AABB) Contains(aabb AABB) bool {
	return bb.LowerBound.X <= aabb.LowerBound.X &&
		bb.LowerBound.Y <= aabb.LowerBound.Y &&
		aabb.UpperBound.X <= bb.UpperBound.X &&
		aabb.UpperBound.Y <= bb.UpperBound.Y
}

// Fattened returns the box grown by r on every side.
func (bb AABB) Fattened(r float32) AABB {
	rv := common.MakeVec2(r, r)
	return AABB{LowerBound: bb.LowerBound.Sub(rv), UpperBound: bb.UpperBound.Add(rv)}
}

func TestOverlapAABB(a, b AABB) bool {
	d1 := b.LowerBound.Sub(a.UpperBound)
	d2 := a.LowerBound.Sub(b.UpperBound)

	if d1.X > 0.0 || d1.Y > 0.0 {
		return false
	}
	if d2.X > 0.0 || d2.Y > 0.0 {
		return false
	}
	return true
}

// From Real-time Collision Detection, p179.
func (bb AABB) RayCast(input RayCastInput) (RayCastOutput, bool) {
	var output RayCastOutput
	tmin := -common.MaxFloat
	tmax := common.MaxFloat

	p := [2]float32{input.P1.X, input.P1.Y}
	d := [2]float32{input.P2.X - input.P1.X, input.P2.Y - input.P1.Y}
	lower := [2]float32{bb.LowerBound.X, bb.LowerBound.Y}
	upper := [2]float32{bb.UpperBound.X, bb.UpperBound.Y}

	var normal [2]float32

	for i := 0; i < 2; i++ {
		if common.Abs(d[i]) < common.Epsilon {
			// Parallel.
			if p[i] < lower[i] || upper[i] < p[i] {
				return output, false
			}
			continue
		}

		invD := 1.0 / d[i]
		t1 := (lower[i] - p[i]) * invD
		t2 := (upper[i] - p[i]) * invD

		// Sign of the normal vector.
		var s float32 = -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}

		// Push the min up
		if t1 > tmin {
			normal = [2]float32{}
			normal[i] = s
			tmin = t1
		}

		// Pull the max down
		tmax = min(tmax, t2)

		if tmin > tmax {
			return output, false
		}
	}

	// Does the ray start inside the box?
	// Does the ray intersect beyond the max fraction?
	if tmin < 0.0 || input.MaxFraction < tmin {
		return output, false
	}

	output.Fraction = tmin
	output.Normal = common.MakeVec2(normal[0], normal[1])
	return output, true
}
