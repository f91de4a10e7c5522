package collision

import (
	"fmt"

	"github.com/engine-pi/jbox2d/common"
)

/// A convex polygon. It is assumed that the interior of the polygon is to
/// the left of each edge.
/// Polygons have a maximum number of vertices equal to MaxPolygonVertices.
/// In most cases you should not need many vertices for a convex polygon.
type PolygonShape struct {
	baseShape

	Centroid common.Vec2
	Vertices [common.MaxPolygonVertices]common.Vec2
	Normals  [common.MaxPolygonVertices]common.Vec2
	Count    int
}

// NewPolygonShape builds the convex hull of points.
func NewPolygonShape(points []common.Vec2) (*PolygonShape, error) {
	poly := &PolygonShape{baseShape: baseShape{Radius: common.PolygonRadius}}
	if err := poly.Set(points); err != nil {
		return nil, err
	}
	return poly, nil
}

// NewPolygonShapeFromHull builds a polygon from a counter-clockwise convex
// hull without reordering it. See SetHull.
func NewPolygonShapeFromHull(vertices []common.Vec2) (*PolygonShape, error) {
	poly := &PolygonShape{}
	if err := poly.SetHull(vertices); err != nil {
		return nil, err
	}
	return poly, nil
}

// NewBoxShape returns an axis-aligned box centered on the body origin.
func NewBoxShape(hx, hy float32) (*PolygonShape, error) {
	poly := &PolygonShape{baseShape: baseShape{Radius: common.PolygonRadius}}
	if err := poly.SetAsBox(hx, hy); err != nil {
		return nil, err
	}
	return poly, nil
}

func (poly *PolygonShape) GetVertex(index int) common.Vec2 {
	common.Assert(0 <= index && index < poly.Count, "polygon vertex %d out of range", index)
	return poly.Vertices[index]
}

func (poly *PolygonShape) Clone() Shape {
	clone := *poly
	return &clone
}

func (poly *PolygonShape) GetType() ShapeType {
	return ShapePolygon
}

func (poly *PolygonShape) GetChildCount() int {
	return 1
}

/// Build vertices to represent an axis-aligned box centered on the local origin.
/// @param hx the half-width.
/// @param hy the half-height.
func (poly *PolygonShape) SetAsBox(hx, hy float32) error {
	return poly.SetAsOrientedBox(hx, hy, common.Vec2Zero, 0.0)
}

/// Build vertices to represent an oriented box.
/// @param center the center of the box in local coordinates.
/// @param angle the rotation of the box in local coordinates.
func (poly *PolygonShape) SetAsOrientedBox(hx, hy float32, center common.Vec2, angle float32) error {
	if !(hx > 0) || !(hy > 0) || !common.IsValid(hx) || !common.IsValid(hy) {
		return fmt.Errorf("%w: box half extents %v x %v", ErrDegeneratePolygon, hx, hy)
	}

	poly.Radius = common.PolygonRadius
	poly.Count = 4
	poly.Vertices[0].Set(-hx, -hy)
	poly.Vertices[1].Set(hx, -hy)
	poly.Vertices[2].Set(hx, hy)
	poly.Vertices[3].Set(-hx, hy)
	poly.Normals[0].Set(0.0, -1.0)
	poly.Normals[1].Set(1.0, 0.0)
	poly.Normals[2].Set(0.0, 1.0)
	poly.Normals[3].Set(-1.0, 0.0)
	poly.Centroid = center

	if center == common.Vec2Zero && angle == 0.0 {
		return nil
	}

	xf := common.MakeTransform(center, angle)

	// Transform vertices and normals.
	for i := 0; i < poly.Count; i++ {
		poly.Vertices[i] = common.MulXV(xf, poly.Vertices[i])
		poly.Normals[i] = common.MulRV(xf.Q, poly.Normals[i])
	}
	return nil
}

func computeCentroid(vs []common.Vec2) (common.Vec2, error) {
	count := len(vs)
	var c common.Vec2
	var area float32

	// pRef is the reference point for forming triangles.
	// It's location doesn't change the result (except for rounding error).
	var pRef common.Vec2
	for i := 0; i < count; i++ {
		pRef.AddInPlace(vs[i])
	}
	pRef.MulInPlace(1.0 / float32(count))

	const inv3 = 1.0 / 3.0

	for i := 0; i < count; i++ {
		// Triangle vertices.
		p1 := pRef
		p2 := vs[i]
		p3 := vs[0]
		if i+1 < count {
			p3 = vs[i+1]
		}

		e1 := p2.Sub(p1)
		e2 := p3.Sub(p1)

		triangleArea := 0.5 * common.Cross(e1, e2)
		area += triangleArea

		// Area weighted centroid
		c.AddInPlace(p1.Add(p2).Add(p3).Mul(triangleArea * inv3))
	}

	if area <= common.Epsilon {
		return c, fmt.Errorf("%w: area %v", ErrDegeneratePolygon, area)
	}
	c.MulInPlace(1.0 / area)
	return c, nil
}

/// Create a convex hull from the given array of local points.
/// The count must be in the range [3, MaxPolygonVertices].
/// Collinear points are handled but not removed. Points closer than
/// half the linear slop are welded. Degenerate input is rejected and
/// leaves the polygon unchanged.
func (poly *PolygonShape) Set(vertices []common.Vec2) error {
	count := len(vertices)
	if count < 3 {
		return fmt.Errorf("%w: %d points", ErrDegeneratePolygon, count)
	}
	if count > common.MaxPolygonVertices {
		return fmt.Errorf("%w: %d points, max %d", ErrTooManyVertices, count, common.MaxPolygonVertices)
	}

	// Perform welding and copy vertices into local buffer.
	var ps [common.MaxPolygonVertices]common.Vec2
	n := 0
	const weld = (0.5 * common.LinearSlop) * (0.5 * common.LinearSlop)
	for _, v := range vertices {
		if !v.IsValid() {
			return fmt.Errorf("%w: non-finite point %v", ErrDegeneratePolygon, v)
		}
		unique := true
		for j := 0; j < n; j++ {
			if common.Vec2DistanceSquared(v, ps[j]) < weld {
				unique = false
				break
			}
		}
		if unique {
			ps[n] = v
			n++
		}
	}

	if n < 3 {
		return fmt.Errorf("%w: %d unique points", ErrDegeneratePolygon, n)
	}

	// Create the convex hull using the Gift wrapping algorithm
	// http://en.wikipedia.org/wiki/Gift_wrapping_algorithm

	// Find the right most point on the hull
	i0 := 0
	x0 := ps[0].X
	for i := 1; i < n; i++ {
		x := ps[i].X
		if x > x0 || (x == x0 && ps[i].Y < ps[i0].Y) {
			i0 = i
			x0 = x
		}
	}

	var hull [common.MaxPolygonVertices]int
	m := 0
	ih := i0

	for {
		hull[m] = ih

		ie := 0
		for j := 1; j < n; j++ {
			if ie == ih {
				ie = j
				continue
			}

			r := ps[ie].Sub(ps[hull[m]])
			v := ps[j].Sub(ps[hull[m]])
			c := common.Cross(r, v)
			if c < 0.0 {
				ie = j
			}

			// Collinearity check
			if c == 0.0 && v.LengthSquared() > r.LengthSquared() {
				ie = j
			}
		}

		m++
		ih = ie

		if ie == i0 || m == n {
			break
		}
	}

	if m < 3 {
		return fmt.Errorf("%w: hull has %d vertices", ErrDegeneratePolygon, m)
	}

	var verts [common.MaxPolygonVertices]common.Vec2
	for i := 0; i < m; i++ {
		verts[i] = ps[hull[i]]
	}

	built, err := makeHull(verts, m)
	if err != nil {
		return err
	}
	*poly = built
	return nil
}

/// Set the vertices of a polygon that are already a counter-clockwise
/// convex hull, such as those read back from PolygonShape.Vertices. The
/// vertex order is kept, so vertex and normal indices do not change.
func (poly *PolygonShape) SetHull(vertices []common.Vec2) error {
	count := len(vertices)
	if count < 3 {
		return fmt.Errorf("%w: %d points", ErrDegeneratePolygon, count)
	}
	if count > common.MaxPolygonVertices {
		return fmt.Errorf("%w: %d points, max %d", ErrTooManyVertices, count, common.MaxPolygonVertices)
	}

	var verts [common.MaxPolygonVertices]common.Vec2
	for i, v := range vertices {
		if !v.IsValid() {
			return fmt.Errorf("%w: non-finite point %v", ErrDegeneratePolygon, v)
		}
		verts[i] = v
	}

	built, err := makeHull(verts, count)
	if err != nil {
		return err
	}
	if !built.Validate() {
		return fmt.Errorf("%w: vertices are not a counter-clockwise convex hull", ErrDegeneratePolygon)
	}
	*poly = built
	return nil
}

// makeHull computes normals and centroid for m hull vertices.
func makeHull(verts [common.MaxPolygonVertices]common.Vec2, m int) (PolygonShape, error) {
	poly := PolygonShape{
		baseShape: baseShape{Radius: common.PolygonRadius},
		Vertices:  verts,
		Count:     m,
	}

	// Compute normals. Ensure the edges have non-zero length.
	for i := 0; i < m; i++ {
		i2 := 0
		if i+1 < m {
			i2 = i + 1
		}
		edge := verts[i2].Sub(verts[i])
		if edge.LengthSquared() <= common.Epsilon*common.Epsilon {
			return poly, fmt.Errorf("%w: zero length edge %d", ErrDegeneratePolygon, i)
		}
		poly.Normals[i] = common.CrossVS(edge, 1.0)
		poly.Normals[i].Normalize()
	}

	centroid, err := computeCentroid(verts[:m])
	if err != nil {
		return poly, err
	}
	poly.Centroid = centroid
	return poly, nil
}

func (poly *PolygonShape) TestPoint(xf common.Transform, p common.Vec2) bool {
	pLocal := common.MulTRV(xf.Q, p.Sub(xf.P))

	for i := 0; i < poly.Count; i++ {
		if common.Dot(poly.Normals[i], pLocal.Sub(poly.Vertices[i])) > 0.0 {
			return false
		}
	}
	return true
}

func (poly *PolygonShape) RayCast(input RayCastInput, xf common.Transform, childIndex int) (RayCastOutput, bool) {
	var output RayCastOutput

	// Put the ray into the polygon's frame of reference.
	p1 := common.MulTRV(xf.Q, input.P1.Sub(xf.P))
	p2 := common.MulTRV(xf.Q, input.P2.Sub(xf.P))
	d := p2.Sub(p1)

	var lower float32
	upper := input.MaxFraction
	index := -1

	for i := 0; i < poly.Count; i++ {
		// p = p1 + a * d
		// dot(normal, p - v) = 0
		// dot(normal, p1 - v) + a * dot(normal, d) = 0
		numerator := common.Dot(poly.Normals[i], poly.Vertices[i].Sub(p1))
		denominator := common.Dot(poly.Normals[i], d)

		if denominator == 0.0 {
			if numerator < 0.0 {
				return output, false
			}
		} else {
			// Note: we want this predicate without division:
			// lower < numerator / denominator, where denominator < 0
			// Since denominator < 0, we have to flip the inequality:
			// lower < numerator / denominator <==> denominator * lower > numerator.
			if denominator < 0.0 && numerator < lower*denominator {
				// Increase lower.
				// The segment enters this half-space.
				lower = numerator / denominator
				index = i
			} else if denominator > 0.0 && numerator < upper*denominator {
				// Decrease upper.
				// The segment exits this half-space.
				upper = numerator / denominator
			}
		}

		if upper < lower {
			return output, false
		}
	}

	if index >= 0 {
		output.Fraction = lower
		output.Normal = common.MulRV(xf.Q, poly.Normals[index])
		return output, true
	}
	return output, false
}

func (poly *PolygonShape) ComputeAABB(xf common.Transform, childIndex int) AABB {
	lower := common.MulXV(xf, poly.Vertices[0])
	upper := lower

	for i := 1; i < poly.Count; i++ {
		v := common.MulXV(xf, poly.Vertices[i])
		lower = common.MinVec2(lower, v)
		upper = common.MaxVec2(upper, v)
	}

	aabb := AABB{LowerBound: lower, UpperBound: upper}
	return aabb.Fattened(poly.Radius)
}

func (poly *PolygonShape) ComputeMass(density float32) MassData {
	// Polygon mass, centroid, and inertia.
	// Let rho be the polygon density in mass per unit area.
	// Then:
	// mass = rho * int(dA)
	// centroid.x = (1/mass) * rho * int(x * dA)
	// centroid.y = (1/mass) * rho * int(y * dA)
	// I = rho * int((x*x + y*y) * dA)
	//
	// We can compute these integrals by summing all the integrals
	// for each triangle of the polygon. To evaluate the integral
	// for a single triangle, we make a change of variables to
	// the (u,v) coordinates of the triangle:
	// x = x0 + e1x * u + e2x * v
	// y = y0 + e1y * u + e2y * v
	// where 0 <= u && 0 <= v && u + v <= 1.
	//
	// We integrate u from [0,1-v] and then v from [0,1].
	// We also need to use the Jacobian of the transformation:
	// D = cross(e1, e2)
	//
	// Simplification: triangle centroid = (1/3) * (p1 + p2 + p3)
	common.Assert(poly.Count >= 3, "polygon has %d vertices", poly.Count)

	var center common.Vec2
	var area, I float32

	// s is the reference point for forming triangles.
	var s common.Vec2
	for i := 0; i < poly.Count; i++ {
		s.AddInPlace(poly.Vertices[i])
	}
	s.MulInPlace(1.0 / float32(poly.Count))

	const inv3 = 1.0 / 3.0

	for i := 0; i < poly.Count; i++ {
		// Triangle vertices.
		e1 := poly.Vertices[i].Sub(s)
		e2 := poly.Vertices[0].Sub(s)
		if i+1 < poly.Count {
			e2 = poly.Vertices[i+1].Sub(s)
		}

		D := common.Cross(e1, e2)

		triangleArea := 0.5 * D
		area += triangleArea

		// Area weighted centroid
		center.AddInPlace(e1.Add(e2).Mul(triangleArea * inv3))

		ex1, ey1 := e1.X, e1.Y
		ex2, ey2 := e2.X, e2.Y

		intx2 := ex1*ex1 + ex2*ex1 + ex2*ex2
		inty2 := ey1*ey1 + ey2*ey1 + ey2*ey2

		I += (0.25 * inv3 * D) * (intx2 + inty2)
	}

	var massData MassData

	// Total mass
	massData.Mass = density * area

	// Center of mass
	center.MulInPlace(1.0 / area)
	massData.Center = center.Add(s)

	// Inertia tensor relative to the local origin (point s).
	massData.I = density * I

	// Shift to center of mass then to original body origin.
	massData.I += massData.Mass * (common.Dot(massData.Center, massData.Center) - common.Dot(center, center))
	return massData
}

/// Validate convexity. This is a very time consuming operation.
/// @returns true if valid
func (poly *PolygonShape) Validate() bool {
	for i := 0; i < poly.Count; i++ {
		i1 := i
		i2 := 0
		if i < poly.Count-1 {
			i2 = i1 + 1
		}

		p := poly.Vertices[i1]
		e := poly.Vertices[i2].Sub(p)

		for j := 0; j < poly.Count; j++ {
			if j == i1 || j == i2 {
				continue
			}
			if common.Cross(e, poly.Vertices[j].Sub(p)) < 0.0 {
				return false
			}
		}
	}
	return true
}
