package collision

import (
	"github.com/engine-pi/jbox2d/common"
)

/// A distance proxy is used by the GJK algorithm.
/// It encapsulates any shape.
type DistanceProxy struct {
	buffer [2]common.Vec2
	// vertices aliases polygon storage. Other shapes live in buffer so a
	// copied proxy stays self contained.
	vertices []common.Vec2
	count    int
	Radius   float32
}

/// Initialize the proxy using the given shape. The shape
/// must remain in scope while the proxy is in use.
func (p *DistanceProxy) Set(shape Shape, index int) {
	p.vertices = nil

	switch s := shape.(type) {
	case *CircleShape:
		p.buffer[0] = s.P
		p.count = 1
		p.Radius = s.Radius

	case *PolygonShape:
		p.vertices = s.Vertices[:s.Count]
		p.count = s.Count
		p.Radius = s.Radius

	case *ChainShape:
		p.buffer[0], p.buffer[1] = s.childVertices(index)
		p.count = 2
		p.Radius = s.Radius

	case *EdgeShape:
		p.buffer[0] = s.Vertex1
		p.buffer[1] = s.Vertex2
		p.count = 2
		p.Radius = s.Radius

	default:
		common.Assert(false, "unsupported shape %T", shape)
	}
}

/// Get the vertex count.
func (p *DistanceProxy) GetVertexCount() int {
	return p.count
}

/// Get a vertex by index. Used by Distance.
func (p *DistanceProxy) GetVertex(index int) common.Vec2 {
	common.Assert(0 <= index && index < p.count, "proxy vertex %d of %d", index, p.count)
	if p.vertices != nil {
		return p.vertices[index]
	}
	return p.buffer[index]
}

/// Get the supporting vertex index in the given direction.
func (p *DistanceProxy) GetSupport(d common.Vec2) int {
	bestIndex := 0
	bestValue := common.Dot(p.GetVertex(0), d)
	for i := 1; i < p.count; i++ {
		value := common.Dot(p.GetVertex(i), d)
		if value > bestValue {
			bestIndex = i
			bestValue = value
		}
	}
	return bestIndex
}

/// Get the supporting vertex in the given direction.
func (p *DistanceProxy) GetSupportVertex(d common.Vec2) common.Vec2 {
	return p.GetVertex(p.GetSupport(d))
}

/// Used to warm start Distance.
/// Set count to zero on first call.
type SimplexCache struct {
	Metric float32 ///< length or area
	Count  int
	IndexA [3]int ///< vertices on shape A
	IndexB [3]int ///< vertices on shape B
}

/// Input for Distance.
/// You have to option to use the shape radii
/// in the computation.
type DistanceInput struct {
	ProxyA     DistanceProxy
	ProxyB     DistanceProxy
	TransformA common.Transform
	TransformB common.Transform
	UseRadii   bool
}

/// Output for Distance.
type DistanceOutput struct {
	PointA     common.Vec2 ///< closest point on shapeA
	PointB     common.Vec2 ///< closest point on shapeB
	Distance   float32
	Iterations int ///< number of GJK iterations used
}

// GJKMaxIters bounds the GJK main loop.
const GJKMaxIters = 20

// GJKStats counts GJK work. MaxIters is the largest iteration count seen,
// never more than GJKMaxIters.
type GJKStats struct {
	Calls    int
	Iters    int
	MaxIters int
}

type simplexVertex struct {
	wA     common.Vec2 // support point in proxyA
	wB     common.Vec2 // support point in proxyB
	w      common.Vec2 // wB - wA
	a      float32     // barycentric coordinate for closest point
	indexA int         // wA index
	indexB int         // wB index
}

type simplex struct {
	v     [3]simplexVertex
	count int
}

func (s *simplex) readCache(cache *SimplexCache, proxyA *DistanceProxy, transformA common.Transform, proxyB *DistanceProxy, transformB common.Transform) {
	common.Assert(cache.Count <= 3, "simplex cache count %d", cache.Count)

	// Copy data from cache.
	s.count = cache.Count
	for i := 0; i < s.count; i++ {
		v := &s.v[i]
		v.indexA = cache.IndexA[i]
		v.indexB = cache.IndexB[i]
		v.wA = common.MulXV(transformA, proxyA.GetVertex(v.indexA))
		v.wB = common.MulXV(transformB, proxyB.GetVertex(v.indexB))
		v.w = v.wB.Sub(v.wA)
		v.a = 0.0
	}

	// Compute the new simplex metric, if it is substantially different than
	// old metric then flush the simplex.
	if s.count > 1 {
		metric1 := cache.Metric
		metric2 := s.metric()
		if metric2 < 0.5*metric1 || 2.0*metric1 < metric2 || metric2 < common.Epsilon {
			// Reset the simplex.
			s.count = 0
		}
	}

	// If the cache is empty or invalid ...
	if s.count == 0 {
		v := &s.v[0]
		v.indexA = 0
		v.indexB = 0
		v.wA = common.MulXV(transformA, proxyA.GetVertex(0))
		v.wB = common.MulXV(transformB, proxyB.GetVertex(0))
		v.w = v.wB.Sub(v.wA)
		v.a = 1.0
		s.count = 1
	}
}

func (s *simplex) writeCache(cache *SimplexCache) {
	cache.Metric = s.metric()
	cache.Count = s.count
	for i := 0; i < s.count; i++ {
		cache.IndexA[i] = s.v[i].indexA
		cache.IndexB[i] = s.v[i].indexB
	}
}

func (s *simplex) searchDirection() common.Vec2 {
	switch s.count {
	case 1:
		return s.v[0].w.Neg()

	case 2:
		e12 := s.v[1].w.Sub(s.v[0].w)
		sgn := common.Cross(e12, s.v[0].w.Neg())
		if sgn > 0.0 {
			// Origin is left of e12.
			return common.CrossSV(1.0, e12)
		}
		// Origin is right of e12.
		return common.CrossVS(e12, 1.0)
	}

	common.Assert(false, "search direction for simplex of %d", s.count)
	return common.Vec2Zero
}

func (s *simplex) closestPoint() common.Vec2 {
	switch s.count {
	case 1:
		return s.v[0].w
	case 2:
		return s.v[0].w.Mul(s.v[0].a).Add(s.v[1].w.Mul(s.v[1].a))
	case 3:
		return common.Vec2Zero
	}

	common.Assert(false, "closest point for simplex of %d", s.count)
	return common.Vec2Zero
}

func (s *simplex) witnessPoints() (pA, pB common.Vec2) {
	switch s.count {
	case 1:
		return s.v[0].wA, s.v[0].wB

	case 2:
		pA = s.v[0].wA.Mul(s.v[0].a).Add(s.v[1].wA.Mul(s.v[1].a))
		pB = s.v[0].wB.Mul(s.v[0].a).Add(s.v[1].wB.Mul(s.v[1].a))
		return

	case 3:
		pA = s.v[0].wA.Mul(s.v[0].a).Add(s.v[1].wA.Mul(s.v[1].a)).Add(s.v[2].wA.Mul(s.v[2].a))
		return pA, pA
	}

	common.Assert(false, "witness points for simplex of %d", s.count)
	return
}

func (s *simplex) metric() float32 {
	switch s.count {
	case 1:
		return 0.0
	case 2:
		return common.Vec2Distance(s.v[0].w, s.v[1].w)
	case 3:
		return common.Cross(s.v[1].w.Sub(s.v[0].w), s.v[2].w.Sub(s.v[0].w))
	}

	common.Assert(false, "metric for simplex of %d", s.count)
	return 0.0
}

// Solve a line segment using barycentric coordinates.
//
// p = a1 * w1 + a2 * w2
// a1 + a2 = 1
//
// The vector from the origin to the closest point on the line is
// perpendicular to the line.
// e12 = w2 - w1
// dot(p, e) = 0
// a1 * dot(w1, e) + a2 * dot(w2, e) = 0
//
// 2-by-2 linear system
// [1      1     ][a1] = [1]
// [w1.e12 w2.e12][a2] = [0]
//
// Define
// d12_1 =  dot(w2, e12)
// d12_2 = -dot(w1, e12)
// d12 = d12_1 + d12_2
//
// Solution
// a1 = d12_1 / d12
// a2 = d12_2 / d12
func (s *simplex) solve2() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	e12 := w2.Sub(w1)

	// w1 region
	d12_2 := -common.Dot(w1, e12)
	if d12_2 <= 0.0 {
		// a2 <= 0, so we clamp it to 0
		s.v[0].a = 1.0
		s.count = 1
		return
	}

	// w2 region
	d12_1 := common.Dot(w2, e12)
	if d12_1 <= 0.0 {
		// a1 <= 0, so we clamp it to 0
		s.v[1].a = 1.0
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	// Must be in e12 region.
	invD12 := 1.0 / (d12_1 + d12_2)
	s.v[0].a = d12_1 * invD12
	s.v[1].a = d12_2 * invD12
	s.count = 2
}

// Possible regions:
// - points[2]
// - edge points[0]-points[2]
// - edge points[1]-points[2]
// - inside the triangle
func (s *simplex) solve3() {
	w1 := s.v[0].w
	w2 := s.v[1].w
	w3 := s.v[2].w

	// Edge12
	// [1      1     ][a1] = [1]
	// [w1.e12 w2.e12][a2] = [0]
	// a3 = 0
	e12 := w2.Sub(w1)
	d12_1 := common.Dot(w2, e12)
	d12_2 := -common.Dot(w1, e12)

	// Edge13
	// [1      1     ][a1] = [1]
	// [w1.e13 w3.e13][a3] = [0]
	// a2 = 0
	e13 := w3.Sub(w1)
	d13_1 := common.Dot(w3, e13)
	d13_2 := -common.Dot(w1, e13)

	// Edge23
	// [1      1     ][a2] = [1]
	// [w2.e23 w3.e23][a3] = [0]
	// a1 = 0
	e23 := w3.Sub(w2)
	d23_1 := common.Dot(w3, e23)
	d23_2 := -common.Dot(w2, e23)

	// Triangle123
	n123 := common.Cross(e12, e13)

	d123_1 := n123 * common.Cross(w2, w3)
	d123_2 := n123 * common.Cross(w3, w1)
	d123_3 := n123 * common.Cross(w1, w2)

	// w1 region
	if d12_2 <= 0.0 && d13_2 <= 0.0 {
		s.v[0].a = 1.0
		s.count = 1
		return
	}

	// e12
	if d12_1 > 0.0 && d12_2 > 0.0 && d123_3 <= 0.0 {
		invD12 := 1.0 / (d12_1 + d12_2)
		s.v[0].a = d12_1 * invD12
		s.v[1].a = d12_2 * invD12
		s.count = 2
		return
	}

	// e13
	if d13_1 > 0.0 && d13_2 > 0.0 && d123_2 <= 0.0 {
		invD13 := 1.0 / (d13_1 + d13_2)
		s.v[0].a = d13_1 * invD13
		s.v[2].a = d13_2 * invD13
		s.count = 2
		s.v[1] = s.v[2]
		return
	}

	// w2 region
	if d12_1 <= 0.0 && d23_2 <= 0.0 {
		s.v[1].a = 1.0
		s.count = 1
		s.v[0] = s.v[1]
		return
	}

	// w3 region
	if d13_1 <= 0.0 && d23_1 <= 0.0 {
		s.v[2].a = 1.0
		s.count = 1
		s.v[0] = s.v[2]
		return
	}

	// e23
	if d23_1 > 0.0 && d23_2 > 0.0 && d123_1 <= 0.0 {
		invD23 := 1.0 / (d23_1 + d23_2)
		s.v[1].a = d23_1 * invD23
		s.v[2].a = d23_2 * invD23
		s.count = 2
		s.v[0] = s.v[2]
		return
	}

	// Must be in triangle123
	invD123 := 1.0 / (d123_1 + d123_2 + d123_3)
	s.v[0].a = d123_1 * invD123
	s.v[1].a = d123_2 * invD123
	s.v[2].a = d123_3 * invD123
	s.count = 3
}

/// Compute the closest points between two shapes. Supports any combination of:
/// CircleShape, PolygonShape, EdgeShape. The simplex cache is input/output.
/// On the first call set SimplexCache.Count to zero. stats may be nil.
// GJK using Voronoi regions (Christer Ericson) and Barycentric coordinates.
func Distance(cache *SimplexCache, input *DistanceInput, stats *GJKStats) DistanceOutput {
	var output DistanceOutput

	if stats != nil {
		stats.Calls++
	}

	proxyA := &input.ProxyA
	proxyB := &input.ProxyB
	transformA := input.TransformA
	transformB := input.TransformB

	// Initialize the simplex.
	var s simplex
	s.readCache(cache, proxyA, transformA, proxyB, transformB)

	// These store the vertices of the last simplex so that we
	// can check for duplicates and prevent cycling.
	var saveA, saveB [3]int

	// Main iteration loop.
	iter := 0
	for iter < GJKMaxIters {
		// Copy simplex so we can identify duplicates.
		saveCount := s.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = s.v[i].indexA
			saveB[i] = s.v[i].indexB
		}

		switch s.count {
		case 1:
		case 2:
			s.solve2()
		case 3:
			s.solve3()
		default:
			common.Assert(false, "simplex of %d", s.count)
		}

		// If we have 3 points, then the origin is in the corresponding triangle.
		if s.count == 3 {
			break
		}

		d := s.searchDirection()

		// Ensure the search direction is numerically fit.
		if d.LengthSquared() < common.Epsilon*common.Epsilon {
			// The origin is probably contained by a line segment
			// or triangle. Thus the shapes are overlapped.

			// We can't return zero here even though there may be overlap.
			// In case the simplex is a point, segment, or triangle it is difficult
			// to determine if the origin is contained in the CSO or very close to it.
			break
		}

		// Compute a tentative new simplex vertex using support points.
		vertex := &s.v[s.count]
		vertex.indexA = proxyA.GetSupport(common.MulTRV(transformA.Q, d.Neg()))
		vertex.wA = common.MulXV(transformA, proxyA.GetVertex(vertex.indexA))
		vertex.indexB = proxyB.GetSupport(common.MulTRV(transformB.Q, d))
		vertex.wB = common.MulXV(transformB, proxyB.GetVertex(vertex.indexB))
		vertex.w = vertex.wB.Sub(vertex.wA)

		// Iteration count is equated to the number of support point calls.
		iter++
		if stats != nil {
			stats.Iters++
		}

		// Check for duplicate support points. This is the main termination criteria.
		duplicate := false
		for i := 0; i < saveCount; i++ {
			if vertex.indexA == saveA[i] && vertex.indexB == saveB[i] {
				duplicate = true
				break
			}
		}

		// If we found a duplicate support point we must exit to avoid cycling.
		if duplicate {
			break
		}

		// New vertex is ok and needed.
		s.count++
	}

	if stats != nil && iter > stats.MaxIters {
		stats.MaxIters = iter
	}

	// Prepare output.
	output.PointA, output.PointB = s.witnessPoints()
	output.Distance = common.Vec2Distance(output.PointA, output.PointB)
	output.Iterations = iter

	// Cache the simplex.
	s.writeCache(cache)

	// Apply radii if requested.
	if input.UseRadii {
		rA := proxyA.Radius
		rB := proxyB.Radius

		if output.Distance > rA+rB && output.Distance > common.Epsilon {
			// Shapes are still no overlapped.
			// Move the witness points to the outer surface.
			output.Distance -= rA + rB
			normal := output.PointB.Sub(output.PointA)
			normal.Normalize()
			output.PointA.AddInPlace(normal.Mul(rA))
			output.PointB.SubInPlace(normal.Mul(rB))
		} else {
			// Shapes are overlapped when radii are considered.
			// Move the witness points to the middle.
			p := output.PointA.Add(output.PointB).Mul(0.5)
			output.PointA = p
			output.PointB = p
			output.Distance = 0.0
		}
	}

	return output
}
