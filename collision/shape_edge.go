package collision

import (
	"github.com/engine-pi/jbox2d/common"
)

/// A line segment (edge) shape. These can be connected in chains or loops
/// to other edge shapes. The connectivity information is used to ensure
/// correct contact normals.
type EdgeShape struct {
	baseShape

	/// These are the edge vertices
	Vertex1, Vertex2 common.Vec2

	/// Optional adjacent vertices. These are used for smooth collision
	/// and never take part in the collision geometry themselves.
	Vertex0, Vertex3       common.Vec2
	HasVertex0, HasVertex3 bool
}

func NewEdgeShape(v1, v2 common.Vec2) *EdgeShape {
	edge := &EdgeShape{baseShape: baseShape{Radius: common.PolygonRadius}}
	edge.Set(v1, v2)
	return edge
}

/// Set this as an isolated edge.
func (edge *EdgeShape) Set(v1, v2 common.Vec2) {
	edge.Vertex1 = v1
	edge.Vertex2 = v2
	edge.HasVertex0 = false
	edge.HasVertex3 = false
}

// SetGhostVertices installs the neighbours used to smooth collision across
// connected edges.
func (edge *EdgeShape) SetGhostVertices(v0 common.Vec2, hasV0 bool, v3 common.Vec2, hasV3 bool) {
	edge.Vertex0, edge.HasVertex0 = v0, hasV0
	edge.Vertex3, edge.HasVertex3 = v3, hasV3
}

func (edge *EdgeShape) Clone() Shape {
	clone := *edge
	return &clone
}

func (edge *EdgeShape) GetType() ShapeType {
	return ShapeEdge
}

func (edge *EdgeShape) GetChildCount() int {
	return 1
}

func (edge *EdgeShape) TestPoint(xf common.Transform, p common.Vec2) bool {
	return false
}

// p = p1 + t * d
// v = v1 + s * e
// p1 + t * d = v1 + s * e
// s * e - t * d = p1 - v1
func (edge *EdgeShape) RayCast(input RayCastInput, xf common.Transform, childIndex int) (RayCastOutput, bool) {
	var output RayCastOutput

	// Put the ray into the edge's frame of reference.
	p1 := common.MulTRV(xf.Q, input.P1.Sub(xf.P))
	p2 := common.MulTRV(xf.Q, input.P2.Sub(xf.P))
	d := p2.Sub(p1)

	v1 := edge.Vertex1
	v2 := edge.Vertex2
	e := v2.Sub(v1)
	normal := common.MakeVec2(e.Y, -e.X)
	normal.Normalize()

	// q = p1 + t * d
	// dot(normal, q - v1) = 0
	// dot(normal, p1 - v1) + t * dot(normal, d) = 0
	numerator := common.Dot(normal, v1.Sub(p1))
	denominator := common.Dot(normal, d)

	if denominator == 0.0 {
		return output, false
	}

	t := numerator / denominator
	if t < 0.0 || input.MaxFraction < t {
		return output, false
	}

	q := p1.Add(d.Mul(t))

	// q = v1 + s * r
	// s = dot(q - v1, r) / dot(r, r)
	r := v2.Sub(v1)
	rr := common.Dot(r, r)
	if rr == 0.0 {
		return output, false
	}

	s := common.Dot(q.Sub(v1), r) / rr
	if s < 0.0 || 1.0 < s {
		return output, false
	}

	output.Fraction = t
	if numerator > 0.0 {
		output.Normal = common.MulRV(xf.Q, normal).Neg()
	} else {
		output.Normal = common.MulRV(xf.Q, normal)
	}
	return output, true
}

func (edge *EdgeShape) ComputeAABB(xf common.Transform, childIndex int) AABB {
	v1 := common.MulXV(xf, edge.Vertex1)
	v2 := common.MulXV(xf, edge.Vertex2)

	aabb := AABB{LowerBound: common.MinVec2(v1, v2), UpperBound: common.MaxVec2(v1, v2)}
	return aabb.Fattened(edge.Radius)
}

func (edge *EdgeShape) ComputeMass(density float32) MassData {
	return MassData{Center: edge.Vertex1.Add(edge.Vertex2).Mul(0.5)}
}
