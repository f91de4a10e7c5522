package collision

import (
	"fmt"

	"github.com/engine-pi/jbox2d/common"
)

/// A chain shape is a free form sequence of line segments.
/// The chain has two-sided collision, so you can use inside and outside collision.
/// Therefore, you may use any winding order.
/// Connectivity information is used to create smooth collisions.
/// WARNING: The chain will not collide properly if there are self-intersections.
type ChainShape struct {
	baseShape

	/// The vertices. A loop repeats its first vertex at the end.
	Vertices []common.Vec2

	PrevVertex    common.Vec2
	NextVertex    common.Vec2
	HasPrevVertex bool
	HasNextVertex bool
}

func checkChainSpacing(vertices []common.Vec2) error {
	for i := 1; i < len(vertices); i++ {
		if common.Vec2DistanceSquared(vertices[i-1], vertices[i]) <= common.LinearSlop*common.LinearSlop {
			return fmt.Errorf("%w: vertices %d and %d", ErrChainVertexTooClose, i-1, i)
		}
	}
	return nil
}

/// Create a loop. This automatically adjusts connectivity.
func NewChainLoop(vertices []common.Vec2) (*ChainShape, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("%w: loop has %d vertices, need 3", ErrChainTooShort, len(vertices))
	}
	if err := checkChainSpacing(vertices); err != nil {
		return nil, err
	}

	count := len(vertices) + 1
	chain := &ChainShape{baseShape: baseShape{Radius: common.PolygonRadius}}
	chain.Vertices = make([]common.Vec2, count)
	copy(chain.Vertices, vertices)
	chain.Vertices[count-1] = chain.Vertices[0]

	chain.PrevVertex = chain.Vertices[count-2]
	chain.NextVertex = chain.Vertices[1]
	chain.HasPrevVertex = true
	chain.HasNextVertex = true
	return chain, nil
}

/// Create a chain with isolated end vertices.
func NewChain(vertices []common.Vec2) (*ChainShape, error) {
	if len(vertices) < 2 {
		return nil, fmt.Errorf("%w: chain has %d vertices, need 2", ErrChainTooShort, len(vertices))
	}
	if err := checkChainSpacing(vertices); err != nil {
		return nil, err
	}

	chain := &ChainShape{baseShape: baseShape{Radius: common.PolygonRadius}}
	chain.Vertices = append([]common.Vec2(nil), vertices...)
	return chain, nil
}

/// Establish connectivity to a vertex that precedes the first vertex.
/// Don't call this for loops.
func (chain *ChainShape) SetPrevVertex(prevVertex common.Vec2) {
	chain.PrevVertex = prevVertex
	chain.HasPrevVertex = true
}

/// Establish connectivity to a vertex that follows the last vertex.
/// Don't call this for loops.
func (chain *ChainShape) SetNextVertex(nextVertex common.Vec2) {
	chain.NextVertex = nextVertex
	chain.HasNextVertex = true
}

func (chain *ChainShape) Clone() Shape {
	clone := *chain
	clone.Vertices = append([]common.Vec2(nil), chain.Vertices...)
	return &clone
}

func (chain *ChainShape) GetType() ShapeType {
	return ShapeChain
}

/// edge count = vertex count - 1
func (chain *ChainShape) GetChildCount() int {
	return len(chain.Vertices) - 1
}

/// Get a child edge, with ghost vertices from its neighbours.
func (chain *ChainShape) GetChildEdge(edge *EdgeShape, index int) {
	count := len(chain.Vertices)
	common.Assert(0 <= index && index < count-1, "chain edge index out of range")

	edge.Radius = chain.Radius
	edge.Vertex1 = chain.Vertices[index]
	edge.Vertex2 = chain.Vertices[index+1]

	if index > 0 {
		edge.Vertex0 = chain.Vertices[index-1]
		edge.HasVertex0 = true
	} else {
		edge.Vertex0 = chain.PrevVertex
		edge.HasVertex0 = chain.HasPrevVertex
	}

	if index < count-2 {
		edge.Vertex3 = chain.Vertices[index+2]
		edge.HasVertex3 = true
	} else {
		edge.Vertex3 = chain.NextVertex
		edge.HasVertex3 = chain.HasNextVertex
	}
}

/// This always return false.
func (chain *ChainShape) TestPoint(xf common.Transform, p common.Vec2) bool {
	return false
}

func (chain *ChainShape) childVertices(childIndex int) (common.Vec2, common.Vec2) {
	count := len(chain.Vertices)
	common.Assert(childIndex < count, "chain child %d out of range", childIndex)

	i1 := childIndex
	i2 := childIndex + 1
	if i2 == count {
		i2 = 0
	}
	return chain.Vertices[i1], chain.Vertices[i2]
}

func (chain *ChainShape) RayCast(input RayCastInput, xf common.Transform, childIndex int) (RayCastOutput, bool) {
	v1, v2 := chain.childVertices(childIndex)
	edge := EdgeShape{Vertex1: v1, Vertex2: v2}
	return edge.RayCast(input, xf, 0)
}

func (chain *ChainShape) ComputeAABB(xf common.Transform, childIndex int) AABB {
	v1, v2 := chain.childVertices(childIndex)
	v1 = common.MulXV(xf, v1)
	v2 = common.MulXV(xf, v2)
	return AABB{LowerBound: common.MinVec2(v1, v2), UpperBound: common.MaxVec2(v1, v2)}
}

/// Chains have zero mass.
func (chain *ChainShape) ComputeMass(density float32) MassData {
	return MassData{}
}
