package collision

import (
	"errors"

	"github.com/engine-pi/jbox2d/common"
)

// Configuration errors reported when a shape is built from bad input.
var (
	ErrInvalidRadius       = errors.New("collision: radius must be positive and finite")
	ErrDegeneratePolygon   = errors.New("collision: polygon is degenerate")
	ErrTooManyVertices     = errors.New("collision: too many polygon vertices")
	ErrChainTooShort       = errors.New("collision: chain needs more vertices")
	ErrChainVertexTooClose = errors.New("collision: chain vertices are too close together")
)

/// This holds the mass data computed for a shape.
type MassData struct {
	/// The mass of the shape, usually in kilograms.
	Mass float32

	/// The position of the shape's centroid relative to the shape's origin.
	Center common.Vec2

	/// The rotational inertia of the shape about the local origin.
	I float32
}

type ShapeType uint8

const (
	ShapeCircle ShapeType = iota
	ShapeEdge
	ShapePolygon
	ShapeChain
	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case ShapeCircle:
		return "circle"
	case ShapeEdge:
		return "edge"
	case ShapePolygon:
		return "polygon"
	case ShapeChain:
		return "chain"
	}
	return "unknown"
}

/// A shape is used for collision detection. Shapes used for simulation are
/// cloned into fixtures. Shapes may encapsulate one or more child shapes.
/// The set of shapes is closed: every pair needs a dedicated collision
/// routine, so only the types of this package implement Shape.
type Shape interface {
	/// Clone the concrete shape.
	Clone() Shape

	/// Get the type of this shape. You can use this to down cast to the concrete shape.
	GetType() ShapeType

	GetRadius() float32

	/// Get the number of child primitives.
	GetChildCount() int

	/// Test a point for containment in this shape. This only works for convex shapes.
	/// @param xf the shape world transform.
	/// @param p a point in world coordinates.
	TestPoint(xf common.Transform, p common.Vec2) bool

	/// Cast a ray against a child shape.
	RayCast(input RayCastInput, xf common.Transform, childIndex int) (RayCastOutput, bool)

	/// Given a transform, compute the associated axis aligned bounding box for a child shape.
	ComputeAABB(xf common.Transform, childIndex int) AABB

	/// Compute the mass properties of this shape using its dimensions and density.
	/// The inertia tensor is computed about the local origin.
	/// @param density the density in kilograms per meter squared.
	ComputeMass(density float32) MassData

	sealed()
}

type baseShape struct {
	/// Radius of a shape. For polygonal shapes this must be PolygonRadius. There is no support for
	/// making rounded polygons.
	Radius float32
}

func (s *baseShape) GetRadius() float32 {
	return s.Radius
}

func (s *baseShape) sealed() {}
