package collision

import (
	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/common"
)

/// A solid circle shape.
type CircleShape struct {
	baseShape

	/// Position
	P common.Vec2
}

// NewCircleShape returns a circle centered on the body origin.
func NewCircleShape(radius float32) (*CircleShape, error) {
	c := &CircleShape{}
	if err := c.SetRadius(radius); err != nil {
		return nil, err
	}
	return c, nil
}

func (shape *CircleShape) SetRadius(radius float32) error {
	if !(radius > 0) || !common.IsValid(radius) {
		return ErrInvalidRadius
	}
	shape.Radius = radius
	return nil
}

func (shape *CircleShape) Clone() Shape {
	clone := *shape
	return &clone
}

func (shape *CircleShape) GetType() ShapeType {
	return ShapeCircle
}

func (shape *CircleShape) GetChildCount() int {
	return 1
}

func (shape *CircleShape) TestPoint(transform common.Transform, p common.Vec2) bool {
	center := transform.P.Add(common.MulRV(transform.Q, shape.P))
	d := p.Sub(center)
	return common.Dot(d, d) <= shape.Radius*shape.Radius
}

// Collision Detection in Interactive 3D Environments by Gino van den Bergen
// From Section 3.1.2
// x = s + a * r
// norm(x) = radius
func (shape *CircleShape) RayCast(input RayCastInput, transform common.Transform, childIndex int) (RayCastOutput, bool) {
	var output RayCastOutput

	position := transform.P.Add(common.MulRV(transform.Q, shape.P))
	s := input.P1.Sub(position)
	b := common.Dot(s, s) - shape.Radius*shape.Radius

	// Solve quadratic equation.
	r := input.P2.Sub(input.P1)
	c := common.Dot(s, r)
	rr := common.Dot(r, r)
	sigma := c*c - rr*b

	// Check for negative discriminant and short segment.
	if sigma < 0.0 || rr < common.Epsilon {
		return output, false
	}

	// Find the point of intersection of the line with the circle.
	a := -(c + math32.Sqrt(sigma))

	// Is the intersection point on the segment?
	if 0.0 <= a && a <= input.MaxFraction*rr {
		a /= rr
		output.Fraction = a
		output.Normal = s.Add(r.Mul(a))
		output.Normal.Normalize()
		return output, true
	}

	return output, false
}

func (shape *CircleShape) ComputeAABB(transform common.Transform, childIndex int) AABB {
	p := transform.P.Add(common.MulRV(transform.Q, shape.P))
	return AABB{
		LowerBound: common.MakeVec2(p.X-shape.Radius, p.Y-shape.Radius),
		UpperBound: common.MakeVec2(p.X+shape.Radius, p.Y+shape.Radius),
	}
}

func (shape *CircleShape) ComputeMass(density float32) MassData {
	var massData MassData
	massData.Mass = density * common.Pi * shape.Radius * shape.Radius
	massData.Center = shape.P

	// inertia about the local origin
	massData.I = massData.Mass * (0.5*shape.Radius*shape.Radius + common.Dot(shape.P, shape.P))
	return massData
}
