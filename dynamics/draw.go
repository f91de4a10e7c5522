package dynamics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

type DrawFlags uint32

const (
	DrawShape        DrawFlags = 1 << iota ///< draw shapes
	DrawJoint                              ///< draw joint connections
	DrawAABB                               ///< draw axis aligned bounding boxes
	DrawPair                               ///< draw broad-phase pairs
	DrawCenterOfMass                       ///< draw center of mass frame
)

/// Implement and register this interface with a World to provide debug drawing
/// of physics entities in your game. Vertices are in world coordinates.
type Draw interface {
	/// The flags selecting what World.DrawDebugData renders.
	GetFlags() DrawFlags

	/// Draw a closed polygon provided in CCW order.
	DrawPolygon(vertices []common.Vec2, color common.Color)

	/// Draw a solid closed polygon provided in CCW order.
	DrawSolidPolygon(vertices []common.Vec2, color common.Color)

	/// Draw a circle.
	DrawCircle(center common.Vec2, radius float32, color common.Color)

	/// Draw a solid circle.
	DrawSolidCircle(center common.Vec2, radius float32, axis common.Vec2, color common.Color)

	/// Draw a line segment.
	DrawSegment(p1, p2 common.Vec2, color common.Color)

	/// Draw a transform, given as the homogeneous model matrix of a body
	/// frame (see Transform.Mat3). Choose your own length scale.
	DrawTransform(xf mgl32.Mat3)

	/// Draw a point.
	DrawPoint(p common.Vec2, size float32, color common.Color)
}

var (
	inactiveColor  = common.MakeColor(0.5, 0.5, 0.3)
	staticColor    = common.MakeColor(0.5, 0.9, 0.5)
	kinematicColor = common.MakeColor(0.5, 0.5, 0.9)
	sleepingColor  = common.MakeColor(0.6, 0.6, 0.6)
	awakeColor     = common.MakeColor(0.9, 0.7, 0.7)
	jointColor     = common.MakeColor(0.5, 0.8, 0.8)
	pairColor      = common.MakeColor(0.3, 0.9, 0.9)
	aabbColor      = common.MakeColor(0.9, 0.3, 0.9)
)

func bodyColor(b *Body) common.Color {
	switch {
	case !b.IsActive():
		return inactiveColor
	case b.GetType() == StaticBody:
		return staticColor
	case b.GetType() == KinematicBody:
		return kinematicColor
	case !b.IsAwake():
		return sleepingColor
	default:
		return awakeColor
	}
}

func (world *World) drawShape(fixture *Fixture, xf common.Transform, color common.Color) {
	draw := world.debugDraw

	switch shape := fixture.GetShape().(type) {
	case *collision.CircleShape:
		center := common.MulXV(xf, shape.P)
		axis := common.MulRV(xf.Q, common.MakeVec2(1.0, 0.0))
		draw.DrawSolidCircle(center, shape.Radius, axis, color)

	case *collision.EdgeShape:
		draw.DrawSegment(common.MulXV(xf, shape.Vertex1), common.MulXV(xf, shape.Vertex2), color)

	case *collision.ChainShape:
		ghostColor := common.MakeColor(0.75*color.R, 0.75*color.G, 0.75*color.B)

		v1 := common.MulXV(xf, shape.Vertices[0])
		draw.DrawPoint(v1, 4.0, color)

		if shape.HasPrevVertex {
			vp := common.MulXV(xf, shape.PrevVertex)
			draw.DrawSegment(vp, v1, ghostColor)
			draw.DrawCircle(vp, 0.1, ghostColor)
		}

		for _, v := range shape.Vertices[1:] {
			v2 := common.MulXV(xf, v)
			draw.DrawSegment(v1, v2, color)
			draw.DrawPoint(v2, 4.0, color)
			v1 = v2
		}

		if shape.HasNextVertex {
			vn := common.MulXV(xf, shape.NextVertex)
			draw.DrawSegment(v1, vn, ghostColor)
			draw.DrawCircle(vn, 0.1, ghostColor)
		}

	case *collision.PolygonShape:
		var vertices [common.MaxPolygonVertices]common.Vec2
		for i := 0; i < shape.Count; i++ {
			vertices[i] = common.MulXV(xf, shape.Vertices[i])
		}
		draw.DrawSolidPolygon(vertices[:shape.Count], color)
	}
}

func (world *World) drawJoint(joint Joint) {
	draw := world.debugDraw

	x1 := joint.GetBodyA().GetTransform().P
	x2 := joint.GetBodyB().GetTransform().P
	p1 := joint.GetAnchorA()
	p2 := joint.GetAnchorB()

	switch joint := joint.(type) {
	case *DistanceJoint:
		draw.DrawSegment(p1, p2, jointColor)

	case *PulleyJoint:
		s1 := joint.GetGroundAnchorA()
		s2 := joint.GetGroundAnchorB()
		draw.DrawSegment(s1, p1, jointColor)
		draw.DrawSegment(s2, p2, jointColor)
		draw.DrawSegment(s1, s2, jointColor)

	case *MouseJoint:
		// don't draw this

	default:
		draw.DrawSegment(x1, p1, jointColor)
		draw.DrawSegment(p1, p2, jointColor)
		draw.DrawSegment(x2, p2, jointColor)
	}
}

/// Call this to draw shapes and other debug draw data. This is intentionally non-const.
func (world *World) DrawDebugData() {
	if world.debugDraw == nil {
		return
	}

	flags := world.debugDraw.GetFlags()

	if flags&DrawShape != 0 {
		for b := world.bodyList; b != nil; b = b.GetNext() {
			xf := b.GetTransform()
			color := bodyColor(b)
			for f := b.GetFixtureList(); f != nil; f = f.GetNext() {
				world.drawShape(f, xf, color)
			}
		}
	}

	if flags&DrawJoint != 0 {
		for j := world.jointList; j != nil; j = j.GetNext() {
			world.drawJoint(j)
		}
	}

	if flags&DrawPair != 0 {
		for c := world.contactManager.contactList; c != nil; c = c.GetNext() {
			cA := c.GetFixtureA().GetAABB(c.GetChildIndexA()).GetCenter()
			cB := c.GetFixtureB().GetAABB(c.GetChildIndexB()).GetCenter()
			world.debugDraw.DrawSegment(cA, cB, pairColor)
		}
	}

	if flags&DrawAABB != 0 {
		bp := world.contactManager.broadPhase

		for b := world.bodyList; b != nil; b = b.GetNext() {
			if !b.IsActive() {
				continue
			}

			for f := b.GetFixtureList(); f != nil; f = f.GetNext() {
				for _, proxy := range f.proxies {
					aabb := bp.GetFatAABB(proxy.proxyID)
					vs := []common.Vec2{
						common.MakeVec2(aabb.LowerBound.X, aabb.LowerBound.Y),
						common.MakeVec2(aabb.UpperBound.X, aabb.LowerBound.Y),
						common.MakeVec2(aabb.UpperBound.X, aabb.UpperBound.Y),
						common.MakeVec2(aabb.LowerBound.X, aabb.UpperBound.Y),
					}
					world.debugDraw.DrawPolygon(vs, aabbColor)
				}
			}
		}
	}

	if flags&DrawCenterOfMass != 0 {
		for b := world.bodyList; b != nil; b = b.GetNext() {
			xf := b.GetTransform()
			xf.P = b.GetWorldCenter()
			world.debugDraw.DrawTransform(xf.Mat3())
		}
	}
}
