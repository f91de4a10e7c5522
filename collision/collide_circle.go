package collision

import (
	"github.com/engine-pi/jbox2d/common"
)

/// Compute the collision manifold between two circles.
func CollideCircles(manifold *Manifold, circleA *CircleShape, xfA common.Transform, circleB *CircleShape, xfB common.Transform) {
	manifold.PointCount = 0

	pA := common.MulXV(xfA, circleA.P)
	pB := common.MulXV(xfB, circleB.P)

	d := pB.Sub(pA)
	distSqr := common.Dot(d, d)
	radius := circleA.Radius + circleB.Radius
	if distSqr > radius*radius {
		return
	}

	manifold.Type = ManifoldCircles
	manifold.LocalPoint = circleA.P
	manifold.LocalNormal.SetZero()
	manifold.PointCount = 1

	manifold.Points[0].LocalPoint = circleB.P
	manifold.Points[0].ID.SetKey(0)
}

/// Compute the collision manifold between a polygon and a circle.
func CollidePolygonAndCircle(manifold *Manifold, polygonA *PolygonShape, xfA common.Transform, circleB *CircleShape, xfB common.Transform) {
	manifold.PointCount = 0

	// Compute circle position in the frame of the polygon.
	c := common.MulXV(xfB, circleB.P)
	cLocal := common.MulTXV(xfA, c)

	// Find the min separating edge.
	normalIndex := 0
	separation := -common.MaxFloat
	radius := polygonA.Radius + circleB.Radius
	vertexCount := polygonA.Count
	vertices := &polygonA.Vertices
	normals := &polygonA.Normals

	for i := 0; i < vertexCount; i++ {
		s := common.Dot(normals[i], cLocal.Sub(vertices[i]))
		if s > radius {
			// Early out.
			return
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	// Vertices that subtend the incident face.
	vertIndex1 := normalIndex
	vertIndex2 := 0
	if vertIndex1+1 < vertexCount {
		vertIndex2 = vertIndex1 + 1
	}
	v1 := vertices[vertIndex1]
	v2 := vertices[vertIndex2]

	setPoint := func(normal, point common.Vec2) {
		manifold.PointCount = 1
		manifold.Type = ManifoldFaceA
		manifold.LocalNormal = normal
		manifold.LocalPoint = point
		manifold.Points[0].LocalPoint = circleB.P
		manifold.Points[0].ID.SetKey(0)
	}

	// If the center is inside the polygon ...
	if separation < common.Epsilon {
		setPoint(normals[normalIndex], v1.Add(v2).Mul(0.5))
		return
	}

	// Compute barycentric coordinates
	u1 := common.Dot(cLocal.Sub(v1), v2.Sub(v1))
	u2 := common.Dot(cLocal.Sub(v2), v1.Sub(v2))

	switch {
	case u1 <= 0.0:
		if common.Vec2DistanceSquared(cLocal, v1) > radius*radius {
			return
		}
		normal := cLocal.Sub(v1)
		normal.Normalize()
		setPoint(normal, v1)

	case u2 <= 0.0:
		if common.Vec2DistanceSquared(cLocal, v2) > radius*radius {
			return
		}
		normal := cLocal.Sub(v2)
		normal.Normalize()
		setPoint(normal, v2)

	default:
		faceCenter := v1.Add(v2).Mul(0.5)
		if common.Dot(cLocal.Sub(faceCenter), normals[vertIndex1]) > radius {
			return
		}
		setPoint(normals[vertIndex1], faceCenter)
	}
}
