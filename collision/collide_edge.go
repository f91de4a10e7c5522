package collision

import (
	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/common"
)

/// Compute contact points for edge versus circle.
/// This accounts for edge connectivity.
func CollideEdgeAndCircle(manifold *Manifold, edgeA *EdgeShape, xfA common.Transform, circleB *CircleShape, xfB common.Transform) {
	manifold.PointCount = 0

	// Compute circle in frame of edge
	Q := common.MulTXV(xfA, common.MulXV(xfB, circleB.P))

	A := edgeA.Vertex1
	B := edgeA.Vertex2
	e := B.Sub(A)

	// Barycentric coordinates
	u := common.Dot(e, B.Sub(Q))
	v := common.Dot(e, Q.Sub(A))

	radius := edgeA.Radius + circleB.Radius

	setPoint := func(mtype ManifoldType, normal, point common.Vec2, indexA uint8, typeA FeatureType) {
		manifold.PointCount = 1
		manifold.Type = mtype
		manifold.LocalNormal = normal
		manifold.LocalPoint = point
		manifold.Points[0].ID = ContactID{IndexA: indexA, IndexB: 0, TypeA: typeA, TypeB: FeatureVertex}
		manifold.Points[0].LocalPoint = circleB.P
	}

	// Region A
	if v <= 0.0 {
		if common.Vec2DistanceSquared(Q, A) > radius*radius {
			return
		}

		// Is there an edge connected to A?
		if edgeA.HasVertex0 {
			e1 := A.Sub(edgeA.Vertex0)
			// Is the circle in Region AB of the previous edge?
			if common.Dot(e1, A.Sub(Q)) > 0.0 {
				return
			}
		}

		setPoint(ManifoldCircles, common.Vec2Zero, A, 0, FeatureVertex)
		return
	}

	// Region B
	if u <= 0.0 {
		if common.Vec2DistanceSquared(Q, B) > radius*radius {
			return
		}

		// Is there an edge connected to B?
		if edgeA.HasVertex3 {
			e2 := edgeA.Vertex3.Sub(B)
			// Is the circle in Region AB of the next edge?
			if common.Dot(e2, Q.Sub(B)) > 0.0 {
				return
			}
		}

		setPoint(ManifoldCircles, common.Vec2Zero, B, 1, FeatureVertex)
		return
	}

	// Region AB
	den := common.Dot(e, e)
	common.Assert(den > 0.0, "degenerate edge")
	P := A.Mul(u).Add(B.Mul(v)).Mul(1.0 / den)
	if common.Vec2DistanceSquared(Q, P) > radius*radius {
		return
	}

	n := common.MakeVec2(-e.Y, e.X)
	if common.Dot(n, Q.Sub(A)) < 0.0 {
		n = n.Neg()
	}
	n.Normalize()

	setPoint(ManifoldFaceA, n, A, 0, FeatureFace)
}

type epAxisType uint8

const (
	epAxisUnknown epAxisType = iota
	epAxisEdgeA
	epAxisEdgeB
)

// This structure is used to keep track of the best separating axis.
type epAxis struct {
	kind       epAxisType
	index      int
	separation float32
}

// This holds polygon B expressed in frame A.
type tempPolygon struct {
	vertices [common.MaxPolygonVertices]common.Vec2
	normals  [common.MaxPolygonVertices]common.Vec2
	count    int
}

// Reference face used for clipping
type referenceFace struct {
	i1, i2      int
	v1, v2      common.Vec2
	normal      common.Vec2
	sideNormal1 common.Vec2
	sideOffset1 float32
	sideNormal2 common.Vec2
	sideOffset2 float32
}

// epCollider collides an edge and a polygon, taking into account edge adjacency.
type epCollider struct {
	polygonB tempPolygon

	xf                        common.Transform
	centroidB                 common.Vec2
	v0, v1, v2, v3            common.Vec2
	normal0, normal1, normal2 common.Vec2
	normal                    common.Vec2
	lowerLimit, upperLimit    common.Vec2
	radius                    float32
	front                     bool
}

// Algorithm:
// 1. Classify v1 and v2
// 2. Classify polygon centroid as front or back
// 3. Flip normal if necessary
// 4. Initialize normal range to [-pi, pi] about face normal
// 5. Adjust normal range according to adjacent edges
// 6. Visit each separating axes, only accept axes within the range
// 7. Return if _any_ axis indicates separation
// 8. Clip
func (c *epCollider) collide(manifold *Manifold, edgeA *EdgeShape, xfA common.Transform, polygonB *PolygonShape, xfB common.Transform) {
	c.xf = common.MulTXX(xfA, xfB)
	c.centroidB = common.MulXV(c.xf, polygonB.Centroid)

	c.v0 = edgeA.Vertex0
	c.v1 = edgeA.Vertex1
	c.v2 = edgeA.Vertex2
	c.v3 = edgeA.Vertex3

	hasVertex0 := edgeA.HasVertex0
	hasVertex3 := edgeA.HasVertex3

	edge1 := c.v2.Sub(c.v1)
	edge1.Normalize()
	c.normal1 = common.MakeVec2(edge1.Y, -edge1.X)
	offset1 := common.Dot(c.normal1, c.centroidB.Sub(c.v1))
	var offset0, offset2 float32
	convex1, convex2 := false, false

	// Is there a preceding edge?
	if hasVertex0 {
		edge0 := c.v1.Sub(c.v0)
		edge0.Normalize()
		c.normal0 = common.MakeVec2(edge0.Y, -edge0.X)
		convex1 = common.Cross(edge0, edge1) >= 0.0
		offset0 = common.Dot(c.normal0, c.centroidB.Sub(c.v0))
	}

	// Is there a following edge?
	if hasVertex3 {
		edge2 := c.v3.Sub(c.v2)
		edge2.Normalize()
		c.normal2 = common.MakeVec2(edge2.Y, -edge2.X)
		convex2 = common.Cross(edge1, edge2) > 0.0
		offset2 = common.Dot(c.normal2, c.centroidB.Sub(c.v2))
	}

	n0, n1, n2 := c.normal0, c.normal1, c.normal2

	// Determine front or back collision. Determine collision normal limits.
	// Each case picks the limits for the front and the back face.
	var frontLower, frontUpper, backLower, backUpper common.Vec2
	switch {
	case hasVertex0 && hasVertex3:
		switch {
		case convex1 && convex2:
			c.front = offset0 >= 0.0 || offset1 >= 0.0 || offset2 >= 0.0
			frontLower, frontUpper = n0, n2
			backLower, backUpper = n1.Neg(), n1.Neg()
		case convex1:
			c.front = offset0 >= 0.0 || (offset1 >= 0.0 && offset2 >= 0.0)
			frontLower, frontUpper = n0, n1
			backLower, backUpper = n2.Neg(), n1.Neg()
		case convex2:
			c.front = offset2 >= 0.0 || (offset0 >= 0.0 && offset1 >= 0.0)
			frontLower, frontUpper = n1, n2
			backLower, backUpper = n1.Neg(), n0.Neg()
		default:
			c.front = offset0 >= 0.0 && offset1 >= 0.0 && offset2 >= 0.0
			frontLower, frontUpper = n1, n1
			backLower, backUpper = n2.Neg(), n0.Neg()
		}

	case hasVertex0:
		if convex1 {
			c.front = offset0 >= 0.0 || offset1 >= 0.0
			frontLower, frontUpper = n0, n1.Neg()
			backLower, backUpper = n1, n1.Neg()
		} else {
			c.front = offset0 >= 0.0 && offset1 >= 0.0
			frontLower, frontUpper = n1, n1.Neg()
			backLower, backUpper = n1, n0.Neg()
		}

	case hasVertex3:
		if convex2 {
			c.front = offset1 >= 0.0 || offset2 >= 0.0
			frontLower, frontUpper = n1.Neg(), n2
			backLower, backUpper = n1.Neg(), n1
		} else {
			c.front = offset1 >= 0.0 && offset2 >= 0.0
			frontLower, frontUpper = n1.Neg(), n1
			backLower, backUpper = n2.Neg(), n1
		}

	default:
		c.front = offset1 >= 0.0
		frontLower, frontUpper = n1.Neg(), n1.Neg()
		backLower, backUpper = n1, n1
	}

	if c.front {
		c.normal = n1
		c.lowerLimit, c.upperLimit = frontLower, frontUpper
	} else {
		c.normal = n1.Neg()
		c.lowerLimit, c.upperLimit = backLower, backUpper
	}

	// Get polygonB in frameA
	c.polygonB.count = polygonB.Count
	for i := 0; i < polygonB.Count; i++ {
		c.polygonB.vertices[i] = common.MulXV(c.xf, polygonB.Vertices[i])
		c.polygonB.normals[i] = common.MulRV(c.xf.Q, polygonB.Normals[i])
	}

	c.radius = polygonB.Radius + edgeA.Radius

	manifold.PointCount = 0

	edgeAxis := c.computeEdgeSeparation()

	// If no valid normal can be found than this edge should not collide.
	if edgeAxis.kind == epAxisUnknown {
		return
	}

	if edgeAxis.separation > c.radius {
		return
	}

	polygonAxis := c.computePolygonSeparation()
	if polygonAxis.kind != epAxisUnknown && polygonAxis.separation > c.radius {
		return
	}

	// Use hysteresis for jitter reduction.
	const relativeTol = 0.98
	const absoluteTol = 0.001

	primaryAxis := edgeAxis
	if polygonAxis.kind != epAxisUnknown && polygonAxis.separation > relativeTol*edgeAxis.separation+absoluteTol {
		primaryAxis = polygonAxis
	}

	var ie [2]ClipVertex
	var rf referenceFace
	if primaryAxis.kind == epAxisEdgeA {
		manifold.Type = ManifoldFaceA

		// Search for the polygon normal that is most anti-parallel to the edge normal.
		bestIndex := 0
		bestValue := common.Dot(c.normal, c.polygonB.normals[0])
		for i := 1; i < c.polygonB.count; i++ {
			value := common.Dot(c.normal, c.polygonB.normals[i])
			if value < bestValue {
				bestValue = value
				bestIndex = i
			}
		}

		i1 := bestIndex
		i2 := 0
		if i1+1 < c.polygonB.count {
			i2 = i1 + 1
		}

		ie[0].V = c.polygonB.vertices[i1]
		ie[0].ID = ContactID{IndexA: 0, IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex}
		ie[1].V = c.polygonB.vertices[i2]
		ie[1].ID = ContactID{IndexA: 0, IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex}

		if c.front {
			rf.i1, rf.i2 = 0, 1
			rf.v1, rf.v2 = c.v1, c.v2
			rf.normal = c.normal1
		} else {
			rf.i1, rf.i2 = 1, 0
			rf.v1, rf.v2 = c.v2, c.v1
			rf.normal = c.normal1.Neg()
		}
	} else {
		manifold.Type = ManifoldFaceB

		ie[0].V = c.v1
		ie[0].ID = ContactID{IndexA: 0, IndexB: uint8(primaryAxis.index), TypeA: FeatureVertex, TypeB: FeatureFace}
		ie[1].V = c.v2
		ie[1].ID = ContactID{IndexA: 0, IndexB: uint8(primaryAxis.index), TypeA: FeatureVertex, TypeB: FeatureFace}

		rf.i1 = primaryAxis.index
		rf.i2 = 0
		if rf.i1+1 < c.polygonB.count {
			rf.i2 = rf.i1 + 1
		}
		rf.v1 = c.polygonB.vertices[rf.i1]
		rf.v2 = c.polygonB.vertices[rf.i2]
		rf.normal = c.polygonB.normals[rf.i1]
	}

	rf.sideNormal1 = common.MakeVec2(rf.normal.Y, -rf.normal.X)
	rf.sideNormal2 = rf.sideNormal1.Neg()
	rf.sideOffset1 = common.Dot(rf.sideNormal1, rf.v1)
	rf.sideOffset2 = common.Dot(rf.sideNormal2, rf.v2)

	// Clip incident edge against extruded edge1 side edges.
	var clipPoints1, clipPoints2 [2]ClipVertex

	// Clip to box side 1
	if ClipSegmentToLine(&clipPoints1, ie, rf.sideNormal1, rf.sideOffset1, rf.i1) < common.MaxManifoldPoints {
		return
	}

	// Clip to negative box side 1
	if ClipSegmentToLine(&clipPoints2, clipPoints1, rf.sideNormal2, rf.sideOffset2, rf.i2) < common.MaxManifoldPoints {
		return
	}

	// Now clipPoints2 contains the clipped points.
	if primaryAxis.kind == epAxisEdgeA {
		manifold.LocalNormal = rf.normal
		manifold.LocalPoint = rf.v1
	} else {
		manifold.LocalNormal = polygonB.Normals[rf.i1]
		manifold.LocalPoint = polygonB.Vertices[rf.i1]
	}

	pointCount := 0
	for i := 0; i < common.MaxManifoldPoints; i++ {
		separation := common.Dot(rf.normal, clipPoints2[i].V.Sub(rf.v1))
		if separation <= c.radius {
			cp := &manifold.Points[pointCount]
			if primaryAxis.kind == epAxisEdgeA {
				cp.LocalPoint = common.MulTXV(c.xf, clipPoints2[i].V)
				cp.ID = clipPoints2[i].ID
			} else {
				cp.LocalPoint = clipPoints2[i].V
				cp.ID = clipPoints2[i].ID.Swap()
			}
			pointCount++
		}
	}

	manifold.PointCount = pointCount
}

func (c *epCollider) computeEdgeSeparation() epAxis {
	axis := epAxis{kind: epAxisEdgeA, separation: common.MaxFloat}
	if !c.front {
		axis.index = 1
	}

	for i := 0; i < c.polygonB.count; i++ {
		s := common.Dot(c.normal, c.polygonB.vertices[i].Sub(c.v1))
		if s < axis.separation {
			axis.separation = s
		}
	}
	return axis
}

func (c *epCollider) computePolygonSeparation() epAxis {
	axis := epAxis{kind: epAxisUnknown, index: -1, separation: -common.MaxFloat}

	perp := common.MakeVec2(-c.normal.Y, c.normal.X)

	for i := 0; i < c.polygonB.count; i++ {
		n := c.polygonB.normals[i].Neg()

		s1 := common.Dot(n, c.polygonB.vertices[i].Sub(c.v1))
		s2 := common.Dot(n, c.polygonB.vertices[i].Sub(c.v2))
		s := math32.Min(s1, s2)

		if s > c.radius {
			// No collision
			return epAxis{kind: epAxisEdgeB, index: i, separation: s}
		}

		// Adjacency
		if common.Dot(n, perp) >= 0.0 {
			if common.Dot(n.Sub(c.upperLimit), c.normal) < -common.AngularSlop {
				continue
			}
		} else {
			if common.Dot(n.Sub(c.lowerLimit), c.normal) < -common.AngularSlop {
				continue
			}
		}

		if s > axis.separation {
			axis = epAxis{kind: epAxisEdgeB, index: i, separation: s}
		}
	}
	return axis
}

/// Compute the collision manifold between an edge and a polygon.
/// Ghost vertices on the edge suppress collisions with internal features.
func CollideEdgeAndPolygon(manifold *Manifold, edgeA *EdgeShape, xfA common.Transform, polygonB *PolygonShape, xfB common.Transform) {
	var collider epCollider
	collider.collide(manifold, edgeA, xfA, polygonB, xfB)
}
