package collision

import (
	"github.com/engine-pi/jbox2d/common"
)

// FindMaxSeparation finds the max separation between poly1 and poly2 using
// edge normals from poly1. It returns the separation and the edge index.
func FindMaxSeparation(poly1 *PolygonShape, xf1 common.Transform, poly2 *PolygonShape, xf2 common.Transform) (float32, int) {
	count1 := poly1.Count
	count2 := poly2.Count
	xf := common.MulTXX(xf2, xf1)

	bestIndex := 0
	maxSeparation := -common.MaxFloat
	for i := 0; i < count1; i++ {
		// Get poly1 normal in frame2.
		n := common.MulRV(xf.Q, poly1.Normals[i])
		v1 := common.MulXV(xf, poly1.Vertices[i])

		// Find deepest point for normal i.
		si := common.MaxFloat
		for j := 0; j < count2; j++ {
			sij := common.Dot(n, poly2.Vertices[j].Sub(v1))
			if sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}

	return maxSeparation, bestIndex
}

// FindIncidentEdge returns the edge of poly2 most anti-parallel to the
// reference edge edge1 of poly1, as world clip vertices.
func FindIncidentEdge(poly1 *PolygonShape, xf1 common.Transform, edge1 int, poly2 *PolygonShape, xf2 common.Transform) [2]ClipVertex {
	common.Assert(0 <= edge1 && edge1 < poly1.Count, "reference edge %d out of range", edge1)

	// Get the normal of the reference edge in poly2's frame.
	normal1 := common.MulTRV(xf2.Q, common.MulRV(xf1.Q, poly1.Normals[edge1]))

	// Find the incident edge on poly2.
	index := 0
	minDot := common.MaxFloat
	for i := 0; i < poly2.Count; i++ {
		dot := common.Dot(normal1, poly2.Normals[i])
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	// Build the clip vertices for the incident edge.
	i1 := index
	i2 := 0
	if i1+1 < poly2.Count {
		i2 = i1 + 1
	}

	var c [2]ClipVertex
	c[0].V = common.MulXV(xf2, poly2.Vertices[i1])
	c[0].ID = ContactID{IndexA: uint8(edge1), IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex}
	c[1].V = common.MulXV(xf2, poly2.Vertices[i2])
	c[1].ID = ContactID{IndexA: uint8(edge1), IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex}
	return c
}

/// Compute the collision manifold between two polygons.
// Find edge normal of max separation on A - return if separating axis is found
// Find edge normal of max separation on B - return if separation axis is found
// Choose reference edge as min(minA, minB)
// Find incident edge
// Clip
// The normal points from 1 to 2
func CollidePolygons(manifold *Manifold, polyA *PolygonShape, xfA common.Transform, polyB *PolygonShape, xfB common.Transform) {
	manifold.PointCount = 0
	totalRadius := polyA.Radius + polyB.Radius

	separationA, edgeA := FindMaxSeparation(polyA, xfA, polyB, xfB)
	if separationA > totalRadius {
		return
	}

	separationB, edgeB := FindMaxSeparation(polyB, xfB, polyA, xfA)
	if separationB > totalRadius {
		return
	}

	var poly1, poly2 *PolygonShape // reference and incident polygon
	var xf1, xf2 common.Transform
	var edge1 int // reference edge
	flip := false
	const tol = 0.1 * common.LinearSlop

	if separationB > separationA+tol {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		manifold.Type = ManifoldFaceB
		flip = true
	} else {
		poly1, poly2 = polyA, polyB
		xf1, xf2 = xfA, xfB
		edge1 = edgeA
		manifold.Type = ManifoldFaceA
	}

	incidentEdge := FindIncidentEdge(poly1, xf1, edge1, poly2, xf2)

	count1 := poly1.Count
	iv1 := edge1
	iv2 := 0
	if edge1+1 < count1 {
		iv2 = edge1 + 1
	}

	v11 := poly1.Vertices[iv1]
	v12 := poly1.Vertices[iv2]

	localTangent := v12.Sub(v11)
	localTangent.Normalize()

	localNormal := common.CrossVS(localTangent, 1.0)
	planePoint := v11.Add(v12).Mul(0.5)

	tangent := common.MulRV(xf1.Q, localTangent)
	normal := common.CrossVS(tangent, 1.0)

	v11 = common.MulXV(xf1, v11)
	v12 = common.MulXV(xf1, v12)

	// Face offset.
	frontOffset := common.Dot(normal, v11)

	// Side offsets, extended by polytope skin thickness.
	sideOffset1 := -common.Dot(tangent, v11) + totalRadius
	sideOffset2 := common.Dot(tangent, v12) + totalRadius

	// Clip incident edge against extruded edge1 side edges.
	var clipPoints1, clipPoints2 [2]ClipVertex

	// Clip to box side 1
	if ClipSegmentToLine(&clipPoints1, incidentEdge, tangent.Neg(), sideOffset1, iv1) < 2 {
		return
	}

	// Clip to negative box side 1
	if ClipSegmentToLine(&clipPoints2, clipPoints1, tangent, sideOffset2, iv2) < 2 {
		return
	}

	// Now clipPoints2 contains the clipped points.
	manifold.LocalNormal = localNormal
	manifold.LocalPoint = planePoint

	pointCount := 0
	for i := 0; i < common.MaxManifoldPoints; i++ {
		separation := common.Dot(normal, clipPoints2[i].V) - frontOffset
		if separation <= totalRadius {
			cp := &manifold.Points[pointCount]
			cp.LocalPoint = common.MulTXV(xf2, clipPoints2[i].V)
			cp.ID = clipPoints2[i].ID
			if flip {
				cp.ID = cp.ID.Swap()
			}
			pointCount++
		}
	}

	manifold.PointCount = pointCount
}
