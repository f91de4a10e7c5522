// Package collision holds the shapes, the dynamic AABB tree broad phase and
// the narrow phase: GJK distance, contact manifolds and time of impact.
package collision

import (
	"math"

	"github.com/engine-pi/jbox2d/common"
)

const NullFeature uint8 = math.MaxUint8

type FeatureType uint8

const (
	FeatureVertex FeatureType = iota
	FeatureFace
)

/// The features that intersect to form the contact point.
type ContactFeature struct {
	IndexA uint8       ///< Feature index on shapeA
	IndexB uint8       ///< Feature index on shapeB
	TypeA  FeatureType ///< The feature type on shapeA
	TypeB  FeatureType ///< The feature type on shapeB
}

/// Contact ids to facilitate warm starting. Two points match across steps
/// exactly when their keys are equal.
type ContactID ContactFeature

func (id ContactID) Key() uint32 {
	return uint32(id.IndexA) |
		uint32(id.IndexB)<<8 |
		uint32(id.TypeA)<<16 |
		uint32(id.TypeB)<<24
}

func (id *ContactID) SetKey(key uint32) {
	id.IndexA = uint8(key)
	id.IndexB = uint8(key >> 8)
	id.TypeA = FeatureType(key >> 16)
	id.TypeB = FeatureType(key >> 24)
}

// Swap exchanges the A and B features, used when a routine ran with the
// shapes flipped.
func (id ContactID) Swap() ContactID {
	return ContactID{
		IndexA: id.IndexB,
		IndexB: id.IndexA,
		TypeA:  id.TypeB,
		TypeB:  id.TypeA,
	}
}

/// A manifold point is a contact point belonging to a contact
/// manifold. It holds details related to the geometry and dynamics
/// of the contact points.
/// The local point usage depends on the manifold type:
/// -ManifoldCircles: the local center of circleB
/// -ManifoldFaceA: the local center of circleB or the clip point of polygonB
/// -ManifoldFaceB: the clip point of polygonA
/// Note: the impulses are used for internal caching and may not
/// provide reliable contact forces, especially for high speed collisions.
type ManifoldPoint struct {
	LocalPoint     common.Vec2 ///< usage depends on manifold type
	NormalImpulse  float32     ///< the non-penetration impulse
	TangentImpulse float32     ///< the friction impulse
	ID             ContactID   ///< uniquely identifies a contact point between two shapes
}

type ManifoldType uint8

const (
	ManifoldCircles ManifoldType = iota
	ManifoldFaceA
	ManifoldFaceB
)

func (t ManifoldType) String() string {
	switch t {
	case ManifoldCircles:
		return "circles"
	case ManifoldFaceA:
		return "faceA"
	case ManifoldFaceB:
		return "faceB"
	}
	return "unknown"
}

/// A manifold for two touching convex shapes.
/// The local point usage depends on the manifold type:
/// -ManifoldCircles: the local center of circleA
/// -ManifoldFaceA: the center of faceA
/// -ManifoldFaceB: the center of faceB
/// Similarly the local normal usage:
/// -ManifoldCircles: not used
/// -ManifoldFaceA: the normal on polygonA
/// -ManifoldFaceB: the normal on polygonB
/// We store contacts in this way so that position correction can
/// account for movement, which is critical for continuous physics.
type Manifold struct {
	Points      [common.MaxManifoldPoints]ManifoldPoint ///< the points of contact
	LocalNormal common.Vec2                             ///< not used for ManifoldCircles
	LocalPoint  common.Vec2                             ///< usage depends on manifold type
	Type        ManifoldType
	PointCount  int ///< the number of manifold points
}

/// This is used to compute the current state of a contact manifold.
type WorldManifold struct {
	Normal      common.Vec2                           ///< world vector pointing from A to B
	Points      [common.MaxManifoldPoints]common.Vec2 ///< world contact point (point of intersection)
	Separations [common.MaxManifoldPoints]float32     ///< a negative value indicates overlap, in meters
}

/// Evaluate the manifold with supplied transforms. This assumes
/// modest motion from the original state. This does not change the
/// point count, impulses, etc. The radii must come from the shapes
/// that generated the manifold.
func (wm *WorldManifold) Initialize(manifold *Manifold, xfA common.Transform, radiusA float32, xfB common.Transform, radiusB float32) {
	if manifold.PointCount == 0 {
		return
	}

	switch manifold.Type {
	case ManifoldCircles:
		wm.Normal.Set(1.0, 0.0)
		pointA := common.MulXV(xfA, manifold.LocalPoint)
		pointB := common.MulXV(xfB, manifold.Points[0].LocalPoint)
		if common.Vec2DistanceSquared(pointA, pointB) > common.Epsilon*common.Epsilon {
			wm.Normal = pointB.Sub(pointA)
			wm.Normal.Normalize()
		}

		cA := pointA.Add(wm.Normal.Mul(radiusA))
		cB := pointB.Sub(wm.Normal.Mul(radiusB))
		wm.Points[0] = cA.Add(cB).Mul(0.5)
		wm.Separations[0] = common.Dot(cB.Sub(cA), wm.Normal)

	case ManifoldFaceA:
		wm.Normal = common.MulRV(xfA.Q, manifold.LocalNormal)
		planePoint := common.MulXV(xfA, manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := common.MulXV(xfB, manifold.Points[i].LocalPoint)
			cA := clipPoint.Add(wm.Normal.Mul(radiusA - common.Dot(clipPoint.Sub(planePoint), wm.Normal)))
			cB := clipPoint.Sub(wm.Normal.Mul(radiusB))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = common.Dot(cB.Sub(cA), wm.Normal)
		}

	case ManifoldFaceB:
		wm.Normal = common.MulRV(xfB.Q, manifold.LocalNormal)
		planePoint := common.MulXV(xfB, manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := common.MulXV(xfA, manifold.Points[i].LocalPoint)
			cB := clipPoint.Add(wm.Normal.Mul(radiusB - common.Dot(clipPoint.Sub(planePoint), wm.Normal)))
			cA := clipPoint.Sub(wm.Normal.Mul(radiusA))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = common.Dot(cA.Sub(cB), wm.Normal)
		}

		// Ensure normal points from A to B.
		wm.Normal = wm.Normal.Neg()
	}
}

/// This is used for determining the state of contact points.
type PointState uint8

const (
	NullState    PointState = iota ///< point does not exist
	AddState                       ///< point was added in the update
	PersistState                   ///< point persisted across the update
	RemoveState                    ///< point was removed in the update
)

/// Compute the point states given two manifolds. The states pertain to the transition from manifold1
/// to manifold2. So state1 is either persist or remove while state2 is either add or persist.
/// Points are matched by contact id only.
func GetPointStates(manifold1, manifold2 *Manifold) (state1, state2 [common.MaxManifoldPoints]PointState) {
	// Detect persists and removes.
	for i := 0; i < manifold1.PointCount; i++ {
		key := manifold1.Points[i].ID.Key()
		state1[i] = RemoveState
		for j := 0; j < manifold2.PointCount; j++ {
			if manifold2.Points[j].ID.Key() == key {
				state1[i] = PersistState
				break
			}
		}
	}

	// Detect persists and adds.
	for i := 0; i < manifold2.PointCount; i++ {
		key := manifold2.Points[i].ID.Key()
		state2[i] = AddState
		for j := 0; j < manifold1.PointCount; j++ {
			if manifold1.Points[j].ID.Key() == key {
				state2[i] = PersistState
				break
			}
		}
	}
	return
}

/// Used for computing contact manifolds.
type ClipVertex struct {
	V  common.Vec2
	ID ContactID
}

/// Ray-cast input data. The ray extends from p1 to p1 + maxFraction * (p2 - p1).
type RayCastInput struct {
	P1, P2      common.Vec2
	MaxFraction float32
}

/// Ray-cast output data. The ray hits at p1 + fraction * (p2 - p1), where p1 and p2
/// come from RayCastInput.
type RayCastOutput struct {
	Normal   common.Vec2
	Fraction float32
}

// Sutherland-Hodgman clipping.
func ClipSegmentToLine(vOut *[2]ClipVertex, vIn [2]ClipVertex, normal common.Vec2, offset float32, vertexIndexA int) int {
	numOut := 0

	// Calculate the distance of end points to the line
	distance0 := common.Dot(normal, vIn[0].V) - offset
	distance1 := common.Dot(normal, vIn[1].V) - offset

	// If the points are behind the plane
	if distance0 <= 0.0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if distance1 <= 0.0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	// If the points are on different sides of the plane
	if distance0*distance1 < 0.0 {
		// Find intersection point of edge and plane
		interp := distance0 / (distance0 - distance1)
		vOut[numOut].V = vIn[0].V.Add(vIn[1].V.Sub(vIn[0].V).Mul(interp))

		// VertexA is hitting edgeB.
		vOut[numOut].ID = ContactID{
			IndexA: uint8(vertexIndexA),
			IndexB: vIn[0].ID.IndexB,
			TypeA:  FeatureVertex,
			TypeB:  FeatureFace,
		}
		numOut++
	}

	return numOut
}

/// Determine if two generic shapes overlap.
func TestOverlap(shapeA Shape, indexA int, shapeB Shape, indexB int, xfA, xfB common.Transform) bool {
	var input DistanceInput
	input.ProxyA.Set(shapeA, indexA)
	input.ProxyB.Set(shapeB, indexB)
	input.TransformA = xfA
	input.TransformB = xfB
	input.UseRadii = true

	var cache SimplexCache
	output := Distance(&cache, &input, nil)

	return output.Distance < 10.0*common.Epsilon
}
