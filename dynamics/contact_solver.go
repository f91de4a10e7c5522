package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

// Ensure a reasonable condition number for the 2-point block solver.
const maxConditionNumber = 1000.0

type velocityConstraintPoint struct {
	rA             common.Vec2
	rB             common.Vec2
	normalImpulse  float32
	tangentImpulse float32
	normalMass     float32
	tangentMass    float32
	velocityBias   float32
}

type contactVelocityConstraint struct {
	points             [common.MaxManifoldPoints]velocityConstraintPoint
	normal             common.Vec2
	normalMass         common.Mat22
	K                  common.Mat22
	indexA             int
	indexB             int
	invMassA, invMassB float32
	invIA, invIB       float32
	friction           float32
	restitution        float32
	tangentSpeed       float32
	pointCount         int
	contactIndex       int
}

type contactPositionConstraint struct {
	localPoints                [common.MaxManifoldPoints]common.Vec2
	localNormal                common.Vec2
	localPoint                 common.Vec2
	indexA                     int
	indexB                     int
	invMassA, invMassB         float32
	localCenterA, localCenterB common.Vec2
	invIA, invIB               float32
	manifoldType               collision.ManifoldType
	radiusA, radiusB           float32
	pointCount                 int
}

type contactSolverDef struct {
	step       TimeStep
	contacts   []*Contact
	positions  []Position
	velocities []Velocity
	tuning     *common.Tuning
	logger     *slog.Logger
}

type contactSolver struct {
	step                TimeStep
	positions           []Position
	velocities          []Velocity
	positionConstraints []contactPositionConstraint
	velocityConstraints []contactVelocityConstraint
	contacts            []*Contact
	tuning              *common.Tuning
	logger              *slog.Logger

	// Number of 2-point patches for which the block solver found no case.
	blockFallbacks int
}

func newContactSolver(def *contactSolverDef) *contactSolver {
	solver := &contactSolver{
		step:                def.step,
		positions:           def.positions,
		velocities:          def.velocities,
		contacts:            def.contacts,
		positionConstraints: make([]contactPositionConstraint, len(def.contacts)),
		velocityConstraints: make([]contactVelocityConstraint, len(def.contacts)),
		tuning:              def.tuning,
		logger:              def.logger,
	}

	// Initialize position independent portions of the constraints.
	for i, contact := range solver.contacts {
		fixtureA := contact.fixtureA
		fixtureB := contact.fixtureB
		bodyA := fixtureA.body
		bodyB := fixtureB.body
		manifold := &contact.manifold

		pointCount := manifold.PointCount
		common.Assert(pointCount > 0, "contact in solver has no points")

		vc := &solver.velocityConstraints[i]
		vc.friction = contact.friction
		vc.restitution = contact.restitution
		vc.tangentSpeed = contact.tangentSpeed
		vc.indexA = bodyA.islandIndex
		vc.indexB = bodyB.islandIndex
		vc.invMassA = bodyA.invMass
		vc.invMassB = bodyB.invMass
		vc.invIA = bodyA.invI
		vc.invIB = bodyB.invI
		vc.contactIndex = i
		vc.pointCount = pointCount

		pc := &solver.positionConstraints[i]
		pc.indexA = bodyA.islandIndex
		pc.indexB = bodyB.islandIndex
		pc.invMassA = bodyA.invMass
		pc.invMassB = bodyB.invMass
		pc.localCenterA = bodyA.sweep.LocalCenter
		pc.localCenterB = bodyB.sweep.LocalCenter
		pc.invIA = bodyA.invI
		pc.invIB = bodyB.invI
		pc.localNormal = manifold.LocalNormal
		pc.localPoint = manifold.LocalPoint
		pc.pointCount = pointCount
		pc.radiusA = fixtureA.shape.GetRadius()
		pc.radiusB = fixtureB.shape.GetRadius()
		pc.manifoldType = manifold.Type

		for j := 0; j < pointCount; j++ {
			cp := &manifold.Points[j]
			vcp := &vc.points[j]

			if solver.step.WarmStarting {
				vcp.normalImpulse = solver.step.DtRatio * cp.NormalImpulse
				vcp.tangentImpulse = solver.step.DtRatio * cp.TangentImpulse
			}

			pc.localPoints[j] = cp.LocalPoint
		}
	}

	return solver
}

// Initialize position dependent portions of the velocity constraints.
func (solver *contactSolver) initializeVelocityConstraints() {
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]
		pc := &solver.positionConstraints[i]

		manifold := &solver.contacts[vc.contactIndex].manifold

		indexA := vc.indexA
		indexB := vc.indexB

		mA := vc.invMassA
		mB := vc.invMassB
		iA := vc.invIA
		iB := vc.invIB

		cA := solver.positions[indexA].C
		aA := solver.positions[indexA].A
		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W

		cB := solver.positions[indexB].C
		aB := solver.positions[indexB].A
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		var xfA, xfB common.Transform
		xfA.Q.Set(aA)
		xfB.Q.Set(aB)
		xfA.P = cA.Sub(common.MulRV(xfA.Q, pc.localCenterA))
		xfB.P = cB.Sub(common.MulRV(xfB.Q, pc.localCenterB))

		var worldManifold collision.WorldManifold
		worldManifold.Initialize(manifold, xfA, pc.radiusA, xfB, pc.radiusB)

		vc.normal = worldManifold.Normal
		tangent := common.CrossVS(vc.normal, 1.0)

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]

			vcp.rA = worldManifold.Points[j].Sub(cA)
			vcp.rB = worldManifold.Points[j].Sub(cB)

			rnA := common.Cross(vcp.rA, vc.normal)
			rnB := common.Cross(vcp.rB, vc.normal)

			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
			vcp.normalMass = 0.0
			if kNormal > 0.0 {
				vcp.normalMass = 1.0 / kNormal
			}

			rtA := common.Cross(vcp.rA, tangent)
			rtB := common.Cross(vcp.rB, tangent)

			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
			vcp.tangentMass = 0.0
			if kTangent > 0.0 {
				vcp.tangentMass = 1.0 / kTangent
			}

			// Setup a velocity bias for restitution.
			vcp.velocityBias = 0.0
			vRel := common.Dot(vc.normal, vB.Add(common.CrossSV(wB, vcp.rB)).Sub(vA).Sub(common.CrossSV(wA, vcp.rA)))
			if vRel < -solver.tuning.VelocityThreshold {
				vcp.velocityBias = -vc.restitution * vRel
			}
		}

		// If we have two points, then prepare the block solver.
		if vc.pointCount == 2 {
			vcp1 := &vc.points[0]
			vcp2 := &vc.points[1]

			rn1A := common.Cross(vcp1.rA, vc.normal)
			rn1B := common.Cross(vcp1.rB, vc.normal)
			rn2A := common.Cross(vcp2.rA, vc.normal)
			rn2B := common.Cross(vcp2.rB, vc.normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			if k11*k11 < maxConditionNumber*(k11*k22-k12*k12) {
				// K is safe to invert.
				vc.K.Ex.Set(k11, k12)
				vc.K.Ey.Set(k12, k22)
				vc.normalMass = vc.K.GetInverse()
			} else {
				// The constraints are redundant, just use one.
				vc.pointCount = 1
			}
		}
	}
}

func (solver *contactSolver) warmStart() {
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]

		indexA := vc.indexA
		indexB := vc.indexB
		mA := vc.invMassA
		iA := vc.invIA
		mB := vc.invMassB
		iB := vc.invIB

		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		normal := vc.normal
		tangent := common.CrossVS(normal, 1.0)

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]
			P := normal.Mul(vcp.normalImpulse).Add(tangent.Mul(vcp.tangentImpulse))
			wA -= iA * common.Cross(vcp.rA, P)
			vA.SubInPlace(P.Mul(mA))
			wB += iB * common.Cross(vcp.rB, P)
			vB.AddInPlace(P.Mul(mB))
		}

		solver.velocities[indexA].V = vA
		solver.velocities[indexA].W = wA
		solver.velocities[indexB].V = vB
		solver.velocities[indexB].W = wB
	}
}

func (solver *contactSolver) solveVelocityConstraints() {
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]

		indexA := vc.indexA
		indexB := vc.indexB
		mA := vc.invMassA
		iA := vc.invIA
		mB := vc.invMassB
		iB := vc.invIB
		pointCount := vc.pointCount

		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		normal := vc.normal
		tangent := common.CrossVS(normal, 1.0)
		friction := vc.friction

		common.Assert(pointCount == 1 || pointCount == 2, "bad point count %d", pointCount)

		// Solve tangent constraints first because non-penetration is more important
		// than friction.
		for j := 0; j < pointCount; j++ {
			vcp := &vc.points[j]

			// Relative velocity at contact
			dv := vB.Add(common.CrossSV(wB, vcp.rB)).Sub(vA).Sub(common.CrossSV(wA, vcp.rA))

			// Compute tangent force
			vt := common.Dot(dv, tangent) - vc.tangentSpeed
			lambda := vcp.tangentMass * (-vt)

			// Clamp the accumulated force
			maxFriction := friction * vcp.normalImpulse
			newImpulse := common.Clamp(vcp.tangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.tangentImpulse
			vcp.tangentImpulse = newImpulse

			// Apply contact impulse
			P := tangent.Mul(lambda)

			vA.SubInPlace(P.Mul(mA))
			wA -= iA * common.Cross(vcp.rA, P)

			vB.AddInPlace(P.Mul(mB))
			wB += iB * common.Cross(vcp.rB, P)
		}

		// Solve normal constraints
		if pointCount == 1 {
			vcp := &vc.points[0]

			// Relative velocity at contact
			dv := vB.Add(common.CrossSV(wB, vcp.rB)).Sub(vA).Sub(common.CrossSV(wA, vcp.rA))

			// Compute normal impulse
			vn := common.Dot(dv, normal)
			lambda := -vcp.normalMass * (vn - vcp.velocityBias)

			// Clamp the accumulated impulse
			newImpulse := max(vcp.normalImpulse+lambda, 0.0)
			lambda = newImpulse - vcp.normalImpulse
			vcp.normalImpulse = newImpulse

			// Apply contact impulse
			P := normal.Mul(lambda)
			vA.SubInPlace(P.Mul(mA))
			wA -= iA * common.Cross(vcp.rA, P)

			vB.AddInPlace(P.Mul(mB))
			wB += iB * common.Cross(vcp.rB, P)
		} else {
			// Block solver developed in collaboration with Dirk Gregorius (back in 01/07 on Box2D_Lite).
			// Build the mini LCP for this contact patch
			//
			// vn = A * x + b, vn >= 0, x >= 0 and vn_i * x_i = 0 with i = 1..2
			//
			// A = J * W * JT and J = ( -n, -r1 x n, n, r2 x n )
			// b = vn0 - velocityBias
			//
			// The system is solved using the "Total enumeration method" (s. Murty). The complementary constraint vn_i * x_i
			// implies that we must have in any solution either vn_i = 0 or x_i = 0. So for the 2D contact problem the cases
			// vn1 = 0 and vn2 = 0, x1 = 0 and x2 = 0, x1 = 0 and vn2 = 0, x2 = 0 and vn1 = 0 need to be tested. The first valid
			// solution that satisfies the problem is chosen.
			//
			// In order to account of the accumulated impulse 'a' (because of the iterative nature of the solver which only requires
			// that the accumulated impulse is clamped and not the incremental impulse) we change the impulse variable (x_i).
			//
			// Substitute:
			//
			// x = a + d
			//
			// a := old total impulse
			// x := new total impulse
			// d := incremental impulse
			//
			// For the current iteration we extend the formula for the incremental impulse
			// to compute the new total impulse:
			//
			// vn = A * d + b
			//    = A * (x - a) + b
			//    = A * x + b - A * a
			//    = A * x + b'
			// b' = b - A * a;

			cp1 := &vc.points[0]
			cp2 := &vc.points[1]

			a := common.MakeVec2(cp1.normalImpulse, cp2.normalImpulse)
			common.Assert(a.X >= 0.0 && a.Y >= 0.0, "negative accumulated normal impulse")

			// Relative velocity at contact
			dv1 := vB.Add(common.CrossSV(wB, cp1.rB)).Sub(vA).Sub(common.CrossSV(wA, cp1.rA))
			dv2 := vB.Add(common.CrossSV(wB, cp2.rB)).Sub(vA).Sub(common.CrossSV(wA, cp2.rA))

			// Compute normal velocity
			vn1 := common.Dot(dv1, normal)
			vn2 := common.Dot(dv2, normal)

			b := common.MakeVec2(vn1-cp1.velocityBias, vn2-cp2.velocityBias)

			// Compute b'
			b.SubInPlace(common.MulMV(vc.K, a))

			// apply pushes the incremental impulse x - a through both points
			// and stores x as the new accumulated impulse.
			apply := func(x common.Vec2) {
				d := x.Sub(a)

				P1 := normal.Mul(d.X)
				P2 := normal.Mul(d.Y)
				vA.SubInPlace(P1.Add(P2).Mul(mA))
				wA -= iA * (common.Cross(cp1.rA, P1) + common.Cross(cp2.rA, P2))

				vB.AddInPlace(P1.Add(P2).Mul(mB))
				wB += iB * (common.Cross(cp1.rB, P1) + common.Cross(cp2.rB, P2))

				cp1.normalImpulse = x.X
				cp2.normalImpulse = x.Y
			}

			// Case 1: vn = 0
			//
			// 0 = A * x + b'
			//
			// Solve for x:
			//
			// x = - inv(A) * b'
			x := common.MulMV(vc.normalMass, b).Neg()

			switch {
			case x.X >= 0.0 && x.Y >= 0.0:
				apply(x)

			// Case 2: vn1 = 0 and x2 = 0
			//
			//   0 = a11 * x1 + a12 * 0 + b1'
			// vn2 = a21 * x1 + a22 * 0 + b2'
			case -cp1.normalMass*b.X >= 0.0 && vc.K.Ex.Y*(-cp1.normalMass*b.X)+b.Y >= 0.0:
				apply(common.MakeVec2(-cp1.normalMass*b.X, 0.0))

			// Case 3: vn2 = 0 and x1 = 0
			//
			// vn1 = a11 * 0 + a12 * x2 + b1'
			//   0 = a21 * 0 + a22 * x2 + b2'
			case -cp2.normalMass*b.Y >= 0.0 && vc.K.Ey.X*(-cp2.normalMass*b.Y)+b.X >= 0.0:
				apply(common.MakeVec2(0.0, -cp2.normalMass*b.Y))

			// Case 4: x1 = 0 and x2 = 0
			//
			// vn1 = b1
			// vn2 = b2;
			case b.X >= 0.0 && b.Y >= 0.0:
				apply(common.Vec2{})

			default:
				// No solution, give up. The accumulated impulses stay as they
				// are and the next iteration or step corrects the drift.
				solver.blockFallbacks++
				solver.logger.Debug("block solver found no solution",
					slog.Int("contact", vc.contactIndex),
					slog.Float64("b1", float64(b.X)),
					slog.Float64("b2", float64(b.Y)))
			}
		}

		solver.velocities[indexA].V = vA
		solver.velocities[indexA].W = wA
		solver.velocities[indexB].V = vB
		solver.velocities[indexB].W = wB
	}
}

func (solver *contactSolver) storeImpulses() {
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]
		manifold := &solver.contacts[vc.contactIndex].manifold

		for j := 0; j < vc.pointCount; j++ {
			manifold.Points[j].NormalImpulse = vc.points[j].normalImpulse
			manifold.Points[j].TangentImpulse = vc.points[j].tangentImpulse
		}
	}
}

type positionSolverManifold struct {
	normal     common.Vec2
	point      common.Vec2
	separation float32
}

func (psm *positionSolverManifold) initialize(pc *contactPositionConstraint, xfA, xfB common.Transform, index int) {
	common.Assert(pc.pointCount > 0, "position constraint has no points")

	switch pc.manifoldType {
	case collision.ManifoldCircles:
		pointA := common.MulXV(xfA, pc.localPoint)
		pointB := common.MulXV(xfB, pc.localPoints[0])
		psm.normal = pointB.Sub(pointA)
		psm.normal.Normalize()
		psm.point = pointA.Add(pointB).Mul(0.5)
		psm.separation = common.Dot(pointB.Sub(pointA), psm.normal) - pc.radiusA - pc.radiusB

	case collision.ManifoldFaceA:
		psm.normal = common.MulRV(xfA.Q, pc.localNormal)
		planePoint := common.MulXV(xfA, pc.localPoint)

		clipPoint := common.MulXV(xfB, pc.localPoints[index])
		psm.separation = common.Dot(clipPoint.Sub(planePoint), psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

	case collision.ManifoldFaceB:
		psm.normal = common.MulRV(xfB.Q, pc.localNormal)
		planePoint := common.MulXV(xfB, pc.localPoint)

		clipPoint := common.MulXV(xfA, pc.localPoints[index])
		psm.separation = common.Dot(clipPoint.Sub(planePoint), psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

		// Ensure normal points from A to B
		psm.normal = psm.normal.Neg()
	}
}

// solvePositions runs one sequential pass of position correction. The mass
// callback returns the inverse masses each constraint may use.
func (solver *contactSolver) solvePositions(baumgarte float32, masses func(pc *contactPositionConstraint) (mA, iA, mB, iB float32)) float32 {
	var minSeparation float32
	slop := solver.tuning.LinearSlop
	maxCorrection := solver.tuning.MaxLinearCorrection

	for i := range solver.positionConstraints {
		pc := &solver.positionConstraints[i]

		indexA := pc.indexA
		indexB := pc.indexB
		mA, iA, mB, iB := masses(pc)

		cA := solver.positions[indexA].C
		aA := solver.positions[indexA].A

		cB := solver.positions[indexB].C
		aB := solver.positions[indexB].A

		// Solve normal constraints
		for j := 0; j < pc.pointCount; j++ {
			var xfA, xfB common.Transform
			xfA.Q.Set(aA)
			xfB.Q.Set(aB)
			xfA.P = cA.Sub(common.MulRV(xfA.Q, pc.localCenterA))
			xfB.P = cB.Sub(common.MulRV(xfB.Q, pc.localCenterB))

			var psm positionSolverManifold
			psm.initialize(pc, xfA, xfB, j)
			normal := psm.normal

			rA := psm.point.Sub(cA)
			rB := psm.point.Sub(cB)

			// Track max constraint error.
			minSeparation = min(minSeparation, psm.separation)

			// Prevent large corrections and allow slop.
			C := common.Clamp(baumgarte*(psm.separation+slop), -maxCorrection, 0.0)

			// Compute the effective mass.
			rnA := common.Cross(rA, normal)
			rnB := common.Cross(rB, normal)
			K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			// Compute normal impulse
			var impulse float32
			if K > 0.0 {
				impulse = -C / K
			}

			P := normal.Mul(impulse)

			cA.SubInPlace(P.Mul(mA))
			aA -= iA * common.Cross(rA, P)

			cB.AddInPlace(P.Mul(mB))
			aB += iB * common.Cross(rB, P)
		}

		solver.positions[indexA].C = cA
		solver.positions[indexA].A = aA

		solver.positions[indexB].C = cB
		solver.positions[indexB].A = aB
	}

	return minSeparation
}

// Sequential solver.
func (solver *contactSolver) solvePositionConstraints() bool {
	minSeparation := solver.solvePositions(solver.tuning.Baumgarte, func(pc *contactPositionConstraint) (float32, float32, float32, float32) {
		return pc.invMassA, pc.invIA, pc.invMassB, pc.invIB
	})

	// We can't expect minSeparation >= -linearSlop because we don't
	// push the separation above -linearSlop.
	return minSeparation >= -3.0*solver.tuning.LinearSlop
}

// Sequential position solver for position constraints. Only the two TOI
// bodies are moved.
func (solver *contactSolver) solveTOIPositionConstraints(toiIndexA, toiIndexB int) bool {
	minSeparation := solver.solvePositions(solver.tuning.TOIBaumgarte, func(pc *contactPositionConstraint) (mA, iA, mB, iB float32) {
		if pc.indexA == toiIndexA || pc.indexA == toiIndexB {
			mA = pc.invMassA
			iA = pc.invIA
		}
		if pc.indexB == toiIndexA || pc.indexB == toiIndexB {
			mB = pc.invMassB
			iB = pc.invIB
		}
		return
	})

	return minSeparation >= -1.5*solver.tuning.LinearSlop
}
