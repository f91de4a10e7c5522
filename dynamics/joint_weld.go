package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Weld joint definition. You need to specify local anchor points
/// where they are attached and the relative body angle. The position
/// of the anchor points is important for computing the reaction torque.
type WeldJointDef struct {
	JointDefBase

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The bodyB angle minus bodyA angle in the reference state (radians).
	ReferenceAngle float32

	/// The mass-spring-damper frequency in Hertz. Rotation only.
	/// Disable softness with a value of 0.
	FrequencyHz float32

	/// The damping ratio. 0 = no damping, 1 = critical damping.
	DampingRatio float32
}

func (*WeldJointDef) Type() JointType { return JointWeld }

/// Initialize the bodies, anchors, and reference angle using a world
/// anchor point.
func (def *WeldJointDef) Initialize(bodyA, bodyB *Body, anchor common.Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.GetLocalPoint(anchor)
	def.LocalAnchorB = bodyB.GetLocalPoint(anchor)
	def.ReferenceAngle = bodyB.GetAngle() - bodyA.GetAngle()
}

/// A weld joint essentially glues two bodies together. A weld joint may
/// distort somewhat because the island constraint solver is approximate.
type WeldJoint struct {
	jointBase

	frequencyHz  float32
	dampingRatio float32
	bias         float32

	// Solver shared
	localAnchorA   common.Vec2
	localAnchorB   common.Vec2
	referenceAngle float32
	gamma          float32
	impulse        common.Vec3

	// Solver temp
	solverBodies
	rA, rB common.Vec2
	mass   common.Mat33
}

func newWeldJoint(def *WeldJointDef) *WeldJoint {
	return &WeldJoint{
		jointBase:      makeJointBase(JointWeld, &def.JointDefBase),
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		frequencyHz:    def.FrequencyHz,
		dampingRatio:   def.DampingRatio,
	}
}

/// The local anchor point relative to bodyA's origin.
func (joint *WeldJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *WeldJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

/// Get the reference angle.
func (joint *WeldJoint) GetReferenceAngle() float32 { return joint.referenceAngle }

/// Set/get frequency in Hz.
func (joint *WeldJoint) SetFrequency(hz float32) { joint.frequencyHz = hz }
func (joint *WeldJoint) GetFrequency() float32   { return joint.frequencyHz }

/// Set/get damping ratio.
func (joint *WeldJoint) SetDampingRatio(ratio float32) { joint.dampingRatio = ratio }
func (joint *WeldJoint) GetDampingRatio() float32      { return joint.dampingRatio }

// Point-to-point constraint
// C = p2 - p1
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Angle constraint
// C = angle2 - angle1 - referenceAngle
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (joint *WeldJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	aA := data.Positions[joint.indexA].A
	aB := data.Positions[joint.indexB].A

	joint.rA = common.MulRV(common.MakeRot(aA), joint.localAnchorA.Sub(joint.localCenterA))
	joint.rB = common.MulRV(common.MakeRot(aB), joint.localAnchorB.Sub(joint.localCenterB))

	iA, iB := joint.invIA, joint.invIB

	K := joint.pointAngleMass(joint.rA, joint.rB)

	switch {
	case joint.frequencyHz > 0.0:
		joint.mass = K.GetInverse22()

		invM := iA + iB
		var m float32
		if invM > 0.0 {
			m = 1.0 / invM
		}

		C := aB - aA - joint.referenceAngle
		joint.gamma, joint.bias = softness(m, joint.frequencyHz, joint.dampingRatio, C, data.Step.Dt)

		joint.mass.Ez.Z = invOrZero(invM + joint.gamma)
	case K.Ez.Z == 0.0:
		joint.mass = K.GetInverse22()
		joint.gamma = 0.0
		joint.bias = 0.0
	default:
		joint.mass = K.GetSymInverse33()
		joint.gamma = 0.0
		joint.bias = 0.0
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		joint.impulse = joint.impulse.Mul(data.Step.DtRatio)
		joint.applyImpulse(data, joint.impulse)
	} else {
		joint.impulse.SetZero()
	}
}

// applyImpulse applies a point impulse (X, Y) and an angular impulse Z.
func (joint *WeldJoint) applyImpulse(data *SolverData, impulse common.Vec3) {
	vA, wA, vB, wB := joint.velocities(data)

	P := common.MakeVec2(impulse.X, impulse.Y)

	vA.SubInPlace(P.Mul(joint.invMassA))
	wA -= joint.invIA * (common.Cross(joint.rA, P) + impulse.Z)

	vB.AddInPlace(P.Mul(joint.invMassB))
	wB += joint.invIB * (common.Cross(joint.rB, P) + impulse.Z)

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *WeldJoint) solveVelocityConstraints(data *SolverData) {
	if joint.frequencyHz > 0.0 {
		_, wA, _, wB := joint.velocities(data)

		Cdot2 := wB - wA
		impulse2 := -joint.mass.Ez.Z * (Cdot2 + joint.bias + joint.gamma*joint.impulse.Z)
		joint.impulse.Z += impulse2
		joint.applyImpulse(data, common.MakeVec3(0.0, 0.0, impulse2))

		vA, wA, vB, wB := joint.velocities(data)
		Cdot1 := vB.Add(common.CrossSV(wB, joint.rB)).Sub(vA).Sub(common.CrossSV(wA, joint.rA))

		impulse1 := common.MulM22V(joint.mass, Cdot1).Neg()
		joint.impulse.X += impulse1.X
		joint.impulse.Y += impulse1.Y
		joint.applyImpulse(data, common.MakeVec3(impulse1.X, impulse1.Y, 0.0))
		return
	}

	vA, wA, vB, wB := joint.velocities(data)
	Cdot1 := vB.Add(common.CrossSV(wB, joint.rB)).Sub(vA).Sub(common.CrossSV(wA, joint.rA))
	Cdot2 := wB - wA
	Cdot := common.MakeVec3(Cdot1.X, Cdot1.Y, Cdot2)

	impulse := common.MulM33V(joint.mass, Cdot).Neg()
	joint.impulse.AddInPlace(impulse)
	joint.applyImpulse(data, impulse)
}

func (joint *WeldJoint) solvePositionConstraints(data *SolverData) bool {
	cA, aA, cB, aB := joint.positions(data)
	tuning := data.Tuning

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	rA := common.MulRV(common.MakeRot(aA), joint.localAnchorA.Sub(joint.localCenterA))
	rB := common.MulRV(common.MakeRot(aB), joint.localAnchorB.Sub(joint.localCenterB))

	K := joint.pointAngleMass(rA, rB)

	C1 := cB.Add(rB).Sub(cA).Sub(rA)
	positionError := C1.Length()
	var angularError float32

	var impulse common.Vec3
	if joint.frequencyHz > 0.0 {
		P := K.Solve22(C1).Neg()
		impulse = common.MakeVec3(P.X, P.Y, 0.0)
	} else {
		C2 := aB - aA - joint.referenceAngle
		angularError = common.Abs(C2)

		if K.Ez.Z > 0.0 {
			impulse = K.Solve33(common.MakeVec3(C1.X, C1.Y, C2)).Neg()
		} else {
			impulse2 := K.Solve22(C1).Neg()
			impulse = common.MakeVec3(impulse2.X, impulse2.Y, 0.0)
		}
	}

	P := common.MakeVec2(impulse.X, impulse.Y)

	cA.SubInPlace(P.Mul(mA))
	aA -= iA * (common.Cross(rA, P) + impulse.Z)

	cB.AddInPlace(P.Mul(mB))
	aB += iB * (common.Cross(rB, P) + impulse.Z)

	joint.storePositions(data, cA, aA, cB, aB)

	return positionError <= tuning.LinearSlop && angularError <= tuning.AngularSlop
}

func (joint *WeldJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *WeldJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *WeldJoint) GetReactionForce(invDt float32) common.Vec2 {
	return common.MakeVec2(joint.impulse.X, joint.impulse.Y).Mul(invDt)
}

func (joint *WeldJoint) GetReactionTorque(invDt float32) float32 {
	return invDt * joint.impulse.Z
}

func (joint *WeldJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		floatAttr("referenceAngle", joint.referenceAngle),
		floatAttr("frequencyHz", joint.frequencyHz),
		floatAttr("dampingRatio", joint.dampingRatio),
	)...)
}
