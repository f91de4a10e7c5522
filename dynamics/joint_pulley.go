package dynamics

import (
	"fmt"
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Pulley joint definition. This requires two ground anchors,
/// two dynamic body anchor points, and a pulley ratio.
type PulleyJointDef struct {
	JointDefBase

	/// The first ground anchor in world coordinates. This point never moves.
	GroundAnchorA common.Vec2

	/// The second ground anchor in world coordinates. This point never moves.
	GroundAnchorB common.Vec2

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The a reference length for the segment attached to bodyA.
	LengthA float32

	/// The a reference length for the segment attached to bodyB.
	LengthB float32

	/// The pulley ratio, used to simulate a block-and-tackle.
	Ratio float32
}

func MakePulleyJointDef() PulleyJointDef {
	return PulleyJointDef{
		JointDefBase:  JointDefBase{CollideConnected: true},
		GroundAnchorA: common.MakeVec2(-1.0, 1.0),
		GroundAnchorB: common.MakeVec2(1.0, 1.0),
		LocalAnchorA:  common.MakeVec2(-1.0, 0.0),
		LocalAnchorB:  common.MakeVec2(1.0, 0.0),
		Ratio:         1.0,
	}
}

func (*PulleyJointDef) Type() JointType { return JointPulley }

/// Initialize the bodies, anchors, lengths, max lengths, and ratio using the world anchors.
func (def *PulleyJointDef) Initialize(bodyA, bodyB *Body, groundA, groundB, anchorA, anchorB common.Vec2, ratio float32) {
	common.Assert(ratio > common.Epsilon, "pulley ratio %v is not positive", ratio)
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.GroundAnchorA = groundA
	def.GroundAnchorB = groundB
	def.LocalAnchorA = bodyA.GetLocalPoint(anchorA)
	def.LocalAnchorB = bodyB.GetLocalPoint(anchorB)
	def.LengthA = anchorA.Sub(groundA).Length()
	def.LengthB = anchorB.Sub(groundB).Length()
	def.Ratio = ratio
}

/// The pulley joint is connected to two bodies and two fixed ground points.
/// The pulley supports a ratio such that:
/// length1 + ratio * length2 <= constant
/// Yes, the force transmitted is scaled by the ratio.
/// Warning: the pulley joint can get a bit squirrelly by itself. They often
/// work better when combined with prismatic joints. You should also cover the
/// the anchor points with static shapes to prevent one side from going to
/// zero length.
type PulleyJoint struct {
	jointBase

	groundAnchorA common.Vec2
	groundAnchorB common.Vec2
	lengthA       float32
	lengthB       float32

	// Solver shared
	localAnchorA common.Vec2
	localAnchorB common.Vec2
	constant     float32
	ratio        float32
	impulse      float32

	// Solver temp
	solverBodies
	uA, uB common.Vec2
	rA, rB common.Vec2
	mass   float32
}

func newPulleyJoint(def *PulleyJointDef) (Joint, error) {
	if def.Ratio == 0.0 {
		return nil, fmt.Errorf("%w: pulley ratio is zero", ErrInvalidJointDef)
	}

	return &PulleyJoint{
		jointBase:     makeJointBase(JointPulley, &def.JointDefBase),
		groundAnchorA: def.GroundAnchorA,
		groundAnchorB: def.GroundAnchorB,
		localAnchorA:  def.LocalAnchorA,
		localAnchorB:  def.LocalAnchorB,
		lengthA:       def.LengthA,
		lengthB:       def.LengthB,
		ratio:         def.Ratio,
		constant:      def.LengthA + def.Ratio*def.LengthB,
	}, nil
}

// Pulley:
// length1 = norm(p1 - s1)
// length2 = norm(p2 - s2)
// C0 = (length1 + ratio * length2)_initial
// C = C0 - (length1 + ratio * length2)
// u1 = (p1 - s1) / norm(p1 - s1)
// u2 = (p2 - s2) / norm(p2 - s2)
// Cdot = -dot(u1, v1 + cross(w1, r1)) - ratio * dot(u2, v2 + cross(w2, r2))
// J = -[u1 cross(r1, u1) ratio * u2  ratio * cross(r2, u2)]
// K = J * invM * JT
//   = invMass1 + invI1 * cross(r1, u1)^2 + ratio^2 * (invMass2 + invI2 * cross(r2, u2)^2)

// pulleyAxes computes the anchor arms, the unit rope directions and the rope
// lengths for the given solver positions.
func (joint *PulleyJoint) pulleyAxes(data *SolverData) (rA, rB, uA, uB common.Vec2, lengthA, lengthB float32) {
	cA, aA, cB, aB := joint.positions(data)

	rA = common.MulRV(common.MakeRot(aA), joint.localAnchorA.Sub(joint.localCenterA))
	rB = common.MulRV(common.MakeRot(aB), joint.localAnchorB.Sub(joint.localCenterB))

	uA = cA.Add(rA).Sub(joint.groundAnchorA)
	uB = cB.Add(rB).Sub(joint.groundAnchorB)

	lengthA = uA.Length()
	lengthB = uB.Length()

	minLength := 10.0 * data.Tuning.LinearSlop
	if lengthA > minLength {
		uA.MulInPlace(1.0 / lengthA)
	} else {
		uA.SetZero()
	}

	if lengthB > minLength {
		uB.MulInPlace(1.0 / lengthB)
	} else {
		uB.SetZero()
	}

	return rA, rB, uA, uB, lengthA, lengthB
}

func (joint *PulleyJoint) effectiveMass(rA, rB, uA, uB common.Vec2) float32 {
	ruA := common.Cross(rA, uA)
	ruB := common.Cross(rB, uB)

	mA := joint.invMassA + joint.invIA*ruA*ruA
	mB := joint.invMassB + joint.invIB*ruB*ruB

	mass := mA + joint.ratio*joint.ratio*mB
	if mass > 0.0 {
		mass = 1.0 / mass
	}
	return mass
}

func (joint *PulleyJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	joint.rA, joint.rB, joint.uA, joint.uB, _, _ = joint.pulleyAxes(data)
	joint.mass = joint.effectiveMass(joint.rA, joint.rB, joint.uA, joint.uB)

	if data.Step.WarmStarting {
		// Scale impulses to support variable time steps.
		joint.impulse *= data.Step.DtRatio
		joint.applyImpulse(data, joint.impulse)
	} else {
		joint.impulse = 0.0
	}
}

// applyImpulse pulls both bodies toward their ground anchors.
func (joint *PulleyJoint) applyImpulse(data *SolverData, impulse float32) {
	vA, wA, vB, wB := joint.velocities(data)

	PA := joint.uA.Mul(-impulse)
	PB := joint.uB.Mul(-joint.ratio * impulse)

	vA.AddInPlace(PA.Mul(joint.invMassA))
	wA += joint.invIA * common.Cross(joint.rA, PA)
	vB.AddInPlace(PB.Mul(joint.invMassB))
	wB += joint.invIB * common.Cross(joint.rB, PB)

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *PulleyJoint) solveVelocityConstraints(data *SolverData) {
	vA, wA, vB, wB := joint.velocities(data)

	vpA := vA.Add(common.CrossSV(wA, joint.rA))
	vpB := vB.Add(common.CrossSV(wB, joint.rB))

	Cdot := -common.Dot(joint.uA, vpA) - joint.ratio*common.Dot(joint.uB, vpB)
	impulse := -joint.mass * Cdot
	joint.impulse += impulse

	joint.applyImpulse(data, impulse)
}

func (joint *PulleyJoint) solvePositionConstraints(data *SolverData) bool {
	cA, aA, cB, aB := joint.positions(data)

	rA, rB, uA, uB, lengthA, lengthB := joint.pulleyAxes(data)
	mass := joint.effectiveMass(rA, rB, uA, uB)

	C := joint.constant - lengthA - joint.ratio*lengthB
	linearError := common.Abs(C)

	impulse := -mass * C

	PA := uA.Mul(-impulse)
	PB := uB.Mul(-joint.ratio * impulse)

	cA.AddInPlace(PA.Mul(joint.invMassA))
	aA += joint.invIA * common.Cross(rA, PA)
	cB.AddInPlace(PB.Mul(joint.invMassB))
	aB += joint.invIB * common.Cross(rB, PB)

	joint.storePositions(data, cA, aA, cB, aB)

	return linearError < data.Tuning.LinearSlop
}

func (joint *PulleyJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *PulleyJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *PulleyJoint) GetReactionForce(invDt float32) common.Vec2 {
	return joint.uB.Mul(joint.impulse * invDt)
}

func (joint *PulleyJoint) GetReactionTorque(invDt float32) float32 {
	return 0.0
}

/// The local anchor point relative to bodyA's origin.
func (joint *PulleyJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *PulleyJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

/// Get the first ground anchor.
func (joint *PulleyJoint) GetGroundAnchorA() common.Vec2 { return joint.groundAnchorA }

/// Get the second ground anchor.
func (joint *PulleyJoint) GetGroundAnchorB() common.Vec2 { return joint.groundAnchorB }

/// Get the current length of the segment attached to bodyA.
func (joint *PulleyJoint) GetLengthA() float32 { return joint.lengthA }

/// Get the current length of the segment attached to bodyB.
func (joint *PulleyJoint) GetLengthB() float32 { return joint.lengthB }

/// Get the pulley ratio.
func (joint *PulleyJoint) GetRatio() float32 { return joint.ratio }

/// Get the current length of the segment attached to bodyA.
func (joint *PulleyJoint) GetCurrentLengthA() float32 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA).Sub(joint.groundAnchorA).Length()
}

/// Get the current length of the segment attached to bodyB.
func (joint *PulleyJoint) GetCurrentLengthB() float32 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB).Sub(joint.groundAnchorB).Length()
}

func (joint *PulleyJoint) ShiftOrigin(newOrigin common.Vec2) {
	joint.groundAnchorA.SubInPlace(newOrigin)
	joint.groundAnchorB.SubInPlace(newOrigin)
}

func (joint *PulleyJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("groundAnchorA", joint.groundAnchorA),
		slog.Any("groundAnchorB", joint.groundAnchorB),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		floatAttr("lengthA", joint.lengthA),
		floatAttr("lengthB", joint.lengthB),
		floatAttr("ratio", joint.ratio),
	)...)
}
