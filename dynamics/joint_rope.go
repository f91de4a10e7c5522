package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Rope joint definition. This requires two body anchor points and
/// a maximum lengths.
/// Note: by default the connected objects will not collide.
/// see collideConnected in JointDefBase.
type RopeJointDef struct {
	JointDefBase

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The maximum length of the rope.
	/// Warning: this must be larger than the linear slop or
	/// the joint will have no effect.
	MaxLength float32
}

func MakeRopeJointDef() RopeJointDef {
	return RopeJointDef{
		LocalAnchorA: common.MakeVec2(-1.0, 0.0),
		LocalAnchorB: common.MakeVec2(1.0, 0.0),
	}
}

func (*RopeJointDef) Type() JointType { return JointRope }

/// A rope joint enforces a maximum distance between two points
/// on two bodies. It has no other effect.
/// Warning: if you attempt to change the maximum length during
/// the simulation you will get some non-physical behavior.
/// Use a DistanceJoint to control the length dynamically.
type RopeJoint struct {
	jointBase

	// Solver shared
	localAnchorA common.Vec2
	localAnchorB common.Vec2
	maxLength    float32
	length       float32
	impulse      float32

	// Solver temp
	solverBodies
	u, rA, rB common.Vec2
	mass      float32
	state     LimitState
}

func newRopeJoint(def *RopeJointDef) *RopeJoint {
	return &RopeJoint{
		jointBase:    makeJointBase(JointRope, &def.JointDefBase),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		maxLength:    def.MaxLength,
	}
}

/// The local anchor point relative to bodyA's origin.
func (joint *RopeJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *RopeJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

/// Set/Get the maximum length of the rope.
func (joint *RopeJoint) SetMaxLength(length float32) { joint.maxLength = length }
func (joint *RopeJoint) GetMaxLength() float32       { return joint.maxLength }

/// AtUpperLimit while the rope is taut, InactiveLimit while slack.
func (joint *RopeJoint) GetLimitState() LimitState { return joint.state }

// Limit:
// C = norm(pB - pA) - L
// u = (pB - pA) / norm(pB - pA)
// Cdot = dot(u, vB + cross(wB, rB) - vA - cross(wA, rA))
// J = [-u -cross(rA, u) u cross(rB, u)]
// K = J * invM * JT
//   = invMassA + invIA * cross(rA, u)^2 + invMassB + invIB * cross(rB, u)^2

func (joint *RopeJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	joint.rA, joint.rB, joint.u = joint.anchors(data, joint.localAnchorA, joint.localAnchorB)
	joint.length = joint.u.Length()

	if joint.length-joint.maxLength > 0.0 {
		joint.state = AtUpperLimit
	} else {
		joint.state = InactiveLimit
	}

	if joint.length <= data.Tuning.LinearSlop {
		joint.u.SetZero()
		joint.mass = 0.0
		joint.impulse = 0.0
		return
	}
	joint.u.MulInPlace(1.0 / joint.length)

	// Compute effective mass.
	joint.mass = invOrZero(joint.axialInvMass(joint.rA, joint.rB, joint.u))

	if data.Step.WarmStarting {
		// Scale the impulse to support a variable time step.
		joint.impulse *= data.Step.DtRatio
		joint.applyVelocityImpulse(data, joint.rA, joint.rB, joint.u.Mul(joint.impulse))
	} else {
		joint.impulse = 0.0
	}
}

func (joint *RopeJoint) solveVelocityConstraints(data *SolverData) {
	vA, wA, vB, wB := joint.velocities(data)

	// Cdot = dot(u, v + cross(w, r))
	vpA := vA.Add(common.CrossSV(wA, joint.rA))
	vpB := vB.Add(common.CrossSV(wB, joint.rB))
	C := joint.length - joint.maxLength
	Cdot := common.Dot(joint.u, vpB.Sub(vpA))

	// Predictive constraint.
	if C < 0.0 {
		Cdot += data.Step.InvDt * C
	}

	impulse := -joint.mass * Cdot
	oldImpulse := joint.impulse
	joint.impulse = min(0.0, joint.impulse+impulse)
	impulse = joint.impulse - oldImpulse

	joint.applyVelocityImpulse(data, joint.rA, joint.rB, joint.u.Mul(impulse))
}

func (joint *RopeJoint) solvePositionConstraints(data *SolverData) bool {
	rA, rB, u := joint.anchors(data, joint.localAnchorA, joint.localAnchorB)

	length := u.Normalize()
	C := common.Clamp(length-joint.maxLength, 0.0, data.Tuning.MaxLinearCorrection)

	impulse := -joint.mass * C
	joint.applyPositionImpulse(data, rA, rB, u.Mul(impulse))

	return length-joint.maxLength < data.Tuning.LinearSlop
}

func (joint *RopeJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *RopeJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *RopeJoint) GetReactionForce(invDt float32) common.Vec2 {
	return joint.u.Mul(invDt * joint.impulse)
}

func (joint *RopeJoint) GetReactionTorque(invDt float32) float32 {
	return 0.0
}

func (joint *RopeJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		floatAttr("maxLength", joint.maxLength),
	)...)
}
