package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Distance joint definition. This requires defining an
/// anchor point on both bodies and the non-zero length of the
/// distance joint. The definition uses local anchor points
/// so that the initial configuration can violate the constraint
/// slightly. This helps when saving and loading a game.
/// @warning Do not use a zero or short length.
type DistanceJointDef struct {
	JointDefBase

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The natural length between the anchor points.
	Length float32

	/// The mass-spring-damper frequency in Hertz. A value of 0
	/// disables softness.
	FrequencyHz float32

	/// The damping ratio. 0 = no damping, 1 = critical damping.
	DampingRatio float32
}

func MakeDistanceJointDef() DistanceJointDef {
	return DistanceJointDef{Length: 1.0}
}

func (*DistanceJointDef) Type() JointType { return JointDistance }

/// Initialize the bodies, anchors, and length using the world
/// anchors.
func (def *DistanceJointDef) Initialize(bodyA, bodyB *Body, anchorA, anchorB common.Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.GetLocalPoint(anchorA)
	def.LocalAnchorB = bodyB.GetLocalPoint(anchorB)
	def.Length = anchorB.Sub(anchorA).Length()
}

/// A distance joint constrains two points on two bodies
/// to remain at a fixed distance from each other. You can view
/// this as a massless, rigid rod.
type DistanceJoint struct {
	jointBase

	frequencyHz  float32
	dampingRatio float32
	bias         float32

	// Solver shared
	localAnchorA common.Vec2
	localAnchorB common.Vec2
	gamma        float32
	impulse      float32
	length       float32

	// Solver temp
	solverBodies
	u, rA, rB common.Vec2
	mass      float32
}

func newDistanceJoint(def *DistanceJointDef) *DistanceJoint {
	return &DistanceJoint{
		jointBase:    makeJointBase(JointDistance, &def.JointDefBase),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		length:       def.Length,
		frequencyHz:  def.FrequencyHz,
		dampingRatio: def.DampingRatio,
	}
}

/// The local anchor point relative to bodyA's origin.
func (joint *DistanceJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *DistanceJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

/// Set/get the natural length.
/// Manipulating the length can lead to non-physical behavior when the frequency is zero.
func (joint *DistanceJoint) SetLength(length float32) { joint.length = length }
func (joint *DistanceJoint) GetLength() float32       { return joint.length }

/// Set/get frequency in Hz.
func (joint *DistanceJoint) SetFrequency(hz float32) { joint.frequencyHz = hz }
func (joint *DistanceJoint) GetFrequency() float32   { return joint.frequencyHz }

/// Set/get damping ratio.
func (joint *DistanceJoint) SetDampingRatio(ratio float32) { joint.dampingRatio = ratio }
func (joint *DistanceJoint) GetDampingRatio() float32      { return joint.dampingRatio }

// 1-D constrained system
// m (v2 - v1) = lambda
// v2 + (beta/h) * x1 + gamma * lambda = 0, gamma has units of inverse mass.
// x2 = x1 + h * v2

// 1-D mass-damper-spring system
// m (v2 - v1) + h * d * v2 + h * k *

// C = norm(p2 - p1) - L
// u = (p2 - p1) / norm(p2 - p1)
// Cdot = dot(u, v2 + cross(w2, r2) - v1 - cross(w1, r1))
// J = [-u -cross(r1, u) u cross(r2, u)]
// K = J * invM * JT
//   = invMass1 + invI1 * cross(r1, u)^2 + invMass2 + invI2 * cross(r2, u)^2

// softness returns gamma and bias for a spring of frequency hz and damping
// ratio zeta acting on mass m with error C over step h.
func softness(m, hz, zeta, C, h float32) (gamma, bias float32) {
	// Frequency
	omega := 2.0 * common.Pi * hz

	// Damping coefficient
	d := 2.0 * m * zeta * omega

	// Spring stiffness
	k := m * omega * omega

	gamma = invOrZero(h * (d + h*k))
	bias = C * h * k * gamma
	return gamma, bias
}

func (joint *DistanceJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	joint.rA, joint.rB, joint.u = joint.anchors(data, joint.localAnchorA, joint.localAnchorB)

	// Handle singularity.
	length := joint.u.Length()
	if length > data.Tuning.LinearSlop {
		joint.u.MulInPlace(1.0 / length)
	} else {
		joint.u.SetZero()
	}

	invMass := joint.axialInvMass(joint.rA, joint.rB, joint.u)

	// Compute the effective mass matrix.
	joint.mass = invOrZero(invMass)

	if joint.frequencyHz > 0.0 {
		joint.gamma, joint.bias = softness(joint.mass, joint.frequencyHz, joint.dampingRatio, length-joint.length, data.Step.Dt)
		joint.mass = invOrZero(invMass + joint.gamma)
	} else {
		joint.gamma = 0.0
		joint.bias = 0.0
	}

	if data.Step.WarmStarting {
		// Scale the impulse to support a variable time step.
		joint.impulse *= data.Step.DtRatio
		joint.applyVelocityImpulse(data, joint.rA, joint.rB, joint.u.Mul(joint.impulse))
	} else {
		joint.impulse = 0.0
	}
}

func (joint *DistanceJoint) solveVelocityConstraints(data *SolverData) {
	vA, wA, vB, wB := joint.velocities(data)

	// Cdot = dot(u, v + cross(w, r))
	vpA := vA.Add(common.CrossSV(wA, joint.rA))
	vpB := vB.Add(common.CrossSV(wB, joint.rB))
	Cdot := common.Dot(joint.u, vpB.Sub(vpA))

	impulse := -joint.mass * (Cdot + joint.bias + joint.gamma*joint.impulse)
	joint.impulse += impulse

	joint.applyVelocityImpulse(data, joint.rA, joint.rB, joint.u.Mul(impulse))
}

func (joint *DistanceJoint) solvePositionConstraints(data *SolverData) bool {
	if joint.frequencyHz > 0.0 {
		// There is no position correction for soft distance constraints.
		return true
	}

	maxCorrection := data.Tuning.MaxLinearCorrection

	rA, rB, u := joint.anchors(data, joint.localAnchorA, joint.localAnchorB)

	length := u.Normalize()
	C := common.Clamp(length-joint.length, -maxCorrection, maxCorrection)

	impulse := -joint.mass * C
	joint.applyPositionImpulse(data, rA, rB, u.Mul(impulse))

	return common.Abs(C) < data.Tuning.LinearSlop
}

func (joint *DistanceJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *DistanceJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

/// Get the reaction force given the inverse time step.
/// Unit is N.
func (joint *DistanceJoint) GetReactionForce(invDt float32) common.Vec2 {
	return joint.u.Mul(invDt * joint.impulse)
}

/// Get the reaction torque given the inverse time step.
/// Unit is N*m. This is always zero for a distance joint.
func (joint *DistanceJoint) GetReactionTorque(invDt float32) float32 {
	return 0.0
}

func (joint *DistanceJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		floatAttr("length", joint.length),
		floatAttr("frequencyHz", joint.frequencyHz),
		floatAttr("dampingRatio", joint.dampingRatio),
	)...)
}
