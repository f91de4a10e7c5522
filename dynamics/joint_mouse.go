package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Mouse joint definition. This requires a world target point,
/// tuning parameters, and the time step.
type MouseJointDef struct {
	JointDefBase

	/// The initial world target point. This is assumed
	/// to coincide with the body anchor initially.
	Target common.Vec2

	/// The maximum constraint force that can be exerted
	/// to move the candidate body. Usually you will express
	/// as some multiple of the weight (multiplier * mass * gravity).
	MaxForce float32

	/// The response speed.
	FrequencyHz float32

	/// The damping ratio. 0 = no damping, 1 = critical damping.
	DampingRatio float32
}

func MakeMouseJointDef() MouseJointDef {
	return MouseJointDef{
		FrequencyHz:  5.0,
		DampingRatio: 0.7,
	}
}

func (*MouseJointDef) Type() JointType { return JointMouse }

/// A mouse joint is used to make a point on a body track a
/// specified world point. This a soft constraint with a maximum
/// force. This allows the constraint to stretch and without
/// applying huge forces.
type MouseJoint struct {
	jointBase

	localAnchorB common.Vec2
	targetA      common.Vec2
	frequencyHz  float32
	dampingRatio float32
	beta         float32

	// Solver shared
	impulse  common.Vec2
	maxForce float32
	gamma    float32

	// Solver temp
	solverBodies
	rB   common.Vec2
	mass common.Mat22
	C    common.Vec2
}

// p = attached point, m = mouse point
// C = p - m
// Cdot = v
//      = v + cross(w, r)
// J = [I r_skew]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

func newMouseJoint(def *MouseJointDef) *MouseJoint {
	common.Assert(def.Target.IsValid(), "mouse target is not finite")
	common.Assert(common.IsValid(def.MaxForce) && def.MaxForce >= 0.0, "max force %v must be >= 0", def.MaxForce)
	common.Assert(common.IsValid(def.FrequencyHz) && def.FrequencyHz >= 0.0, "frequency %v must be >= 0", def.FrequencyHz)
	common.Assert(common.IsValid(def.DampingRatio) && def.DampingRatio >= 0.0, "damping ratio %v must be >= 0", def.DampingRatio)

	return &MouseJoint{
		jointBase:    makeJointBase(JointMouse, &def.JointDefBase),
		targetA:      def.Target,
		localAnchorB: common.MulTXV(def.BodyB.GetTransform(), def.Target),
		maxForce:     def.MaxForce,
		frequencyHz:  def.FrequencyHz,
		dampingRatio: def.DampingRatio,
	}
}

/// Use this to update the target point.
func (joint *MouseJoint) SetTarget(target common.Vec2) {
	if target != joint.targetA {
		joint.bodyB.SetAwake(true)
		joint.targetA = target
	}
}

func (joint *MouseJoint) GetTarget() common.Vec2 { return joint.targetA }

/// Set/get the maximum force in Newtons.
func (joint *MouseJoint) SetMaxForce(force float32) { joint.maxForce = force }
func (joint *MouseJoint) GetMaxForce() float32      { return joint.maxForce }

/// Set/get the frequency in Hertz.
func (joint *MouseJoint) SetFrequency(hz float32) { joint.frequencyHz = hz }
func (joint *MouseJoint) GetFrequency() float32   { return joint.frequencyHz }

/// Set/get the damping ratio (dimensionless).
func (joint *MouseJoint) SetDampingRatio(ratio float32) { joint.dampingRatio = ratio }
func (joint *MouseJoint) GetDampingRatio() float32      { return joint.dampingRatio }

func (joint *MouseJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	pB := data.Positions[joint.indexB]
	vB := data.Velocities[joint.indexB].V
	wB := data.Velocities[joint.indexB].W

	mass := joint.bodyB.GetMass()

	// Frequency
	omega := 2.0 * common.Pi * joint.frequencyHz

	// Damping coefficient
	d := 2.0 * mass * joint.dampingRatio * omega

	// Spring stiffness
	k := mass * (omega * omega)

	// gamma has units of inverse mass.
	// beta has units of inverse time.
	h := data.Step.Dt
	common.Assert(d+h*k > common.Epsilon, "mouse joint on a body without mass")
	joint.gamma = invOrZero(h * (d + h*k))
	joint.beta = h * k * joint.gamma

	// Compute the effective mass matrix.
	joint.rB = common.MulRV(common.MakeRot(pB.A), joint.localAnchorB.Sub(joint.localCenterB))

	// K = [(1/m1 + 1/m2) * eye(2) - skew(r1) * invI1 * skew(r1) - skew(r2) * invI2 * skew(r2)]
	rB := joint.rB
	var K common.Mat22
	K.Ex.X = joint.invMassB + joint.invIB*rB.Y*rB.Y + joint.gamma
	K.Ex.Y = -joint.invIB * rB.X * rB.Y
	K.Ey.X = K.Ex.Y
	K.Ey.Y = joint.invMassB + joint.invIB*rB.X*rB.X + joint.gamma

	joint.mass = K.GetInverse()

	joint.C = pB.C.Add(rB).Sub(joint.targetA).Mul(joint.beta)

	// Cheat with some damping
	wB *= 0.98

	if data.Step.WarmStarting {
		joint.impulse.MulInPlace(data.Step.DtRatio)
		vB.AddInPlace(joint.impulse.Mul(joint.invMassB))
		wB += joint.invIB * common.Cross(rB, joint.impulse)
	} else {
		joint.impulse.SetZero()
	}

	data.Velocities[joint.indexB] = Velocity{V: vB, W: wB}
}

func (joint *MouseJoint) solveVelocityConstraints(data *SolverData) {
	vB := data.Velocities[joint.indexB].V
	wB := data.Velocities[joint.indexB].W

	// Cdot = v + cross(w, r)
	Cdot := vB.Add(common.CrossSV(wB, joint.rB))
	impulse := common.MulMV(joint.mass, Cdot.Add(joint.C).Add(joint.impulse.Mul(joint.gamma))).Neg()

	oldImpulse := joint.impulse
	joint.impulse.AddInPlace(impulse)
	maxImpulse := data.Step.Dt * joint.maxForce
	if joint.impulse.LengthSquared() > maxImpulse*maxImpulse {
		joint.impulse.MulInPlace(maxImpulse / joint.impulse.Length())
	}
	impulse = joint.impulse.Sub(oldImpulse)

	vB.AddInPlace(impulse.Mul(joint.invMassB))
	wB += joint.invIB * common.Cross(joint.rB, impulse)

	data.Velocities[joint.indexB] = Velocity{V: vB, W: wB}
}

func (joint *MouseJoint) solvePositionConstraints(data *SolverData) bool {
	return true
}

func (joint *MouseJoint) GetAnchorA() common.Vec2 {
	return joint.targetA
}

func (joint *MouseJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *MouseJoint) GetReactionForce(invDt float32) common.Vec2 {
	return joint.impulse.Mul(invDt)
}

func (joint *MouseJoint) GetReactionTorque(invDt float32) float32 {
	return 0.0
}

func (joint *MouseJoint) ShiftOrigin(newOrigin common.Vec2) {
	joint.targetA.SubInPlace(newOrigin)
}

/// The mouse joint is driven interactively and has no meaningful dump.
func (joint *MouseJoint) dump(logger *slog.Logger) {
	logger.Debug("joint", append(joint.dumpAttrs(), slog.String("note", "mouse joints are not dumped"))...)
}
