package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Wheel joint definition. This requires defining a line of
/// motion using an axis and an anchor point. The definition uses local
/// anchor points and a local axis so that the initial configuration
/// can violate the constraint slightly. The joint translation is zero
/// when the local anchor points coincide in world space. Using local
/// anchors and a local axis helps when saving and loading a game.
type WheelJointDef struct {
	JointDefBase

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The local translation axis in bodyA.
	LocalAxisA common.Vec2

	/// Enable/disable the joint motor.
	EnableMotor bool

	/// The maximum motor torque, usually in N-m.
	MaxMotorTorque float32

	/// The desired motor speed in radians per second.
	MotorSpeed float32

	/// Suspension frequency, zero indicates no suspension
	FrequencyHz float32

	/// Suspension damping ratio, one indicates critical damping
	DampingRatio float32
}

func MakeWheelJointDef() WheelJointDef {
	return WheelJointDef{
		LocalAxisA:   common.MakeVec2(1.0, 0.0),
		FrequencyHz:  2.0,
		DampingRatio: 0.7,
	}
}

func (*WheelJointDef) Type() JointType { return JointWheel }

/// Initialize the bodies, anchors, axis, and reference angle using the world
/// anchor and world axis.
func (def *WheelJointDef) Initialize(bodyA, bodyB *Body, anchor, axis common.Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.GetLocalPoint(anchor)
	def.LocalAnchorB = bodyB.GetLocalPoint(anchor)
	def.LocalAxisA = bodyA.GetLocalVector(axis)
}

/// A wheel joint. This joint provides two degrees of freedom: translation
/// along an axis fixed in bodyA and rotation in the plane. In other words, it is a point to
/// line constraint with a rotational motor and a linear spring/damper.
/// This joint is designed for vehicle suspensions.
type WheelJoint struct {
	jointBase

	frequencyHz  float32
	dampingRatio float32

	// Solver shared
	localAnchorA common.Vec2
	localAnchorB common.Vec2
	localXAxisA  common.Vec2
	localYAxisA  common.Vec2

	impulse       float32
	motorImpulse  float32
	springImpulse float32

	maxMotorTorque float32
	motorSpeed     float32
	enableMotor    bool

	// Solver temp
	solverBodies

	ax, ay   common.Vec2
	sAx, sBx float32
	sAy, sBy float32

	mass       float32
	motorMass  float32
	springMass float32

	bias  float32
	gamma float32
}

func newWheelJoint(def *WheelJointDef) *WheelJoint {
	return &WheelJoint{
		jointBase:      makeJointBase(JointWheel, &def.JointDefBase),
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		localXAxisA:    def.LocalAxisA,
		localYAxisA:    common.CrossSV(1.0, def.LocalAxisA),
		maxMotorTorque: def.MaxMotorTorque,
		motorSpeed:     def.MotorSpeed,
		enableMotor:    def.EnableMotor,
		frequencyHz:    def.FrequencyHz,
		dampingRatio:   def.DampingRatio,
	}
}

/// The local anchor point relative to bodyA's origin.
func (joint *WheelJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *WheelJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

/// The local joint axis relative to bodyA.
func (joint *WheelJoint) GetLocalAxisA() common.Vec2 { return joint.localXAxisA }

/// Set/Get the spring frequency in hertz. Setting the frequency to zero disables the spring.
func (joint *WheelJoint) SetSpringFrequencyHz(hz float32) { joint.frequencyHz = hz }
func (joint *WheelJoint) GetSpringFrequencyHz() float32   { return joint.frequencyHz }

/// Set/Get the spring damping ratio
func (joint *WheelJoint) SetSpringDampingRatio(ratio float32) { joint.dampingRatio = ratio }
func (joint *WheelJoint) GetSpringDampingRatio() float32      { return joint.dampingRatio }

// Linear constraint (point-to-line)
// d = pB - pA = xB + rB - xA - rA
// C = dot(ay, d)
// Cdot = dot(d, cross(wA, ay)) + dot(ay, vB + cross(wB, rB) - vA - cross(wA, rA))
//      = -dot(ay, vA) - dot(cross(d + rA, ay), wA) + dot(ay, vB) + dot(cross(rB, ay), vB)
// J = [-ay, -cross(d + rA, ay), ay, cross(rB, ay)]

// Spring linear constraint
// C = dot(ax, d)
// Cdot = = -dot(ax, vA) - dot(cross(d + rA, ax), wA) + dot(ax, vB) + dot(cross(rB, ax), vB)
// J = [-ax -cross(d+rA, ax) ax cross(rB, ax)]

// Motor rotational constraint
// Cdot = wB - wA
// J = [0 0 -1 0 0 1]

func (joint *WheelJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	aA := data.Positions[joint.indexA].A
	qA := common.MakeRot(aA)

	// Compute the effective masses.
	rA, rB, d := joint.anchors(data, joint.localAnchorA, joint.localAnchorB)

	// Point to line constraint
	joint.ay = common.MulRV(qA, joint.localYAxisA)
	joint.sAy = common.Cross(d.Add(rA), joint.ay)
	joint.sBy = common.Cross(rB, joint.ay)

	joint.mass = mA + mB + iA*joint.sAy*joint.sAy + iB*joint.sBy*joint.sBy
	if joint.mass > 0.0 {
		joint.mass = 1.0 / joint.mass
	}

	// Spring constraint
	joint.springMass = 0.0
	joint.bias = 0.0
	joint.gamma = 0.0
	if joint.frequencyHz > 0.0 {
		joint.ax = common.MulRV(qA, joint.localXAxisA)
		joint.sAx = common.Cross(d.Add(rA), joint.ax)
		joint.sBx = common.Cross(rB, joint.ax)

		invMass := mA + mB + iA*joint.sAx*joint.sAx + iB*joint.sBx*joint.sBx

		if invMass > 0.0 {
			joint.springMass = 1.0 / invMass
			C := common.Dot(d, joint.ax)
			joint.gamma, joint.bias = softness(joint.springMass, joint.frequencyHz, joint.dampingRatio, C, data.Step.Dt)

			joint.springMass = invMass + joint.gamma
			if joint.springMass > 0.0 {
				joint.springMass = 1.0 / joint.springMass
			}
		}
	} else {
		joint.springImpulse = 0.0
	}

	// Rotational motor
	if joint.enableMotor {
		joint.motorMass = iA + iB
		if joint.motorMass > 0.0 {
			joint.motorMass = 1.0 / joint.motorMass
		}
	} else {
		joint.motorMass = 0.0
		joint.motorImpulse = 0.0
	}

	if data.Step.WarmStarting {
		// Account for variable time step.
		joint.impulse *= data.Step.DtRatio
		joint.springImpulse *= data.Step.DtRatio
		joint.motorImpulse *= data.Step.DtRatio

		vA, wA, vB, wB := joint.velocities(data)

		P := joint.ay.Mul(joint.impulse).Add(joint.ax.Mul(joint.springImpulse))
		LA := joint.impulse*joint.sAy + joint.springImpulse*joint.sAx + joint.motorImpulse
		LB := joint.impulse*joint.sBy + joint.springImpulse*joint.sBx + joint.motorImpulse

		vA.SubInPlace(P.Mul(mA))
		wA -= iA * LA

		vB.AddInPlace(P.Mul(mB))
		wB += iB * LB

		joint.storeVelocities(data, vA, wA, vB, wB)
	} else {
		joint.impulse = 0.0
		joint.springImpulse = 0.0
		joint.motorImpulse = 0.0
	}
}

func (joint *WheelJoint) solveVelocityConstraints(data *SolverData) {
	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	vA, wA, vB, wB := joint.velocities(data)

	// applyLine applies an impulse along axis with angular arms sA and sB.
	applyLine := func(impulse float32, axis common.Vec2, sA, sB float32) {
		P := axis.Mul(impulse)
		vA.SubInPlace(P.Mul(mA))
		wA -= iA * impulse * sA
		vB.AddInPlace(P.Mul(mB))
		wB += iB * impulse * sB
	}

	// Solve spring constraint
	{
		Cdot := common.Dot(joint.ax, vB.Sub(vA)) + joint.sBx*wB - joint.sAx*wA
		impulse := -joint.springMass * (Cdot + joint.bias + joint.gamma*joint.springImpulse)
		joint.springImpulse += impulse
		applyLine(impulse, joint.ax, joint.sAx, joint.sBx)
	}

	// Solve rotational motor constraint
	{
		Cdot := wB - wA - joint.motorSpeed
		impulse := -joint.motorMass * Cdot

		oldImpulse := joint.motorImpulse
		maxImpulse := data.Step.Dt * joint.maxMotorTorque
		joint.motorImpulse = common.Clamp(joint.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	// Solve point to line constraint
	{
		Cdot := common.Dot(joint.ay, vB.Sub(vA)) + joint.sBy*wB - joint.sAy*wA
		impulse := -joint.mass * Cdot
		joint.impulse += impulse
		applyLine(impulse, joint.ay, joint.sAy, joint.sBy)
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *WheelJoint) solvePositionConstraints(data *SolverData) bool {
	cA, aA, cB, aB := joint.positions(data)

	rA, rB, d := joint.anchors(data, joint.localAnchorA, joint.localAnchorB)

	ay := common.MulRV(common.MakeRot(aA), joint.localYAxisA)

	sAy := common.Cross(d.Add(rA), ay)
	sBy := common.Cross(rB, ay)

	C := common.Dot(d, ay)

	k := joint.invMassA + joint.invMassB + joint.invIA*sAy*sAy + joint.invIB*sBy*sBy

	var impulse float32
	if k != 0.0 {
		impulse = -C / k
	}

	P := ay.Mul(impulse)
	LA := impulse * sAy
	LB := impulse * sBy

	cA.SubInPlace(P.Mul(joint.invMassA))
	aA -= joint.invIA * LA
	cB.AddInPlace(P.Mul(joint.invMassB))
	aB += joint.invIB * LB

	joint.storePositions(data, cA, aA, cB, aB)

	return common.Abs(C) <= data.Tuning.LinearSlop
}

func (joint *WheelJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *WheelJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *WheelJoint) GetReactionForce(invDt float32) common.Vec2 {
	return joint.ay.Mul(joint.impulse).Add(joint.ax.Mul(joint.springImpulse)).Mul(invDt)
}

func (joint *WheelJoint) GetReactionTorque(invDt float32) float32 {
	return invDt * joint.motorImpulse
}

/// Get the current joint translation, usually in meters.
func (joint *WheelJoint) GetJointTranslation() float32 {
	pA := joint.bodyA.GetWorldPoint(joint.localAnchorA)
	pB := joint.bodyB.GetWorldPoint(joint.localAnchorB)
	axis := joint.bodyA.GetWorldVector(joint.localXAxisA)
	return common.Dot(pB.Sub(pA), axis)
}

/// Get the current joint linear speed, usually in meters per second.
func (joint *WheelJoint) GetJointLinearSpeed() float32 {
	bA, bB := joint.bodyA, joint.bodyB

	rA := common.MulRV(bA.xf.Q, joint.localAnchorA.Sub(bA.sweep.LocalCenter))
	rB := common.MulRV(bB.xf.Q, joint.localAnchorB.Sub(bB.sweep.LocalCenter))
	d := bB.sweep.C.Add(rB).Sub(bA.sweep.C.Add(rA))
	axis := common.MulRV(bA.xf.Q, joint.localXAxisA)

	vA, vB := bA.linearVelocity, bB.linearVelocity
	wA, wB := bA.angularVelocity, bB.angularVelocity

	return common.Dot(d, common.CrossSV(wA, axis)) + common.Dot(axis, vB.Add(common.CrossSV(wB, rB)).Sub(vA).Sub(common.CrossSV(wA, rA)))
}

/// Get the current joint angle in radians.
func (joint *WheelJoint) GetJointAngle() float32 {
	return joint.bodyB.sweep.A - joint.bodyA.sweep.A
}

/// Get the current joint angular speed in radians per second.
func (joint *WheelJoint) GetJointAngularSpeed() float32 {
	return joint.bodyB.angularVelocity - joint.bodyA.angularVelocity
}

func (joint *WheelJoint) IsMotorEnabled() bool { return joint.enableMotor }

func (joint *WheelJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.wakeBodies()
		joint.enableMotor = flag
	}
}

func (joint *WheelJoint) GetMotorSpeed() float32 { return joint.motorSpeed }

/// Set the motor speed, usually in radians per second.
func (joint *WheelJoint) SetMotorSpeed(speed float32) {
	if speed != joint.motorSpeed {
		joint.wakeBodies()
		joint.motorSpeed = speed
	}
}

func (joint *WheelJoint) GetMaxMotorTorque() float32 { return joint.maxMotorTorque }

/// Set/Get the maximum motor force, usually in N-m.
func (joint *WheelJoint) SetMaxMotorTorque(torque float32) {
	if torque != joint.maxMotorTorque {
		joint.wakeBodies()
		joint.maxMotorTorque = torque
	}
}

/// Get the current motor torque given the inverse time step, usually in N-m.
func (joint *WheelJoint) GetMotorTorque(invDt float32) float32 {
	return invDt * joint.motorImpulse
}

func (joint *WheelJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		slog.Any("localAxisA", joint.localXAxisA),
		slog.Bool("enableMotor", joint.enableMotor),
		floatAttr("motorSpeed", joint.motorSpeed),
		floatAttr("maxMotorTorque", joint.maxMotorTorque),
		floatAttr("frequencyHz", joint.frequencyHz),
		floatAttr("dampingRatio", joint.dampingRatio),
	)...)
}
