package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Revolute joint definition. This requires defining an
/// anchor point where the bodies are joined. The definition
/// uses local anchor points so that the initial configuration
/// can violate the constraint slightly. You also need to
/// specify the initial relative angle for joint limits. This
/// helps when saving and loading a game.
/// The local anchor points are measured from the body's origin
/// rather than the center of mass because:
/// 1. you might not know where the center of mass will be.
/// 2. if you add/remove shapes from a body and recompute the mass,
///    the joints will be broken.
type RevoluteJointDef struct {
	JointDefBase

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The bodyB angle minus bodyA angle in the reference state (radians).
	ReferenceAngle float32

	/// A flag to enable joint limits.
	EnableLimit bool

	/// The lower angle for the joint limit (radians).
	LowerAngle float32

	/// The upper angle for the joint limit (radians).
	UpperAngle float32

	/// A flag to enable the joint motor.
	EnableMotor bool

	/// The desired motor speed. Usually in radians per second.
	MotorSpeed float32

	/// The maximum motor torque used to achieve the desired motor speed.
	/// Usually in N-m.
	MaxMotorTorque float32
}

func (*RevoluteJointDef) Type() JointType { return JointRevolute }

/// Initialize the bodies, anchors, and reference angle using a world
/// anchor point.
func (def *RevoluteJointDef) Initialize(bodyA, bodyB *Body, anchor common.Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.GetLocalPoint(anchor)
	def.LocalAnchorB = bodyB.GetLocalPoint(anchor)
	def.ReferenceAngle = bodyB.GetAngle() - bodyA.GetAngle()
}

/// A revolute joint constrains two bodies to share a common point while they
/// are free to rotate about the point. The relative rotation about the shared
/// point is the joint angle. You can limit the relative rotation with
/// a joint limit that specifies a lower and upper angle. You can use a motor
/// to drive the relative rotation about the shared point. A maximum motor torque
/// is provided so that infinite forces are not generated.
type RevoluteJoint struct {
	jointBase

	// Solver shared
	localAnchorA common.Vec2
	localAnchorB common.Vec2
	impulse      common.Vec3
	motorImpulse float32

	enableMotor    bool
	maxMotorTorque float32
	motorSpeed     float32

	enableLimit    bool
	referenceAngle float32
	lowerAngle     float32
	upperAngle     float32

	// Solver temp
	solverBodies
	rA, rB     common.Vec2
	mass       common.Mat33 // effective mass for point-to-point constraint.
	motorMass  float32      // effective mass for motor/limit angular constraint.
	limitState LimitState
}

func newRevoluteJoint(def *RevoluteJointDef) *RevoluteJoint {
	return &RevoluteJoint{
		jointBase:      makeJointBase(JointRevolute, &def.JointDefBase),
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		lowerAngle:     def.LowerAngle,
		upperAngle:     def.UpperAngle,
		maxMotorTorque: def.MaxMotorTorque,
		motorSpeed:     def.MotorSpeed,
		enableLimit:    def.EnableLimit,
		enableMotor:    def.EnableMotor,
	}
}

/// The local anchor point relative to bodyA's origin.
func (joint *RevoluteJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *RevoluteJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

/// Get the reference angle.
func (joint *RevoluteJoint) GetReferenceAngle() float32 { return joint.referenceAngle }

// Point-to-point constraint
// C = p2 - p1
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Motor constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (joint *RevoluteJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	aA := data.Positions[joint.indexA].A
	aB := data.Positions[joint.indexB].A
	vA, wA, vB, wB := joint.velocities(data)

	qA, qB := common.MakeRot(aA), common.MakeRot(aB)

	joint.rA = common.MulRV(qA, joint.localAnchorA.Sub(joint.localCenterA))
	joint.rB = common.MulRV(qB, joint.localAnchorB.Sub(joint.localCenterB))
	rA, rB := joint.rA, joint.rB

	// J = [-I -r1_skew I r2_skew]
	//     [ 0       -1 0       1]
	// r_skew = [-ry; rx]
	joint.mass = joint.pointAngleMass(rA, rB)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	fixedRotation := iA+iB == 0.0

	joint.motorMass = iA + iB
	if joint.motorMass > 0.0 {
		joint.motorMass = 1.0 / joint.motorMass
	}

	if !joint.enableMotor || fixedRotation {
		joint.motorImpulse = 0.0
	}

	if joint.enableLimit && !fixedRotation {
		jointAngle := aB - aA - joint.referenceAngle
		switch {
		case common.Abs(joint.upperAngle-joint.lowerAngle) < 2.0*data.Tuning.AngularSlop:
			joint.limitState = EqualLimits
		case jointAngle <= joint.lowerAngle:
			if joint.limitState != AtLowerLimit {
				joint.impulse.Z = 0.0
			}
			joint.limitState = AtLowerLimit
		case jointAngle >= joint.upperAngle:
			if joint.limitState != AtUpperLimit {
				joint.impulse.Z = 0.0
			}
			joint.limitState = AtUpperLimit
		default:
			joint.limitState = InactiveLimit
			joint.impulse.Z = 0.0
		}
	} else {
		joint.limitState = InactiveLimit
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		joint.impulse = joint.impulse.Mul(data.Step.DtRatio)
		joint.motorImpulse *= data.Step.DtRatio

		P := common.MakeVec2(joint.impulse.X, joint.impulse.Y)

		vA.SubInPlace(P.Mul(mA))
		wA -= iA * (common.Cross(rA, P) + joint.motorImpulse + joint.impulse.Z)

		vB.AddInPlace(P.Mul(mB))
		wB += iB * (common.Cross(rB, P) + joint.motorImpulse + joint.impulse.Z)
	} else {
		joint.impulse.SetZero()
		joint.motorImpulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *RevoluteJoint) solveVelocityConstraints(data *SolverData) {
	vA, wA, vB, wB := joint.velocities(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	fixedRotation := iA+iB == 0.0

	// Solve motor constraint.
	if joint.enableMotor && joint.limitState != EqualLimits && !fixedRotation {
		Cdot := wB - wA - joint.motorSpeed
		impulse := -joint.motorMass * Cdot
		oldImpulse := joint.motorImpulse
		maxImpulse := data.Step.Dt * joint.maxMotorTorque
		joint.motorImpulse = common.Clamp(joint.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	if joint.enableLimit && joint.limitState != InactiveLimit && !fixedRotation {
		// Solve limit constraint.
		Cdot1 := vB.Add(common.CrossSV(wB, joint.rB)).Sub(vA).Sub(common.CrossSV(wA, joint.rA))
		Cdot2 := wB - wA
		Cdot := common.MakeVec3(Cdot1.X, Cdot1.Y, Cdot2)

		impulse := joint.mass.Solve33(Cdot).Neg()

		switch joint.limitState {
		case EqualLimits:
			joint.impulse.AddInPlace(impulse)
		case AtLowerLimit, AtUpperLimit:
			newImpulse := joint.impulse.Z + impulse.Z
			if (joint.limitState == AtLowerLimit && newImpulse < 0.0) ||
				(joint.limitState == AtUpperLimit && newImpulse > 0.0) {
				// The limit would pull; drop it and solve the point constraint alone.
				rhs := Cdot1.Neg().Add(common.MakeVec2(joint.mass.Ez.X, joint.mass.Ez.Y).Mul(joint.impulse.Z))
				reduced := joint.mass.Solve22(rhs)
				impulse = common.MakeVec3(reduced.X, reduced.Y, -joint.impulse.Z)
				joint.impulse.X += reduced.X
				joint.impulse.Y += reduced.Y
				joint.impulse.Z = 0.0
			} else {
				joint.impulse.AddInPlace(impulse)
			}
		}

		P := common.MakeVec2(impulse.X, impulse.Y)

		vA.SubInPlace(P.Mul(mA))
		wA -= iA * (common.Cross(joint.rA, P) + impulse.Z)

		vB.AddInPlace(P.Mul(mB))
		wB += iB * (common.Cross(joint.rB, P) + impulse.Z)
	} else {
		// Solve point-to-point constraint
		Cdot := vB.Add(common.CrossSV(wB, joint.rB)).Sub(vA).Sub(common.CrossSV(wA, joint.rA))
		impulse := joint.mass.Solve22(Cdot.Neg())

		joint.impulse.X += impulse.X
		joint.impulse.Y += impulse.Y

		vA.SubInPlace(impulse.Mul(mA))
		wA -= iA * common.Cross(joint.rA, impulse)

		vB.AddInPlace(impulse.Mul(mB))
		wB += iB * common.Cross(joint.rB, impulse)
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *RevoluteJoint) solvePositionConstraints(data *SolverData) bool {
	cA, aA, cB, aB := joint.positions(data)
	tuning := data.Tuning

	var angularError, positionError float32

	fixedRotation := joint.invIA+joint.invIB == 0.0

	// Solve angular limit constraint.
	if joint.enableLimit && joint.limitState != InactiveLimit && !fixedRotation {
		angle := aB - aA - joint.referenceAngle
		var limitImpulse float32

		switch joint.limitState {
		case EqualLimits:
			// Prevent large angular corrections
			C := common.Clamp(angle-joint.lowerAngle, -tuning.MaxAngularCorrection, tuning.MaxAngularCorrection)
			limitImpulse = -joint.motorMass * C
			angularError = common.Abs(C)
		case AtLowerLimit:
			C := angle - joint.lowerAngle
			angularError = -C

			// Prevent large angular corrections and allow some slop.
			C = common.Clamp(C+tuning.AngularSlop, -tuning.MaxAngularCorrection, 0.0)
			limitImpulse = -joint.motorMass * C
		case AtUpperLimit:
			C := angle - joint.upperAngle
			angularError = C

			// Prevent large angular corrections and allow some slop.
			C = common.Clamp(C-tuning.AngularSlop, 0.0, tuning.MaxAngularCorrection)
			limitImpulse = -joint.motorMass * C
		}

		aA -= joint.invIA * limitImpulse
		aB += joint.invIB * limitImpulse
	}

	// Solve point-to-point constraint.
	{
		qA, qB := common.MakeRot(aA), common.MakeRot(aB)
		rA := common.MulRV(qA, joint.localAnchorA.Sub(joint.localCenterA))
		rB := common.MulRV(qB, joint.localAnchorB.Sub(joint.localCenterB))

		C := cB.Add(rB).Sub(cA).Sub(rA)
		positionError = C.Length()

		mA, mB := joint.invMassA, joint.invMassB
		iA, iB := joint.invIA, joint.invIB

		impulse := joint.pointMass(rA, rB).Solve(C).Neg()

		cA.SubInPlace(impulse.Mul(mA))
		aA -= iA * common.Cross(rA, impulse)

		cB.AddInPlace(impulse.Mul(mB))
		aB += iB * common.Cross(rB, impulse)
	}

	joint.storePositions(data, cA, aA, cB, aB)

	return positionError <= tuning.LinearSlop && angularError <= tuning.AngularSlop
}

func (joint *RevoluteJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *RevoluteJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *RevoluteJoint) GetReactionForce(invDt float32) common.Vec2 {
	return common.MakeVec2(joint.impulse.X, joint.impulse.Y).Mul(invDt)
}

func (joint *RevoluteJoint) GetReactionTorque(invDt float32) float32 {
	return invDt * joint.impulse.Z
}

/// Get the current joint angle in radians.
func (joint *RevoluteJoint) GetJointAngle() float32 {
	return joint.bodyB.sweep.A - joint.bodyA.sweep.A - joint.referenceAngle
}

/// Get the current joint angle speed in radians per second.
func (joint *RevoluteJoint) GetJointSpeed() float32 {
	return joint.bodyB.angularVelocity - joint.bodyA.angularVelocity
}

func (joint *RevoluteJoint) IsMotorEnabled() bool { return joint.enableMotor }

func (joint *RevoluteJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.wakeBodies()
		joint.enableMotor = flag
	}
}

/// Get the current motor torque given the inverse time step.
/// Unit is N*m.
func (joint *RevoluteJoint) GetMotorTorque(invDt float32) float32 {
	return invDt * joint.motorImpulse
}

func (joint *RevoluteJoint) GetMotorSpeed() float32 { return joint.motorSpeed }

func (joint *RevoluteJoint) SetMotorSpeed(speed float32) {
	if speed != joint.motorSpeed {
		joint.wakeBodies()
		joint.motorSpeed = speed
	}
}

func (joint *RevoluteJoint) GetMaxMotorTorque() float32 { return joint.maxMotorTorque }

func (joint *RevoluteJoint) SetMaxMotorTorque(torque float32) {
	if torque != joint.maxMotorTorque {
		joint.wakeBodies()
		joint.maxMotorTorque = torque
	}
}

func (joint *RevoluteJoint) IsLimitEnabled() bool { return joint.enableLimit }

func (joint *RevoluteJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.wakeBodies()
		joint.enableLimit = flag
		joint.impulse.Z = 0.0
	}
}

func (joint *RevoluteJoint) GetLowerLimit() float32 { return joint.lowerAngle }

func (joint *RevoluteJoint) GetUpperLimit() float32 { return joint.upperAngle }

/// Set the joint limits in radians.
func (joint *RevoluteJoint) SetLimits(lower, upper float32) {
	common.Assert(lower <= upper, "revolute limits: lower %v > upper %v", lower, upper)

	if lower != joint.lowerAngle || upper != joint.upperAngle {
		joint.wakeBodies()
		joint.impulse.Z = 0.0
		joint.lowerAngle = lower
		joint.upperAngle = upper
	}
}

func (joint *RevoluteJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		floatAttr("referenceAngle", joint.referenceAngle),
		slog.Bool("enableLimit", joint.enableLimit),
		floatAttr("lowerAngle", joint.lowerAngle),
		floatAttr("upperAngle", joint.upperAngle),
		slog.Bool("enableMotor", joint.enableMotor),
		floatAttr("motorSpeed", joint.motorSpeed),
		floatAttr("maxMotorTorque", joint.maxMotorTorque),
	)...)
}
