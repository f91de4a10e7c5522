package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Motor joint definition.
type MotorJointDef struct {
	JointDefBase

	/// Position of bodyB minus the position of bodyA, in bodyA's frame, in meters.
	LinearOffset common.Vec2

	/// The bodyB angle minus bodyA angle in radians.
	AngularOffset float32

	/// The maximum motor force in N.
	MaxForce float32

	/// The maximum motor torque in N-m.
	MaxTorque float32

	/// Position correction factor in the range [0,1].
	CorrectionFactor float32
}

func MakeMotorJointDef() MotorJointDef {
	return MotorJointDef{
		MaxForce:         1.0,
		MaxTorque:        1.0,
		CorrectionFactor: 0.3,
	}
}

func (*MotorJointDef) Type() JointType { return JointMotor }

/// Initialize the bodies and offsets using the current transforms.
func (def *MotorJointDef) Initialize(bodyA, bodyB *Body) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LinearOffset = bodyA.GetLocalPoint(bodyB.GetPosition())
	def.AngularOffset = bodyB.GetAngle() - bodyA.GetAngle()
}

/// A motor joint is used to control the relative motion
/// between two bodies. A typical usage is to control the movement
/// of a dynamic body with respect to the ground.
type MotorJoint struct {
	jointBase
	frictionSolver

	// Solver shared
	linearOffset     common.Vec2
	angularOffset    float32
	correctionFactor float32

	// Solver temp
	linearError  common.Vec2
	angularError float32
}

func newMotorJoint(def *MotorJointDef) *MotorJoint {
	joint := &MotorJoint{
		jointBase:        makeJointBase(JointMotor, &def.JointDefBase),
		linearOffset:     def.LinearOffset,
		angularOffset:    def.AngularOffset,
		correctionFactor: def.CorrectionFactor,
	}
	joint.maxForce = def.MaxForce
	joint.maxTorque = def.MaxTorque
	return joint
}

func (joint *MotorJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	cA, aA, cB, aB := joint.positions(data)
	qA, qB := common.MakeRot(aA), common.MakeRot(aB)

	// The constraint acts at the body centers of mass.
	rA := common.MulRV(qA, joint.localCenterA.Neg())
	rB := common.MulRV(qB, joint.localCenterB.Neg())

	joint.linearError = cB.Add(rB).Sub(cA).Sub(rA).Sub(common.MulRV(qA, joint.linearOffset))
	joint.angularError = aB - aA - joint.angularOffset

	joint.initMass(data, rA, rB)
}

func (joint *MotorJoint) solveVelocityConstraints(data *SolverData) {
	k := data.Step.InvDt * joint.correctionFactor
	joint.solve(data, joint.linearError.Mul(k), k*joint.angularError)
}

func (joint *MotorJoint) solvePositionConstraints(data *SolverData) bool {
	return true
}

func (joint *MotorJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetPosition()
}

func (joint *MotorJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetPosition()
}

/// Set the position correction factor in the range [0,1].
func (joint *MotorJoint) SetCorrectionFactor(factor float32) {
	common.Assert(common.IsValid(factor) && 0.0 <= factor && factor <= 1.0, "correction factor %v outside [0,1]", factor)
	joint.correctionFactor = factor
}

/// Get the position correction factor in the range [0,1].
func (joint *MotorJoint) GetCorrectionFactor() float32 { return joint.correctionFactor }

/// Set the target linear offset, in frame A, in meters.
func (joint *MotorJoint) SetLinearOffset(linearOffset common.Vec2) {
	if linearOffset != joint.linearOffset {
		joint.wakeBodies()
		joint.linearOffset = linearOffset
	}
}

/// Get the target linear offset, in frame A, in meters.
func (joint *MotorJoint) GetLinearOffset() common.Vec2 { return joint.linearOffset }

/// Set the target angular offset, in radians.
func (joint *MotorJoint) SetAngularOffset(angularOffset float32) {
	if angularOffset != joint.angularOffset {
		joint.wakeBodies()
		joint.angularOffset = angularOffset
	}
}

/// Get the target angular offset, in radians.
func (joint *MotorJoint) GetAngularOffset() float32 { return joint.angularOffset }

func (joint *MotorJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("linearOffset", joint.linearOffset),
		floatAttr("angularOffset", joint.angularOffset),
		floatAttr("maxForce", joint.maxForce),
		floatAttr("maxTorque", joint.maxTorque),
		floatAttr("correctionFactor", joint.correctionFactor),
	)...)
}
