package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Friction joint definition.
type FrictionJointDef struct {
	JointDefBase

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The maximum friction force in N.
	MaxForce float32

	/// The maximum friction torque in N-m.
	MaxTorque float32
}

func (*FrictionJointDef) Type() JointType { return JointFriction }

/// Initialize the bodies, anchors, axis, and reference angle using the world
/// anchor and world axis.
func (def *FrictionJointDef) Initialize(bodyA, bodyB *Body, anchor common.Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.GetLocalPoint(anchor)
	def.LocalAnchorB = bodyB.GetLocalPoint(anchor)
}

// Point-to-point constraint
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Angle constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

// frictionSolver drives the relative velocity at a point and the relative
// angular velocity toward a bias, clamping the accumulated impulses by a
// maximum force and torque. Friction and motor joints share it.
type frictionSolver struct {
	solverBodies

	// Solver shared
	linearImpulse  common.Vec2
	angularImpulse float32
	maxForce       float32
	maxTorque      float32

	// Solver temp
	rA, rB      common.Vec2
	linearMass  common.Mat22
	angularMass float32
}

func (fs *frictionSolver) initMass(data *SolverData, rA, rB common.Vec2) {
	fs.rA, fs.rB = rA, rB

	// J = [-I -r1_skew I r2_skew]
	//     [ 0       -1 0       1]
	// r_skew = [-ry; rx]
	fs.linearMass = fs.pointMass(rA, rB).GetInverse()

	fs.angularMass = fs.invIA + fs.invIB
	if fs.angularMass > 0.0 {
		fs.angularMass = 1.0 / fs.angularMass
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		fs.linearImpulse.MulInPlace(data.Step.DtRatio)
		fs.angularImpulse *= data.Step.DtRatio

		vA, wA, vB, wB := fs.velocities(data)
		P := fs.linearImpulse

		vA.SubInPlace(P.Mul(fs.invMassA))
		wA -= fs.invIA * (common.Cross(fs.rA, P) + fs.angularImpulse)

		vB.AddInPlace(P.Mul(fs.invMassB))
		wB += fs.invIB * (common.Cross(fs.rB, P) + fs.angularImpulse)

		fs.storeVelocities(data, vA, wA, vB, wB)
	} else {
		fs.linearImpulse.SetZero()
		fs.angularImpulse = 0.0
	}
}

func (fs *frictionSolver) solve(data *SolverData, linearBias common.Vec2, angularBias float32) {
	vA, wA, vB, wB := fs.velocities(data)

	mA, mB := fs.invMassA, fs.invMassB
	iA, iB := fs.invIA, fs.invIB

	h := data.Step.Dt

	// Solve angular friction
	{
		Cdot := wB - wA + angularBias
		impulse := -fs.angularMass * Cdot

		oldImpulse := fs.angularImpulse
		maxImpulse := h * fs.maxTorque
		fs.angularImpulse = common.Clamp(fs.angularImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = fs.angularImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	// Solve linear friction
	{
		Cdot := vB.Add(common.CrossSV(wB, fs.rB)).Sub(vA).Sub(common.CrossSV(wA, fs.rA)).Add(linearBias)

		impulse := common.MulMV(fs.linearMass, Cdot).Neg()
		oldImpulse := fs.linearImpulse
		fs.linearImpulse.AddInPlace(impulse)

		maxImpulse := h * fs.maxForce
		if fs.linearImpulse.LengthSquared() > maxImpulse*maxImpulse {
			fs.linearImpulse.Normalize()
			fs.linearImpulse.MulInPlace(maxImpulse)
		}

		impulse = fs.linearImpulse.Sub(oldImpulse)

		vA.SubInPlace(impulse.Mul(mA))
		wA -= iA * common.Cross(fs.rA, impulse)

		vB.AddInPlace(impulse.Mul(mB))
		wB += iB * common.Cross(fs.rB, impulse)
	}

	fs.storeVelocities(data, vA, wA, vB, wB)
}

func (fs *frictionSolver) GetReactionForce(invDt float32) common.Vec2 {
	return fs.linearImpulse.Mul(invDt)
}

func (fs *frictionSolver) GetReactionTorque(invDt float32) float32 {
	return invDt * fs.angularImpulse
}

/// Set the maximum friction force in N.
func (fs *frictionSolver) SetMaxForce(force float32) {
	common.Assert(common.IsValid(force) && force >= 0.0, "max force %v must be >= 0", force)
	fs.maxForce = force
}

/// Get the maximum friction force in N.
func (fs *frictionSolver) GetMaxForce() float32 { return fs.maxForce }

/// Set the maximum friction torque in N*m.
func (fs *frictionSolver) SetMaxTorque(torque float32) {
	common.Assert(common.IsValid(torque) && torque >= 0.0, "max torque %v must be >= 0", torque)
	fs.maxTorque = torque
}

/// Get the maximum friction torque in N*m.
func (fs *frictionSolver) GetMaxTorque() float32 { return fs.maxTorque }

/// Friction joint. This is used for top-down friction.
/// It provides 2D translational friction and angular friction.
type FrictionJoint struct {
	jointBase
	frictionSolver

	localAnchorA common.Vec2
	localAnchorB common.Vec2
}

func newFrictionJoint(def *FrictionJointDef) *FrictionJoint {
	joint := &FrictionJoint{
		jointBase:    makeJointBase(JointFriction, &def.JointDefBase),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
	}
	joint.maxForce = def.MaxForce
	joint.maxTorque = def.MaxTorque
	return joint
}

/// The local anchor point relative to bodyA's origin.
func (joint *FrictionJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *FrictionJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

func (joint *FrictionJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	aA := data.Positions[joint.indexA].A
	aB := data.Positions[joint.indexB].A

	// Compute the effective mass matrix.
	rA := common.MulRV(common.MakeRot(aA), joint.localAnchorA.Sub(joint.localCenterA))
	rB := common.MulRV(common.MakeRot(aB), joint.localAnchorB.Sub(joint.localCenterB))
	joint.initMass(data, rA, rB)
}

func (joint *FrictionJoint) solveVelocityConstraints(data *SolverData) {
	joint.solve(data, common.Vec2{}, 0.0)
}

func (joint *FrictionJoint) solvePositionConstraints(data *SolverData) bool {
	return true
}

func (joint *FrictionJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *FrictionJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *FrictionJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		floatAttr("maxForce", joint.maxForce),
		floatAttr("maxTorque", joint.maxTorque),
	)...)
}
