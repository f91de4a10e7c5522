package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Prismatic joint definition. This requires defining a line of
/// motion using an axis and an anchor point. The definition uses local
/// anchor points and a local axis so that the initial configuration
/// can violate the constraint slightly. The joint translation is zero
/// when the local anchor points coincide in world space. Using local
/// anchors and a local axis helps when saving and loading a game.
type PrismaticJointDef struct {
	JointDefBase

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA common.Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB common.Vec2

	/// The local translation unit axis in bodyA.
	LocalAxisA common.Vec2

	/// The constrained angle between the bodies: bodyB_angle - bodyA_angle.
	ReferenceAngle float32

	/// Enable/disable the joint limit.
	EnableLimit bool

	/// The lower translation limit, usually in meters.
	LowerTranslation float32

	/// The upper translation limit, usually in meters.
	UpperTranslation float32

	/// Enable/disable the joint motor.
	EnableMotor bool

	/// The maximum motor torque, usually in N-m.
	MaxMotorForce float32

	/// The desired motor speed in radians per second.
	MotorSpeed float32
}

func MakePrismaticJointDef() PrismaticJointDef {
	return PrismaticJointDef{LocalAxisA: common.MakeVec2(1.0, 0.0)}
}

func (*PrismaticJointDef) Type() JointType { return JointPrismatic }

/// Initialize the bodies, anchors, axis, and reference angle using the world
/// anchor and unit world axis.
func (def *PrismaticJointDef) Initialize(bodyA, bodyB *Body, anchor, axis common.Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.GetLocalPoint(anchor)
	def.LocalAnchorB = bodyB.GetLocalPoint(anchor)
	def.LocalAxisA = bodyA.GetLocalVector(axis)
	def.ReferenceAngle = bodyB.GetAngle() - bodyA.GetAngle()
}

/// A prismatic joint. This joint provides one degree of freedom: translation
/// along an axis fixed in bodyA. Relative rotation is prevented. You can
/// use a joint limit to restrict the range of motion and a joint motor to
/// drive the motion or to model joint friction.
type PrismaticJoint struct {
	jointBase

	// Solver shared
	localAnchorA     common.Vec2
	localAnchorB     common.Vec2
	localXAxisA      common.Vec2
	localYAxisA      common.Vec2
	referenceAngle   float32
	impulse          common.Vec3
	motorImpulse     float32
	lowerTranslation float32
	upperTranslation float32
	maxMotorForce    float32
	motorSpeed       float32
	enableLimit      bool
	enableMotor      bool
	limitState       LimitState

	// Solver temp
	solverBodies
	axis, perp common.Vec2
	s1, s2     float32
	a1, a2     float32
	K          common.Mat33
	motorMass  float32
}

func newPrismaticJoint(def *PrismaticJointDef) *PrismaticJoint {
	joint := &PrismaticJoint{
		jointBase:        makeJointBase(JointPrismatic, &def.JointDefBase),
		localAnchorA:     def.LocalAnchorA,
		localAnchorB:     def.LocalAnchorB,
		localXAxisA:      def.LocalAxisA,
		referenceAngle:   def.ReferenceAngle,
		lowerTranslation: def.LowerTranslation,
		upperTranslation: def.UpperTranslation,
		maxMotorForce:    def.MaxMotorForce,
		motorSpeed:       def.MotorSpeed,
		enableLimit:      def.EnableLimit,
		enableMotor:      def.EnableMotor,
	}
	joint.localXAxisA.Normalize()
	joint.localYAxisA = common.CrossSV(1.0, joint.localXAxisA)
	return joint
}

/// The local anchor point relative to bodyA's origin.
func (joint *PrismaticJoint) GetLocalAnchorA() common.Vec2 { return joint.localAnchorA }

/// The local anchor point relative to bodyB's origin.
func (joint *PrismaticJoint) GetLocalAnchorB() common.Vec2 { return joint.localAnchorB }

/// The local joint axis relative to bodyA.
func (joint *PrismaticJoint) GetLocalAxisA() common.Vec2 { return joint.localXAxisA }

/// Get the reference angle.
func (joint *PrismaticJoint) GetReferenceAngle() float32 { return joint.referenceAngle }

// Linear constraint (point-to-line)
// d = p2 - p1 = x2 + r2 - x1 - r1
// C = dot(perp, d)
// Cdot = dot(d, cross(w1, perp)) + dot(perp, v2 + cross(w2, r2) - v1 - cross(w1, r1))
//      = -dot(perp, v1) - dot(cross(d + r1, perp), w1) + dot(perp, v2) + dot(cross(r2, perp), v2)
// J = [-perp, -cross(d + r1, perp), perp, cross(r2,perp)]
//
// Angular constraint
// C = a2 - a1 + a_initial
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
//
// K = J * invM * JT
//
// J = [-a -s1 a s2]
//     [0  -1  0  1]
// a = perp
// s1 = cross(d + r1, a) = cross(p2 - x1, a)
// s2 = cross(r2, a) = cross(p2 - x2, a)

// Motor/Limit linear constraint
// C = dot(ax1, d)
// Cdot = = -dot(ax1, v1) - dot(cross(d + r1, ax1), w1) + dot(ax1, v2) + dot(cross(r2, ax1), v2)
// J = [-ax1 -cross(d+r1,ax1) ax1 cross(r2,ax1)]

// Block Solver
// The limit is solved in block form with the prismatic constraint. This makes
// the limit stiff (inelastic) even when the mass has poor distribution.
//
// The Jacobian has 3 rows:
// J = [-uT -s1 uT s2] // linear
//     [0   -1   0  1] // angular
//     [-vT -a1 vT a2] // limit
//
// u = perp
// v = axis
// s1 = cross(d + r1, u), s2 = cross(r2, u)
// a1 = cross(d + r1, v), a2 = cross(r2, v)
//
// K * (f2 - f1) = -Cdot
// f2 = invK * (-Cdot) + f1
//
// Clamp accumulated limit impulse.
// lower: f2(3) = max(f2(3), 0)
// upper: f2(3) = min(f2(3), 0)
//
// Solve for correct f2(1:2)
// f2(1:2) = invK(1:2,1:2) * (-Cdot(1:2) - K(1:2,3) * (f2(3) - f1(3))) + f1(1:2)

// prismaticK builds the effective mass of the point-to-line, angular and
// limit rows.
func prismaticK(mA, mB, iA, iB, s1, s2, a1, a2 float32) common.Mat33 {
	k11 := mA + mB + iA*s1*s1 + iB*s2*s2
	k12 := iA*s1 + iB*s2
	k13 := iA*s1*a1 + iB*s2*a2
	k22 := iA + iB
	if k22 == 0.0 {
		// For bodies with fixed rotation.
		k22 = 1.0
	}
	k23 := iA*a1 + iB*a2
	k33 := mA + mB + iA*a1*a1 + iB*a2*a2

	return common.Mat33{
		Ex: common.MakeVec3(k11, k12, k13),
		Ey: common.MakeVec3(k12, k22, k23),
		Ez: common.MakeVec3(k13, k23, k33),
	}
}

func (joint *PrismaticJoint) initVelocityConstraints(data *SolverData) {
	joint.load(joint.bodyA, joint.bodyB)

	cA, aA, cB, aB := joint.positions(data)
	vA, wA, vB, wB := joint.velocities(data)

	qA, qB := common.MakeRot(aA), common.MakeRot(aB)

	// Compute the effective masses.
	rA := common.MulRV(qA, joint.localAnchorA.Sub(joint.localCenterA))
	rB := common.MulRV(qB, joint.localAnchorB.Sub(joint.localCenterB))
	d := cB.Sub(cA).Add(rB).Sub(rA)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	// Compute motor Jacobian and effective mass.
	joint.axis = common.MulRV(qA, joint.localXAxisA)
	joint.a1 = common.Cross(d.Add(rA), joint.axis)
	joint.a2 = common.Cross(rB, joint.axis)

	joint.motorMass = mA + mB + iA*joint.a1*joint.a1 + iB*joint.a2*joint.a2
	if joint.motorMass > 0.0 {
		joint.motorMass = 1.0 / joint.motorMass
	}

	// Prismatic constraint.
	joint.perp = common.MulRV(qA, joint.localYAxisA)
	joint.s1 = common.Cross(d.Add(rA), joint.perp)
	joint.s2 = common.Cross(rB, joint.perp)
	joint.K = prismaticK(mA, mB, iA, iB, joint.s1, joint.s2, joint.a1, joint.a2)

	// Compute motor and limit terms.
	if joint.enableLimit {
		jointTranslation := common.Dot(joint.axis, d)
		switch {
		case common.Abs(joint.upperTranslation-joint.lowerTranslation) < 2.0*data.Tuning.LinearSlop:
			joint.limitState = EqualLimits
		case jointTranslation <= joint.lowerTranslation:
			if joint.limitState != AtLowerLimit {
				joint.limitState = AtLowerLimit
				joint.impulse.Z = 0.0
			}
		case jointTranslation >= joint.upperTranslation:
			if joint.limitState != AtUpperLimit {
				joint.limitState = AtUpperLimit
				joint.impulse.Z = 0.0
			}
		default:
			joint.limitState = InactiveLimit
			joint.impulse.Z = 0.0
		}
	} else {
		joint.limitState = InactiveLimit
		joint.impulse.Z = 0.0
	}

	if !joint.enableMotor {
		joint.motorImpulse = 0.0
	}

	if data.Step.WarmStarting {
		// Account for variable time step.
		joint.impulse = joint.impulse.Mul(data.Step.DtRatio)
		joint.motorImpulse *= data.Step.DtRatio

		axial := joint.motorImpulse + joint.impulse.Z
		P := joint.perp.Mul(joint.impulse.X).Add(joint.axis.Mul(axial))
		LA := joint.impulse.X*joint.s1 + joint.impulse.Y + axial*joint.a1
		LB := joint.impulse.X*joint.s2 + joint.impulse.Y + axial*joint.a2

		vA.SubInPlace(P.Mul(mA))
		wA -= iA * LA

		vB.AddInPlace(P.Mul(mB))
		wB += iB * LB
	} else {
		joint.impulse.SetZero()
		joint.motorImpulse = 0.0
	}

	joint.storeVelocities(data, vA, wA, vB, wB)
}

func (joint *PrismaticJoint) solveVelocityConstraints(data *SolverData) {
	vA, wA, vB, wB := joint.velocities(data)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	// Solve linear motor constraint.
	if joint.enableMotor && joint.limitState != EqualLimits {
		Cdot := common.Dot(joint.axis, vB.Sub(vA)) + joint.a2*wB - joint.a1*wA
		impulse := joint.motorMass * (joint.motorSpeed - Cdot)
		oldImpulse := joint.motorImpulse
		maxImpulse := data.Step.Dt * joint.maxMotorForce
		joint.motorImpulse = common.Clamp(joint.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - oldImpulse

		P := joint.axis.Mul(impulse)
		LA := impulse * joint.a1
		LB := impulse * joint.a2

		vA.SubInPlace(P.Mul(mA))
		wA -= iA * LA

		vB.AddInPlace(P.Mul(mB))
		wB += iB * LB
	}

	Cdot1 := common.MakeVec2(common.Dot(joint.perp, vB.Sub(vA))+joint.s2*wB-joint.s1*wA, wB-wA)

	var P common.Vec2
	var LA, LB float32

	if joint.enableLimit && joint.limitState != InactiveLimit {
		// Solve prismatic and limit constraint in block form.
		Cdot2 := common.Dot(joint.axis, vB.Sub(vA)) + joint.a2*wB - joint.a1*wA
		Cdot := common.MakeVec3(Cdot1.X, Cdot1.Y, Cdot2)

		f1 := joint.impulse
		joint.impulse.AddInPlace(joint.K.Solve33(Cdot.Neg()))

		switch joint.limitState {
		case AtLowerLimit:
			joint.impulse.Z = max(joint.impulse.Z, 0.0)
		case AtUpperLimit:
			joint.impulse.Z = min(joint.impulse.Z, 0.0)
		}

		// f2(1:2) = invK(1:2,1:2) * (-Cdot(1:2) - K(1:2,3) * (f2(3) - f1(3))) + f1(1:2)
		b := Cdot1.Neg().Sub(common.MakeVec2(joint.K.Ez.X, joint.K.Ez.Y).Mul(joint.impulse.Z - f1.Z))
		f2r := joint.K.Solve22(b).Add(common.MakeVec2(f1.X, f1.Y))
		joint.impulse.X = f2r.X
		joint.impulse.Y = f2r.Y

		df := joint.impulse.Sub(f1)

		P = joint.perp.Mul(df.X).Add(joint.axis.Mul(df.Z))
		LA = df.X*joint.s1 + df.Y + df.Z*joint.a1
		LB = df.X*joint.s2 + df.Y + df.Z*joint.a2
	} else {
		// Limit is inactive, just solve the prismatic constraint in block form.
		df := joint.K.Solve22(Cdot1.Neg())
		joint.impulse.X += df.X
		joint.impulse.Y += df.Y

		P = joint.perp.Mul(df.X)
		LA = df.X*joint.s1 + df.Y
		LB = df.X*joint.s2 + df.Y
	}

	vA.SubInPlace(P.Mul(mA))
	wA -= iA * LA

	vB.AddInPlace(P.Mul(mB))
	wB += iB * LB

	joint.storeVelocities(data, vA, wA, vB, wB)
}

// The position solver only copes with integration error, so its pseudo
// impulses carry no physical meaning. The limit state is recomputed here
// because the joint may push past the limit while the velocity solver
// considers it inactive.
func (joint *PrismaticJoint) solvePositionConstraints(data *SolverData) bool {
	cA, aA, cB, aB := joint.positions(data)
	tuning := data.Tuning

	qA, qB := common.MakeRot(aA), common.MakeRot(aB)

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	// Compute fresh Jacobians
	rA := common.MulRV(qA, joint.localAnchorA.Sub(joint.localCenterA))
	rB := common.MulRV(qB, joint.localAnchorB.Sub(joint.localCenterB))
	d := cB.Add(rB).Sub(cA).Sub(rA)

	axis := common.MulRV(qA, joint.localXAxisA)
	a1 := common.Cross(d.Add(rA), axis)
	a2 := common.Cross(rB, axis)
	perp := common.MulRV(qA, joint.localYAxisA)

	s1 := common.Cross(d.Add(rA), perp)
	s2 := common.Cross(rB, perp)

	C1 := common.MakeVec2(common.Dot(perp, d), aB-aA-joint.referenceAngle)

	linearError := common.Abs(C1.X)
	angularError := common.Abs(C1.Y)

	active := false
	var C2 float32
	if joint.enableLimit {
		translation := common.Dot(axis, d)
		switch {
		case common.Abs(joint.upperTranslation-joint.lowerTranslation) < 2.0*tuning.LinearSlop:
			// Prevent large angular corrections
			C2 = common.Clamp(translation, -tuning.MaxLinearCorrection, tuning.MaxLinearCorrection)
			linearError = max(linearError, common.Abs(translation))
			active = true
		case translation <= joint.lowerTranslation:
			// Prevent large linear corrections and allow some slop.
			C2 = common.Clamp(translation-joint.lowerTranslation+tuning.LinearSlop, -tuning.MaxLinearCorrection, 0.0)
			linearError = max(linearError, joint.lowerTranslation-translation)
			active = true
		case translation >= joint.upperTranslation:
			// Prevent large linear corrections and allow some slop.
			C2 = common.Clamp(translation-joint.upperTranslation-tuning.LinearSlop, 0.0, tuning.MaxLinearCorrection)
			linearError = max(linearError, translation-joint.upperTranslation)
			active = true
		}
	}

	K := prismaticK(mA, mB, iA, iB, s1, s2, a1, a2)

	var impulse common.Vec3
	if active {
		impulse = K.Solve33(common.MakeVec3(C1.X, C1.Y, C2).Neg())
	} else {
		impulse1 := K.Solve22(C1.Neg())
		impulse = common.MakeVec3(impulse1.X, impulse1.Y, 0.0)
	}

	P := perp.Mul(impulse.X).Add(axis.Mul(impulse.Z))
	LA := impulse.X*s1 + impulse.Y + impulse.Z*a1
	LB := impulse.X*s2 + impulse.Y + impulse.Z*a2

	cA.SubInPlace(P.Mul(mA))
	aA -= iA * LA
	cB.AddInPlace(P.Mul(mB))
	aB += iB * LB

	joint.storePositions(data, cA, aA, cB, aB)

	return linearError <= tuning.LinearSlop && angularError <= tuning.AngularSlop
}

func (joint *PrismaticJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint *PrismaticJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

func (joint *PrismaticJoint) GetReactionForce(invDt float32) common.Vec2 {
	return joint.perp.Mul(joint.impulse.X).Add(joint.axis.Mul(joint.motorImpulse + joint.impulse.Z)).Mul(invDt)
}

func (joint *PrismaticJoint) GetReactionTorque(invDt float32) float32 {
	return invDt * joint.impulse.Y
}

/// Get the current joint translation, usually in meters.
func (joint *PrismaticJoint) GetJointTranslation() float32 {
	pA := joint.bodyA.GetWorldPoint(joint.localAnchorA)
	pB := joint.bodyB.GetWorldPoint(joint.localAnchorB)
	axis := joint.bodyA.GetWorldVector(joint.localXAxisA)
	return common.Dot(pB.Sub(pA), axis)
}

/// Get the current joint translation speed, usually in meters per second.
func (joint *PrismaticJoint) GetJointSpeed() float32 {
	bA, bB := joint.bodyA, joint.bodyB

	rA := common.MulRV(bA.xf.Q, joint.localAnchorA.Sub(bA.sweep.LocalCenter))
	rB := common.MulRV(bB.xf.Q, joint.localAnchorB.Sub(bB.sweep.LocalCenter))
	p1 := bA.sweep.C.Add(rA)
	p2 := bB.sweep.C.Add(rB)
	d := p2.Sub(p1)
	axis := common.MulRV(bA.xf.Q, joint.localXAxisA)

	vA, vB := bA.linearVelocity, bB.linearVelocity
	wA, wB := bA.angularVelocity, bB.angularVelocity

	return common.Dot(d, common.CrossSV(wA, axis)) +
		common.Dot(axis, vB.Add(common.CrossSV(wB, rB)).Sub(vA).Sub(common.CrossSV(wA, rA)))
}

func (joint *PrismaticJoint) IsLimitEnabled() bool { return joint.enableLimit }

func (joint *PrismaticJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.wakeBodies()
		joint.enableLimit = flag
		joint.impulse.Z = 0.0
	}
}

func (joint *PrismaticJoint) GetLowerLimit() float32 { return joint.lowerTranslation }

func (joint *PrismaticJoint) GetUpperLimit() float32 { return joint.upperTranslation }

/// Set the joint limits, usually in meters.
func (joint *PrismaticJoint) SetLimits(lower, upper float32) {
	common.Assert(lower <= upper, "prismatic limits: lower %v > upper %v", lower, upper)
	if lower != joint.lowerTranslation || upper != joint.upperTranslation {
		joint.wakeBodies()
		joint.lowerTranslation = lower
		joint.upperTranslation = upper
		joint.impulse.Z = 0.0
	}
}

func (joint *PrismaticJoint) IsMotorEnabled() bool { return joint.enableMotor }

func (joint *PrismaticJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.wakeBodies()
		joint.enableMotor = flag
	}
}

func (joint *PrismaticJoint) GetMotorSpeed() float32 { return joint.motorSpeed }

func (joint *PrismaticJoint) SetMotorSpeed(speed float32) {
	if speed != joint.motorSpeed {
		joint.wakeBodies()
		joint.motorSpeed = speed
	}
}

func (joint *PrismaticJoint) GetMaxMotorForce() float32 { return joint.maxMotorForce }

func (joint *PrismaticJoint) SetMaxMotorForce(force float32) {
	if force != joint.maxMotorForce {
		joint.wakeBodies()
		joint.maxMotorForce = force
	}
}

/// Get the current motor force given the inverse time step, usually in N.
func (joint *PrismaticJoint) GetMotorForce(invDt float32) float32 {
	return invDt * joint.motorImpulse
}

func (joint *PrismaticJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Any("localAnchorA", joint.localAnchorA),
		slog.Any("localAnchorB", joint.localAnchorB),
		slog.Any("localAxisA", joint.localXAxisA),
		floatAttr("referenceAngle", joint.referenceAngle),
		slog.Bool("enableLimit", joint.enableLimit),
		floatAttr("lowerTranslation", joint.lowerTranslation),
		floatAttr("upperTranslation", joint.upperTranslation),
		slog.Bool("enableMotor", joint.enableMotor),
		floatAttr("motorSpeed", joint.motorSpeed),
		floatAttr("maxMotorForce", joint.maxMotorForce),
	)...)
}
