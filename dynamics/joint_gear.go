package dynamics

import (
	"fmt"
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

/// Gear joint definition. This definition requires two existing
/// revolute or prismatic joints (any combination will work).
type GearJointDef struct {
	JointDefBase

	/// The first revolute/prismatic joint attached to the gear joint.
	Joint1 Joint

	/// The second revolute/prismatic joint attached to the gear joint.
	Joint2 Joint

	/// The gear ratio.
	/// @see GearJoint for explanation.
	Ratio float32
}

func MakeGearJointDef() GearJointDef {
	return GearJointDef{Ratio: 1.0}
}

func (*GearJointDef) Type() JointType { return JointGear }

// Gear Joint:
// C0 = (coordinate1 + ratio * coordinate2)_initial
// C = (coordinate1 + ratio * coordinate2) - C0 = 0
// J = [J1 ratio * J2]
// K = J * invM * JT
//   = J1 * invM1 * J1T + ratio * ratio * J2 * invM2 * J2T
//
// Revolute:
// coordinate = rotation
// Cdot = angularVelocity
// J = [0 0 1]
// K = J * invM * JT = invI
//
// Prismatic:
// coordinate = dot(p - pg, ug)
// Cdot = dot(v + cross(w, r), ug)
// J = [ug cross(r, ug)]
// K = J * invM * JT = invMass + invI * cross(r, ug)^2

// gearSide is one of the two joints a gear couples. body is the driven body
// (bodyB of the source joint) and ground is the source joint's bodyA.
type gearSide struct {
	jointType      JointType
	body, ground   *Body
	localAnchor    common.Vec2
	localAnchorG   common.Vec2
	localAxisG     common.Vec2
	referenceAngle float32

	// Solver temp
	index, indexG int
	lc, lcG       common.Vec2
	m, mG         float32
	i, iG         float32
	Jv            common.Vec2
	Jw, JwG       float32
}

func makeGearSide(j Joint) (gearSide, error) {
	switch j := j.(type) {
	case *RevoluteJoint:
		return gearSide{
			jointType:      JointRevolute,
			body:           j.bodyB,
			ground:         j.bodyA,
			localAnchor:    j.localAnchorB,
			localAnchorG:   j.localAnchorA,
			referenceAngle: j.referenceAngle,
		}, nil
	case *PrismaticJoint:
		return gearSide{
			jointType:      JointPrismatic,
			body:           j.bodyB,
			ground:         j.bodyA,
			localAnchor:    j.localAnchorB,
			localAnchorG:   j.localAnchorA,
			localAxisG:     j.localXAxisA,
			referenceAngle: j.referenceAngle,
		}, nil
	case nil:
		return gearSide{}, fmt.Errorf("%w: gear joint needs two source joints", ErrInvalidJointDef)
	default:
		return gearSide{}, fmt.Errorf("%w: gear joint cannot drive a %v joint", ErrInvalidJointDef, j.GetType())
	}
}

func (s *gearSide) load() {
	s.index, s.indexG = s.body.islandIndex, s.ground.islandIndex
	s.lc, s.lcG = s.body.sweep.LocalCenter, s.ground.sweep.LocalCenter
	s.m, s.mG = s.body.invMass, s.ground.invMass
	s.i, s.iG = s.body.invI, s.ground.invI
}

// linearize returns the side's Jacobian scaled by ratio, its contribution
// to the effective inverse mass, and its joint coordinate, for the driven
// body at (c, a) and the ground body at (cG, aG).
func (s *gearSide) linearize(ratio float32, c common.Vec2, a float32, cG common.Vec2, aG float32) (Jv common.Vec2, Jw, JwG, invMass, coordinate float32) {
	if s.jointType == JointRevolute {
		return common.Vec2{}, ratio, ratio, ratio * ratio * (s.i + s.iG), a - aG - s.referenceAngle
	}

	q, qG := common.MakeRot(a), common.MakeRot(aG)
	u := common.MulRV(qG, s.localAxisG)
	rG := common.MulRV(qG, s.localAnchorG.Sub(s.lcG))
	r := common.MulRV(q, s.localAnchor.Sub(s.lc))

	Jv = u.Mul(ratio)
	JwG = ratio * common.Cross(rG, u)
	Jw = ratio * common.Cross(r, u)
	invMass = ratio*ratio*(s.mG+s.m) + s.iG*JwG*JwG + s.i*Jw*Jw

	pG := s.localAnchorG.Sub(s.lcG)
	p := common.MulTRV(qG, r.Add(c.Sub(cG)))
	coordinate = common.Dot(p.Sub(pG), s.localAxisG)
	return Jv, Jw, JwG, invMass, coordinate
}

// coordinate evaluates the side's joint coordinate from the body sweeps.
func (s *gearSide) coordinate() float32 {
	s.lc, s.lcG = s.body.sweep.LocalCenter, s.ground.sweep.LocalCenter
	_, _, _, _, coordinate := s.linearize(1.0, s.body.sweep.C, s.body.sweep.A, s.ground.sweep.C, s.ground.sweep.A)
	return coordinate
}

func (s *gearSide) positions(data *SolverData) (c common.Vec2, a float32, cG common.Vec2, aG float32) {
	p, pG := data.Positions[s.index], data.Positions[s.indexG]
	return p.C, p.A, pG.C, pG.A
}

func (s *gearSide) applyVelocityImpulse(data *SolverData, impulse float32) {
	v, vG := data.Velocities[s.index], data.Velocities[s.indexG]
	v.V.AddInPlace(s.Jv.Mul(s.m * impulse))
	v.W += s.i * impulse * s.Jw
	vG.V.SubInPlace(s.Jv.Mul(s.mG * impulse))
	vG.W -= s.iG * impulse * s.JwG
	data.Velocities[s.index], data.Velocities[s.indexG] = v, vG
}

func (s *gearSide) velocityError(data *SolverData) float32 {
	v, vG := data.Velocities[s.index], data.Velocities[s.indexG]
	return common.Dot(s.Jv, v.V.Sub(vG.V)) + s.Jw*v.W - s.JwG*vG.W
}

/// A gear joint is used to connect two joints together. Either joint
/// can be a revolute or prismatic joint. You specify a gear ratio
/// to bind the motions together:
/// coordinate1 + ratio * coordinate2 = constant
/// The ratio can be negative or positive. If one joint is a revolute joint
/// and the other joint is a prismatic joint, then the ratio will have units
/// of length or units of 1/length.
/// Warning: You have to manually destroy the gear joint if joint1 or joint2
/// is destroyed.
type GearJoint struct {
	jointBase

	joint1 Joint
	joint2 Joint

	// Side 1 drives bodyA against bodyC, side 2 drives bodyB against bodyD.
	side1, side2 gearSide

	// Solver shared
	constant float32
	ratio    float32
	impulse  float32

	// Solver temp
	mass float32
}

func newGearJoint(def *GearJointDef) (Joint, error) {
	side1, err := makeGearSide(def.Joint1)
	if err != nil {
		return nil, err
	}
	side2, err := makeGearSide(def.Joint2)
	if err != nil {
		return nil, err
	}
	if !common.IsValid(def.Ratio) {
		return nil, fmt.Errorf("%w: gear ratio %v is not finite", ErrInvalidJointDef, def.Ratio)
	}

	joint := &GearJoint{
		jointBase: makeJointBase(JointGear, &def.JointDefBase),
		joint1:    def.Joint1,
		joint2:    def.Joint2,
		side1:     side1,
		side2:     side2,
		ratio:     def.Ratio,
	}

	// The gear acts on the driven bodies of its source joints.
	joint.bodyA = side1.body
	joint.bodyB = side2.body

	joint.constant = joint.side1.coordinate() + joint.ratio*joint.side2.coordinate()

	return joint, nil
}

/// Get the first joint.
func (joint *GearJoint) GetJoint1() Joint { return joint.joint1 }

/// Get the second joint.
func (joint *GearJoint) GetJoint2() Joint { return joint.joint2 }

/// Set/Get the gear ratio.
func (joint *GearJoint) SetRatio(ratio float32) {
	common.Assert(common.IsValid(ratio), "gear ratio %v is not finite", ratio)
	joint.ratio = ratio
}

func (joint *GearJoint) GetRatio() float32 { return joint.ratio }

func (joint *GearJoint) initVelocityConstraints(data *SolverData) {
	s1, s2 := &joint.side1, &joint.side2
	s1.load()
	s2.load()

	var invMass1, invMass2 float32
	c, a, cG, aG := s1.positions(data)
	s1.Jv, s1.Jw, s1.JwG, invMass1, _ = s1.linearize(1.0, c, a, cG, aG)
	c, a, cG, aG = s2.positions(data)
	s2.Jv, s2.Jw, s2.JwG, invMass2, _ = s2.linearize(joint.ratio, c, a, cG, aG)

	// Compute effective mass.
	joint.mass = 0.0
	if invMass := invMass1 + invMass2; invMass > 0.0 {
		joint.mass = 1.0 / invMass
	}

	if data.Step.WarmStarting {
		s1.applyVelocityImpulse(data, joint.impulse)
		s2.applyVelocityImpulse(data, joint.impulse)
	} else {
		joint.impulse = 0.0
	}
}

func (joint *GearJoint) solveVelocityConstraints(data *SolverData) {
	Cdot := joint.side1.velocityError(data) + joint.side2.velocityError(data)

	impulse := -joint.mass * Cdot
	joint.impulse += impulse

	joint.side1.applyVelocityImpulse(data, impulse)
	joint.side2.applyVelocityImpulse(data, impulse)
}

func (joint *GearJoint) solvePositionConstraints(data *SolverData) bool {
	s1, s2 := &joint.side1, &joint.side2

	cA, aA, cC, aC := s1.positions(data)
	cB, aB, cD, aD := s2.positions(data)

	JvAC, JwA, JwC, mass1, coordinateA := s1.linearize(1.0, cA, aA, cC, aC)
	JvBD, JwB, JwD, mass2, coordinateB := s2.linearize(joint.ratio, cB, aB, cD, aD)

	C := (coordinateA + joint.ratio*coordinateB) - joint.constant

	var impulse float32
	if mass := mass1 + mass2; mass > 0.0 {
		impulse = -C / mass
	}

	cA.AddInPlace(JvAC.Mul(s1.m * impulse))
	aA += s1.i * impulse * JwA
	cB.AddInPlace(JvBD.Mul(s2.m * impulse))
	aB += s2.i * impulse * JwB
	cC.SubInPlace(JvAC.Mul(s1.mG * impulse))
	aC -= s1.iG * impulse * JwC
	cD.SubInPlace(JvBD.Mul(s2.mG * impulse))
	aD -= s2.iG * impulse * JwD

	data.Positions[s1.index] = Position{C: cA, A: aA}
	data.Positions[s2.index] = Position{C: cB, A: aB}
	data.Positions[s1.indexG] = Position{C: cC, A: aC}
	data.Positions[s2.indexG] = Position{C: cD, A: aD}

	return common.Abs(C) < data.Tuning.LinearSlop
}

func (joint *GearJoint) GetAnchorA() common.Vec2 {
	return joint.bodyA.GetWorldPoint(joint.side1.localAnchor)
}

func (joint *GearJoint) GetAnchorB() common.Vec2 {
	return joint.bodyB.GetWorldPoint(joint.side2.localAnchor)
}

func (joint *GearJoint) GetReactionForce(invDt float32) common.Vec2 {
	return joint.side1.Jv.Mul(joint.impulse * invDt)
}

func (joint *GearJoint) GetReactionTorque(invDt float32) float32 {
	return invDt * joint.impulse * joint.side1.Jw
}

func (joint *GearJoint) dump(logger *slog.Logger) {
	logger.Info("joint", append(joint.dumpAttrs(),
		slog.Int("joint1", joint.joint1.base().index),
		slog.Int("joint2", joint.joint2.base().index),
		floatAttr("ratio", joint.ratio),
	)...)
}
