package dynamics

import (
	"fmt"
	"log/slog"

	"github.com/engine-pi/jbox2d/common"
)

type JointType uint8

const (
	JointUnknown JointType = iota
	JointRevolute
	JointPrismatic
	JointDistance
	JointPulley
	JointMouse
	JointGear
	JointWheel
	JointWeld
	JointFriction
	JointRope
	JointMotor
)

var jointTypeNames = [...]string{
	JointUnknown:   "unknown",
	JointRevolute:  "revolute",
	JointPrismatic: "prismatic",
	JointDistance:  "distance",
	JointPulley:    "pulley",
	JointMouse:     "mouse",
	JointGear:      "gear",
	JointWheel:     "wheel",
	JointWeld:      "weld",
	JointFriction:  "friction",
	JointRope:      "rope",
	JointMotor:     "motor",
}

func (t JointType) String() string {
	if int(t) < len(jointTypeNames) {
		return jointTypeNames[t]
	}
	return "unknown"
}

type LimitState uint8

const (
	InactiveLimit LimitState = iota
	AtLowerLimit
	AtUpperLimit
	EqualLimits
)

/// A joint edge is used to connect bodies and joints together
/// in a joint graph where each body is a node and each joint
/// is an edge. A joint edge belongs to a doubly linked list
/// maintained in each attached body. Each joint has two joint
/// nodes, one for each attached body.
type JointEdge struct {
	Other *Body      ///< provides quick access to the other body attached.
	Joint Joint      ///< the joint
	Prev  *JointEdge ///< the previous joint edge in the body's joint list
	Next  *JointEdge ///< the next joint edge in the body's joint list
}

func linkJointEdge(head **JointEdge, edge *JointEdge) {
	edge.Prev = nil
	edge.Next = *head
	if *head != nil {
		(*head).Prev = edge
	}
	*head = edge
}

func unlinkJointEdge(head **JointEdge, edge *JointEdge) {
	if edge.Prev != nil {
		edge.Prev.Next = edge.Next
	}
	if edge.Next != nil {
		edge.Next.Prev = edge.Prev
	}
	if edge == *head {
		*head = edge.Next
	}
	edge.Prev = nil
	edge.Next = nil
}

/// Joint definitions are used to construct joints.
type JointDefBase struct {
	/// Use this to attach application specific data to your joints.
	UserData any

	/// The first attached body.
	BodyA *Body

	/// The second attached body.
	BodyB *Body

	/// Set this flag to true if the attached bodies should collide.
	CollideConnected bool
}

func (def *JointDefBase) defBase() *JointDefBase {
	return def
}

// JointDef is implemented by the definition of every joint type.
type JointDef interface {
	Type() JointType
	defBase() *JointDefBase
}

/// The base joint class. Joints are used to constraint two bodies together in
/// various fashions. Some joints also feature limits and motors.
type Joint interface {
	GetType() JointType

	/// Get the first body attached to this joint.
	GetBodyA() *Body

	/// Get the second body attached to this joint.
	GetBodyB() *Body

	/// Get the anchor point on bodyA in world coordinates.
	GetAnchorA() common.Vec2

	/// Get the anchor point on bodyB in world coordinates.
	GetAnchorB() common.Vec2

	/// Get the reaction force on bodyB at the joint anchor in Newtons.
	GetReactionForce(invDt float32) common.Vec2

	/// Get the reaction torque on bodyB in N*m.
	GetReactionTorque(invDt float32) float32

	/// Get the next joint the world joint list.
	GetNext() Joint

	GetUserData() any
	SetUserData(data any)

	/// Get collide connected.
	/// Note: modifying the collide connect flag won't work correctly because
	/// the flag is only checked when fixture AABBs begin to overlap.
	IsCollideConnected() bool

	/// Short-cut function to determine if either body is inactive.
	IsActive() bool

	/// Shift the origin for any points stored in world coordinates.
	ShiftOrigin(newOrigin common.Vec2)

	base() *jointBase
	initVelocityConstraints(data *SolverData)
	solveVelocityConstraints(data *SolverData)
	solvePositionConstraints(data *SolverData) bool
	dump(logger *slog.Logger)
}

type jointBase struct {
	jointType  JointType
	prev, next Joint
	edgeA      JointEdge
	edgeB      JointEdge
	bodyA      *Body
	bodyB      *Body

	index int

	islandFlag       bool
	collideConnected bool

	userData any
}

func makeJointBase(jointType JointType, def *JointDefBase) jointBase {
	return jointBase{
		jointType:        jointType,
		bodyA:            def.BodyA,
		bodyB:            def.BodyB,
		collideConnected: def.CollideConnected,
		userData:         def.UserData,
	}
}

func (j *jointBase) base() *jointBase {
	return j
}

func (j *jointBase) GetType() JointType {
	return j.jointType
}

func (j *jointBase) GetBodyA() *Body {
	return j.bodyA
}

func (j *jointBase) GetBodyB() *Body {
	return j.bodyB
}

func (j *jointBase) GetNext() Joint {
	return j.next
}

func (j *jointBase) GetUserData() any {
	return j.userData
}

func (j *jointBase) SetUserData(data any) {
	j.userData = data
}

func (j *jointBase) IsCollideConnected() bool {
	return j.collideConnected
}

func (j *jointBase) IsActive() bool {
	return j.bodyA.IsActive() && j.bodyB.IsActive()
}

func (j *jointBase) ShiftOrigin(newOrigin common.Vec2) {}

// dumpAttrs are the attributes shared by every joint record.
func (j *jointBase) dumpAttrs() []any {
	return []any{
		slog.String("type", j.jointType.String()),
		slog.Int("index", j.index),
		slog.Int("bodyA", j.bodyA.islandIndex),
		slog.Int("bodyB", j.bodyB.islandIndex),
		slog.Bool("collideConnected", j.collideConnected),
	}
}

func createJoint(def JointDef) (Joint, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidJointDef)
	}

	base := def.defBase()
	if base.BodyA == nil || base.BodyB == nil {
		return nil, fmt.Errorf("%w: %v joint needs two bodies", ErrInvalidJointDef, def.Type())
	}
	if base.BodyA == base.BodyB {
		return nil, fmt.Errorf("%w: %v joint connects a body to itself", ErrInvalidJointDef, def.Type())
	}

	switch def := def.(type) {
	case *DistanceJointDef:
		return newDistanceJoint(def), nil
	case *MouseJointDef:
		return newMouseJoint(def), nil
	case *PrismaticJointDef:
		return newPrismaticJoint(def), nil
	case *RevoluteJointDef:
		return newRevoluteJoint(def), nil
	case *PulleyJointDef:
		return newPulleyJoint(def)
	case *GearJointDef:
		return newGearJoint(def)
	case *WheelJointDef:
		return newWheelJoint(def), nil
	case *WeldJointDef:
		return newWeldJoint(def), nil
	case *FrictionJointDef:
		return newFrictionJoint(def), nil
	case *RopeJointDef:
		return newRopeJoint(def), nil
	case *MotorJointDef:
		return newMotorJoint(def), nil
	}

	return nil, fmt.Errorf("%w: unsupported %v definition", ErrInvalidJointDef, def.Type())
}

// solverBodies caches the body data a joint reads during one solve.
type solverBodies struct {
	indexA, indexB             int
	localCenterA, localCenterB common.Vec2
	invMassA, invMassB         float32
	invIA, invIB               float32
}

func (s *solverBodies) load(bodyA, bodyB *Body) {
	s.indexA = bodyA.islandIndex
	s.indexB = bodyB.islandIndex
	s.localCenterA = bodyA.sweep.LocalCenter
	s.localCenterB = bodyB.sweep.LocalCenter
	s.invMassA = bodyA.invMass
	s.invMassB = bodyB.invMass
	s.invIA = bodyA.invI
	s.invIB = bodyB.invI
}

func (s *solverBodies) velocities(data *SolverData) (vA common.Vec2, wA float32, vB common.Vec2, wB float32) {
	a := data.Velocities[s.indexA]
	b := data.Velocities[s.indexB]
	return a.V, a.W, b.V, b.W
}

func (s *solverBodies) storeVelocities(data *SolverData, vA common.Vec2, wA float32, vB common.Vec2, wB float32) {
	data.Velocities[s.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[s.indexB] = Velocity{V: vB, W: wB}
}

func (s *solverBodies) positions(data *SolverData) (cA common.Vec2, aA float32, cB common.Vec2, aB float32) {
	a := data.Positions[s.indexA]
	b := data.Positions[s.indexB]
	return a.C, a.A, b.C, b.A
}

func (s *solverBodies) storePositions(data *SolverData, cA common.Vec2, aA float32, cB common.Vec2, aB float32) {
	data.Positions[s.indexA] = Position{C: cA, A: aA}
	data.Positions[s.indexB] = Position{C: cB, A: aB}
}

// wakeBodies wakes both bodies; used by setters that change a motor or limit.
func (j *jointBase) wakeBodies() {
	j.bodyA.SetAwake(true)
	j.bodyB.SetAwake(true)
}

func floatAttr(key string, f float32) slog.Attr {
	return slog.Float64(key, float64(f))
}

// applyVelocityImpulse applies the linear impulse P at the anchors rA and rB.
func (s *solverBodies) applyVelocityImpulse(data *SolverData, rA, rB, P common.Vec2) {
	vA, wA, vB, wB := s.velocities(data)
	vA.SubInPlace(P.Mul(s.invMassA))
	wA -= s.invIA * common.Cross(rA, P)
	vB.AddInPlace(P.Mul(s.invMassB))
	wB += s.invIB * common.Cross(rB, P)
	s.storeVelocities(data, vA, wA, vB, wB)
}

// applyPositionImpulse is the position solver counterpart of applyVelocityImpulse.
func (s *solverBodies) applyPositionImpulse(data *SolverData, rA, rB, P common.Vec2) {
	cA, aA, cB, aB := s.positions(data)
	cA.SubInPlace(P.Mul(s.invMassA))
	aA -= s.invIA * common.Cross(rA, P)
	cB.AddInPlace(P.Mul(s.invMassB))
	aB += s.invIB * common.Cross(rB, P)
	s.storePositions(data, cA, aA, cB, aB)
}

// anchors returns the anchor arms and the vector from anchor A to anchor B
// for the given solver positions.
func (s *solverBodies) anchors(data *SolverData, localAnchorA, localAnchorB common.Vec2) (rA, rB, d common.Vec2) {
	cA, aA, cB, aB := s.positions(data)
	rA = common.MulRV(common.MakeRot(aA), localAnchorA.Sub(s.localCenterA))
	rB = common.MulRV(common.MakeRot(aB), localAnchorB.Sub(s.localCenterB))
	d = cB.Add(rB).Sub(cA).Sub(rA)
	return rA, rB, d
}

// axialInvMass is of J * invM * JT for a constraint along u.
func (s *solverBodies) axialInvMass(rA, rB, u common.Vec2) float32 {
	crA := common.Cross(rA, u)
	crB := common.Cross(rB, u)
	return s.invMassA + s.invIA*crA*crA + s.invMassB + s.invIB*crB*crB
}

func invOrZero(x float32) float32 {
	if x != 0.0 {
		return 1.0 / x
	}
	return 0.0
}

// pointMass is the 2x2 effective mass of a point-to-point constraint with
// anchor arms rA and rB.
func (s *solverBodies) pointMass(rA, rB common.Vec2) common.Mat22 {
	mA, mB := s.invMassA, s.invMassB
	iA, iB := s.invIA, s.invIB

	var K common.Mat22
	K.Ex.X = mA + mB + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y
	K.Ex.Y = -iA*rA.X*rA.Y - iB*rB.X*rB.Y
	K.Ey.X = K.Ex.Y
	K.Ey.Y = mA + mB + iA*rA.X*rA.X + iB*rB.X*rB.X
	return K
}

// pointAngleMass is the 3x3 effective mass of a point-to-point constraint
// combined with an angular constraint.
//
// K = [ mA+r1y^2*iA+mB+r2y^2*iB,  -r1y*iA*r1x-r2y*iB*r2x,          -r1y*iA-r2y*iB]
//
//	[  -r1y*iA*r1x-r2y*iB*r2x, mA+r1x^2*iA+mB+r2x^2*iB,           r1x*iA+r2x*iB]
//	[          -r1y*iA-r2y*iB,           r1x*iA+r2x*iB,                   iA+iB]
func (s *solverBodies) pointAngleMass(rA, rB common.Vec2) common.Mat33 {
	mA, mB := s.invMassA, s.invMassB
	iA, iB := s.invIA, s.invIB

	var K common.Mat33
	K.Ex.X = mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	K.Ey.X = -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	K.Ez.X = -rA.Y*iA - rB.Y*iB
	K.Ex.Y = K.Ey.X
	K.Ey.Y = mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	K.Ez.Y = rA.X*iA + rB.X*iB
	K.Ex.Z = K.Ez.X
	K.Ey.Z = K.Ez.Y
	K.Ez.Z = iA + iB
	return K
}
