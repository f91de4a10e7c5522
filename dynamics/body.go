package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

/// The body type.
/// static: zero mass, zero velocity, may be manually moved
/// kinematic: zero mass, non-zero velocity set by user, moved by solver
/// dynamic: positive mass, non-zero velocity determined by forces, moved by solver
type BodyType uint8

const (
	StaticBody BodyType = iota
	KinematicBody
	DynamicBody
)

func (t BodyType) String() string {
	switch t {
	case StaticBody:
		return "static"
	case KinematicBody:
		return "kinematic"
	case DynamicBody:
		return "dynamic"
	}
	return "unknown"
}

/// A body definition holds all the data needed to construct a rigid body.
/// You can safely re-use body definitions. Shapes are added to a body after construction.
type BodyDef struct {
	/// The body type: static, kinematic, or dynamic.
	/// Note: if a dynamic body would have zero mass, the mass is set to one.
	Type BodyType

	/// The world position of the body. Avoid creating bodies at the origin
	/// since this can lead to many overlapping shapes.
	Position common.Vec2

	/// The world angle of the body in radians.
	Angle float32

	/// The linear velocity of the body's origin in world co-ordinates.
	LinearVelocity common.Vec2

	/// The angular velocity of the body.
	AngularVelocity float32

	/// Linear damping is use to reduce the linear velocity. The damping parameter
	/// can be larger than 1.0 but the damping effect becomes sensitive to the
	/// time step when the damping parameter is large.
	LinearDamping float32

	/// Angular damping is use to reduce the angular velocity.
	AngularDamping float32

	/// Set this flag to false if this body should never fall asleep. Note that
	/// this increases CPU usage.
	AllowSleep bool

	/// Is this body initially awake or sleeping?
	Awake bool

	/// Should this body be prevented from rotating? Useful for characters.
	FixedRotation bool

	/// Is this a fast moving body that should be prevented from tunneling through
	/// other moving bodies? Note that all bodies are prevented from tunneling through
	/// kinematic and static bodies. This setting is only considered on dynamic bodies.
	Bullet bool

	/// Does this body start out active?
	Active bool

	/// Use this to store application specific body data.
	UserData any

	/// Scale the gravity applied to this body.
	GravityScale float32
}

/// This constructor sets the body definition default values.
func MakeBodyDef() BodyDef {
	return BodyDef{
		Type:         StaticBody,
		AllowSleep:   true,
		Awake:        true,
		Active:       true,
		GravityScale: 1.0,
	}
}

type bodyFlags uint16

const (
	bodyIslandFlag bodyFlags = 1 << iota
	bodyAwakeFlag
	bodyAutoSleepFlag
	bodyBulletFlag
	bodyFixedRotationFlag
	bodyActiveFlag
	bodyTOIFlag
)

/// A rigid body. These are created via World.CreateBody.
type Body struct {
	bodyType BodyType
	flags    bodyFlags

	islandIndex int

	xf    common.Transform // the body origin transform
	sweep common.Sweep     // the swept motion for CCD

	linearVelocity  common.Vec2
	angularVelocity float32

	force  common.Vec2
	torque float32

	world      *World
	prev, next *Body

	fixtureList  *Fixture
	fixtureCount int

	jointList   *JointEdge
	contactList *ContactEdge

	mass, invMass float32

	// Rotational inertia about the center of mass.
	I, invI float32

	linearDamping  float32
	angularDamping float32
	gravityScale   float32

	sleepTime float32

	userData any
}

func newBody(bd *BodyDef, world *World) *Body {
	common.Assert(bd.Position.IsValid(), "body position is not finite")
	common.Assert(bd.LinearVelocity.IsValid(), "body velocity is not finite")
	common.Assert(common.IsValid(bd.Angle) && common.IsValid(bd.AngularVelocity), "body angle is not finite")
	common.Assert(common.IsValid(bd.AngularDamping) && bd.AngularDamping >= 0.0, "angular damping must be >= 0")
	common.Assert(common.IsValid(bd.LinearDamping) && bd.LinearDamping >= 0.0, "linear damping must be >= 0")

	body := &Body{world: world}

	if bd.Bullet {
		body.flags |= bodyBulletFlag
	}
	if bd.FixedRotation {
		body.flags |= bodyFixedRotationFlag
	}
	if bd.AllowSleep {
		body.flags |= bodyAutoSleepFlag
	}
	if bd.Awake {
		body.flags |= bodyAwakeFlag
	}
	if bd.Active {
		body.flags |= bodyActiveFlag
	}

	body.xf.Set(bd.Position, bd.Angle)

	body.sweep.C0 = body.xf.P
	body.sweep.C = body.xf.P
	body.sweep.A0 = bd.Angle
	body.sweep.A = bd.Angle

	body.linearVelocity = bd.LinearVelocity
	body.angularVelocity = bd.AngularVelocity

	body.linearDamping = bd.LinearDamping
	body.angularDamping = bd.AngularDamping
	body.gravityScale = bd.GravityScale

	body.bodyType = bd.Type

	if body.bodyType == DynamicBody {
		body.mass = 1.0
		body.invMass = 1.0
	}

	body.userData = bd.UserData

	return body
}

func (body *Body) GetType() BodyType {
	return body.bodyType
}

/// Get the body transform for the body's origin.
func (body *Body) GetTransform() common.Transform {
	return body.xf
}

/// Get the world body origin position.
func (body *Body) GetPosition() common.Vec2 {
	return body.xf.P
}

/// Get the angle in radians.
func (body *Body) GetAngle() float32 {
	return body.sweep.A
}

/// Get the world position of the center of mass.
func (body *Body) GetWorldCenter() common.Vec2 {
	return body.sweep.C
}

/// Get the local position of the center of mass.
func (body *Body) GetLocalCenter() common.Vec2 {
	return body.sweep.LocalCenter
}

/// Set the linear velocity of the center of mass.
func (body *Body) SetLinearVelocity(v common.Vec2) {
	if body.bodyType == StaticBody {
		return
	}

	if common.Dot(v, v) > 0.0 {
		body.SetAwake(true)
	}

	body.linearVelocity = v
}

func (body *Body) GetLinearVelocity() common.Vec2 {
	return body.linearVelocity
}

/// Set the angular velocity in radians/second.
func (body *Body) SetAngularVelocity(w float32) {
	if body.bodyType == StaticBody {
		return
	}

	if w*w > 0.0 {
		body.SetAwake(true)
	}

	body.angularVelocity = w
}

func (body *Body) GetAngularVelocity() float32 {
	return body.angularVelocity
}

/// Get the total mass of the body, usually in kilograms.
func (body *Body) GetMass() float32 {
	return body.mass
}

/// Get the rotational inertia of the body about the local origin.
func (body *Body) GetInertia() float32 {
	return body.I + body.mass*common.Dot(body.sweep.LocalCenter, body.sweep.LocalCenter)
}

/// Get the mass data of the body.
func (body *Body) GetMassData() collision.MassData {
	return collision.MassData{
		Mass:   body.mass,
		I:      body.GetInertia(),
		Center: body.sweep.LocalCenter,
	}
}

/// Get the world coordinates of a point given the local coordinates.
func (body *Body) GetWorldPoint(localPoint common.Vec2) common.Vec2 {
	return common.MulXV(body.xf, localPoint)
}

/// Get the world coordinates of a vector given the local coordinates.
func (body *Body) GetWorldVector(localVector common.Vec2) common.Vec2 {
	return common.MulRV(body.xf.Q, localVector)
}

/// Gets a local point relative to the body's origin given a world point.
func (body *Body) GetLocalPoint(worldPoint common.Vec2) common.Vec2 {
	return common.MulTXV(body.xf, worldPoint)
}

/// Gets a local vector given a world vector.
func (body *Body) GetLocalVector(worldVector common.Vec2) common.Vec2 {
	return common.MulTRV(body.xf.Q, worldVector)
}

/// Get the world linear velocity of a world point attached to this body.
func (body *Body) GetLinearVelocityFromWorldPoint(worldPoint common.Vec2) common.Vec2 {
	return body.linearVelocity.Add(common.CrossSV(body.angularVelocity, worldPoint.Sub(body.sweep.C)))
}

/// Get the world velocity of a local point.
func (body *Body) GetLinearVelocityFromLocalPoint(localPoint common.Vec2) common.Vec2 {
	return body.GetLinearVelocityFromWorldPoint(body.GetWorldPoint(localPoint))
}

func (body *Body) GetLinearDamping() float32 {
	return body.linearDamping
}

func (body *Body) SetLinearDamping(linearDamping float32) {
	body.linearDamping = linearDamping
}

func (body *Body) GetAngularDamping() float32 {
	return body.angularDamping
}

func (body *Body) SetAngularDamping(angularDamping float32) {
	body.angularDamping = angularDamping
}

func (body *Body) GetGravityScale() float32 {
	return body.gravityScale
}

func (body *Body) SetGravityScale(scale float32) {
	body.gravityScale = scale
}

/// Should this body be treated like a bullet for continuous collision detection?
func (body *Body) SetBullet(flag bool) {
	if flag {
		body.flags |= bodyBulletFlag
	} else {
		body.flags &^= bodyBulletFlag
	}
}

func (body *Body) IsBullet() bool {
	return body.flags&bodyBulletFlag != 0
}

/// Set the sleep state of the body. A sleeping body has very
/// low CPU cost. Putting a body to sleep clears its velocity and forces.
func (body *Body) SetAwake(flag bool) {
	body.sleepTime = 0.0
	if flag {
		body.flags |= bodyAwakeFlag
		return
	}

	body.flags &^= bodyAwakeFlag
	body.linearVelocity.SetZero()
	body.angularVelocity = 0.0
	body.force.SetZero()
	body.torque = 0.0
}

func (body *Body) IsAwake() bool {
	return body.flags&bodyAwakeFlag != 0
}

func (body *Body) IsActive() bool {
	return body.flags&bodyActiveFlag != 0
}

func (body *Body) IsFixedRotation() bool {
	return body.flags&bodyFixedRotationFlag != 0
}

/// You can disable sleeping on this body. If you disable sleeping, the
/// body will be woken.
func (body *Body) SetSleepingAllowed(flag bool) {
	if flag {
		body.flags |= bodyAutoSleepFlag
	} else {
		body.flags &^= bodyAutoSleepFlag
		body.SetAwake(true)
	}
}

func (body *Body) IsSleepingAllowed() bool {
	return body.flags&bodyAutoSleepFlag != 0
}

// GetSleepTime reports how long the body has been below the sleep tolerances.
func (body *Body) GetSleepTime() float32 {
	return body.sleepTime
}

func (body *Body) GetFixtureList() *Fixture {
	return body.fixtureList
}

func (body *Body) GetFixtureCount() int {
	return body.fixtureCount
}

func (body *Body) GetJointList() *JointEdge {
	return body.jointList
}

func (body *Body) GetContactList() *ContactEdge {
	return body.contactList
}

func (body *Body) GetNext() *Body {
	return body.next
}

func (body *Body) GetUserData() any {
	return body.userData
}

func (body *Body) SetUserData(data any) {
	body.userData = data
}

func (body *Body) GetWorld() *World {
	return body.world
}

// applies reports whether a force or impulse should reach the body, waking it
// when asked to.
func (body *Body) applies(wake bool) bool {
	if body.bodyType != DynamicBody {
		return false
	}

	if wake && body.flags&bodyAwakeFlag == 0 {
		body.SetAwake(true)
	}

	// Don't accumulate a force if the body is sleeping.
	return body.flags&bodyAwakeFlag != 0
}

/// Apply a force at a world point. If the force is not
/// applied at the center of mass, it will generate a torque and
/// affect the angular velocity.
func (body *Body) ApplyForce(force common.Vec2, point common.Vec2, wake bool) {
	if !body.applies(wake) {
		return
	}
	body.force.AddInPlace(force)
	body.torque += common.Cross(point.Sub(body.sweep.C), force)
}

/// Apply a force to the center of mass.
func (body *Body) ApplyForceToCenter(force common.Vec2, wake bool) {
	if !body.applies(wake) {
		return
	}
	body.force.AddInPlace(force)
}

/// Apply a torque. This affects the angular velocity
/// without affecting the linear velocity of the center of mass.
func (body *Body) ApplyTorque(torque float32, wake bool) {
	if !body.applies(wake) {
		return
	}
	body.torque += torque
}

/// Apply an impulse at a point. This immediately modifies the velocity.
/// It also modifies the angular velocity if the point of application
/// is not at the center of mass.
func (body *Body) ApplyLinearImpulse(impulse common.Vec2, point common.Vec2, wake bool) {
	if !body.applies(wake) {
		return
	}
	body.linearVelocity.AddInPlace(impulse.Mul(body.invMass))
	body.angularVelocity += body.invI * common.Cross(point.Sub(body.sweep.C), impulse)
}

/// Apply an impulse to the center of mass. This immediately modifies the velocity.
func (body *Body) ApplyLinearImpulseToCenter(impulse common.Vec2, wake bool) {
	if !body.applies(wake) {
		return
	}
	body.linearVelocity.AddInPlace(impulse.Mul(body.invMass))
}

/// Apply an angular impulse.
func (body *Body) ApplyAngularImpulse(impulse float32, wake bool) {
	if !body.applies(wake) {
		return
	}
	body.angularVelocity += body.invI * impulse
}

func (body *Body) synchronizeTransform() {
	body.xf.Q.Set(body.sweep.A)
	body.xf.P = body.sweep.C.Sub(common.MulRV(body.xf.Q, body.sweep.LocalCenter))
}

// advance moves the body to a new safe time. This doesn't sync the broad-phase.
func (body *Body) advance(alpha float32) {
	body.sweep.Advance(alpha)
	body.sweep.C = body.sweep.C0
	body.sweep.A = body.sweep.A0
	body.synchronizeTransform()
}

/// Set the type of this body. This may alter the mass and velocity.
func (body *Body) SetType(bodyType BodyType) {
	common.Assert(!body.world.IsLocked(), "SetType on a locked world")

	if body.bodyType == bodyType {
		return
	}

	body.bodyType = bodyType

	body.ResetMassData()

	if body.bodyType == StaticBody {
		body.linearVelocity.SetZero()
		body.angularVelocity = 0.0
		body.sweep.A0 = body.sweep.A
		body.sweep.C0 = body.sweep.C
		body.synchronizeFixtures()
	}

	body.SetAwake(true)

	body.force.SetZero()
	body.torque = 0.0

	// Delete the attached contacts.
	body.destroyContacts()

	// Touch the proxies so that new contacts will be created (when appropriate)
	broadPhase := body.world.contactManager.broadPhase
	for f := body.fixtureList; f != nil; f = f.next {
		for i := range f.proxies {
			broadPhase.TouchProxy(f.proxies[i].proxyID)
		}
	}
}

func (body *Body) destroyContacts() {
	ce := body.contactList
	for ce != nil {
		ce0 := ce
		ce = ce.Next
		body.world.contactManager.destroy(ce0.Contact)
	}
	body.contactList = nil
}

/// Creates a fixture and attach it to this body. Use this function if you need
/// to set some fixture parameters, like friction. Otherwise you can create the
/// fixture directly from a shape.
/// If the density is non-zero, this function automatically updates the mass of the body.
/// Contacts are not created until the next time step.
func (body *Body) CreateFixture(def *FixtureDef) (*Fixture, error) {
	if body.world.IsLocked() {
		return nil, ErrWorldLocked
	}
	if def.Shape == nil {
		return nil, ErrNilShape
	}

	fixture := newFixture(body, def)

	if body.flags&bodyActiveFlag != 0 {
		fixture.createProxies(body.world.contactManager.broadPhase, body.xf)
	}

	fixture.next = body.fixtureList
	body.fixtureList = fixture
	body.fixtureCount++

	// Adjust mass properties if needed.
	if fixture.density > 0.0 {
		body.ResetMassData()
	}

	// Let the world know we have a new fixture. This will cause new contacts
	// to be created at the beginning of the next time step.
	body.world.flags |= worldNewFixture

	return fixture, nil
}

/// Creates a fixture from a shape and attach it to this body.
/// This is a convenience function. Use FixtureDef if you need to set parameters
/// like friction, restitution, user data, or filtering.
func (body *Body) CreateFixtureFromShape(shape collision.Shape, density float32) (*Fixture, error) {
	def := MakeFixtureDef()
	def.Shape = shape
	def.Density = density
	return body.CreateFixture(&def)
}

/// Destroy a fixture. This removes the fixture from the broad-phase and
/// destroys all contacts associated with this fixture. This will
/// automatically adjust the mass of the body if the body is dynamic and the
/// fixture has positive density.
/// All fixtures attached to a body are implicitly destroyed when the body is destroyed.
func (body *Body) DestroyFixture(fixture *Fixture) error {
	if fixture == nil {
		return nil
	}
	if body.world.IsLocked() {
		return ErrWorldLocked
	}

	common.Assert(fixture.body == body, "fixture belongs to another body")

	// Remove the fixture from this body's singly linked list.
	common.Assert(body.fixtureCount > 0, "body has no fixtures")
	node := &body.fixtureList
	found := false
	for *node != nil {
		if *node == fixture {
			*node = fixture.next
			found = true
			break
		}
		node = &(*node).next
	}

	// You tried to remove a shape that is not attached to this body.
	common.Assert(found, "fixture not found on its body")

	// Destroy any contacts associated with the fixture.
	edge := body.contactList
	for edge != nil {
		c := edge.Contact
		edge = edge.Next

		if fixture == c.fixtureA || fixture == c.fixtureB {
			// This destroys the contact and removes it from
			// this body's contact list.
			body.world.contactManager.destroy(c)
		}
	}

	if body.flags&bodyActiveFlag != 0 {
		fixture.destroyProxies(body.world.contactManager.broadPhase)
	}

	fixture.body = nil
	fixture.next = nil

	body.fixtureCount--

	// Reset the mass data.
	body.ResetMassData()
	return nil
}

/// This resets the mass properties to the sum of the mass properties of the fixtures.
/// This normally does not need to be called unless you called SetMassData to override
/// the mass and you later want to reset the mass.
func (body *Body) ResetMassData() {
	// Compute mass data from shapes. Each shape has its own density.
	body.mass = 0.0
	body.invMass = 0.0
	body.I = 0.0
	body.invI = 0.0
	body.sweep.LocalCenter.SetZero()

	// Static and kinematic bodies have zero mass.
	if body.bodyType == StaticBody || body.bodyType == KinematicBody {
		body.sweep.C0 = body.xf.P
		body.sweep.C = body.xf.P
		body.sweep.A0 = body.sweep.A
		return
	}

	// Accumulate mass over all fixtures.
	var localCenter common.Vec2
	for f := body.fixtureList; f != nil; f = f.next {
		if f.density == 0.0 {
			continue
		}

		massData := f.GetMassData()
		body.mass += massData.Mass
		localCenter.AddInPlace(massData.Center.Mul(massData.Mass))
		body.I += massData.I
	}

	// Compute center of mass.
	if body.mass > 0.0 {
		body.invMass = 1.0 / body.mass
		localCenter.MulInPlace(body.invMass)
	} else {
		// Force all dynamic bodies to have a positive mass.
		body.mass = 1.0
		body.invMass = 1.0
	}

	if body.I > 0.0 && body.flags&bodyFixedRotationFlag == 0 {
		// Center the inertia about the center of mass.
		body.I -= body.mass * common.Dot(localCenter, localCenter)
		common.Assert(body.I > 0.0, "non-positive rotational inertia %v", body.I)
		body.invI = 1.0 / body.I
	} else {
		body.I = 0.0
		body.invI = 0.0
	}

	body.moveCenter(localCenter)
}

// moveCenter relocates the center of mass and keeps the velocity of the
// body origin unchanged.
func (body *Body) moveCenter(localCenter common.Vec2) {
	oldCenter := body.sweep.C
	body.sweep.LocalCenter = localCenter
	body.sweep.C = common.MulXV(body.xf, body.sweep.LocalCenter)
	body.sweep.C0 = body.sweep.C

	// Update center of mass velocity.
	body.linearVelocity.AddInPlace(common.CrossSV(body.angularVelocity, body.sweep.C.Sub(oldCenter)))
}

/// Set the mass properties to override the mass properties of the fixtures.
/// Note that this changes the center of mass position.
/// Note that creating or destroying fixtures can also alter the mass.
/// This function has no effect if the body isn't dynamic.
func (body *Body) SetMassData(massData collision.MassData) {
	common.Assert(!body.world.IsLocked(), "SetMassData on a locked world")

	if body.bodyType != DynamicBody {
		return
	}

	body.invMass = 0.0
	body.I = 0.0
	body.invI = 0.0

	body.mass = massData.Mass
	if body.mass <= 0.0 {
		body.mass = 1.0
	}

	body.invMass = 1.0 / body.mass

	if massData.I > 0.0 && body.flags&bodyFixedRotationFlag == 0 {
		body.I = massData.I - body.mass*common.Dot(massData.Center, massData.Center)
		common.Assert(body.I > 0.0, "non-positive rotational inertia %v", body.I)
		body.invI = 1.0 / body.I
	}

	body.moveCenter(massData.Center)
}

// shouldCollide reports whether contacts between the two bodies are allowed.
func (body *Body) shouldCollide(other *Body) bool {
	// At least one body should be dynamic.
	if body.bodyType != DynamicBody && other.bodyType != DynamicBody {
		return false
	}

	// Does a joint prevent collision?
	for jn := body.jointList; jn != nil; jn = jn.Next {
		if jn.Other == other && !jn.Joint.IsCollideConnected() {
			return false
		}
	}

	return true
}

/// Set the position of the body's origin and rotation.
/// Manipulating a body's transform may cause non-physical behavior.
/// Note: contacts are updated on the next call to World.Step.
func (body *Body) SetTransform(position common.Vec2, angle float32) {
	common.Assert(!body.world.IsLocked(), "SetTransform on a locked world")

	body.xf.Set(position, angle)

	body.sweep.C = common.MulXV(body.xf, body.sweep.LocalCenter)
	body.sweep.A = angle

	body.sweep.C0 = body.sweep.C
	body.sweep.A0 = angle

	broadPhase := body.world.contactManager.broadPhase
	for f := body.fixtureList; f != nil; f = f.next {
		f.synchronize(broadPhase, body.xf, body.xf)
	}
}

func (body *Body) synchronizeFixtures() {
	var xf1 common.Transform
	xf1.Q.Set(body.sweep.A0)
	xf1.P = body.sweep.C0.Sub(common.MulRV(xf1.Q, body.sweep.LocalCenter))

	broadPhase := body.world.contactManager.broadPhase
	for f := body.fixtureList; f != nil; f = f.next {
		f.synchronize(broadPhase, xf1, body.xf)
	}
}

/// Set the active state of the body. An inactive body is not
/// simulated and cannot be collided with or woken up.
/// If you pass a flag of true, all fixtures will be added to the
/// broad-phase.
/// If you pass a flag of false, all fixtures will be removed from
/// the broad-phase and all contacts will be destroyed.
/// Fixtures and joints are otherwise unaffected. You may continue
/// to create/destroy fixtures and joints on inactive bodies.
func (body *Body) SetActive(flag bool) {
	common.Assert(!body.world.IsLocked(), "SetActive on a locked world")

	if flag == body.IsActive() {
		return
	}

	broadPhase := body.world.contactManager.broadPhase
	if flag {
		body.flags |= bodyActiveFlag

		// Create all proxies.
		for f := body.fixtureList; f != nil; f = f.next {
			f.createProxies(broadPhase, body.xf)
		}

		// Contacts are created the next time step.
		return
	}

	body.flags &^= bodyActiveFlag

	// Destroy all proxies.
	for f := body.fixtureList; f != nil; f = f.next {
		f.destroyProxies(broadPhase)
	}

	// Destroy the attached contacts.
	body.destroyContacts()
}

/// Set this body to have fixed rotation. This causes the mass
/// to be reset.
func (body *Body) SetFixedRotation(flag bool) {
	if body.IsFixedRotation() == flag {
		return
	}

	if flag {
		body.flags |= bodyFixedRotationFlag
	} else {
		body.flags &^= bodyFixedRotationFlag
	}

	body.angularVelocity = 0.0

	body.ResetMassData()
}

func (body *Body) dump(logger *slog.Logger, index int) {
	logger.Info("body",
		slog.Int("index", index),
		slog.String("type", body.bodyType.String()),
		slog.Any("position", body.xf.P),
		slog.Float64("angle", float64(body.sweep.A)),
		slog.Any("linearVelocity", body.linearVelocity),
		slog.Float64("angularVelocity", float64(body.angularVelocity)),
		slog.Float64("linearDamping", float64(body.linearDamping)),
		slog.Float64("angularDamping", float64(body.angularDamping)),
		slog.Bool("allowSleep", body.IsSleepingAllowed()),
		slog.Bool("awake", body.IsAwake()),
		slog.Bool("fixedRotation", body.IsFixedRotation()),
		slog.Bool("bullet", body.IsBullet()),
		slog.Bool("active", body.IsActive()),
		slog.Float64("gravityScale", float64(body.gravityScale)),
	)
	for f := body.fixtureList; f != nil; f = f.next {
		f.dump(logger, index)
	}
}
