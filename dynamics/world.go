package dynamics

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

var (
	// ErrWorldLocked is returned by create and destroy calls made from
	// inside a time step, for example from a contact callback.
	ErrWorldLocked = errors.New("world is locked")

	ErrNilShape = errors.New("fixture definition has no shape")

	ErrInvalidJointDef = errors.New("invalid joint definition")
)

type worldFlags uint8

const (
	worldNewFixture worldFlags = 1 << iota
	worldLocked
	worldClearForces
)

/// The world class manages all physics entities, dynamic simulation,
/// and asynchronous queries.
type World struct {
	flags worldFlags

	contactManager *contactManager

	bodyList  *Body
	jointList Joint

	bodyCount  int
	jointCount int

	gravity    common.Vec2
	allowSleep bool

	destructionListener DestructionListener
	debugDraw           Draw

	// This is used to compute the time step ratio to
	// support a variable time step.
	invDt0 float32

	// These are for debugging the solver.
	warmStarting      bool
	continuousPhysics bool
	subStepping       bool

	stepComplete bool

	profile  Profile
	toiStats collision.TOIStats

	tuning common.Tuning
	logger *slog.Logger

	island    *island
	toiIsland *island
}

// Option configures a World at construction.
type Option func(*World)

// WithTuning replaces the default solver and sleep constants.
func WithTuning(tuning common.Tuning) Option {
	return func(w *World) {
		common.Assert(tuning.Validate() == nil, "invalid tuning: %v", tuning.Validate())
		w.tuning = tuning
	}
}

// WithLogger sets the logger used for debug records and Dump.
func WithLogger(logger *slog.Logger) Option {
	return func(w *World) {
		w.logger = logger
	}
}

func WithContinuousPhysics(flag bool) Option {
	return func(w *World) {
		w.continuousPhysics = flag
	}
}

func WithSubStepping(flag bool) Option {
	return func(w *World) {
		w.subStepping = flag
	}
}

func WithWarmStarting(flag bool) Option {
	return func(w *World) {
		w.warmStarting = flag
	}
}

func WithAllowSleep(flag bool) Option {
	return func(w *World) {
		w.allowSleep = flag
	}
}

/// Construct a world object.
/// @param gravity the world gravity vector.
func NewWorld(gravity common.Vec2, opts ...Option) *World {
	world := &World{
		gravity:           gravity,
		allowSleep:        true,
		warmStarting:      true,
		continuousPhysics: true,
		stepComplete:      true,
		flags:             worldClearForces,
		contactManager:    newContactManager(),
		tuning:            common.DefaultTuning(),
		logger:            slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(world)
	}

	world.island = newIsland(0, 0, 0, nil, &world.tuning, world.logger)
	world.toiIsland = newIsland(2*world.tuning.MaxTOIContacts, world.tuning.MaxTOIContacts, 0, nil, &world.tuning, world.logger)

	return world
}

/// Register a destruction listener. The listener is owned by you and must
/// remain in scope.
func (world *World) SetDestructionListener(listener DestructionListener) {
	world.destructionListener = listener
}

/// Register a contact filter to provide specific control over collision.
/// Otherwise the default filter is used.
func (world *World) SetContactFilter(filter ContactFilter) {
	world.contactManager.contactFilter = filter
}

/// Register a contact event listener.
func (world *World) SetContactListener(listener ContactListener) {
	world.contactManager.contactListener = listener
}

/// Register a routine for debug drawing. The debug draw functions are called
/// inside with World.DrawDebugData method.
func (world *World) SetDebugDraw(debugDraw Draw) {
	world.debugDraw = debugDraw
}

/// Create a rigid body given a definition. No reference to the definition
/// is retained.
func (world *World) CreateBody(def *BodyDef) (*Body, error) {
	if world.IsLocked() {
		return nil, ErrWorldLocked
	}

	b := newBody(def, world)

	// Add to world doubly linked list.
	b.prev = nil
	b.next = world.bodyList
	if world.bodyList != nil {
		world.bodyList.prev = b
	}
	world.bodyList = b
	world.bodyCount++

	return b, nil
}

/// Destroy a rigid body given a definition. No reference to the definition
/// is retained. This function is locked during callbacks.
/// @warning This automatically deletes all associated shapes and joints.
func (world *World) DestroyBody(b *Body) error {
	if world.IsLocked() {
		return ErrWorldLocked
	}
	common.Assert(b.world == world, "body belongs to another world")
	common.Assert(world.bodyCount > 0, "world has no bodies")

	// Delete the attached joints.
	je := b.jointList
	for je != nil {
		je0 := je
		je = je.Next

		if world.destructionListener != nil {
			world.destructionListener.SayGoodbyeToJoint(je0.Joint)
		}

		if err := world.DestroyJoint(je0.Joint); err != nil {
			return err
		}

		b.jointList = je
	}
	b.jointList = nil

	// Delete the attached contacts.
	b.destroyContacts()

	// Delete the attached fixtures. This destroys broad-phase proxies.
	f := b.fixtureList
	for f != nil {
		f0 := f
		f = f.next

		if world.destructionListener != nil {
			world.destructionListener.SayGoodbyeToFixture(f0)
		}

		f0.destroyProxies(world.contactManager.broadPhase)
		f0.body = nil
		f0.next = nil

		b.fixtureList = f
		b.fixtureCount--
	}

	b.fixtureList = nil
	b.fixtureCount = 0

	// Remove world body list.
	if b.prev != nil {
		b.prev.next = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	if b == world.bodyList {
		world.bodyList = b.next
	}

	b.prev = nil
	b.next = nil
	world.bodyCount--

	return nil
}

/// Create a joint to constrain bodies together. No reference to the definition
/// is retained. This may cause the connected bodies to cease colliding.
func (world *World) CreateJoint(def JointDef) (Joint, error) {
	if world.IsLocked() {
		return nil, ErrWorldLocked
	}

	j, err := createJoint(def)
	if err != nil {
		return nil, err
	}

	jb := j.base()

	// Connect to the world list.
	jb.prev = nil
	jb.next = world.jointList
	if world.jointList != nil {
		world.jointList.base().prev = j
	}
	world.jointList = j
	world.jointCount++

	// Connect to the bodies' doubly linked lists.
	jb.edgeA.Joint = j
	jb.edgeA.Other = jb.bodyB
	linkJointEdge(&jb.bodyA.jointList, &jb.edgeA)

	jb.edgeB.Joint = j
	jb.edgeB.Other = jb.bodyA
	linkJointEdge(&jb.bodyB.jointList, &jb.edgeB)

	// If the joint prevents collisions, then flag any contacts for filtering.
	if !jb.collideConnected {
		flagContactsBetween(jb.bodyA, jb.bodyB)
	}

	// Note: creating a joint doesn't wake the bodies.

	return j, nil
}

/// Destroy a joint. This may cause the connected bodies to begin colliding.
func (world *World) DestroyJoint(j Joint) error {
	if world.IsLocked() {
		return ErrWorldLocked
	}

	jb := j.base()

	// Remove from the doubly linked list.
	if jb.prev != nil {
		jb.prev.base().next = jb.next
	}
	if jb.next != nil {
		jb.next.base().prev = jb.prev
	}
	if j == world.jointList {
		world.jointList = jb.next
	}
	jb.prev = nil
	jb.next = nil

	// Disconnect from island graph.
	bodyA := jb.bodyA
	bodyB := jb.bodyB

	// Wake up connected bodies.
	bodyA.SetAwake(true)
	bodyB.SetAwake(true)

	unlinkJointEdge(&bodyA.jointList, &jb.edgeA)
	unlinkJointEdge(&bodyB.jointList, &jb.edgeB)

	common.Assert(world.jointCount > 0, "world has no joints")
	world.jointCount--

	// If the joint prevents collisions, then flag any contacts for filtering.
	if !jb.collideConnected {
		flagContactsBetween(bodyA, bodyB)
	}

	return nil
}

// flagContactsBetween flags contacts between the bodies for filtering at the
// next time step (where either body is awake).
func flagContactsBetween(bodyA, bodyB *Body) {
	for edge := bodyB.contactList; edge != nil; edge = edge.Next {
		if edge.Other == bodyA {
			edge.Contact.FlagForFiltering()
		}
	}
}

/// Take a time step. This performs collision detection, integration,
/// and constraint solution.
/// @param dt the amount of time to simulate, this should not vary. A zero
/// dt leaves the world untouched.
/// @param velocityIterations for the velocity constraint solver.
/// @param positionIterations for the position constraint solver.
func (world *World) Step(dt float32, velocityIterations, positionIterations int) {
	common.Assert(dt >= 0.0, "negative time step %v", dt)
	common.Assert(!world.IsLocked(), "Step on a locked world")
	if dt == 0.0 {
		return
	}

	stepStart := time.Now()

	// If new fixtures were added, we need to find the new contacts.
	if world.flags&worldNewFixture != 0 {
		world.contactManager.findNewContacts()
		world.flags &^= worldNewFixture
	}

	world.flags |= worldLocked
	defer func() { world.flags &^= worldLocked }()

	step := TimeStep{
		Dt:                 dt,
		VelocityIterations: velocityIterations,
		PositionIterations: positionIterations,
		WarmStarting:       world.warmStarting,
	}
	step.InvDt = 1.0 / dt
	step.DtRatio = world.invDt0 * dt

	// Update contacts. This is where some contacts are destroyed.
	start := time.Now()
	world.contactManager.collide()
	world.profile.Collide = time.Since(start)

	// Integrate velocities, solve velocity constraints, and integrate positions.
	if world.stepComplete {
		start = time.Now()
		world.solve(step)
		world.profile.Solve = time.Since(start)
	}

	// Handle TOI events.
	if world.continuousPhysics {
		start = time.Now()
		world.solveTOI(step)
		world.profile.SolveTOI = time.Since(start)
	}

	world.invDt0 = step.InvDt

	if world.flags&worldClearForces != 0 {
		world.ClearForces()
	}

	world.profile.Step = time.Since(stepStart)
}

/// Manually clear the force buffer on all bodies. By default, forces are cleared automatically
/// after each call to Step. The default behavior is modified by calling SetAutoClearForces.
/// The purpose of this function is to support sub-stepping. Sub-stepping is often used to maintain
/// a fixed sized time step under a variable frame-rate.
/// When you perform sub-stepping you will disable auto clearing of forces and instead call
/// ClearForces after all sub-steps are complete in one pass of your game loop.
func (world *World) ClearForces() {
	for body := world.bodyList; body != nil; body = body.next {
		body.force.SetZero()
		body.torque = 0.0
	}
}

// Find islands, integrate and solve constraints, solve position constraints
func (world *World) solve(step TimeStep) {
	world.profile.SolveInit = 0
	world.profile.SolveVelocity = 0
	world.profile.SolvePosition = 0
	world.profile.BlockSolverFallbacks = 0

	island := world.island
	island.listener = world.contactManager.contactListener

	// Clear all the island flags.
	for b := world.bodyList; b != nil; b = b.next {
		b.flags &^= bodyIslandFlag
	}
	for c := world.contactManager.contactList; c != nil; c = c.next {
		c.flags &^= contactIslandFlag
	}
	for j := world.jointList; j != nil; j = j.GetNext() {
		j.base().islandFlag = false
	}

	// Build and simulate all awake islands.
	stack := make([]*Body, 0, world.bodyCount)
	for seed := world.bodyList; seed != nil; seed = seed.next {
		if seed.flags&bodyIslandFlag != 0 {
			continue
		}

		if !seed.IsAwake() || !seed.IsActive() {
			continue
		}

		// The seed can be dynamic or kinematic.
		if seed.bodyType == StaticBody {
			continue
		}

		// Reset island and stack.
		island.clear()
		stack = append(stack[:0], seed)
		seed.flags |= bodyIslandFlag

		// Perform a depth first search (DFS) on the constraint graph.
		for len(stack) > 0 {
			// Grab the next body off the stack and add it to the island.
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			common.Assert(b.IsActive(), "inactive body reached by island search")
			island.addBody(b)

			// Make sure the body is awake (without resetting sleep timer).
			b.flags |= bodyAwakeFlag

			// To keep islands as small as possible, we don't
			// propagate islands across static bodies.
			if b.bodyType == StaticBody {
				continue
			}

			// Search all contacts connected to this body.
			for ce := b.contactList; ce != nil; ce = ce.Next {
				contact := ce.Contact

				// Has this contact already been added to an island?
				if contact.flags&contactIslandFlag != 0 {
					continue
				}

				// Is this contact solid and touching?
				if !contact.IsEnabled() || !contact.IsTouching() {
					continue
				}

				// Skip sensors.
				if contact.fixtureA.isSensor || contact.fixtureB.isSensor {
					continue
				}

				island.addContact(contact)
				contact.flags |= contactIslandFlag

				other := ce.Other

				// Was the other body already added to this island?
				if other.flags&bodyIslandFlag != 0 {
					continue
				}

				stack = append(stack, other)
				other.flags |= bodyIslandFlag
			}

			// Search all joints connect to this body.
			for je := b.jointList; je != nil; je = je.Next {
				jb := je.Joint.base()
				if jb.islandFlag {
					continue
				}

				other := je.Other

				// Don't simulate joints connected to inactive bodies.
				if !other.IsActive() {
					continue
				}

				island.addJoint(je.Joint)
				jb.islandFlag = true

				if other.flags&bodyIslandFlag != 0 {
					continue
				}

				stack = append(stack, other)
				other.flags |= bodyIslandFlag
			}
		}

		island.solve(&world.profile, step, world.gravity, world.allowSleep)

		// Post solve cleanup.
		for _, b := range island.bodies {
			// Allow static bodies to participate in other islands.
			if b.bodyType == StaticBody {
				b.flags &^= bodyIslandFlag
			}
		}
	}
	island.clear()

	start := time.Now()

	// Synchronize fixtures, check for out of range bodies.
	for b := world.bodyList; b != nil; b = b.next {
		// If a body was not in an island then it did not move.
		if b.flags&bodyIslandFlag == 0 {
			continue
		}

		if b.bodyType == StaticBody {
			continue
		}

		// Update fixtures (for broad-phase).
		b.synchronizeFixtures()
	}

	// Look for new contacts.
	world.contactManager.findNewContacts()
	world.profile.Broadphase = time.Since(start)
}

// Find TOI contacts and solve them.
func (world *World) solveTOI(step TimeStep) {
	island := world.toiIsland
	island.listener = world.contactManager.contactListener
	listener := world.contactManager.contactListener

	if world.stepComplete {
		for b := world.bodyList; b != nil; b = b.next {
			b.flags &^= bodyIslandFlag
			b.sweep.Alpha0 = 0.0
		}

		for c := world.contactManager.contactList; c != nil; c = c.next {
			// Invalidate TOI
			c.flags &^= contactTOIFlag | contactIslandFlag
			c.toiCount = 0
			c.toi = 1.0
		}
	}

	// Find TOI events and solve them.
	for {
		// Find the first TOI.
		var minContact *Contact
		minAlpha := float32(1.0)

		for c := world.contactManager.contactList; c != nil; c = c.next {
			// Is this contact disabled?
			if !c.IsEnabled() {
				continue
			}

			// Prevent excessive sub-stepping.
			if c.toiCount > world.tuning.MaxSubSteps {
				continue
			}

			alpha := float32(1.0)
			if c.flags&contactTOIFlag != 0 {
				// This contact has a valid cached TOI.
				alpha = c.toi
			} else {
				fA := c.fixtureA
				fB := c.fixtureB

				// Is there a sensor?
				if fA.isSensor || fB.isSensor {
					continue
				}

				bA := fA.body
				bB := fB.body

				typeA := bA.bodyType
				typeB := bB.bodyType
				common.Assert(typeA == DynamicBody || typeB == DynamicBody, "contact without a dynamic body")

				activeA := bA.IsAwake() && typeA != StaticBody
				activeB := bB.IsAwake() && typeB != StaticBody

				// Is at least one body active (awake and dynamic or kinematic)?
				if !activeA && !activeB {
					continue
				}

				collideA := bA.IsBullet() || typeA != DynamicBody
				collideB := bB.IsBullet() || typeB != DynamicBody

				// Are these two non-bullet dynamic bodies?
				if !collideA && !collideB {
					continue
				}

				// Compute the TOI for this contact.
				// Put the sweeps onto the same time interval.
				alpha0 := bA.sweep.Alpha0

				if bA.sweep.Alpha0 < bB.sweep.Alpha0 {
					alpha0 = bB.sweep.Alpha0
					bA.sweep.Advance(alpha0)
				} else if bB.sweep.Alpha0 < bA.sweep.Alpha0 {
					alpha0 = bA.sweep.Alpha0
					bB.sweep.Advance(alpha0)
				}

				common.Assert(alpha0 < 1.0, "sweep already at the end of the step")

				// Compute the time of impact in interval [0, minTOI]
				var input collision.TOIInput
				input.ProxyA.Set(fA.shape, c.indexA)
				input.ProxyB.Set(fB.shape, c.indexB)
				input.SweepA = bA.sweep
				input.SweepB = bB.sweep
				input.TMax = 1.0

				output := collision.TimeOfImpact(&input, &world.toiStats)
				if output.State == collision.TOIFailed {
					world.logger.Debug("time of impact root finder failed",
						slog.Float64("t", float64(output.T)))
				}

				// Beta is the fraction of the remaining portion of the step.
				beta := output.T
				if output.State == collision.TOITouching {
					alpha = min(alpha0+(1.0-alpha0)*beta, 1.0)
				} else {
					alpha = 1.0
				}

				c.toi = alpha
				c.flags |= contactTOIFlag
			}

			if alpha < minAlpha {
				// This is the minimum TOI found so far.
				minContact = c
				minAlpha = alpha
			}
		}

		if minContact == nil || 1.0-10.0*common.Epsilon < minAlpha {
			// No more TOI events. Done!
			world.stepComplete = true
			break
		}

		// Advance the bodies to the TOI.
		bA := minContact.fixtureA.body
		bB := minContact.fixtureB.body

		backup1 := bA.sweep
		backup2 := bB.sweep

		bA.advance(minAlpha)
		bB.advance(minAlpha)

		// The TOI contact likely has some new contact points.
		minContact.update(listener)
		minContact.flags &^= contactTOIFlag
		minContact.toiCount++

		// Is the contact solid?
		if !minContact.IsEnabled() || !minContact.IsTouching() {
			// Restore the sweeps.
			minContact.SetEnabled(false)
			bA.sweep = backup1
			bB.sweep = backup2
			bA.synchronizeTransform()
			bB.synchronizeTransform()
			continue
		}

		bA.SetAwake(true)
		bB.SetAwake(true)

		// Build the island
		island.clear()
		island.addBody(bA)
		island.addBody(bB)
		island.addContact(minContact)

		bA.flags |= bodyIslandFlag
		bB.flags |= bodyIslandFlag
		minContact.flags |= contactIslandFlag

		// Get contacts on bodyA and bodyB.
		for _, body := range [2]*Body{bA, bB} {
			if body.bodyType != DynamicBody {
				continue
			}

			for ce := body.contactList; ce != nil; ce = ce.Next {
				if len(island.bodies) == 2*world.tuning.MaxTOIContacts {
					break
				}

				if len(island.contacts) == world.tuning.MaxTOIContacts {
					break
				}

				contact := ce.Contact

				// Has this contact already been added to the island?
				if contact.flags&contactIslandFlag != 0 {
					continue
				}

				// Only add static, kinematic, or bullet bodies.
				other := ce.Other
				if other.bodyType == DynamicBody && !body.IsBullet() && !other.IsBullet() {
					continue
				}

				// Skip sensors.
				if contact.fixtureA.isSensor || contact.fixtureB.isSensor {
					continue
				}

				// Tentatively advance the body to the TOI.
				backup := other.sweep
				if other.flags&bodyIslandFlag == 0 {
					other.advance(minAlpha)
				}

				// Update the contact points
				contact.update(listener)

				// Was the contact disabled by the user? Are there contact points?
				if !contact.IsEnabled() || !contact.IsTouching() {
					other.sweep = backup
					other.synchronizeTransform()
					continue
				}

				// Add the contact to the island
				contact.flags |= contactIslandFlag
				island.addContact(contact)

				// Has the other body already been added to the island?
				if other.flags&bodyIslandFlag != 0 {
					continue
				}

				// Add the other body to the island.
				other.flags |= bodyIslandFlag

				if other.bodyType != StaticBody {
					other.SetAwake(true)
				}

				island.addBody(other)
			}
		}

		subStep := TimeStep{
			Dt:                 (1.0 - minAlpha) * step.Dt,
			DtRatio:            1.0,
			PositionIterations: 20,
			VelocityIterations: step.VelocityIterations,
			WarmStarting:       false,
		}
		subStep.InvDt = 1.0 / subStep.Dt
		island.solveTOI(subStep, bA.islandIndex, bB.islandIndex)

		// Reset island flags and synchronize broad-phase proxies.
		for _, body := range island.bodies {
			body.flags &^= bodyIslandFlag

			if body.bodyType != DynamicBody {
				continue
			}

			body.synchronizeFixtures()

			// Invalidate all contact TOIs on this displaced body.
			for ce := body.contactList; ce != nil; ce = ce.Next {
				ce.Contact.flags &^= contactTOIFlag | contactIslandFlag
			}
		}

		// Commit fixture proxy movements to the broad-phase so that new contacts are created.
		// Also, some contacts can be destroyed.
		world.contactManager.findNewContacts()

		if world.subStepping {
			world.stepComplete = false
			break
		}
	}
	island.clear()
}

/// Query the world for all fixtures that potentially overlap the
/// provided AABB.
/// @param callback a user implemented callback.
/// @param aabb the query box.
func (world *World) QueryAABB(callback QueryCallback, aabb collision.AABB) {
	broadPhase := world.contactManager.broadPhase
	broadPhase.Query(func(proxyID int) bool {
		proxy := broadPhase.GetUserData(proxyID).(*FixtureProxy)
		return callback(proxy.fixture)
	}, aabb)
}

/// Ray-cast the world for all fixtures in the path of the ray. Your callback
/// controls whether you get the closest point, any point, or n-points.
/// The ray-cast ignores shapes that contain the starting point.
/// @param callback a user implemented callback.
/// @param point1 the ray starting point
/// @param point2 the ray ending point
func (world *World) RayCast(callback RayCastCallback, point1, point2 common.Vec2) {
	broadPhase := world.contactManager.broadPhase
	input := collision.RayCastInput{
		P1:          point1,
		P2:          point2,
		MaxFraction: 1.0,
	}

	broadPhase.RayCast(func(input collision.RayCastInput, proxyID int) float32 {
		proxy := broadPhase.GetUserData(proxyID).(*FixtureProxy)
		fixture := proxy.fixture

		output, hit := fixture.RayCast(input, proxy.childIndex)
		if !hit {
			return input.MaxFraction
		}

		fraction := output.Fraction
		point := input.P1.Mul(1.0 - fraction).Add(input.P2.Mul(fraction))
		return callback(fixture, point, output.Normal, fraction)
	}, input)
}

/// Get the world body list. With the returned body, use Body.GetNext to get
/// the next body in the world list. A nil body indicates the end of the list.
func (world *World) GetBodyList() *Body {
	return world.bodyList
}

/// Get the world joint list. With the returned joint, use Joint.GetNext to get
/// the next joint in the world list. A nil joint indicates the end of the list.
func (world *World) GetJointList() Joint {
	return world.jointList
}

/// Get the world contact list. With the returned contact, use Contact.GetNext to get
/// the next contact in the world list. A nil contact indicates the end of the list.
/// @warning contacts are created and destroyed in the middle of a time step.
/// Use ContactListener to avoid missing contacts.
func (world *World) GetContactList() *Contact {
	return world.contactManager.contactList
}

func (world *World) GetBodyCount() int {
	return world.bodyCount
}

func (world *World) GetJointCount() int {
	return world.jointCount
}

func (world *World) GetContactCount() int {
	return world.contactManager.contactCount
}

/// Get the number of broad-phase proxies.
func (world *World) GetProxyCount() int {
	return world.contactManager.broadPhase.GetProxyCount()
}

/// Get the height of the dynamic tree.
func (world *World) GetTreeHeight() int {
	return world.contactManager.broadPhase.GetTreeHeight()
}

/// Get the balance of the dynamic tree.
func (world *World) GetTreeBalance() int {
	return world.contactManager.broadPhase.GetTreeBalance()
}

/// Get the quality metric of the dynamic tree. The smaller the better.
/// The minimum is 1.
func (world *World) GetTreeQuality() float32 {
	return world.contactManager.broadPhase.GetTreeQuality()
}

/// Change the global gravity vector.
func (world *World) SetGravity(gravity common.Vec2) {
	world.gravity = gravity
}

func (world *World) GetGravity() common.Vec2 {
	return world.gravity
}

/// Is the world locked (in the middle of a time step).
func (world *World) IsLocked() bool {
	return world.flags&worldLocked != 0
}

/// Set flag to control automatic clearing of forces after each time step.
func (world *World) SetAutoClearForces(flag bool) {
	if flag {
		world.flags |= worldClearForces
	} else {
		world.flags &^= worldClearForces
	}
}

/// Get the flag that controls automatic clearing of forces after each time step.
func (world *World) GetAutoClearForces() bool {
	return world.flags&worldClearForces != 0
}

/// Enable/disable sleep.
func (world *World) SetAllowSleeping(flag bool) {
	if flag == world.allowSleep {
		return
	}

	world.allowSleep = flag
	if !world.allowSleep {
		for b := world.bodyList; b != nil; b = b.next {
			b.SetAwake(true)
		}
	}
}

func (world *World) GetAllowSleeping() bool {
	return world.allowSleep
}

/// Enable/disable warm starting. For testing.
func (world *World) SetWarmStarting(flag bool) {
	world.warmStarting = flag
}

func (world *World) GetWarmStarting() bool {
	return world.warmStarting
}

/// Enable/disable continuous physics. For testing.
func (world *World) SetContinuousPhysics(flag bool) {
	world.continuousPhysics = flag
}

func (world *World) GetContinuousPhysics() bool {
	return world.continuousPhysics
}

/// Enable/disable single stepped continuous physics. For testing.
func (world *World) SetSubStepping(flag bool) {
	world.subStepping = flag
}

func (world *World) GetSubStepping() bool {
	return world.subStepping
}

/// Get the current profile.
func (world *World) GetProfile() Profile {
	return world.profile
}

// GetTOIStats returns the time of impact counters accumulated since the world
// was created.
func (world *World) GetTOIStats() collision.TOIStats {
	return world.toiStats
}

func (world *World) GetTuning() common.Tuning {
	return world.tuning
}

func (world *World) GetLogger() *slog.Logger {
	return world.logger
}

/// Shift the world origin. Useful for large worlds.
/// The body shift formula is: position -= newOrigin
/// @param newOrigin the new origin with respect to the old origin
func (world *World) ShiftOrigin(newOrigin common.Vec2) error {
	if world.IsLocked() {
		return ErrWorldLocked
	}

	for b := world.bodyList; b != nil; b = b.next {
		b.xf.P.SubInPlace(newOrigin)
		b.sweep.C0.SubInPlace(newOrigin)
		b.sweep.C.SubInPlace(newOrigin)
	}

	for j := world.jointList; j != nil; j = j.GetNext() {
		j.ShiftOrigin(newOrigin)
	}

	world.contactManager.broadPhase.ShiftOrigin(newOrigin)
	return nil
}

/// Dump the world into the log file.
/// @warning this should be called outside of a time step.
func (world *World) Dump() error {
	if world.IsLocked() {
		return fmt.Errorf("dump: %w", ErrWorldLocked)
	}

	logger := world.logger
	logger.Info("world",
		slog.Any("gravity", world.gravity),
		slog.Int("bodies", world.bodyCount),
		slog.Int("joints", world.jointCount))

	i := 0
	for b := world.bodyList; b != nil; b = b.next {
		b.islandIndex = i
		b.dump(logger, i)
		i++
	}

	i = 0
	for j := world.jointList; j != nil; j = j.GetNext() {
		j.base().index = i
		i++
	}

	// First pass on joints, skip gear joints.
	for j := world.jointList; j != nil; j = j.GetNext() {
		if j.GetType() == JointGear {
			continue
		}
		j.dump(logger)
	}

	// Second pass on joints, only gear joints.
	for j := world.jointList; j != nil; j = j.GetNext() {
		if j.GetType() != JointGear {
			continue
		}
		j.dump(logger)
	}

	return nil
}
