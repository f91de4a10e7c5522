package dynamics

import (
	"log/slog"
	"time"

	"github.com/engine-pi/jbox2d/common"
)

/*
Position Correction Notes
=========================
Contacts use Baumgarte-style position correction run as a separate
non-linear Gauss-Seidel pass after velocity integration. The position
error and the radius vectors are recomputed for each constraint and the
positions are updated right after the constraint is solved. Since the
current position error is known, the iterations terminate early once the
error drops below the linear slop.

Joints are corrected the same way, each computing its own effective mass
for the current configuration (full NGS).
*/

/*
Cache Performance

The solvers are dominated by cache misses. Read only body data, such as the
mass values, is copied into the constraints. The mutable data are the
constraint impulses and the body velocities/positions, which live in compact
per-island arrays indexed by Body.islandIndex.
*/

// island is a connected set of awake bodies plus the contacts and joints
// between them. The world keeps one and reuses its buffers between solves.
type island struct {
	listener ContactListener
	tuning   *common.Tuning
	logger   *slog.Logger

	bodies   []*Body
	contacts []*Contact
	joints   []Joint

	positions  []Position
	velocities []Velocity
}

func newIsland(bodyCapacity, contactCapacity, jointCapacity int, listener ContactListener, tuning *common.Tuning, logger *slog.Logger) *island {
	return &island{
		listener:   listener,
		tuning:     tuning,
		logger:     logger,
		bodies:     make([]*Body, 0, bodyCapacity),
		contacts:   make([]*Contact, 0, contactCapacity),
		joints:     make([]Joint, 0, jointCapacity),
		positions:  make([]Position, 0, bodyCapacity),
		velocities: make([]Velocity, 0, bodyCapacity),
	}
}

func (island *island) clear() {
	clear(island.bodies)
	clear(island.contacts)
	clear(island.joints)
	island.bodies = island.bodies[:0]
	island.contacts = island.contacts[:0]
	island.joints = island.joints[:0]
}

func (island *island) addBody(body *Body) {
	body.islandIndex = len(island.bodies)
	island.bodies = append(island.bodies, body)
}

func (island *island) addContact(contact *Contact) {
	island.contacts = append(island.contacts, contact)
}

func (island *island) addJoint(joint Joint) {
	island.joints = append(island.joints, joint)
}

// resetState sizes the position and velocity buffers to the body count.
func (island *island) resetState() {
	n := len(island.bodies)
	if cap(island.positions) < n {
		island.positions = make([]Position, n)
		island.velocities = make([]Velocity, n)
		return
	}
	island.positions = island.positions[:n]
	island.velocities = island.velocities[:n]
}

func (island *island) solve(profile *Profile, step TimeStep, gravity common.Vec2, allowSleep bool) {
	h := step.Dt
	island.resetState()

	// Integrate velocities and apply damping. Initialize the body state.
	for i, b := range island.bodies {
		c := b.sweep.C
		a := b.sweep.A
		v := b.linearVelocity
		w := b.angularVelocity

		// Store positions for continuous collision.
		b.sweep.C0 = b.sweep.C
		b.sweep.A0 = b.sweep.A

		if b.bodyType == DynamicBody {
			// Integrate velocities.
			v.AddInPlace(gravity.Mul(b.gravityScale).Add(b.force.Mul(b.invMass)).Mul(h))
			w += h * b.invI * b.torque

			// Apply damping.
			// ODE: dv/dt + c * v = 0
			// Solution: v(t) = v0 * exp(-c * t)
			// Time step: v(t + dt) = v0 * exp(-c * (t + dt)) = v0 * exp(-c * t) * exp(-c * dt) = v * exp(-c * dt)
			// v2 = exp(-c * dt) * v1
			// Pade approximation:
			// v2 = v1 * 1 / (1 + c * dt)
			v.MulInPlace(1.0 / (1.0 + h*b.linearDamping))
			w *= 1.0 / (1.0 + h*b.angularDamping)
		}

		island.positions[i] = Position{C: c, A: a}
		island.velocities[i] = Velocity{V: v, W: w}
	}

	start := time.Now()

	// Solver data
	solverData := &SolverData{
		Step:       step,
		Positions:  island.positions,
		Velocities: island.velocities,
		Tuning:     island.tuning,
	}

	// Initialize velocity constraints.
	contactSolver := newContactSolver(&contactSolverDef{
		step:       step,
		contacts:   island.contacts,
		positions:  island.positions,
		velocities: island.velocities,
		tuning:     island.tuning,
		logger:     island.logger,
	})
	contactSolver.initializeVelocityConstraints()

	if step.WarmStarting {
		contactSolver.warmStart()
	}

	for _, joint := range island.joints {
		joint.initVelocityConstraints(solverData)
	}

	profile.SolveInit += time.Since(start)

	// Solve velocity constraints
	start = time.Now()
	for i := 0; i < step.VelocityIterations; i++ {
		for _, joint := range island.joints {
			joint.solveVelocityConstraints(solverData)
		}

		contactSolver.solveVelocityConstraints()
	}

	// Store impulses for warm starting
	contactSolver.storeImpulses()
	profile.SolveVelocity += time.Since(start)
	profile.BlockSolverFallbacks += contactSolver.blockFallbacks

	// Integrate positions
	island.integratePositions(h)

	// Solve position constraints
	start = time.Now()
	positionSolved := false
	for i := 0; i < step.PositionIterations; i++ {
		contactsOkay := contactSolver.solvePositionConstraints()

		jointsOkay := true
		for _, joint := range island.joints {
			jointOkay := joint.solvePositionConstraints(solverData)
			jointsOkay = jointsOkay && jointOkay
		}

		if contactsOkay && jointsOkay {
			// Exit early if the position errors are small.
			positionSolved = true
			break
		}
	}

	// Copy state buffers back to the bodies
	for i, body := range island.bodies {
		body.sweep.C = island.positions[i].C
		body.sweep.A = island.positions[i].A
		body.linearVelocity = island.velocities[i].V
		body.angularVelocity = island.velocities[i].W
		body.synchronizeTransform()
	}

	profile.SolvePosition += time.Since(start)

	island.report(contactSolver.velocityConstraints)

	if !allowSleep {
		return
	}

	minSleepTime := common.MaxFloat

	linTolSqr := island.tuning.LinearSleepTolerance * island.tuning.LinearSleepTolerance
	angTolSqr := island.tuning.AngularSleepTolerance * island.tuning.AngularSleepTolerance

	for _, b := range island.bodies {
		if b.bodyType == StaticBody {
			continue
		}

		if b.flags&bodyAutoSleepFlag == 0 ||
			b.angularVelocity*b.angularVelocity > angTolSqr ||
			common.Dot(b.linearVelocity, b.linearVelocity) > linTolSqr {
			b.sleepTime = 0.0
			minSleepTime = 0.0
		} else {
			b.sleepTime += h
			minSleepTime = min(minSleepTime, b.sleepTime)
		}
	}

	if minSleepTime >= island.tuning.TimeToSleep && positionSolved {
		for _, b := range island.bodies {
			b.SetAwake(false)
		}
		island.logger.Debug("island asleep",
			slog.Int("bodies", len(island.bodies)),
			slog.Int("contacts", len(island.contacts)),
			slog.Int("joints", len(island.joints)))
	}
}

// integratePositions advances the island state by h, clamping velocities
// that would move a body further than the tuning allows in one step.
func (island *island) integratePositions(h float32) {
	maxTranslation := island.tuning.MaxTranslation
	maxRotation := island.tuning.MaxRotation

	for i := range island.bodies {
		c := island.positions[i].C
		a := island.positions[i].A
		v := island.velocities[i].V
		w := island.velocities[i].W

		// Check for large velocities
		translation := v.Mul(h)
		if common.Dot(translation, translation) > maxTranslation*maxTranslation {
			ratio := maxTranslation / translation.Length()
			v.MulInPlace(ratio)
		}

		rotation := h * w
		if rotation*rotation > maxRotation*maxRotation {
			ratio := maxRotation / common.Abs(rotation)
			w *= ratio
		}

		// Integrate
		c.AddInPlace(v.Mul(h))
		a += h * w

		island.positions[i] = Position{C: c, A: a}
		island.velocities[i] = Velocity{V: v, W: w}
	}
}

func (island *island) solveTOI(subStep TimeStep, toiIndexA, toiIndexB int) {
	common.Assert(toiIndexA < len(island.bodies), "TOI index A out of range")
	common.Assert(toiIndexB < len(island.bodies), "TOI index B out of range")

	island.resetState()

	// Initialize the body state.
	for i, b := range island.bodies {
		island.positions[i] = Position{C: b.sweep.C, A: b.sweep.A}
		island.velocities[i] = Velocity{V: b.linearVelocity, W: b.angularVelocity}
	}

	contactSolver := newContactSolver(&contactSolverDef{
		step:       subStep,
		contacts:   island.contacts,
		positions:  island.positions,
		velocities: island.velocities,
		tuning:     island.tuning,
		logger:     island.logger,
	})

	// Solve position constraints.
	for i := 0; i < subStep.PositionIterations; i++ {
		if contactSolver.solveTOIPositionConstraints(toiIndexA, toiIndexB) {
			break
		}
	}

	// Leap of faith to new safe state.
	island.bodies[toiIndexA].sweep.C0 = island.positions[toiIndexA].C
	island.bodies[toiIndexA].sweep.A0 = island.positions[toiIndexA].A
	island.bodies[toiIndexB].sweep.C0 = island.positions[toiIndexB].C
	island.bodies[toiIndexB].sweep.A0 = island.positions[toiIndexB].A

	// No warm starting is needed for TOI events because warm
	// starting impulses were applied in the discrete solver.
	contactSolver.initializeVelocityConstraints()

	// Solve velocity constraints.
	for i := 0; i < subStep.VelocityIterations; i++ {
		contactSolver.solveVelocityConstraints()
	}

	// Don't store the TOI contact forces for warm starting
	// because they can be quite large.

	island.integratePositions(subStep.Dt)

	// Sync bodies
	for i, body := range island.bodies {
		body.sweep.C = island.positions[i].C
		body.sweep.A = island.positions[i].A
		body.linearVelocity = island.velocities[i].V
		body.angularVelocity = island.velocities[i].W
		body.synchronizeTransform()
	}

	island.report(contactSolver.velocityConstraints)
}

func (island *island) report(constraints []contactVelocityConstraint) {
	if island.listener == nil {
		return
	}

	for i, c := range island.contacts {
		vc := &constraints[i]

		impulse := ContactImpulse{Count: vc.pointCount}
		for j := 0; j < vc.pointCount; j++ {
			impulse.NormalImpulses[j] = vc.points[j].normalImpulse
			impulse.TangentImpulses[j] = vc.points[j].tangentImpulse
		}

		island.listener.PostSolve(c, &impulse)
	}
}
