package dynamics

import (
	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

/// Friction mixing law. The idea is to allow either fixture to drive the friction to zero.
/// For example, anything slides on ice.
func MixFriction(friction1, friction2 float32) float32 {
	return math32.Sqrt(friction1 * friction2)
}

/// Restitution mixing law. The idea is allow for anything to bounce off an inelastic surface.
/// For example, a superball bounces on anything.
func MixRestitution(restitution1, restitution2 float32) float32 {
	return max(restitution1, restitution2)
}

/// A contact edge is used to connect bodies and contacts together
/// in a contact graph where each body is a node and each contact
/// is an edge. A contact edge belongs to a doubly linked list
/// maintained in each attached body. Each contact has two contact
/// nodes, one for each attached body.
type ContactEdge struct {
	Other   *Body        ///< provides quick access to the other body attached.
	Contact *Contact     ///< the contact
	Prev    *ContactEdge ///< the previous contact edge in the body's contact list
	Next    *ContactEdge ///< the next contact edge in the body's contact list
}

type contactFlags uint8

const (
	// Used when crawling contact graph when forming islands.
	contactIslandFlag contactFlags = 1 << iota

	// Set when the shapes are touching.
	contactTouchingFlag

	// This contact can be disabled (by user)
	contactEnabledFlag

	// This contact needs filtering because a fixture filter was changed.
	contactFilterFlag

	// This bullet contact had a TOI event
	contactBulletHitFlag

	// This contact has a valid TOI in toi
	contactTOIFlag
)

/// The class manages contact between two shapes. A contact exists for each overlapping
/// AABB in the broad-phase (except if filtered). Therefore a contact object may exist
/// that has no contact points.
type Contact struct {
	flags contactFlags

	// World list pointers.
	prev, next *Contact

	// Nodes for connecting bodies.
	nodeA, nodeB ContactEdge

	fixtureA, fixtureB *Fixture

	indexA, indexB int

	manifold collision.Manifold

	evaluate evaluateFunc

	toiCount     int
	toi          float32
	friction     float32
	restitution  float32
	tangentSpeed float32
}

func newContact(fA *Fixture, indexA int, fB *Fixture, indexB int, evaluate evaluateFunc) *Contact {
	return &Contact{
		flags:       contactEnabledFlag,
		fixtureA:    fA,
		fixtureB:    fB,
		indexA:      indexA,
		indexB:      indexB,
		evaluate:    evaluate,
		friction:    MixFriction(fA.friction, fB.friction),
		restitution: MixRestitution(fA.restitution, fB.restitution),
	}
}

/// Get the contact manifold. Do not modify the manifold unless you understand the
/// internals of the engine.
func (c *Contact) GetManifold() *collision.Manifold {
	return &c.manifold
}

/// Get the world manifold.
func (c *Contact) GetWorldManifold() collision.WorldManifold {
	bodyA := c.fixtureA.body
	bodyB := c.fixtureB.body
	shapeA := c.fixtureA.shape
	shapeB := c.fixtureB.shape

	var worldManifold collision.WorldManifold
	worldManifold.Initialize(&c.manifold, bodyA.xf, shapeA.GetRadius(), bodyB.xf, shapeB.GetRadius())
	return worldManifold
}

/// Is this contact touching?
func (c *Contact) IsTouching() bool {
	return c.flags&contactTouchingFlag != 0
}

/// Enable/disable this contact. This can be used inside the pre-solve
/// contact listener. The contact is only disabled for the current
/// time step (or sub-step in continuous collisions).
func (c *Contact) SetEnabled(flag bool) {
	if flag {
		c.flags |= contactEnabledFlag
	} else {
		c.flags &^= contactEnabledFlag
	}
}

/// Has this contact been disabled?
func (c *Contact) IsEnabled() bool {
	return c.flags&contactEnabledFlag != 0
}

/// Get the next contact in the world's contact list.
func (c *Contact) GetNext() *Contact {
	return c.next
}

/// Get fixture A in this contact.
func (c *Contact) GetFixtureA() *Fixture {
	return c.fixtureA
}

/// Get the child primitive index for fixture A.
func (c *Contact) GetChildIndexA() int {
	return c.indexA
}

/// Get fixture B in this contact.
func (c *Contact) GetFixtureB() *Fixture {
	return c.fixtureB
}

/// Get the child primitive index for fixture B.
func (c *Contact) GetChildIndexB() int {
	return c.indexB
}

/// Override the default friction mixture. You can call this in PreSolve.
/// This value persists until set or reset.
func (c *Contact) SetFriction(friction float32) {
	c.friction = friction
}

func (c *Contact) GetFriction() float32 {
	return c.friction
}

/// Reset the friction mixture to the default value.
func (c *Contact) ResetFriction() {
	c.friction = MixFriction(c.fixtureA.friction, c.fixtureB.friction)
}

/// Override the default restitution mixture. You can call this in PreSolve.
/// The value persists until you set or reset.
func (c *Contact) SetRestitution(restitution float32) {
	c.restitution = restitution
}

func (c *Contact) GetRestitution() float32 {
	return c.restitution
}

/// Reset the restitution to the default value.
func (c *Contact) ResetRestitution() {
	c.restitution = MixRestitution(c.fixtureA.restitution, c.fixtureB.restitution)
}

/// Set the desired tangent speed for a conveyor belt behavior. In meters per second.
func (c *Contact) SetTangentSpeed(speed float32) {
	c.tangentSpeed = speed
}

func (c *Contact) GetTangentSpeed() float32 {
	return c.tangentSpeed
}

/// Flag this contact for filtering. Filtering will occur the next time step.
func (c *Contact) FlagForFiltering() {
	c.flags |= contactFilterFlag
}

// GetTOICount is the number of TOI sub-steps this contact took part in during
// the current step.
func (c *Contact) GetTOICount() int {
	return c.toiCount
}

// Update the contact manifold and touching status.
// Note: do not assume the fixture AABBs are overlapping or are valid.
func (c *Contact) update(listener ContactListener) {
	oldManifold := c.manifold

	// Re-enable this contact.
	c.flags |= contactEnabledFlag

	touching := false
	wasTouching := c.flags&contactTouchingFlag != 0

	sensor := c.fixtureA.isSensor || c.fixtureB.isSensor

	bodyA := c.fixtureA.body
	bodyB := c.fixtureB.body
	xfA := bodyA.xf
	xfB := bodyB.xf

	// Is this contact a sensor?
	if sensor {
		shapeA := c.fixtureA.shape
		shapeB := c.fixtureB.shape
		touching = collision.TestOverlap(shapeA, c.indexA, shapeB, c.indexB, xfA, xfB)

		// Sensors don't generate manifolds.
		c.manifold.PointCount = 0
	} else {
		c.evaluate(c, &c.manifold, xfA, xfB)
		touching = c.manifold.PointCount > 0

		// Match old contact ids to new contact ids and copy the
		// stored impulses to warm start the solver.
		for i := 0; i < c.manifold.PointCount; i++ {
			mp2 := &c.manifold.Points[i]
			mp2.NormalImpulse = 0.0
			mp2.TangentImpulse = 0.0
			id2 := mp2.ID.Key()

			for j := 0; j < oldManifold.PointCount; j++ {
				mp1 := &oldManifold.Points[j]

				if mp1.ID.Key() == id2 {
					mp2.NormalImpulse = mp1.NormalImpulse
					mp2.TangentImpulse = mp1.TangentImpulse
					break
				}
			}
		}

		if touching != wasTouching {
			bodyA.SetAwake(true)
			bodyB.SetAwake(true)
		}
	}

	if touching {
		c.flags |= contactTouchingFlag
	} else {
		c.flags &^= contactTouchingFlag
	}

	if listener == nil {
		return
	}

	if !wasTouching && touching {
		listener.BeginContact(c)
	}

	if wasTouching && !touching {
		listener.EndContact(c)
	}

	if !sensor && touching {
		listener.PreSolve(c, &oldManifold)
	}
}

type evaluateFunc func(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform)

type contactRegister struct {
	evaluate evaluateFunc
	primary  bool
}

var contactRegisters = buildContactRegisters()

func buildContactRegisters() (registers [collision.ShapeTypeCount][collision.ShapeTypeCount]contactRegister) {
	add := func(evaluate evaluateFunc, typeA, typeB collision.ShapeType) {
		registers[typeA][typeB] = contactRegister{evaluate: evaluate, primary: true}
		if typeA != typeB {
			registers[typeB][typeA] = contactRegister{evaluate: evaluate}
		}
	}

	add(evaluateCircles, collision.ShapeCircle, collision.ShapeCircle)
	add(evaluatePolygonAndCircle, collision.ShapePolygon, collision.ShapeCircle)
	add(evaluatePolygons, collision.ShapePolygon, collision.ShapePolygon)
	add(evaluateEdgeAndCircle, collision.ShapeEdge, collision.ShapeCircle)
	add(evaluateEdgeAndPolygon, collision.ShapeEdge, collision.ShapePolygon)
	add(evaluateChainAndCircle, collision.ShapeChain, collision.ShapeCircle)
	add(evaluateChainAndPolygon, collision.ShapeChain, collision.ShapePolygon)
	return registers
}

// createContact picks the collision routine for the shape pair. Fixtures are
// swapped when the routine expects them in the other order. Pairs without a
// routine (edge against edge, chain against chain) yield nil.
func createContact(fixtureA *Fixture, indexA int, fixtureB *Fixture, indexB int) *Contact {
	reg := contactRegisters[fixtureA.GetType()][fixtureB.GetType()]
	if reg.evaluate == nil {
		return nil
	}

	if reg.primary {
		return newContact(fixtureA, indexA, fixtureB, indexB, reg.evaluate)
	}
	return newContact(fixtureB, indexB, fixtureA, indexA, reg.evaluate)
}

func evaluateCircles(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform) {
	collision.CollideCircles(manifold,
		c.fixtureA.shape.(*collision.CircleShape), xfA,
		c.fixtureB.shape.(*collision.CircleShape), xfB)
}

func evaluatePolygonAndCircle(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform) {
	collision.CollidePolygonAndCircle(manifold,
		c.fixtureA.shape.(*collision.PolygonShape), xfA,
		c.fixtureB.shape.(*collision.CircleShape), xfB)
}

func evaluatePolygons(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform) {
	collision.CollidePolygons(manifold,
		c.fixtureA.shape.(*collision.PolygonShape), xfA,
		c.fixtureB.shape.(*collision.PolygonShape), xfB)
}

func evaluateEdgeAndCircle(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform) {
	collision.CollideEdgeAndCircle(manifold,
		c.fixtureA.shape.(*collision.EdgeShape), xfA,
		c.fixtureB.shape.(*collision.CircleShape), xfB)
}

func evaluateEdgeAndPolygon(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform) {
	collision.CollideEdgeAndPolygon(manifold,
		c.fixtureA.shape.(*collision.EdgeShape), xfA,
		c.fixtureB.shape.(*collision.PolygonShape), xfB)
}

func evaluateChainAndCircle(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform) {
	var edge collision.EdgeShape
	c.fixtureA.shape.(*collision.ChainShape).GetChildEdge(&edge, c.indexA)
	collision.CollideEdgeAndCircle(manifold, &edge, xfA,
		c.fixtureB.shape.(*collision.CircleShape), xfB)
}

func evaluateChainAndPolygon(c *Contact, manifold *collision.Manifold, xfA, xfB common.Transform) {
	var edge collision.EdgeShape
	c.fixtureA.shape.(*collision.ChainShape).GetChildEdge(&edge, c.indexA)
	collision.CollideEdgeAndPolygon(manifold, &edge, xfA,
		c.fixtureB.shape.(*collision.PolygonShape), xfB)
}
