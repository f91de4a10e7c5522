package dynamics

import (
	"github.com/engine-pi/jbox2d/collision"
)

// contactManager owns the broad-phase and the world contact list.
type contactManager struct {
	broadPhase      *collision.BroadPhase
	contactList     *Contact
	contactCount    int
	contactFilter   ContactFilter
	contactListener ContactListener
}

func newContactManager() *contactManager {
	return &contactManager{
		broadPhase:    collision.NewBroadPhase(),
		contactFilter: DefaultContactFilter{},
	}
}

func (mgr *contactManager) destroy(c *Contact) {
	fixtureA := c.fixtureA
	fixtureB := c.fixtureB
	bodyA := fixtureA.body
	bodyB := fixtureB.body

	if mgr.contactListener != nil && c.IsTouching() {
		mgr.contactListener.EndContact(c)
	}

	// Remove from the world.
	if c.prev != nil {
		c.prev.next = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	}
	if c == mgr.contactList {
		mgr.contactList = c.next
	}

	// Remove from body 1
	unlinkContactEdge(&bodyA.contactList, &c.nodeA)

	// Remove from body 2
	unlinkContactEdge(&bodyB.contactList, &c.nodeB)

	// A touching solid contact going away releases whatever it was holding up.
	if c.manifold.PointCount > 0 && !fixtureA.isSensor && !fixtureB.isSensor {
		bodyA.SetAwake(true)
		bodyB.SetAwake(true)
	}

	mgr.contactCount--
}

func unlinkContactEdge(head **ContactEdge, node *ContactEdge) {
	if node.Prev != nil {
		node.Prev.Next = node.Next
	}
	if node.Next != nil {
		node.Next.Prev = node.Prev
	}
	if node == *head {
		*head = node.Next
	}
	node.Prev = nil
	node.Next = nil
}

func linkContactEdge(head **ContactEdge, node *ContactEdge) {
	node.Prev = nil
	node.Next = *head
	if *head != nil {
		(*head).Prev = node
	}
	*head = node
}

// This is the top level collision call for the time step. Here
// all the narrow phase collision is processed for the world
// contact list.
func (mgr *contactManager) collide() {
	// Update awake contacts.
	c := mgr.contactList
	for c != nil {
		fixtureA := c.fixtureA
		fixtureB := c.fixtureB
		indexA := c.indexA
		indexB := c.indexB
		bodyA := fixtureA.body
		bodyB := fixtureB.body

		// Is this contact flagged for filtering?
		if c.flags&contactFilterFlag != 0 {
			// Should these bodies collide? Check user filtering too.
			if !bodyB.shouldCollide(bodyA) ||
				(mgr.contactFilter != nil && !mgr.contactFilter.ShouldCollide(fixtureA, fixtureB)) {
				cNuke := c
				c = cNuke.next
				mgr.destroy(cNuke)
				continue
			}

			// Clear the filtering flag.
			c.flags &^= contactFilterFlag
		}

		activeA := bodyA.IsAwake() && bodyA.bodyType != StaticBody
		activeB := bodyB.IsAwake() && bodyB.bodyType != StaticBody

		// At least one body must be awake and it must be dynamic or kinematic.
		if !activeA && !activeB {
			c = c.next
			continue
		}

		proxyIDA := fixtureA.proxies[indexA].proxyID
		proxyIDB := fixtureB.proxies[indexB].proxyID

		// Here we destroy contacts that cease to overlap in the broad-phase.
		if !mgr.broadPhase.TestOverlap(proxyIDA, proxyIDB) {
			cNuke := c
			c = cNuke.next
			mgr.destroy(cNuke)
			continue
		}

		// The contact persists.
		c.update(mgr.contactListener)
		c = c.next
	}
}

func (mgr *contactManager) findNewContacts() {
	mgr.broadPhase.UpdatePairs(mgr.addPair)
}

// addPair is the broad-phase callback.
func (mgr *contactManager) addPair(proxyUserDataA, proxyUserDataB any) {
	proxyA := proxyUserDataA.(*FixtureProxy)
	proxyB := proxyUserDataB.(*FixtureProxy)

	fixtureA := proxyA.fixture
	fixtureB := proxyB.fixture

	indexA := proxyA.childIndex
	indexB := proxyB.childIndex

	bodyA := fixtureA.body
	bodyB := fixtureB.body

	// Are the fixtures on the same body?
	if bodyA == bodyB {
		return
	}

	// Does a contact already exist?
	for edge := bodyB.contactList; edge != nil; edge = edge.Next {
		if edge.Other != bodyA {
			continue
		}

		fA := edge.Contact.fixtureA
		fB := edge.Contact.fixtureB
		iA := edge.Contact.indexA
		iB := edge.Contact.indexB

		if fA == fixtureA && fB == fixtureB && iA == indexA && iB == indexB {
			return
		}
		if fA == fixtureB && fB == fixtureA && iA == indexB && iB == indexA {
			return
		}
	}

	// Does a joint override collision? Is at least one body dynamic?
	if !bodyB.shouldCollide(bodyA) {
		return
	}

	// Check user filtering.
	if mgr.contactFilter != nil && !mgr.contactFilter.ShouldCollide(fixtureA, fixtureB) {
		return
	}

	c := createContact(fixtureA, indexA, fixtureB, indexB)
	if c == nil {
		return
	}

	// Contact creation may swap fixtures.
	bodyA = c.fixtureA.body
	bodyB = c.fixtureB.body

	// Insert into the world.
	c.prev = nil
	c.next = mgr.contactList
	if mgr.contactList != nil {
		mgr.contactList.prev = c
	}
	mgr.contactList = c

	// Connect to island graph.
	c.nodeA.Contact = c
	c.nodeA.Other = bodyB
	linkContactEdge(&bodyA.contactList, &c.nodeA)

	c.nodeB.Contact = c
	c.nodeB.Other = bodyA
	linkContactEdge(&bodyB.contactList, &c.nodeB)

	// Wake up the bodies
	if !c.fixtureA.isSensor && !c.fixtureB.isSensor {
		bodyA.SetAwake(true)
		bodyB.SetAwake(true)
	}

	mgr.contactCount++
}
