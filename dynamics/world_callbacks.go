package dynamics

import (
	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

/// Joints and fixtures are destroyed when their associated
/// body is destroyed. Implement this listener so that you
/// may nullify references to these joints and shapes.
type DestructionListener interface {
	/// Called when any joint is about to be destroyed due
	/// to the destruction of one of its attached bodies.
	SayGoodbyeToJoint(joint Joint)

	/// Called when any fixture is about to be destroyed due
	/// to the destruction of its parent body.
	SayGoodbyeToFixture(fixture *Fixture)
}

/// Implement this interface to provide collision filtering. In other words, you can implement
/// this interface if you want finer control over contact creation.
type ContactFilter interface {
	/// Return true if contact calculations should be performed between these two shapes.
	/// @warning for performance reasons this is only called when the AABBs begin to overlap.
	ShouldCollide(fixtureA, fixtureB *Fixture) bool
}

// DefaultContactFilter implements the category, mask and group rule.
type DefaultContactFilter struct{}

/// Return true if contact calculations should be performed between these two shapes.
/// If you implement your own collision filter you may want to build from this implementation.
func (DefaultContactFilter) ShouldCollide(fixtureA, fixtureB *Fixture) bool {
	return ShouldCollideFilters(fixtureA.GetFilterData(), fixtureB.GetFilterData())
}

// ShouldCollideFilters applies the group rule first: a shared non-zero group
// always collides when positive and never when negative. Otherwise each
// category must be accepted by the other mask.
func ShouldCollideFilters(filterA, filterB Filter) bool {
	if filterA.GroupIndex == filterB.GroupIndex && filterA.GroupIndex != 0 {
		return filterA.GroupIndex > 0
	}

	return filterA.MaskBits&filterB.CategoryBits != 0 && filterA.CategoryBits&filterB.MaskBits != 0
}

/// Contact impulses for reporting. Impulses are used instead of forces because
/// sub-step forces may approach infinity for rigid body collisions. These
/// match up one-to-one with the contact points in Manifold.
type ContactImpulse struct {
	NormalImpulses  [common.MaxManifoldPoints]float32
	TangentImpulses [common.MaxManifoldPoints]float32
	Count           int
}

/// Implement this interface to get contact information. You can use these results for
/// things like sounds and game logic. You can also get contact results by
/// traversing the contact lists after the time step. However, you might miss
/// some contacts because continuous physics leads to sub-stepping.
/// Additionally you may receive multiple callbacks for the same contact in a
/// single time step.
/// You should strive to make your callbacks efficient because there may be
/// many callbacks per time step.
/// @warning You cannot create/destroy Box2D entities inside these callbacks.
type ContactListener interface {
	/// Called when two fixtures begin to touch.
	BeginContact(contact *Contact)

	/// Called when two fixtures cease to touch.
	EndContact(contact *Contact)

	/// This is called after a contact is updated. This allows you to inspect a
	/// contact before it goes to the solver. If you are careful, you can modify the
	/// contact manifold (e.g. disable contact).
	/// A copy of the old manifold is provided so that you can detect changes.
	/// Note: this is called only for awake bodies.
	/// Note: this is called even when the number of contact points is zero.
	/// Note: this is not called for sensors.
	/// Note: if you set the number of contact points to zero, you will not
	/// get an EndContact callback. However, you may get a BeginContact callback
	/// the next step.
	PreSolve(contact *Contact, oldManifold *collision.Manifold)

	/// This lets you inspect a contact after the solver is finished. This is useful
	/// for inspecting impulses.
	/// Note: the contact manifold does not include time of impact impulses, which can be
	/// arbitrarily large if the sub-step is small. Hence the impulse is provided explicitly
	/// in a separate data structure.
	/// Note: this is only called for contacts that are touching, solid, and awake.
	PostSolve(contact *Contact, impulse *ContactImpulse)
}

// NopContactListener can be embedded to implement only some ContactListener methods.
type NopContactListener struct{}

func (NopContactListener) BeginContact(*Contact)                  {}
func (NopContactListener) EndContact(*Contact)                    {}
func (NopContactListener) PreSolve(*Contact, *collision.Manifold) {}
func (NopContactListener) PostSolve(*Contact, *ContactImpulse)    {}

/// Callback for World.QueryAABB.
/// Called for each fixture found in the query AABB.
/// @return false to terminate the query.
type QueryCallback func(fixture *Fixture) bool

/// Callback for World.RayCast.
/// Called for each fixture found in the query. You control how the ray cast
/// proceeds by returning a float:
/// return -1: ignore this fixture and continue
/// return 0: terminate the ray cast
/// return fraction: clip the ray to this point
/// return 1: don't clip the ray and continue
/// @param fixture the fixture hit by the ray
/// @param point the point of initial intersection
/// @param normal the normal vector at the point of intersection
/// @return -1 to filter, 0 to terminate, fraction to clip the ray for
/// closest hit, 1 to continue
type RayCastCallback func(fixture *Fixture, point common.Vec2, normal common.Vec2, fraction float32) float32
