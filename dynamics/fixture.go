package dynamics

import (
	"log/slog"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

/// This holds contact filtering data.
type Filter struct {
	/// The collision category bits. Normally you would just set one bit.
	CategoryBits uint16

	/// The collision mask bits. This states the categories that this
	/// shape would accept for collision.
	MaskBits uint16

	/// Collision groups allow a certain group of objects to never collide (negative)
	/// or always collide (positive). Zero means no collision group. Non-zero group
	/// filtering always wins against the mask bits.
	GroupIndex int16
}

func MakeFilter() Filter {
	return Filter{
		CategoryBits: 0x0001,
		MaskBits:     0xFFFF,
	}
}

/// A fixture definition is used to create a fixture. You can reuse fixture
/// definitions safely.
type FixtureDef struct {
	/// The shape, this must be set. The shape will be cloned, so you
	/// can reuse it for other fixtures.
	Shape collision.Shape

	/// Use this to store application specific fixture data.
	UserData any

	/// The friction coefficient, usually in the range [0,1].
	Friction float32

	/// The restitution (elasticity) usually in the range [0,1].
	Restitution float32

	/// The density, usually in kg/m^2.
	Density float32

	/// A sensor shape collects contact information but never generates a collision
	/// response.
	IsSensor bool

	/// Contact filtering data.
	Filter Filter
}

/// The constructor sets the default fixture definition values.
func MakeFixtureDef() FixtureDef {
	return FixtureDef{
		Friction: 0.2,
		Filter:   MakeFilter(),
	}
}

/// This proxy is used internally to connect fixtures to the broad-phase.
type FixtureProxy struct {
	aabb       collision.AABB
	fixture    *Fixture
	childIndex int
	proxyID    int
}

/// A fixture is used to attach a shape to a body for collision detection. A fixture
/// inherits its transform from its parent. Fixtures hold additional non-geometric data
/// such as friction, collision filters, etc.
/// Fixtures are created via Body.CreateFixture.
type Fixture struct {
	density float32

	next *Fixture
	body *Body

	shape collision.Shape

	friction    float32
	restitution float32

	proxies []FixtureProxy

	filter Filter

	isSensor bool

	userData any
}

func newFixture(body *Body, def *FixtureDef) *Fixture {
	common.Assert(common.IsValid(def.Density) && def.Density >= 0.0, "fixture density must be >= 0")
	return &Fixture{
		userData:    def.UserData,
		friction:    def.Friction,
		restitution: def.Restitution,
		body:        body,
		filter:      def.Filter,
		isSensor:    def.IsSensor,
		shape:       def.Shape.Clone(),
		density:     def.Density,
	}
}

/// Get the type of the child shape. You can use this to down cast to the concrete shape.
func (f *Fixture) GetType() collision.ShapeType {
	return f.shape.GetType()
}

/// Get the child shape. You can modify the child shape, however you should not change the
/// number of vertices because this will crash some collision caching mechanisms.
func (f *Fixture) GetShape() collision.Shape {
	return f.shape
}

func (f *Fixture) IsSensor() bool {
	return f.isSensor
}

/// Set if this fixture is a sensor.
func (f *Fixture) SetSensor(sensor bool) {
	if sensor != f.isSensor {
		f.body.SetAwake(true)
		f.isSensor = sensor
	}
}

func (f *Fixture) GetFilterData() Filter {
	return f.filter
}

/// Set the contact filtering data. This will not update contacts until the next time
/// step when either parent body is active and awake.
/// This automatically calls Refilter.
func (f *Fixture) SetFilterData(filter Filter) {
	f.filter = filter
	f.Refilter()
}

/// Call this if you want to establish collision that was previously disabled by
/// ContactFilter.ShouldCollide.
func (f *Fixture) Refilter() {
	if f.body == nil {
		return
	}

	// Flag associated contacts for filtering.
	for edge := f.body.contactList; edge != nil; edge = edge.Next {
		contact := edge.Contact
		if contact.fixtureA == f || contact.fixtureB == f {
			contact.FlagForFiltering()
		}
	}

	world := f.body.world
	if world == nil {
		return
	}

	// Touch each proxy so that new pairs may be created
	for i := range f.proxies {
		world.contactManager.broadPhase.TouchProxy(f.proxies[i].proxyID)
	}
}

func (f *Fixture) GetUserData() any {
	return f.userData
}

func (f *Fixture) SetUserData(data any) {
	f.userData = data
}

/// Get the parent body of this fixture. This is nil if the fixture is not attached.
func (f *Fixture) GetBody() *Body {
	return f.body
}

/// Get the next fixture in the parent body's fixture list.
func (f *Fixture) GetNext() *Fixture {
	return f.next
}

/// Set the density of this fixture. This will _not_ automatically adjust the mass
/// of the body. You must call Body.ResetMassData to update the body's mass.
func (f *Fixture) SetDensity(density float32) {
	common.Assert(common.IsValid(density) && density >= 0.0, "fixture density must be >= 0")
	f.density = density
}

func (f *Fixture) GetDensity() float32 {
	return f.density
}

func (f *Fixture) GetFriction() float32 {
	return f.friction
}

/// Set the coefficient of friction. This will _not_ change the friction of
/// existing contacts.
func (f *Fixture) SetFriction(friction float32) {
	f.friction = friction
}

func (f *Fixture) GetRestitution() float32 {
	return f.restitution
}

/// Set the coefficient of restitution. This will _not_ change the restitution of
/// existing contacts.
func (f *Fixture) SetRestitution(restitution float32) {
	f.restitution = restitution
}

/// Test a point for containment in this fixture.
/// @param p a point in world coordinates.
func (f *Fixture) TestPoint(p common.Vec2) bool {
	return f.shape.TestPoint(f.body.xf, p)
}

/// Cast a ray against this shape.
func (f *Fixture) RayCast(input collision.RayCastInput, childIndex int) (collision.RayCastOutput, bool) {
	return f.shape.RayCast(input, f.body.xf, childIndex)
}

/// Get the mass data for this fixture. The mass data is based on the density and
/// the shape. The rotational inertia is about the shape's origin.
func (f *Fixture) GetMassData() collision.MassData {
	return f.shape.ComputeMass(f.density)
}

/// Get the fixture's AABB. This AABB may be enlarged and/or stale.
/// If you need a more accurate AABB, compute it using the shape and
/// the body transform.
func (f *Fixture) GetAABB(childIndex int) collision.AABB {
	common.Assert(0 <= childIndex && childIndex < len(f.proxies), "child index %d out of range", childIndex)
	return f.proxies[childIndex].aabb
}

// GetProxyCount is the number of broad-phase proxies, zero while the body is inactive.
func (f *Fixture) GetProxyCount() int {
	return len(f.proxies)
}

func (f *Fixture) createProxies(broadPhase *collision.BroadPhase, xf common.Transform) {
	common.Assert(len(f.proxies) == 0, "fixture proxies already exist")

	// Create proxies in the broad-phase.
	f.proxies = make([]FixtureProxy, f.shape.GetChildCount())
	for i := range f.proxies {
		proxy := &f.proxies[i]
		proxy.aabb = f.shape.ComputeAABB(xf, i)
		proxy.fixture = f
		proxy.childIndex = i
		proxy.proxyID = broadPhase.CreateProxy(proxy.aabb, proxy)
	}
}

func (f *Fixture) destroyProxies(broadPhase *collision.BroadPhase) {
	// Destroy proxies in the broad-phase.
	for i := range f.proxies {
		broadPhase.DestroyProxy(f.proxies[i].proxyID)
	}
	f.proxies = nil
}

func (f *Fixture) synchronize(broadPhase *collision.BroadPhase, transform1, transform2 common.Transform) {
	for i := range f.proxies {
		proxy := &f.proxies[i]

		// Compute an AABB that covers the swept shape (may miss some rotation effect).
		aabb1 := f.shape.ComputeAABB(transform1, proxy.childIndex)
		aabb2 := f.shape.ComputeAABB(transform2, proxy.childIndex)
		proxy.aabb = collision.Combine(aabb1, aabb2)

		displacement := transform2.P.Sub(transform1.P)

		broadPhase.MoveProxy(proxy.proxyID, proxy.aabb, displacement)
	}
}

func (f *Fixture) dump(logger *slog.Logger, bodyIndex int) {
	attrs := []any{
		slog.Int("body", bodyIndex),
		slog.Float64("friction", float64(f.friction)),
		slog.Float64("restitution", float64(f.restitution)),
		slog.Float64("density", float64(f.density)),
		slog.Bool("sensor", f.isSensor),
		slog.Group("filter",
			slog.Int("categoryBits", int(f.filter.CategoryBits)),
			slog.Int("maskBits", int(f.filter.MaskBits)),
			slog.Int("groupIndex", int(f.filter.GroupIndex)),
		),
		slog.String("shape", f.shape.GetType().String()),
		slog.Float64("radius", float64(f.shape.GetRadius())),
	}

	switch s := f.shape.(type) {
	case *collision.CircleShape:
		attrs = append(attrs, slog.Any("p", s.P))
	case *collision.EdgeShape:
		attrs = append(attrs,
			slog.Any("vertex1", s.Vertex1), slog.Any("vertex2", s.Vertex2),
			slog.Bool("hasVertex0", s.HasVertex0), slog.Bool("hasVertex3", s.HasVertex3))
	case *collision.PolygonShape:
		attrs = append(attrs, slog.Any("vertices", s.Vertices[:s.Count]))
	case *collision.ChainShape:
		attrs = append(attrs, slog.Any("vertices", s.Vertices),
			slog.Bool("hasPrevVertex", s.HasPrevVertex), slog.Bool("hasNextVertex", s.HasNextVertex))
	}

	logger.Info("fixture", attrs...)
}
