package dynamics

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

const (
	testDt                 = float32(1.0 / 60.0)
	testVelocityIterations = 8
	testPositionIterations = 3
)

func near(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}

func stepN(world *World, n int) {
	for i := 0; i < n; i++ {
		world.Step(testDt, testVelocityIterations, testPositionIterations)
	}
}

// newGround creates a static body with a long edge along y = 0.
func newGround(t *testing.T, world *World) *Body {
	t.Helper()
	bd := MakeBodyDef()
	ground, err := world.CreateBody(&bd)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ground.CreateFixtureFromShape(collision.NewEdgeShape(common.MakeVec2(-40, 0), common.MakeVec2(40, 0)), 0); err != nil {
		t.Fatal(err)
	}
	return ground
}

func newTestBody(t *testing.T, world *World, bodyType BodyType, position common.Vec2) *Body {
	t.Helper()
	bd := MakeBodyDef()
	bd.Type = bodyType
	bd.Position = position
	body, err := world.CreateBody(&bd)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func newBox(t *testing.T, world *World, position common.Vec2, hx, hy float32) *Body {
	t.Helper()
	body := newTestBody(t, world, DynamicBody, position)
	shape, err := collision.NewBoxShape(hx, hy)
	if err != nil {
		t.Fatal(err)
	}
	fd := MakeFixtureDef()
	fd.Shape = shape
	fd.Density = 1.0
	fd.Friction = 0.6
	if _, err := body.CreateFixture(&fd); err != nil {
		t.Fatal(err)
	}
	return body
}

func newBall(t *testing.T, world *World, position common.Vec2, radius float32) *Body {
	t.Helper()
	body := newTestBody(t, world, DynamicBody, position)
	shape, err := collision.NewCircleShape(radius)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := body.CreateFixtureFromShape(shape, 1.0); err != nil {
		t.Fatal(err)
	}
	return body
}

func mustJoint(t *testing.T, world *World, def JointDef) Joint {
	t.Helper()
	j, err := world.CreateJoint(def)
	if err != nil {
		t.Fatalf("CreateJoint(%v): %v", def.Type(), err)
	}
	return j
}

// contactRecorder counts listener events and runs an optional PreSolve hook.
type contactRecorder struct {
	begin, end int
	preSolve   func(*Contact)
	postSolve  func(*Contact, *ContactImpulse)
}

func (r *contactRecorder) BeginContact(*Contact) { r.begin++ }
func (r *contactRecorder) EndContact(*Contact)   { r.end++ }

func (r *contactRecorder) PreSolve(c *Contact, _ *collision.Manifold) {
	if r.preSolve != nil {
		r.preSolve(c)
	}
}

func (r *contactRecorder) PostSolve(c *Contact, impulse *ContactImpulse) {
	if r.postSolve != nil {
		r.postSolve(c, impulse)
	}
}
