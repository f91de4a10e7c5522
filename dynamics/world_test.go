package dynamics

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/exp/slices"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

// characterScene builds a small scene of mixed shapes on a ground with
// several edge, chain and tile obstacles.
func characterScene(t *testing.T) (*World, map[string]*Body) {
	t.Helper()
	world := NewWorld(common.MakeVec2(0, -10))
	characters := make(map[string]*Body)

	characters["00_ground"] = newGround(t, world)

	{
		bd := MakeBodyDef()
		bd.Angle = 0.25 * common.Pi
		chain, err := world.CreateBody(&bd)
		if err != nil {
			t.Fatal(err)
		}
		shape, err := collision.NewChain([]common.Vec2{{X: 5, Y: 7}, {X: 6, Y: 8}, {X: 7, Y: 8}, {X: 8, Y: 7}})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := chain.CreateFixtureFromShape(shape, 0); err != nil {
			t.Fatal(err)
		}
		characters["01_chainshape"] = chain
	}

	{
		tiles := newTestBody(t, world, StaticBody, common.MakeVec2(0, 0))
		for _, x := range []float32{4, 6, 8} {
			shape, err := collision.NewPolygonShape([]common.Vec2{{X: x - 1, Y: 2}, {X: x + 1, Y: 2}, {X: x + 1, Y: 4}, {X: x - 1, Y: 4}})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := tiles.CreateFixtureFromShape(shape, 0); err != nil {
				t.Fatal(err)
			}
		}
		characters["02_tiles"] = tiles
	}

	characters["03_box"] = newBox(t, world, common.MakeVec2(-3, 5), 0.5, 0.5)
	characters["04_smallbox"] = newBox(t, world, common.MakeVec2(-5, 5), 0.25, 0.25)
	characters["05_ball"] = newBall(t, world, common.MakeVec2(3, 5), 0.5)
	characters["06_smallball"] = newBall(t, world, common.MakeVec2(-7, 6), 0.25)

	return world, characters
}

func trace(world *World, characters map[string]*Body, steps int) string {
	names := make([]string, 0, len(characters))
	for name := range characters {
		names = append(names, name)
	}
	sort.Strings(names)

	var out strings.Builder
	for i := 0; i < steps; i++ {
		world.Step(testDt, testVelocityIterations, testPositionIterations)
		for _, name := range names {
			body := characters[name]
			p := body.GetPosition()
			fmt.Fprintf(&out, "%v(%s): %4.3f %4.3f %4.3f\n", i, name, p.X, p.Y, body.GetAngle())
		}
	}
	return out.String()
}

func TestDeterministicTrace(t *testing.T) {
	worldA, charactersA := characterScene(t)
	worldB, charactersB := characterScene(t)

	expected := trace(worldA, charactersA, 120)
	output := trace(worldB, charactersB, 120)

	if output != expected {
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(expected),
			B:        difflib.SplitLines(output),
			FromFile: "First",
			ToFile:   "Second",
			Context:  0,
		}
		text, _ := difflib.GetUnifiedDiffString(diff)
		t.Fatalf("identical scenes diverged:\n%s", text)
	}

	// Something actually moved.
	if p := charactersA["03_box"].GetPosition(); p.Y > 4.0 {
		t.Errorf("box did not fall: %v", p)
	}
}

func newStack(t *testing.T, world *World, n int) []*Body {
	t.Helper()
	newGround(t, world)
	boxes := make([]*Body, n)
	for i := range boxes {
		boxes[i] = newBox(t, world, common.MakeVec2(0, 0.55+1.05*float32(i)), 0.5, 0.5)
	}
	return boxes
}

func TestStackSettlesAndSleeps(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	boxes := newStack(t, world, 5)

	stepN(world, 900)

	for i, box := range boxes {
		p := box.GetPosition()
		want := 0.5 + float32(i)
		if !near(p.Y, want, 0.1) || !near(p.X, 0, 0.1) {
			t.Errorf("box %d at %v, want near (0, %v)", i, p, want)
		}
		if box.IsAwake() {
			t.Errorf("box %d still awake", i)
		}
	}
}

func TestWakePropagatesThroughContacts(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	boxes := newStack(t, world, 3)

	stepN(world, 900)
	for i, box := range boxes {
		if box.IsAwake() {
			t.Fatalf("box %d did not fall asleep", i)
		}
	}

	boxes[2].SetAwake(true)
	stepN(world, 1)

	for i, box := range boxes {
		if !box.IsAwake() {
			t.Errorf("box %d was not woken by the stack above it", i)
		}
	}
}

func TestAllowSleepDisabled(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10), WithAllowSleep(false))
	boxes := newStack(t, world, 2)

	stepN(world, 900)

	for i, box := range boxes {
		if !box.IsAwake() {
			t.Errorf("box %d fell asleep with sleeping disabled", i)
		}
	}

	world.SetAllowSleeping(true)
	stepN(world, 120)
	for i, box := range boxes {
		if box.IsAwake() {
			t.Errorf("box %d still awake after re-enabling sleep", i)
		}
	}
}

func TestRestingContactImpulse(t *testing.T) {
	for _, warm := range []bool{true, false} {
		t.Run(fmt.Sprintf("warmStarting=%v", warm), func(t *testing.T) {
			world := NewWorld(common.MakeVec2(0, -10), WithWarmStarting(warm), WithAllowSleep(false))
			box := newStack(t, world, 1)[0]

			var total float32
			recorder := &contactRecorder{
				postSolve: func(_ *Contact, impulse *ContactImpulse) {
					for i := 0; i < impulse.Count; i++ {
						total += impulse.NormalImpulses[i]
					}
				},
			}
			world.SetContactListener(recorder)

			stepN(world, 240)

			total = 0
			stepN(world, 1)

			// At rest the contact carries the body's weight over one step.
			want := box.GetMass() * 10 * testDt
			if !near(total, want, 0.05*want) {
				t.Errorf("normal impulse = %v, want %v", total, want)
			}
		})
	}
}

func TestContactEventsAndSensors(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))

	sensorBody := newTestBody(t, world, StaticBody, common.MakeVec2(0, 5))
	shape, err := collision.NewBoxShape(2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	fd := MakeFixtureDef()
	fd.Shape = shape
	fd.IsSensor = true
	if _, err := sensorBody.CreateFixture(&fd); err != nil {
		t.Fatal(err)
	}

	ball := newBall(t, world, common.MakeVec2(0, 8), 0.25)

	recorder := &contactRecorder{}
	world.SetContactListener(recorder)

	stepN(world, 120)

	if recorder.begin != 1 || recorder.end != 1 {
		t.Errorf("begin/end = %d/%d, want 1/1", recorder.begin, recorder.end)
	}
	if p := ball.GetPosition(); p.Y > 4.0 {
		t.Errorf("sensor stopped the ball at %v", p)
	}
}

func TestZeroStepIsNoOp(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, 0))
	a := newBall(t, world, common.MakeVec2(0, 0), 0.5)
	b := newBall(t, world, common.MakeVec2(0.5, 0), 0.5)

	recorder := &contactRecorder{}
	world.SetContactListener(recorder)

	world.Step(0, testVelocityIterations, testPositionIterations)
	if recorder.begin != 0 || world.GetContactCount() != 0 {
		t.Fatalf("zero step: begin = %d, contacts = %d", recorder.begin, world.GetContactCount())
	}
	if p := b.GetPosition(); p != common.MakeVec2(0.5, 0) {
		t.Errorf("zero step moved the ball to %v", p)
	}

	stepN(world, 1)
	if recorder.begin != 1 || world.GetContactCount() != 1 {
		t.Fatalf("after one step: begin = %d, contacts = %d", recorder.begin, world.GetContactCount())
	}

	b.SetTransform(common.MakeVec2(10, 0), 0)
	pa, va := a.GetPosition(), a.GetLinearVelocity()

	world.Step(0, testVelocityIterations, testPositionIterations)
	if recorder.end != 0 || world.GetContactCount() != 1 {
		t.Errorf("zero step: end = %d, contacts = %d", recorder.end, world.GetContactCount())
	}
	if a.GetPosition() != pa || a.GetLinearVelocity() != va {
		t.Errorf("zero step changed the resting ball")
	}

	stepN(world, 1)
	if recorder.end != 1 || world.GetContactCount() != 0 {
		t.Errorf("after one step: end = %d, contacts = %d", recorder.end, world.GetContactCount())
	}
}

func TestFilterRule(t *testing.T) {
	cases := []struct {
		name string
		a, b Filter
		want bool
	}{
		{"defaults collide", MakeFilter(), MakeFilter(), true},
		{"same positive group", Filter{CategoryBits: 1, MaskBits: 0, GroupIndex: 3}, Filter{CategoryBits: 1, MaskBits: 0, GroupIndex: 3}, true},
		{"same negative group", Filter{CategoryBits: 1, MaskBits: 0xFFFF, GroupIndex: -2}, Filter{CategoryBits: 1, MaskBits: 0xFFFF, GroupIndex: -2}, false},
		{"mask rejects category", Filter{CategoryBits: 0x2, MaskBits: 0x4}, Filter{CategoryBits: 0x8, MaskBits: 0xFFFF}, false},
		{"masks accept both", Filter{CategoryBits: 0x2, MaskBits: 0x4}, Filter{CategoryBits: 0x4, MaskBits: 0x2}, true},
		{"different groups use masks", Filter{CategoryBits: 1, MaskBits: 0xFFFF, GroupIndex: -1}, Filter{CategoryBits: 1, MaskBits: 0xFFFF, GroupIndex: -2}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldCollideFilters(tc.a, tc.b); got != tc.want {
				t.Errorf("ShouldCollideFilters = %v, want %v", got, tc.want)
			}
			if got := ShouldCollideFilters(tc.b, tc.a); got != tc.want {
				t.Errorf("rule is not symmetric")
			}
		})
	}

	t.Run("filtered bodies pass through each other", func(t *testing.T) {
		world := NewWorld(common.MakeVec2(0, -10))
		ground := newGround(t, world)
		filter := ground.GetFixtureList().GetFilterData()
		filter.GroupIndex = -1
		ground.GetFixtureList().SetFilterData(filter)

		box := newBox(t, world, common.MakeVec2(0, 2), 0.5, 0.5)
		box.GetFixtureList().SetFilterData(filter)

		stepN(world, 120)
		if p := box.GetPosition(); p.Y > -1.0 {
			t.Errorf("box rests on a filtered ground at %v", p)
		}
	})
}

func TestConveyorTangentSpeed(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	belt := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 0.55), 0.5, 0.5)

	recorder := &contactRecorder{
		preSolve: func(c *Contact) {
			if c.GetFixtureA().GetBody() == belt || c.GetFixtureB().GetBody() == belt {
				c.SetTangentSpeed(5.0)
			}
		},
	}
	world.SetContactListener(recorder)

	stepN(world, 120)

	if v := box.GetLinearVelocity(); common.Abs(v.X) < 1.0 {
		t.Errorf("belt did not drag the box: v = %v", v)
	}
	if p := box.GetPosition(); common.Abs(p.X) < 1.0 {
		t.Errorf("box did not travel: p = %v", p)
	}
}

func TestWorldLocked(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	newStack(t, world, 1)

	var errs []error
	recorder := &contactRecorder{
		preSolve: func(c *Contact) {
			bd := MakeBodyDef()
			_, err := world.CreateBody(&bd)
			errs = append(errs, err)
			errs = append(errs, world.DestroyBody(c.GetFixtureA().GetBody()))
			errs = append(errs, world.ShiftOrigin(common.MakeVec2(1, 0)))
			errs = append(errs, world.Dump())
		},
	}
	world.SetContactListener(recorder)

	stepN(world, 60)

	if len(errs) == 0 {
		t.Fatal("PreSolve never ran")
	}
	for _, err := range errs {
		if !errors.Is(err, ErrWorldLocked) {
			t.Fatalf("err = %v, want ErrWorldLocked", err)
		}
	}
	if world.IsLocked() {
		t.Error("world still locked after Step")
	}
}

func TestQueryAABBAndRayCast(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, 0))
	left := newBox(t, world, common.MakeVec2(-5, 0), 0.5, 0.5)
	right := newBox(t, world, common.MakeVec2(5, 0), 0.5, 0.5)
	world.Step(testDt, testVelocityIterations, testPositionIterations)

	t.Run("query", func(t *testing.T) {
		var found []*Body
		world.QueryAABB(func(f *Fixture) bool {
			found = append(found, f.GetBody())
			return true
		}, collision.MakeAABB(common.MakeVec2(-6, -1), common.MakeVec2(-4, 1)))

		if len(found) != 1 || found[0] != left {
			t.Errorf("query found %v", found)
		}
	})

	t.Run("closest ray hit", func(t *testing.T) {
		var hit *Body
		var hitPoint common.Vec2
		world.RayCast(func(f *Fixture, point, normal common.Vec2, fraction float32) float32 {
			hit = f.GetBody()
			hitPoint = point
			return fraction
		}, common.MakeVec2(-10, 0), common.MakeVec2(10, 0))

		if hit != left {
			t.Fatalf("closest hit = %v, want left box", hit)
		}
		if !near(hitPoint.X, -5.5, 1e-3) {
			t.Errorf("hit point = %v", hitPoint)
		}
	})

	t.Run("filtered ray", func(t *testing.T) {
		var hits []*Body
		world.RayCast(func(f *Fixture, point, normal common.Vec2, fraction float32) float32 {
			hits = append(hits, f.GetBody())
			return 1
		}, common.MakeVec2(-10, 0), common.MakeVec2(10, 0))

		if len(hits) != 2 {
			t.Fatalf("hits = %v", hits)
		}
		if (hits[0] != left || hits[1] != right) && (hits[0] != right || hits[1] != left) {
			t.Errorf("unexpected hits %v", hits)
		}
	})
}

type goodbyeRecorder struct {
	joints   []Joint
	fixtures []*Fixture
}

func (r *goodbyeRecorder) SayGoodbyeToJoint(j Joint)      { r.joints = append(r.joints, j) }
func (r *goodbyeRecorder) SayGoodbyeToFixture(f *Fixture) { r.fixtures = append(r.fixtures, f) }

func TestDestroyBodyNotifiesListener(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 3), 0.5, 0.5)

	var def RevoluteJointDef
	def.Initialize(ground, box, common.MakeVec2(0, 4))
	joint := mustJoint(t, world, &def)

	recorder := &goodbyeRecorder{}
	world.SetDestructionListener(recorder)

	if err := world.DestroyBody(box); err != nil {
		t.Fatal(err)
	}

	if len(recorder.joints) != 1 || recorder.joints[0] != joint {
		t.Errorf("joints said goodbye: %v", recorder.joints)
	}
	if len(recorder.fixtures) != 1 {
		t.Errorf("fixtures said goodbye: %d", len(recorder.fixtures))
	}
	if world.GetJointCount() != 0 || world.GetBodyCount() != 1 {
		t.Errorf("counts = %d joints, %d bodies", world.GetJointCount(), world.GetBodyCount())
	}
	if ground.GetJointList() != nil {
		t.Error("ground still lists the destroyed joint")
	}
}

func TestShiftOrigin(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(10, 3), 0.5, 0.5)

	def := MakeMouseJointDef()
	def.BodyA = ground
	def.BodyB = box
	def.Target = common.MakeVec2(10, 3)
	def.MaxForce = 100
	mouse := mustJoint(t, world, &def).(*MouseJoint)

	if err := world.ShiftOrigin(common.MakeVec2(10, 0)); err != nil {
		t.Fatal(err)
	}

	if p := box.GetPosition(); !near(p.X, 0, 1e-5) || !near(p.Y, 3, 1e-5) {
		t.Errorf("box at %v after shift", p)
	}
	if target := mouse.GetTarget(); !near(target.X, 0, 1e-5) {
		t.Errorf("mouse target at %v after shift", target)
	}
}

type drawRecorder struct {
	flags    DrawFlags
	polygons int
	solids   int
	circles  int
	segments int
	xfs      int
	origins  []mgl32.Vec2
}

func (d *drawRecorder) GetFlags() DrawFlags                                             { return d.flags }
func (d *drawRecorder) DrawPolygon([]common.Vec2, common.Color)                         { d.polygons++ }
func (d *drawRecorder) DrawSolidPolygon([]common.Vec2, common.Color)                    { d.solids++ }
func (d *drawRecorder) DrawCircle(common.Vec2, float32, common.Color)                   { d.circles++ }
func (d *drawRecorder) DrawSolidCircle(common.Vec2, float32, common.Vec2, common.Color) { d.circles++ }
func (d *drawRecorder) DrawSegment(common.Vec2, common.Vec2, common.Color)              { d.segments++ }
func (d *drawRecorder) DrawTransform(m mgl32.Mat3) {
	d.xfs++
	d.origins = append(d.origins, m.Mul3x1(mgl32.Vec3{0, 0, 1}).Vec2())
}
func (d *drawRecorder) DrawPoint(common.Vec2, float32, common.Color) {}

func TestDrawDebugData(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 3), 0.5, 0.5)
	newBall(t, world, common.MakeVec2(3, 3), 0.5)

	def := MakeDistanceJointDef()
	def.Initialize(ground, box, common.MakeVec2(0, 5), box.GetPosition())
	mustJoint(t, world, &def)

	cases := []struct {
		flags DrawFlags
		check func(*drawRecorder) bool
	}{
		{DrawShape, func(d *drawRecorder) bool { return d.solids == 1 && d.circles == 1 && d.segments == 1 }},
		{DrawJoint, func(d *drawRecorder) bool { return d.segments == 1 }},
		{DrawAABB, func(d *drawRecorder) bool { return d.polygons == 3 }},
		{DrawCenterOfMass, func(d *drawRecorder) bool {
			return d.xfs == 3 && slices.ContainsFunc(d.origins, func(o mgl32.Vec2) bool {
				c := box.GetWorldCenter()
				return near(o.X(), c.X, 1e-5) && near(o.Y(), c.Y, 1e-5)
			})
		}},
		{0, func(d *drawRecorder) bool { return d.polygons+d.solids+d.circles+d.segments+d.xfs == 0 }},
	}

	for _, tc := range cases {
		d := &drawRecorder{flags: tc.flags}
		world.SetDebugDraw(d)
		world.DrawDebugData()
		d.flags = 0
		if !tc.check(d) {
			t.Errorf("flags %b drew %+v", tc.flags, *d)
		}
	}
}

func TestDumpLogsEveryEntity(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	world := NewWorld(common.MakeVec2(0, -10), WithLogger(logger))

	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 3), 0.5, 0.5)
	var def WeldJointDef
	def.Initialize(ground, box, common.MakeVec2(0, 3))
	mustJoint(t, world, &def)

	if err := world.Dump(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"msg=world", "msg=body", "msg=fixture", "type=weld"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump is missing %q:\n%s", want, out)
		}
	}
}
