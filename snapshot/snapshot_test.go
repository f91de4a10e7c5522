package snapshot

import (
	"errors"
	"strings"
	"testing"

	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
	"github.com/engine-pi/jbox2d/dynamics"
)

func newScene(t *testing.T) (*dynamics.World, []*dynamics.Body) {
	t.Helper()
	world := dynamics.NewWorld(common.MakeVec2(0, -10), dynamics.WithSubStepping(false))

	gd := dynamics.MakeBodyDef()
	ground, err := world.CreateBody(&gd)
	if err != nil {
		t.Fatal(err)
	}
	loop, err := collision.NewChainLoop([]common.Vec2{common.MakeVec2(-20, 0), common.MakeVec2(20, 0), common.MakeVec2(20, 20), common.MakeVec2(-20, 20)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ground.CreateFixtureFromShape(loop, 0); err != nil {
		t.Fatal(err)
	}

	var bodies []*dynamics.Body
	for i := 0; i < 4; i++ {
		bd := dynamics.MakeBodyDef()
		bd.Type = dynamics.DynamicBody
		bd.Position = common.MakeVec2(float32(i)*0.3, 1+1.5*float32(i))
		bd.Angle = 0.1 * float32(i)
		b, err := world.CreateBody(&bd)
		if err != nil {
			t.Fatal(err)
		}

		var shape collision.Shape
		if i%2 == 0 {
			shape, err = collision.NewPolygonShape([]common.Vec2{
				common.MakeVec2(-0.5, -0.5), common.MakeVec2(0.5, -0.5), common.MakeVec2(0.5, 0.5), common.MakeVec2(-0.5, 0.5),
			})
		} else {
			shape, err = collision.NewCircleShape(0.5)
		}
		if err != nil {
			t.Fatal(err)
		}

		fd := dynamics.MakeFixtureDef()
		fd.Shape = shape
		fd.Density = 1
		fd.Friction = 0.4
		fd.Restitution = 0.1
		fd.Filter.GroupIndex = int16(i)
		if _, err := b.CreateFixture(&fd); err != nil {
			t.Fatal(err)
		}
		bodies = append(bodies, b)
	}

	var rj dynamics.RevoluteJointDef
	rj.Initialize(ground, bodies[0], common.MakeVec2(0, 2))
	rj.EnableLimit = true
	rj.LowerAngle, rj.UpperAngle = -0.5, 0.5
	if _, err := world.CreateJoint(&rj); err != nil {
		t.Fatal(err)
	}

	dj := dynamics.MakeDistanceJointDef()
	dj.Initialize(bodies[1], bodies[2], bodies[1].GetPosition(), bodies[2].GetPosition())
	dj.FrequencyHz = 3
	dj.DampingRatio = 0.5
	if _, err := world.CreateJoint(&dj); err != nil {
		t.Fatal(err)
	}

	return world, append([]*dynamics.Body{ground}, bodies...)
}

func roundTrip(t *testing.T, doc *Document) *Document {
	t.Helper()
	data, err := Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, data)
	}
	return out
}

func TestCaptureRecordsWorld(t *testing.T) {
	world, _ := newScene(t)

	doc, err := Capture(world)
	if err != nil {
		t.Fatal(err)
	}

	if len(doc.Bodies) != world.GetBodyCount() {
		t.Errorf("bodies = %d, want %d", len(doc.Bodies), world.GetBodyCount())
	}
	if len(doc.Joints) != 2 {
		t.Errorf("joints = %d, want 2", len(doc.Joints))
	}

	// The ground was created first, so it is last in the body list.
	ground := doc.Bodies[len(doc.Bodies)-1]
	if ground.Kind != "static" || len(ground.Fixtures) != 1 {
		t.Fatalf("ground record = %+v", ground)
	}
	chain := ground.Fixtures[0].Geometry
	if chain.Kind != "chain" || len(chain.Vertices) != 5 || chain.Prev == nil || chain.Next == nil {
		t.Errorf("chain record = %+v", chain)
	}

	var kinds []string
	for _, j := range doc.Joints {
		kinds = append(kinds, j.Kind)
	}
	if got := strings.Join(kinds, ","); got != "distance,revolute" {
		t.Errorf("joint order = %s", got)
	}
	if rev := doc.Joints[1]; !rev.EnableLimit || rev.LowerAngle != -0.5 || rev.UpperAngle != 0.5 {
		t.Errorf("revolute record = %+v", rev)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	world, _ := newScene(t)
	for i := 0; i < 30; i++ {
		world.Step(1.0/60.0, 8, 3)
	}

	doc, err := Capture(world)
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "type: revolute") || !strings.Contains(string(data), "linear_velocity:") {
		t.Errorf("unexpected document:\n%s", data)
	}

	back := roundTrip(t, doc)
	for i := range doc.Bodies {
		want, got := doc.Bodies[i], back.Bodies[i]
		if want.Position != got.Position || want.Angle != got.Angle || want.LinearVelocity != got.LinearVelocity {
			t.Errorf("body %d: got %+v, want %+v", i, got, want)
		}
		if len(want.Fixtures) != len(got.Fixtures) || want.Fixtures[0].Filter != got.Fixtures[0].Filter {
			t.Errorf("body %d fixtures: got %+v, want %+v", i, got.Fixtures, want.Fixtures)
		}
	}
	if *back.Tuning != *doc.Tuning {
		t.Errorf("tuning = %+v, want %+v", *back.Tuning, *doc.Tuning)
	}
}

func TestRestoreReproducesTrajectory(t *testing.T) {
	original, _ := newScene(t)

	doc, err := Capture(original)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := Restore(roundTrip(t, doc))
	if err != nil {
		t.Fatal(err)
	}

	if restored.GetBodyCount() != original.GetBodyCount() || restored.GetJointCount() != original.GetJointCount() {
		t.Fatalf("restored %d bodies, %d joints", restored.GetBodyCount(), restored.GetJointCount())
	}

	for i := 0; i < 120; i++ {
		original.Step(1.0/60.0, 8, 3)
		restored.Step(1.0/60.0, 8, 3)
	}

	rb := restored.GetBodyList()
	for b := original.GetBodyList(); b != nil; b, rb = b.GetNext(), rb.GetNext() {
		p, q := b.GetPosition(), rb.GetPosition()
		if math32.Abs(p.X-q.X) > 1e-4 || math32.Abs(p.Y-q.Y) > 1e-4 {
			t.Errorf("restored body at %v, original at %v", q, p)
		}
		if math32.Abs(b.GetMass()-rb.GetMass()) > 1e-5 {
			t.Errorf("restored mass %v, original %v", rb.GetMass(), b.GetMass())
		}
	}
}

func TestRestoreKeepsPolygonVertexOrder(t *testing.T) {
	world := dynamics.NewWorld(common.MakeVec2(0, -10))
	bd := dynamics.MakeBodyDef()
	bd.Type = dynamics.DynamicBody
	body, err := world.CreateBody(&bd)
	if err != nil {
		t.Fatal(err)
	}
	box, err := collision.NewBoxShape(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := body.CreateFixtureFromShape(box, 1); err != nil {
		t.Fatal(err)
	}

	doc, err := Capture(world)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := Restore(roundTrip(t, doc))
	if err != nil {
		t.Fatal(err)
	}
	again, err := Capture(restored)
	if err != nil {
		t.Fatal(err)
	}

	want := doc.Bodies[0].Fixtures[0].Geometry.Vertices
	got := again.Bodies[0].Fixtures[0].Geometry.Vertices
	if len(got) != len(want) {
		t.Fatalf("vertices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vertices = %v, want %v", got, want)
			break
		}
	}
}

func TestUnsupportedJoints(t *testing.T) {
	world, bodies := newScene(t)

	md := dynamics.MakeMouseJointDef()
	md.BodyA, md.BodyB = bodies[0], bodies[1]
	md.Target = bodies[1].GetPosition()
	md.MaxForce = 100
	if _, err := world.CreateJoint(&md); err != nil {
		t.Fatal(err)
	}

	t.Run("fails by default", func(t *testing.T) {
		_, err := Capture(world)
		var unsupported *UnsupportedError
		if !errors.As(err, &unsupported) {
			t.Fatalf("err = %v, want UnsupportedError", err)
		}
		if unsupported.Type != dynamics.JointMouse || unsupported.Index != 0 {
			t.Errorf("unsupported = %+v", unsupported)
		}
	})

	t.Run("skipped on request", func(t *testing.T) {
		doc, err := Capture(world, SkipUnsupported())
		if err != nil {
			t.Fatal(err)
		}
		if len(doc.Joints) != 2 {
			t.Errorf("joints = %d, want 2", len(doc.Joints))
		}
	})
}

func TestRestoreRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown body type": `
bodies:
  - type: floating
`,
		"unknown shape": `
bodies:
  - type: dynamic
    fixtures:
      - shape: {type: blob}
`,
		"dangling joint": `
bodies:
  - type: static
  - type: dynamic
joints:
  - type: weld
    body_a: 0
    body_b: 7
`,
		"unknown joint type": `
bodies:
  - type: static
  - type: dynamic
joints:
  - type: gear
    body_a: 0
    body_b: 1
`,
	}

	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			doc, err := Unmarshal([]byte(src))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := Restore(doc); !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}

	t.Run("invalid yaml", func(t *testing.T) {
		if _, err := Unmarshal([]byte("bodies: [")); !errors.Is(err, ErrMalformed) {
			t.Errorf("err = %v, want ErrMalformed", err)
		}
	})
}
