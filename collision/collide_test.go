package collision

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/common"
)

func worldManifold(m *Manifold, xfA common.Transform, rA float32, xfB common.Transform, rB float32) WorldManifold {
	var wm WorldManifold
	wm.Initialize(m, xfA, rA, xfB, rB)
	return wm
}

func TestCollideCircles(t *testing.T) {
	a := mustCircle(t, 1)
	b := mustCircle(t, 1)
	xfA := common.IdentityTransform()
	xfB := common.MakeTransform(common.MakeVec2(1.5, 0), 0)

	var m Manifold
	CollideCircles(&m, a, xfA, b, xfB)
	if m.PointCount != 1 || m.Type != ManifoldCircles {
		t.Fatalf("manifold = %+v", m)
	}

	wm := worldManifold(&m, xfA, a.Radius, xfB, b.Radius)
	if !near(wm.Separations[0], -0.5) {
		t.Errorf("separation = %v, want -0.5", wm.Separations[0])
	}
	if !near(wm.Normal.X, 1) || !near(wm.Normal.Y, 0) {
		t.Errorf("normal = %v", wm.Normal)
	}
	if !near(wm.Points[0].X, 0.75) {
		t.Errorf("point = %v", wm.Points[0])
	}

	CollideCircles(&m, a, xfA, b, common.MakeTransform(common.MakeVec2(2.5, 0), 0))
	if m.PointCount != 0 {
		t.Errorf("separated circles produced %d points", m.PointCount)
	}
}

func TestCollidePolygons(t *testing.T) {
	a := mustBox(t, 1, 1)
	b := mustBox(t, 1, 1)
	xfA := common.IdentityTransform()

	t.Run("resting box gets two points", func(t *testing.T) {
		xfB := common.MakeTransform(common.MakeVec2(0.2, 1.9), 0)
		var m Manifold
		CollidePolygons(&m, a, xfA, b, xfB)
		if m.PointCount != 2 {
			t.Fatalf("point count = %d", m.PointCount)
		}

		wm := worldManifold(&m, xfA, a.Radius, xfB, b.Radius)
		if !near(wm.Normal.X, 0) || !near(wm.Normal.Y, 1) {
			t.Errorf("normal = %v, want up", wm.Normal)
		}
		want := -0.1 - 2*common.PolygonRadius
		for i := 0; i < m.PointCount; i++ {
			if !near(wm.Separations[i], want) {
				t.Errorf("separation[%d] = %v, want %v", i, wm.Separations[i], want)
			}
		}
		if m.Points[0].ID.Key() == m.Points[1].ID.Key() {
			t.Error("points share an id")
		}
	})

	t.Run("ids are stable under small motion", func(t *testing.T) {
		var m1, m2 Manifold
		CollidePolygons(&m1, a, xfA, b, common.MakeTransform(common.MakeVec2(0.2, 1.9), 0))
		CollidePolygons(&m2, a, xfA, b, common.MakeTransform(common.MakeVec2(0.21, 1.91), 0.01))
		s1, s2 := GetPointStates(&m1, &m2)
		for i := 0; i < 2; i++ {
			if s1[i] != PersistState || s2[i] != PersistState {
				t.Errorf("states %v %v", s1, s2)
			}
		}
	})

	t.Run("separated", func(t *testing.T) {
		var m Manifold
		CollidePolygons(&m, a, xfA, b, common.MakeTransform(common.MakeVec2(0, 2.5), 0))
		if m.PointCount != 0 {
			t.Errorf("point count = %d", m.PointCount)
		}
	})
}

func TestCollidePolygonAndCircle(t *testing.T) {
	box := mustBox(t, 1, 1)
	circle := mustCircle(t, 0.5)
	xfA := common.IdentityTransform()

	t.Run("face region", func(t *testing.T) {
		xfB := common.MakeTransform(common.MakeVec2(0.3, 1.4), 0)
		var m Manifold
		CollidePolygonAndCircle(&m, box, xfA, circle, xfB)
		if m.PointCount != 1 || m.Type != ManifoldFaceA {
			t.Fatalf("manifold = %+v", m)
		}
		wm := worldManifold(&m, xfA, box.Radius, xfB, circle.Radius)
		if !near(wm.Separations[0], -0.1-common.PolygonRadius) {
			t.Errorf("separation = %v", wm.Separations[0])
		}
	})

	t.Run("vertex region", func(t *testing.T) {
		xfB := common.MakeTransform(common.MakeVec2(1.3, 1.3), 0)
		var m Manifold
		CollidePolygonAndCircle(&m, box, xfA, circle, xfB)
		if m.PointCount != 1 {
			t.Fatalf("point count = %d", m.PointCount)
		}
		if !near(m.LocalNormal.X, m.LocalNormal.Y) {
			t.Errorf("corner normal = %v", m.LocalNormal)
		}
	})

	t.Run("outside", func(t *testing.T) {
		var m Manifold
		CollidePolygonAndCircle(&m, box, xfA, circle, common.MakeTransform(common.MakeVec2(1.5, 1.5), 0))
		if m.PointCount != 0 {
			t.Errorf("point count = %d", m.PointCount)
		}
	})
}

func TestCollideEdge(t *testing.T) {
	xfA := common.IdentityTransform()

	t.Run("circle in previous edge region is skipped", func(t *testing.T) {
		circle := mustCircle(t, 0.5)
		xfB := common.MakeTransform(common.MakeVec2(-0.2, 0.4), 0)

		edge := NewEdgeShape(common.MakeVec2(0, 0), common.MakeVec2(2, 0))
		var m Manifold
		CollideEdgeAndCircle(&m, edge, xfA, circle, xfB)
		if m.PointCount != 1 {
			t.Fatalf("isolated edge: point count = %d", m.PointCount)
		}

		edge.SetGhostVertices(common.MakeVec2(-2, 0), true, common.Vec2Zero, false)
		CollideEdgeAndCircle(&m, edge, xfA, circle, xfB)
		if m.PointCount != 0 {
			t.Errorf("ghosted edge: point count = %d", m.PointCount)
		}
	})

	t.Run("circle over face", func(t *testing.T) {
		circle := mustCircle(t, 0.5)
		edge := NewEdgeShape(common.MakeVec2(-2, 0), common.MakeVec2(2, 0))
		var m Manifold
		CollideEdgeAndCircle(&m, edge, xfA, circle, common.MakeTransform(common.MakeVec2(0.5, -0.45), 0))
		if m.PointCount != 1 || m.Type != ManifoldFaceA {
			t.Fatalf("manifold = %+v", m)
		}
		if !near(m.LocalNormal.Y, -1) {
			t.Errorf("normal should face the circle, got %v", m.LocalNormal)
		}
	})

	t.Run("box across internal vertex gets face normal", func(t *testing.T) {
		box := mustBox(t, 0.5, 0.5)
		xfB := common.MakeTransform(common.MakeVec2(0, 0.49), 0)

		edge := NewEdgeShape(common.MakeVec2(0, 0), common.MakeVec2(2, 0))
		edge.SetGhostVertices(common.MakeVec2(-2, 0), true, common.MakeVec2(4, 0), true)

		var m Manifold
		CollideEdgeAndPolygon(&m, edge, xfA, box, xfB)
		if m.PointCount == 0 {
			t.Fatal("no contact")
		}
		wm := worldManifold(&m, xfA, edge.Radius, xfB, box.Radius)
		if !near(wm.Normal.X, 0) || !near(wm.Normal.Y, 1) {
			t.Errorf("normal = %v, want up", wm.Normal)
		}
	})

	t.Run("box from below an isolated edge", func(t *testing.T) {
		box := mustBox(t, 0.5, 0.5)
		xfB := common.MakeTransform(common.MakeVec2(1, -0.49), 0)
		edge := NewEdgeShape(common.MakeVec2(0, 0), common.MakeVec2(2, 0))

		var m Manifold
		CollideEdgeAndPolygon(&m, edge, xfA, box, xfB)
		if m.PointCount != 2 {
			t.Fatalf("point count = %d", m.PointCount)
		}
		wm := worldManifold(&m, xfA, edge.Radius, xfB, box.Radius)
		if !near(wm.Normal.Y, -1) {
			t.Errorf("normal = %v, want down", wm.Normal)
		}
	})
}

func TestClipSegmentToLine(t *testing.T) {
	in := [2]ClipVertex{
		{V: common.MakeVec2(-1, 0), ID: ContactID{IndexB: 3}},
		{V: common.MakeVec2(1, 0), ID: ContactID{IndexB: 4}},
	}
	var out [2]ClipVertex
	n := ClipSegmentToLine(&out, in, common.MakeVec2(1, 0), 0.5, 7)
	if n != 2 {
		t.Fatalf("count = %d", n)
	}
	if out[0].V != in[0].V {
		t.Errorf("kept point = %v", out[0].V)
	}
	if !near(out[1].V.X, 0.5) {
		t.Errorf("clipped point = %v", out[1].V)
	}
	if out[1].ID.IndexA != 7 || out[1].ID.TypeA != FeatureVertex || out[1].ID.TypeB != FeatureFace {
		t.Errorf("clipped id = %+v", out[1].ID)
	}

	if n := ClipSegmentToLine(&out, in, common.MakeVec2(1, 0), -2, 0); n != 0 {
		t.Errorf("fully clipped count = %d", n)
	}
}

func TestContactIDSwap(t *testing.T) {
	id := ContactID{IndexA: 1, IndexB: 2, TypeA: FeatureFace, TypeB: FeatureVertex}
	swapped := id.Swap()
	if swapped.IndexA != 2 || swapped.TypeA != FeatureVertex || swapped.Swap() != id {
		t.Errorf("swap = %+v", swapped)
	}
	var other ContactID
	other.SetKey(id.Key())
	if other != id {
		t.Errorf("key did not round trip: %+v", other)
	}
}

func TestDistance(t *testing.T) {
	a := mustBox(t, 1, 1)
	b := mustBox(t, 1, 1)

	input := DistanceInput{
		TransformA: common.IdentityTransform(),
		TransformB: common.MakeTransform(common.MakeVec2(3, 0.5), 0),
	}
	input.ProxyA.Set(a, 0)
	input.ProxyB.Set(b, 0)

	var stats GJKStats
	var cache SimplexCache
	out := Distance(&cache, &input, &stats)
	if !near(out.Distance, 1) {
		t.Errorf("distance = %v, want 1", out.Distance)
	}
	if !near(out.PointA.X, 1) || !near(out.PointB.X, 2) {
		t.Errorf("witness points %v %v", out.PointA, out.PointB)
	}
	if stats.Calls != 1 || stats.MaxIters == 0 || stats.MaxIters > GJKMaxIters {
		t.Errorf("stats = %+v", stats)
	}

	t.Run("warm start does not cost more", func(t *testing.T) {
		again := Distance(&cache, &input, &stats)
		if again.Iterations > out.Iterations {
			t.Errorf("warm iterations %d > cold %d", again.Iterations, out.Iterations)
		}
		if !near(again.Distance, out.Distance) {
			t.Errorf("warm distance %v", again.Distance)
		}
	})

	t.Run("stats do not move the iteration cap", func(t *testing.T) {
		seeded := GJKStats{MaxIters: 5 * GJKMaxIters}
		var fresh SimplexCache
		got := Distance(&fresh, &input, &seeded)
		if got.Iterations != out.Iterations || got.Iterations > GJKMaxIters {
			t.Errorf("iterations = %d, want %d", got.Iterations, out.Iterations)
		}
		if seeded.MaxIters != 5*GJKMaxIters || seeded.Calls != 1 {
			t.Errorf("stats = %+v", seeded)
		}
	})

	t.Run("radii shrink the gap", func(t *testing.T) {
		withRadii := input
		withRadii.UseRadii = true
		var cache SimplexCache
		out := Distance(&cache, &withRadii, nil)
		if !near(out.Distance, 1-2*common.PolygonRadius) {
			t.Errorf("distance = %v", out.Distance)
		}
	})

	t.Run("overlap reports zero", func(t *testing.T) {
		overlapped := input
		overlapped.TransformB = common.MakeTransform(common.MakeVec2(0.5, 0.5), 0.3)
		var cache SimplexCache
		out := Distance(&cache, &overlapped, nil)
		if out.Distance < 0 || out.Distance > tolerance {
			t.Errorf("distance = %v", out.Distance)
		}
	})

	t.Run("circle against edge", func(t *testing.T) {
		var in DistanceInput
		in.ProxyA.Set(NewEdgeShape(common.MakeVec2(-1, 0), common.MakeVec2(1, 0)), 0)
		in.ProxyB.Set(mustCircle(t, 0.25), 0)
		in.TransformA = common.IdentityTransform()
		in.TransformB = common.MakeTransform(common.MakeVec2(0.3, 2), 0)
		in.UseRadii = true
		var cache SimplexCache
		out := Distance(&cache, &in, nil)
		want := 2 - 0.25 - common.PolygonRadius
		if !near(out.Distance, want) {
			t.Errorf("distance = %v, want %v", out.Distance, want)
		}
	})
}

func TestTestOverlap(t *testing.T) {
	a := mustBox(t, 1, 1)
	c := mustCircle(t, 0.5)
	if !TestOverlap(a, 0, c, 0, common.IdentityTransform(), common.MakeTransform(common.MakeVec2(1.4, 0), 0)) {
		t.Error("expected overlap")
	}
	if TestOverlap(a, 0, c, 0, common.IdentityTransform(), common.MakeTransform(common.MakeVec2(1.6, 0), 0)) {
		t.Error("expected no overlap")
	}
}

func TestTimeOfImpact(t *testing.T) {
	a := mustBox(t, 0.5, 0.5)
	b := mustBox(t, 0.5, 0.5)

	var input TOIInput
	input.ProxyA.Set(a, 0)
	input.ProxyB.Set(b, 0)
	input.SweepA = common.Sweep{C0: common.MakeVec2(-5, 0), C: common.MakeVec2(5, 0)}
	input.SweepB = common.Sweep{}
	input.TMax = 1

	var stats TOIStats
	out := TimeOfImpact(&input, &stats)
	if out.State != TOITouching {
		t.Fatalf("state = %v", out.State)
	}

	// Impact when the core gap closes to the target separation.
	target := math32.Max(common.LinearSlop, 2*common.PolygonRadius-3*common.LinearSlop)
	want := (5 - 1 - target) / 10
	if math32.Abs(out.T-want) > 1e-3 {
		t.Errorf("t = %v, want %v", out.T, want)
	}
	if stats.Calls != 1 || stats.Iters == 0 || stats.GJK.Calls == 0 {
		t.Errorf("stats = %+v", stats)
	}

	t.Run("separated over whole sweep", func(t *testing.T) {
		missed := input
		missed.SweepA = common.Sweep{C0: common.MakeVec2(-5, 3), C: common.MakeVec2(5, 3)}
		if out := TimeOfImpact(&missed, nil); out.State != TOISeparated || out.T != 1 {
			t.Errorf("out = %+v", out)
		}
	})

	t.Run("initially overlapped", func(t *testing.T) {
		overlapped := input
		overlapped.SweepA = common.Sweep{C0: common.MakeVec2(0.1, 0), C: common.MakeVec2(5, 0)}
		if out := TimeOfImpact(&overlapped, nil); out.State != TOIOverlapped || out.T != 0 {
			t.Errorf("out = %+v", out)
		}
	})
}
