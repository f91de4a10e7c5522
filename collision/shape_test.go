package collision

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/common"
)

const tolerance = 1e-4

func near(a, b float32) bool {
	return math32.Abs(a-b) <= tolerance
}

func mustBox(t *testing.T, hx, hy float32) *PolygonShape {
	t.Helper()
	box, err := NewBoxShape(hx, hy)
	if err != nil {
		t.Fatalf("NewBoxShape(%v, %v): %v", hx, hy, err)
	}
	return box
}

func mustCircle(t *testing.T, radius float32) *CircleShape {
	t.Helper()
	circle, err := NewCircleShape(radius)
	if err != nil {
		t.Fatalf("NewCircleShape(%v): %v", radius, err)
	}
	return circle
}

func TestPolygonConstruction(t *testing.T) {
	t.Run("box is convex and counter clockwise", func(t *testing.T) {
		box := mustBox(t, 1, 2)
		if box.Count != 4 {
			t.Fatalf("count = %d", box.Count)
		}
		if !box.Validate() {
			t.Error("box does not validate")
		}
		for i := 0; i < box.Count; i++ {
			if !near(box.Normals[i].Length(), 1) {
				t.Errorf("normal %d not unit: %v", i, box.Normals[i])
			}
		}
		if box.Centroid != common.Vec2Zero {
			t.Errorf("centroid = %v", box.Centroid)
		}
	})

	t.Run("hull drops interior points", func(t *testing.T) {
		poly, err := NewPolygonShape([]common.Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}})
		if err != nil {
			t.Fatal(err)
		}
		if poly.Count != 4 {
			t.Errorf("count = %d, want 4", poly.Count)
		}
		if !near(poly.Centroid.X, 1) || !near(poly.Centroid.Y, 1) {
			t.Errorf("centroid = %v", poly.Centroid)
		}
	})

	errorCases := []struct {
		name   string
		points []common.Vec2
		want   error
	}{
		{"too few", []common.Vec2{{0, 0}, {1, 0}}, ErrDegeneratePolygon},
		{"collinear", []common.Vec2{{0, 0}, {1, 0}, {2, 0}}, ErrDegeneratePolygon},
		{"welded", []common.Vec2{{0, 0}, {0.001, 0}, {0, 0.001}}, ErrDegeneratePolygon},
		{"too many", make([]common.Vec2, common.MaxPolygonVertices+1), ErrTooManyVertices},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPolygonShape(tc.points)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("hull keeps vertex order", func(t *testing.T) {
		box := mustBox(t, 0.5, 0.5)
		poly, err := NewPolygonShapeFromHull(box.Vertices[:box.Count])
		if err != nil {
			t.Fatal(err)
		}
		if poly.Count != box.Count || poly.Vertices != box.Vertices {
			t.Fatalf("hull = %v, want %v", poly.Vertices[:poly.Count], box.Vertices[:box.Count])
		}
		for i := 0; i < poly.Count; i++ {
			if !near(poly.Normals[i].X, box.Normals[i].X) || !near(poly.Normals[i].Y, box.Normals[i].Y) {
				t.Errorf("normal %d = %v, want %v", i, poly.Normals[i], box.Normals[i])
			}
		}
	})

	t.Run("hull rejects clockwise and concave input", func(t *testing.T) {
		for _, points := range [][]common.Vec2{
			{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
			{{0, 0}, {2, 0}, {1, 0.5}, {2, 2}, {0, 2}},
		} {
			if _, err := NewPolygonShapeFromHull(points); !errors.Is(err, ErrDegeneratePolygon) {
				t.Errorf("%v: err = %v", points, err)
			}
		}
	})

	t.Run("failed set leaves polygon unchanged", func(t *testing.T) {
		box := mustBox(t, 1, 1)
		before := *box
		if err := box.Set([]common.Vec2{{0, 0}, {1, 0}}); err == nil {
			t.Fatal("expected error")
		}
		if *box != before {
			t.Error("polygon modified by failed Set")
		}
	})
}

func TestShapeMass(t *testing.T) {
	t.Run("box", func(t *testing.T) {
		md := mustBox(t, 1, 0.5).ComputeMass(2)
		if !near(md.Mass, 4) {
			t.Errorf("mass = %v, want 4", md.Mass)
		}
		// I = m (w^2 + h^2) / 12 with w = 2, h = 1
		if !near(md.I, 4*(4+1)/12.0) {
			t.Errorf("inertia = %v", md.I)
		}
	})

	t.Run("offset circle uses parallel axis", func(t *testing.T) {
		c := mustCircle(t, 1)
		c.P = common.MakeVec2(2, 0)
		md := c.ComputeMass(1)
		if !near(md.Mass, common.Pi) {
			t.Errorf("mass = %v", md.Mass)
		}
		if !near(md.I, common.Pi*(0.5+4)) {
			t.Errorf("inertia = %v", md.I)
		}
		if md.Center != c.P {
			t.Errorf("center = %v", md.Center)
		}
	})

	t.Run("edges and chains are massless", func(t *testing.T) {
		edge := NewEdgeShape(common.MakeVec2(0, 0), common.MakeVec2(2, 0))
		if md := edge.ComputeMass(5); md.Mass != 0 || md.Center != common.MakeVec2(1, 0) {
			t.Errorf("edge mass = %+v", md)
		}
		chain, err := NewChain([]common.Vec2{{0, 0}, {1, 0}, {2, 1}})
		if err != nil {
			t.Fatal(err)
		}
		if md := chain.ComputeMass(5); md.Mass != 0 {
			t.Errorf("chain mass = %+v", md)
		}
	})

	t.Run("invalid radius", func(t *testing.T) {
		if _, err := NewCircleShape(-1); !errors.Is(err, ErrInvalidRadius) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestChain(t *testing.T) {
	t.Run("loop closes and links ghosts", func(t *testing.T) {
		loop, err := NewChainLoop([]common.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
		if err != nil {
			t.Fatal(err)
		}
		if loop.GetChildCount() != 4 {
			t.Fatalf("child count = %d", loop.GetChildCount())
		}
		var edge EdgeShape
		loop.GetChildEdge(&edge, 0)
		if !edge.HasVertex0 || !edge.HasVertex3 {
			t.Error("loop edge missing ghost vertices")
		}
		if edge.Vertex0 != common.MakeVec2(0, 1) || edge.Vertex3 != common.MakeVec2(1, 1) {
			t.Errorf("ghosts = %v %v", edge.Vertex0, edge.Vertex3)
		}
	})

	t.Run("open chain ends have no ghosts", func(t *testing.T) {
		chain, err := NewChain([]common.Vec2{{0, 0}, {1, 0}, {2, 0}})
		if err != nil {
			t.Fatal(err)
		}
		var first, last EdgeShape
		chain.GetChildEdge(&first, 0)
		chain.GetChildEdge(&last, 1)
		if first.HasVertex0 || !first.HasVertex3 || !last.HasVertex0 || last.HasVertex3 {
			t.Errorf("ghost flags: first %v/%v last %v/%v", first.HasVertex0, first.HasVertex3, last.HasVertex0, last.HasVertex3)
		}
	})

	t.Run("child edge fills caller storage", func(t *testing.T) {
		chain, err := NewChain([]common.Vec2{{0, 0}, {1, 0}, {2, 1}, {3, 1}})
		if err != nil {
			t.Fatal(err)
		}
		var edge EdgeShape
		allocs := testing.AllocsPerRun(100, func() {
			for i := 0; i < chain.GetChildCount(); i++ {
				chain.GetChildEdge(&edge, i)
			}
		})
		if allocs != 0 {
			t.Errorf("GetChildEdge allocated %v times per run", allocs)
		}
		if edge.Vertex1 != common.MakeVec2(2, 1) || edge.Vertex2 != common.MakeVec2(3, 1) || edge.GetRadius() != chain.GetRadius() {
			t.Errorf("last edge = %+v", edge)
		}
	})

	t.Run("rejects close vertices", func(t *testing.T) {
		_, err := NewChain([]common.Vec2{{0, 0}, {0.001, 0}})
		if !errors.Is(err, ErrChainVertexTooClose) {
			t.Errorf("err = %v", err)
		}
		_, err = NewChainLoop([]common.Vec2{{0, 0}, {1, 0}})
		if !errors.Is(err, ErrChainTooShort) {
			t.Errorf("err = %v", err)
		}
	})
}

func TestRayCast(t *testing.T) {
	xf := common.MakeTransform(common.MakeVec2(5, 0), 0)
	input := RayCastInput{P1: common.MakeVec2(0, 0), P2: common.MakeVec2(10, 0), MaxFraction: 1}

	t.Run("circle", func(t *testing.T) {
		out, hit := mustCircle(t, 1).RayCast(input, xf, 0)
		if !hit {
			t.Fatal("missed")
		}
		if !near(out.Fraction, 0.4) || !near(out.Normal.X, -1) {
			t.Errorf("out = %+v", out)
		}
	})

	t.Run("box", func(t *testing.T) {
		out, hit := mustBox(t, 1, 1).RayCast(input, xf, 0)
		if !hit {
			t.Fatal("missed")
		}
		if !near(out.Fraction, 0.4) || !near(out.Normal.X, -1) {
			t.Errorf("out = %+v", out)
		}
	})

	t.Run("short ray misses", func(t *testing.T) {
		short := input
		short.MaxFraction = 0.3
		if _, hit := mustBox(t, 1, 1).RayCast(short, xf, 0); hit {
			t.Error("ray shorter than distance should miss")
		}
	})

	t.Run("edge", func(t *testing.T) {
		edge := NewEdgeShape(common.MakeVec2(0, -1), common.MakeVec2(0, 1))
		out, hit := edge.RayCast(input, xf, 0)
		if !hit || !near(out.Fraction, 0.5) || !near(out.Normal.X, -1) {
			t.Errorf("hit %v out %+v", hit, out)
		}
	})

	t.Run("aabb", func(t *testing.T) {
		bb := MakeAABB(common.MakeVec2(4, -1), common.MakeVec2(6, 1))
		out, hit := bb.RayCast(input)
		if !hit || !near(out.Fraction, 0.4) {
			t.Errorf("hit %v out %+v", hit, out)
		}
	})
}

func TestTestPoint(t *testing.T) {
	xf := common.MakeTransform(common.MakeVec2(1, 1), common.Pi/4)
	box := mustBox(t, 1, 1)
	if !box.TestPoint(xf, common.MakeVec2(1, 1)) {
		t.Error("center not inside")
	}
	if box.TestPoint(xf, common.MakeVec2(2.5, 1)) {
		t.Error("point beyond rotated corner reported inside")
	}
	if !mustCircle(t, 1).TestPoint(xf, common.MakeVec2(1.5, 1.5)) {
		t.Error("circle point")
	}
}
