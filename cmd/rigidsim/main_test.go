package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
	"github.com/engine-pi/jbox2d/dynamics"
)

func TestScenesBuildAndStep(t *testing.T) {
	for _, name := range sceneNames() {
		t.Run(name, func(t *testing.T) {
			world := dynamics.NewWorld(common.MakeVec2(0, -10))
			if err := scenes[name](world); err != nil {
				t.Fatal(err)
			}
			if world.GetBodyCount() < 2 {
				t.Fatalf("scene has %d bodies", world.GetBodyCount())
			}

			for i := 0; i < 60; i++ {
				world.Step(1.0/60.0, 8, 3)
			}

			for b := world.GetBodyList(); b != nil; b = b.GetNext() {
				p := b.GetPosition()
				if !p.IsValid() || p.Y < -1 {
					t.Errorf("body escaped to %v", p)
				}
			}
		})
	}
}

func TestConveyorCarriesBoxes(t *testing.T) {
	world := dynamics.NewWorld(common.MakeVec2(0, -10))
	if err := conveyor(world); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 120; i++ {
		world.Step(1.0/60.0, 8, 3)
	}

	moving := 0
	for b := world.GetBodyList(); b != nil; b = b.GetNext() {
		if b.GetType() == dynamics.DynamicBody && b.GetLinearVelocity().X > 1 {
			moving++
		}
	}
	if moving == 0 {
		t.Error("no box is riding the belt")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	saved := filepath.Join(dir, "stack.yaml")

	t.Run("scene with snapshot", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"-scene", "spherestack", "-steps", "30", "-trace", "10", "-save", saved}, &stdout, &stderr)
		if err != nil {
			t.Fatalf("run: %v\n%s", err, stderr.String())
		}

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		if want := 1 + 3*10; len(lines) != want {
			t.Errorf("printed %d lines, want %d", len(lines), want)
		}
		if !strings.Contains(stderr.String(), "msg=start") {
			t.Errorf("missing start log: %s", stderr.String())
		}
		if _, err := os.Stat(saved); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("load snapshot", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := run([]string{"-load", saved, "-steps", "10"}, &stdout, &stderr); err != nil {
			t.Fatalf("run: %v\n%s", err, stderr.String())
		}
		if !strings.Contains(stderr.String(), "bodies=11") {
			t.Errorf("restored world has the wrong size: %s", stderr.String())
		}
	})

	t.Run("svg output", func(t *testing.T) {
		path := filepath.Join(dir, "pendulum.svg")
		var stdout, stderr bytes.Buffer
		if err := run([]string{"-scene", "pendulum", "-steps", "5", "-svg", path}, &stdout, &stderr); err != nil {
			t.Fatalf("run: %v\n%s", err, stderr.String())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		svg := string(data)
		if !strings.HasPrefix(svg, "<svg ") || !strings.HasSuffix(svg, "</svg>\n") {
			t.Errorf("not an svg document:\n%s", svg)
		}
		// Ten links, each with a filled polygon and a center of mass frame.
		if n := strings.Count(svg, "fill-opacity"); n != 10 {
			t.Errorf("drew %d solid shapes, want 10", n)
		}
		if n := strings.Count(svg, "stroke=\"red\""); n != 11 {
			t.Errorf("drew %d frames, want 11", n)
		}
	})

	t.Run("tuning file", func(t *testing.T) {
		path := filepath.Join(dir, "tuning.yaml")
		if err := os.WriteFile(path, []byte("baumgarte: 0.1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		var stdout, stderr bytes.Buffer
		if err := run([]string{"-scene", "pendulum", "-steps", "5", "-tuning", path}, &stdout, &stderr); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("bad tuning file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("baumgarte: 3\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		var stdout, stderr bytes.Buffer
		if err := run([]string{"-tuning", path}, &stdout, &stderr); err == nil {
			t.Error("expected an error for baumgarte out of range")
		}
	})

	t.Run("unknown scene", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if err := run([]string{"-scene", "nope"}, &stdout, &stderr); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestSVGDrawView(t *testing.T) {
	bounds := collision.MakeAABB(common.MakeVec2(-1, -1), common.MakeVec2(1, 1))
	d := newSVGDraw(bounds, 200)

	cases := []struct {
		world common.Vec2
		x, y  float32
	}{
		{common.MakeVec2(0, 0), 100, 100},
		{common.MakeVec2(1, 1), 200, 0},
		{common.MakeVec2(-1, -1), 0, 200},
	}
	for _, tc := range cases {
		p := d.point(tc.world)
		if math32.Abs(p.X()-tc.x) > 1e-4 || math32.Abs(p.Y()-tc.y) > 1e-4 {
			t.Errorf("point(%v) = %v, want (%v, %v)", tc.world, p, tc.x, tc.y)
		}
	}

	d.DrawTransform(common.MakeTransform(common.MakeVec2(0.5, 0), common.Pi/2).Mat3())
	want := `<line x1="150.00" y1="100.00" x2="150.00" y2="60.00" stroke="red"/>`
	if !strings.Contains(d.body.String(), want) {
		t.Errorf("frame drawn as\n%s", d.body.String())
	}
}
