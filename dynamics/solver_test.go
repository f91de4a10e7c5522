package dynamics

import (
	"testing"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
)

func TestDroppedBoxSettles(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 4), 0.5, 0.5)
	box.GetFixtureList().SetRestitution(0)

	tuning := world.GetTuning()
	settled := -1
	for i := 0; i < 600; i++ {
		stepN(world, 1)

		if y := box.GetPosition().Y; y < 0.5-tuning.LinearSlop {
			t.Fatalf("step %d: box sank to y = %v", i, y)
		}
		v := box.GetLinearVelocity().Length()
		w := common.Abs(box.GetAngularVelocity())
		if settled < 0 && v < tuning.LinearSleepTolerance && w < tuning.AngularSleepTolerance {
			settled = i
		}
	}

	if settled < 0 || settled > 240 {
		t.Errorf("box settled at step %d", settled)
	}
	if box.IsAwake() {
		t.Error("box never fell asleep")
	}
}

func TestWarmStartFixedPoint(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10), WithAllowSleep(false))
	box := newStack(t, world, 1)[0]

	stepN(world, 300)

	p0, a0 := box.GetPosition(), box.GetAngle()
	v0 := box.GetLinearVelocity()

	stepN(world, 1)

	p1, a1 := box.GetPosition(), box.GetAngle()
	v1 := box.GetLinearVelocity()

	const tol = 1e-4
	if !near(p0.X, p1.X, tol) || !near(p0.Y, p1.Y, tol) || !near(a0, a1, tol) {
		t.Errorf("resting box moved from %v/%v to %v/%v", p0, a0, p1, a1)
	}
	if v := v1.Sub(v0).Length(); v > tol {
		t.Errorf("resting box velocity changed by %v", v)
	}
}

func TestBlockSolverFallbacksAreRare(t *testing.T) {
	const rows = 10
	world := NewWorld(common.MakeVec2(0, -10), WithAllowSleep(false))
	newGround(t, world)

	shape, err := collision.NewBoxShape(0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	var top *Body
	x := common.MakeVec2(-7.0, 0.75)
	for i := 0; i < rows; i++ {
		y := x
		for j := i; j < rows; j++ {
			top = newTestBody(t, world, DynamicBody, y)
			if _, err := top.CreateFixtureFromShape(shape, 5.0); err != nil {
				t.Fatal(err)
			}
			y.AddInPlace(common.MakeVec2(1.125, 0))
		}
		x.AddInPlace(common.MakeVec2(0.5625, 1.25))
	}
	start := top.GetPosition()

	const steps = 600
	fallbacks := 0
	for i := 0; i < steps; i++ {
		stepN(world, 1)
		fallbacks += world.GetProfile().BlockSolverFallbacks
	}

	if fallbacks > steps {
		t.Errorf("block solver fell back %d times in %d steps", fallbacks, steps)
	}
	if p := top.GetPosition(); !near(p.X, start.X, 0.25) || p.Y < start.Y-2.5-0.25 {
		t.Errorf("pyramid collapsed: top box moved from %v to %v", start, p)
	}
}
