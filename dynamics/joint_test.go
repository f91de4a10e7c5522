package dynamics

import (
	"errors"
	"testing"

	"github.com/engine-pi/jbox2d/common"
)

func TestJointTypeString(t *testing.T) {
	if got := JointWheel.String(); got != "wheel" {
		t.Errorf("JointWheel.String() = %q", got)
	}
	if got := JointType(200).String(); got != "unknown" {
		t.Errorf("out of range type = %q", got)
	}
}

func TestCreateJointRejectsInvalidDefinitions(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	ground := newGround(t, world)
	a := newBall(t, world, common.MakeVec2(0, 5), 0.5)
	b := newBall(t, world, common.MakeVec2(3, 5), 0.5)

	var revolute RevoluteJointDef
	revolute.Initialize(ground, a, a.GetPosition())
	hinge := mustJoint(t, world, &revolute)

	var distance DistanceJointDef
	distance.Initialize(a, b, a.GetPosition(), b.GetPosition())
	rod := mustJoint(t, world, &distance)

	pulley := MakePulleyJointDef()
	pulley.BodyA, pulley.BodyB = a, b
	pulley.Ratio = 0

	cases := []struct {
		name string
		def  JointDef
	}{
		{"nil definition", nil},
		{"missing body", &RevoluteJointDef{JointDefBase: JointDefBase{BodyA: ground}}},
		{"same body twice", &WeldJointDef{JointDefBase: JointDefBase{BodyA: a, BodyB: a}}},
		{"zero pulley ratio", &pulley},
		{"gear on a distance joint", &GearJointDef{JointDefBase: JointDefBase{BodyA: a, BodyB: b}, Joint1: hinge, Joint2: rod, Ratio: 1}},
		{"gear without second joint", &GearJointDef{JointDefBase: JointDefBase{BodyA: a, BodyB: b}, Joint1: hinge, Ratio: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j, err := world.CreateJoint(tc.def)
			if !errors.Is(err, ErrInvalidJointDef) {
				t.Fatalf("err = %v, want ErrInvalidJointDef", err)
			}
			if j != nil {
				t.Errorf("joint = %v, want nil", j)
			}
		})
	}

	if world.GetJointCount() != 2 {
		t.Errorf("joint count = %d, want 2", world.GetJointCount())
	}
}

func TestRevoluteJoint(t *testing.T) {
	t.Run("limit clamps the swing", func(t *testing.T) {
		world := NewWorld(common.MakeVec2(0, -10))
		ground := newGround(t, world)
		box := newBox(t, world, common.MakeVec2(2, 10), 0.5, 0.125)

		var def RevoluteJointDef
		def.Initialize(ground, box, common.MakeVec2(0, 10))
		def.EnableLimit = true
		def.LowerAngle = -0.25 * common.Pi
		def.UpperAngle = 0.25 * common.Pi
		joint := mustJoint(t, world, &def).(*RevoluteJoint)

		slop := 2 * world.GetTuning().AngularSlop
		for i := 0; i < 180; i++ {
			stepN(world, 1)
			if angle := joint.GetJointAngle(); angle < def.LowerAngle-slop || angle > def.UpperAngle+slop {
				t.Fatalf("step %d: angle %v escaped the limit", i, angle)
			}
		}

		if d := joint.GetAnchorA().Sub(joint.GetAnchorB()).Length(); d > 0.01 {
			t.Errorf("anchors drifted apart by %v", d)
		}
		if angle := joint.GetJointAngle(); !near(angle, def.LowerAngle, slop) {
			t.Errorf("pendulum should rest on the lower limit, angle = %v", angle)
		}
	})

	t.Run("motor reaches its speed", func(t *testing.T) {
		world := NewWorld(common.MakeVec2(0, -10))
		ground := newGround(t, world)
		wheel := newBall(t, world, common.MakeVec2(0, 5), 0.5)

		var def RevoluteJointDef
		def.Initialize(ground, wheel, wheel.GetPosition())
		def.EnableMotor = true
		def.MotorSpeed = 2
		def.MaxMotorTorque = 1000
		joint := mustJoint(t, world, &def).(*RevoluteJoint)

		stepN(world, 60)

		if speed := joint.GetJointSpeed(); !near(speed, 2, 0.01) {
			t.Errorf("speed = %v, want 2", speed)
		}

		joint.SetMotorSpeed(-1)
		stepN(world, 60)
		if speed := joint.GetJointSpeed(); !near(speed, -1, 0.01) {
			t.Errorf("speed = %v, want -1", speed)
		}
	})
}

func TestPrismaticJoint(t *testing.T) {
	t.Run("lower limit stops the fall", func(t *testing.T) {
		world := NewWorld(common.MakeVec2(0, -10))
		ground := newGround(t, world)
		box := newBox(t, world, common.MakeVec2(0, 5), 0.5, 0.5)

		def := MakePrismaticJointDef()
		def.Initialize(ground, box, box.GetPosition(), common.MakeVec2(0, 1))
		def.EnableLimit = true
		def.LowerTranslation = -1
		def.UpperTranslation = 1
		joint := mustJoint(t, world, &def).(*PrismaticJoint)

		stepN(world, 120)

		if tr := joint.GetJointTranslation(); !near(tr, -1, 0.02) {
			t.Errorf("translation = %v, want -1", tr)
		}
		if p := box.GetPosition(); !near(p.X, 0, 0.01) {
			t.Errorf("box left the axis: %v", p)
		}
	})

	t.Run("motor drives along the axis", func(t *testing.T) {
		world := NewWorld(common.MakeVec2(0, -10))
		ground := newGround(t, world)
		box := newBox(t, world, common.MakeVec2(0, 5), 0.5, 0.5)

		def := MakePrismaticJointDef()
		def.Initialize(ground, box, box.GetPosition(), common.MakeVec2(1, 0))
		def.EnableMotor = true
		def.MotorSpeed = 3
		def.MaxMotorForce = 1000
		joint := mustJoint(t, world, &def).(*PrismaticJoint)

		stepN(world, 60)

		if speed := joint.GetJointSpeed(); !near(speed, 3, 0.01) {
			t.Errorf("speed = %v, want 3", speed)
		}
		if p := box.GetPosition(); !near(p.Y, 5, 0.01) {
			t.Errorf("box fell off the axis: %v", p)
		}
	})
}

func TestDistanceJointKeepsLength(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	ground := newGround(t, world)
	ball := newBall(t, world, common.MakeVec2(3, 10), 0.25)

	def := MakeDistanceJointDef()
	def.Initialize(ground, ball, common.MakeVec2(0, 10), ball.GetPosition())
	joint := mustJoint(t, world, &def).(*DistanceJoint)

	for i := 0; i < 120; i++ {
		stepN(world, 1)
		if d := joint.GetAnchorA().Sub(joint.GetAnchorB()).Length(); !near(d, 3, 0.02) {
			t.Fatalf("step %d: length %v, want 3", i, d)
		}
	}
}

func TestRopeJointBoundsDistance(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	ground := newGround(t, world)
	ball := newBall(t, world, common.MakeVec2(0, 9), 0.25)

	def := MakeRopeJointDef()
	def.BodyA, def.BodyB = ground, ball
	def.LocalAnchorA = common.MakeVec2(0, 10)
	def.LocalAnchorB = common.MakeVec2(0, 0)
	def.MaxLength = 3
	joint := mustJoint(t, world, &def).(*RopeJoint)

	stepN(world, 1)
	if joint.GetLimitState() != InactiveLimit {
		t.Errorf("slack rope reports limit state %v", joint.GetLimitState())
	}

	stepN(world, 120)

	if d := joint.GetAnchorA().Sub(joint.GetAnchorB()).Length(); d > 3.02 || d < 2.9 {
		t.Errorf("rope length = %v, want 3", d)
	}
	if p := ball.GetPosition(); !near(p.Y, 7, 0.05) {
		t.Errorf("ball hangs at %v, want y = 7", p)
	}
}

func TestPulleyJointConservesLength(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	newGround(t, world)
	heavy := newBox(t, world, common.MakeVec2(-2, 5), 1, 1)
	light := newBox(t, world, common.MakeVec2(2, 5), 0.5, 0.5)

	def := MakePulleyJointDef()
	def.Initialize(heavy, light, common.MakeVec2(-2, 10), common.MakeVec2(2, 10), heavy.GetPosition(), light.GetPosition(), 1)
	joint := mustJoint(t, world, &def).(*PulleyJoint)

	stepN(world, 60)

	a, b := joint.GetCurrentLengthA(), joint.GetCurrentLengthB()
	if !near(a+b, 10, 0.05) {
		t.Errorf("lengthA + lengthB = %v, want 10", a+b)
	}
	if a <= 5 {
		t.Errorf("heavy side did not descend: lengthA = %v", a)
	}
}

func TestGearJointCouplesRotation(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, 0))
	ground := newGround(t, world)
	a := newBall(t, world, common.MakeVec2(0, 5), 1)
	b := newBall(t, world, common.MakeVec2(3, 5), 0.5)

	var r1 RevoluteJointDef
	r1.Initialize(ground, a, a.GetPosition())
	j1 := mustJoint(t, world, &r1).(*RevoluteJoint)

	var r2 RevoluteJointDef
	r2.Initialize(ground, b, b.GetPosition())
	j2 := mustJoint(t, world, &r2).(*RevoluteJoint)

	def := MakeGearJointDef()
	def.BodyA, def.BodyB = a, b
	def.Joint1, def.Joint2 = j1, j2
	def.Ratio = 2
	gear := mustJoint(t, world, &def).(*GearJoint)

	if gear.GetJoint1() != j1 || gear.GetJoint2() != j2 {
		t.Fatal("gear lost its source joints")
	}

	a.SetAngularVelocity(1)
	stepN(world, 60)

	angleA, angleB := j1.GetJointAngle(), j2.GetJointAngle()
	if near(angleA, 0, 0.1) {
		t.Fatalf("first wheel did not turn: %v", angleA)
	}
	if c := angleA + 2*angleB; !near(c, 0, 0.01) {
		t.Errorf("angleA + ratio*angleB = %v, want 0", c)
	}
}

func TestWeldJointHoldsPose(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, -10))
	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(1, 5), 0.5, 0.5)

	var def WeldJointDef
	def.Initialize(ground, box, common.MakeVec2(0, 5))
	joint := mustJoint(t, world, &def)

	stepN(world, 60)

	if p := box.GetPosition(); !near(p.X, 1, 0.05) || !near(p.Y, 5, 0.05) {
		t.Errorf("welded box moved to %v", p)
	}
	if a := box.GetAngle(); !near(a, 0, 0.05) {
		t.Errorf("welded box rotated to %v", a)
	}

	weight := box.GetMass() * 10
	if f := joint.GetReactionForce(1 / testDt); !near(f.Y, weight, 0.05*weight) {
		t.Errorf("reaction force = %v, want %v upward", f, weight)
	}
}

func TestWheelJointSuspension(t *testing.T) {
	setup := func(t *testing.T, hz float32) (*World, *Body, *WheelJoint) {
		world := NewWorld(common.MakeVec2(0, -10))
		ground := newGround(t, world)
		wheel := newBall(t, world, common.MakeVec2(0, 5), 0.5)

		def := MakeWheelJointDef()
		def.Initialize(ground, wheel, wheel.GetPosition(), common.MakeVec2(0, 1))
		def.FrequencyHz = hz
		def.DampingRatio = 0.7
		return world, wheel, mustJoint(t, world, &def).(*WheelJoint)
	}

	t.Run("spring carries the wheel", func(t *testing.T) {
		world, wheel, joint := setup(t, 4)
		stepN(world, 120)

		if tr := joint.GetJointTranslation(); tr > 0 || tr < -0.1 {
			t.Errorf("translation = %v, want a small sag", tr)
		}
		if p := wheel.GetPosition(); !near(p.X, 0, 0.01) {
			t.Errorf("wheel left the axis: %v", p)
		}
	})

	t.Run("no spring lets the wheel slide", func(t *testing.T) {
		world, wheel, joint := setup(t, 0)
		stepN(world, 30)

		if tr := joint.GetJointTranslation(); tr > -1 {
			t.Errorf("translation = %v, want free fall along the axis", tr)
		}
		if p := wheel.GetPosition(); !near(p.X, 0, 0.01) {
			t.Errorf("wheel left the axis: %v", p)
		}
	})

	t.Run("motor spins the wheel", func(t *testing.T) {
		world, _, joint := setup(t, 4)
		joint.EnableMotor(true)
		joint.SetMaxMotorTorque(100)
		joint.SetMotorSpeed(5)
		stepN(world, 60)

		if w := joint.GetJointAngularSpeed(); !near(w, 5, 0.05) {
			t.Errorf("angular speed = %v, want 5", w)
		}
	})
}

func TestMouseJointTracksTarget(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, 0))
	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 5), 0.5, 0.5)

	def := MakeMouseJointDef()
	def.BodyA, def.BodyB = ground, box
	def.Target = box.GetPosition()
	def.MaxForce = 1000 * box.GetMass()
	joint := mustJoint(t, world, &def).(*MouseJoint)

	joint.SetTarget(common.MakeVec2(5, 5))
	stepN(world, 180)

	if p := joint.GetAnchorB(); !near(p.X, 5, 0.1) || !near(p.Y, 5, 0.1) {
		t.Errorf("anchor at %v, want near (5, 5)", p)
	}
}

func TestFrictionJointStopsMotion(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, 0))
	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 5), 0.5, 0.5)
	box.SetLinearVelocity(common.MakeVec2(5, 0))
	box.SetAngularVelocity(5)

	var def FrictionJointDef
	def.Initialize(ground, box, box.GetWorldCenter())
	def.MaxForce = 10
	def.MaxTorque = 10
	mustJoint(t, world, &def)

	stepN(world, 120)

	if v := box.GetLinearVelocity(); v.Length() > 0.01 {
		t.Errorf("linear velocity = %v", v)
	}
	if w := box.GetAngularVelocity(); !near(w, 0, 0.01) {
		t.Errorf("angular velocity = %v", w)
	}
}

func TestMotorJointReachesOffset(t *testing.T) {
	world := NewWorld(common.MakeVec2(0, 0))
	ground := newGround(t, world)
	box := newBox(t, world, common.MakeVec2(0, 5), 0.5, 0.5)

	def := MakeMotorJointDef()
	def.Initialize(ground, box)
	def.MaxForce = 1000
	def.MaxTorque = 1000
	joint := mustJoint(t, world, &def).(*MotorJoint)

	joint.SetLinearOffset(common.MakeVec2(2, 6))
	joint.SetAngularOffset(0.5)
	stepN(world, 240)

	if p := box.GetPosition(); !near(p.X, 2, 0.05) || !near(p.Y, 6, 0.05) {
		t.Errorf("box at %v, want (2, 6)", p)
	}
	if a := box.GetAngle(); !near(a, 0.5, 0.05) {
		t.Errorf("box angle = %v, want 0.5", a)
	}
}
