package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const tolerance = 1e-5

func near(a, b float32) bool {
	return math32.Abs(a-b) <= tolerance
}

func TestVec2(t *testing.T) {
	t.Run("pure operators do not mutate", func(t *testing.T) {
		a := MakeVec2(1, 2)
		b := MakeVec2(3, -4)
		if got := a.Add(b); got != MakeVec2(4, -2) {
			t.Errorf("Add = %v", got)
		}
		if got := a.Sub(b); got != MakeVec2(-2, 6) {
			t.Errorf("Sub = %v", got)
		}
		if got := a.Mul(2); got != MakeVec2(2, 4) {
			t.Errorf("Mul = %v", got)
		}
		if a != MakeVec2(1, 2) {
			t.Errorf("receiver changed to %v", a)
		}
	})

	t.Run("in place operators", func(t *testing.T) {
		a := MakeVec2(1, 2)
		a.AddInPlace(MakeVec2(1, 1))
		a.MulInPlace(3)
		a.SubInPlace(MakeVec2(6, 0))
		if a != MakeVec2(0, 9) {
			t.Errorf("got %v", a)
		}
	})

	t.Run("cross products", func(t *testing.T) {
		a := MakeVec2(2, 3)
		if Cross(a, MakeVec2(4, 5)) != 2*5-3*4 {
			t.Error("scalar cross")
		}
		if CrossVS(a, 2) != MakeVec2(6, -4) {
			t.Error("vector x scalar")
		}
		if CrossSV(2, a) != MakeVec2(-6, 4) {
			t.Error("scalar x vector")
		}
		// dot(skew(a), b) == cross(a, b)
		b := MakeVec2(-1, 7)
		if Dot(a.Skew(), b) != Cross(a, b) {
			t.Error("skew identity")
		}
	})

	t.Run("normalize returns length", func(t *testing.T) {
		v := MakeVec2(3, 4)
		if l := v.Normalize(); l != 5 {
			t.Errorf("length = %v", l)
		}
		if !near(v.Length(), 1) {
			t.Errorf("not unit: %v", v)
		}
	})

	t.Run("normalize below epsilon zeroes the vector", func(t *testing.T) {
		v := MakeVec2(1e-8, -1e-8)
		if l := v.Normalize(); l != 0 {
			t.Errorf("length = %v", l)
		}
		if v != Vec2Zero {
			t.Errorf("vector = %v", v)
		}
	})
}

func TestRotAndTransform(t *testing.T) {
	q := MakeRot(0.5 * Pi)
	v := MulRV(q, MakeVec2(1, 0))
	if !near(v.X, 0) || !near(v.Y, 1) {
		t.Errorf("rotate = %v", v)
	}

	composed := MulRR(MakeRot(0.3), MakeRot(0.4))
	if !near(composed.Angle(), 0.7) {
		t.Errorf("angle addition = %v", composed.Angle())
	}
	if !near(MulTRR(MakeRot(0.3), MakeRot(0.4)).Angle(), 0.1) {
		t.Error("transpose composition")
	}

	xf := MakeTransform(MakeVec2(1, 2), 0.25*Pi)
	p := MakeVec2(-3, 5)
	back := MulTXV(xf, MulXV(xf, p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Errorf("round trip = %v", back)
	}

	other := MakeTransform(MakeVec2(-2, 0.5), -0.7)
	rel := MulTXX(xf, other)
	direct := MulTXV(xf, MulXV(other, p))
	viaRel := MulXV(rel, p)
	if !near(direct.X, viaRel.X) || !near(direct.Y, viaRel.Y) {
		t.Errorf("MulTXX mismatch %v vs %v", direct, viaRel)
	}
}

func TestMatrixSolve(t *testing.T) {
	A := MakeMat22(4, 1, 2, 3)
	x := A.Solve(MakeVec2(1, 2))
	b := MulMV(A, x)
	if !near(b.X, 1) || !near(b.Y, 2) {
		t.Errorf("Mat22.Solve residual %v", b)
	}

	inv := A.GetInverse()
	id := MulMV(inv, MulMV(A, MakeVec2(3, -1)))
	if !near(id.X, 3) || !near(id.Y, -1) {
		t.Errorf("inverse %v", id)
	}

	var K Mat33
	K.Ex = MakeVec3(4, 1, 0.5)
	K.Ey = MakeVec3(1, 3, 0.2)
	K.Ez = MakeVec3(0.5, 0.2, 2)
	rhs := MakeVec3(1, -2, 3)
	sol := K.Solve33(rhs)
	res := MulM33V(K, sol)
	if !near(res.X, rhs.X) || !near(res.Y, rhs.Y) || !near(res.Z, rhs.Z) {
		t.Errorf("Solve33 residual %v", res)
	}

	symInv := K.GetSymInverse33()
	back := MulM33V(symInv, res)
	if !near(back.X, sol.X) || !near(back.Y, sol.Y) || !near(back.Z, sol.Z) {
		t.Errorf("GetSymInverse33 %v vs %v", back, sol)
	}

	singular := MakeMat22(1, 2, 2, 4)
	if got := singular.Solve(MakeVec2(1, 1)); got != Vec2Zero {
		t.Errorf("singular solve = %v", got)
	}
}

func TestSweep(t *testing.T) {
	s := Sweep{
		LocalCenter: MakeVec2(0.5, 0),
		C0:          MakeVec2(0, 0),
		C:           MakeVec2(2, 0),
		A0:          0,
		A:           0,
	}

	xf := s.GetTransform(0.5)
	if !near(xf.P.X, 0.5) || !near(xf.P.Y, 0) {
		t.Errorf("interpolated origin = %v", xf.P)
	}

	s.Advance(0.5)
	if !near(s.C0.X, 1) || s.Alpha0 != 0.5 {
		t.Errorf("advance: c0=%v alpha0=%v", s.C0, s.Alpha0)
	}

	s.A0, s.A = 7*Pi, 7.5*Pi
	s.Normalize()
	if s.A0 < 0 || s.A0 >= 2*Pi+tolerance || !near(s.A-s.A0, 0.5*Pi) {
		t.Errorf("normalize: a0=%v a=%v", s.A0, s.A)
	}
}

func TestScalarHelpers(t *testing.T) {
	if Clamp[float32](2, -1, 1) != 1 || Clamp(-5, 0, 10) != 0 {
		t.Error("Clamp")
	}
	if NextPowerOfTwo(5) != 8 || NextPowerOfTwo(8) != 16 {
		t.Error("NextPowerOfTwo")
	}
	if !IsPowerOfTwo(64) || IsPowerOfTwo(65) {
		t.Error("IsPowerOfTwo")
	}
	if a := ReduceAngle(3 * Pi); !near(math32.Abs(a), Pi) {
		t.Errorf("ReduceAngle = %v", a)
	}
	if Sign[float32](-0.1) != -1 || Abs(-3) != 3 {
		t.Error("Sign/Abs")
	}
}

func TestMglConversions(t *testing.T) {
	xf := MakeTransform(MakeVec2(3, -2), 0.4)
	m := xf.Mat3()

	p := MakeVec2(1.5, 0.25)
	want := MulXV(xf, p)
	got := m.Mul3x1(mgl32.Vec3{p.X, p.Y, 1})
	if !near(got.X(), want.X) || !near(got.Y(), want.Y) {
		t.Errorf("Mat3 %v want %v", got, want)
	}

	if v := p.Vec(); v.X() != p.X || v.Y() != p.Y {
		t.Errorf("Vec = %v", v)
	}
}
