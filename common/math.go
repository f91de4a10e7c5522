package common

import (
	"github.com/chewxy/math32"
)

/// This function is used to ensure that a floating point number is not a NaN or infinity.
func IsValid(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}

///////////////////////////////////////////////////////////////////////////////
/// A 2D column vector.
///////////////////////////////////////////////////////////////////////////////
type Vec2 struct {
	X, Y float32
}

func MakeVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

/// Useful constant
var Vec2Zero = Vec2{}

/// Set this vector to all zeros.
func (v *Vec2) SetZero() {
	v.X = 0.0
	v.Y = 0.0
}

/// Set this vector to some specified coordinates.
func (v *Vec2) Set(x, y float32) {
	v.X = x
	v.Y = y
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

/// Scale the vector by s.
func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{s * v.X, s * v.Y}
}

func (v Vec2) Neg() Vec2 {
	return Vec2{-v.X, -v.Y}
}

func (v *Vec2) AddInPlace(o Vec2) {
	v.X += o.X
	v.Y += o.Y
}

func (v *Vec2) SubInPlace(o Vec2) {
	v.X -= o.X
	v.Y -= o.Y
}

func (v *Vec2) MulInPlace(s float32) {
	v.X *= s
	v.Y *= s
}

/// Get the length of this vector (the norm).
func (v Vec2) Length() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

/// Get the length squared. For performance, use this instead of
/// Length (if possible).
func (v Vec2) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y
}

/// Convert this vector into a unit vector. Returns the length. A vector
/// shorter than Epsilon is zeroed and 0 is returned.
func (v *Vec2) Normalize() float32 {
	length := v.Length()
	if length < Epsilon {
		v.SetZero()
		return 0.0
	}

	invLength := 1.0 / length
	v.X *= invLength
	v.Y *= invLength

	return length
}

/// Does this vector contain finite coordinates?
func (v Vec2) IsValid() bool {
	return IsValid(v.X) && IsValid(v.Y)
}

/// Get the skew vector such that dot(skew_vec, other) == cross(vec, other)
func (v Vec2) Skew() Vec2 {
	return Vec2{-v.Y, v.X}
}

/// Perform the dot product on two vectors.
func Dot(a, b Vec2) float32 {
	return a.X*b.X + a.Y*b.Y
}

/// Perform the cross product on two vectors. In 2D this produces a scalar.
func Cross(a, b Vec2) float32 {
	return a.X*b.Y - a.Y*b.X
}

/// Perform the cross product on a vector and a scalar. In 2D this produces
/// a vector.
func CrossVS(a Vec2, s float32) Vec2 {
	return Vec2{s * a.Y, -s * a.X}
}

/// Perform the cross product on a scalar and a vector. In 2D this produces
/// a vector.
func CrossSV(s float32, a Vec2) Vec2 {
	return Vec2{-s * a.Y, s * a.X}
}

func Vec2Distance(a, b Vec2) float32 {
	return a.Sub(b).Length()
}

func Vec2DistanceSquared(a, b Vec2) float32 {
	c := a.Sub(b)
	return Dot(c, c)
}

func AbsVec2(a Vec2) Vec2 {
	return Vec2{math32.Abs(a.X), math32.Abs(a.Y)}
}

func MinVec2(a, b Vec2) Vec2 {
	return Vec2{min(a.X, b.X), min(a.Y, b.Y)}
}

func MaxVec2(a, b Vec2) Vec2 {
	return Vec2{max(a.X, b.X), max(a.Y, b.Y)}
}

func ClampVec2(a, low, high Vec2) Vec2 {
	return MaxVec2(low, MinVec2(a, high))
}

///////////////////////////////////////////////////////////////////////////////
/// A 2D column vector with 3 elements.
///////////////////////////////////////////////////////////////////////////////
type Vec3 struct {
	X, Y, Z float32
}

func MakeVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v *Vec3) SetZero() {
	v.X, v.Y, v.Z = 0.0, 0.0, 0.0
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{s * v.X, s * v.Y, s * v.Z}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v *Vec3) AddInPlace(o Vec3) {
	v.X += o.X
	v.Y += o.Y
	v.Z += o.Z
}

func Dot3(a, b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func Cross3(a, b Vec3) Vec3 {
	return Vec3{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}

///////////////////////////////////////////////////////////////////////////////
/// A 2-by-2 matrix. Stored in column-major order.
///////////////////////////////////////////////////////////////////////////////
type Mat22 struct {
	Ex, Ey Vec2
}

/// Construct this matrix using scalars.
func MakeMat22(a11, a12, a21, a22 float32) Mat22 {
	return Mat22{
		Ex: Vec2{a11, a21},
		Ey: Vec2{a12, a22},
	}
}

func (m *Mat22) SetIdentity() {
	m.Ex = Vec2{1.0, 0.0}
	m.Ey = Vec2{0.0, 1.0}
}

func (m *Mat22) SetZero() {
	m.Ex.SetZero()
	m.Ey.SetZero()
}

func (m Mat22) GetInverse() Mat22 {
	a, b, c, d := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a*d - b*c
	if det != 0.0 {
		det = 1.0 / det
	}
	return Mat22{
		Ex: Vec2{det * d, -det * c},
		Ey: Vec2{-det * b, det * a},
	}
}

/// Solve A * x = b, where b is a column vector. This is more efficient
/// than computing the inverse in one-shot cases.
func (m Mat22) Solve(b Vec2) Vec2 {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

/// Multiply a matrix times a vector. If a rotation matrix is provided,
/// then this transforms the vector from one frame to another.
func MulMV(A Mat22, v Vec2) Vec2 {
	return Vec2{A.Ex.X*v.X + A.Ey.X*v.Y, A.Ex.Y*v.X + A.Ey.Y*v.Y}
}

/// Multiply a matrix transpose times a vector.
func MulTMV(A Mat22, v Vec2) Vec2 {
	return Vec2{Dot(v, A.Ex), Dot(v, A.Ey)}
}

///////////////////////////////////////////////////////////////////////////////
/// A 3-by-3 matrix. Stored in column-major order.
///////////////////////////////////////////////////////////////////////////////
type Mat33 struct {
	Ex, Ey, Ez Vec3
}

func (m *Mat33) SetZero() {
	m.Ex.SetZero()
	m.Ey.SetZero()
	m.Ez.SetZero()
}

/// Solve A * x = b, where b is a column vector.
func (m Mat33) Solve33(b Vec3) Vec3 {
	det := Dot3(m.Ex, Cross3(m.Ey, m.Ez))
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec3{
		det * Dot3(b, Cross3(m.Ey, m.Ez)),
		det * Dot3(m.Ex, Cross3(b, m.Ez)),
		det * Dot3(m.Ex, Cross3(m.Ey, b)),
	}
}

/// Solve A * x = b using only the upper 2-by-2 block.
func (m Mat33) Solve22(b Vec2) Vec2 {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

/// Inverse of the upper 2-by-2 block as a 3-by-3 matrix with zero third row/column.
func (m Mat33) GetInverse22() Mat33 {
	a, b, c, d := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a*d - b*c
	if det != 0.0 {
		det = 1.0 / det
	}

	var M Mat33
	M.Ex.X = det * d
	M.Ey.X = -det * b
	M.Ex.Y = -det * c
	M.Ey.Y = det * a
	return M
}

/// Returns the zero matrix if singular.
func (m Mat33) GetSymInverse33() Mat33 {
	det := Dot3(m.Ex, Cross3(m.Ey, m.Ez))
	if det != 0.0 {
		det = 1.0 / det
	}

	a11, a12, a13 := m.Ex.X, m.Ey.X, m.Ez.X
	a22, a23 := m.Ey.Y, m.Ez.Y
	a33 := m.Ez.Z

	var M Mat33
	M.Ex.X = det * (a22*a33 - a23*a23)
	M.Ex.Y = det * (a13*a23 - a12*a33)
	M.Ex.Z = det * (a12*a23 - a13*a22)

	M.Ey.X = M.Ex.Y
	M.Ey.Y = det * (a11*a33 - a13*a13)
	M.Ey.Z = det * (a13*a12 - a11*a23)

	M.Ez.X = M.Ex.Z
	M.Ez.Y = M.Ey.Z
	M.Ez.Z = det * (a11*a22 - a12*a12)
	return M
}

/// Multiply a matrix times a vector.
func MulM33V(A Mat33, v Vec3) Vec3 {
	return A.Ex.Mul(v.X).Add(A.Ey.Mul(v.Y)).Add(A.Ez.Mul(v.Z))
}

/// Multiply the upper 2-by-2 block times a vector.
func MulM22V(A Mat33, v Vec2) Vec2 {
	return Vec2{A.Ex.X*v.X + A.Ey.X*v.Y, A.Ex.Y*v.X + A.Ey.Y*v.Y}
}

///////////////////////////////////////////////////////////////////////////////
/// Rotation, stored as sine/cosine.
///////////////////////////////////////////////////////////////////////////////
type Rot struct {
	S, C float32
}

/// Initialize from an angle in radians
func MakeRot(angle float32) Rot {
	s, c := math32.Sincos(angle)
	return Rot{S: s, C: c}
}

/// Set using an angle in radians.
func (r *Rot) Set(angle float32) {
	r.S, r.C = math32.Sincos(angle)
}

/// Set to the identity rotation
func (r *Rot) SetIdentity() {
	r.S = 0.0
	r.C = 1.0
}

/// Get the angle in radians
func (r Rot) Angle() float32 {
	return math32.Atan2(r.S, r.C)
}

func (r Rot) XAxis() Vec2 {
	return Vec2{r.C, r.S}
}

func (r Rot) YAxis() Vec2 {
	return Vec2{-r.S, r.C}
}

/// Multiply two rotations: q * r
func MulRR(q, r Rot) Rot {
	return Rot{
		S: q.S*r.C + q.C*r.S,
		C: q.C*r.C - q.S*r.S,
	}
}

/// Transpose multiply two rotations: qT * r
func MulTRR(q, r Rot) Rot {
	return Rot{
		S: q.C*r.S - q.S*r.C,
		C: q.C*r.C + q.S*r.S,
	}
}

/// Rotate a vector
func MulRV(q Rot, v Vec2) Vec2 {
	return Vec2{q.C*v.X - q.S*v.Y, q.S*v.X + q.C*v.Y}
}

/// Inverse rotate a vector
func MulTRV(q Rot, v Vec2) Vec2 {
	return Vec2{q.C*v.X + q.S*v.Y, -q.S*v.X + q.C*v.Y}
}

///////////////////////////////////////////////////////////////////////////////
/// A transform contains translation and rotation. It is used to represent
/// the position and orientation of rigid frames.
///////////////////////////////////////////////////////////////////////////////
type Transform struct {
	P Vec2
	Q Rot
}

func MakeTransform(position Vec2, angle float32) Transform {
	return Transform{P: position, Q: MakeRot(angle)}
}

func IdentityTransform() Transform {
	return Transform{Q: Rot{C: 1.0}}
}

func (t *Transform) SetIdentity() {
	t.P.SetZero()
	t.Q.SetIdentity()
}

/// Set this based on the position and angle.
func (t *Transform) Set(position Vec2, angle float32) {
	t.P = position
	t.Q.Set(angle)
}

func MulXV(T Transform, v Vec2) Vec2 {
	return Vec2{
		(T.Q.C*v.X - T.Q.S*v.Y) + T.P.X,
		(T.Q.S*v.X + T.Q.C*v.Y) + T.P.Y,
	}
}

func MulTXV(T Transform, v Vec2) Vec2 {
	px := v.X - T.P.X
	py := v.Y - T.P.Y
	return Vec2{T.Q.C*px + T.Q.S*py, -T.Q.S*px + T.Q.C*py}
}

// v2 = A.q.Rot(B.q.Rot(v1) + B.p) + A.p
//
//	= (A.q * B.q).Rot(v1) + A.q.Rot(B.p) + A.p
func MulXX(A, B Transform) Transform {
	return Transform{
		P: MulRV(A.Q, B.P).Add(A.P),
		Q: MulRR(A.Q, B.Q),
	}
}

// v2 = A.q' * (B.q * v1 + B.p - A.p)
//
//	= A.q' * B.q * v1 + A.q' * (B.p - A.p)
func MulTXX(A, B Transform) Transform {
	return Transform{
		P: MulTRV(A.Q, B.P.Sub(A.P)),
		Q: MulTRR(A.Q, B.Q),
	}
}

///////////////////////////////////////////////////////////////////////////////
/// This describes the motion of a body/shape for TOI computation.
/// Shapes are defined with respect to the body origin, which may
/// no coincide with the center of mass. However, to support dynamics
/// we must interpolate the center of mass position.
///////////////////////////////////////////////////////////////////////////////
type Sweep struct {
	LocalCenter Vec2    ///< local center of mass position
	C0, C       Vec2    ///< center world positions
	A0, A       float32 ///< world angles

	/// Fraction of the current time step in the range [0,1]
	/// c0 and a0 are the positions at alpha0.
	Alpha0 float32
}

/// Get the interpolated transform at a specific time.
/// @param beta is a factor in [0,1], where 0 indicates alpha0.
func (s Sweep) GetTransform(beta float32) Transform {
	var xf Transform
	xf.P = s.C0.Mul(1.0 - beta).Add(s.C.Mul(beta))
	xf.Q.Set((1.0-beta)*s.A0 + beta*s.A)

	// Shift to origin
	xf.P.SubInPlace(MulRV(xf.Q, s.LocalCenter))
	return xf
}

/// Advance the sweep forward, yielding a new initial state.
/// @param alpha the new initial time.
func (s *Sweep) Advance(alpha float32) {
	Assert(s.Alpha0 < 1.0, "sweep already at the end of the step")
	beta := (alpha - s.Alpha0) / (1.0 - s.Alpha0)
	s.C0.AddInPlace(s.C.Sub(s.C0).Mul(beta))
	s.A0 += beta * (s.A - s.A0)
	s.Alpha0 = alpha
}

/// Normalize the angles.
func (s *Sweep) Normalize() {
	twoPi := 2.0 * Pi
	d := twoPi * math32.Floor(s.A0/twoPi)
	s.A0 -= d
	s.A -= d
}
