package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

/// Color for debug drawing. Each value has the range [0,1].
type Color struct {
	R, G, B float32
}

func MakeColor(r, g, b float32) Color {
	return Color{R: r, G: g, B: b}
}

// Vec returns v as a mathgl vector for renderers.
func (v Vec2) Vec() mgl32.Vec2 {
	return mgl32.Vec2{v.X, v.Y}
}

// Mat3 returns the homogeneous 3x3 matrix of the transform, column-major,
// suitable for uploading as a 2D model matrix.
func (t Transform) Mat3() mgl32.Mat3 {
	return mgl32.Mat3{
		t.Q.C, t.Q.S, 0,
		-t.Q.S, t.Q.C, 0,
		t.P.X, t.P.Y, 1,
	}
}
