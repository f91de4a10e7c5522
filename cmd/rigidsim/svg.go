package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
	"github.com/engine-pi/jbox2d/dynamics"
)

// axisLength is the length, in meters, of the frame axes drawn for
// each center of mass.
const axisLength = 0.4

// svgDraw renders debug draw calls as SVG elements. World coordinates are
// mapped to pixels through a single view matrix with y pointing down.
type svgDraw struct {
	view          mgl32.Mat3
	scale         float32
	width, height float32
	body          strings.Builder
}

// newSVGDraw fits bounds into an image width pixels wide.
func newSVGDraw(bounds collision.AABB, width float32) *svgDraw {
	center := bounds.GetCenter()
	extents := bounds.GetExtents()
	scale := width / (2.0 * extents.X)
	height := 2.0 * extents.Y * scale

	view := mgl32.Translate2D(width/2.0, height/2.0).
		Mul3(mgl32.Scale2D(scale, -scale)).
		Mul3(mgl32.Translate2D(-center.X, -center.Y))

	return &svgDraw{view: view, scale: scale, width: width, height: height}
}

func (d *svgDraw) point(v common.Vec2) mgl32.Vec2 {
	return d.view.Mul3x1(v.Vec().Vec3(1)).Vec2()
}

func rgb(c common.Color) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", int(255*c.R), int(255*c.G), int(255*c.B))
}

func (d *svgDraw) points(vertices []common.Vec2) string {
	var sb strings.Builder
	for i, v := range vertices {
		if i > 0 {
			sb.WriteByte(' ')
		}
		p := d.point(v)
		fmt.Fprintf(&sb, "%.2f,%.2f", p.X(), p.Y())
	}
	return sb.String()
}

func (d *svgDraw) line(p1, p2 mgl32.Vec2, stroke string) {
	fmt.Fprintf(&d.body, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\"/>\n",
		p1.X(), p1.Y(), p2.X(), p2.Y(), stroke)
}

func (d *svgDraw) GetFlags() dynamics.DrawFlags {
	return dynamics.DrawShape | dynamics.DrawJoint | dynamics.DrawCenterOfMass
}

func (d *svgDraw) DrawPolygon(vertices []common.Vec2, color common.Color) {
	fmt.Fprintf(&d.body, "<polygon points=\"%s\" fill=\"none\" stroke=\"%s\"/>\n", d.points(vertices), rgb(color))
}

func (d *svgDraw) DrawSolidPolygon(vertices []common.Vec2, color common.Color) {
	fmt.Fprintf(&d.body, "<polygon points=\"%s\" fill=\"%s\" fill-opacity=\"0.5\" stroke=\"%s\"/>\n",
		d.points(vertices), rgb(color), rgb(color))
}

func (d *svgDraw) DrawCircle(center common.Vec2, radius float32, color common.Color) {
	p := d.point(center)
	fmt.Fprintf(&d.body, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\"/>\n",
		p.X(), p.Y(), radius*d.scale, rgb(color))
}

func (d *svgDraw) DrawSolidCircle(center common.Vec2, radius float32, axis common.Vec2, color common.Color) {
	p := d.point(center)
	fmt.Fprintf(&d.body, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" fill-opacity=\"0.5\" stroke=\"%s\"/>\n",
		p.X(), p.Y(), radius*d.scale, rgb(color), rgb(color))
	d.line(p, d.point(center.Add(axis.Mul(radius))), rgb(color))
}

func (d *svgDraw) DrawSegment(p1, p2 common.Vec2, color common.Color) {
	d.line(d.point(p1), d.point(p2), rgb(color))
}

func (d *svgDraw) DrawTransform(xf mgl32.Mat3) {
	m := d.view.Mul3(xf)
	origin := m.Mul3x1(mgl32.Vec3{0, 0, 1}).Vec2()
	d.line(origin, m.Mul3x1(mgl32.Vec3{axisLength, 0, 1}).Vec2(), "red")
	d.line(origin, m.Mul3x1(mgl32.Vec3{0, axisLength, 1}).Vec2(), "green")
}

func (d *svgDraw) DrawPoint(p common.Vec2, size float32, color common.Color) {
	c := d.point(p)
	fmt.Fprintf(&d.body, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"/>\n", c.X(), c.Y(), size/2.0, rgb(color))
}

// WriteTo writes the complete SVG document.
func (d *svgDraw) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w,
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%.0f\" height=\"%.0f\" viewBox=\"0 0 %.0f %.0f\">\n%s</svg>\n",
		d.width, d.height, d.width, d.height, d.body.String())
	return int64(n), err
}

// worldBounds returns the box around every active fixture, with margin
// meters of padding on each side.
func worldBounds(world *dynamics.World, margin float32) collision.AABB {
	bounds := collision.MakeAABB(common.MakeVec2(-margin, -margin), common.MakeVec2(margin, margin))
	for b := world.GetBodyList(); b != nil; b = b.GetNext() {
		if !b.IsActive() {
			continue
		}
		for f := b.GetFixtureList(); f != nil; f = f.GetNext() {
			for i := 0; i < f.GetShape().GetChildCount(); i++ {
				bounds.CombineInPlace(f.GetAABB(i).Fattened(margin))
			}
		}
	}
	return bounds
}

func writeSVG(path string, world *dynamics.World) error {
	d := newSVGDraw(worldBounds(world, 1.0), 800.0)
	world.SetDebugDraw(d)
	world.DrawDebugData()
	world.SetDebugDraw(nil)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := d.WriteTo(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
