package main

import (
	"fmt"
	"sort"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
	"github.com/engine-pi/jbox2d/dynamics"
)

// A scene populates an empty world.
type scene func(world *dynamics.World) error

var scenes = map[string]scene{
	"pyramid":       pyramid,
	"verticalstack": verticalStack,
	"spherestack":   sphereStack,
	"pendulum":      pendulum,
	"conveyor":      conveyor,
}

func sceneNames() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func createGround(world *dynamics.World, edges ...[2]common.Vec2) (*dynamics.Body, error) {
	bd := dynamics.MakeBodyDef()
	ground, err := world.CreateBody(&bd)
	if err != nil {
		return nil, err
	}
	for _, e := range edges {
		if _, err := ground.CreateFixtureFromShape(collision.NewEdgeShape(e[0], e[1]), 0.0); err != nil {
			return nil, err
		}
	}
	return ground, nil
}

func createDynamic(world *dynamics.World, position common.Vec2, fd *dynamics.FixtureDef) (*dynamics.Body, error) {
	bd := dynamics.MakeBodyDef()
	bd.Type = dynamics.DynamicBody
	bd.Position = position
	body, err := world.CreateBody(&bd)
	if err != nil {
		return nil, err
	}
	if _, err := body.CreateFixture(fd); err != nil {
		return nil, err
	}
	return body, nil
}

func pyramid(world *dynamics.World) error {
	const count = 20

	if _, err := createGround(world, [2]common.Vec2{common.MakeVec2(-40, 0), common.MakeVec2(40, 0)}); err != nil {
		return err
	}

	box, err := collision.NewBoxShape(0.5, 0.5)
	if err != nil {
		return err
	}
	fd := dynamics.MakeFixtureDef()
	fd.Shape = box
	fd.Density = 5.0

	x := common.MakeVec2(-7.0, 0.75)
	deltaX := common.MakeVec2(0.5625, 1.25)
	deltaY := common.MakeVec2(1.125, 0.0)

	for i := 0; i < count; i++ {
		y := x
		for j := i; j < count; j++ {
			if _, err := createDynamic(world, y, &fd); err != nil {
				return err
			}
			y.AddInPlace(deltaY)
		}
		x.AddInPlace(deltaX)
	}
	return nil
}

func verticalStack(world *dynamics.World) error {
	const (
		columnCount = 5
		rowCount    = 15
	)

	if _, err := createGround(world,
		[2]common.Vec2{common.MakeVec2(-40, 0), common.MakeVec2(40, 0)},
		[2]common.Vec2{common.MakeVec2(20, 0), common.MakeVec2(20, 20)},
	); err != nil {
		return err
	}

	box, err := collision.NewBoxShape(0.5, 0.5)
	if err != nil {
		return err
	}
	fd := dynamics.MakeFixtureDef()
	fd.Shape = box
	fd.Density = 1.0
	fd.Friction = 0.3

	xs := [columnCount]float32{0.0, -10.0, -5.0, 5.0, 10.0}
	for j := 0; j < columnCount; j++ {
		for i := 0; i < rowCount; i++ {
			if _, err := createDynamic(world, common.MakeVec2(xs[j], 0.752+1.54*float32(i)), &fd); err != nil {
				return err
			}
		}
	}
	return nil
}

func sphereStack(world *dynamics.World) error {
	const count = 10

	if _, err := createGround(world, [2]common.Vec2{common.MakeVec2(-40, 0), common.MakeVec2(40, 0)}); err != nil {
		return err
	}

	circle, err := collision.NewCircleShape(1.0)
	if err != nil {
		return err
	}
	fd := dynamics.MakeFixtureDef()
	fd.Shape = circle
	fd.Density = 1.0

	for i := 0; i < count; i++ {
		if _, err := createDynamic(world, common.MakeVec2(0.0, 4.0+3.0*float32(i)), &fd); err != nil {
			return err
		}
	}
	return nil
}

// pendulum hangs a chain of links from a revolute joint on the ground.
func pendulum(world *dynamics.World) error {
	const (
		links = 10
		y     = 25.0
	)

	ground, err := createGround(world, [2]common.Vec2{common.MakeVec2(-40, 0), common.MakeVec2(40, 0)})
	if err != nil {
		return err
	}

	link, err := collision.NewBoxShape(0.6, 0.125)
	if err != nil {
		return err
	}
	fd := dynamics.MakeFixtureDef()
	fd.Shape = link
	fd.Density = 20.0
	fd.Friction = 0.2

	prev := ground
	for i := 0; i < links; i++ {
		body, err := createDynamic(world, common.MakeVec2(0.5+float32(i), y), &fd)
		if err != nil {
			return err
		}

		var jd dynamics.RevoluteJointDef
		jd.Initialize(prev, body, common.MakeVec2(float32(i), y))
		if _, err := world.CreateJoint(&jd); err != nil {
			return err
		}
		prev = body
	}
	return nil
}

// beltListener drives every contact touching the platform at a fixed
// tangent speed.
type beltListener struct {
	dynamics.NopContactListener
	platform *dynamics.Fixture
	speed    float32
}

func (l *beltListener) PreSolve(c *dynamics.Contact, _ *collision.Manifold) {
	if c.GetFixtureA() == l.platform || c.GetFixtureB() == l.platform {
		c.SetTangentSpeed(l.speed)
	}
}

func conveyor(world *dynamics.World) error {
	if _, err := createGround(world, [2]common.Vec2{common.MakeVec2(-20, 0), common.MakeVec2(20, 0)}); err != nil {
		return err
	}

	bd := dynamics.MakeBodyDef()
	bd.Position = common.MakeVec2(-5.0, 5.0)
	belt, err := world.CreateBody(&bd)
	if err != nil {
		return err
	}
	slab, err := collision.NewBoxShape(10.0, 0.5)
	if err != nil {
		return err
	}
	fd := dynamics.MakeFixtureDef()
	fd.Shape = slab
	fd.Friction = 0.8
	platform, err := belt.CreateFixture(&fd)
	if err != nil {
		return err
	}
	world.SetContactListener(&beltListener{platform: platform, speed: 5.0})

	box, err := collision.NewBoxShape(0.5, 0.5)
	if err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		bd := dynamics.MakeBodyDef()
		bd.Type = dynamics.DynamicBody
		bd.Position = common.MakeVec2(-10.0+2.0*float32(i), 7.0)
		body, err := world.CreateBody(&bd)
		if err != nil {
			return err
		}
		if _, err := body.CreateFixtureFromShape(box, 20.0); err != nil {
			return fmt.Errorf("conveyor box %d: %w", i, err)
		}
	}
	return nil
}
