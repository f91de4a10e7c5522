// Package snapshot captures a world into a YAML document and rebuilds
// worlds from such documents.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"github.com/engine-pi/jbox2d/collision"
	"github.com/engine-pi/jbox2d/common"
	"github.com/engine-pi/jbox2d/dynamics"
)

var ErrMalformed = errors.New("snapshot: malformed document")

// UnsupportedError reports a joint that a document cannot describe. Gear
// joints reference other joints and mouse joints track user input.
type UnsupportedError struct {
	Index int
	Type  dynamics.JointType
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("snapshot: %v joint %d is not supported", e.Type, e.Index)
}

// Document is the serializable state of a world. Bodies, fixtures and joints
// are stored in world list order.
type Document struct {
	Gravity           common.Vec2    `yaml:"gravity"`
	AllowSleep        bool           `yaml:"allow_sleep"`
	WarmStarting      bool           `yaml:"warm_starting"`
	ContinuousPhysics bool           `yaml:"continuous_physics"`
	SubStepping       bool           `yaml:"sub_stepping"`
	AutoClearForces   bool           `yaml:"auto_clear_forces"`
	Tuning            *common.Tuning `yaml:"tuning,omitempty"`
	Bodies            []Body         `yaml:"bodies"`
	Joints            []Joint        `yaml:"joints,omitempty"`
}

type Body struct {
	Kind            string      `yaml:"type"`
	Position        common.Vec2 `yaml:"position"`
	Angle           float32     `yaml:"angle"`
	LinearVelocity  common.Vec2 `yaml:"linear_velocity"`
	AngularVelocity float32     `yaml:"angular_velocity"`
	LinearDamping   float32     `yaml:"linear_damping"`
	AngularDamping  float32     `yaml:"angular_damping"`
	GravityScale    float32     `yaml:"gravity_scale"`
	AllowSleep      bool        `yaml:"allow_sleep"`
	Awake           bool        `yaml:"awake"`
	FixedRotation   bool        `yaml:"fixed_rotation"`
	Bullet          bool        `yaml:"bullet"`
	Active          bool        `yaml:"active"`
	Fixtures        []Fixture   `yaml:"fixtures,omitempty"`
}

type Fixture struct {
	Geometry    Shape   `yaml:"shape"`
	Friction    float32 `yaml:"friction"`
	Restitution float32 `yaml:"restitution"`
	Density     float32 `yaml:"density"`
	IsSensor    bool    `yaml:"sensor"`
	Filter      Filter  `yaml:"filter"`
}

type Filter struct {
	CategoryBits uint16 `yaml:"category_bits"`
	MaskBits     uint16 `yaml:"mask_bits"`
	GroupIndex   int16  `yaml:"group_index"`
}

// Shape describes one of the collision shapes. Vertices hold the two edge
// end points, the polygon hull or the chain. Prev and Next are the ghost
// vertices of edges and chains.
type Shape struct {
	Kind     string        `yaml:"type"`
	Radius   float32       `yaml:"radius,omitempty"`
	Center   common.Vec2   `yaml:"center,omitempty"`
	Vertices []common.Vec2 `yaml:"vertices,omitempty"`
	Prev     *common.Vec2  `yaml:"prev,omitempty"`
	Next     *common.Vec2  `yaml:"next,omitempty"`
}

// Joint names its bodies by their position in Document.Bodies.
type Joint struct {
	Kind             string `yaml:"type"`
	BodyIndexA       int    `yaml:"body_a"`
	BodyIndexB       int    `yaml:"body_b"`
	CollideConnected bool   `yaml:"collide_connected"`
	JointParams      `yaml:",inline"`
}

// JointParams is the union of the joint definition fields. Only the fields
// of the joint's own definition are meaningful.
type JointParams struct {
	LocalAnchorA     common.Vec2 `yaml:"local_anchor_a,omitempty"`
	LocalAnchorB     common.Vec2 `yaml:"local_anchor_b,omitempty"`
	LocalAxisA       common.Vec2 `yaml:"local_axis_a,omitempty"`
	GroundAnchorA    common.Vec2 `yaml:"ground_anchor_a,omitempty"`
	GroundAnchorB    common.Vec2 `yaml:"ground_anchor_b,omitempty"`
	ReferenceAngle   float32     `yaml:"reference_angle,omitempty"`
	EnableLimit      bool        `yaml:"enable_limit,omitempty"`
	LowerAngle       float32     `yaml:"lower_angle,omitempty"`
	UpperAngle       float32     `yaml:"upper_angle,omitempty"`
	LowerTranslation float32     `yaml:"lower_translation,omitempty"`
	UpperTranslation float32     `yaml:"upper_translation,omitempty"`
	EnableMotor      bool        `yaml:"enable_motor,omitempty"`
	MotorSpeed       float32     `yaml:"motor_speed,omitempty"`
	MaxMotorTorque   float32     `yaml:"max_motor_torque,omitempty"`
	MaxMotorForce    float32     `yaml:"max_motor_force,omitempty"`
	Length           float32     `yaml:"length,omitempty"`
	LengthA          float32     `yaml:"length_a,omitempty"`
	LengthB          float32     `yaml:"length_b,omitempty"`
	MaxLength        float32     `yaml:"max_length,omitempty"`
	Ratio            float32     `yaml:"ratio,omitempty"`
	FrequencyHz      float32     `yaml:"frequency_hz,omitempty"`
	DampingRatio     float32     `yaml:"damping_ratio,omitempty"`
	MaxForce         float32     `yaml:"max_force,omitempty"`
	MaxTorque        float32     `yaml:"max_torque,omitempty"`
	LinearOffset     common.Vec2 `yaml:"linear_offset,omitempty"`
	AngularOffset    float32     `yaml:"angular_offset,omitempty"`
	CorrectionFactor float32     `yaml:"correction_factor,omitempty"`
}

type captureOptions struct {
	skipUnsupported bool
}

type CaptureOption func(*captureOptions)

// SkipUnsupported leaves gear and mouse joints out of the document instead
// of failing the capture.
func SkipUnsupported() CaptureOption {
	return func(o *captureOptions) {
		o.skipUnsupported = true
	}
}

// Capture records the state of world. The world must not be locked.
func Capture(world *dynamics.World, opts ...CaptureOption) (*Document, error) {
	if world.IsLocked() {
		return nil, dynamics.ErrWorldLocked
	}

	var o captureOptions
	for _, opt := range opts {
		opt(&o)
	}

	tuning := world.GetTuning()
	doc := &Document{
		Gravity:           world.GetGravity(),
		AllowSleep:        world.GetAllowSleeping(),
		WarmStarting:      world.GetWarmStarting(),
		ContinuousPhysics: world.GetContinuousPhysics(),
		SubStepping:       world.GetSubStepping(),
		AutoClearForces:   world.GetAutoClearForces(),
		Tuning:            &tuning,
	}

	bodyIndex := make(map[*dynamics.Body]int, world.GetBodyCount())
	for b := world.GetBodyList(); b != nil; b = b.GetNext() {
		rec, err := captureBody(b)
		if err != nil {
			return nil, err
		}
		bodyIndex[b] = len(doc.Bodies)
		doc.Bodies = append(doc.Bodies, rec)
	}

	index := 0
	for j := world.GetJointList(); j != nil; j, index = j.GetNext(), index+1 {
		def, err := jointDef(j)
		var unsupported *UnsupportedError
		if errors.As(err, &unsupported) {
			unsupported.Index = index
			if o.skipUnsupported {
				continue
			}
		}
		if err != nil {
			return nil, err
		}

		rec := Joint{
			Kind:             j.GetType().String(),
			BodyIndexA:       bodyIndex[j.GetBodyA()],
			BodyIndexB:       bodyIndex[j.GetBodyB()],
			CollideConnected: j.IsCollideConnected(),
		}
		if err := copier.Copy(&rec.JointParams, def); err != nil {
			return nil, fmt.Errorf("snapshot: joint %d: %w", index, err)
		}
		doc.Joints = append(doc.Joints, rec)
	}

	return doc, nil
}

func captureBody(b *dynamics.Body) (Body, error) {
	def := dynamics.BodyDef{
		Position:        b.GetPosition(),
		Angle:           b.GetAngle(),
		LinearVelocity:  b.GetLinearVelocity(),
		AngularVelocity: b.GetAngularVelocity(),
		LinearDamping:   b.GetLinearDamping(),
		AngularDamping:  b.GetAngularDamping(),
		GravityScale:    b.GetGravityScale(),
		AllowSleep:      b.IsSleepingAllowed(),
		Awake:           b.IsAwake(),
		FixedRotation:   b.IsFixedRotation(),
		Bullet:          b.IsBullet(),
		Active:          b.IsActive(),
	}

	rec := Body{Kind: b.GetType().String()}
	if err := copier.Copy(&rec, &def); err != nil {
		return Body{}, err
	}

	for f := b.GetFixtureList(); f != nil; f = f.GetNext() {
		shape, err := captureShape(f.GetShape())
		if err != nil {
			return Body{}, err
		}
		fd := dynamics.FixtureDef{
			Friction:    f.GetFriction(),
			Restitution: f.GetRestitution(),
			Density:     f.GetDensity(),
			IsSensor:    f.IsSensor(),
			Filter:      f.GetFilterData(),
		}
		fr := Fixture{Geometry: shape}
		if err := copier.Copy(&fr, &fd); err != nil {
			return Body{}, err
		}
		rec.Fixtures = append(rec.Fixtures, fr)
	}

	return rec, nil
}

func captureShape(shape collision.Shape) (Shape, error) {
	rec := Shape{Kind: shape.GetType().String()}

	switch s := shape.(type) {
	case *collision.CircleShape:
		rec.Radius = s.Radius
		rec.Center = s.P
	case *collision.EdgeShape:
		rec.Vertices = []common.Vec2{s.Vertex1, s.Vertex2}
		if s.HasVertex0 {
			rec.Prev = &s.Vertex0
		}
		if s.HasVertex3 {
			rec.Next = &s.Vertex3
		}
	case *collision.PolygonShape:
		rec.Vertices = append([]common.Vec2(nil), s.Vertices[:s.Count]...)
	case *collision.ChainShape:
		rec.Vertices = append([]common.Vec2(nil), s.Vertices...)
		if s.HasPrevVertex {
			rec.Prev = &s.PrevVertex
		}
		if s.HasNextVertex {
			rec.Next = &s.NextVertex
		}
	default:
		return Shape{}, fmt.Errorf("%w: unknown shape %T", ErrMalformed, shape)
	}

	return rec, nil
}

// jointDef rebuilds the definition a live joint was created from.
func jointDef(j dynamics.Joint) (dynamics.JointDef, error) {
	switch j := j.(type) {
	case *dynamics.RevoluteJoint:
		return &dynamics.RevoluteJointDef{
			LocalAnchorA:   j.GetLocalAnchorA(),
			LocalAnchorB:   j.GetLocalAnchorB(),
			ReferenceAngle: j.GetReferenceAngle(),
			EnableLimit:    j.IsLimitEnabled(),
			LowerAngle:     j.GetLowerLimit(),
			UpperAngle:     j.GetUpperLimit(),
			EnableMotor:    j.IsMotorEnabled(),
			MotorSpeed:     j.GetMotorSpeed(),
			MaxMotorTorque: j.GetMaxMotorTorque(),
		}, nil
	case *dynamics.PrismaticJoint:
		return &dynamics.PrismaticJointDef{
			LocalAnchorA:     j.GetLocalAnchorA(),
			LocalAnchorB:     j.GetLocalAnchorB(),
			LocalAxisA:       j.GetLocalAxisA(),
			ReferenceAngle:   j.GetReferenceAngle(),
			EnableLimit:      j.IsLimitEnabled(),
			LowerTranslation: j.GetLowerLimit(),
			UpperTranslation: j.GetUpperLimit(),
			EnableMotor:      j.IsMotorEnabled(),
			MaxMotorForce:    j.GetMaxMotorForce(),
			MotorSpeed:       j.GetMotorSpeed(),
		}, nil
	case *dynamics.DistanceJoint:
		return &dynamics.DistanceJointDef{
			LocalAnchorA: j.GetLocalAnchorA(),
			LocalAnchorB: j.GetLocalAnchorB(),
			Length:       j.GetLength(),
			FrequencyHz:  j.GetFrequency(),
			DampingRatio: j.GetDampingRatio(),
		}, nil
	case *dynamics.PulleyJoint:
		return &dynamics.PulleyJointDef{
			GroundAnchorA: j.GetGroundAnchorA(),
			GroundAnchorB: j.GetGroundAnchorB(),
			LocalAnchorA:  j.GetLocalAnchorA(),
			LocalAnchorB:  j.GetLocalAnchorB(),
			LengthA:       j.GetLengthA(),
			LengthB:       j.GetLengthB(),
			Ratio:         j.GetRatio(),
		}, nil
	case *dynamics.WheelJoint:
		return &dynamics.WheelJointDef{
			LocalAnchorA:   j.GetLocalAnchorA(),
			LocalAnchorB:   j.GetLocalAnchorB(),
			LocalAxisA:     j.GetLocalAxisA(),
			EnableMotor:    j.IsMotorEnabled(),
			MaxMotorTorque: j.GetMaxMotorTorque(),
			MotorSpeed:     j.GetMotorSpeed(),
			FrequencyHz:    j.GetSpringFrequencyHz(),
			DampingRatio:   j.GetSpringDampingRatio(),
		}, nil
	case *dynamics.WeldJoint:
		return &dynamics.WeldJointDef{
			LocalAnchorA:   j.GetLocalAnchorA(),
			LocalAnchorB:   j.GetLocalAnchorB(),
			ReferenceAngle: j.GetReferenceAngle(),
			FrequencyHz:    j.GetFrequency(),
			DampingRatio:   j.GetDampingRatio(),
		}, nil
	case *dynamics.FrictionJoint:
		return &dynamics.FrictionJointDef{
			LocalAnchorA: j.GetLocalAnchorA(),
			LocalAnchorB: j.GetLocalAnchorB(),
			MaxForce:     j.GetMaxForce(),
			MaxTorque:    j.GetMaxTorque(),
		}, nil
	case *dynamics.RopeJoint:
		return &dynamics.RopeJointDef{
			LocalAnchorA: j.GetLocalAnchorA(),
			LocalAnchorB: j.GetLocalAnchorB(),
			MaxLength:    j.GetMaxLength(),
		}, nil
	case *dynamics.MotorJoint:
		return &dynamics.MotorJointDef{
			LinearOffset:     j.GetLinearOffset(),
			AngularOffset:    j.GetAngularOffset(),
			MaxForce:         j.GetMaxForce(),
			MaxTorque:        j.GetMaxTorque(),
			CorrectionFactor: j.GetCorrectionFactor(),
		}, nil
	}
	return nil, &UnsupportedError{Type: j.GetType()}
}

// emptyJointDef returns a definition of the named type carrying only base.
func emptyJointDef(kind string, base dynamics.JointDefBase) (dynamics.JointDef, error) {
	switch kind {
	case dynamics.JointRevolute.String():
		return &dynamics.RevoluteJointDef{JointDefBase: base}, nil
	case dynamics.JointPrismatic.String():
		return &dynamics.PrismaticJointDef{JointDefBase: base}, nil
	case dynamics.JointDistance.String():
		return &dynamics.DistanceJointDef{JointDefBase: base}, nil
	case dynamics.JointPulley.String():
		return &dynamics.PulleyJointDef{JointDefBase: base}, nil
	case dynamics.JointWheel.String():
		return &dynamics.WheelJointDef{JointDefBase: base}, nil
	case dynamics.JointWeld.String():
		return &dynamics.WeldJointDef{JointDefBase: base}, nil
	case dynamics.JointFriction.String():
		return &dynamics.FrictionJointDef{JointDefBase: base}, nil
	case dynamics.JointRope.String():
		return &dynamics.RopeJointDef{JointDefBase: base}, nil
	case dynamics.JointMotor.String():
		return &dynamics.MotorJointDef{JointDefBase: base}, nil
	}
	return nil, fmt.Errorf("%w: joint type %q", ErrMalformed, kind)
}

func parseBodyType(kind string) (dynamics.BodyType, error) {
	for _, t := range []dynamics.BodyType{dynamics.StaticBody, dynamics.KinematicBody, dynamics.DynamicBody} {
		if t.String() == kind {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: body type %q", ErrMalformed, kind)
}

// Restore builds a new world from doc. The options are applied after the
// document's own settings.
func Restore(doc *Document, opts ...dynamics.Option) (*dynamics.World, error) {
	worldOpts := []dynamics.Option{
		dynamics.WithAllowSleep(doc.AllowSleep),
		dynamics.WithWarmStarting(doc.WarmStarting),
		dynamics.WithContinuousPhysics(doc.ContinuousPhysics),
		dynamics.WithSubStepping(doc.SubStepping),
	}
	if doc.Tuning != nil {
		if err := doc.Tuning.Validate(); err != nil {
			return nil, err
		}
		worldOpts = append(worldOpts, dynamics.WithTuning(*doc.Tuning))
	}

	world := dynamics.NewWorld(doc.Gravity, append(worldOpts, opts...)...)
	world.SetAutoClearForces(doc.AutoClearForces)

	// The world prepends to its lists, so walking the document backwards
	// reproduces the captured list order.
	bodies := make([]*dynamics.Body, len(doc.Bodies))
	for i := len(doc.Bodies) - 1; i >= 0; i-- {
		b, err := restoreBody(world, &doc.Bodies[i])
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		bodies[i] = b
	}

	for i := len(doc.Joints) - 1; i >= 0; i-- {
		rec := &doc.Joints[i]
		if rec.BodyIndexA < 0 || rec.BodyIndexA >= len(bodies) || rec.BodyIndexB < 0 || rec.BodyIndexB >= len(bodies) {
			return nil, fmt.Errorf("%w: joint %d references a missing body", ErrMalformed, i)
		}

		def, err := emptyJointDef(rec.Kind, dynamics.JointDefBase{
			BodyA:            bodies[rec.BodyIndexA],
			BodyB:            bodies[rec.BodyIndexB],
			CollideConnected: rec.CollideConnected,
		})
		if err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
		if err := copier.Copy(def, &rec.JointParams); err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}

		if _, err := world.CreateJoint(def); err != nil {
			return nil, fmt.Errorf("joint %d: %w", i, err)
		}
	}

	return world, nil
}

func restoreBody(world *dynamics.World, rec *Body) (*dynamics.Body, error) {
	bodyType, err := parseBodyType(rec.Kind)
	if err != nil {
		return nil, err
	}

	def := dynamics.MakeBodyDef()
	if err := copier.Copy(&def, rec); err != nil {
		return nil, err
	}
	def.Type = bodyType

	b, err := world.CreateBody(&def)
	if err != nil {
		return nil, err
	}

	for i := len(rec.Fixtures) - 1; i >= 0; i-- {
		fr := &rec.Fixtures[i]
		shape, err := restoreShape(&fr.Geometry)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}

		fd := dynamics.MakeFixtureDef()
		if err := copier.Copy(&fd, fr); err != nil {
			return nil, err
		}
		fd.Shape = shape

		if _, err := b.CreateFixture(&fd); err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
	}

	return b, nil
}

func restoreShape(rec *Shape) (collision.Shape, error) {
	switch rec.Kind {
	case collision.ShapeCircle.String():
		circle, err := collision.NewCircleShape(rec.Radius)
		if err != nil {
			return nil, err
		}
		circle.P = rec.Center
		return circle, nil

	case collision.ShapeEdge.String():
		if len(rec.Vertices) != 2 {
			return nil, fmt.Errorf("%w: edge has %d vertices", ErrMalformed, len(rec.Vertices))
		}
		edge := collision.NewEdgeShape(rec.Vertices[0], rec.Vertices[1])
		var v0, v3 common.Vec2
		if rec.Prev != nil {
			v0 = *rec.Prev
		}
		if rec.Next != nil {
			v3 = *rec.Next
		}
		edge.SetGhostVertices(v0, rec.Prev != nil, v3, rec.Next != nil)
		return edge, nil

	case collision.ShapePolygon.String():
		return collision.NewPolygonShapeFromHull(rec.Vertices)

	case collision.ShapeChain.String():
		chain, err := collision.NewChain(rec.Vertices)
		if err != nil {
			return nil, err
		}
		if rec.Prev != nil {
			chain.SetPrevVertex(*rec.Prev)
		}
		if rec.Next != nil {
			chain.SetNextVertex(*rec.Next)
		}
		return chain, nil
	}

	return nil, fmt.Errorf("%w: shape type %q", ErrMalformed, rec.Kind)
}

// Marshal encodes doc as YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// Unmarshal decodes a YAML document.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}
