package dynamics

import (
	"time"

	"github.com/engine-pi/jbox2d/common"
)

/// Profiling data. Each duration holds the wall time of the last step.
type Profile struct {
	Step          time.Duration
	Collide       time.Duration
	Solve         time.Duration
	SolveInit     time.Duration
	SolveVelocity time.Duration
	SolvePosition time.Duration
	Broadphase    time.Duration
	SolveTOI      time.Duration

	// Two-point contacts the block solver left unsolved in the last step.
	BlockSolverFallbacks int
}

/// This is an internal structure.
type TimeStep struct {
	Dt                 float32 // time step
	InvDt              float32 // inverse time step (0 if dt == 0).
	DtRatio            float32 // dt * inv_dt0
	VelocityIterations int
	PositionIterations int
	WarmStarting       bool
}

/// This is an internal structure.
type Position struct {
	C common.Vec2
	A float32
}

/// This is an internal structure.
type Velocity struct {
	V common.Vec2
	W float32
}

/// Solver Data
type SolverData struct {
	Step       TimeStep
	Positions  []Position
	Velocities []Velocity
	Tuning     *common.Tuning
}
