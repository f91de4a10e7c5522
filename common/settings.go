package common

import (
	"fmt"
	"math"
)

// Assert panics when a is false. It guards against programmer misuse of the
// engine (stepping a locked world, negative time steps, foreign handles).
func Assert(a bool, format string, args ...any) {
	if !a {
		panic("jbox2d: " + fmt.Sprintf(format, args...))
	}
}

const MaxFloat float32 = math.MaxFloat32

/// Single precision machine epsilon.
const Epsilon float32 = 1.1920929e-7

const Pi float32 = math.Pi

/// @file
/// Global constants based on meters-kilograms-seconds (MKS) units. The solver
/// tuning knobs that callers may change live in Tuning.
///

// Collision

/// The maximum number of contact points between two convex shapes. Do
/// not change this value.
const MaxManifoldPoints = 2

/// The maximum number of vertices on a convex polygon.
const MaxPolygonVertices = 8

/// This is used to fatten AABBs in the dynamic tree. This allows proxies
/// to move by a small amount without triggering a tree adjustment.
/// This is in meters.
const AABBExtension float32 = 0.1

/// This is used to fatten AABBs in the dynamic tree. This is used to predict
/// the future position based on the current displacement.
/// This is a dimensionless multiplier.
const AABBMultiplier float32 = 2.0

/// A small length used as a collision and constraint tolerance. Usually it is
/// chosen to be numerically significant, but visually insignificant.
const LinearSlop float32 = 0.005

/// A small angle used as a collision and constraint tolerance.
const AngularSlop float32 = 2.0 / 180.0 * Pi

/// The radius of the polygon/edge shape skin. This should not be modified. Making
/// this smaller means polygons will have an insufficient buffer for continuous collision.
/// Making it larger may create artifacts for vertex collision.
const PolygonRadius float32 = 2.0 * LinearSlop

/// Maximum number of sub-steps per contact in continuous physics simulation.
const MaxSubSteps = 8

// Dynamics

/// Maximum number of contacts to be handled to solve a TOI impact.
const MaxTOIContacts = 32

/// A velocity threshold for elastic collisions. Any collision with a relative linear
/// velocity below this threshold will be treated as inelastic.
const VelocityThreshold float32 = 1.0

/// The maximum linear position correction used when solving constraints. This helps to
/// prevent overshoot.
const MaxLinearCorrection float32 = 0.2

/// The maximum angular position correction used when solving constraints. This helps to
/// prevent overshoot.
const MaxAngularCorrection float32 = 8.0 / 180.0 * Pi

/// The maximum linear velocity of a body. This limit is very large and is used
/// to prevent numerical problems. You shouldn't need to adjust this.
const MaxTranslation float32 = 2.0

/// The maximum angular velocity of a body.
const MaxRotation float32 = 0.5 * Pi

/// This scale factor controls how fast overlap is resolved. Ideally this would be 1 so
/// that overlap is removed in one time step. However using values close to 1 often lead
/// to overshoot.
const Baumgarte float32 = 0.2
const TOIBaumgarte float32 = 0.75

// Sleep

/// The time that a body must be still before it will go to sleep.
const TimeToSleep float32 = 0.5

/// A body cannot sleep if its linear velocity is above this tolerance.
const LinearSleepTolerance float32 = 0.01

/// A body cannot sleep if its angular velocity is above this tolerance.
const AngularSleepTolerance float32 = 2.0 / 180.0 * Pi
