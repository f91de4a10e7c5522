package collision

import (
	"time"

	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/common"
)

/// Input parameters for TimeOfImpact
type TOIInput struct {
	ProxyA DistanceProxy
	ProxyB DistanceProxy
	SweepA common.Sweep
	SweepB common.Sweep
	TMax   float32 // defines sweep interval [0, tMax]
}

type TOIState uint8

const (
	TOIUnknown TOIState = iota
	TOIFailed
	TOIOverlapped
	TOITouching
	TOISeparated
)

func (s TOIState) String() string {
	switch s {
	case TOIFailed:
		return "failed"
	case TOIOverlapped:
		return "overlapped"
	case TOITouching:
		return "touching"
	case TOISeparated:
		return "separated"
	}
	return "unknown"
}

/// Output parameters for TimeOfImpact.
type TOIOutput struct {
	State TOIState
	T     float32
}

const (
	toiMaxIterations     = 20
	toiMaxRootIterations = 50
)

// TOIStats accumulates time of impact counters across calls. The embedded
// GJK counters collect the distance queries issued by the solver.
type TOIStats struct {
	GJK GJKStats

	Calls        int
	Iters        int
	MaxIters     int
	RootIters    int
	MaxRootIters int
	Time         time.Duration
	MaxTime      time.Duration
}

type separationType uint8

const (
	separationPoints separationType = iota
	separationFaceA
	separationFaceB
)

type separationFunction struct {
	proxyA, proxyB *DistanceProxy
	sweepA, sweepB common.Sweep
	kind           separationType
	localPoint     common.Vec2
	axis           common.Vec2
}

func (f *separationFunction) initialize(cache *SimplexCache, proxyA *DistanceProxy, sweepA common.Sweep, proxyB *DistanceProxy, sweepB common.Sweep, t1 float32) float32 {
	f.proxyA = proxyA
	f.proxyB = proxyB
	count := cache.Count
	common.Assert(0 < count && count < 3, "separation function from simplex of %d", count)

	f.sweepA = sweepA
	f.sweepB = sweepB

	xfA := f.sweepA.GetTransform(t1)
	xfB := f.sweepB.GetTransform(t1)

	if count == 1 {
		f.kind = separationPoints
		pointA := common.MulXV(xfA, proxyA.GetVertex(cache.IndexA[0]))
		pointB := common.MulXV(xfB, proxyB.GetVertex(cache.IndexB[0]))
		f.axis = pointB.Sub(pointA)
		return f.axis.Normalize()
	}

	if cache.IndexA[0] == cache.IndexA[1] {
		// Two points on B and one on A.
		f.kind = separationFaceB
		localPointB1 := proxyB.GetVertex(cache.IndexB[0])
		localPointB2 := proxyB.GetVertex(cache.IndexB[1])

		f.axis = common.CrossVS(localPointB2.Sub(localPointB1), 1.0)
		f.axis.Normalize()
		normal := common.MulRV(xfB.Q, f.axis)

		f.localPoint = localPointB1.Add(localPointB2).Mul(0.5)
		pointB := common.MulXV(xfB, f.localPoint)
		pointA := common.MulXV(xfA, proxyA.GetVertex(cache.IndexA[0]))

		s := common.Dot(pointA.Sub(pointB), normal)
		if s < 0.0 {
			f.axis = f.axis.Neg()
			s = -s
		}
		return s
	}

	// Two points on A and one or two points on B.
	f.kind = separationFaceA
	localPointA1 := proxyA.GetVertex(cache.IndexA[0])
	localPointA2 := proxyA.GetVertex(cache.IndexA[1])

	f.axis = common.CrossVS(localPointA2.Sub(localPointA1), 1.0)
	f.axis.Normalize()
	normal := common.MulRV(xfA.Q, f.axis)

	f.localPoint = localPointA1.Add(localPointA2).Mul(0.5)
	pointA := common.MulXV(xfA, f.localPoint)
	pointB := common.MulXV(xfB, proxyB.GetVertex(cache.IndexB[0]))

	s := common.Dot(pointB.Sub(pointA), normal)
	if s < 0.0 {
		f.axis = f.axis.Neg()
		s = -s
	}
	return s
}

// findMinSeparation returns the deepest separation at t and the witness
// vertex indices. An index is -1 when the face side owns it.
func (f *separationFunction) findMinSeparation(t float32) (separation float32, indexA, indexB int) {
	xfA := f.sweepA.GetTransform(t)
	xfB := f.sweepB.GetTransform(t)

	switch f.kind {
	case separationPoints:
		axisA := common.MulTRV(xfA.Q, f.axis)
		axisB := common.MulTRV(xfB.Q, f.axis.Neg())

		indexA = f.proxyA.GetSupport(axisA)
		indexB = f.proxyB.GetSupport(axisB)

		pointA := common.MulXV(xfA, f.proxyA.GetVertex(indexA))
		pointB := common.MulXV(xfB, f.proxyB.GetVertex(indexB))
		return common.Dot(pointB.Sub(pointA), f.axis), indexA, indexB

	case separationFaceA:
		normal := common.MulRV(xfA.Q, f.axis)
		pointA := common.MulXV(xfA, f.localPoint)

		axisB := common.MulTRV(xfB.Q, normal.Neg())

		indexA = -1
		indexB = f.proxyB.GetSupport(axisB)

		pointB := common.MulXV(xfB, f.proxyB.GetVertex(indexB))
		return common.Dot(pointB.Sub(pointA), normal), indexA, indexB

	case separationFaceB:
		normal := common.MulRV(xfB.Q, f.axis)
		pointB := common.MulXV(xfB, f.localPoint)

		axisA := common.MulTRV(xfA.Q, normal.Neg())

		indexB = -1
		indexA = f.proxyA.GetSupport(axisA)

		pointA := common.MulXV(xfA, f.proxyA.GetVertex(indexA))
		return common.Dot(pointA.Sub(pointB), normal), indexA, indexB
	}

	common.Assert(false, "separation type %d", f.kind)
	return 0.0, -1, -1
}

func (f *separationFunction) evaluate(indexA, indexB int, t float32) float32 {
	xfA := f.sweepA.GetTransform(t)
	xfB := f.sweepB.GetTransform(t)

	switch f.kind {
	case separationPoints:
		pointA := common.MulXV(xfA, f.proxyA.GetVertex(indexA))
		pointB := common.MulXV(xfB, f.proxyB.GetVertex(indexB))
		return common.Dot(pointB.Sub(pointA), f.axis)

	case separationFaceA:
		normal := common.MulRV(xfA.Q, f.axis)
		pointA := common.MulXV(xfA, f.localPoint)
		pointB := common.MulXV(xfB, f.proxyB.GetVertex(indexB))
		return common.Dot(pointB.Sub(pointA), normal)

	case separationFaceB:
		normal := common.MulRV(xfB.Q, f.axis)
		pointB := common.MulXV(xfB, f.localPoint)
		pointA := common.MulXV(xfA, f.proxyA.GetVertex(indexA))
		return common.Dot(pointA.Sub(pointB), normal)
	}

	common.Assert(false, "separation type %d", f.kind)
	return 0.0
}

/// Compute the upper bound on time before two shapes penetrate. Time is represented as
/// a fraction between [0,tMax]. This uses a swept separating axis and may miss some intermediate,
/// non-tunneling collision. If you change the time interval, you should call this function
/// again.
/// Note: use Distance to compute the contact point and normal at the time of impact.
/// stats may be nil.
// CCD via the local separating axis method. This seeks progression
// by computing the largest time at which separation is maintained.
func TimeOfImpact(input *TOIInput, stats *TOIStats) TOIOutput {
	start := time.Now()

	var gjkStats *GJKStats
	if stats != nil {
		stats.Calls++
		gjkStats = &stats.GJK
	}

	output := TOIOutput{State: TOIUnknown, T: input.TMax}

	proxyA := &input.ProxyA
	proxyB := &input.ProxyB

	sweepA := input.SweepA
	sweepB := input.SweepB

	// Large rotations can make the root finder fail, so we normalize the
	// sweep angles.
	sweepA.Normalize()
	sweepB.Normalize()

	tMax := input.TMax

	totalRadius := proxyA.Radius + proxyB.Radius
	target := math32.Max(common.LinearSlop, totalRadius-3.0*common.LinearSlop)
	tolerance := 0.25 * common.LinearSlop
	common.Assert(target > tolerance, "toi target %v below tolerance", target)

	var t1 float32
	iter := 0

	// Prepare input for distance query.
	var cache SimplexCache
	var distanceInput DistanceInput
	distanceInput.ProxyA = input.ProxyA
	distanceInput.ProxyB = input.ProxyB
	distanceInput.UseRadii = false

	// The outer loop progressively attempts to compute new separating axes.
	// This loop terminates when an axis is repeated (no progress is made).
	for {
		// Get the distance between shapes. We can also use the results
		// to get a separating axis.
		distanceInput.TransformA = sweepA.GetTransform(t1)
		distanceInput.TransformB = sweepB.GetTransform(t1)
		distanceOutput := Distance(&cache, &distanceInput, gjkStats)

		// If the shapes are overlapped, we give up on continuous collision.
		if distanceOutput.Distance <= 0.0 {
			// Failure!
			output.State = TOIOverlapped
			output.T = 0.0
			break
		}

		if distanceOutput.Distance < target+tolerance {
			// Victory!
			output.State = TOITouching
			output.T = t1
			break
		}

		// Initialize the separating axis.
		var fcn separationFunction
		fcn.initialize(&cache, proxyA, sweepA, proxyB, sweepB, t1)

		// Compute the TOI on the separating axis. We do this by successively
		// resolving the deepest point. This loop is bounded by the number of vertices.
		done := false
		t2 := tMax
		for pushBackIter := 0; pushBackIter < common.MaxPolygonVertices; pushBackIter++ {
			// Find the deepest point at t2. Store the witness point indices.
			s2, indexA, indexB := fcn.findMinSeparation(t2)

			// Is the final configuration separated?
			if s2 > target+tolerance {
				// Victory!
				output.State = TOISeparated
				output.T = tMax
				done = true
				break
			}

			// Has the separation reached tolerance?
			if s2 > target-tolerance {
				// Advance the sweeps
				t1 = t2
				break
			}

			// Compute the initial separation of the witness points.
			s1 := fcn.evaluate(indexA, indexB, t1)

			// Check for initial overlap. This might happen if the root finder
			// runs out of iterations.
			if s1 < target-tolerance {
				output.State = TOIFailed
				output.T = t1
				done = true
				break
			}

			// Check for touching
			if s1 <= target+tolerance {
				// Victory! t1 should hold the TOI (could be 0.0).
				output.State = TOITouching
				output.T = t1
				done = true
				break
			}

			// Compute 1D root of: f(x) - target = 0
			rootIterCount := 0
			a1, a2 := t1, t2
			for rootIterCount < toiMaxRootIterations {
				// Use a mix of the secant rule and bisection.
				var t float32
				if rootIterCount&1 != 0 {
					// Secant rule to improve convergence.
					t = a1 + (target-s1)*(a2-a1)/(s2-s1)
				} else {
					// Bisection to guarantee progress.
					t = 0.5 * (a1 + a2)
				}
				rootIterCount++

				s := fcn.evaluate(indexA, indexB, t)

				if math32.Abs(s-target) < tolerance {
					// t2 holds a tentative value for t1
					t2 = t
					break
				}

				// Ensure we continue to bracket the root.
				if s > target {
					a1, s1 = t, s
				} else {
					a2, s2 = t, s
				}
			}

			if stats != nil {
				stats.RootIters += rootIterCount
				stats.MaxRootIters = max(stats.MaxRootIters, rootIterCount)
			}
		}

		iter++
		if stats != nil {
			stats.Iters++
		}

		if done {
			break
		}

		if iter == toiMaxIterations {
			// Root finder got stuck. Semi-victory.
			output.State = TOIFailed
			output.T = t1
			break
		}
	}

	if stats != nil {
		stats.MaxIters = max(stats.MaxIters, iter)
		elapsed := time.Since(start)
		stats.MaxTime = max(stats.MaxTime, elapsed)
		stats.Time += elapsed
	}

	return output
}
