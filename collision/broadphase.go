package collision

import (
	"cmp"

	"golang.org/x/exp/slices"

	"github.com/engine-pi/jbox2d/common"
)

/// Called once per new overlapping proxy pair, with the proxies' user data.
type AddPairCallback func(userDataA, userDataB any)

type proxyPair struct {
	proxyIDA int
	proxyIDB int
}

func comparePairs(a, b proxyPair) int {
	if c := cmp.Compare(a.proxyIDA, b.proxyIDA); c != 0 {
		return c
	}
	return cmp.Compare(a.proxyIDB, b.proxyIDB)
}

const NullProxy = -1

// proxyTree is the spatial index a BroadPhase keeps its proxies in.
type proxyTree interface {
	CreateProxy(aabb AABB, userData any) int
	DestroyProxy(proxyID int)
	MoveProxy(proxyID int, aabb AABB, displacement common.Vec2) bool
	GetUserData(proxyID int) any
	GetFatAABB(proxyID int) AABB
	Query(callback TreeQueryCallback, aabb AABB)
	RayCast(callback TreeRayCastCallback, input RayCastInput)
	ShiftOrigin(newOrigin common.Vec2)
	GetHeight() int
	GetMaxBalance() int
	GetAreaRatio() float32
}

var _ proxyTree = (*DynamicTree)(nil)

/// The broad-phase is used for computing pairs and performing volume queries and ray casts.
/// This broad-phase does not persist pairs. Instead, this reports potentially new pairs.
/// It is up to the client to consume the new pairs and to track subsequent overlap.
type BroadPhase struct {
	tree proxyTree

	proxyCount int

	moveBuffer []int
	pairBuffer []proxyPair

	queryProxyID int
}

func NewBroadPhase() *BroadPhase {
	return newBroadPhase(NewDynamicTree())
}

func newBroadPhase(tree proxyTree) *BroadPhase {
	return &BroadPhase{
		tree:       tree,
		moveBuffer: make([]int, 0, 16),
		pairBuffer: make([]proxyPair, 0, 16),
	}
}

/// Create a proxy with an initial AABB. Pairs are not reported until
/// UpdatePairs is called.
func (bp *BroadPhase) CreateProxy(aabb AABB, userData any) int {
	proxyID := bp.tree.CreateProxy(aabb, userData)
	bp.proxyCount++
	bp.bufferMove(proxyID)
	return proxyID
}

/// Destroy a proxy. It is up to the client to remove any pairs.
func (bp *BroadPhase) DestroyProxy(proxyID int) {
	bp.unbufferMove(proxyID)
	bp.proxyCount--
	bp.tree.DestroyProxy(proxyID)
}

/// Call MoveProxy as many times as you like, then when you are done
/// call UpdatePairs to finalized the proxy pairs (for your time step).
func (bp *BroadPhase) MoveProxy(proxyID int, aabb AABB, displacement common.Vec2) {
	if bp.tree.MoveProxy(proxyID, aabb, displacement) {
		bp.bufferMove(proxyID)
	}
}

/// Call to trigger a re-processing of it's pairs on the next call to UpdatePairs.
func (bp *BroadPhase) TouchProxy(proxyID int) {
	bp.bufferMove(proxyID)
}

/// Get the fat AABB for a proxy.
func (bp *BroadPhase) GetFatAABB(proxyID int) AABB {
	return bp.tree.GetFatAABB(proxyID)
}

/// Get user data from a proxy. Returns nil if the id is invalid.
func (bp *BroadPhase) GetUserData(proxyID int) any {
	return bp.tree.GetUserData(proxyID)
}

/// Test overlap of fat AABBs.
func (bp *BroadPhase) TestOverlap(proxyIDA, proxyIDB int) bool {
	return TestOverlapAABB(bp.tree.GetFatAABB(proxyIDA), bp.tree.GetFatAABB(proxyIDB))
}

/// Get the number of proxies.
func (bp *BroadPhase) GetProxyCount() int {
	return bp.proxyCount
}

/// Get the height of the embedded tree.
func (bp *BroadPhase) GetTreeHeight() int {
	return bp.tree.GetHeight()
}

/// Get the balance of the embedded tree.
func (bp *BroadPhase) GetTreeBalance() int {
	return bp.tree.GetMaxBalance()
}

/// Get the quality metric of the embedded tree.
func (bp *BroadPhase) GetTreeQuality() float32 {
	return bp.tree.GetAreaRatio()
}

/// Update the pairs. This results in pair callbacks. This can only add pairs.
/// Pairs are reported in ascending proxy id order, each pair once.
func (bp *BroadPhase) UpdatePairs(callback AddPairCallback) {
	// Reset pair buffer
	bp.pairBuffer = bp.pairBuffer[:0]

	// Perform tree queries for all moving proxies.
	for _, proxyID := range bp.moveBuffer {
		bp.queryProxyID = proxyID
		if proxyID == NullProxy {
			continue
		}

		// We have to query the tree with the fat AABB so that
		// we don't fail to create a pair that may touch later.
		fatAABB := bp.tree.GetFatAABB(proxyID)

		// Query tree, create pairs and add them pair buffer.
		bp.tree.Query(bp.queryCallback, fatAABB)
	}

	// Reset move buffer
	bp.moveBuffer = bp.moveBuffer[:0]

	// Sort the pair buffer to expose duplicates.
	slices.SortFunc(bp.pairBuffer, comparePairs)
	bp.pairBuffer = slices.Compact(bp.pairBuffer)

	// Send the pairs back to the client.
	for _, pair := range bp.pairBuffer {
		callback(bp.tree.GetUserData(pair.proxyIDA), bp.tree.GetUserData(pair.proxyIDB))
	}
}

/// Query an AABB for overlapping proxies. The callback class
/// is called for each proxy that overlaps the supplied AABB.
func (bp *BroadPhase) Query(callback TreeQueryCallback, aabb AABB) {
	bp.tree.Query(callback, aabb)
}

/// Ray-cast against the proxies in the tree.
func (bp *BroadPhase) RayCast(callback TreeRayCastCallback, input RayCastInput) {
	bp.tree.RayCast(callback, input)
}

/// Shift the world origin. Useful for large worlds.
func (bp *BroadPhase) ShiftOrigin(newOrigin common.Vec2) {
	bp.tree.ShiftOrigin(newOrigin)
}

func (bp *BroadPhase) bufferMove(proxyID int) {
	bp.moveBuffer = append(bp.moveBuffer, proxyID)
}

func (bp *BroadPhase) unbufferMove(proxyID int) {
	for i, id := range bp.moveBuffer {
		if id == proxyID {
			bp.moveBuffer[i] = NullProxy
		}
	}
}

// This is called from DynamicTree.Query when we are gathering pairs.
func (bp *BroadPhase) queryCallback(proxyID int) bool {
	// A proxy cannot form a pair with itself.
	if proxyID == bp.queryProxyID {
		return true
	}

	bp.pairBuffer = append(bp.pairBuffer, proxyPair{
		proxyIDA: min(proxyID, bp.queryProxyID),
		proxyIDB: max(proxyID, bp.queryProxyID),
	})
	return true
}
