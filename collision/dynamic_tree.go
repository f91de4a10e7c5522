package collision

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/engine-pi/jbox2d/common"
)

/// Called for each proxy overlapping the query box. Return false to
/// terminate the query.
type TreeQueryCallback func(proxyID int) bool

/// Called for each proxy hit by the ray. Return the new max fraction to
/// clip the ray, 0 to terminate, or a negative value to ignore the proxy.
type TreeRayCastCallback func(input RayCastInput, proxyID int) float32

const NullNode = -1

/// A node in the dynamic tree. The client does not interact with this directly.
type treeNode struct {
	/// Enlarged AABB
	aabb AABB

	userData any

	// parent doubles as the free list link for free nodes.
	parent int
	child1 int
	child2 int

	// leaf = 0, free node = -1
	height int
}

func (n *treeNode) isLeaf() bool {
	return n.child1 == NullNode
}

/// A dynamic AABB tree broad-phase, inspired by Nathanael Presson's btDbvt.
/// A dynamic tree arranges data in a binary tree to accelerate
/// queries such as volume queries and ray casts. Leafs are proxies
/// with an AABB. In the tree we expand the proxy AABB by AABBExtension
/// so that the proxy AABB is bigger than the client object. This allows the client
/// object to move by small amounts without triggering a tree update.
///
/// Nodes are pooled and relocatable, so we use node indices rather than pointers.
type DynamicTree struct {
	root      int
	nodes     []treeNode
	nodeCount int
	freeList  int

	insertionCount int
	stack          []int
}

/// Constructing the tree initializes the node pool.
func NewDynamicTree() *DynamicTree {
	tree := &DynamicTree{root: NullNode}
	tree.grow(16)
	return tree
}

// grow extends the node pool to capacity and threads the new nodes onto
// the free list.
func (tree *DynamicTree) grow(capacity int) {
	old := len(tree.nodes)
	tree.nodes = append(tree.nodes, make([]treeNode, capacity-old)...)
	for i := old; i < capacity-1; i++ {
		tree.nodes[i].parent = i + 1
		tree.nodes[i].height = -1
	}
	tree.nodes[capacity-1].parent = NullNode
	tree.nodes[capacity-1].height = -1
	tree.freeList = old
}

// Allocate a node from the pool. Grow the pool if necessary.
func (tree *DynamicTree) allocateNode() int {
	// Expand the node pool as needed.
	if tree.freeList == NullNode {
		common.Assert(tree.nodeCount == len(tree.nodes), "free list empty with %d/%d nodes", tree.nodeCount, len(tree.nodes))
		tree.grow(2 * len(tree.nodes))
	}

	// Peel a node off the free list.
	nodeID := tree.freeList
	node := &tree.nodes[nodeID]
	tree.freeList = node.parent
	*node = treeNode{parent: NullNode, child1: NullNode, child2: NullNode}
	tree.nodeCount++
	return nodeID
}

// Return a node to the pool.
func (tree *DynamicTree) freeNode(nodeID int) {
	common.Assert(0 <= nodeID && nodeID < len(tree.nodes), "node %d out of range", nodeID)
	common.Assert(0 < tree.nodeCount, "free on empty tree")
	tree.nodes[nodeID] = treeNode{parent: tree.freeList, height: -1}
	tree.freeList = nodeID
	tree.nodeCount--
}

/// Create a proxy. Provide a tight fitting AABB and a userData.
func (tree *DynamicTree) CreateProxy(aabb AABB, userData any) int {
	proxyID := tree.allocateNode()

	// Fatten the aabb.
	node := &tree.nodes[proxyID]
	node.aabb = aabb.Fattened(common.AABBExtension)
	node.userData = userData
	node.height = 0

	tree.insertLeaf(proxyID)
	return proxyID
}

/// Destroy a proxy. This asserts if the id is invalid.
func (tree *DynamicTree) DestroyProxy(proxyID int) {
	tree.assertLeaf(proxyID)
	tree.removeLeaf(proxyID)
	tree.freeNode(proxyID)
}

/// Move a proxy with a swepted AABB. If the proxy has moved outside of its fattened AABB,
/// then the proxy is removed from the tree and re-inserted. Otherwise
/// the function returns immediately.
/// @return true if the proxy was re-inserted.
func (tree *DynamicTree) MoveProxy(proxyID int, aabb AABB, displacement common.Vec2) bool {
	tree.assertLeaf(proxyID)

	if tree.nodes[proxyID].aabb.Contains(aabb) {
		return false
	}

	tree.removeLeaf(proxyID)

	// Extend AABB.
	b := aabb.Fattened(common.AABBExtension)

	// Predict AABB displacement.
	d := displacement.Mul(common.AABBMultiplier)
	if d.X < 0.0 {
		b.LowerBound.X += d.X
	} else {
		b.UpperBound.X += d.X
	}
	if d.Y < 0.0 {
		b.LowerBound.Y += d.Y
	} else {
		b.UpperBound.Y += d.Y
	}

	tree.nodes[proxyID].aabb = b

	tree.insertLeaf(proxyID)
	return true
}

func (tree *DynamicTree) assertLeaf(proxyID int) {
	common.Assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy %d out of range", proxyID)
	common.Assert(tree.nodes[proxyID].height == 0 && tree.nodes[proxyID].isLeaf(), "proxy %d is not a leaf", proxyID)
}

/// Get proxy user data.
func (tree *DynamicTree) GetUserData(proxyID int) any {
	common.Assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy %d out of range", proxyID)
	return tree.nodes[proxyID].userData
}

/// Get the fat AABB for a proxy.
func (tree *DynamicTree) GetFatAABB(proxyID int) AABB {
	common.Assert(0 <= proxyID && proxyID < len(tree.nodes), "proxy %d out of range", proxyID)
	return tree.nodes[proxyID].aabb
}

/// Query an AABB for overlapping proxies. The callback
/// is called for each proxy that overlaps the supplied AABB.
func (tree *DynamicTree) Query(callback TreeQueryCallback, aabb AABB) {
	// Take the scratch stack so a nested query allocates its own.
	stack := append(tree.stack[:0], tree.root)
	tree.stack = nil

	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nodeID == NullNode {
			continue
		}

		node := &tree.nodes[nodeID]
		if !TestOverlapAABB(node.aabb, aabb) {
			continue
		}

		if node.isLeaf() {
			if !callback(nodeID) {
				break
			}
		} else {
			stack = append(stack, node.child1, node.child2)
		}
	}

	tree.stack = stack[:0]
}

/// Ray-cast against the proxies in the tree. This relies on the callback
/// to perform a exact ray-cast in the case were the proxy contains a shape.
/// The callback also performs the any collision filtering. This has performance
/// roughly equal to k * log(n), where k is the number of collisions and n is the
/// number of proxies in the tree.
func (tree *DynamicTree) RayCast(callback TreeRayCastCallback, input RayCastInput) {
	p1 := input.P1
	p2 := input.P2
	r := p2.Sub(p1)
	common.Assert(r.LengthSquared() > 0.0, "zero length ray")
	r.Normalize()

	// v is perpendicular to the segment.
	v := common.CrossSV(1.0, r)
	absV := common.AbsVec2(v)

	maxFraction := input.MaxFraction

	// Build a bounding box for the segment.
	segmentAABB := func() AABB {
		t := p1.Add(p2.Sub(p1).Mul(maxFraction))
		return AABB{LowerBound: common.MinVec2(p1, t), UpperBound: common.MaxVec2(p1, t)}
	}
	segment := segmentAABB()

	// Take the scratch stack so a nested query allocates its own.
	stack := append(tree.stack[:0], tree.root)
	tree.stack = nil

	for len(stack) > 0 {
		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nodeID == NullNode {
			continue
		}

		node := &tree.nodes[nodeID]
		if !TestOverlapAABB(node.aabb, segment) {
			continue
		}

		// Separating axis for segment (Gino, p80).
		// |dot(v, p1 - c)| > dot(|v|, h)
		c := node.aabb.GetCenter()
		h := node.aabb.GetExtents()
		separation := math32.Abs(common.Dot(v, p1.Sub(c))) - common.Dot(absV, h)
		if separation > 0.0 {
			continue
		}

		if node.isLeaf() {
			subInput := RayCastInput{P1: input.P1, P2: input.P2, MaxFraction: maxFraction}

			value := callback(subInput, nodeID)

			if value == 0.0 {
				// The client has terminated the ray cast.
				break
			}

			if value > 0.0 {
				// Update segment bounding box.
				maxFraction = value
				segment = segmentAABB()
			}
		} else {
			stack = append(stack, node.child1, node.child2)
		}
	}

	tree.stack = stack[:0]
}

func (tree *DynamicTree) insertLeaf(leaf int) {
	tree.insertionCount++

	if tree.root == NullNode {
		tree.root = leaf
		tree.nodes[leaf].parent = NullNode
		return
	}

	// Find the best sibling for this node
	leafAABB := tree.nodes[leaf].aabb
	index := tree.root
	for !tree.nodes[index].isLeaf() {
		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		area := tree.nodes[index].aabb.GetPerimeter()
		combinedArea := Combine(tree.nodes[index].aabb, leafAABB).GetPerimeter()

		// Cost of creating a new parent for this node and the new leaf
		cost := 2.0 * combinedArea

		// Minimum cost of pushing the leaf further down the tree
		inheritanceCost := 2.0 * (combinedArea - area)

		// Cost of descending into a child
		descendCost := func(child int) float32 {
			node := &tree.nodes[child]
			newArea := Combine(leafAABB, node.aabb).GetPerimeter()
			if node.isLeaf() {
				return newArea + inheritanceCost
			}
			return newArea - node.aabb.GetPerimeter() + inheritanceCost
		}
		cost1 := descendCost(child1)
		cost2 := descendCost(child2)

		// Descend according to the minimum cost.
		if cost < cost1 && cost < cost2 {
			break
		}

		// Descend
		if cost1 < cost2 {
			index = child1
		} else {
			index = child2
		}
	}

	sibling := index

	// Create a new parent.
	oldParent := tree.nodes[sibling].parent
	newParent := tree.allocateNode()
	tree.nodes[newParent].parent = oldParent
	tree.nodes[newParent].aabb = Combine(leafAABB, tree.nodes[sibling].aabb)
	tree.nodes[newParent].height = tree.nodes[sibling].height + 1
	tree.nodes[newParent].child1 = sibling
	tree.nodes[newParent].child2 = leaf
	tree.nodes[sibling].parent = newParent
	tree.nodes[leaf].parent = newParent

	if oldParent != NullNode {
		// The sibling was not the root.
		if tree.nodes[oldParent].child1 == sibling {
			tree.nodes[oldParent].child1 = newParent
		} else {
			tree.nodes[oldParent].child2 = newParent
		}
	} else {
		// The sibling was the root.
		tree.root = newParent
	}

	// Walk back up the tree fixing heights and AABBs
	tree.refit(tree.nodes[leaf].parent)
}

func (tree *DynamicTree) removeLeaf(leaf int) {
	if leaf == tree.root {
		tree.root = NullNode
		return
	}

	parent := tree.nodes[leaf].parent
	grandParent := tree.nodes[parent].parent
	sibling := tree.nodes[parent].child1
	if sibling == leaf {
		sibling = tree.nodes[parent].child2
	}

	if grandParent == NullNode {
		tree.root = sibling
		tree.nodes[sibling].parent = NullNode
		tree.freeNode(parent)
		return
	}

	// Destroy parent and connect sibling to grandParent.
	if tree.nodes[grandParent].child1 == parent {
		tree.nodes[grandParent].child1 = sibling
	} else {
		tree.nodes[grandParent].child2 = sibling
	}
	tree.nodes[sibling].parent = grandParent
	tree.freeNode(parent)

	// Adjust ancestor bounds.
	tree.refit(grandParent)
}

// refit rebalances and recomputes heights and boxes from index to the root.
func (tree *DynamicTree) refit(index int) {
	for index != NullNode {
		index = tree.balance(index)

		child1 := tree.nodes[index].child1
		child2 := tree.nodes[index].child2

		common.Assert(child1 != NullNode && child2 != NullNode, "internal node %d missing a child", index)

		tree.nodes[index].height = 1 + max(tree.nodes[child1].height, tree.nodes[child2].height)
		tree.nodes[index].aabb = Combine(tree.nodes[child1].aabb, tree.nodes[child2].aabb)

		index = tree.nodes[index].parent
	}
}

// Perform a left or right rotation if node A is imbalanced.
// Returns the new root index.
func (tree *DynamicTree) balance(iA int) int {
	common.Assert(iA != NullNode, "balance of null node")

	A := &tree.nodes[iA]
	if A.isLeaf() || A.height < 2 {
		return iA
	}

	iB := A.child1
	iC := A.child2
	B := &tree.nodes[iB]
	C := &tree.nodes[iC]

	balance := C.height - B.height

	// Rotate C up
	if balance > 1 {
		iF := C.child1
		iG := C.child2
		F := &tree.nodes[iF]
		G := &tree.nodes[iG]

		// Swap A and C
		C.child1 = iA
		C.parent = A.parent
		A.parent = iC

		// A's old parent should point to C
		tree.replaceChild(C.parent, iA, iC)

		// Rotate
		if F.height > G.height {
			C.child2 = iF
			A.child2 = iG
			G.parent = iA
			A.aabb = Combine(B.aabb, G.aabb)
			C.aabb = Combine(A.aabb, F.aabb)

			A.height = 1 + max(B.height, G.height)
			C.height = 1 + max(A.height, F.height)
		} else {
			C.child2 = iG
			A.child2 = iF
			F.parent = iA
			A.aabb = Combine(B.aabb, F.aabb)
			C.aabb = Combine(A.aabb, G.aabb)

			A.height = 1 + max(B.height, F.height)
			C.height = 1 + max(A.height, G.height)
		}

		return iC
	}

	// Rotate B up
	if balance < -1 {
		iD := B.child1
		iE := B.child2
		D := &tree.nodes[iD]
		E := &tree.nodes[iE]

		// Swap A and B
		B.child1 = iA
		B.parent = A.parent
		A.parent = iB

		// A's old parent should point to B
		tree.replaceChild(B.parent, iA, iB)

		// Rotate
		if D.height > E.height {
			B.child2 = iD
			A.child1 = iE
			E.parent = iA
			A.aabb = Combine(C.aabb, E.aabb)
			B.aabb = Combine(A.aabb, D.aabb)

			A.height = 1 + max(C.height, E.height)
			B.height = 1 + max(A.height, D.height)
		} else {
			B.child2 = iE
			A.child1 = iD
			D.parent = iA
			A.aabb = Combine(C.aabb, D.aabb)
			B.aabb = Combine(A.aabb, E.aabb)

			A.height = 1 + max(C.height, D.height)
			B.height = 1 + max(A.height, E.height)
		}

		return iB
	}

	return iA
}

func (tree *DynamicTree) replaceChild(parent, oldChild, newChild int) {
	if parent == NullNode {
		tree.root = newChild
		return
	}
	if tree.nodes[parent].child1 == oldChild {
		tree.nodes[parent].child1 = newChild
	} else {
		common.Assert(tree.nodes[parent].child2 == oldChild, "node %d is not a child of %d", oldChild, parent)
		tree.nodes[parent].child2 = newChild
	}
}

/// Compute the height of the binary tree in O(N) time. Should not be
/// called often.
func (tree *DynamicTree) GetHeight() int {
	if tree.root == NullNode {
		return 0
	}
	return tree.nodes[tree.root].height
}

/// Get the ratio of the sum of the node areas to the root area.
func (tree *DynamicTree) GetAreaRatio() float32 {
	if tree.root == NullNode {
		return 0.0
	}

	rootArea := tree.nodes[tree.root].aabb.GetPerimeter()

	var totalArea float32
	for i := range tree.nodes {
		node := &tree.nodes[i]
		if node.height < 0 {
			// Free node in pool
			continue
		}
		totalArea += node.aabb.GetPerimeter()
	}

	return totalArea / rootArea
}

/// Get the maximum balance of an node in the tree. The balance is the difference
/// in height of the two children of a node.
func (tree *DynamicTree) GetMaxBalance() int {
	maxBalance := 0
	for i := range tree.nodes {
		node := &tree.nodes[i]
		if node.height <= 1 {
			continue
		}

		common.Assert(!node.isLeaf(), "node %d has height %d but no children", i, node.height)
		balance := common.Abs(tree.nodes[node.child2].height - tree.nodes[node.child1].height)
		maxBalance = max(maxBalance, balance)
	}
	return maxBalance
}

// GetNodeCount returns the number of nodes in use, leaves and internal.
func (tree *DynamicTree) GetNodeCount() int {
	return tree.nodeCount
}

// GetInsertionCount reports how many leaf insertions the tree has done.
func (tree *DynamicTree) GetInsertionCount() int {
	return tree.insertionCount
}

func (tree *DynamicTree) computeHeight(nodeID int) int {
	node := &tree.nodes[nodeID]
	if node.isLeaf() {
		return 0
	}
	return 1 + max(tree.computeHeight(node.child1), tree.computeHeight(node.child2))
}

/// Validate this tree. Returns the first broken invariant found.
func (tree *DynamicTree) Validate() error {
	if err := tree.validateStructure(tree.root); err != nil {
		return err
	}
	if err := tree.validateMetrics(tree.root); err != nil {
		return err
	}

	freeCount := 0
	for freeIndex := tree.freeList; freeIndex != NullNode; freeIndex = tree.nodes[freeIndex].parent {
		if freeIndex < 0 || freeIndex >= len(tree.nodes) {
			return fmt.Errorf("free list index %d out of range", freeIndex)
		}
		freeCount++
	}

	if tree.root != NullNode && tree.GetHeight() != tree.computeHeight(tree.root) {
		return fmt.Errorf("stored height %d, computed %d", tree.GetHeight(), tree.computeHeight(tree.root))
	}
	if tree.nodeCount+freeCount != len(tree.nodes) {
		return fmt.Errorf("%d used and %d free nodes in pool of %d", tree.nodeCount, freeCount, len(tree.nodes))
	}
	return nil
}

func (tree *DynamicTree) validateStructure(index int) error {
	if index == NullNode {
		return nil
	}

	node := &tree.nodes[index]
	if index == tree.root && node.parent != NullNode {
		return fmt.Errorf("root %d has parent %d", index, node.parent)
	}

	if node.isLeaf() {
		if node.child2 != NullNode || node.height != 0 {
			return fmt.Errorf("leaf %d has child %d height %d", index, node.child2, node.height)
		}
		return nil
	}

	for _, child := range [2]int{node.child1, node.child2} {
		if child < 0 || child >= len(tree.nodes) {
			return fmt.Errorf("node %d child %d out of range", index, child)
		}
		if tree.nodes[child].parent != index {
			return fmt.Errorf("node %d child %d has parent %d", index, child, tree.nodes[child].parent)
		}
		if err := tree.validateStructure(child); err != nil {
			return err
		}
	}
	return nil
}

func (tree *DynamicTree) validateMetrics(index int) error {
	if index == NullNode {
		return nil
	}

	node := &tree.nodes[index]
	if node.isLeaf() {
		return nil
	}

	child1 := &tree.nodes[node.child1]
	child2 := &tree.nodes[node.child2]

	if height := 1 + max(child1.height, child2.height); node.height != height {
		return fmt.Errorf("node %d height %d, expected %d", index, node.height, height)
	}

	aabb := Combine(child1.aabb, child2.aabb)
	if aabb != node.aabb {
		return fmt.Errorf("node %d box %v does not enclose children %v", index, node.aabb, aabb)
	}

	if err := tree.validateMetrics(node.child1); err != nil {
		return err
	}
	return tree.validateMetrics(node.child2)
}

/// Build an optimal tree. Very expensive. For testing.
func (tree *DynamicTree) RebuildBottomUp() {
	nodes := make([]int, 0, tree.nodeCount)

	// Build array of leaves. Free the rest.
	for i := range tree.nodes {
		if tree.nodes[i].height < 0 {
			// free node in pool
			continue
		}

		if tree.nodes[i].isLeaf() {
			tree.nodes[i].parent = NullNode
			nodes = append(nodes, i)
		} else {
			tree.freeNode(i)
		}
	}

	count := len(nodes)
	for count > 1 {
		minCost := common.MaxFloat
		iMin, jMin := -1, -1
		for i := 0; i < count; i++ {
			aabbi := tree.nodes[nodes[i]].aabb
			for j := i + 1; j < count; j++ {
				cost := Combine(aabbi, tree.nodes[nodes[j]].aabb).GetPerimeter()
				if cost < minCost {
					iMin, jMin = i, j
					minCost = cost
				}
			}
		}

		index1 := nodes[iMin]
		index2 := nodes[jMin]

		parentIndex := tree.allocateNode()
		child1 := &tree.nodes[index1]
		child2 := &tree.nodes[index2]
		parent := &tree.nodes[parentIndex]
		parent.child1 = index1
		parent.child2 = index2
		parent.height = 1 + max(child1.height, child2.height)
		parent.aabb = Combine(child1.aabb, child2.aabb)
		parent.parent = NullNode

		child1.parent = parentIndex
		child2.parent = parentIndex

		nodes[jMin] = nodes[count-1]
		nodes[iMin] = parentIndex
		count--
	}

	if count == 0 {
		tree.root = NullNode
		return
	}
	tree.root = nodes[0]
}

/// Shift the world origin. Useful for large worlds.
/// The shift formula is: position -= newOrigin
func (tree *DynamicTree) ShiftOrigin(newOrigin common.Vec2) {
	for i := range tree.nodes {
		tree.nodes[i].aabb.LowerBound.SubInPlace(newOrigin)
		tree.nodes[i].aabb.UpperBound.SubInPlace(newOrigin)
	}
}
