package collision

import (
	"math/rand"
	"testing"

	"github.com/engine-pi/jbox2d/common"
)

func boxAt(x, y, h float32) AABB {
	return MakeAABB(common.MakeVec2(x-h, y-h), common.MakeVec2(x+h, y+h))
}

func randomTree(t *testing.T, n int) (*DynamicTree, []int, []AABB) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	tree := NewDynamicTree()
	ids := make([]int, n)
	boxes := make([]AABB, n)
	for i := range ids {
		boxes[i] = boxAt(rng.Float32()*100, rng.Float32()*100, 0.5+rng.Float32())
		ids[i] = tree.CreateProxy(boxes[i], i)
	}
	return tree, ids, boxes
}

func TestDynamicTree(t *testing.T) {
	t.Run("invariants hold after inserts", func(t *testing.T) {
		tree, _, _ := randomTree(t, 200)
		if err := tree.Validate(); err != nil {
			t.Fatal(err)
		}
		t.Logf("height %d, max balance %d", tree.GetHeight(), tree.GetMaxBalance())
		// A balanced tree of 200 leaves stays far below a linear chain.
		if h := tree.GetHeight(); h > 20 {
			t.Errorf("height = %d", h)
		}
		if tree.GetAreaRatio() < 1 {
			t.Errorf("area ratio = %v", tree.GetAreaRatio())
		}
	})

	t.Run("fat boxes enclose tight boxes", func(t *testing.T) {
		tree, ids, boxes := randomTree(t, 50)
		for i, id := range ids {
			if !tree.GetFatAABB(id).Contains(boxes[i]) {
				t.Errorf("proxy %d fat box does not contain tight box", id)
			}
			if tree.GetUserData(id) != i {
				t.Errorf("proxy %d user data %v", id, tree.GetUserData(id))
			}
		}
	})

	t.Run("small moves stay in place", func(t *testing.T) {
		tree := NewDynamicTree()
		id := tree.CreateProxy(boxAt(0, 0, 1), nil)
		if tree.MoveProxy(id, boxAt(0.05, 0, 1), common.MakeVec2(0.05, 0)) {
			t.Error("move inside the fat margin reinserted")
		}
		if !tree.MoveProxy(id, boxAt(3, 0, 1), common.MakeVec2(3, 0)) {
			t.Error("large move not reinserted")
		}
		fat := tree.GetFatAABB(id)
		// Displacement is extrapolated ahead of the motion.
		if fat.UpperBound.X < 4+common.AABBExtension+common.AABBMultiplier*3-tolerance {
			t.Errorf("fat box %v not extended along displacement", fat)
		}
		if !near(fat.LowerBound.X, 2-common.AABBExtension) {
			t.Errorf("fat box %v extended behind the motion", fat)
		}
	})

	t.Run("destroy keeps structure", func(t *testing.T) {
		tree, ids, _ := randomTree(t, 100)
		for i := 0; i < len(ids); i += 2 {
			tree.DestroyProxy(ids[i])
		}
		if err := tree.Validate(); err != nil {
			t.Fatal(err)
		}
		for i := 1; i < len(ids); i += 2 {
			tree.DestroyProxy(ids[i])
		}
		if tree.GetHeight() != 0 || tree.GetNodeCount() != 0 {
			t.Errorf("empty tree height %d nodes %d", tree.GetHeight(), tree.GetNodeCount())
		}
	})

	t.Run("query matches brute force", func(t *testing.T) {
		tree, ids, _ := randomTree(t, 150)
		query := MakeAABB(common.MakeVec2(20, 20), common.MakeVec2(60, 45))

		found := map[int]bool{}
		tree.Query(func(id int) bool {
			found[id] = true
			return true
		}, query)

		for _, id := range ids {
			want := TestOverlapAABB(tree.GetFatAABB(id), query)
			if found[id] != want {
				t.Errorf("proxy %d: found %v, overlap %v", id, found[id], want)
			}
		}
	})

	t.Run("query stops when callback returns false", func(t *testing.T) {
		tree, _, _ := randomTree(t, 50)
		calls := 0
		tree.Query(func(int) bool {
			calls++
			return false
		}, MakeAABB(common.MakeVec2(-1000, -1000), common.MakeVec2(1000, 1000)))
		if calls != 1 {
			t.Errorf("calls = %d", calls)
		}
	})

	t.Run("ray cast clips to closest hit", func(t *testing.T) {
		tree := NewDynamicTree()
		nearID := tree.CreateProxy(boxAt(5, 0, 1), "near")
		tree.CreateProxy(boxAt(10, 0, 1), "far")
		tree.CreateProxy(boxAt(5, 10, 1), "off axis")

		input := RayCastInput{P1: common.MakeVec2(0, 0), P2: common.MakeVec2(20, 0), MaxFraction: 1}
		closest := NullNode
		var best float32 = 1
		tree.RayCast(func(in RayCastInput, id int) float32 {
			out, hit := tree.GetFatAABB(id).RayCast(in)
			if !hit {
				return -1
			}
			if out.Fraction < best {
				best = out.Fraction
				closest = id
			}
			return out.Fraction
		}, input)

		if closest != nearID {
			t.Errorf("closest = %v (%v)", closest, tree.GetUserData(closest))
		}
	})

	t.Run("rebuild keeps leaves", func(t *testing.T) {
		tree, ids, _ := randomTree(t, 40)
		tree.RebuildBottomUp()
		if err := tree.Validate(); err != nil {
			t.Fatal(err)
		}
		count := 0
		tree.Query(func(int) bool { count++; return true }, MakeAABB(common.MakeVec2(-1000, -1000), common.MakeVec2(1000, 1000)))
		if count != len(ids) {
			t.Errorf("found %d of %d leaves", count, len(ids))
		}
	})

	t.Run("shift origin", func(t *testing.T) {
		tree := NewDynamicTree()
		id := tree.CreateProxy(boxAt(5, 5, 1), nil)
		before := tree.GetFatAABB(id)
		tree.ShiftOrigin(common.MakeVec2(5, 5))
		after := tree.GetFatAABB(id)
		want := before.GetCenter().Sub(common.MakeVec2(5, 5))
		if !near(after.GetCenter().X, want.X) || !near(after.GetCenter().Y, want.Y) {
			t.Errorf("center %v", after.GetCenter())
		}
	})
}

func TestBroadPhase(t *testing.T) {
	t.Run("pairs are reported once in order", func(t *testing.T) {
		bp := NewBroadPhase()
		a := bp.CreateProxy(boxAt(0, 0, 1), "a")
		b := bp.CreateProxy(boxAt(1, 0, 1), "b")
		c := bp.CreateProxy(boxAt(1.5, 0.5, 1), "c")
		bp.CreateProxy(boxAt(50, 0, 1), "far")

		var pairs [][2]any
		bp.UpdatePairs(func(userDataA, userDataB any) {
			pairs = append(pairs, [2]any{userDataA, userDataB})
		})

		want := [][2]any{{"a", "b"}, {"a", "c"}, {"b", "c"}}
		if len(pairs) != len(want) {
			t.Fatalf("pairs = %v", pairs)
		}
		for i := range want {
			if pairs[i] != want[i] {
				t.Errorf("pair %d = %v, want %v", i, pairs[i], want[i])
			}
		}
		if !bp.TestOverlap(a, b) || !bp.TestOverlap(b, c) {
			t.Error("fat overlap")
		}
		if bp.GetProxyCount() != 4 {
			t.Errorf("proxy count = %d", bp.GetProxyCount())
		}
	})

	t.Run("only moved proxies are requeried", func(t *testing.T) {
		bp := NewBroadPhase()
		bp.CreateProxy(boxAt(0, 0, 1), "a")
		b := bp.CreateProxy(boxAt(10, 0, 1), "b")
		bp.UpdatePairs(func(any, any) { t.Error("unexpected pair") })

		count := 0
		bp.UpdatePairs(func(any, any) { count++ })
		if count != 0 {
			t.Errorf("idle update reported %d pairs", count)
		}

		bp.MoveProxy(b, boxAt(1, 0, 1), common.MakeVec2(-9, 0))
		bp.UpdatePairs(func(any, any) { count++ })
		if count != 1 {
			t.Errorf("move reported %d pairs", count)
		}

		bp.TouchProxy(b)
		bp.UpdatePairs(func(any, any) { count++ })
		if count != 2 {
			t.Errorf("touch reported %d pairs total", count)
		}
	})

	t.Run("destroyed proxy is unbuffered", func(t *testing.T) {
		bp := NewBroadPhase()
		bp.CreateProxy(boxAt(0, 0, 1), "a")
		b := bp.CreateProxy(boxAt(1, 0, 1), "b")
		bp.DestroyProxy(b)
		bp.UpdatePairs(func(any, any) { t.Error("pair with destroyed proxy") })
	})

	t.Run("pairs come from the backing tree", func(t *testing.T) {
		tree := &countingTree{DynamicTree: NewDynamicTree()}
		bp := newBroadPhase(tree)
		bp.CreateProxy(boxAt(0, 0, 1), "a")
		bp.CreateProxy(boxAt(1, 0, 1), "b")

		count := 0
		bp.UpdatePairs(func(any, any) { count++ })
		if count != 1 || tree.queries != 2 {
			t.Errorf("pairs = %d, tree queries = %d", count, tree.queries)
		}
		if bp.GetTreeHeight() != tree.GetHeight() {
			t.Errorf("height = %d, want %d", bp.GetTreeHeight(), tree.GetHeight())
		}
	})
}

// countingTree records the queries a BroadPhase sends to its tree.
type countingTree struct {
	*DynamicTree
	queries int
}

func (tree *countingTree) Query(callback TreeQueryCallback, aabb AABB) {
	tree.queries++
	tree.DynamicTree.Query(callback, aabb)
}
