package spatial

import (
	"fmt"
	"math"
)

const nullNode int32 = -1

type treeNode struct {
	aabb   AABB
	data   int32
	parent int32
	child1 int32
	child2 int32
	next   int32 // free list link
	height int32 // -1 for free nodes, 0 for leaves
}

func (n *treeNode) isLeaf() bool { return n.child1 == nullNode }

// Tree is a dynamic AABB tree. Leaves store fat boxes so that small moves
// do not restructure the tree. Internal nodes are kept height balanced with
// rotations. Tree is not safe for concurrent use.
type Tree struct {
	nodes  []treeNode
	root   int32
	free   int32
	margin float64
	count  int
	stack  []int32
}

// NewTree returns an empty tree whose leaves are enlarged by margin.
func NewTree(margin float64) *Tree {
	return &Tree{root: nullNode, free: nullNode, margin: margin}
}

// Len returns the number of proxies.
func (t *Tree) Len() int { return t.count }

// Clear removes every proxy while keeping allocated storage.
func (t *Tree) Clear() {
	t.nodes = t.nodes[:0]
	t.root = nullNode
	t.free = nullNode
	t.count = 0
}

func (t *Tree) allocateNode() int32 {
	if t.free == nullNode {
		t.nodes = append(t.nodes, treeNode{})
		id := int32(len(t.nodes) - 1)
		t.resetNode(id)
		return id
	}
	id := t.free
	t.free = t.nodes[id].next
	t.resetNode(id)
	return id
}

func (t *Tree) resetNode(id int32) {
	t.nodes[id] = treeNode{data: -1, parent: nullNode, child1: nullNode, child2: nullNode, next: nullNode}
}

func (t *Tree) freeNode(id int32) {
	t.nodes[id].next = t.free
	t.nodes[id].height = -1
	t.free = id
}

// CreateProxy inserts box and returns its proxy id. data is returned by Data.
func (t *Tree) CreateProxy(box AABB, data int32) int32 {
	id := t.allocateNode()
	n := &t.nodes[id]
	n.aabb = box.Expand(t.margin)
	n.data = data
	n.height = 0
	t.insertLeaf(id)
	t.count++
	return id
}

// DestroyProxy removes a proxy created by CreateProxy.
func (t *Tree) DestroyProxy(id int32) {
	t.removeLeaf(id)
	t.freeNode(id)
	t.count--
}

// MoveProxy updates the box of a proxy. It reports whether the proxy had to
// be reinserted because box left its fat box.
func (t *Tree) MoveProxy(id int32, box AABB) bool {
	if t.nodes[id].aabb.Contains(box) {
		return false
	}
	t.removeLeaf(id)
	t.nodes[id].aabb = box.Expand(t.margin)
	t.insertLeaf(id)
	return true
}

// Data returns the user data of a proxy.
func (t *Tree) Data(id int32) int32 { return t.nodes[id].data }

// Height returns the height of the tree, 0 for a single leaf and -1 when empty.
func (t *Tree) Height() int {
	if t.root == nullNode {
		return -1
	}
	return int(t.nodes[t.root].height)
}

// Query calls fn for every proxy whose fat box overlaps box until fn
// returns false.
func (t *Tree) Query(box AABB, fn func(id int32) bool) {
	if t.root == nullNode {
		return
	}
	stack := append(t.stack[:0], t.root)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if !n.aabb.Overlaps(box) {
			continue
		}
		if n.isLeaf() {
			if !fn(id) {
				break
			}
			continue
		}
		stack = append(stack, n.child1, n.child2)
	}
	t.stack = stack[:0]
}

// RayCast calls fn for every proxy whose fat box the segment p1-p2 crosses
// until fn returns false.
func (t *Tree) RayCast(p1, p2 Vec2, fn func(id int32) bool) {
	if t.root == nullNode {
		return
	}
	r := p2.Sub(p1)
	v := r.Perp()
	absV := v.Abs()
	segBox := SegmentBox(p1, p2)

	stack := append(t.stack[:0], t.root)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if !n.aabb.Overlaps(segBox) {
			continue
		}
		// Separating axis for the segment: its normal.
		c := n.aabb.Center()
		h := n.aabb.Extents()
		if math.Abs(v.Dot(p1.Sub(c)))-absV.Dot(h) > 0 {
			continue
		}
		if n.isLeaf() {
			if !fn(id) {
				break
			}
			continue
		}
		stack = append(stack, n.child1, n.child2)
	}
	t.stack = stack[:0]
}

func (t *Tree) descendCost(child int32, leafBox AABB) float64 {
	c := &t.nodes[child]
	combined := leafBox.Union(c.aabb).Perimeter()
	if c.isLeaf() {
		return combined
	}
	return combined - c.aabb.Perimeter()
}

func (t *Tree) insertLeaf(leaf int32) {
	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	// Find the best sibling by perimeter cost.
	leafBox := t.nodes[leaf].aabb
	index := t.root
	for !t.nodes[index].isLeaf() {
		n := &t.nodes[index]
		area := n.aabb.Perimeter()
		combinedArea := n.aabb.Union(leafBox).Perimeter()
		cost := 2 * combinedArea
		inheritance := 2 * (combinedArea - area)
		cost1 := t.descendCost(n.child1, leafBox) + inheritance
		cost2 := t.descendCost(n.child2, leafBox) + inheritance
		if cost < cost1 && cost < cost2 {
			break
		}
		if cost1 < cost2 {
			index = n.child1
		} else {
			index = n.child2
		}
	}
	sibling := index

	oldParent := t.nodes[sibling].parent
	newParent := t.allocateNode()
	np := &t.nodes[newParent]
	np.parent = oldParent
	np.aabb = leafBox.Union(t.nodes[sibling].aabb)
	np.height = t.nodes[sibling].height + 1
	np.child1 = sibling
	np.child2 = leaf
	if oldParent != nullNode {
		if t.nodes[oldParent].child1 == sibling {
			t.nodes[oldParent].child1 = newParent
		} else {
			t.nodes[oldParent].child2 = newParent
		}
	} else {
		t.root = newParent
	}
	t.nodes[sibling].parent = newParent
	t.nodes[leaf].parent = newParent

	t.refit(t.nodes[leaf].parent)
}

func (t *Tree) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = nullNode
		return
	}
	parent := t.nodes[leaf].parent
	grandParent := t.nodes[parent].parent
	sibling := t.nodes[parent].child1
	if sibling == leaf {
		sibling = t.nodes[parent].child2
	}

	if grandParent == nullNode {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
		t.freeNode(parent)
		return
	}
	if t.nodes[grandParent].child1 == parent {
		t.nodes[grandParent].child1 = sibling
	} else {
		t.nodes[grandParent].child2 = sibling
	}
	t.nodes[sibling].parent = grandParent
	t.freeNode(parent)
	t.refit(grandParent)
}

// refit walks from index to the root rebalancing and recomputing boxes.
func (t *Tree) refit(index int32) {
	for index != nullNode {
		index = t.balance(index)
		n := &t.nodes[index]
		c1, c2 := &t.nodes[n.child1], &t.nodes[n.child2]
		n.height = 1 + max(c1.height, c2.height)
		n.aabb = c1.aabb.Union(c2.aabb)
		index = n.parent
	}
}

// balance performs a left or right rotation if node a is imbalanced and
// returns the new root of the subtree.
func (t *Tree) balance(a int32) int32 {
	A := &t.nodes[a]
	if A.isLeaf() || A.height < 2 {
		return a
	}
	b, c := A.child1, A.child2
	B, C := &t.nodes[b], &t.nodes[c]
	bal := C.height - B.height

	switch {
	case bal > 1:
		f, g := C.child1, C.child2
		F, G := &t.nodes[f], &t.nodes[g]
		C.child1 = a
		C.parent = A.parent
		A.parent = c
		t.replaceChild(C.parent, a, c)
		if F.height > G.height {
			C.child2 = f
			A.child2 = g
			G.parent = a
			A.aabb = B.aabb.Union(G.aabb)
			C.aabb = A.aabb.Union(F.aabb)
			A.height = 1 + max(B.height, G.height)
			C.height = 1 + max(A.height, F.height)
		} else {
			C.child2 = g
			A.child2 = f
			F.parent = a
			A.aabb = B.aabb.Union(F.aabb)
			C.aabb = A.aabb.Union(G.aabb)
			A.height = 1 + max(B.height, F.height)
			C.height = 1 + max(A.height, G.height)
		}
		return c
	case bal < -1:
		d, e := B.child1, B.child2
		D, E := &t.nodes[d], &t.nodes[e]
		B.child1 = a
		B.parent = A.parent
		A.parent = b
		t.replaceChild(B.parent, a, b)
		if D.height > E.height {
			B.child2 = d
			A.child1 = e
			E.parent = a
			A.aabb = C.aabb.Union(E.aabb)
			B.aabb = A.aabb.Union(D.aabb)
			A.height = 1 + max(C.height, E.height)
			B.height = 1 + max(A.height, D.height)
		} else {
			B.child2 = e
			A.child1 = d
			D.parent = a
			A.aabb = C.aabb.Union(D.aabb)
			B.aabb = A.aabb.Union(E.aabb)
			A.height = 1 + max(C.height, D.height)
			B.height = 1 + max(A.height, E.height)
		}
		return b
	}
	return a
}

func (t *Tree) replaceChild(parent, old, repl int32) {
	if parent == nullNode {
		t.root = repl
		return
	}
	if t.nodes[parent].child1 == old {
		t.nodes[parent].child1 = repl
	} else {
		t.nodes[parent].child2 = repl
	}
}

// Validate checks structural invariants. It is meant for tests.
func (t *Tree) Validate() error {
	if t.root == nullNode {
		if t.count != 0 {
			return fmt.Errorf("empty tree reports %d proxies", t.count)
		}
		return nil
	}
	if p := t.nodes[t.root].parent; p != nullNode {
		return fmt.Errorf("root has parent %d", p)
	}
	leaves := 0
	if err := t.validateNode(t.root, &leaves); err != nil {
		return err
	}
	if leaves != t.count {
		return fmt.Errorf("found %d leaves, count is %d", leaves, t.count)
	}
	return nil
}

func (t *Tree) validateNode(id int32, leaves *int) error {
	n := &t.nodes[id]
	if n.isLeaf() {
		if n.height != 0 {
			return fmt.Errorf("leaf %d has height %d", id, n.height)
		}
		*leaves++
		return nil
	}
	c1, c2 := &t.nodes[n.child1], &t.nodes[n.child2]
	if c1.parent != id || c2.parent != id {
		return fmt.Errorf("node %d children have wrong parent", id)
	}
	if want := 1 + max(c1.height, c2.height); n.height != want {
		return fmt.Errorf("node %d height %d, want %d", id, n.height, want)
	}
	if !n.aabb.Contains(c1.aabb) || !n.aabb.Contains(c2.aabb) {
		return fmt.Errorf("node %d does not contain its children", id)
	}
	if err := t.validateNode(n.child1, leaves); err != nil {
		return err
	}
	return t.validateNode(n.child2, leaves)
}
