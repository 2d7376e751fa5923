// Package kdtreedriver implements a spatial FileDriver over a 2-D k-d
// tree, the index kind used for point/range geometry queries.
//
// Grounded on _examples/original_source/sydney/Driver/KdTree/KdTree/File.h
// for the lifecycle contract (create/destroy/mount/sync/move) and on
// tinySQL's internal/importer/shapefile.go for the Point representation —
// go-shp's shp.Point (X, Y float64) is reused directly as the 2-D key
// instead of inventing a parallel coordinate type.
package kdtreedriver

import (
	"sort"

	shp "github.com/jonas-p/go-shp"
)

// node is one k-d tree node, split alternately on X (even depth) and Y
// (odd depth), per the classic 2-D k-d tree construction.
type node struct {
	Point shp.Point
	RowID int64
	Left  *node
	Right *node
}

// Tree is an in-memory 2-D k-d tree. Not safe for concurrent use without
// external synchronization — Driver wraps every access in its own mutex.
type Tree struct {
	root  *node
	count int
}

// Insert adds (p, rowID) to the tree.
func (t *Tree) Insert(p shp.Point, rowID int64) {
	t.root = insert(t.root, p, rowID, 0)
	t.count++
}

func insert(n *node, p shp.Point, rowID int64, depth int) *node {
	if n == nil {
		return &node{Point: p, RowID: rowID}
	}
	if axisLess(p, n.Point, depth) {
		n.Left = insert(n.Left, p, rowID, depth+1)
	} else {
		n.Right = insert(n.Right, p, rowID, depth+1)
	}
	return n
}

func axisLess(a, b shp.Point, depth int) bool {
	if depth%2 == 0 {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Delete removes the first node matching (p, rowID) found, rebuilding the
// subtree rooted there (classic Hibbard-style k-d delete using the
// successor in the same axis).
func (t *Tree) Delete(p shp.Point, rowID int64) bool {
	newRoot, removed := deleteNode(t.root, p, rowID, 0)
	if removed {
		t.root = newRoot
		t.count--
	}
	return removed
}

func deleteNode(n *node, p shp.Point, rowID int64, depth int) (*node, bool) {
	if n == nil {
		return nil, false
	}
	if n.Point == p && n.RowID == rowID {
		if n.Right != nil {
			succ := findMin(n.Right, depth%2, depth+1)
			n.Point, n.RowID = succ.Point, succ.RowID
			n.Right, _ = deleteNode(n.Right, succ.Point, succ.RowID, depth+1)
			return n, true
		}
		if n.Left != nil {
			succ := findMin(n.Left, depth%2, depth+1)
			n.Point, n.RowID = succ.Point, succ.RowID
			n.Right, _ = deleteNode(n.Left, succ.Point, succ.RowID, depth+1)
			n.Left = nil
			return n, true
		}
		return nil, true
	}
	if axisLess(p, n.Point, depth) {
		left, ok := deleteNode(n.Left, p, rowID, depth+1)
		n.Left = left
		return n, ok
	}
	right, ok := deleteNode(n.Right, p, rowID, depth+1)
	n.Right = right
	return n, ok
}

func findMin(n *node, axis, depth int) *node {
	if n == nil {
		return nil
	}
	if depth%2 == axis {
		if n.Left == nil {
			return n
		}
		return findMin(n.Left, axis, depth+1)
	}
	left := findMin(n.Left, axis, depth+1)
	right := findMin(n.Right, axis, depth+1)
	m := n
	if left != nil && axisValue(left.Point, axis) < axisValue(m.Point, axis) {
		m = left
	}
	if right != nil && axisValue(right.Point, axis) < axisValue(m.Point, axis) {
		m = right
	}
	return m
}

func axisValue(p shp.Point, axis int) float64 {
	if axis == 0 {
		return p.X
	}
	return p.Y
}

// RangeSearch collects every (point, rowID) whose coordinates fall within
// [minX, maxX] x [minY, maxY], pruning subtrees the bounding box cannot
// reach.
func (t *Tree) RangeSearch(minX, minY, maxX, maxY float64, fn func(p shp.Point, rowID int64)) {
	rangeSearch(t.root, minX, minY, maxX, maxY, 0, fn)
}

func rangeSearch(n *node, minX, minY, maxX, maxY float64, depth int, fn func(shp.Point, int64)) {
	if n == nil {
		return
	}
	if n.Point.X >= minX && n.Point.X <= maxX && n.Point.Y >= minY && n.Point.Y <= maxY {
		fn(n.Point, n.RowID)
	}
	var lo, hi float64
	if depth%2 == 0 {
		lo, hi = minX, maxX
	} else {
		lo, hi = minY, maxY
	}
	axisVal := axisValue(n.Point, depth%2)
	if lo <= axisVal {
		rangeSearch(n.Left, minX, minY, maxX, maxY, depth+1, fn)
	}
	if hi >= axisVal {
		rangeSearch(n.Right, minX, minY, maxX, maxY, depth+1, fn)
	}
}

// Count returns the number of points currently indexed.
func (t *Tree) Count() int { return t.count }

// snapshotEntry is the flattened (point, rowID) record used to persist and
// rebuild a Tree, matching tinySQL's db.go diskTable gob-snapshot idiom.
type snapshotEntry struct {
	Point shp.Point
	RowID int64
}

func (t *Tree) snapshot() []snapshotEntry {
	out := make([]snapshotEntry, 0, t.count)
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		out = append(out, snapshotEntry{Point: n.Point, RowID: n.RowID})
		walk(n.Left)
		walk(n.Right)
	}
	walk(t.root)
	return out
}

// rebuildFromSnapshot reconstructs a Tree by re-inserting every entry in
// snapshot order (a pre-order walk), which reproduces the saved tree's
// shape; it does no rebalancing, matching the original's
// incremental-insert-only design.
func rebuildFromSnapshot(entries []snapshotEntry) *Tree {
	t := &Tree{}
	for _, e := range entries {
		t.Insert(e.Point, e.RowID)
	}
	return t
}

// buildBalanced reconstructs a Tree by recursively splitting entries on
// the median of the axis active at each depth, the standard balanced
// k-d tree bulk-load. Unlike rebuildFromSnapshot's pre-order
// replay, this guarantees O(log n) depth regardless of how lopsided the
// original insert/delete sequence left the tree — the point of running
// it as the merge's second phase.
func buildBalanced(entries []snapshotEntry) *Tree {
	items := make([]snapshotEntry, len(entries))
	copy(items, entries)
	t := &Tree{count: len(items)}
	t.root = buildBalancedNode(items, 0)
	return t
}

func buildBalancedNode(items []snapshotEntry, depth int) *node {
	if len(items) == 0 {
		return nil
	}
	axis := depth % 2
	sort.Slice(items, func(i, j int) bool {
		return axisValue(items[i].Point, axis) < axisValue(items[j].Point, axis)
	})
	mid := len(items) / 2
	n := &node{Point: items[mid].Point, RowID: items[mid].RowID}
	n.Left = buildBalancedNode(items[:mid], depth+1)
	n.Right = buildBalancedNode(items[mid+1:], depth+1)
	return n
}
