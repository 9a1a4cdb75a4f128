package catalog

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Tree is an arena view over a set of categories keyed by id.
// Parent and child links are id references. The view may be partial: a node
// whose parent was not loaded simply has no parent entry in the arena.
type Tree struct {
	nodes    map[int64]*Category
	children map[int64][]int64
}

// NewTree builds a tree from the given categories.
// Children are ordered by position, then id.
func NewTree(categories ...*Category) *Tree {
	t := &Tree{
		nodes:    make(map[int64]*Category, len(categories)),
		children: make(map[int64][]int64),
	}
	for _, c := range categories {
		if c == nil {
			continue
		}
		t.nodes[c.ID] = c
	}
	for _, c := range t.nodes {
		if c.ParentID == nil {
			continue
		}
		t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
	}
	for parentID, ids := range t.children {
		sort.Slice(ids, func(i, j int) bool {
			a, b := t.nodes[ids[i]], t.nodes[ids[j]]
			if a.Position != b.Position {
				return a.Position < b.Position
			}
			return a.ID < b.ID
		})
		t.children[parentID] = ids
	}
	return t
}

// Len returns the number of nodes in the arena
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get returns the category with the given id
func (t *Tree) Get(id int64) (*Category, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// ChildIDs returns the ordered direct child ids of a node.
// A node without children yields an empty, non-nil slice.
func (t *Tree) ChildIDs(id int64) []int64 {
	ids := t.children[id]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

// DescendantIDs returns all ids below a node in depth-first, sibling order
func (t *Tree) DescendantIDs(id int64, includeSelf bool) []int64 {
	out := []int64{}
	if includeSelf {
		out = append(out, id)
	}
	stack := []int64{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		kids := t.children[current]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
		if current != id {
			out = append(out, current)
		}
	}
	return out
}

// ResolveAfterID clamps the requested insertion point for a node moving under parentID.
// When the parent has other children and afterID is omitted or is not one of
// them, the node is appended after the last child. InsertFirst is kept as is.
func (t *Tree) ResolveAfterID(parentID, movingID int64, afterID *int64) int64 {
	siblings := t.siblingsWithout(parentID, movingID)
	if len(siblings) == 0 {
		return InsertFirst
	}
	last := siblings[len(siblings)-1]
	if afterID == nil {
		return last
	}
	if *afterID == InsertFirst || slices.Contains(siblings, *afterID) {
		return *afterID
	}
	return last
}

// Move relocates a node under a new parent, directly after afterID.
// It validates before touching any node: an unknown id yields ErrNotFound and
// a target inside the node's own subtree yields ErrCyclicMove. The returned
// slice holds every category whose stored state changed, ordered by level then id.
func (t *Tree) Move(id, parentID int64, afterID *int64) ([]*Category, error) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("category %d: %w", id, ErrCategoryNotFound)
	}
	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("parent category %d: %w", parentID, ErrCategoryNotFound)
	}

	after := t.ResolveAfterID(parentID, id, afterID)

	if parent.ID == node.ID || node.IsAncestorOf(parent) {
		return nil, ErrCyclicMove
	}

	changed := make(map[int64]*Category)

	if node.ParentID != nil {
		oldParentID := *node.ParentID
		t.children[oldParentID] = t.siblingsWithout(oldParentID, id)
		t.renumber(oldParentID, changed)
	}

	siblings := t.siblingsWithout(parentID, id)
	idx := 0
	if after != InsertFirst {
		idx = slices.Index(siblings, after) + 1
	}
	t.children[parentID] = slices.Insert(siblings, idx, id)

	newParentID := parentID
	node.ParentID = &newParentID
	changed[node.ID] = node
	t.renumber(parentID, changed)

	oldPath := node.Path
	newPath := parent.ChildPath(node.ID)
	levelDelta := parent.Level + 1 - node.Level
	node.Path = newPath
	node.Level = parent.Level + 1

	for _, descendantID := range t.DescendantIDs(id, false) {
		d := t.nodes[descendantID]
		d.Path = newPath + strings.TrimPrefix(d.Path, oldPath)
		d.Level += levelDelta
		changed[d.ID] = d
	}

	out := make([]*Category, 0, len(changed))
	for _, c := range changed {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// URLPath joins the url keys of a node's ancestors below the store root and
// the node's own key, e.g. "men/tops/jackets". Missing keys fall back to a
// slug of the name.
func (t *Tree) URLPath(id int64) (string, error) {
	node, ok := t.nodes[id]
	if !ok {
		return "", fmt.Errorf("category %d: %w", id, ErrCategoryNotFound)
	}
	chain := append(node.AncestorIDs(), node.ID)
	keys := make([]string, 0, len(chain))
	for _, ancestorID := range chain {
		c, ok := t.nodes[ancestorID]
		if !ok {
			return "", fmt.Errorf("ancestor %d of category %d not loaded: %w", ancestorID, id, ErrCategoryNotFound)
		}
		if c.Level <= StoreRootLevel {
			continue
		}
		key := c.URLKey
		if key == "" {
			key = SlugFromName(c.Name)
		}
		if key == "" {
			return "", fmt.Errorf("category %d has neither url key nor usable name", c.ID)
		}
		keys = append(keys, key)
	}
	return strings.Join(keys, pathSeparator), nil
}

// siblingsWithout returns a copy of the parent's child list minus one id
func (t *Tree) siblingsWithout(parentID, id int64) []int64 {
	return slices.DeleteFunc(t.ChildIDs(parentID), func(childID int64) bool {
		return childID == id
	})
}

// renumber assigns positions 1..n to a parent's children and syncs its child count
func (t *Tree) renumber(parentID int64, changed map[int64]*Category) {
	for i, childID := range t.children[parentID] {
		child := t.nodes[childID]
		if child.Position != i+1 {
			child.Position = i + 1
			changed[child.ID] = child
		}
	}
	if parent, ok := t.nodes[parentID]; ok && parent.ChildrenCount != len(t.children[parentID]) {
		parent.ChildrenCount = len(t.children[parentID])
		changed[parent.ID] = parent
	}
}
