package tree

import (
	"errors"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

var (
	ErrNotFound  = errors.New("comment not found")
	ErrMaxDepth  = errors.New("maximum reply depth reached")
	ErrDuplicate = errors.New("comment already present")
)

// Location describes where a node sits in the tree. It is resolved once per
// index rebuild so callers never re-derive the endpoint kind from depth.
type Location struct {
	ID         string
	TopLevelID string
	ParentID   string
	Depth      int
	Kind       model.Kind

	index []int
}

// Tree is an immutable comment forest with an id-indexed lookup. The reducers in
// this package return a new Tree and leave their input untouched, so a Tree can
// be shared freely between readers.
type Tree struct {
	roots []model.Comment
	index map[string]Location
}

// Patch edits a single node in place on a private copy.
type Patch func(c *model.Comment)

// New takes ownership of roots.
func New(roots []model.Comment) *Tree {
	t := &Tree{roots: roots}
	t.reindex()
	return t
}

func (t *Tree) reindex() {
	t.index = make(map[string]Location, len(t.roots))
	for i, c := range t.roots {
		t.indexNode(c, Location{
			ID:         c.ID,
			TopLevelID: c.ID,
			Depth:      0,
			Kind:       model.TopLevelComment,
			index:      []int{i},
		})
	}
}

func (t *Tree) indexNode(c model.Comment, loc Location) {
	t.index[c.ID] = loc
	for i, r := range c.Replies {
		idx := make([]int, len(loc.index)+1)
		copy(idx, loc.index)
		idx[len(loc.index)] = i

		depth := loc.Depth + 1
		t.indexNode(r, Location{
			ID:         r.ID,
			TopLevelID: loc.TopLevelID,
			ParentID:   c.ID,
			Depth:      depth,
			Kind:       model.KindForDepth(depth),
			index:      idx,
		})
	}
}

// Roots returns a deep copy of the top-level comments.
func (t *Tree) Roots() []model.Comment {
	out := make([]model.Comment, len(t.roots))
	for i, c := range t.roots {
		out[i] = c.Clone()
	}
	return out
}

func (t *Tree) Len() int {
	return len(t.roots)
}

// Count returns the number of nodes, replies included.
func (t *Tree) Count() int {
	return len(t.index)
}

func (t *Tree) Locate(id string) (Location, bool) {
	loc, ok := t.index[id]
	return loc, ok
}

// Find returns a copy of the node with the given id.
func (t *Tree) Find(id string) (model.Comment, bool) {
	loc, ok := t.index[id]
	if !ok {
		return model.Comment{}, false
	}
	return t.at(loc.index).Clone(), true
}

func (t *Tree) at(idx []int) model.Comment {
	c := t.roots[idx[0]]
	for _, i := range idx[1:] {
		c = c.Replies[i]
	}
	return c
}

// Ancestors returns the chain from the top-level comment down to id, inclusive.
func (t *Tree) Ancestors(id string) ([]model.PathItem, error) {
	loc, ok := t.index[id]
	if !ok {
		return nil, ErrNotFound
	}

	items := make([]model.PathItem, 0, len(loc.index))
	level := t.roots
	for d, i := range loc.index {
		c := level[i]
		items = append(items, model.PathItem{
			ID:            c.ID,
			ParentReplyID: c.ParentReplyID,
			Content:       c.Content,
			Depth:         d,
		})
		level = c.Replies
	}
	return items, nil
}

// Walk visits every node in pre-order until fn returns false.
func (t *Tree) Walk(fn func(c model.Comment) bool) {
	walk(t.roots, fn)
}

func walk(cs []model.Comment, fn func(c model.Comment) bool) bool {
	for _, c := range cs {
		if !fn(c) {
			return false
		}
		if !walk(c.Replies, fn) {
			return false
		}
	}
	return true
}

// ApplyUpdate returns a tree where patch has been applied to node id.
func ApplyUpdate(t *Tree, id string, patch Patch) (*Tree, error) {
	loc, ok := t.index[id]
	if !ok {
		return t, ErrNotFound
	}

	roots := rewrite(t.roots, loc.index, func(level []model.Comment, i int) []model.Comment {
		c := level[i].Clone()
		patch(&c)
		c.ID = id
		level[i] = c
		return level
	})
	return New(roots), nil
}

// ApplyDelete returns a tree without node id and its subtree.
func ApplyDelete(t *Tree, id string) (*Tree, error) {
	loc, ok := t.index[id]
	if !ok {
		return t, ErrNotFound
	}

	roots := rewrite(t.roots, loc.index, func(level []model.Comment, i int) []model.Comment {
		return append(level[:i:i], level[i+1:]...)
	})
	return New(roots), nil
}

// InsertReply appends reply to the direct children of parentID. Depth, ancestor
// and parent fields of reply are derived from the parent's position.
func InsertReply(t *Tree, parentID string, reply model.Comment) (*Tree, error) {
	loc, ok := t.index[parentID]
	if !ok {
		return t, ErrNotFound
	}
	if loc.Depth >= model.MaxDepth {
		return t, ErrMaxDepth
	}
	if _, exists := t.index[reply.ID]; exists {
		return t, ErrDuplicate
	}

	reply = reply.Clone()
	reply.Depth = loc.Depth + 1
	reply.CommentID = loc.TopLevelID
	reply.ParentReplyID = ""
	if loc.Depth > 0 {
		reply.ParentReplyID = parentID
	}
	if reply.Replies == nil {
		reply.Replies = []model.Comment{}
	}

	roots := rewrite(t.roots, loc.index, func(level []model.Comment, i int) []model.Comment {
		p := level[i]
		if reply.Path == "" && p.Path != "" {
			reply.Path = p.Path + "/" + reply.ID
		}
		replies := make([]model.Comment, 0, len(p.Replies)+1)
		replies = append(replies, p.Replies...)
		p.Replies = append(replies, reply)
		level[i] = p
		return level
	})
	return New(roots), nil
}

// rewrite copies the slices along idx and lets fn replace the innermost one.
func rewrite(level []model.Comment, idx []int, fn func(level []model.Comment, i int) []model.Comment) []model.Comment {
	level = append([]model.Comment(nil), level...)
	if len(idx) == 1 {
		return fn(level, idx[0])
	}

	c := level[idx[0]]
	c.Replies = rewrite(c.Replies, idx[1:], fn)
	level[idx[0]] = c
	return level
}
