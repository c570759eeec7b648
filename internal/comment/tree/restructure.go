package tree

import (
	"sort"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

type nodePtr struct {
	c        model.Comment
	depth    int
	parent   *nodePtr
	children []*nodePtr
	placed   bool
}

// RestructurePage nests the replies of every comment in cs.
func RestructurePage(cs []model.Comment) []model.Comment {
	out := make([]model.Comment, 0, len(cs))
	for _, c := range cs {
		out = append(out, Restructure(c))
	}
	return out
}

// Restructure turns the reply list of a top-level comment into a tree keyed by
// parentReplyId. Replies may arrive flat or already nested; both give the same
// result, so applying it twice is a no-op.
//
// Replies whose parent is missing are attached to the top-level comment. A reply
// whose parent already sits at MaxDepth is attached next to that parent. Cycles
// are broken at the first pending node in depth order.
func Restructure(c model.Comment) model.Comment {
	flat := flatten(c.Replies, nil)

	nodes := make(map[string]*nodePtr, len(flat))
	pending := make([]*nodePtr, 0, len(flat))
	for _, r := range flat {
		if r.ID == c.ID {
			continue
		}
		if _, dup := nodes[r.ID]; dup {
			continue
		}
		n := &nodePtr{c: r}
		nodes[r.ID] = n
		pending = append(pending, n)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].c.Depth < pending[j].c.Depth
	})

	root := &nodePtr{c: c, placed: true}
	for len(pending) > 0 {
		next := make([]*nodePtr, 0, len(pending))
		progressed := false
		for _, n := range pending {
			if n.c.ParentReplyID == "" {
				attach(root, n)
				progressed = true
				continue
			}
			p, ok := nodes[n.c.ParentReplyID]
			if !ok || p == n {
				attach(root, n)
				progressed = true
				continue
			}
			if !p.placed {
				next = append(next, n)
				continue
			}
			attach(p, n)
			progressed = true
		}
		if !progressed {
			attach(root, next[0])
			next = next[1:]
		}
		pending = next
	}

	out := toValue(root, c.ID)
	out.Depth = 0
	return out
}

func attach(p, n *nodePtr) {
	for p.depth >= model.MaxDepth && p.parent != nil {
		p = p.parent
	}
	n.parent = p
	n.depth = p.depth + 1
	n.placed = true
	p.children = append(p.children, n)
}

func flatten(replies []model.Comment, dst []model.Comment) []model.Comment {
	for _, r := range replies {
		children := r.Replies
		r.Replies = nil
		dst = append(dst, r)
		dst = flatten(children, dst)
	}
	return dst
}

func toValue(n *nodePtr, rootID string) model.Comment {
	out := n.c
	if n.parent != nil {
		out.Depth = n.depth
		out.CommentID = rootID
		out.ParentReplyID = ""
		if n.parent.depth > 0 {
			out.ParentReplyID = n.parent.c.ID
		}
		if out.Path == "" {
			out.Path = pathOf(n.parent) + "/" + out.ID
		}
	}

	out.Replies = make([]model.Comment, 0, len(n.children))
	for _, ch := range n.children {
		out.Replies = append(out.Replies, toValue(ch, rootID))
	}
	return out
}

func pathOf(n *nodePtr) string {
	if n.c.Path != "" {
		return n.c.Path
	}
	if n.parent == nil {
		return n.c.ID
	}
	return pathOf(n.parent) + "/" + n.c.ID
}
