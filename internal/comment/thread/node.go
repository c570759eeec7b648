package thread

import (
	"context"
	"errors"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/composer"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/tree"
)

const DeletionFailedSuffix = " (deletion failed, please try again)"

var (
	ErrNotAuthor = errors.New("only the author can do that")
	ErrWrongMode = errors.New("action not available in the current mode")
)

type Mode int

const (
	ModeViewing Mode = iota
	ModeEditing
	ModeReplying
	ModeDeleting
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeReplying:
		return "replying"
	case ModeDeleting:
		return "deleting"
	}
	return "viewing"
}

// Node is the view state of one comment. It holds no copy of the comment;
// data is read from the Section on every call. A Node is driven by a single
// caller, typically the UI loop.
type Node struct {
	s  *Section
	id string

	mode   Mode
	editor *composer.Composer
	reply  *composer.Composer
}

// Node returns the view state for id, creating it on first use. View state is
// reset when a new page is loaded.
func (s *Section) Node(id string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tree.Locate(id); !ok {
		return nil, tree.ErrNotFound
	}
	if n, ok := s.nodes[id]; ok {
		return n, nil
	}
	n := &Node{s: s, id: id}
	s.nodes[id] = n
	return n, nil
}

func (n *Node) ID() string { return n.id }

func (n *Node) Comment() (model.Comment, bool) {
	return n.s.Find(n.id)
}

func (n *Node) Location() (tree.Location, bool) {
	return n.s.Locate(n.id)
}

func (n *Node) Mode() Mode {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	return n.mode
}

func (n *Node) setMode(m Mode) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	n.mode = m
}

func (n *Node) IsAuthor() bool {
	c, ok := n.Comment()
	return ok && n.s.session.IsAuthor(c)
}

func (n *Node) CanEdit() bool {
	return n.Mode() == ModeViewing && n.IsAuthor()
}

func (n *Node) CanDelete() bool {
	return n.CanEdit()
}

// CanReply reports whether a reply may be opened here. Nodes at MaxDepth never
// offer it.
func (n *Node) CanReply() bool {
	loc, ok := n.Location()
	return ok && loc.Depth < model.MaxDepth && n.Mode() == ModeViewing
}

// DisplayContent is the content as shown, with the failure note after a
// failed delete.
func (n *Node) DisplayContent() string {
	c, ok := n.Comment()
	if !ok {
		return ""
	}
	if c.DeletionError {
		return c.Content + DeletionFailedSuffix
	}
	return c.Content
}

// VisibleReplies returns the replies currently shown and how many are hidden
// behind "show more".
func (n *Node) VisibleReplies() ([]model.Comment, int) {
	c, ok := n.Comment()
	if !ok {
		return nil, 0
	}
	replies := visible(c.Replies)

	n.s.mu.Lock()
	all := n.s.expanded[n.id]
	n.s.mu.Unlock()

	if all || len(replies) <= model.RepliesPreview {
		return replies, 0
	}
	return replies[:model.RepliesPreview], len(replies) - model.RepliesPreview
}

func (n *Node) ShowAllReplies() {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	n.s.expanded[n.id] = true
}

// StartEdit opens the editor with the current content.
func (n *Node) StartEdit() (*composer.Composer, error) {
	if !n.IsAuthor() {
		return nil, ErrNotAuthor
	}
	if n.Mode() != ModeViewing {
		return nil, ErrWrongMode
	}
	c, _ := n.Comment()
	n.editor = composer.NewWithText(func(ctx context.Context, text string) error {
		return n.s.UpdateComment(ctx, n.id, text)
	}, c.Content)
	n.setMode(ModeEditing)
	return n.editor, nil
}

// SaveEdit submits the editor. A failed save keeps the node in editing mode
// with the draft intact.
func (n *Node) SaveEdit(ctx context.Context) error {
	if n.Mode() != ModeEditing || n.editor == nil {
		return ErrWrongMode
	}
	if err := n.editor.Submit(ctx); err != nil {
		return err
	}
	n.editor = nil
	n.setMode(ModeViewing)
	return nil
}

func (n *Node) CancelEdit() {
	if n.Mode() == ModeEditing {
		n.editor = nil
		n.setMode(ModeViewing)
	}
}

func (n *Node) StartReply() (*composer.Composer, error) {
	if n.Mode() != ModeViewing {
		return nil, ErrWrongMode
	}
	if !n.CanReply() {
		return nil, tree.ErrMaxDepth
	}
	n.reply = composer.New(func(ctx context.Context, text string) error {
		_, err := n.s.SubmitReply(ctx, n.id, text)
		return err
	})
	n.setMode(ModeReplying)
	return n.reply, nil
}

func (n *Node) SubmitReply(ctx context.Context) error {
	if n.Mode() != ModeReplying || n.reply == nil {
		return ErrWrongMode
	}
	if err := n.reply.Submit(ctx); err != nil {
		return err
	}
	n.reply = nil
	n.setMode(ModeViewing)
	return nil
}

func (n *Node) CancelReply() {
	if n.Mode() == ModeReplying {
		n.reply = nil
		n.setMode(ModeViewing)
	}
}

// Delete removes the comment. On failure the node returns to viewing and shows
// the deletion failure note.
func (n *Node) Delete(ctx context.Context) error {
	if !n.IsAuthor() {
		return ErrNotAuthor
	}
	if n.Mode() != ModeViewing {
		return ErrWrongMode
	}
	n.setMode(ModeDeleting)
	err := n.s.DeleteComment(ctx, n.id)
	n.setMode(ModeViewing)
	return err
}

func (n *Node) React(ctx context.Context, typ model.ReactionType) ([]model.Reaction, error) {
	return n.s.React(ctx, n.id, typ)
}
