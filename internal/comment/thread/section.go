// Package thread keeps the comment tree of one post in sync with the server.
//
// A Section owns the only copy of the tree. Every mutation goes through a
// Section method, which calls the API without holding the lock and then applies
// the result by node id, so completions may arrive in any order. Node exposes
// the per-comment view state on top of a Section.
package thread

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/api"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/notify"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/reaction"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/tree"
)

var (
	ErrBusy       = errors.New("action already in progress")
	ErrClosed     = errors.New("section closed")
	ErrSuperseded = errors.New("page load superseded by a newer one")
	ErrInvalidArg = errors.New("invalid argument")
)

// API is the subset of the comment endpoints a Section needs.
type API interface {
	ListComments(ctx context.Context, postID string, page int, sort model.Sort) (model.CommentPage, error)
	CreateComment(ctx context.Context, postID, content string) (model.Comment, error)
	UpdateComment(ctx context.Context, postID, commentID, content string) (model.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	CreateReply(ctx context.Context, postID, commentID, content string) (model.Comment, error)
	CreateNestedReply(ctx context.Context, req api.NestedReplyRequest) (model.Comment, error)
	UpdateNestedReply(ctx context.Context, postID, commentID, replyID, content string) (model.Comment, error)
	DeleteNestedReply(ctx context.Context, postID, replyID string) error
	React(ctx context.Context, req api.ReactionRequest) ([]model.Reaction, error)
}

type Session interface {
	User() (model.User, error)
	IsAuthor(c model.Comment) bool
}

type Section struct {
	postID   string
	api      API
	session  Session
	notifier notify.Notifier
	log      zerolog.Logger
	engine   *reaction.Engine
	now      func() time.Time

	mu         sync.Mutex
	tree       *tree.Tree
	page       int
	sort       model.Sort
	pagination model.Pagination
	// gen increases with every page load and on Close; a result carrying an
	// older generation is dropped.
	gen      uint64
	closed   bool
	done     context.Context
	cancel   context.CancelFunc
	expanded map[string]bool
	busy     map[string]bool
	nodes    map[string]*Node
}

func New(postID string, a API, s Session, n notify.Notifier, log zerolog.Logger) *Section {
	sec := &Section{
		postID:   postID,
		api:      a,
		session:  s,
		notifier: n,
		log:      log.With().Str("post_id", postID).Logger(),
		now:      time.Now,
		tree:     tree.New(nil),
		page:     1,
		sort:     model.SortNewest,
		expanded: make(map[string]bool),
		busy:     make(map[string]bool),
		nodes:    make(map[string]*Node),
	}
	sec.done, sec.cancel = context.WithCancel(context.Background())
	sec.engine = reaction.NewEngine(a, s, store{sec}, n, sec.log)
	return sec
}

func (s *Section) PostID() string { return s.postID }

// Comments returns the visible top-level comments. Nodes with a delete in
// flight are left out.
func (s *Section) Comments() []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return visible(s.tree.Roots())
}

func visible(cs []model.Comment) []model.Comment {
	out := make([]model.Comment, 0, len(cs))
	for _, c := range cs {
		if c.Deleting {
			continue
		}
		c.Replies = visible(c.Replies)
		out = append(out, c)
	}
	return out
}

func (s *Section) Find(id string) (model.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Find(id)
}

func (s *Section) Locate(id string) (tree.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Locate(id)
}

func (s *Section) Pagination() model.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

func (s *Section) SortOrder() model.Sort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

func (s *Section) Heading() string {
	return fmt.Sprintf("Comments (%d)", s.Pagination().TotalCount)
}

// Close stops the section from applying any further results.
func (s *Section) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	s.cancel()
}

// current reports whether gen is still the latest page load of an open section.
func (s *Section) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && gen == s.gen
}

// bind returns a context that is also cancelled when the section closes.
func (s *Section) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.done, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// FetchPage loads one page and replaces the current tree with it. Earlier
// pages are not retained.
func (s *Section) FetchPage(ctx context.Context, page int, sort model.Sort) error {
	if !sort.Valid() {
		return fmt.Errorf("%w: sort %q", ErrInvalidArg, sort)
	}
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := s.bind(ctx)
	defer cancel()
	res, err := s.api.ListComments(ctx, s.postID, page, sort)
	if err != nil {
		if s.current(gen) {
			s.fail("fetch page", err)
		}
		return fmt.Errorf("fetch page %d: %w", page, err)
	}

	roots := tree.Sort(tree.RestructurePage(res.Data), sort)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if gen != s.gen {
		s.log.Debug().Int("page", page).Msg("stale page dropped")
		return ErrSuperseded
	}
	s.tree = tree.New(roots)
	s.page = page
	s.sort = sort
	s.pagination = res.Pagination
	s.expanded = make(map[string]bool)
	s.nodes = make(map[string]*Node)
	return nil
}

func (s *Section) ChangeSort(ctx context.Context, sort model.Sort) error {
	return s.FetchPage(ctx, 1, sort)
}

func (s *Section) GoToPage(ctx context.Context, page int) error {
	return s.FetchPage(ctx, page, s.SortOrder())
}

func (s *Section) Refresh(ctx context.Context) error {
	s.mu.Lock()
	page, sort := s.page, s.sort
	s.mu.Unlock()
	return s.FetchPage(ctx, page, sort)
}

// AddTopLevelComment posts a comment and reloads the first page in the current
// sort order instead of inserting it locally.
func (s *Section) AddTopLevelComment(ctx context.Context, content string) (model.Comment, error) {
	if _, err := s.user(); err != nil {
		return model.Comment{}, err
	}
	release, err := s.acquire("post")
	if err != nil {
		return model.Comment{}, err
	}
	defer release()

	created, err := s.api.CreateComment(ctx, s.postID, content)
	if err != nil {
		s.fail("create comment", err)
		return model.Comment{}, err
	}
	s.notifier.Notify(notify.Success("Comment posted"))

	if err := s.FetchPage(ctx, 1, s.SortOrder()); err != nil && !errors.Is(err, ErrSuperseded) {
		return created, err
	}
	return created, nil
}

// UpdateComment saves new content and applies it locally once the server
// confirms.
func (s *Section) UpdateComment(ctx context.Context, id, content string) error {
	if _, err := s.user(); err != nil {
		return err
	}
	loc, gen, err := s.locate(id)
	if err != nil {
		return err
	}
	release, err := s.acquire("edit:" + id)
	if err != nil {
		return err
	}
	defer release()

	var updated model.Comment
	if loc.Kind == model.TopLevelComment {
		updated, err = s.api.UpdateComment(ctx, s.postID, id, content)
	} else {
		updated, err = s.api.UpdateNestedReply(ctx, s.postID, loc.TopLevelID, id, content)
	}
	if err != nil {
		s.fail("update "+loc.Kind.String(), err)
		return err
	}

	if updated.Content == "" {
		updated.Content = content
	}
	if updated.UpdatedAt == nil {
		now := s.now()
		updated.UpdatedAt = &now
	}

	s.apply(gen, "update", func(t *tree.Tree) (*tree.Tree, error) {
		return tree.ApplyUpdate(t, id, func(c *model.Comment) {
			c.Content = updated.Content
			c.UpdatedAt = updated.UpdatedAt
			c.DeletionError = false
		})
	})
	s.notifier.Notify(notify.Success("Comment updated"))
	return nil
}

// DeleteComment hides the node immediately and removes it once the server
// confirms. A failed delete brings the node back with DeletionError set.
func (s *Section) DeleteComment(ctx context.Context, id string) error {
	if _, err := s.user(); err != nil {
		return err
	}
	loc, gen, err := s.locate(id)
	if err != nil {
		return err
	}
	release, err := s.acquire("delete:" + id)
	if err != nil {
		return err
	}
	defer release()

	s.apply(gen, "mark deleting", func(t *tree.Tree) (*tree.Tree, error) {
		return tree.ApplyUpdate(t, id, func(c *model.Comment) { c.Deleting = true })
	})

	if loc.Kind == model.TopLevelComment {
		err = s.api.DeleteComment(ctx, s.postID, id)
	} else {
		err = s.api.DeleteNestedReply(ctx, s.postID, id)
	}
	if err != nil {
		s.apply(gen, "restore", func(t *tree.Tree) (*tree.Tree, error) {
			return tree.ApplyUpdate(t, id, func(c *model.Comment) {
				c.Deleting = false
				c.DeletionError = true
			})
		})
		s.fail("delete "+loc.Kind.String(), err)
		return err
	}

	s.apply(gen, "delete", func(t *tree.Tree) (*tree.Tree, error) {
		next, err := tree.ApplyDelete(t, id)
		if err == nil && loc.Kind == model.TopLevelComment && s.pagination.TotalCount > 0 {
			s.pagination.TotalCount--
		}
		return next, err
	})
	s.mu.Lock()
	delete(s.nodes, id)
	delete(s.expanded, id)
	s.mu.Unlock()

	s.notifier.Notify(notify.Success("Comment deleted"))
	return nil
}

// SubmitReply creates a reply under parentID. Replies to a top-level comment
// use the first-level endpoint and deeper ones the nested-reply chain. The
// parent's replies become fully visible afterwards.
func (s *Section) SubmitReply(ctx context.Context, parentID, content string) (model.Comment, error) {
	user, err := s.user()
	if err != nil {
		return model.Comment{}, err
	}
	loc, gen, err := s.locate(parentID)
	if err != nil {
		return model.Comment{}, err
	}
	if loc.Depth >= model.MaxDepth {
		s.notifier.Notify(notify.FromError(tree.ErrMaxDepth))
		return model.Comment{}, tree.ErrMaxDepth
	}
	release, err := s.acquire("reply:" + parentID)
	if err != nil {
		return model.Comment{}, err
	}
	defer release()

	var created model.Comment
	if loc.Kind == model.TopLevelComment {
		created, err = s.api.CreateReply(ctx, s.postID, parentID, content)
	} else {
		created, err = s.api.CreateNestedReply(ctx, api.NestedReplyRequest{
			Content:       content,
			PostID:        s.postID,
			CommentID:     loc.TopLevelID,
			ParentReplyID: parentID,
		})
	}
	if err != nil {
		s.fail("create reply", err)
		return model.Comment{}, err
	}

	if created.User == nil {
		created.User = &user
	}
	if created.UserID == "" {
		created.UserID = user.ID
	}
	if created.PostID == "" {
		created.PostID = s.postID
	}

	s.apply(gen, "insert reply", func(t *tree.Tree) (*tree.Tree, error) {
		next, err := tree.InsertReply(t, parentID, created)
		if errors.Is(err, tree.ErrDuplicate) {
			return t, nil
		}
		if err == nil {
			s.expanded[parentID] = true
		}
		return next, err
	})
	s.notifier.Notify(notify.Success("Reply posted"))

	if c, ok := s.Find(created.ID); ok {
		return c, nil
	}
	return created, nil
}

// React toggles the current user's reaction on a comment or reply.
func (s *Section) React(ctx context.Context, id string, typ model.ReactionType) ([]model.Reaction, error) {
	loc, _, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	return s.engine.React(ctx, reaction.Target{
		ID:         id,
		PostID:     s.postID,
		TopLevelID: loc.TopLevelID,
		Kind:       loc.Kind,
	}, typ)
}

func (s *Section) user() (model.User, error) {
	u, err := s.session.User()
	if err != nil {
		s.notifier.Notify(notify.FromError(err))
	}
	return u, err
}

func (s *Section) locate(id string) (tree.Location, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return tree.Location{}, 0, ErrClosed
	}
	loc, ok := s.tree.Locate(id)
	if !ok {
		return tree.Location{}, 0, fmt.Errorf("%s: %w", id, tree.ErrNotFound)
	}
	return loc, s.gen, nil
}

func (s *Section) acquire(key string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.busy[key] {
		return nil, ErrBusy
	}
	s.busy[key] = true
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.busy, key)
	}, nil
}

// apply runs fn against the current tree under the lock. Results for a closed
// section are dropped. A node that disappeared meanwhile, for example after a
// page change, is skipped.
func (s *Section) apply(gen uint64, op string, fn func(t *tree.Tree) (*tree.Tree, error)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Debug().Str("op", op).Msg("result dropped, section closed")
		return false
	}
	next, err := fn(s.tree)
	if err != nil {
		s.log.Debug().Err(err).Str("op", op).Uint64("gen", gen).Uint64("current_gen", s.gen).Msg("result not applied")
		return false
	}
	s.tree = next
	return true
}

func (s *Section) fail(op string, err error) {
	s.log.Error().Err(err).Str("op", op).Msg("comment action failed")
	s.notifier.Notify(notify.FromError(err))
}

// store lets the reaction engine read and replace reaction sets in the tree.
type store struct{ s *Section }

func (st store) Reactions(id string) ([]model.Reaction, error) {
	c, ok := st.s.Find(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, tree.ErrNotFound)
	}
	return c.Reactions, nil
}

func (st store) SetReactions(id string, rs []model.Reaction) error {
	ok := st.s.apply(0, "set reactions", func(t *tree.Tree) (*tree.Tree, error) {
		return tree.ApplyUpdate(t, id, func(c *model.Comment) {
			c.Reactions = append([]model.Reaction{}, rs...)
		})
	})
	if !ok {
		return fmt.Errorf("%s: %w", id, tree.ErrNotFound)
	}
	return nil
}
