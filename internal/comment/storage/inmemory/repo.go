package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/reaction"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage"
)

type Repo struct {
	mu sync.RWMutex

	now      func() time.Time
	byID     map[string]model.Comment
	children map[string][]string
	topLevel map[string][]string
}

func New() *Repo {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

// NewWithClock uses now for creation and edit timestamps.
func NewWithClock(now func() time.Time) *Repo {
	return &Repo{
		now:      now,
		byID:     make(map[string]model.Comment),
		children: make(map[string][]string),
		topLevel: make(map[string][]string),
	}
}

func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok, nil
}

func (r *Repo) Get(ctx context.Context, id string) (model.Comment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return model.Comment{}, storage.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *Repo) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c = c.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = r.now()
	c.Reactions = []model.Reaction{}
	c.Replies = nil

	parent := storage.ParentOf(c)
	if parent != "" {
		if _, ok := r.byID[parent]; !ok {
			return model.Comment{}, storage.ErrNotFound
		}
	}

	r.byID[c.ID] = c
	if parent == "" {
		r.topLevel[c.PostID] = append(r.topLevel[c.PostID], c.ID)
	} else {
		r.children[parent] = append(r.children[parent], c.ID)
	}
	return c.Clone(), nil
}

func (r *Repo) UpdateContent(ctx context.Context, id, content string) (model.Comment, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return model.Comment{}, storage.ErrNotFound
	}
	now := r.now()
	c.Content = content
	c.UpdatedAt = &now
	r.byID[id] = c
	return c.Clone(), nil
}

func (r *Repo) ListTopLevel(ctx context.Context, p storage.ListParams) ([]model.Comment, int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := append([]string(nil), r.topLevel[p.PostID]...)
	total := len(ids)

	sort.SliceStable(ids, func(i, j int) bool {
		a, b := r.byID[ids[i]], r.byID[ids[j]]
		switch p.Sort {
		case model.SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case model.SortPopular:
			if len(a.Reactions) != len(b.Reactions) {
				return len(a.Reactions) > len(b.Reactions)
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	start := (p.Page - 1) * p.Limit
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}

	items := make([]model.Comment, 0, end-start)
	for _, id := range ids[start:end] {
		c := r.byID[id].Clone()
		c.Replies = r.flattenLocked(id, make([]model.Comment, 0))
		items = append(items, c)
	}
	return items, total, nil
}

func (r *Repo) flattenLocked(id string, dst []model.Comment) []model.Comment {
	kids := append([]string(nil), r.children[id]...)
	sort.SliceStable(kids, func(i, j int) bool {
		return r.byID[kids[i]].CreatedAt.Before(r.byID[kids[j]].CreatedAt)
	})
	for _, k := range kids {
		dst = append(dst, r.byID[k].Clone())
		dst = r.flattenLocked(k, dst)
	}
	return dst
}

func (r *Repo) DeleteSubtree(ctx context.Context, id string) (int, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	root, ok := r.byID[id]
	if !ok {
		return 0, nil
	}

	toDelete := make([]string, 0, 16)
	stack := []string{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		toDelete = append(toDelete, n)
		stack = append(stack, r.children[n]...)
	}

	if parent := storage.ParentOf(root); parent != "" {
		r.children[parent] = removeID(r.children[parent], id)
	} else {
		r.topLevel[root.PostID] = removeID(r.topLevel[root.PostID], id)
	}
	for _, cid := range toDelete {
		delete(r.byID, cid)
		delete(r.children, cid)
	}

	return len(toDelete), nil
}

func (r *Repo) GetPath(ctx context.Context, id string) ([]model.PathItem, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []model.PathItem
	for cur := id; cur != ""; {
		c, ok := r.byID[cur]
		if !ok {
			return nil, storage.ErrNotFound
		}
		items = append(items, model.PathItem{
			ID:            c.ID,
			ParentReplyID: c.ParentReplyID,
			Content:       c.Content,
			Depth:         c.Depth,
		})
		cur = storage.ParentOf(c)
	}

	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (r *Repo) ToggleReaction(ctx context.Context, id string, user model.User, typ model.ReactionType) ([]model.Reaction, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c.Reactions = reaction.Toggle(c.Reactions, user, typ)
	r.byID[id] = c
	return append([]model.Reaction{}, c.Reactions...), nil
}

func removeID(ids []string, target string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
