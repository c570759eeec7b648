package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage"
)

func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestListFlattensPreOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewWithClock(tickingClock())

	top, err := repo.Create(ctx, model.Comment{PostID: "p1", UserID: "u1", Content: "top"})
	require.NoError(t, err)
	a, _ := repo.Create(ctx, model.Comment{PostID: "p1", CommentID: top.ID, Depth: 1, Content: "a"})
	b, _ := repo.Create(ctx, model.Comment{PostID: "p1", CommentID: top.ID, Depth: 1, Content: "b"})
	a1, _ := repo.Create(ctx, model.Comment{PostID: "p1", CommentID: top.ID, ParentReplyID: a.ID, Depth: 2, Content: "a1"})

	items, total, err := repo.ListTopLevel(ctx, storage.ListParams{PostID: "p1", Page: 1, Limit: 20, Sort: model.SortNewest})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	var ids []string
	for _, r := range items[0].Replies {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{a.ID, a1.ID, b.ID}, ids)
}

func TestListSortAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewWithClock(tickingClock())

	var ids []string
	for i := 0; i < 5; i++ {
		c, err := repo.Create(ctx, model.Comment{PostID: "p1", Content: "c"})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	_, err := repo.Create(ctx, model.Comment{PostID: "other", Content: "x"})
	require.NoError(t, err)

	_, err = repo.ToggleReaction(ctx, ids[1], model.User{ID: "u1"}, model.ReactionLike)
	require.NoError(t, err)

	page, total, err := repo.ListTopLevel(ctx, storage.ListParams{PostID: "p1", Page: 1, Limit: 2, Sort: model.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID)

	page, _, _ = repo.ListTopLevel(ctx, storage.ListParams{PostID: "p1", Page: 3, Limit: 2, Sort: model.SortOldest})
	require.Len(t, page, 1)
	assert.Equal(t, ids[4], page[0].ID)

	page, _, _ = repo.ListTopLevel(ctx, storage.ListParams{PostID: "p1", Page: 1, Limit: 5, Sort: model.SortPopular})
	assert.Equal(t, ids[1], page[0].ID)
	assert.Equal(t, ids[4], page[1].ID)
}

func TestDeleteSubtreeAndPath(t *testing.T) {
	ctx := context.Background()
	repo := New()

	top, _ := repo.Create(ctx, model.Comment{PostID: "p1", Content: "top"})
	r1, _ := repo.Create(ctx, model.Comment{PostID: "p1", CommentID: top.ID, Depth: 1, Content: "r1"})
	r2, _ := repo.Create(ctx, model.Comment{PostID: "p1", CommentID: top.ID, ParentReplyID: r1.ID, Depth: 2, Content: "r2"})

	path, err := repo.GetPath(ctx, r2.ID)
	require.NoError(t, err)
	require.Len(t, path, 3)
	assert.Equal(t, []string{top.ID, r1.ID, r2.ID}, []string{path[0].ID, path[1].ID, path[2].ID})

	n, err := repo.DeleteSubtree(ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, _ := repo.Exists(ctx, r2.ID)
	assert.False(t, ok)
	items, _, _ := repo.ListTopLevel(ctx, storage.ListParams{PostID: "p1", Page: 1, Limit: 20})
	assert.Empty(t, items[0].Replies)

	_, err = repo.Create(ctx, model.Comment{PostID: "p1", CommentID: r1.ID, Depth: 1, Content: "orphan"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestToggleReaction(t *testing.T) {
	ctx := context.Background()
	repo := New()
	c, _ := repo.Create(ctx, model.Comment{PostID: "p1", Content: "x"})
	u := model.User{ID: "u1", Name: "Alice"}

	rs, err := repo.ToggleReaction(ctx, c.ID, u, model.ReactionLike)
	require.NoError(t, err)
	require.Len(t, rs, 1)

	rs, _ = repo.ToggleReaction(ctx, c.ID, u, model.ReactionLike)
	assert.Empty(t, rs)

	_, err = repo.ToggleReaction(ctx, "missing", u, model.ReactionLike)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
