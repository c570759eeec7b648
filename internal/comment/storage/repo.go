package storage

import (
	"context"
	"errors"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

var ErrNotFound = errors.New("not found")

type ListParams struct {
	PostID string
	Page   int
	Limit  int
	Sort   model.Sort
}

// Repository stores comments of all posts. ListTopLevel returns each top-level
// comment with its whole reply subtree flattened into Replies in pre-order,
// children oldest first.
type Repository interface {
	ListTopLevel(ctx context.Context, p ListParams) (items []model.Comment, total int, err error)
	Get(ctx context.Context, id string) (model.Comment, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (model.Comment, error)
	DeleteSubtree(ctx context.Context, id string) (int, error)
	GetPath(ctx context.Context, id string) ([]model.PathItem, error)
	ToggleReaction(ctx context.Context, id string, user model.User, typ model.ReactionType) ([]model.Reaction, error)
}

// ParentOf returns the id of the node c hangs under, or "" for a top-level
// comment.
func ParentOf(c model.Comment) string {
	if c.ParentReplyID != "" {
		return c.ParentReplyID
	}
	return c.CommentID
}
