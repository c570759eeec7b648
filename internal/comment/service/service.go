package service

import (
	"context"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

type NestedReplyInput struct {
	Content       string `json:"content" validate:"required,max=2000"`
	PostID        string `json:"postId" validate:"required"`
	CommentID     string `json:"commentId" validate:"required"`
	ParentReplyID string `json:"parentReplyId" validate:"required"`
}

type ReactInput struct {
	Type      model.ReactionType `json:"type" validate:"reactiontype"`
	PostID    string             `json:"postId" validate:"required"`
	CommentID string             `json:"commentId" validate:"required_without=ReplyID"`
	ReplyID   string             `json:"replyId"`
}

type CommentService interface {
	List(ctx context.Context, postID string, page int, sort model.Sort) (model.CommentPage, error)
	Create(ctx context.Context, user model.User, postID, content string) (model.Comment, error)
	UpdateComment(ctx context.Context, user model.User, postID, commentID, content string) (model.Comment, error)
	DeleteComment(ctx context.Context, user model.User, postID, commentID string) (deleted int, err error)
	CreateReply(ctx context.Context, user model.User, postID, commentID, content string) (model.Comment, error)
	CreateNestedReply(ctx context.Context, user model.User, in NestedReplyInput) (model.Comment, error)
	UpdateNestedReply(ctx context.Context, user model.User, postID, commentID, replyID, content string) (model.Comment, error)
	DeleteNestedReply(ctx context.Context, user model.User, postID, replyID string) (deleted int, err error)
	React(ctx context.Context, user model.User, in ReactInput) ([]model.Reaction, error)
	GetPath(ctx context.Context, id string) ([]model.PathItem, error)
}
