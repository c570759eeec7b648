package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrDepthLimit   = fmt.Errorf("%w: maximum reply depth reached", ErrInvalidInput)
)

type contentInput struct {
	Content string `validate:"required,max=2000"`
}

type commentService struct {
	repo     storage.Repository
	validate *validator.Validate
}

func New(repo storage.Repository) CommentService {
	v := validator.New()
	_ = v.RegisterValidation("reactiontype", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(model.ReactionType)
		return ok && t.Valid()
	})
	return &commentService{repo: repo, validate: v}
}

func (s *commentService) List(ctx context.Context, postID string, page int, sortMode model.Sort) (model.CommentPage, error) {
	if strings.TrimSpace(postID) == "" || page <= 0 {
		return model.CommentPage{}, ErrInvalidInput
	}
	if sortMode == "" {
		sortMode = model.SortNewest
	}
	if !sortMode.Valid() {
		return model.CommentPage{}, ErrInvalidInput
	}

	items, total, err := s.repo.ListTopLevel(ctx, storage.ListParams{
		PostID: postID,
		Page:   page,
		Limit:  model.PageSize,
		Sort:   sortMode,
	})
	if err != nil {
		return model.CommentPage{}, err
	}
	return model.CommentPage{
		Data:       items,
		Pagination: model.NewPagination(page, model.PageSize, total),
	}, nil
}

func (s *commentService) Create(ctx context.Context, user model.User, postID, content string) (model.Comment, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return model.Comment{}, err
	}
	if strings.TrimSpace(postID) == "" {
		return model.Comment{}, ErrInvalidInput
	}

	return s.repo.Create(ctx, model.Comment{
		Content: content,
		PostID:  postID,
		UserID:  user.ID,
		User:    &user,
	})
}

func (s *commentService) UpdateComment(ctx context.Context, user model.User, postID, commentID, content string) (model.Comment, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return model.Comment{}, err
	}
	c, err := s.get(ctx, postID, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if !c.IsTopLevel() {
		return model.Comment{}, ErrNotFound
	}
	if c.UserID != user.ID {
		return model.Comment{}, ErrForbidden
	}
	return s.update(ctx, commentID, content)
}

func (s *commentService) DeleteComment(ctx context.Context, user model.User, postID, commentID string) (int, error) {
	c, err := s.get(ctx, postID, commentID)
	if err != nil {
		return 0, err
	}
	if !c.IsTopLevel() {
		return 0, ErrNotFound
	}
	if c.UserID != user.ID {
		return 0, ErrForbidden
	}
	return s.repo.DeleteSubtree(ctx, commentID)
}

func (s *commentService) CreateReply(ctx context.Context, user model.User, postID, commentID, content string) (model.Comment, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return model.Comment{}, err
	}
	parent, err := s.get(ctx, postID, commentID)
	if err != nil {
		return model.Comment{}, err
	}
	if !parent.IsTopLevel() {
		return model.Comment{}, fmt.Errorf("%w: %s is a reply", ErrInvalidInput, commentID)
	}

	return s.repo.Create(ctx, model.Comment{
		Content:   content,
		PostID:    postID,
		CommentID: parent.ID,
		Depth:     1,
		UserID:    user.ID,
		User:      &user,
	})
}

// CreateNestedReply checks that ParentReplyID really descends from CommentID
// before creating the reply one level below it.
func (s *commentService) CreateNestedReply(ctx context.Context, user model.User, in NestedReplyInput) (model.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := s.check(in); err != nil {
		return model.Comment{}, err
	}
	parent, err := s.get(ctx, in.PostID, in.ParentReplyID)
	if err != nil {
		return model.Comment{}, err
	}
	if parent.Depth >= model.MaxDepth {
		return model.Comment{}, ErrDepthLimit
	}

	path, err := s.GetPath(ctx, parent.ID)
	if err != nil {
		return model.Comment{}, err
	}
	if path[0].ID != in.CommentID {
		return model.Comment{}, fmt.Errorf("%w: reply %s is not under comment %s", ErrInvalidInput, in.ParentReplyID, in.CommentID)
	}

	reply := model.Comment{
		Content:   in.Content,
		PostID:    in.PostID,
		CommentID: in.CommentID,
		Depth:     parent.Depth + 1,
		UserID:    user.ID,
		User:      &user,
	}
	if parent.Depth > 0 {
		reply.ParentReplyID = parent.ID
	}
	return s.repo.Create(ctx, reply)
}

func (s *commentService) UpdateNestedReply(ctx context.Context, user model.User, postID, commentID, replyID, content string) (model.Comment, error) {
	content, err := s.validateContent(content)
	if err != nil {
		return model.Comment{}, err
	}
	c, err := s.getReply(ctx, postID, replyID)
	if err != nil {
		return model.Comment{}, err
	}
	if commentID != "" && c.CommentID != commentID {
		return model.Comment{}, ErrNotFound
	}
	if c.UserID != user.ID {
		return model.Comment{}, ErrForbidden
	}
	return s.update(ctx, replyID, content)
}

func (s *commentService) DeleteNestedReply(ctx context.Context, user model.User, postID, replyID string) (int, error) {
	c, err := s.getReply(ctx, postID, replyID)
	if err != nil {
		return 0, err
	}
	if c.UserID != user.ID {
		return 0, ErrForbidden
	}
	return s.repo.DeleteSubtree(ctx, replyID)
}

func (s *commentService) React(ctx context.Context, user model.User, in ReactInput) ([]model.Reaction, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	target := in.CommentID
	if in.ReplyID != "" {
		target = in.ReplyID
	}
	c, err := s.get(ctx, in.PostID, target)
	if err != nil {
		return nil, err
	}
	if in.ReplyID != "" && in.CommentID != "" && c.CommentID != in.CommentID {
		return nil, ErrNotFound
	}

	rs, err := s.repo.ToggleReaction(ctx, target, user, in.Type)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rs, err
}

func (s *commentService) GetPath(ctx context.Context, id string) ([]model.PathItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	items, err := s.repo.GetPath(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(items) == 0) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *commentService) get(ctx context.Context, postID, id string) (model.Comment, error) {
	if strings.TrimSpace(postID) == "" || strings.TrimSpace(id) == "" {
		return model.Comment{}, ErrInvalidInput
	}
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Comment{}, ErrNotFound
	}
	if err != nil {
		return model.Comment{}, err
	}
	if c.PostID != postID {
		return model.Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *commentService) getReply(ctx context.Context, postID, id string) (model.Comment, error) {
	c, err := s.get(ctx, postID, id)
	if err != nil {
		return model.Comment{}, err
	}
	if c.IsTopLevel() {
		return model.Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *commentService) update(ctx context.Context, id, content string) (model.Comment, error) {
	c, err := s.repo.UpdateContent(ctx, id, content)
	if errors.Is(err, storage.ErrNotFound) {
		return model.Comment{}, ErrNotFound
	}
	return c, err
}

func (s *commentService) validateContent(content string) (string, error) {
	in := contentInput{Content: strings.TrimSpace(content)}
	if err := s.check(in); err != nil {
		return "", err
	}
	return in.Content, nil
}

func (s *commentService) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
