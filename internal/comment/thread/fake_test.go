package thread

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/api"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/notify"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/session"
)

var (
	author = model.User{ID: "u1", Name: "Alice"}
	other  = model.User{ID: "u2", Name: "Bob"}
	t0     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

type call struct {
	op   string
	args []string
}

type fakeAPI struct {
	mu     sync.Mutex
	pages  map[string]model.CommentPage
	errs   map[string]error
	hooks  map[string]func()
	calls  []call
	nextID int

	nested api.NestedReplyRequest

	// waitList makes ListComments block until its context is done.
	waitList bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		pages: make(map[string]model.CommentPage),
		errs:  make(map[string]error),
		hooks: make(map[string]func()),
	}
}

func pageKey(page int, sort model.Sort) string { return fmt.Sprintf("%d/%s", page, sort) }

func (f *fakeAPI) record(op string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, args: args})
	hook := f.hooks[op]
	err := f.errs[op]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (f *fakeAPI) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

func (f *fakeAPI) last(op string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].op == op {
			return f.calls[i].args
		}
	}
	return nil
}

func (f *fakeAPI) id() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("new%d", f.nextID)
}

func (f *fakeAPI) ListComments(ctx context.Context, postID string, page int, sort model.Sort) (model.CommentPage, error) {
	if err := f.record("list", postID, fmt.Sprint(page), string(sort)); err != nil {
		return model.CommentPage{}, err
	}
	f.mu.Lock()
	wait := f.waitList
	f.mu.Unlock()
	if wait {
		<-ctx.Done()
		return model.CommentPage{}, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages[pageKey(page, sort)], nil
}

func (f *fakeAPI) CreateComment(_ context.Context, postID, content string) (model.Comment, error) {
	if err := f.record("create", postID, content); err != nil {
		return model.Comment{}, err
	}
	return model.Comment{ID: f.id(), Content: content, PostID: postID, UserID: author.ID}, nil
}

func (f *fakeAPI) UpdateComment(_ context.Context, postID, commentID, content string) (model.Comment, error) {
	if err := f.record("update", postID, commentID, content); err != nil {
		return model.Comment{}, err
	}
	at := t0.Add(time.Hour)
	return model.Comment{ID: commentID, Content: content, UpdatedAt: &at}, nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, postID, commentID string) error {
	return f.record("delete", postID, commentID)
}

func (f *fakeAPI) CreateReply(_ context.Context, postID, commentID, content string) (model.Comment, error) {
	if err := f.record("reply", postID, commentID, content); err != nil {
		return model.Comment{}, err
	}
	return model.Comment{ID: f.id(), Content: content, PostID: postID, CommentID: commentID}, nil
}

func (f *fakeAPI) CreateNestedReply(_ context.Context, req api.NestedReplyRequest) (model.Comment, error) {
	if err := f.record("nested-reply", req.PostID, req.CommentID, req.ParentReplyID, req.Content); err != nil {
		return model.Comment{}, err
	}
	return model.Comment{ID: f.id(), Content: req.Content, PostID: req.PostID, ParentReplyID: req.ParentReplyID}, nil
}

func (f *fakeAPI) UpdateNestedReply(_ context.Context, postID, commentID, replyID, content string) (model.Comment, error) {
	if err := f.record("update-nested", postID, commentID, replyID, content); err != nil {
		return model.Comment{}, err
	}
	return model.Comment{ID: replyID, Content: content}, nil
}

func (f *fakeAPI) DeleteNestedReply(_ context.Context, postID, replyID string) error {
	return f.record("delete-nested", postID, replyID)
}

func (f *fakeAPI) React(_ context.Context, req api.ReactionRequest) ([]model.Reaction, error) {
	if err := f.record("react", req.PostID, req.CommentID, req.ReplyID, string(req.Type)); err != nil {
		return nil, err
	}
	return []model.Reaction{{ID: "srv", Type: req.Type, UserID: author.ID}}, nil
}

func comment(id string, created time.Time, replies ...model.Comment) model.Comment {
	return model.Comment{
		ID:        id,
		Content:   "content of " + id,
		UserID:    author.ID,
		User:      &author,
		PostID:    "p1",
		CreatedAt: created,
		Reactions: []model.Reaction{},
		Replies:   replies,
	}
}

func reply(id, parent string, depth int) model.Comment {
	c := comment(id, t0.Add(time.Duration(depth)*time.Minute))
	c.ParentReplyID = parent
	c.Depth = depth
	return c
}

type fixture struct {
	api     *fakeAPI
	rec     *notify.Recorder
	session *session.Session
	sec     *Section
}

func newFixture(data ...model.Comment) *fixture {
	f := &fixture{
		api:     newFakeAPI(),
		rec:     &notify.Recorder{},
		session: session.NewAuthenticated(author, "tok"),
	}
	f.api.pages[pageKey(1, model.SortNewest)] = model.CommentPage{
		Data:       data,
		Pagination: model.NewPagination(1, model.PageSize, len(data)),
	}
	f.sec = New("p1", f.api, f.session, f.rec, zerolog.Nop())
	return f
}
