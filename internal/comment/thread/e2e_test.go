package thread_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahabul87/alam-lms-sub003/internal/auth"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/api"
	handler "github.com/Shahabul87/alam-lms-sub003/internal/comment/handler/http"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/notify"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/service"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/session"
	inm "github.com/Shahabul87/alam-lms-sub003/internal/comment/storage/inmemory"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/thread"
)

func newSection(t *testing.T, routes []string) (*thread.Section, *notify.Recorder) {
	t.Helper()
	iss := auth.NewIssuer("secret", time.Hour)
	h := handler.New(service.New(inm.New()), handler.Options{
		Issuer:            iss,
		Logger:            zerolog.Nop(),
		NestedReplyRoutes: routes,
	})
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	user := model.User{ID: "u1", Name: "Alice"}
	tok, err := iss.Issue(user)
	require.NoError(t, err)
	sess := session.NewAuthenticated(user, tok)

	client := api.New(api.Options{BaseURL: srv.URL, Tokens: sess, Logger: zerolog.Nop()})
	rec := &notify.Recorder{}
	sec := thread.New("p1", client, sess, rec, zerolog.Nop())
	t.Cleanup(sec.Close)
	return sec, rec
}

func TestSectionAgainstServer(t *testing.T) {
	ctx := context.Background()
	sec, _ := newSection(t, nil)

	require.NoError(t, sec.FetchPage(ctx, 1, model.SortNewest))
	assert.Equal(t, "Comments (0)", sec.Heading())

	c1, err := sec.AddTopLevelComment(ctx, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Comments (1)", sec.Heading())

	r1, err := sec.SubmitReply(ctx, c1.ID, "first")
	require.NoError(t, err)
	r2, err := sec.SubmitReply(ctx, r1.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, 2, r2.Depth)

	require.NoError(t, sec.UpdateComment(ctx, r2.ID, "second, edited"))
	_, err = sec.React(ctx, r1.ID, model.ReactionHaha)
	require.NoError(t, err)

	// A fresh load must rebuild the same tree from the flattened response.
	require.NoError(t, sec.FetchPage(ctx, 1, model.SortNewest))
	got := sec.Comments()
	require.Len(t, got, 1)
	require.Len(t, got[0].Replies, 1)
	assert.Equal(t, r1.ID, got[0].Replies[0].ID)
	assert.Len(t, got[0].Replies[0].Reactions, 1)
	require.Len(t, got[0].Replies[0].Replies, 1)
	assert.Equal(t, "second, edited", got[0].Replies[0].Replies[0].Content)

	require.NoError(t, sec.DeleteComment(ctx, r1.ID))
	require.NoError(t, sec.FetchPage(ctx, 1, model.SortNewest))
	assert.Empty(t, sec.Comments()[0].Replies)

	require.NoError(t, sec.DeleteComment(ctx, c1.ID))
	assert.Equal(t, "Comments (0)", sec.Heading())
}

func TestNestedReplyFallsBackToLastAlias(t *testing.T) {
	ctx := context.Background()
	sec, _ := newSection(t, []string{"/api/simple-reply"})

	require.NoError(t, sec.FetchPage(ctx, 1, model.SortNewest))
	c1, err := sec.AddTopLevelComment(ctx, "root")
	require.NoError(t, err)
	r1, err := sec.SubmitReply(ctx, c1.ID, "reply")
	require.NoError(t, err)

	r2, err := sec.SubmitReply(ctx, r1.ID, "nested")
	require.NoError(t, err)
	assert.Equal(t, r1.ID, r2.ParentReplyID)
}

func TestNestedReplyAllAliasesGone(t *testing.T) {
	ctx := context.Background()
	sec, rec := newSection(t, []string{})

	require.NoError(t, sec.FetchPage(ctx, 1, model.SortNewest))
	c1, err := sec.AddTopLevelComment(ctx, "root")
	require.NoError(t, err)
	r1, err := sec.SubmitReply(ctx, c1.ID, "reply")
	require.NoError(t, err)

	_, err = sec.SubmitReply(ctx, r1.ID, "nested")
	require.Error(t, err)
	kind, ok := api.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, api.KindNotFound, kind)

	last, _ := rec.Last()
	assert.Equal(t, notify.MsgNotFound, last.Message)
}
