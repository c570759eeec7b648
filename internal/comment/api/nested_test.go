package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

type endpointLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *endpointLog) add(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, p)
}

func fallbackServer(log *endpointLog, working map[string]bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		if !working[r.URL.Path] {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no route"})
			return
		}
		var req NestedReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad json"})
			return
		}
		writeJSON(w, http.StatusCreated, model.Comment{
			ID:            "new",
			Content:       req.Content,
			PostID:        req.PostID,
			CommentID:     req.CommentID,
			ParentReplyID: req.ParentReplyID,
		})
	})
}

func TestNestedReplyFallsBackInOrder(t *testing.T) {
	log := &endpointLog{}
	c := newClient(t, fallbackServer(log, map[string]bool{"/api/nested-reply": true}))

	got, err := c.CreateNestedReply(context.Background(), NestedReplyRequest{
		Content: "deep", PostID: "p1", CommentID: "c1", ParentReplyID: "r2",
	})
	require.NoError(t, err)
	assert.Equal(t, "r2", got.ParentReplyID)
	assert.Equal(t, "c1", got.CommentID)
	assert.Equal(t, []string{"/api/create-nested-reply", "/api/nested-replies", "/api/nested-reply"}, log.paths)
}

func TestNestedReplyFailsOnlyWhenAllEndpointsFail(t *testing.T) {
	log := &endpointLog{}
	c := newClient(t, fallbackServer(log, nil))

	_, err := c.CreateNestedReply(context.Background(), NestedReplyRequest{Content: "deep", PostID: "p1"})
	require.Error(t, err)
	assert.Equal(t, DefaultNestedReplyEndpoints, log.paths)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
}

func TestNestedReplySingleEndpoint(t *testing.T) {
	log := &endpointLog{}
	c := newClient(t, fallbackServer(log, nil), func(o *Options) {
		o.NestedReplyEndpoints = []string{"/api/create-nested-reply"}
	})

	_, err := c.CreateNestedReply(context.Background(), NestedReplyRequest{Content: "deep"})
	require.Error(t, err)
	assert.Equal(t, []string{"/api/create-nested-reply"}, log.paths)
}

func TestNestedReplyStopsWhenContextCancelled(t *testing.T) {
	log := &endpointLog{}
	c := newClient(t, fallbackServer(log, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreateNestedReply(ctx, NestedReplyRequest{Content: "deep"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, log.paths)
}
