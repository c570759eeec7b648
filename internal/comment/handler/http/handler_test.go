package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shahabul87/alam-lms-sub003/internal/auth"
	handler "github.com/Shahabul87/alam-lms-sub003/internal/comment/handler/http"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/service"
	inm "github.com/Shahabul87/alam-lms-sub003/internal/comment/storage/inmemory"
	"github.com/Shahabul87/alam-lms-sub003/internal/ratelimit"
)

type testServer struct {
	*httptest.Server
	issuer *auth.Issuer
}

func newServer(t *testing.T, opts handler.Options) *testServer {
	t.Helper()
	iss := auth.NewIssuer("test-secret", time.Hour)
	opts.Issuer = iss
	opts.Logger = zerolog.Nop()
	h := handler.New(service.New(inm.New()), opts)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, issuer: iss}
}

func (s *testServer) token(t *testing.T, id string) string {
	t.Helper()
	tok, err := s.issuer.Issue(model.User{ID: id, Name: id})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func TestCommentLifecycle(t *testing.T) {
	srv := newServer(t, handler.Options{})
	alice := srv.token(t, "alice")

	var created model.Comment
	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments", alice, map[string]any{"content": "root"}, &created); code != http.StatusCreated {
		t.Fatalf("expected 201 created, got %d", code)
	}

	var r1 model.Comment
	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments/"+created.ID+"/replies", alice, map[string]any{"content": "r1"}, &r1); code != http.StatusCreated {
		t.Fatalf("expected 201 for reply, got %d", code)
	}

	var r2 model.Comment
	code := srv.do(t, http.MethodPost, "/api/create-nested-reply", alice, map[string]any{
		"content": "r2", "postId": "p1", "commentId": created.ID, "parentReplyId": r1.ID,
	}, &r2)
	if code != http.StatusCreated || r2.Depth != 2 {
		t.Fatalf("nested reply: code %d depth %d", code, r2.Depth)
	}

	var page model.CommentPage
	if code := srv.do(t, http.MethodGet, "/api/posts/p1/comments?page=1&sortBy=newest", "", nil, &page); code != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", code)
	}
	if page.Pagination.TotalCount != 1 || len(page.Data) != 1 || len(page.Data[0].Replies) != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Data[0].Replies[1].ParentReplyID != r1.ID {
		t.Fatalf("expected flattened r2 under r1, got %+v", page.Data[0].Replies[1])
	}

	var updated model.Comment
	code = srv.do(t, http.MethodPatch, "/api/update-nested-reply?postId=p1&commentId="+created.ID+"&replyId="+r2.ID, alice, map[string]any{"content": "edited"}, &updated)
	if code != http.StatusOK || updated.Content != "edited" {
		t.Fatalf("update nested: code %d content %q", code, updated.Content)
	}

	var reacted struct {
		Reactions []model.Reaction `json:"reactions"`
	}
	code = srv.do(t, http.MethodPost, "/api/comment-reaction", alice, map[string]any{"type": "love", "postId": "p1", "commentId": created.ID}, &reacted)
	if code != http.StatusOK || len(reacted.Reactions) != 1 {
		t.Fatalf("react: code %d reactions %+v", code, reacted.Reactions)
	}

	var path struct {
		Items []model.PathItem `json:"items"`
	}
	if code := srv.do(t, http.MethodGet, "/api/comments/"+r2.ID+"/path", "", nil, &path); code != http.StatusOK || len(path.Items) != 3 {
		t.Fatalf("path: code %d items %d", code, len(path.Items))
	}

	var del map[string]int
	if code := srv.do(t, http.MethodDelete, "/api/delete-nested-reply?postId=p1&replyId="+r1.ID, alice, nil, &del); code != http.StatusOK {
		t.Fatalf("expected 200 delete, got %d", code)
	}
	if del["deleted"] != 2 {
		t.Fatalf("expected 2 deleted, got %d", del["deleted"])
	}

	if code := srv.do(t, http.MethodDelete, "/api/posts/p1/comments/"+created.ID, alice, nil, nil); code != http.StatusOK {
		t.Fatalf("expected 200 delete, got %d", code)
	}
	if code := srv.do(t, http.MethodDelete, "/api/posts/p1/comments/"+created.ID, alice, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestNestedReplyAliases(t *testing.T) {
	srv := newServer(t, handler.Options{})
	tok := srv.token(t, "alice")

	var c, r model.Comment
	srv.do(t, http.MethodPost, "/api/posts/p1/comments", tok, map[string]any{"content": "c"}, &c)
	srv.do(t, http.MethodPost, "/api/posts/p1/comments/"+c.ID+"/replies", tok, map[string]any{"content": "r"}, &r)

	for _, p := range handler.DefaultNestedReplyRoutes {
		body := map[string]any{"content": "via " + p, "postId": "p1", "commentId": c.ID, "parentReplyId": r.ID}
		if code := srv.do(t, http.MethodPost, p, tok, body, nil); code != http.StatusCreated {
			t.Fatalf("%s: expected 201, got %d", p, code)
		}
	}

	only := newServer(t, handler.Options{NestedReplyRoutes: []string{"/api/simple-reply"}})
	if code := only.do(t, http.MethodPost, "/api/create-nested-reply", only.token(t, "alice"), map[string]any{}, nil); code != http.StatusNotFound {
		t.Fatalf("disabled alias: expected 404, got %d", code)
	}
}

func TestErrorStatuses(t *testing.T) {
	srv := newServer(t, handler.Options{})
	alice := srv.token(t, "alice")
	bob := srv.token(t, "bob")

	var c model.Comment
	srv.do(t, http.MethodPost, "/api/posts/p1/comments", alice, map[string]any{"content": "mine"}, &c)

	var body map[string]any
	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments", "", map[string]any{"content": "x"}, &body); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if body["error"] == "" {
		t.Fatalf("expected error body")
	}
	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments", "garbage", map[string]any{"content": "x"}, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", code)
	}
	if code := srv.do(t, http.MethodPatch, "/api/posts/p1/comments/"+c.ID, bob, map[string]any{"content": "x"}, nil); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	if code := srv.do(t, http.MethodPatch, "/api/posts/p1/comments/nope", alice, map[string]any{"content": "x"}, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments", alice, map[string]any{"content": "   "}, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if code := srv.do(t, http.MethodGet, "/api/posts/p1/comments?page=x", "", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad page, got %d", code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newServer(t, handler.Options{Limiter: ratelimit.NewMemory(1, time.Minute)})
	tok := srv.token(t, "alice")

	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments", tok, map[string]any{"content": "one"}, nil); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}

	var body struct {
		Error         string               `json:"error"`
		RateLimitInfo *model.RateLimitInfo `json:"rateLimitInfo"`
	}
	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments", tok, map[string]any{"content": "two"}, &body); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if body.RateLimitInfo == nil || body.RateLimitInfo.Limit != 1 || body.RateLimitInfo.Remaining != 0 {
		t.Fatalf("unexpected rateLimitInfo %+v", body.RateLimitInfo)
	}

	if code := srv.do(t, http.MethodPost, "/api/posts/p1/comments", srv.token(t, "bob"), map[string]any{"content": "three"}, nil); code != http.StatusCreated {
		t.Fatalf("other user limited: %d", code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, handler.Options{})
	var body map[string]string
	if code := srv.do(t, http.MethodGet, "/healthz", "", nil, &body); code != http.StatusOK || body["result"] != "ok" {
		t.Fatalf("healthz: %d %v", code, body)
	}
}
