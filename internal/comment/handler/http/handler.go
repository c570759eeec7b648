package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Shahabul87/alam-lms-sub003/internal/auth"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/service"
	"github.com/Shahabul87/alam-lms-sub003/internal/ratelimit"
)

// DefaultNestedReplyRoutes are the aliases that all create a reply to a reply.
var DefaultNestedReplyRoutes = []string{
	"/api/create-nested-reply",
	"/api/nested-replies",
	"/api/nested-reply",
	"/api/simple-reply",
}

type Options struct {
	Issuer  *auth.Issuer
	Limiter ratelimit.Limiter
	Logger  zerolog.Logger
	// NestedReplyRoutes overrides DefaultNestedReplyRoutes.
	NestedReplyRoutes []string
}

type Handler struct {
	svc     service.CommentService
	issuer  *auth.Issuer
	limiter ratelimit.Limiter
	log     zerolog.Logger
	nested  []string
}

func New(svc service.CommentService, opts Options) *Handler {
	nested := opts.NestedReplyRoutes
	if nested == nil {
		nested = DefaultNestedReplyRoutes
	}
	return &Handler{
		svc:     svc,
		issuer:  opts.Issuer,
		limiter: opts.Limiter,
		log:     opts.Logger,
		nested:  nested,
	}
}

type contentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) ListComments(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "invalid page"})
			return
		}
		page = parsed
	}

	res, err := h.svc.List(r.Context(), chi.URLParam(r, "postId"), page, model.Sort(q.Get("sortBy")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, res)
}

func (h *Handler) CreateComment(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	var req contentRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.Create(r.Context(), mustUser(r), chi.URLParam(r, "postId"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusCreated, c)
}

func (h *Handler) UpdateComment(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	var req contentRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.UpdateComment(r.Context(), mustUser(r), chi.URLParam(r, "postId"), chi.URLParam(r, "commentId"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, c)
}

func (h *Handler) DeleteComment(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	deleted, err := h.svc.DeleteComment(r.Context(), mustUser(r), chi.URLParam(r, "postId"), chi.URLParam(r, "commentId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) CreateReply(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	var req contentRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.CreateReply(r.Context(), mustUser(r), chi.URLParam(r, "postId"), chi.URLParam(r, "commentId"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusCreated, c)
}

func (h *Handler) CreateNestedReply(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	var req service.NestedReplyInput
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.CreateNestedReply(r.Context(), mustUser(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusCreated, c)
}

func (h *Handler) UpdateNestedReply(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	var req contentRequest
	if !decode(w, r, &req) {
		return
	}
	q := r.URL.Query()

	c, err := h.svc.UpdateNestedReply(r.Context(), mustUser(r), q.Get("postId"), q.Get("commentId"), q.Get("replyId"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, c)
}

func (h *Handler) DeleteNestedReply(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	q := r.URL.Query()

	deleted, err := h.svc.DeleteNestedReply(r.Context(), mustUser(r), q.Get("postId"), q.Get("replyId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) React(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	var req service.ReactInput
	if !decode(w, r, &req) {
		return
	}

	rs, err := h.svc.React(r.Context(), mustUser(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, map[string]any{"reactions": rs})
}

func (h *Handler) GetPath(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	items, err := h.svc.GetPath(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, stdhttp.StatusOK, map[string]any{"items": items})
}

func (h *Handler) writeError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, stdhttp.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, stdhttp.StatusForbidden, map[string]any{"error": "forbidden"})
	default:
		h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, stdhttp.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func decode(w stdhttp.ResponseWriter, r *stdhttp.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, stdhttp.StatusBadRequest, map[string]any{"error": "bad json"})
		return false
	}
	return true
}

// mustUser is only used behind requireAuth.
func mustUser(r *stdhttp.Request) model.User {
	u, _ := auth.UserFrom(r.Context())
	return u
}

func writeJSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
