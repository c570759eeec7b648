package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Routes() stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		writeJSON(w, stdhttp.StatusOK, map[string]any{"result": "ok"})
	})

	r.Get("/api/posts/{postId}/comments", h.ListComments)
	r.Get("/api/comments/{id}/path", h.GetPath)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(h.rateLimit)

		r.Post("/api/posts/{postId}/comments", h.CreateComment)
		r.Patch("/api/posts/{postId}/comments/{commentId}", h.UpdateComment)
		r.Delete("/api/posts/{postId}/comments/{commentId}", h.DeleteComment)
		r.Post("/api/posts/{postId}/comments/{commentId}/replies", h.CreateReply)

		for _, p := range h.nested {
			r.Post(p, h.CreateNestedReply)
		}
		r.Patch("/api/update-nested-reply", h.UpdateNestedReply)
		r.Delete("/api/delete-nested-reply", h.DeleteNestedReply)
		r.Post("/api/comment-reaction", h.React)
	})

	return r
}
