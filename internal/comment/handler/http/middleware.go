package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Shahabul87/alam-lms-sub003/internal/auth"
)

func (h *Handler) requireAuth(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header || h.issuer == nil {
			writeJSON(w, stdhttp.StatusUnauthorized, map[string]any{"error": "authentication required"})
			return
		}

		u, err := h.issuer.Parse(token)
		if err != nil {
			h.log.Warn().Err(err).Str("path", r.URL.Path).Msg("jwt validation failed")
			writeJSON(w, stdhttp.StatusUnauthorized, map[string]any{"error": "invalid or expired token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

// rateLimit counts requests per signed-in user. It must run after requireAuth.
func (h *Handler) rateLimit(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if h.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		info, ok, err := h.limiter.Allow(r.Context(), "user:"+mustUser(r).ID)
		if err != nil {
			h.log.Warn().Err(err).Msg("rate limiter unavailable, request allowed")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
		if !ok {
			writeJSON(w, stdhttp.StatusTooManyRequests, map[string]any{
				"error":         "rate limit exceeded",
				"rateLimitInfo": info,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) logRequests(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
