// Package cache wraps a storage.Repository with a redis read-through cache of
// comment pages. Every write bumps a per-post version so stale pages are never
// served; old entries simply expire.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage"
)

const keyPrefix = "commenttree"

type Repo struct {
	storage.Repository

	rdb redis.UniversalClient
	ttl time.Duration
	log zerolog.Logger
}

func New(inner storage.Repository, rdb redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *Repo {
	return &Repo{Repository: inner, rdb: rdb, ttl: ttl, log: log}
}

type cachedPage struct {
	Items []model.Comment `json:"items"`
	Total int             `json:"total"`
}

func versionKey(postID string) string {
	return fmt.Sprintf("%s:post:%s:ver", keyPrefix, postID)
}

func pageKey(p storage.ListParams, version int64) string {
	return fmt.Sprintf("%s:post:%s:v%d:page:%d:%d:%s", keyPrefix, p.PostID, version, p.Page, p.Limit, p.Sort)
}

func (r *Repo) version(ctx context.Context, postID string) (int64, error) {
	v, err := r.rdb.Get(ctx, versionKey(postID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// ListTopLevel serves from redis when possible. Redis failures fall back to the
// underlying repository.
func (r *Repo) ListTopLevel(ctx context.Context, p storage.ListParams) ([]model.Comment, int, error) {
	ver, err := r.version(ctx, p.PostID)
	if err != nil {
		r.log.Warn().Err(err).Str("post_id", p.PostID).Msg("cache version lookup failed")
		return r.Repository.ListTopLevel(ctx, p)
	}
	key := pageKey(p, ver)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cp cachedPage
		if jerr := json.Unmarshal(raw, &cp); jerr == nil {
			return cp.Items, cp.Total, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	items, total, err := r.Repository.ListTopLevel(ctx, p)
	if err != nil {
		return nil, 0, err
	}

	if b, jerr := json.Marshal(cachedPage{Items: items, Total: total}); jerr == nil {
		if serr := r.rdb.Set(ctx, key, b, r.ttl).Err(); serr != nil {
			r.log.Warn().Err(serr).Str("key", key).Msg("cache write failed")
		}
	}
	return items, total, nil
}

func (r *Repo) invalidate(ctx context.Context, postID string) {
	if postID == "" {
		return
	}
	if err := r.rdb.Incr(ctx, versionKey(postID)).Err(); err != nil {
		r.log.Warn().Err(err).Str("post_id", postID).Msg("cache invalidation failed")
	}
}

func (r *Repo) postOf(ctx context.Context, id string) string {
	c, err := r.Repository.Get(ctx, id)
	if err != nil {
		return ""
	}
	return c.PostID
}

func (r *Repo) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	out, err := r.Repository.Create(ctx, c)
	if err == nil {
		r.invalidate(ctx, out.PostID)
	}
	return out, err
}

func (r *Repo) UpdateContent(ctx context.Context, id, content string) (model.Comment, error) {
	out, err := r.Repository.UpdateContent(ctx, id, content)
	if err == nil {
		r.invalidate(ctx, out.PostID)
	}
	return out, err
}

func (r *Repo) DeleteSubtree(ctx context.Context, id string) (int, error) {
	postID := r.postOf(ctx, id)
	n, err := r.Repository.DeleteSubtree(ctx, id)
	if err == nil && n > 0 {
		r.invalidate(ctx, postID)
	}
	return n, err
}

func (r *Repo) ToggleReaction(ctx context.Context, id string, user model.User, typ model.ReactionType) ([]model.Reaction, error) {
	out, err := r.Repository.ToggleReaction(ctx, id, user, typ)
	if err == nil {
		r.invalidate(ctx, r.postOf(ctx, id))
	}
	return out, err
}
