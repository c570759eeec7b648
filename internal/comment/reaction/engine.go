// Package reaction implements single-choice reactions with optimistic updates.
package reaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/api"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/notify"
)

var ErrBusy = errors.New("reaction already in progress")

type Reactor interface {
	React(ctx context.Context, req api.ReactionRequest) ([]model.Reaction, error)
}

type Users interface {
	User() (model.User, error)
}

// Store holds the reaction sets the engine reads and replaces.
type Store interface {
	Reactions(id string) ([]model.Reaction, error)
	SetReactions(id string, rs []model.Reaction) error
}

// Target addresses a comment or a reply. TopLevelID is only used for replies.
type Target struct {
	ID         string
	PostID     string
	TopLevelID string
	Kind       model.Kind
}

func (t Target) request(typ model.ReactionType) api.ReactionRequest {
	req := api.ReactionRequest{Type: typ, PostID: t.PostID}
	if t.Kind == model.TopLevelComment {
		req.CommentID = t.ID
	} else {
		req.ReplyID = t.ID
		req.CommentID = t.TopLevelID
	}
	return req
}

type Engine struct {
	reactor  Reactor
	users    Users
	store    Store
	notifier notify.Notifier
	log      zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewEngine(reactor Reactor, users Users, store Store, n notify.Notifier, log zerolog.Logger) *Engine {
	return &Engine{
		reactor:  reactor,
		users:    users,
		store:    store,
		notifier: n,
		log:      log,
		inflight: make(map[string]struct{}),
	}
}

// React toggles the current user's reaction on target. The store is updated
// before the request and replaced by the server's set once it answers; a
// failed request restores the previous set.
func (e *Engine) React(ctx context.Context, target Target, typ model.ReactionType) ([]model.Reaction, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("react: unknown reaction type %q", typ)
	}

	user, err := e.users.User()
	if err != nil {
		e.notifier.Notify(notify.FromError(err))
		return nil, err
	}

	if !e.begin(target.ID) {
		return nil, ErrBusy
	}
	defer e.end(target.ID)

	before, err := e.store.Reactions(target.ID)
	if err != nil {
		return nil, fmt.Errorf("react: %w", err)
	}
	optimistic := Toggle(before, user, typ)
	if err := e.store.SetReactions(target.ID, optimistic); err != nil {
		return nil, fmt.Errorf("react: %w", err)
	}

	server, err := e.reactor.React(ctx, target.request(typ))
	if err != nil {
		if rerr := e.store.SetReactions(target.ID, before); rerr != nil {
			e.log.Warn().Err(rerr).Str("id", target.ID).Msg("reaction rollback skipped")
		}
		e.log.Error().Err(err).Str("id", target.ID).Str("type", string(typ)).Msg("reaction failed")
		e.notifier.Notify(notify.FromError(err))
		return before, err
	}

	if err := e.store.SetReactions(target.ID, server); err != nil {
		e.log.Warn().Err(err).Str("id", target.ID).Msg("reaction result dropped")
	}
	return server, nil
}

func (e *Engine) begin(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[id]; busy {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Engine) end(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}
