package reaction

import (
	"github.com/google/uuid"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

// Toggle applies one reaction click by user to rs and returns the new set.
// Clicking the type the user already chose removes it; any other type replaces
// the user's previous reaction. rs is not modified.
func Toggle(rs []model.Reaction, user model.User, t model.ReactionType) []model.Reaction {
	out := make([]model.Reaction, 0, len(rs)+1)
	same := false
	for _, r := range rs {
		if r.UserID == user.ID {
			same = same || r.Type == t
			continue
		}
		out = append(out, r)
	}
	if same {
		return out
	}

	return append(out, model.Reaction{
		ID:     uuid.NewString(),
		Type:   t,
		UserID: user.ID,
		User:   &model.User{ID: user.ID, Name: user.Name},
	})
}

// UserReaction returns the type userID reacted with, if any.
func UserReaction(rs []model.Reaction, userID string) (model.ReactionType, bool) {
	for _, r := range rs {
		if r.UserID == userID {
			return r.Type, true
		}
	}
	return "", false
}

type Count struct {
	Type  model.ReactionType `json:"type"`
	Count int                `json:"count"`
}

// Summary counts reactions per type in display order, skipping unused types.
func Summary(rs []model.Reaction) []Count {
	n := make(map[model.ReactionType]int, len(model.ReactionTypes))
	for _, r := range rs {
		n[r.Type]++
	}

	out := make([]Count, 0, len(n))
	for _, t := range model.ReactionTypes {
		if n[t] > 0 {
			out = append(out, Count{Type: t, Count: n[t]})
		}
	}
	return out
}
