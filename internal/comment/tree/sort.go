package tree

import (
	"sort"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

// Sort orders top-level comments. Replies keep the order they arrived in.
// Popular ranks by raw reaction count, ties keep their current order.
func Sort(cs []model.Comment, mode model.Sort) []model.Comment {
	out := append([]model.Comment(nil), cs...)

	switch mode {
	case model.SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case model.SortPopular:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ReactionCount() > out[j].ReactionCount()
		})
	case model.SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}
