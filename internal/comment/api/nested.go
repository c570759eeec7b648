package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

// DefaultNestedReplyEndpoints lists every route that historically created a
// reply to a reply, newest first.
var DefaultNestedReplyEndpoints = []string{
	"/api/create-nested-reply",
	"/api/nested-replies",
	"/api/nested-reply",
	"/api/simple-reply",
}

type NestedReplyRequest struct {
	Content       string `json:"content"`
	PostID        string `json:"postId"`
	CommentID     string `json:"commentId"`
	ParentReplyID string `json:"parentReplyId"`
}

// CreateNestedReply creates a reply under another reply. Endpoints are tried in
// order and an error is returned only when all of them fail; the error carries
// the last failure.
func (c *Client) CreateNestedReply(ctx context.Context, req NestedReplyRequest) (model.Comment, error) {
	var last error
	for i, ep := range c.nested {
		var out model.Comment
		err := c.do(ctx, http.MethodPost, ep, nil, req, &out)
		if err == nil {
			if i > 0 {
				c.log.Info().Str("endpoint", ep).Int("attempt", i+1).Msg("nested reply created via fallback endpoint")
			}
			return out, nil
		}
		if ctx.Err() != nil {
			return model.Comment{}, err
		}

		c.log.Warn().Err(err).Str("endpoint", ep).Msg("nested reply endpoint failed")
		last = err
	}
	return model.Comment{}, fmt.Errorf("create nested reply: all %d endpoints failed: %w", len(c.nested), last)
}
