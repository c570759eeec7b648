// Package api is the HTTP client for the comment endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

const maxErrorBody = 1 << 20

var errContextDone = errors.New("request context done")

type TokenSource interface {
	Token() string
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	// NestedReplyEndpoints are tried in order. A single entry disables the fallback chain.
	NestedReplyEndpoints []string
	Retry                retry.Strategy
	Logger               zerolog.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	nested  []string
	retry   retry.Strategy
	log     zerolog.Logger
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	nested := opts.NestedReplyEndpoints
	if len(nested) == 0 {
		nested = DefaultNestedReplyEndpoints
	}
	strategy := opts.Retry
	if strategy.Attempts < 1 {
		strategy.Attempts = 1
	}

	return &Client{
		baseURL: opts.BaseURL,
		http:    hc,
		tokens:  opts.Tokens,
		nested:  append([]string(nil), nested...),
		retry:   strategy,
		log:     opts.Logger,
	}
}

type contentRequest struct {
	Content string `json:"content"`
}

func postPath(postID string, rest ...string) string {
	p := "/api/posts/" + url.PathEscape(postID) + "/comments"
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

// ListComments fetches one page of top-level comments with their replies
// flattened inside each comment. Transient failures are retried.
func (c *Client) ListComments(ctx context.Context, postID string, page int, sort model.Sort) (model.CommentPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("sortBy", string(sort))

	var out model.CommentPage
	var last error
	err := retry.DoContext(ctx, c.retry, func() error {
		out = model.CommentPage{}
		last = c.do(ctx, http.MethodGet, postPath(postID), q, nil, &out)
		if last != nil && transient(last) {
			c.log.Warn().Err(last).Str("post_id", postID).Msg("list comments failed, retrying")
			return last
		}
		return nil
	})
	if err != nil {
		return model.CommentPage{}, err
	}
	if last != nil {
		return model.CommentPage{}, last
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, content string) (model.Comment, error) {
	var out model.Comment
	err := c.do(ctx, http.MethodPost, postPath(postID), nil, contentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) UpdateComment(ctx context.Context, postID, commentID, content string) (model.Comment, error) {
	var out model.Comment
	err := c.do(ctx, http.MethodPatch, postPath(postID, commentID), nil, contentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	return c.do(ctx, http.MethodDelete, postPath(postID, commentID), nil, nil, nil)
}

// CreateReply creates a direct reply to a top-level comment.
func (c *Client) CreateReply(ctx context.Context, postID, commentID, content string) (model.Comment, error) {
	var out model.Comment
	err := c.do(ctx, http.MethodPost, postPath(postID, commentID, "replies"), nil, contentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) UpdateNestedReply(ctx context.Context, postID, commentID, replyID, content string) (model.Comment, error) {
	q := url.Values{}
	q.Set("postId", postID)
	q.Set("commentId", commentID)
	q.Set("replyId", replyID)

	var out model.Comment
	err := c.do(ctx, http.MethodPatch, "/api/update-nested-reply", q, contentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) DeleteNestedReply(ctx context.Context, postID, replyID string) error {
	q := url.Values{}
	q.Set("postId", postID)
	q.Set("replyId", replyID)
	return c.do(ctx, http.MethodDelete, "/api/delete-nested-reply", q, nil, nil)
}

type ReactionRequest struct {
	Type      model.ReactionType `json:"type"`
	PostID    string             `json:"postId"`
	CommentID string             `json:"commentId,omitempty"`
	ReplyID   string             `json:"replyId,omitempty"`
}

type reactionResponse struct {
	Reactions []model.Reaction `json:"reactions"`
}

// React toggles the caller's reaction and returns the authoritative reaction set.
func (c *Client) React(ctx context.Context, req ReactionRequest) ([]model.Reaction, error) {
	var out reactionResponse
	if err := c.do(ctx, http.MethodPost, "/api/comment-reaction", nil, req, &out); err != nil {
		return nil, err
	}
	if out.Reactions == nil {
		out.Reactions = []model.Reaction{}
	}
	return out.Reactions, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := method + " " + path

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", endpoint, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", errContextDone, err)
		}
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeError(endpoint, res)
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &Error{Kind: KindUnknownServer, Status: res.StatusCode, Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeError(endpoint string, res *http.Response) error {
	e := &Error{
		Kind:     kindForStatus(res.StatusCode),
		Status:   res.StatusCode,
		Endpoint: endpoint,
		Message:  http.StatusText(res.StatusCode),
	}

	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	if len(raw) > 0 && json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			e.Message = body.Error
		}
		e.RateLimit = body.RateLimitInfo
	}
	return e
}
