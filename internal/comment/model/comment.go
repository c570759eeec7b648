package model

import "time"

const (
	MaxDepth       = 5
	PageSize       = 20
	RepliesPreview = 3
	MaxContentLen  = 2000
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type Comment struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	UserID        string     `json:"userId"`
	User          *User      `json:"user,omitempty"`
	PostID        string     `json:"postId"`
	CommentID     string     `json:"commentId,omitempty"`
	ParentReplyID string     `json:"parentReplyId,omitempty"`
	Depth         int        `json:"depth"`
	Path          string     `json:"path,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	Reactions     []Reaction `json:"reactions"`
	Replies       []Comment  `json:"replies,omitempty"`

	// Deleting marks a node removed from view while its delete request is in flight.
	Deleting bool `json:"-"`
	// DeletionError is set after a failed delete and cleared by the next successful edit.
	DeletionError bool `json:"-"`
}

func (c Comment) IsTopLevel() bool {
	return c.Depth == 0 && c.CommentID == ""
}

func (c Comment) ReactionCount() int {
	return len(c.Reactions)
}

// Clone returns a deep copy of c including its reply subtree.
func (c Comment) Clone() Comment {
	out := c
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	if c.Reactions != nil {
		out.Reactions = append([]Reaction(nil), c.Reactions...)
	}
	if c.Replies != nil {
		out.Replies = make([]Comment, len(c.Replies))
		for i, r := range c.Replies {
			out.Replies[i] = r.Clone()
		}
	}
	return out
}
