package model

type PathItem struct {
	ID            string `json:"id"`
	ParentReplyID string `json:"parentReplyId,omitempty"`
	Content       string `json:"content"`
	Depth         int    `json:"depth"`
}
