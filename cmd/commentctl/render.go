package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/reaction"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/thread"
)

func render(w io.Writer, sec *thread.Section, all bool) {
	p := sec.Pagination()
	fmt.Fprintf(w, "%s  page %d/%d  sort %s\n", sec.Heading(), p.Page, p.TotalPages, sec.SortOrder())
	for _, c := range sec.Comments() {
		renderNode(w, sec, c.ID, all)
	}
}

func renderNode(w io.Writer, sec *thread.Section, id string, all bool) {
	n, err := sec.Node(id)
	if err != nil {
		return
	}
	c, ok := n.Comment()
	if !ok {
		return
	}

	indent := strings.Repeat("  ", c.Depth)
	name := c.UserID
	if c.User != nil && c.User.Name != "" {
		name = c.User.Name
	}
	fmt.Fprintf(w, "%s- [%s] %s: %s%s\n", indent, c.ID, name, n.DisplayContent(), reactions(c.Reactions))

	if all {
		n.ShowAllReplies()
	}
	replies, hidden := n.VisibleReplies()
	for _, r := range replies {
		renderNode(w, sec, r.ID, all)
	}
	if hidden > 0 {
		fmt.Fprintf(w, "%s  show %d more\n", indent, hidden)
	}
}

func reactions(rs []model.Reaction) string {
	counts := reaction.Summary(rs)
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = fmt.Sprintf("%s %d", c.Type, c.Count)
	}
	return "  (" + strings.Join(parts, ", ") + ")"
}
