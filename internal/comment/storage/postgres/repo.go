package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/storage"
)

const commentColumns = `id, post_id, parent_id, root_id, depth, user_id, user_name, user_image, content, created_at, updated_at`

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

type nodePtr struct {
	c        model.Comment
	parentID string
	children []*nodePtr
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (model.Comment, string, error) {
	var (
		c         model.Comment
		parentID  sql.NullString
		rootID    sql.NullString
		user      model.User
		updatedAt sql.NullTime
	)
	err := s.Scan(&c.ID, &c.PostID, &parentID, &rootID, &c.Depth,
		&user.ID, &user.Name, &user.Image, &c.Content, &c.CreatedAt, &updatedAt)
	if err != nil {
		return model.Comment{}, "", err
	}

	c.UserID = user.ID
	c.User = &user
	c.CommentID = rootID.String
	if c.Depth > 1 {
		c.ParentReplyID = parentID.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		c.UpdatedAt = &t
	}
	c.Reactions = []model.Reaction{}
	return c, parentID.String, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM comments WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) Get(ctx context.Context, id string) (model.Comment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id=$1`, id)
	c, _, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Comment{}, err
	}

	byID := map[string]*model.Comment{c.ID: &c}
	if err := r.loadReactions(ctx, byID); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

func (r *Repo) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var user model.User
	if c.User != nil {
		user = *c.User
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO comments(id, post_id, parent_id, root_id, depth, user_id, user_name, user_image, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+commentColumns,
		c.ID, c.PostID, nullable(storage.ParentOf(c)), nullable(c.CommentID), c.Depth,
		c.UserID, user.Name, user.Image, c.Content)

	out, _, err := scanComment(row)
	if err != nil {
		return model.Comment{}, err
	}
	return out, nil
}

func (r *Repo) UpdateContent(ctx context.Context, id, content string) (model.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE comments SET content=$2, updated_at=now()
		WHERE id=$1
		RETURNING `+commentColumns, id, content)

	c, _, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Comment{}, err
	}

	byID := map[string]*model.Comment{c.ID: &c}
	if err := r.loadReactions(ctx, byID); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

func (r *Repo) ListTopLevel(ctx context.Context, p storage.ListParams) ([]model.Comment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM comments WHERE post_id=$1 AND parent_id IS NULL`, p.PostID).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := `c.created_at DESC`
	switch p.Sort {
	case model.SortOldest:
		orderBy = `c.created_at ASC`
	case model.SortPopular:
		orderBy = `(SELECT count(*) FROM comment_reactions cr WHERE cr.comment_id = c.id) DESC, c.created_at DESC`
	}
	offset := (p.Page - 1) * p.Limit

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.id
		FROM comments c
		WHERE c.post_id=$1 AND c.parent_id IS NULL
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, orderBy), p.PostID, p.Limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		roots = append(roots, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(roots) == 0 {
		return []model.Comment{}, total, nil
	}

	treeRows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE t AS (
			SELECT `+commentColumns+`
			FROM comments
			WHERE id = ANY($1)

			UNION ALL

			SELECT c.id, c.post_id, c.parent_id, c.root_id, c.depth, c.user_id, c.user_name,
				c.user_image, c.content, c.created_at, c.updated_at
			FROM comments c
			JOIN t ON c.parent_id = t.id
		)
		SELECT `+commentColumns+`
		FROM t
	`, roots)
	if err != nil {
		return nil, 0, err
	}
	defer treeRows.Close()

	nodes := make(map[string]*nodePtr, 256)
	for treeRows.Next() {
		c, parentID, err := scanComment(treeRows)
		if err != nil {
			return nil, 0, err
		}
		nodes[c.ID] = &nodePtr{c: c, parentID: parentID}
	}
	if err := treeRows.Err(); err != nil {
		return nil, 0, err
	}

	byID := make(map[string]*model.Comment, len(nodes))
	for id, n := range nodes {
		byID[id] = &n.c
	}
	if err := r.loadReactions(ctx, byID); err != nil {
		return nil, 0, err
	}

	for _, n := range nodes {
		if p, ok := nodes[n.parentID]; ok && n.parentID != "" {
			p.children = append(p.children, n)
		}
	}

	items := make([]model.Comment, 0, len(roots))
	for _, rid := range roots {
		n, ok := nodes[rid]
		if !ok {
			continue
		}
		c := n.c
		c.Replies = flatten(n, make([]model.Comment, 0))
		items = append(items, c)
	}
	return items, total, nil
}

// flatten appends the descendants of n in pre-order, oldest sibling first.
func flatten(n *nodePtr, dst []model.Comment) []model.Comment {
	sort.Slice(n.children, func(i, j int) bool {
		a, b := n.children[i].c, n.children[j].c
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	for _, ch := range n.children {
		dst = append(dst, ch.c)
		dst = flatten(ch, dst)
	}
	return dst
}

func (r *Repo) loadReactions(ctx context.Context, byID map[string]*model.Comment) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, comment_id, user_id, user_name, type
		FROM comment_reactions
		WHERE comment_id = ANY($1)
		ORDER BY created_at, id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rc        model.Reaction
			commentID string
			name      string
		)
		if err := rows.Scan(&rc.ID, &commentID, &rc.UserID, &name, &rc.Type); err != nil {
			return err
		}
		rc.User = &model.User{ID: rc.UserID, Name: name}
		if c, ok := byID[commentID]; ok {
			c.Reactions = append(c.Reactions, rc)
		}
	}
	return rows.Err()
}

func (r *Repo) DeleteSubtree(ctx context.Context, id string) (int, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE t AS (
			SELECT id FROM comments WHERE id=$1
			UNION ALL
			SELECT c.id FROM comments c JOIN t ON c.parent_id = t.id
		)
		DELETE FROM comments
		WHERE id IN (SELECT id FROM t)
		RETURNING id
	`, id)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	deleted := 0
	for rows.Next() {
		deleted++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *Repo) GetPath(ctx context.Context, id string) ([]model.PathItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		WITH RECURSIVE p AS (
			SELECT id, parent_id, content, depth
			FROM comments
			WHERE id = $1
			UNION ALL
			SELECT c.id, c.parent_id, c.content, c.depth
			FROM comments c
			JOIN p ON c.id = p.parent_id
		)
		SELECT id, parent_id, content, depth
		FROM p
		ORDER BY depth
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PathItem
	for rows.Next() {
		var (
			it       model.PathItem
			parentID sql.NullString
		)
		if err := rows.Scan(&it.ID, &parentID, &it.Content, &it.Depth); err != nil {
			return nil, err
		}
		if it.Depth > 1 {
			it.ParentReplyID = parentID.String
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, storage.ErrNotFound
	}
	return items, nil
}

// ToggleReaction applies one reaction click inside a transaction. The unique
// (comment_id, user_id) constraint keeps one reaction per user.
func (r *Repo) ToggleReaction(ctx context.Context, id string, user model.User, typ model.ReactionType) ([]model.Reaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM comments WHERE id=$1 FOR UPDATE`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT type FROM comment_reactions WHERE comment_id=$1 AND user_id=$2`, id, user.ID).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = ""
	case err != nil:
		return nil, err
	}

	if model.ReactionType(current) == typ {
		_, err = tx.ExecContext(ctx, `DELETE FROM comment_reactions WHERE comment_id=$1 AND user_id=$2`, id, user.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO comment_reactions(id, comment_id, user_id, user_name, type, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (comment_id, user_id)
			DO UPDATE SET type = EXCLUDED.type, created_at = EXCLUDED.created_at
		`, uuid.NewString(), id, user.ID, user.Name, string(typ), time.Now().UTC())
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, user_id, user_name, type
		FROM comment_reactions
		WHERE comment_id=$1
		ORDER BY created_at, id
	`, id)
	if err != nil {
		return nil, err
	}
	out := []model.Reaction{}
	for rows.Next() {
		var (
			rc   model.Reaction
			name string
		)
		if err := rows.Scan(&rc.ID, &rc.UserID, &name, &rc.Type); err != nil {
			rows.Close()
			return nil, err
		}
		rc.User = &model.User{ID: rc.UserID, Name: name}
		out = append(out, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}
