// Package composer holds the text of a comment being written and delivers it
// to a submit callback. It knows nothing about where the text goes.
package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

var (
	ErrEmpty      = errors.New("comment is empty")
	ErrTooLong    = fmt.Errorf("comment exceeds %d characters", model.MaxContentLen)
	ErrSubmitting = errors.New("submission already in progress")
)

type SubmitFunc func(ctx context.Context, text string) error

// Composer is a text buffer with a cursor measured in runes.
type Composer struct {
	submit SubmitFunc

	mu         sync.Mutex
	text       []rune
	cursor     int
	submitting bool
}

func New(submit SubmitFunc) *Composer {
	return &Composer{submit: submit}
}

// NewWithText starts with text and the cursor at its end.
func NewWithText(submit SubmitFunc, text string) *Composer {
	c := New(submit)
	c.SetText(text)
	return c
}

func (c *Composer) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.text)
}

func (c *Composer) SetText(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = []rune(s)
	c.cursor = len(c.text)
}

func (c *Composer) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// SetCursor moves the cursor, clamped to the text bounds.
func (c *Composer) SetCursor(pos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = max(0, min(pos, len(c.text)))
}

// Insert puts s at the cursor and moves the cursor past it.
func (c *Composer) Insert(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ins := []rune(s)
	text := make([]rune, 0, len(c.text)+len(ins))
	text = append(text, c.text[:c.cursor]...)
	text = append(text, ins...)
	text = append(text, c.text[c.cursor:]...)
	c.text = text
	c.cursor += len(ins)
}

func (c *Composer) InsertEmoji(emoji string) {
	c.Insert(emoji)
}

func (c *Composer) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = nil
	c.cursor = 0
}

func (c *Composer) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Validate returns the trimmed text that Submit would send.
func Validate(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmpty
	}
	if utf8.RuneCountInString(trimmed) > model.MaxContentLen {
		return "", ErrTooLong
	}
	return trimmed, nil
}

// Submit sends the trimmed text. The buffer is cleared on success and kept on
// failure so the user can retry.
func (c *Composer) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitting
	}
	text, err := Validate(string(c.text))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.submitting = true
	c.mu.Unlock()

	err = c.submit(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false
	if err != nil {
		return err
	}
	c.text = nil
	c.cursor = 0
	return nil
}
