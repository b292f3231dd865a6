package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown converts markdown to styled terminal output.
//
// One instance is shared between the UI loop, which re-renders history on
// resize, and the turn goroutine, which renders each streamed fragment, so a
// mutex serializes all renderer access: glamour's TermRenderer is not safe
// for concurrent use. A nil Markdown, or one whose renderer failed to
// initialize, degrades to plain text so the conversation stays readable on
// terminals glamour can't handle.
type Markdown struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdown creates a renderer wrapping at the given width.
func NewMarkdown(width int) *Markdown {
	if width <= 0 {
		width = 80
	}
	return &Markdown{renderer: newTermRenderer(width), width: width}
}

// newTermRenderer builds a glamour renderer, or nil when the terminal can't
// support one.
func newTermRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark terminal
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// UpdateWidth recreates the renderer if the width actually changed.
// Reports whether the renderer was replaced.
func (m *Markdown) UpdateWidth(width int) bool {
	if m == nil || width <= 0 {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.width == width {
		return false
	}
	r := newTermRenderer(width)
	if r == nil {
		// Keep the existing renderer.
		return false
	}
	m.renderer = r
	m.width = width
	return true
}

// Render converts markdown to styled terminal output, returning the input
// unchanged if rendering fails. Safe for concurrent use.
func (m *Markdown) Render(markdown string) string {
	if m == nil {
		return markdown
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renderer == nil {
		return markdown
	}
	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(rendered, "\n")
}
