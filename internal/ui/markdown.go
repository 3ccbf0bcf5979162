package ui

import "github.com/charmbracelet/glamour"

// MarkdownRenderer renders markdown source into styled terminal output.
type MarkdownRenderer interface {
	Render(source string) (string, error)
}

type glamourRenderer struct {
	tr *glamour.TermRenderer
}

// NewMarkdownRenderer builds a glamour renderer that adapts to the
// terminal's light/dark background and wraps at the given width.
func NewMarkdownRenderer(width int) (MarkdownRenderer, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &glamourRenderer{tr: tr}, nil
}

func (g *glamourRenderer) Render(source string) (string, error) {
	return g.tr.Render(source)
}

// PlainRenderer passes text through untouched. Used when stdout is not a
// terminal, and in tests.
type PlainRenderer struct{}

func (PlainRenderer) Render(source string) (string, error) {
	return source, nil
}
