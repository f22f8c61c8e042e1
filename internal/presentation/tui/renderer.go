package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Width 0 keeps glamour's default word wrap.
func NewRenderer(width int) (func(string) (string, error), error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// NewPlainRenderer renders without colors, for pipes and files.
func NewPlainRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("notty"))
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
