package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/koki-develop/go-fzf"

	apperr "github.com/jh3/tabsnap/internal/errors"
	"github.com/jh3/tabsnap/internal/host"
)

// FindFunc picks one of items, returning -1 when the user gives up.
type FindFunc func(ctx context.Context, title string, items []host.Item) (int, error)

// fzfFind presents an interactive fuzzy finder
func fzfFind(ctx context.Context, title string, items []host.Item) (int, error) {
	if ctx.Err() != nil {
		return -1, apperr.Cancelled("ui.Pick")
	}
	f, err := fzf.New(
		fzf.WithPrompt(title+" > "),
		fzf.WithInputPosition(fzf.InputPositionTop),
		fzf.WithLimit(1),
	)
	if err != nil {
		return -1, err
	}

	idxs, err := f.Find(
		items,
		func(i int) string {
			return formatItemLine(items[i])
		},
		fzf.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 || i >= len(items) {
				return ""
			}
			return formatItemPreview(items[i])
		}),
	)
	if errors.Is(err, fzf.ErrAbort) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	if len(idxs) == 0 {
		return -1, nil // User cancelled
	}
	return idxs[0], nil
}

func formatItemLine(it host.Item) string {
	if it.Description == "" {
		return it.Label
	}
	return it.Label + "  " + it.Description
}

func formatItemPreview(it host.Item) string {
	var b strings.Builder
	b.WriteString(it.Label)
	b.WriteString("\n")
	if it.Description != "" {
		b.WriteString(it.Description)
		b.WriteString("\n")
	}
	if it.Detail != "" {
		b.WriteString("\n")
		b.WriteString(it.Detail)
		b.WriteString("\n")
	}
	return b.String()
}
