package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// Token keys resolved from a theme manifest.
const (
	TokenSuccessPrefix = "notify.success.prefix"
	TokenFailurePrefix = "notify.failure.prefix"
	TokenInfoPrefix    = "notify.info.prefix"
)

// Palette holds the prefixes a terminal notifier prints before each line.
type Palette struct {
	SuccessPrefix string
	FailurePrefix string
	InfoPrefix    string
}

// PlainPalette uses ASCII markers only.
func PlainPalette() Palette {
	return Palette{
		SuccessPrefix: "[ok]",
		FailurePrefix: "[error]",
		InfoPrefix:    "[info]",
	}
}

// DefaultManifest is the built-in terminal theme. The base tokens are plain
// ASCII; the "dark" variant switches to ANSI colours.
func DefaultManifest() *theme.Manifest {
	plain := PlainPalette()
	return &theme.Manifest{
		Name:    "creditform",
		Version: "1.0.0",
		Tokens: map[string]string{
			TokenSuccessPrefix: plain.SuccessPrefix,
			TokenFailurePrefix: plain.FailurePrefix,
			TokenInfoPrefix:    plain.InfoPrefix,
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					TokenSuccessPrefix: "\x1b[32m✔\x1b[0m",
					TokenFailurePrefix: "\x1b[31m✘\x1b[0m",
					TokenInfoPrefix:    "\x1b[36mℹ\x1b[0m",
				},
			},
		},
	}
}

// PaletteFromManifest resolves prefixes from the manifest tokens, letting
// the named variant override them. Missing tokens fall back to PlainPalette.
func PaletteFromManifest(manifest *theme.Manifest, variant string) Palette {
	palette := PlainPalette()
	if manifest == nil {
		return palette
	}
	tokens := make(map[string]string, len(manifest.Tokens))
	for k, v := range manifest.Tokens {
		tokens[k] = v
	}
	if v, ok := manifest.Variants[strings.TrimSpace(variant)]; ok {
		for k, val := range v.Tokens {
			tokens[k] = val
		}
	}
	if v := tokens[TokenSuccessPrefix]; v != "" {
		palette.SuccessPrefix = v
	}
	if v := tokens[TokenFailurePrefix]; v != "" {
		palette.FailurePrefix = v
	}
	if v := tokens[TokenInfoPrefix]; v != "" {
		palette.InfoPrefix = v
	}
	return palette
}

// Terminal prints notifications to a writer.
type Terminal struct {
	mu      sync.Mutex
	out     io.Writer
	palette Palette
}

// NewTerminal constructs a terminal notifier.
func NewTerminal(out io.Writer, palette Palette) *Terminal {
	return &Terminal{out: out, palette: palette}
}

// Notify prints the title line and an indented description.
func (t *Terminal) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prefix := t.palette.SuccessPrefix
	if n.Kind == KindFailure {
		prefix = t.palette.FailurePrefix
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.out, "%s %s\n", prefix, n.Title); err != nil {
		return fmt.Errorf("notify: write: %w", err)
	}
	if desc := strings.TrimSpace(n.Description); desc != "" {
		if _, err := fmt.Fprintf(t.out, "  %s\n", desc); err != nil {
			return fmt.Errorf("notify: write: %w", err)
		}
	}
	return nil
}

// Info prints a single informational line using the palette's info prefix.
func (t *Terminal) Info(msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, "%s %s\n", t.palette.InfoPrefix, msg)
	return err
}

// Palette returns the prefixes in use.
func (t *Terminal) Palette() Palette {
	return t.palette
}
