package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// creamStyle approximates the warm low-contrast palette used for readers with
// dyslexia.
var creamStyle = []byte(`{
  "document": {"color": "#3b2f2f", "background_color": "#fdf6e3", "margin": 2},
  "paragraph": {},
  "heading": {"color": "#5a3e1b", "bold": true, "block_suffix": "\n"},
  "h1": {"prefix": "# "},
  "h2": {"prefix": "## "},
  "h3": {"prefix": "### "},
  "strong": {"bold": true},
  "emph": {"italic": true},
  "link": {"color": "#8b4513", "underline": true},
  "link_text": {"color": "#8b4513", "bold": true},
  "code": {"color": "#6b4f2a"},
  "list": {"level_indent": 2},
  "item": {"block_prefix": "• "},
  "enumeration": {"block_prefix": ". "}
}`)

// Wrap widths per font size. Larger text means fewer columns per line.
var fontWidths = map[FontSize]int{
	FontSmall:  100,
	FontMedium: 80,
	FontLarge:  60,
}

// WrapWidth returns the word-wrap column for size, capped to the terminal
// width when it is known.
func WrapWidth(size FontSize, termWidth int) int {
	w, ok := fontWidths[size]
	if !ok {
		w = fontWidths[FontMedium]
	}
	if termWidth > 0 && termWidth-4 < w {
		w = termWidth - 4
	}
	if w < 20 {
		w = 20
	}
	return w
}

// TerminalWidth reports the width of fd, or 0 when fd is not a terminal.
func TerminalWidth(fd int) int {
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

// Renderer turns transcript messages into styled terminal output.
type Renderer struct {
	md *glamour.TermRenderer
}

// NewRenderer builds a renderer for the given theme and font size.
func NewRenderer(theme Theme, size FontSize, termWidth int) (*Renderer, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(WrapWidth(size, termWidth)),
		glamour.WithEmoji(),
	}
	switch theme {
	case ThemeDark:
		opts = append(opts, glamour.WithStandardStyle("dark"))
	case ThemeLight:
		opts = append(opts, glamour.WithStandardStyle("light"))
	default:
		opts = append(opts, glamour.WithStylesFromJSONBytes(creamStyle))
	}

	md, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	return &Renderer{md: md}, nil
}

// Render formats m. Bot HTML is converted to markdown first.
func (r *Renderer) Render(m Message) (string, error) {
	var src string
	if m.IsBot {
		src = ToMarkdown(m.Content)
	} else {
		src = "**You:** " + m.Content
	}
	out, err := r.md.Render(src)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
