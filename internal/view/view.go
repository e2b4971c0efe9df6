// Package view renders the repository detail view onto a host UI surface.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/naka-gawa/repo-details/internal/domain"
)

// Detail is one frame of the detail view.
type Detail struct {
	IsLoading bool
	Markdown  string
}

// ToastStyle is the severity of a toast.
type ToastStyle string

const (
	ToastSuccess  ToastStyle = "success"
	ToastFailure  ToastStyle = "failure"
	ToastAnimated ToastStyle = "animated"
)

// Toast is a transient, non-blocking notification.
type Toast struct {
	Style   ToastStyle
	Title   string
	Message string
}

var toastIcons = map[ToastStyle]string{
	ToastSuccess:  "✔",
	ToastFailure:  "✖",
	ToastAnimated: "…",
}

// Host is the UI surface the view draws on.
type Host interface {
	Detail(d Detail)
	ShowToast(t Toast)
}

// RenderMarkdown builds the detail markdown for s. The description paragraph
// is left out when the repository has none.
func RenderMarkdown(s *domain.RepoSummary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	if desc := s.GetDescription(); desc != "" {
		fmt.Fprintf(&b, "%s\n\n", desc)
	}
	fmt.Fprintf(&b, "- 👀 %d\n", s.SubscribersCount)
	fmt.Fprintf(&b, "- ✨ %d\n", s.StargazersCount)
	fmt.Fprintf(&b, "- 🍴 %d\n", s.ForksCount)
	return b.String()
}

// TerminalHost draws the view on a terminal: markdown goes to Out, loading
// indicators and toasts go to Err. A frame whose markdown matches the last
// printed one is not printed again.
type TerminalHost struct {
	Out io.Writer
	Err io.Writer

	last string
}

// NewTerminalHost creates a TerminalHost.
func NewTerminalHost(out, errOut io.Writer) *TerminalHost {
	return &TerminalHost{Out: out, Err: errOut}
}

func (h *TerminalHost) Detail(d Detail) {
	if d.IsLoading {
		fmt.Fprintln(h.Err, "⏳ Loading…")
	}
	if d.Markdown == "" || d.Markdown == h.last {
		return
	}
	if h.last != "" {
		fmt.Fprintln(h.Err, "↻ Updated")
	}
	h.last = d.Markdown
	fmt.Fprint(h.Out, d.Markdown)
}

func (h *TerminalHost) ShowToast(t Toast) {
	icon := toastIcons[t.Style]
	if t.Message != "" {
		fmt.Fprintf(h.Err, "%s %s: %s\n", icon, t.Title, t.Message)
		return
	}
	fmt.Fprintf(h.Err, "%s %s\n", icon, t.Title)
}
