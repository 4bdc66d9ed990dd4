package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/opal-lang/monitext/core/errors"
	"github.com/opal-lang/monitext/runtime/parser"
)

// styles renders diagnostics, falling back to plain text without color.
type styles struct {
	color bool

	errorLabel lipgloss.Style
	warnLabel  lipgloss.Style
	hint       lipgloss.Style
	dim        lipgloss.Style
	name       lipgloss.Style
	ok         lipgloss.Style
}

func newStyles(color bool) styles {
	return styles{
		color:      color,
		errorLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warnLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		hint:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		name:       lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		ok:         lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

// shouldUseColor respects --no-color, NO_COLOR and whether w is a terminal.
func shouldUseColor(noColorFlag bool, w io.Writer) bool {
	if noColorFlag || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// templateError ties a compile failure to the template it came from so the
// report can quote the offending line.
type templateError struct {
	source    string
	template  string
	startLine int
	err       error
}

func (e *templateError) Error() string {
	return fmt.Sprintf("%s: %v", e.source, e.err)
}

func (e *templateError) Unwrap() error {
	return e.err
}

// FormatError writes err for humans. Compile failures include a snippet of
// the offending line.
func FormatError(w io.Writer, err error, st styles) {
	if err == nil {
		return
	}

	var te *templateError
	if stderrors.As(err, &te) {
		_, _ = fmt.Fprintf(w, "%s %s\n", st.render(st.errorLabel, "error:"), te.Error())
		if snippet := parser.Snippet(te.template, te.startLine, errors.LineOf(te.err), errors.ColumnOf(te.err)); snippet != "" {
			_, _ = fmt.Fprintf(w, "%s\n", st.render(st.dim, snippet))
		}
		return
	}
	_, _ = fmt.Fprintf(w, "%s %v\n", st.render(st.errorLabel, "error:"), err)
}

// printWarnings reports non-fatal compile diagnostics.
func printWarnings(w io.Writer, source string, warnings []parser.Warning, st styles) {
	for _, warning := range warnings {
		_, _ = fmt.Fprintf(w, "%s %s:%d: %s\n",
			st.render(st.warnLabel, "warning:"), source, warning.Line, warning.Message)
		if warning.Suggestion != "" {
			_, _ = fmt.Fprintf(w, "  %s %s\n", st.render(st.hint, "hint:"), warning.Suggestion)
		}
	}
}
