package diagnostics

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[1;31m"
	colorBold  = "\033[1m"
	colorDim   = "\033[2m"
)

// Formatter renders diagnostics for humans, optionally with ANSI colour and
// a source excerpt.
type Formatter struct {
	Color  bool
	Source string
}

// NewTerminalFormatter enables colour only when f is a terminal and NO_COLOR
// is not set.
func NewTerminalFormatter(f *os.File, source string) *Formatter {
	return &Formatter{Color: UseColor(f), Source: source}
}

func UseColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (f *Formatter) paint(color, s string) string {
	if !f.Color {
		return s
	}
	return color + s + colorReset
}

// Format renders err. Errors that are not diagnostics are printed as-is.
func (f *Formatter) Format(err error) string {
	de, ok := As(err)
	if !ok {
		return f.paint(colorRed, "error: ") + err.Error()
	}

	var sb strings.Builder
	loc := de.File
	if de.Token.Line > 0 {
		if loc != "" {
			loc += ":"
		}
		loc += fmt.Sprintf("%d:%d", de.Token.Line, de.Token.Column)
	}
	if loc != "" {
		sb.WriteString(f.paint(colorBold, loc+": "))
	}
	sb.WriteString(f.paint(colorRed, fmt.Sprintf("%s[%s]: ", de.Stage, de.Code)))
	sb.WriteString(de.Message)

	if line, ok := sourceLine(f.Source, de.Token.Line); ok {
		sb.WriteString("\n")
		gutter := fmt.Sprintf("%4d | ", de.Token.Line)
		sb.WriteString(f.paint(colorDim, gutter))
		sb.WriteString(line)
		if de.Token.Column > 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", len(gutter)+de.Token.Column-1))
			sb.WriteString(f.paint(colorRed, "^"))
		}
	}
	return sb.String()
}

func sourceLine(source string, line int) (string, bool) {
	if source == "" || line <= 0 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}
