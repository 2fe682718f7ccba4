// Package report collects and prints best-effort content warnings in
// golangci-lint style.
package report

import (
	"fmt"
	"strings"
)

// Origins identify the component that raised a warning
const (
	OriginClassName = "classname"
	OriginCompiler  = "compiler"
	OriginBoundary  = "boundary"
	OriginRender    = "render"
)

// Severity constants
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Warning is a content problem that did not stop processing.
type Warning struct {
	File     string `json:"file"`
	Line     int    `json:"line"`   // 1-based, 0 when unknown
	Column   int    `json:"column"` // 1-based, 0 when unknown
	Message  string `json:"message"`
	Origin   string `json:"origin"`
	Severity string `json:"severity"`
	Source   string `json:"source,omitempty"` // offending source line
}

// New creates a warning without position.
func New(origin, file, format string, args ...any) Warning {
	return Warning{
		File:     file,
		Message:  fmt.Sprintf(format, args...),
		Origin:   origin,
		Severity: SeverityWarning,
	}
}

// At returns a copy of w positioned at the byte offset in src, with the
// matching source line attached.
func (w Warning) At(src []byte, offset int) Warning {
	if offset < 0 || offset > len(src) {
		return w
	}
	line := 1 + strings.Count(string(src[:offset]), "\n")
	lineStart := strings.LastIndexByte(string(src[:offset]), '\n') + 1
	lineEnd := len(src)
	if i := strings.IndexByte(string(src[offset:]), '\n'); i >= 0 {
		lineEnd = offset + i
	}
	w.Line = line
	w.Column = offset - lineStart + 1
	w.Source = string(src[lineStart:lineEnd])
	return w
}

func (w Warning) String() string {
	if w.File == "" {
		return w.Message
	}
	if w.Line == 0 {
		return fmt.Sprintf("%s: %s", w.File, w.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", w.File, w.Line, w.Column, w.Message)
}
