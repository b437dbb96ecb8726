// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorMode controls colors of the console handler.
type ColorMode string

const (
	// ColorAuto colors output written to a terminal that supports it.
	ColorAuto ColorMode = "auto"
	// ColorAlways colors output regardless of the writer.
	ColorAlways ColorMode = "always"
	// ColorNever writes plain text.
	ColorNever ColorMode = "never"
)

// consoleStyles are rendered with 16-color ANSI sequences; the output
// writer downsamples or strips them for the terminal it writes to.
type consoleStyles struct {
	time    lipgloss.Style
	message lipgloss.Style
	key     lipgloss.Style
	source  lipgloss.Style
	levels  [4]lipgloss.Style // debug, info, warn, error
}

var styles = sync.OnceValue(func() *consoleStyles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	level := func(color string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Width(5)
	}
	return &consoleStyles{
		time:    r.NewStyle().Faint(true),
		message: r.NewStyle().Foreground(lipgloss.Color("15")),
		key:     r.NewStyle().Foreground(lipgloss.Color("6")),
		source:  r.NewStyle().Foreground(lipgloss.Color("8")),
		levels:  [4]lipgloss.Style{level("4"), level("2"), level("3"), level("1")},
	}
})

func (s *consoleStyles) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return s.levels[3]
	case l >= slog.LevelWarn:
		return s.levels[2]
	case l >= slog.LevelInfo:
		return s.levels[1]
	default:
		return s.levels[0]
	}
}

// consoleOutput serializes writes of a handler and the handlers derived
// from it.
type consoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsoleOutput(w io.Writer, mode ColorMode) *consoleOutput {
	cw := colorprofile.NewWriter(w, os.Environ())
	switch mode {
	case ColorAlways:
		cw.Profile = colorprofile.ANSI
	case ColorNever:
		cw.Profile = colorprofile.NoTTY
	}
	return &consoleOutput{w: cw}
}

// consoleHandler implements [slog.Handler] for human-readable output:
//
//	15:04:05.000 WARN  binding ambiguous host=blog.example.com kind=module
//
// Group names prefix attribute keys with dots.
type consoleHandler struct {
	opts   *slog.HandlerOptions
	out    *consoleOutput
	attrs  []groupedAttr
	groups []string
}

type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

func newConsoleHandler(w io.Writer, mode ColorMode, opts *slog.HandlerOptions) *consoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &consoleHandler{opts: opts, out: newConsoleOutput(w, mode)}
}

// Enabled reports whether the handler handles records at the given level.
func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.opts.Level == nil {
		return level >= slog.LevelInfo
	}
	return level >= h.opts.Level.Level()
}

// Handle formats and writes a log record.
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	s := styles()

	var b strings.Builder
	b.WriteString(s.time.Render(r.Time.Format("15:04:05.000")))
	b.WriteByte(' ')
	b.WriteString(s.level(r.Level).Render(r.Level.String()))
	b.WriteByte(' ')
	b.WriteString(s.message.Render(r.Message))

	for _, ga := range h.attrs {
		h.appendAttr(&b, ga.prefix, ga.attr)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, prefix, a)
		return true
	})

	if h.opts.AddSource && r.PC != 0 {
		if src := recordSource(r.PC); src != "" {
			b.WriteByte(' ')
			b.WriteString(s.source.Render("(" + src + ")"))
		}
	}
	b.WriteByte('\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := io.WriteString(h.out.w, b.String())
	return err
}

// WithAttrs returns a handler with additional attributes. Their keys are
// resolved against the current groups.
func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	out.attrs = append(out.attrs, h.attrs...)
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		out.attrs = append(out.attrs, groupedAttr{prefix: prefix, attr: a})
	}
	return &out
}

// WithGroup returns a handler with a group name.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := *h
	out.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &out
}

func (h *consoleHandler) appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() != slog.KindGroup && h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(h.groups, a)
		a.Value = a.Value.Resolve()
	}
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	switch {
	case prefix == "":
	case key == "":
		key = prefix
	default:
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, key, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(styles().key.Render(key + "="))
	b.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 2, 64)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	}
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v.Any())
}

// recordSource returns "file:line" for a pc.
func recordSource(pc uintptr) string {
	fs := runtime.CallersFrames([]uintptr{pc})
	f, _ := fs.Next()
	if f.File == "" {
		return ""
	}
	return filepath.Base(f.File) + ":" + strconv.Itoa(f.Line)
}
