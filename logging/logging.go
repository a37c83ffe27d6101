// Package logging wires slog up for the hydrus binaries.
//
// The handler prints one indented JSON object per record. That is slower
// than slog's built-in JSON handler but much easier to read when tailing a
// terminal, and nothing on a hot path logs.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Handler is a slog.Handler emitting indented JSON, one object per record.
type Handler struct {
	w         io.Writer
	mu        *sync.Mutex // shared across WithAttrs/WithGroup clones
	level     slog.Leveler
	addSource bool

	attrs  []attrEntry
	groups []string
}

// attrEntry pins an attr to the group path that was open when it was added,
// so attrs from before a WithGroup stay at their original nesting.
type attrEntry struct {
	groups []string
	attr   slog.Attr
}

// NewHandler builds a Handler. A nil opts means info level, no source.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	h := &Handler{
		w:     w,
		mu:    &sync.Mutex{},
		level: slog.LevelInfo,
	}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.addSource = opts.AddSource
	}
	return h
}

// Setup installs the handler as the process default logger. Level accepts
// the slog names: debug, info, warn, error.
func Setup(w io.Writer, level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("parsing log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(NewHandler(w, &slog.HandlerOptions{Level: l})))
	return nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	payload := make(map[string]any, 4+r.NumAttrs())

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	payload["time"] = when.Format(time.RFC3339Nano)
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message
	if h.addSource {
		payload["source"] = sourceFromPC(r.PC)
	}

	for _, e := range h.attrs {
		addAttr(payload, e.groups, e.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(payload, h.groups, a)
		return true
	})

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		// Never drop a log line over an unmarshalable attr.
		b = []byte(`{"level":` + strconv.Quote(r.Level.String()) + `,"msg":` + strconv.Quote(r.Message) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]attrEntry(nil), h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, attrEntry{groups: h.groups, attr: a})
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// addAttr places one attr into the payload under the given group path.
func addAttr(root map[string]any, groups []string, attr slog.Attr) {
	dst := root
	for _, g := range groups {
		m, ok := dst[g].(map[string]any)
		if !ok {
			m = map[string]any{}
			dst[g] = m
		}
		dst = m
	}
	flattenAttr(dst, attr)
}

func flattenAttr(dst map[string]any, attr slog.Attr) {
	v := attr.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		child := map[string]any{}
		for _, ga := range v.Group() {
			if ga.Key != "" {
				flattenAttr(child, ga)
			}
		}
		dst[attr.Key] = child
		return
	}
	dst[attr.Key] = valueToAny(v)
}

func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		return v.Any()
	default:
		return v.String()
	}
}

func sourceFromPC(pc uintptr) string {
	if pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}
	return file + ":" + strconv.Itoa(f.Line)
}
