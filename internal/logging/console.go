package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders one line per record:
//
//	2026-01-02T15:04:05Z warning [epsonscan] scan failed #1a2b3c4d scanner_id=ES-1 | impact="no document was scanned"
//
// The severity words match the JSON output and the event bus. Hint and impact
// fields trail the line after a bar so operators can spot them.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	addSource bool
	preset    []field
	prefix    string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := append([]field(nil), h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})

	var line consoleLine
	when := record.Time
	if when.IsZero() {
		when = time.Now()
	}
	line.word(when.UTC().Format(time.RFC3339))
	line.word(string(SeverityFromLevel(record.Level)))

	var component, correlation string
	var body, trailer []field
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			if component == "" {
				component = valueText(f.value)
			}
			continue
		case FieldCorrelationID:
			correlation = valueText(f.value)
			continue
		}
		switch f.key[strings.LastIndexByte(f.key, '.')+1:] {
		case FieldErrorHint, FieldImpact:
			trailer = append(trailer, f)
		default:
			body = append(body, f)
		}
	}

	if component != "" {
		line.word("[" + component + "]")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line.word(msg)
	if correlation != "" {
		line.word("#" + shortID(correlation))
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			line.word(fmt.Sprintf("(%s:%d)", filepath.Base(src.File), src.Line))
		}
	}
	line.fields(body)
	if len(trailer) > 0 {
		line.word("|")
		line.fields(trailer)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String()+"\n")
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = append([]field(nil), h.preset...)
	for _, attr := range attrs {
		next.preset = appendField(next.preset, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, child := range value.Group() {
			dst = appendField(dst, inner, child)
		}
		return dst
	}
	if attr.Key == "" {
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: value})
}

type consoleLine struct {
	strings.Builder
}

func (l *consoleLine) word(s string) {
	if l.Len() > 0 {
		l.WriteByte(' ')
	}
	l.WriteString(s)
}

func (l *consoleLine) fields(fields []field) {
	for _, f := range fields {
		text := valueText(f.value)
		if mustQuote(text) {
			text = strconv.Quote(text)
		}
		l.word(f.key + "=" + text)
	}
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// valueText renders a value without quoting. Errors render their message and
// times render as RFC 3339 in UTC.
func valueText(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func mustQuote(s string) bool {
	return s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"' || r == '|'
	})
}
