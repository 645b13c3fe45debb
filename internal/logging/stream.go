package logging

import (
	"context"
	"log/slog"
	"strings"
)

type streamHandler struct {
	next  slog.Handler
	bus   *EventBus
	attrs []slog.Attr // accumulated attrs from WithAttrs calls
}

func newStreamHandler(next slog.Handler, bus *EventBus) slog.Handler {
	if bus == nil || next == nil {
		return next
	}
	return &streamHandler{next: next, bus: bus}
}

func (h *streamHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle writes the record to the console first, then publishes it. The two
// steps are not atomic: records logged from different goroutines may reach
// the console and the bus in different orders. Each subscriber still sees
// records in publish order.
func (h *streamHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.next.Handle(ctx, record.Clone())
	h.bus.Publish(eventFromRecord(record, h.attrs))
	return err
}

func (h *streamHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &streamHandler{
		next:  h.next.WithAttrs(attrs),
		bus:   h.bus,
		attrs: merged,
	}
}

func (h *streamHandler) WithGroup(name string) slog.Handler {
	return &streamHandler{
		next:  h.next.WithGroup(name),
		bus:   h.bus,
		attrs: h.attrs,
	}
}

func eventFromRecord(record slog.Record, preAttrs []slog.Attr) LogEvent {
	event := LogEvent{
		Severity:  SeverityFromLevel(record.Level),
		Message:   strings.TrimSpace(record.Message),
		Timestamp: record.Time.UTC(),
	}

	process := func(attr slog.Attr) {
		key := strings.TrimSpace(attr.Key)
		if key == "" {
			return
		}
		switch key {
		case FieldComponent:
			event.Component = valueText(attr.Value)
		case FieldCorrelationID:
			event.CorrelationID = valueText(attr.Value)
		default:
			if event.Fields == nil {
				event.Fields = make(map[string]string)
			}
			event.Fields[key] = valueText(attr.Value)
		}
	}

	// Call-site attrs override logger attrs.
	for _, attr := range preAttrs {
		process(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		process(attr)
		return true
	})
	return event
}
