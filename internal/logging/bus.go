package logging

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Severity is the coarse level carried by a LogEvent.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Level maps the severity onto the slog level used to emit it.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SeverityFromLevel collapses a slog level into one of the four severities.
func SeverityFromLevel(level slog.Level) Severity {
	switch {
	case level >= slog.LevelError:
		return SeverityError
	case level >= slog.LevelWarn:
		return SeverityWarning
	case level >= slog.LevelInfo:
		return SeverityInfo
	default:
		return SeverityDebug
	}
}

// ParseSeverity accepts severity names case-insensitively, including "warn".
func ParseSeverity(value string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return SeverityDebug, true
	case "info":
		return SeverityInfo, true
	case "warn", "warning":
		return SeverityWarning, true
	case "error":
		return SeverityError, true
	default:
		return "", false
	}
}

// LogEvent is one log line as delivered to live subscribers.
type LogEvent struct {
	Severity      Severity          `json:"severity"`
	Message       string            `json:"message"`
	Timestamp     time.Time         `json:"ts"`
	Component     string            `json:"component,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// Subscription identifies a registered subscriber.
type Subscription uint64

type subscriber struct {
	id     Subscription
	fn     func(LogEvent)
	active atomic.Bool
}

// EventBus fans published events out to subscribers, synchronously and in
// registration order. It keeps no history: a subscriber only sees events
// published after it registered.
//
// Handlers run on the publishing goroutine and must not block. A handler that
// panics is recovered and counted; delivery to the remaining subscribers
// continues. Subscribe and Unsubscribe may be called from inside a handler.
type EventBus struct {
	mu     sync.Mutex
	nextID Subscription
	subs   []*subscriber

	failures atomic.Uint64
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers fn for every subsequent Publish. A nil fn is ignored and
// yields the zero Subscription.
func (b *EventBus) Subscribe(fn func(LogEvent)) Subscription {
	if b == nil || fn == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &subscriber{id: b.nextID, fn: fn}
	sub.active.Store(true)

	// Copy on write so in-flight publishes keep iterating their snapshot.
	next := make([]*subscriber, len(b.subs), len(b.subs)+1)
	copy(next, b.subs)
	b.subs = append(next, sub)
	return sub.id
}

// Unsubscribe removes the subscription. It reports whether it was registered.
func (b *EventBus) Unsubscribe(id Subscription) bool {
	if b == nil || id == 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id != id {
			continue
		}
		sub.active.Store(false)
		next := make([]*subscriber, 0, len(b.subs)-1)
		next = append(next, b.subs[:i]...)
		next = append(next, b.subs[i+1:]...)
		b.subs = next
		return true
	}
	return false
}

// Publish delivers evt to every subscriber registered at call time.
func (b *EventBus) Publish(evt LogEvent) {
	if b == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	b.mu.Lock()
	snapshot := b.subs
	b.mu.Unlock()

	for _, sub := range snapshot {
		// Skip subscribers removed earlier in this same publish.
		if !sub.active.Load() {
			continue
		}
		b.deliver(sub, evt)
	}
}

func (b *EventBus) deliver(sub *subscriber, evt LogEvent) {
	defer func() {
		if recover() != nil {
			b.failures.Add(1)
		}
	}()
	sub.fn(cloneEvent(evt))
}

// Len reports the number of registered subscribers.
func (b *EventBus) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Failures reports how many handler invocations panicked.
func (b *EventBus) Failures() uint64 {
	if b == nil {
		return 0
	}
	return b.failures.Load()
}

func cloneEvent(evt LogEvent) LogEvent {
	if len(evt.Fields) == 0 {
		return evt
	}
	fields := make(map[string]string, len(evt.Fields))
	for k, v := range evt.Fields {
		fields[k] = v
	}
	evt.Fields = fields
	return evt
}
