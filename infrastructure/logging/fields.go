package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for cache storage logging.

// Key adds a cache key field.
func Key(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// Collection adds a collection name field.
func Collection(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("collection", name)
	}
}

// Database adds a database name field.
func Database(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("database", name)
	}
}

// TTL adds a ttl field in seconds.
func TTL(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("ttl_seconds", int64(d.Seconds()))
	}
}

// Compressed adds a compressed field.
func Compressed(compressed bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("compressed", compressed)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// LogEvent is a wrapper that allows adding Fields to a bolt.Event.
type LogEvent struct {
	event *bolt.Event
}

// Add applies a field to the event and returns the wrapper for chaining.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg sends the log event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Debug returns a LogEvent wrapper for debug level logging.
func Debug() *LogEvent {
	return &LogEvent{event: Get().Debug()}
}

// Info returns a LogEvent wrapper for info level logging.
func Info() *LogEvent {
	return &LogEvent{event: Get().Info()}
}

// Warn returns a LogEvent wrapper for warn level logging.
func Warn() *LogEvent {
	return &LogEvent{event: Get().Warn()}
}

// Error returns a LogEvent wrapper for error level logging.
func Error() *LogEvent {
	return &LogEvent{event: Get().Error()}
}
