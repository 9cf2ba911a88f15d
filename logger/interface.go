// Package logger defines the structured logging contract used throughout the
// library. Host applications may supply their own implementation; the default
// is a zerolog-backed logger with sensitive-data filtering.
package logger

import "time"

// Logger is the contract for structured logging. Implementations must be safe
// for concurrent use. Libraries never terminate the process, so there is no
// fatal level; the most severe event a client emits is an error.
type Logger interface {
	Trace() LogEvent
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent represents a structured log event that can be built with fields and sent.
// It provides methods for adding various field types and sending the final log message.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Uint64(key string, value uint64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Bytes(key string, val []byte) LogEvent
}
