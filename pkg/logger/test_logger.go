package logger

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a Logger implementation for tests that captures every
// message instead of writing it anywhere.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	buffer   *bytes.Buffer
	zerolog  *zerolog.Logger
}

// LogMessage is one captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Error   error
}

// NewTestLogger creates a new test logger.
func NewTestLogger() *TestLogger {
	nopLogger := zerolog.Nop()
	return &TestLogger{
		messages: make([]LogMessage, 0),
		buffer:   &bytes.Buffer{},
		zerolog:  &nopLogger,
	}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields, nil)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields, nil)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields, nil)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields, nil)
}

func (l *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.log("FATAL", msg, fields, nil)
}

// WithError returns a logger that records err on every message.
func (l *TestLogger) WithError(err error) Logger {
	return &testLoggerWithFields{TestLogger: l, err: err}
}

// WithField returns a logger that records the field on every message.
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &testLoggerWithFields{
		TestLogger: l,
		fields:     map[string]interface{}{key: value},
	}
}

// WithFields returns a logger that records the fields on every message.
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerWithFields{TestLogger: l, fields: fields}
}

// GetZerolog returns a no-op zerolog instance.
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, LogMessage{
		Level:   level,
		Message: msg,
		Fields:  fields,
		Error:   err,
	})

	fmt.Fprintf(l.buffer, "[%s] %s", level, msg)
	if len(fields) > 0 {
		fmt.Fprintf(l.buffer, " fields=%v", fields)
	}
	if err != nil {
		fmt.Fprintf(l.buffer, " error=%v", err)
	}
	fmt.Fprintln(l.buffer)
}

// GetMessages returns a copy of all captured log messages.
func (l *TestLogger) GetMessages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]LogMessage, len(l.messages))
	copy(messages, l.messages)
	return messages
}

// GetMessagesByLevel returns all messages of a specific level.
func (l *TestLogger) GetMessagesByLevel(level string) []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	var filtered []LogMessage
	for _, msg := range l.messages {
		if msg.Level == level {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// HasMessage checks if a message with the given text was logged.
func (l *TestLogger) HasMessage(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, msg := range l.messages {
		if msg.Message == text {
			return true
		}
	}
	return false
}

// HasError checks if anything was logged at ERROR level.
func (l *TestLogger) HasError() bool {
	return len(l.GetMessagesByLevel("ERROR")) > 0
}

// Clear discards all captured messages.
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = l.messages[:0]
	l.buffer.Reset()
}

// String returns all captured messages as text.
func (l *TestLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.String()
}

// testLoggerWithFields carries field/error context back into the parent
// TestLogger's capture buffer.
type testLoggerWithFields struct {
	*TestLogger
	fields map[string]interface{}
	err    error
}

func (l *testLoggerWithFields) merged(fields map[string]interface{}) map[string]interface{} {
	if len(l.fields) == 0 {
		return fields
	}
	out := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (l *testLoggerWithFields) Debug(msg string) { l.log("DEBUG", msg, l.fields, l.err) }
func (l *testLoggerWithFields) Info(msg string)  { l.log("INFO", msg, l.fields, l.err) }
func (l *testLoggerWithFields) Warn(msg string)  { l.log("WARN", msg, l.fields, l.err) }
func (l *testLoggerWithFields) Error(msg string) { l.log("ERROR", msg, l.fields, l.err) }
func (l *testLoggerWithFields) Fatal(msg string) { l.log("FATAL", msg, l.fields, l.err) }

func (l *testLoggerWithFields) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, l.merged(fields), l.err)
}

func (l *testLoggerWithFields) WithField(key string, value interface{}) Logger {
	return &testLoggerWithFields{
		TestLogger: l.TestLogger,
		fields:     l.merged(map[string]interface{}{key: value}),
		err:        l.err,
	}
}

func (l *testLoggerWithFields) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerWithFields{
		TestLogger: l.TestLogger,
		fields:     l.merged(fields),
		err:        l.err,
	}
}

func (l *testLoggerWithFields) WithError(err error) Logger {
	return &testLoggerWithFields{
		TestLogger: l.TestLogger,
		fields:     l.fields,
		err:        err,
	}
}
