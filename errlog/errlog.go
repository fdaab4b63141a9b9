// Package errlog collects compiler diagnostics.
//
// Diagnostics never interrupt compilation: every problem found in user data is
// appended to a Log and the caller decides afterwards whether the result is
// acceptable.
package errlog

import (
	"fmt"

	"github.com/tliron/commonlog"
)

// Severity classifies a message.
type Severity uint8

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", uint8(s))
}

// SpamBin groups recurring messages so they can be deduplicated.
type SpamBin uint8

const (
	SpamNone SpamBin = iota
	SpamUnknownTag
)

// AttachedData is optional structured payload for a message.
type AttachedData struct {
	// UnassignedUVs holds pairs of texture coordinates (u0, v0, u1, v1, ...)
	// of vertices that could not be placed in any layout block.
	UnassignedUVs []float32
}

// Message is a single diagnostic.
type Message struct {
	Severity Severity
	Text     string
	Context  any
	Context2 any
	Data     *AttachedData
	Bin      SpamBin
}

// DefaultMaxPerSpamBin is the number of messages of one spam bin emitted
// before the rest are summarized.
const DefaultMaxPerSpamBin = 3

// Log is an append-only list of messages. It is not safe for concurrent use.
type Log struct {
	messages []Message
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Add appends a message.
func (l *Log) Add(m Message) {
	l.messages = append(l.messages, m)
}

// Infof appends an Info message about ctx.
func (l *Log) Infof(ctx any, format string, args ...any) {
	l.Add(Message{Severity: Info, Text: fmt.Sprintf(format, args...), Context: ctx})
}

// Warnf appends a Warning message about ctx.
func (l *Log) Warnf(ctx any, format string, args ...any) {
	l.Add(Message{Severity: Warning, Text: fmt.Sprintf(format, args...), Context: ctx})
}

// Errorf appends an Error message about ctx.
func (l *Log) Errorf(ctx any, format string, args ...any) {
	l.Add(Message{Severity: Error, Text: fmt.Sprintf(format, args...), Context: ctx})
}

// Merge appends every message of other.
func (l *Log) Merge(other *Log) {
	if other == nil {
		return
	}
	l.messages = append(l.messages, other.messages...)
}

// Messages returns all messages in insertion order.
func (l *Log) Messages() []Message {
	return l.messages
}

// Count returns the number of messages with the given severity.
func (l *Log) Count(s Severity) int {
	n := 0
	for _, m := range l.messages {
		if m.Severity == s {
			n++
		}
	}
	return n
}

// Filtered returns the messages keeping at most maxPerBin messages of each
// spam bin. Messages outside any bin are always kept. The second result is the
// number of dropped messages.
func (l *Log) Filtered(maxPerBin int) ([]Message, int) {
	seen := make(map[SpamBin]int)
	var out []Message
	dropped := 0
	for _, m := range l.messages {
		if m.Bin != SpamNone {
			seen[m.Bin]++
			if seen[m.Bin] > maxPerBin {
				dropped++
				continue
			}
		}
		out = append(out, m)
	}
	return out, dropped
}

// Emit writes the filtered messages to logger.
func (l *Log) Emit(logger commonlog.Logger, maxPerBin int) {
	msgs, dropped := l.Filtered(maxPerBin)
	for _, m := range msgs {
		text := m.Text
		if name := contextName(m.Context); name != "" {
			text = name + ": " + text
		}
		switch m.Severity {
		case Info:
			logger.Info(text)
		case Warning:
			logger.Warning(text)
		default:
			logger.Error(text)
		}
	}
	if dropped > 0 {
		logger.Warningf("%d more messages suppressed", dropped)
	}
}

// Named is implemented by contexts that can describe themselves in a
// diagnostic line.
type Named interface {
	DisplayName() string
}

func contextName(ctx any) string {
	if n, ok := ctx.(Named); ok {
		return n.DisplayName()
	}
	return ""
}
