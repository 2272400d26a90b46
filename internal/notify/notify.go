// Package notify delivers transient user-facing notifications, the
// console's equivalent of the web UI toast area.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Notifier receives user-visible outcome messages. Controllers report
// through it instead of writing to the terminal directly, so commands and
// tests can swap the sink.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// Console writes notifications to a terminal writer, one line each.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole returns a Notifier writing to w, or stderr when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{out: w}
}

func (c *Console) write(prefix, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", prefix, msg)
}

func (c *Console) Success(msg string) { c.write("OK:", msg) }
func (c *Console) Info(msg string)    { c.write("--", msg) }
func (c *Console) Warning(msg string) { c.write("WARN:", msg) }
func (c *Console) Error(msg string)   { c.write("ERROR:", msg) }

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

// Message is one recorded notification.
type Message struct {
	Level string
	Text  string
}

func (r *Recorder) add(level, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Level: level, Text: text})
}

func (r *Recorder) Success(msg string) { r.add("success", msg) }
func (r *Recorder) Info(msg string)    { r.add("info", msg) }
func (r *Recorder) Warning(msg string) { r.add("warning", msg) }
func (r *Recorder) Error(msg string)   { r.add("error", msg) }

// Last returns the most recent message, or the zero Message when empty.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return Message{}
	}
	return r.Messages[len(r.Messages)-1]
}

// HasLevel reports whether any message of the given level was recorded.
func (r *Recorder) HasLevel(level string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}
