package vending

import (
	"fmt"
	"io"
	"sync"
)

// Kind categorizes an emitted message
type Kind string

const (
	// KindRejected is the response to an operation that is a no-op in the current state
	KindRejected Kind = "rejected"
	// KindAccepted means a quarter was taken
	KindAccepted Kind = "accepted"
	// KindRefunded means the pending quarter was returned
	KindRefunded Kind = "refunded"
	// KindTurned means the crank was turned with a quarter inserted
	KindTurned Kind = "turned"
	// KindReleased means a unit left the machine
	KindReleased Kind = "released"
	// KindDiagnostic reports a dispense in a state where it can never happen
	KindDiagnostic Kind = "diagnostic"
)

// Message is a single line of machine output
type Message struct {
	State   State   `json:"state"`
	Trigger Trigger `json:"trigger"`
	Kind    Kind    `json:"kind"`
	Text    string  `json:"text"`
}

// Sink receives every message a machine emits
type Sink interface {
	Emit(msg Message)
}

// SinkFunc adapts a plain function to the Sink interface
type SinkFunc func(msg Message)

// Emit calls f(msg)
func (f SinkFunc) Emit(msg Message) {
	f(msg)
}

// Discard drops every message
var Discard Sink = SinkFunc(func(Message) {})

// WriterSink writes one line per message to an io.Writer
type WriterSink struct {
	w io.Writer
}

// NewWriterSink creates a sink printing message text to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Emit writes the message text followed by a newline
func (s *WriterSink) Emit(msg Message) {
	fmt.Fprintln(s.w, msg.Text)
}

// Recorder buffers messages until they are drained
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends the message to the buffer
func (r *Recorder) Emit(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

// Messages returns a copy of the buffered messages
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Drain returns the buffered messages and empties the buffer
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages
	r.messages = nil
	return msgs
}
