package log

import (
	"io"
	"os"
	"sync"
)

// ConsoleOutput writes formatted entries to a writer, stderr by default.
type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleOutput returns a ConsoleOutput writing to stderr.
func NewConsoleOutput() *ConsoleOutput {
	return &ConsoleOutput{w: os.Stderr}
}

// NewWriterOutput returns a ConsoleOutput writing to w.
func NewWriterOutput(w io.Writer) *ConsoleOutput {
	return &ConsoleOutput{w: w}
}

// Write implements Output.
func (o *ConsoleOutput) Write(_ *Entry, formatted []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.w.Write(formatted)
	return err
}

type discardOutput struct{}

func (discardOutput) Write(*Entry, []byte) error { return nil }
