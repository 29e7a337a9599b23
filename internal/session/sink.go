package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sink observes a generation as it streams. Begin is called before the first
// fragment of every reply, End after the last one (also when the backend
// failed midway).
type Sink interface {
	Begin() error
	Fragment(text string) error
	End() error
}

// FileSink persists each reply to Path, truncating the file at Begin so a
// failed generation still leaves whatever arrived on disk.
type FileSink struct {
	Path string

	f *os.File
	w *bufio.Writer
}

// NewFileSink returns a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

func (s *FileSink) Begin() error {
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("open solution file: %w", err)
	}
	s.f = f
	s.w = bufio.NewWriter(f)
	return nil
}

func (s *FileSink) Fragment(text string) error {
	if s.w == nil {
		return fmt.Errorf("file sink %s not started", s.Path)
	}
	_, err := s.w.WriteString(text)
	return err
}

func (s *FileSink) End() error {
	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f, s.w = nil, nil
	if flushErr != nil {
		return fmt.Errorf("flush solution file: %w", flushErr)
	}
	return closeErr
}

// WriterSink echoes fragments to W, typically the console.
type WriterSink struct {
	W io.Writer

	last string
}

// NewWriterSink returns a sink echoing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{W: w}
}

func (s *WriterSink) Begin() error {
	s.last = ""
	return nil
}

func (s *WriterSink) Fragment(text string) error {
	if text == "" {
		return nil
	}
	s.last = text
	_, err := io.WriteString(s.W, text)
	return err
}

// End terminates the echoed reply with a newline when it lacks one.
func (s *WriterSink) End() error {
	if s.last == "" || strings.HasSuffix(s.last, "\n") {
		return nil
	}
	_, err := io.WriteString(s.W, "\n")
	return err
}
