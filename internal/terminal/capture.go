// Package terminal captures single keystrokes from an interactive terminal
// as a scoped subscription.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

var ErrNotTerminal = errors.New("input is not an interactive terminal")

// KeySource delivers keystrokes to onKey until the returned subscription is
// released. onKey runs on a separate goroutine.
type KeySource interface {
	Subscribe(onKey func(key byte)) (Subscription, error)
}

// Subscription is one active capture.
type Subscription interface {
	// Output adapts w for writing while the capture is active.
	Output(w io.Writer) io.Writer
	// Release stops delivery and restores the terminal. It returns after
	// the last onKey call and is safe to call more than once.
	Release() error
}

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// TTY captures keys from a terminal file in raw mode.
type TTY struct {
	in *os.File
}

// NewTTY returns a key source for in, or ErrNotTerminal.
func NewTTY(in *os.File) (*TTY, error) {
	if !IsTerminal(in) {
		return nil, ErrNotTerminal
	}
	return &TTY{in: in}, nil
}

// Subscribe switches the terminal to raw mode and starts reading keys.
func (t *TTY) Subscribe(onKey func(key byte)) (Subscription, error) {
	fd := int(t.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}

	reader, err := cancelreader.NewReader(t.in)
	if err != nil {
		_ = term.Restore(fd, state)
		return nil, fmt.Errorf("open key reader: %w", err)
	}

	sub := &ttySubscription{
		fd:     fd,
		state:  state,
		reader: reader,
		done:   make(chan struct{}),
	}
	go sub.read(onKey)
	return sub, nil
}

type ttySubscription struct {
	fd     int
	state  *term.State
	reader cancelreader.CancelReader
	done   chan struct{}

	once sync.Once
	err  error
}

func (s *ttySubscription) read(onKey func(byte)) {
	defer close(s.done)
	buf := make([]byte, 64)
	for {
		n, err := s.reader.Read(buf)
		for _, b := range buf[:n] {
			onKey(b)
		}
		if err != nil {
			return
		}
	}
}

// Output translates "\n" to "\r\n"; raw mode disables output processing.
func (s *ttySubscription) Output(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

func (s *ttySubscription) Release() error {
	s.once.Do(func() {
		s.reader.Cancel()
		<-s.done
		closeErr := s.reader.Close()
		restoreErr := term.Restore(s.fd, s.state)
		s.err = errors.Join(closeErr, restoreErr)
	})
	return s.err
}

type crlfWriter struct {
	w    io.Writer
	last byte
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' && c.last != '\r' {
			out = append(out, '\r')
		}
		out = append(out, b)
		c.last = b
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
