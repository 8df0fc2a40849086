package session

import (
	"bufio"
	"context"
	"io"
)

type lineResult struct {
	line string
	err  error
}

// lineReader reads one line per request so stdin is never consumed while a
// key capture owns the terminal.
type lineReader struct {
	scanner *bufio.Scanner
	results chan lineResult
	pending bool
}

func newLineReader(r io.Reader) *lineReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &lineReader{scanner: scanner, results: make(chan lineResult, 1)}
}

// ReadLine returns the next line, io.EOF at end of input, or ctx's error.
// A read abandoned by cancellation is picked up by the next call.
func (r *lineReader) ReadLine(ctx context.Context) (string, error) {
	if !r.pending {
		r.pending = true
		go func() {
			if r.scanner.Scan() {
				r.results <- lineResult{line: r.scanner.Text()}
				return
			}
			err := r.scanner.Err()
			if err == nil {
				err = io.EOF
			}
			r.results <- lineResult{err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-r.results:
		r.pending = false
		return res.line, res.err
	}
}
