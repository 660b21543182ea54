package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads answers from the terminal and gives up when its context ends.
type LineReader struct {
	reader *bufio.Reader
	out    io.Writer
	mu     sync.Mutex
}

// NewLineReader reads from in and writes prompts to out.
func NewLineReader(in io.Reader, out io.Writer) *LineReader {
	if in == nil {
		panic("reader cannot be nil")
	}
	if out == nil {
		out = os.Stderr
	}
	return &LineReader{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// ReadLine reads a line, respecting context cancellation. The final line may
// lack a newline.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		value, err := r.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		// The read goroutine finishes on the next line or EOF.
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// Ask prints label as a prompt and reads the answer.
func (r *LineReader) Ask(ctx context.Context, label string) (string, error) {
	if _, err := fmt.Fprint(r.out, FormatPrompt(label)); err != nil {
		return "", err
	}
	return r.ReadLine(ctx)
}

// AskSecret asks for a value without echoing it when fd is a terminal, and
// falls back to a plain line otherwise.
func (r *LineReader) AskSecret(ctx context.Context, label string, fd int) (string, error) {
	if !term.IsTerminal(fd) {
		return r.Ask(ctx, label)
	}

	if _, err := fmt.Fprint(r.out, FormatPrompt(label)); err != nil {
		return "", err
	}

	type result struct {
		err   error
		value []byte
	}
	resultCh := make(chan result, 1)
	go func() {
		value, err := term.ReadPassword(fd)
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(r.out)
		return "", ErrInputCancelled
	case res := <-resultCh:
		_, _ = fmt.Fprintln(r.out)
		if res.err != nil {
			return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), res.err)
		}
		return string(res.value), nil
	}
}
