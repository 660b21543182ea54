package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels the command context on SIGINT or SIGTERM and tells
// the user how far the command got.
type InterruptHandler struct {
	writer      io.Writer
	progress    func() string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer: writer,
	}
}

// SetProgress registers a function describing the work done so far. Its result
// is printed with the interrupt message.
func (h *InterruptHandler) SetProgress(fn func() string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progress = fn
}

// HandleInterrupts returns a context canceled on the first interrupt. Call stop
// to release the signal handler.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go h.watch(ctx, sigChan, cancel)

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func (h *InterruptHandler) watch(ctx context.Context, sigChan <-chan os.Signal, cancel context.CancelFunc) {
	select {
	case <-sigChan:
	case <-ctx.Done():
		return
	}

	h.mu.Lock()
	if !h.interrupted {
		h.interrupted = true
		h.showInterruptMessage()
	}
	h.mu.Unlock()
	cancel()
}

// showInterruptMessage must be called with mu held.
func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning("Operación interrumpida")
	if h.progress != nil {
		if p := h.progress(); p != "" {
			msg += "\n" + FormatInfo(p)
		}
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
