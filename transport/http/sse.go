package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

var ErrStreamClosed = errors.New("stream is closed")

// SSEWriter serializes frames onto one text/event-stream response.
type SSEWriter struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
	closed  bool
	onClose func()
	once    sync.Once
}

// NewSSEWriter creates a writer. onClose runs once when the stream is
// closed, typically cancelling the handler context.
func NewSSEWriter(w http.ResponseWriter, f http.Flusher, onClose func()) *SSEWriter {
	return &SSEWriter{
		writer:  w,
		flusher: f,
		onClose: onClose,
	}
}

// SendData writes one unnamed event carrying data as JSON.
func (t *SSEWriter) SendData(data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE data: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrStreamClosed
	}
	if err := t.writeLocked("data: " + string(payload) + "\n\n"); err != nil {
		return fmt.Errorf("failed to write SSE message: %w", err)
	}
	return nil
}

// SendComment writes one SSE comment frame (":" prefixed lines).
func (t *SSEWriter) SendComment(comment string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrStreamClosed
	}

	comment = strings.ReplaceAll(comment, "\r\n", "\n")
	comment = strings.ReplaceAll(comment, "\r", "\n")
	comment = strings.ReplaceAll(comment, "\n", "\n: ")
	if err := t.writeLocked(": " + comment + "\n\n"); err != nil {
		return fmt.Errorf("failed to write SSE comment: %w", err)
	}
	return nil
}

func (t *SSEWriter) writeLocked(payload string) error {
	if _, err := t.writer.Write([]byte(payload)); err != nil {
		return err
	}
	t.flusher.Flush()
	return nil
}

// Close marks the stream closed and runs the close hook.
func (t *SSEWriter) Close() error {
	t.mu.Lock()
	wasOpen := !t.closed
	t.closed = true
	t.mu.Unlock()

	if wasOpen && t.onClose != nil {
		t.once.Do(t.onClose)
	}
	return nil
}

// IsClosed returns true if the stream is closed
func (t *SSEWriter) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// KeepAlive writes a keepalive comment every interval until ctx is done or
// a write fails. The ticker is stopped on return.
func KeepAlive(ctx context.Context, w *SSEWriter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SendComment("keepalive"); err != nil {
				return
			}
		}
	}
}
