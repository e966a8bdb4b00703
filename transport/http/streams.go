package http

import (
	"sync"
	"time"
)

// StreamRegistry tracks open SSE streams so shutdown can close them.
type StreamRegistry struct {
	streams map[string]*Stream
	mu      sync.RWMutex
}

// Stream is one open SSE connection.
type Stream struct {
	ID       string
	Opened   time.Time
	RemoteIP string
	Writer   *SSEWriter
}

// NewStreamRegistry creates an empty registry.
func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{
		streams: make(map[string]*Stream),
	}
}

// Add registers a stream.
func (r *StreamRegistry) Add(id, remoteIP string, writer *SSEWriter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.streams[id] = &Stream{
		ID:       id,
		Opened:   time.Now(),
		RemoteIP: remoteIP,
		Writer:   writer,
	}
}

// Remove forgets a stream without closing it.
func (r *StreamRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, id)
}

// Len returns the number of open streams.
func (r *StreamRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.streams)
}

// CloseAll closes every open stream. Handlers unregister themselves as
// their loops exit.
func (r *StreamRegistry) CloseAll() {
	r.mu.RLock()
	writers := make([]*SSEWriter, 0, len(r.streams))
	for _, stream := range r.streams {
		writers = append(writers, stream.Writer)
	}
	r.mu.RUnlock()

	for _, w := range writers {
		w.Close()
	}
}
