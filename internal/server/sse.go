package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shahar-caura/deskpilot/internal/events"
)

const keepaliveInterval = 20 * time.Second

// SSEHub fans out pipeline events to connected SSE clients.
type SSEHub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[chan events.Event]struct{}
}

// NewSSEHub creates an SSEHub with no clients.
func NewSSEHub(logger *slog.Logger) *SSEHub {
	return &SSEHub{
		logger:  logger,
		clients: make(map[chan events.Event]struct{}),
	}
}

// Start broadcasts every event received on evs. Blocks until ctx is
// cancelled or evs is closed.
func (h *SSEHub) Start(ctx context.Context, evs <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evs:
			if !ok {
				return
			}
			h.broadcast(ev)
		}
	}
}

func (h *SSEHub) broadcast(ev events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("sse: slow client, dropping event", "seq", ev.Seq, "type", ev.Type)
		}
	}
}

func (h *SSEHub) addClient(ch chan events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = struct{}{}
}

func (h *SSEHub) removeClient(ch chan events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
	close(ch)
}

func (h *SSEHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP implements http.Handler for SSE connections.
func (h *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan events.Event, 32)
	h.addClient(ch)
	defer h.removeClient(ch)

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Type, data)
			flusher.Flush()
		}
	}
}
