package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// WSMessage is what the dashboard page receives on its live socket.
type WSMessage struct {
	Type    string `json:"type"` // "position", "cycle"
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

const viewerQueue = 64

// viewer is one open map watching a single container.
type viewer struct {
	containerID string
	out         chan WSMessage
	stop        sync.Once
}

func (v *viewer) close() {
	v.stop.Do(func() { close(v.out) })
}

// offer queues msg unless the viewer is too far behind.
func (v *viewer) offer(msg WSMessage) bool {
	select {
	case v.out <- msg:
		return true
	default:
		return false
	}
}

// Hub fans live updates out to the maps watching each container. It remembers
// the latest position per container so a map that opens late starts there.
type Hub struct {
	mu      sync.Mutex
	viewers map[string]map[*viewer]*websocket.Conn
	last    map[string]TrackPoint
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		viewers: make(map[string]map[*viewer]*websocket.Conn),
		last:    make(map[string]TrackPoint),
	}
}

// ServeWS attaches a browser to the updates of one container.
// URL: /ws/track/{containerID}
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	containerID := r.PathValue("containerID")
	if containerID == "" {
		containerID = strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws/track/"), "/")
	}
	if containerID == "" {
		http.Error(w, "container_id required", http.StatusBadRequest)
		return
	}

	websocket.Handler(func(conn *websocket.Conn) {
		// Sockets outlive the server's write timeout.
		conn.SetDeadline(time.Time{})

		v := h.join(containerID, conn)
		defer h.leave(v)

		go func() {
			for msg := range v.out {
				if err := websocket.JSON.Send(conn, msg); err != nil {
					conn.Close()
					return
				}
			}
		}()

		// The page never writes; a read error means it went away.
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
	}).ServeHTTP(w, r)
}

func (h *Hub) join(containerID string, conn *websocket.Conn) *viewer {
	v := &viewer{containerID: containerID, out: make(chan WSMessage, viewerQueue)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.viewers[containerID] == nil {
		h.viewers[containerID] = make(map[*viewer]*websocket.Conn)
	}
	h.viewers[containerID][v] = conn
	if p, ok := h.last[containerID]; ok {
		v.offer(positionMessage(p))
	}

	slog.Info("live viewer joined",
		"container_id", containerID,
		"remote", conn.Request().RemoteAddr,
		"viewers", len(h.viewers[containerID]))
	return v
}

func (h *Hub) leave(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set := h.viewers[v.containerID]; set != nil {
		delete(set, v)
		if len(set) == 0 {
			delete(h.viewers, v.containerID)
		}
	}
	v.close()
	slog.Info("live viewer left", "container_id", v.containerID)
}

// Viewers returns the number of open maps watching containerID.
func (h *Hub) Viewers(containerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers[containerID])
}

// send queues msg for every viewer of containerID. Viewers that fall behind
// miss the message rather than stall the sender.
func (h *Hub) send(containerID string, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for v := range h.viewers[containerID] {
		if !v.offer(msg) {
			slog.Warn("live viewer lagging, update dropped",
				"container_id", containerID,
				"type", msg.Type)
		}
	}
}

func positionMessage(p TrackPoint) WSMessage {
	return WSMessage{Type: "position", Data: p}
}

// PublishPosition records p as the container's latest position and moves the
// maps watching it.
func (h *Hub) PublishPosition(p TrackPoint) {
	h.mu.Lock()
	if prev, ok := h.last[p.ContainerID]; ok && p.Timestamp.Before(prev.Timestamp) {
		h.mu.Unlock()
		return
	}
	h.last[p.ContainerID] = p
	h.mu.Unlock()

	h.send(p.ContainerID, positionMessage(p))
}

// CycleCompleted pushes a cycle's track to the other viewers of the same container.
func (h *Hub) CycleCompleted(_ context.Context, c Cycle) {
	if c.Track == nil {
		return
	}
	h.send(c.ContainerID, WSMessage{Type: "cycle", Data: c.Track, Message: c.Error})
}

// CloseAll disconnects every viewer.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.viewers {
		for v, conn := range set {
			v.close()
			conn.Close()
		}
	}
	h.viewers = make(map[string]map[*viewer]*websocket.Conn)
}
