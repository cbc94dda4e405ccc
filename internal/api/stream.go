package api

import (
	"log/slog"
	"net/http"
	"time"

	"cafedoko/pkg/catalog"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamHandler pushes catalog state changes over a websocket.
type StreamHandler struct {
	catalog  *catalog.Catalog
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(cat *catalog.Catalog) *StreamHandler {
	return &StreamHandler{
		catalog: cat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// StreamMessage is one pushed update. Chains are sent only when the list changed.
type StreamMessage struct {
	State  StateResponse `json:"state"`
	Chains any           `json:"chains,omitempty"`
}

// ServeHTTP handles GET /api/catalog/stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.catalog.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	var (
		sentChains  bool
		lastUpdated time.Time
	)
	send := func(s catalog.State) error {
		msg := StreamMessage{State: stateResponse(s)}
		if !sentChains || !s.UpdatedAt.Equal(lastUpdated) {
			msg.Chains = s.Chains
			lastUpdated = s.UpdatedAt
			sentChains = true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	if err := send(h.catalog.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			if err := send(s); err != nil {
				slog.Debug("Websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed, and signals closure.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
