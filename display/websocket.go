package madrigal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	Mp "github.com/maroda/madrigal/plugin"
	Mt "github.com/maroda/madrigal/types"
)

const (
	DefaultHubBuffer = 256
	writeWait        = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub streams every trigger to websocket clients as JSON.
// It is an OutputAdapter, so the engine fires into it like any other output.
// A slow client never holds up the scheduler, its messages are dropped.
type Hub struct {
	MU      sync.Mutex
	Conns   map[*websocket.Conn]chan []byte
	Buffer  int
	dropped atomic.Int64
	closed  bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultHubBuffer
	}
	return &Hub{
		Conns:  make(map[*websocket.Conn]chan []byte),
		Buffer: buffer,
	}
}

func (h *Hub) WriteTrigger(trig *Mt.Trigger) error {
	msg, err := json.Marshal(trig)
	if err != nil {
		return err
	}
	h.broadcast(msg)
	return nil
}

func (h *Hub) broadcast(msg []byte) {
	h.MU.Lock()
	defer h.MU.Unlock()
	for _, ch := range h.Conns {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

func (h *Hub) WriteBatch(trigs []*Mt.Trigger) error {
	for _, t := range trigs {
		if err := h.WriteTrigger(t); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) QueryRange(start, end time.Time) ([]*Mt.Trigger, error) {
	return nil, Mp.ErrNotQueryable
}

func (h *Hub) Flush() error { return nil }

// Close disconnects every client, later connections are refused
func (h *Hub) Close() error {
	h.MU.Lock()
	defer h.MU.Unlock()
	h.closed = true
	for conn, ch := range h.Conns {
		close(ch)
		delete(h.Conns, conn)
	}
	return nil
}

func (h *Hub) Type() string { return "Websocket" }

// Clients is the number of connected clients
func (h *Hub) Clients() int {
	h.MU.Lock()
	defer h.MU.Unlock()
	return len(h.Conns)
}

// Dropped counts messages a full client buffer refused
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

func (h *Hub) register(conn *websocket.Conn) (chan []byte, bool) {
	h.MU.Lock()
	defer h.MU.Unlock()
	if h.closed {
		return nil, false
	}
	ch := make(chan []byte, h.Buffer)
	h.Conns[conn] = ch
	return ch, true
}

// unregister may be called from either pump, only the first call closes
func (h *Hub) unregister(conn *websocket.Conn) {
	h.MU.Lock()
	defer h.MU.Unlock()
	if ch, ok := h.Conns[conn]; ok {
		close(ch)
		delete(h.Conns, conn)
	}
}

// WebsocketHandler upgrades the request and streams triggers until the client leaves
func (h *Hub) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered
		slog.Debug("Websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ch, ok := h.register(conn)
	if !ok {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "closed"))
		return
	}
	slog.Info("Websocket client connected", slog.String("remote", r.RemoteAddr))

	go h.readPump(conn)

	for msg := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			slog.Debug("Websocket write failed", slog.Any("error", err))
			h.unregister(conn)
			break
		}
	}
	slog.Info("Websocket client disconnected", slog.String("remote", r.RemoteAddr))
}

// readPump only notices the client going away, clients send nothing we use
func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
