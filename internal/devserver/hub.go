package devserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stockstorm/widgets-go/livechat"
	"github.com/stockstorm/widgets-go/logging"
)

const writeWait = 10 * time.Second

// Hub is the single chat room. Every frame a socket sends is stored and
// broadcast to all sockets, the sender included.
type Hub struct {
	store    *Store
	logger   logging.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[*peer]struct{}
	wg    sync.WaitGroup
}

type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) writeJSON(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(v)
}

func (p *peer) writeClose(code int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
}

func NewHub(store *Store, logger logging.Logger) *Hub {
	return &Hub{
		store:  store,
		logger: logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		peers: make(map[*peer]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the socket until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	p := &peer{conn: conn}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()

	h.wg.Add(1)
	defer func() {
		h.mu.Lock()
		delete(h.peers, p)
		h.mu.Unlock()
		_ = conn.Close()
		h.wg.Done()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.receive(data)
	}
}

// sentFrame mirrors livechat.OutboundFrame with every field required.
type sentFrame struct {
	Message  *string          `json:"message"`
	Username *string          `json:"username"`
	UserID   *livechat.UserID `json:"user_id"`
}

func (h *Hub) receive(data []byte) {
	var in sentFrame
	if err := json.Unmarshal(data, &in); err != nil {
		h.logger.Warn("dropping malformed frame", map[string]any{"error": err.Error()})
		return
	}
	if in.Message == nil || in.Username == nil || in.UserID == nil {
		h.logger.Warn("dropping incomplete frame", nil)
		return
	}
	userID := int64(*in.UserID)

	if _, err := h.store.Append(userID, *in.Message); err != nil {
		// The message is still broadcast, only history misses it.
		h.logger.Error("save message", map[string]any{"user_id": userID, "error": err.Error()})
	}
	out := livechat.InboundFrame{Message: *in.Message, Username: *in.Username, UserID: *in.UserID}
	if u, ok := h.store.User(userID); ok {
		out.ProfilePicture = u.ProfilePicture
	}
	h.Broadcast(out)
}

// Broadcast sends a frame to every connected socket.
func (h *Hub) Broadcast(f livechat.InboundFrame) {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()
	for _, p := range peers {
		if err := p.writeJSON(f); err != nil {
			h.logger.Debug("broadcast write", map[string]any{"error": err.Error()})
		}
	}
}

// Peers reports how many sockets are connected.
func (h *Hub) Peers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// CloseAll asks every socket to go away.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()
	for _, p := range peers {
		p.writeClose(websocket.CloseGoingAway, "server shutdown")
		_ = p.conn.Close()
	}
}

// Wait blocks until all socket handlers have returned.
func (h *Hub) Wait() {
	h.wg.Wait()
}
