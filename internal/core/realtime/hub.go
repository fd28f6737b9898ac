// Package realtime 卖家端新订单实时推送（websocket）。
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

var errHubStopped = errors.New("realtime hub stopped")

type Event struct {
	Type      string    `json:"type"` // order.created / order.updated
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	Total     string    `json:"total,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Client struct {
	SellerID string
	conn     *websocket.Conn
	send     chan []byte
}

type delivery struct {
	sellerID string
	msg      []byte
}

// Hub 一个卖家可同时有多个连接；Run 之前的推送会丢弃
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	outbox     chan delivery
	done       chan struct{}
	upgrader   websocket.Upgrader
	log        *zap.Logger
}

func NewHub(l *zap.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbox:     make(chan delivery, 256),
		done:       make(chan struct{}),
		log:        l,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.SellerID] == nil {
				h.clients[c.SellerID] = make(map[*Client]struct{})
			}
			h.clients[c.SellerID][c] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("ws client registered", zap.String("seller", c.SellerID))

		case c := <-h.unregister:
			h.drop(c)

		case d := <-h.outbox:
			h.mu.RLock()
			var slow []*Client
			for c := range h.clients[d.sellerID] {
				select {
				case c.send <- d.msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range slow {
				h.drop(c)
			}

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = map[string]map[*Client]struct{}{}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.SellerID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.SellerID)
	}
	h.log.Debug("ws client unregistered", zap.String("seller", c.SellerID))
}

// Notify 非阻塞；队列满时丢弃并记日志（前端还有轮询兜底）
func (h *Hub) Notify(sellerID string, ev Event) {
	if h == nil {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.outbox <- delivery{sellerID: sellerID, msg: b}:
	default:
		h.log.Warn("ws outbox full, event dropped", zap.String("seller", sellerID), zap.String("order", ev.OrderID))
	}
}

func (h *Hub) Connected(sellerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sellerID])
}

// Serve 升级连接并启动读写协程
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sellerID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{SellerID: sellerID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return errHubStopped
	}
	go c.writePump()
	go c.readPump(h)
	return nil
}

// readPump 只处理控制帧，客户端消息忽略
func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("ws read", zap.String("seller", c.SellerID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
