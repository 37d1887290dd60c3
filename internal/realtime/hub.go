package realtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"taskhub/internal/docstore"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var ErrUnknownTopic = errors.New("unknown topic")

// Hub serves websocket clients. Each client can hold several live
// subscriptions; all of them end with the connection.
type Hub struct {
	openers  map[string]Opener
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		openers: make(map[string]Opener),
		clients: make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Handle registers the opener for a topic. It must be called before Serve.
func (h *Hub) Handle(topic string, open Opener) {
	h.openers[topic] = open
}

// Serve upgrades the request and runs the connection until it closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws][upgrade][err] user=%s: %v", userID, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan ServerFrame, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[string]*subscription),
	}

	h.register(c)
	log.Printf("[ws][open] user=%s remote=%s", userID, r.RemoteAddr)

	go c.writePump()
	c.readPump()

	c.shutdown()
	h.unregister(c)
	log.Printf("[ws][close] user=%s", userID)
}

// PushNotice sends the current error notice to every open connection of the
// user. An empty message tells the client the notice was cleared.
func (h *Hub) PushNotice(userID, message string) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.trySend(ServerFrame{Type: FrameNotice, Message: message})
	}
}

// Connections returns the number of open sockets of a user.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[c.userID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, c.userID)
		}
	}
}

type subscription struct {
	topic  string
	source Source
	cancel context.CancelFunc
}

type client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan ServerFrame

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	subs map[string]*subscription
}

func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame ClientFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws][read][err] user=%s: %v", c.userID, err)
			}
			return
		}
		switch frame.Op {
		case OpSubscribe:
			c.subscribe(frame)
		case OpUnsubscribe:
			c.unsubscribe(frame.ID)
		default:
			c.trySend(ServerFrame{Type: FrameError, ID: frame.ID, Error: fmt.Sprintf("unknown op %q", frame.Op)})
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				log.Printf("[ws][write][err] user=%s: %v", c.userID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[ws][ping][err] user=%s: %v", c.userID, err)
				return
			}
		}
	}
}

func (c *client) subscribe(frame ClientFrame) {
	if frame.ID == "" {
		c.trySend(ServerFrame{Type: FrameError, Error: "subscription id is required"})
		return
	}
	open, ok := c.hub.openers[frame.Topic]
	if !ok {
		c.trySend(ServerFrame{Type: FrameError, ID: frame.ID, Error: ErrUnknownTopic.Error()})
		return
	}
	src, err := open(c.ctx, c.userID, frame.Key)
	if err != nil {
		log.Printf("[ws][subscribe][err] user=%s topic=%s key=%s: %v", c.userID, frame.Topic, frame.Key, err)
		c.trySend(ServerFrame{Type: FrameError, ID: frame.ID, Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	sub := &subscription{topic: frame.Topic, source: src, cancel: cancel}

	c.mu.Lock()
	prev := c.subs[frame.ID]
	c.subs[frame.ID] = sub
	c.mu.Unlock()
	if prev != nil {
		prev.stop()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.pump(ctx, frame.ID, sub)
	}()
}

func (c *client) unsubscribe(id string) {
	c.mu.Lock()
	sub := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	if sub != nil {
		sub.stop()
	}
}

// pump forwards snapshots until the subscription or the connection ends.
func (c *client) pump(ctx context.Context, id string, sub *subscription) {
	for {
		data, err := sub.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, docstore.ErrSubscriptionClosed) {
				return
			}
			log.Printf("[ws][snapshot][err] user=%s sub=%s: %v", c.userID, id, err)
			if !c.sendCtx(ctx, ServerFrame{Type: FrameError, ID: id, Topic: sub.topic, Error: err.Error()}) {
				return
			}
			continue
		}
		if !c.sendCtx(ctx, ServerFrame{Type: FrameSnapshot, ID: id, Topic: sub.topic, Data: data}) {
			return
		}
	}
}

func (c *client) sendCtx(ctx context.Context, frame ServerFrame) bool {
	select {
	case c.send <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *client) trySend(frame ServerFrame) {
	select {
	case c.send <- frame:
	default:
		log.Printf("[ws][send][drop] user=%s type=%s", c.userID, frame.Type)
	}
}

func (c *client) shutdown() {
	c.cancel()
	c.mu.Lock()
	subs := c.subs
	c.subs = map[string]*subscription{}
	c.mu.Unlock()
	for _, s := range subs {
		s.stop()
	}
	c.wg.Wait()
	c.conn.Close()
}

func (s *subscription) stop() {
	s.cancel()
	s.source.Close()
}
