package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub routes messages to every open connection of a teacher (tabs, devices).
type Hub struct {
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex
	log     *zap.Logger
}

type Client struct {
	TeacherID int64
	Conn      *websocket.Conn
	mu        sync.Mutex // serializes writes on Conn
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.TeacherID] == nil {
		h.clients[client.TeacherID] = make(map[*Client]struct{})
	}
	h.clients[client.TeacherID][client] = struct{}{}

	h.log.Debug("websocket connected",
		zap.Int64("teacher_id", client.TeacherID),
		zap.Int("teacher_conns", len(h.clients[client.TeacherID])))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.TeacherID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.TeacherID)
		}
	}
	h.log.Debug("websocket disconnected", zap.Int64("teacher_id", client.TeacherID))
}

// SendToTeacher writes msg to all connections of teacherID. Offline teachers are a no-op.
func (h *Hub) SendToTeacher(teacherID int64, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[teacherID]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.log.Warn("websocket write failed", zap.Int64("teacher_id", teacherID), zap.Error(err))
		}
	}
	return nil
}

func (h *Hub) IsOnline(teacherID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[teacherID]
	return ok && len(conns) > 0
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
