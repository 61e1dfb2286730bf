package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Hub tracks connected clients and routes events to them by user id. One
// connection per user: a second login replaces the first.
type Hub struct {
	clients map[int64]*Client

	register   chan *Client
	unregister chan *Client
	direct     chan directMsg

	logger *zap.Logger
}

type directMsg struct {
	userID int64
	data   []byte
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMsg, 256),
		logger:     logger,
	}
}

// Run drives the hub loop. Call it in a goroutine before serving.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if old, ok := h.clients[client.userID]; ok {
				old.closeSend()
			}
			h.clients[client.userID] = client
			h.logger.Debug("ws client connected",
				zap.Int64("user_id", client.userID),
				zap.Int("total", len(h.clients)),
			)

		case client := <-h.unregister:
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				client.closeSend()
				h.logger.Debug("ws client disconnected",
					zap.Int64("user_id", client.userID),
					zap.Int("total", len(h.clients)),
				)
			}

		case msg := <-h.direct:
			client, ok := h.clients[msg.userID]
			if !ok {
				continue
			}
			select {
			case client.send <- msg.data:
			default:
				// Slow consumer, drop the connection.
				delete(h.clients, msg.userID)
				client.closeSend()
			}
		}
	}
}

// SendToUser delivers an event to one user's connection, if any. Offline
// users simply miss the push and catch up over HTTP.
func (h *Hub) SendToUser(userID int64, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("ws marshal event failed", zap.Error(err))
		return
	}
	select {
	case h.direct <- directMsg{userID: userID, data: data}:
	default:
		h.logger.Warn("ws direct queue full, event dropped", zap.Int64("user_id", userID))
	}
}
