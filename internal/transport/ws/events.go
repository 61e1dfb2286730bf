package ws

import (
	"encoding/json"
	"time"

	"github.com/ViceKink/vice-kink-backend/internal/domain/model"
)

// Client to server event types.
const (
	EventTypeMarkRead = "conversation.read"
	EventTypePing     = "ping"
)

// Server to client event types.
const (
	EventTypeMessageNew   = "message.new"
	EventTypeMessagesRead = "messages.read"
	EventTypeMatchCreated = "match.created"
	EventTypePong         = "pong"
	EventTypeError        = "error"
)

// Event is the envelope for every websocket frame in both directions.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

type MessagePayload struct {
	model.Message
}

type MessagesReadPayload struct {
	ReaderID int64 `json:"reader_id"`
	Count    int64 `json:"count"`
}

type MatchCreatedPayload struct {
	MatchID     int64 `json:"match_id"`
	OtherUserID int64 `json:"other_user_id"`
}

type MarkReadPayload struct {
	OtherUserID int64 `json:"other_user_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
