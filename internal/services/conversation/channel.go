package conversation

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ViceKink/vice-kink-backend/internal/domain/model"
	"github.com/ViceKink/vice-kink-backend/internal/transport/ws"
)

type EventKind string

const (
	EventMessageNew   EventKind = "message.new"
	EventMessagesRead EventKind = "messages.read"
	EventMatchCreated EventKind = "match.created"
)

type Event struct {
	Kind    EventKind
	Message model.Message
	MatchID int64
	UserID  int64
}

// Disposer detaches a subscription. Calling it more than once is safe and
// the extra calls do nothing.
type Disposer func()

// Channel fans realtime events out to per-user subscribers. It sits
// between the websocket event stream and the per-conversation stores.
type Channel struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]map[int64]func(Event)
}

func NewChannel() *Channel {
	return &Channel{
		subs: map[int64]map[int64]func(Event){},
	}
}

// Subscribe attaches a sink for one user's events. The returned Disposer
// releases the subscription exactly once; callers must invoke it on
// conversation teardown.
func (c *Channel) Subscribe(userID int64, sink func(Event)) (Disposer, error) {
	if userID <= 0 || sink == nil {
		return nil, ErrValidation
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.subs[userID] == nil {
		c.subs[userID] = map[int64]func(Event){}
	}
	c.subs[userID][id] = sink
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs[userID], id)
			if len(c.subs[userID]) == 0 {
				delete(c.subs, userID)
			}
			c.mu.Unlock()
		})
	}, nil
}

// Publish delivers an event to every sink subscribed for the user.
func (c *Channel) Publish(userID int64, event Event) {
	c.mu.Lock()
	sinks := make([]func(Event), 0, len(c.subs[userID]))
	for _, sink := range c.subs[userID] {
		sinks = append(sinks, sink)
	}
	c.mu.Unlock()

	for _, sink := range sinks {
		sink(event)
	}
}

// Dispatch decodes a websocket frame received by the given user and fans
// the event out to that user's subscribers. Frame types the channel does
// not model are ignored.
func (c *Channel) Dispatch(userID int64, frame ws.Event) error {
	if userID <= 0 {
		return ErrValidation
	}

	switch frame.Type {
	case ws.EventTypeMessageNew:
		var payload ws.MessagePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return fmt.Errorf("decode message push: %w", err)
		}
		c.Publish(userID, Event{Kind: EventMessageNew, Message: payload.Message, UserID: userID})

	case ws.EventTypeMessagesRead:
		var payload ws.MessagesReadPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return fmt.Errorf("decode read marker push: %w", err)
		}
		c.Publish(userID, Event{Kind: EventMessagesRead, UserID: payload.ReaderID})

	case ws.EventTypeMatchCreated:
		var payload ws.MatchCreatedPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return fmt.Errorf("decode match push: %w", err)
		}
		c.Publish(userID, Event{Kind: EventMatchCreated, MatchID: payload.MatchID, UserID: payload.OtherUserID})
	}

	return nil
}

func (c *Channel) SubscriberCount(userID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[userID])
}
