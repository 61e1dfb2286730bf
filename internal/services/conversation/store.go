package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ViceKink/vice-kink-backend/internal/domain/model"
)

var (
	ErrValidation = errors.New("validation error")
	ErrClosed     = errors.New("conversation store is closed")
)

// ReadMarker reports to the server that the local user has seen the peer's
// messages. Calls are fire-and-forget: the store neither blocks on nor
// fails from marker outcomes.
type ReadMarker interface {
	MarkConversationRead(selfID, peerID int64)
}

// ReadMarkerFunc adapts a plain function to ReadMarker.
type ReadMarkerFunc func(selfID, peerID int64)

func (f ReadMarkerFunc) MarkConversationRead(selfID, peerID int64) {
	f(selfID, peerID)
}

// Store keeps one conversation's message timeline in memory and reconciles
// it against server responses and push events. The timeline is append-only
// and keeps delivery order: entries are merged and updated in place, never
// removed, and a message's position never moves once it is appended.
type Store struct {
	mu       sync.RWMutex
	selfID   int64
	peerID   int64
	marker   ReadMarker
	logger   *zap.Logger
	closed   bool
	messages []model.Message
	byID     map[uuid.UUID]int
	byNonce  map[string]int
	readAt   time.Time
}

func NewStore(selfID, peerID int64, marker ReadMarker, logger *zap.Logger) (*Store, error) {
	if selfID <= 0 || peerID <= 0 || selfID == peerID {
		return nil, ErrValidation
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		selfID:  selfID,
		peerID:  peerID,
		marker:  marker,
		logger:  logger,
		byID:    map[uuid.UUID]int{},
		byNonce: map[string]int{},
	}, nil
}

// Bootstrap seeds the timeline from the initial server fetch, which arrives
// pre-sorted ascending. Existing entries are merged rather than dropped, so
// a re-bootstrap after a reconnect keeps optimistic messages that the
// server has not stored yet.
func (s *Store) Bootstrap(messages []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, msg := range messages {
		s.merge(msg)
	}
}

// AppendLocal adds an optimistic local echo before the server acknowledged
// the send. The client nonce ties it to the server copy arriving later.
func (s *Store) AppendLocal(msg model.Message) error {
	if msg.ClientNonce == "" {
		return ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.merge(msg)
	return nil
}

// Reconcile merges the authoritative server listing into the timeline.
// Messages already present keep their position.
func (s *Store) Reconcile(messages []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, msg := range messages {
		s.merge(msg)
	}
}

// ApplyPush merges a single pushed message. Pushes that do not belong to
// this conversation's pair are dropped. A push sent by the peer lands in a
// conversation the local user is viewing, so it is marked read immediately
// and the read marker fires toward the server.
func (s *Store) ApplyPush(msg model.Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if !s.belongsToPair(msg) {
		s.mu.Unlock()
		s.logger.Debug("push for another conversation dropped",
			zap.Int64("sender_id", msg.SenderID),
			zap.Int64("receiver_id", msg.ReceiverID),
		)
		return
	}

	fromPeer := msg.SenderID == s.peerID
	if fromPeer {
		msg.Read = true
	}
	s.merge(msg)
	s.mu.Unlock()

	if fromPeer && s.marker != nil {
		s.marker.MarkConversationRead(s.selfID, s.peerID)
	}
}

// Close tears the store down. Appends and pushes arriving afterwards are
// dropped; closing twice is a no-op.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// ApplyReadMarker marks every message the peer has read. Read state only
// moves forward.
func (s *Store) ApplyReadMarker(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at.After(s.readAt) {
		s.readAt = at
	}
	for i := range s.messages {
		if s.messages[i].SenderID == s.selfID {
			s.messages[i].Read = true
		}
	}
}

// Messages returns the timeline snapshot in delivery order.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// UnreadCount counts peer messages the local user has not read.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, msg := range s.messages {
		if msg.SenderID == s.peerID && !msg.Read {
			count++
		}
	}
	return count
}

// MarkLocalRead marks all peer messages as read locally and reports how
// many changed, so the caller knows whether to sync the marker upstream.
func (s *Store) MarkLocalRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.messages {
		if s.messages[i].SenderID == s.peerID && !s.messages[i].Read {
			s.messages[i].Read = true
			count++
		}
	}
	return count
}

func (s *Store) belongsToPair(msg model.Message) bool {
	if msg.SenderID == s.selfID && msg.ReceiverID == s.peerID {
		return true
	}
	return msg.SenderID == s.peerID && msg.ReceiverID == s.selfID
}

// merge folds one message into the timeline. Identity is resolved by
// server id first, then by client nonce for optimistic echoes. New entries
// append at the tail; known ones update in place so positions stay put.
// Boolean state only moves forward: a revealed image or read message never
// flips back when an older snapshot arrives.
func (s *Store) merge(msg model.Message) {
	if msg.ID != uuid.Nil {
		if idx, ok := s.byID[msg.ID]; ok {
			s.updateLocked(idx, msg)
			return
		}
	}
	if msg.ClientNonce != "" {
		if idx, ok := s.byNonce[msg.ClientNonce]; ok && s.messages[idx].SenderID == msg.SenderID {
			s.updateLocked(idx, msg)
			return
		}
	}

	s.messages = append(s.messages, msg)
	idx := len(s.messages) - 1
	if msg.ID != uuid.Nil {
		s.byID[msg.ID] = idx
	}
	if msg.ClientNonce != "" {
		s.byNonce[msg.ClientNonce] = idx
	}
}

func (s *Store) updateLocked(idx int, incoming model.Message) {
	current := s.messages[idx]

	if current.ID == uuid.Nil && incoming.ID != uuid.Nil {
		current.ID = incoming.ID
		s.byID[incoming.ID] = idx
	}
	if !incoming.CreatedAt.IsZero() {
		current.CreatedAt = incoming.CreatedAt
	}
	if incoming.Content != "" {
		current.Content = incoming.Content
	}
	if incoming.ImageURL != "" {
		current.ImageURL = incoming.ImageURL
	}
	current.HasAttachment = current.HasAttachment || incoming.HasAttachment || incoming.ImageURL != ""
	current.IsImageRevealed = current.IsImageRevealed || incoming.IsImageRevealed
	current.Read = current.Read || incoming.Read

	s.messages[idx] = current
}
