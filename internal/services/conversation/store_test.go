package conversation

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ViceKink/vice-kink-backend/internal/domain/model"
	"github.com/ViceKink/vice-kink-backend/internal/transport/ws"
)

func at(minute int) time.Time {
	return time.Date(2026, 3, 10, 9, minute, 0, 0, time.UTC)
}

func serverMsg(sender, receiver int64, content string, minute int) model.Message {
	return model.Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  at(minute),
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(101, 202, nil, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestAppendLocalThenReconcileReplacesEcho(t *testing.T) {
	store := newStore(t)

	local := model.Message{
		SenderID:    101,
		ReceiverID:  202,
		Content:     "hey",
		ClientNonce: "nonce-1",
	}
	if err := store.AppendLocal(local); err != nil {
		t.Fatalf("append local: %v", err)
	}
	if len(store.Messages()) != 1 {
		t.Fatalf("expected optimistic echo in the timeline")
	}

	serverCopy := model.Message{
		ID:          uuid.New(),
		SenderID:    101,
		ReceiverID:  202,
		Content:     "hey",
		ClientNonce: "nonce-1",
		CreatedAt:   at(1),
	}
	store.Reconcile([]model.Message{serverCopy})

	messages := store.Messages()
	if len(messages) != 1 {
		t.Fatalf("reconcile must merge the echo, got %d messages", len(messages))
	}
	if messages[0].ID != serverCopy.ID {
		t.Fatalf("merged message must carry the server id")
	}
	if !messages[0].CreatedAt.Equal(at(1)) {
		t.Fatalf("merged message must carry the server timestamp")
	}
}

func TestReconcileIsAppendOnly(t *testing.T) {
	store := newStore(t)

	first := serverMsg(202, 101, "one", 1)
	second := serverMsg(101, 202, "two", 2)
	store.Bootstrap([]model.Message{first, second})

	// A partial listing must not remove what the store already has.
	store.Reconcile([]model.Message{second})

	messages := store.Messages()
	if len(messages) != 2 {
		t.Fatalf("reconcile must never drop messages, got %d", len(messages))
	}
}

func TestApplyPushDeduplicatesById(t *testing.T) {
	store := newStore(t)

	msg := serverMsg(202, 101, "hello", 1)
	store.ApplyPush(msg)
	store.ApplyPush(msg)
	store.Reconcile([]model.Message{msg})

	if got := len(store.Messages()); got != 1 {
		t.Fatalf("duplicate deliveries must collapse to one message, got %d", got)
	}
}

func TestAppendedPositionsNeverMove(t *testing.T) {
	store := newStore(t)

	// Delivered out of timestamp order: the push with the later timestamp
	// arrives first and must keep position 0 forever.
	late := serverMsg(202, 101, "late", 5)
	early := serverMsg(101, 202, "early", 1)
	store.ApplyPush(late)
	store.Reconcile([]model.Message{early})

	messages := store.Messages()
	if messages[0].Content != "late" || messages[1].Content != "early" {
		t.Fatalf("timeline must keep delivery order, got %q then %q", messages[0].Content, messages[1].Content)
	}

	// A repeat of the same listing must not shuffle anything either.
	store.Reconcile([]model.Message{early, late})
	messages = store.Messages()
	if messages[0].Content != "late" || messages[1].Content != "early" {
		t.Fatalf("reconcile must keep positions, got %q then %q", messages[0].Content, messages[1].Content)
	}
}

func TestApplyPushIgnoresOtherConversations(t *testing.T) {
	store := newStore(t)

	store.ApplyPush(serverMsg(999, 101, "stranger", 1))
	store.ApplyPush(serverMsg(101, 999, "to stranger", 2))

	if got := len(store.Messages()); got != 0 {
		t.Fatalf("pushes outside the pair must be dropped, got %d messages", got)
	}

	store.ApplyPush(serverMsg(202, 101, "from peer", 3))
	store.ApplyPush(serverMsg(101, 202, "own echo", 4))

	if got := len(store.Messages()); got != 2 {
		t.Fatalf("pair pushes must be kept, got %d messages", got)
	}
}

func TestPeerPushTriggersOneMarkRead(t *testing.T) {
	var calls [][2]int64
	marker := ReadMarkerFunc(func(selfID, peerID int64) {
		calls = append(calls, [2]int64{selfID, peerID})
	})

	store, err := NewStore(101, 202, marker, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	store.ApplyPush(serverMsg(202, 101, "hi", 1))

	if len(calls) != 1 {
		t.Fatalf("expected exactly one mark-read call, got %d", len(calls))
	}
	if calls[0] != [2]int64{101, 202} {
		t.Fatalf("mark-read must target (self, peer), got %v", calls[0])
	}
	if got := store.UnreadCount(); got != 0 {
		t.Fatalf("a peer push while viewing must read as seen, unread=%d", got)
	}

	// Own messages echoed back must not trigger the marker.
	store.ApplyPush(serverMsg(101, 202, "mine", 2))
	if len(calls) != 1 {
		t.Fatalf("own echo must not fire mark-read, got %d calls", len(calls))
	}
}

func TestCloseDropsLaterAppends(t *testing.T) {
	store := newStore(t)

	store.ApplyPush(serverMsg(202, 101, "before", 1))
	store.Close()
	store.Close()

	store.ApplyPush(serverMsg(202, 101, "after", 2))
	store.Reconcile([]model.Message{serverMsg(202, 101, "listed", 3)})
	if err := store.AppendLocal(model.Message{SenderID: 101, ReceiverID: 202, Content: "x", ClientNonce: "n"}); err != ErrClosed {
		t.Fatalf("append after close must fail with ErrClosed, got %v", err)
	}

	if got := len(store.Messages()); got != 1 {
		t.Fatalf("closed store must drop appends, got %d messages", got)
	}
}

func TestRevealStateIsMonotonic(t *testing.T) {
	store := newStore(t)

	msg := serverMsg(202, 101, model.ImageOnlyContent, 1)
	msg.HasAttachment = true
	store.ApplyPush(msg)

	revealed := msg
	revealed.ImageURL = "https://cdn/secret.jpg"
	revealed.IsImageRevealed = true
	store.ApplyPush(revealed)

	// An older snapshot without the reveal must not undo it.
	store.Reconcile([]model.Message{msg})

	messages := store.Messages()
	if !messages[0].IsImageRevealed {
		t.Fatalf("reveal state must never move backwards")
	}
	if messages[0].ImageURL == "" {
		t.Fatalf("revealed url must survive stale snapshots")
	}
}

func TestUnreadCountAndLocalRead(t *testing.T) {
	store := newStore(t)

	store.Bootstrap([]model.Message{
		serverMsg(202, 101, "one", 1),
		serverMsg(202, 101, "two", 2),
		serverMsg(101, 202, "mine", 3),
	})

	if got := store.UnreadCount(); got != 2 {
		t.Fatalf("unexpected unread count: %d", got)
	}

	if changed := store.MarkLocalRead(); changed != 2 {
		t.Fatalf("expected 2 messages marked read, got %d", changed)
	}
	if got := store.UnreadCount(); got != 0 {
		t.Fatalf("unread count must drop to zero, got %d", got)
	}
	if changed := store.MarkLocalRead(); changed != 0 {
		t.Fatalf("repeated mark read must be a no-op, got %d", changed)
	}
}

func TestApplyReadMarkerMarksOwnMessages(t *testing.T) {
	store := newStore(t)

	store.Bootstrap([]model.Message{
		serverMsg(101, 202, "mine", 1),
		serverMsg(202, 101, "theirs", 2),
	})

	store.ApplyReadMarker(at(3))

	for _, msg := range store.Messages() {
		if msg.SenderID == 101 && !msg.Read {
			t.Fatalf("own messages must be marked read by the peer marker")
		}
		if msg.SenderID == 202 && msg.Read {
			t.Fatalf("peer messages must not be touched by the peer marker")
		}
	}
}

func TestChannelDisposerIsIdempotent(t *testing.T) {
	channel := NewChannel()

	received := 0
	dispose, err := channel.Subscribe(101, func(Event) { received++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	channel.Publish(101, Event{Kind: EventMessageNew})
	if received != 1 {
		t.Fatalf("expected one delivery, got %d", received)
	}

	dispose()
	dispose()
	dispose()

	if got := channel.SubscriberCount(101); got != 0 {
		t.Fatalf("disposer must detach exactly once, %d subscribers left", got)
	}

	channel.Publish(101, Event{Kind: EventMessageNew})
	if received != 1 {
		t.Fatalf("detached subscriber must not receive events, got %d", received)
	}
}

func TestChannelDeliversPerUser(t *testing.T) {
	channel := NewChannel()

	var a, b int
	disposeA, err := channel.Subscribe(101, func(Event) { a++ })
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	defer disposeA()
	disposeB, err := channel.Subscribe(202, func(Event) { b++ })
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}
	defer disposeB()

	channel.Publish(101, Event{Kind: EventMatchCreated, MatchID: 7})
	channel.Publish(101, Event{Kind: EventMessageNew})
	channel.Publish(202, Event{Kind: EventMessageNew})

	if a != 2 || b != 1 {
		t.Fatalf("events must stay scoped to their user: a=%d b=%d", a, b)
	}
}

func TestChannelRejectsBadSubscription(t *testing.T) {
	channel := NewChannel()

	if _, err := channel.Subscribe(0, func(Event) {}); err != ErrValidation {
		t.Fatalf("expected validation error for user id 0, got %v", err)
	}
	if _, err := channel.Subscribe(101, nil); err != ErrValidation {
		t.Fatalf("expected validation error for nil sink, got %v", err)
	}
}

func TestDispatchDecodesWireFrames(t *testing.T) {
	channel := NewChannel()

	var events []Event
	dispose, err := channel.Subscribe(101, func(e Event) { events = append(events, e) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer dispose()

	msg := serverMsg(202, 101, "hello", 1)
	frame, err := ws.NewEvent(ws.EventTypeMessageNew, ws.MessagePayload{Message: msg})
	if err != nil {
		t.Fatalf("build message frame: %v", err)
	}
	if err := channel.Dispatch(101, *frame); err != nil {
		t.Fatalf("dispatch message frame: %v", err)
	}

	matchFrame, err := ws.NewEvent(ws.EventTypeMatchCreated, ws.MatchCreatedPayload{MatchID: 9, OtherUserID: 202})
	if err != nil {
		t.Fatalf("build match frame: %v", err)
	}
	if err := channel.Dispatch(101, *matchFrame); err != nil {
		t.Fatalf("dispatch match frame: %v", err)
	}

	// Keepalive frames carry nothing the channel models.
	if err := channel.Dispatch(101, ws.Event{Type: ws.EventTypePong}); err != nil {
		t.Fatalf("dispatch pong frame: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 decoded events, got %d", len(events))
	}
	if events[0].Kind != EventMessageNew || events[0].Message.ID != msg.ID {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Kind != EventMatchCreated || events[1].MatchID != 9 || events[1].UserID != 202 {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}
