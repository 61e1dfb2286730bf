package ws

import (
	"context"

	"go.uber.org/zap"

	"github.com/ViceKink/vice-kink-backend/internal/domain/model"
)

// HubNotifier adapts the hub to the notifier interfaces of the chat and
// interaction services.
type HubNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *Hub, logger *zap.Logger) *HubNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) MessageNew(_ context.Context, msg model.Message) {
	evt, err := NewEvent(EventTypeMessageNew, MessagePayload{Message: msg})
	if err != nil {
		n.logger.Warn("ws notifier marshal failed", zap.Error(err))
		return
	}
	n.hub.SendToUser(msg.ReceiverID, evt)
}

func (n *HubNotifier) MessagesRead(_ context.Context, readerID, senderID int64, count int64) {
	evt, err := NewEvent(EventTypeMessagesRead, MessagesReadPayload{ReaderID: readerID, Count: count})
	if err != nil {
		n.logger.Warn("ws notifier marshal failed", zap.Error(err))
		return
	}
	n.hub.SendToUser(senderID, evt)
}

// MatchCreated pushes the celebration event to both parties.
func (n *HubNotifier) MatchCreated(_ context.Context, matchID, userAID, userBID int64) {
	for _, pair := range [][2]int64{{userAID, userBID}, {userBID, userAID}} {
		evt, err := NewEvent(EventTypeMatchCreated, MatchCreatedPayload{
			MatchID:     matchID,
			OtherUserID: pair[1],
		})
		if err != nil {
			n.logger.Warn("ws notifier marshal failed", zap.Error(err))
			return
		}
		n.hub.SendToUser(pair[0], evt)
	}
}
