package matches

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

var ErrValidation = errors.New("validation error")

type MatchStore interface {
	ListForUser(ctx context.Context, userID int64, limit int) ([]pgrepo.MatchRecord, error)
	ExistsBetween(ctx context.Context, userID, otherID int64) (bool, error)
}

type Service struct {
	matchStore MatchStore
}

type Dependencies struct {
	MatchStore MatchStore
}

// MatchItem is one conversation row of the matches screen: the other user
// plus the chat preview fields.
type MatchItem struct {
	ID          int64
	OtherUserID int64
	DisplayName string
	Age         int
	City        string
	AvatarURL   string
	LastMessage string
	UnreadCount int
	MatchedAt   time.Time
}

func NewService(deps Dependencies) *Service {
	return &Service{
		matchStore: deps.MatchStore,
	}
}

func (s *Service) List(ctx context.Context, userID int64, limit int) ([]MatchItem, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.matchStore == nil {
		return nil, fmt.Errorf("match store is nil")
	}

	rows, err := s.matchStore.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]MatchItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, MatchItem{
			ID:          row.ID,
			OtherUserID: row.OtherUserID,
			DisplayName: row.DisplayName,
			Age:         row.Age,
			City:        row.City,
			AvatarURL:   row.AvatarURL,
			LastMessage: row.LastMessage,
			UnreadCount: row.UnreadCount,
			MatchedAt:   row.MatchedAt,
		})
	}
	return items, nil
}

// AreMatched reports whether the two users may message each other.
func (s *Service) AreMatched(ctx context.Context, userID, otherID int64) (bool, error) {
	if userID <= 0 || otherID <= 0 || userID == otherID {
		return false, ErrValidation
	}
	if s.matchStore == nil {
		return false, fmt.Errorf("match store is nil")
	}
	return s.matchStore.ExistsBetween(ctx, userID, otherID)
}
