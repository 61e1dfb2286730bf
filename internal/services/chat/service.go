package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ViceKink/vice-kink-backend/internal/domain/enums"
	"github.com/ViceKink/vice-kink-backend/internal/domain/model"
	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotMatched      = errors.New("users are not matched")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotRecipient    = errors.New("only the recipient can reveal an image")
	ErrNoImage         = errors.New("message carries no image")
	ErrEmptyMessage    = errors.New("message needs text or an image")
	ErrDependenciesNil = errors.New("chat dependencies are not configured")
)

const maxContentLen = 4000

type MessageStore interface {
	Insert(ctx context.Context, msg pgrepo.MessageRecord) (pgrepo.MessageRecord, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (pgrepo.MessageRecord, error)
	ListBetween(ctx context.Context, userID, otherID int64, limit int) ([]pgrepo.MessageRecord, error)
	MarkReadFrom(ctx context.Context, userID, otherID int64) (int64, error)
	RevealImage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID, viewerID int64) (bool, error)
}

type MatchChecker interface {
	AreMatched(ctx context.Context, userID, otherID int64) (bool, error)
}

// CoinSpender debits the image reveal price inside the reveal transaction.
type CoinSpender interface {
	SpendOnFeature(ctx context.Context, tx pgx.Tx, userID int64, feature enums.CoinFeature) error
}

// Notifier pushes realtime chat events. Delivery is best effort and never
// fails the write path.
type Notifier interface {
	MessageNew(ctx context.Context, msg model.Message)
	MessagesRead(ctx context.Context, readerID, senderID int64, count int64)
}

type Config struct {
	ListLimit int
}

type SendResult struct {
	Message model.Message
	Created bool
}

type Service struct {
	pool     *pgxpool.Pool
	messages MessageStore
	matches  MatchChecker
	coins    CoinSpender
	notifier Notifier
	logger   *zap.Logger
	cfg      Config
	runTx    func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	now      func() time.Time
}

type Dependencies struct {
	Pool     *pgxpool.Pool
	Messages MessageStore
	Matches  MatchChecker
	Coins    CoinSpender
	Notifier Notifier
	Logger   *zap.Logger
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 500
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &Service{
		pool:     deps.Pool,
		messages: deps.Messages,
		matches:  deps.Matches,
		coins:    deps.Coins,
		notifier: deps.Notifier,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
	svc.runTx = func(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
		return pgrepo.WithTx(ctx, svc.pool, fn)
	}
	return svc
}

// SendMessage stores a message between matched users and pushes it to the
// receiver. An image-only message keeps a single-space content placeholder
// so downstream consumers never see an empty body. Retries with the same
// client nonce return the originally stored message with Created=false.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID int64, content, imageURL, clientNonce string) (SendResult, error) {
	if senderID <= 0 || receiverID <= 0 || senderID == receiverID {
		return SendResult{}, ErrValidation
	}
	if strings.TrimSpace(clientNonce) == "" {
		return SendResult{}, ErrValidation
	}
	if s.messages == nil || s.matches == nil {
		return SendResult{}, ErrDependenciesNil
	}

	content = strings.TrimSpace(content)
	imageURL = strings.TrimSpace(imageURL)
	if len(content) > maxContentLen {
		return SendResult{}, ErrValidation
	}
	if content == "" {
		if imageURL == "" {
			return SendResult{}, ErrEmptyMessage
		}
		content = model.ImageOnlyContent
	}

	matched, err := s.matches.AreMatched(ctx, senderID, receiverID)
	if err != nil {
		return SendResult{}, fmt.Errorf("check match: %w", err)
	}
	if !matched {
		return SendResult{}, ErrNotMatched
	}

	record, created, err := s.messages.Insert(ctx, pgrepo.MessageRecord{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		ImageURL:    imageURL,
		ClientNonce: strings.TrimSpace(clientNonce),
	})
	if err != nil {
		return SendResult{}, err
	}

	msg := mapRecord(record)
	if created && s.notifier != nil {
		// The receiver gets the masked view so an unrevealed attachment URL
		// never travels over the push channel.
		s.notifier.MessageNew(ctx, s.maskForViewer(msg, receiverID))
	}

	return SendResult{Message: msg, Created: created}, nil
}

// ListConversation returns the conversation in chronological order and
// kicks off a read-marking pass for the viewer. The mark-read write is
// detached from the request: its failure is logged, never surfaced.
func (s *Service) ListConversation(ctx context.Context, userID, otherID int64) ([]model.Message, error) {
	if userID <= 0 || otherID <= 0 || userID == otherID {
		return nil, ErrValidation
	}
	if s.messages == nil {
		return nil, ErrDependenciesNil
	}

	records, err := s.messages.ListBetween(ctx, userID, otherID, s.cfg.ListLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, s.maskForViewer(mapRecord(record), userID))
	}

	go func() {
		bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, err := s.markRead(bg, userID, otherID); err != nil {
			s.logger.Warn("background mark read failed",
				zap.Int64("user_id", userID),
				zap.Int64("other_id", otherID),
				zap.Error(err),
			)
		}
	}()

	return messages, nil
}

// MarkRead marks the conversation read for the viewer and reports how many
// messages changed state. Marking an already read conversation is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, otherID int64) (int64, error) {
	if userID <= 0 || otherID <= 0 || userID == otherID {
		return 0, ErrValidation
	}
	if s.messages == nil {
		return 0, ErrDependenciesNil
	}
	return s.markRead(ctx, userID, otherID)
}

func (s *Service) markRead(ctx context.Context, userID, otherID int64) (int64, error) {
	count, err := s.messages.MarkReadFrom(ctx, userID, otherID)
	if err != nil {
		return 0, err
	}
	if count > 0 && s.notifier != nil {
		s.notifier.MessagesRead(ctx, userID, otherID, count)
	}
	return count, nil
}

// RevealImage charges the image reveal price and unmasks the attachment
// for its recipient. The flag only moves from hidden to revealed; a repeat
// reveal succeeds without a second charge.
func (s *Service) RevealImage(ctx context.Context, viewerID int64, messageID uuid.UUID) (model.Message, error) {
	if viewerID <= 0 || messageID == uuid.Nil {
		return model.Message{}, ErrValidation
	}
	if s.messages == nil || s.coins == nil {
		return model.Message{}, ErrDependenciesNil
	}

	record, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Message{}, ErrMessageNotFound
		}
		return model.Message{}, err
	}

	if record.ReceiverID != viewerID {
		return model.Message{}, ErrNotRecipient
	}
	if record.ImageURL == "" {
		return model.Message{}, ErrNoImage
	}
	if record.IsImageRevealed {
		return s.maskForViewer(mapRecord(record), viewerID), nil
	}

	if err := s.runTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		flipped, err := s.messages.RevealImage(txCtx, tx, messageID, viewerID)
		if err != nil {
			return err
		}
		if !flipped {
			// Lost the race to a concurrent reveal. Treat as success and
			// skip the charge.
			return nil
		}
		return s.coins.SpendOnFeature(txCtx, tx, viewerID, enums.CoinFeatureRevealImage)
	}); err != nil {
		return model.Message{}, err
	}

	record.IsImageRevealed = true
	return s.maskForViewer(mapRecord(record), viewerID), nil
}

// maskForViewer hides the attachment URL from a recipient who has not paid
// for the reveal. Senders always see their own attachment.
func (s *Service) maskForViewer(msg model.Message, viewerID int64) model.Message {
	if msg.HasImage() && !msg.ImageVisibleTo(viewerID) {
		msg.ImageURL = ""
	}
	return msg
}

func mapRecord(record pgrepo.MessageRecord) model.Message {
	return model.Message{
		ID:              record.ID,
		SenderID:        record.SenderID,
		ReceiverID:      record.ReceiverID,
		Content:         record.Content,
		ImageURL:        record.ImageURL,
		HasAttachment:   record.ImageURL != "",
		IsImageRevealed: record.IsImageRevealed,
		Read:            record.Read,
		ClientNonce:     record.ClientNonce,
		CreatedAt:       record.CreatedAt,
	}
}
