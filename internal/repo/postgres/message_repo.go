package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

type MessageRecord struct {
	ID              uuid.UUID
	SenderID        int64
	ReceiverID      int64
	Content         string
	ImageURL        string
	IsImageRevealed bool
	Read            bool
	ClientNonce     string
	CreatedAt       time.Time
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// Insert stores a message. The (sender_id, client_nonce) pair is unique, so
// a retried send returns the originally stored row instead of a duplicate.
func (r *MessageRepo) Insert(ctx context.Context, msg MessageRecord) (MessageRecord, bool, error) {
	if msg.SenderID <= 0 || msg.ReceiverID <= 0 {
		return MessageRecord{}, false, fmt.Errorf("invalid message payload")
	}
	if msg.ClientNonce == "" {
		return MessageRecord{}, false, fmt.Errorf("client nonce is required")
	}
	if r.pool == nil {
		return MessageRecord{}, false, fmt.Errorf("postgres pool is nil")
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO messages (
	id,
	sender_id,
	receiver_id,
	content,
	image_url,
	is_image_revealed,
	read,
	client_nonce,
	created_at
) VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6, NOW())
ON CONFLICT (sender_id, client_nonce) DO NOTHING
RETURNING id, created_at
`, msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.ImageURL, msg.ClientNonce).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			existing, lookupErr := r.getByNonce(ctx, msg.SenderID, msg.ClientNonce)
			if lookupErr != nil {
				return MessageRecord{}, false, lookupErr
			}
			return existing, false, nil
		}
		return MessageRecord{}, false, fmt.Errorf("insert message: %w", err)
	}

	return msg, true, nil
}

func (r *MessageRepo) getByNonce(ctx context.Context, senderID int64, nonce string) (MessageRecord, error) {
	var msg MessageRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, sender_id, receiver_id, content, image_url, is_image_revealed, read, client_nonce, created_at
FROM messages
WHERE sender_id = $1 AND client_nonce = $2
LIMIT 1
`, senderID, nonce).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.ImageURL,
		&msg.IsImageRevealed,
		&msg.Read,
		&msg.ClientNonce,
		&msg.CreatedAt,
	)
	if err != nil {
		return MessageRecord{}, fmt.Errorf("lookup message by nonce: %w", err)
	}
	return msg, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (MessageRecord, error) {
	if id == uuid.Nil {
		return MessageRecord{}, fmt.Errorf("invalid message id")
	}
	if r.pool == nil {
		return MessageRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var msg MessageRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, sender_id, receiver_id, content, image_url, is_image_revealed, read, client_nonce, created_at
FROM messages
WHERE id = $1
LIMIT 1
`, id).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Content,
		&msg.ImageURL,
		&msg.IsImageRevealed,
		&msg.Read,
		&msg.ClientNonce,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MessageRecord{}, pgx.ErrNoRows
		}
		return MessageRecord{}, fmt.Errorf("get message: %w", err)
	}

	return msg, nil
}

// ListBetween returns the full conversation between the two users in
// ascending chronological order.
func (r *MessageRepo) ListBetween(ctx context.Context, userID, otherID int64, limit int) ([]MessageRecord, error) {
	if userID <= 0 || otherID <= 0 {
		return nil, fmt.Errorf("invalid conversation payload")
	}
	if limit <= 0 {
		limit = 500
	}
	if r.pool == nil {
		return []MessageRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, sender_id, receiver_id, content, image_url, is_image_revealed, read, client_nonce, created_at
FROM messages
WHERE (sender_id = $1 AND receiver_id = $2)
	OR (sender_id = $2 AND receiver_id = $1)
ORDER BY created_at ASC, id ASC
LIMIT $3
`, userID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	items := make([]MessageRecord, 0, 64)
	for rows.Next() {
		var msg MessageRecord
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.ImageURL,
			&msg.IsImageRevealed,
			&msg.Read,
			&msg.ClientNonce,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate conversation: %w", rows.Err())
	}

	return items, nil
}

// MarkReadFrom marks every message sent by otherID to userID as read and
// returns how many rows changed. Marking an already read conversation is a
// no-op reporting zero.
func (r *MessageRepo) MarkReadFrom(ctx context.Context, userID, otherID int64) (int64, error) {
	if userID <= 0 || otherID <= 0 {
		return 0, fmt.Errorf("invalid mark read payload")
	}
	if r.pool == nil {
		return 0, nil
	}

	result, err := r.pool.Exec(ctx, `
UPDATE messages
SET read = TRUE
WHERE receiver_id = $1 AND sender_id = $2 AND read = FALSE
`, userID, otherID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}

	return result.RowsAffected(), nil
}

// RevealImage flips the image reveal flag on a message the viewer received.
// Returns false when the flag was already set or the message is not an
// unrevealed image addressed to the viewer.
func (r *MessageRepo) RevealImage(ctx context.Context, tx pgx.Tx, messageID uuid.UUID, viewerID int64) (bool, error) {
	if messageID == uuid.Nil || viewerID <= 0 {
		return false, fmt.Errorf("invalid image reveal payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
UPDATE messages
SET is_image_revealed = TRUE
WHERE id = $1
	AND receiver_id = $2
	AND image_url <> ''
	AND is_image_revealed = FALSE
`, messageID, viewerID)
	if err != nil {
		return false, fmt.Errorf("reveal message image: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
