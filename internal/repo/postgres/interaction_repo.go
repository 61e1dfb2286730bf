package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InteractionRepo struct {
	pool *pgxpool.Pool
}

type IncomingLikerRecord struct {
	InteractionID int64
	LikerUserID   int64
	DisplayName   string
	Age           int
	City          string
	AvatarURL     string
	IsRevealed    bool
	CreatedAt     time.Time
}

func NewInteractionRepo(pool *pgxpool.Pool) *InteractionRepo {
	return &InteractionRepo{pool: pool}
}

// Upsert records the latest interaction from actor to target. A repeated
// swipe on the same profile overwrites the previous kind and keeps the
// reveal flag, so a paid reveal survives a re-like.
func (r *InteractionRepo) Upsert(ctx context.Context, tx pgx.Tx, actorID, targetID int64, kind string) (int64, error) {
	if actorID <= 0 || targetID <= 0 {
		return 0, fmt.Errorf("invalid interaction payload")
	}
	if tx == nil {
		return 0, fmt.Errorf("transaction is required")
	}

	var id int64
	err := tx.QueryRow(ctx, `
INSERT INTO interactions (
	actor_user_id,
	target_user_id,
	kind,
	is_revealed,
	created_at
) VALUES ($1, $2, $3, FALSE, NOW())
ON CONFLICT (actor_user_id, target_user_id) DO UPDATE SET
	kind = EXCLUDED.kind,
	created_at = NOW()
RETURNING id
`, actorID, targetID, kind).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert interaction: %w", err)
	}

	return id, nil
}

func (r *InteractionRepo) ListIncomingLikers(ctx context.Context, userID int64, limit int) ([]IncomingLikerRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []IncomingLikerRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	i.id,
	i.actor_user_id,
	COALESCE(p.display_name, ''),
	COALESCE(DATE_PART('year', AGE(NOW(), p.birthdate::timestamp))::int, 0),
	COALESCE(p.city, ''),
	COALESCE(p.avatar_url, ''),
	i.is_revealed,
	i.created_at
FROM interactions i
JOIN profiles p ON p.user_id = i.actor_user_id
WHERE
	i.target_user_id = $1
	AND i.kind IN ('LIKE', 'SUPERLIKE')
	AND NOT EXISTS (
		SELECT 1
		FROM interactions mine
		WHERE mine.actor_user_id = $1
			AND mine.target_user_id = i.actor_user_id
			AND mine.kind IN ('LIKE', 'SUPERLIKE')
	)
ORDER BY i.created_at DESC, i.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incoming likers: %w", err)
	}
	defer rows.Close()

	items := make([]IncomingLikerRecord, 0, limit)
	for rows.Next() {
		var item IncomingLikerRecord
		if err := rows.Scan(
			&item.InteractionID,
			&item.LikerUserID,
			&item.DisplayName,
			&item.Age,
			&item.City,
			&item.AvatarURL,
			&item.IsRevealed,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan incoming liker: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate incoming likers: %w", rows.Err())
	}

	return items, nil
}

// MarkRevealed flips the reveal flag on the like from liker toward owner.
// Returns false when the like does not exist or was already revealed.
func (r *InteractionRepo) MarkRevealed(ctx context.Context, tx pgx.Tx, ownerID, likerID int64) (bool, error) {
	if ownerID <= 0 || likerID <= 0 {
		return false, fmt.Errorf("invalid reveal payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	result, err := tx.Exec(ctx, `
UPDATE interactions
SET is_revealed = TRUE
WHERE
	actor_user_id = $1
	AND target_user_id = $2
	AND kind IN ('LIKE', 'SUPERLIKE')
	AND is_revealed = FALSE
`, likerID, ownerID)
	if err != nil {
		return false, fmt.Errorf("mark interaction revealed: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// IsRevealed reports the reveal flag on the like from liker toward owner,
// independent of the flip above. Missing likes read as not revealed.
func (r *InteractionRepo) IsRevealed(ctx context.Context, tx pgx.Tx, ownerID, likerID int64) (bool, error) {
	if ownerID <= 0 || likerID <= 0 {
		return false, fmt.Errorf("invalid reveal lookup payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var revealed bool
	err := tx.QueryRow(ctx, `
SELECT is_revealed
FROM interactions
WHERE actor_user_id = $1 AND target_user_id = $2 AND kind IN ('LIKE', 'SUPERLIKE')
LIMIT 1
`, likerID, ownerID).Scan(&revealed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reveal flag: %w", err)
	}

	return revealed, nil
}
