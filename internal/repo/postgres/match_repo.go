package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepo struct {
	pool *pgxpool.Pool
}

type MatchRecord struct {
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

func NewMatchRepo(pool *pgxpool.Pool) *MatchRepo {
	return &MatchRepo{pool: pool}
}

// EnsureForMutualLike checks for a reciprocal positive interaction and, when
// one exists, materializes the match row. The pair is stored unordered with
// user_a_id < user_b_id so the same match cannot exist twice.
//
// matched is true whenever a reciprocal like exists, created only when this
// call inserted the row. A repeated swipe after a match reports matched=true,
// created=false.
func (r *MatchRepo) EnsureForMutualLike(ctx context.Context, tx pgx.Tx, userID, targetID int64) (matched bool, created bool, matchID int64, err error) {
	if userID <= 0 || targetID <= 0 {
		return false, false, 0, fmt.Errorf("invalid match payload")
	}
	if tx == nil {
		return false, false, 0, fmt.Errorf("transaction is required")
	}

	var one int
	err = tx.QueryRow(ctx, `
SELECT 1
FROM interactions
WHERE actor_user_id = $1 AND target_user_id = $2 AND kind IN ('LIKE', 'SUPERLIKE')
LIMIT 1
`, targetID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, false, 0, nil
		}
		return false, false, 0, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	userA := userID
	userB := targetID
	if userA > userB {
		userA, userB = userB, userA
	}

	err = tx.QueryRow(ctx, `
INSERT INTO matches (
	user_a_id,
	user_b_id,
	created_at
) VALUES ($1, $2, NOW())
ON CONFLICT (user_a_id, user_b_id) DO NOTHING
RETURNING id
`, userA, userB).Scan(&matchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conflict path: the match already exists, look its id up.
			err = tx.QueryRow(ctx, `
SELECT id
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
LIMIT 1
`, userA, userB).Scan(&matchID)
			if err != nil {
				return false, false, 0, fmt.Errorf("lookup existing match: %w", err)
			}
			return true, false, matchID, nil
		}
		return false, false, 0, fmt.Errorf("create match: %w", err)
	}

	return true, true, matchID, nil
}

// ExistsBetween reports whether the two users share a match. Order of the
// arguments does not matter.
func (r *MatchRepo) ExistsBetween(ctx context.Context, userID, otherID int64) (bool, error) {
	if userID <= 0 || otherID <= 0 {
		return false, fmt.Errorf("invalid match lookup payload")
	}
	if r.pool == nil {
		return false, nil
	}

	userA := userID
	userB := otherID
	if userA > userB {
		userA, userB = userB, userA
	}

	var one int
	err := r.pool.QueryRow(ctx, `
SELECT 1
FROM matches
WHERE user_a_id = $1 AND user_b_id = $2
LIMIT 1
`, userA, userB).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup match: %w", err)
	}

	return true, nil
}

func (r *MatchRepo) ListForUser(ctx context.Context, userID int64, limit int) ([]MatchRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	if limit <= 0 {
		limit = 100
	}
	if r.pool == nil {
		return []MatchRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	m.id,
	CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END AS other_user_id,
	COALESCE(p.display_name, ''),
	COALESCE(DATE_PART('year', AGE(NOW(), p.birthdate::timestamp))::int, 0),
	COALESCE(p.city, ''),
	COALESCE(p.avatar_url, ''),
	COALESCE((
		SELECT msg.content
		FROM messages msg
		WHERE (msg.sender_id = $1 AND msg.receiver_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END)
			OR (msg.receiver_id = $1 AND msg.sender_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END)
		ORDER BY msg.created_at DESC
		LIMIT 1
	), ''),
	(
		SELECT COUNT(*)::int
		FROM messages msg
		WHERE msg.receiver_id = $1
			AND msg.sender_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END
			AND msg.read = FALSE
	),
	m.created_at
FROM matches m
JOIN profiles p ON p.user_id = CASE WHEN m.user_a_id = $1 THEN m.user_b_id ELSE m.user_a_id END
WHERE m.user_a_id = $1 OR m.user_b_id = $1
ORDER BY m.created_at DESC, m.id DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	items := make([]MatchRecord, 0, limit)
	for rows.Next() {
		var item MatchRecord
		if err := rows.Scan(
			&item.ID,
			&item.OtherUserID,
			&item.DisplayName,
			&item.Age,
			&item.City,
			&item.AvatarURL,
			&item.LastMessage,
			&item.UnreadCount,
			&item.MatchedAt,
		); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate matches: %w", rows.Err())
	}

	return items, nil
}
