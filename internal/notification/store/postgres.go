package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"petidentity/internal/notification/models"
	"petidentity/internal/platform/postgres"
	"petidentity/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n *models.Notification) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, title, message, is_read, created_at)
		 VALUES ($1, $2, $3, false, $4) RETURNING id`,
		n.UserID, n.Title, n.Message, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]*models.Notification, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT id, user_id, title, message, is_read, created_at
		 FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, userID, id int64) (*models.Notification, error) {
	var n models.Notification
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`UPDATE notifications SET is_read = true
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, message, is_read, created_at`, id, userID,
	).Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	return &n, nil
}
