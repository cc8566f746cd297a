package postgres

import (
	"context"
	"time"

	"blog-api/internal/model"
)

func (s *Store) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	uid, err := rowID(n.UserID)
	if err != nil {
		return model.Notification{}, err
	}

	var createdAt *time.Time
	if !n.CreatedAt.IsZero() {
		createdAt = &n.CreatedAt
	}

	var out model.Notification
	err = s.pool.QueryRow(ctx, `
		insert into public.notifications (user_id, type, message, is_read, created_at)
		values ($1::uuid, $2, $3, $4, coalesce($5, now()))
		returning id::text, user_id::text, type, message, is_read, created_at
	`, uid, n.Type, n.Message, n.IsRead, createdAt).Scan(
		&out.ID, &out.UserID, &out.Type, &out.Message, &out.IsRead, &out.CreatedAt,
	)
	if err != nil {
		return model.Notification{}, mapPgErr(err)
	}
	return out, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	uid, err := rowID(userID)
	if err != nil {
		return []model.Notification{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		select id::text, user_id::text, type, message, is_read, created_at
		from public.notifications
		where user_id = $1::uuid
		order by created_at desc
	`, uid)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) PurgeNotificationsBefore(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `delete from public.notifications where created_at < $1`, before)
	if err != nil {
		return 0, mapPgErr(err)
	}
	return int(tag.RowsAffected()), nil
}
