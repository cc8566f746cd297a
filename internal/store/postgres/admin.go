package postgres

import (
	"context"
	"errors"

	"blog-api/internal/model"
	"blog-api/internal/store"

	"github.com/jackc/pgx/v5"
)

func scanAdmin(row pgx.Row) (*model.Admin, error) {
	var a model.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, mapPgErr(err)
	}
	return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a model.Admin) (model.Admin, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := scanAdmin(s.pool.QueryRow(ctx, `
		insert into public.admins (username, email, password_hash)
		values ($1, $2, $3)
		returning id::text, username, email, password_hash, created_at
	`, a.Username, a.Email, a.PasswordHash))
	if err != nil {
		return model.Admin{}, err
	}
	return *out, nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanAdmin(s.pool.QueryRow(ctx, `
		select id::text, username, email, password_hash, created_at
		from public.admins
		where lower(username) = lower($1)
	`, username))
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanAdmin(s.pool.QueryRow(ctx, `
		select id::text, username, email, password_hash, created_at
		from public.admins
		where lower(email) = lower($1)
	`, email))
}
