package postgres

import (
	"context"
	"errors"

	"blog-api/internal/model"
	"blog-api/internal/store"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id::text, username, email, password_hash,
	coalesce(full_name, ''), coalesce(phone_number, ''), coalesce(bio, ''), created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.PhoneNumber, &u.Bio, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, mapPgErr(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := scanUser(s.pool.QueryRow(ctx, `
		insert into public.users (username, email, password_hash, full_name, phone_number, bio)
		values ($1, $2, $3, nullif($4, ''), nullif($5, ''), nullif($6, ''))
		returning `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.FullName, u.PhoneNumber, u.Bio))
	if err != nil {
		return model.User{}, err
	}
	return *out, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	uid, err := rowID(id)
	if err != nil {
		return nil, err
	}
	return scanUser(s.pool.QueryRow(ctx, `
		select `+userColumns+`
		from public.users
		where id = $1::uuid
	`, uid))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanUser(s.pool.QueryRow(ctx, `
		select `+userColumns+`
		from public.users
		where lower(username) = lower($1)
	`, username))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return scanUser(s.pool.QueryRow(ctx, `
		select `+userColumns+`
		from public.users
		where lower(email) = lower($1)
	`, email))
}

func (s *Store) ListUsers(ctx context.Context, f store.UserFilter) ([]model.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		select `+userColumns+`
		from public.users
		order by created_at asc, id asc
		limit $1 offset $2
	`, limit, f.Offset)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgErr(err)
	}
	return out, nil
}

// DeleteUser relies on the notifications FK cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	uid, err := rowID(id)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `delete from public.users where id = $1::uuid`, uid)
	if err != nil {
		return mapPgErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
