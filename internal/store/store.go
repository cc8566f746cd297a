package store

import (
	"context"
	"errors"
	"time"

	"blog-api/internal/model"
)

var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
)

// ConflictError reports which unique field collided on insert.
// errors.Is(err, ErrConflict) holds for every ConflictError.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Field }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type UserFilter struct {
	Limit  int
	Offset int
}

type Store interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]model.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateAdmin(ctx context.Context, a model.Admin) (model.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error)

	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	PurgeNotificationsBefore(ctx context.Context, before time.Time) (int, error)

	Ping(ctx context.Context) error
}
