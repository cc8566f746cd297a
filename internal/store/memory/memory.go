package memory

import (
	"context"
	"errors"
	"sync"

	"blog-api/internal/model"

	"github.com/google/uuid"
)

// Store keeps every table in maps guarded by one mutex. It backs tests and
// runs without a database when no DSN is configured.
type Store struct {
	mu sync.Mutex

	users         map[string]model.User
	admins        map[string]model.Admin
	notifications map[string]model.Notification
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]model.User),
		admins:        make(map[string]model.Admin),
		notifications: make(map[string]model.Notification),
	}
}

func (s *Store) Ping(_ context.Context) error { return nil }

func newID() string {
	return uuid.NewString()
}

func errWithCode(code string) error {
	return errors.New(code)
}
