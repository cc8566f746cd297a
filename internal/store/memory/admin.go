package memory

import (
	"context"
	"strings"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/store"
)

func (s *Store) CreateAdmin(_ context.Context, a model.Admin) (model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.TrimSpace(a.Username)
	if username == "" {
		return model.Admin{}, errWithCode("username_required")
	}
	email := strings.TrimSpace(a.Email)
	if email == "" {
		return model.Admin{}, errWithCode("email_required")
	}

	for _, existing := range s.admins {
		if strings.EqualFold(existing.Username, username) {
			return model.Admin{}, &store.ConflictError{Field: "username"}
		}
		if strings.EqualFold(existing.Email, email) {
			return model.Admin{}, &store.ConflictError{Field: "email"}
		}
	}

	a.ID = newID()
	a.Username = username
	a.Email = email
	a.CreatedAt = time.Now().UTC()
	s.admins[a.ID] = a
	return a, nil
}

func (s *Store) GetAdminByUsername(_ context.Context, username string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.admins {
		if strings.EqualFold(a.Username, username) {
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) GetAdminByEmail(_ context.Context, email string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.admins {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, store.ErrNotFound
}
