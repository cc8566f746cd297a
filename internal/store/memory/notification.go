package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"blog-api/internal/model"
	"blog-api/internal/store"
)

func (s *Store) CreateNotification(_ context.Context, n model.Notification) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(n.Type) == "" {
		return model.Notification{}, errWithCode("type_required")
	}
	if _, ok := s.users[n.UserID]; !ok {
		return model.Notification{}, store.ErrNotFound
	}

	n.ID = newID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.notifications[n.ID] = n
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) PurgeNotificationsBefore(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, notif := range s.notifications {
		if notif.CreatedAt.Before(before) {
			delete(s.notifications, id)
			n++
		}
	}
	return n, nil
}
