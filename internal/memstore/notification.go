package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
)

type notificationRow struct {
	n   domain.Notification
	seq int64
}

// NotificationStore is an in-memory notification store.
type NotificationStore struct {
	mu            sync.RWMutex
	clock         *clock
	notifications map[uuid.UUID]*notificationRow

	// failCreate, when set, makes Create return this error.
	failCreate error
}

// NewNotificationStore creates an empty NotificationStore.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{clock: newClock(), notifications: make(map[uuid.UUID]*notificationRow)}
}

// FailCreate makes subsequent Create calls fail with err until called with nil.
func (s *NotificationStore) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreate = err
}

func copyNotification(n domain.Notification) domain.Notification {
	if n.ReadAt != nil {
		t := *n.ReadAt
		n.ReadAt = &t
	}
	return n
}

// Create stores a new unread notification.
func (s *NotificationStore) Create(_ context.Context, n domain.Notification) (*domain.Notification, error) {
	now, seq := s.clock.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return nil, s.failCreate
	}
	if _, exists := s.notifications[n.ID]; exists {
		return nil, fmt.Errorf("%w: notification %s", domain.ErrConflict, n.ID)
	}
	for _, row := range s.notifications {
		if row.n.ClaimID == n.ClaimID {
			return nil, fmt.Errorf("%w: notification for claim %s", domain.ErrConflict, n.ClaimID)
		}
	}
	n.Read = false
	n.ReadAt = nil
	n.CreatedAt = now
	s.notifications[n.ID] = &notificationRow{n: n, seq: seq}

	out := copyNotification(n)
	return &out, nil
}

// FindByID returns a notification by id.
func (s *NotificationStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyNotification(row.n)
	return &out, nil
}

// FindByClaim returns the notification created for a claim.
func (s *NotificationStore) FindByClaim(_ context.Context, claimID uuid.UUID) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.notifications {
		if row.n.ClaimID == claimID {
			out := copyNotification(row.n)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListByUser returns a user's notifications, newest first.
func (s *NotificationStore) ListByUser(_ context.Context, userID int64) ([]domain.Notification, error) {
	s.mu.RLock()
	rows := make([]*notificationRow, 0)
	for _, row := range s.notifications {
		if row.n.UserID == userID {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyNotification(row.n))
	}
	return out, nil
}

// CountUnread counts a user's unread notifications.
func (s *NotificationStore) CountUnread(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, row := range s.notifications {
		if row.n.UserID == userID && !row.n.Read {
			n++
		}
	}
	return n, nil
}

// MarkRead sets read_at on the first call only.
func (s *NotificationStore) MarkRead(_ context.Context, id uuid.UUID) (*domain.Notification, error) {
	now, _ := s.clock.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !row.n.Read {
		row.n.Read = true
		row.n.ReadAt = &now
	}
	out := copyNotification(row.n)
	return &out, nil
}

// Delete removes a notification.
func (s *NotificationStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}
