package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sumire/lostfound/internal/domain"
	"github.com/sumire/lostfound/internal/memstore"
)

type fakeQueue struct {
	mu     sync.Mutex
	claims []uuid.UUID
	err    error
}

func (q *fakeQueue) EnqueueRedelivery(_ context.Context, claimID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.claims = append(q.claims, claimID)
	return q.err
}

type fixture struct {
	store         *memstore.Store
	reports       *ReportService
	claims        *ClaimService
	notifications *NotificationService
	queue         *fakeQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	q := &fakeQueue{}
	notifications := NewNotificationService(store.Notifications, store.Claims, store.Reports, store.Users)
	return &fixture{
		store:         store,
		reports:       NewReportService(store.Reports, ReportPolicy{}),
		claims:        NewClaimService(store.Reports, store.Claims, notifications, q),
		notifications: notifications,
		queue:         q,
	}
}

func (f *fixture) user(t *testing.T, name string) domain.User {
	t.Helper()
	u, err := f.store.Users.Upsert(context.Background(), domain.User{
		Provider:    domain.AuthProviderGoogle,
		ProviderID:  name,
		Email:       name + "@campus.edu",
		DisplayName: name,
	})
	require.NoError(t, err)
	return *u
}

func (f *fixture) report(t *testing.T, creator int64, kind domain.ReportKind, title string) domain.Report {
	t.Helper()
	created, err := f.reports.Create(context.Background(), CreateReportInput{
		CreatorID:  creator,
		Kind:       kind,
		Title:      title,
		LocationID: "Library",
		OccurredAt: time.Now().UTC().Add(-time.Hour),
		Tags:       []string{"Electronics"},
	})
	require.NoError(t, err)
	return created.Report
}
