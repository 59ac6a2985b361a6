package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/lostfound/internal/domain"
)

func claimFor(t *testing.T, f *fixture, owner, requester int64, kind domain.ReportKind) *ClaimOutcome {
	t.Helper()
	r := f.report(t, owner, kind, "Backpack")
	out, err := f.claims.Create(context.Background(), CreateClaimInput{
		RequesterID: requester,
		ReportID:    r.ID,
		Message:     "Green with a keychain",
		ImageURLs:   []string{"https://img/backpack.jpg"},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Notification)
	return out
}

func TestReturnNotification(t *testing.T) {
	f := newFixture(t)
	out := claimFor(t, f, 1, 2, domain.ReportKindLost)

	assert.Equal(t, domain.NotificationReturnOffered, out.Notification.Type)
	assert.Contains(t, out.Notification.Message, "User 2")
	assert.Contains(t, out.Notification.Message, "Backpack")
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := claimFor(t, f, 1, 2, domain.ReportKindFound)

	first, err := f.notifications.MarkRead(ctx, out.Notification.ID, 1)
	require.NoError(t, err)
	require.True(t, first.Read)
	require.NotNil(t, first.ReadAt)

	time.Sleep(2 * time.Millisecond)
	second, err := f.notifications.MarkRead(ctx, out.Notification.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt))
}

func TestConcurrentMarkReadAgreesOnReadAt(t *testing.T) {
	f := newFixture(t)
	out := claimFor(t, f, 1, 2, domain.ReportKindFound)

	const callers = 16
	results := make([]time.Time, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := f.notifications.MarkRead(context.Background(), out.Notification.ID, 1)
			if assert.NoError(t, err) && assert.NotNil(t, n.ReadAt) {
				results[i] = *n.ReadAt
			}
		}(i)
	}
	wg.Wait()

	for _, at := range results[1:] {
		assert.True(t, results[0].Equal(at))
	}
}

func TestMarkReadAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := claimFor(t, f, 1, 2, domain.ReportKindFound)

	_, err := f.notifications.MarkRead(ctx, out.Notification.ID, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	n, err := f.store.Notifications.FindByID(ctx, out.Notification.ID)
	require.NoError(t, err)
	assert.False(t, n.Read)

	_, err = f.notifications.MarkRead(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListForUserNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	older := claimFor(t, f, 1, 2, domain.ReportKindFound)
	newer := claimFor(t, f, 1, 3, domain.ReportKindLost)
	claimFor(t, f, 9, 2, domain.ReportKindFound)

	_, err := f.notifications.MarkRead(ctx, older.Notification.ID, 1)
	require.NoError(t, err)

	list, err := f.notifications.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.Notification.ID, list[0].ID)
	assert.Equal(t, older.Notification.ID, list[1].ID)
	assert.True(t, list[1].Read)

	unread, err := f.notifications.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
}

func TestDeleteNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := claimFor(t, f, 1, 2, domain.ReportKindFound)

	assert.ErrorIs(t, f.notifications.Delete(ctx, out.Notification.ID, 2), domain.ErrForbidden)
	require.NoError(t, f.notifications.Delete(ctx, out.Notification.ID, 1))
	assert.ErrorIs(t, f.notifications.Delete(ctx, out.Notification.ID, 1), domain.ErrNotFound)

	// the claim survives its notification
	_, err := f.store.Claims.FindByID(ctx, out.Claim.ID)
	assert.NoError(t, err)
}

func TestCreateNotificationOncePerClaim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	out := claimFor(t, f, 1, 2, domain.ReportKindFound)

	again, err := f.notifications.Create(ctx, 1, out.Claim.ID, domain.NotificationClaimReceived, "New claim request", "again")
	require.NoError(t, err)
	assert.Equal(t, out.Notification.ID, again.ID)

	list, err := f.notifications.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestConcurrentRedeliverCreatesOneNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindFound, "Laptop charger")

	f.store.Notifications.FailCreate(assert.AnError)
	out, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: r.ID, Message: "65W USB-C"})
	require.NoError(t, err)
	require.Error(t, out.NotifyErr)
	f.store.Notifications.FailCreate(nil)

	const workers = 8
	var (
		wg  sync.WaitGroup
		ids = make([]uuid.UUID, workers)
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := f.notifications.Redeliver(ctx, out.Claim.ID)
			if assert.NoError(t, err) {
				ids[i] = n.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	list, err := f.notifications.ListForUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
