package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/lostfound/internal/domain"
)

func TestCreateClaimRequiresMessage(t *testing.T) {
	for _, kind := range []domain.ReportKind{domain.ReportKindLost, domain.ReportKindFound} {
		for _, msg := range []string{"", "   ", "\n\t"} {
			t.Run(string(kind), func(t *testing.T) {
				f := newFixture(t)
				r := f.report(t, 1, kind, "Calculator")

				_, err := f.claims.Create(context.Background(), CreateClaimInput{
					RequesterID: 42,
					ReportID:    r.ID,
					Message:     msg,
					ImageURLs:   []string{"url1"},
				})
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "message", verr.Field)
			})
		}
	}
}

func TestCreateClaimMessageLengthCountsCharacters(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"multi-byte under limit", strings.Repeat("財", 700), false},
		{"multi-byte at limit", strings.Repeat("é", maxClaimMessageLen), false},
		{"multi-byte over limit", strings.Repeat("財", maxClaimMessageLen+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := f.report(t, 1, domain.ReportKindFound, "Umbrella")

			out, err := f.claims.Create(context.Background(), CreateClaimInput{
				RequesterID: 2,
				ReportID:    r.ID,
				Message:     tt.message,
			})
			if tt.wantErr {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "message", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.message, out.Claim.Message)
		})
	}
}

func TestCreateReturnRequiresImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lost := f.report(t, 1, domain.ReportKindLost, "Student ID")

	_, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: lost.ID, Message: "Found it by the printers"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "image_urls", verr.Field)
	assert.Contains(t, verr.Message, "image required for return")

	out, err := f.claims.Create(ctx, CreateClaimInput{
		RequesterID: 2,
		ReportID:    lost.ID,
		Message:     "Found it by the printers",
		ImageURLs:   []string{"https://img/id.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportKindLost, out.Claim.ReportKind)
	assert.True(t, out.Claim.IsReturn())
}

func TestCreateClaimOnFoundReportAllowsNoImages(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "Dana")
	requester := f.user(t, "Riley")
	found := f.report(t, owner.ID, domain.ReportKindFound, "Black iPhone 13")

	out, err := f.claims.Create(context.Background(), CreateClaimInput{
		RequesterID: requester.ID,
		ReportID:    found.ID,
		Message:     "  Lock screen is a photo of my dog  ",
	})
	require.NoError(t, err)
	require.NoError(t, out.NotifyErr)

	assert.Equal(t, "Lock screen is a photo of my dog", out.Claim.Message)
	assert.False(t, out.Claim.Duplicate)
	require.NotNil(t, out.Notification)
	assert.Equal(t, owner.ID, out.Notification.UserID)
	assert.Equal(t, out.Claim.ID, out.Notification.ClaimID)
	assert.Equal(t, domain.NotificationClaimReceived, out.Notification.Type)
	assert.Contains(t, out.Notification.Message, "Riley")
	assert.Contains(t, out.Notification.Message, "Black iPhone 13")
	assert.False(t, out.Notification.Read)

	// the report is not resolved by a claim
	got, err := f.reports.Get(context.Background(), found.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusActive, got.Status)
}

func TestCreateClaimRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindFound, "Keys")

	_, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 1, ReportID: r.ID, Message: "mine"})
	assert.ErrorIs(t, err, domain.ErrForbidden, "self claim")

	_, err = f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: uuid.New(), Message: "mine"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.reports.Archive(ctx, r.ID, 1)
	require.NoError(t, err)
	_, err = f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: r.ID, Message: "mine"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCreateClaimFlagsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindFound, "Umbrella")

	first, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: r.ID, Message: "mine"})
	require.NoError(t, err)
	second, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: r.ID, Message: "really mine"})
	require.NoError(t, err)
	other, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 3, ReportID: r.ID, Message: "no, mine"})
	require.NoError(t, err)

	assert.False(t, first.Claim.Duplicate)
	assert.True(t, second.Claim.Duplicate)
	assert.False(t, other.Claim.Duplicate)

	claims, err := f.claims.ListByReport(ctx, r.ID, 1)
	require.NoError(t, err)
	assert.Len(t, claims, 3)
}

func TestCreateClaimKeepsClaimWhenNotificationFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindFound, "Laptop charger")
	f.store.Notifications.FailCreate(errors.New("db unavailable"))

	out, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: r.ID, Message: "It's a 65W USB-C"})
	require.NoError(t, err)
	require.Error(t, out.NotifyErr)
	assert.Nil(t, out.Notification)

	stored, err := f.store.Claims.FindByID(ctx, out.Claim.ID)
	require.NoError(t, err)
	assert.Equal(t, out.Claim.ID, stored.ID)
	assert.Equal(t, []uuid.UUID{out.Claim.ID}, f.queue.claims)

	// the queued redelivery succeeds once the store recovers
	f.store.Notifications.FailCreate(nil)
	n, err := f.notifications.Redeliver(ctx, out.Claim.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.UserID)

	again, err := f.notifications.Redeliver(ctx, out.Claim.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, again.ID)
}

func TestCreateClaimToleratesQueueFailure(t *testing.T) {
	f := newFixture(t)
	r := f.report(t, 1, domain.ReportKindFound, "Hat")
	f.store.Notifications.FailCreate(errors.New("db unavailable"))
	f.queue.err = errors.New("redis down")

	out, err := f.claims.Create(context.Background(), CreateClaimInput{RequesterID: 2, ReportID: r.ID, Message: "mine"})
	require.NoError(t, err)
	assert.Error(t, out.NotifyErr)
}

func TestClaimListsAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.report(t, 1, domain.ReportKindFound, "Glasses")
	theirs := f.report(t, 5, domain.ReportKindFound, "Glasses case")

	_, err := f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: mine.ID, Message: "mine"})
	require.NoError(t, err)
	_, err = f.claims.Create(ctx, CreateClaimInput{RequesterID: 2, ReportID: theirs.ID, Message: "also mine"})
	require.NoError(t, err)

	_, err = f.claims.ListByReport(ctx, mine.ID, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	received, err := f.claims.ListReceived(ctx, 1)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, mine.ID, received[0].ReportID)
}
