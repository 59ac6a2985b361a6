package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/lostfound/internal/domain"
)

func TestReportCreateValidation(t *testing.T) {
	valid := CreateReportInput{
		CreatorID:  1,
		Kind:       domain.ReportKindLost,
		Title:      "Grey hoodie",
		LocationID: "Gym",
		OccurredAt: time.Now().UTC().Add(-2 * time.Hour),
		Tags:       []string{"Clothing"},
	}

	tests := []struct {
		name   string
		mutate func(*CreateReportInput)
		field  string
	}{
		{"bad kind", func(in *CreateReportInput) { in.Kind = "stolen" }, "kind"},
		{"blank title", func(in *CreateReportInput) { in.Title = "   " }, "title"},
		{"long title", func(in *CreateReportInput) { in.Title = string(make([]byte, maxTitleLen+1)) }, "title"},
		{"no location", func(in *CreateReportInput) { in.LocationID = "" }, "location_id"},
		{"no date", func(in *CreateReportInput) { in.OccurredAt = time.Time{} }, "occurred_at"},
		{"future date", func(in *CreateReportInput) { in.OccurredAt = time.Now().Add(72 * time.Hour) }, "occurred_at"},
		{"bad tag", func(in *CreateReportInput) { in.Tags = []string{"<script>"} }, "tags"},
		{"too many tags", func(in *CreateReportInput) {
			in.Tags = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
		}, "tags"},
		{"blank image", func(in *CreateReportInput) { in.ImageURLs = []string{" "} }, "image_urls"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := valid
			tt.mutate(&in)

			_, err := f.reports.Create(context.Background(), in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestReportCreateLengthCountsCharacters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := CreateReportInput{
		CreatorID:   1,
		Kind:        domain.ReportKindFound,
		Title:       strings.Repeat("傘", maxTitleLen),
		Description: strings.Repeat("黒", maxDescriptionLen),
		LocationID:  "Library",
		OccurredAt:  time.Now().UTC().Add(-time.Hour),
		Tags:        []string{"Accessories"},
	}

	created, err := f.reports.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in.Title, created.Report.Title)

	in.Title += "傘"
	_, err = f.reports.Create(ctx, in)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	in.Title = "Umbrella"
	in.Description += "黒"
	_, err = f.reports.Create(ctx, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)
}

func TestReportCreateRequireImageForFound(t *testing.T) {
	f := newFixture(t)
	svc := NewReportService(f.store.Reports, ReportPolicy{RequireImageForFound: true})
	in := CreateReportInput{
		CreatorID:  1,
		Kind:       domain.ReportKindFound,
		Title:      "AirPods case",
		LocationID: "Cafeteria",
		OccurredAt: time.Now().UTC(),
		Tags:       []string{"Electronics"},
	}

	_, err := svc.Create(context.Background(), in)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "image_urls", verr.Field)

	in.ImageURLs = []string{"https://img/airpods.jpg"}
	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusActive, created.Report.Status)

	// lost reports are unaffected
	in.Kind = domain.ReportKindLost
	in.ImageURLs = nil
	_, err = svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestReportCreateReturnsMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lost := f.report(t, 1, domain.ReportKindLost, "iPhone")

	created, err := f.reports.Create(ctx, CreateReportInput{
		CreatorID:  2,
		Kind:       domain.ReportKindFound,
		Title:      "Black iPhone 13",
		LocationID: "Student Center",
		OccurredAt: time.Now().UTC().AddDate(0, 0, -30),
		Tags:       []string{"Electronics"},
	})
	require.NoError(t, err)
	require.Len(t, created.Matches, 1)
	assert.Equal(t, lost.ID, created.Matches[0].ID)

	matches, err := f.reports.Matches(ctx, lost.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, created.Report.ID, matches[0].ID)
}

func TestReportMatchesSkipArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lost := f.report(t, 1, domain.ReportKindLost, "Laptop")
	found := f.report(t, 2, domain.ReportKindFound, "Laptop")

	_, err := f.reports.Archive(ctx, found.ID, 2)
	require.NoError(t, err)

	matches, err := f.reports.Matches(ctx, lost.ID)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestReportListDefaultsExcludeArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.report(t, 1, domain.ReportKindLost, "Keys")
	gone := f.report(t, 1, domain.ReportKindLost, "Wallet")
	_, err := f.reports.Archive(ctx, gone.ID, 1)
	require.NoError(t, err)

	list, err := f.reports.List(ctx, domain.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	archived, err := f.reports.List(ctx, domain.ReportFilter{Statuses: []domain.ReportStatus{domain.ReportStatusArchived}})
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, gone.ID, archived[0].ID)

	_, err = f.reports.List(ctx, domain.ReportFilter{Statuses: []domain.ReportStatus{"deleted"}})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReportListQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.report(t, 1, domain.ReportKindLost, "Red scarf")
	calc := f.report(t, 2, domain.ReportKindFound, "TI-84 calculator")

	list, err := f.reports.List(ctx, domain.ReportFilter{Query: "CALC"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, calc.ID, list[0].ID)

	mine, err := f.reports.List(ctx, domain.ReportFilter{CreatorID: 2, Kind: domain.ReportKindFound})
	require.NoError(t, err)
	require.Len(t, mine, 1)
}

func TestArchiveIsOneWay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindFound, "Water bottle")

	archived, err := f.reports.Archive(ctx, r.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusArchived, archived.Status)

	_, err = f.reports.Archive(ctx, r.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.reports.Resolve(ctx, r.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := f.reports.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusArchived, got.Status)
}

func TestArchiveRequiresOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindLost, "Headphones")

	_, err := f.reports.Archive(ctx, r.ID, 2)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.reports.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusActive, got.Status)

	_, err = f.reports.Archive(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveThenArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindLost, "Notebook")

	resolved, err := f.reports.Resolve(ctx, r.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusResolved, resolved.Status)

	_, err = f.reports.Resolve(ctx, r.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	archived, err := f.reports.Archive(ctx, r.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportStatusArchived, archived.Status)
}

func TestConcurrentArchiveSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.report(t, 1, domain.ReportKindFound, "Bike lock")

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		invalid   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reports.Archive(ctx, r.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInvalidState):
				invalid++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, invalid)
}
