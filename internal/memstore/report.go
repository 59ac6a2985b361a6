package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
)

type reportRow struct {
	report domain.Report
	seq    int64
}

// ReportStore is an in-memory report store.
type ReportStore struct {
	mu      sync.RWMutex
	clock   *clock
	reports map[uuid.UUID]*reportRow
}

// NewReportStore creates an empty ReportStore.
func NewReportStore() *ReportStore {
	return &ReportStore{clock: newClock(), reports: make(map[uuid.UUID]*reportRow)}
}

func copyReport(r domain.Report) domain.Report {
	r.Tags = cloneStrings(r.Tags)
	r.ImageURLs = cloneStrings(r.ImageURLs)
	return r
}

// Create stores a new report.
func (s *ReportStore) Create(_ context.Context, report domain.Report) (*domain.Report, error) {
	now, seq := s.clock.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reports[report.ID]; exists {
		return nil, fmt.Errorf("report %s already exists", report.ID)
	}
	report = copyReport(report)
	report.CreatedAt = now
	report.UpdatedAt = now
	s.reports[report.ID] = &reportRow{report: report, seq: seq}

	out := copyReport(report)
	return &out, nil
}

// FindByID returns a report by id.
func (s *ReportStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyReport(row.report)
	return &out, nil
}

// List returns reports matching filter, newest first.
func (s *ReportStore) List(_ context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	s.mu.RLock()
	rows := make([]*reportRow, 0, len(s.reports))
	for _, row := range s.reports {
		if reportMatchesFilter(row.report, filter) {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	out := make([]domain.Report, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyReport(row.report))
	}
	return out, nil
}

// TransitionStatus moves a report to next under the write lock, so of two
// concurrent archive calls only the first succeeds.
func (s *ReportStore) TransitionStatus(_ context.Context, id uuid.UUID, next domain.ReportStatus) (*domain.Report, error) {
	now, _ := s.clock.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !row.report.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: report is %s", domain.ErrInvalidState, row.report.Status)
	}
	row.report.Status = next
	row.report.UpdatedAt = now

	out := copyReport(row.report)
	return &out, nil
}

func (s *ReportStore) creatorOf(id uuid.UUID) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.reports[id]
	if !ok {
		return 0, false
	}
	return row.report.CreatorID, true
}
