package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/sumire/lostfound/internal/domain"
)

type claimRow struct {
	claim domain.Claim
	seq   int64
}

// ClaimStore is an in-memory claim store.
type ClaimStore struct {
	mu      sync.RWMutex
	clock   *clock
	reports *ReportStore
	claims  map[uuid.UUID]*claimRow
}

// NewClaimStore creates an empty ClaimStore. reports resolves report owners
// for ListByReportOwner.
func NewClaimStore(reports *ReportStore) *ClaimStore {
	return &ClaimStore{clock: newClock(), reports: reports, claims: make(map[uuid.UUID]*claimRow)}
}

func copyClaim(c domain.Claim) domain.Claim {
	c.ImageURLs = cloneStrings(c.ImageURLs)
	return c
}

// Create stores a new claim.
func (s *ClaimStore) Create(_ context.Context, claim domain.Claim) (*domain.Claim, error) {
	now, seq := s.clock.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[claim.ID]; exists {
		return nil, fmt.Errorf("claim %s already exists", claim.ID)
	}
	claim = copyClaim(claim)
	claim.CreatedAt = now
	s.claims[claim.ID] = &claimRow{claim: claim, seq: seq}

	out := copyClaim(claim)
	return &out, nil
}

// FindByID returns a claim by id.
func (s *ClaimStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.claims[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyClaim(row.claim)
	return &out, nil
}

// ListByReport returns the claims on a report, newest first.
func (s *ClaimStore) ListByReport(_ context.Context, reportID uuid.UUID) ([]domain.Claim, error) {
	return s.collect(func(c domain.Claim) bool { return c.ReportID == reportID }), nil
}

// ListByReportOwner returns the claims on reports created by ownerID, newest first.
func (s *ClaimStore) ListByReportOwner(_ context.Context, ownerID int64) ([]domain.Claim, error) {
	return s.collect(func(c domain.Claim) bool {
		creator, ok := s.reports.creatorOf(c.ReportID)
		return ok && creator == ownerID
	}), nil
}

// CountByRequester counts earlier claims by requesterID on reportID.
func (s *ClaimStore) CountByRequester(_ context.Context, reportID uuid.UUID, requesterID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, row := range s.claims {
		if row.claim.ReportID == reportID && row.claim.RequesterID == requesterID {
			n++
		}
	}
	return n, nil
}

func (s *ClaimStore) collect(keep func(domain.Claim) bool) []domain.Claim {
	s.mu.RLock()
	rows := make([]*claimRow, 0)
	for _, row := range s.claims {
		if keep(row.claim) {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]domain.Claim, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyClaim(row.claim))
	}
	return out
}
