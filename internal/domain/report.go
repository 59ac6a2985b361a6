package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultCategory is shown for reports that carry no tags.
const DefaultCategory = "Other"

// ReportKind distinguishes lost-item reports from found-item reports.
type ReportKind string

const (
	ReportKindLost  ReportKind = "lost"
	ReportKindFound ReportKind = "found"
)

// Valid reports whether k is a known kind.
func (k ReportKind) Valid() bool {
	return k == ReportKindLost || k == ReportKindFound
}

// Opposite returns the counterpart kind. Unknown kinds map to themselves.
func (k ReportKind) Opposite() ReportKind {
	switch k {
	case ReportKindLost:
		return ReportKindFound
	case ReportKindFound:
		return ReportKindLost
	default:
		return k
	}
}

// ReportStatus represents the lifecycle state of a report.
type ReportStatus string

const (
	ReportStatusActive   ReportStatus = "active"
	ReportStatusResolved ReportStatus = "resolved"
	ReportStatusArchived ReportStatus = "archived"
)

// Valid reports whether s is a known status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusActive, ReportStatusResolved, ReportStatusArchived:
		return true
	}
	return false
}

// CanTransition reports whether a report may move from s to next.
// Status only ever moves forward: active -> resolved -> archived.
func (s ReportStatus) CanTransition(next ReportStatus) bool {
	switch s {
	case ReportStatusActive:
		return next == ReportStatusResolved || next == ReportStatusArchived
	case ReportStatusResolved:
		return next == ReportStatusArchived
	}
	return false
}

// SourcesFor returns the statuses from which next is reachable.
func SourcesFor(next ReportStatus) []ReportStatus {
	var out []ReportStatus
	for _, s := range []ReportStatus{ReportStatusActive, ReportStatusResolved, ReportStatusArchived} {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

// Report is a lost-item or found-item posting.
type Report struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Kind        ReportKind   `json:"kind" db:"kind"`
	CreatorID   int64        `json:"creator_id" db:"creator_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	LocationID  string       `json:"location_id" db:"location_id"`
	OccurredAt  time.Time    `json:"occurred_at" db:"occurred_at"`
	Tags        []string     `json:"tags" db:"-"`
	ImageURLs   []string     `json:"image_urls" db:"-"`
	Status      ReportStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// Category returns the primary category tag and whether one is present.
func (r Report) Category() (string, bool) {
	if len(r.Tags) == 0 || r.Tags[0] == "" {
		return "", false
	}
	return r.Tags[0], true
}

// PrimaryCategory returns the display category, falling back to DefaultCategory.
func (r Report) PrimaryCategory() string {
	if c, ok := r.Category(); ok {
		return c
	}
	return DefaultCategory
}

// reportJSON drops Report's methods so MarshalJSON does not recurse.
type reportJSON Report

// MarshalJSON adds the derived primary_category field.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		reportJSON
		PrimaryCategory string `json:"primary_category"`
	}{reportJSON(r), r.PrimaryCategory()})
}

// ReportFilter narrows a report listing.
type ReportFilter struct {
	Kind      ReportKind
	Statuses  []ReportStatus
	Category  string
	Query     string
	CreatorID int64
	Limit     int
}

// DefaultStatuses is what listings show when no status is requested.
func DefaultStatuses() []ReportStatus {
	return []ReportStatus{ReportStatusActive, ReportStatusResolved}
}
