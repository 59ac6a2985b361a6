package domain

import (
	"time"

	"github.com/google/uuid"
)

// Claim is a user's response to a report: a claim request on a found item,
// or a return offer on a lost item.
type Claim struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	RequesterID int64      `json:"requester_id" db:"requester_id"`
	ReportID    uuid.UUID  `json:"report_id" db:"report_id"`
	ReportKind  ReportKind `json:"report_kind" db:"report_kind"`
	Message     string     `json:"message" db:"message"`
	ImageURLs   []string   `json:"image_urls" db:"-"`
	Duplicate   bool       `json:"duplicate" db:"duplicate"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// IsReturn reports whether the claim offers to return a lost item.
func (c Claim) IsReturn() bool {
	return c.ReportKind == ReportKindLost
}
