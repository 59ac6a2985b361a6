// Package memstore holds in-memory implementations of the service stores.
// Every read returns a copy, so callers never share state with the store.
// It backs STORE_BACKEND=memory and the service and handler tests.
package memstore

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sumire/lostfound/internal/domain"
)

// Store bundles the in-memory stores.
type Store struct {
	Reports       *ReportStore
	Claims        *ClaimStore
	Notifications *NotificationStore
	Users         *UserStore
}

// New creates an empty Store.
func New() *Store {
	reports := NewReportStore()
	return &Store{
		Reports:       reports,
		Claims:        NewClaimStore(reports),
		Notifications: NewNotificationStore(),
		Users:         NewUserStore(),
	}
}

// clock is shared by the stores so tests can pin time.
type clock struct {
	mu  sync.Mutex
	now func() time.Time
	seq int64
}

func newClock() *clock {
	return &clock{now: func() time.Time { return time.Now().UTC() }}
}

// tick returns the current time and a strictly increasing sequence number
// used to break timestamp ties when ordering.
func (c *clock) tick() (time.Time, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.now(), c.seq
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}

func reportMatchesFilter(r domain.Report, f domain.ReportFilter) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if f.Category != "" {
		if c, ok := r.Category(); !ok || c != f.Category {
			return false
		}
	}
	if f.CreatorID != 0 && r.CreatorID != f.CreatorID {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(r.Title), q) && !strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}
	return true
}
