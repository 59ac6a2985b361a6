// Package match finds counterpart reports of the opposite kind that plausibly
// describe the same physical item.
//
// A candidate qualifies when it is active, of the opposite kind, shares the
// primary category, and either its title overlaps the report's title
// (case-insensitive substring in either direction) or it was reported at the
// same location within WindowDays of the report's occurrence time.
package match

import (
	"strings"
	"time"

	"github.com/sumire/lostfound/internal/domain"
)

// WindowDays is the inclusive date-proximity threshold.
const WindowDays = 7

// Window is WindowDays expressed as a duration.
const Window = WindowDays * 24 * time.Hour

// FindMatches scans all and returns every report that matches report, in
// input order. It performs no I/O.
func FindMatches(report domain.Report, all []domain.Report) []domain.Report {
	var out []domain.Report
	for _, r := range all {
		if Matches(report, r) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether candidate is a match for report.
func Matches(report, candidate domain.Report) bool {
	if !report.Kind.Valid() || candidate.Kind != report.Kind.Opposite() {
		return false
	}
	if candidate.Status != domain.ReportStatusActive {
		return false
	}
	cat, ok := report.Category()
	if !ok {
		return false
	}
	if other, ok := candidate.Category(); !ok || other != cat {
		return false
	}
	if titlesOverlap(report.Title, candidate.Title) {
		return true
	}
	return sameLocation(report.LocationID, candidate.LocationID) &&
		withinWindow(report.OccurredAt, candidate.OccurredAt)
}

func titlesOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func sameLocation(a, b string) bool {
	return a != "" && a == b
}

func withinWindow(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= Window
}
