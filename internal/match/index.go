package match

import (
	"slices"
	"sort"
	"time"

	"github.com/sumire/lostfound/internal/domain"
)

type categoryKey struct {
	kind     domain.ReportKind
	category string
}

type placeKey struct {
	kind     domain.ReportKind
	category string
	location string
}

type timed struct {
	at  time.Time
	pos int
}

// Index buckets an active-report snapshot so lookups avoid a full scan.
// Title matches are searched within the (kind, category) bucket; window
// matches use a time-sorted slice per (kind, category, location) bucket.
// Results are identical to FindMatches over the same snapshot.
type Index struct {
	reports    []domain.Report
	byCategory map[categoryKey][]int
	byPlace    map[placeKey][]timed
}

// NewIndex builds an index over snapshot. Non-active reports and reports
// without a category are skipped because they can never match.
func NewIndex(snapshot []domain.Report) *Index {
	idx := &Index{
		reports:    snapshot,
		byCategory: make(map[categoryKey][]int),
		byPlace:    make(map[placeKey][]timed),
	}
	for i, r := range snapshot {
		if r.Status != domain.ReportStatusActive || !r.Kind.Valid() {
			continue
		}
		cat, ok := r.Category()
		if !ok {
			continue
		}
		ck := categoryKey{kind: r.Kind, category: cat}
		idx.byCategory[ck] = append(idx.byCategory[ck], i)

		if r.LocationID == "" || r.OccurredAt.IsZero() {
			continue
		}
		pk := placeKey{kind: r.Kind, category: cat, location: r.LocationID}
		idx.byPlace[pk] = append(idx.byPlace[pk], timed{at: r.OccurredAt, pos: i})
	}
	for _, bucket := range idx.byPlace {
		sort.SliceStable(bucket, func(a, b int) bool { return bucket[a].at.Before(bucket[b].at) })
	}
	return idx
}

// Matches returns the reports in the index that match report, in snapshot order.
func (idx *Index) Matches(report domain.Report) []domain.Report {
	if !report.Kind.Valid() {
		return nil
	}
	cat, ok := report.Category()
	if !ok {
		return nil
	}
	want := report.Kind.Opposite()
	hits := make(map[int]struct{})

	for _, pos := range idx.byCategory[categoryKey{kind: want, category: cat}] {
		if titlesOverlap(report.Title, idx.reports[pos].Title) {
			hits[pos] = struct{}{}
		}
	}

	if report.LocationID != "" && !report.OccurredAt.IsZero() {
		bucket := idx.byPlace[placeKey{kind: want, category: cat, location: report.LocationID}]
		lo := report.OccurredAt.Add(-Window)
		hi := report.OccurredAt.Add(Window)
		start := sort.Search(len(bucket), func(i int) bool { return !bucket[i].at.Before(lo) })
		for _, e := range bucket[start:] {
			if e.at.After(hi) {
				break
			}
			hits[e.pos] = struct{}{}
		}
	}

	if len(hits) == 0 {
		return nil
	}
	positions := make([]int, 0, len(hits))
	for pos := range hits {
		positions = append(positions, pos)
	}
	slices.Sort(positions)
	out := make([]domain.Report, 0, len(positions))
	for _, pos := range positions {
		out = append(out, idx.reports[pos])
	}
	return out
}
