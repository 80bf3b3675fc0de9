package report

import (
	"math"
	"sort"

	"github.com/worklens/worklens/internal/models"
)

// maxGapMillis is the largest gap between consecutive rows that still merges
// them into one activity group.
const maxGapMillis = 2000

// idlePeriod is one [start, end) interval the user spent idle. An unmatched
// idle_start is treated as open-ended.
type idlePeriod struct {
	start int64
	end   int64
}

// idlePeriodsFrom pairs idle_start/idle_end events into intervals.
func idlePeriodsFrom(events []models.IdleEvent) []idlePeriod {
	sorted := make([]models.IdleEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	var periods []idlePeriod
	var open *idlePeriod
	for _, event := range sorted {
		switch event.EventType {
		case models.IdleStart:
			if open == nil {
				open = &idlePeriod{start: event.Timestamp, end: math.MaxInt64}
			}
		case models.IdleEnd:
			if open != nil {
				open.end = event.Timestamp
				periods = append(periods, *open)
				open = nil
			}
		}
	}
	if open != nil {
		periods = append(periods, *open)
	}
	return periods
}

func startsInsideIdle(periods []idlePeriod, ts int64) bool {
	for _, p := range periods {
		if ts >= p.start && ts < p.end {
			return true
		}
	}
	return false
}

func idleBetween(periods []idlePeriod, from, to int64) bool {
	for _, p := range periods {
		if p.start > from && p.start < to {
			return true
		}
	}
	return false
}

func idleEnclosed(periods []idlePeriod, from, to int64) bool {
	for _, p := range periods {
		if p.start >= from && p.end <= to {
			return true
		}
	}
	return false
}

// GroupedCategories merges session rows into contiguous activity groups for
// timeline display, using idle periods as hard split points: an idle period
// is never allowed inside a merged group. Total duration equals the sum of
// the input session lengths.
func GroupedCategories(sessions []models.WindowSession, idles []models.IdleEvent, classify func(string) string) []models.ActivityGroup {
	if len(sessions) == 0 {
		return nil
	}

	rows := make([]models.WindowSession, len(sessions))
	copy(rows, sessions)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })

	periods := idlePeriodsFrom(idles)

	var groups []models.ActivityGroup
	var cur *models.ActivityGroup
	var prevEnd int64

	for _, row := range rows {
		rowStart := row.Timestamp
		rowEnd := row.End()
		category := classify(row.Title)

		split := cur == nil ||
			rowStart-prevEnd > maxGapMillis ||
			startsInsideIdle(periods, rowStart) ||
			idleBetween(periods, prevEnd, rowStart) ||
			idleEnclosed(periods, cur.Start, maxInt64(cur.End, rowEnd))

		if split {
			groups = append(groups, models.ActivityGroup{
				Start: rowStart,
				End:   rowEnd,
			})
			cur = &groups[len(groups)-1]
		} else if rowEnd > cur.End {
			cur.End = rowEnd
		}

		cur.TotalMillis += row.SessionLength
		if !containsString(cur.Categories, category) {
			cur.Categories = append(cur.Categories, category)
		}
		addContribution(cur, row.Title, category, row.SessionLength)

		prevEnd = rowEnd
	}

	return groups
}

// addContribution folds a row into the group's per-app list, keeping each app
// tagged with its own resolved category.
func addContribution(group *models.ActivityGroup, name, category string, millis int64) {
	for i := range group.Apps {
		if group.Apps[i].Name == name {
			group.Apps[i].TotalMillis += millis
			return
		}
	}
	group.Apps = append(group.Apps, models.AppUsage{
		Name:        name,
		Category:    category,
		TotalMillis: millis,
	})
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
