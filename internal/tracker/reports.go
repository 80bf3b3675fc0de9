package tracker

import (
	"sort"

	"github.com/worklens/worklens/internal/category"
	"github.com/worklens/worklens/internal/models"
)

const dayMillis = 24 * 60 * 60 * 1000

// Current describes the live focused window, with its enhanced title and
// resolved category.
type Current struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	RawTitle string `json:"raw_title"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// CurrentActiveWindow queries the accessor directly, bypassing session state.
func (t *Tracker) CurrentActiveWindow() (*Current, error) {
	win, err := t.provider.Get()
	if err != nil {
		return nil, err
	}
	if win == nil {
		return nil, nil
	}
	title := t.classifier.EnhanceTitle(win.Owner, win.Title)
	return &Current{
		ID:       win.ID,
		Owner:    win.Owner,
		RawTitle: win.Title,
		Title:    title,
		Category: t.classifier.Classify(title),
	}, nil
}

// ActiveWindows returns persisted sessions in [from, to). Zero bounds mean
// unbounded.
func (t *Tracker) ActiveWindows(from, to int64) ([]models.WindowSession, error) {
	return t.store.SessionsBetween(from, to)
}

// CompileWindowData aggregates persisted sessions from the last `days` days
// into category buckets: per-title totals classified into their category,
// summed per bucket and per app, zero-duration buckets dropped except the
// catch-all, buckets and apps sorted descending by duration.
func (t *Tracker) CompileWindowData(days int) (*models.WindowReport, error) {
	if days <= 0 {
		days = 7
	}
	since := t.Now().UnixMilli() - int64(days)*dayMillis

	totals, err := t.store.AppTotalsSince(since)
	if err != nil {
		return nil, err
	}

	buckets := map[string]*models.CategoryBucket{}
	var order []string
	for _, def := range category.Defaults() {
		buckets[def.ID] = &models.CategoryBucket{
			CategoryID:  def.ID,
			Description: def.Description,
			Color:       def.Color,
		}
		order = append(order, def.ID)
	}

	var grand int64
	for _, total := range totals {
		id := t.classifier.Classify(total.Title)
		bucket, ok := buckets[id]
		if !ok {
			// Custom category; synthesized on first use.
			bucket = &models.CategoryBucket{CategoryID: id}
			buckets[id] = bucket
			order = append(order, id)
		}
		bucket.TotalMillis += total.TotalMillis
		bucket.Apps = append(bucket.Apps, models.AppUsage{
			Name:        total.Title,
			Category:    id,
			TotalMillis: total.TotalMillis,
		})
		grand += total.TotalMillis
	}

	report := &models.WindowReport{TotalMillis: grand, Days: days}
	for _, id := range order {
		bucket := buckets[id]
		if bucket.TotalMillis == 0 && id != category.Miscellaneous {
			continue
		}
		sort.Slice(bucket.Apps, func(i, j int) bool {
			return bucket.Apps[i].TotalMillis > bucket.Apps[j].TotalMillis
		})
		report.Buckets = append(report.Buckets, *bucket)
	}
	sort.Slice(report.Buckets, func(i, j int) bool {
		return report.Buckets[i].TotalMillis > report.Buckets[j].TotalMillis
	})
	return report, nil
}
