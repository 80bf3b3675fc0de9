package models

// AppTotal is the raw aggregate a group-by query returns: total focused time
// per window title.
type AppTotal struct {
	Title        string `json:"title"`
	TotalMillis  int64  `json:"total_millis"`
	SessionCount int    `json:"session_count"`
}

// AppUsage is one app's contribution inside a category bucket or activity
// group, tagged with its own resolved category.
type AppUsage struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	TotalMillis int64  `json:"total_millis"`
}

// CategoryBucket aggregates usage for one category across a reporting window.
type CategoryBucket struct {
	CategoryID  string     `json:"category_id"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	TotalMillis int64      `json:"total_millis"`
	Apps        []AppUsage `json:"apps"`
}

// WindowReport is the output of compiling persisted sessions into category
// buckets.
type WindowReport struct {
	Buckets     []CategoryBucket `json:"buckets"`
	TotalMillis int64            `json:"total_millis"`
	Days        int              `json:"days"`
}

// ActivityGroup is one merged timeline segment: contiguous sessions with no
// idle period or significant gap between them.
type ActivityGroup struct {
	Start       int64      `json:"start"`
	End         int64      `json:"end"`
	TotalMillis int64      `json:"total_millis"`
	Categories  []string   `json:"categories"`
	Apps        []AppUsage `json:"apps"`
}

// IdleStatistics summarizes idle_events over a reporting window.
type IdleStatistics struct {
	Periods       int   `json:"periods"`
	TotalMillis   int64 `json:"total_millis"`
	AverageMillis int64 `json:"average_millis"`
	LongestMillis int64 `json:"longest_millis"`
	Days          int   `json:"days"`
}

// FocusStatus is a point-in-time snapshot of the distraction monitor.
type FocusStatus struct {
	Active           bool   `json:"active"`
	SessionID        uint   `json:"session_id,omitempty"`
	Title            string `json:"title,omitempty"`
	JobRole          string `json:"job_role,omitempty"`
	StartTime        int64  `json:"start_time,omitempty"`
	EndsAt           int64  `json:"ends_at,omitempty"`
	DistractionCount int    `json:"distraction_count"`
}
