package models

// WindowSession is one contiguous interval during which a single window held
// input focus. Title may be domain-enhanced for browser windows. All
// timestamps are epoch milliseconds; SessionLength is milliseconds.
type WindowSession struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"not null;index" json:"title"`
	UniqueID      string `gorm:"column:unique_id;not null;index" json:"unique_id"`
	Timestamp     int64  `gorm:"not null;index" json:"timestamp"`
	SessionLength int64  `gorm:"not null;default:0" json:"session_length"`
}

func (WindowSession) TableName() string { return "active_windows" }

// End returns the session's end in epoch milliseconds.
func (s WindowSession) End() int64 { return s.Timestamp + s.SessionLength }

// TrackingTime is one tracking-enabled range. SessionEnd == 0 means the range
// is still open.
type TrackingTime struct {
	ID           uint  `gorm:"primaryKey" json:"id"`
	SessionStart int64 `gorm:"not null;index" json:"session_start"`
	SessionEnd   int64 `gorm:"not null;default:0" json:"session_end"`
}

func (TrackingTime) TableName() string { return "tracking_times" }

const (
	IdleStart = "idle_start"
	IdleEnd   = "idle_end"
)

// IdleEvent records an idle transition. Duration (ms) is set on idle_end only.
// Events alternate start/end; an unmatched idle_start may only occur at
// shutdown.
type IdleEvent struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	EventType string `gorm:"not null;index" json:"event_type"`
	Timestamp int64  `gorm:"not null;index" json:"timestamp"`
	Duration  int64  `gorm:"not null;default:0" json:"duration"`
}

func (IdleEvent) TableName() string { return "idle_events" }

// FocusSession is a user-initiated, time-boxed interval during which the
// distraction monitor evaluates the active window against job-role policy.
type FocusSession struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	StartTime        int64  `gorm:"not null;index" json:"start_time"`
	EndTime          int64  `gorm:"not null;default:0" json:"end_time"`
	Duration         int64  `gorm:"not null;default:0" json:"duration"`
	JobRole          string `gorm:"not null" json:"job_role"`
	Title            string `gorm:"not null" json:"title"`
	IsActive         bool   `gorm:"not null;default:false;index" json:"is_active"`
	DistractionCount int    `gorm:"not null;default:0" json:"distraction_count"`
}

func (FocusSession) TableName() string { return "focus_sessions" }

// FocusDistraction is an append-only record of one distraction alert. The
// monitor is its sole writer.
type FocusDistraction struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SessionID uint   `gorm:"not null;index" json:"session_id"`
	AppName   string `gorm:"not null" json:"app_name"`
	Category  string `gorm:"not null" json:"category"`
	Timestamp int64  `gorm:"not null" json:"timestamp"`
}

func (FocusDistraction) TableName() string { return "focus_distractions" }
