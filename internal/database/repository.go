package database

import (
	"fmt"

	"github.com/worklens/worklens/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for window sessions, idle events
// and focus sessions. Each mutating method is atomic with respect to itself.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSession inserts a new window session and fills in its assigned ID.
func (r *Repository) CreateSession(session *models.WindowSession) error {
	result := r.db.Create(session)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert window session")
	}
	return nil
}

// UpdateSessionLength updates only the session_length field of a session.
func (r *Repository) UpdateSessionLength(id uint, length int64) error {
	result := r.db.Model(&models.WindowSession{}).Where("id = ?", id).Update("session_length", length)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update session length")
	}
	return nil
}

// SessionsBetween retrieves window sessions whose start falls in [from, to),
// ordered by start ascending. A zero to means no upper bound.
func (r *Repository) SessionsBetween(from, to int64) ([]models.WindowSession, error) {
	var sessions []models.WindowSession
	q := r.db.Where("timestamp >= ?", from)
	if to > 0 {
		q = q.Where("timestamp < ?", to)
	}
	result := q.Order("timestamp ASC").Find(&sessions)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query window sessions")
	}
	return sessions, nil
}

// AppTotalsSince returns aggregated focused time per title since a given
// epoch-ms timestamp. SQL does the SUM; callers do the classification.
func (r *Repository) AppTotalsSince(since int64) ([]models.AppTotal, error) {
	var totals []models.AppTotal
	result := r.db.Model(&models.WindowSession{}).
		Select("title, SUM(session_length) as total_millis, COUNT(*) as session_count").
		Where("timestamp >= ?", since).
		Group("title").
		Order("total_millis DESC").
		Scan(&totals)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query app totals")
	}
	return totals, nil
}

// DetectedTitles returns the distinct window titles recorded since the given
// epoch-ms timestamp, sorted ascending.
func (r *Repository) DetectedTitles(since int64) ([]string, error) {
	var titles []string
	result := r.db.Model(&models.WindowSession{}).
		Distinct("title").
		Where("timestamp >= ?", since).
		Order("title ASC").
		Pluck("title", &titles)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query detected titles")
	}
	return titles, nil
}

// CreateTrackingTime opens a new tracking range.
func (r *Repository) CreateTrackingTime(tt *models.TrackingTime) error {
	result := r.db.Create(tt)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert tracking time")
	}
	return nil
}

// CloseTrackingTime sets the end of an open tracking range.
func (r *Repository) CloseTrackingTime(id uint, end int64) error {
	result := r.db.Model(&models.TrackingTime{}).Where("id = ?", id).Update("session_end", end)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to close tracking time")
	}
	return nil
}

// CreateIdleEvent appends an idle transition event.
func (r *Repository) CreateIdleEvent(event *models.IdleEvent) error {
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert idle event")
	}
	return nil
}

// IdleEventsSince retrieves idle events since a given epoch-ms timestamp,
// ordered by timestamp ascending.
func (r *Repository) IdleEventsSince(since int64) ([]models.IdleEvent, error) {
	var events []models.IdleEvent
	result := r.db.Where("timestamp >= ?", since).Order("timestamp ASC").Find(&events)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query idle events")
	}
	return events, nil
}

// CreateFocusSession inserts a new focus session and fills in its assigned ID.
func (r *Repository) CreateFocusSession(session *models.FocusSession) error {
	result := r.db.Create(session)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert focus session")
	}
	return nil
}

// FinalizeFocusSession closes a focus session row.
func (r *Repository) FinalizeFocusSession(id uint, endTime, duration int64, distractions int) error {
	result := r.db.Model(&models.FocusSession{}).Where("id = ?", id).Updates(map[string]interface{}{
		"end_time":          endTime,
		"duration":          duration,
		"is_active":         false,
		"distraction_count": distractions,
	})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to finalize focus session")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("focus session %d not found", id)
	}
	return nil
}

// UpdateDistractionCount updates only the distraction_count of a session.
func (r *Repository) UpdateDistractionCount(id uint, count int) error {
	result := r.db.Model(&models.FocusSession{}).Where("id = ?", id).Update("distraction_count", count)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update distraction count")
	}
	return nil
}

// ActiveFocusSession returns the currently active focus session, or nil.
func (r *Repository) ActiveFocusSession() (*models.FocusSession, error) {
	var session models.FocusSession
	result := r.db.Where("is_active = ?", true).Order("start_time DESC").First(&session)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to query active focus session")
	}
	return &session, nil
}

// CreateDistraction appends a distraction log row.
func (r *Repository) CreateDistraction(d *models.FocusDistraction) error {
	result := r.db.Create(d)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert distraction")
	}
	return nil
}

// DistractionsForSession retrieves all distraction rows for one focus session.
func (r *Repository) DistractionsForSession(sessionID uint) ([]models.FocusDistraction, error) {
	var rows []models.FocusDistraction
	result := r.db.Where("session_id = ?", sessionID).Order("timestamp ASC").Find(&rows)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query distractions")
	}
	return rows, nil
}

// Clear removes all tracking data.
func (r *Repository) Clear() error {
	tables := []string{"active_windows", "tracking_times", "idle_events", "focus_sessions", "focus_distractions"}
	for _, table := range tables {
		if result := r.db.Exec("DELETE FROM " + table); result.Error != nil {
			return errors.Wrapf(result.Error, "failed to clear %s", table)
		}
	}
	return nil
}
