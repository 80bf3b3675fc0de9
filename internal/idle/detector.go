package idle

import (
	"log"
	"sync"
	"time"

	"github.com/worklens/worklens/internal/models"
	"github.com/worklens/worklens/pkg/window"
)

// Store is the slice of the repository the detector needs.
type Store interface {
	CreateIdleEvent(*models.IdleEvent) error
	IdleEventsSince(since int64) ([]models.IdleEvent, error)
}

// Classifier resolves a title to a category id.
type Classifier interface {
	Classify(name string) string
}

// SessionController is the tracker surface the detector drives across idle
// transitions.
type SessionController interface {
	SuspendForIdle(nowMS int64) *models.WindowSession
	ResumeFromIdle()
	CurrentTitle() string
	LastObservation() int64
	Enabled() bool
}

type state int

const (
	stateActive state = iota
	stateIdle
)

const dayMillis = 24 * 60 * 60 * 1000

// Detector watches the idle-time source and drives the tracker across
// Active/Idle transitions. When no idle source exists it degrades to a
// wall-clock heuristic over the tracker's last confirmed observation.
type Detector struct {
	mu          sync.Mutex
	store       Store
	classifier  Classifier
	sessions    SessionController
	source      window.IdleTimeProvider // nil means fallback heuristic
	thresholdMS int64

	state       state
	idleStartMS int64
	preIdle     *models.WindowSession

	now func() time.Time
}

// New creates a detector. source may be nil when the platform exposes no
// idle-time accessor.
func New(store Store, classifier Classifier, sessions SessionController, source window.IdleTimeProvider, threshold time.Duration) *Detector {
	return &Detector{
		store:       store,
		classifier:  classifier,
		sessions:    sessions,
		source:      source,
		thresholdMS: threshold.Milliseconds(),
		now:         time.Now,
	}
}

// SetThreshold changes the idle threshold in milliseconds.
func (d *Detector) SetThreshold(ms int64) {
	if ms <= 0 {
		return
	}
	d.mu.Lock()
	d.thresholdMS = ms
	d.mu.Unlock()
}

// Threshold returns the current idle threshold in milliseconds.
func (d *Detector) Threshold() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.thresholdMS
}

// Idle reports whether the detector currently holds the user Idle.
func (d *Detector) Idle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == stateIdle
}

// PreIdleSession returns the session that was finalized by the last
// Active-to-Idle transition, if any.
func (d *Detector) PreIdleSession() *models.WindowSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.preIdle
}

// Tick samples the idle source once and advances the state machine.
func (d *Detector) Tick() {
	if !d.sessions.Enabled() {
		return
	}

	idleMS := d.sampleIdle()

	// Entertainment apps play without input; idle detection is forced to
	// Active while one holds focus.
	if title := d.sessions.CurrentTitle(); title != "" && d.classifier.Classify(title) == "entertainment" {
		idleMS = 0
	}

	nowMS := d.now().UnixMilli()

	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case stateActive:
		if idleMS > d.thresholdMS {
			d.toIdleLocked(nowMS)
		}
	case stateIdle:
		if idleMS <= d.thresholdMS {
			d.toActiveLocked(nowMS)
		}
	}
}

// sampleIdle reads milliseconds since last input, falling back to wall-clock
// time since the tracker's last confirmed observation.
func (d *Detector) sampleIdle() int64 {
	if d.source != nil {
		idleMS, err := d.source.IdleMillis()
		if err == nil {
			return idleMS
		}
		log.Printf("idle: idle source failed, using fallback: %v", err)
	}
	last := d.sessions.LastObservation()
	if last == 0 {
		return 0
	}
	return d.now().UnixMilli() - last
}

// toIdleLocked finalizes the open session, clears the shared session slot and
// appends idle_start. The tracker sees the suspension before its next tick
// can act.
func (d *Detector) toIdleLocked(nowMS int64) {
	d.preIdle = d.sessions.SuspendForIdle(nowMS)
	d.state = stateIdle
	d.idleStartMS = nowMS
	if err := d.store.CreateIdleEvent(&models.IdleEvent{
		EventType: models.IdleStart,
		Timestamp: nowMS,
	}); err != nil {
		log.Printf("idle: failed to persist idle_start: %v", err)
	}
}

// toActiveLocked appends idle_end and resumes tracking with a fresh session,
// even when the same window is focused: elapsed idle time is never credited
// as active time.
func (d *Detector) toActiveLocked(nowMS int64) {
	if err := d.store.CreateIdleEvent(&models.IdleEvent{
		EventType: models.IdleEnd,
		Timestamp: nowMS,
		Duration:  nowMS - d.idleStartMS,
	}); err != nil {
		log.Printf("idle: failed to persist idle_end: %v", err)
	}
	d.state = stateActive
	d.preIdle = nil
	d.sessions.ResumeFromIdle()
}

// Finalize closes an open idle period, pairing its idle_start. Called when
// tracking stops so only a crash leaves an unmatched idle_start behind.
func (d *Detector) Finalize() {
	nowMS := d.now().UnixMilli()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != stateIdle {
		return
	}
	if err := d.store.CreateIdleEvent(&models.IdleEvent{
		EventType: models.IdleEnd,
		Timestamp: nowMS,
		Duration:  nowMS - d.idleStartMS,
	}); err != nil {
		log.Printf("idle: failed to persist idle_end: %v", err)
	}
	d.state = stateActive
	d.preIdle = nil
}

// Statistics aggregates completed idle periods over the last days days.
func (d *Detector) Statistics(days int) (*models.IdleStatistics, error) {
	if days <= 0 {
		days = 7
	}
	since := d.now().UnixMilli() - int64(days)*dayMillis

	events, err := d.store.IdleEventsSince(since)
	if err != nil {
		return nil, err
	}

	stats := &models.IdleStatistics{Days: days}
	for _, event := range events {
		if event.EventType != models.IdleEnd {
			continue
		}
		stats.Periods++
		stats.TotalMillis += event.Duration
		if event.Duration > stats.LongestMillis {
			stats.LongestMillis = event.Duration
		}
	}
	if stats.Periods > 0 {
		stats.AverageMillis = stats.TotalMillis / int64(stats.Periods)
	}
	return stats, nil
}
