package tracker

import (
	"log"
	"sync"
	"time"

	"github.com/worklens/worklens/internal/models"
	"github.com/worklens/worklens/internal/notify"
	"github.com/worklens/worklens/pkg/window"
)

// Store is the slice of the repository the tracker needs.
type Store interface {
	CreateSession(*models.WindowSession) error
	UpdateSessionLength(id uint, length int64) error
	SessionsBetween(from, to int64) ([]models.WindowSession, error)
	AppTotalsSince(since int64) ([]models.AppTotal, error)
	CreateTrackingTime(*models.TrackingTime) error
	CloseTrackingTime(id uint, end int64) error
}

// Classifier supplies title enhancement and category resolution.
type Classifier interface {
	EnhanceTitle(owner, title string) string
	Classify(name string) string
}

// openSession is the single shared "current session" slot. It is owned by the
// tracker and guarded by its mutex; the idle detector steals it across idle
// transitions.
type openSession struct {
	row         *models.WindowSession
	lastFlushMS int64
}

// Tracker maintains the current window session. At most one session is open
// at a time; its length only grows while open and equals finalize time minus
// start once closed.
type Tracker struct {
	mu         sync.Mutex
	store      Store
	classifier Classifier
	provider   window.ActiveWindowProvider
	notifier   *notify.Notifier
	flushMS    int64

	enabled        bool
	suspended      bool // set while the idle detector holds the user Idle
	cur            *openSession
	trackingTimeID uint
	lastObservedMS int64
	lastSeenID     string
	lastSeenTitle  string

	Now func() time.Time
}

func New(store Store, classifier Classifier, provider window.ActiveWindowProvider, notifier *notify.Notifier, flushInterval time.Duration) *Tracker {
	return &Tracker{
		store:      store,
		classifier: classifier,
		provider:   provider,
		notifier:   notifier,
		flushMS:    flushInterval.Milliseconds(),
		Now:        time.Now,
	}
}

// Tick observes the active window once and advances the current session.
// Persistence failures are logged and retried on a later tick; the poll loop
// never dies.
func (t *Tracker) Tick() {
	t.mu.Lock()
	if !t.enabled {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	// The accessor call is a suspension point: an idle transition may land
	// while we wait for it.
	win, err := t.provider.Get()
	if err != nil {
		log.Printf("tracker: active window poll failed: %v", err)
		return
	}
	if win == nil {
		return
	}
	title := t.classifier.EnhanceTitle(win.Owner, win.Title)
	nowMS := t.Now().UnixMilli()

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check: tracking may have been toggled off while we were polling.
	if !t.enabled {
		return
	}
	changed := win.ID != t.lastSeenID || title != t.lastSeenTitle
	t.lastSeenID, t.lastSeenTitle = win.ID, title

	if t.suspended {
		// Polling continues through idle, but no session may be opened. A
		// window change is the one activity signal available without an
		// idle-time source; it refreshes the fallback baseline so the idle
		// detector can transition back to Active.
		if changed {
			t.lastObservedMS = nowMS
		}
		return
	}
	t.lastObservedMS = nowMS

	switch {
	case t.cur == nil:
		t.openLocked(win.ID, title, nowMS)
	case t.cur.row.UniqueID != win.ID || t.cur.row.Title != title:
		// Any detected change, window identity or enhanced title, closes the
		// old unit and opens a new one. The periodic flush never spans a
		// change.
		t.finalizeLocked(nowMS)
		t.openLocked(win.ID, title, nowMS)
	default:
		t.cur.row.SessionLength = nowMS - t.cur.row.Timestamp
		if nowMS-t.cur.lastFlushMS >= t.flushMS {
			if t.flushLocked() {
				t.cur.lastFlushMS = nowMS
			}
		}
	}
}

// openLocked starts a new session and persists it immediately. If the insert
// fails the session stays in memory with a zero ID and the next flush retries
// the insert.
func (t *Tracker) openLocked(uniqueID, title string, nowMS int64) {
	row := &models.WindowSession{
		Title:     title,
		UniqueID:  uniqueID,
		Timestamp: nowMS,
	}
	if err := t.store.CreateSession(row); err != nil {
		log.Printf("tracker: failed to persist new session: %v", err)
	}
	t.cur = &openSession{row: row, lastFlushMS: nowMS}
	t.notifier.Publish(notify.SessionStarted, map[string]any{"title": title})
}

// flushLocked writes the open session's current length. Returns whether the
// write succeeded.
func (t *Tracker) flushLocked() bool {
	row := t.cur.row
	var err error
	if row.ID == 0 {
		err = t.store.CreateSession(row)
	} else {
		err = t.store.UpdateSessionLength(row.ID, row.SessionLength)
	}
	if err != nil {
		log.Printf("tracker: failed to flush session %q: %v", row.Title, err)
		return false
	}
	return true
}

// finalizeLocked closes the open session with its final duration and clears
// the slot.
func (t *Tracker) finalizeLocked(nowMS int64) {
	if t.cur == nil {
		return
	}
	row := t.cur.row
	row.SessionLength = nowMS - row.Timestamp
	t.flushLocked()
	t.cur = nil
	t.notifier.Publish(notify.SessionEnded, map[string]any{
		"title":          row.Title,
		"session_length": row.SessionLength,
	})
}

// SuspendForIdle finalizes the open session, clears the slot so no tick can
// extend it, and returns a snapshot of the pre-idle session (nil when none
// was open). Ticks stay no-ops until ResumeFromIdle.
func (t *Tracker) SuspendForIdle(nowMS int64) *models.WindowSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	var snapshot *models.WindowSession
	if t.cur != nil {
		pre := *t.cur.row
		t.finalizeLocked(nowMS)
		pre.SessionLength = nowMS - pre.Timestamp
		snapshot = &pre
	}
	t.suspended = true
	return snapshot
}

// ResumeFromIdle lifts the idle suspension. The caller re-queries the window
// via Tick, which always opens a fresh session: idle time is never credited
// as active time.
func (t *Tracker) ResumeFromIdle() {
	t.mu.Lock()
	t.suspended = false
	// The resume itself is a confirmed observation; without this a transient
	// idle-source failure right after resume would re-enter Idle immediately.
	t.lastObservedMS = t.Now().UnixMilli()
	t.mu.Unlock()
	t.Tick()
}

// Suspended reports whether the idle detector currently holds the user Idle.
func (t *Tracker) Suspended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suspended
}

// CurrentTitle returns the open session's title, or "" when none is open.
func (t *Tracker) CurrentTitle() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil {
		return ""
	}
	return t.cur.row.Title
}

// LastObservation returns the epoch-ms time of the last confirmed window
// observation, used by the idle fallback heuristic.
func (t *Tracker) LastObservation() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastObservedMS
}

// Enable turns tracking on and opens a tracking range.
func (t *Tracker) Enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enabled {
		return nil
	}
	nowMS := t.Now().UnixMilli()
	tt := &models.TrackingTime{SessionStart: nowMS}
	if err := t.store.CreateTrackingTime(tt); err != nil {
		return err
	}
	t.trackingTimeID = tt.ID
	t.lastObservedMS = nowMS
	t.enabled = true
	t.notifier.Publish(notify.TrackingStatusChanged, map[string]any{"enabled": true})
	return nil
}

// Disable turns tracking off, synchronously finalizing the open session and
// closing the tracking range. No unflushed state survives.
func (t *Tracker) Disable() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return nil
	}
	nowMS := t.Now().UnixMilli()
	t.finalizeLocked(nowMS)
	if t.trackingTimeID != 0 {
		if err := t.store.CloseTrackingTime(t.trackingTimeID, nowMS); err != nil {
			log.Printf("tracker: failed to close tracking range: %v", err)
		}
		t.trackingTimeID = 0
	}
	t.enabled = false
	t.suspended = false
	t.notifier.Publish(notify.TrackingStatusChanged, map[string]any{"enabled": false})
	return nil
}

// Toggle flips the tracking state and reports the new state.
func (t *Tracker) Toggle() (bool, error) {
	if t.Enabled() {
		return false, t.Disable()
	}
	return true, t.Enable()
}

// Enabled reports whether tracking is on.
func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}
