package focus

import (
	"log"
	"sync"
	"time"

	"github.com/worklens/worklens/internal/models"
	"github.com/worklens/worklens/internal/notify"
	"github.com/worklens/worklens/pkg/window"

	"github.com/pkg/errors"
)

// ErrSessionActive is returned when a focus session is started while another
// is still running.
var ErrSessionActive = errors.New("a focus session is already active")

// Store is the slice of the repository the monitor needs.
type Store interface {
	CreateFocusSession(*models.FocusSession) error
	FinalizeFocusSession(id uint, endTime, duration int64, distractions int) error
	UpdateDistractionCount(id uint, count int) error
	CreateDistraction(*models.FocusDistraction) error
}

// Classifier resolves observed windows to categories.
type Classifier interface {
	Classify(name string) string
	EnhanceTitle(owner, title string) string
}

// Monitor runs at most one focus session at a time. While a session is
// active it polls the focused window and flags apps whose category is in the
// job role's non-focus list, deduplicated per (app, category) pair per
// session and per app per cooldown window.
type Monitor struct {
	mu         sync.Mutex
	store      Store
	classifier Classifier
	provider   window.ActiveWindowProvider
	notifier   *notify.Notifier

	pollInterval time.Duration
	cooldownMS   int64
	jobRole      string

	session  *models.FocusSession
	endsAtMS int64
	timer    *time.Timer
	stopPoll chan struct{}

	lastApp     string
	alerted     map[string]struct{}
	lastAlertMS map[string]int64

	now func() time.Time
}

func New(store Store, classifier Classifier, provider window.ActiveWindowProvider, notifier *notify.Notifier, pollInterval, cooldown time.Duration, jobRole string) *Monitor {
	return &Monitor{
		store:        store,
		classifier:   classifier,
		provider:     provider,
		notifier:     notifier,
		pollInterval: pollInterval,
		cooldownMS:   cooldown.Milliseconds(),
		jobRole:      jobRole,
		now:          time.Now,
	}
}

// Start begins a focus session of the given length. Rejected synchronously
// when one is already active.
func (m *Monitor) Start(minutes int, title string) (*models.FocusSession, error) {
	if minutes <= 0 {
		return nil, errors.New("focus session duration must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return nil, ErrSessionActive
	}

	nowMS := m.now().UnixMilli()
	row := &models.FocusSession{
		StartTime: nowMS,
		JobRole:   m.jobRole,
		Title:     title,
		IsActive:  true,
	}
	if err := m.store.CreateFocusSession(row); err != nil {
		return nil, err
	}

	duration := time.Duration(minutes) * time.Minute
	m.session = row
	m.endsAtMS = nowMS + duration.Milliseconds()
	m.lastApp = ""
	m.alerted = map[string]struct{}{}
	m.lastAlertMS = map[string]int64{}

	m.timer = time.AfterFunc(duration, func() {
		if err := m.End(); err != nil {
			log.Printf("focus: failed to end expired session: %v", err)
		}
	})
	stop := make(chan struct{})
	m.stopPoll = stop
	go m.pollLoop(stop)

	m.notifier.Publish(notify.SessionStarted, map[string]any{
		"kind":     "focus",
		"title":    title,
		"job_role": m.jobRole,
		"ends_at":  m.endsAtMS,
	})
	return row, nil
}

// End finalizes the active session. Idempotent when none is active.
func (m *Monitor) End() error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil
	}
	session := m.session
	m.session = nil
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	close(m.stopPoll)
	m.stopPoll = nil
	count := session.DistractionCount
	m.mu.Unlock()

	nowMS := m.now().UnixMilli()
	err := m.store.FinalizeFocusSession(session.ID, nowMS, nowMS-session.StartTime, count)

	m.notifier.Publish(notify.SessionEnded, map[string]any{
		"kind":         "focus",
		"title":        session.Title,
		"distractions": count,
	})
	return err
}

// Active reports whether a session is running.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// Status returns a point-in-time snapshot of the monitor.
func (m *Monitor) Status() models.FocusStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return models.FocusStatus{}
	}
	return models.FocusStatus{
		Active:           true,
		SessionID:        m.session.ID,
		Title:            m.session.Title,
		JobRole:          m.session.JobRole,
		StartTime:        m.session.StartTime,
		EndsAt:           m.endsAtMS,
		DistractionCount: m.session.DistractionCount,
	}
}

func (m *Monitor) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.evaluate()
		}
	}
}

// evaluate inspects the focused window once. Failures are logged and never
// stop the poll.
func (m *Monitor) evaluate() {
	win, err := m.provider.Get()
	if err != nil {
		log.Printf("focus: active window poll failed: %v", err)
		return
	}
	if win == nil || win.Owner == "" {
		return
	}
	app := win.Owner
	category := m.classifier.Classify(m.classifier.EnhanceTitle(win.Owner, win.Title))
	nowMS := m.now().UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()
	// The session may have ended while we were polling.
	if m.session == nil {
		return
	}

	// Same app as the previous tick never re-alerts.
	if app == m.lastApp {
		return
	}
	m.lastApp = app

	if !contains(NonFocusCategories(m.session.JobRole), category) {
		return
	}

	// One alert per (app, category) pair per session.
	key := app + "|" + category
	if _, seen := m.alerted[key]; seen {
		return
	}
	// And at most one alert per app per cooldown window.
	if last, ok := m.lastAlertMS[app]; ok && nowMS-last < m.cooldownMS {
		return
	}

	m.alerted[key] = struct{}{}
	m.lastAlertMS[app] = nowMS

	if err := m.store.CreateDistraction(&models.FocusDistraction{
		SessionID: m.session.ID,
		AppName:   app,
		Category:  category,
		Timestamp: nowMS,
	}); err != nil {
		log.Printf("focus: failed to log distraction: %v", err)
	}

	m.session.DistractionCount++
	if err := m.store.UpdateDistractionCount(m.session.ID, m.session.DistractionCount); err != nil {
		log.Printf("focus: failed to update distraction count: %v", err)
	}

	m.notifier.Publish(notify.DistractionDetected, map[string]any{
		"app":      app,
		"category": category,
		"count":    m.session.DistractionCount,
	})
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
