package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/worklens/worklens/internal/category"
	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/database"
	"github.com/worklens/worklens/internal/focus"
	"github.com/worklens/worklens/internal/idle"
	"github.com/worklens/worklens/internal/models"
	"github.com/worklens/worklens/internal/notify"
	"github.com/worklens/worklens/internal/report"
	"github.com/worklens/worklens/internal/settings"
	"github.com/worklens/worklens/internal/tracker"
	"github.com/worklens/worklens/pkg/window"
)

const dayMillis = 24 * 60 * 60 * 1000

// Engine owns every component of the tracking core. It is constructed once at
// startup, after the store and settings are available, and passed by
// reference to the outer surfaces (CLI, web). Teardown flushes all open
// state.
type Engine struct {
	cfg        *config.Config
	repo       *database.Repository
	classifier *category.Classifier
	tracker    *tracker.Tracker
	idle       *idle.Detector
	monitor    *focus.Monitor
	notifier   *notify.Notifier

	stopChan chan struct{}
	stopOnce sync.Once
	running  bool
}

// focusCloser is the repository slice needed to reap a focus session left
// active by a crash.
type focusCloser interface {
	ActiveFocusSession() (*models.FocusSession, error)
	FinalizeFocusSession(id uint, endTime, duration int64, distractions int) error
}

// closeStaleFocusSession finalizes a focus session a previous process left
// active, using startup time as its end.
func closeStaleFocusSession(store focusCloser, nowMS int64) {
	stale, err := store.ActiveFocusSession()
	if err != nil {
		log.Printf("engine: failed to check for stale focus session: %v", err)
		return
	}
	if stale == nil {
		return
	}
	if err := store.FinalizeFocusSession(stale.ID, nowMS, nowMS-stale.StartTime, stale.DistractionCount); err != nil {
		log.Printf("engine: failed to close stale focus session: %v", err)
	}
}

// New wires the components together. idleProvider may be nil; the idle
// detector then degrades to its wall-clock fallback.
func New(cfg *config.Config, repo *database.Repository, settingsStore *settings.Store, winProvider window.ActiveWindowProvider, idleProvider window.IdleTimeProvider) (*Engine, error) {
	classifier, err := category.NewClassifier(settingsStore, repo)
	if err != nil {
		return nil, err
	}

	notifier := notify.New(64)
	trk := tracker.New(repo, classifier, winProvider, notifier, cfg.Tracker.FlushInterval)
	detector := idle.New(repo, classifier, trk, idleProvider, cfg.Idle.Threshold)
	monitor := focus.New(repo, classifier, winProvider, notifier, cfg.Focus.PollInterval, cfg.Focus.AlertCooldown, cfg.Focus.JobRole)

	e := &Engine{
		cfg:        cfg,
		repo:       repo,
		classifier: classifier,
		tracker:    trk,
		idle:       detector,
		monitor:    monitor,
		notifier:   notifier,
		stopChan:   make(chan struct{}),
	}

	// A focus session left active by a crash is closed at startup.
	closeStaleFocusSession(repo, time.Now().UnixMilli())

	return e, nil
}

// Start enables tracking and runs the polling loops until the context is
// cancelled or Stop is called. Firings of the same timer are strictly
// ordered; window and idle ticks interleave arbitrarily.
func (e *Engine) Start(ctx context.Context) error {
	if e.running {
		return fmt.Errorf("engine is already running")
	}
	e.running = true

	if err := e.StartTracking(); err != nil {
		e.running = false
		return err
	}
	log.Printf("Starting engine with %v window poll, %v idle poll", e.cfg.Tracker.PollInterval, e.cfg.Idle.PollInterval)

	windowTicker := time.NewTicker(e.cfg.Tracker.PollInterval)
	defer windowTicker.Stop()
	idleTicker := time.NewTicker(e.cfg.Idle.PollInterval)
	defer idleTicker.Stop()

	e.tracker.Tick()

	for {
		select {
		case <-ctx.Done():
			log.Println("Engine stopped by context")
			e.shutdown()
			return ctx.Err()

		case <-e.stopChan:
			log.Println("Engine stopped")
			e.shutdown()
			return nil

		case <-windowTicker.C:
			e.tracker.Tick()

		case <-idleTicker.C:
			e.idle.Tick()
		}
	}
}

// Stop ends the polling loops and flushes all open state. Safe to call more
// than once and from any goroutine.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
}

// shutdown synchronously finalizes every open session and idle period. No
// unflushed state survives.
func (e *Engine) shutdown() {
	if err := e.monitor.End(); err != nil {
		log.Printf("engine: failed to end focus session on shutdown: %v", err)
	}
	if err := e.StopTracking(); err != nil {
		log.Printf("engine: failed to stop tracking on shutdown: %v", err)
	}
	e.notifier.Close()
	e.running = false
}

// StartTracking enables window tracking.
func (e *Engine) StartTracking() error {
	return e.tracker.Enable()
}

// StopTracking disables tracking, closing any open idle period and session.
func (e *Engine) StopTracking() error {
	e.idle.Finalize()
	return e.tracker.Disable()
}

// ToggleTracking flips tracking and reports the new state.
func (e *Engine) ToggleTracking() (bool, error) {
	if e.tracker.Enabled() {
		return false, e.StopTracking()
	}
	return true, e.StartTracking()
}

// TrackingEnabled reports whether tracking is on.
func (e *Engine) TrackingEnabled() bool {
	return e.tracker.Enabled()
}

// Idle reports whether the idle detector currently holds the user Idle.
func (e *Engine) Idle() bool {
	return e.idle.Idle()
}

// PreIdleSession returns the session finalized by the last Active-to-Idle
// transition, or nil while the user is active.
func (e *Engine) PreIdleSession() *models.WindowSession {
	return e.idle.PreIdleSession()
}

// CurrentActiveWindow returns the live focused window.
func (e *Engine) CurrentActiveWindow() (*tracker.Current, error) {
	return e.tracker.CurrentActiveWindow()
}

// ActiveWindows returns persisted sessions in [from, to); zero bounds mean
// unbounded.
func (e *Engine) ActiveWindows(from, to int64) ([]models.WindowSession, error) {
	return e.tracker.ActiveWindows(from, to)
}

// CompileWindowData aggregates sessions into category buckets.
func (e *Engine) CompileWindowData(days int) (*models.WindowReport, error) {
	return e.tracker.CompileWindowData(days)
}

// IdleStatistics aggregates idle periods over the last days days.
func (e *Engine) IdleStatistics(days int) (*models.IdleStatistics, error) {
	return e.idle.Statistics(days)
}

// SetIdleThreshold changes the idle threshold in milliseconds.
func (e *Engine) SetIdleThreshold(ms int64) {
	e.idle.SetThreshold(ms)
}

// GroupedCategories merges sessions from the last days days into timeline
// activity groups, split on idle periods.
func (e *Engine) GroupedCategories(days int) ([]models.ActivityGroup, error) {
	if days <= 0 {
		days = 1
	}
	since := time.Now().UnixMilli() - int64(days)*dayMillis

	sessions, err := e.repo.SessionsBetween(since, 0)
	if err != nil {
		return nil, err
	}
	idles, err := e.repo.IdleEventsSince(since)
	if err != nil {
		return nil, err
	}
	return report.GroupedCategories(sessions, idles, e.classifier.Classify), nil
}

// StartFocusSession begins a time-boxed focus session.
func (e *Engine) StartFocusSession(minutes int, title string) (*models.FocusSession, error) {
	return e.monitor.Start(minutes, title)
}

// EndFocusSession finalizes the active focus session, if any.
func (e *Engine) EndFocusSession() error {
	return e.monitor.End()
}

// FocusStatus returns a snapshot of the focus monitor.
func (e *Engine) FocusStatus() models.FocusStatus {
	return e.monitor.Status()
}

// CreateCategory adds a custom category and returns its id.
func (e *Engine) CreateCategory(name, description, color string) (string, error) {
	id, err := e.classifier.CreateCategory(name, description, color)
	if err == nil {
		e.notifier.Publish(notify.SettingsUpdated, map[string]any{"category": id})
	}
	return id, err
}

// UpdateCategory changes a custom category's description and color.
func (e *Engine) UpdateCategory(id, description, color string) error {
	err := e.classifier.UpdateCategory(id, description, color)
	if err == nil {
		e.notifier.Publish(notify.SettingsUpdated, map[string]any{"category": id})
	}
	return err
}

// DeleteCategory removes a custom category and its overrides.
func (e *Engine) DeleteCategory(id string) error {
	err := e.classifier.DeleteCategory(id)
	if err == nil {
		e.notifier.Publish(notify.SettingsUpdated, map[string]any{"category": id})
	}
	return err
}

// AssignApp sets the category override for a detected app.
func (e *Engine) AssignApp(appName, categoryID string) error {
	err := e.classifier.AssignApp(appName, categoryID)
	if err == nil {
		e.notifier.Publish(notify.SettingsUpdated, map[string]any{"app": appName, "category": categoryID})
	}
	return err
}

// RemoveAppOverride clears an app's category override.
func (e *Engine) RemoveAppOverride(appName string) error {
	return e.classifier.RemoveOverride(appName)
}

// ResetCategories drops all custom categories and overrides.
func (e *Engine) ResetCategories() error {
	err := e.classifier.ResetToDefaults()
	if err == nil {
		e.notifier.Publish(notify.SettingsUpdated, nil)
	}
	return err
}

// FinalCategories returns the merged category view populated with detected
// apps.
func (e *Engine) FinalCategories() ([]category.Category, error) {
	return e.classifier.FinalCategories()
}

// DetectedApps returns the distinct titles the tracker has recorded.
func (e *Engine) DetectedApps() ([]string, error) {
	return e.classifier.DetectedApps()
}

// Events exposes the outbound notification channel.
func (e *Engine) Events() <-chan notify.Event {
	return e.notifier.Events()
}
