package focus

import (
	"testing"
	"time"

	"github.com/worklens/worklens/internal/models"
	"github.com/worklens/worklens/internal/notify"
	"github.com/worklens/worklens/pkg/window"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	nextID       uint
	sessions     []*models.FocusSession
	finalized    map[uint][3]int64 // endTime, duration, distractions
	counts       map[uint]int
	distractions []models.FocusDistraction
	failCreate   bool
}

func (f *fakeStore) CreateFocusSession(s *models.FocusSession) error {
	if f.failCreate {
		return errors.New("db unavailable")
	}
	f.nextID++
	s.ID = f.nextID
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeStore) FinalizeFocusSession(id uint, endTime, duration int64, distractions int) error {
	if f.finalized == nil {
		f.finalized = map[uint][3]int64{}
	}
	f.finalized[id] = [3]int64{endTime, duration, int64(distractions)}
	return nil
}

func (f *fakeStore) UpdateDistractionCount(id uint, count int) error {
	if f.counts == nil {
		f.counts = map[uint]int{}
	}
	f.counts[id] = count
	return nil
}

func (f *fakeStore) CreateDistraction(d *models.FocusDistraction) error {
	f.distractions = append(f.distractions, *d)
	return nil
}

type fakeClassifier struct {
	cats map[string]string
}

func (f *fakeClassifier) Classify(name string) string {
	if id, ok := f.cats[name]; ok {
		return id
	}
	return "miscellaneous"
}

func (f *fakeClassifier) EnhanceTitle(owner, title string) string { return title }

type fakeProvider struct {
	info *window.Info
}

func (f *fakeProvider) Get() (*window.Info, error) {
	if f.info == nil {
		return nil, nil
	}
	copy := *f.info
	return &copy, nil
}

func (f *fakeProvider) Close() error { return nil }

type fakeClock struct {
	ms int64
}

func (c *fakeClock) now() time.Time { return time.UnixMilli(c.ms) }

func newTestMonitor(t *testing.T, role string, cats map[string]string) (*Monitor, *fakeStore, *fakeProvider, *fakeClock) {
	t.Helper()
	store := &fakeStore{}
	provider := &fakeProvider{}
	clock := &fakeClock{ms: 1000}
	// A one-hour poll interval keeps the background loop quiet; tests drive
	// evaluate directly.
	m := New(store, &fakeClassifier{cats: cats}, provider, notify.New(16), time.Hour, 30*time.Second, role)
	m.now = clock.now
	t.Cleanup(func() { _ = m.End() })
	return m, store, provider, clock
}

func TestStartRejectsSecondSession(t *testing.T) {
	m, _, _, _ := newTestMonitor(t, "Software Engineer", nil)

	_, err := m.Start(60, "deep work")
	require.NoError(t, err)
	require.True(t, m.Active())

	_, err = m.Start(30, "another")
	assert.ErrorIs(t, err, ErrSessionActive)
}

func TestStartRejectsNonPositiveDuration(t *testing.T) {
	m, _, _, _ := newTestMonitor(t, "Software Engineer", nil)
	_, err := m.Start(0, "zero")
	assert.Error(t, err)
	assert.False(t, m.Active())
}

func TestEndIsIdempotent(t *testing.T) {
	m, store, _, clock := newTestMonitor(t, "Software Engineer", nil)

	session, err := m.Start(60, "deep work")
	require.NoError(t, err)

	clock.ms = 61000
	require.NoError(t, m.End())
	assert.False(t, m.Active())

	record, ok := store.finalized[session.ID]
	require.True(t, ok, "session must be finalized")
	assert.Equal(t, int64(61000), record[0])
	assert.Equal(t, int64(60000), record[1])

	// A second End is a no-op.
	require.NoError(t, m.End())
	assert.Len(t, store.finalized, 1)
}

func TestDistractionFlaggedOnce(t *testing.T) {
	cats := map[string]string{"Watch later": "entertainment"}
	m, store, provider, _ := newTestMonitor(t, "Accountant", cats)

	_, err := m.Start(60, "books")
	require.NoError(t, err)

	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "Watch later"}
	m.evaluate()

	require.Len(t, store.distractions, 1)
	d := store.distractions[0]
	assert.Equal(t, "FreeTube", d.AppName)
	assert.Equal(t, "entertainment", d.Category)
	assert.Equal(t, 1, m.Status().DistractionCount)
	assert.Equal(t, 1, store.counts[d.SessionID])

	// The same app on later ticks never re-alerts.
	m.evaluate()
	m.evaluate()
	assert.Len(t, store.distractions, 1)
	assert.Equal(t, 1, m.Status().DistractionCount)
}

func TestDedupSurvivesAppSwitch(t *testing.T) {
	cats := map[string]string{
		"Watch later": "entertainment",
		"ledger.xlsx": "work",
	}
	m, store, provider, _ := newTestMonitor(t, "Accountant", cats)

	_, err := m.Start(60, "books")
	require.NoError(t, err)

	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "Watch later"}
	m.evaluate()
	require.Len(t, store.distractions, 1)

	// Away to a focus app, then back to the same (app, category) pair: the
	// per-session dedup still holds.
	provider.info = &window.Info{ID: "0x2", Owner: "Calc", Title: "ledger.xlsx"}
	m.evaluate()
	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "Watch later"}
	m.evaluate()

	assert.Len(t, store.distractions, 1)
}

func TestPerAppCooldown(t *testing.T) {
	cats := map[string]string{
		"Watch later": "entertainment",
		"comments":    "social",
		"ledger.xlsx": "work",
	}
	m, store, provider, clock := newTestMonitor(t, "Accountant", cats)

	_, err := m.Start(60, "books")
	require.NoError(t, err)

	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "Watch later"}
	m.evaluate()
	require.Len(t, store.distractions, 1)

	// Same app, different non-focus category, inside the cooldown window.
	provider.info = &window.Info{ID: "0x2", Owner: "Calc", Title: "ledger.xlsx"}
	m.evaluate()
	clock.ms += 5000
	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "comments"}
	m.evaluate()
	assert.Len(t, store.distractions, 1, "cooldown must hold the second alert")

	// After the cooldown the new pair alerts.
	provider.info = &window.Info{ID: "0x2", Owner: "Calc", Title: "ledger.xlsx"}
	m.evaluate()
	clock.ms += 31000
	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "comments"}
	m.evaluate()
	require.Len(t, store.distractions, 2)
	assert.Equal(t, "social", store.distractions[1].Category)
	assert.Equal(t, 2, m.Status().DistractionCount)
}

func TestUnknownRoleFlagsNothing(t *testing.T) {
	cats := map[string]string{"Watch later": "entertainment"}
	m, store, provider, _ := newTestMonitor(t, "Astronaut", cats)

	_, err := m.Start(60, "launch prep")
	require.NoError(t, err)

	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "Watch later"}
	m.evaluate()

	assert.Empty(t, store.distractions)
	assert.Equal(t, 0, m.Status().DistractionCount)
}

func TestFocusCategoryNotFlagged(t *testing.T) {
	cats := map[string]string{"main.go": "development"}
	m, store, provider, _ := newTestMonitor(t, "Software Engineer", cats)

	_, err := m.Start(60, "deep work")
	require.NoError(t, err)

	provider.info = &window.Info{ID: "0x1", Owner: "GoLand", Title: "main.go"}
	m.evaluate()

	assert.Empty(t, store.distractions)
}

func TestWriterRoleFlagsDevelopment(t *testing.T) {
	cats := map[string]string{"main.go": "development"}
	m, store, provider, _ := newTestMonitor(t, "Writer", cats)

	_, err := m.Start(60, "chapter three")
	require.NoError(t, err)

	provider.info = &window.Info{ID: "0x1", Owner: "GoLand", Title: "main.go"}
	m.evaluate()

	require.Len(t, store.distractions, 1)
	assert.Equal(t, "development", store.distractions[0].Category)
}

func TestEvaluateAfterEndIsNoop(t *testing.T) {
	cats := map[string]string{"Watch later": "entertainment"}
	m, store, provider, _ := newTestMonitor(t, "Accountant", cats)

	_, err := m.Start(60, "books")
	require.NoError(t, err)
	require.NoError(t, m.End())

	provider.info = &window.Info{ID: "0x9", Owner: "FreeTube", Title: "Watch later"}
	m.evaluate()

	assert.Empty(t, store.distractions)
}

func TestStatusWithoutSession(t *testing.T) {
	m, _, _, _ := newTestMonitor(t, "Software Engineer", nil)
	status := m.Status()
	assert.False(t, status.Active)
	assert.Zero(t, status.SessionID)
}

func TestNonFocusCategories(t *testing.T) {
	assert.ElementsMatch(t, []string{"entertainment", "social"}, NonFocusCategories("Accountant"))
	assert.ElementsMatch(t, []string{"entertainment", "social", "development"}, NonFocusCategories("Writer"))
	assert.ElementsMatch(t, []string{"entertainment"}, NonFocusCategories("Support Agent"))
	assert.Nil(t, NonFocusCategories("Astronaut"))
	assert.Len(t, Roles(), 7)
}
