package category

import (
	"testing"
	"time"

	"github.com/worklens/worklens/internal/settings"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	doc      *settings.Document
	saves    int
	failSave bool
}

func (f *fakeStore) Load() (*settings.Document, error) {
	if f.doc == nil {
		f.doc = &settings.Document{
			CustomCategories: map[string]settings.Category{},
			AppOverrides:     map[string]string{},
		}
	}
	return f.doc, nil
}

func (f *fakeStore) Save(doc *settings.Document) error {
	f.saves++
	if f.failSave {
		return errors.New("disk full")
	}
	f.doc = doc.Clone()
	return nil
}

type fakeApps struct {
	titles []string
	calls  int
	err    error
}

func (f *fakeApps) DetectedTitles(since int64) ([]string, error) {
	f.calls++
	return f.titles, f.err
}

func newTestClassifier(t *testing.T, apps ...string) (*Classifier, *fakeStore, *fakeApps) {
	t.Helper()
	store := &fakeStore{}
	source := &fakeApps{titles: apps}
	c, err := NewClassifier(store, source)
	require.NoError(t, err)
	return c, store, source
}

func TestClassifyKeywords(t *testing.T) {
	c, _, _ := newTestClassifier(t)

	tests := []struct {
		name string
		want string
	}{
		{"Visual Studio Code", "development"},
		{"GoLand", "development"},
		{"Slack", "social"},
		{"Spotify", "entertainment"},
		{"firefox", "browsers"},
		{"Obsidian", "productivity"},
		{"Some Unknown Tool", Miscellaneous},
		{"", Miscellaneous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c, _, _ := newTestClassifier(t)
	first := c.Classify("Chrome - reddit.com")
	for i := 0; i < 10; i++ {
		if got := c.Classify("Chrome - reddit.com"); got != first {
			t.Fatalf("Classify changed from %q to %q on call %d", first, got, i)
		}
	}
}

func TestClassifyBrowserContentPriority(t *testing.T) {
	c, _, _ := newTestClassifier(t)

	// A browser title carrying a content keyword resolves to the content
	// category, not "browsers".
	assert.Equal(t, "social", c.Classify("Chrome - reddit.com"))
	assert.Equal(t, "entertainment", c.Classify("firefox - youtube.com"))
	assert.Equal(t, "learning", c.Classify("Brave - coursera.org"))
	// No content keyword: plain browser.
	assert.Equal(t, "browsers", c.Classify("Chrome - example.org"))
}

func TestClassifyOverridePrecedence(t *testing.T) {
	c, _, apps := newTestClassifier(t, "Spotify")
	apps.titles = []string{"Spotify"}

	require.NoError(t, c.AssignApp("Spotify", "work"))

	// Override beats the entertainment keyword match.
	assert.Equal(t, "work", c.Classify("Spotify"))

	require.NoError(t, c.RemoveOverride("Spotify"))
	assert.Equal(t, "entertainment", c.Classify("Spotify"))
}

func TestClassifyCustomAppList(t *testing.T) {
	c, store, _ := newTestClassifier(t)

	id, err := c.CreateCategory("Client Work", "Billable projects", "#ff0000")
	require.NoError(t, err)
	assert.Equal(t, "client-work", id)

	doc := store.doc.Clone()
	cat := doc.CustomCategories[id]
	cat.Apps = []string{"ObscureTool"}
	doc.CustomCategories[id] = cat
	c.doc = doc

	assert.Equal(t, id, c.Classify("ObscureTool"))
}

func TestCreateCategorySlugCollision(t *testing.T) {
	c, _, _ := newTestClassifier(t)

	first, err := c.CreateCategory("Deep Work!", "", "#111111")
	require.NoError(t, err)
	assert.Equal(t, "deep-work", first)

	second, err := c.CreateCategory("Deep Work", "", "#222222")
	require.NoError(t, err)
	assert.Equal(t, "deep-work-2", second)
}

func TestCreateCategoryCollidesWithBuiltin(t *testing.T) {
	c, _, _ := newTestClassifier(t)

	id, err := c.CreateCategory("Social", "", "#333333")
	require.NoError(t, err)
	assert.Equal(t, "social-2", id)
}

func TestDeleteCategoryRemovesOverrides(t *testing.T) {
	c, store, apps := newTestClassifier(t, "ToolA", "ToolB")
	apps.titles = []string{"ToolA", "ToolB"}

	id, err := c.CreateCategory("Temp", "", "#444444")
	require.NoError(t, err)
	require.NoError(t, c.AssignApp("ToolA", id))
	require.NoError(t, c.AssignApp("ToolB", id))
	assert.Equal(t, id, c.Classify("ToolA"))

	require.NoError(t, c.DeleteCategory(id))

	assert.Empty(t, store.doc.AppOverrides)
	// Fall through to keyword/default resolution.
	assert.Equal(t, Miscellaneous, c.Classify("ToolA"))
	assert.Equal(t, Miscellaneous, c.Classify("ToolB"))
}

func TestDeleteBuiltinRejected(t *testing.T) {
	c, _, _ := newTestClassifier(t)
	assert.ErrorIs(t, c.DeleteCategory("social"), ErrNotCustom)
}

func TestAssignUndetectedAppRejected(t *testing.T) {
	c, _, _ := newTestClassifier(t, "KnownApp")
	assert.ErrorIs(t, c.AssignApp("NeverSeen", "work"), ErrUnknownApp)
}

func TestAssignUnknownCategoryRejected(t *testing.T) {
	c, _, _ := newTestClassifier(t, "KnownApp")
	assert.ErrorIs(t, c.AssignApp("KnownApp", "no-such-category"), ErrUnknownCategory)
}

func TestMutationRollbackOnSaveFailure(t *testing.T) {
	c, store, apps := newTestClassifier(t, "Spotify")
	apps.titles = []string{"Spotify"}

	store.failSave = true

	_, err := c.CreateCategory("Doomed", "", "#555555")
	assert.Error(t, err)
	assert.Empty(t, c.doc.CustomCategories, "in-memory state must roll back after a failed write")

	err = c.AssignApp("Spotify", "work")
	assert.Error(t, err)
	assert.Empty(t, c.doc.AppOverrides)
	assert.Equal(t, "entertainment", c.Classify("Spotify"))
}

func TestDeleteRollbackOnSaveFailure(t *testing.T) {
	c, store, apps := newTestClassifier(t, "ToolA")
	apps.titles = []string{"ToolA"}

	id, err := c.CreateCategory("Keep", "", "#666666")
	require.NoError(t, err)
	require.NoError(t, c.AssignApp("ToolA", id))

	store.failSave = true
	assert.Error(t, c.DeleteCategory(id))

	// Both the category and the override survive the failed delete.
	_, ok := c.doc.CustomCategories[id]
	assert.True(t, ok)
	assert.Equal(t, id, c.doc.AppOverrides["ToolA"])
}

func TestDetectedAppsMemoized(t *testing.T) {
	c, _, apps := newTestClassifier(t, "AppOne")

	base := time.Now()
	c.now = func() time.Time { return base }

	_, err := c.DetectedApps()
	require.NoError(t, err)
	_, err = c.DetectedApps()
	require.NoError(t, err)
	assert.Equal(t, 1, apps.calls, "second call within TTL must hit the cache")

	c.now = func() time.Time { return base.Add(detectedAppsTTL + time.Second) }
	_, err = c.DetectedApps()
	require.NoError(t, err)
	assert.Equal(t, 2, apps.calls, "call after TTL must refresh")
}

func TestFinalCategories(t *testing.T) {
	c, _, apps := newTestClassifier(t)
	apps.titles = []string{"Zoom", "Slack", "GoLand", "WeirdThing"}

	categories, err := c.FinalCategories()
	require.NoError(t, err)

	byID := map[string]Category{}
	for _, cat := range categories {
		byID[cat.ID] = cat
	}

	assert.Equal(t, []string{"GoLand"}, byID["development"].Apps)
	assert.Equal(t, []string{"Slack"}, byID["social"].Apps)
	assert.Equal(t, []string{"Zoom"}, byID["work"].Apps)
	assert.Equal(t, []string{"WeirdThing"}, byID[Miscellaneous].Apps)

	// Empty non-miscellaneous buckets are dropped.
	_, hasEntertainment := byID["entertainment"]
	assert.False(t, hasEntertainment)
}

func TestEnhanceTitle(t *testing.T) {
	c, _, _ := newTestClassifier(t)

	tests := []struct {
		owner string
		title string
		want  string
	}{
		{"Chrome", "reddit.com - front page", "Chrome - reddit.com"},
		{"firefox", "Watch later - youtube.com", "firefox - youtube.com"},
		{"Chrome", "New Tab", "Chrome"},
		{"GoLand", "tracker.go - worklens", "GoLand"},
		{"", "orphan title", "orphan title"},
	}

	for _, tt := range tests {
		if got := c.EnhanceTitle(tt.owner, tt.title); got != tt.want {
			t.Errorf("EnhanceTitle(%q, %q) = %q, want %q", tt.owner, tt.title, got, tt.want)
		}
	}
}

func TestResetToDefaults(t *testing.T) {
	c, store, apps := newTestClassifier(t, "ToolA")
	apps.titles = []string{"ToolA"}

	id, err := c.CreateCategory("Custom", "", "#777777")
	require.NoError(t, err)
	require.NoError(t, c.AssignApp("ToolA", id))

	require.NoError(t, c.ResetToDefaults())
	assert.Empty(t, store.doc.CustomCategories)
	assert.Empty(t, store.doc.AppOverrides)
}
