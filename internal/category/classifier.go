package category

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/worklens/worklens/internal/settings"

	"github.com/pkg/errors"
)

var (
	// ErrNotCustom is returned when a mutation targets a built-in category.
	ErrNotCustom = errors.New("category is not custom")
	// ErrUnknownCategory is returned when the target category does not exist.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownApp is returned when an override targets an app that has
	// never been detected.
	ErrUnknownApp = errors.New("app has not been detected")
	// ErrDuplicateName is returned when a created category collides after
	// slug disambiguation gives up.
	ErrDuplicateName = errors.New("category name already exists")
)

const detectedAppsTTL = 30 * time.Second

// detectedAppsWindow bounds how far back the detected-apps query looks.
const detectedAppsWindow = 30 * 24 * time.Hour

// DocumentStore persists the user settings document.
type DocumentStore interface {
	Load() (*settings.Document, error)
	Save(*settings.Document) error
}

// AppSource supplies the set of window titles the tracker has recorded.
type AppSource interface {
	DetectedTitles(since int64) ([]string, error)
}

// Category is the merged view of a built-in or custom category populated with
// currently detected apps.
type Category struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Apps        []string `json:"apps"`
	IsCustom    bool     `json:"is_custom"`
}

// Classifier maps app names and domain-enhanced titles to categories.
// Classification is pure given unchanged override/custom-category state;
// mutations persist the full settings document and roll back on failure.
type Classifier struct {
	mu    sync.RWMutex
	store DocumentStore
	doc   *settings.Document
	apps  AppSource
	now   func() time.Time

	detected   []string
	detectedAt time.Time
}

// NewClassifier loads the settings document and returns a ready classifier.
func NewClassifier(store DocumentStore, apps AppSource) (*Classifier, error) {
	doc, err := store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load settings")
	}
	return &Classifier{
		store: store,
		doc:   doc,
		apps:  apps,
		now:   time.Now,
	}, nil
}

// Classify resolves an app name or domain-enhanced title to a category id.
// Resolution order: exact override, browser content keyword, default keyword
// scan, custom app list, miscellaneous.
func (c *Classifier) Classify(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classifyLocked(name)
}

func (c *Classifier) classifyLocked(name string) string {
	if id, ok := c.doc.AppOverrides[name]; ok {
		return id
	}

	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return Miscellaneous
	}

	if isBrowserTitle(normalized) {
		if id := matchContentCategory(normalized); id != "" {
			return id
		}
	}

	for _, def := range defaults {
		for _, kw := range def.Keywords {
			if strings.Contains(normalized, kw) || strings.Contains(kw, normalized) {
				return def.ID
			}
		}
	}

	for id, cat := range c.doc.CustomCategories {
		for _, app := range cat.Apps {
			if app == name {
				return id
			}
		}
	}

	return Miscellaneous
}

// isBrowserTitle reports whether a normalized title names a known browser
// process.
func isBrowserTitle(normalized string) bool {
	for _, proc := range browserProcesses {
		if strings.Contains(normalized, proc) {
			return true
		}
	}
	return false
}

// matchContentCategory scans the fixed content-priority list so a browser
// title carrying a content keyword resolves to the content category.
func matchContentCategory(normalized string) string {
	for _, id := range contentPriority {
		def, ok := defaultByID(id)
		if !ok {
			continue
		}
		for _, kw := range def.Keywords {
			if strings.Contains(normalized, kw) {
				return id
			}
		}
	}
	return ""
}

var domainPattern = regexp.MustCompile(`\b[a-z0-9][a-z0-9-]*(\.[a-z0-9][a-z0-9-]*)+\b`)

// EnhanceTitle returns the session title for an observed window. Browser
// windows whose title carries a domain get "owner - domain" so one browser
// process resolves to content-specific categories; everything else keeps the
// owner name.
func (c *Classifier) EnhanceTitle(owner, title string) string {
	if owner == "" {
		return title
	}
	if !isBrowserTitle(strings.ToLower(owner)) {
		return owner
	}
	if domain := domainPattern.FindString(strings.ToLower(title)); domain != "" {
		return fmt.Sprintf("%s - %s", owner, domain)
	}
	return owner
}

// DetectedApps returns the distinct titles seen by the tracker, memoized for
// a fixed TTL.
func (c *Classifier) DetectedApps() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detectedAppsLocked()
}

func (c *Classifier) detectedAppsLocked() ([]string, error) {
	now := c.now()
	if c.detected != nil && now.Sub(c.detectedAt) < detectedAppsTTL {
		return c.detected, nil
	}
	since := now.Add(-detectedAppsWindow).UnixMilli()
	titles, err := c.apps.DetectedTitles(since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query detected apps")
	}
	c.detected = titles
	c.detectedAt = now
	return titles, nil
}

// FinalCategories merges built-in and custom categories, populates each with
// the detected apps that classify into it, drops empty non-miscellaneous
// buckets and sorts apps alphabetically.
func (c *Classifier) FinalCategories() ([]Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	detected, err := c.detectedAppsLocked()
	if err != nil {
		return nil, err
	}

	byID := map[string]*Category{}
	var order []string
	for _, def := range defaults {
		byID[def.ID] = &Category{ID: def.ID, Description: def.Description, Color: def.Color, Apps: []string{}}
		order = append(order, def.ID)
	}
	customIDs := make([]string, 0, len(c.doc.CustomCategories))
	for id := range c.doc.CustomCategories {
		customIDs = append(customIDs, id)
	}
	sort.Strings(customIDs)
	for _, id := range customIDs {
		cat := c.doc.CustomCategories[id]
		byID[id] = &Category{ID: id, Description: cat.Description, Color: cat.Color, Apps: []string{}, IsCustom: true}
		order = append(order, id)
	}

	for _, app := range detected {
		id := c.classifyLocked(app)
		if bucket, ok := byID[id]; ok {
			bucket.Apps = append(bucket.Apps, app)
		} else {
			byID[Miscellaneous].Apps = append(byID[Miscellaneous].Apps, app)
		}
	}

	out := make([]Category, 0, len(order))
	for _, id := range order {
		bucket := byID[id]
		if len(bucket.Apps) == 0 && id != Miscellaneous {
			continue
		}
		sort.Strings(bucket.Apps)
		out = append(out, *bucket)
	}
	return out, nil
}

// Overrides returns a copy of the current app overrides.
func (c *Classifier) Overrides() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.doc.AppOverrides))
	for app, id := range c.doc.AppOverrides {
		out[app] = id
	}
	return out
}

// categoryExistsLocked reports whether id names a built-in or custom category.
func (c *Classifier) categoryExistsLocked(id string) bool {
	if _, ok := defaultByID(id); ok {
		return true
	}
	_, ok := c.doc.CustomCategories[id]
	return ok
}

// commitLocked persists the mutated document, restoring the snapshot when the
// write fails so in-memory and on-disk state never diverge.
func (c *Classifier) commitLocked(snapshot *settings.Document) error {
	if err := c.store.Save(c.doc); err != nil {
		c.doc = snapshot
		return errors.Wrap(err, "failed to persist settings")
	}
	return nil
}

// CreateCategory adds a custom category and returns its slug id.
func (c *Classifier) CreateCategory(name, description, color string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := c.newCategoryIDLocked(name)
	if err != nil {
		return "", err
	}

	snapshot := c.doc.Clone()
	c.doc.CustomCategories[id] = settings.Category{
		Description: description,
		Color:       color,
		Apps:        []string{},
		IsCustom:    true,
	}
	if err := c.commitLocked(snapshot); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateCategory changes the description and color of a custom category.
func (c *Classifier) UpdateCategory(id, description, color string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat, ok := c.doc.CustomCategories[id]
	if !ok {
		if _, builtin := defaultByID(id); builtin {
			return ErrNotCustom
		}
		return ErrUnknownCategory
	}

	snapshot := c.doc.Clone()
	cat.Description = description
	cat.Color = color
	c.doc.CustomCategories[id] = cat
	return c.commitLocked(snapshot)
}

// DeleteCategory removes a custom category and, transactionally with it,
// every override pointing at it.
func (c *Classifier) DeleteCategory(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, builtin := defaultByID(id); builtin {
		return ErrNotCustom
	}
	if _, ok := c.doc.CustomCategories[id]; !ok {
		return ErrUnknownCategory
	}

	snapshot := c.doc.Clone()
	delete(c.doc.CustomCategories, id)
	for app, target := range c.doc.AppOverrides {
		if target == id {
			delete(c.doc.AppOverrides, app)
		}
	}
	return c.commitLocked(snapshot)
}

// AssignApp sets the highest-priority override for a detected app.
func (c *Classifier) AssignApp(appName, categoryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.categoryExistsLocked(categoryID) {
		return ErrUnknownCategory
	}

	detected, err := c.detectedAppsLocked()
	if err != nil {
		return err
	}
	known := false
	for _, app := range detected {
		if app == appName {
			known = true
			break
		}
	}
	if !known {
		return ErrUnknownApp
	}

	snapshot := c.doc.Clone()
	c.doc.AppOverrides[appName] = categoryID
	return c.commitLocked(snapshot)
}

// RemoveOverride clears the override for an app, if any.
func (c *Classifier) RemoveOverride(appName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.doc.AppOverrides[appName]; !ok {
		return nil
	}
	snapshot := c.doc.Clone()
	delete(c.doc.AppOverrides, appName)
	return c.commitLocked(snapshot)
}

// ResetToDefaults drops all custom categories and overrides.
func (c *Classifier) ResetToDefaults() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.doc.Clone()
	c.doc.CustomCategories = map[string]settings.Category{}
	c.doc.AppOverrides = map[string]string{}
	return c.commitLocked(snapshot)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a display name into a category id.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStrip.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// newCategoryIDLocked slugifies the name and disambiguates collisions with a
// numeric suffix.
func (c *Classifier) newCategoryIDLocked(name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "category"
	}
	if !c.categoryExistsLocked(base) {
		return base, nil
	}
	for i := 2; i < 100; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !c.categoryExistsLocked(candidate) {
			return candidate, nil
		}
	}
	return "", ErrDuplicateName
}
