package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	defaultFileName = "settings.toml"
	defaultDir      = ".config/worklens"
)

// Category is a user-defined category as persisted in the settings document.
type Category struct {
	Description string   `toml:"description" json:"description"`
	Color       string   `toml:"color" json:"color"`
	Apps        []string `toml:"apps" json:"apps"`
	IsCustom    bool     `toml:"is_custom" json:"is_custom"`
}

// Document is the full user settings document. It is read fully on start and
// rewritten fully on every mutation.
type Document struct {
	CustomCategories map[string]Category `toml:"custom_categories" json:"custom_categories"`
	AppOverrides     map[string]string   `toml:"app_category_overrides" json:"app_category_overrides"`
}

// Clone deep-copies the document so a mutation can be rolled back to its
// pre-mutation snapshot after a failed write.
func (d *Document) Clone() *Document {
	out := &Document{
		CustomCategories: make(map[string]Category, len(d.CustomCategories)),
		AppOverrides:     make(map[string]string, len(d.AppOverrides)),
	}
	for id, cat := range d.CustomCategories {
		apps := make([]string, len(cat.Apps))
		copy(apps, cat.Apps)
		cat.Apps = apps
		out.CustomCategories[id] = cat
	}
	for app, id := range d.AppOverrides {
		out.AppOverrides[app] = id
	}
	return out
}

// normalize repairs a loosely-shaped document once at load time so callers
// never have to default at read sites.
func (d *Document) normalize() {
	if d.CustomCategories == nil {
		d.CustomCategories = map[string]Category{}
	}
	if d.AppOverrides == nil {
		d.AppOverrides = map[string]string{}
	}
	for id, cat := range d.CustomCategories {
		if cat.Apps == nil {
			cat.Apps = []string{}
		}
		cat.IsCustom = true
		sort.Strings(cat.Apps)
		d.CustomCategories[id] = cat
	}
}

// Store reads and writes the settings document on disk.
type Store struct {
	path string
}

func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, defaultDir, defaultFileName), nil
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create settings directory")
	}
	return &Store{path: path}, nil
}

// Load reads the full settings document. A missing file yields an empty,
// normalized document.
func (s *Store) Load() (*Document, error) {
	doc := &Document{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			doc.normalize()
			return doc, nil
		}
		return nil, errors.Wrap(err, "failed to read settings")
	}
	if err := toml.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse settings")
	}
	doc.normalize()
	return doc, nil
}

// Save rewrites the full document atomically: marshal to a temp file in the
// same directory, then rename over the target.
func (s *Store) Save(doc *Document) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.toml")
	if err != nil {
		return errors.Wrap(err, "failed to create temp settings file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write settings")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close settings file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to replace settings file")
	}
	return nil
}
