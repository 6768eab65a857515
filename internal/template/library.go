// Package template keeps a library of reusable component trees loaded from
// JSON files and instantiates them onto the canvas with fresh ids.
package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
)

var (
	ErrNotFound = errors.New("template not found")
	ErrInvalid  = errors.New("invalid template")
)

const DefaultDebounce = 500 * time.Millisecond

// Template is one library entry. On disk it is a single JSON object; the id
// defaults to the file name without extension.
type Template struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	Components  []component.Node `json:"components"`
}

type Library struct {
	dir      string
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.RWMutex
	byID   map[string]Template
	byFile map[string]string
}

type Option func(*Library)

func WithLogger(l *slog.Logger) Option {
	return func(lib *Library) { lib.logger = l }
}

func WithDebounce(d time.Duration) Option {
	return func(lib *Library) { lib.debounce = d }
}

func NewLibrary(dir string, opts ...Option) *Library {
	l := &Library{
		dir:      dir,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		byID:     make(map[string]Template),
		byFile:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every *.json file in the library directory. Files that fail to
// parse or validate are skipped and reported together in the error.
func (l *Library) Load() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read template dir: %w", err)
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := l.loadFile(filepath.Join(l.dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	l.logger.Info("templates loaded", "dir", l.dir, "count", l.Len())
	return errors.Join(errs...)
}

func (l *Library) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template %s: %w", path, err)
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("%w %s: %v", ErrInvalid, path, err)
	}
	if t.ID == "" {
		t.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := l.Add(t); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	l.mu.Lock()
	if old, ok := l.byFile[path]; ok && old != t.ID {
		delete(l.byID, old)
	}
	l.byFile[path] = t.ID
	l.mu.Unlock()
	return nil
}

// Add registers t, replacing any template with the same id. Templates
// without components or with invalid trees are rejected.
func (l *Library) Add(t Template) error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	if len(t.Components) == 0 {
		return fmt.Errorf("%w %q: no components", ErrInvalid, t.ID)
	}
	for i, root := range t.Components {
		if errs := component.Validate(root); len(errs) > 0 {
			return fmt.Errorf("%w %q: components[%d].%s", ErrInvalid, t.ID, i, errs[0])
		}
	}
	if t.Name == "" {
		t.Name = t.ID
	}

	l.mu.Lock()
	l.byID[t.ID] = t
	l.mu.Unlock()
	return nil
}

func (l *Library) removeFile(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.byFile[path]; ok {
		delete(l.byID, id)
		delete(l.byFile, path)
	}
}

func (l *Library) Get(id string) (Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.byID[id]
	return t, ok
}

// List returns every template sorted by id.
func (l *Library) List() []Template {
	l.mu.RLock()
	out := make([]Template, 0, len(l.byID))
	for _, t := range l.byID {
		out = append(out, t)
	}
	l.mu.RUnlock()
	slices.SortFunc(out, func(a, b Template) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// Instantiate copies template id with fresh ids throughout and translates
// the copies so the top-left of their combined bounding box lands on at.
func (l *Library) Instantiate(id string, at geometry.Point) ([]component.Node, error) {
	t, ok := l.Get(id)
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}

	bounds := t.Components[0].Bounds()
	for _, n := range t.Components[1:] {
		bounds = bounds.Union(n.Bounds())
	}
	offset := at.Sub(bounds.Position())

	out := make([]component.Node, len(t.Components))
	for i, n := range t.Components {
		out[i] = component.Duplicate(n, offset)
	}
	return out, nil
}

// Watch reloads changed template files until ctx is done. Writes are
// debounced per file; removed or renamed files drop their template.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	go func() {
		defer watcher.Close()
		timers := make(map[string]*time.Timer)
		defer func() {
			for _, t := range timers {
				t.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".json" {
					continue
				}
				path := event.Name
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					if t, exists := timers[path]; exists {
						t.Stop()
						delete(timers, path)
					}
					l.removeFile(path)
					l.logger.Info("template removed", "file", path)
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if t, exists := timers[path]; exists {
					t.Stop()
				}
				timers[path] = time.AfterFunc(l.debounce, func() {
					if err := l.loadFile(path); err != nil {
						l.logger.Warn("template reload failed", "file", path, "error", err)
						return
					}
					l.logger.Info("template reloaded", "file", path)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("template watcher error", "error", err)
			}
		}
	}()
	return nil
}
