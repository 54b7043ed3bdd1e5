// Package prefs persists the dashboard's user preferences: the panel order
// and the UI language. Both live in one YAML file under independent keys.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/autopeer-io/evfleet/pkg/log"
)

type PanelID string

const (
	PanelOverview PanelID = "overview"
	PanelVehicle  PanelID = "vehicle"
	PanelAlerts   PanelID = "alerts"
)

// DefaultPanelOrder is used whenever no valid order has been persisted.
var DefaultPanelOrder = []PanelID{PanelOverview, PanelVehicle, PanelAlerts}

const DefaultLanguage = "en"

// SupportedLanguages lists the UI languages with translations.
var SupportedLanguages = []string{"en", "de"}

const (
	keyPanelOrder = "panel-order"
	keyLanguage   = "language"
)

var (
	ErrInvalidPanelOrder = errors.New("invalid panel order")
	ErrUnsupportedLang   = errors.New("unsupported language")
)

// ValidPanelOrder reports whether order can replace the default: same length
// and every entry a known panel.
func ValidPanelOrder(order []PanelID) bool {
	if len(order) != len(DefaultPanelOrder) {
		return false
	}
	for _, p := range order {
		if !slices.Contains(DefaultPanelOrder, p) {
			return false
		}
	}
	return true
}

func normalizeLanguage(lang string) (string, bool) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	return lang, slices.Contains(SupportedLanguages, lang)
}

// Store keeps the preferences in memory and mirrors them to a YAML file.
// An empty path keeps everything in memory.
type Store struct {
	path   string
	logger log.Logger

	mu         sync.RWMutex
	v          *viper.Viper
	panelOrder []PanelID
	language   string
	onChange   func()
}

type Option func(*Store)

func WithLogger(l log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// OnChange registers fn to run after the file changed on disk and was
// reloaded by Watch.
func OnChange(fn func()) Option {
	return func(s *Store) { s.onChange = fn }
}

// Open loads the preferences at path. Missing or malformed files, and
// individual invalid values, fall back to the defaults; Open never fails.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
	return s
}

func (s *Store) loadLocked() {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault(keyLanguage, DefaultLanguage)
	s.v = v
	s.panelOrder = slices.Clone(DefaultPanelOrder)
	s.language = DefaultLanguage

	if s.path == "" {
		return
	}

	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			s.logger.Warn("Ignoring unreadable preferences file", "path", s.path, "err", err)
		}
		return
	}

	if raw := v.Get(keyPanelOrder); raw != nil {
		if order, ok := toPanelOrder(raw); ok {
			s.panelOrder = order
		} else {
			s.logger.Warn("Ignoring invalid panel order", "path", s.path, "value", raw)
		}
	}

	if lang, ok := normalizeLanguage(v.GetString(keyLanguage)); ok {
		s.language = lang
	} else {
		s.logger.Warn("Ignoring unsupported language", "path", s.path, "value", v.GetString(keyLanguage))
	}
}

func toPanelOrder(raw any) ([]PanelID, bool) {
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	order := make([]PanelID, 0, len(items))
	for _, it := range items {
		str, ok := it.(string)
		if !ok {
			return nil, false
		}
		order = append(order, PanelID(str))
	}
	return order, ValidPanelOrder(order)
}

func (s *Store) PanelOrder() []PanelID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.panelOrder)
}

func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetPanelOrder updates and persists the order. Invalid orders are rejected.
func (s *Store) SetPanelOrder(order []PanelID) error {
	if !ValidPanelOrder(order) {
		return fmt.Errorf("%w: %v", ErrInvalidPanelOrder, order)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.panelOrder = slices.Clone(order)
	raw := make([]string, len(order))
	for i, p := range order {
		raw[i] = string(p)
	}
	s.v.Set(keyPanelOrder, raw)
	return s.saveLocked()
}

// SetLanguage updates and persists the language.
func (s *Store) SetLanguage(lang string) error {
	norm, ok := normalizeLanguage(lang)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLang, lang)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.language = norm
	s.v.Set(keyLanguage, norm)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write preferences %s: %w", s.path, err)
	}
	return nil
}

// Reload rereads the file, replacing in-memory values.
func (s *Store) Reload() {
	s.mu.Lock()
	s.loadLocked()
	s.mu.Unlock()
}

// Watch reloads the preferences whenever the file is written, created or
// replaced, until ctx is done. The parent directory is watched so that
// editors that save by rename are picked up.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create preferences watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.logger.Info("Watching preferences file", "path", s.path)

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			s.logger.Debug("Preferences file changed", "op", ev.Op.String())
			s.Reload()
			if s.onChange != nil {
				s.onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error(err, "Preferences watcher error")
		}
	}
}
