// Package settings persists the user settings in an INI file.
//
// The file holds one section:
//
//	[pyapod_settings]
//	days = 7
//	size = 50
//
// days is the number of entries to list and size the thumbnail edge length in pixels.
package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/repository"

	"gopkg.in/ini.v1"
)

// File layout.
const (
	SectionName = "pyapod_settings"
	KeyDays     = "days"
	KeySize     = "size"
)

// ErrConfigFormat indicates a settings file that exists but cannot be used.
var ErrConfigFormat = errors.New("invalid settings file")

// ConfigFormatError names the file and key that failed to parse.
type ConfigFormatError struct {
	Path   string
	Key    string
	Reason string
}

func (e *ConfigFormatError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("settings file %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("settings file %s: %s.%s: %s", e.Path, SectionName, e.Key, e.Reason)
}

// Is matches ErrConfigFormat.
func (e *ConfigFormatError) Is(target error) bool { return target == ErrConfigFormat }

var _ repository.SettingsRepository = (*Store)(nil)

// Store implements repository.SettingsRepository on one INI file.
// Observers are called outside the lock, in registration order.
type Store struct {
	path   string
	logger *slog.Logger

	mu        sync.RWMutex
	current   entity.Settings
	observers []observer
	nextID    int
}

type observer struct {
	id int
	fn func(entity.Settings)
}

// NewStore creates a store for path. Current returns defaults until Load succeeds.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:    path,
		logger:  logger,
		current: entity.DefaultSettings(),
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. An absent file is created with defaults.
func (s *Store) Load(ctx context.Context) (entity.Settings, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		defaults := entity.DefaultSettings()
		if err := s.write(defaults); err != nil {
			return entity.Settings{}, err
		}
		s.logger.Info("settings file created with defaults",
			slog.String("path", s.path),
			slog.Int("days", defaults.EntryCount),
			slog.Int("size", defaults.ThumbnailSize))
		s.set(defaults)
		return defaults, nil
	}

	loaded, err := s.read()
	if err != nil {
		return entity.Settings{}, err
	}
	s.set(loaded)
	return loaded, nil
}

// Save validates v, rewrites the file and notifies observers.
func (s *Store) Save(ctx context.Context, v entity.Settings) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := s.write(v); err != nil {
		return err
	}
	s.set(v)
	s.notify(v)
	return nil
}

// Current returns the last loaded or saved value.
func (s *Store) Current() entity.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers fn for every change and returns a function that removes it.
func (s *Store) Subscribe(fn func(entity.Settings)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.observers = slices.DeleteFunc(s.observers, func(o observer) bool { return o.id == id })
			s.mu.Unlock()
		})
	}
}

func (s *Store) set(v entity.Settings) {
	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
}

func (s *Store) notify(v entity.Settings) {
	s.mu.RLock()
	observers := slices.Clone(s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		o.fn(v)
	}
}

func (s *Store) read() (entity.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return entity.Settings{}, fmt.Errorf("read settings file %s: %w", s.path, err)
	}

	file, err := ini.Load(data)
	if err != nil {
		return entity.Settings{}, &ConfigFormatError{Path: s.path, Reason: err.Error()}
	}

	section, err := file.GetSection(SectionName)
	if err != nil {
		return entity.Settings{}, &ConfigFormatError{Path: s.path, Reason: fmt.Sprintf("missing section [%s]", SectionName)}
	}

	days, err := readPositive(s.path, section, KeyDays)
	if err != nil {
		return entity.Settings{}, err
	}
	size, err := readPositive(s.path, section, KeySize)
	if err != nil {
		return entity.Settings{}, err
	}
	return entity.Settings{EntryCount: days, ThumbnailSize: size}, nil
}

func readPositive(path string, section *ini.Section, name string) (int, error) {
	if !section.HasKey(name) {
		return 0, &ConfigFormatError{Path: path, Key: name, Reason: "missing key"}
	}
	raw := section.Key(name).String()
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigFormatError{Path: path, Key: name, Reason: fmt.Sprintf("%q is not an integer", raw)}
	}
	if v < 1 {
		return 0, &ConfigFormatError{Path: path, Key: name, Reason: fmt.Sprintf("must be at least 1, got %d", v)}
	}
	return v, nil
}

// write replaces the file atomically with a temp file in the same directory.
func (s *Store) write(v entity.Settings) error {
	file := ini.Empty()
	section, err := file.NewSection(SectionName)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := section.NewKey(KeyDays, strconv.Itoa(v.EntryCount)); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := section.NewKey(KeySize, strconv.Itoa(v.ThumbnailSize)); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".apod-settings-*")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
