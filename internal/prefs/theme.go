// Package prefs persists user preferences independently of the order
// store. Currently that is a single flag: dark theme on or off.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/avolkov/orderledger/internal/watch"
)

// themeFile is the on-disk shape of the preference file.
type themeFile struct {
	DarkTheme bool `json:"dark_theme"`
}

// ThemeStore persists the dark-theme flag in a small JSON file and
// exposes it as a live stream. A missing or unreadable file reads as
// false, the system default.
type ThemeStore struct {
	path    string
	mu      sync.Mutex
	changes *watch.Bus
}

// NewThemeStore creates a ThemeStore backed by the given file path.
func NewThemeStore(path string) *ThemeStore {
	return &ThemeStore{path: path, changes: watch.NewBus()}
}

// IsDark reads the current flag. Defaults to false when never set.
func (s *ThemeStore) IsDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *ThemeStore) read() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	var f themeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return false
	}
	return f.DarkTheme
}

// SetDark updates the flag atomically (write-then-rename) and notifies
// all active watchers.
func (s *ThemeStore) SetDark(dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}

	data, err := json.Marshal(themeFile{DarkTheme: dark})
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}

	s.changes.Notify()
	return nil
}

// Watch streams the flag: the current value immediately, then every
// update until ctx is done, at which point the channel closes.
func (s *ThemeStore) Watch(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	ticks := s.changes.Subscribe(ctx)

	go func() {
		defer close(out)

		emit := func() {
			select {
			case out <- s.IsDark():
			case <-ctx.Done():
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticks:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return out
}
