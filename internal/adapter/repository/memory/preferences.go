// Package memory persists desk preferences in the Fyne preferences store.
package memory

import (
	"encoding/json"
	"sync"

	"fyne.io/fyne/v2"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

const (
	keyMasterVolume = "desk.master_volume"
	keyMuted        = "desk.muted"
	keyRecentFiles  = "desk.recent_files"
)

// PreferencesRepository implements ports.PreferencesRepository using Fyne preferences.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	prefs fyne.Preferences
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences' repository.
// The preferences parameter should be obtained from fyne.App.Preferences().
func NewPreferencesRepository(prefs fyne.Preferences) *PreferencesRepository {
	return &PreferencesRepository{
		prefs: prefs,
	}
}

// SaveMasterVolume persists the master volume.
func (r *PreferencesRepository) SaveMasterVolume(volume float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetFloat(keyMasterVolume, volume)
	return nil
}

// LoadMasterVolume retrieves the saved master volume.
func (r *PreferencesRepository) LoadMasterVolume() (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.FloatWithFallback(keyMasterVolume, 1.0), nil
}

// SaveMuted persists the global mute state.
func (r *PreferencesRepository) SaveMuted(muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.SetBool(keyMuted, muted)
	return nil
}

// LoadMuted retrieves the saved mute state.
func (r *PreferencesRepository) LoadMuted() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.prefs.BoolWithFallback(keyMuted, false), nil
}

// SaveRecentFiles persists the recently played files.
func (r *PreferencesRepository) SaveRecentFiles(paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(paths)
	if err != nil {
		return domain.NewServiceError("PreferencesRepository", "SaveRecentFiles", "failed to marshal paths", err)
	}

	r.prefs.SetString(keyRecentFiles, string(data))
	return nil
}

// LoadRecentFiles retrieves the recently played files.
func (r *PreferencesRepository) LoadRecentFiles() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data := r.prefs.String(keyRecentFiles)
	if data == "" {
		return []string{}, nil
	}

	var paths []string
	if err := json.Unmarshal([]byte(data), &paths); err != nil {
		return nil, domain.NewServiceError("PreferencesRepository", "LoadRecentFiles", "failed to unmarshal paths", err)
	}
	return paths, nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prefs.RemoveValue(keyMasterVolume)
	r.prefs.RemoveValue(keyMuted)
	r.prefs.RemoveValue(keyRecentFiles)
	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
