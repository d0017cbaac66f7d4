// Package ports define repository interfaces for sound bank access.
package ports

import (
	"github.com/tejashwikalptaru/soundstage/internal/domain"
)

// SoundBank resolves named cues into ready-to-play settings.
// Implementations can load cues from files, embed them, or build them in memory.
//
// Thread-safety: Implementations must be thread-safe; a watcher may reload
// the bank while the UI reads it.
type SoundBank interface {
	// Cue returns the settings registered under name.
	//
	// Returns domain.ErrCueNotFound if no cue has that name.
	Cue(name string) (domain.PlaybackSettings, error)

	// Names returns every cue name in a stable order.
	Names() []string
}

// PreferencesRepository handles the persistence of desk preferences.
// This abstracts the Fyne preferences storage.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveMasterVolume persists the linear master volume.
	SaveMasterVolume(volume float64) error

	// LoadMasterVolume retrieves the saved master volume.
	// If none was saved, returns 1.0 (full volume).
	LoadMasterVolume() (float64, error)

	// SaveMuted persists the global mute state.
	SaveMuted(muted bool) error

	// LoadMuted retrieves the saved mute state, false by default.
	LoadMuted() (bool, error)

	// SaveRecentFiles persists the recently played file paths, newest first.
	SaveRecentFiles(paths []string) error

	// LoadRecentFiles retrieves the recently played file paths.
	// Returns an empty slice if nothing was saved.
	LoadRecentFiles() ([]string, error)

	// Clear removes all saved preferences.
	Clear() error
}
