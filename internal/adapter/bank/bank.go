// Package bank loads named playback cues from a YAML sound bank file.
package bank

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

// File is the on-disk layout of a sound bank.
type File struct {
	Cues map[string]CueSpec `yaml:"cues"`
}

// CueSpec describes one cue. Omitted fields take the PlaybackSettings defaults.
// Clip paths are relative to the bank file.
type CueSpec struct {
	Clip        string   `yaml:"clip"`
	Volume      *float64 `yaml:"volume"`
	Pitch       *float64 `yaml:"pitch"`
	PitchMin    *float64 `yaml:"pitch_min"`
	PitchMax    *float64 `yaml:"pitch_max"`
	Spatial     string   `yaml:"spatial"`
	MinDistance *float64 `yaml:"min_distance"`
	MaxDistance *float64 `yaml:"max_distance"`
}

// Bank is a set of cues decoded from a bank file.
//
// Thread-safety: This implementation is thread-safe; Reload may run on a
// watcher goroutine while the UI reads cues.
type Bank struct {
	logger *slog.Logger
	loader ports.ClipLoader
	path   string

	mu    sync.RWMutex
	cues  map[string]domain.PlaybackSettings
	names []string
}

// Load reads and decodes the bank file at path, loading every referenced clip.
func Load(logger *slog.Logger, path string, loader ports.ClipLoader) (*Bank, error) {
	b := &Bank{
		logger: logger,
		loader: loader,
		path:   path,
		cues:   make(map[string]domain.PlaybackSettings),
	}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

// Path returns the bank file path.
func (b *Bank) Path() string {
	return b.path
}

// Reload re-reads the bank file. On error the previous cues stay in place.
func (b *Bank) Reload() error {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return fmt.Errorf("bank: read %s: %w", b.path, err)
	}

	cues, err := Parse(data, filepath.Dir(b.path), b.loader)
	if err != nil {
		return fmt.Errorf("bank: %s: %w", b.path, err)
	}

	names := make([]string, 0, len(cues))
	for name := range cues {
		names = append(names, name)
	}
	slices.Sort(names)

	b.mu.Lock()
	b.cues = cues
	b.names = names
	b.mu.Unlock()

	b.logger.Info("sound bank loaded", slog.String("path", b.path), slog.Int("cues", len(names)))
	return nil
}

// Cue returns the settings registered under name.
func (b *Bank) Cue(name string) (domain.PlaybackSettings, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.cues[name]
	if !ok {
		return domain.PlaybackSettings{}, fmt.Errorf("%w: %s", domain.ErrCueNotFound, name)
	}
	return s, nil
}

// Names returns the cue names in lexical order.
func (b *Bank) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.names)
}

// Parse decodes bank YAML into validated settings. Clip paths are resolved
// against baseDir and each distinct clip is loaded once.
func Parse(data []byte, baseDir string, loader ports.ClipLoader) (map[string]domain.PlaybackSettings, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	clips := make(map[string]*domain.Clip)
	cues := make(map[string]domain.PlaybackSettings, len(file.Cues))
	for name, spec := range file.Cues {
		path := spec.Clip
		if path == "" {
			return nil, fmt.Errorf("cue %q: %w", name, domain.NewValidationError("clip", path, "clip is required"))
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		clip, ok := clips[path]
		if !ok {
			var err error
			if clip, err = loader.Load(path); err != nil {
				return nil, fmt.Errorf("cue %q: %w", name, err)
			}
			clips[path] = clip
		}

		settings, err := spec.Settings(clip)
		if err != nil {
			return nil, fmt.Errorf("cue %q: %w", name, err)
		}
		cues[name] = settings
	}
	return cues, nil
}

// Settings applies the spec over the defaults for clip and validates the result.
// pitch sets both bounds; pitch_min and pitch_max override it.
func (c CueSpec) Settings(clip *domain.Clip) (domain.PlaybackSettings, error) {
	s := domain.NewPlaybackSettings(clip)

	setIf(&s.Volume, c.Volume)
	setIf(&s.PitchMin, c.Pitch)
	setIf(&s.PitchMax, c.Pitch)
	setIf(&s.PitchMin, c.PitchMin)
	setIf(&s.PitchMax, c.PitchMax)
	setIf(&s.MinDistance, c.MinDistance)
	setIf(&s.MaxDistance, c.MaxDistance)

	mode, ok := domain.ParseSpatialMode(c.Spatial)
	if !ok {
		return s, domain.NewValidationError("spatial", c.Spatial, "must be 2d or 3d")
	}
	s.Spatial = mode

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func setIf(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

var _ ports.SoundBank = (*Bank)(nil)
