// Package fyne provides the Fyne desk UI for soundstage.
// The desk fires sound bank cues and controls global mute, pause and master volume.
package fyne

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
	"github.com/tejashwikalptaru/soundstage/internal/service"
)

// commandTimeout bounds how long a UI callback waits to enqueue a command.
const commandTimeout = time.Second

// maxLogLines is the number of recent events the desk keeps.
const maxLogLines = 50

// maxRecentFiles is the length of the Open Recent list.
const maxRecentFiles = 8

// DeskView defines the interface for UI updates.
// Methods are called from the driver goroutine, so implementations must be
// safe to call off the UI thread.
type DeskView interface {
	SetCues(names []string)
	SetActiveCount(count int)
	SetMuteState(muted bool)
	SetPauseState(paused bool)
	SetMasterVolume(percent float64)
	SetEventLog(lines []string)
	SetRecentFiles(paths []string)
	ShowNotification(title, message string)
}

// Commander runs work on the goroutine that owns the playback manager.
// service.Driver is the production implementation.
type Commander interface {
	Do(ctx context.Context, cmd service.Command) error
}

// DeskState is the manager state the desk shows before the first event arrives.
type DeskState struct {
	MasterVolume float64
	Muted        bool
	Paused       bool
	ActiveCount  int
}

// Presenter coordinates between the playback manager and the desk view.
//
// Responsibilities:
// - Subscribe to manager and bank events
// - Map events to view updates
// - Translate UI commands into manager commands
//
// Thread-safety: All operations are thread-safe via sync.Mutex.
type Presenter struct {
	logger    *slog.Logger
	commander Commander
	bank      ports.SoundBank
	loader    ports.ClipLoader
	bus       ports.EventBus
	view      DeskView
	prefs     ports.PreferencesRepository

	// emitter is where cues are played from
	emitter domain.Vector3

	mu     sync.Mutex
	log    []string
	subIDs []domain.SubscriptionID

	shutdownOnce sync.Once
}

// NewPresenter creates a presenter and syncs view with initial.
// bank and loader may be nil, which disables cues and file playback respectively.
func NewPresenter(
	logger *slog.Logger,
	commander Commander,
	bank ports.SoundBank,
	loader ports.ClipLoader,
	bus ports.EventBus,
	view DeskView,
	initial DeskState,
) *Presenter {
	p := &Presenter{
		logger:    logger,
		commander: commander,
		bank:      bank,
		loader:    loader,
		bus:       bus,
		view:      view,
	}

	p.subscribeToEvents()
	p.syncInitialState(initial)

	return p
}

// SetPreferences enables persistence of master volume, mute and recent files.
func (p *Presenter) SetPreferences(prefs ports.PreferencesRepository) {
	p.mu.Lock()
	p.prefs = prefs
	p.mu.Unlock()

	p.view.SetRecentFiles(p.RecentFiles())
}

// RecentFiles returns the recently played files, newest first.
func (p *Presenter) RecentFiles() []string {
	prefs := p.preferences()
	if prefs == nil {
		return nil
	}

	paths, err := prefs.LoadRecentFiles()
	if err != nil {
		p.logger.Warn("failed to load recent files", slog.Any("error", err))
		return nil
	}
	return paths
}

func (p *Presenter) preferences() ports.PreferencesRepository {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs
}

// SetEmitter sets the world position cues are played from.
func (p *Presenter) SetEmitter(position domain.Vector3) {
	p.mu.Lock()
	p.emitter = position
	p.mu.Unlock()
}

func (p *Presenter) subscribeToEvents() {
	subscriptions := map[domain.EventType]domain.EventHandler{
		domain.EventSlotStarted:         p.onSlotStarted,
		domain.EventSlotFinished:        p.onSlotFinished,
		domain.EventSlotDropped:         p.onSlotDropped,
		domain.EventMuteAllChanged:      p.onMuteAllChanged,
		domain.EventPauseAllChanged:     p.onPauseAllChanged,
		domain.EventMasterVolumeChanged: p.onMasterVolumeChanged,
		domain.EventBankReloaded:        p.onBankReloaded,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for eventType, handler := range subscriptions {
		p.subIDs = append(p.subIDs, p.bus.Subscribe(eventType, handler))
	}
}

func (p *Presenter) syncInitialState(initial DeskState) {
	if p.bank != nil {
		p.view.SetCues(p.bank.Names())
	} else {
		p.view.SetCues(nil)
	}
	p.view.SetMasterVolume(initial.MasterVolume * 100)
	p.view.SetMuteState(initial.Muted)
	p.view.SetPauseState(initial.Paused)
	p.view.SetActiveCount(initial.ActiveCount)
}

// Event handlers

func (p *Presenter) onSlotStarted(event domain.Event) {
	e, ok := event.(domain.SlotStartedEvent)
	if !ok {
		return
	}
	p.view.SetActiveCount(e.ActiveCount)
	p.appendLog(fmt.Sprintf("#%d started %s", e.SlotID, e.Clip))
}

func (p *Presenter) onSlotFinished(event domain.Event) {
	e, ok := event.(domain.SlotFinishedEvent)
	if !ok {
		return
	}
	p.view.SetActiveCount(e.ActiveCount)

	where := "destroyed"
	if e.Pooled {
		where = "pooled"
	}
	p.appendLog(fmt.Sprintf("#%d finished (%s)", e.SlotID, where))
}

func (p *Presenter) onSlotDropped(event domain.Event) {
	e, ok := event.(domain.SlotDroppedEvent)
	if !ok {
		return
	}
	p.view.SetActiveCount(e.ActiveCount)
	p.appendLog(fmt.Sprintf("#%d dropped", e.SlotID))
}

func (p *Presenter) onMuteAllChanged(event domain.Event) {
	if e, ok := event.(domain.MuteAllChangedEvent); ok {
		p.view.SetMuteState(e.Muted)
	}
}

func (p *Presenter) onPauseAllChanged(event domain.Event) {
	if e, ok := event.(domain.PauseAllChangedEvent); ok {
		p.view.SetPauseState(e.Paused)
	}
}

func (p *Presenter) onMasterVolumeChanged(event domain.Event) {
	if e, ok := event.(domain.MasterVolumeChangedEvent); ok {
		p.view.SetMasterVolume(e.Volume * 100)
	}
}

func (p *Presenter) onBankReloaded(event domain.Event) {
	e, ok := event.(domain.BankReloadedEvent)
	if !ok {
		return
	}

	if e.Err != nil {
		p.view.ShowNotification("Sound Bank", fmt.Sprintf("Reload failed, keeping previous cues: %v", e.Err))
		return
	}
	p.view.SetCues(e.Cues)
	p.appendLog(fmt.Sprintf("bank reloaded (%d cues)", len(e.Cues)))
}

func (p *Presenter) appendLog(line string) {
	p.mu.Lock()
	p.log = append(p.log, line)
	if len(p.log) > maxLogLines {
		p.log = p.log[len(p.log)-maxLogLines:]
	}
	lines := make([]string, len(p.log))
	copy(lines, p.log)
	p.mu.Unlock()

	p.view.SetEventLog(lines)
}

// UI Command handlers (called by UI)

// OnCueClicked plays the named cue at the emitter position.
func (p *Presenter) OnCueClicked(name string) {
	if p.bank == nil {
		return
	}

	settings, err := p.bank.Cue(name)
	if err != nil {
		p.logger.Error("cue lookup failed", slog.String("cue", name), slog.Any("error", err))
		p.view.ShowNotification("Cue Error", err.Error())
		return
	}

	p.mu.Lock()
	position := p.emitter
	p.mu.Unlock()

	p.submit("play cue", func(m *service.Manager) {
		if _, err := m.Play(settings, position); err != nil {
			p.logger.Error("cue playback failed", slog.String("cue", name), slog.Any("error", err))
			p.view.ShowNotification("Playback Error", fmt.Sprintf("Failed to play %s: %v", name, err))
		}
	})
}

// OnFileOpened decodes the file and plays it once, non-spatialized.
func (p *Presenter) OnFileOpened(path string) error {
	if p.loader == nil {
		return domain.ErrUnsupportedFormat
	}

	clip, err := p.loader.Load(path)
	if err != nil {
		return err
	}

	p.submit("play file", func(m *service.Manager) {
		if _, err := m.PlayClip2D(clip, 1, 1, domain.Vector3{}); err != nil {
			p.logger.Error("file playback failed", slog.String("path", path), slog.Any("error", err))
			p.view.ShowNotification("Playback Error", err.Error())
		}
	})

	p.rememberFile(path)
	return nil
}

func (p *Presenter) rememberFile(path string) {
	prefs := p.preferences()
	if prefs == nil {
		return
	}

	recent := []string{path}
	for _, old := range p.RecentFiles() {
		if old != path && len(recent) < maxRecentFiles {
			recent = append(recent, old)
		}
	}

	if err := prefs.SaveRecentFiles(recent); err != nil {
		p.logger.Warn("failed to save recent files", slog.Any("error", err))
		return
	}
	p.view.SetRecentFiles(recent)
}

// OnMuteToggled sets the global mute state.
func (p *Presenter) OnMuteToggled(muted bool) {
	p.submit("mute all", func(m *service.Manager) {
		m.SetMuteAll(muted)
	})

	if prefs := p.preferences(); prefs != nil {
		if err := prefs.SaveMuted(muted); err != nil {
			p.logger.Warn("failed to save mute state", slog.Any("error", err))
		}
	}
}

// OnPauseToggled sets the global pause state.
func (p *Presenter) OnPauseToggled(paused bool) {
	p.submit("pause all", func(m *service.Manager) {
		m.SetPauseAll(paused)
	})
}

// OnMasterVolumeChanged handles master slider changes in percent.
func (p *Presenter) OnMasterVolumeChanged(percent float64) {
	volume := math.Max(0, math.Min(100, percent)) / 100
	p.submit("master volume", func(m *service.Manager) {
		if err := m.SetMasterVolume(volume); err != nil {
			p.logger.Error("master volume change failed", slog.Any("error", err))
			p.view.ShowNotification("Volume Error", fmt.Sprintf("Failed to change volume: %v", err))
			return
		}
		if prefs := p.preferences(); prefs != nil {
			if err := prefs.SaveMasterVolume(m.MasterVolume()); err != nil {
				p.logger.Warn("failed to save master volume", slog.Any("error", err))
			}
		}
	})
}

// OnStopAllClicked stops every active slot. The manager retires them on its next tick.
func (p *Presenter) OnStopAllClicked() {
	p.submit("stop all", func(m *service.Manager) {
		for _, slot := range m.ActiveSlots() {
			slot.Stop()
		}
	})
}

func (p *Presenter) submit(op string, cmd service.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := p.commander.Do(ctx, cmd); err != nil {
		p.logger.Error("command not delivered", slog.String("op", op), slog.Any("error", err))
		if errors.Is(err, context.DeadlineExceeded) {
			p.view.ShowNotification("Audio Busy", fmt.Sprintf("%s was dropped", op))
		}
	}
}

// Shutdown unsubscribes from the event bus.
// It's safe to call multiple times (idempotent).
func (p *Presenter) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		ids := p.subIDs
		p.subIDs = nil
		p.mu.Unlock()

		for _, id := range ids {
			p.bus.Unsubscribe(id)
		}
	})
}
