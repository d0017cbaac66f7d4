package bank

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a bank when its file changes and publishes a BankReloadedEvent.
// The directory is watched rather than the file so atomic saves (rename over) are seen.
type Watcher struct {
	logger   *slog.Logger
	bank     *Bank
	bus      ports.EventBus
	watcher  *fsnotify.Watcher
	debounce time.Duration

	closeCh chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewWatcher starts watching the bank's directory. bus may be nil.
func NewWatcher(logger *slog.Logger, bank *Bank, bus ports.EventBus, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(bank.Path())); err != nil {
		_ = fw.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		logger:   logger,
		bank:     bank,
		bus:      bus,
		watcher:  fw,
		debounce: debounce,
		closeCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()

	logger.Debug("watching sound bank", slog.String("path", bank.Path()))
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()

	target := filepath.Clean(w.bank.Path())
	// armed by the first matching event
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound bank watcher error", slog.Any("error", err))

		case <-timer.C:
			w.reload()

		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	err := w.bank.Reload()
	if err != nil {
		w.logger.Warn("sound bank reload failed, keeping previous cues", slog.Any("error", err))
	}
	if w.bus != nil {
		w.bus.Publish(domain.NewBankReloadedEvent(w.bank.Names(), err))
	}
}
