// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"github.com/tejashwikalptaru/soundstage/internal/adapter/audio/ebiten"
	"github.com/tejashwikalptaru/soundstage/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/soundstage/internal/adapter/bank"
	"github.com/tejashwikalptaru/soundstage/internal/adapter/clip"
	"github.com/tejashwikalptaru/soundstage/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/soundstage/internal/adapter/repository/memory"
	fyneui "github.com/tejashwikalptaru/soundstage/internal/adapter/ui/fyne"
	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/logger"
	"github.com/tejashwikalptaru/soundstage/internal/ports"
	"github.com/tejashwikalptaru/soundstage/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Running the driver goroutine that owns the playback manager
// - Providing a clean entry point for main.go
type Application struct {
	config Config

	// Core dependencies
	logger  *slog.Logger
	fyneApp fyne.App

	// Infrastructure
	eventBus ports.EventBus
	device   ports.OutputDevice
	loader   *clip.Loader
	bank     *bank.Bank
	watcher  *bank.Watcher

	// Repositories
	preferencesRepo ports.PreferencesRepository

	// Playback core
	manager *service.Manager
	driver  *service.Driver

	// UI
	presenter  *fyneui.Presenter
	mainWindow *fyneui.MainWindow

	// Driver lifecycle
	cancel   context.CancelFunc
	done     chan struct{}
	startMu  sync.Mutex
	shutdown sync.Once
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{config: config}

	// Step 1: Create Fyne application
	if config.TestFyneApp != nil {
		app.fyneApp = config.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(config.AppID)
	}

	// Step 2: Create logger
	app.logger = logger.NewLogger(config.LoggerConfig())
	app.logger.Info("initializing application",
		slog.String("app_id", config.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 3: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger.With(slog.String("component", "eventbus")))

	// Step 4: Create an output device
	device, err := app.newDevice()
	if err != nil {
		return nil, err
	}
	app.device = device
	app.device.SetListener(domain.Vector3(config.Listener))

	// Step 5: Create clip loader and sound bank
	app.loader = clip.NewLoader(app.logger.With(slog.String("component", "clips")))
	if err := app.openBank(); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	// Step 6: Create the playback core
	app.manager = service.NewManager(
		app.logger.With(slog.String("service", "playback")),
		app.device,
		app.eventBus,
	)
	if err := app.manager.Initialize(nil, config.PoolSize); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("failed to initialize playback manager: %w", err)
	}
	app.preferencesRepo = memory.NewPreferencesRepository(app.fyneApp.Preferences())
	app.applyStartupState()

	app.driver = service.NewDriver(
		app.logger.With(slog.String("component", "driver")),
		app.manager,
		config.TickInterval(),
	)

	// Step 7: Create UI and presenter
	app.mainWindow = fyneui.NewMainWindow(app.fyneApp)

	var cues ports.SoundBank
	if app.bank != nil {
		cues = app.bank
	}
	app.presenter = fyneui.NewPresenter(
		app.logger.With(slog.String("component", "presenter")),
		app.driver,
		cues,
		app.loader,
		app.eventBus,
		app.mainWindow,
		fyneui.DeskState{
			MasterVolume: app.manager.MasterVolume(),
			Muted:        app.manager.IsMuted(),
			Paused:       app.manager.IsPaused(),
			ActiveCount:  app.manager.ActiveCount(),
		},
	)
	app.presenter.SetEmitter(domain.Vector3(config.Emitter))
	app.presenter.SetPreferences(app.preferencesRepo)
	app.mainWindow.SetPresenter(app.presenter)
	// stop view updates before the window goes away
	app.mainWindow.SetOnBeforeClose(app.presenter.Shutdown)

	return app, nil
}

// applyStartupState sets master volume and mute before the driver starts,
// preferring the previous session's values when RestoreState is on.
func (a *Application) applyStartupState() {
	volume, muted := a.config.MasterVolume, false

	if a.config.RestoreState {
		if v, err := a.preferencesRepo.LoadMasterVolume(); err == nil {
			volume = v
		} else {
			a.logger.Warn("failed to load saved master volume", slog.Any("error", err))
		}
		if m, err := a.preferencesRepo.LoadMuted(); err == nil {
			muted = m
		} else {
			a.logger.Warn("failed to load saved mute state", slog.Any("error", err))
		}
	}

	if err := a.manager.SetMasterVolume(volume); err != nil {
		a.logger.Warn("failed to apply master volume", slog.Any("error", err))
	}
	if muted {
		a.manager.SetMuteAll(true)
	}
}

func (a *Application) newDevice() (ports.OutputDevice, error) {
	switch a.config.Device {
	case DeviceMock:
		device := mock.NewDevice()
		device.SetLogger(a.logger.With(slog.String("device", "mock")))
		return device, nil
	default:
		device, err := ebiten.NewDevice(a.logger.With(slog.String("device", "ebiten")), a.config.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize audio device: %w", err)
		}
		return device, nil
	}
}

func (a *Application) openBank() error {
	if a.config.BankPath == "" {
		a.logger.Info("no sound bank configured")
		return nil
	}

	b, err := bank.Load(a.logger.With(slog.String("component", "bank")), a.config.BankPath, a.loader)
	if err != nil {
		return fmt.Errorf("failed to load sound bank: %w", err)
	}
	a.bank = b

	if !a.config.WatchBank {
		return nil
	}

	w, err := bank.NewWatcher(a.logger.With(slog.String("component", "bank-watcher")), b, a.eventBus, bank.DefaultDebounce)
	if err != nil {
		// Hot reload is optional
		a.logger.Warn("sound bank watcher unavailable", slog.Any("error", err))
		return nil
	}
	a.watcher = w
	return nil
}

// Start launches the driver goroutine. It is a no-op if the driver is already running.
func (a *Application) Start() {
	a.startMu.Lock()
	defer a.startMu.Unlock()

	if a.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	go func() {
		defer close(a.done)
		if err := a.driver.Run(ctx); err != nil {
			a.logger.Error("driver exited", slog.Any("error", err))
		}
	}()
}

// Run starts the driver and shows the desk. It blocks until the window is closed.
func (a *Application) Run() error {
	a.Start()
	a.logger.Info("soundstage started")
	a.mainWindow.ShowAndRun()
	return nil
}

// Shutdown stops the driver, which shuts the manager down, then releases
// the watcher, device and event bus. Safe to call more than once.
func (a *Application) Shutdown() error {
	var errs []error

	a.shutdown.Do(func() {
		a.logger.Info("shutting down application")

		if a.presenter != nil {
			a.presenter.Shutdown()
		}

		a.startMu.Lock()
		cancel, done := a.cancel, a.done
		a.startMu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		} else {
			// driver never ran; the manager is still ours
			a.manager.Shutdown()
		}

		errs = append(errs, a.closeInfrastructure()...)

		a.logger.Info("application shutdown complete")
	})

	return errors.Join(errs...)
}

func (a *Application) closeInfrastructure() []error {
	var errs []error

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bank watcher: %w", err))
		}
	}

	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio device: %w", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}

	for _, err := range errs {
		a.logger.Warn("shutdown step failed", slog.Any("error", err))
	}
	return errs
}

// Preferences returns the desk preferences repository.
func (a *Application) Preferences() ports.PreferencesRepository {
	return a.preferencesRepo
}

// Driver returns the driver that owns the playback manager.
func (a *Application) Driver() *service.Driver {
	return a.driver
}

// Device returns the output device.
func (a *Application) Device() ports.OutputDevice {
	return a.device
}

// Bank returns the sound bank, or nil when none is configured.
func (a *Application) Bank() *bank.Bank {
	return a.bank
}

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus {
	return a.eventBus
}

// FyneApp returns the Fyne application.
func (a *Application) FyneApp() fyne.App {
	return a.fyneApp
}
