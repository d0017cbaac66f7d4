package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
)

// DefaultTickInterval is one tick per 60 Hz frame.
const DefaultTickInterval = time.Second / 60

// Command runs on the driver goroutine with exclusive access to the manager.
type Command func(m *Manager)

// Driver owns the goroutine that ticks a Manager. Other goroutines reach the
// manager only by submitting commands, so the manager itself needs no locks.
type Driver struct {
	logger   *slog.Logger
	manager  *Manager
	interval time.Duration
	commands chan Command
	running  atomic.Bool
	ticks    atomic.Uint64
}

// NewDriver creates a driver that ticks manager every interval.
// Non-positive intervals fall back to DefaultTickInterval.
func NewDriver(logger *slog.Logger, manager *Manager, interval time.Duration) *Driver {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Driver{
		logger:   logger,
		manager:  manager,
		interval: interval,
		commands: make(chan Command, 64),
	}
}

// Run ticks the manager and executes queued commands until ctx is done.
// The manager is shut down before Run returns.
func (d *Driver) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return domain.ErrDriverRunning
	}
	defer d.running.Store(false)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("driver started", slog.Duration("interval", d.interval))

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.manager.Shutdown()
			d.logger.Info("driver stopped", slog.Uint64("ticks", d.ticks.Load()))
			return nil

		case cmd := <-d.commands:
			d.exec(cmd)

		case <-ticker.C:
			d.exec(func(m *Manager) { m.Tick() })
			d.ticks.Add(1)
		}
	}
}

// Running reports whether Run is active.
func (d *Driver) Running() bool {
	return d.running.Load()
}

// Ticks returns the number of ticks executed so far.
func (d *Driver) Ticks() uint64 {
	return d.ticks.Load()
}

// Do queues cmd for the driver goroutine without waiting for it to run.
func (d *Driver) Do(ctx context.Context, cmd Command) error {
	select {
	case d.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call queues fn and waits until the driver has executed it, returning its error.
func (d *Driver) Call(ctx context.Context, fn func(m *Manager) error) error {
	done := make(chan error, 1)
	err := d.Do(ctx, func(m *Manager) {
		done <- fn(m)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain executes commands that were queued before shutdown.
func (d *Driver) drain() {
	for {
		select {
		case cmd := <-d.commands:
			d.exec(cmd)
		default:
			return
		}
	}
}

func (d *Driver) exec(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("driver command panicked", slog.String("panic", fmt.Sprint(r)))
		}
	}()
	cmd(d.manager)
}
