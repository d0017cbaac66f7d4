package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundstage/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/soundstage/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/logger"
)

// newTestManager creates a manager backed by a mock device and a sync bus.
func newTestManager() (*Manager, *mock.Device, *eventbus.SyncEventBus) {
	device := mock.NewDevice()
	bus := eventbus.NewSyncEventBus(nil)
	m := NewManager(logger.NewTestLogger(), device, bus)
	return m, device, bus
}

// testClip creates a silent clip of the given length.
func testClip(name string, length time.Duration) *domain.Clip {
	return &domain.Clip{Name: name, SampleRate: 44100, Length: length}
}

// testSettings returns valid 3D settings for a one second clip.
func testSettings(volume float64) domain.PlaybackSettings {
	s := domain.NewPlaybackSettings(testClip("beep", time.Second))
	s.Volume = volume
	return s
}

// newTestSlot creates an inert slot on a fresh mock channel.
func newTestSlot(t *testing.T) (*Slot, *mock.Channel) {
	t.Helper()
	device := mock.NewDevice()
	ch, err := device.NewChannel()
	require.NoError(t, err)
	return newSlot(logger.NewTestLogger(), 1, ch, domain.MixerGroup(mock.MasterGroup), nil), ch.(*mock.Channel)
}

// fakeTarget is a movable target that can be destroyed.
type fakeTarget struct {
	pos    domain.Vector3
	exists bool
}

func (f *fakeTarget) Position() domain.Vector3 { return f.pos }
func (f *fakeTarget) Exists() bool             { return f.exists }
