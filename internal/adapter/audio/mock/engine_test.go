package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
)

func testClip(length time.Duration) *domain.Clip {
	return &domain.Clip{Name: "beep", SampleRate: 44100, Length: length}
}

// TestNewDevice tests creating a new mock device.
func TestNewDevice(t *testing.T) {
	device := NewDevice()

	if device == nil {
		t.Fatal("NewDevice returned nil")
	}

	if device.OpenChannels() != 0 {
		t.Errorf("Expected 0 open channels, got %d", device.OpenChannels())
	}

	group, err := device.Mixer().FindGroup(MasterGroup)
	if err != nil {
		t.Fatalf("FindGroup failed: %v", err)
	}
	if group != domain.MixerGroup(MasterGroup) {
		t.Errorf("Expected group %q, got %q", MasterGroup, group)
	}
}

// TestMixerUnknownNames tests lookups of groups and parameters that do not exist.
func TestMixerUnknownNames(t *testing.T) {
	device := NewDevice()

	_, err := device.Mixer().FindGroup("Music")
	if !errors.Is(err, domain.ErrGroupNotFound) {
		t.Errorf("Expected ErrGroupNotFound, got %v", err)
	}

	err = device.Mixer().SetParameter("MusicVolume", -6)
	if !errors.Is(err, domain.ErrUnknownParameter) {
		t.Errorf("Expected ErrUnknownParameter, got %v", err)
	}
}

// TestMixerSetParameter tests that parameter values are recorded.
func TestMixerSetParameter(t *testing.T) {
	device := NewDevice()

	if err := device.Mixer().SetParameter(MasterParameter, -20); err != nil {
		t.Fatalf("SetParameter failed: %v", err)
	}

	v, ok := device.MockMixer().Parameter(MasterParameter)
	if !ok || v != -20 {
		t.Errorf("Expected -20 dB, got %v (ok=%v)", v, ok)
	}
}

// TestPlayWithoutClip tests that a channel refuses to play without a clip.
func TestPlayWithoutClip(t *testing.T) {
	device := NewDevice()
	ch, err := device.NewChannel()
	if err != nil {
		t.Fatalf("NewChannel failed: %v", err)
	}

	if err := ch.Play(); !errors.Is(err, domain.ErrNoClip) {
		t.Errorf("Expected ErrNoClip, got %v", err)
	}
}

// TestPlaybackLifecycle tests play, pause, unpause and stop.
func TestPlaybackLifecycle(t *testing.T) {
	device := NewDevice()
	ch, _ := device.NewChannel()
	ch.SetClip(testClip(time.Second))

	if err := ch.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !ch.IsPlaying() {
		t.Error("Channel should be playing")
	}

	_ = ch.Pause()
	if ch.IsPlaying() {
		t.Error("Paused channel should not be playing")
	}

	_ = ch.Unpause()
	if !ch.IsPlaying() {
		t.Error("Unpaused channel should be playing")
	}

	_ = ch.Stop()
	if ch.IsPlaying() {
		t.Error("Stopped channel should not be playing")
	}
	if ch.Elapsed() != 0 {
		t.Errorf("Expected rewind on stop, got %v", ch.Elapsed())
	}
}

// TestUnpauseStopped tests that Unpause does not restart a stopped channel.
func TestUnpauseStopped(t *testing.T) {
	device := NewDevice()
	ch, _ := device.NewChannel()
	ch.SetClip(testClip(time.Second))

	_ = ch.Unpause()
	if ch.IsPlaying() {
		t.Error("Unpause should not start a stopped channel")
	}
}

// TestSimulateProgress tests that clips end on their own.
func TestSimulateProgress(t *testing.T) {
	device := NewDevice()
	ch, _ := device.NewChannel()
	ch.SetClip(testClip(time.Second))
	_ = ch.Play()

	device.SimulateProgress(400 * time.Millisecond)
	if got := ch.Elapsed(); got != 400*time.Millisecond {
		t.Errorf("Expected 400ms elapsed, got %v", got)
	}

	device.SimulateProgress(time.Second)
	if ch.IsPlaying() {
		t.Error("Channel should stop at the end of the clip")
	}
	if got := ch.Elapsed(); got != time.Second {
		t.Errorf("Expected elapsed clamped to clip length, got %v", got)
	}
}

// TestSimulateProgressLoop tests that looping channels wrap around.
func TestSimulateProgressLoop(t *testing.T) {
	device := NewDevice()
	ch, _ := device.NewChannel()
	mc := ch.(*Channel)
	ch.SetClip(testClip(time.Second))
	ch.SetLoop(true)
	_ = ch.Play()

	mc.SimulateProgress(1500 * time.Millisecond)
	if !ch.IsPlaying() {
		t.Error("Looping channel should keep playing")
	}
	if got := ch.Elapsed(); got != 500*time.Millisecond {
		t.Errorf("Expected 500ms after wrap, got %v", got)
	}
	if mc.Plays() != 2 {
		t.Errorf("Expected 2 plays after one wrap, got %d", mc.Plays())
	}
}

// TestPausedDoesNotProgress tests that paused channels keep their position.
func TestPausedDoesNotProgress(t *testing.T) {
	device := NewDevice()
	ch, _ := device.NewChannel()
	ch.SetClip(testClip(time.Second))
	_ = ch.Play()
	_ = ch.Pause()

	device.SimulateProgress(500 * time.Millisecond)
	if ch.Elapsed() != 0 {
		t.Errorf("Paused channel advanced to %v", ch.Elapsed())
	}
}

// TestVolumeClamp tests that volume stays within [0, 1].
func TestVolumeClamp(t *testing.T) {
	device := NewDevice()
	ch, _ := device.NewChannel()

	ch.SetVolume(2)
	if ch.Volume() != 1 {
		t.Errorf("Expected clamp to 1, got %v", ch.Volume())
	}

	ch.SetVolume(-1)
	if ch.Volume() != 0 {
		t.Errorf("Expected clamp to 0, got %v", ch.Volume())
	}
}

// TestDeviceClose tests that closing the device closes every channel.
func TestDeviceClose(t *testing.T) {
	device := NewDevice()
	a, _ := device.NewChannel()
	b, _ := device.NewChannel()
	a.SetClip(testClip(time.Second))
	_ = a.Play()

	if err := device.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !a.Closed() || !b.Closed() {
		t.Error("All channels should be closed")
	}
	if a.IsPlaying() {
		t.Error("Closed channel should not be playing")
	}
	if _, err := device.NewChannel(); !errors.Is(err, domain.ErrDeviceClosed) {
		t.Errorf("Expected ErrDeviceClosed, got %v", err)
	}
}

// TestFailureInjection tests configured failures.
func TestFailureInjection(t *testing.T) {
	device := NewDevice()
	ch, _ := device.NewChannel()
	ch.SetClip(testClip(time.Second))

	device.SetFailPlay(true)
	if err := ch.Play(); err == nil {
		t.Error("Expected Play to fail")
	}

	device.SetFailNewChannel(true)
	if _, err := device.NewChannel(); err == nil {
		t.Error("Expected NewChannel to fail")
	}
}

// TestConcurrentAccess tests thread-safety of the device.
func TestConcurrentAccess(t *testing.T) {
	device := NewDevice()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch, err := device.NewChannel()
			if err != nil {
				t.Errorf("NewChannel failed: %v", err)
				return
			}
			ch.SetClip(testClip(time.Second))
			_ = ch.Play()
			device.SetListener(domain.Vector3{float64(i), 0, 0})
			device.SimulateProgress(time.Millisecond)
		}(i)
	}
	wg.Wait()

	if device.OpenChannels() != 10 {
		t.Errorf("Expected 10 open channels, got %d", device.OpenChannels())
	}
}
