package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundstage/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/logger"
)

func TestSlot_NewIsInert(t *testing.T) {
	slot, ch := newTestSlot(t)

	assert.False(t, slot.IsInitialized())
	assert.False(t, slot.IsFinished())
	assert.Equal(t, domain.StateInert, slot.State())
	assert.Equal(t, "[AudioSource]", slot.Name())
	assert.Equal(t, domain.MixerGroup(mock.MasterGroup), ch.OutputGroup())
}

func TestSlot_Initialize(t *testing.T) {
	slot, ch := newTestSlot(t)

	settings := testSettings(0.6)
	settings.Spatial = domain.SpatialTwoD
	pos := domain.Vector3{1, 2, 3}

	require.NoError(t, slot.Initialize(settings, pos, Ambient{}))

	assert.True(t, slot.IsInitialized())
	assert.Equal(t, domain.StatePlaying, slot.State())
	assert.Equal(t, pos, slot.Position())
	assert.Equal(t, pos, ch.Position())
	assert.Same(t, settings.Clip, ch.Clip())
	assert.Equal(t, 0.6, ch.Volume())
	assert.Equal(t, 1.0, ch.Pitch())
	assert.Equal(t, 0.0, ch.SpatialBlend())
	assert.False(t, ch.AutoPlay())
	assert.True(t, ch.IsPlaying())
	assert.False(t, ch.Muted())
}

func TestSlot_InitializeTwice(t *testing.T) {
	slot, _ := newTestSlot(t)
	require.NoError(t, slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{}))

	err := slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{})
	assert.ErrorIs(t, err, domain.ErrAlreadyInitialized)
}

func TestSlot_InitializeAppliesAmbient(t *testing.T) {
	slot, ch := newTestSlot(t)

	require.NoError(t, slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{Muted: true, Paused: true}))

	assert.True(t, ch.Muted())
	assert.True(t, ch.IsPausedState())
	assert.True(t, slot.IsPaused())
	assert.Equal(t, domain.StatePaused, slot.State())
}

func TestSlot_PausedIsNeverFinished(t *testing.T) {
	slot, ch := newTestSlot(t)
	require.NoError(t, slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{}))

	slot.SetPause(true)
	assert.False(t, ch.IsPlaying())
	assert.False(t, slot.IsFinished())

	ch.Finish()
	assert.False(t, slot.IsFinished())

	slot.SetPause(false)
	ch.Finish()
	assert.True(t, slot.IsFinished())
	assert.Equal(t, domain.StateFinished, slot.State())
}

func TestSlot_StartFade(t *testing.T) {
	slot, ch := newTestSlot(t)
	settings := domain.NewPlaybackSettings(testClip("long", 10*time.Second))
	settings.Volume = 0.8
	require.NoError(t, slot.Initialize(settings, domain.Vector3{}, Ambient{}))

	slot.SetFade(2*time.Second, 0)

	ch.SetElapsed(0)
	slot.Tick()
	assert.Equal(t, 0.0, ch.Volume())

	ch.SetElapsed(time.Second)
	slot.Tick()
	assert.InDelta(t, 0.4, ch.Volume(), 1e-9)

	ch.SetElapsed(2 * time.Second)
	slot.Tick()
	assert.Equal(t, 0.8, ch.Volume())

	ch.SetElapsed(5 * time.Second)
	slot.Tick()
	assert.Equal(t, 0.8, ch.Volume())
}

func TestSlot_EndFade(t *testing.T) {
	slot, ch := newTestSlot(t)
	settings := domain.NewPlaybackSettings(testClip("long", 10*time.Second))
	settings.Volume = 0.8
	require.NoError(t, slot.Initialize(settings, domain.Vector3{}, Ambient{}))

	slot.SetFade(0, 2*time.Second)

	ch.SetElapsed(5 * time.Second)
	slot.Tick()
	assert.Equal(t, 0.8, ch.Volume())

	ch.SetElapsed(9 * time.Second)
	slot.Tick()
	assert.InDelta(t, 0.4, ch.Volume(), 1e-9)

	ch.SetElapsed(10 * time.Second)
	slot.Tick()
	assert.Equal(t, 0.0, ch.Volume())
}

func TestSlot_FadeRelativeToCurrentVolume(t *testing.T) {
	slot, ch := newTestSlot(t)
	settings := domain.NewPlaybackSettings(testClip("long", 10*time.Second))
	settings.Volume = 1
	require.NoError(t, slot.Initialize(settings, domain.Vector3{}, Ambient{}))

	ch.SetVolume(0.5)
	slot.SetFade(2*time.Second, 0)

	ch.SetElapsed(time.Second)
	slot.Tick()
	assert.InDelta(t, 0.25, ch.Volume(), 1e-9)
}

func TestSlot_OverlappingFadesEndWins(t *testing.T) {
	slot, ch := newTestSlot(t)
	settings := domain.NewPlaybackSettings(testClip("short", time.Second))
	settings.Volume = 1
	require.NoError(t, slot.Initialize(settings, domain.Vector3{}, Ambient{}))

	slot.SetFade(time.Second, time.Second)

	// start fade would give 0.75, end fade gives 0.25
	ch.SetElapsed(750 * time.Millisecond)
	slot.Tick()
	assert.InDelta(t, 0.25, ch.Volume(), 1e-9)
}

func TestSlot_FollowTarget(t *testing.T) {
	slot, ch := newTestSlot(t)
	require.NoError(t, slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{}))

	target := &fakeTarget{pos: domain.Vector3{5, 0, 0}, exists: true}
	slot.SetTarget(target)

	slot.Tick()
	assert.Equal(t, domain.Vector3{5, 0, 0}, slot.Position())

	target.pos = domain.Vector3{6, 1, 0}
	slot.Tick()
	assert.Equal(t, domain.Vector3{6, 1, 0}, ch.Position())

	target.exists = false
	target.pos = domain.Vector3{100, 100, 100}
	slot.Tick()
	assert.Equal(t, domain.Vector3{6, 1, 0}, slot.Position())
}

func TestSlot_UninitializedConfigurationIsNoop(t *testing.T) {
	device := mock.NewDevice()
	ch, err := device.NewChannel()
	require.NoError(t, err)

	log, buf := logger.NewCaptureLogger()
	slot := newSlot(log, 9, ch, domain.MixerGroup(mock.MasterGroup), nil)

	got := slot.SetMute(true).SetPause(true).SetLoop(true).SetFade(time.Second, time.Second).SetTarget(&fakeTarget{})
	assert.Same(t, slot, got)

	mc := ch.(*mock.Channel)
	assert.False(t, mc.Muted())
	assert.False(t, mc.Loop())
	assert.False(t, slot.IsPaused())
	assert.Contains(t, buf.String(), "uninitialized audio slot")
	assert.Contains(t, buf.String(), "op=set_fade")
}

func TestSlot_Deinitialize(t *testing.T) {
	slot, ch := newTestSlot(t)
	require.NoError(t, slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{}))
	slot.SetLoop(true).SetFade(time.Second, time.Second).SetTarget(&fakeTarget{exists: true})
	slot.SetPause(true)

	slot.Deinitialize()

	assert.False(t, slot.IsInitialized())
	assert.False(t, slot.IsPaused())
	assert.False(t, slot.IsFinished())
	assert.Equal(t, domain.StateInert, slot.State())
	assert.Nil(t, ch.Clip())
	assert.False(t, ch.Loop())
	assert.False(t, ch.IsPlaying())

	// second call is harmless
	slot.Deinitialize()
	assert.Equal(t, domain.StateInert, slot.State())
}

func TestSlot_StopEndsPlayback(t *testing.T) {
	slot, ch := newTestSlot(t)
	require.NoError(t, slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{}))

	slot.Stop()
	assert.False(t, ch.IsPlaying())
	assert.True(t, slot.IsFinished())
}

func TestSlot_Destroy(t *testing.T) {
	slot, ch := newTestSlot(t)
	group := NewGroup("g", nil)
	slot.attach(group)

	slot.Destroy()
	slot.Destroy()

	assert.True(t, ch.Closed())
	assert.False(t, slot.Alive())
	assert.Equal(t, domain.StateDestroyed, slot.State())
	assert.Equal(t, 0, group.Len())

	err := slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{})
	assert.ErrorIs(t, err, domain.ErrChannelClosed)
}

func TestSlot_EnabledFollowsGroup(t *testing.T) {
	slot, _ := newTestSlot(t)
	root := NewGroup("root", nil)
	child := NewGroup("child", root)
	slot.attach(child)

	assert.True(t, slot.Enabled())
	root.SetEnabled(false)
	assert.False(t, slot.Enabled())
	assert.Equal(t, "root/child", child.Path())
}

func TestSlot_SuspendedWhileGroupDisabled(t *testing.T) {
	slot, ch := newTestSlot(t)
	group := NewGroup("group", nil)
	slot.attach(group)
	require.NoError(t, slot.Initialize(testSettings(1), domain.Vector3{}, Ambient{}))

	group.SetEnabled(false)
	assert.False(t, slot.syncEnabled())
	assert.True(t, slot.IsSuspended())
	assert.False(t, ch.IsPlaying())
	assert.False(t, slot.IsFinished())

	slot.SetPause(false)
	assert.False(t, ch.IsPlaying())

	group.SetEnabled(true)
	assert.True(t, slot.syncEnabled())
	assert.True(t, ch.IsPlaying())

	group.SetEnabled(false)
	slot.syncEnabled()
	slot.Deinitialize()
	assert.False(t, slot.IsSuspended())
}
