package ebiten

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/logger"
)

// fakePlayer stands in for *audio.Player so channel state can be driven without an audio backend.
type fakePlayer struct {
	playing  bool
	position time.Duration
	volume   float64
	rewinds  int
	closed   bool
	closeErr error
}

func (p *fakePlayer) Play()                    { p.playing = true }
func (p *fakePlayer) Pause()                   { p.playing = false }
func (p *fakePlayer) IsPlaying() bool          { return p.playing }
func (p *fakePlayer) Position() time.Duration  { return p.position }
func (p *fakePlayer) SetVolume(volume float64) { p.volume = volume }

func (p *fakePlayer) Rewind() error {
	p.position = 0
	p.rewinds++
	return nil
}

func (p *fakePlayer) Close() error {
	p.closed = true
	return p.closeErr
}

// players records every player a test device opens.
type players struct {
	opened   []*fakePlayer
	closeErr error
}

func (r *players) last() *fakePlayer {
	if len(r.opened) == 0 {
		return nil
	}
	return r.opened[len(r.opened)-1]
}

func newTestDevice() (*Device, *players, *logger.Buffer) {
	log, buf := logger.NewCaptureLogger()
	rec := &players{}
	d := &Device{
		logger:     log,
		sampleRate: 44100,
		channels:   make(map[*Channel]struct{}),
		masterGain: 1,
		newPlayer: func(io.Reader) (streamPlayer, error) {
			p := &fakePlayer{closeErr: rec.closeErr}
			rec.opened = append(rec.opened, p)
			return p, nil
		},
	}
	return d, rec, buf
}

func newTestChannel(t *testing.T, d *Device) *Channel {
	t.Helper()
	ch, err := d.NewChannel()
	require.NoError(t, err)
	ch.SetClip(domain.NewClip("beep", make([]byte, 44100*domain.BytesPerFrame), 44100))
	return ch.(*Channel)
}

func TestChannel_PlayStopPauseUnpause(t *testing.T) {
	d, rec, _ := newTestDevice()
	ch := newTestChannel(t, d)

	require.NoError(t, ch.Play())
	p := rec.last()
	require.NotNil(t, p)
	assert.True(t, ch.IsPlaying())
	assert.Equal(t, 1.0, p.volume)

	require.NoError(t, ch.Pause())
	assert.False(t, ch.IsPlaying())
	assert.False(t, p.playing)

	require.NoError(t, ch.Unpause())
	assert.True(t, ch.IsPlaying())

	p.position = 300 * time.Millisecond
	require.NoError(t, ch.Stop())
	assert.False(t, ch.IsPlaying())
	assert.Equal(t, time.Duration(0), p.position)
	assert.Equal(t, 1, p.rewinds)

	// unpausing a stopped channel does not restart it
	require.NoError(t, ch.Unpause())
	assert.False(t, ch.IsPlaying())
}

func TestChannel_PlayReplacesPlayer(t *testing.T) {
	d, rec, _ := newTestDevice()
	ch := newTestChannel(t, d)

	require.NoError(t, ch.Play())
	first := rec.last()
	require.NoError(t, ch.Play())

	assert.Len(t, rec.opened, 2)
	assert.True(t, first.closed)
	assert.False(t, rec.last().closed)
}

func TestChannel_PlayErrors(t *testing.T) {
	d, _, _ := newTestDevice()

	raw, err := d.NewChannel()
	require.NoError(t, err)
	assert.ErrorIs(t, raw.Play(), domain.ErrNoClip)

	ch := newTestChannel(t, d)
	require.NoError(t, ch.Close())
	assert.True(t, ch.Closed())
	assert.ErrorIs(t, ch.Play(), domain.ErrChannelClosed)
	assert.ErrorIs(t, ch.Pause(), domain.ErrChannelClosed)
	assert.False(t, ch.IsPlaying())

	require.NoError(t, d.Close())
	_, err = d.NewChannel()
	assert.ErrorIs(t, err, domain.ErrDeviceClosed)
}

func TestChannel_PlayerCreationFailure(t *testing.T) {
	d, _, _ := newTestDevice()
	d.newPlayer = func(io.Reader) (streamPlayer, error) {
		return nil, errors.New("no output")
	}
	ch := newTestChannel(t, d)

	err := ch.Play()
	var engineErr *domain.AudioEngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, "play", engineErr.Op)
	assert.False(t, ch.IsPlaying())
}

func TestChannel_LoopRewindsAtEnd(t *testing.T) {
	d, rec, _ := newTestDevice()
	ch := newTestChannel(t, d)
	ch.SetLoop(true)
	require.NoError(t, ch.Play())
	p := rec.last()

	// the stream ran out
	p.playing = false
	p.position = time.Second

	assert.True(t, ch.IsPlaying())
	assert.Equal(t, 1, p.rewinds)
	assert.True(t, p.playing)
	assert.Equal(t, time.Duration(0), ch.Elapsed())
}

func TestChannel_EndsWithoutLoop(t *testing.T) {
	d, rec, _ := newTestDevice()
	ch := newTestChannel(t, d)
	require.NoError(t, ch.Play())
	p := rec.last()

	p.playing = false
	p.position = time.Second

	assert.False(t, ch.IsPlaying())
	assert.Equal(t, 0, p.rewinds)
}

func TestChannel_ElapsedScalesWithPitch(t *testing.T) {
	tests := []struct {
		name  string
		pitch float64
		want  time.Duration
	}{
		{"normal", 1, time.Second},
		{"double", 2, 2 * time.Second},
		{"half", 0.5, 500 * time.Millisecond},
		{"negative plays forward", -0.5, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec, _ := newTestDevice()
			ch := newTestChannel(t, d)
			assert.Equal(t, time.Duration(0), ch.Elapsed())

			ch.SetPitch(tt.pitch)
			require.NoError(t, ch.Play())
			rec.last().position = time.Second

			assert.Equal(t, tt.want, ch.Elapsed())
		})
	}
}

func TestChannel_GainStages(t *testing.T) {
	d, rec, _ := newTestDevice()
	ch := newTestChannel(t, d)
	require.NoError(t, ch.Play())
	p := rec.last()

	ch.SetVolume(0.5)
	assert.InDelta(t, 0.5, p.volume, 1e-12)

	require.NoError(t, d.Mixer().SetParameter(MasterParameter, -20))
	assert.InDelta(t, 0.05, p.volume, 1e-12)

	ch.SetPosition(domain.Vector3{4, 0, 0})
	assert.InDelta(t, 0.0125, p.volume, 1e-12)

	d.SetListener(domain.Vector3{4, 0, 0})
	assert.InDelta(t, 0.05, p.volume, 1e-12)

	ch.SetMute(true)
	assert.Equal(t, 0.0, p.volume)
	ch.SetMute(false)
	assert.InDelta(t, 0.05, p.volume, 1e-12)
}

func TestChannel_CloseFailureIsLogged(t *testing.T) {
	d, rec, buf := newTestDevice()
	rec.closeErr = errors.New("device gone")
	ch := newTestChannel(t, d)

	require.NoError(t, ch.Play())
	ch.SetClip(nil)
	assert.Contains(t, buf.String(), "failed to close player")
	assert.Contains(t, buf.String(), "device gone")
	assert.ErrorIs(t, ch.Play(), domain.ErrNoClip)
}

func TestChannel_CloseReturnsPlayerError(t *testing.T) {
	d, rec, _ := newTestDevice()
	rec.closeErr = errors.New("device gone")
	ch := newTestChannel(t, d)
	require.NoError(t, ch.Play())

	assert.EqualError(t, ch.Close(), "device gone")
	assert.NoError(t, ch.Close())
}

func TestNewDevice_AudioContext(t *testing.T) {
	if testing.Short() {
		t.Skip("opens the process audio context")
	}

	d, err := NewDevice(logger.NewTestLogger(), 44100)
	if err != nil {
		t.Skipf("no audio backend: %v", err)
	}
	again, err := NewDevice(logger.NewTestLogger(), 48000)
	if err != nil {
		t.Skipf("no audio backend: %v", err)
	}

	assert.Same(t, d.ctx, again.ctx)
	assert.Equal(t, 44100, again.SampleRate())

	raw, err := d.NewChannel()
	require.NoError(t, err)
	raw.SetClip(domain.NewClip("beep", make([]byte, 4410*domain.BytesPerFrame), 44100))
	require.NoError(t, raw.Play())
	require.NoError(t, raw.Stop())

	require.NoError(t, d.Close())
	require.NoError(t, again.Close())
	assert.True(t, raw.Closed())
}
