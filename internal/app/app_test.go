package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tejashwikalptaru/soundstage/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/service"
	"github.com/tejashwikalptaru/soundstage/internal/testutil"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	config := DefaultConfig()
	config.Device = DeviceMock
	config.LogLevel = "error"
	config.TestFyneApp = test.NewApp()
	return config
}

// writeBankDir creates a bank with one cue backed by a short wav file.
func writeBankDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	f, err := os.Create(filepath.Join(dir, "beep.wav"))
	require.NoError(t, err)
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 800),
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	path := filepath.Join(dir, "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cues:\n  beep:\n    clip: beep.wav\n    volume: 0.8\n"), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "com.soundstage.app", config.AppID)
	assert.Equal(t, DeviceEbiten, config.Device)
	assert.Equal(t, 44100, config.SampleRate)
	assert.Equal(t, service.DefaultPoolSize, config.PoolSize)
	assert.Equal(t, 1.0, config.MasterVolume)
	assert.NoError(t, config.Validate())
	assert.Equal(t, time.Second/60, config.TickInterval())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soundstage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device: mock
pool_size: 4
tick_rate: 30
master_volume: 0.5
listener: [1, 2, 3]
bank: sfx/bank.yaml
log_level: debug
`), 0o644))

	config, err := LoadConfig(path, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, DeviceMock, config.Device)
	assert.Equal(t, 4, config.PoolSize)
	assert.Equal(t, time.Second/30, config.TickInterval())
	assert.Equal(t, 0.5, config.MasterVolume)
	assert.Equal(t, [3]float64{1, 2, 3}, config.Listener)
	assert.Equal(t, "sfx/bank.yaml", config.BankPath)
	assert.Equal(t, 44100, config.SampleRate)
	assert.Equal(t, "com.soundstage.app", config.AppID)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"device", "device: alsa\n", "device"},
		{"pool", "pool_size: -1\n", "pool_size"},
		{"tick", "tick_rate: 0\n", "tick_rate"},
		{"volume", "master_volume: 2\n", "master_volume"},
		{"level", "log_level: loud\n", "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := LoadConfig(path, DefaultConfig())
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"), DefaultConfig())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewApplication(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.Driver())
	assert.NotNil(t, app.EventBus())
	assert.NotNil(t, app.FyneApp())
	assert.Nil(t, app.Bank())

	dev, ok := app.Device().(*mock.Device)
	require.True(t, ok)
	assert.Equal(t, service.DefaultPoolSize, dev.OpenChannels())

	assert.NoError(t, app.Shutdown())
	assert.Equal(t, 0, dev.OpenChannels())
}

func TestNewApplication_InvalidConfig(t *testing.T) {
	config := testConfig(t)
	config.TickRate = 0

	_, err := NewApplication(config)
	assert.Error(t, err)
}

func TestNewApplication_MissingBank(t *testing.T) {
	config := testConfig(t)
	config.BankPath = filepath.Join(t.TempDir(), "none.yaml")

	_, err := NewApplication(config)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplicationLifecycle(t *testing.T) {
	config := testConfig(t)
	defer testutil.VerifyNoLeaks(t, append(testutil.IgnoreFyneGoroutines(), goleak.IgnoreCurrent())...)
	config.BankPath = writeBankDir(t)
	config.WatchBank = false
	config.PoolSize = 2
	config.TickRate = 200

	app, err := NewApplication(config)
	require.NoError(t, err)
	require.NotNil(t, app.Bank())
	assert.Equal(t, []string{"beep"}, app.Bank().Names())

	app.Start()
	app.Start()
	require.Eventually(t, app.Driver().Running, time.Second, 5*time.Millisecond)

	settings, err := app.Bank().Cue("beep")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err = app.Driver().Call(ctx, func(m *service.Manager) error {
		_, err := m.Play(settings, domain.Vector3{})
		return err
	})
	require.NoError(t, err)

	var active int
	require.NoError(t, app.Driver().Call(ctx, func(m *service.Manager) error {
		active = m.ActiveCount()
		return nil
	}))
	assert.Equal(t, 1, active)

	assert.NoError(t, app.Shutdown())
	assert.False(t, app.Driver().Running())

	// Shutdown again should not panic
	assert.NoError(t, app.Shutdown())
}

func TestApplicationWithWatcher(t *testing.T) {
	config := testConfig(t)
	config.BankPath = writeBankDir(t)

	app, err := NewApplication(config)
	require.NoError(t, err)
	assert.NotNil(t, app.watcher)
	assert.NoError(t, app.Shutdown())
}

func TestApplicationRestoresState(t *testing.T) {
	config := testConfig(t)
	config.MasterVolume = 0.9

	first, err := NewApplication(config)
	require.NoError(t, err)
	require.NoError(t, first.Preferences().SaveMasterVolume(0.3))
	require.NoError(t, first.Preferences().SaveMuted(true))
	require.NoError(t, first.Shutdown())

	// same fyne app, so the same preference store
	second, err := NewApplication(config)
	require.NoError(t, err)
	defer second.Shutdown()

	assert.InDelta(t, 0.3, second.manager.MasterVolume(), 1e-9)
	assert.True(t, second.manager.IsMuted())
}

func TestApplicationIgnoresSavedState(t *testing.T) {
	config := testConfig(t)
	config.RestoreState = false
	config.MasterVolume = 0.9
	config.TestFyneApp.Preferences().SetFloat("desk.master_volume", 0.3)

	app, err := NewApplication(config)
	require.NoError(t, err)
	defer app.Shutdown()

	assert.InDelta(t, 0.9, app.manager.MasterVolume(), 1e-9)
	assert.False(t, app.manager.IsMuted())
}
