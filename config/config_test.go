package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"thermostat/channels"
	"thermostat/sim"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.ReportInterval)
	assert.True(t, cfg.ReportMode)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Device)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, 0, cfg.ADC.RetryLimit)
	assert.Equal(t, 16, cfg.ADC.Samples)
	assert.True(t, cfg.ADC.Calibrate)
	assert.Equal(t, 50*time.Millisecond, cfg.Sim.Step)
	assert.Equal(t, sim.DefaultPlant, cfg.Sim.Plant)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "boot.yaml", `
log_level: debug
report_interval: 250ms
adc:
  retry_limit: 8
sim:
  plant:
    ambient: 20
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.ReportInterval)
	assert.Equal(t, 8, cfg.ADC.RetryLimit)
	assert.Equal(t, 16, cfg.ADC.Samples, "unset keys keep their default")
	assert.Equal(t, 20.0, cfg.Sim.Plant.Ambient)
	assert.Equal(t, sim.DefaultPlant.Loss, cfg.Sim.Plant.Loss)
}

func TestLogger(t *testing.T) {
	cfg, err := Load(writeFile(t, "debug.yaml", "log_level: debug\n"))
	require.NoError(t, err)
	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	cfg.LogLevel = "error"
	log, err = cfg.Logger()
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("THERMOSTAT_SERIAL_DEVICE", "/dev/ttyUSB3")
	t.Setenv("THERMOSTAT_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", cfg.Serial.Device)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "log_level: loud\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "speed.yaml", "sim:\n  speed: 0\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "step.yaml", "sim:\n  step: 0s\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSnapshotMissingFile(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "snapshot.yaml"))
	cfgs, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSnapshot(), cfgs)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "snapshot.yaml"))

	cfgs := DefaultSnapshot()
	cfgs[0].Center = channels.CenterOverride(1.45)
	cfgs[0].PIDTarget = 32.5
	cfgs[1].PID.Ki = 0.02
	cfgs[1].ADCPostFilter = nil
	require.NoError(t, store.Save(cfgs))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, cfgs, loaded)
}

func TestSnapshotPartialFile(t *testing.T) {
	store := NewSnapshotStore(writeFile(t, "snapshot.yaml", `
channels:
  - center: 1.2
    pid:
      kp: 4
`))
	cfgs, err := store.Load()
	require.NoError(t, err)
	require.Len(t, cfgs, channels.Count)

	def := channels.DefaultChannelConfig()
	assert.Equal(t, channels.CenterOverride(1.2), cfgs[0].Center)
	assert.Equal(t, 4.0, cfgs[0].PID.Kp)
	assert.Equal(t, def.PID.Ki, cfgs[0].PID.Ki)
	assert.Equal(t, def.SH, cfgs[0].SH)
	assert.Equal(t, def, cfgs[1])
}

func TestSnapshotTooManyChannels(t *testing.T) {
	store := NewSnapshotStore(writeFile(t, "snapshot.yaml", `
channels: [{}, {}, {}]
`))
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrSnapshot)
}
