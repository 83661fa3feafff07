// Package config loads the boot configuration of the host tools and
// persists the per-channel settings snapshot.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"thermostat/sim"
)

// EnvPrefix prefixes environment overrides, e.g. THERMOSTAT_LOG_LEVEL
const EnvPrefix = "THERMOSTAT"

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	// ReportInterval is the period of the JSON status lines
	ReportInterval time.Duration `mapstructure:"report_interval"`
	// ReportMode streams status lines from startup
	ReportMode bool `mapstructure:"report_mode"`
	// Snapshot is the path of the channel settings file
	Snapshot string `mapstructure:"snapshot"`

	Serial SerialConfig `mapstructure:"serial"`
	ADC    ADCConfig    `mapstructure:"adc"`
	Sim    SimConfig    `mapstructure:"sim"`
}

type SerialConfig struct {
	Device      string        `mapstructure:"device"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type ADCConfig struct {
	// RetryLimit bounds checksum retries, 0 retries forever
	RetryLimit int `mapstructure:"retry_limit"`
	// Samples is the number of reads averaged per analog monitor value
	Samples int `mapstructure:"samples"`
	// Calibrate runs the DAC calibration against VREF at startup
	Calibrate bool `mapstructure:"calibrate"`
}

type SimConfig struct {
	// Step is the simulated time per main loop iteration
	Step time.Duration `mapstructure:"step"`
	// Speed scales simulated time against wall time
	Speed float64         `mapstructure:"speed"`
	Plant sim.PlantConfig `mapstructure:"plant"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("report_interval", "1s")
	v.SetDefault("report_mode", true)
	v.SetDefault("snapshot", "thermostat.yaml")

	v.SetDefault("serial.device", "/dev/ttyACM0")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("serial.read_timeout", "500ms")

	v.SetDefault("adc.retry_limit", 0)
	v.SetDefault("adc.samples", 16)
	v.SetDefault("adc.calibrate", true)

	v.SetDefault("sim.step", "50ms")
	v.SetDefault("sim.speed", 1.0)
	v.SetDefault("sim.plant.ambient", sim.DefaultPlant.Ambient)
	v.SetDefault("sim.plant.heat_per_amp", sim.DefaultPlant.HeatPerAmp)
	v.SetDefault("sim.plant.loss", sim.DefaultPlant.Loss)
	v.SetDefault("sim.plant.r_tec", sim.DefaultPlant.RTec)
}

// Load reads the YAML file at path over the defaults. An empty path loads
// defaults and environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalid is returned by Load for out-of-range settings
var ErrInvalid = errors.New("config: invalid value")

func (c *Config) validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch {
	case c.ReportInterval < time.Millisecond:
		return fmt.Errorf("%w: report_interval %v", ErrInvalid, c.ReportInterval)
	case c.Sim.Step < time.Millisecond:
		return fmt.Errorf("%w: sim.step %v", ErrInvalid, c.Sim.Step)
	case c.Sim.Speed <= 0:
		return fmt.Errorf("%w: sim.speed %v", ErrInvalid, c.Sim.Speed)
	case c.ADC.RetryLimit < 0:
		return fmt.Errorf("%w: adc.retry_limit %d", ErrInvalid, c.ADC.RetryLimit)
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Logger builds the host tool logger at LogLevel. Entries go to stderr so
// stdout stays free for report lines.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
