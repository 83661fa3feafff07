package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"thermostat/channels"
)

// ErrSnapshot is returned for a snapshot that does not fit the board
var ErrSnapshot = errors.New("config: invalid snapshot")

// SnapshotStore keeps the channel settings in a YAML file
type SnapshotStore struct {
	path string
}

// NewSnapshotStore returns a store backed by path
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the backing file
func (s *SnapshotStore) Path() string { return s.path }

type snapshotFile struct {
	Channels []channels.ChannelConfig `yaml:"channels"`
}

// DefaultSnapshot returns the settings of an unconfigured board
func DefaultSnapshot() []channels.ChannelConfig {
	cfgs := make([]channels.ChannelConfig, channels.Count)
	for i := range cfgs {
		cfgs[i] = channels.DefaultChannelConfig()
	}
	return cfgs
}

// Load reads the snapshot. A missing file gives DefaultSnapshot; channels
// or fields missing from the file keep their defaults.
func (s *SnapshotStore) Load() ([]channels.ChannelConfig, error) {
	cfgs := DefaultSnapshot()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfgs, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var doc struct {
		Channels []yaml.Node `yaml:"channels"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if len(doc.Channels) > channels.Count {
		return nil, fmt.Errorf("%w: %d channels", ErrSnapshot, len(doc.Channels))
	}
	for i := range doc.Channels {
		// decoding over the default keeps fields the file leaves out
		if err := doc.Channels[i].Decode(&cfgs[i]); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot channel %d: %w", i, err)
		}
	}
	return cfgs, nil
}

// Save writes cfgs to the backing file
func (s *SnapshotStore) Save(cfgs []channels.ChannelConfig) error {
	data, err := yaml.Marshal(snapshotFile{Channels: cfgs})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
