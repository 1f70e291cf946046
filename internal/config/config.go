package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SnapStrength is either an explicit pixel distance or "auto", which derives
// the distance from the smallest enabled output at drag start.
type SnapStrength struct {
	Auto  bool
	Value float64
}

// UnmarshalYAML accepts the literal string "auto" or a non-negative number.
func (s *SnapStrength) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "auto" {
		*s = SnapStrength{Auto: true}
		return nil
	}
	v, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return fmt.Errorf("snap_strength must be a number or \"auto\": %q", node.Value)
	}
	*s = SnapStrength{Value: v}
	return nil
}

// MarshalYAML renders "auto" or the numeric value.
func (s SnapStrength) MarshalYAML() (interface{}, error) {
	if s.Auto {
		return "auto", nil
	}
	return s.Value, nil
}

func (s SnapStrength) String() string {
	if s.Auto {
		return "auto"
	}
	return strconv.FormatFloat(s.Value, 'g', -1, 64)
}

// Config is the user-facing configuration.
type Config struct {
	// SnapStrength controls how sticky edge snapping is when dragging
	// outputs. 0 disables snapping. "auto" uses one sixth of the smallest
	// enabled output's shorter side.
	SnapStrength SnapStrength `yaml:"snap_strength"`

	// PosMoveDist is the step in pixels when moving an output via
	// keyboard commands.
	PosMoveDist int `yaml:"pos_move_dist"`

	// RevertTimeout is how long, in seconds, an applied configuration
	// waits for confirmation before being reverted automatically.
	RevertTimeout int `yaml:"revert_timeout"`

	// ApplyHook is an external command started after a successful apply.
	// Best-effort: failures are logged, never propagated.
	ApplyHook string `yaml:"apply_hook"`

	// RevertHook is an external command started after a revert.
	RevertHook string `yaml:"revert_hook"`

	// RequireContiguous rejects layouts where an enabled output floats
	// disconnected from the rest of the cluster.
	RequireContiguous bool `yaml:"require_contiguous"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		SnapStrength:  SnapStrength{Auto: true},
		PosMoveDist:   10,
		RevertTimeout: 15,
	}
}

// DefaultConfigPath returns ~/.config/xarrange/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "xarrange", "config.yaml"), nil
}

// Load reads the configuration from the standard location. A missing file
// yields the defaults.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates a configuration file. A missing file
// yields the defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if !c.SnapStrength.Auto && c.SnapStrength.Value < 0 {
		return fmt.Errorf("snap_strength must not be negative, got %v", c.SnapStrength.Value)
	}
	if c.PosMoveDist <= 0 {
		return fmt.Errorf("pos_move_dist must be positive, got %d", c.PosMoveDist)
	}
	if c.RevertTimeout < 0 {
		return fmt.Errorf("revert_timeout must not be negative, got %d", c.RevertTimeout)
	}
	return nil
}
