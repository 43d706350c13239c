// Package config loads and validates the YAML run configuration used by
// the linesim command.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one simulator run.
type Config struct {
	Track      TrackConfig    `yaml:"track"`
	FPS        int            `yaml:"fps,omitempty"`
	Bounds     *bool          `yaml:"check_bounds,omitempty"`
	Overlays   bool           `yaml:"overlays,omitempty"`
	Headless   bool           `yaml:"headless,omitempty"`
	LogLevel   string         `yaml:"log_level,omitempty"`
	Sensors    []SensorConfig `yaml:"sensors,omitempty"`
	Beacons    []BeaconConfig `yaml:"beacons,omitempty"`
	Controller string         `yaml:"controller,omitempty"`
	Script     string         `yaml:"script,omitempty"`
	Record     string         `yaml:"record,omitempty"`
	Report     string         `yaml:"report,omitempty"`
	Serve      string         `yaml:"serve,omitempty"`
}

// TrackConfig selects the track and start pose.
type TrackConfig struct {
	Name    string      `yaml:"name,omitempty"`
	Path    string      `yaml:"path,omitempty"`
	Start   *[2]float64 `yaml:"start,omitempty"`
	Heading *float64    `yaml:"heading,omitempty"`
}

// SensorConfig mounts one sensor on the robot.
type SensorConfig struct {
	Kind      string     `yaml:"kind"`
	Offset    [2]float64 `yaml:"offset"`
	Angle     *float64   `yaml:"angle,omitempty"`
	Threshold *uint8     `yaml:"threshold,omitempty"`
	MaxRange  *int       `yaml:"max_range,omitempty"`
}

// BeaconConfig places one beacon on the track.
type BeaconConfig struct {
	Kind     string     `yaml:"kind"`
	Position [2]float64 `yaml:"position"`
}

// Default returns the configuration used when no file is given: the blank
// builtin track at the default frame rate.
func Default() *Config {
	return &Config{Track: TrackConfig{Name: "blank"}, FPS: 30}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// CheckBounds resolves the bounds-check flag, defaulting to enabled.
func (c *Config) CheckBounds() bool {
	if c.Bounds == nil {
		return true
	}
	return *c.Bounds
}

// Validate rejects configurations the simulator cannot run.
func (c *Config) Validate() error {
	if c.Track.Name == "" && c.Track.Path == "" {
		return fmt.Errorf("track name or path is required")
	}
	if c.Track.Name != "" && c.Track.Path != "" {
		return fmt.Errorf("track name and path are mutually exclusive")
	}
	if c.FPS < 0 {
		return fmt.Errorf("fps must not be negative")
	}
	if c.Controller != "" && c.Script != "" {
		return fmt.Errorf("controller and script are mutually exclusive")
	}
	for i, s := range c.Sensors {
		if s.Kind == "" {
			return fmt.Errorf("sensor %d: kind is required", i)
		}
		if s.Kind == "ultrasonic" && s.Angle == nil {
			return fmt.Errorf("sensor %d: ultrasonic sensors require an angle", i)
		}
		if s.MaxRange != nil && *s.MaxRange <= 0 {
			return fmt.Errorf("sensor %d: max_range must be positive", i)
		}
	}
	for i, b := range c.Beacons {
		if b.Kind == "" {
			return fmt.Errorf("beacon %d: kind is required", i)
		}
	}
	return nil
}
