package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "400ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the console configuration.
type Config struct {
	Backend struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"backend"`

	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Poller struct {
		Interval        Duration `yaml:"interval"`
		PageSize        int      `yaml:"page_size"`
		NotificationCap int      `yaml:"notification_cap"`
	} `yaml:"poller"`

	Workbench struct {
		PageSize       int      `yaml:"page_size"`
		SearchDebounce Duration `yaml:"search_debounce"`
	} `yaml:"workbench"`

	Dashboard struct {
		SampleSize int `yaml:"sample_size"`
	} `yaml:"dashboard"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.Backend.URL = "http://localhost:3000"
	cfg.Server.Port = 8080
	cfg.Server.MetricsPort = 9090
	cfg.Poller.Interval = Duration(30 * time.Second)
	cfg.Poller.PageSize = 10
	cfg.Poller.NotificationCap = 100
	cfg.Workbench.PageSize = 10
	cfg.Workbench.SearchDebounce = Duration(400 * time.Millisecond)
	cfg.Dashboard.SampleSize = 100
	return cfg
}

// Load reads a YAML config file over the defaults. A missing file is
// an error; call Default directly to run without one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// KIRANA_TOKEN wins over the file so tokens stay out of configs.
	if t := os.Getenv("KIRANA_TOKEN"); t != "" {
		cfg.Backend.Token = t
	}
	return cfg, nil
}
