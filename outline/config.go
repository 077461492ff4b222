package outline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds tool defaults loaded from an optional YAML file. CLI flags
// take precedence over these values.
type Config struct {
	Workers    int      `yaml:"workers"`
	SampleSize int      `yaml:"sampleSize"`
	Extensions []string `yaml:"extensions"`
	Output     string   `yaml:"output"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if config.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", config.Workers)
	}
	if config.SampleSize < 0 {
		return nil, fmt.Errorf("sampleSize must not be negative, got %d", config.SampleSize)
	}
	for i, ext := range config.Extensions {
		if !strings.HasPrefix(ext, ".") {
			config.Extensions[i] = "." + ext
		}
	}

	return &config, nil
}
