package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Remote is an S3-compatible bucket for backups
type Remote struct {
	Endpoint string `json:"endpoint"`
	Bucket   string `json:"bucket"`
	Access   string `json:"access"`
	Secret   string `json:"secret"`
	Region   string `json:"region"`
	// use http instead of https, for local minio
	Insecure bool `json:"insecure"`
	// prepended to remote paths e.g. "backups/"
	Prefix string `json:"prefix"`
}

// Config holds settings of the asistentepa tool
type Config struct {
	DataDir  string `json:"data_dir"`
	FileName string `json:"file_name"`
	// empty means log only to stdout
	LogDir  string `json:"log_dir"`
	Verbose bool   `json:"verbose"`
	// fail on numbers that don't parse instead of reading them as 0
	StrictNumbers bool `json:"strict_numbers"`

	Remote *Remote `json:"remote,omitempty"`
}

// Default returns config that uses localDB/especies.csv
func Default() *Config {
	return &Config{
		DataDir:  "localDB",
		FileName: "especies.csv",
	}
}

// Load reads JSON config from path. Missing values are taken from Default()
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config '%s': %w", path, err)
	}
	return cfg, nil
}

// Validate checks the config for errors
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if strings.TrimSpace(c.FileName) == "" {
		return fmt.Errorf("file_name must be set")
	}
	if r := c.Remote; r != nil {
		var missing []string
		if r.Endpoint == "" {
			missing = append(missing, "endpoint")
		}
		if r.Bucket == "" {
			missing = append(missing, "bucket")
		}
		if r.Access == "" {
			missing = append(missing, "access")
		}
		if r.Secret == "" {
			missing = append(missing, "secret")
		}
		if len(missing) > 0 {
			return fmt.Errorf("remote: missing %s", strings.Join(missing, ", "))
		}
	}
	return nil
}
