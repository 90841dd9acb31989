package config

import (
	"github.com/jason0860907/tipomirror/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Mirror  MirrorConfig  `yaml:"mirror"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// MirrorConfig holds mirror pipeline settings
type MirrorConfig struct {
	DownloadRoot         string `yaml:"download_root"`
	CountWorkers         int    `yaml:"count_workers"`
	MirrorWorkers        int    `yaml:"mirror_workers"`
	CountTimeoutSeconds  int    `yaml:"count_timeout_seconds"`
	MirrorTimeoutSeconds int    `yaml:"mirror_timeout_seconds"`
	Counter              string `yaml:"counter"` // "lftp" or "ftp"
	LFTPBinary           string `yaml:"lftp_binary"`
	PgetConnections      int    `yaml:"pget_connections"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human" or "json"
	Progress bool   `yaml:"progress"` // Show progress bar during mirroring
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "success", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = disabled)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Mirror: MirrorConfig{
			DownloadRoot:         "downloads",
			CountWorkers:         8,
			MirrorWorkers:        8,
			CountTimeoutSeconds:  120,
			MirrorTimeoutSeconds: 10000,
			Counter:              string(models.CounterLFTP),
			LFTPBinary:           "lftp",
			PgetConnections:      4,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Format:  "text",
			Level:   "info",
			File:    "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mirror.CountWorkers < 1 {
		return &models.ValidationError{
			Field:   "mirror.count_workers",
			Message: "must be at least 1",
		}
	}

	if c.Mirror.MirrorWorkers < 1 {
		return &models.ValidationError{
			Field:   "mirror.mirror_workers",
			Message: "must be at least 1",
		}
	}

	if c.Mirror.CountTimeoutSeconds < 1 {
		return &models.ValidationError{
			Field:   "mirror.count_timeout_seconds",
			Message: "must be at least 1",
		}
	}

	if c.Mirror.MirrorTimeoutSeconds < 1 {
		return &models.ValidationError{
			Field:   "mirror.mirror_timeout_seconds",
			Message: "must be at least 1",
		}
	}

	if c.Mirror.PgetConnections < 1 {
		return &models.ValidationError{
			Field:   "mirror.pget_connections",
			Message: "must be at least 1",
		}
	}

	validCounters := map[string]bool{
		string(models.CounterLFTP): true,
		string(models.CounterFTP):  true,
	}
	if !validCounters[c.Mirror.Counter] {
		return &models.ValidationError{
			Field:   "mirror.counter",
			Message: "must be 'lftp' or 'ftp'",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "success": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'success', 'warn', or 'error'",
		}
	}

	return nil
}
