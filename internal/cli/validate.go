package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jason0860907/tipomirror/pkg/config"
	"github.com/jason0860907/tipomirror/pkg/models"
)

// validateMirrorFlags validates the mirror command flags
func validateMirrorFlags(args []string) error {
	for _, arg := range args {
		if _, err := models.ParseLocator(arg); err != nil {
			return err
		}
	}

	if mirrorFlags.Counter != "" {
		validCounters := map[string]bool{
			string(models.CounterLFTP): true,
			string(models.CounterFTP):  true,
		}
		if !validCounters[mirrorFlags.Counter] {
			return fmt.Errorf("invalid counter: %s (valid: lftp, ftp)", mirrorFlags.Counter)
		}
	}

	if mirrorFlags.Output != "" {
		validOutputs := map[string]bool{"human": true, "json": true}
		if !validOutputs[mirrorFlags.Output] {
			return fmt.Errorf("invalid output format: %s (valid: human, json)", mirrorFlags.Output)
		}
	}

	if mirrorFlags.Year != "" && strings.ContainsAny(mirrorFlags.Year, "/\\") {
		return fmt.Errorf("invalid year label: %s (must not contain path separators)", mirrorFlags.Year)
	}

	return nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags.
// A year label supplies defaults for the download root and log file;
// explicit flags still win.
func applyFlagsToConfig(cfg *config.Config) {
	if mirrorFlags.DownloadRoot != "" {
		cfg.Mirror.DownloadRoot = mirrorFlags.DownloadRoot
	} else if mirrorFlags.Year != "" {
		cfg.Mirror.DownloadRoot = mirrorFlags.Year
	}

	if mirrorFlags.CountWorkers > 0 {
		cfg.Mirror.CountWorkers = mirrorFlags.CountWorkers
	}
	if mirrorFlags.MirrorWorkers > 0 {
		cfg.Mirror.MirrorWorkers = mirrorFlags.MirrorWorkers
	}
	if mirrorFlags.CountTimeout > 0 {
		cfg.Mirror.CountTimeoutSeconds = mirrorFlags.CountTimeout
	}
	if mirrorFlags.MirrorTimeout > 0 {
		cfg.Mirror.MirrorTimeoutSeconds = mirrorFlags.MirrorTimeout
	}
	if mirrorFlags.Counter != "" {
		cfg.Mirror.Counter = mirrorFlags.Counter
	}
	if mirrorFlags.LFTPBinary != "" {
		cfg.Mirror.LFTPBinary = mirrorFlags.LFTPBinary
	}
	if mirrorFlags.PgetConnections > 0 {
		cfg.Mirror.PgetConnections = mirrorFlags.PgetConnections
	}

	if mirrorFlags.Output != "" {
		cfg.Output.Format = mirrorFlags.Output
	}

	if mirrorFlags.LogFile != "" {
		cfg.Logging.File = mirrorFlags.LogFile
	} else if cfg.Logging.File == "" && mirrorFlags.Year != "" {
		cfg.Logging.File = mirrorFlags.Year + "-mirror.log"
	}
	if mirrorFlags.LogFormat != "" {
		cfg.Logging.Format = mirrorFlags.LogFormat
	}
	if mirrorFlags.LogLevel != "" {
		cfg.Logging.Level = mirrorFlags.LogLevel
	}

	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
}

// createMirrorOperation creates a mirror operation from configuration
func createMirrorOperation(cfg *config.Config) (*models.MirrorOperation, error) {
	operation := &models.MirrorOperation{
		ID:              uuid.New().String(),
		DownloadRoot:    cfg.Mirror.DownloadRoot,
		CountWorkers:    cfg.Mirror.CountWorkers,
		MirrorWorkers:   cfg.Mirror.MirrorWorkers,
		CountTimeout:    secondsDuration(cfg.Mirror.CountTimeoutSeconds),
		MirrorTimeout:   secondsDuration(cfg.Mirror.MirrorTimeoutSeconds),
		Counter:         models.CounterKind(cfg.Mirror.Counter),
		LFTPBinary:      cfg.Mirror.LFTPBinary,
		PgetConnections: cfg.Mirror.PgetConnections,
		CreatedAt:       time.Now(),
	}

	if err := operation.Validate(); err != nil {
		return nil, err
	}

	return operation, nil
}
