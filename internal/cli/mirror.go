package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jason0860907/tipomirror/internal/discovery"
	"github.com/jason0860907/tipomirror/pkg/config"
	"github.com/jason0860907/tipomirror/pkg/logging"
	"github.com/jason0860907/tipomirror/pkg/mirror"
	"github.com/jason0860907/tipomirror/pkg/models"
	"github.com/jason0860907/tipomirror/pkg/output"
	"github.com/jason0860907/tipomirror/pkg/pipeline"
	"github.com/jason0860907/tipomirror/pkg/remote"
	"github.com/jason0860907/tipomirror/pkg/storage"
)

// MirrorFlags holds mirror command flags
type MirrorFlags struct {
	LinksFile       string
	Page            string
	Year            string
	DownloadRoot    string
	CountWorkers    int
	MirrorWorkers   int
	CountTimeout    int
	MirrorTimeout   int
	Counter         string
	LFTPBinary      string
	PgetConnections int
	Output          string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var mirrorFlags MirrorFlags

// NewMirrorCommand creates the mirror command
func NewMirrorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror [ftps-url...]",
		Short: "Mirror remote FTPS directory trees",
		Long: `Mirror a set of remote FTPS directory trees to local storage.
The run counts each tree's remote subdirectories first, then mirrors
every tree with a known count in parallel and verifies the local
subdirectory count against the remote one.`,
		RunE: runMirror,
	}

	addLocatorSourceFlags(cmd)

	cmd.Flags().StringVarP(&mirrorFlags.DownloadRoot, "download-root", "d", "", "local root directory for mirrored trees")
	cmd.Flags().IntVar(&mirrorFlags.CountWorkers, "count-workers", 0, "parallel workers for the counting phase (default: 8)")
	cmd.Flags().IntVarP(&mirrorFlags.MirrorWorkers, "mirror-workers", "p", 0, "parallel workers for the mirroring phase (default: 8)")
	cmd.Flags().IntVar(&mirrorFlags.CountTimeout, "count-timeout", 0, "per-locator counting timeout in seconds (default: 120)")
	cmd.Flags().IntVar(&mirrorFlags.MirrorTimeout, "mirror-timeout", 0, "per-locator mirroring timeout in seconds (default: 10000)")
	cmd.Flags().StringVar(&mirrorFlags.Counter, "counter", "", "remote counter: lftp, ftp (default: lftp)")
	cmd.Flags().StringVar(&mirrorFlags.LFTPBinary, "lftp-binary", "", "path to the lftp binary (default: lftp)")
	cmd.Flags().IntVar(&mirrorFlags.PgetConnections, "pget", 0, "pget connections per file (default: 4)")
	cmd.Flags().StringVarP(&mirrorFlags.Output, "output", "o", "", "output format: human, json")

	// Logging flags
	cmd.Flags().StringVar(&mirrorFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&mirrorFlags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&mirrorFlags.LogLevel, "log-level", "info", "log level: debug, info, success, warn, error")

	return cmd
}

func addLocatorSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&mirrorFlags.LinksFile, "links-file", "f", "", "file with one ftps URL per line")
	cmd.Flags().StringVar(&mirrorFlags.Page, "page", "", "HTML page to scrape ftps links from (path or http(s) URL)")
	cmd.Flags().StringVarP(&mirrorFlags.Year, "year", "y", "", "year label: defaults download root to <year>/ and log file to <year>-mirror.log")
}

func runMirror(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := validateMirrorFlags(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	operation, err := createMirrorOperation(cfg)
	if err != nil {
		return fmt.Errorf("failed to create mirror operation: %w", err)
	}

	logger, err := createLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	locators, err := resolveLocators(ctx, args, logger)
	if err != nil {
		return err
	}
	if len(locators) == 0 {
		return fmt.Errorf("no locators to mirror")
	}

	store, err := storage.NewLocal(operation.DownloadRoot)
	if err != nil {
		return fmt.Errorf("failed to create download root: %w", err)
	}

	counter, err := createCounter(operation, logger)
	if err != nil {
		return err
	}

	executor := mirror.NewLFTPExecutor(store, logger,
		mirror.WithBinary(operation.LFTPBinary),
		mirror.WithTimeout(operation.MirrorTimeout),
		mirror.WithPgetConnections(operation.PgetConnections),
	)

	formatter, err := createFormatter(cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(counter, executor, formatter, logger, operation)
	report := p.Run(ctx, locators)

	os.Exit(report.Status.ExitCode())
	return nil
}

// createCounter selects the remote counter implementation
func createCounter(operation *models.MirrorOperation, logger logging.Logger) (remote.Counter, error) {
	switch operation.Counter {
	case models.CounterLFTP:
		return remote.NewLFTPCounter(operation.LFTPBinary, operation.CountTimeout, logger), nil
	case models.CounterFTP:
		return remote.NewFTPCounter(operation.CountTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported counter: %s (use: lftp, ftp)", operation.Counter)
	}
}

// createFormatter selects the output formatter
func createFormatter(cfg *config.Config) (output.Formatter, error) {
	if cfg.Output.Format == "human" && cfg.Output.Progress && !cfg.Output.Quiet {
		return output.NewProgressFormatter(), nil
	}
	return output.NewFormatter(cfg.Output.Format)
}

// createLogger creates a logger based on configuration
func createLogger(cfg *config.Config) (logging.Logger, error) {
	if !cfg.Logging.Enabled || cfg.Logging.File == "" {
		return logging.NewNullLogger(), nil
	}

	var format logging.Format
	switch cfg.Logging.Format {
	case "json":
		format = logging.FormatJSON
	default:
		format = logging.FormatText
	}

	loggerConfig := logging.FileLoggerConfig{
		Path:       cfg.Logging.File,
		Format:     format,
		Level:      logging.ParseLevel(cfg.Logging.Level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	}

	return logging.NewFileLogger(loggerConfig)
}

// resolveLocators builds the ordered locator set from whichever source
// the operator selected
func resolveLocators(ctx context.Context, args []string, logger logging.Logger) ([]*models.Locator, error) {
	source, err := selectSource(args, logger)
	if err != nil {
		return nil, err
	}

	locators, err := source.Locators(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "locators resolved", logging.Fields{
		"source":   source.Name(),
		"locators": len(locators),
	})
	return locators, nil
}

func selectSource(args []string, logger logging.Logger) (discovery.Source, error) {
	sources := 0
	if len(args) > 0 {
		sources++
	}
	if mirrorFlags.LinksFile != "" {
		sources++
	}
	if mirrorFlags.Page != "" {
		sources++
	}
	if sources == 0 {
		return nil, fmt.Errorf("no locators given: pass ftps URLs, --links-file, or --page")
	}
	if sources > 1 {
		return nil, fmt.Errorf("pass ftps URLs, --links-file, or --page, not a combination")
	}

	switch {
	case mirrorFlags.LinksFile != "":
		return discovery.NewFileSource(mirrorFlags.LinksFile, logger), nil
	case mirrorFlags.Page != "":
		return discovery.NewHTMLSource(mirrorFlags.Page, logger), nil
	default:
		return discovery.NewArgsSource(args), nil
	}
}

// secondsDuration converts a whole-second flag value to a duration
func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
