package cli

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jason0860907/tipomirror/pkg/models"
)

// NewCountCommand creates the count command
func NewCountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [ftps-url...]",
		Short: "Count remote subdirectories without mirroring",
		Long: `Run only the counting phase: query each locator's remote
subdirectory count in parallel and print the results. Nothing is
downloaded.`,
		RunE: runCount,
	}

	addLocatorSourceFlags(cmd)
	cmd.Flags().IntVar(&mirrorFlags.CountWorkers, "count-workers", 0, "parallel workers for the counting phase (default: 8)")
	cmd.Flags().IntVar(&mirrorFlags.CountTimeout, "count-timeout", 0, "per-locator counting timeout in seconds (default: 120)")
	cmd.Flags().StringVar(&mirrorFlags.Counter, "counter", "", "remote counter: lftp, ftp (default: lftp)")
	cmd.Flags().StringVar(&mirrorFlags.LFTPBinary, "lftp-binary", "", "path to the lftp binary (default: lftp)")
	cmd.Flags().StringVar(&mirrorFlags.LogFile, "log-file", "", "write logs to file (enables logging)")
	cmd.Flags().StringVar(&mirrorFlags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&mirrorFlags.LogLevel, "log-level", "info", "log level: debug, info, success, warn, error")

	return cmd
}

func runCount(cmd *cobra.Command, args []string) error {
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
		return fmt.Errorf("no locators to count")
	}

	counter, err := createCounter(operation, logger)
	if err != nil {
		return err
	}

	// Same bounded pool as the pipeline's counting phase
	counts := make(map[string]int, len(locators))
	var countsMu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, operation.CountWorkers)

	for _, locator := range locators {
		semaphore <- struct{}{}
		wg.Add(1)
		go func(loc *models.Locator) {
			defer wg.Done()
			defer func() { <-semaphore }()

			count := counter.Count(ctx, loc)
			countsMu.Lock()
			counts[loc.Raw] = count
			countsMu.Unlock()
		}(locator)
	}
	wg.Wait()

	unknown := 0
	for _, locator := range locators {
		count := counts[locator.Raw]
		if count == models.UnknownCount {
			unknown++
			fmt.Printf("%s\tunknown\n", locator.Raw)
		} else {
			fmt.Printf("%s\t%d\n", locator.Raw, count)
		}
	}

	if unknown > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d locators could not be counted\n", unknown, len(locators))
		os.Exit(1)
	}
	return nil
}
