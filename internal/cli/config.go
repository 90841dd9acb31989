package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jason0860907/tipomirror/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or modify tipomirror configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Download Root: %s\n", cfg.Mirror.DownloadRoot)
			fmt.Printf("Count Workers: %d\n", cfg.Mirror.CountWorkers)
			fmt.Printf("Mirror Workers: %d\n", cfg.Mirror.MirrorWorkers)
			fmt.Printf("Count Timeout: %ds\n", cfg.Mirror.CountTimeoutSeconds)
			fmt.Printf("Mirror Timeout: %ds\n", cfg.Mirror.MirrorTimeoutSeconds)
			fmt.Printf("Counter: %s\n", cfg.Mirror.Counter)
			fmt.Printf("LFTP Binary: %s\n", cfg.Mirror.LFTPBinary)
			fmt.Printf("Pget Connections: %d\n", cfg.Mirror.PgetConnections)
			fmt.Printf("Output Format: %s\n", cfg.Output.Format)
			fmt.Printf("Log Format: %s\n", cfg.Logging.Format)
			fmt.Printf("Log Level: %s\n", cfg.Logging.Level)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Printf("Configuration file created at: %s\n", path)
			return nil
		},
	}
}
