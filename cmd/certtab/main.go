package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chtzvt/certtab/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	logLevel   string
	logFormat  string
	outputJSON bool

	cfg *CerttabConfig
)

var rootCmd = &cobra.Command{
	Use:           "certtab",
	Short:         "certtab turns CT log certificate exports into normalized tables",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			c.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			c.Log.Format = logFormat
		}
		logger.Init(logger.Options{Level: c.Log.Level, Format: c.Log.Format, Writer: os.Stderr})
		if c.file != "" {
			logger.Named("config").Debug().Str("file", c.file).Msg("loaded config")
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $PWD/certtab.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console or json)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output as JSON")

	rootCmd.AddCommand(
		extractCmd(),
		combineCmd(),
		lookupCmd(),
		summaryCmd(),
		secretsCmd(),
		versionCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
