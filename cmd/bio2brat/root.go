package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/praetorian-inc/bio2brat/pkg/config"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	quiet     bool
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "bio2brat",
	Short: "bio2brat - convert BIO/BIOES predictions to BRAT standoff",
	Long: `bio2brat turns per-token BIO/BIOES tag predictions into BRAT standoff
annotation files.

Each token file is decoded into contiguous typed spans, which are written
as "<id>.ann" next to a byte-identical copy of the document text "<id>.txt",
ready to be loaded into a BRAT annotation project.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json (default from config, else text)")

	// Add subcommands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context that is cancelled on
// interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, or a background context when
// the command is run directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newLogger builds the logger for a command. The -v and -q flags override
// the configured level; --log-format overrides the configured format.
func newLogger(w io.Writer, cfgLevel, cfgFormat string) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfgLevel)
	if err != nil {
		return nil, err
	}
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	format := cfgFormat
	if logFormat != "" {
		format = logFormat
	}

	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case config.FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case config.FormatText, "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}
