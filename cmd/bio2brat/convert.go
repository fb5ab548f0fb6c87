package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/praetorian-inc/bio2brat/pkg/config"
	"github.com/praetorian-inc/bio2brat/pkg/convert"
	"github.com/praetorian-inc/bio2brat/pkg/metrics"
	"github.com/praetorian-inc/bio2brat/pkg/store"
	"github.com/spf13/cobra"
)

var (
	convertConfigPath    string
	convertInput         string
	convertOutput        string
	convertTextFiles     string
	convertTokenSuffix   string
	convertTextSuffix    string
	convertAnnSuffix     string
	convertWorkers       int
	convertFailFast      bool
	convertStrict        bool
	convertIncremental   bool
	convertIncludeHidden bool
	convertMaxFileSize   int64
	convertDatastore     string
	convertMetricsFile   string
	convertFormat        string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a directory of token files to BRAT standoff",
	Long: `Convert every token file in the input directory into a BRAT standoff pair.

For each <id>.bio under --input, the original text <id>.txt is read from
--text-files and <id>.txt (copied unchanged) and <id>.ann are written to
--output. Documents without a text file fail without writing anything.

Settings can also come from a YAML file (--config), a .env file and
BIO2BRAT_* environment variables; flags given on the command line win.`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	registerConvertFlags(convertCmd)
}

func registerConvertFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().StringVarP(&convertConfigPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVarP(&convertInput, "input", "i", "", "Directory containing token files")
	cmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Directory receiving .txt/.ann pairs")
	cmd.Flags().StringVarP(&convertTextFiles, "text-files", "t", "", "Directory containing the original texts")
	cmd.Flags().StringVar(&convertTokenSuffix, "token-suffix", defaults.TokenSuffix, "Token file suffix")
	cmd.Flags().StringVar(&convertTextSuffix, "text-suffix", defaults.TextSuffix, "Text file suffix")
	cmd.Flags().StringVar(&convertAnnSuffix, "ann-suffix", defaults.AnnSuffix, "Annotation file suffix")
	cmd.Flags().IntVarP(&convertWorkers, "workers", "j", defaults.Workers, "Number of documents converted concurrently")
	cmd.Flags().BoolVar(&convertFailFast, "fail-fast", false, "Stop at the first failed document")
	cmd.Flags().BoolVar(&convertStrict, "strict", false, "Start a new span at orphaned or mismatched I-/E- tags")
	cmd.Flags().BoolVar(&convertIncremental, "incremental", false, "Skip documents unchanged since the last run (needs --datastore)")
	cmd.Flags().BoolVar(&convertIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	cmd.Flags().Int64Var(&convertMaxFileSize, "max-file-size", 0, "Maximum token file size in bytes (0 = no limit)")
	cmd.Flags().StringVar(&convertDatastore, "datastore", "", "SQLite file recording conversion results")
	cmd.Flags().StringVar(&convertMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	cmd.Flags().StringVar(&convertFormat, "format", "human", "Summary format: human, json")
}

// loadConvertConfig resolves the configuration and applies explicitly set flags.
func loadConvertConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(convertConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = convertInput
	}
	if flags.Changed("output") {
		cfg.Output = convertOutput
	}
	if flags.Changed("text-files") {
		cfg.TextFiles = convertTextFiles
	}
	if flags.Changed("token-suffix") {
		cfg.TokenSuffix = convertTokenSuffix
	}
	if flags.Changed("text-suffix") {
		cfg.TextSuffix = convertTextSuffix
	}
	if flags.Changed("ann-suffix") {
		cfg.AnnSuffix = convertAnnSuffix
	}
	if flags.Changed("workers") {
		cfg.Workers = convertWorkers
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = convertFailFast
	}
	if flags.Changed("strict") {
		cfg.Strict = convertStrict
	}
	if flags.Changed("incremental") {
		cfg.Incremental = convertIncremental
	}
	if flags.Changed("include-hidden") {
		cfg.IncludeHidden = convertIncludeHidden
	}
	if flags.Changed("datastore") {
		cfg.Datastore = convertDatastore
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = convertMetricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConvertConfig(cmd)
	if err != nil {
		return err
	}
	if convertFormat != "human" && convertFormat != "json" {
		return fmt.Errorf("unknown output format: %s", convertFormat)
	}
	cmd.SilenceUsage = true

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	opts := []convert.Option{convert.WithLogger(logger)}

	if cfg.Datastore != "" {
		s, err := store.New(store.Config{Path: cfg.Datastore})
		if err != nil {
			return fmt.Errorf("creating store: %w", err)
		}
		defer s.Close()
		opts = append(opts, convert.WithStore(s))
	}

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.New()
		opts = append(opts, convert.WithMetrics(recorder))
	}

	converter := convert.New(convert.Config{
		InputDir:      cfg.Input,
		TextDir:       cfg.TextFiles,
		OutputDir:     cfg.Output,
		TokenSuffix:   cfg.TokenSuffix,
		TextSuffix:    cfg.TextSuffix,
		AnnSuffix:     cfg.AnnSuffix,
		Workers:       cfg.Workers,
		FailFast:      cfg.FailFast,
		Strict:        cfg.Strict,
		Incremental:   cfg.Incremental,
		IncludeHidden: cfg.IncludeHidden,
		MaxFileSize:   convertMaxFileSize,
	}, opts...)

	summary, runErr := converter.Run(commandContext(cmd))

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("writing metrics failed", "path", cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("conversion failed: %w", runErr)
	}

	if err := writeSummary(cmd.OutOrStdout(), summary, cfg.Output); err != nil {
		return err
	}

	if !summary.OK() {
		return fmt.Errorf("%d of %d documents failed", len(summary.Failed), summary.Documents)
	}
	return nil
}

// summaryJSON is the machine-readable form of a run summary.
type summaryJSON struct {
	*convert.Summary
	Output string        `json:"output"`
	Failed []failureJSON `json:"failed"`
}

type failureJSON struct {
	Document string `json:"document"`
	Error    string `json:"error"`
}

func writeSummary(out io.Writer, summary *convert.Summary, outputDir string) error {
	if convertFormat == "json" {
		failed := make([]failureJSON, 0, len(summary.Failed))
		for _, f := range summary.Failed {
			failed = append(failed, failureJSON{Document: f.Document, Error: f.Err.Error()})
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaryJSON{Summary: summary, Output: outputDir, Failed: failed})
	}

	fmt.Fprintf(out, "Conversion complete: %d of %d documents converted", summary.Converted, summary.Documents)
	if summary.Skipped > 0 {
		fmt.Fprintf(out, " (%d unchanged, skipped)", summary.Skipped)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Spans: %d\n", summary.Spans)
	fmt.Fprintf(out, "  Tokens: %d\n", summary.Tokens)
	fmt.Fprintf(out, "  Warnings: %d\n", summary.Warnings)
	if len(summary.UnknownLabelDocuments) > 0 {
		fmt.Fprintf(out, "  Documents with unknown labels: %s\n", strings.Join(summary.UnknownLabelDocuments, ", "))
	}
	if len(summary.Failed) > 0 {
		fmt.Fprintf(out, "Failed documents (%d):\n", len(summary.Failed))
		for _, f := range summary.Failed {
			fmt.Fprintf(out, "  %s: %v\n", f.Document, f.Err)
		}
	}
	fmt.Fprintf(out, "Output: %s\n", outputDir)
	return nil
}
