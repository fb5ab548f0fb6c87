package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/praetorian-inc/bio2brat"
	"github.com/spf13/cobra"
)

var (
	decodeOutput string
	decodeStrict bool
	decodeFormat string
)

var decodeCmd = &cobra.Command{
	Use:   "decode <tokens.bio> <text.txt>",
	Short: "Decode a single token file",
	Long: `Decode one token file against its document text and print the standoff
annotation. Warnings are logged to stderr.`,
	Args: cobra.ExactArgs(2),
	RunE: runDecode,
}

func init() {
	registerDecodeFlags(decodeCmd)
}

func registerDecodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&decodeOutput, "output", "o", "", "Write the annotation to this file instead of stdout")
	cmd.Flags().BoolVar(&decodeStrict, "strict", false, "Start a new span at orphaned or mismatched I-/E- tags")
	cmd.Flags().StringVar(&decodeFormat, "format", "ann", "Output format: ann, json")
}

func runDecode(cmd *cobra.Command, args []string) error {
	tokenPath, textPath := args[0], args[1]

	logger, err := newLogger(cmd.ErrOrStderr(), "warn", "")
	if err != nil {
		return err
	}

	opts := []bio2brat.Option{
		bio2brat.WithWarningHandler(func(w bio2brat.Warning) {
			logger.Warn(w.Message, "document", tokenPath, "line", w.Line, "token", w.TokenID, "label", w.Label, "kind", string(w.Kind))
		}),
	}
	if decodeStrict {
		opts = append(opts, bio2brat.WithStrictContinuation())
	}

	result, err := bio2brat.ConvertFiles(tokenPath, textPath, opts...)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", tokenPath, err)
	}

	var data []byte
	switch decodeFormat {
	case "ann":
		data = []byte(result.Annotation)
	case "json":
		data, err = json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", decodeFormat)
	}

	if decodeOutput != "" {
		if err := os.WriteFile(decodeOutput, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", decodeOutput, err)
		}
		return nil
	}

	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 {
		fmt.Fprintln(out)
	}
	return nil
}
