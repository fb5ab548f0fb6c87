package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/bio2brat/pkg/config"
	"github.com/praetorian-inc/bio2brat/pkg/enum"
	"github.com/praetorian-inc/bio2brat/pkg/standoff"
	"github.com/spf13/cobra"
)

var (
	verifyTextSuffix string
	verifyAnnSuffix  string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <output-dir>",
	Short: "Check .ann files against their .txt documents",
	Long: `Verify every annotation file in a converted output directory.

Each span's recorded text must equal the text at its offsets in the
sibling document file (newlines read as spaces), and annotation ids must
run T1, T2, ... without gaps.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	registerVerifyFlags(verifyCmd)
}

func registerVerifyFlags(cmd *cobra.Command) {
	defaults := config.Default()
	cmd.Flags().StringVar(&verifyTextSuffix, "text-suffix", defaults.TextSuffix, "Text file suffix")
	cmd.Flags().StringVar(&verifyAnnSuffix, "ann-suffix", defaults.AnnSuffix, "Annotation file suffix")
}

func runVerify(cmd *cobra.Command, args []string) error {
	dir := args[0]
	out := cmd.OutOrStdout()

	sources, err := enum.NewFilesystemEnumerator(enum.Config{
		Root:   dir,
		Suffix: verifyAnnSuffix,
	}).List(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("listing annotations: %w", err)
	}
	cmd.SilenceUsage = true

	var problems []string
	for _, src := range sources {
		ann, err := os.ReadFile(src.Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", src.Path, err)
		}
		textPath := filepath.Join(dir, filepath.FromSlash(src.ID)+verifyTextSuffix)
		text, err := os.ReadFile(textPath)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: missing text %s", src.ID, textPath))
			continue
		}

		mismatches, err := standoff.Verify(string(ann), string(text))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", src.ID, err))
			continue
		}
		for _, m := range mismatches {
			problems = append(problems, fmt.Sprintf("%s: T%d [%d,%d) records %q, document has %q",
				src.ID, m.ID, m.Begin, m.End, m.Recorded, m.Document))
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(out, p)
		}
		return fmt.Errorf("%d problem(s) in %d annotation files", len(problems), len(sources))
	}

	fmt.Fprintf(out, "Verified %d annotation files: OK\n", len(sources))
	return nil
}
