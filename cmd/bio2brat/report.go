package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/praetorian-inc/bio2brat/pkg/store"
	"github.com/praetorian-inc/bio2brat/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	reportDatastore string
	reportFormat    string
	reportColor     string
	reportDocument  string
)

// styles holds color formatters for report output
type styles struct {
	heading  *color.Color
	id       *color.Color
	spanType *color.Color
	text     *color.Color
	warning  *color.Color
	failure  *color.Color
	metadata *color.Color
}

// newStyles creates color formatters for report output
// enabled=false respects --color=never and the NO_COLOR env var
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold),
		id:       color.New(color.FgHiGreen),
		spanType: color.New(color.Bold, color.FgHiBlue),
		text:     color.New(color.FgYellow),
		warning:  color.New(color.FgHiYellow),
		failure:  color.New(color.Bold, color.FgRed),
		metadata: color.New(color.FgHiBlack),
	}

	if !enabled {
		for _, c := range []*color.Color{s.heading, s.id, s.spanType, s.text, s.warning, s.failure, s.metadata} {
			c.DisableColor()
		}
	}

	return s
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize conversion results from a datastore",
	Long: `Read conversion results from a datastore and print a summary report:
documents converted and failed, spans per entity type and warnings per kind.
With --document, list the spans of one document.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	registerReportFlags(reportCmd)
}

func registerReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&reportDatastore, "datastore", "bio2brat.db", "Path to datastore file")
	cmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json")
	cmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	cmd.Flags().StringVar(&reportDocument, "document", "", "List the spans of this document")
}

// report is the aggregated content of a datastore.
type report struct {
	Datastore string                  `json:"datastore"`
	Documents []*types.DocumentRecord `json:"documents"`
	Converted int                     `json:"converted"`
	Failed    int                     `json:"failed"`
	SpanTypes map[string]int          `json:"span_types"`
	Warnings  map[string]int          `json:"warnings"`
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportDatastore == store.MemoryPath {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if _, err := os.Stat(reportDatastore); err != nil {
		return fmt.Errorf("datastore not found: %s", reportDatastore)
	}

	s, err := store.New(store.Config{Path: reportDatastore})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	if reportDocument != "" {
		return outputDocumentSpans(cmd, s, reportDocument)
	}

	r, err := buildReport(s)
	if err != nil {
		return err
	}
	r.Datastore = reportDatastore

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	case "human":
		outputReportHuman(cmd.OutOrStdout(), r, newStyles(colorEnabled()))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

func buildReport(s store.Store) (*report, error) {
	docs, err := s.GetDocuments()
	if err != nil {
		return nil, fmt.Errorf("retrieving documents: %w", err)
	}
	spans, err := s.GetAllSpans()
	if err != nil {
		return nil, fmt.Errorf("retrieving spans: %w", err)
	}
	warnings, err := s.GetWarnings()
	if err != nil {
		return nil, fmt.Errorf("retrieving warnings: %w", err)
	}

	r := &report{
		Documents: docs,
		SpanTypes: make(map[string]int),
		Warnings:  make(map[string]int),
	}
	for _, d := range docs {
		if d.Status == types.StatusFailed {
			r.Failed++
		} else {
			r.Converted++
		}
	}
	for _, sp := range spans {
		r.SpanTypes[sp.Type]++
	}
	for _, w := range warnings {
		r.Warnings[string(w.Kind)]++
	}
	return r, nil
}

// colorEnabled decides whether to color output based on --color
func colorEnabled() bool {
	switch reportColor {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		// Check if stdout is a TTY and NO_COLOR is not set
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

func outputReportHuman(out io.Writer, r *report, s *styles) {
	fmt.Fprintf(out, "%s %s\n", s.heading.Sprint("Datastore:"), s.metadata.Sprint(r.Datastore))
	fmt.Fprintf(out, "%s %d (%s converted, %s failed)\n",
		s.heading.Sprint("Documents:"),
		len(r.Documents),
		s.id.Sprint(r.Converted),
		s.failure.Sprint(r.Failed))

	if len(r.SpanTypes) > 0 {
		fmt.Fprintf(out, "\n%s\n", s.heading.Sprint("Entity types:"))
		for _, name := range sortedKeys(r.SpanTypes) {
			fmt.Fprintf(out, "  %-20s %d\n", s.spanType.Sprint(name), r.SpanTypes[name])
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(out, "\n%s\n", s.heading.Sprint("Warnings:"))
		for _, kind := range sortedKeys(r.Warnings) {
			fmt.Fprintf(out, "  %-20s %d\n", s.warning.Sprint(kind), r.Warnings[kind])
		}
	}

	if r.Failed > 0 {
		fmt.Fprintf(out, "\n%s\n", s.heading.Sprint("Failed documents:"))
		for _, d := range r.Documents {
			if d.Status == types.StatusFailed {
				fmt.Fprintf(out, "  %s: %s\n", s.failure.Sprint(d.ID), d.Error)
			}
		}
	}
}

func outputDocumentSpans(cmd *cobra.Command, st store.Store, id string) error {
	doc, err := st.GetDocument(id)
	if err != nil {
		return fmt.Errorf("document %s: %w", id, err)
	}
	spans, err := st.GetSpans(id)
	if err != nil {
		return fmt.Errorf("retrieving spans: %w", err)
	}

	if reportFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			*types.DocumentRecord
			SpanList []types.Span `json:"span_list"`
		}{doc, spans})
	}

	s := newStyles(colorEnabled())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%d spans, %d warnings, %s)\n",
		s.heading.Sprint("Document"), s.id.Sprint(doc.ID), doc.Spans, doc.Warnings, doc.Status)
	for _, sp := range spans {
		src := sp.Location.Source
		fmt.Fprintf(out, "  %s %s %d-%d %s %q\n",
			s.id.Sprint(sp.AnnotationID()),
			s.spanType.Sprint(sp.Type),
			sp.Begin(), sp.End(),
			s.metadata.Sprintf("(%d:%d-%d:%d)", src.Start.Line, src.Start.Column, src.End.Line, src.End.Column),
			sp.Text)
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
