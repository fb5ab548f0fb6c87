// Package convert runs the batch conversion of token files into BRAT
// standoff pairs.
//
// For every token file under the input directory the converter reads the
// matching original text, decodes the tag sequence into spans and writes
// "<id>.txt" (a byte-identical copy of the text) and "<id>.ann" into the
// output directory. A document whose text is missing fails without any
// output being written.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/praetorian-inc/bio2brat/pkg/bio"
	"github.com/praetorian-inc/bio2brat/pkg/decoder"
	"github.com/praetorian-inc/bio2brat/pkg/enum"
	"github.com/praetorian-inc/bio2brat/pkg/metrics"
	"github.com/praetorian-inc/bio2brat/pkg/standoff"
	"github.com/praetorian-inc/bio2brat/pkg/store"
	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// Config controls a conversion run.
type Config struct {
	InputDir  string // token files
	TextDir   string // original texts
	OutputDir string // .txt/.ann pairs

	TokenSuffix string
	TextSuffix  string
	AnnSuffix   string

	// Workers bounds concurrent document conversions.
	Workers int

	// FailFast aborts the run on the first failed document.
	FailFast bool

	// Strict enables strict continuation handling in the decoder.
	Strict bool

	// Incremental skips documents whose token file and text are unchanged
	// since they were last converted. Needs a store.
	Incremental bool

	IncludeHidden bool
	MaxFileSize   int64
}

// DefaultConfig returns a Config with the default suffixes and worker count.
func DefaultConfig() Config {
	return Config{
		TokenSuffix: ".bio",
		TextSuffix:  ".txt",
		AnnSuffix:   ".ann",
		Workers:     4,
	}
}

// Option configures a Converter.
type Option func(*Converter)

// WithStore records every converted document in s.
func WithStore(s store.Store) Option {
	return func(c *Converter) {
		c.store = s
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = l
	}
}

// WithMetrics records conversion metrics in r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Converter) {
		c.metrics = r
	}
}

// WithTextSource replaces the default DirTextSource.
func WithTextSource(src TextSource) Option {
	return func(c *Converter) {
		c.texts = src
	}
}

// Converter turns token files into standoff annotation pairs.
type Converter struct {
	cfg     Config
	store   store.Store
	logger  *slog.Logger
	metrics *metrics.Recorder
	texts   TextSource
	decoder *decoder.Decoder
}

// New creates a Converter. Empty suffixes and a non-positive worker count
// take their defaults.
func New(cfg Config, opts ...Option) *Converter {
	defaults := DefaultConfig()
	if cfg.TokenSuffix == "" {
		cfg.TokenSuffix = defaults.TokenSuffix
	}
	if cfg.TextSuffix == "" {
		cfg.TextSuffix = defaults.TextSuffix
	}
	if cfg.AnnSuffix == "" {
		cfg.AnnSuffix = defaults.AnnSuffix
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaults.Workers
	}

	c := &Converter{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.texts == nil {
		c.texts = DirTextSource{Dir: cfg.TextDir, Suffix: cfg.TextSuffix}
	}

	var decOpts []decoder.Option
	if cfg.Strict {
		decOpts = append(decOpts, decoder.WithStrictContinuation())
	}
	c.decoder = decoder.New(decOpts...)
	return c
}

// Config returns the effective configuration.
func (c *Converter) Config() Config {
	return c.cfg
}

// ConvertDocument decodes one document without touching the output
// directory or the store.
func (c *Converter) ConvertDocument(ctx context.Context, id string, tokenContent []byte) (*types.Result, error) {
	tokens, text, err := c.load(ctx, id, tokenContent)
	if err != nil {
		return nil, &DocumentError{Document: id, Err: err}
	}
	return c.decode(id, tokens, text), nil
}

// load parses the token file and fetches the text.
func (c *Converter) load(ctx context.Context, id string, tokenContent []byte) ([]types.Token, []byte, error) {
	tokens, err := bio.ReadBytes(tokenContent, id)
	if err != nil {
		return nil, nil, err
	}
	text, err := c.texts.Text(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return tokens, text, nil
}

// decode runs the decoder and attaches span text and line positions.
func (c *Converter) decode(id string, tokens []types.Token, text []byte) *types.Result {
	out := c.decoder.Decode(tokens)

	doc := standoff.NewDocument(string(text))
	spans := standoff.AttachDocument(out.Spans, doc)
	lines := types.NewLineIndex(doc.Text())
	for i := range spans {
		spans[i].Location.Source = lines.Span(spans[i].Location.Offset)
	}

	for i := range out.Warnings {
		out.Warnings[i].Document = id
	}

	return &types.Result{
		Document:   id,
		Tokens:     len(tokens),
		Spans:      spans,
		Warnings:   out.Warnings,
		Annotation: standoff.Format(spans),
	}
}

// Run converts every token file under InputDir.
//
// Per-document failures are collected in the Summary and do not stop the
// run unless FailFast is set. The returned error covers run-level problems
// (unreadable input directory, cancellation) and, with FailFast, the first
// document failure.
func (c *Converter) Run(ctx context.Context) (*Summary, error) {
	if c.cfg.InputDir == "" {
		return nil, fmt.Errorf("input directory is required")
	}
	if c.cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if c.cfg.Incremental && c.store == nil {
		return nil, fmt.Errorf("incremental conversion requires a datastore")
	}
	if err := os.MkdirAll(c.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	started := time.Now()
	var mu sync.Mutex
	summary := &Summary{}

	fail := func(id string, err error) error {
		docErr := DocumentError{Document: id, Err: err}
		c.logger.Error("document failed", "document", id, "error", err)
		c.metrics.Document(metrics.StatusFailed)
		c.recordFailure(id, err)

		mu.Lock()
		summary.Documents++
		summary.Failed = append(summary.Failed, docErr)
		mu.Unlock()

		if c.cfg.FailFast {
			return &docErr
		}
		return nil
	}

	var skipErr error
	enumerator := enum.NewFilesystemEnumerator(enum.Config{
		Root:           c.cfg.InputDir,
		Suffix:         c.cfg.TokenSuffix,
		IncludeHidden:  c.cfg.IncludeHidden,
		MaxFileSize:    c.cfg.MaxFileSize,
		FollowSymlinks: true,
		Workers:        c.cfg.Workers,
		OnSkip: func(path, reason string) {
			id := path
			if rel, err := filepath.Rel(c.cfg.InputDir, path); err == nil {
				id = enum.DocumentID(rel, c.cfg.TokenSuffix)
			}
			if err := fail(id, fmt.Errorf("%w: %s", ErrSkippedFile, reason)); err != nil && skipErr == nil {
				skipErr = err
			}
		},
	})

	c.logger.Info("starting conversion",
		"input", c.cfg.InputDir,
		"text_files", c.cfg.TextDir,
		"output", c.cfg.OutputDir,
		"workers", c.cfg.Workers,
		"strict", c.cfg.Strict,
	)

	err := enumerator.Enumerate(ctx, func(ctx context.Context, src enum.Source) error {
		if skipErr != nil {
			return skipErr
		}
		if src.Err != nil {
			return fail(src.ID, src.Err)
		}
		outcome, err := c.process(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fail(src.ID, err)
		}

		mu.Lock()
		summary.add(outcome)
		mu.Unlock()
		return nil
	})
	if err == nil {
		err = skipErr
	}

	summary.finalize()
	summary.Duration = time.Since(started)

	if err != nil {
		var docErr *DocumentError
		if errors.As(err, &docErr) {
			return summary, err
		}
		return summary, fmt.Errorf("converting %s: %w", c.cfg.InputDir, err)
	}

	c.logger.Info("conversion finished",
		"documents", summary.Documents,
		"converted", summary.Converted,
		"skipped", summary.Skipped,
		"failed", len(summary.Failed),
		"spans", summary.Spans,
		"warnings", summary.Warnings,
		"duration", summary.Duration,
	)
	return summary, nil
}

// outcome is the result of processing one document in Run.
type outcome struct {
	result  *types.Result
	skipped bool
}

// process converts one enumerated token file and writes its outputs.
func (c *Converter) process(ctx context.Context, src enum.Source) (outcome, error) {
	started := time.Now()
	defer func() { c.metrics.ObserveDuration(time.Since(started)) }()

	tokens, text, err := c.load(ctx, src.ID, src.Content)
	if err != nil {
		return outcome{}, err
	}

	digest := types.ComputeDigest(src.Content, text)
	if c.cfg.Incremental && c.unchanged(src.ID, digest) {
		c.logger.Debug("document unchanged, skipping", "document", src.ID)
		c.metrics.Document(metrics.StatusSkipped)
		return outcome{skipped: true}, nil
	}

	result := c.decode(src.ID, tokens, text)
	for _, w := range result.Warnings {
		c.logger.Warn(w.Message,
			"document", w.Document,
			"line", w.Line,
			"token", w.TokenID,
			"label", w.Label,
			"kind", string(w.Kind),
		)
		c.metrics.Warning(string(w.Kind))
	}

	if err := c.writeOutputs(src.ID, text, result.Annotation); err != nil {
		return outcome{}, err
	}

	if c.store != nil {
		rec := result.Record(src.Path, textPath(c.texts, src.ID), digest)
		if err := c.save(rec, result); err != nil {
			return outcome{}, fmt.Errorf("recording in datastore: %w", err)
		}
	}

	c.metrics.Document(metrics.StatusConverted)
	c.metrics.Tokens(result.Tokens)
	for _, s := range result.Spans {
		c.metrics.Span(s.Type)
	}
	c.logger.Debug("document converted",
		"document", src.ID,
		"tokens", result.Tokens,
		"spans", len(result.Spans),
		"warnings", len(result.Warnings),
	)
	return outcome{result: result}, nil
}

// OutputPaths returns the .txt and .ann paths written for a document.
func (c *Converter) OutputPaths(id string) (txtPath, annPath string) {
	base := filepath.Join(c.cfg.OutputDir, filepath.FromSlash(id))
	return base + c.cfg.TextSuffix, base + c.cfg.AnnSuffix
}

// writeOutputs writes the text copy, then the annotation. If the annotation
// cannot be written the text copy is removed again.
func (c *Converter) writeOutputs(id string, text []byte, ann string) error {
	txtPath, annPath := c.OutputPaths(id)
	if err := os.MkdirAll(filepath.Dir(txtPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(txtPath, text, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", txtPath, err)
	}
	if err := os.WriteFile(annPath, []byte(ann), 0644); err != nil {
		if rmErr := os.Remove(txtPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			c.logger.Warn("could not remove orphaned text copy", "path", txtPath, "error", rmErr)
		}
		return fmt.Errorf("writing %s: %w", annPath, err)
	}
	return nil
}

// unchanged reports whether the store holds a successful conversion with the
// same digest and both outputs still exist.
func (c *Converter) unchanged(id string, digest types.Digest) bool {
	rec, err := c.store.GetDocument(id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("datastore lookup failed, converting", "document", id, "error", err)
		}
		return false
	}
	if rec.Status != types.StatusConverted || rec.Digest != digest {
		return false
	}
	txtPath, annPath := c.OutputPaths(id)
	for _, p := range []string{txtPath, annPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func (c *Converter) save(rec *types.DocumentRecord, result *types.Result) error {
	if err := c.store.AddDocument(rec); err != nil {
		return err
	}
	if err := c.store.AddSpans(rec.ID, result.Spans); err != nil {
		return err
	}
	return c.store.AddWarnings(rec.ID, result.Warnings)
}

// recordFailure stores a failed document so reports can list it.
func (c *Converter) recordFailure(id string, cause error) {
	if c.store == nil {
		return
	}
	rec := &types.DocumentRecord{
		ID:          id,
		TextPath:    textPath(c.texts, id),
		Status:      types.StatusFailed,
		Error:       cause.Error(),
		ConvertedAt: time.Now().UTC(),
	}
	if err := c.store.AddDocument(rec); err != nil {
		c.logger.Warn("could not record failure in datastore", "document", id, "error", err)
	}
}
