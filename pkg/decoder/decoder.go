// Package decoder turns a sequence of BIO/BIOES tagged tokens into entity spans.
//
// Decoding is a single left-to-right pass with no lookahead:
//
//   - B-X and S-X close any open span and open a new span of type X.
//   - I-X and E-X extend the open span to the token's end offset. The type
//     suffix is not compared with the open span unless strict continuation
//     is enabled.
//   - "O" and any label without a B/I/E/S prefix (such as "<unk>") close
//     the open span and open nothing.
//   - A span still open after the last token is closed.
//
// Span IDs are assigned 1..N in the order spans are closed. Sentence
// boundaries in the input are not significant: a span may run across them.
package decoder

import (
	"fmt"

	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// Options configures decoding.
type Options struct {
	// StrictContinuation makes an I/E tag that has nothing open, or whose
	// type differs from the open span, start a span of its own instead of
	// being ignored or merged.
	StrictContinuation bool

	// OnWarning, if set, is called for every warning as it is raised.
	OnWarning func(types.Warning)
}

// Option configures a Decoder.
type Option func(*Options)

// WithStrictContinuation enables strict continuation handling.
func WithStrictContinuation() Option {
	return func(o *Options) {
		o.StrictContinuation = true
	}
}

// WithWarningHandler registers a callback invoked for each warning.
func WithWarningHandler(fn func(types.Warning)) Option {
	return func(o *Options) {
		o.OnWarning = fn
	}
}

// Output is the result of decoding one document.
type Output struct {
	Spans    []types.Span
	Warnings []types.Warning
}

// Decoder decodes tag sequences. A Decoder holds no per-document state and
// is safe for concurrent use.
type Decoder struct {
	opts Options
}

// New creates a Decoder with the given options.
func New(opts ...Option) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

// Decode decodes tokens with the default (permissive) decoder.
func Decode(tokens []types.Token) Output {
	return New().Decode(tokens)
}

// Strict reports whether strict continuation is enabled.
func (d *Decoder) Strict() bool {
	return d.opts.StrictContinuation
}

// Decode runs the state machine over tokens, which must be in document order.
func (d *Decoder) Decode(tokens []types.Token) Output {
	s := &state{}
	var warnings []types.Warning
	warn := func(kind types.WarningKind, tok types.Token, format string, args ...any) {
		w := types.NewWarning(kind, tok, fmt.Sprintf(format, args...))
		warnings = append(warnings, w)
		if d.opts.OnWarning != nil {
			d.opts.OnWarning(w)
		}
	}

	for _, tok := range tokens {
		tag := tok.Tag()

		switch {
		case !tag.Known():
			warn(types.WarningUnknownLabel, tok, "label is neither O nor a B/I/E/S tag, treated as outside")
		case !tag.WellFormed():
			warn(types.WarningMalformedTag, tok, "label does not have the <prefix>-<type> form")
		}

		switch {
		case tag.Opens():
			s.close()
			s.start(tok, tag.Type)

		case tag.Continues():
			switch {
			case !s.open:
				if d.opts.StrictContinuation {
					warn(types.WarningOrphanContinuation, tok, "continuation without an open span, starting a new span")
					s.start(tok, tag.Type)
				} else {
					warn(types.WarningOrphanContinuation, tok, "continuation without an open span, ignored")
				}
			case tag.Type != s.typ:
				if d.opts.StrictContinuation {
					warn(types.WarningTypeMismatch, tok, "continuation of type %q does not match open span %q, starting a new span", tag.Type, s.typ)
					s.close()
					s.start(tok, tag.Type)
				} else {
					warn(types.WarningTypeMismatch, tok, "continuation of type %q extends open span %q", tag.Type, s.typ)
					s.extend(tok)
				}
			default:
				s.extend(tok)
			}

		default:
			// "O" or an unknown label.
			s.close()
		}
	}
	s.close()

	return Output{Spans: s.spans, Warnings: warnings}
}

// state is the decoder's accumulator for one document.
type state struct {
	open     bool
	typ      string
	begin    int
	end      int
	tokenIDs []string
	spans    []types.Span
}

func (s *state) start(tok types.Token, typ string) {
	s.open = true
	s.typ = typ
	s.begin = tok.Begin
	s.end = tok.End
	s.tokenIDs = []string{tok.ID}
}

func (s *state) extend(tok types.Token) {
	s.end = tok.End
	s.tokenIDs = append(s.tokenIDs, tok.ID)
}

func (s *state) close() {
	if !s.open {
		return
	}
	s.spans = append(s.spans, types.Span{
		ID:   len(s.spans) + 1,
		Type: s.typ,
		Location: types.Location{
			Offset: types.OffsetSpan{Start: s.begin, End: s.end},
		},
		TokenIDs: s.tokenIDs,
	})
	s.open = false
	s.typ = ""
	s.tokenIDs = nil
}
