package convert

import (
	"sort"
	"time"

	"github.com/praetorian-inc/bio2brat/pkg/types"
)

// Summary describes the outcome of a Run.
type Summary struct {
	Documents int `json:"documents"` // token files seen, including failures
	Converted int `json:"converted"`
	Skipped   int `json:"skipped"` // unchanged documents in incremental mode

	// Failed lists failed documents ordered by ID.
	Failed []DocumentError `json:"-"`

	Spans    int `json:"spans"`
	Tokens   int `json:"tokens"`
	Warnings int `json:"warnings"`

	// UnknownLabelDocuments lists documents containing labels outside the
	// tag scheme, such as "<unk>". Informational only.
	UnknownLabelDocuments []string `json:"unknown_label_documents,omitempty"`

	Duration time.Duration `json:"duration"`
}

// OK reports whether every document converted or was skipped.
func (s *Summary) OK() bool {
	return len(s.Failed) == 0
}

func (s *Summary) add(o outcome) {
	s.Documents++
	if o.skipped {
		s.Skipped++
		return
	}
	r := o.result
	s.Converted++
	s.Spans += len(r.Spans)
	s.Tokens += r.Tokens
	s.Warnings += len(r.Warnings)
	if r.HasWarning(types.WarningUnknownLabel) {
		s.UnknownLabelDocuments = append(s.UnknownLabelDocuments, r.Document)
	}
}

func (s *Summary) finalize() {
	sort.Slice(s.Failed, func(i, j int) bool { return s.Failed[i].Document < s.Failed[j].Document })
	sort.Strings(s.UnknownLabelDocuments)
}
