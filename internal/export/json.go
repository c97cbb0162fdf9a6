package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/richtext/internal/runs"
	"github.com/dgallion1/richtext/internal/style"
)

// Payload is the JSON form of a rendered document.
type Payload struct {
	Text  string      `json:"text"`
	Spans []runs.Span `json:"spans"`
	Runs  []runs.Run  `json:"runs,omitempty"`
}

// JSON writes the document text and spans, plus resolved runs when
// withRuns is set.
func JSON(w io.Writer, doc *runs.Document, preserve style.ColorSet, withRuns bool) error {
	if doc == nil {
		doc = &runs.Document{}
	}
	p := Payload{Text: doc.Text, Spans: doc.Spans}
	if p.Spans == nil {
		p.Spans = []runs.Span{}
	}
	if withRuns {
		p.Runs = doc.Runs(preserve)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
