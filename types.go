package reviews

import (
	"fmt"
	"time"
)

// Reserved vocabulary entries.
const (
	PadToken    = "<PAD>"
	StartToken  = "<START>"
	UnkToken    = "<UNK>"
	UnusedToken = "<UNUSED>"

	PadIndex    = 0
	StartIndex  = 1
	UnkIndex    = 2
	UnusedIndex = 3

	reservedCount = 4
)

// Language is an ISO 639-1 code understood by the stop-word filter.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
	French  Language = "fr"
	German  Language = "de"
)

// Band is one of the three sentiment bands a probability falls into.
type Band int

const (
	NegativeReview Band = iota
	NeutralReview
	PositiveReview
)

// String returns the human readable label for the band.
func (b Band) String() string {
	switch b {
	case PositiveReview:
		return "Positive review"
	case NeutralReview:
		return "Neutral review"
	case NegativeReview:
		return "Negative review"
	}
	return fmt.Sprintf("Band(%d)", int(b))
}

// A Prediction is the outcome for a single review.
type Prediction struct {
	Text        string  // The review as given.
	Probability float64 // Model output in [0, 1].
	Band        Band    // Sentiment band under the predictor's thresholds.
}

// Label returns the band's label string.
func (p Prediction) Label() string {
	return p.Band.String()
}

// Checkpoint describes a persisted model.
type Checkpoint struct {
	Name      string
	Path      string
	RunID     string
	Loss      float64
	Accuracy  float64
	CreatedAt time.Time
}
