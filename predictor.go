package reviews

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

// Thresholds splits [0, 1] into three half-open sentiment bands.
type Thresholds struct {
	Positive float64 // probabilities >= Positive are positive
	Neutral  float64 // probabilities in [Neutral, Positive) are neutral
}

// NewThresholds validates the caps: both in [0, 1] and positive > neutral.
func NewThresholds(positive, neutral float64) (Thresholds, error) {
	if math.IsNaN(positive) || math.IsNaN(neutral) ||
		positive < 0 || positive > 1 || neutral < 0 || neutral > 1 {
		return Thresholds{}, fmt.Errorf("%w: caps must lie in [0, 1], got positive=%v neutral=%v",
			ErrInvalidThresholds, positive, neutral)
	}
	if positive <= neutral {
		return Thresholds{}, fmt.Errorf("%w: positive cap %v must exceed neutral cap %v",
			ErrInvalidThresholds, positive, neutral)
	}
	return Thresholds{Positive: positive, Neutral: neutral}, nil
}

// Classify maps a probability to its band.
func (t Thresholds) Classify(prob float64) Band {
	switch {
	case prob >= t.Positive:
		return PositiveReview
	case prob >= t.Neutral:
		return NeutralReview
	default:
		return NegativeReview
	}
}

// Classifier scores padded sequences. *Model implements it.
type Classifier interface {
	PredictProba(batch [][]int) ([]float64, error)
}

// Predictor classifies single reviews with fixed thresholds.
type Predictor struct {
	classifier Classifier
	encoder    *Encoder
	thresholds Thresholds

	segmentOnce sync.Once
	segmenter   *sentences.DefaultSentenceTokenizer
	segmentErr  error
}

// NewPredictor creates a predictor. The thresholds cannot be changed later.
func NewPredictor(classifier Classifier, encoder *Encoder, thresholds Thresholds) (*Predictor, error) {
	if classifier == nil {
		return nil, ErrNoModel
	}
	if encoder == nil {
		return nil, fmt.Errorf("predictor requires an encoder")
	}
	t, err := NewThresholds(thresholds.Positive, thresholds.Neutral)
	if err != nil {
		return nil, err
	}
	return &Predictor{classifier: classifier, encoder: encoder, thresholds: t}, nil
}

// Thresholds returns the bands used by the predictor.
func (p *Predictor) Thresholds() Thresholds {
	return p.thresholds
}

// Predict encodes text as a single-row batch, runs one forward pass and
// classifies the output probability.
func (p *Predictor) Predict(text string) (Prediction, error) {
	probs, err := p.classifier.PredictProba([][]int{p.encoder.Sequence(text)})
	if err != nil {
		return Prediction{}, err
	}
	if len(probs) != 1 {
		return Prediction{}, fmt.Errorf("classifier returned %d outputs for one review", len(probs))
	}
	return Prediction{
		Text:        text,
		Probability: probs[0],
		Band:        p.thresholds.Classify(probs[0]),
	}, nil
}

// PredictBatch scores many reviews in a single pass, preserving order.
func (p *Predictor) PredictBatch(texts []string) ([]Prediction, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batch := make([][]int, len(texts))
	for i, text := range texts {
		batch[i] = p.encoder.Sequence(text)
	}
	probs, err := p.classifier.PredictProba(batch)
	if err != nil {
		return nil, err
	}
	if len(probs) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d outputs for %d reviews", len(probs), len(texts))
	}
	out := make([]Prediction, len(texts))
	for i, text := range texts {
		out[i] = Prediction{Text: text, Probability: probs[i], Band: p.thresholds.Classify(probs[i])}
	}
	return out, nil
}

// PredictSentences segments text into English sentences and predicts each.
func (p *Predictor) PredictSentences(text string) ([]Prediction, error) {
	p.segmentOnce.Do(func() {
		p.segmenter, p.segmentErr = english.NewSentenceTokenizer(nil)
	})
	if p.segmentErr != nil {
		return nil, fmt.Errorf("sentence segmenter: %w", p.segmentErr)
	}

	var texts []string
	for _, s := range p.segmenter.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return p.PredictBatch(texts)
}
