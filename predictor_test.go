package reviews

import (
	"errors"
	"math"
	"testing"
)

// stubClassifier scores a sequence by its first id and records every batch.
type stubClassifier struct {
	scores  map[int]float64
	batches [][][]int
	err     error
}

func (s *stubClassifier) PredictProba(batch [][]int) ([]float64, error) {
	s.batches = append(s.batches, batch)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(batch))
	for i, seq := range batch {
		p, ok := s.scores[seq[0]]
		if !ok {
			p = 0.5
		}
		out[i] = p
	}
	return out, nil
}

func testPredictor(t *testing.T, c Classifier) *Predictor {
	t.Helper()
	p, err := NewPredictor(c, NewEncoder(testVocabulary(), UsingMaxLen(8)), Thresholds{Positive: 0.6, Neutral: 0.4})
	if err != nil {
		t.Fatalf("Failed to create predictor: %v", err)
	}
	return p
}

func TestThresholdsClassify(t *testing.T) {
	th, err := NewThresholds(0.6, 0.4)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		prob float64
		want Band
	}{
		{0.75, PositiveReview},
		{0.6, PositiveReview},
		{0.5, NeutralReview},
		{0.4, NeutralReview},
		{0.39, NegativeReview},
		{0.1, NegativeReview},
		{0, NegativeReview},
		{1, PositiveReview},
	}
	for _, tt := range tests {
		if got := th.Classify(tt.prob); got != tt.want {
			t.Errorf("Classify(%v): Expected %s, got %s", tt.prob, tt.want, got)
		}
	}
}

func TestNewThresholdsInvalid(t *testing.T) {
	tests := []struct {
		desc              string
		positive, neutral float64
	}{
		{"equal caps", 0.5, 0.5},
		{"inverted caps", 0.3, 0.6},
		{"above one", 1.2, 0.4},
		{"below zero", 0.6, -0.1},
		{"not a number", math.NaN(), 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := NewThresholds(tt.positive, tt.neutral); !errors.Is(err, ErrInvalidThresholds) {
				t.Errorf("Expected ErrInvalidThresholds, got %v", err)
			}
		})
	}
}

func TestNewPredictorErrors(t *testing.T) {
	enc := NewEncoder(testVocabulary())
	if _, err := NewPredictor(nil, enc, Thresholds{Positive: 0.6, Neutral: 0.4}); !errors.Is(err, ErrNoModel) {
		t.Errorf("Expected ErrNoModel for a nil classifier, got %v", err)
	}
	if _, err := NewPredictor(&stubClassifier{}, enc, Thresholds{Positive: 0.4, Neutral: 0.6}); !errors.Is(err, ErrInvalidThresholds) {
		t.Errorf("Expected ErrInvalidThresholds, got %v", err)
	}
}

func TestPredict(t *testing.T) {
	stub := &stubClassifier{scores: map[int]float64{7: 0.75, 6: 0.5, 9: 0.1}}
	p := testPredictor(t, stub)

	tests := []struct {
		text string
		prob float64
		want string
	}{
		{"good film", 0.75, "Positive review"},
		{"was it", 0.5, "Neutral review"},
		{"Bad!", 0.1, "Negative review"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			pred, err := p.Predict(tt.text)
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			if pred.Text != tt.text || pred.Probability != tt.prob || pred.Label() != tt.want {
				t.Errorf("Expected %q %.2f %s, got %+v (%s)", tt.text, tt.prob, tt.want, pred, pred.Label())
			}
		})
	}

	last := stub.batches[len(stub.batches)-1]
	if len(last) != 1 || len(last[0]) != 8 {
		t.Errorf("Expected a single row of length 8, got %d rows", len(last))
	}
}

func TestPredictClassifierError(t *testing.T) {
	boom := errors.New("boom")
	p := testPredictor(t, &stubClassifier{err: boom})
	if _, err := p.Predict("good"); !errors.Is(err, boom) {
		t.Errorf("Expected classifier error, got %v", err)
	}
}

func TestPredictBatch(t *testing.T) {
	stub := &stubClassifier{scores: map[int]float64{7: 0.9, 9: 0.2}}
	p := testPredictor(t, stub)

	preds, err := p.PredictBatch([]string{"good", "bad", "film"})
	if err != nil {
		t.Fatalf("PredictBatch failed: %v", err)
	}
	want := []Band{PositiveReview, NegativeReview, NeutralReview}
	for i, pred := range preds {
		if pred.Band != want[i] {
			t.Errorf("Review %d: Expected %s, got %s", i, want[i], pred.Band)
		}
	}
	if len(stub.batches) != 1 {
		t.Errorf("Expected one classifier call, got %d", len(stub.batches))
	}
}

func TestPredictSentences(t *testing.T) {
	stub := &stubClassifier{scores: map[int]float64{4: 0.5}}
	p := testPredictor(t, stub)

	preds, err := p.PredictSentences("The film was good. The ending was bad.")
	if err != nil {
		t.Fatalf("PredictSentences failed: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("Expected 2 sentences, got %d: %+v", len(preds), preds)
	}
	if preds[0].Text != "The film was good." || preds[1].Text != "The ending was bad." {
		t.Errorf("Unexpected sentences: %q, %q", preds[0].Text, preds[1].Text)
	}
}
