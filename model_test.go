package reviews

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fixedDataset() *Dataset {
	return &Dataset{
		Features: [][]int{
			{7, 8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			{9, 10, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			{4, 5, 6, 7, 0, 0, 0, 0, 0, 0, 0, 0},
			{4, 5, 6, 10, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		Labels: []float64{1, 0, 1, 0},
	}
}

func TestModelRoundTrip(t *testing.T) {
	model, err := NewModel(smallNetworkConfig(), 11)
	if err != nil {
		t.Fatalf("Failed to create model: %v", err)
	}
	model.Name = "roundtrip"
	model.RunID = "run-1"
	ds := fixedDataset()
	model.Loss, model.Accuracy, err = model.Evaluate(ds)
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved")
	if err := model.Write(path); err != nil {
		t.Fatalf("Failed to write model: %v", err)
	}

	loaded, err := ModelFromDisk(path, discardLogger())
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}
	if loaded.Config() != model.Config() {
		t.Errorf("Expected config %+v, got %+v", model.Config(), loaded.Config())
	}
	if loaded.Name != "roundtrip" || loaded.RunID != "run-1" {
		t.Errorf("Metadata not restored: name=%q run=%q", loaded.Name, loaded.RunID)
	}

	loss, acc, err := loaded.Evaluate(ds)
	if err != nil {
		t.Fatalf("Failed to evaluate loaded model: %v", err)
	}
	if math.Abs(loss-model.Loss) > 1e-12 || math.Abs(acc-model.Accuracy) > 1e-12 {
		t.Errorf("Expected loss/accuracy %.6f/%.4f after reload, got %.6f/%.4f",
			model.Loss, model.Accuracy, loss, acc)
	}
	if loaded.Loss != model.Loss || loaded.Accuracy != model.Accuracy {
		t.Errorf("Stored metrics not restored: %v/%v", loaded.Loss, loaded.Accuracy)
	}
}

func TestModelFromDiskWithoutMetadata(t *testing.T) {
	model, _ := NewModel(smallNetworkConfig(), 3)
	path := filepath.Join(t.TempDir(), "weights_only")
	if err := model.Write(path); err != nil {
		t.Fatalf("Failed to write model: %v", err)
	}
	if err := os.Remove(filepath.Join(path, "metadata.gob")); err != nil {
		t.Fatalf("Failed to remove metadata: %v", err)
	}

	loaded, err := ModelFromDisk(path, discardLogger())
	if err != nil {
		t.Fatalf("Expected weights-only checkpoint to load, got %v", err)
	}
	if loaded.Name != "weights_only" {
		t.Errorf("Expected name from directory, got %q", loaded.Name)
	}
}

func TestModelFromDiskFailure(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt")
	if err := os.MkdirAll(filepath.Join(corrupt, "Network"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(corrupt, "Network"), "config.gob", "not a gob stream")

	tests := []struct {
		desc string
		path string
	}{
		{"missing directory", filepath.Join(dir, "absent")},
		{"corrupt files", corrupt},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var buf bytes.Buffer
			model, err := ModelFromDisk(tt.path, NewLogger(&buf, LevelFatal))
			if model != nil {
				t.Error("Expected no model on failure")
			}
			var loadErr *ModelLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("Expected *ModelLoadError, got %T: %v", err, err)
			}
			if loadErr.Path != tt.path {
				t.Errorf("Expected path %q, got %q", tt.path, loadErr.Path)
			}
			if !strings.Contains(buf.String(), "level=FATAL") {
				t.Errorf("Expected a FATAL log line, got %q", buf.String())
			}
		})
	}
}

func TestModelPredictProba(t *testing.T) {
	model, _ := NewModel(smallNetworkConfig(), 5)

	probs, err := model.PredictProba(fixedDataset().Features)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(probs) != 4 {
		t.Fatalf("Expected 4 probabilities, got %d", len(probs))
	}

	if _, err := model.PredictProba([][]int{Pad([]int{25}, 12, PadIndex)}); err == nil {
		t.Error("Expected error for id outside the embedding table")
	}
	if _, err := model.PredictProba([][]int{Pad([]int{7, 8}, 500, PadIndex)}); err == nil {
		t.Error("Expected error for a sequence longer than the model's input length")
	}
	if probs, err := model.PredictProba(nil); err != nil || probs != nil {
		t.Errorf("Expected empty result for empty batch, got %v, %v", probs, err)
	}
}

func TestModelSummary(t *testing.T) {
	model, _ := NewModel(DefaultNetworkConfig(), 1)
	model.Name = "my_model_0"

	var buf bytes.Buffer
	if err := model.Summary(&buf); err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"160000", "272", "17", "Total params: 160289", "Accuracy", "Loss:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q\nGot:\n%s", want, out)
		}
	}
}
