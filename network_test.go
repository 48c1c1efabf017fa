package reviews

import (
	"math"
	"testing"
)

func TestNetworkGradients(t *testing.T) {
	cfg := NetworkConfig{VocabSize: 8, EmbeddingDim: 3, SequenceLength: 4, HiddenUnits: 5}
	net, err := newNetwork(cfg, 7)
	if err != nil {
		t.Fatalf("Failed to create network: %v", err)
	}
	batch := [][]int{{1, 2, 3, 0}, {4, 4, 5, 6}, {7, 0, 0, 0}}
	labels := []float64{1, 0, 1}

	lossAt := func() float64 {
		loss, _ := binaryCrossEntropy(net.forward(batch).out, labels)
		return loss
	}

	grads := net.backward(net.forward(batch), labels).buffers()
	const h = 1e-6
	for k, p := range net.params() {
		for i := range p {
			orig := p[i]
			p[i] = orig + h
			plus := lossAt()
			p[i] = orig - h
			minus := lossAt()
			p[i] = orig

			numeric := (plus - minus) / (2 * h)
			analytic := grads[k][i]
			diff := math.Abs(numeric - analytic)
			scale := math.Max(1e-4, math.Abs(numeric)+math.Abs(analytic))
			if diff/scale > 1e-3 {
				t.Errorf("Param %d[%d]: numeric %.8f, analytic %.8f", k, i, numeric, analytic)
			}
		}
	}
}

func TestNetworkForwardRange(t *testing.T) {
	net, err := newNetwork(smallNetworkConfig(), 1)
	if err != nil {
		t.Fatalf("Failed to create network: %v", err)
	}
	act := net.forward([][]int{{1, 2, 3}, {}, {19, 19, 19, 19}})
	for i, p := range act.out {
		if p < 0 || p > 1 || math.IsNaN(p) {
			t.Errorf("Output %d outside [0, 1]: %v", i, p)
		}
	}
}

func TestNetworkDeterministicInit(t *testing.T) {
	a, _ := newNetwork(smallNetworkConfig(), 42)
	b, _ := newNetwork(smallNetworkConfig(), 42)
	for k, p := range a.params() {
		q := b.params()[k]
		for i := range p {
			if p[i] != q[i] {
				t.Fatalf("Param %d[%d] differs for identical seeds", k, i)
			}
		}
	}
	for _, w := range a.embedding.RawMatrix().Data {
		if math.Abs(w) > 0.05 {
			t.Fatalf("Embedding weight %v outside [-0.05, 0.05]", w)
		}
	}
}

func TestNetworkCheckBatch(t *testing.T) {
	net, _ := newNetwork(smallNetworkConfig(), 1)
	tests := []struct {
		desc    string
		seq     []int
		wantErr bool
	}{
		{"valid ids", Pad([]int{0, 19}, 12, PadIndex), false},
		{"id equal to vocabulary size", Pad([]int{0, 20}, 12, PadIndex), true},
		{"negative id", Pad([]int{-1}, 12, PadIndex), true},
		{"shorter than sequence length", []int{4, 5}, true},
		{"longer than sequence length", Pad(nil, 500, PadIndex), true},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			err := net.checkBatch([][]int{tt.seq})
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBinaryCrossEntropy(t *testing.T) {
	loss, correct := binaryCrossEntropy([]float64{0.9, 0.2, 0.6}, []float64{1, 0, 0})
	expected := -(math.Log(0.9) + math.Log(0.8) + math.Log(0.4)) / 3
	if math.Abs(loss-expected) > 1e-12 {
		t.Errorf("Expected loss %.6f, got %.6f", expected, loss)
	}
	if correct != 2 {
		t.Errorf("Expected 2 correct, got %d", correct)
	}

	loss, _ = binaryCrossEntropy([]float64{0, 1}, []float64{1, 0})
	if math.IsInf(loss, 0) || math.IsNaN(loss) {
		t.Errorf("Expected clipped finite loss, got %v", loss)
	}
}

func TestAdamStep(t *testing.T) {
	params := [][]float64{{1.0, -1.0}}
	opt := newAdam(0.1, 0.9, 0.999, 1e-7, params)
	opt.step(params, [][]float64{{0.5, -0.5}})

	// The first bias-corrected step moves each weight by about the learning rate.
	if math.Abs(params[0][0]-0.9) > 1e-4 || math.Abs(params[0][1]+0.9) > 1e-4 {
		t.Errorf("Unexpected parameters after one step: %v", params[0])
	}
}
