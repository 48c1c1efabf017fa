package reviews

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// NetworkConfig describes the topology: embedding, average pooling over the
// sequence, a ReLU dense layer and a single sigmoid output unit.
type NetworkConfig struct {
	VocabSize      int
	EmbeddingDim   int
	SequenceLength int
	HiddenUnits    int
}

// DefaultNetworkConfig returns the standard 10000x16 embedding over 500 ids
// followed by a 16 unit hidden layer.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		VocabSize:      10000,
		EmbeddingDim:   16,
		SequenceLength: 500,
		HiddenUnits:    16,
	}
}

func (c NetworkConfig) validate() error {
	if c.VocabSize <= 0 || c.EmbeddingDim <= 0 || c.SequenceLength <= 0 || c.HiddenUnits <= 0 {
		return fmt.Errorf("invalid network config %+v", c)
	}
	return nil
}

// network holds the trainable parameters.
type network struct {
	cfg NetworkConfig

	embedding *mat.Dense    // VocabSize x EmbeddingDim
	w1        *mat.Dense    // EmbeddingDim x HiddenUnits
	b1        *mat.VecDense // HiddenUnits
	w2        *mat.Dense    // HiddenUnits x 1
	b2        *mat.VecDense // 1
}

// activations keeps the forward pass values needed by backward.
type activations struct {
	batch  [][]int
	pooled *mat.Dense // B x D
	z1     *mat.Dense // B x H
	h      *mat.Dense // B x H
	out    []float64  // B sigmoid outputs
}

// gradients mirrors the parameter layout of network.
type gradients struct {
	embedding *mat.Dense
	w1        *mat.Dense
	b1        *mat.VecDense
	w2        *mat.Dense
	b2        *mat.VecDense
}

func newNetwork(cfg NetworkConfig, seed uint64) (*network, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	src := rand.NewSource(seed)

	n := &network{
		cfg:       cfg,
		embedding: mat.NewDense(cfg.VocabSize, cfg.EmbeddingDim, nil),
		w1:        mat.NewDense(cfg.EmbeddingDim, cfg.HiddenUnits, nil),
		b1:        mat.NewVecDense(cfg.HiddenUnits, nil),
		w2:        mat.NewDense(cfg.HiddenUnits, 1, nil),
		b2:        mat.NewVecDense(1, nil),
	}

	fillUniform(n.embedding.RawMatrix().Data, 0.05, src)
	fillUniform(n.w1.RawMatrix().Data, glorotLimit(cfg.EmbeddingDim, cfg.HiddenUnits), src)
	fillUniform(n.w2.RawMatrix().Data, glorotLimit(cfg.HiddenUnits, 1), src)
	return n, nil
}

func glorotLimit(fanIn, fanOut int) float64 {
	return math.Sqrt(6 / float64(fanIn+fanOut))
}

func fillUniform(data []float64, limit float64, src rand.Source) {
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	for i := range data {
		data[i] = dist.Rand()
	}
}

// checkBatch reports the first sequence whose length differs from the
// configured sequence length, or the first id outside the embedding table.
func (n *network) checkBatch(batch [][]int) error {
	for b, seq := range batch {
		if len(seq) != n.cfg.SequenceLength {
			return fmt.Errorf("sequence %d has length %d, want %d", b, len(seq), n.cfg.SequenceLength)
		}
		for t, id := range seq {
			if id < 0 || id >= n.cfg.VocabSize {
				return fmt.Errorf("sequence %d position %d: id %d outside vocabulary of %d", b, t, id, n.cfg.VocabSize)
			}
		}
	}
	return nil
}

// forward runs the batch through the network. Ids must already be valid.
func (n *network) forward(batch [][]int) *activations {
	bs := len(batch)
	d, h := n.cfg.EmbeddingDim, n.cfg.HiddenUnits

	// Padding positions count towards the average.
	pooled := mat.NewDense(bs, d, nil)
	for b, seq := range batch {
		if len(seq) == 0 {
			continue
		}
		row := pooled.RawRowView(b)
		for _, id := range seq {
			floats.Add(row, n.embedding.RawRowView(id))
		}
		floats.Scale(1/float64(len(seq)), row)
	}

	z1 := mat.NewDense(bs, h, nil)
	z1.Mul(pooled, n.w1)
	bias1 := n.b1.RawVector().Data
	for b := 0; b < bs; b++ {
		floats.Add(z1.RawRowView(b), bias1)
	}

	hidden := mat.NewDense(bs, h, nil)
	hidden.Apply(func(_, _ int, v float64) float64 {
		return math.Max(0, v)
	}, z1)

	z2 := mat.NewDense(bs, 1, nil)
	z2.Mul(hidden, n.w2)
	out := make([]float64, bs)
	for b := 0; b < bs; b++ {
		out[b] = sigmoid(z2.At(b, 0) + n.b2.AtVec(0))
	}

	return &activations{batch: batch, pooled: pooled, z1: z1, h: hidden, out: out}
}

// backward returns the gradients of mean binary cross-entropy for labels.
func (n *network) backward(act *activations, labels []float64) *gradients {
	bs := len(act.out)
	d, h := n.cfg.EmbeddingDim, n.cfg.HiddenUnits

	dz2 := mat.NewDense(bs, 1, nil)
	for b := 0; b < bs; b++ {
		dz2.Set(b, 0, (act.out[b]-labels[b])/float64(bs))
	}

	g := &gradients{
		embedding: mat.NewDense(n.cfg.VocabSize, d, nil),
		w1:        mat.NewDense(d, h, nil),
		b1:        mat.NewVecDense(h, nil),
		w2:        mat.NewDense(h, 1, nil),
		b2:        mat.NewVecDense(1, nil),
	}

	g.w2.Mul(act.h.T(), dz2)
	g.b2.SetVec(0, floats.Sum(dz2.RawMatrix().Data))

	dz1 := mat.NewDense(bs, h, nil)
	dz1.Mul(dz2, n.w2.T())
	dz1.Apply(func(i, j int, v float64) float64 {
		if act.z1.At(i, j) > 0 {
			return v
		}
		return 0
	}, dz1)

	g.w1.Mul(act.pooled.T(), dz1)
	db1 := g.b1.RawVector().Data
	for b := 0; b < bs; b++ {
		floats.Add(db1, dz1.RawRowView(b))
	}

	dpooled := mat.NewDense(bs, d, nil)
	dpooled.Mul(dz1, n.w1.T())
	scratch := make([]float64, d)
	for b, seq := range act.batch {
		if len(seq) == 0 {
			continue
		}
		copy(scratch, dpooled.RawRowView(b))
		floats.Scale(1/float64(len(seq)), scratch)
		for _, id := range seq {
			floats.Add(g.embedding.RawRowView(id), scratch)
		}
	}
	return g
}

// params returns the raw parameter buffers in a fixed order.
func (n *network) params() [][]float64 {
	return [][]float64{
		n.embedding.RawMatrix().Data,
		n.w1.RawMatrix().Data,
		n.b1.RawVector().Data,
		n.w2.RawMatrix().Data,
		n.b2.RawVector().Data,
	}
}

func (g *gradients) buffers() [][]float64 {
	return [][]float64{
		g.embedding.RawMatrix().Data,
		g.w1.RawMatrix().Data,
		g.b1.RawVector().Data,
		g.w2.RawMatrix().Data,
		g.b2.RawVector().Data,
	}
}

// paramCounts returns the number of weights per layer, in layer order.
func (n *network) paramCounts() []int {
	c := n.cfg
	return []int{
		c.VocabSize * c.EmbeddingDim,
		0,
		c.EmbeddingDim*c.HiddenUnits + c.HiddenUnits,
		c.HiddenUnits + 1,
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

const lossEpsilon = 1e-7

// binaryCrossEntropy returns the mean loss and the number of correct
// predictions at the 0.5 cut.
func binaryCrossEntropy(probs, labels []float64) (float64, int) {
	loss := 0.0
	correct := 0
	for i, p := range probs {
		p = math.Min(math.Max(p, lossEpsilon), 1-lossEpsilon)
		y := labels[i]
		loss -= y*math.Log(p) + (1-y)*math.Log(1-p)
		if (p > 0.5) == (y > 0.5) {
			correct++
		}
	}
	if len(probs) == 0 {
		return 0, 0
	}
	return loss / float64(len(probs)), correct
}
