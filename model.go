package reviews

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/mat"
)

// A Model is a trained sentiment network together with its held-out metrics.
type Model struct {
	Name      string
	RunID     string
	Loss      float64
	Accuracy  float64
	CreatedAt time.Time

	net *network
}

// NewModel creates an untrained model with weights initialised from seed.
func NewModel(cfg NetworkConfig, seed uint64) (*Model, error) {
	net, err := newNetwork(cfg, seed)
	if err != nil {
		return nil, err
	}
	return &Model{CreatedAt: time.Now().UTC(), net: net}, nil
}

// Config returns the model topology.
func (m *Model) Config() NetworkConfig {
	return m.net.cfg
}

// PredictProba returns the positive-class probability of every sequence.
func (m *Model) PredictProba(batch [][]int) ([]float64, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if err := m.net.checkBatch(batch); err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(batch))
	for start := 0; start < len(batch); start += evalBatchSize {
		end := start + evalBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		out = append(out, m.net.forward(batch[start:end]).out...)
	}
	return out, nil
}

const evalBatchSize = 512

// Evaluate returns binary cross-entropy and accuracy over ds.
func (m *Model) Evaluate(ds *Dataset) (float64, float64, error) {
	if ds == nil || ds.Len() == 0 {
		return 0, 0, ErrEmptyDataset
	}
	probs, err := m.PredictProba(ds.Features)
	if err != nil {
		return 0, 0, err
	}
	loss, correct := binaryCrossEntropy(probs, ds.Labels)
	return loss, float64(correct) / float64(ds.Len()), nil
}

// Summary writes a per-layer table with parameter counts, then accuracy and loss.
func (m *Model) Summary(w io.Writer) error {
	c := m.net.cfg
	counts := m.net.paramCounts()
	layers := []struct {
		name, kind, shape string
	}{
		{"embedding", "Embedding", fmt.Sprintf("(None, %d, %d)", c.SequenceLength, c.EmbeddingDim)},
		{"global_average_pooling1d", "GlobalAveragePooling1D", fmt.Sprintf("(None, %d)", c.EmbeddingDim)},
		{"dense", "Dense", fmt.Sprintf("(None, %d)", c.HiddenUnits)},
		{"dense_1", "Dense", "(None, 1)"},
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Model: %q\n", m.Name)
	fmt.Fprintln(tw, "Layer (type)\tOutput Shape\tParam #")
	total := 0
	for i, l := range layers {
		fmt.Fprintf(tw, "%s (%s)\t%s\t%d\n", l.name, l.kind, l.shape, counts[i])
		total += counts[i]
	}
	fmt.Fprintf(tw, "Total params: %d\n", total)
	fmt.Fprintf(tw, "Accuracy %.4f%%\n", m.Accuracy*100)
	fmt.Fprintf(tw, "Loss: %.6f\n", m.Loss)
	return tw.Flush()
}

type modelMetadata struct {
	Name      string
	RunID     string
	Loss      float64
	Accuracy  float64
	CreatedAt time.Time
}

type denseLayer struct {
	Weights []byte
	Bias    []byte
}

// Write saves a Model to the user-provided location.
func (m *Model) Write(path string) error {
	if m.net == nil {
		return errors.New("model has no weights")
	}
	netPath := filepath.Join(path, "Network")
	if err := os.MkdirAll(netPath, os.ModePerm); err != nil {
		return err
	}

	emb, err := m.net.embedding.MarshalBinary()
	if err != nil {
		return err
	}
	hidden, err := marshalDense(m.net.w1, m.net.b1)
	if err != nil {
		return err
	}
	output, err := marshalDense(m.net.w2, m.net.b2)
	if err != nil {
		return err
	}

	files := []struct {
		name string
		v    any
	}{
		{filepath.Join(netPath, "config.gob"), m.net.cfg},
		{filepath.Join(netPath, "embedding.gob"), emb},
		{filepath.Join(netPath, "dense.gob"), hidden},
		{filepath.Join(netPath, "dense_1.gob"), output},
		{filepath.Join(path, "metadata.gob"), modelMetadata{
			Name:      m.Name,
			RunID:     m.RunID,
			Loss:      m.Loss,
			Accuracy:  m.Accuracy,
			CreatedAt: m.CreatedAt,
		}},
	}
	for _, f := range files {
		if err := writeGob(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

// ModelFromDisk loads a Model from the user-provided location. Failures are
// logged at FATAL and returned as a *ModelLoadError; there is no fallback.
func ModelFromDisk(path string, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = defaultLogger()
	}
	model, err := ModelFromFS(filepath.Base(path), os.DirFS(path))
	if err != nil {
		loadErr := &ModelLoadError{Path: path, Err: err}
		logFatal(logger, "failed to load model", "path", path, "err", err)
		return nil, loadErr
	}
	return model, nil
}

// ModelFromFS loads a model stored at the root of filesys.
func ModelFromFS(name string, filesys fs.FS) (*Model, error) {
	netFS, err := fs.Sub(filesys, "Network")
	if err != nil {
		return nil, err
	}

	var cfg NetworkConfig
	if err := readGob(netFS, "config.gob", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var emb []byte
	var hidden, output denseLayer
	if err := readGob(netFS, "embedding.gob", &emb); err != nil {
		return nil, err
	}
	if err := readGob(netFS, "dense.gob", &hidden); err != nil {
		return nil, err
	}
	if err := readGob(netFS, "dense_1.gob", &output); err != nil {
		return nil, err
	}

	net := &network{cfg: cfg}
	net.embedding = &mat.Dense{}
	if err := net.embedding.UnmarshalBinary(emb); err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	if net.w1, net.b1, err = unmarshalDense(hidden); err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	if net.w2, net.b2, err = unmarshalDense(output); err != nil {
		return nil, fmt.Errorf("dense_1: %w", err)
	}
	if err := net.checkShapes(); err != nil {
		return nil, err
	}

	model := &Model{Name: name, net: net}
	var meta modelMetadata
	err = readGob(filesys, "metadata.gob", &meta)
	switch {
	case err == nil:
		model.RunID = meta.RunID
		model.Loss = meta.Loss
		model.Accuracy = meta.Accuracy
		model.CreatedAt = meta.CreatedAt
		if meta.Name != "" {
			model.Name = meta.Name
		}
	case errors.Is(err, fs.ErrNotExist):
		// Weights without metadata are still usable.
	default:
		return nil, err
	}
	return model, nil
}

func (n *network) checkShapes() error {
	c := n.cfg
	check := func(name string, m mat.Matrix, r, cols int) error {
		gr, gc := m.Dims()
		if gr != r || gc != cols {
			return fmt.Errorf("%s has shape %dx%d, want %dx%d", name, gr, gc, r, cols)
		}
		return nil
	}
	if err := check("embedding", n.embedding, c.VocabSize, c.EmbeddingDim); err != nil {
		return err
	}
	if err := check("dense kernel", n.w1, c.EmbeddingDim, c.HiddenUnits); err != nil {
		return err
	}
	if err := check("dense bias", n.b1, c.HiddenUnits, 1); err != nil {
		return err
	}
	if err := check("dense_1 kernel", n.w2, c.HiddenUnits, 1); err != nil {
		return err
	}
	return check("dense_1 bias", n.b2, 1, 1)
}

func marshalDense(w *mat.Dense, b *mat.VecDense) (denseLayer, error) {
	wb, err := w.MarshalBinary()
	if err != nil {
		return denseLayer{}, err
	}
	bb, err := b.MarshalBinary()
	if err != nil {
		return denseLayer{}, err
	}
	return denseLayer{Weights: wb, Bias: bb}, nil
}

func unmarshalDense(l denseLayer) (*mat.Dense, *mat.VecDense, error) {
	w := &mat.Dense{}
	if err := w.UnmarshalBinary(l.Weights); err != nil {
		return nil, nil, err
	}
	b := &mat.VecDense{}
	if err := b.UnmarshalBinary(l.Bias); err != nil {
		return nil, nil, err
	}
	return w, b, nil
}

func writeGob(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(file).Encode(v); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return file.Close()
}

func readGob(filesys fs.FS, name string, v any) error {
	file, err := filesys.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := gob.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
