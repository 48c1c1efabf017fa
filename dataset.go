package reviews

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/rand"
)

// Dataset holds aligned encoded reviews and binary labels.
type Dataset struct {
	Features [][]int
	Labels   []float64
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// LoadLabeled reads a CSV with Reviews and Sentiment columns, encodes each
// review to a padded sequence and each sentiment to 0 or 1.
func LoadLabeled(path string, enc *Encoder) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, resourceErr(path, "open", err)
	}
	defer file.Close()

	ds, err := readLabeled(file, enc)
	if err != nil {
		return nil, resourceErr(path, "read dataset", err)
	}
	return ds, nil
}

func readLabeled(r io.Reader, enc *Encoder) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}
	cols, err := columnIndexes(header, "Reviews", "Sentiment")
	if err != nil {
		return nil, err
	}
	reviewCol, sentimentCol := cols[0], cols[1]

	ds := &Dataset{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) <= reviewCol || len(record) <= sentimentCol {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, maxInt(reviewCol, sentimentCol)+1, len(record))
		}
		ds.Features = append(ds.Features, enc.Sequence(record[reviewCol]))
		ds.Labels = append(ds.Labels, float64(EncodeSentiment(record[sentimentCol])))
	}
	if ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	return ds, nil
}

// Subset returns the examples at the given positions, in order.
func (d *Dataset) Subset(idx []int) *Dataset {
	out := &Dataset{
		Features: make([][]int, len(idx)),
		Labels:   make([]float64, len(idx)),
	}
	for i, j := range idx {
		out.Features[i] = d.Features[j]
		out.Labels[i] = d.Labels[j]
	}
	return out
}

// Batches splits the dataset into consecutive chunks of at most size
// examples. The chunks share the dataset's rows.
func (d *Dataset) Batches(size int) []*Dataset {
	if size <= 0 {
		size = d.Len()
	}
	var out []*Dataset
	for start := 0; start < d.Len(); start += size {
		end := start + size
		if end > d.Len() {
			end = d.Len()
		}
		out = append(out, &Dataset{Features: d.Features[start:end], Labels: d.Labels[start:end]})
	}
	return out
}

// Split shuffles a copy of the dataset with seed and returns the first
// ratio share as train and the rest as test.
func (d *Dataset) Split(ratio float64, seed uint64) (*Dataset, *Dataset) {
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.8
	}
	perm := rand.New(rand.NewSource(seed)).Perm(d.Len())
	cut := int(ratio * float64(d.Len()))
	return d.Subset(perm[:cut]), d.Subset(perm[cut:])
}
