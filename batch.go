package reviews

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SupportedBatchFormats lists the extensions PredictFile accepts.
var SupportedBatchFormats = []string{".csv", ".txt"}

// BatchPredictor runs a Predictor over every review in a file.
type BatchPredictor struct {
	predictor *Predictor
}

// NewBatchPredictor wraps p.
func NewBatchPredictor(p *Predictor) *BatchPredictor {
	return &BatchPredictor{predictor: p}
}

// PredictFile predicts every review of a .csv (Reviews column) or .txt (one
// review per line) file, in file order. Any failure aborts the whole batch
// and no partial results are returned. Unreadable or malformed files are
// reported as *ResourceError; inference failures are wrapped as is.
func (b *BatchPredictor) PredictFile(path string) ([]Prediction, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var read func(io.Reader) ([]string, error)
	switch ext {
	case ".csv":
		read = readReviewColumn
	case ".txt":
		read = readLines
	default:
		return nil, &UnsupportedFormatError{Path: path, Ext: ext, Expected: SupportedBatchFormats}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, resourceErr(path, "open", err)
	}
	defer file.Close()

	texts, err := read(file)
	if err != nil {
		return nil, resourceErr(path, "read reviews", err)
	}

	preds := make([]Prediction, 0, len(texts))
	for i, text := range texts {
		pred, err := b.predictor.Predict(text)
		if err != nil {
			return nil, fmt.Errorf("predict review %d of %s: %w", i+1, path, err)
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func readReviewColumn(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}
	cols, err := columnIndexes(header, "Reviews")
	if err != nil {
		return nil, err
	}
	col := cols[0]

	var texts []string
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
		if len(record) <= col {
			return nil, fmt.Errorf("line %d: missing Reviews field", line)
		}
		texts = append(texts, record[col])
	}
	return texts, nil
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var texts []string
	for scanner.Scan() {
		texts = append(texts, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return texts, scanner.Err()
}

// WritePredictionsCSV writes preds as a text,probability,label table.
func WritePredictionsCSV(w io.Writer, preds []Prediction) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Reviews", "Probability", "Sentiment"}); err != nil {
		return err
	}
	for _, p := range preds {
		record := []string{p.Text, strconv.FormatFloat(p.Probability, 'f', 6, 64), p.Label()}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
