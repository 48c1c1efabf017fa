package reviews

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Vocabulary maps words to integer indexes. It is immutable once loaded.
type Vocabulary struct {
	index   map[string]int
	reverse map[int]string
}

// LoadVocabulary reads a CSV with Words and Indexes columns and adds the four
// reserved tokens, overwriting any rows that collide with them.
func LoadVocabulary(path string) (*Vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, resourceErr(path, "open", err)
	}
	defer file.Close()

	words, err := readVocabulary(file)
	if err != nil {
		return nil, resourceErr(path, "read vocabulary", err)
	}
	return NewVocabulary(words), nil
}

// NewVocabulary builds a Vocabulary from an in-memory mapping.
func NewVocabulary(words map[string]int) *Vocabulary {
	v := &Vocabulary{
		index:   make(map[string]int, len(words)+reservedCount),
		reverse: make(map[int]string, len(words)+reservedCount),
	}
	for w, i := range words {
		v.index[w] = i
	}
	v.index[PadToken] = PadIndex
	v.index[StartToken] = StartIndex
	v.index[UnkToken] = UnkIndex
	v.index[UnusedToken] = UnusedIndex

	for w, i := range v.index {
		// Reserved tokens win reverse lookups for their slots.
		if existing, ok := v.reverse[i]; ok && isReserved(existing) {
			continue
		}
		v.reverse[i] = w
	}
	return v
}

func readVocabulary(r io.Reader) (map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrMissingColumn)
	}
	if err != nil {
		return nil, err
	}
	cols, err := columnIndexes(header, "Words", "Indexes")
	if err != nil {
		return nil, err
	}
	wordCol, idxCol := cols[0], cols[1]

	words := make(map[string]int)
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
		if len(record) <= wordCol || len(record) <= idxCol {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, maxInt(wordCol, idxCol)+1, len(record))
		}
		idx, err := parseIndex(record[idxCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		words[record[wordCol]] = idx
	}
	return words, nil
}

// parseIndex accepts integers and integral floats such as "12.0".
func parseIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative index %d", n)
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return int(f), nil
}

// columnIndexes locates the named columns in a CSV header.
func columnIndexes(header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	out := make([]int, len(names))
	for i, name := range names {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		out[i] = p
	}
	return out, nil
}

// Index returns the index for word and whether it is present.
func (v *Vocabulary) Index(word string) (int, bool) {
	i, ok := v.index[word]
	return i, ok
}

// Word returns the word stored at index, if any.
func (v *Vocabulary) Word(index int) (string, bool) {
	w, ok := v.reverse[index]
	return w, ok
}

// Len returns the number of entries, reserved tokens included.
func (v *Vocabulary) Len() int {
	return len(v.index)
}

func isReserved(word string) bool {
	switch word {
	case PadToken, StartToken, UnkToken, UnusedToken:
		return true
	}
	return false
}

// maxInt returns the maximum of two integers
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
