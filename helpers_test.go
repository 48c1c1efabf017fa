package reviews

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// testVocabulary returns a small vocabulary with a handful of sentiment words.
func testVocabulary() *Vocabulary {
	return NewVocabulary(map[string]int{
		"the":    4,
		"film":   5,
		"was":    6,
		"good":   7,
		"great":  8,
		"bad":    9,
		"awful":  10,
		"ending": 11,
		"it's":   12,
		"movie":  13,
	})
}

func smallNetworkConfig() NetworkConfig {
	return NetworkConfig{
		VocabSize:      20,
		EmbeddingDim:   4,
		SequenceLength: 12,
		HiddenUnits:    6,
	}
}

const testVocabCSV = `,Words,Indexes
0,the,4
1,film,5
2,was,6
3,good,7
4,great,8
5,bad,9
6,awful,10
7,ending,11
8,movie,13
`
