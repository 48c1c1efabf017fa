package reviews

import (
	"reflect"
	"testing"
)

func TestEncodeUnknownWords(t *testing.T) {
	vocab := testVocabulary()

	enc := NewEncoder(vocab)
	got := enc.Encode([]string{"the", "film", "was", "unseen"})
	expected := []int{4, 5, 6, UnkIndex}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected: %v\nGot: %v", expected, got)
	}

	legacy := NewEncoder(vocab, UsingLegacyUnknown())
	got = legacy.Encode([]string{"unseen", "good"})
	expected = []int{PadIndex, 7}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Legacy mode should collide unknown words with <PAD>\nExpected: %v\nGot: %v", expected, got)
	}
}

func TestEncodeJoinsAndTokenizes(t *testing.T) {
	enc := NewEncoder(testVocabulary())
	got := enc.Encode([]string{"Good,", "GREAT!"})
	expected := []int{7, 8}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected: %v\nGot: %v", expected, got)
	}

	if text := enc.EncodeText("The film\twas  good"); !reflect.DeepEqual(text, []int{4, 5, 6, 7}) {
		t.Errorf("Expected EncodeText to split on whitespace, got %v", text)
	}
}

func TestEncodeVocabularyLimit(t *testing.T) {
	vocab := NewVocabulary(map[string]int{"common": 10, "rare": 20000})
	enc := NewEncoder(vocab, UsingVocabularyLimit(10000))

	got := enc.Encode([]string{"common", "rare"})
	expected := []int{10, UnkIndex}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected: %v\nGot: %v", expected, got)
	}
}

func TestPadLength(t *testing.T) {
	long := make([]int, 750)
	for i := range long {
		long[i] = i + 1
	}

	tests := []struct {
		desc string
		seq  []int
	}{
		{"empty", nil},
		{"shorter", []int{5, 6, 7}},
		{"equal", long[:500]},
		{"longer", long},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got := Pad(tt.seq, 500, PadIndex)
			if len(got) != 500 {
				t.Fatalf("Expected length 500, got %d", len(got))
			}
		})
	}
}

func TestPadContents(t *testing.T) {
	got := Pad([]int{5, 6, 7}, 6, 9)
	if expected := []int{5, 6, 7, 9, 9, 9}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected post padding %v, got %v", expected, got)
	}

	got = Pad([]int{1, 2, 3, 4, 5}, 3, 0)
	if expected := []int{3, 4, 5}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected truncation to keep the last ids %v, got %v", expected, got)
	}

	src := []int{1, 2}
	out := Pad(src, 2, 0)
	out[0] = 42
	if src[0] != 1 {
		t.Error("Pad must not alias its input")
	}
}

func TestSequence(t *testing.T) {
	enc := NewEncoder(testVocabulary(), UsingMaxLen(8))
	got := enc.Sequence("The film was good")
	expected := []int{4, 5, 6, 7, 0, 0, 0, 0}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected: %v\nGot: %v", expected, got)
	}
	if decoded := enc.Decode(got); decoded != "the film was good" {
		t.Errorf("Expected decoded text %q, got %q", "the film was good", decoded)
	}
}

func TestEncodeSentiment(t *testing.T) {
	tests := []struct {
		label    string
		expected int
	}{
		{"Positive", 1},
		{"POSITIVE", 1},
		{"positive", 1},
		{"negative", 0},
		{"", 0},
		{"positive ", 0},
	}
	for _, tt := range tests {
		if got := EncodeSentiment(tt.label); got != tt.expected {
			t.Errorf("EncodeSentiment(%q): expected %d, got %d", tt.label, tt.expected, got)
		}
	}
}

func TestNewEncoderFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLen = 5
	cfg.LegacyUnknownIndex = true

	enc := NewEncoderFromConfig(testVocabulary(), cfg)
	if enc.MaxLen() != 5 {
		t.Errorf("Expected max length 5, got %d", enc.MaxLen())
	}
	got := enc.Sequence("good nonsense")
	if expected := []int{7, PadIndex, PadIndex, PadIndex, PadIndex}; !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected: %v\nGot: %v", expected, got)
	}
}
