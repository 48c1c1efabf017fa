package reviews

import "strings"

// Encoder turns review text into fixed-length index sequences.
type Encoder struct {
	vocab     *Vocabulary
	tokenizer Tokenizer
	maxLen    int
	limit     int
	unknown   int
}

// EncoderOptFunc configures an Encoder.
type EncoderOptFunc func(*Encoder)

// UsingTokenizer specifies the Tokenizer to use.
func UsingTokenizer(x Tokenizer) EncoderOptFunc {
	return func(e *Encoder) {
		e.tokenizer = x
	}
}

// UsingMaxLen sets the sequence length produced by Sequence.
func UsingMaxLen(n int) EncoderOptFunc {
	return func(e *Encoder) {
		e.maxLen = n
	}
}

// UsingVocabularyLimit maps every index >= n to the unknown index so all ids
// fit an embedding table of n rows. Zero disables the limit.
func UsingVocabularyLimit(n int) EncoderOptFunc {
	return func(e *Encoder) {
		e.limit = n
	}
}

// UsingLegacyUnknown maps unknown words to <PAD> (0) rather than <UNK> (2),
// which makes them indistinguishable from padding.
func UsingLegacyUnknown() EncoderOptFunc {
	return func(e *Encoder) {
		e.unknown = PadIndex
	}
}

// NewEncoder creates an Encoder over vocab.
func NewEncoder(vocab *Vocabulary, opts ...EncoderOptFunc) *Encoder {
	e := &Encoder{
		vocab:   vocab,
		maxLen:  DefaultConfig().MaxLen,
		unknown: UnkIndex,
	}
	for _, applyOpt := range opts {
		applyOpt(e)
	}
	if e.tokenizer == nil {
		e.tokenizer = NewWordTokenizer()
	}
	return e
}

// NewEncoderFromConfig creates an Encoder using the length, vocabulary size,
// unknown-word policy and stop-word settings of cfg.
func NewEncoderFromConfig(vocab *Vocabulary, cfg Config) *Encoder {
	var tokOpts []TokenizerOptFunc
	if cfg.StopWords != "" {
		tokOpts = append(tokOpts, UsingStopWords(Language(cfg.StopWords)))
	}
	opts := []EncoderOptFunc{
		UsingMaxLen(cfg.MaxLen),
		UsingVocabularyLimit(cfg.VocabSize),
		UsingTokenizer(NewWordTokenizer(tokOpts...)),
	}
	if cfg.LegacyUnknownIndex {
		opts = append(opts, UsingLegacyUnknown())
	}
	return NewEncoder(vocab, opts...)
}

// MaxLen returns the length of sequences produced by Sequence.
func (e *Encoder) MaxLen() int {
	return e.maxLen
}

// Encode joins words with spaces, tokenizes the result and maps each token to
// its vocabulary index.
func (e *Encoder) Encode(words []string) []int {
	tokens := e.tokenizer.Tokenize(strings.Join(words, " "))
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = e.lookup(tok)
	}
	return ids
}

// EncodeText splits text on whitespace and encodes the words.
func (e *Encoder) EncodeText(text string) []int {
	return e.Encode(strings.Fields(text))
}

// Sequence encodes text and pads it to MaxLen with <PAD>.
func (e *Encoder) Sequence(text string) []int {
	return Pad(e.EncodeText(text), e.maxLen, PadIndex)
}

// Decode renders a sequence back to words, skipping padding.
func (e *Encoder) Decode(seq []int) string {
	words := make([]string, 0, len(seq))
	for _, id := range seq {
		if id == PadIndex {
			continue
		}
		w, ok := e.vocab.Word(id)
		if !ok {
			w = "?"
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func (e *Encoder) lookup(tok string) int {
	id, ok := e.vocab.Index(tok)
	if !ok {
		return e.unknown
	}
	if e.limit > 0 && id >= e.limit {
		return e.unknown
	}
	return id
}

// Pad returns a copy of seq of exactly length n. Short sequences are padded
// at the end with value; long ones keep their last n entries.
func Pad(seq []int, n int, value int) []int {
	if n <= 0 {
		return []int{}
	}
	out := make([]int, n)
	if len(seq) >= n {
		copy(out, seq[len(seq)-n:])
		return out
	}
	copy(out, seq)
	for i := len(seq); i < n; i++ {
		out[i] = value
	}
	return out
}

// EncodeSentiment returns 1 for "positive" (any case) and 0 for anything else.
func EncodeSentiment(label string) int {
	if strings.ToLower(label) == "positive" {
		return 1
	}
	return 0
}
