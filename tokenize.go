package reviews

import (
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
)

// Tokenizer splits text into word tokens.
type Tokenizer interface {
	Tokenize(string) []string
}

// wordTokenizer lowercases text, blanks out filter characters and splits on
// spaces, dropping empty tokens.
type wordTokenizer struct {
	filters   string
	lower     bool
	sanitizer *strings.Replacer
	stopLang  string
	blanker   *strings.Replacer
}

type TokenizerOptFunc func(*wordTokenizer)

// UsingFilters replaces the set of characters treated as separators.
func UsingFilters(x string) TokenizerOptFunc {
	return func(tokenizer *wordTokenizer) {
		tokenizer.filters = x
	}
}

// UsingLowercase can enable (the default) or disable lowercasing.
func UsingLowercase(x bool) TokenizerOptFunc {
	return func(tokenizer *wordTokenizer) {
		tokenizer.lower = x
	}
}

// UsingStopWords drops the stop words of the given language after splitting.
// Negations ("not", "never", "don't", ...) and words containing digits are
// always kept, even though the stop-word lists include or strip them, since
// both carry sentiment ("not good", "10/10").
func UsingStopWords(lang Language) TokenizerOptFunc {
	return func(tokenizer *wordTokenizer) {
		tokenizer.stopLang = string(lang)
	}
}

// Use the provided sanitizer.
func UsingSanitizer(x *strings.Replacer) TokenizerOptFunc {
	return func(tokenizer *wordTokenizer) {
		tokenizer.sanitizer = x
	}
}

// NewWordTokenizer returns the default word-sequence tokenizer.
func NewWordTokenizer(opts ...TokenizerOptFunc) Tokenizer {
	tok := &wordTokenizer{
		filters:   defaultFilters,
		lower:     true,
		sanitizer: sanitizer,
	}
	for _, applyOpt := range opts {
		applyOpt(tok)
	}

	pairs := make([]string, 0, 2*len(tok.filters))
	for _, r := range tok.filters {
		pairs = append(pairs, string(r), " ")
	}
	tok.blanker = strings.NewReplacer(pairs...)
	return tok
}

// Tokenize splits text into a slice of words.
func (t *wordTokenizer) Tokenize(text string) []string {
	if t.sanitizer != nil {
		text = t.sanitizer.Replace(text)
	}
	if t.lower {
		text = strings.ToLower(text)
	}
	text = t.blanker.Replace(text)

	var words []string
	for _, w := range strings.Split(text, " ") {
		if w != "" && !t.isStopWord(w) {
			words = append(words, w)
		}
	}
	return words
}

func (t *wordTokenizer) isStopWord(word string) bool {
	if t.stopLang == "" {
		return false
	}
	lower := strings.ToLower(word)
	if negations[t.stopLang][lower] || strings.HasSuffix(lower, "n't") {
		return false
	}
	if strings.IndexFunc(word, unicode.IsDigit) >= 0 {
		return false
	}
	return strings.TrimSpace(stopwords.CleanString(word, t.stopLang, false)) == ""
}

// negations lists the sentiment-bearing words the stop-word lists drop.
var negations = map[string]map[string]bool{
	string(English): {"not": true, "no": true, "nor": true, "never": true, "none": true,
		"nothing": true, "nobody": true, "neither": true, "nowhere": true, "cannot": true},
	string(Spanish): {"no": true, "ni": true, "nunca": true, "nada": true, "nadie": true, "tampoco": true},
	string(French):  {"ne": true, "pas": true, "non": true, "jamais": true, "rien": true, "personne": true},
	string(German):  {"nicht": true, "kein": true, "keine": true, "keinen": true, "nie": true, "nichts": true},
}

var defaultFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

var sanitizer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
	"&rsquo;", "'")
