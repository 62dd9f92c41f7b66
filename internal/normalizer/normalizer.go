// Package normalizer turns raw message text into the normalized form used
// for lexical indexing, write-dedup, and temporal-filtered recall. It is a
// pure function over its inputs plus an injected Lemmatizer capability, per
// DESIGN NOTES §9's "dynamic dispatch on Normalizer" guidance.
package normalizer

import (
	"strings"
	"time"
	"unicode"
)

// Lemmatizer is the pluggable capability spec.md §4.4 calls out for Turkish
// lemmatization. English text falls through lowercased without consulting
// it. A nil Lemmatizer is valid and means "lowercase only".
type Lemmatizer interface {
	Lemmatize(token string) string
}

// TemporalRef is an absolute time range recovered from a recognized phrase.
type TemporalRef struct {
	Phrase string
	Start  time.Time
	End    time.Time
}

// Normalized is the full output of normalizing one piece of text.
type Normalized struct {
	Text          string // lowercased, trimmed original
	Folded        string // ASCII-folded + lemmatized + stopword-pruned, joined
	Tokens        []string
	LanguageGuess string // "tr" | "en"
	TemporalRefs  []TemporalRef
}

// Normalizer normalizes raw text given a stopword set and lemmatizer.
type Normalizer struct {
	Stopwords  map[string]bool
	Lemmatizer Lemmatizer
	Now        func() time.Time // overridable for tests
}

// New builds a Normalizer with the default English+Turkish stopword set.
func New(lem Lemmatizer) *Normalizer {
	return &Normalizer{
		Stopwords:  defaultStopwords(),
		Lemmatizer: lem,
		Now:        time.Now,
	}
}

// asciiFold maps the Turkish diacritics spec.md §4.4 names (plus their
// uppercase variants) onto their ASCII equivalents.
var asciiFoldMap = map[rune]rune{
	'ç': 'c', 'Ç': 'c',
	'ğ': 'g', 'Ğ': 'g',
	'ı': 'i', 'I': 'i',
	'İ': 'i',
	'ö': 'o', 'Ö': 'o',
	'ş': 's', 'Ş': 's',
	'ü': 'u', 'Ü': 'u',
}

func asciiFold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := asciiFoldMap[r]; ok {
			b.WriteRune(folded)
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// guessLanguage is a crude heuristic: presence of Turkish-specific letters
// or Turkish stopwords tips it to "tr"; otherwise "en".
func guessLanguage(original string, tokens []string) string {
	for _, r := range original {
		switch r {
		case 'ç', 'Ç', 'ğ', 'Ğ', 'ı', 'İ', 'ö', 'Ö', 'ş', 'Ş', 'ü', 'Ü':
			return "tr"
		}
	}
	for _, t := range tokens {
		if turkishStopwords[t] {
			return "tr"
		}
	}
	return "en"
}

// Normalize implements the pure raw → Normalized transform.
func (n *Normalizer) Normalize(raw string) Normalized {
	trimmed := strings.TrimSpace(raw)
	lowered := strings.ToLower(trimmed)
	tokens := tokenize(lowered)
	lang := guessLanguage(trimmed, tokens)

	var kept []string
	for _, t := range tokens {
		folded := asciiFold(t)
		if n.Stopwords[folded] || n.Stopwords[t] {
			continue
		}
		if lang == "tr" && n.Lemmatizer != nil {
			folded = n.Lemmatizer.Lemmatize(folded)
		}
		kept = append(kept, folded)
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	refs := extractTemporalRefs(asciiFold(lowered), now())

	return Normalized{
		Text:          lowered,
		Folded:        strings.Join(kept, " "),
		Tokens:        kept,
		LanguageGuess: lang,
		TemporalRefs:  refs,
	}
}

func defaultStopwords() map[string]bool {
	words := map[string]bool{}
	for _, w := range []string{
		"the", "a", "an", "of", "to", "in", "on", "for", "and", "is", "are",
		"was", "were", "be", "been", "it", "this", "that", "with", "as", "at",
		"by", "or", "but", "not", "do", "does", "did", "so", "if", "than",
	} {
		words[w] = true
	}
	for k := range turkishStopwords {
		words[k] = true
	}
	return words
}

var turkishStopwords = map[string]bool{
	"bir": true, "bu": true, "su": true, "o": true, "ve": true, "ile": true,
	"de": true, "da": true, "ki": true, "mi": true, "gibi": true, "icin": true,
	"ama": true, "ya": true, "cok": true, "daha": true, "en": true,
}
