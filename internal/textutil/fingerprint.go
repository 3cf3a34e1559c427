package textutil

import (
	"math"
	"strings"
	"unicode"
)

// stopwords are dropped before comparing research notes; they dominate term
// counts without saying anything about the subject.
var stopwords = map[string]struct{}{
	"and": {}, "are": {}, "but": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"into": {}, "its": {}, "not": {}, "that": {}, "the": {}, "their": {}, "this": {},
	"was": {}, "were": {}, "which": {}, "with": {},
}

// Fingerprint is a term-frequency vector over the content words of a text.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from text. It returns nil when text has
// no content words.
func NewFingerprint(text string) *Fingerprint {
	words := ContentWords(text)
	if len(words) == 0 {
		return nil
	}
	fp := &Fingerprint{terms: make(map[string]float64, len(words))}
	for _, w := range words {
		fp.terms[w]++
	}
	var sum float64
	for _, n := range fp.terms {
		sum += n * n
	}
	fp.norm = math.Sqrt(sum)
	return fp
}

// ContentWords lowercases text and returns its words of three or more letters
// or digits, minus common stopwords.
func ContentWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		words = append(words, f)
	}
	return words
}

// Terms reports how many distinct content words the fingerprint holds.
func (f *Fingerprint) Terms() int {
	if f == nil {
		return 0
	}
	return len(f.terms)
}

// Similarity returns the cosine similarity of f and other in [0, 1]. Nil
// fingerprints compare as 0.
func (f *Fingerprint) Similarity(other *Fingerprint) float64 {
	if f == nil || other == nil || f.norm == 0 || other.norm == 0 {
		return 0
	}
	small, large := f, other
	if len(small.terms) > len(large.terms) {
		small, large = large, small
	}
	var dot float64
	for term, n := range small.terms {
		dot += n * large.terms[term]
	}
	return dot / (f.norm * other.norm)
}
