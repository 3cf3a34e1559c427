package textutil

import (
	"math"
	"reflect"
	"testing"
)

func TestSimilarityNil(t *testing.T) {
	var empty *Fingerprint
	if got := empty.Similarity(NewFingerprint("jazz history")); got != 0 {
		t.Fatalf("nil.Similarity = %v, want 0", got)
	}
	if fp := NewFingerprint("a an of to"); fp != nil {
		t.Fatalf("expected nil fingerprint for text without content words, got %+v", fp)
	}
}

func TestSimilarityResearchNotes(t *testing.T) {
	origins := `Jazz emerged in New Orleans at the start of the twentieth century,
		blending blues, ragtime, and brass band traditions in Congo Square.`
	bebop := `Bebop arrived in the 1940s with Charlie Parker and Dizzy Gillespie
		pushing fast tempos and complex harmony in Harlem clubs.`

	same := NewFingerprint(origins).Similarity(NewFingerprint(origins))
	if math.Abs(same-1) > 1e-9 {
		t.Errorf("identical notes similarity = %v, want ~1.0", same)
	}
	different := NewFingerprint(origins).Similarity(NewFingerprint(bebop))
	if different >= 0.5 {
		t.Errorf("distinct episode notes similarity = %v, should be < 0.5", different)
	}
	if sym := NewFingerprint(bebop).Similarity(NewFingerprint(origins)); math.Abs(sym-different) > 1e-12 {
		t.Errorf("similarity should be symmetric: %v vs %v", sym, different)
	}
}

func TestContentWords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello World", []string{"hello", "world"}},
		{"a to the quick fox", []string{"quick", "fox"}},
		{"Qubits, entanglement! 1940s?", []string{"qubits", "entanglement", "1940s"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := ContentWords(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ContentWords(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFingerprintTerms(t *testing.T) {
	var empty *Fingerprint
	if empty.Terms() != 0 {
		t.Fatal("nil fingerprint should have zero terms")
	}
	if got := NewFingerprint("qubit qubit gate gate gate").Terms(); got != 2 {
		t.Fatalf("Terms() = %d, want 2", got)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"History of Jazz: Ep 1": "history-of-jazz-ep-1",
		"  --Quantum__Computing-- ": "quantum-computing",
		"gen_4f2a":                 "gen-4f2a",
		"  ":                       "untitled",
		"日本":                       "untitled",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
