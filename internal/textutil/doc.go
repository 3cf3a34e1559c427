// Package textutil provides text processing utilities shared by the content
// stages: word and sentence splitting, title casing, filename slugs, and
// term-frequency fingerprints for comparing research notes.
//
// Fingerprints keep lowercase words of three or more letters or digits and
// drop common stopwords before building a frequency vector.
package textutil
