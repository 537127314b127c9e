// signature/signature.go

/* The signature package provides refinable fingerprints of HTTP response bodies. A
Signature reduces a body to its word tokens; Refine intersects a signature with further
sample bodies, keeping only the tokens every sample has in common. Similar compares two
signatures by relative token-sequence distance, so bodies that differ only in volatile
fragments (timestamps, echoed paths, ids) still classify as the same page. */
package signature

import (
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the maximum relative distance at which two signatures are still
// considered similar.
const DefaultThreshold = 0.1

// Signature is an opaque fingerprint of a response body.
type Signature struct {
	tokens    []string
	threshold float64
}

// Option customizes signature construction.
type Option func(*Signature)

// WithThreshold overrides the similarity distance threshold.
func WithThreshold(threshold float64) Option {
	return func(s *Signature) {
		s.threshold = threshold
	}
}

// New derives a Signature from body.
func New(body []byte, opts ...Option) *Signature {
	s := &Signature{
		tokens:    tokenize(body),
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refine returns a new Signature containing only the tokens the receiver has in common
// with body, preserving the receiver's token order and threshold. Refining repeatedly
// with similar bodies is idempotent.
func (s *Signature) Refine(body []byte) *Signature {
	other := make(map[string]struct{})
	for _, token := range tokenize(body) {
		other[token] = struct{}{}
	}

	common := make([]string, 0, len(s.tokens))
	for _, token := range s.tokens {
		if _, ok := other[token]; ok {
			common = append(common, token)
		}
	}

	return &Signature{
		tokens:    common,
		threshold: s.threshold,
	}
}

// Distance returns the relative difference between the two signatures' token sequences,
// in the range [0, 1]. Identical sequences yield 0.
func (s *Signature) Distance(other *Signature) float64 {
	return 1.0 - difflib.NewMatcher(s.tokens, other.tokens).Ratio()
}

// Similar reports whether other is within the receiver's distance threshold.
func (s *Signature) Similar(other *Signature) bool {
	return s.Distance(other) <= s.threshold
}

// Empty reports whether the signature has no tokens left, i.e. refinement has eliminated
// every stable fragment of the sampled bodies.
func (s *Signature) Empty() bool {
	return len(s.tokens) == 0
}

// tokenize splits body into runs of alphanumeric bytes. Whitespace and punctuation act
// as separators and never contribute tokens themselves.
func tokenize(body []byte) []string {
	tokens := make([]string, 0, 64)
	start := -1
	for i, b := range body {
		if isWordByte(b) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, string(body[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, string(body[start:]))
	}
	return tokens
}

func isWordByte(b byte) bool {
	return b >= '0' && b <= '9' ||
		b >= 'a' && b <= 'z' ||
		b >= 'A' && b <= 'Z' ||
		b == '_' || b >= 0x80
}
