// signature/signature_test.go
package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSimilarIdenticalBodies tests that a signature matches itself.
func TestSimilarIdenticalBodies(t *testing.T) {
	body := []byte("<html><body>Page not found</body></html>")

	a := New(body)
	b := New(body)

	assert.Zero(t, a.Distance(b), "Identical bodies should have zero distance")
	assert.True(t, a.Similar(b), "Identical bodies should be similar")
}

// TestSimilarIsSymmetric tests that similarity does not depend on operand order.
func TestSimilarIsSymmetric(t *testing.T) {
	a := New([]byte("File not found: /foo/bar please check the URL"))
	b := New([]byte("File not found: /foo/baz please check the URL"))

	assert.Equal(t, a.Similar(b), b.Similar(a), "Similar should be symmetric")
}

// TestSimilarDissimilarBodies tests that unrelated bodies are not similar.
func TestSimilarDissimilarBodies(t *testing.T) {
	a := New([]byte("The page you requested could not be found on this server"))
	b := New([]byte("Welcome to the administration dashboard, choose an action below"))

	assert.False(t, a.Similar(b), "Unrelated bodies should not be similar")
}

// TestRefineIdempotent tests that refining twice with the same body changes nothing.
func TestRefineIdempotent(t *testing.T) {
	base := []byte("Not found: request id 12345 at /some/path")
	sample := []byte("Not found: request id 99999 at /other/path")

	once := New(base).Refine(sample)
	twice := New(base).Refine(sample).Refine(sample)

	assert.Zero(t, once.Distance(twice), "Refine should be idempotent")
}

// TestRefineDropsVolatileTokens tests that refinement keeps only the stable fragments.
func TestRefineDropsVolatileTokens(t *testing.T) {
	sig := New([]byte("Error 404 token aaa111")).Refine([]byte("Error 404 token bbb222"))

	assert.True(t, sig.Similar(sig.Refine([]byte("Error 404 token ccc333"))),
		"A body matching the stable fragments should classify as similar")
	assert.False(t, sig.Empty())
}

// TestRefinedSignatureMatchesNearbyBody tests the classification round trip: for bodies
// within the threshold, the original signature stays similar to its refinement.
func TestRefinedSignatureMatchesNearbyBody(t *testing.T) {
	a := []byte("soft 404 page served for missing resources, contact the admin team")
	b := []byte("soft 404 page served for missing resources, contact the admin crew")

	sig := New(a)
	assert.True(t, sig.Similar(sig.Refine(b)), "Nearby bodies should survive refinement as similar")
}

// TestWithThreshold tests that a custom threshold widens or narrows the match window.
func TestWithThreshold(t *testing.T) {
	a := New([]byte("one two three four five six seven eight nine ten"))
	b := New([]byte("one two three four five six seven eight nine changed"))

	strict := New([]byte("one two three four five six seven eight nine ten"), WithThreshold(0.01))

	assert.True(t, a.Similar(b), "10% difference should pass the default threshold")
	assert.False(t, strict.Similar(b), "The same difference should fail a 1% threshold")
}

// TestEmptySignature tests degenerate bodies.
func TestEmptySignature(t *testing.T) {
	empty := New(nil)

	assert.True(t, empty.Empty())
	assert.True(t, empty.Similar(New(nil)), "Two empty signatures should be similar")
}
