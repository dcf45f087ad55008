package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareWithKeySortsAndClassifies(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	statements := []string{
		`_:c14n0 <http://example.org/type> <http://example.org/Credential> .`,
		`_:c14n0 <http://example.org/name> "Bob" .`,
		`_:c14n0 <http://example.org/issuer> <http://example.org/issuer1> .`,
	}
	// Mandatory: the issuer statement (index 2 into the canonical order).
	prepared, err := PrepareWithKey(statements, []int{2}, key)
	require.NoError(t, err)

	assert.Len(t, prepared.SortedStatements, 3)
	assert.Len(t, prepared.MandatoryIndexes, 1)
	assert.Len(t, prepared.NonMandatoryIndexes, 2)

	// Union covers every sorted position exactly once.
	seen := make(map[int]bool)
	for _, i := range prepared.MandatoryIndexes {
		seen[i] = true
	}
	for _, i := range prepared.NonMandatoryIndexes {
		seen[i] = true
	}
	assert.Len(t, seen, 3)

	// SortedStatements is lexicographic.
	for i := 1; i < len(prepared.SortedStatements); i++ {
		assert.LessOrEqual(t, prepared.SortedStatements[i-1], prepared.SortedStatements[i])
	}
}

func TestPrepareWithMapAppliesExistingLabels(t *testing.T) {
	labelMap := map[string]string{"c14n0": "uXYZ"}
	statements := []string{
		`_:c14n0 <http://example.org/a> "1" .`,
		`_:c14n0 <http://example.org/b> "2" .`,
	}

	prepared := PrepareWithMap(statements, []int{0}, labelMap)
	assert.Len(t, prepared.SortedStatements, 2)
	for _, s := range prepared.SortedStatements {
		assert.Contains(t, s, "_:uXYZ")
	}
}

func TestPrepareDuplicateStatementStraddlingBoundaryIsMandatory(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	// The same statement text appears at a mandatory index and again at a
	// non-mandatory one; every occurrence of that text must end up mandatory.
	statements := []string{
		`<http://example.org/s> <http://example.org/p> "dup" .`,
		`<http://example.org/s> <http://example.org/p> "dup" .`,
		`<http://example.org/s> <http://example.org/other> "x" .`,
	}
	prepared, err := PrepareWithKey(statements, []int{0}, key)
	require.NoError(t, err)

	dupCount := 0
	for _, idx := range prepared.MandatoryIndexes {
		if prepared.SortedStatements[idx] == `<http://example.org/s> <http://example.org/p> "dup" .` {
			dupCount++
		}
	}
	assert.Equal(t, 2, dupCount)
}
