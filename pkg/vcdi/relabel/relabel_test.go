package relabel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyProducesDistinctKeysOfRequiredSize(t *testing.T) {
	k1, err := GenerateKey()
	require.NoError(t, err)
	assert.Len(t, k1, HMACKeySize)

	k2, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestRelabelIsDeterministicForSameKey(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	statements := []string{
		`_:c14n0 <http://example.org/p> _:c14n1 .`,
		`_:c14n1 <http://example.org/q> "value" .`,
	}

	relabeled1, labelMap1, err := Relabel(statements, key)
	require.NoError(t, err)
	relabeled2, labelMap2, err := Relabel(statements, key)
	require.NoError(t, err)

	assert.Equal(t, relabeled1, relabeled2)
	assert.Equal(t, labelMap1, labelMap2)
	assert.Len(t, labelMap1, 2)
}

func TestRelabelUsesConsistentLabelForRepeatedBlankNode(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	statements := []string{
		`_:c14n0 <http://example.org/p> "x" .`,
		`_:c14n0 <http://example.org/q> "y" .`,
	}

	relabeled, labelMap, err := Relabel(statements, key)
	require.NoError(t, err)
	require.Len(t, labelMap, 1)

	hmacLabel := labelMap["c14n0"]
	assert.Contains(t, relabeled[0], "_:"+hmacLabel)
	assert.Contains(t, relabeled[1], "_:"+hmacLabel)
}

func TestRelabelDifferentKeysProduceDifferentLabels(t *testing.T) {
	stmt := []string{`_:c14n0 <http://example.org/p> "x" .`}
	key1 := []byte("0123456789abcdef0123456789abcdef")
	key2 := []byte("fedcba9876543210fedcba9876543210")

	_, m1, err := Relabel(stmt, key1)
	require.NoError(t, err)
	_, m2, err := Relabel(stmt, key2)
	require.NoError(t, err)

	assert.NotEqual(t, m1["c14n0"], m2["c14n0"])
}

func TestApplyLabelMapRelabelsKnownNodes(t *testing.T) {
	labelMap := map[string]string{"c14n0": "uABC123"}
	statements := []string{`_:c14n0 <http://example.org/p> _:c14n1 .`}

	out := ApplyLabelMap(statements, labelMap)
	assert.Equal(t, `_:uABC123 <http://example.org/p> _:c14n1 .`, out[0])
}

func TestExtractLabelMapRecoversMapFromRelabeledPair(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	original := []string{
		`_:c14n0 <http://example.org/p> _:c14n1 .`,
		`_:c14n1 <http://example.org/q> "v" .`,
	}

	relabeled, wantMap, err := Relabel(original, key)
	require.NoError(t, err)

	gotMap, err := ExtractLabelMap(original, relabeled)
	require.NoError(t, err)
	assert.Equal(t, wantMap, gotMap)
}

func TestExtractLabelMapRejectsCountMismatch(t *testing.T) {
	_, err := ExtractLabelMap([]string{"a", "b"}, []string{"a"})
	assert.Error(t, err)
}

func TestExtractLabelMapRejectsInconsistentRelabeling(t *testing.T) {
	original := []string{
		`_:c14n0 <http://example.org/p> "x" .`,
		`_:c14n0 <http://example.org/q> "y" .`,
	}
	relabeled := []string{
		`_:uAAA <http://example.org/p> "x" .`,
		`_:uBBB <http://example.org/q> "y" .`,
	}
	_, err := ExtractLabelMap(original, relabeled)
	assert.Error(t, err)
}
