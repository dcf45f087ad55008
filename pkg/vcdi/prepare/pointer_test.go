package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetResolvesNestedObjectPath(t *testing.T) {
	doc := map[string]any{
		"credentialSubject": map[string]any{
			"name": "Alice",
		},
	}
	v, err := Get(doc, Pointer("/credentialSubject/name"))
	require.NoError(t, err)
	assert.Equal(t, "Alice", v)
}

func TestGetResolvesArrayIndex(t *testing.T) {
	doc := map[string]any{"type": []any{"VerifiableCredential", "ExampleCredential"}}
	v, err := Get(doc, Pointer("/type/1"))
	require.NoError(t, err)
	assert.Equal(t, "ExampleCredential", v)
}

func TestGetUnescapesTilde1AndTilde0(t *testing.T) {
	doc := map[string]any{"a/b": map[string]any{"c~d": "value"}}
	v, err := Get(doc, Pointer("/a~1b/c~0d"))
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestGetRejectsPointerWithoutLeadingSlash(t *testing.T) {
	_, err := Get(map[string]any{}, Pointer("no-leading-slash"))
	assert.Error(t, err)
}

func TestGetRejectsMissingKey(t *testing.T) {
	_, err := Get(map[string]any{"a": 1}, Pointer("/b"))
	assert.Error(t, err)
}

func TestGetRejectsOutOfRangeIndex(t *testing.T) {
	_, err := Get(map[string]any{"arr": []any{1, 2}}, Pointer("/arr/5"))
	assert.Error(t, err)
}

func TestGetEmptyPointerReturnsRoot(t *testing.T) {
	doc := map[string]any{"a": 1}
	v, err := Get(doc, Pointer(""))
	require.NoError(t, err)
	assert.Equal(t, doc, v)
}

func TestSelectJsonLdFragmentsKeepsContextIdTypeAndPointers(t *testing.T) {
	doc := map[string]any{
		"@context": []any{"https://www.w3.org/ns/credentials/v2"},
		"id":       "urn:uuid:1",
		"type":     []any{"VerifiableCredential"},
		"issuer":   "did:key:issuer",
		"credentialSubject": map[string]any{
			"id":   "did:key:subject",
			"name": "Alice",
			"age":  30,
		},
	}
	reduced, err := SelectJsonLdFragments(doc, []Pointer{"/credentialSubject/name"})
	require.NoError(t, err)

	assert.Equal(t, doc["@context"], reduced["@context"])
	assert.Equal(t, doc["id"], reduced["id"])
	assert.Equal(t, doc["type"], reduced["type"])

	subj, ok := reduced["credentialSubject"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alice", subj["name"])
	_, hasAge := subj["age"]
	assert.False(t, hasAge)
	_, hasIssuer := reduced["issuer"]
	assert.False(t, hasIssuer)
}

func TestSelectJsonLdFragmentsPropagatesGetError(t *testing.T) {
	doc := map[string]any{"a": 1}
	_, err := SelectJsonLdFragments(doc, []Pointer{"/missing"})
	assert.Error(t, err)
}

func TestRemoveJsonLdFragmentsDeletesNamedPaths(t *testing.T) {
	doc := map[string]any{
		"credentialSubject": map[string]any{
			"name":        "Alice",
			"description": "likes hiking",
		},
	}
	err := RemoveJsonLdFragments(doc, []Pointer{"/credentialSubject/description"})
	require.NoError(t, err)

	subj := doc["credentialSubject"].(map[string]any)
	assert.Equal(t, "Alice", subj["name"])
	_, has := subj["description"]
	assert.False(t, has)
}

func TestRemoveJsonLdFragmentsIgnoresAbsentPaths(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1}}
	err := RemoveJsonLdFragments(doc, []Pointer{"/a/missing", "/never/there"})
	require.NoError(t, err)
	assert.Equal(t, 1, doc["a"].(map[string]any)["b"])
}

func TestRemoveJsonLdFragmentsRejectsRootPointer(t *testing.T) {
	err := RemoveJsonLdFragments(map[string]any{"a": 1}, []Pointer{""})
	assert.Error(t, err)
}
