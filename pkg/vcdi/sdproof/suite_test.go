package sdproof

import (
	"testing"

	"vcdi/pkg/vcdi/prepare"

	"github.com/stretchr/testify/assert"
)

func TestHashStatementsIsDeterministicAndOrderSensitive(t *testing.T) {
	a := hashStatements([]string{"one", "two"})
	b := hashStatements([]string{"one", "two"})
	assert.Equal(t, a, b)

	c := hashStatements([]string{"two", "one"})
	assert.NotEqual(t, a, c)
}

func TestSortedIntKeysOrdersAscending(t *testing.T) {
	m := map[int]bool{5: true, 1: true, 3: true}
	assert.Equal(t, []int{1, 3, 5}, sortedIntKeys(m))
}

func TestEffectiveExclusionsDropsMandatoryCoveringPointers(t *testing.T) {
	mandatory := []prepare.Pointer{"/issuer", "/credentialSubject/id"}
	excluded := []prepare.Pointer{
		"/issuer",                // equals a mandatory pointer
		"/credentialSubject",     // prefix of a mandatory pointer
		"/credentialSubject/ssn", // genuinely excludable
	}
	got := effectiveExclusions(excluded, mandatory)
	assert.Equal(t, []prepare.Pointer{"/credentialSubject/ssn"}, got)
}

func TestPointerStringsRoundTripsToPointers(t *testing.T) {
	pointers := []prepare.Pointer{"/issuer", "/credentialSubject/id"}
	strs := pointerStrings(pointers)
	assert.Equal(t, []string{"/issuer", "/credentialSubject/id"}, strs)

	back := toPointers(strs)
	assert.Equal(t, pointers, back)
}
