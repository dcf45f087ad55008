package vcerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesSentinel(t *testing.T) {
	err := New(KindSignatureInvalid, "bad signature")
	assert.True(t, errors.Is(err, ErrSignatureInvalid))
	assert.False(t, errors.Is(err, ErrNoProof))
}

func TestWrapUnwrapsCollaboratorError(t *testing.T) {
	inner := errors.New("boom")
	err := Wrap(KindMalformedProofValue, "decoding failed", inner)
	require.ErrorIs(t, err, ErrMalformedProofValue)
	assert.Same(t, inner, errors.Unwrap(err))
	assert.Equal(t, "decoding failed: boom", err.Error())
}

func TestErrorMessageWithoutWrappedErr(t *testing.T) {
	err := New(KindNoProof, "no proof present")
	assert.Equal(t, "no proof present", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestKindStringCoversEveryDefinedKind(t *testing.T) {
	kinds := []Kind{
		KindNoProof, KindMissingCryptosuite, KindMissingVerificationMethod,
		KindVerificationMethodNotFound, KindSignatureInvalid, KindUnknownCryptosuite,
		KindMalformedProofValue, KindWrongProofKind, KindCountMismatch,
		KindLabelMapAmbiguous, KindRegistryNotInitialised, KindCancelled, KindInvalidArgument,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "Unknown", k.String(), "Kind %d should have a name", k)
	}
	assert.Equal(t, "Unknown", Kind(0).String())
}

func TestVerifyResultOk(t *testing.T) {
	r := Ok()
	assert.True(t, r.Valid)
	assert.Nil(t, r.AsError())
}

func TestVerifyResultInvalidAsError(t *testing.T) {
	detail := errors.New("signature mismatch")
	r := Invalid(KindSignatureInvalid, detail)
	assert.False(t, r.Valid)
	assert.Equal(t, KindSignatureInvalid, r.Reason)

	err := r.AsError()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}
