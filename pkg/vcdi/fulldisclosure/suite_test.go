package fulldisclosure

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"vcdi/pkg/vcdi/canonical"
	"vcdi/pkg/vcdi/keys"
	"vcdi/pkg/vcdi/vc"
	"vcdi/pkg/vcdi/vcerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredential() *vc.Credential {
	return &vc.Credential{
		Context:           []string{vc.ContextV2},
		ID:                "https://example.org/credentials/1872",
		Type:              []string{vc.TypeVerifiableCredential},
		Issuer:            "did:key:z6MkrJVnaZkeFzdQyMZu1cgjg7k1pZZ6pvBQ7XJPt4swbTQ2",
		ValidFrom:         "2024-01-01T00:00:00Z",
		CredentialSubject: map[string]any{"id": "did:example:subject", "degree": "BSc"},
	}
}

func resolverFor(pub *keys.PublicKey) KeyResolver {
	return func(ctx context.Context, vm string) (*keys.PublicKey, error) {
		return pub, nil
	}
}

func TestJCSSignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	suite := NewJCS(canonical.NewJCS(), nil)
	cred := testCredential()

	signed, err := suite.Sign(context.Background(), cred, &keys.PrivateKey{Algorithm: keys.AlgEd25519, Ed25519: priv}, SignInput{
		VerificationMethod: "did:key:z6MkrJVnaZkeFzdQyMZu1cgjg7k1pZZ6pvBQ7XJPt4swbTQ2#z6MkrJVnaZkeFzdQyMZu1cgjg7k1pZZ6pvBQ7XJPt4swbTQ2",
		Created:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	proofs, err := signed.Proofs()
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	assert.Equal(t, CryptosuiteJCS, proofs[0].Cryptosuite)
	assert.True(t, proofs[0].ProofValue[0] == 'z')

	result, err := suite.Verify(context.Background(), signed, resolverFor(&keys.PublicKey{Algorithm: keys.AlgEd25519, Ed25519: pub}))
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestJCSVerifyDetectsTamperedDocument(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	suite := NewJCS(canonical.NewJCS(), nil)
	cred := testCredential()

	signed, err := suite.Sign(context.Background(), cred, &keys.PrivateKey{Algorithm: keys.AlgEd25519, Ed25519: priv}, SignInput{
		VerificationMethod: "did:key:z6Mkr#1",
	})
	require.NoError(t, err)

	tampered := *signed
	tampered.CredentialSubject = map[string]any{"id": "did:example:subject", "degree": "PhD"}

	result, err := suite.Verify(context.Background(), &tampered, resolverFor(&keys.PublicKey{Algorithm: keys.AlgEd25519, Ed25519: pub}))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, vcerrors.KindSignatureInvalid, result.Reason)
}

func TestJCSVerifyDetectsWrongKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	suite := NewJCS(canonical.NewJCS(), nil)
	cred := testCredential()

	signed, err := suite.Sign(context.Background(), cred, &keys.PrivateKey{Algorithm: keys.AlgEd25519, Ed25519: priv}, SignInput{
		VerificationMethod: "did:key:z6Mkr#1",
	})
	require.NoError(t, err)

	result, err := suite.Verify(context.Background(), signed, resolverFor(&keys.PublicKey{Algorithm: keys.AlgEd25519, Ed25519: otherPub}))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, vcerrors.KindSignatureInvalid, result.Reason)
}

func TestVerifyReturnsNoProof(t *testing.T) {
	suite := NewJCS(canonical.NewJCS(), nil)
	cred := testCredential()

	result, err := suite.Verify(context.Background(), cred, resolverFor(nil))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, vcerrors.KindNoProof, result.Reason)
}

func TestSignRejectsMissingVerificationMethod(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	suite := NewJCS(canonical.NewJCS(), nil)
	_, err = suite.Sign(context.Background(), testCredential(), &keys.PrivateKey{Algorithm: keys.AlgEd25519, Ed25519: priv}, SignInput{})
	assert.Error(t, err)
}
