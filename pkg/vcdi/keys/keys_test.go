package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultikeyRoundtripEd25519(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	encoded, err := EncodeMultikey(&PublicKey{Algorithm: AlgEd25519, Ed25519: pub})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "z"))

	decoded, err := DecodeMultikeyPublic(encoded)
	require.NoError(t, err)
	assert.Equal(t, AlgEd25519, decoded.Algorithm)
	assert.Equal(t, pub, decoded.Ed25519)
}

func TestMultikeyRoundtripP256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	encoded, err := EncodeMultikey(&PublicKey{Algorithm: AlgP256, ECDSA: &priv.PublicKey})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "z"))

	decoded, err := DecodeMultikeyPublic(encoded)
	require.NoError(t, err)
	assert.Equal(t, AlgP256, decoded.Algorithm)
	assert.Equal(t, 0, priv.PublicKey.X.Cmp(decoded.ECDSA.X))
	assert.Equal(t, 0, priv.PublicKey.Y.Cmp(decoded.ECDSA.Y))
}

func TestMultikeyRoundtripP384(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	encoded, err := EncodeMultikey(&PublicKey{Algorithm: AlgP384, ECDSA: &priv.PublicKey})
	require.NoError(t, err)

	decoded, err := DecodeMultikeyPublic(encoded)
	require.NoError(t, err)
	assert.Equal(t, AlgP384, decoded.Algorithm)
}

func TestDecodeMultikeyPrivateEd25519(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	encoded, err := encodeMultibaseWithCodec(MulticodecEd25519PrivKey, priv.Seed())
	require.NoError(t, err)

	decoded, err := DecodeMultikeyPrivate(encoded)
	require.NoError(t, err)
	assert.Equal(t, AlgEd25519, decoded.Algorithm)
	assert.Equal(t, priv, decoded.Ed25519)
}

func TestDecodeMultikeyPrivateP256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	body := make([]byte, 32)
	dBytes := priv.D.Bytes()
	copy(body[32-len(dBytes):], dBytes)
	encoded, err := encodeMultibaseWithCodec(MulticodecP256PrivKey, body)
	require.NoError(t, err)

	decoded, err := DecodeMultikeyPrivate(encoded)
	require.NoError(t, err)
	assert.Equal(t, AlgP256, decoded.Algorithm)
	assert.Equal(t, 0, priv.D.Cmp(decoded.ECDSA.D))
	assert.Equal(t, 0, priv.PublicKey.X.Cmp(decoded.ECDSA.PublicKey.X))
}

func TestEncodeMultikeyRejectsNilKey(t *testing.T) {
	_, err := EncodeMultikey(nil)
	assert.Error(t, err)
}

func TestEncodeMultikeyRejectsUnsupportedAlgorithm(t *testing.T) {
	_, err := EncodeMultikey(&PublicKey{Algorithm: "unknown"})
	assert.Error(t, err)
}

func TestDecodeMultikeyPublicRejectsUnknownCodec(t *testing.T) {
	encoded, err := encodeMultibaseWithCodec(0xdead, []byte("junk"))
	require.NoError(t, err)
	_, err = DecodeMultikeyPublic(encoded)
	assert.Error(t, err)
}

func TestCompressedEphemeralRoundtrip(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	encoded, err := MarshalCompressedEphemeral(&priv.PublicKey)
	require.NoError(t, err)
	require.Len(t, encoded, 35)
	assert.Equal(t, EphemeralKeyHeader[0], encoded[0])
	assert.Equal(t, EphemeralKeyHeader[1], encoded[1])

	decoded, err := ParseCompressedEphemeral(encoded)
	require.NoError(t, err)
	assert.Equal(t, 0, priv.PublicKey.X.Cmp(decoded.X))
	assert.Equal(t, 0, priv.PublicKey.Y.Cmp(decoded.Y))
}

func TestMarshalCompressedEphemeralRejectsNonP256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	_, err = MarshalCompressedEphemeral(&priv.PublicKey)
	assert.Error(t, err)
}

func TestParseCompressedEphemeralRejectsMissingHeader(t *testing.T) {
	_, err := ParseCompressedEphemeral([]byte{0x00, 0x00, 0x01, 0x02})
	assert.Error(t, err)
}

func TestParseCompressedEphemeralRejectsMalformedPoint(t *testing.T) {
	bad := append([]byte{EphemeralKeyHeader[0], EphemeralKeyHeader[1]}, make([]byte, 33)...)
	_, err := ParseCompressedEphemeral(bad)
	assert.Error(t, err)
}

func TestGetCurveName(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	name, err := GetCurveName(&priv.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, elliptic.P256().Params().Name, name)
}

func TestGetCurveNameRejectsNil(t *testing.T) {
	_, err := GetCurveName(nil)
	assert.Error(t, err)
}
