package codec

import (
	"strings"
	"testing"

	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/vcerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBase58BTCHasZPrefix(t *testing.T) {
	s, err := EncodeBase58BTC([]byte("signature"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "z"))
}

func TestEncodeBase64UrlNoPadHasUPrefix(t *testing.T) {
	s, err := EncodeBase64UrlNoPad([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "u"))
	assert.NotContains(t, s, "=")
}

func TestDecodeRoundtripsBase58(t *testing.T) {
	p := pool.New(16)
	raw := []byte("hello world")
	encoded, err := EncodeBase58BTC(raw)
	require.NoError(t, err)

	buf, err := Decode(p, encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, buf.Bytes())
}

func TestDecodeRoundtripsBase64UrlNoPad(t *testing.T) {
	p := pool.New(16)
	raw := []byte{0xde, 0xad, 0xbe, 0xef}
	encoded, err := EncodeBase64UrlNoPad(raw)
	require.NoError(t, err)

	buf, err := Decode(p, encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, buf.Bytes())
}

func TestDecodeRejectsEmptyString(t *testing.T) {
	p := pool.New(16)
	_, err := Decode(p, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcerrors.ErrMalformedProofValue)
}

func TestDecodeRejectsUnknownPrefix(t *testing.T) {
	p := pool.New(16)
	_, err := Decode(p, "!!!not-a-multibase-string")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcerrors.ErrMalformedProofValue)
}
