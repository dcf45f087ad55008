package registry

import (
	"context"
	"testing"

	"vcdi/pkg/vcdi/keys"
	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/vcerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptosuiteRegistryLookupBeforeFreezeIsNotInitialised(t *testing.T) {
	r := NewCryptosuiteRegistry()
	r.Register(CryptosuiteDescriptor{Name: "eddsa-rdfc-2022"})
	_, err := r.Lookup("eddsa-rdfc-2022")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcerrors.ErrRegistryNotInitialised)
}

func TestCryptosuiteRegistryLookupAfterFreeze(t *testing.T) {
	r := NewCryptosuiteRegistry()
	r.Register(CryptosuiteDescriptor{
		Name:             "eddsa-rdfc-2022",
		Canonicalization: CanonicalizationRDFC,
		SignatureAlgTag:  keys.AlgEd25519,
	})
	r.Freeze()

	d, err := r.Lookup("eddsa-rdfc-2022")
	require.NoError(t, err)
	assert.Equal(t, CanonicalizationRDFC, d.Canonicalization)
	assert.Equal(t, keys.AlgEd25519, d.SignatureAlgTag)
}

func TestCryptosuiteRegistryLookupUnknownName(t *testing.T) {
	r := NewCryptosuiteRegistry()
	r.Freeze()
	_, err := r.Lookup("does-not-exist")
	require.Error(t, err)
	assert.ErrorIs(t, err, vcerrors.ErrUnknownCryptosuite)
}

func TestCryptosuiteRegistryRegisterAfterFreezePanics(t *testing.T) {
	r := NewCryptosuiteRegistry()
	r.Freeze()
	assert.Panics(t, func() {
		r.Register(CryptosuiteDescriptor{Name: "late"})
	})
}

func TestCryptosuiteRegistryFreezeIsIdempotent(t *testing.T) {
	r := NewCryptosuiteRegistry()
	r.Freeze()
	assert.NotPanics(t, func() { r.Freeze() })
}

func TestFuncRegistryLookupBeforeFreezeIsNotInitialised(t *testing.T) {
	r := NewFuncRegistry()
	_, err := r.Lookup(keys.AlgEd25519)
	require.Error(t, err)
	assert.ErrorIs(t, err, vcerrors.ErrRegistryNotInitialised)
}

func TestFuncRegistryLookupAfterFreeze(t *testing.T) {
	r := NewFuncRegistry()
	called := false
	pair := FuncPair{
		Sign: func(ctx context.Context, priv *keys.PrivateKey, data []byte, p *pool.Pool) (*pool.Buffer, error) {
			called = true
			return p.Wrap(data), nil
		},
		Verify: func(ctx context.Context, pub *keys.PublicKey, data, sig []byte) (bool, error) {
			return true, nil
		},
	}
	r.Register(keys.AlgEd25519, pair)
	r.Freeze()

	got, err := r.Lookup(keys.AlgEd25519)
	require.NoError(t, err)

	p := pool.New(8)
	_, err = got.Sign(context.Background(), nil, []byte("data"), p)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestFuncRegistryLookupUnknownTag(t *testing.T) {
	r := NewFuncRegistry()
	r.Freeze()
	_, err := r.Lookup(keys.AlgP384)
	require.Error(t, err)
	assert.ErrorIs(t, err, vcerrors.ErrUnknownCryptosuite)
}

func TestFuncRegistryRegisterAfterFreezePanics(t *testing.T) {
	r := NewFuncRegistry()
	r.Freeze()
	assert.Panics(t, func() {
		r.Register(keys.AlgP256, FuncPair{})
	})
}
