// Package vcdi wires the core's canonicalizers, context resolver, registries
// and per-cryptosuite engines into a single value: rather than each
// cryptosuite engine finding its own collaborators, one CryptoContext builds
// them all once at process bootstrap and hands itself to every
// Sign/Verify/DeriveProof call.
package vcdi

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"vcdi/pkg/vcdi/canonical"
	"vcdi/pkg/vcdi/config"
	vcdicontext "vcdi/pkg/vcdi/context"
	"vcdi/pkg/vcdi/fulldisclosure"
	"vcdi/pkg/vcdi/keys"
	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/prepare"
	"vcdi/pkg/vcdi/registry"
	"vcdi/pkg/vcdi/sdproof"
	"vcdi/pkg/vcdi/vc"
	"vcdi/pkg/vcdi/vcerrors"
	"vcdi/pkg/vcdilog"
)

// CryptoContext bundles every collaborator the three cryptosuites need.
// Build one with NewCryptoContext at process start and pass it to every API
// call; nothing here is mutated after construction.
type CryptoContext struct {
	Cryptosuites *registry.CryptosuiteRegistry
	Funcs        *registry.FuncRegistry
	Pool         *pool.Pool
	Log          *vcdilog.Log
	Resolver     *vcdicontext.Resolver

	RDFC *canonical.RDFC
	JCS  *canonical.JCS

	// FullDisclosure holds one Suite per eddsa-* cryptosuite name.
	FullDisclosure map[string]*fulldisclosure.Suite
	SD             *sdproof.Suite
}

// NewCryptoContext builds and freezes the registries, builds the
// canonicalizers over cfg's context resolver, and assembles the
// full-disclosure and selective-disclosure engines on top of them.
func NewCryptoContext(cfg *config.Config, log *vcdilog.Log) (*CryptoContext, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = vcdilog.NewSimple("vcdi")
	}

	resolver, err := vcdicontext.NewResolver(cfg.ContextCacheTTL, log)
	if err != nil {
		return nil, fmt.Errorf("vcdi: building context resolver: %w", err)
	}

	rdfc := canonical.NewRDFC(resolver)
	jcs := canonical.NewJCS()
	p := pool.New(cfg.PoolCapacity)

	cryptosuites := registry.NewCryptosuiteRegistry()
	cryptosuites.Register(registry.CryptosuiteDescriptor{
		Name:             fulldisclosure.CryptosuiteRDFC,
		Canonicalization: registry.CanonicalizationRDFC,
		SignatureAlgTag:  keys.AlgEd25519,
		KeyCompatible:    isEd25519,
	})
	cryptosuites.Register(registry.CryptosuiteDescriptor{
		Name:             fulldisclosure.CryptosuiteJCS,
		Canonicalization: registry.CanonicalizationJCS,
		SignatureAlgTag:  keys.AlgEd25519,
		KeyCompatible:    isEd25519,
	})
	cryptosuites.Register(registry.CryptosuiteDescriptor{
		Name:             sdproof.Cryptosuite,
		Canonicalization: registry.CanonicalizationRDFC,
		SignatureAlgTag:  keys.AlgP256,
		KeyCompatible:    isP256,
	})
	cryptosuites.Freeze()

	funcs := registry.NewFuncRegistry()
	funcs.Register(keys.AlgEd25519, registry.FuncPair{
		Sign:   signEd25519,
		Verify: verifyEd25519,
	})
	funcs.Register(keys.AlgP256, registry.FuncPair{
		Sign:   signP256Registered,
		Verify: verifyP256Registered,
	})
	funcs.Freeze()

	return &CryptoContext{
		Cryptosuites: cryptosuites,
		Funcs:        funcs,
		Pool:         p,
		Log:          log,
		Resolver:     resolver,
		RDFC:         rdfc,
		JCS:          jcs,
		FullDisclosure: map[string]*fulldisclosure.Suite{
			fulldisclosure.CryptosuiteRDFC: fulldisclosure.NewRDFC(rdfc, p),
			fulldisclosure.CryptosuiteJCS:  fulldisclosure.NewJCS(jcs, p),
		},
		SD: sdproof.New(rdfc, resolver, p, cfg.SignWorkers),
	}, nil
}

// Close releases background resources (the context resolver's cache
// eviction goroutine).
func (c *CryptoContext) Close() {
	if c.Resolver != nil {
		c.Resolver.Stop()
	}
}

func isEd25519(pub *keys.PublicKey) bool {
	return pub != nil && pub.Algorithm == keys.AlgEd25519 && len(pub.Ed25519) == ed25519.PublicKeySize
}

func isP256(pub *keys.PublicKey) bool {
	return pub != nil && pub.Algorithm == keys.AlgP256 && pub.ECDSA != nil
}

func signEd25519(ctx context.Context, priv *keys.PrivateKey, data []byte, p *pool.Pool) (*pool.Buffer, error) {
	if priv == nil || priv.Algorithm != keys.AlgEd25519 || len(priv.Ed25519) == 0 {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "private key is not an Ed25519 handle")
	}
	sig := ed25519.Sign(priv.Ed25519, data)
	return p.Wrap(sig), nil
}

func verifyEd25519(ctx context.Context, pub *keys.PublicKey, data, sig []byte) (bool, error) {
	if pub == nil || pub.Algorithm != keys.AlgEd25519 || len(pub.Ed25519) == 0 {
		return false, vcerrors.New(vcerrors.KindInvalidArgument, "public key is not an Ed25519 handle")
	}
	return ed25519.Verify(pub.Ed25519, data, sig), nil
}

func signP256Registered(ctx context.Context, priv *keys.PrivateKey, data []byte, p *pool.Pool) (*pool.Buffer, error) {
	if priv == nil || priv.Algorithm != keys.AlgP256 || priv.ECDSA == nil {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "private key is not a P-256 handle")
	}
	sig, err := sdproof.SignP256(priv.ECDSA, data)
	if err != nil {
		return nil, err
	}
	return p.Wrap(sig), nil
}

func verifyP256Registered(ctx context.Context, pub *keys.PublicKey, data, sig []byte) (bool, error) {
	if pub == nil || pub.Algorithm != keys.AlgP256 || pub.ECDSA == nil {
		return false, vcerrors.New(vcerrors.KindInvalidArgument, "public key is not a P-256 handle")
	}
	return sdproof.VerifyP256(pub.ECDSA, data, sig)
}

// KeyResolver resolves a DID URL verification method to the issuer's
// long-term public key, shared across every cryptosuite this context
// dispatches to.
type KeyResolver func(ctx context.Context, verificationMethod string) (*keys.PublicKey, error)

// Sign dispatches to the full-disclosure engine registered under
// cryptosuite. For ecdsa-sd-2023 base proofs use SD.CreateBaseProof
// directly, since it needs mandatory pointers the common SignInput shape
// has no room for.
func (c *CryptoContext) Sign(ctx context.Context, cryptosuite string, cred *vc.Credential, priv *keys.PrivateKey, in fulldisclosure.SignInput) (*vc.Credential, error) {
	suite, ok := c.FullDisclosure[cryptosuite]
	if !ok {
		return nil, vcerrors.New(vcerrors.KindUnknownCryptosuite, "unregistered full-disclosure cryptosuite: "+cryptosuite)
	}
	return suite.Sign(ctx, cred, priv, in)
}

// Verify dispatches a credential's first proof to whichever engine its
// declared cryptosuite names.
func (c *CryptoContext) Verify(ctx context.Context, cred *vc.Credential, resolve KeyResolver) (vcerrors.VerifyResult, error) {
	if cred == nil {
		return vcerrors.VerifyResult{}, vcerrors.New(vcerrors.KindInvalidArgument, "credential is nil")
	}
	proofs, err := cred.Proofs()
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	if len(proofs) == 0 {
		return vcerrors.Invalid(vcerrors.KindNoProof, nil), nil
	}

	switch proofs[0].Cryptosuite {
	case sdproof.Cryptosuite:
		return c.SD.Verify(ctx, cred, sdproof.KeyResolver(resolve))
	case fulldisclosure.CryptosuiteRDFC:
		return c.FullDisclosure[fulldisclosure.CryptosuiteRDFC].Verify(ctx, cred, fulldisclosure.KeyResolver(resolve))
	case fulldisclosure.CryptosuiteJCS:
		return c.FullDisclosure[fulldisclosure.CryptosuiteJCS].Verify(ctx, cred, fulldisclosure.KeyResolver(resolve))
	default:
		return vcerrors.Invalid(vcerrors.KindUnknownCryptosuite, nil), nil
	}
}

// DeriveProof is a thin pass-through to the selective-disclosure engine,
// named here so callers working only against CryptoContext never need to
// reach into SD directly.
func (c *CryptoContext) DeriveProof(ctx context.Context, cred *vc.Credential, selectivePointers []prepare.Pointer) (*vc.Credential, error) {
	return c.SD.DeriveProof(ctx, cred, selectivePointers)
}
