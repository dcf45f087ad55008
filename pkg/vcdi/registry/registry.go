// Package registry holds the two process-wide, read-only-after-init lookup
// tables the core dispatches through: the cryptosuite registry
// (cryptosuite name -> descriptor) and the crypto function registry
// (algorithm tag -> sign/verify routines). Both follow a builder-and-freeze
// pattern rather than package-level mutable singletons: a caller builds one
// at process bootstrap, calls Freeze, and then passes it explicitly into
// every API call.
package registry

import (
	"context"
	"sync"

	"vcdi/pkg/vcdi/keys"
	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/vcerrors"
)

// Canonicalization names the canonicalization algorithm a cryptosuite binds.
type Canonicalization string

const (
	CanonicalizationRDFC Canonicalization = "RDFC-1.0"
	CanonicalizationJCS  Canonicalization = "JCS"
	CanonicalizationNone Canonicalization = "None"
)

// CryptosuiteDescriptor is the bundle of algorithm choices a cryptosuite
// name maps to.
type CryptosuiteDescriptor struct {
	Name             string
	Canonicalization Canonicalization
	SignatureAlgTag  keys.Algorithm

	// KeyCompatible reports whether pub is an acceptable verification key
	// for this cryptosuite.
	KeyCompatible func(pub *keys.PublicKey) bool
}

// SignFunc signs data under priv, renting the result buffer from p.
type SignFunc func(ctx context.Context, priv *keys.PrivateKey, data []byte, p *pool.Pool) (*pool.Buffer, error)

// VerifyFunc verifies sig over data under pub.
type VerifyFunc func(ctx context.Context, pub *keys.PublicKey, data, sig []byte) (bool, error)

// FuncPair is the sign/verify pair registered for one algorithm tag.
type FuncPair struct {
	Sign   SignFunc
	Verify VerifyFunc
}

// CryptosuiteRegistry maps cryptosuite identifiers to descriptors.
// Build one with NewCryptosuiteRegistry (the zero value has no map and is
// not usable); concurrent reads after Freeze are safe without further
// locking.
type CryptosuiteRegistry struct {
	mu     sync.RWMutex
	suites map[string]CryptosuiteDescriptor
	frozen bool
}

// NewCryptosuiteRegistry builds an empty, unfrozen registry.
func NewCryptosuiteRegistry() *CryptosuiteRegistry {
	return &CryptosuiteRegistry{suites: make(map[string]CryptosuiteDescriptor)}
}

// Register adds or replaces a descriptor. Panics if called after Freeze,
// since a frozen registry is meant to be immutable for the rest of the
// process lifetime and a silent post-freeze mutation would be a bug in the
// caller, not a recoverable runtime condition.
func (r *CryptosuiteRegistry) Register(d CryptosuiteDescriptor) *CryptosuiteRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("registry: Register called on a frozen CryptosuiteRegistry")
	}
	r.suites[d.Name] = d
	return r
}

// Freeze marks the registry read-only. Idempotent.
func (r *CryptosuiteRegistry) Freeze() *CryptosuiteRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r
}

// Lookup resolves name to its descriptor. Returns RegistryNotInitialised if
// the registry has not been frozen yet, and UnknownCryptosuite if name was
// never registered.
func (r *CryptosuiteRegistry) Lookup(name string) (CryptosuiteDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.frozen {
		return CryptosuiteDescriptor{}, vcerrors.New(vcerrors.KindRegistryNotInitialised, "cryptosuite registry has not been frozen")
	}
	d, ok := r.suites[name]
	if !ok {
		return CryptosuiteDescriptor{}, vcerrors.New(vcerrors.KindUnknownCryptosuite, "unregistered cryptosuite: "+name)
	}
	return d, nil
}

// FuncRegistry maps algorithm tags to their sign/verify function pair.
type FuncRegistry struct {
	mu     sync.RWMutex
	funcs  map[keys.Algorithm]FuncPair
	frozen bool
}

// NewFuncRegistry builds an empty, unfrozen registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{funcs: make(map[keys.Algorithm]FuncPair)}
}

// Register adds or replaces the sign/verify pair for tag.
func (r *FuncRegistry) Register(tag keys.Algorithm, pair FuncPair) *FuncRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("registry: Register called on a frozen FuncRegistry")
	}
	r.funcs[tag] = pair
	return r
}

// Freeze marks the registry read-only. Idempotent.
func (r *FuncRegistry) Freeze() *FuncRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r
}

// Lookup resolves tag to its sign/verify pair.
func (r *FuncRegistry) Lookup(tag keys.Algorithm) (FuncPair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.frozen {
		return FuncPair{}, vcerrors.New(vcerrors.KindRegistryNotInitialised, "crypto function registry has not been frozen")
	}
	p, ok := r.funcs[tag]
	if !ok {
		return FuncPair{}, vcerrors.New(vcerrors.KindUnknownCryptosuite, "no sign/verify pair registered for algorithm "+string(tag))
	}
	return p, nil
}
