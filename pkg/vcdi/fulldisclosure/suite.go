// Package fulldisclosure implements the eddsa-rdfc-2022 and eddsa-jcs-2022
// cryptosuites. Both are the simple "hash, concatenate, sign" shape; they
// differ only in which Canonicalizer is bound (RDFC over the expanded RDF
// dataset vs. JCS over the plain JSON tree) and whether @context is emitted
// in the proof-options document, so one Suite type serves both cryptosuite
// names.
package fulldisclosure

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"time"

	"vcdi/pkg/vcdi/codec"
	"vcdi/pkg/vcdi/keys"
	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/proofopts"
	"vcdi/pkg/vcdi/vc"
	"vcdi/pkg/vcdi/vcerrors"
)

const (
	CryptosuiteRDFC = "eddsa-rdfc-2022"
	CryptosuiteJCS  = "eddsa-jcs-2022"
)

// Canonicalizer is the dependency this engine needs from pkg/vcdi/canonical,
// declared locally to avoid an import cycle.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, doc any) ([]byte, error)
	UsesContext() bool
}

// Suite binds one of the two full-disclosure cryptosuites to a
// Canonicalizer and a buffer pool for decoded proof values. Build one Suite
// per cryptosuite name a process needs to support (both are cheap, stateless
// values).
type Suite struct {
	Cryptosuite string
	Canon       Canonicalizer
	Pool        *pool.Pool
}

// NewRDFC builds the eddsa-rdfc-2022 suite over canon (expected to be an
// RDFC canonicalizer; UsesContext must report true). A nil pool gets a
// private default.
func NewRDFC(canon Canonicalizer, p *pool.Pool) *Suite {
	return &Suite{Cryptosuite: CryptosuiteRDFC, Canon: canon, Pool: orDefaultPool(p)}
}

// NewJCS builds the eddsa-jcs-2022 suite over canon (expected to be a JCS
// canonicalizer; UsesContext must report false). A nil pool gets a private
// default.
func NewJCS(canon Canonicalizer, p *pool.Pool) *Suite {
	return &Suite{Cryptosuite: CryptosuiteJCS, Canon: canon, Pool: orDefaultPool(p)}
}

func orDefaultPool(p *pool.Pool) *pool.Pool {
	if p == nil {
		return pool.New(0)
	}
	return p
}

// SignInput carries the per-call metadata Sign needs beyond the credential
// and key.
type SignInput struct {
	VerificationMethod string
	ProofPurpose       string
	Created            time.Time // zero means "now"
	Challenge          string
	Domain             string
}

// Sign canonicalizes the document and the proof options, hashes each,
// concatenates proofOptionsHash||documentHash, signs, and attaches the new
// proof to a copy of cred.
func (s *Suite) Sign(ctx context.Context, cred *vc.Credential, priv *keys.PrivateKey, in SignInput) (*vc.Credential, error) {
	if cred == nil {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "credential is nil")
	}
	if priv == nil || priv.Algorithm != keys.AlgEd25519 || len(priv.Ed25519) == 0 {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "private key must be an Ed25519 handle")
	}
	if in.VerificationMethod == "" {
		return nil, vcerrors.New(vcerrors.KindMissingVerificationMethod, "verification method is required")
	}

	created := in.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}

	docHash, err := s.hashDocument(ctx, cred.WithoutProof())
	if err != nil {
		return nil, err
	}

	opts := proofopts.Options{
		Type:               vc.ProofTypeDataIntegrity,
		Cryptosuite:        s.Cryptosuite,
		Created:            created.UTC().Format(time.RFC3339),
		VerificationMethod: in.VerificationMethod,
		ProofPurpose:       orDefault(in.ProofPurpose, vc.ProofPurposeAssertion),
		Challenge:          in.Challenge,
		Domain:             in.Domain,
		Context:            cred.Context,
	}
	optsHash, err := s.hashOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	combined := append(append([]byte{}, optsHash[:]...), docHash[:]...)
	signature := ed25519.Sign(priv.Ed25519, combined)

	proofValue, err := codec.EncodeBase58BTC(signature)
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "encoding signature", err)
	}

	proof := vc.Proof{
		Type:               opts.Type,
		Cryptosuite:        opts.Cryptosuite,
		Created:            opts.Created,
		VerificationMethod: opts.VerificationMethod,
		ProofPurpose:       opts.ProofPurpose,
		Challenge:          opts.Challenge,
		Domain:             opts.Domain,
		ProofValue:         proofValue,
	}
	return cred.WithProof(proof), nil
}

// KeyResolver resolves a DID URL verification method to a public key. DID
// document resolution is an external collaborator; callers inject their own
// resolution strategy.
type KeyResolver func(ctx context.Context, verificationMethod string) (*keys.PublicKey, error)

// Verify is the inverse of Sign: it rebuilds the proof options from the
// attached proof's metadata, recomputes both hashes and checks the signature
// under the resolved key.
func (s *Suite) Verify(ctx context.Context, cred *vc.Credential, resolve KeyResolver) (vcerrors.VerifyResult, error) {
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
	proof := proofs[0]

	if proof.Cryptosuite == "" {
		return vcerrors.Invalid(vcerrors.KindMissingCryptosuite, nil), nil
	}
	if proof.VerificationMethod == "" {
		return vcerrors.Invalid(vcerrors.KindMissingVerificationMethod, nil), nil
	}

	pub, err := resolve(ctx, proof.VerificationMethod)
	if err != nil || pub == nil {
		return vcerrors.Invalid(vcerrors.KindVerificationMethodNotFound, err), nil
	}
	if pub.Algorithm != keys.AlgEd25519 || len(pub.Ed25519) == 0 {
		return vcerrors.Invalid(vcerrors.KindVerificationMethodNotFound,
			fmt.Errorf("verification method %q is not an Ed25519 key", proof.VerificationMethod)), nil
	}

	sigBuf, err := codec.Decode(s.Pool, proof.ProofValue)
	if err != nil {
		return vcerrors.Invalid(vcerrors.KindMalformedProofValue, err), nil
	}
	defer sigBuf.Release()

	docHash, err := s.hashDocument(ctx, cred.WithoutProof())
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}

	opts := proofopts.FromProof(proof, cred.Context)
	optsHash, err := s.hashOptions(ctx, opts)
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}

	combined := append(append([]byte{}, optsHash[:]...), docHash[:]...)
	if !ed25519.Verify(pub.Ed25519, combined, sigBuf.Bytes()) {
		return vcerrors.Invalid(vcerrors.KindSignatureInvalid, nil), nil
	}
	return vcerrors.Ok(), nil
}

func (s *Suite) hashDocument(ctx context.Context, cred *vc.Credential) ([32]byte, error) {
	m, err := cred.AsMap()
	if err != nil {
		return [32]byte{}, err
	}
	canonical, err := s.Canon.Canonicalize(ctx, m)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(canonical), nil
}

func (s *Suite) hashOptions(ctx context.Context, opts proofopts.Options) ([32]byte, error) {
	canonical, err := proofopts.Canonicalize(ctx, opts, s.Canon)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(canonical), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
