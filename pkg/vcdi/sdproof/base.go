package sdproof

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"time"

	"vcdi/pkg/vcdi/codec"
	"vcdi/pkg/vcdi/keys"
	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/prepare"
	"vcdi/pkg/vcdi/proofopts"
	"vcdi/pkg/vcdi/relabel"
	"vcdi/pkg/vcdi/vc"
	"vcdi/pkg/vcdi/vcerrors"

	"golang.org/x/sync/errgroup"
)

// BaseProofInput carries the per-call metadata CreateBaseProof needs beyond
// the credential and issuer key.
type BaseProofInput struct {
	VerificationMethod string
	ProofPurpose       string
	Created            time.Time // zero means "now"
	Challenge          string
	Domain             string

	// MandatoryPointers names the claims that must always be disclosed -
	// typically at least issuer, type and validFrom.
	MandatoryPointers []prepare.Pointer

	// HMACKeySource supplies the 32-byte relabeling key. Nil means a fresh
	// CSPRNG key per proof; tests inject a fixed source to reproduce
	// published vectors.
	HMACKeySource func() ([]byte, error)

	// EphemeralKey, when non-nil, is used instead of generating a fresh
	// per-proof P-256 key. Like HMACKeySource this exists for vector
	// reproduction; production callers leave it nil.
	EphemeralKey *ecdsa.PrivateKey
}

// BaseProofContext is the verbose result of CreateBaseProofVerbose: the
// signed credential plus every intermediate artifact of the base-proof
// pipeline, for validating published test vectors step by step. The
// signature and key buffers are rented; the caller must Release the context
// on every exit path.
type BaseProofContext struct {
	Credential *vc.Credential

	AllStatements       []string
	SortedStatements    []string
	LabelMap            map[string]string
	MandatoryIndexes    []int
	NonMandatoryIndexes []int

	MandatoryHash    [32]byte
	ProofOptionsHash [32]byte

	BaseSignature       *pool.Buffer
	HMACKey             *pool.Buffer
	StatementSignatures []*pool.Buffer
}

// Release returns every rented buffer to the pool, zeroizing the HMAC key
// and signature bytes. Idempotent.
func (c *BaseProofContext) Release() {
	if c == nil {
		return
	}
	c.BaseSignature.Release()
	c.HMACKey.Release()
	for _, sig := range c.StatementSignatures {
		sig.Release()
	}
	c.StatementSignatures = nil
}

// CreateBaseProof implements the issuer path: partition the credential's
// canonical statements into mandatory and non-mandatory sets under a fresh
// HMAC key, sign a tuple binding the proof options, a fresh ephemeral key and
// the mandatory statements' hash under the issuer's long-term key, then sign
// every non-mandatory statement individually under the ephemeral key so a
// holder can later drop statements without invalidating the ones it keeps.
func (s *Suite) CreateBaseProof(ctx context.Context, cred *vc.Credential, issuerPriv *keys.PrivateKey, in BaseProofInput) (*vc.Credential, error) {
	bctx, err := s.CreateBaseProofVerbose(ctx, cred, issuerPriv, in)
	if err != nil {
		return nil, err
	}
	defer bctx.Release()
	return bctx.Credential, nil
}

// CreateBaseProofVerbose is CreateBaseProof exposing the pipeline's
// intermediate state. The returned context owns rented buffers; the caller
// must Release it on every path.
func (s *Suite) CreateBaseProofVerbose(ctx context.Context, cred *vc.Credential, issuerPriv *keys.PrivateKey, in BaseProofInput) (*BaseProofContext, error) {
	if cred == nil {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "credential is nil")
	}
	if issuerPriv == nil || issuerPriv.Algorithm != keys.AlgP256 || issuerPriv.ECDSA == nil {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "issuer key must be a P-256 ECDSA handle")
	}
	if in.VerificationMethod == "" {
		return nil, vcerrors.New(vcerrors.KindMissingVerificationMethod, "verification method is required")
	}

	doc, err := cred.WithoutProof().AsMap()
	if err != nil {
		return nil, err
	}

	partition, err := prepare.PartitionStatements(ctx, doc, in.MandatoryPointers, s.Canon, s.Loader)
	if err != nil {
		return nil, err
	}

	keySource := in.HMACKeySource
	if keySource == nil {
		keySource = relabel.GenerateKey
	}
	hmacKey, err := keySource()
	if err != nil {
		return nil, err
	}
	if len(hmacKey) != relabel.HMACKeySize {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "HMAC key source must produce 32 bytes")
	}

	mandatoryIdx := sortedIntKeys(partition.SelectedIndexes)
	prepared, err := prepare.PrepareWithKey(partition.AllStatements, mandatoryIdx, hmacKey)
	if err != nil {
		return nil, err
	}

	mandatoryStatements := make([]string, len(prepared.MandatoryIndexes))
	for i, pos := range prepared.MandatoryIndexes {
		mandatoryStatements[i] = prepared.SortedStatements[pos]
	}
	mandatoryHash := hashStatements(mandatoryStatements)

	created := in.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	opts := proofopts.Options{
		Type:               vc.ProofTypeDataIntegrity,
		Cryptosuite:        Cryptosuite,
		Created:            created.UTC().Format(time.RFC3339),
		VerificationMethod: in.VerificationMethod,
		ProofPurpose:       orDefault(in.ProofPurpose, vc.ProofPurposeAssertion),
		Challenge:          in.Challenge,
		Domain:             in.Domain,
		Context:            cred.Context,
	}
	optsCanonical, err := proofopts.Canonicalize(ctx, opts, s.Canon)
	if err != nil {
		return nil, err
	}
	optsHash := sha256.Sum256(optsCanonical)

	ephemeralPriv := in.EphemeralKey
	if ephemeralPriv == nil {
		ephemeralPriv, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "generating ephemeral P-256 key", err)
		}
	}
	ephemeralPub, err := keys.MarshalCompressedEphemeral(&ephemeralPriv.PublicKey)
	if err != nil {
		return nil, err
	}

	signedTuple := make([]byte, 0, len(optsHash)+len(ephemeralPub)+len(mandatoryHash))
	signedTuple = append(signedTuple, optsHash[:]...)
	signedTuple = append(signedTuple, ephemeralPub...)
	signedTuple = append(signedTuple, mandatoryHash[:]...)

	baseSignature, err := SignP256(issuerPriv.ECDSA, signedTuple)
	if err != nil {
		return nil, err
	}

	signatures, err := signNonMandatory(ctx, ephemeralPriv, prepared, s.Workers)
	if err != nil {
		return nil, err
	}

	bpv := codec.BaseProofValue{
		BaseSignature:     baseSignature,
		EphemeralPubKey:   ephemeralPub,
		HMACKey:           hmacKey,
		Signatures:        signatures,
		MandatoryPointers: pointerStrings(in.MandatoryPointers),
	}
	cborBytes, err := codec.EncodeBaseProof(bpv)
	if err != nil {
		return nil, err
	}
	proofValue, err := codec.EncodeBase64UrlNoPad(cborBytes)
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "encoding base proof value", err)
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

	bctx := &BaseProofContext{
		Credential:          cred.WithProof(proof),
		AllStatements:       partition.AllStatements,
		SortedStatements:    prepared.SortedStatements,
		LabelMap:            prepared.LabelMap,
		MandatoryIndexes:    prepared.MandatoryIndexes,
		NonMandatoryIndexes: prepared.NonMandatoryIndexes,
		MandatoryHash:       mandatoryHash,
		ProofOptionsHash:    optsHash,
		BaseSignature:       s.Pool.Wrap(baseSignature),
		HMACKey:             s.Pool.Wrap(hmacKey),
	}
	bctx.StatementSignatures = make([]*pool.Buffer, len(signatures))
	for i, sig := range signatures {
		bctx.StatementSignatures[i] = s.Pool.Wrap(sig)
	}
	return bctx, nil
}

// signNonMandatory signs every non-mandatory statement under the ephemeral
// key, in ascending sorted-position order, fanning out across workers
// goroutines when that is more than one.
func signNonMandatory(ctx context.Context, ephemeralPriv *ecdsa.PrivateKey, prepared *prepare.Prepared, workers int) ([][]byte, error) {
	signatures := make([][]byte, len(prepared.NonMandatoryIndexes))

	if workers <= 1 {
		for i, pos := range prepared.NonMandatoryIndexes {
			if err := ctx.Err(); err != nil {
				return nil, vcerrors.Wrap(vcerrors.KindCancelled, "signing non-mandatory statements cancelled", err)
			}
			sig, err := SignP256(ephemeralPriv, []byte(prepared.SortedStatements[pos]))
			if err != nil {
				return nil, err
			}
			signatures[i] = sig
		}
		return signatures, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, pos := range prepared.NonMandatoryIndexes {
		i, pos := i, pos
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return vcerrors.Wrap(vcerrors.KindCancelled, "signing non-mandatory statements cancelled", err)
			}
			sig, err := SignP256(ephemeralPriv, []byte(prepared.SortedStatements[pos]))
			if err != nil {
				return err
			}
			signatures[i] = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return signatures, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
