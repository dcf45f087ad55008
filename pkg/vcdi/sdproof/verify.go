package sdproof

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"

	"vcdi/pkg/vcdi/canonical"
	"vcdi/pkg/vcdi/codec"
	"vcdi/pkg/vcdi/keys"
	"vcdi/pkg/vcdi/prepare"
	"vcdi/pkg/vcdi/proofopts"
	"vcdi/pkg/vcdi/relabel"
	"vcdi/pkg/vcdi/vc"
	"vcdi/pkg/vcdi/vcerrors"
)

// KeyResolver resolves a DID URL verification method to the issuer's
// long-term public key.
type KeyResolver func(ctx context.Context, verificationMethod string) (*keys.PublicKey, error)

// Verify inspects the credential's proof value tag and dispatches to
// VerifyBaseProof or VerifyDerivedProof accordingly, so callers holding
// either stage of the three-party flow can verify without knowing which one
// they have.
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

	rawBuf, err := codec.Decode(s.Pool, proofs[0].ProofValue)
	if err != nil {
		return vcerrors.Invalid(vcerrors.KindMalformedProofValue, err), nil
	}
	isBase := len(rawBuf.Bytes()) >= 3 && bytes.Equal(rawBuf.Bytes()[:3], codec.BaseProofTag[:])
	rawBuf.Release()

	if isBase {
		return s.VerifyBaseProof(ctx, cred, resolve)
	}
	return s.VerifyDerivedProof(ctx, cred, resolve)
}

// VerifyBaseProof is the holder-side check before deriving: it re-runs the
// issuer's partition/relabel/sort pipeline under the base proof's stored
// HMAC key, verifies the issuer's base signature over the reconstructed
// tuple, and verifies every non-mandatory statement's signature under the
// embedded ephemeral key.
func (s *Suite) VerifyBaseProof(ctx context.Context, cred *vc.Credential, resolve KeyResolver) (vcerrors.VerifyResult, error) {
	proof, result, err := s.extractProof(cred)
	if err != nil || !result.Valid {
		return result, err
	}

	rawBuf, err := codec.Decode(s.Pool, proof.ProofValue)
	if err != nil {
		return vcerrors.Invalid(vcerrors.KindMalformedProofValue, err), nil
	}
	defer rawBuf.Release()
	bpv, err := codec.DecodeBaseProof(rawBuf.Bytes())
	if err != nil {
		if verr, ok := err.(*vcerrors.Error); ok {
			return vcerrors.Invalid(verr.Kind, verr), nil
		}
		return vcerrors.VerifyResult{}, err
	}

	pub, result, err := s.resolveIssuerKey(ctx, proof, resolve)
	if err != nil || !result.Valid {
		return result, err
	}

	doc, err := cred.WithoutProof().AsMap()
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	partition, err := prepare.PartitionStatements(ctx, doc, toPointers(bpv.MandatoryPointers), s.Canon, s.Loader)
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	mandatoryIdx := sortedIntKeys(partition.SelectedIndexes)
	prepared, err := prepare.PrepareWithKey(partition.AllStatements, mandatoryIdx, bpv.HMACKey)
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	if len(bpv.Signatures) != len(prepared.NonMandatoryIndexes) {
		return vcerrors.Invalid(vcerrors.KindCountMismatch, nil), nil
	}

	mandatoryStatements := make([]string, len(prepared.MandatoryIndexes))
	for i, pos := range prepared.MandatoryIndexes {
		mandatoryStatements[i] = prepared.SortedStatements[pos]
	}
	mandatoryHash := hashStatements(mandatoryStatements)

	optsHash, result, err := s.hashProofOptions(ctx, proof, cred.Context)
	if err != nil || !result.Valid {
		return result, err
	}

	baseOK, err := s.verifyBaseSignature(pub, optsHash, bpv.EphemeralPubKey, mandatoryHash, bpv.BaseSignature)
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	if !baseOK {
		return vcerrors.Invalid(vcerrors.KindSignatureInvalid, nil), nil
	}

	ephemeralPub, err := keys.ParseCompressedEphemeral(bpv.EphemeralPubKey)
	if err != nil {
		return vcerrors.Invalid(vcerrors.KindMalformedProofValue, err), nil
	}
	for i, pos := range prepared.NonMandatoryIndexes {
		if err := ctx.Err(); err != nil {
			return vcerrors.VerifyResult{}, vcerrors.Wrap(vcerrors.KindCancelled, "base proof verification cancelled", err)
		}
		ok, err := VerifyP256(ephemeralPub, []byte(prepared.SortedStatements[pos]), bpv.Signatures[i])
		if err != nil {
			return vcerrors.VerifyResult{}, err
		}
		if !ok {
			return vcerrors.Invalid(vcerrors.KindSignatureInvalid, nil), nil
		}
	}

	return vcerrors.Ok(), nil
}

// VerifyDerivedProof is the verifier path: reconstruct the mandatory hash and
// proof-options hash from the reduced credential and its label map, verify
// the issuer's base signature over the tuple, then verify every disclosed
// non-mandatory statement's signature under the ephemeral key the base proof
// published.
func (s *Suite) VerifyDerivedProof(ctx context.Context, cred *vc.Credential, resolve KeyResolver) (vcerrors.VerifyResult, error) {
	proof, result, err := s.extractProof(cred)
	if err != nil || !result.Valid {
		return result, err
	}

	rawBuf, err := codec.Decode(s.Pool, proof.ProofValue)
	if err != nil {
		return vcerrors.Invalid(vcerrors.KindMalformedProofValue, err), nil
	}
	defer rawBuf.Release()
	dpv, err := codec.DecodeDerivedProof(rawBuf.Bytes())
	if err != nil {
		if verr, ok := err.(*vcerrors.Error); ok {
			return vcerrors.Invalid(verr.Kind, verr), nil
		}
		return vcerrors.VerifyResult{}, err
	}

	pub, result, err := s.resolveIssuerKey(ctx, proof, resolve)
	if err != nil || !result.Valid {
		return result, err
	}

	doc, err := cred.WithoutProof().AsMap()
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	canonicalBytes, err := s.Canon.Canonicalize(ctx, doc)
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	dataset, err := canonical.ParseNQuads(string(canonicalBytes))
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}

	relabeled := relabel.ApplyLabelMap(dataset.Statements, dpv.LabelMap)
	sorted := canonical.Sorted(relabeled)

	mandatorySet := make(map[int]bool, len(dpv.MandatoryIndexes))
	for _, idx := range dpv.MandatoryIndexes {
		mandatorySet[idx] = true
	}
	var mandatoryStatements []string
	var nonMandatoryPositions []int
	for i, stmt := range sorted {
		if mandatorySet[i] {
			mandatoryStatements = append(mandatoryStatements, stmt)
		} else {
			nonMandatoryPositions = append(nonMandatoryPositions, i)
		}
	}
	if len(dpv.Signatures) != len(nonMandatoryPositions) {
		return vcerrors.Invalid(vcerrors.KindCountMismatch, nil), nil
	}
	mandatoryHash := hashStatements(mandatoryStatements)

	optsHash, result, err := s.hashProofOptions(ctx, proof, cred.Context)
	if err != nil || !result.Valid {
		return result, err
	}

	baseOK, err := s.verifyBaseSignature(pub, optsHash, dpv.EphemeralPubKey, mandatoryHash, dpv.BaseSignature)
	if err != nil {
		return vcerrors.VerifyResult{}, err
	}
	if !baseOK {
		return vcerrors.Invalid(vcerrors.KindSignatureInvalid, nil), nil
	}

	ephemeralPub, err := keys.ParseCompressedEphemeral(dpv.EphemeralPubKey)
	if err != nil {
		return vcerrors.Invalid(vcerrors.KindMalformedProofValue, err), nil
	}

	for i, pos := range nonMandatoryPositions {
		if err := ctx.Err(); err != nil {
			return vcerrors.VerifyResult{}, vcerrors.Wrap(vcerrors.KindCancelled, "derived proof verification cancelled", err)
		}
		ok, err := VerifyP256(ephemeralPub, []byte(sorted[pos]), dpv.Signatures[i])
		if err != nil {
			return vcerrors.VerifyResult{}, err
		}
		if !ok {
			return vcerrors.Invalid(vcerrors.KindSignatureInvalid, nil), nil
		}
	}

	return vcerrors.Ok(), nil
}

// extractProof pulls the first proof off cred and runs the fail-fast checks
// shared by both verification paths.
func (s *Suite) extractProof(cred *vc.Credential) (vc.Proof, vcerrors.VerifyResult, error) {
	if cred == nil {
		return vc.Proof{}, vcerrors.VerifyResult{}, vcerrors.New(vcerrors.KindInvalidArgument, "credential is nil")
	}
	proofs, err := cred.Proofs()
	if err != nil {
		return vc.Proof{}, vcerrors.VerifyResult{}, err
	}
	if len(proofs) == 0 {
		return vc.Proof{}, vcerrors.Invalid(vcerrors.KindNoProof, nil), nil
	}
	proof := proofs[0]
	if proof.Cryptosuite == "" {
		return vc.Proof{}, vcerrors.Invalid(vcerrors.KindMissingCryptosuite, nil), nil
	}
	if proof.Cryptosuite != Cryptosuite {
		return vc.Proof{}, vcerrors.Invalid(vcerrors.KindWrongProofKind, nil), nil
	}
	if proof.VerificationMethod == "" {
		return vc.Proof{}, vcerrors.Invalid(vcerrors.KindMissingVerificationMethod, nil), nil
	}
	return proof, vcerrors.Ok(), nil
}

func (s *Suite) resolveIssuerKey(ctx context.Context, proof vc.Proof, resolve KeyResolver) (*keys.PublicKey, vcerrors.VerifyResult, error) {
	pub, err := resolve(ctx, proof.VerificationMethod)
	if err != nil || pub == nil {
		return nil, vcerrors.Invalid(vcerrors.KindVerificationMethodNotFound, err), nil
	}
	if pub.Algorithm != keys.AlgP256 || pub.ECDSA == nil {
		return nil, vcerrors.Invalid(vcerrors.KindVerificationMethodNotFound,
			fmt.Errorf("verification method %q is not a P-256 key", proof.VerificationMethod)), nil
	}
	return pub, vcerrors.Ok(), nil
}

func (s *Suite) hashProofOptions(ctx context.Context, proof vc.Proof, docContext []string) ([32]byte, vcerrors.VerifyResult, error) {
	opts := proofopts.FromProof(proof, docContext)
	optsCanonical, err := proofopts.Canonicalize(ctx, opts, s.Canon)
	if err != nil {
		return [32]byte{}, vcerrors.VerifyResult{}, err
	}
	return sha256.Sum256(optsCanonical), vcerrors.Ok(), nil
}

func (s *Suite) verifyBaseSignature(pub *keys.PublicKey, optsHash [32]byte, ephemeralPub []byte, mandatoryHash [32]byte, baseSig []byte) (bool, error) {
	signedTuple := make([]byte, 0, len(optsHash)+len(ephemeralPub)+len(mandatoryHash))
	signedTuple = append(signedTuple, optsHash[:]...)
	signedTuple = append(signedTuple, ephemeralPub...)
	signedTuple = append(signedTuple, mandatoryHash[:]...)
	return VerifyP256(pub.ECDSA, signedTuple, baseSig)
}
