package sdproof

import (
	"context"
	"encoding/json"

	"vcdi/pkg/vcdi/canonical"
	"vcdi/pkg/vcdi/codec"
	"vcdi/pkg/vcdi/prepare"
	"vcdi/pkg/vcdi/relabel"
	"vcdi/pkg/vcdi/vc"
	"vcdi/pkg/vcdi/vcerrors"
)

// DeriveInput carries the holder's disclosure choices: the pointers the
// verifier requested, plus an optional set of exclusions the holder refuses
// to reveal even if a requested pointer covers them. Exclusions never remove
// mandatory claims; a pointer that equals, contains or lies inside a
// mandatory pointer is ignored.
type DeriveInput struct {
	SelectivePointers []prepare.Pointer
	ExcludedPointers  []prepare.Pointer
}

// DeriveProof derives a reduced credential disclosing the union of the base
// proof's mandatory pointers and selectivePointers. It is Derive without
// exclusions.
func (s *Suite) DeriveProof(ctx context.Context, cred *vc.Credential, selectivePointers []prepare.Pointer) (*vc.Credential, error) {
	return s.Derive(ctx, cred, DeriveInput{SelectivePointers: selectivePointers})
}

// Derive implements the holder path: given a base-proof-bearing credential,
// produce a reduced credential disclosing exactly the union of the base
// proof's mandatory pointers and the holder-selected pointers minus any
// exclusions, with its own derived proof whose label map lets a verifier
// relate the reduced document's own (re-canonicalized) blank-node labels back
// to the statements the issuer actually signed. The exclusion set flows
// through the same prepare pipeline, under the base proof's stored HMAC key,
// as every other pointer - it never introduces a second label map.
func (s *Suite) Derive(ctx context.Context, cred *vc.Credential, in DeriveInput) (*vc.Credential, error) {
	if cred == nil {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "credential is nil")
	}

	proofs, err := cred.Proofs()
	if err != nil {
		return nil, err
	}
	if len(proofs) == 0 {
		return nil, vcerrors.New(vcerrors.KindNoProof, "credential has no proof to derive from")
	}
	baseProof := proofs[0]
	if baseProof.Cryptosuite != Cryptosuite {
		return nil, vcerrors.New(vcerrors.KindWrongProofKind, "proof is not an "+Cryptosuite+" base proof")
	}

	rawBuf, err := codec.Decode(s.Pool, baseProof.ProofValue)
	if err != nil {
		return nil, err
	}
	defer rawBuf.Release()
	bpv, err := codec.DecodeBaseProof(rawBuf.Bytes())
	if err != nil {
		return nil, err
	}

	doc, err := cred.WithoutProof().AsMap()
	if err != nil {
		return nil, err
	}

	mandatoryPointers := toPointers(bpv.MandatoryPointers)
	mandatoryPartition, err := prepare.PartitionStatements(ctx, doc, mandatoryPointers, s.Canon, s.Loader)
	if err != nil {
		return nil, err
	}
	mandatoryIdx := sortedIntKeys(mandatoryPartition.SelectedIndexes)
	prepared, err := prepare.PrepareWithKey(mandatoryPartition.AllStatements, mandatoryIdx, bpv.HMACKey)
	if err != nil {
		return nil, err
	}

	mandatoryTexts := make(map[string]bool, len(prepared.MandatoryIndexes))
	for _, pos := range prepared.MandatoryIndexes {
		mandatoryTexts[prepared.SortedStatements[pos]] = true
	}

	sigByStatement := make(map[string][]byte, len(prepared.NonMandatoryIndexes))
	if len(bpv.Signatures) != len(prepared.NonMandatoryIndexes) {
		return nil, vcerrors.New(vcerrors.KindCountMismatch, "base proof signature count does not match non-mandatory statement count")
	}
	for i, pos := range prepared.NonMandatoryIndexes {
		sigByStatement[prepared.SortedStatements[pos]] = bpv.Signatures[i]
	}

	combinedPointers := append(append([]prepare.Pointer(nil), mandatoryPointers...), in.SelectivePointers...)
	reducedDoc, err := prepare.SelectJsonLdFragments(doc, combinedPointers)
	if err != nil {
		return nil, err
	}
	if excluded := effectiveExclusions(in.ExcludedPointers, mandatoryPointers); len(excluded) > 0 {
		if err := prepare.RemoveJsonLdFragments(reducedDoc, excluded); err != nil {
			return nil, err
		}
	}

	reducedCanonical, err := s.Canon.Canonicalize(ctx, reducedDoc)
	if err != nil {
		return nil, err
	}
	reducedDataset, err := canonical.ParseNQuads(string(reducedCanonical))
	if err != nil {
		return nil, err
	}

	labelMapReduced, err := prepare.RecomputeReducedLabelMap(reducedDataset.Statements, prepared.SortedStatements)
	if err != nil {
		return nil, err
	}

	var reducedMandatoryIdx []int
	for i, stmt := range reducedDataset.Statements {
		relabeledStmt := relabel.ApplyLabelMap([]string{stmt}, labelMapReduced)[0]
		if mandatoryTexts[relabeledStmt] {
			reducedMandatoryIdx = append(reducedMandatoryIdx, i)
		}
	}

	reducedPrepared := prepare.PrepareWithMap(reducedDataset.Statements, reducedMandatoryIdx, labelMapReduced)

	disclosedSignatures := make([][]byte, len(reducedPrepared.NonMandatoryIndexes))
	for i, pos := range reducedPrepared.NonMandatoryIndexes {
		stmt := reducedPrepared.SortedStatements[pos]
		sig, ok := sigByStatement[stmt]
		if !ok {
			return nil, vcerrors.New(vcerrors.KindCountMismatch, "no base signature found for a disclosed statement")
		}
		disclosedSignatures[i] = sig
	}

	dpv := codec.DerivedProofValue{
		BaseSignature:    bpv.BaseSignature,
		EphemeralPubKey:  bpv.EphemeralPubKey,
		Signatures:       disclosedSignatures,
		LabelMap:         labelMapReduced,
		MandatoryIndexes: reducedPrepared.MandatoryIndexes,
	}
	cborBytes, err := codec.EncodeDerivedProof(dpv)
	if err != nil {
		return nil, err
	}
	proofValue, err := codec.EncodeBase64UrlNoPad(cborBytes)
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "encoding derived proof value", err)
	}

	proof := vc.Proof{
		Type:               baseProof.Type,
		Cryptosuite:        baseProof.Cryptosuite,
		Created:            baseProof.Created,
		VerificationMethod: baseProof.VerificationMethod,
		ProofPurpose:       baseProof.ProofPurpose,
		Challenge:          baseProof.Challenge,
		Domain:             baseProof.Domain,
		ProofValue:         proofValue,
	}

	reducedJSON, err := json.Marshal(reducedDoc)
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "marshaling reduced credential", err)
	}
	reducedCred, err := vc.FromJSON(reducedJSON)
	if err != nil {
		return nil, err
	}
	return reducedCred.WithProof(proof), nil
}

// effectiveExclusions filters out exclusions that would strip mandatory
// claims: a pointer that equals a mandatory pointer, is a prefix of one, or
// lies inside one, is dropped.
func effectiveExclusions(excluded, mandatory []prepare.Pointer) []prepare.Pointer {
	var out []prepare.Pointer
	for _, e := range excluded {
		coversMandatory := false
		for _, m := range mandatory {
			if e == m || (len(e) < len(m) && m[:len(e)] == e && m[len(e)] == '/') ||
				(len(m) < len(e) && e[:len(m)] == m && e[len(m)] == '/') {
				coversMandatory = true
				break
			}
		}
		if !coversMandatory {
			out = append(out, e)
		}
	}
	return out
}
