// Package vc models the W3C Verifiable Credentials Data Model 2.0 JSON shape
// the core signs and verifies. It is ambient support: the engines take a
// *Credential and reach into it mainly through AsMap, Proofs, WithoutProof
// and WithProof, and callers need a concrete type to unmarshal real
// credentials into.
package vc

import (
	"context"
	"encoding/json"
	"fmt"

	"vcdi/pkg/vcdi/vcerrors"

	"github.com/google/uuid"
)

const (
	ContextV2 = "https://www.w3.org/ns/credentials/v2"

	TypeVerifiableCredential   = "VerifiableCredential"
	TypeVerifiablePresentation = "VerifiablePresentation"

	ProofTypeDataIntegrity = "DataIntegrityProof"

	ProofPurposeAssertion            = "assertionMethod"
	ProofPurposeAuthentication       = "authentication"
	ProofPurposeKeyAgreement         = "keyAgreement"
	ProofPurposeCapabilityInvocation = "capabilityInvocation"
	ProofPurposeCapabilityDelegation = "capabilityDelegation"
)

// Proof is a Data Integrity proof per the core's data model: cryptosuite,
// timestamp, verification method, purpose, and the suite-specific encoded
// proofValue. ProofValue is omitted from the canonicalized proof-options
// form during both signing and verification.
type Proof struct {
	Type               string `json:"type"`
	Cryptosuite        string `json:"cryptosuite"`
	Created            string `json:"created,omitempty"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue,omitempty"`
	PreviousProof      string `json:"previousProof,omitempty"`
	Challenge          string `json:"challenge,omitempty"`
	Domain             string `json:"domain,omitempty"`
	Nonce              string `json:"nonce,omitempty"`
}

// Credential is the VC 2.0 JSON shape: enough fields to exercise every core
// operation. ValidFrom/ValidUntil are carried as opaque RFC 3339 strings;
// this layer does not evaluate expiry (temporal policy is left to callers).
type Credential struct {
	Context           []string          `json:"@context"`
	ID                string            `json:"id,omitempty"`
	Type              []string          `json:"type"`
	Issuer            any               `json:"issuer"`
	ValidFrom         string            `json:"validFrom,omitempty"`
	ValidUntil        string            `json:"validUntil,omitempty"`
	CredentialSubject any               `json:"credentialSubject"`
	CredentialStatus  any               `json:"credentialStatus,omitempty"`
	CredentialSchema  any               `json:"credentialSchema,omitempty"`
	RefreshService    any               `json:"refreshService,omitempty"`
	TermsOfUse        any               `json:"termsOfUse,omitempty"`
	Evidence          any               `json:"evidence,omitempty"`
	Proof             any               `json:"proof,omitempty"`
}

// NewURN mints a urn:uuid identifier for callers building credentials that
// have no natural dereferenceable id.
func NewURN() string {
	return "urn:uuid:" + uuid.NewString()
}

// FromJSON unmarshals a credential document.
func FromJSON(data []byte) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("vc: parsing credential: %w", err)
	}
	return &c, nil
}

// ToJSON marshals the credential back to its wire form.
func (c *Credential) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// Validate checks the REQUIRED-field invariants of the data model. It does
// not evaluate validFrom/validUntil against wall-clock time.
func (c *Credential) Validate() error {
	if len(c.Context) == 0 {
		return vcerrors.New(vcerrors.KindInvalidArgument, "credential missing @context")
	}
	if c.Context[0] != ContextV2 {
		return vcerrors.New(vcerrors.KindInvalidArgument, "first @context entry is not the VC 2.0 base context")
	}
	if len(c.Type) == 0 {
		return vcerrors.New(vcerrors.KindInvalidArgument, "credential missing type")
	}
	hasVCType := false
	for _, t := range c.Type {
		if t == TypeVerifiableCredential {
			hasVCType = true
			break
		}
	}
	if !hasVCType {
		return vcerrors.New(vcerrors.KindInvalidArgument, "credential type does not include VerifiableCredential")
	}
	if c.Issuer == nil {
		return vcerrors.New(vcerrors.KindInvalidArgument, "credential missing issuer")
	}
	if c.ValidFrom == "" {
		return vcerrors.New(vcerrors.KindInvalidArgument, "credential missing validFrom")
	}
	if c.CredentialSubject == nil {
		return vcerrors.New(vcerrors.KindInvalidArgument, "credential missing credentialSubject")
	}
	return nil
}

// IssuerID extracts the issuer's identifier, whether issuer is a bare DID
// string or an object carrying an "id" field.
func (c *Credential) IssuerID() (string, error) {
	switch v := c.Issuer.(type) {
	case string:
		return v, nil
	case map[string]any:
		if id, ok := v["id"].(string); ok {
			return id, nil
		}
	}
	return "", vcerrors.New(vcerrors.KindInvalidArgument, "issuer field has no resolvable id")
}

// Proofs normalizes the proof field, which is legal on the wire as either a
// single object or an array of objects, into a slice.
func (c *Credential) Proofs() ([]Proof, error) {
	if c.Proof == nil {
		return nil, nil
	}
	raw, err := json.Marshal(c.Proof)
	if err != nil {
		return nil, fmt.Errorf("vc: re-marshaling proof field: %w", err)
	}

	var single Proof
	if err := json.Unmarshal(raw, &single); err == nil && single.Type != "" {
		return []Proof{single}, nil
	}

	var many []Proof
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindNoProof, "proof field is neither an object nor an array of objects", err)
	}
	return many, nil
}

// WithoutProof returns a shallow copy of the credential with the proof field
// cleared, ready for canonicalization of the "proof options" or the base
// unsecured document.
func (c *Credential) WithoutProof() *Credential {
	cp := *c
	cp.Proof = nil
	return &cp
}

// WithProof returns a shallow copy of the credential with proof attached,
// accepting either a single Proof or a []Proof for multi-proof documents.
func (c *Credential) WithProof(proof any) *Credential {
	cp := *c
	cp.Proof = proof
	return &cp
}

// ProofObject returns the credential's first proof rendered as a plain map,
// the shape a canonicalizer consumes when hashing proof metadata on its own.
func (c *Credential) ProofObject() (map[string]any, error) {
	proofs, err := c.Proofs()
	if err != nil {
		return nil, err
	}
	if len(proofs) == 0 {
		return nil, vcerrors.New(vcerrors.KindNoProof, "credential has no proof")
	}
	raw, err := json.Marshal(proofs[0])
	if err != nil {
		return nil, fmt.Errorf("vc: re-marshaling proof: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("vc: converting proof to map: %w", err)
	}
	return m, nil
}

// AsMap round-trips the credential through JSON into a plain map, the shape
// json-gold's expand/normalize calls expect.
func (c *Credential) AsMap() (map[string]any, error) {
	raw, err := c.ToJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("vc: converting credential to map: %w", err)
	}
	return m, nil
}

// Canonicalizer is the subset of canonical.Canonicalizer this package needs,
// declared locally to avoid an import cycle with pkg/vcdi/canonical.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, doc any) ([]byte, error)
}

// CanonicalForm canonicalizes the credential (proof included, as-is) using
// the supplied canonicalizer.
func (c *Credential) CanonicalForm(ctx context.Context, canon Canonicalizer) ([]byte, error) {
	m, err := c.AsMap()
	if err != nil {
		return nil, err
	}
	return canon.Canonicalize(ctx, m)
}
