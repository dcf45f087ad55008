// Package proofopts builds and canonicalizes the proof-options document:
// the proof metadata minus proofValue, canonicalized
// exactly like the credential itself so the two hashes can be combined into
// a signed tuple. Shared by the full-disclosure and SD base/derive/verify
// engines, since every suite needs the same construction with different
// canonicalizer bindings.
package proofopts

import (
	"context"

	"vcdi/pkg/vcdi/vc"
)

// Options is the proof-options document before canonicalization.
type Options struct {
	Type               string
	Cryptosuite        string
	Created            string
	VerificationMethod string
	ProofPurpose       string
	Challenge          string
	Domain             string

	// Context is copied from the secured document's @context and included
	// in the canonicalized form iff the cryptosuite uses RDFC
	// canonicalization (UsesContext below).
	Context []string
}

// FromProof rebuilds the Options a verifier needs to reproduce, re-using
// the metadata carried on an already-attached proof plus the document's own
// @context.
func FromProof(p vc.Proof, docContext []string) Options {
	return Options{
		Type:               p.Type,
		Cryptosuite:        p.Cryptosuite,
		Created:            p.Created,
		VerificationMethod: p.VerificationMethod,
		ProofPurpose:       p.ProofPurpose,
		Challenge:          p.Challenge,
		Domain:             p.Domain,
		Context:            docContext,
	}
}

// Document renders o as the plain map a canonicalizer consumes.
// includeContext controls whether @context is emitted, per the cryptosuite's
// UsesContext() (RDFC suites carry it so JSON-LD expansion can resolve
// claim terms; JCS and None suites never do).
func (o Options) Document(includeContext bool) map[string]any {
	doc := map[string]any{
		"type":               o.Type,
		"cryptosuite":        o.Cryptosuite,
		"verificationMethod": o.VerificationMethod,
		"proofPurpose":       o.ProofPurpose,
	}
	if o.Created != "" {
		doc["created"] = o.Created
	}
	if o.Challenge != "" {
		doc["challenge"] = o.Challenge
	}
	if o.Domain != "" {
		doc["domain"] = o.Domain
	}
	if includeContext && len(o.Context) > 0 {
		doc["@context"] = o.Context
	}
	return doc
}

// Canonicalizer is the minimal dependency this package needs, declared
// locally to avoid an import cycle with pkg/vcdi/canonical.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, doc any) ([]byte, error)
	UsesContext() bool
}

// Canonicalize renders o and canonicalizes it under canon.
func Canonicalize(ctx context.Context, o Options, canon Canonicalizer) ([]byte, error) {
	doc := o.Document(canon.UsesContext())
	// json-gold only recognises a JSON-LD array as []any, so the context
	// list is handed over in that form.
	if ctxList, ok := doc["@context"].([]string); ok {
		generic := make([]any, len(ctxList))
		for i, c := range ctxList {
			generic[i] = c
		}
		doc["@context"] = generic
	}
	return canon.Canonicalize(ctx, doc)
}
