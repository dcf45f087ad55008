// Package canonical implements the two canonicalization delegates the core
// consumes: RDFC-1.0 (JSON-LD expand + URDNA2015 normalize, over
// github.com/piprate/json-gold) and JCS (RFC 8785, over
// github.com/gowebpki/jcs). Both satisfy the Canonicalizer interface so the
// full-disclosure engine can bind either one without caring which it got.
package canonical

import "context"

// Canonicalizer deterministically serializes a document so that
// semantically equivalent documents produce identical bytes.
type Canonicalizer interface {
	// Canonicalize returns the canonical byte form of doc.
	Canonicalize(ctx context.Context, doc any) ([]byte, error)

	// UsesContext reports whether this suite's proof options must carry
	// @context (true for RDFC, false for JCS).
	UsesContext() bool
}
