// Package sdproof implements the ecdsa-sd-2023 selective-disclosure
// cryptosuite's three-party protocol: CreateBaseProof (issuer), DeriveProof
// (holder) and VerifyBaseProof/VerifyDerivedProof (holder/verifier), built
// on the SHA-256-then-raw-r||s ECDSA signing convention (see ecdsa_util.go)
// and the CBOR tuple framing in pkg/vcdi/codec.
package sdproof

import (
	"bytes"
	"context"
	"crypto/sha256"
	"sort"

	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/prepare"

	"github.com/piprate/json-gold/ld"
)

// Cryptosuite is the cryptosuite identifier this package implements.
const Cryptosuite = "ecdsa-sd-2023"

// Canonicalizer is the dependency this engine needs from pkg/vcdi/canonical,
// declared locally to avoid an import cycle. ecdsa-sd-2023 always
// canonicalizes with RDFC-1.0, so UsesContext is expected to report true.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, doc any) ([]byte, error)
	UsesContext() bool
}

// Suite binds the ecdsa-sd-2023 engines to a canonicalizer, JSON-LD
// document loader and buffer pool. Workers bounds how many goroutines
// CreateBaseProof uses to sign non-mandatory statements concurrently; 0 or 1
// signs sequentially.
type Suite struct {
	Canon   Canonicalizer
	Loader  ld.DocumentLoader
	Pool    *pool.Pool
	Workers int
}

// New builds a Suite. A nil pool gets a private default.
func New(canon Canonicalizer, loader ld.DocumentLoader, p *pool.Pool, workers int) *Suite {
	if p == nil {
		p = pool.New(0)
	}
	return &Suite{Canon: canon, Loader: loader, Pool: p, Workers: workers}
}

// hashStatements hashes the concatenation of stmts, each followed by a
// newline, matching N-Quads' own line-oriented serialization. Shared by the
// base-proof generator's mandatory hash and the verifier's reconstruction of
// it, so the two sides are hashing byte-identical input by construction.
func hashStatements(stmts []string) [32]byte {
	var buf bytes.Buffer
	for _, s := range stmts {
		buf.WriteString(s)
		buf.WriteByte('\n')
	}
	return sha256.Sum256(buf.Bytes())
}

// sortedIntKeys returns the true keys of m in ascending order.
func sortedIntKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// pointerStrings converts a slice of prepare.Pointer to plain strings, for
// the MandatoryPointers field carried in the CBOR proof tuple.
func pointerStrings(pointers []prepare.Pointer) []string {
	out := make([]string, len(pointers))
	for i, p := range pointers {
		out[i] = string(p)
	}
	return out
}

// toPointers converts plain strings back to prepare.Pointer.
func toPointers(strs []string) []prepare.Pointer {
	out := make([]prepare.Pointer, len(strs))
	for i, s := range strs {
		out[i] = prepare.Pointer(s)
	}
	return out
}
