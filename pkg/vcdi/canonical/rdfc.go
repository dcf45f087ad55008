package canonical

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"vcdi/pkg/vcdi/vcerrors"

	"github.com/piprate/json-gold/ld"
)

// RDFC canonicalizes JSON-LD documents to sorted canonical N-Quads via the
// RDFC-1.0 (URDNA2015) algorithm.
type RDFC struct {
	options *ld.JsonLdOptions
}

// NewRDFC builds an RDFC canonicalizer. loader resolves JSON-LD @context
// documents; pass nil to use json-gold's default (network-fetching) loader.
func NewRDFC(loader ld.DocumentLoader) *RDFC {
	opts := ld.NewJsonLdOptions("")
	opts.Algorithm = ld.AlgorithmURDNA2015
	opts.Format = "application/n-quads"
	if loader != nil {
		opts.DocumentLoader = loader
	}
	return &RDFC{options: opts}
}

func (c *RDFC) UsesContext() bool { return true }

// Canonicalize expands and normalizes doc, returning canonical N-Quads.
func (c *RDFC) Canonicalize(ctx context.Context, doc any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindCancelled, "canonicalization cancelled", err)
	}

	proc := ld.NewJsonLdProcessor()
	normalized, err := proc.Normalize(doc, c.options)
	if err != nil {
		return nil, fmt.Errorf("canonical: RDFC-1.0 normalization failed: %w", err)
	}
	nquads, ok := normalized.(string)
	if !ok {
		return nil, fmt.Errorf("canonical: unexpected normalization result type %T", normalized)
	}
	return []byte(nquads), nil
}

// CanonicalizeToDataset canonicalizes doc and parses the result into a
// Dataset for statement-level manipulation (partitioning, relabeling).
func (c *RDFC) CanonicalizeToDataset(ctx context.Context, doc any) (*Dataset, error) {
	nquads, err := c.Canonicalize(ctx, doc)
	if err != nil {
		return nil, err
	}
	return ParseNQuads(string(nquads))
}

// Hash returns the hex SHA-256 hash of doc's canonical form.
func (c *RDFC) Hash(ctx context.Context, doc any) (string, error) {
	canonicalBytes, err := c.Canonicalize(ctx, doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonicalBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Dataset is a parsed set of N-Quad statements, in the order the
// canonicalizer emitted them (already byte-lexicographically sorted by
// URDNA2015).
type Dataset struct {
	Statements []string
}

// ParseNQuads splits a canonical N-Quads document into individual statement
// lines, each still terminated by " .".
func ParseNQuads(nquads string) (*Dataset, error) {
	lines := strings.Split(strings.TrimRight(nquads, "\n"), "\n")
	stmts := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		stmts = append(stmts, line)
	}
	return &Dataset{Statements: stmts}, nil
}

// Sorted returns a byte-lexicographically sorted copy of statements. URDNA2015
// output is already sorted, but relabeling changes the byte content, so
// the prepared-statement pipeline re-sorts after relabeling.
func Sorted(statements []string) []string {
	out := append([]string(nil), statements...)
	sort.Strings(out)
	return out
}
