package canonical

import (
	"context"
	"encoding/json"
	"fmt"

	"vcdi/pkg/vcdi/vcerrors"

	"github.com/gowebpki/jcs"
)

// JCS canonicalizes plain JSON trees per RFC 8785: object keys sorted,
// numbers and strings reformatted deterministically, no whitespace. Used by
// eddsa-jcs-2022, which never includes @context in its proof options.
type JCS struct{}

// NewJCS builds a JCS canonicalizer.
func NewJCS() *JCS { return &JCS{} }

func (c *JCS) UsesContext() bool { return false }

// Canonicalize marshals doc to JSON, then runs RFC 8785 transcoding over it.
func (c *JCS) Canonicalize(ctx context.Context, doc any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindCancelled, "canonicalization cancelled", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("canonical: marshaling document for JCS: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonical: JCS transform failed: %w", err)
	}
	return out, nil
}
