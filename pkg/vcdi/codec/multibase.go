// Package codec implements the proof-value wire encodings: multibase over
// raw signature bytes (no multicodec header) for full-disclosure and SD
// proofValue strings, and canonical-CBOR framing for the SD base/derived
// proof tuples.
package codec

import (
	"vcdi/pkg/vcdi/pool"
	"vcdi/pkg/vcdi/vcerrors"

	"github.com/multiformats/go-multibase"
)

// EncodeBase58BTC multibase-encodes raw signature bytes with the `z` prefix,
// used by the full-disclosure suites.
func EncodeBase58BTC(sig []byte) (string, error) {
	return multibase.Encode(multibase.Base58BTC, sig)
}

// EncodeBase64UrlNoPad multibase-encodes raw bytes with the `u` prefix,
// used by the SD proofValue (which wraps a CBOR tuple, not a raw signature).
func EncodeBase64UrlNoPad(data []byte) (string, error) {
	return multibase.Encode(multibase.Base64url, data)
}

// Decode decodes a multibase string into a pool-owned buffer. Empty input
// or an unknown prefix is MalformedProofValue.
func Decode(p *pool.Pool, s string) (*pool.Buffer, error) {
	if len(s) == 0 {
		return nil, vcerrors.New(vcerrors.KindMalformedProofValue, "proofValue is empty")
	}
	_, data, err := multibase.Decode(s)
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindMalformedProofValue, "proofValue has an unknown multibase prefix", err)
	}
	return p.Wrap(data), nil
}
