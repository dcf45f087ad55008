// Package relabel implements the HMAC-based blank-node relabeling step of
// the selective-disclosure pipeline: canonical blank-node identifiers
// (_:c14n<N>) are replaced by HMAC-derived, base64url-no-pad identifiers so
// that the disclosed statements don't leak the issuer's original
// canonicalization order.
package relabel

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"regexp"

	"vcdi/pkg/vcdi/vcerrors"
)

// blankNodePattern matches _:c14n<digits> occurrences in an N-Quad statement.
var blankNodePattern = regexp.MustCompile(`_:c14n[0-9]+`)

// HMACKeySize is the key length the relabeler requires (32 bytes, per the
// base-proof generator contract).
const HMACKeySize = 32

// GenerateKey produces a fresh 32-byte HMAC key via crypto/rand, for the
// base-proof engine's default key source.
func GenerateKey() ([]byte, error) {
	key := make([]byte, HMACKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "generating HMAC relabel key", err)
	}
	return key, nil
}

func hmacID(canonicalID string, hmacKey []byte) string {
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte(canonicalID))
	return "u" + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Relabel HMAC-relabels every blank node in statements under hmacKey,
// returning the relabeled statements and the canonicalID -> hmacID label
// map (bare form, without the "_:" prefix).
func Relabel(statements []string, hmacKey []byte) (relabeled []string, labelMap map[string]string, err error) {
	labelMap = make(map[string]string)
	relabeled = make([]string, len(statements))

	for i, stmt := range statements {
		relabeled[i] = blankNodePattern.ReplaceAllStringFunc(stmt, func(match string) string {
			canonicalID := match[2:] // strip "_:"
			id, ok := labelMap[canonicalID]
			if !ok {
				id = hmacID(canonicalID, hmacKey)
				labelMap[canonicalID] = id
			}
			return "_:" + id
		})
	}
	return relabeled, labelMap, nil
}

// ApplyLabelMap relabels statements using a previously computed label map
// instead of recomputing HMACs. Blank nodes whose canonical id is absent
// from the map are left untouched, matching the verifier/derive path
// contract.
func ApplyLabelMap(statements []string, labelMap map[string]string) []string {
	out := make([]string, len(statements))
	for i, stmt := range statements {
		out[i] = blankNodePattern.ReplaceAllStringFunc(stmt, func(match string) string {
			canonicalID := match[2:]
			if id, ok := labelMap[canonicalID]; ok {
				return "_:" + id
			}
			return match
		})
	}
	return out
}

// ExtractLabelMap recovers the canonicalID -> hmacID map by positional
// comparison of an original statement list against its relabeled
// counterpart. Fails with CountMismatch if the statement counts differ or
// the blank-node counts within any paired statement differ.
func ExtractLabelMap(original, relabeled []string) (map[string]string, error) {
	if len(original) != len(relabeled) {
		return nil, vcerrors.New(vcerrors.KindCountMismatch, "original and relabeled statement counts differ")
	}

	labelMap := make(map[string]string)
	for i := range original {
		origMatches := blankNodePattern.FindAllString(original[i], -1)
		relMatches := hmacIDPattern.FindAllString(relabeled[i], -1)
		if len(origMatches) != len(relMatches) {
			return nil, vcerrors.New(vcerrors.KindCountMismatch, "blank-node counts differ within a statement pair")
		}
		for j, orig := range origMatches {
			canonicalID := orig[2:]
			hmacLabel := relMatches[j][2:]
			if existing, ok := labelMap[canonicalID]; ok && existing != hmacLabel {
				return nil, vcerrors.New(vcerrors.KindCountMismatch, "inconsistent relabeling for a canonical id")
			}
			labelMap[canonicalID] = hmacLabel
		}
	}
	return labelMap, nil
}

var hmacIDPattern = regexp.MustCompile(`_:u[A-Za-z0-9_-]+`)
