// Package keys models the opaque PublicKey/PrivateKey handles the core
// consumes, each tagged with an algorithm identifier, and their Multikey
// wire encoding. Raw curve operations are delegated to crypto/ecdsa,
// crypto/ed25519 and crypto/elliptic; this package only handles the
// encode/decode/tagging around them.
package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/multiformats/go-multibase"
)

// Algorithm tags a key handle with the signature algorithm it belongs to.
type Algorithm string

const (
	AlgEd25519 Algorithm = "Ed25519"
	AlgP256    Algorithm = "P-256"
	AlgP384    Algorithm = "P-384"
)

// Multikey multicodec header values.
// See: https://www.w3.org/TR/vc-data-integrity/#multikey
const (
	MulticodecEd25519PubKey  = 0xed
	MulticodecEd25519PrivKey = 0x1300
	MulticodecP256PubKey     = 0x1200
	MulticodecP384PubKey     = 0x1201
	MulticodecP256PrivKey    = 0x1306
	MulticodecP384PrivKey    = 0x1307
)

// EphemeralKeyHeader is the 2-byte multicodec prefix for a compressed P-256
// public key used as an SD ephemeral proof key.
var EphemeralKeyHeader = [2]byte{0x80, 0x24}

// PublicKey is an opaque, algorithm-tagged public key handle.
type PublicKey struct {
	Algorithm Algorithm
	Ed25519   ed25519.PublicKey
	ECDSA     *ecdsa.PublicKey
}

// PrivateKey is an opaque, algorithm-tagged private key handle. Callers own
// the zeroizing of the underlying material; this package never copies it
// more than required by the stdlib API it delegates to.
type PrivateKey struct {
	Algorithm Algorithm
	Ed25519   ed25519.PrivateKey
	ECDSA     *ecdsa.PrivateKey
}

func curveFor(alg Algorithm) (elliptic.Curve, int, error) {
	switch alg {
	case AlgP256:
		return elliptic.P256(), 32, nil
	case AlgP384:
		return elliptic.P384(), 48, nil
	default:
		return nil, 0, fmt.Errorf("keys: unsupported ECDSA algorithm %q", alg)
	}
}

// EncodeMultikey encodes a public key handle as a Multikey string
// (multibase base58btc over multicodec || uncompressed-or-raw key bytes).
func EncodeMultikey(pk *PublicKey) (string, error) {
	if pk == nil {
		return "", fmt.Errorf("keys: public key is nil")
	}

	var multicodec uint64
	var body []byte

	switch pk.Algorithm {
	case AlgEd25519:
		if len(pk.Ed25519) != ed25519.PublicKeySize {
			return "", fmt.Errorf("keys: invalid ed25519 public key length")
		}
		multicodec = MulticodecEd25519PubKey
		body = append([]byte(nil), pk.Ed25519...)
	case AlgP256, AlgP384:
		if pk.ECDSA == nil {
			return "", fmt.Errorf("keys: ECDSA public key is nil")
		}
		_, size, err := curveFor(pk.Algorithm)
		if err != nil {
			return "", err
		}
		if pk.Algorithm == AlgP256 {
			multicodec = MulticodecP256PubKey
		} else {
			multicodec = MulticodecP384PubKey
		}
		body = marshalUncompressed(pk.ECDSA, size)
	default:
		return "", fmt.Errorf("keys: unsupported algorithm %q", pk.Algorithm)
	}

	return encodeMultibaseWithCodec(multicodec, body)
}

// DecodeMultikeyPublic decodes a Multikey string into a public key handle.
func DecodeMultikeyPublic(multikey string) (*PublicKey, error) {
	multicodec, body, err := decodeMultibaseWithCodec(multikey)
	if err != nil {
		return nil, err
	}

	switch multicodec {
	case MulticodecEd25519PubKey:
		if len(body) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("keys: invalid ed25519 public key length %d", len(body))
		}
		return &PublicKey{Algorithm: AlgEd25519, Ed25519: ed25519.PublicKey(body)}, nil
	case MulticodecP256PubKey, MulticodecP384PubKey:
		alg := AlgP256
		if multicodec == MulticodecP384PubKey {
			alg = AlgP384
		}
		curve, size, _ := curveFor(alg)
		x, y, err := unmarshalPoint(curve, size, body)
		if err != nil {
			return nil, err
		}
		return &PublicKey{Algorithm: alg, ECDSA: &ecdsa.PublicKey{Curve: curve, X: x, Y: y}}, nil
	default:
		return nil, fmt.Errorf("keys: unsupported multicodec 0x%x", multicodec)
	}
}

// DecodeMultikeyPrivate decodes a Multikey string into a private key handle.
func DecodeMultikeyPrivate(multikey string) (*PrivateKey, error) {
	multicodec, body, err := decodeMultibaseWithCodec(multikey)
	if err != nil {
		return nil, err
	}

	switch multicodec {
	case MulticodecEd25519PrivKey:
		switch len(body) {
		case ed25519.SeedSize:
			return &PrivateKey{Algorithm: AlgEd25519, Ed25519: ed25519.NewKeyFromSeed(body)}, nil
		case ed25519.PrivateKeySize:
			return &PrivateKey{Algorithm: AlgEd25519, Ed25519: ed25519.PrivateKey(body)}, nil
		default:
			return nil, fmt.Errorf("keys: invalid ed25519 private key length %d", len(body))
		}
	case MulticodecP256PrivKey, MulticodecP384PrivKey:
		alg := AlgP256
		if multicodec == MulticodecP384PrivKey {
			alg = AlgP384
		}
		curve, size, _ := curveFor(alg)
		if len(body) != size {
			return nil, fmt.Errorf("keys: invalid private key length for %s: got %d, want %d", alg, len(body), size)
		}
		d := new(big.Int).SetBytes(body)
		priv := &ecdsa.PrivateKey{PublicKey: ecdsa.PublicKey{Curve: curve}, D: d}
		priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(body)
		return &PrivateKey{Algorithm: alg, ECDSA: priv}, nil
	default:
		return nil, fmt.Errorf("keys: unsupported multicodec 0x%x", multicodec)
	}
}

// MarshalCompressedEphemeral encodes a P-256 public key as the 35-byte
// ephemeral-key wire form used inside SD proof values: the 2-byte
// multicodec header 0x80 0x24 followed by the 33-byte compressed point.
func MarshalCompressedEphemeral(pub *ecdsa.PublicKey) ([]byte, error) {
	if pub == nil || pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("keys: ephemeral key must be a P-256 public key")
	}
	compressed := elliptic.MarshalCompressed(elliptic.P256(), pub.X, pub.Y)
	out := make([]byte, 0, 2+len(compressed))
	out = append(out, EphemeralKeyHeader[0], EphemeralKeyHeader[1])
	out = append(out, compressed...)
	return out, nil
}

// ParseCompressedEphemeral decodes the wire form produced by
// MarshalCompressedEphemeral.
func ParseCompressedEphemeral(data []byte) (*ecdsa.PublicKey, error) {
	if len(data) < 2 || data[0] != EphemeralKeyHeader[0] || data[1] != EphemeralKeyHeader[1] {
		return nil, fmt.Errorf("keys: ephemeral key missing 0x80 0x24 multicodec header")
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), data[2:])
	if x == nil {
		return nil, fmt.Errorf("keys: ephemeral key is not a valid compressed P-256 point")
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}

func marshalUncompressed(pub *ecdsa.PublicKey, size int) []byte {
	xb := pub.X.Bytes()
	yb := pub.Y.Bytes()
	xp := make([]byte, size)
	yp := make([]byte, size)
	copy(xp[size-len(xb):], xb)
	copy(yp[size-len(yb):], yb)
	out := make([]byte, 0, 1+2*size)
	out = append(out, 0x04)
	out = append(out, xp...)
	out = append(out, yp...)
	return out
}

func unmarshalPoint(curve elliptic.Curve, size int, body []byte) (*big.Int, *big.Int, error) {
	if len(body) == 0 {
		return nil, nil, fmt.Errorf("keys: empty key body")
	}
	prefix := body[0]
	rest := body[1:]

	var x, y *big.Int
	switch prefix {
	case 0x04:
		if len(rest) != size*2 {
			return nil, nil, fmt.Errorf("keys: invalid uncompressed key length: got %d, want %d", len(rest), size*2)
		}
		x = new(big.Int).SetBytes(rest[:size])
		y = new(big.Int).SetBytes(rest[size:])
	case 0x02, 0x03:
		if len(rest) != size {
			return nil, nil, fmt.Errorf("keys: invalid compressed key length: got %d, want %d", len(rest), size)
		}
		x = new(big.Int).SetBytes(rest)
		params := curve.Params()
		x3 := new(big.Int).Mul(x, x)
		x3.Mul(x3, x)
		threeX := new(big.Int).Mul(x, big.NewInt(3))
		x3.Sub(x3, threeX)
		x3.Add(x3, params.B)
		x3.Mod(x3, params.P)
		y = new(big.Int).ModSqrt(x3, params.P)
		if y == nil {
			return nil, nil, fmt.Errorf("keys: compressed key is not a point on the curve")
		}
		if (y.Bit(0) == 1) != (prefix == 0x03) {
			y.Sub(params.P, y)
		}
	default:
		return nil, nil, fmt.Errorf("keys: unsupported key format prefix 0x%02x", prefix)
	}

	if !curve.IsOnCurve(x, y) {
		return nil, nil, fmt.Errorf("keys: point is not on the curve")
	}
	return x, y, nil
}

func encodeMultibaseWithCodec(multicodec uint64, body []byte) (string, error) {
	header := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(header, multicodec)
	out := make([]byte, 0, n+len(body))
	out = append(out, header[:n]...)
	out = append(out, body...)
	return multibase.Encode(multibase.Base58BTC, out)
}

func decodeMultibaseWithCodec(multikey string) (uint64, []byte, error) {
	if len(multikey) == 0 {
		return 0, nil, fmt.Errorf("keys: multikey is empty")
	}
	_, decoded, err := multibase.Decode(multikey)
	if err != nil {
		return 0, nil, fmt.Errorf("keys: multibase decode failed: %w", err)
	}
	multicodec, n := binary.Uvarint(decoded)
	if n <= 0 {
		return 0, nil, fmt.Errorf("keys: invalid multicodec varint")
	}
	return multicodec, decoded[n:], nil
}

// GetCurveName returns the named curve for an ECDSA public key, used to
// pick the verification-method type when publishing key material.
func GetCurveName(pub *ecdsa.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("keys: public key is nil")
	}
	return pub.Curve.Params().Name, nil
}
