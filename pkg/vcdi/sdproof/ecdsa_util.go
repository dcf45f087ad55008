package sdproof

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"vcdi/pkg/vcdi/vcerrors"
)

// SignP256 hashes data with SHA-256 and signs it with priv, returning the raw
// r||s encoding (IEEE P1363), each half zero-padded to the curve's byte
// length - 64 bytes total for P-256, never ASN.1 DER, so the signature can
// sit inside a fixed-shape CBOR tuple. Exported so the crypto function
// registry can register the same routine under the P-256 algorithm tag.
func SignP256(priv *ecdsa.PrivateKey, data []byte) ([]byte, error) {
	if priv == nil {
		return nil, vcerrors.New(vcerrors.KindInvalidArgument, "ECDSA private key is nil")
	}
	hash := sha256.Sum256(data)
	r, s, err := ecdsa.Sign(rand.Reader, priv, hash[:])
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "signing with ECDSA P-256 key", err)
	}

	curveByteLen := (priv.Curve.Params().BitSize + 7) / 8
	sig := make([]byte, 2*curveByteLen)
	rBytes, sBytes := r.Bytes(), s.Bytes()
	copy(sig[curveByteLen-len(rBytes):curveByteLen], rBytes)
	copy(sig[2*curveByteLen-len(sBytes):], sBytes)
	return sig, nil
}

// VerifyP256 is the matching verification half of SignP256.
func VerifyP256(pub *ecdsa.PublicKey, data, sig []byte) (bool, error) {
	if pub == nil {
		return false, vcerrors.New(vcerrors.KindInvalidArgument, "ECDSA public key is nil")
	}
	curveByteLen := (pub.Curve.Params().BitSize + 7) / 8
	if len(sig) != 2*curveByteLen {
		return false, vcerrors.New(vcerrors.KindMalformedProofValue, "ECDSA signature has the wrong length for this curve")
	}

	r := new(big.Int).SetBytes(sig[:curveByteLen])
	s := new(big.Int).SetBytes(sig[curveByteLen:])
	hash := sha256.Sum256(data)
	return ecdsa.Verify(pub, hash[:], r, s), nil
}
