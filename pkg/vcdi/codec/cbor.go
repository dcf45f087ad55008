package codec

import (
	"bytes"

	"vcdi/pkg/vcdi/vcerrors"

	"github.com/fxamacker/cbor/v2"
)

// Tag headers for the two SD proof value shapes. Each is a 3-byte canonical
// CBOR tag (major type 6) prepended before the tuple bytes.
var (
	BaseProofTag    = [3]byte{0xd9, 0x5d, 0x00}
	DerivedProofTag = [3]byte{0xd9, 0x5d, 0x01}
)

// BaseProofValue is the issuer-emitted SD base proof tuple, encoded as a
// CBOR array (not a map) so the wire form is exactly
// (baseSignature, ephemeralPublicKey, hmacKey, signatures[], mandatoryPointers[]).
type BaseProofValue struct {
	_                 struct{} `cbor:",toarray"`
	BaseSignature     []byte
	EphemeralPubKey   []byte
	HMACKey           []byte
	Signatures        [][]byte
	MandatoryPointers []string
}

// DerivedProofValue is the holder-emitted SD derived proof tuple:
// (baseSignature, ephemeralPublicKey, disclosedSignatures[], labelMap, mandatoryIndexes[]).
type DerivedProofValue struct {
	_                struct{} `cbor:",toarray"`
	BaseSignature    []byte
	EphemeralPubKey  []byte
	Signatures       [][]byte
	LabelMap         map[string]string
	MandatoryIndexes []int
}

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// EncodeBaseProof frames and canonically CBOR-encodes a base proof tuple.
func EncodeBaseProof(v BaseProofValue) ([]byte, error) {
	body, err := encMode.Marshal(v)
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "encoding base proof CBOR", err)
	}
	return frame(BaseProofTag, body), nil
}

// EncodeDerivedProof frames and canonically CBOR-encodes a derived proof tuple.
func EncodeDerivedProof(v DerivedProofValue) ([]byte, error) {
	body, err := encMode.Marshal(v)
	if err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindInvalidArgument, "encoding derived proof CBOR", err)
	}
	return frame(DerivedProofTag, body), nil
}

// DecodeBaseProof validates the tag header and decodes a base proof tuple.
func DecodeBaseProof(data []byte) (*BaseProofValue, error) {
	body, err := unframe(BaseProofTag, data)
	if err != nil {
		return nil, err
	}
	var v BaseProofValue
	if err := cbor.Unmarshal(body, &v); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindMalformedProofValue, "decoding base proof CBOR", err)
	}
	return &v, nil
}

// DecodeDerivedProof validates the tag header and decodes a derived proof tuple.
func DecodeDerivedProof(data []byte) (*DerivedProofValue, error) {
	body, err := unframe(DerivedProofTag, data)
	if err != nil {
		return nil, err
	}
	var v DerivedProofValue
	if err := cbor.Unmarshal(body, &v); err != nil {
		return nil, vcerrors.Wrap(vcerrors.KindMalformedProofValue, "decoding derived proof CBOR", err)
	}
	return &v, nil
}

func frame(tag [3]byte, body []byte) []byte {
	out := make([]byte, 0, 3+len(body))
	out = append(out, tag[:]...)
	out = append(out, body...)
	return out
}

func unframe(tag [3]byte, data []byte) ([]byte, error) {
	if len(data) < 3 {
		return nil, vcerrors.New(vcerrors.KindMalformedProofValue, "proof value shorter than tag header")
	}
	if !bytes.Equal(data[:3], tag[:]) {
		return nil, vcerrors.New(vcerrors.KindWrongProofKind, "proof value CBOR tag does not match expected kind")
	}
	return data[3:], nil
}
