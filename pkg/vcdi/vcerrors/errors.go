// Package vcerrors defines the error-kind taxonomy shared by every pkg/vcdi
// component, following the same sentinel-error idiom as the rest of this
// codebase: callers distinguish failure modes with errors.Is, not type
// assertions.
package vcerrors

import "errors"

// Kind classifies a verification failure so callers can distinguish "bad
// signature" from "I/O failure" without parsing error strings.
type Kind int

const (
	_ Kind = iota
	KindNoProof
	KindMissingCryptosuite
	KindMissingVerificationMethod
	KindVerificationMethodNotFound
	KindSignatureInvalid
	KindUnknownCryptosuite
	KindMalformedProofValue
	KindWrongProofKind
	KindCountMismatch
	KindLabelMapAmbiguous
	KindRegistryNotInitialised
	KindCancelled
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNoProof:
		return "NoProof"
	case KindMissingCryptosuite:
		return "MissingCryptosuite"
	case KindMissingVerificationMethod:
		return "MissingVerificationMethod"
	case KindVerificationMethodNotFound:
		return "VerificationMethodNotFound"
	case KindSignatureInvalid:
		return "SignatureInvalid"
	case KindUnknownCryptosuite:
		return "UnknownCryptosuite"
	case KindMalformedProofValue:
		return "MalformedProofValue"
	case KindWrongProofKind:
		return "WrongProofKind"
	case KindCountMismatch:
		return "CountMismatch"
	case KindLabelMapAmbiguous:
		return "LabelMapAmbiguous"
	case KindRegistryNotInitialised:
		return "RegistryNotInitialised"
	case KindCancelled:
		return "Cancelled"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error pairs a Kind with the sentinel it wraps, so errors.Is(err,
// ErrSignatureInvalid) and a Kind-based switch both work off the same value.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this Kind, so
// errors.Is(err, vcerrors.ErrSignatureInvalid) works against a wrapped
// *Error the same way it would against a plain sentinel.
func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && errors.Is(sentinel, target)
}

// New builds an *Error for the given Kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error for the given Kind, wrapping a collaborator error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels, one per Kind, for plain errors.Is comparisons against static
// vcerrors.ErrXxx values.
var (
	ErrNoProof                     = errors.New("no proof present on credential")
	ErrMissingCryptosuite          = errors.New("proof is missing cryptosuite")
	ErrMissingVerificationMethod   = errors.New("proof is missing verificationMethod")
	ErrVerificationMethodNotFound  = errors.New("verification method could not be resolved")
	ErrSignatureInvalid            = errors.New("signature verification failed")
	ErrUnknownCryptosuite          = errors.New("cryptosuite is not registered")
	ErrMalformedProofValue         = errors.New("proof value is malformed")
	ErrWrongProofKind              = errors.New("proof value CBOR tag does not match expected kind")
	ErrCountMismatch               = errors.New("statement or blank-node counts do not match")
	ErrLabelMapAmbiguous           = errors.New("reduced-credential label map assignment is ambiguous")
	ErrRegistryNotInitialised      = errors.New("registry has not been frozen")
	ErrCancelled                   = errors.New("operation was cancelled")
	ErrInvalidArgument             = errors.New("invalid argument")
)

var sentinels = map[Kind]error{
	KindNoProof:                    ErrNoProof,
	KindMissingCryptosuite:         ErrMissingCryptosuite,
	KindMissingVerificationMethod:  ErrMissingVerificationMethod,
	KindVerificationMethodNotFound: ErrVerificationMethodNotFound,
	KindSignatureInvalid:           ErrSignatureInvalid,
	KindUnknownCryptosuite:         ErrUnknownCryptosuite,
	KindMalformedProofValue:        ErrMalformedProofValue,
	KindWrongProofKind:             ErrWrongProofKind,
	KindCountMismatch:              ErrCountMismatch,
	KindLabelMapAmbiguous:          ErrLabelMapAmbiguous,
	KindRegistryNotInitialised:     ErrRegistryNotInitialised,
	KindCancelled:                  ErrCancelled,
	KindInvalidArgument:            ErrInvalidArgument,
}

// VerifyResult is a sum of Valid or Invalid-with-reason. It is
// returned by verify paths instead of a bare error, so callers can't
// accidentally treat a failed verification as a Go error and log-and-continue
// past it.
type VerifyResult struct {
	Valid  bool
	Reason Kind
	Detail error
}

// Ok builds a successful VerifyResult.
func Ok() VerifyResult { return VerifyResult{Valid: true} }

// Invalid builds a failed VerifyResult for the given reason.
func Invalid(reason Kind, detail error) VerifyResult {
	return VerifyResult{Valid: false, Reason: reason, Detail: detail}
}

// AsError converts a failed VerifyResult to an error, for call sites that
// want the errors.Is idiom instead of branching on Valid.
func (r VerifyResult) AsError() error {
	if r.Valid {
		return nil
	}
	return Wrap(r.Reason, "credential verification failed", r.Detail)
}
