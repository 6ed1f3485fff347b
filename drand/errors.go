package drand

import (
	"errors"
)

// Causes of a failed verification. The verifier never returns them to its
// caller; they classify the outcome for logs and metrics.
var (
	// ErrEncoding means a hex input (previous, signature or key) is malformed
	// or has an unexpected length.
	ErrEncoding = errors.New("invalid encoding")
	// ErrKeyDeserialization means the distributed key is not a point of the
	// scheme's key group.
	ErrKeyDeserialization = errors.New("invalid distributed key")
	// ErrSignatureVerification means the pairing check rejected the signature.
	ErrSignatureVerification = errors.New("invalid signature")
	// ErrHashMismatch means the claimed randomness is not the hash of the signature.
	ErrHashMismatch = errors.New("randomness does not match signature")
)

// ErrVerification is returned by sessions when a fetched beacon does not verify.
var ErrVerification = errors.New("beacon verification failed")

// ErrClientClosed means the source was closed.
var ErrClientClosed = errors.New("client closed")

// ErrNoDistKey means no distributed key was configured nor could be fetched.
var ErrNoDistKey = errors.New("no distributed key available")

// ErrRoundMismatch means a source answered with another round than requested.
var ErrRoundMismatch = errors.New("round mismatch")
