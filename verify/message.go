package verify

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
)

const (
	// PreviousLength is the size of the decoded previous round hash.
	PreviousLength = 32
	// LengthMsg is the size of the message signed by the beacon nodes.
	LengthMsg = 32

	roundLength = 8
)

// Message returns the message signed by the beacon nodes for round, given the
// hex encoded hash output of the previous round:
//
//	H( round (8 bytes, big endian) || previous )
//
// previous must decode to exactly PreviousLength bytes.
func Message(h crypto.Hasher, previous string, round uint64) ([]byte, error) {
	prev, err := hex.DecodeString(previous)
	if err != nil {
		return nil, fmt.Errorf("%w: previous: %v", drand.ErrEncoding, err)
	}
	return MessageFromBytes(h, prev, round)
}

// MessageFromBytes is Message for an already decoded previous hash.
func MessageFromBytes(h crypto.Hasher, previous []byte, round uint64) ([]byte, error) {
	if len(previous) != PreviousLength {
		return nil, fmt.Errorf("%w: previous is %d bytes, expected %d", drand.ErrEncoding, len(previous), PreviousLength)
	}
	preimage := make([]byte, roundLength+PreviousLength)
	binary.BigEndian.PutUint64(preimage, round)
	copy(preimage[roundLength:], previous)
	return h.Sum256(preimage), nil
}

// Randomness derives the randomness of a round from its signature: the lower
// case hex encoding of the SHA-512 digest of the raw signature.
func Randomness(h crypto.Hasher, sig []byte) string {
	return hex.EncodeToString(h.Sum512(sig))
}
