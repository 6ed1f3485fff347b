package mock

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
	"github.com/drand/go-verifier/verify"
)

// NewMockResult creates a beacon whose fields are well formed but which does
// not verify under any key.
func NewMockResult(round uint64) drand.Beacon {
	sig := make([]byte, 8)
	binary.LittleEndian.PutUint64(sig, round)
	prev := make([]byte, verify.PreviousLength)
	binary.BigEndian.PutUint64(prev, round-1)
	return drand.Beacon{
		Round:      round,
		Previous:   hex.EncodeToString(prev),
		Signature:  hex.EncodeToString(sig),
		Randomness: verify.Randomness(crypto.StdHasher{}, sig),
	}
}

// AssertValid checks that b was produced by NewMockResult.
func AssertValid(t *testing.T, b *drand.Beacon) {
	t.Helper()
	want := NewMockResult(b.Round)
	if *b != want {
		t.Fatalf("expected beacon %v, got %v", &want, b)
	}
}

// Chain produces verifiable beacons the way a beacon group does: a threshold
// of members sign each round message and the shares are recovered into the
// group signature. The previous hash of a round is the SHA-256 of the
// previous signature.
type Chain struct {
	scheme   crypto.Scheme
	hasher   crypto.Hasher
	group    crypto.ThresholdGroup
	distKey  string
	round    uint64
	previous []byte
}

// NewChain deals a t-of-n group. genesis is the previous hash of round 1; a
// nil genesis is replaced by random bytes.
func NewChain(sch crypto.Scheme, t, n int, genesis []byte) (*Chain, error) {
	g, err := sch.NewThresholdGroup(t, n)
	if err != nil {
		return nil, err
	}
	key, err := g.PublicKey().MarshalBinary()
	if err != nil {
		return nil, err
	}
	if genesis == nil {
		genesis = make([]byte, verify.PreviousLength)
		if _, err := rand.Read(genesis); err != nil {
			return nil, err
		}
	}
	return &Chain{
		scheme:   sch,
		hasher:   crypto.StdHasher{},
		group:    g,
		distKey:  hex.EncodeToString(key),
		previous: genesis,
	}, nil
}

// DistKey returns the hex encoded distributed key of the group.
func (c *Chain) DistKey() string {
	return c.distKey
}

// Group returns the signing group.
func (c *Chain) Group() crypto.ThresholdGroup {
	return c.group
}

// Next produces the beacon following the last produced one.
func (c *Chain) Next() (*drand.Beacon, error) {
	b, sig, err := c.Sign(c.round+1, c.previous)
	if err != nil {
		return nil, err
	}
	c.round++
	c.previous = c.hasher.Sum256(sig)
	return b, nil
}

// Sign produces the beacon of round with the given previous hash without
// advancing the chain.
func (c *Chain) Sign(round uint64, previous []byte) (*drand.Beacon, []byte, error) {
	msg, err := verify.MessageFromBytes(c.hasher, previous, round)
	if err != nil {
		return nil, nil, err
	}
	partials := make([][]byte, 0, c.group.Threshold())
	for i := 0; i < c.group.Threshold(); i++ {
		p, err := c.group.PartialSign(i, msg)
		if err != nil {
			return nil, nil, fmt.Errorf("partial signature %d: %w", i, err)
		}
		partials = append(partials, p)
	}
	sig, err := c.group.Recover(msg, partials)
	if err != nil {
		return nil, nil, err
	}
	return &drand.Beacon{
		Round:      round,
		Previous:   hex.EncodeToString(previous),
		Signature:  hex.EncodeToString(sig),
		Randomness: verify.Randomness(c.hasher, sig),
	}, sig, nil
}

// VerifiableResults creates count consecutive beacons from a fresh 2-of-3
// group and returns them with the group's distributed key.
func VerifiableResults(count int, sch crypto.Scheme) (string, []drand.Beacon) {
	c, err := NewChain(sch, 2, 3, nil)
	if err != nil {
		panic(err)
	}
	out := make([]drand.Beacon, count)
	for i := range out {
		b, err := c.Next()
		if err != nil {
			panic(err)
		}
		out[i] = *b
	}
	return c.DistKey(), out
}
