package client

import (
	"time"

	"github.com/drand/go-verifier/drand"
)

// Result is a beacon that verified against the distributed key of the
// session that returned it.
type Result struct {
	drand.Beacon
	// VerifiedAt is the session clock time at which the beacon verified.
	VerifiedAt time.Time `json:"-"`
}

// GetRound provides access to the round associated with this random data.
func (r *Result) GetRound() uint64 {
	return r.Round
}

// GetRandomness exports the hex encoded randomness of the round.
func (r *Result) GetRandomness() string {
	return r.Randomness
}
