package drand

import (
	"fmt"
	"time"
)

// Beacon is the public randomness of one round as served by a beacon node.
// All byte fields stay hex encoded: verification decodes them itself so that
// malformed data is reported as a failed verification.
type Beacon struct {
	Round      uint64 `json:"round"`
	Previous   string `json:"previous"`
	Signature  string `json:"signature"`
	Randomness string `json:"randomness"`
}

// GetRound returns the round of the beacon.
func (b *Beacon) GetRound() uint64 {
	return b.Round
}

func (b *Beacon) String() string {
	return fmt.Sprintf("{ round: %d, sig: %s, prev: %s }", b.Round, short(b.Signature), short(b.Previous))
}

func short(s string) string {
	if len(s) > 6 {
		return s[:6]
	}
	return s
}

// DistKey is the answer of the distributed key endpoint.
type DistKey struct {
	Key string `json:"key"`
}

// Node is a member of a beacon group.
type Node struct {
	Address string `json:"address"`
	Key     []byte `json:"key"`
	TLS     bool   `json:"tls"`
}

// Group describes a beacon group. Byte fields are hex encoded on the wire.
type Group struct {
	Threshold   int      `json:"threshold"`
	Period      string   `json:"period"`
	GenesisTime int64    `json:"genesis_time,omitempty"`
	Nodes       []*Node  `json:"nodes"`
	DistKey     [][]byte `json:"distkey,omitempty"`
}

// PeriodDuration parses the group period.
func (g *Group) PeriodDuration() (time.Duration, error) {
	p, err := time.ParseDuration(g.Period)
	if err != nil {
		return 0, fmt.Errorf("invalid group period %q: %w", g.Period, err)
	}
	if p <= 0 {
		return 0, fmt.Errorf("invalid group period %q", g.Period)
	}
	return p, nil
}
