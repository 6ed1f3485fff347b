package drand

import (
	"context"
	"strings"
)

// Identity designates a beacon node reachable over HTTP.
type Identity struct {
	Address string `toml:"address" json:"address"`
	TLS     bool   `toml:"tls" json:"tls"`
}

// URL returns the absolute URL of path on the node, choosing https when the
// node uses TLS.
func (i Identity) URL(path string) string {
	addr := strings.TrimSuffix(i.Address, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if i.TLS {
		return "https://" + addr + path
	}
	return "http://" + addr + path
}

func (i Identity) String() string {
	return i.Address
}

// Source retrieves beacon data. Implementations do not verify anything.
type Source interface {
	// Latest returns the most recent beacon.
	Latest(ctx context.Context) (*Beacon, error)
	// Round returns the beacon of the given round.
	Round(ctx context.Context, round uint64) (*Beacon, error)
	// DistKey returns the hex encoded distributed public key.
	DistKey(ctx context.Context) (string, error)
	// Group returns the group description.
	Group(ctx context.Context) (*Group, error)
	// Close releases the resources of the source.
	Close() error
}
