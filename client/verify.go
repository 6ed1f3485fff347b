package client

import (
	"context"
	"fmt"

	"github.com/drand/go-verifier/drand"
)

// newVerifyingSource wraps a source so that Latest and Round only return
// beacons that verify under the distributed key of the session.
func newVerifyingSource(src drand.Source, s *Session) *verifyingSource {
	return &verifyingSource{
		Source:  src,
		session: s,
	}
}

type verifyingSource struct {
	// Source is the wrapped source. DistKey, Group and Close are proxied.
	drand.Source

	session *Session
}

// String returns the name of this source.
func (v *verifyingSource) String() string {
	return fmt.Sprintf("VerifyingSource(%v)", v.Source)
}

// Latest returns the most recent beacon of the wrapped source once verified.
func (v *verifyingSource) Latest(ctx context.Context) (*drand.Beacon, error) {
	b, err := v.Source.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if err := v.session.check(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Round returns the beacon of round once verified.
func (v *verifyingSource) Round(ctx context.Context, round uint64) (*drand.Beacon, error) {
	b, err := v.Source.Round(ctx, round)
	if err != nil {
		return nil, err
	}
	if b != nil && b.Round != round {
		return nil, fmt.Errorf("%w: asked %d, got %d", drand.ErrRoundMismatch, round, b.Round)
	}
	if err := v.session.check(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
