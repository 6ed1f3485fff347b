package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
)

// Outcome is the result of verifying one beacon. Err is nil when the beacon
// verified; otherwise it wraps one or more causes of the drand error
// taxonomy.
type Outcome struct {
	Round uint64
	Err   error
}

// Verified reports whether the beacon verified.
func (o Outcome) Verified() bool {
	return o.Err == nil
}

var causes = []error{
	drand.ErrEncoding,
	drand.ErrKeyDeserialization,
	drand.ErrSignatureVerification,
	drand.ErrHashMismatch,
	context.Canceled,
	context.DeadlineExceeded,
}

// Cause returns the first sentinel of the taxonomy matching Err, or Err
// itself when none does.
func (o Outcome) Cause() error {
	if o.Err == nil {
		return nil
	}
	for _, c := range causes {
		if errors.Is(o.Err, c) {
			return c
		}
	}
	return o.Err
}

// Reporter receives every outcome, typically to export metrics.
type Reporter interface {
	Report(o Outcome)
}

// Verifier checks beacons against a distributed key. It holds no mutable
// state and may be shared between goroutines.
type Verifier struct {
	scheme   crypto.Scheme
	hasher   crypto.Hasher
	log      log.Logger
	reporter Reporter
}

// Option configures a Verifier.
type Option func(v *Verifier) error

// WithScheme sets the pairing scheme of the beacon group. The default is
// crypto.DefaultScheme().
func WithScheme(s crypto.Scheme) Option {
	return func(v *Verifier) error {
		if s == nil {
			return errors.New("nil scheme")
		}
		v.scheme = s
		return nil
	}
}

// WithLogger sets the logger receiving the causes of failed verifications.
func WithLogger(l log.Logger) Option {
	return func(v *Verifier) error {
		v.log = l
		return nil
	}
}

// WithReporter registers a reporter of outcomes.
func WithReporter(r Reporter) Option {
	return func(v *Verifier) error {
		v.reporter = r
		return nil
	}
}

// New returns a verifier hashing with h. A verifier cannot exist without a
// hash capability.
func New(h crypto.Hasher, opts ...Option) (*Verifier, error) {
	if h == nil {
		return nil, errors.New("no hash capability available")
	}
	v := &Verifier{
		scheme: crypto.DefaultScheme(),
		hasher: h,
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	if v.log == nil {
		v.log = log.DefaultLogger()
	}
	v.log = v.log.Named("verifier").With("scheme", v.scheme.Name())
	return v, nil
}

// Scheme returns the pairing scheme of the verifier.
func (v *Verifier) Scheme() crypto.Scheme {
	return v.scheme
}

// Hasher returns the hash capability of the verifier.
func (v *Verifier) Hasher() crypto.Hasher {
	return v.hasher
}

// Verify reports whether signature is a valid signature of the message built
// from previous and round under distKey, and whether randomness is the hash of
// that signature. Every failure, including malformed input and errors raised
// inside the pairing library, yields false.
func (v *Verifier) Verify(ctx context.Context, previous, signature, randomness string, round uint64, distKey string) bool {
	out := v.check(ctx, previous, signature, randomness, round, distKey)
	if out.Verified() {
		v.log.Debugw("beacon verified", "round", round)
	} else {
		v.log.Warnw("could not verify beacon", "round", round, "err", out.Err)
	}
	if v.reporter != nil {
		v.reporter.Report(out)
	}
	return out.Verified()
}

// VerifyBeacon is Verify for a beacon as served by a node.
func (v *Verifier) VerifyBeacon(ctx context.Context, b *drand.Beacon, distKey string) bool {
	if b == nil {
		return false
	}
	return v.Verify(ctx, b.Previous, b.Signature, b.Randomness, b.Round, distKey)
}

func (v *Verifier) check(ctx context.Context, previous, signature, randomness string, round uint64, distKey string) (out Outcome) {
	out.Round = round
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("%w: pairing panic: %v", drand.ErrSignatureVerification, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		out.Err = err
		return
	}

	msg, err := Message(v.hasher, previous, round)
	if err != nil {
		out.Err = err
		return
	}

	keyBuff, err := hex.DecodeString(distKey)
	if err != nil {
		out.Err = fmt.Errorf("%w: distributed key: %v", drand.ErrEncoding, err)
		return
	}
	pub, err := v.scheme.UnmarshalPublicKey(keyBuff)
	if err != nil {
		out.Err = err
		return
	}

	sig, err := hex.DecodeString(signature)
	if err != nil {
		out.Err = fmt.Errorf("%w: signature: %v", drand.ErrEncoding, err)
		return
	}

	sigErr := v.scheme.VerifySignature(pub, msg, sig)

	var randErr error
	if fresh := Randomness(v.hasher, sig); fresh != randomness {
		randErr = fmt.Errorf("%w: expected %s", drand.ErrHashMismatch, fresh)
	}

	out.Err = errors.Join(sigErr, randErr, ctx.Err())
	return
}
