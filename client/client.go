package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	clock "github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/drand"
	"github.com/drand/go-verifier/internal/metrics"
	"github.com/drand/go-verifier/verify"
)

// DefaultCacheSize is the number of beacons a session keeps by default.
const DefaultCacheSize = 32

// Session fetches beacons from a source and only ever hands out the ones
// that verify. It remembers the distributed key and the highest verified
// round; it is safe for concurrent use.
type Session struct {
	src      drand.Source
	beacons  drand.Source
	verifier *verify.Verifier
	log      log.Logger
	clk      clock.Clock

	mu      sync.Mutex
	distKey string
	// pinned is set when the key was configured rather than fetched.
	pinned bool
	// trusted is set once a beacon verified under a fetched key.
	trusted    bool
	latest     uint64
	haveLatest bool
}

type sessionConfig struct {
	distKey    string
	cacheSize  int
	log        log.Logger
	clk        clock.Clock
	prometheus prometheus.Registerer
}

// Option is an option configuring a session.
type Option func(cfg *sessionConfig) error

// WithDistKey pins the hex encoded distributed key. Without it the key is
// fetched from the source the first time it is needed.
func WithDistKey(key string) Option {
	return func(cfg *sessionConfig) error {
		if key == "" {
			return errors.New("empty distributed key")
		}
		cfg.distKey = key
		return nil
	}
}

// WithLogger overrides the logger of the session.
func WithLogger(l log.Logger) Option {
	return func(cfg *sessionConfig) error {
		cfg.log = l
		return nil
	}
}

// WithCacheSize specifies how many fetched beacons are kept locally. Default
// 32, 0 disables caching.
func WithCacheSize(size int) Option {
	return func(cfg *sessionConfig) error {
		if size < 0 {
			return fmt.Errorf("invalid cache size %d", size)
		}
		cfg.cacheSize = size
		return nil
	}
}

// WithClock sets the clock driving Watch.
func WithClock(clk clock.Clock) Option {
	return func(cfg *sessionConfig) error {
		cfg.clk = clk
		return nil
	}
}

// WithPrometheus specifies a registry into which to report metrics
func WithPrometheus(r prometheus.Registerer) Option {
	return func(cfg *sessionConfig) error {
		cfg.prometheus = r
		return nil
	}
}

// NewSession creates a session verifying the beacons of src with v.
func NewSession(src drand.Source, v *verify.Verifier, opts ...Option) (*Session, error) {
	if src == nil {
		return nil, errors.New("no beacon source specified")
	}
	if v == nil {
		return nil, errors.New("no verifier specified")
	}
	cfg := sessionConfig{
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.log == nil {
		cfg.log = log.DefaultLogger()
	}
	if cfg.clk == nil {
		cfg.clk = clock.NewRealClock()
	}
	if cfg.prometheus != nil {
		// ignore registration errors; caller may re-use registries across sessions
		_ = metrics.RegisterClientMetrics(cfg.prometheus)
	}

	cache, err := makeCache(cfg.cacheSize)
	if err != nil {
		return nil, err
	}
	l := cfg.log.Named("session")
	sess := &Session{
		src:      src,
		verifier: v,
		log:      l,
		clk:      cfg.clk,
		distKey:  cfg.distKey,
		pinned:   cfg.distKey != "",
	}
	// only verified beacons reach the cache
	sess.beacons = newVerifyingSource(src, sess)
	if cfg.cacheSize > 0 {
		sess.beacons = NewCachingSource(l, sess.beacons, cache)
	}
	return sess, nil
}

// DistKey returns the distributed key the session verifies against.
func (s *Session) DistKey(ctx context.Context) (string, error) {
	s.mu.Lock()
	key := s.distKey
	s.mu.Unlock()
	if key != "" {
		return key, nil
	}

	key, err := s.src.DistKey(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching distributed key: %w", err)
	}
	if key == "" {
		return "", drand.ErrNoDistKey
	}
	s.mu.Lock()
	if s.distKey == "" {
		s.distKey = key
	}
	key = s.distKey
	s.mu.Unlock()
	return key, nil
}

// LatestRound returns the highest round verified so far.
func (s *Session) LatestRound() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.haveLatest
}

// Latest returns the most recent beacon of the source, once verified.
func (s *Session) Latest(ctx context.Context) (*Result, error) {
	b, err := s.beacons.Latest(ctx)
	if err != nil {
		return nil, err
	}
	return s.result(b), nil
}

// Get returns the verified beacon of round. Round 0 means the latest one.
func (s *Session) Get(ctx context.Context, round uint64) (*Result, error) {
	if round == 0 {
		return s.Latest(ctx)
	}
	b, err := s.beacons.Round(ctx, round)
	if err != nil {
		return nil, err
	}
	return s.result(b), nil
}

// check verifies b under the session key. A fetched key under which nothing
// ever verified is forgotten on the first rejection, so that it is fetched
// again.
func (s *Session) check(ctx context.Context, b *drand.Beacon) error {
	if b == nil {
		return fmt.Errorf("%w: empty beacon", drand.ErrVerification)
	}
	key, err := s.DistKey(ctx)
	if err != nil {
		return err
	}
	if !s.verifier.VerifyBeacon(ctx, b, key) {
		s.mu.Lock()
		forget := !s.pinned && !s.trusted && s.distKey == key
		if forget {
			s.distKey = ""
		}
		s.mu.Unlock()
		s.log.Warnw("rejecting beacon", "round", b.Round, "source", s.src, "forget_key", forget)
		return fmt.Errorf("%w: round %d", drand.ErrVerification, b.Round)
	}

	s.mu.Lock()
	if s.distKey == key {
		s.trusted = true
	}
	if !s.haveLatest || b.Round > s.latest {
		s.latest = b.Round
		s.haveLatest = true
	}
	s.mu.Unlock()
	return nil
}

func (s *Session) result(b *drand.Beacon) *Result {
	return &Result{Beacon: *b, VerifiedAt: s.clk.Now()}
}

// Watch polls the source once per group period and emits newly verified
// beacons in increasing round order. Rounds skipped between two polls are
// fetched by number. Failures are logged and the round is skipped. The
// channel is closed when ctx is done or the group period is unknown.
func (s *Session) Watch(ctx context.Context) <-chan *Result {
	out := make(chan *Result, 1)
	go func() {
		defer close(out)

		g, err := s.src.Group(ctx)
		if err != nil {
			s.log.Errorw("", "watch", "failed to fetch group", "err", err)
			return
		}
		period, err := g.PeriodDuration()
		if err != nil {
			s.log.Errorw("", "watch", "unusable group period", "err", err)
			return
		}

		var last uint64
		emit := func(r *Result) bool {
			select {
			case out <- r:
				last = r.Round
				return true
			case <-ctx.Done():
				return false
			}
		}
		poll := func() bool {
			latest, err := s.Latest(ctx)
			if err != nil {
				s.log.Warnw("", "watch", "failed poll", "err", err)
				return ctx.Err() == nil
			}
			if latest.Round <= last {
				return true
			}
			for r := last + 1; last > 0 && r < latest.Round; r++ {
				res, err := s.Get(ctx, r)
				if err != nil {
					s.log.Warnw("", "watch", "skipping round", "round", r, "err", err)
					continue
				}
				if !emit(res) {
					return false
				}
			}
			return emit(latest)
		}

		if !poll() {
			return
		}
		t := s.clk.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-t.Chan():
				if !poll() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close closes the source of the session.
func (s *Session) Close() error {
	return s.src.Close()
}
