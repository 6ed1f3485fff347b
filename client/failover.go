package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/drand"
)

// NewFailoverSource creates a source asking each of sources in turn until
// one answers. The source that answered last is asked first next time.
//
// Note that nothing is verified here: a node answering garbage wins over a
// slower honest one, and the session rejects the garbage.
func NewFailoverSource(l log.Logger, sources ...drand.Source) (drand.Source, error) {
	if len(sources) == 0 {
		return nil, errors.New("no points of contact specified")
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return &failoverSource{
		sources: sources,
		log:     l,
	}, nil
}

type failoverSource struct {
	sources []drand.Source
	log     log.Logger

	mu      sync.Mutex
	current int
}

func (f *failoverSource) String() string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = fmt.Sprint(s)
	}
	return "Failover(" + strings.Join(names, ", ") + ")"
}

func failover[T any](ctx context.Context, f *failoverSource, call func(drand.Source) (T, error)) (T, error) {
	f.mu.Lock()
	start := f.current
	f.mu.Unlock()

	var zero T
	var err error
	for i := range f.sources {
		idx := (start + i) % len(f.sources)
		res, cerr := call(f.sources[idx])
		if cerr == nil {
			f.mu.Lock()
			f.current = idx
			f.mu.Unlock()
			return res, nil
		}
		f.log.Debugw("", "failover_source", "source failed", "source", f.sources[idx], "err", cerr)
		// we accumulate errors to try all sources even if the first one fails
		err = errors.Join(err, cerr)
		if ctx.Err() != nil {
			return zero, errors.Join(err, ctx.Err())
		}
	}
	return zero, err
}

func (f *failoverSource) Latest(ctx context.Context) (*drand.Beacon, error) {
	return failover(ctx, f, func(s drand.Source) (*drand.Beacon, error) {
		return s.Latest(ctx)
	})
}

func (f *failoverSource) Round(ctx context.Context, round uint64) (*drand.Beacon, error) {
	return failover(ctx, f, func(s drand.Source) (*drand.Beacon, error) {
		return s.Round(ctx, round)
	})
}

func (f *failoverSource) DistKey(ctx context.Context) (string, error) {
	return failover(ctx, f, func(s drand.Source) (string, error) {
		return s.DistKey(ctx)
	})
}

func (f *failoverSource) Group(ctx context.Context) (*drand.Group, error) {
	return failover(ctx, f, func(s drand.Source) (*drand.Group, error) {
		return s.Group(ctx)
	})
}

// Close closes every source.
func (f *failoverSource) Close() error {
	var err error
	for _, s := range f.sources {
		err = errors.Join(err, s.Close())
	}
	return err
}
