package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/drand/go-verifier/client/test/result/mock"
	"github.com/drand/go-verifier/drand"
)

// Source provides a mocked beacon source.
//
//nolint:gocritic
type Source struct {
	sync.Mutex
	Key           string
	OptionalGroup *drand.Group
	Results       []drand.Beacon
	// Delay causes results to be delivered after this period of time has
	// passed. Note that if the context is canceled a result is still consumed
	// from Results.
	Delay time.Duration
	// CloseF is a function to call when the Close function is called on the
	// mock source.
	CloseF func() error
	// if strict rounds is set, calls to Round will scan through results to
	// return the first result with the requested round, rather than simply
	// popping the next result and treating it as a stack.
	StrictRounds bool
	// RoundCalls counts the calls to Round.
	RoundCalls int
}

func (m *Source) String() string {
	return "Mock"
}

func (m *Source) next(ctx context.Context, round uint64) (*drand.Beacon, error) {
	m.Lock()
	if len(m.Results) == 0 {
		m.Unlock()
		return nil, errors.New("no result available")
	}
	r := m.Results[0]
	if round > 0 && m.StrictRounds {
		found := false
		for _, candidate := range m.Results {
			if candidate.Round == round {
				r = candidate
				found = true
				break
			}
		}
		if !found {
			m.Unlock()
			return nil, errors.New("round not available")
		}
	} else {
		m.Results = m.Results[1:]
	}
	m.Unlock()

	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &r, nil
}

// Latest returns the next result, or the last one when StrictRounds is set.
func (m *Source) Latest(ctx context.Context) (*drand.Beacon, error) {
	if m.StrictRounds {
		m.Lock()
		if len(m.Results) == 0 {
			m.Unlock()
			return nil, errors.New("no result available")
		}
		r := m.Results[len(m.Results)-1]
		m.Unlock()
		return &r, nil
	}
	return m.next(ctx, 0)
}

// Round returns the beacon at `round` or an error.
func (m *Source) Round(ctx context.Context, round uint64) (*drand.Beacon, error) {
	m.Lock()
	m.RoundCalls++
	m.Unlock()
	return m.next(ctx, round)
}

// DistKey returns Key, or an error when it is empty.
func (m *Source) DistKey(_ context.Context) (string, error) {
	if m.Key == "" {
		return "", drand.ErrNoDistKey
	}
	return m.Key, nil
}

// Group returns OptionalGroup when set.
func (m *Source) Group(_ context.Context) (*drand.Group, error) {
	if m.OptionalGroup != nil {
		return m.OptionalGroup, nil
	}
	return nil, errors.New("not supported (mock source group)")
}

// Close calls the optional CloseF function.
func (m *Source) Close() error {
	if m.CloseF != nil {
		return m.CloseF()
	}
	return nil
}

// SourceWithResults returns a source on which `Latest` works `m-n` times.
// Its beacons do not verify.
func SourceWithResults(n, m uint64) *Source {
	s := new(Source)
	for i := n; i < m; i++ {
		s.Results = append(s.Results, mock.NewMockResult(i))
	}
	return s
}

// SourceWithChain serves the given beacons by round under key.
func SourceWithChain(key string, beacons []drand.Beacon) *Source {
	return &Source{
		Key:          key,
		Results:      beacons,
		StrictRounds: true,
	}
}
