package mock

import (
	"context"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi"
	clock "github.com/jonboulle/clockwork"
	json "github.com/nikkolasg/hexjson"

	"github.com/drand/go-verifier/client/test/result/mock"
	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/common/testlogger"
	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
)

// Rounds is the number of beacons a mock server can serve.
const Rounds = 8

// Period is the round period of the mock server.
const Period = time.Second

// Server is a beacon node serving a fixed chain over the legacy HTTP API.
// The latest round follows the clock: round 1 is served at genesis, one more
// round every Period, up to Rounds.
type Server struct {
	Addr    string
	DistKey string
	Group   *drand.Group
	Beacons []drand.Beacon

	clk     clock.Clock
	genesis time.Time
	l       log.Logger
}

// Identity returns the identity to reach the server.
func (s *Server) Identity() drand.Identity {
	return drand.Identity{Address: s.Addr}
}

// NewMockHTTPPublicServer creates a mock beacon node for testing. When
// badSecondRound is set round 2 is served with the signature of round 1.
func NewMockHTTPPublicServer(t *testing.T, badSecondRound bool, sch crypto.Scheme, clk clock.Clock) (*Server, context.CancelFunc) {
	t.Helper()
	s, stop, err := NewServer(testlogger.New(t), badSecondRound, sch, clk)
	if err != nil {
		t.Fatal(err)
	}
	return s, stop
}

// NewServer starts a mock beacon node on a loopback port. The returned
// function stops it.
func NewServer(lg log.Logger, badSecondRound bool, sch crypto.Scheme, clk clock.Clock) (*Server, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(log.ToContext(context.Background(), lg))

	c, err := mock.NewChain(sch, 2, 3, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	beacons := make([]drand.Beacon, Rounds)
	for i := range beacons {
		b, err := c.Next()
		if err != nil {
			cancel()
			return nil, nil, err
		}
		beacons[i] = *b
	}
	if badSecondRound {
		beacons[1].Signature = beacons[0].Signature
		beacons[1].Randomness = beacons[0].Randomness
	}

	key, err := hex.DecodeString(c.DistKey())
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s := &Server{
		DistKey: c.DistKey(),
		Beacons: beacons,
		clk:     clk,
		genesis: clk.Now(),
		l:       lg.Named("mocknode"),
	}
	s.Group = &drand.Group{
		Threshold:   c.Group().Threshold(),
		Period:      Period.String(),
		GenesisTime: s.genesis.Unix(),
		DistKey:     [][]byte{key},
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s.Addr = listener.Addr().String()
	for i := 0; i < c.Group().Size(); i++ {
		s.Group.Nodes = append(s.Group.Nodes, &drand.Node{Address: s.Addr})
	}

	httpServer := http.Server{Handler: s.router(), ReadHeaderTimeout: 3 * time.Second}
	go func() { _ = httpServer.Serve(listener) }()

	return s, func() {
		_ = httpServer.Shutdown(ctx)
		cancel()
	}, nil
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/public", s.latest)
	r.Get("/api/public/{round}", s.round)
	r.Get("/api/info/distkey", func(w http.ResponseWriter, _ *http.Request) {
		s.write(w, &drand.DistKey{Key: s.DistKey})
	})
	r.Get("/api/info/group", func(w http.ResponseWriter, _ *http.Request) {
		s.write(w, s.Group)
	})
	return r
}

// LatestRound returns the round the server currently considers the latest.
func (s *Server) LatestRound() uint64 {
	elapsed := s.clk.Since(s.genesis)
	r := uint64(elapsed/Period) + 1
	if r > Rounds {
		r = Rounds
	}
	return r
}

func (s *Server) latest(w http.ResponseWriter, _ *http.Request) {
	s.write(w, &s.Beacons[s.LatestRound()-1])
}

func (s *Server) round(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(chi.URLParam(r, "round"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if n == 0 || n > s.LatestRound() {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.write(w, &s.Beacons[n-1])
}

func (s *Server) write(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.l.Errorw("encoding response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
