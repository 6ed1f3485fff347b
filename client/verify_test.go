package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drand/go-verifier/client"
	clientMock "github.com/drand/go-verifier/client/mock"
	"github.com/drand/go-verifier/client/test/result/mock"
	"github.com/drand/go-verifier/common/testlogger"
	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
)

func mockSourceWithVerifiableResults(t *testing.T, n int) (*clientMock.Source, []drand.Beacon) {
	t.Helper()
	sch, err := crypto.GetSchemeFromEnv()
	require.NoError(t, err)

	key, results := mock.VerifiableResults(n, sch)
	return clientMock.SourceWithChain(key, results), results
}

func TestVerify(t *testing.T) {
	VerifyFuncTest(t, 3, 1)
}

func TestVerifyLaterRound(t *testing.T) {
	VerifyFuncTest(t, 5, 4)
}

func VerifyFuncTest(t *testing.T, clients, upTo int) {
	ctx := context.Background()
	src, results := mockSourceWithVerifiableResults(t, clients)
	s, err := client.NewSession(src, newVerifier(t), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	res, err := s.Get(ctx, results[upTo].Round)
	require.NoError(t, err)
	require.Equal(t, results[upTo], res.Beacon)

	latest, ok := s.LatestRound()
	require.True(t, ok)
	require.Equal(t, results[upTo].Round, latest)
}

func TestGetWithRoundMismatch(t *testing.T) {
	src, _ := mockSourceWithVerifiableResults(t, 5)
	src.StrictRounds = false
	s, err := client.NewSession(src, newVerifier(t), client.WithCacheSize(0), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	_, err = s.Get(context.Background(), 3)
	require.ErrorIs(t, err, drand.ErrRoundMismatch)
	require.ErrorContains(t, err, "asked 3, got 1")
}

func TestSessionRejectsTamperedBeacons(t *testing.T) {
	ctx := context.Background()
	src, results := mockSourceWithVerifiableResults(t, 3)
	results[1].Randomness = results[0].Randomness
	results[2].Signature = results[0].Signature

	s, err := client.NewSession(src, newVerifier(t), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	_, err = s.Get(ctx, results[1].Round)
	require.ErrorIs(t, err, drand.ErrVerification)
	_, err = s.Get(ctx, results[2].Round)
	require.ErrorIs(t, err, drand.ErrVerification)
	_, ok := s.LatestRound()
	require.False(t, ok, "no round verified yet")

	res, err := s.Get(ctx, results[0].Round)
	require.NoError(t, err)
	require.Equal(t, results[0].Round, res.GetRound())
}

func TestSessionDoesNotCacheRejectedBeacons(t *testing.T) {
	ctx := context.Background()
	src, results := mockSourceWithVerifiableResults(t, 3)
	good := results[1]
	results[1].Randomness = results[0].Randomness

	s, err := client.NewSession(src, newVerifier(t), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	_, err = s.Get(ctx, good.Round)
	require.ErrorIs(t, err, drand.ErrVerification)

	// the node serves the valid beacon again
	results[1] = good
	res, err := s.Get(ctx, good.Round)
	require.NoError(t, err)
	require.Equal(t, good, res.Beacon)
	require.Equal(t, 2, src.RoundCalls)

	_, err = s.Get(ctx, good.Round)
	require.NoError(t, err)
	require.Equal(t, 2, src.RoundCalls, "verified beacon is served from the cache")
}

func TestSessionForgetsUntrustedKey(t *testing.T) {
	ctx := context.Background()
	src, results := mockSourceWithVerifiableResults(t, 3)
	key := src.Key
	src.Key = mustKey(t)

	s, err := client.NewSession(src, newVerifier(t), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	_, err = s.Get(ctx, results[0].Round)
	require.ErrorIs(t, err, drand.ErrVerification)

	src.Key = key
	_, err = s.Get(ctx, results[0].Round)
	require.NoError(t, err)

	// a key under which a beacon verified is kept
	src.Key = mustKey(t)
	results[1].Signature = results[0].Signature
	_, err = s.Get(ctx, results[1].Round)
	require.ErrorIs(t, err, drand.ErrVerification)
	got, err := s.DistKey(ctx)
	require.NoError(t, err)
	require.Equal(t, key, got)
}

func TestSessionKeepsPinnedKey(t *testing.T) {
	ctx := context.Background()
	src, results := mockSourceWithVerifiableResults(t, 2)
	pinned := mustKey(t)

	s, err := client.NewSession(src, newVerifier(t), client.WithDistKey(pinned), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	_, err = s.Get(ctx, results[0].Round)
	require.ErrorIs(t, err, drand.ErrVerification)
	got, err := s.DistKey(ctx)
	require.NoError(t, err)
	require.Equal(t, pinned, got)
}

func TestSessionRejectsUnverifiableResults(t *testing.T) {
	src := clientMock.SourceWithResults(1, 4)
	src.Key = mustKey(t)
	s, err := client.NewSession(src, newVerifier(t), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	_, err = s.Latest(context.Background())
	require.ErrorIs(t, err, drand.ErrVerification)
}

func TestSessionPinnedKeyWins(t *testing.T) {
	ctx := context.Background()
	src, results := mockSourceWithVerifiableResults(t, 2)
	src.Key = mustKey(t)

	s, err := client.NewSession(src, newVerifier(t), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)
	_, err = s.Get(ctx, results[0].Round)
	require.ErrorIs(t, err, drand.ErrVerification, "served key is not the group key")

	src, results = mockSourceWithVerifiableResults(t, 2)
	key := src.Key
	src.Key = mustKey(t)
	s, err = client.NewSession(src, newVerifier(t), client.WithDistKey(key), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)
	_, err = s.Get(ctx, results[0].Round)
	require.NoError(t, err)

	got, err := s.DistKey(ctx)
	require.NoError(t, err)
	require.Equal(t, key, got)
}

func TestSessionWithoutKey(t *testing.T) {
	src, _ := mockSourceWithVerifiableResults(t, 1)
	src.Key = ""
	s, err := client.NewSession(src, newVerifier(t), client.WithLogger(testlogger.New(t)))
	require.NoError(t, err)

	_, err = s.Latest(context.Background())
	require.ErrorIs(t, err, drand.ErrNoDistKey)
}

func mustKey(t *testing.T) string {
	t.Helper()
	sch, err := crypto.GetSchemeFromEnv()
	require.NoError(t, err)
	c, err := mock.NewChain(sch, 2, 3, nil)
	require.NoError(t, err)
	return c.DistKey()
}
