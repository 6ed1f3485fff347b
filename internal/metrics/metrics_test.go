package metrics

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/drand/go-verifier/common/testlogger"
	"github.com/drand/go-verifier/drand"
	"github.com/drand/go-verifier/verify"
)

func TestMetricsServer(t *testing.T) {
	l := Start(testlogger.New(t), "127.0.0.1:0")
	require.NotNil(t, l)
	defer l.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, fmt.Sprintf("http://%s/metrics", l.Addr().String()), http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestReporter(t *testing.T) {
	r := NewReporter()

	verified := testutil.ToFloat64(BeaconVerifications.WithLabelValues("verified", ""))
	badSig := testutil.ToFloat64(BeaconVerifications.WithLabelValues("failed", "signature"))
	badRand := testutil.ToFloat64(BeaconVerifications.WithLabelValues("failed", "randomness"))

	r.Report(verify.Outcome{Round: 10})
	r.Report(verify.Outcome{Round: 4})
	r.Report(verify.Outcome{Round: 11, Err: fmt.Errorf("%w: bad", drand.ErrSignatureVerification)})
	r.Report(verify.Outcome{Round: 12, Err: drand.ErrHashMismatch})

	require.Equal(t, verified+2, testutil.ToFloat64(BeaconVerifications.WithLabelValues("verified", "")))
	require.Equal(t, badSig+1, testutil.ToFloat64(BeaconVerifications.WithLabelValues("failed", "signature")))
	require.Equal(t, badRand+1, testutil.ToFloat64(BeaconVerifications.WithLabelValues("failed", "randomness")))
	require.Equal(t, float64(10), testutil.ToFloat64(LastVerifiedRound))
}

func TestCauseLabel(t *testing.T) {
	require.Equal(t, "encoding", causeLabel(drand.ErrEncoding))
	require.Equal(t, "key", causeLabel(fmt.Errorf("x: %w", drand.ErrKeyDeserialization)))
	require.Equal(t, "other", causeLabel(context.Canceled))
}
