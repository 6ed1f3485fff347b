package client_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/drand/go-verifier/client"
	"github.com/drand/go-verifier/common/testlogger"
	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/verify"
)

func newVerifier(t *testing.T) *verify.Verifier {
	t.Helper()
	sch, err := crypto.GetSchemeFromEnv()
	require.NoError(t, err)
	v, err := verify.New(crypto.StdHasher{}, verify.WithScheme(sch), verify.WithLogger(testlogger.New(t)))
	require.NoError(t, err)
	return v
}

// nextResult reads the next result from the channel and fails the test if it closes before a value is read.
func nextResult(t *testing.T, ch <-chan *client.Result) *client.Result {
	t.Helper()

	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatal("closed before result")
		}
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result.")
		return nil
	}
}
