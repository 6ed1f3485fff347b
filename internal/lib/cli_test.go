package lib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	clock "github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	httpmock "github.com/drand/go-verifier/client/test/http/mock"
	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/common/testlogger"
	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/internal/config"
)

func run(args []string, action func(c *cli.Context) error) error {
	app := cli.NewApp()
	app.Name = "mock-client"
	app.Flags = ClientFlags
	app.Action = action
	return app.Run(args)
}

func TestLoadConfigPrecedence(t *testing.T) {
	p := filepath.Join(t.TempDir(), "verify.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
hasher = "std"
cache_size = 8
[[nodes]]
address = "127.0.0.1:1"
`), 0o600))

	var cfg *config.Config
	load := func(c *cli.Context) (err error) {
		cfg, err = LoadConfig(c)
		if err != nil {
			return err
		}
		return cfg.Validate()
	}

	require.NoError(t, run([]string{"mock-client", "--config", p}, load))
	require.Equal(t, crypto.StdHasherName, cfg.Hasher)
	require.Equal(t, 8, cfg.CacheSize)
	require.Len(t, cfg.Nodes, 1)

	require.NoError(t, run([]string{"mock-client", "--config", p, "--hasher", "simd", "--node", "a:1", "--node", "b:2", "--tls"}, load))
	require.Equal(t, crypto.SIMDHasherName, cfg.Hasher)
	require.Equal(t, 8, cfg.CacheSize)
	require.Len(t, cfg.Nodes, 2)
	require.True(t, cfg.Nodes[1].TLS)

	t.Setenv("DRAND_CACHE_SIZE", "0")
	require.NoError(t, run([]string{"mock-client", "--config", p}, load))
	require.Equal(t, 0, cfg.CacheSize)

	require.Error(t, run([]string{"mock-client", "--scheme", "nope", "--hasher", "md5"}, load))
}

func TestClientLib(t *testing.T) {
	lg := testlogger.New(t)
	create := func(c *cli.Context) error {
		s, _, err := Create(c, lg)
		if err != nil {
			return err
		}
		defer s.Close()
		_, err = s.Latest(c.Context)
		return err
	}

	err := run([]string{"mock-client"}, create)
	if err == nil {
		t.Fatal("need to specify a node.", err)
	}

	sch, err := crypto.GetSchemeFromEnv()
	require.NoError(t, err)
	clk := clock.NewFakeClockAt(time.Now())
	srv, cancel := httpmock.NewMockHTTPPublicServer(t, false, sch, clk)
	defer cancel()

	t.Log("Started mockserver at", srv.Addr)

	args := []string{"mock-client", "--node", srv.Addr, "--scheme", sch.Name()}
	require.NoError(t, run(args, create), "HTTP should work")

	args = []string{"mock-client", "--node", "127.0.0.1:1", "--node", srv.Addr, "--scheme", sch.Name(), "--distkey", srv.DistKey}
	require.NoError(t, run(args, create), "failover to the second node")

	args = []string{"mock-client", "--node", srv.Addr, "--tls", "--scheme", sch.Name()}
	require.Error(t, run(args, create), "the mock node does not serve https")
}

func TestLoggerLevel(t *testing.T) {
	var l log.Logger
	require.NoError(t, run([]string{"mock-client"}, func(c *cli.Context) error {
		l = Logger(c)
		return nil
	}))
	require.NotNil(t, l)
}
