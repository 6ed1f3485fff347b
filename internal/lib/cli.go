package lib

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/drand/go-verifier/client"
	"github.com/drand/go-verifier/client/http"
	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
	"github.com/drand/go-verifier/internal/config"
	"github.com/drand/go-verifier/internal/metrics"
	"github.com/drand/go-verifier/verify"
)

var (
	// NodeFlag is the CLI flag for the address(es) of the beacon nodes to
	// contact.
	NodeFlag = &cli.StringSliceFlag{
		Name:    "node",
		Usage:   "host:port of a beacon node, can be repeated to fail over between nodes",
		EnvVars: []string{"DRAND_NODES"},
	}
	// TLSFlag is the CLI flag telling that the nodes given by NodeFlag serve
	// https.
	TLSFlag = &cli.BoolFlag{
		Name:    "tls",
		Usage:   "Contact the nodes given with --node over https",
		EnvVars: []string{"DRAND_TLS"},
	}
	// DistKeyFlag is the CLI flag for the hex encoded distributed key to
	// verify against.
	DistKeyFlag = &cli.StringFlag{
		Name:    "distkey",
		Usage:   "Hex encoded distributed key of the group. If absent, the key served by the node is trusted",
		EnvVars: []string{"DRAND_DISTKEY"},
	}
	// ConfigFlag is the CLI flag for the path of the TOML configuration.
	ConfigFlag = &cli.PathFlag{
		Name:    "config",
		Usage:   "Path to a TOML configuration file. Flags override its values",
		EnvVars: []string{"DRAND_CONFIG"},
	}
	// SchemeFlag is the CLI flag for the pairing scheme of the group.
	SchemeFlag = &cli.StringFlag{
		Name:    "scheme",
		Usage:   fmt.Sprintf("Pairing scheme of the group (default %s), see the schemes command", crypto.DefaultSchemeID),
		EnvVars: []string{crypto.SchemeEnv},
	}
	// HasherFlag is the CLI flag selecting the hash implementation.
	HasherFlag = &cli.StringFlag{
		Name:    "hasher",
		Usage:   fmt.Sprintf("Hash implementation: %s, %s or %s (default)", crypto.StdHasherName, crypto.SIMDHasherName, crypto.AutoHasherName),
		EnvVars: []string{"DRAND_HASHER"},
	}
	// CacheSizeFlag is the CLI flag for the number of beacons kept in memory.
	CacheSizeFlag = &cli.IntFlag{
		Name:    "cache-size",
		Usage:   fmt.Sprintf("Number of beacons kept in memory (default %d)", config.DefaultCacheSize),
		EnvVars: []string{"DRAND_CACHE_SIZE"},
	}
	// MetricsFlag is the CLI flag for the address serving prometheus metrics.
	MetricsFlag = &cli.StringFlag{
		Name:    "metrics",
		Usage:   "Launch a metrics server at the specified (host:)port",
		EnvVars: []string{"DRAND_METRICS"},
	}

	// JSONLogFlag is the value of the CLI flag `json-log` enabling JSON output of the loggers
	JSONLogFlag = &cli.BoolFlag{
		Name:    "json-log",
		Usage:   "Set the log output as json format",
		EnvVars: []string{"DRAND_JSON_LOG"},
	}

	VerboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Usage:   "If set, verbosity is at the debug level",
		EnvVars: []string{"DRAND_VERBOSE"},
	}
)

// CryptoFlags select the capabilities used to verify beacons.
var CryptoFlags = []cli.Flag{
	ConfigFlag,
	SchemeFlag,
	HasherFlag,
}

// ClientFlags is a list of common flags for session creation
var ClientFlags = []cli.Flag{
	NodeFlag,
	TLSFlag,
	DistKeyFlag,
	CacheSizeFlag,
	MetricsFlag,
	ConfigFlag,
	SchemeFlag,
	HasherFlag,
}

// Logger builds the logger selected by the verbosity flags.
func Logger(c *cli.Context) log.Logger {
	level := log.WarnLevel
	if c.Bool(VerboseFlag.Name) {
		level = log.DebugLevel
	}
	return log.New(os.Stderr, level, c.Bool(JSONLogFlag.Name))
}

// LoadConfig reads the configuration file, if any, and applies the flags
// and environment variables set on top of it. The result is not validated.
func LoadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if p := c.Path(ConfigFlag.Name); p != "" {
		var err error
		if cfg, err = config.Load(p); err != nil {
			return nil, err
		}
	}

	if c.IsSet(SchemeFlag.Name) {
		cfg.Scheme = c.String(SchemeFlag.Name)
	}
	if c.IsSet(HasherFlag.Name) {
		cfg.Hasher = c.String(HasherFlag.Name)
	}
	if c.IsSet(DistKeyFlag.Name) {
		cfg.DistKey = c.String(DistKeyFlag.Name)
	}
	if c.IsSet(CacheSizeFlag.Name) {
		cfg.CacheSize = c.Int(CacheSizeFlag.Name)
	}
	if c.IsSet(MetricsFlag.Name) {
		cfg.Metrics = c.String(MetricsFlag.Name)
	}
	if c.IsSet(NodeFlag.Name) {
		cfg.Nodes = cfg.Nodes[:0:0]
		for _, addr := range c.StringSlice(NodeFlag.Name) {
			cfg.Nodes = append(cfg.Nodes, drand.Identity{Address: addr, TLS: c.Bool(TLSFlag.Name)})
		}
	}
	return cfg, nil
}

// Verifier builds a verifier from the configuration. Outcomes are exported
// as metrics when a metrics server is configured.
func Verifier(cfg *config.Config, l log.Logger) (*verify.Verifier, error) {
	sch, h, err := cfg.SchemeAndHasher()
	if err != nil {
		return nil, err
	}
	opts := []verify.Option{verify.WithScheme(sch), verify.WithLogger(l)}
	if cfg.Metrics != "" {
		opts = append(opts, verify.WithReporter(metrics.NewReporter()))
	}
	return verify.New(h, opts...)
}

// Create builds a session over the configured nodes, and can be invoked from
// a cli action supplied with ClientFlags
func Create(c *cli.Context, l log.Logger) (*client.Session, *config.Config, error) {
	cfg, err := LoadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(cfg.Nodes) == 0 {
		return nil, nil, errors.New("no node specified: use --node or the nodes of the configuration")
	}

	if cfg.Metrics != "" {
		if ml := metrics.Start(l, cfg.Metrics); ml == nil {
			l.Warnw("metrics server not started", "bind", cfg.Metrics)
		}
	}

	v, err := Verifier(cfg, l)
	if err != nil {
		return nil, nil, err
	}

	l.Infow("Building HTTP clients", "nodes", len(cfg.Nodes))
	hcs := http.ForIdentities(l, cfg.Nodes)
	sources := make([]drand.Source, len(hcs))
	for i, hc := range hcs {
		sources[i] = hc
	}
	src, err := client.NewFailoverSource(l, sources...)
	if err != nil {
		return nil, nil, err
	}

	opts := []client.Option{client.WithLogger(l), client.WithCacheSize(cfg.CacheSize)}
	if cfg.DistKey != "" {
		opts = append(opts, client.WithDistKey(cfg.DistKey))
	} else {
		l.Warnw("no distributed key pinned, trusting the key served by the node")
	}
	s, err := client.NewSession(src, v, opts...)
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}
	return s, cfg, nil
}
