// Package config reads the TOML configuration of drand-verify.
package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
)

// DefaultCacheSize is the number of beacons kept by a session.
const DefaultCacheSize = 32

// Config is the content of a configuration file. Flags and environment
// variables override it field by field.
type Config struct {
	Scheme    string           `toml:"scheme"`
	Hasher    string           `toml:"hasher"`
	DistKey   string           `toml:"distkey"`
	CacheSize int              `toml:"cache_size"`
	Metrics   string           `toml:"metrics"`
	Nodes     []drand.Identity `toml:"nodes"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Scheme:    crypto.DefaultSchemeID,
		Hasher:    crypto.AutoHasherName,
		CacheSize: DefaultCacheSize,
	}
}

// Load reads the file at path on top of the defaults. Unknown keys are an
// error.
func Load(path string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return c, nil
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	sch, err := crypto.SchemeByName(c.Scheme)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := crypto.HasherByName(c.Hasher); err != nil {
		result = multierror.Append(result, err)
	}
	if c.DistKey != "" {
		buff, err := hex.DecodeString(c.DistKey)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("distkey: %w", drand.ErrEncoding))
		case sch != nil:
			if _, err := sch.UnmarshalPublicKey(buff); err != nil {
				result = multierror.Append(result, fmt.Errorf("distkey: %w", err))
			}
		}
	}
	if c.CacheSize < 0 {
		result = multierror.Append(result, fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize))
	}
	if c.Metrics != "" && strings.Contains(c.Metrics, ":") {
		if _, _, err := net.SplitHostPort(c.Metrics); err != nil {
			result = multierror.Append(result, fmt.Errorf("metrics: %w", err))
		}
	}
	for i, n := range c.Nodes {
		if n.Address == "" {
			result = multierror.Append(result, fmt.Errorf("node %d has no address", i))
			continue
		}
		if strings.Contains(n.Address, "://") {
			result = multierror.Append(result, fmt.Errorf("node %d: address %q must not carry a scheme, use tls", i, n.Address))
		}
	}

	return result.ErrorOrNil()
}

// SchemeAndHasher resolves the capabilities named by the configuration.
func (c *Config) SchemeAndHasher() (crypto.Scheme, crypto.Hasher, error) {
	sch, err := crypto.SchemeByName(c.Scheme)
	if err != nil {
		return nil, nil, err
	}
	h, err := crypto.HasherByName(c.Hasher)
	if err != nil {
		return nil, nil, err
	}
	return sch, h, nil
}
