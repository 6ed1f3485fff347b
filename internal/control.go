package drand

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	json "github.com/nikkolasg/hexjson"
	"github.com/urfave/cli/v2"

	"github.com/drand/go-verifier/client"
	"github.com/drand/go-verifier/client/http"
	"github.com/drand/go-verifier/crypto"
	"github.com/drand/go-verifier/drand"
	"github.com/drand/go-verifier/internal/lib"
	"github.com/drand/go-verifier/verify"
)

var errNotVerified = errors.New("beacon not verified")

func verifyCmd(c *cli.Context) error {
	l := lib.Logger(c)
	cfg, err := lib.LoadConfig(c)
	if err != nil {
		return err
	}
	// a malformed key is a failed verification, not a configuration error
	key := cfg.DistKey
	cfg.DistKey = ""
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if key == "" {
		return fmt.Errorf("no distributed key: use --%s or the distkey of the configuration", lib.DistKeyFlag.Name)
	}

	v, err := lib.Verifier(cfg, l)
	if err != nil {
		return err
	}
	ok := v.Verify(c.Context,
		c.String(previousFlag.Name),
		c.String(signatureFlag.Name),
		c.String(randomnessFlag.Name),
		c.Uint64(requiredRoundFlag.Name),
		key)
	if !ok {
		fmt.Fprintln(c.App.Writer, "not verified")
		return errNotVerified
	}
	fmt.Fprintln(c.App.Writer, "verified")
	return nil
}

func messageCmd(c *cli.Context) error {
	h, err := crypto.HasherByName(c.String(lib.HasherFlag.Name))
	if err != nil {
		return err
	}
	msg, err := verify.Message(h, c.String(previousFlag.Name), c.Uint64(requiredRoundFlag.Name))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hex.EncodeToString(msg))
	return nil
}

func getPublicRandomness(c *cli.Context) error {
	l := lib.Logger(c)
	s, _, err := lib.Create(c, l)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.Get(c.Context, c.Uint64(roundFlag.Name))
	if err != nil {
		return fmt.Errorf("could not get verified randomness: %w", err)
	}
	if c.Bool(jsonFlag.Name) {
		return printJSON(c.App.Writer, &r.Beacon)
	}
	fmt.Fprintf(c.App.Writer, "%d %s\n", r.Round, r.Randomness)
	return nil
}

func getDistKey(c *cli.Context) error {
	l := lib.Logger(c)
	s, _, err := lib.Create(c, l)
	if err != nil {
		return err
	}
	defer s.Close()

	key, err := s.DistKey(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, &drand.DistKey{Key: key})
}

func getGroup(c *cli.Context) error {
	l := lib.Logger(c)
	cfg, err := lib.LoadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(cfg.Nodes) == 0 {
		return errors.New("no node specified")
	}

	var lastErr error
	for _, hc := range http.ForIdentities(l, cfg.Nodes) {
		g, err := hc.Group(c.Context)
		_ = hc.Close()
		if err != nil {
			l.Warnw("could not get group", "node", hc.Identity().String(), "err", err)
			lastErr = err
			continue
		}
		return printJSON(c.App.Writer, g)
	}
	return fmt.Errorf("could not get group: %w", lastErr)
}

func watchCmd(c *cli.Context) error {
	l := lib.Logger(c)
	s, _, err := lib.Create(c, l)
	if err != nil {
		return err
	}
	defer s.Close()

	for r := range s.Watch(c.Context) {
		if err := printResult(c, r); err != nil {
			return err
		}
	}
	if _, ok := s.LatestRound(); !ok && c.Context.Err() == nil {
		return errors.New("watch ended without any verified beacon")
	}
	return nil
}

func printResult(c *cli.Context, r *client.Result) error {
	if c.Bool(jsonFlag.Name) {
		return printJSON(c.App.Writer, &r.Beacon)
	}
	_, err := fmt.Fprintf(c.App.Writer, "%d %s\n", r.Round, r.Randomness)
	return err
}

func schemesCmd(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "drand-verify supports the following list of schemes: \n")

	for i, id := range crypto.ListSchemes() {
		fmt.Fprintf(c.App.Writer, "%d) %s \n", i, id)
	}

	fmt.Fprintf(c.App.Writer, "\nChoose one of them and set it on --%s flag \n", lib.SchemeFlag.Name)
	return nil
}

// testVector is a beacon together with the key it verifies under.
type testVector struct {
	drand.Beacon
	DistKey string `json:"distkey"`
	Scheme  string `json:"scheme"`
}

func generateCmd(c *cli.Context) error {
	name := c.String(lib.SchemeFlag.Name)
	if name == "" {
		name = crypto.DefaultSchemeID
	}
	sch, err := crypto.SchemeByName(name)
	if err != nil {
		return err
	}
	h, err := crypto.HasherByName(c.String(lib.HasherFlag.Name))
	if err != nil {
		return err
	}

	round := c.Uint64(roundFlag.Name)
	if round == 0 {
		round = 1
	}
	var previous []byte
	if p := c.String(optionalPreviousFlag.Name); p != "" {
		if previous, err = hex.DecodeString(p); err != nil {
			return fmt.Errorf("previous: %w", err)
		}
	} else {
		previous = make([]byte, verify.PreviousLength)
		if _, err := rand.Read(previous); err != nil {
			return err
		}
	}
	msg, err := verify.MessageFromBytes(h, previous, round)
	if err != nil {
		return err
	}

	g, err := sch.NewThresholdGroup(c.Int(thresholdFlag.Name), c.Int(membersFlag.Name))
	if err != nil {
		return err
	}
	partials := make([][]byte, 0, g.Threshold())
	for i := 0; i < g.Threshold(); i++ {
		p, err := g.PartialSign(i, msg)
		if err != nil {
			return err
		}
		partials = append(partials, p)
	}
	sig, err := g.Recover(msg, partials)
	if err != nil {
		return err
	}
	key, err := g.PublicKey().MarshalBinary()
	if err != nil {
		return err
	}

	return printJSON(c.App.Writer, &testVector{
		Beacon: drand.Beacon{
			Round:      round,
			Previous:   hex.EncodeToString(previous),
			Signature:  hex.EncodeToString(sig),
			Randomness: verify.Randomness(h, sig),
		},
		DistKey: hex.EncodeToString(key),
		Scheme:  sch.Name(),
	})
}

func printJSON(w io.Writer, j interface{}) error {
	buff, err := json.MarshalIndent(j, "", "    ")
	if err != nil {
		return fmt.Errorf("could not JSON marshal: %w", err)
	}
	fmt.Fprintln(w, string(buff))
	return nil
}
