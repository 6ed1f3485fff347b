package crypto

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/pairing/bn256"
	"go.dedis.ch/kyber/v3/share"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/sign/tbls"
	"go.dedis.ch/kyber/v3/util/random"

	"github.com/drand/go-verifier/drand"
)

// bn256Scheme keeps public keys on G2 (128 bytes) and signatures on G1
// (64 bytes).
type bn256Scheme struct {
	suite pairing.Suite
}

func newBN256OnG1() *bn256Scheme {
	return &bn256Scheme{suite: bn256.NewSuite()}
}

func (s *bn256Scheme) Name() string {
	return BN256OnG1
}

func (s *bn256Scheme) UnmarshalPublicKey(buff []byte) (PublicKey, error) {
	p := s.suite.G2().Point()
	if len(buff) != p.MarshalSize() {
		return nil, fmt.Errorf("%w: %d bytes, %s expects %d", drand.ErrKeyDeserialization, len(buff), s.Name(), p.MarshalSize())
	}
	if err := p.UnmarshalBinary(buff); err != nil {
		return nil, fmt.Errorf("%w: %v", drand.ErrKeyDeserialization, err)
	}
	return p, nil
}

func (s *bn256Scheme) VerifySignature(pub PublicKey, msg, sig []byte) error {
	X, ok := pub.(kyber.Point)
	if !ok {
		return fmt.Errorf("%w: not a %s key", drand.ErrKeyDeserialization, s.Name())
	}
	if err := bls.Verify(s.suite, X, msg, sig); err != nil {
		return fmt.Errorf("%w: %v", drand.ErrSignatureVerification, err)
	}
	return nil
}

func (s *bn256Scheme) NewKeyPair() (*KeyPair, error) {
	priv, pub := bls.NewKeyPair(s.suite, random.New())
	return &KeyPair{Private: priv, Public: pub}, nil
}

func (s *bn256Scheme) Sign(priv PrivateKey, msg []byte) ([]byte, error) {
	x, ok := priv.(kyber.Scalar)
	if !ok {
		return nil, fmt.Errorf("not a %s private key", s.Name())
	}
	return bls.Sign(s.suite, x, msg)
}

func (s *bn256Scheme) NewThresholdGroup(t, n int) (ThresholdGroup, error) {
	if err := checkThreshold(t, n); err != nil {
		return nil, err
	}
	g2 := s.suite.G2()
	secret := g2.Scalar().Pick(random.New())
	poly := share.NewPriPoly(g2, t, secret, random.New())
	return &bn256Group{
		suite:  s.suite,
		t:      t,
		n:      n,
		shares: poly.Shares(n),
		public: poly.Commit(g2.Point().Base()),
	}, nil
}

type bn256Group struct {
	suite  pairing.Suite
	t, n   int
	shares []*share.PriShare
	public *share.PubPoly
}

func (g *bn256Group) PublicKey() PublicKey { return g.public.Commit() }
func (g *bn256Group) Threshold() int       { return g.t }
func (g *bn256Group) Size() int            { return g.n }

func (g *bn256Group) PartialSign(i int, msg []byte) ([]byte, error) {
	if i < 0 || i >= g.n {
		return nil, fmt.Errorf("no member %d in a group of %d", i, g.n)
	}
	return tbls.Sign(g.suite, g.shares[i], msg)
}

func (g *bn256Group) Recover(msg []byte, partials [][]byte) ([]byte, error) {
	return tbls.Recover(g.suite, g.public, msg, partials, g.t, g.n)
}
