package crypto

import (
	"fmt"

	"github.com/drand/kyber"
	bls "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/share"
	"github.com/drand/kyber/sign"
	// sign/bls is only used for single signatures here, never for
	// aggregation, so the rogue key attack does not apply.
	//nolint:staticcheck
	signBls "github.com/drand/kyber/sign/bls"
	"github.com/drand/kyber/sign/tbls"
	"github.com/drand/kyber/util/random"

	"github.com/drand/go-verifier/drand"
)

var (
	dstG1 = []byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_NUL_")
	dstG2 = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")
)

type bls12381Scheme struct {
	name            string
	keyGroup        kyber.Group
	authScheme      sign.AggregatableScheme
	thresholdScheme sign.ThresholdScheme
}

// newBLS12381OnG2 keeps keys on G1 (48 bytes) and signatures on G2 (96 bytes).
func newBLS12381OnG2() *bls12381Scheme {
	suite := bls.NewBLS12381SuiteWithDST(dstG1, dstG2)
	return &bls12381Scheme{
		name:            BLS12381OnG2,
		keyGroup:        suite.G1(),
		authScheme:      signBls.NewSchemeOnG2(suite),
		thresholdScheme: tbls.NewThresholdSchemeOnG2(suite),
	}
}

// newBLS12381OnG1 keeps keys on G2 (96 bytes) and signatures on G1 (48 bytes).
func newBLS12381OnG1() *bls12381Scheme {
	suite := bls.NewBLS12381SuiteWithDST(dstG1, dstG2)
	return &bls12381Scheme{
		name:            BLS12381OnG1,
		keyGroup:        suite.G2(),
		authScheme:      signBls.NewSchemeOnG1(suite),
		thresholdScheme: tbls.NewThresholdSchemeOnG1(suite),
	}
}

func (s *bls12381Scheme) Name() string {
	return s.name
}

func (s *bls12381Scheme) UnmarshalPublicKey(buff []byte) (PublicKey, error) {
	p := s.keyGroup.Point()
	if len(buff) != p.MarshalSize() {
		return nil, fmt.Errorf("%w: %d bytes, %s expects %d", drand.ErrKeyDeserialization, len(buff), s.name, p.MarshalSize())
	}
	if err := p.UnmarshalBinary(buff); err != nil {
		return nil, fmt.Errorf("%w: %v", drand.ErrKeyDeserialization, err)
	}
	return p, nil
}

func (s *bls12381Scheme) VerifySignature(pub PublicKey, msg, sig []byte) error {
	X, ok := pub.(kyber.Point)
	if !ok {
		return fmt.Errorf("%w: not a %s key", drand.ErrKeyDeserialization, s.name)
	}
	if err := s.thresholdScheme.VerifyRecovered(X, msg, sig); err != nil {
		return fmt.Errorf("%w: %v", drand.ErrSignatureVerification, err)
	}
	return nil
}

func (s *bls12381Scheme) NewKeyPair() (*KeyPair, error) {
	priv, pub := s.authScheme.NewKeyPair(random.New())
	return &KeyPair{Private: priv, Public: pub}, nil
}

func (s *bls12381Scheme) Sign(priv PrivateKey, msg []byte) ([]byte, error) {
	x, ok := priv.(kyber.Scalar)
	if !ok {
		return nil, fmt.Errorf("not a %s private key", s.name)
	}
	return s.authScheme.Sign(x, msg)
}

func (s *bls12381Scheme) NewThresholdGroup(t, n int) (ThresholdGroup, error) {
	if err := checkThreshold(t, n); err != nil {
		return nil, err
	}
	secret := s.keyGroup.Scalar().Pick(random.New())
	poly := share.NewPriPoly(s.keyGroup, t, secret, random.New())
	return &bls12381Group{
		scheme: s.thresholdScheme,
		t:      t,
		n:      n,
		shares: poly.Shares(n),
		public: poly.Commit(s.keyGroup.Point().Base()),
	}, nil
}

type bls12381Group struct {
	scheme sign.ThresholdScheme
	t, n   int
	shares []*share.PriShare
	public *share.PubPoly
}

func (g *bls12381Group) PublicKey() PublicKey { return g.public.Commit() }
func (g *bls12381Group) Threshold() int       { return g.t }
func (g *bls12381Group) Size() int            { return g.n }

func (g *bls12381Group) PartialSign(i int, msg []byte) ([]byte, error) {
	if i < 0 || i >= g.n {
		return nil, fmt.Errorf("no member %d in a group of %d", i, g.n)
	}
	return g.scheme.Sign(g.shares[i], msg)
}

func (g *bls12381Group) Recover(msg []byte, partials [][]byte) ([]byte, error) {
	return g.scheme.Recover(g.public, msg, partials, g.t, g.n)
}
