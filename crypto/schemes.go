package crypto

import (
	"encoding"
	"fmt"
	"os"
	"sort"
)

// PublicKey is a point of a scheme's key group.
type PublicKey interface {
	encoding.BinaryMarshaler
	fmt.Stringer
}

// PrivateKey is a scalar of a scheme's key group.
type PrivateKey interface {
	encoding.BinaryMarshaler
}

// KeyPair holds a private scalar and the matching public point.
type KeyPair struct {
	Private PrivateKey
	Public  PublicKey
}

// Scheme is the pairing based signature capability a beacon group uses: the
// curve, which of its groups carries the keys and which one the signatures.
// Implementations are safe for concurrent use.
type Scheme interface {
	Name() string
	// UnmarshalPublicKey decodes a distributed key. Errors wrap
	// drand.ErrKeyDeserialization.
	UnmarshalPublicKey(buff []byte) (PublicKey, error)
	// VerifySignature checks sig over msg under pub. Errors wrap
	// drand.ErrSignatureVerification, or drand.ErrKeyDeserialization when pub
	// does not belong to this scheme.
	VerifySignature(pub PublicKey, msg, sig []byte) error
	// NewKeyPair returns a fresh random key pair.
	NewKeyPair() (*KeyPair, error)
	// Sign signs msg with a private key of this scheme.
	Sign(priv PrivateKey, msg []byte) ([]byte, error)
	// NewThresholdGroup deals a fresh t-of-n signing group.
	NewThresholdGroup(t, n int) (ThresholdGroup, error)
}

// ThresholdGroup is a dealer-generated group of n signers of which any t
// produce a signature valid under the distributed key. It is how beacon nodes
// produce rounds, and serves tooling and tests.
type ThresholdGroup interface {
	// PublicKey is the distributed key.
	PublicKey() PublicKey
	Threshold() int
	Size() int
	// PartialSign returns the signature share of member i over msg.
	PartialSign(i int, msg []byte) ([]byte, error)
	// Recover combines at least Threshold() partials into the group signature.
	Recover(msg []byte, partials [][]byte) ([]byte, error)
}

const (
	// BN256OnG1 signs on G1 of BN256 with keys on G2.
	BN256OnG1 = "bn256-on-g1"
	// BLS12381OnG2 signs on G2 of BLS12-381 with keys on G1.
	BLS12381OnG2 = "bls12381-on-g2"
	// BLS12381OnG1 signs on G1 of BLS12-381 with keys on G2, hashing with the
	// RFC9380 G1 domain separation tag.
	BLS12381OnG1 = "bls12381-on-g1"

	// DefaultSchemeID is the scheme of the original beacon network.
	DefaultSchemeID = BN256OnG1
)

// SchemeEnv names the environment variable selecting the scheme used by tests
// and by the CLI when no flag is given.
const SchemeEnv = "DRAND_VERIFY_SCHEME"

var schemes = map[string]func() Scheme{
	BN256OnG1:    func() Scheme { return newBN256OnG1() },
	BLS12381OnG2: func() Scheme { return newBLS12381OnG2() },
	BLS12381OnG1: func() Scheme { return newBLS12381OnG1() },
}

// SchemeByName returns the scheme registered under name.
func SchemeByName(name string) (Scheme, error) {
	ctor, ok := schemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scheme %q", name)
	}
	return ctor(), nil
}

// DefaultScheme returns the scheme of DefaultSchemeID.
func DefaultScheme() Scheme {
	return newBN256OnG1()
}

// ListSchemes returns the registered scheme names, sorted.
func ListSchemes() []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSchemeFromEnv returns the scheme named by DRAND_VERIFY_SCHEME, or the
// default one.
func GetSchemeFromEnv() (Scheme, error) {
	if name, ok := os.LookupEnv(SchemeEnv); ok && name != "" {
		return SchemeByName(name)
	}
	return DefaultScheme(), nil
}

func checkThreshold(t, n int) error {
	if t < 1 || n < t {
		return fmt.Errorf("invalid threshold %d-of-%d", t, n)
	}
	return nil
}
