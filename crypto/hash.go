package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	simd "github.com/minio/sha256-simd"
)

// Hasher is the hash capability used to build beacon messages and to derive
// randomness from signatures.
type Hasher interface {
	Name() string
	// Sum256 returns the SHA-256 digest of data.
	Sum256(data []byte) []byte
	// Sum512 returns the SHA-512 digest of data.
	Sum512(data []byte) []byte
}

const (
	// StdHasherName selects the Go standard library digests.
	StdHasherName = "std"
	// SIMDHasherName selects the SIMD accelerated SHA-256.
	SIMDHasherName = "simd"
	// AutoHasherName lets the platform layer pick the fastest hasher.
	AutoHasherName = "auto"
)

// StdHasher hashes with crypto/sha256 and crypto/sha512.
type StdHasher struct{}

func (StdHasher) Name() string { return StdHasherName }

func (StdHasher) Sum256(data []byte) []byte {
	out := sha256.Sum256(data)
	return out[:]
}

func (StdHasher) Sum512(data []byte) []byte {
	out := sha512.Sum512(data)
	return out[:]
}

// SIMDHasher uses the AVX/SHA-NI/ARM accelerated SHA-256 when the CPU has
// it. SHA-512 comes from the standard library.
type SIMDHasher struct{}

func (SIMDHasher) Name() string { return SIMDHasherName }

func (SIMDHasher) Sum256(data []byte) []byte {
	out := simd.Sum256(data)
	return out[:]
}

func (SIMDHasher) Sum512(data []byte) []byte {
	out := sha512.Sum512(data)
	return out[:]
}

// HasherByName resolves a hasher by its configuration name. It is meant to
// be called once at startup.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case StdHasherName:
		return StdHasher{}, nil
	case SIMDHasherName, AutoHasherName, "":
		return SIMDHasher{}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q (expected %s, %s or %s)", name, AutoHasherName, StdHasherName, SIMDHasherName)
	}
}
