package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/drand/go-verifier/drand"
)

func TestHashers(t *testing.T) {
	data := []byte("drand")
	want256 := sha256.Sum256(data)
	want512 := sha512.Sum512(data)
	for _, name := range []string{StdHasherName, SIMDHasherName, AutoHasherName} {
		h, err := HasherByName(name)
		require.NoError(t, err)
		require.Equal(t, want256[:], h.Sum256(data), name)
		require.Equal(t, want512[:], h.Sum512(data), name)
	}

	_, err := HasherByName("md5")
	require.Error(t, err)
}

func TestSchemeRegistry(t *testing.T) {
	require.Equal(t, []string{BLS12381OnG1, BLS12381OnG2, BN256OnG1}, ListSchemes())
	for _, name := range ListSchemes() {
		sch, err := SchemeByName(name)
		require.NoError(t, err)
		require.Equal(t, name, sch.Name())
	}
	_, err := SchemeByName("pedersen-bls-chained")
	require.Error(t, err)
	require.Equal(t, DefaultSchemeID, DefaultScheme().Name())
}

func TestSchemeFromEnv(t *testing.T) {
	t.Setenv(SchemeEnv, BLS12381OnG2)
	sch, err := GetSchemeFromEnv()
	require.NoError(t, err)
	require.Equal(t, BLS12381OnG2, sch.Name())

	t.Setenv(SchemeEnv, "")
	sch, err = GetSchemeFromEnv()
	require.NoError(t, err)
	require.Equal(t, DefaultSchemeID, sch.Name())
}

func TestSchemesSignVerify(t *testing.T) {
	msg := sha256.Sum256([]byte("round 1"))
	other := sha256.Sum256([]byte("round 2"))

	for _, name := range ListSchemes() {
		name := name
		t.Run(name, func(t *testing.T) {
			sch, err := SchemeByName(name)
			require.NoError(t, err)

			kp, err := sch.NewKeyPair()
			require.NoError(t, err)
			sig, err := sch.Sign(kp.Private, msg[:])
			require.NoError(t, err)

			buff, err := kp.Public.MarshalBinary()
			require.NoError(t, err)
			pub, err := sch.UnmarshalPublicKey(buff)
			require.NoError(t, err)

			require.NoError(t, sch.VerifySignature(pub, msg[:], sig))

			err = sch.VerifySignature(pub, other[:], sig)
			require.True(t, errors.Is(err, drand.ErrSignatureVerification))

			wrong, err := sch.NewKeyPair()
			require.NoError(t, err)
			err = sch.VerifySignature(wrong.Public, msg[:], sig)
			require.True(t, errors.Is(err, drand.ErrSignatureVerification))

			_, err = sch.UnmarshalPublicKey(buff[1:])
			require.True(t, errors.Is(err, drand.ErrKeyDeserialization))
		})
	}
}

// Beacons of the drand mainnet, signed on G2 with the RFC9380 G2 DST.
func TestBLS12381OnG2MainnetBeacons(t *testing.T) {
	beacons := []struct {
		Round   uint64
		PubKey  string
		Sig     string
		PrevSig string
	}{
		{
			Round:   2634945,
			PubKey:  "868f005eb8e6e4ca0a47c8a77ceaa5309a47978a7c71bc5cce96366b5d7a569937c529eeda66c7293784a9402801af31",
			Sig:     "814778ed1e480406beb43b74af71ce2f0373e0ea1bfdfea8f9ed62c876c20fcbc7f0163860e3da42ed2148756015f4551451898ffe06d384b4d002245025571b6b7a752f7158b40ad92b13b6d703ad31922a617f2c7f6d960b84d56cf1d79eef",
			PrevSig: "8bd96294383b4d1e04e736360bd7a487f9f409f1e7bd800b720656a310d577b3bdb1e1631af6c5782a1d8979c502f395036181eff4058960fc40bb7034cdae1991d3eda518ab204a077d2f7e724974cf87b407e549bd815cf0b8e5a3832f675d",
		},
		{
			Round:   3361396,
			PubKey:  "922a2e93828ff83345bae533f5172669a26c02dc76d6bf59c80892e12ab1455c229211886f35bb56af6d5bea981024df",
			Sig:     "9904b4ec42e82cb42ad53f171cf0510a5eedff8b5e02e2db5a187489f7875307746998b9a6cf82130d291126d4b83cea1048c9b3f07a067e632c20391dc059d22d6a8e835f3980c8bd0183fb6df00a8fbbe6b8c9f61e888dfa76e12af4d4e355",
			PrevSig: "a2377f4e0403f0fd05f709a3292be1b2b59fe990a673ad7b7561b5bd5982b882a2378d36e39befb6ea3bb7aac113c50a18fb07aa4f9a59f95f1aaa7826dafbfcdbf22347c29996c294286fd11b402ad83edd83fa21fe6735fccb65785edbed47",
		},
		{
			Round:  7601003,
			PubKey: "8200fc249deb0148eb918d6e213980c5d01acd7fc251900d9260136da3b54836ce125172399ddc69c4e3e11429b62c11",
			Sig:    "af7eac5897b72401c0f248a26b612c5ef68e0ff830b4d78927988c89b5db3e997bfcdb7c24cb19f549830cd02cb854a1143fd53a1d4e0713ded471260869439060d170a77187eb6371742840e43eccfa225657c4cc2d9619f7c3d680470c9743",
		},
	}

	sch, err := SchemeByName(BLS12381OnG2)
	require.NoError(t, err)
	for _, b := range beacons {
		buff, err := hex.DecodeString(b.PubKey)
		require.NoError(t, err)
		pub, err := sch.UnmarshalPublicKey(buff)
		require.NoError(t, err)
		sig, err := hex.DecodeString(b.Sig)
		require.NoError(t, err)
		prev, err := hex.DecodeString(b.PrevSig)
		require.NoError(t, err)

		round := make([]byte, 8)
		binary.BigEndian.PutUint64(round, b.Round)
		msg := sha256.Sum256(append(prev, round...))
		require.NoError(t, sch.VerifySignature(pub, msg[:], sig), b.Round)

		binary.BigEndian.PutUint64(round, b.Round+1)
		msg = sha256.Sum256(append(prev, round...))
		require.ErrorIs(t, sch.VerifySignature(pub, msg[:], sig), drand.ErrSignatureVerification)
	}
}

func TestSchemesRejectForeignKeys(t *testing.T) {
	bn := DefaultScheme()
	blsG2, err := SchemeByName(BLS12381OnG2)
	require.NoError(t, err)

	kp, err := blsG2.NewKeyPair()
	require.NoError(t, err)
	err = bn.VerifySignature(kp.Public, []byte("msg"), []byte("sig"))
	require.True(t, errors.Is(err, drand.ErrKeyDeserialization))
}

func TestThresholdGroup(t *testing.T) {
	msg := sha256.Sum256([]byte("threshold"))

	for _, name := range ListSchemes() {
		name := name
		t.Run(name, func(t *testing.T) {
			sch, err := SchemeByName(name)
			require.NoError(t, err)

			_, err = sch.NewThresholdGroup(4, 3)
			require.Error(t, err)

			g, err := sch.NewThresholdGroup(3, 5)
			require.NoError(t, err)
			require.Equal(t, 3, g.Threshold())
			require.Equal(t, 5, g.Size())

			var partials [][]byte
			for _, i := range []int{4, 0, 2} {
				p, err := g.PartialSign(i, msg[:])
				require.NoError(t, err)
				partials = append(partials, p)
			}
			_, err = g.PartialSign(5, msg[:])
			require.Error(t, err)

			_, err = g.Recover(msg[:], partials[:2])
			require.Error(t, err)

			sig, err := g.Recover(msg[:], partials)
			require.NoError(t, err)
			require.NoError(t, sch.VerifySignature(g.PublicKey(), msg[:], sig))
		})
	}
}
