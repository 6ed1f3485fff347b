package drand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdentityURL(t *testing.T) {
	require.Equal(t, "http://127.0.0.1:8080/api/public", Identity{Address: "127.0.0.1:8080"}.URL("/api/public"))
	require.Equal(t, "https://drand.example/api/public/3", Identity{Address: "drand.example/", TLS: true}.URL("api/public/3"))
}

func TestGroupPeriod(t *testing.T) {
	g := &Group{Period: "1m0s"}
	p, err := g.PeriodDuration()
	require.NoError(t, err)
	require.Equal(t, time.Minute, p)

	g.Period = "soon"
	_, err = g.PeriodDuration()
	require.Error(t, err)

	g.Period = "0s"
	_, err = g.PeriodDuration()
	require.Error(t, err)
}
