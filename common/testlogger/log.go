package testlogger

import (
	"os"
	"testing"

	"github.com/drand/go-verifier/common/log"
)

// Level returns the level for test loggers, debug when DRAND_VERIFY_LOGS=DEBUG.
func Level(t testing.TB) int {
	if lvl, ok := os.LookupEnv(log.LevelEnv); ok && lvl == "DEBUG" {
		t.Log("Enabling DebugLevel logs")
		return log.DebugLevel
	}
	return log.InfoLevel
}

// New returns a logger tagged with the test name.
func New(t testing.TB) log.Logger {
	return log.New(nil, Level(t), true).
		With("testName", t.Name())
}
