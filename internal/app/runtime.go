package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// TestModeEnv makes the binaries exit before opening any backend.
const TestModeEnv = "MODULAR_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func loadTestMode() {
	enabled, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	testMode.Store(err == nil && enabled)
}

// InTestMode reports whether the server and worker should skip startup.
func InTestMode() bool {
	testModeOnce.Do(loadTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	loadTestMode()
}
