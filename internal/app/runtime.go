package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv disables runtime startup in cmd/temple when set to "1".
const TestModeEnv = "TEMPLE_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether the process should skip connecting to
// PostgreSQL and redis and serving HTTP.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-reads the flag after environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	detectTestMode()
}
