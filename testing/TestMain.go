// Package testing switches the process into test mode when imported, so
// binaries under test skip connecting to PostgreSQL and redis.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("TEMPLE_TEST_MODE", "1")
		if os.Getenv("JWT_SECRET") == "" {
			_ = os.Setenv("JWT_SECRET", "test-secret-0123456789abcdef012345")
		}
		if os.Getenv("AUTHZ_POLICY_FILE") == "" {
			_ = os.Setenv("AUTHZ_POLICY_FILE", os.DevNull)
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be delegated to from a package's own TestMain.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
