package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "COTACAO_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeInit sync.Once
)

// InTestMode reports whether binaries should return before opening
// connections. Any value strconv.ParseBool accepts as true enables it.
func InTestMode() bool {
	testModeInit.Do(RefreshTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads COTACAO_TEST_MODE.
func RefreshTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(err == nil && on)
}
