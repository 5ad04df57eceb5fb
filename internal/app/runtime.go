package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "FINCONSOL_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether FINCONSOL_TEST_MODE asks the binaries to skip startup.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment and returns the new value.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(&on)
	return on
}
