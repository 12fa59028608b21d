package recovery

import (
	"runtime/debug"

	"github.com/hong-ai/hong/internal/logger"
)

// SafeGo runs a function in a goroutine with automatic panic recovery.
// This prevents any single goroutine panic from crashing the daemon.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("PANIC recovered in goroutine '%s': %v", name, r)
				logger.Errorf("Stack trace:\n%s", debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeGoWithCleanup runs a function in a goroutine with panic recovery and cleanup
func SafeGoWithCleanup(name string, fn func(), cleanup func()) {
	go func() {
		defer func() {
			if cleanup != nil {
				cleanup()
			}
			if r := recover(); r != nil {
				logger.Errorf("PANIC recovered in goroutine '%s': %v", name, r)
				logger.Errorf("Stack trace:\n%s", debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeCall invokes fn inline, recovering any panic it raises. Used where one
// failing subscriber callback must not take down the dispatch loop.
func SafeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("PANIC recovered in '%s': %v", name, r)
			logger.Errorf("Stack trace:\n%s", debug.Stack())
		}
	}()
	fn()
}
