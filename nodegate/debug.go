package nodegate

import "sync/atomic"

var _debugLevel atomic.Int32

// DebugLevel returns the process-wide debug verbosity. Higher is chattier.
func DebugLevel() int32 { return _debugLevel.Load() }

// SetDebugLevel sets the process-wide debug verbosity.
func SetDebugLevel(level int32) { _debugLevel.Store(level) }
