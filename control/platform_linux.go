//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific debug probes. NumNegotiationWorkers of 0 defaults to the
// CPU count (see negotiation.New); this probe lets a running reactord's
// worker sizing be checked against the machine it landed on.

package control

import (
	"runtime"
)

// RegisterPlatformProbes registers Linux-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.available_cpus", func() any {
		return runtime.NumCPU()
	})
}
