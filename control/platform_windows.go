//go:build windows
// +build windows

// control/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific debug probes, mirroring platform_linux.go so reactord
// builds and reports the same probe set on either platform.

package control

import (
	"runtime"
)

// RegisterPlatformProbes registers Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.available_cpus", func() any {
		return runtime.NumCPU()
	})
}
