package system

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of the build host, recorded in the build log so a
// slow render can be explained after the fact.
type HostStats struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Platform      string  `json:"platform"`
	CPUModel      string  `json:"cpu_model"`
	CPUCount      int     `json:"cpu_count"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	MemoryUsedPct float64 `json:"memory_used_pct"`
	GoVersion     string  `json:"go_version"`
}

// CollectHostStats never fails: fields that cannot be read stay zero.
func CollectHostStats() HostStats {
	stats := HostStats{
		CPUCount:  runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}

	if info, err := host.Info(); err == nil {
		stats.Hostname = info.Hostname
		stats.OS = info.OS
		stats.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		stats.CPUModel = cpus[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryTotalMB = vm.Total / (1024 * 1024)
		stats.MemoryUsedPct = vm.UsedPercent
	}
	return stats
}

func (s HostStats) String() string {
	return fmt.Sprintf("%s (%s, %d CPU, %d MB RAM)", s.Hostname, s.Platform, s.CPUCount, s.MemoryTotalMB)
}
