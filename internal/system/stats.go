package system

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a snapshot of process and host resource usage.
type Stats struct {
	RSS        uint64
	CPUPercent float64
	HostTotal  uint64
	HostUsed   float64
	NumCPU     int
	Goroutines int
}

// CollectStats reads what it can; unavailable counters stay zero.
func CollectStats() Stats {
	s := Stats{NumCPU: runtime.NumCPU(), Goroutines: runtime.NumGoroutine()}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.RSS = mi.RSS
		}
		if c, err := p.CPUPercent(); err == nil {
			s.CPUPercent = c
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.HostTotal = vm.Total
		s.HostUsed = vm.UsedPercent
	}
	return s
}
