package utils

import (
	"context"
	"log"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// GetSystemStats samples CPU over interval (0 compares against the last call)
// and reads virtual memory usage.
func GetSystemStats(ctx context.Context, interval time.Duration) SystemStats {
	var stats SystemStats

	percentage, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		log.Printf("Error getting CPU usage: %v", err)
	} else if len(percentage) > 0 {
		stats.CPUPercent = percentage[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		log.Printf("Error getting memory usage: %v", err)
	} else {
		stats.MemoryPercent = vm.UsedPercent
	}
	return stats
}
