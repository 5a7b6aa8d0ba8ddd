// Package sysinfo collects a short host summary for the status command and
// the menu banners.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sync/errgroup"
)

type (
	Snapshot struct {
		Hostname string
		Platform string
		Uptime   time.Duration
		CPUs     int
		Load     [3]float64

		MemoryTotal   uint64
		MemoryUsed    uint64
		MemoryPercent float64

		DiskPath    string
		DiskTotal   uint64
		DiskUsed    uint64
		DiskPercent float64
	}

	Field struct {
		Name  string
		Value string
	}
)

// Collect gathers the snapshot, each probe in its own goroutine. The first
// failing probe fails the whole snapshot.
func Collect(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	s.DiskPath = "/"

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := host.InfoWithContext(ctx)
		if err != nil {
			return fmt.Errorf("host: %w", err)
		}
		s.Hostname = info.Hostname
		s.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
		s.Uptime = time.Duration(info.Uptime) * time.Second
		return nil
	})
	g.Go(func() error {
		n, err := cpu.CountsWithContext(ctx, true)
		if err != nil {
			return fmt.Errorf("cpu: %w", err)
		}
		s.CPUs = n
		return nil
	})
	g.Go(func() error {
		avg, err := load.AvgWithContext(ctx)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		s.Load = [3]float64{avg.Load1, avg.Load5, avg.Load15}
		return nil
	})
	g.Go(func() error {
		vm, err := mem.VirtualMemoryWithContext(ctx)
		if err != nil {
			return fmt.Errorf("memory: %w", err)
		}
		s.MemoryTotal, s.MemoryUsed, s.MemoryPercent = vm.Total, vm.Used, vm.UsedPercent
		return nil
	})
	g.Go(func() error {
		du, err := disk.UsageWithContext(ctx, s.DiskPath)
		if err != nil {
			return fmt.Errorf("disk: %w", err)
		}
		s.DiskTotal, s.DiskUsed, s.DiskPercent = du.Total, du.Used, du.UsedPercent
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

func (s Snapshot) Fields() []Field {
	return []Field{
		{"Hostname", s.Hostname},
		{"Platform", s.Platform},
		{"Uptime", s.Uptime.String()},
		{"CPUs", fmt.Sprintf("%d", s.CPUs)},
		{"Load", fmt.Sprintf("%.2f %.2f %.2f", s.Load[0], s.Load[1], s.Load[2])},
		{"Memory", fmt.Sprintf("%s / %s (%.1f%%)", humanize.IBytes(s.MemoryUsed), humanize.IBytes(s.MemoryTotal), s.MemoryPercent)},
		{"Disk " + s.DiskPath, fmt.Sprintf("%s / %s (%.1f%%)", humanize.IBytes(s.DiskUsed), humanize.IBytes(s.DiskTotal), s.DiskPercent)},
	}
}

// Summary is the one line banner shown above the menus.
func (s Snapshot) Summary() string {
	return fmt.Sprintf("%s | up %s | load %.2f %.2f %.2f | mem %s / %s",
		s.Hostname, s.Uptime.Truncate(time.Minute), s.Load[0], s.Load[1], s.Load[2],
		humanize.IBytes(s.MemoryUsed), humanize.IBytes(s.MemoryTotal))
}
