// Package monitoring samples host and dependency health for the
// superadmin dashboard.
package monitoring

import (
	"context"
	"time"

	"fuelsync-backend/internal/cache"
	"fuelsync-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
)

// Collector gathers a SystemHealth snapshot.
type Collector struct {
	db *pgxpool.Pool
	// sample is the CPU measurement window
	sample time.Duration
}

func NewCollector(db *pgxpool.Pool) *Collector {
	return &Collector{db: db, sample: 200 * time.Millisecond}
}

func (c *Collector) Collect(ctx context.Context) *models.SystemHealth {
	h := &models.SystemHealth{
		Database: status(c.pingDatabase(ctx)),
		Cache:    "disabled",
	}
	if cache.GetClient() != nil {
		h.Cache = status(cache.IsHealthy())
	}

	if cpuPercents, err := cpu.PercentWithContext(ctx, c.sample, false); err == nil && len(cpuPercents) > 0 {
		h.CPUPercent = round1(cpuPercents[0])
	}
	if memStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.MemoryPercent = round1(memStats.UsedPercent)
	}
	if diskStats, err := disk.UsageWithContext(ctx, "/"); err == nil {
		h.DiskPercent = round1(diskStats.UsedPercent)
	}
	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		h.Uptime = uptime
	} else {
		log.Debugf("[Monitoring] uptime unavailable: %v", err)
	}
	return h
}

func (c *Collector) pingDatabase(ctx context.Context) bool {
	if c.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.db.Ping(ctx) == nil
}

func status(ok bool) string {
	if ok {
		return "healthy"
	}
	return "unhealthy"
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
