package poster

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    reloads       prometheus.Counter
//	    saveHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordReload(bytes int, d time.Duration, err error) {
//	    p.reloads.Inc()
//	}
type MetricsCollector interface {
	// RecordCreate is called after each Session.Create.
	RecordCreate(r Retention, duration time.Duration, err error)

	// RecordSave is called after each write of a compiled file.
	// bytes is the encoded size.
	RecordSave(bytes int, duration time.Duration, err error)

	// RecordReload is called after each body reload following a reclamation.
	RecordReload(bytes int, duration time.Duration, err error)

	// RecordParse is called after each Session.Parse.
	RecordParse(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(Retention, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)         {}
func (NoopMetricsCollector) RecordReload(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordParse(int, time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CreateResident    atomic.Int64
	CreateReclaimable atomic.Int64
	CreateErrors      atomic.Int64
	SaveCount         atomic.Int64
	SaveErrors        atomic.Int64
	SaveBytes         atomic.Int64
	SaveTotalNanos    atomic.Int64
	ReloadCount       atomic.Int64
	ReloadErrors      atomic.Int64
	ReloadBytes       atomic.Int64
	ReloadTotalNanos  atomic.Int64
	ParseCount        atomic.Int64
	ParseErrors       atomic.Int64
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(r Retention, _ time.Duration, err error) {
	if err != nil {
		b.CreateErrors.Add(1)
		return
	}
	if r == Resident {
		b.CreateResident.Add(1)
	} else {
		b.CreateReclaimable.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(int64(bytes))
}

// RecordReload implements MetricsCollector.
func (b *BasicMetricsCollector) RecordReload(bytes int, duration time.Duration, err error) {
	b.ReloadCount.Add(1)
	b.ReloadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReloadErrors.Add(1)
		return
	}
	b.ReloadBytes.Add(int64(bytes))
}

// RecordParse implements MetricsCollector.
func (b *BasicMetricsCollector) RecordParse(_ int, _ time.Duration, err error) {
	b.ParseCount.Add(1)
	if err != nil {
		b.ParseErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CreateResident:    b.CreateResident.Load(),
		CreateReclaimable: b.CreateReclaimable.Load(),
		CreateErrors:      b.CreateErrors.Load(),
		SaveCount:         b.SaveCount.Load(),
		SaveErrors:        b.SaveErrors.Load(),
		SaveBytes:         b.SaveBytes.Load(),
		SaveAvgNanos:      avg(b.SaveTotalNanos.Load(), b.SaveCount.Load()),
		ReloadCount:       b.ReloadCount.Load(),
		ReloadErrors:      b.ReloadErrors.Load(),
		ReloadBytes:       b.ReloadBytes.Load(),
		ReloadAvgNanos:    avg(b.ReloadTotalNanos.Load(), b.ReloadCount.Load()),
		ParseCount:        b.ParseCount.Load(),
		ParseErrors:       b.ParseErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CreateResident    int64
	CreateReclaimable int64
	CreateErrors      int64
	SaveCount         int64
	SaveErrors        int64
	SaveBytes         int64
	SaveAvgNanos      int64
	ReloadCount       int64
	ReloadErrors      int64
	ReloadBytes       int64
	ReloadAvgNanos    int64
	ParseCount        int64
	ParseErrors       int64
}
