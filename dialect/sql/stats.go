package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalRows is the total number of rows returned.
	TotalRows atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalRows:     s.TotalRows.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalRows.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalRows     int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	if s.TotalQueries == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.TotalQueries)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d rows=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalRows, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, duration time.Duration)

// StatsDriver wraps a Selector with query statistics collection.
type StatsDriver struct {
	Selector
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Queries taking longer than this duration will be counted as slow queries.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries to the given logger, or to the
// default logger when nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, duration time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "duration", duration, "query", query)
	})
}

// NewStatsDriver wraps a Selector with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open("postgres", dsn)
//	sd := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	rows, err := sd.Select(ctx, "SELECT ...")
//	fmt.Println(sd.QueryStats().Stats())
func NewStatsDriver(s Selector, opts ...StatsOption) *StatsDriver {
	d := &StatsDriver{
		Selector:      s,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Select executes a query and records statistics.
func (d *StatsDriver) Select(ctx context.Context, query string) ([]Row, error) {
	start := time.Now()
	rows, err := d.Selector.Select(ctx, query)
	d.record(ctx, query, start, len(rows), err)
	return rows, err
}

func (d *StatsDriver) record(ctx context.Context, query string, start time.Time, n int, err error) {
	duration := time.Since(start)
	d.stats.TotalQueries.Add(1)
	d.stats.TotalRows.Add(int64(n))
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, duration)
		}
	}
}

// DebugDriver wraps a Selector with debug logging of every query.
type DebugDriver struct {
	Selector
	logger *slog.Logger
}

// NewDebugDriver wraps a Selector with debug logging. A nil logger uses
// the default logger.
func NewDebugDriver(s Selector, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Selector: s, logger: logger}
}

// Select logs the query, then executes it.
func (d *DebugDriver) Select(ctx context.Context, query string) ([]Row, error) {
	d.logger.DebugContext(ctx, "select", "query", query)
	rows, err := d.Selector.Select(ctx, query)
	if err == nil {
		d.logger.DebugContext(ctx, "select done", "rows", len(rows))
	}
	return rows, err
}

// Ensure interfaces are implemented.
var (
	_ Selector = (*StatsDriver)(nil)
	_ Selector = (*DebugDriver)(nil)
)
