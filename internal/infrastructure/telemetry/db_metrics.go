package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Database metric attribute keys
var (
	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.sql.table")
	AttrDBState     = attribute.Key("state")
)

// DBDurationBuckets cover one query, in seconds
var DBDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// DBMetricsConfig holds configuration for database metrics
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration // default 200ms
}

// DBMetrics counts address book and export history queries and observes
// the connection pool
type DBMetrics struct {
	queries    metric.Int64Counter
	duration   metric.Float64Histogram
	slow       metric.Int64Counter
	slowThresh time.Duration
	logger     *zap.Logger
	reg        metric.Registration
}

// NewDBMetrics registers the query instruments and, when sqlDB is not nil,
// observable gauges over its pool statistics
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}

	in := NewInstruments(meter)
	m := &DBMetrics{
		queries:    in.Counter("db_query_total", "Database queries by operation", "{query}"),
		duration:   in.Histogram("db_query_duration_seconds", "Database query latency", "s", DBDurationBuckets),
		slow:       in.Counter("db_slow_query_total", "Queries slower than the slow query threshold", "{query}"),
		slowThresh: cfg.SlowQueryThreshold,
		logger:     logger,
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	if sqlDB == nil {
		return m, nil
	}

	conns := in.Gauge("db_pool_connections", "Connections in the pool by state", "{connection}")
	maxConns := in.Gauge("db_pool_connections_max", "Maximum open connections", "{connection}")
	if err := in.Err(); err != nil {
		return nil, err
	}
	var err error
	m.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		for state, n := range map[string]int{"idle": stats.Idle, "in_use": stats.InUse, "open": stats.OpenConnections} {
			o.ObserveInt64(conns, int64(n), metric.WithAttributes(AttrDBState.String(state)))
		}
		return nil
	}, conns, maxConns)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery records one finished query
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration) {
	if m == nil {
		return
	}
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	byOp := AttrDBOperation.String(operation)
	m.queries.Add(ctx, 1, metric.WithAttributes(byOp))
	Seconds(ctx, m.duration, d, byOp)
	if d > m.slowThresh {
		if table == "" {
			table = "unknown"
		}
		m.slow.Add(ctx, 1, metric.WithAttributes(AttrDBTable.String(table)))
	}
}

// Stop unregisters the pool callback
func (m *DBMetrics) Stop() error {
	if m == nil || m.reg == nil {
		return nil
	}
	return m.reg.Unregister()
}

type dbMetricsStartKey struct{}

// Name implements gorm.Plugin
func (m *DBMetrics) Name() string {
	return "actdesk_db_metrics"
}

// Initialize implements gorm.Plugin by timing every create, query, update,
// delete, row and raw statement
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, dbMetricsStartKey{}, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			op := operation
			if op == "" {
				op = detectOperation(tx.Statement.SQL.String())
			}
			ctx := tx.Statement.Context
			if ctx == nil {
				return
			}
			var d time.Duration
			if start, ok := ctx.Value(dbMetricsStartKey{}).(time.Time); ok {
				d = time.Since(start)
			}
			m.RecordQuery(ctx, op, tx.Statement.Table, d)
		}
	}

	cb := db.Callback()
	steps := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("actdesk_metrics:before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("actdesk_metrics:before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("actdesk_metrics:before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("actdesk_metrics:before_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register("actdesk_metrics:before_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("actdesk_metrics:before_raw", before) },
		func() error { return cb.Create().After("gorm:create").Register("actdesk_metrics:after_create", after("INSERT")) },
		func() error { return cb.Query().After("gorm:query").Register("actdesk_metrics:after_query", after("SELECT")) },
		func() error { return cb.Update().After("gorm:update").Register("actdesk_metrics:after_update", after("UPDATE")) },
		func() error { return cb.Delete().After("gorm:delete").Register("actdesk_metrics:after_delete", after("DELETE")) },
		func() error { return cb.Row().After("gorm:row").Register("actdesk_metrics:after_row", after("")) },
		func() error { return cb.Raw().After("gorm:raw").Register("actdesk_metrics:after_raw", after("")) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	m.logger.Info("Database metrics enabled", zap.Duration("slow_query_threshold", m.slowThresh))
	return nil
}

// detectOperation reads the statement verb of raw SQL
func detectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs DBMetrics on db. It returns nil metrics when
// disabled or when the meter provider does not export.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || !mp.IsEnabled() {
		return nil, nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(mp.Meter("actdesk/db"), sqlDB, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		_ = m.Stop()
		return nil, err
	}
	return m, nil
}
