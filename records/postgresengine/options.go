package postgresengine

import (
	"github.com/AntonStoeckl/customer-records-go/records"
)

// Option defines a functional option for configuring CustomerStore.
type Option func(*CustomerStore) error

// WithTableName sets the customers table name for the CustomerStore.
func WithTableName(tableName string) Option {
	return func(cs *CustomerStore) error {
		if tableName == "" {
			return ErrEmptyCustomersTableName
		}

		cs.customersTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the CustomerStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Customer counts, durations, concurrency conflicts (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger records.Logger) Option {
	return func(cs *CustomerStore) error {
		cs.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the CustomerStore.
// The contextual logger will receive log messages with context information including
// automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger records.ContextualLogger) Option {
	return func(cs *CustomerStore) error {
		cs.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the CustomerStore.
// The metrics collector will receive performance and operational metrics including
// query/write durations, concurrency conflicts, and database errors.
func WithMetrics(collector records.MetricsCollector) Option {
	return func(cs *CustomerStore) error {
		cs.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the CustomerStore.
// The tracing collector will receive distributed tracing information including
// span creation for query/save/remove operations and error tracking.
func WithTracing(collector records.TracingCollector) Option {
	return func(cs *CustomerStore) error {
		cs.tracingCollector = collector
		return nil
	}
}
