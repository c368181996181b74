package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/AntonStoeckl/customer-records-go/records"
)

const (
	spanNameQuery  = "customerstore.query"
	spanNameLoad   = "customerstore.load"
	spanNameSave   = "customerstore.save"
	spanNameRemove = "customerstore.remove"

	spanAttrOperation = "operation"

	metricQueryDuration        = "customerstore_query_duration_seconds"
	metricWriteDuration        = "customerstore_write_duration_seconds"
	metricDatabaseErrors       = "customerstore_database_errors_total"
	metricConcurrencyConflicts = "customerstore_concurrency_conflicts_total"

	statusSuccess  = "success"
	statusError    = "error"
	statusConflict = "conflict"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (cs CustomerStore) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {
	if cs.contextualLogger != nil {
		cs.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if cs.logger != nil {
		cs.logger.Debug(logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (cs CustomerStore) logOperation(ctx context.Context, action string, args ...any) {
	if cs.contextualLogger != nil {
		cs.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if cs.logger != nil {
		cs.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (cs CustomerStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if cs.contextualLogger != nil {
		cs.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if cs.logger != nil {
		cs.logger.Error(message, allArgs...)
	}
}

// logWarn logs warning information if a logger is configured.
func (cs CustomerStore) logWarn(ctx context.Context, message string, err error) {
	if cs.contextualLogger != nil {
		cs.contextualLogger.WarnContext(ctx, message, logAttrError, err.Error())
		return
	}

	if cs.logger != nil {
		cs.logger.Warn(message, logAttrError, err.Error())
	}
}

// recordDuration records a duration metric if the metrics collector is configured,
// preferring context-aware recording when the collector supports it.
func (cs CustomerStore) recordDuration(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	operation string,
	status string,
) {
	if cs.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := cs.metricsCollector.(records.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
		return
	}

	cs.metricsCollector.RecordDuration(metricName, duration, labels)
}

// incrementCounter increments a counter metric if the metrics collector is configured.
func (cs CustomerStore) incrementCounter(ctx context.Context, metricName string, operation string) {
	if cs.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
	}

	if contextualCollector, ok := cs.metricsCollector.(records.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricName, labels)
		return
	}

	cs.metricsCollector.IncrementCounter(metricName, labels)
}

// incrementErrorCounter records a database error if the metrics collector is configured.
func (cs CustomerStore) incrementErrorCounter(ctx context.Context, operation string) {
	if cs.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          statusError,
	}

	if contextualCollector, ok := cs.metricsCollector.(records.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	cs.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

// startSpan starts a tracing span if the tracing collector is configured.
func (cs CustomerStore) startSpan(ctx context.Context, name string) (context.Context, records.SpanContext) {
	if cs.tracingCollector == nil {
		return ctx, nil
	}

	return cs.tracingCollector.StartSpan(ctx, name, map[string]string{
		"db.system": dialectPostgres,
		"db.table":  cs.customersTableName,
	})
}

// finishSpan finishes a tracing span if one was started.
func (cs CustomerStore) finishSpan(span records.SpanContext, status string) {
	if cs.tracingCollector == nil || span == nil {
		return
	}

	cs.tracingCollector.FinishSpan(span, status, nil)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
