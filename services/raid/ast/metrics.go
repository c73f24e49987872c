// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for AST parsing.
var (
	tracer = otel.Tracer("raid.ast")
	meter  = otel.Meter("raid.ast")
)

// Metrics for parse operations.
var (
	parseLatency    metric.Float64Histogram
	parseTotal      metric.Int64Counter
	parseErrors     metric.Int64Counter
	leavesExtracted metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		parseLatency, err = meter.Float64Histogram(
			"raid_ast_parse_duration_seconds",
			metric.WithDescription("Duration of AST parsing operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseTotal, err = meter.Int64Counter(
			"raid_ast_parse_total",
			metric.WithDescription("Total number of parse operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		parseErrors, err = meter.Int64Counter(
			"raid_ast_parse_errors_total",
			metric.WithDescription("Total number of failed parse operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		leavesExtracted, err = meter.Int64Histogram(
			"raid_ast_leaves_extracted",
			metric.WithDescription("Number of leaf tokens extracted per parse"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startParseSpan starts a trace span covering one parse operation.
func startParseSpan(ctx context.Context, grammar Grammar) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ast.parse",
		trace.WithAttributes(attribute.String("grammar", string(grammar))))
}

// recordParse records metrics for one parse operation. Metric failures are
// ignored so instrumentation never affects parsing.
func recordParse(ctx context.Context, grammar Grammar, dur time.Duration, leaves int, parseErr error) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("grammar", string(grammar)))
	parseTotal.Add(ctx, 1, attrs)
	parseLatency.Record(ctx, dur.Seconds(), attrs)
	if parseErr != nil {
		parseErrors.Add(ctx, 1, attrs)
		return
	}
	leavesExtracted.Record(ctx, int64(leaves), attrs)
}
