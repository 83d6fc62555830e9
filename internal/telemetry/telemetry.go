/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package telemetry wires zap logging and OpenTelemetry tracing the way the
// teacher wires controller-runtime's logr sink (zapr-backed) and otel tracer;
// here there is no controller-runtime context convention to lean on, so a
// *zap.Logger is constructed once by the root command and passed to every component
// constructor explicitly.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NewLogger builds the process-wide structured logger. dev selects a
// human-readable console encoder; production selects JSON.
func NewLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Tracer returns the named component tracer, mirroring the teacher's single
// package-level `tracer = otel.Tracer("hortator.ai/operator")`.
func Tracer(component string) trace.Tracer {
	return otel.Tracer("cortex.ai/" + component)
}

// Emit starts and immediately ends a span recording a single named event
// with the given attributes, the same shape as the teacher's emitTaskEvent.
func Emit(ctx context.Context, tracer trace.Tracer, event string, attrs ...attribute.KeyValue) {
	_, span := tracer.Start(ctx, event)
	defer span.End()
	span.AddEvent(event, trace.WithAttributes(attrs...))
}
