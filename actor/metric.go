// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/tochemey/lifecycle/actor"

// registryMetric defines the registry instrumentation
type registryMetric struct {
	// Specifies the total number of commands processed, by kind and outcome
	commandsCount metric.Int64Counter
	// Specifies the time taken to apply a command, persistence included.
	// This is expressed in milliseconds
	applyDuration metric.Float64Histogram
	// Specifies the number of live entity actors
	activeActors metric.Int64ObservableGauge
}

func newRegistryMetric(provider metric.MeterProvider, activeActors func() int) (*registryMetric, error) {
	meter := provider.Meter(instrumentationName)
	x := new(registryMetric)
	var err error

	if x.commandsCount, err = meter.Int64Counter(
		"lifecycle_commands_total",
		metric.WithDescription("Total number of lifecycle commands processed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create commandsCount instrument, %w", err)
	}

	if x.applyDuration, err = meter.Float64Histogram(
		"lifecycle_apply_duration",
		metric.WithDescription("The latency of applying a lifecycle command in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create applyDuration instrument, %w", err)
	}

	if x.activeActors, err = meter.Int64ObservableGauge(
		"lifecycle_active_actors",
		metric.WithDescription("Number of live entity actors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create activeActors instrument, %w", err)
	}

	if _, err = meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(x.activeActors, int64(activeActors()))
		return nil
	}, x.activeActors); err != nil {
		return nil, fmt.Errorf("failed to register activeActors callback, %w", err)
	}

	return x, nil
}

func (x *registryMetric) record(ctx context.Context, outcome *Outcome, elapsed time.Duration) {
	result := "accepted"
	if !outcome.Accepted {
		result = string(outcome.Reason())
	}
	kind := "create"
	if outcome.Kind.IsValid() {
		kind = outcome.Kind.String()
	}

	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", result),
	)
	x.commandsCount.Add(ctx, 1, attrs)
	x.applyDuration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
