// Package otel exposes goGuard metrics as OpenTelemetry observable
// instruments.
package otel

import (
	"context"
	"errors"
	"fmt"

	goGuard "github.com/kharven/goGuard"
	"github.com/kharven/goGuard/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goGuard.MetricsSnapshot
	AuditDropped() uint64
}

// histogramGauges holds the per-bound gauges for one engine histogram.
// Observable histograms are not part of the otel API, so cumulative
// bucket counts are published as gauges sharing the Prometheus
// exporter's name table.
type histogramGauges struct {
	id      goGuard.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter mirrors the engine's counter table as observable
// instruments collected through a registered callback.
type OTelExporter struct {
	source       metricsSource
	counters     map[goGuard.MetricID]metric.Int64ObservableCounter
	histograms   []histogramGauges
	auditDropped metric.Int64ObservableCounter
	registration metric.Registration
}

// NewOTelExporter creates an exporter reading from the engine.
func NewOTelExporter(meter metric.Meter, engine *goGuard.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource creates an exporter from a custom source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[goGuard.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}

	var instruments []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		counter, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("observable counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = counter
		instruments = append(instruments, counter)
	}

	for _, def := range internaldefs.HistogramDefs {
		gauges, observables, err := buildHistogramGauges(meter, def)
		if err != nil {
			return nil, err
		}
		e.histograms = append(e.histograms, gauges)
		instruments = append(instruments, observables...)
	}

	dropCounter, err := meter.Int64ObservableCounter(
		"gguard_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("observable counter gguard_audit_dropped_total: %w", err)
	}
	e.auditDropped = dropCounter
	instruments = append(instruments, dropCounter)

	e.registration, err = meter.RegisterCallback(e.observe, instruments...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func buildHistogramGauges(meter metric.Meter, def internaldefs.HistogramDef) (histogramGauges, []metric.Observable, error) {
	gauges := histogramGauges{id: def.ID}
	observables := make([]metric.Observable, 0, len(gauges.buckets)+1)

	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return histogramGauges{}, nil, fmt.Errorf("observable gauge %s: %w", name, err)
		}
		gauges.buckets[i] = gauge
		observables = append(observables, gauge)
	}

	countGauge, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return histogramGauges{}, nil, fmt.Errorf("observable gauge %s_count: %w", def.Name, err)
	}
	gauges.count = countGauge
	observables = append(observables, countGauge)

	return gauges, observables, nil
}

// observe is the collection callback: one snapshot per collect cycle,
// every instrument reported from the same snapshot.
func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for id, counter := range e.counters {
		observer.ObserveInt64(counter, int64(snapshot.Counters[id]))
	}

	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, gauge := range h.buckets {
			observer.ObserveInt64(gauge, int64(cumulative[i]))
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}

	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
