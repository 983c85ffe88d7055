// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: The go-kvm Authors

package kvm

// MetricsCollector defines the interface for collecting metrics and observability data.
// Counter records a single increment of the named counter; Gauge records the current
// value of a measurement; Histogram records one observation of a distribution.
type MetricsCollector interface {
	Counter(name string, tags ...interface{}) interface{}
	Gauge(name string, tags ...interface{}) interface{}
	Histogram(name string, tags ...interface{}) interface{}
}

// NoOpMetrics is a MetricsCollector implementation that discards all metrics.
type NoOpMetrics struct{}

// Counter returns a no-op counter metric.
func (m *NoOpMetrics) Counter(name string, tags ...interface{}) interface{} { return nil }

// Gauge returns a no-op gauge metric.
func (m *NoOpMetrics) Gauge(name string, tags ...interface{}) interface{} { return nil }

// Histogram returns a no-op histogram metric.
func (m *NoOpMetrics) Histogram(name string, tags ...interface{}) interface{} { return nil }
