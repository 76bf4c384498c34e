package session

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/carnagereport/theater/internal/session"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type metrics struct {
	ticks    metric.Int64Counter
	duration metric.Float64Histogram
	commands metric.Int64Counter
}

func newMetrics() (metrics, error) {
	m := meter()
	var (
		out metrics
		err error
	)
	out.ticks, err = m.Int64Counter(
		"session.ticks",
		metric.WithDescription("Ticks run"),
	)
	if err != nil {
		return out, err
	}
	out.duration, err = m.Float64Histogram(
		"session.tick.duration",
		metric.WithDescription("Time spent inside Tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return out, err
	}
	out.commands, err = m.Int64Counter(
		"session.commands.applied",
		metric.WithDescription("Queued commands applied"),
	)
	return out, err
}
