package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestNilPromIsSafe(t *testing.T) {
	var p *Prom

	p.ObserveNearby(3, 1)
	p.IncFavoriteToggle("added")
	p.IncOutbox("event.created", nil)

	called := false
	if err := p.ObserveSweep("lifecycle", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("ObserveSweep on nil should run fn, err=%v called=%v", err, called)
	}
}

func TestPromCounters(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.IncFavoriteToggle("added")
	p.IncFavoriteToggle("added")
	p.IncFavoriteToggle("removed")

	if got := counterValue(t, p.FavoriteToggles.WithLabelValues("added")); got != 2 {
		t.Fatalf("added = %v, want 2", got)
	}

	boom := errors.New("boom")
	if err := p.ObserveDB("events.get", func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("ObserveDB should return fn error, got %v", err)
	}
	if got := counterValue(t, p.DbErrorsTotal.WithLabelValues("events.get", "unknown")); got != 1 {
		t.Fatalf("db errors = %v, want 1", got)
	}
}
