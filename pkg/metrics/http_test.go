package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveRequestRecordsCounterAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("GET", "/api/v1/catalog", "200", 120*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/catalog", "200", 80*time.Millisecond)
	m.ObserveRequest("POST", "/api/v1/orders", "422", 10*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var requests *dto.MetricFamily
	for _, fam := range families {
		if fam.GetName() == "http_requests_total" {
			requests = fam
		}
	}
	if requests == nil {
		t.Fatal("http_requests_total not registered")
	}

	var catalogCount float64
	for _, metric := range requests.GetMetric() {
		labels := map[string]string{}
		for _, pair := range metric.GetLabel() {
			labels[pair.GetName()] = pair.GetValue()
		}
		if labels["route"] == "/api/v1/catalog" && labels["status"] == "200" {
			catalogCount = metric.GetCounter().GetValue()
		}
	}
	if catalogCount != 2 {
		t.Fatalf("expected 2 catalog requests, got %v", catalogCount)
	}
}

func TestObserveRequestNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest("GET", "/x", "200", time.Millisecond)

	empty := NewHTTPMetrics(nil)
	empty.ObserveRequest("", "", "", 0)
}
