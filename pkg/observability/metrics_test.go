package observability_test

import (
	"testing"

	"github.com/aretw0/fold/pkg/domain"
	"github.com/aretw0/fold/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks(nil)

	hooks.OnRegionOpen(&domain.RegionEvent{RegionID: "panel-id.0", SpecIndex: 1})
	hooks.OnRegionClose(&domain.RegionEvent{RegionID: "panel-id.0", Bytes: 120})
	hooks.OnDocumentDone(&domain.DocumentEvent{Mode: "inline", Summary: &domain.Summary{
		Regions:       []domain.RegionSummary{{ID: "panel-id.0"}},
		PayloadBytes:  200,
		HighResImages: 2,
	}})
	m.ObserveOutcome(domain.ModeSplitBTF, observability.OutcomeFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Regions.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("inline", observability.OutcomeSplit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Documents.WithLabelValues("btf", observability.OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HighResImages))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RegionBytes))
}

func TestChain(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnRegionOpen: func(*domain.RegionEvent) { calls = append(calls, "a-open") },
	}
	b := domain.LifecycleHooks{
		OnRegionOpen:   func(*domain.RegionEvent) { calls = append(calls, "b-open") },
		OnDocumentDone: func(*domain.DocumentEvent) { calls = append(calls, "b-done") },
	}

	h := observability.Chain(a, domain.LifecycleHooks{}, b)
	h.OnRegionOpen(&domain.RegionEvent{})
	h.OnDocumentDone(&domain.DocumentEvent{})
	assert.Nil(t, h.OnRegionClose)
	assert.Equal(t, []string{"a-open", "b-open", "b-done"}, calls)
}
