package observability

import (
	"log/slog"
	"strconv"

	"github.com/aretw0/fold/internal/logging"
	"github.com/aretw0/fold/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for split documents.
type Metrics struct {
	Documents     *prometheus.CounterVec
	Regions       *prometheus.CounterVec
	RegionBytes   prometheus.Histogram
	PayloadBytes  *prometheus.HistogramVec
	HighResImages prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fold_documents_total",
				Help: "Documents processed, by serving mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		Regions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fold_regions_total",
				Help: "Regions diverted out of the main stream, by config entry",
			},
			[]string{"spec"},
		),
		RegionBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fold_region_bytes",
				Help:    "Size of diverted region markup",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
		),
		PayloadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fold_payload_bytes",
				Help:    "Size of the below-the-fold payload",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"mode"},
		),
		HighResImages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fold_high_res_images_total",
				Help: "Above-the-fold images wired for high resolution swap",
			},
		),
	}
	reg.MustRegister(m.Documents, m.Regions, m.RegionBytes, m.PayloadBytes, m.HighResImages)
	return m
}

// Outcome labels for Documents.
const (
	OutcomeSplit       = "split"
	OutcomePassThrough = "pass_through"
	OutcomeFailed      = "failed"
)

// ObserveOutcome counts a document that finished without a DocumentDone
// hook, such as pass-through or failed requests.
func (m *Metrics) ObserveOutcome(mode domain.ServingMode, outcome string) {
	m.Documents.WithLabelValues(mode.String(), outcome).Inc()
}

// Hooks returns lifecycle hooks that record metrics and log each event.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	if logger == nil {
		logger = logging.NewNop()
	}
	return domain.LifecycleHooks{
		OnRegionOpen: func(e *domain.RegionEvent) {
			logger.Debug("region_open", "region", e.RegionID, "parent", e.ParentID, "tag", e.Tag)
			m.Regions.WithLabelValues(strconv.Itoa(e.SpecIndex)).Inc()
		},
		OnRegionClose: func(e *domain.RegionEvent) {
			logger.Debug("region_close", "region", e.RegionID, "bytes", e.Bytes)
			m.RegionBytes.Observe(float64(e.Bytes))
		},
		OnDocumentDone: func(e *domain.DocumentEvent) {
			outcome := OutcomeSplit
			if e.Summary != nil && e.Summary.PassThrough {
				outcome = OutcomePassThrough
			}
			m.Documents.WithLabelValues(e.Mode, outcome).Inc()
			if e.Summary == nil {
				return
			}
			logger.Info("document_done",
				"url", e.URL,
				"mode", e.Mode,
				"regions", len(e.Summary.Regions),
				"payload_bytes", e.Summary.PayloadBytes,
			)
			m.PayloadBytes.WithLabelValues(e.Mode).Observe(float64(e.Summary.PayloadBytes))
			m.HighResImages.Add(float64(e.Summary.HighResImages))
		},
	}
}

// Chain combines hook sets; each callback runs in argument order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		h := h
		if f := h.OnRegionOpen; f != nil {
			prev := out.OnRegionOpen
			out.OnRegionOpen = func(e *domain.RegionEvent) {
				if prev != nil {
					prev(e)
				}
				f(e)
			}
		}
		if f := h.OnRegionClose; f != nil {
			prev := out.OnRegionClose
			out.OnRegionClose = func(e *domain.RegionEvent) {
				if prev != nil {
					prev(e)
				}
				f(e)
			}
		}
		if f := h.OnDocumentDone; f != nil {
			prev := out.OnDocumentDone
			out.OnDocumentDone = func(e *domain.DocumentEvent) {
				if prev != nil {
					prev(e)
				}
				f(e)
			}
		}
	}
	return out
}
