package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	UploadsTotal   *prometheus.CounterVec
	UploadBytes    prometheus.Counter
	UploadDuration prometheus.Histogram
	GrantFailures  prometheus.Counter
}

// InitMetrics creates and registers the relay metrics.
func InitMetrics() (*Metrics, error) {
	m := &Metrics{
		UploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_relay_uploads_total",
			Help: "Upload requests by outcome.",
		}, []string{"outcome"}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_relay_upload_bytes_total",
			Help: "Bytes relayed to the remote store.",
		}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "video_relay_upload_duration_seconds",
			Help:    "End-to-end upload handling time.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		GrantFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "video_relay_grant_failures_total",
			Help: "Public-read grants that failed or were dropped.",
		}),
	}

	collectors := []prometheus.Collector{
		m.UploadsTotal, m.UploadBytes, m.UploadDuration, m.GrantFailures,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			// If already registered, that's okay (useful for testing)
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}

	return m, nil
}

// StartMetricsServer starts a side HTTP server exposing /metrics and /health.
func StartMetricsServer(port string, logger *zap.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		mux.Handle("/metrics", promhttp.Handler())

		logger.Info("starting metrics server", zap.String("port", port))
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}
