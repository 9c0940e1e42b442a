package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AuthAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "auth_attempts_total", Help: "Signup and login attempts by outcome",
	}, []string{"op", "result"})
	CollectionWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "collection_writes_total", Help: "Full-collection writes to the key-value store",
	}, []string{"collection"})
	CorruptReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "corrupt_reads_total", Help: "Persisted values discarded because they could not be decoded",
	}, []string{"key"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"route", "code"})
)

func init() {
	prometheus.MustRegister(AuthAttempts, CollectionWrites, CorruptReads, HTTPRequests)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveAuth records the outcome of an auth operation
func ObserveAuth(op string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	AuthAttempts.WithLabelValues(op, result).Inc()
}
