package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Scans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance", Name: "rfid_scans_total", Help: "RFID scans by outcome",
	}, []string{"result"})
	StudentEdits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance", Name: "student_edits_total", Help: "Student edits by outcome",
	}, []string{"result"})
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance", Name: "logins_total", Help: "Login attempts by outcome",
	}, []string{"result"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendance", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "attendance", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Scans, StudentEdits, Logins, HTTPDuration, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
