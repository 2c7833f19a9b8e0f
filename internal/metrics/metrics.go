// Package metrics agrupa las métricas Prometheus del servicio: HTTP, OTP, flujos de
// contraseña y pool de Postgres.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Resultados usados como label "result".
const (
	ResultOK           = "ok"
	ResultUnauthorized = "unauthorized"
	ResultInvalid      = "invalid"
	ResultNotFound     = "not_found"
	ResultExpired      = "expired"
	ResultRateLimited  = "rate_limited"
	ResultError        = "error"
)

// Metrics es nil-safe: con un *Metrics nil todos los Record* son no-op.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	otpIssuedTotal   *prometheus.CounterVec
	otpVerifiedTotal *prometheus.CounterVec
	passwordTotal    *prometheus.CounterVec
	loginTotal       *prometheus.CounterVec
	hashDuration     *prometheus.HistogramVec
	rateLimitedTotal prometheus.Counter
}

// Config agrupa dependencias necesarias para exponer /metrics.
type Config struct {
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
	// Pool opcional para exponer stats del pool global.
	Pool func() *pgxpool.Pool
}

// New crea y registra las métricas. Duplicados en el registry se ignoran.
func New(cfg Config) (*Metrics, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gath := cfg.Gatherer
	if gath == nil {
		if g, ok := reg.(prometheus.Gatherer); ok {
			gath = g
		} else {
			gath = prometheus.DefaultGatherer
		}
	}

	m := &Metrics{
		gatherer: gath,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"}),
		otpIssuedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "Emisiones de códigos OTP por resultado",
		}, []string{"result"}),
		otpVerifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verified_total",
			Help: "Verificaciones de códigos OTP por resultado",
		}, []string{"result"}),
		passwordTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "password_operations_total",
			Help: "Resets y cambios de contraseña por resultado",
		}, []string{"flow", "result"}),
		loginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_total",
			Help: "Logins por resultado",
		}, []string{"result"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "password_hash_duration_seconds",
			Help:    "Duración de hash/verify de contraseñas",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"op", "mode"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rechazadas por el rate limiter",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.otpIssuedTotal, m.otpVerifiedTotal, m.passwordTotal, m.loginTotal,
		m.hashDuration, m.rateLimitedTotal,
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}
	if cfg.Pool != nil {
		if err := registerCollector(reg, newPoolCollector(cfg.Pool)); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler devuelve el handler para /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

func (m *Metrics) RecordOTPIssued(result string) {
	if m != nil {
		m.otpIssuedTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) RecordOTPVerified(result string) {
	if m != nil {
		m.otpVerifiedTotal.WithLabelValues(result).Inc()
	}
}

// RecordPassword: flow es "reset" o "change".
func (m *Metrics) RecordPassword(flow, result string) {
	if m != nil {
		m.passwordTotal.WithLabelValues(flow, result).Inc()
	}
}

func (m *Metrics) RecordLogin(result string) {
	if m != nil {
		m.loginTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveHash(op, mode string, d time.Duration) {
	if m != nil {
		m.hashDuration.WithLabelValues(op, mode).Observe(d.Seconds())
	}
}

func (m *Metrics) RecordRateLimited() {
	if m != nil {
		m.rateLimitedTotal.Inc()
	}
}

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
func (m *Metrics) WithMetrics(next http.Handler) http.Handler {
	if m == nil || next == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		m.httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			m.httpInflight.WithLabelValues(method, pathLabel).Dec()
			m.httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			m.httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
