package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                    sync.Once
	metricsRouter           *chi.Mux
	chainClientLatency      *prometheus.HistogramVec
	pollerDurationHistogram *prometheus.HistogramVec
	blocksScannedCounter    *prometheus.CounterVec
	rewardsFoundCounter     *prometheus.CounterVec
	scanErrorCounter        *prometheus.CounterVec
	chainTipHeightGauge     prometheus.Gauge
	checkpointHeightGauge   *prometheus.GaugeVec
	queueSendErrorCounter   prometheus.Counter
	dbLatency               *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	chainClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chain_client_latency_seconds",
			Help:    "Histogram of chain RPC client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	blocksScannedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blocks_scanned_total",
			Help: "The total number of blocks fetched and classified, per scan type.",
		},
		[]string{"scan_type"},
	)

	rewardsFoundCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stake_rewards_found_total",
			Help: "The total number of newly persisted stake rewards, per scan type.",
		},
		[]string{"scan_type"},
	)

	scanErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_errors_total",
			Help: "The total number of blocks skipped or deferred due to errors, per scan type.",
		},
		[]string{"scan_type"},
	)

	chainTipHeightGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chain_tip_height",
			Help: "Last value of the chain tip height retrieved",
		},
	)

	checkpointHeightGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scan_checkpoint_height",
			Help: "Last confirmed checkpoint height, per scan type.",
		},
		[]string{"scan_type"},
	)

	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		chainClientLatency,
		pollerDurationHistogram,
		blocksScannedCounter,
		rewardsFoundCounter,
		scanErrorCounter,
		chainTipHeightGauge,
		checkpointHeightGauge,
		queueSendErrorCounter,
		dbLatency,
	)
}

func RecordChainClientLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	chainClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordBlocksScanned(scanType string, count int) {
	blocksScannedCounter.WithLabelValues(scanType).Add(float64(count))
}

func RecordRewardsFound(scanType string, count int) {
	rewardsFoundCounter.WithLabelValues(scanType).Add(float64(count))
}

func RecordScanErrors(scanType string, count int) {
	scanErrorCounter.WithLabelValues(scanType).Add(float64(count))
}

func RecordChainTipHeight(height int64) {
	chainTipHeightGauge.Set(float64(height))
}

func RecordCheckpointHeight(scanType string, height int64) {
	checkpointHeightGauge.WithLabelValues(scanType).Set(float64(height))
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
