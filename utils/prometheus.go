package utils

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PrometheusRunsStarted              *prometheus.CounterVec
	PrometheusRunsFinished             *prometheus.CounterVec
	PrometheusRowsLoaded               *prometheus.CounterVec
	PrometheusDatetimeColumnsConverted *prometheus.CounterVec

	PrometheusLastRunDuration *prometheus.GaugeVec
)

func StartPrometheus(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(":"+port, mux)
		if err != nil {
			logger.Error().Str("err", err.Error()).Msg("prometheus start error")
		}
	}()
	logger.Info().Str("port", port).Msg("Started prometheus")
}

func init() {
	var labelNames = []string{"connection"}

	PrometheusRunsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csv_dlt_runs_started",
	}, labelNames)

	PrometheusRunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csv_dlt_runs_finished",
	}, []string{"connection", "status"})

	PrometheusRowsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csv_dlt_rows_loaded",
	}, labelNames)

	PrometheusDatetimeColumnsConverted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csv_dlt_datetime_columns_converted",
	}, labelNames)

	PrometheusLastRunDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "csv_dlt_last_run_duration_seconds",
	}, labelNames)
}
