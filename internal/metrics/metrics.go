package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DrC0ns0le/speedtest-exporter/internal/speedtest"
)

// Metrics owns the six speedtest gauges on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	serverID prometheus.Gauge
	jitter   prometheus.Gauge
	ping     prometheus.Gauge
	download prometheus.Gauge
	upload   prometheus.Gauge
	up       prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		serverID: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speedtest_server_id",
			Help: "Speedtest server ID used for testing",
		}),
		jitter: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speedtest_jitter_latency_milliseconds",
			Help: "Speedtest jitter in milliseconds",
		}),
		ping: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speedtest_ping_latency_milliseconds",
			Help: "Speedtest ping latency in milliseconds",
		}),
		download: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speedtest_download_bits_per_second",
			Help: "Speedtest download speed in bits per second",
		}),
		upload: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speedtest_upload_bits_per_second",
			Help: "Speedtest upload speed in bits per second",
		}),
		up: factory.NewGauge(prometheus.GaugeOpts{
			Name: "speedtest_up",
			Help: "Speedtest status - 1 if successful, 0 if failed",
		}),
	}
}

// Publish overwrites all six gauges with the given result.
func (m *Metrics) Publish(result speedtest.Result) {
	m.serverID.Set(float64(result.ServerID))
	m.jitter.Set(result.JitterMs)
	m.ping.Set(result.PingMs)
	m.download.Set(result.DownloadBps)
	m.upload.Set(result.UploadBps)
	m.up.Set(float64(result.Up))
}

// Registry exposes the underlying registry for the scrape handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
