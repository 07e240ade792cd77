// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集应用和系统指标.
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/firmvault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// VersionUploads 版本上传计数器.
	VersionUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmvault_version_uploads_total",
			Help: "Total number of uploaded versions",
		},
		[]string{"app"},
	)

	// FileDownloads 文件下载计数器.
	FileDownloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmvault_file_downloads_total",
			Help: "Total number of served version files",
		},
		[]string{"app"},
	)

	// LatestResolves latest 解析计数器（含缓存命中标记）.
	LatestResolves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firmvault_latest_resolves_total",
			Help: "Total number of latest-version resolutions",
		},
		[]string{"app", "cache"},
	)

	// StorageBytes 版本文件占用的总字节数，按统计查询刷新.
	StorageBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "firmvault_storage_bytes",
			Help: "Total bytes of stored version files",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	// 注册标准收集器
	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// 注册自定义指标
	registry.MustRegister(
		RequestCounter,
		RequestDuration,
		VersionUploads,
		FileDownloads,
		LatestResolves,
		StorageBytes,
	)

	return nil
}

// StartMetricsServer 在主引擎上挂载 /metrics（以及可选的 pprof）.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
