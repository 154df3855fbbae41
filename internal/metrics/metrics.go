package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标；nil 接收者上的方法均为空操作
type Metrics struct {
	registry *prometheus.Registry

	campaigns        *prometheus.GaugeVec
	fundingRefreshes *prometheus.CounterVec
	investments      *prometheus.CounterVec
	providerRequests *prometheus.HistogramVec
	farmsCreated     prometheus.Counter
	jobRuns          *prometheus.CounterVec
}

// New 创建指标并注册到独立的 registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		campaigns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "antugrow_funding_campaigns",
			Help: "number of funding campaigns by partition",
		}, []string{"partition"}),
		fundingRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "antugrow_funding_refresh_total",
			Help: "number of funding overview refreshes by result",
		}, []string{"result"}),
		investments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "antugrow_investments_total",
			Help: "number of investment attempts by final stage",
		}, []string{"stage"}),
		providerRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "antugrow_provider_request_seconds",
			Help:    "latency of data provider requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint", "result"}),
		farmsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "antugrow_farms_created_total",
			Help: "number of farms created",
		}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "antugrow_job_runs_total",
			Help: "number of scheduled job runs by job and result",
		}, []string{"job", "result"}),
	}
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer 指标采集器
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// SetCampaigns 记录众筹分区数量
func (m *Metrics) SetCampaigns(ongoing, funded int) {
	if m == nil {
		return
	}
	m.campaigns.WithLabelValues("ongoing").Set(float64(ongoing))
	m.campaigns.WithLabelValues("funded").Set(float64(funded))
}

// FundingRefreshed 记录一次众筹刷新
func (m *Metrics) FundingRefreshed(err error) {
	if m == nil {
		return
	}
	m.fundingRefreshes.WithLabelValues(result(err)).Inc()
}

// InvestmentFinished 记录投资的终态
func (m *Metrics) InvestmentFinished(stage string) {
	if m == nil {
		return
	}
	m.investments.WithLabelValues(stage).Inc()
}

// ObserveProvider 记录数据服务请求耗时
func (m *Metrics) ObserveProvider(endpoint string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(endpoint, result(err)).Observe(time.Since(start).Seconds())
}

// FarmCreated 记录新建农场
func (m *Metrics) FarmCreated() {
	if m == nil {
		return
	}
	m.farmsCreated.Inc()
}

// JobRan 记录定时任务执行
func (m *Metrics) JobRan(job string, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
