// Package metrics 提供 Prometheus 指标封装与 /metrics 服务
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/onlineordering/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数（按方法、路径、状态码）
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 购物车操作计数（按操作类型与结果）
	CartOperationsTotal *prometheus.CounterVec
	// 结算计数（按结果）
	CheckoutsTotal *prometheus.CounterVec
	// 已创建订单数
	OrdersTotal prometheus.Counter
	// 订单金额分布
	OrderAmount prometheus.Histogram
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordering",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ordering",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CartOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordering",
			Subsystem: serviceName,
			Name:      "cart_operations_total",
			Help:      "Total cart operations",
		}, []string{"operation", "result"}),
		CheckoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ordering",
			Subsystem: serviceName,
			Name:      "checkouts_total",
			Help:      "Total checkout attempts",
		}, []string{"result"}),
		OrdersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordering",
			Subsystem: serviceName,
			Name:      "orders_total",
			Help:      "Total orders created",
		}),
		OrderAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ordering",
			Subsystem: serviceName,
			Name:      "order_amount",
			Help:      "Distribution of order totals",
			Buckets:   prometheus.ExponentialBuckets(1, 2.5, 10),
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CartOperationsTotal,
		m.CheckoutsTotal,
		m.OrdersTotal,
		m.OrderAmount,
	)
	return m
}

// Serve 启动 /metrics HTTP 服务，阻塞运行
func (m *Metrics) Serve(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Metrics server listening", "addr", addr, "path", path)
	return http.ListenAndServe(addr, mux)
}
