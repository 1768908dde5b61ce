package web

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hatlonely/webx/log/logger"
)

// DispatchMetrics 封装 prometheus 指标
type DispatchMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  *prometheus.GaugeVec
}

// NewDispatchMetrics 创建指标收集器
func NewDispatchMetrics(name string) *DispatchMetrics {
	metrics := &DispatchMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_requests_total",
				Help: "Total number of dispatched requests",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_request_duration_seconds",
				Help:    "Duration of dispatched requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"route", "method"},
		),
		activeRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: name + "_active_requests",
				Help: "Number of requests currently being handled",
			},
			[]string{"route"},
		),
	}

	prometheus.MustRegister(
		metrics.requestCounter,
		metrics.requestDuration,
		metrics.activeRequests,
	)

	return metrics
}

// dispatchObserver 为每次分发增加指标、日志和追踪，三个维度都可以单独关闭
type dispatchObserver struct {
	name          string
	logger        logger.Logger
	metrics       *DispatchMetrics
	tracer        trace.Tracer
	enableMetrics bool
	enableLogging bool
	enableTracing bool
}

func newDispatchObserver(name string, l logger.Logger, enableMetrics bool, enableLogging bool, enableTracing bool) *dispatchObserver {
	obs := &dispatchObserver{
		name:          name,
		logger:        l,
		enableMetrics: enableMetrics,
		enableLogging: enableLogging && l != nil,
		enableTracing: enableTracing,
	}
	if enableMetrics {
		obs.metrics = NewDispatchMetrics(name)
	}
	if enableTracing {
		obs.tracer = otel.Tracer("web." + name)
	}
	return obs
}

// observe 统一的分发观测逻辑，fn 返回最终响应状态码
func (obs *dispatchObserver) observe(ctx context.Context, route string, method string, fn func(context.Context) int) {
	start := time.Now()

	var span trace.Span
	if obs.enableTracing && obs.tracer != nil {
		ctx, span = obs.tracer.Start(ctx, "dispatch "+route,
			trace.WithAttributes(
				attribute.String("component", obs.name),
				attribute.String("route", route),
				attribute.String("method", method),
			),
		)
		defer span.End()
	}

	if obs.enableMetrics && obs.metrics != nil {
		obs.metrics.activeRequests.WithLabelValues(route).Inc()
		defer obs.metrics.activeRequests.WithLabelValues(route).Dec()
	}

	status := fn(ctx)
	duration := time.Since(start)

	if obs.enableTracing && span != nil {
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.Int64("duration_ms", duration.Milliseconds()),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.enableMetrics && obs.metrics != nil {
		obs.metrics.requestCounter.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		obs.metrics.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
	}

	if obs.enableLogging {
		if status >= 500 {
			obs.logger.ErrorContext(ctx, "request failed",
				"component", obs.name,
				"route", route,
				"method", method,
				"status", status,
				"duration_ms", duration.Milliseconds(),
			)
		} else {
			obs.logger.InfoContext(ctx, "request completed",
				"component", obs.name,
				"route", route,
				"method", method,
				"status", status,
				"duration_ms", duration.Milliseconds(),
			)
		}
	}
}
