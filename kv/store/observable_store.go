package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hatlonely/modelorm/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ObservableStoreOptions struct {
	// EnableMetrics 是否启用指标收集
	EnableMetrics bool `cfg:"enableMetrics" def:"true"`

	// EnableLogging 是否启用日志记录
	EnableLogging bool `cfg:"enableLogging" def:"true"`

	// EnableTracing 是否启用分布式追踪
	EnableTracing bool `cfg:"enableTracing"`

	// Name 组件名称，作为指标名前缀、日志的 component 字段和 span 的 component 属性
	Name string `cfg:"name" def:"store" validate:"required"`
}

// ObservableMetrics 封装 prometheus 指标
type ObservableMetrics struct {
	operationCounter   *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	batchSizeHistogram *prometheus.HistogramVec
}

// NewObservableMetrics 创建并注册指标，同名指标已注册时复用已有的
func NewObservableMetrics(name string, registerer prometheus.Registerer) (*ObservableMetrics, error) {
	metrics := &ObservableMetrics{
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name + "_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"operation"},
		),
		batchSizeHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name + "_batch_size",
				Help:    "Size of batch operations",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"operation"},
		),
	}

	var err error
	if metrics.operationCounter, err = register(registerer, metrics.operationCounter); err != nil {
		return nil, err
	}
	if metrics.operationDuration, err = register(registerer, metrics.operationDuration); err != nil {
		return nil, err
	}
	if metrics.batchSizeHistogram, err = register(registerer, metrics.batchSizeHistogram); err != nil {
		return nil, err
	}
	return metrics, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, c C) (C, error) {
	if err := registerer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, errors.Wrap(err, "prometheus register failed")
	}
	return c, nil
}

type observableOptions struct {
	logger     log.Logger
	registerer prometheus.Registerer
}

type ObservableOption func(*observableOptions)

func WithObservableLogger(logger log.Logger) ObservableOption {
	return func(o *observableOptions) {
		o.logger = logger
	}
}

// WithRegisterer 指标注册的位置，默认 prometheus.DefaultRegisterer
func WithRegisterer(registerer prometheus.Registerer) ObservableOption {
	return func(o *observableOptions) {
		o.registerer = registerer
	}
}

// ObservableStore 装饰器，为任何 Store 添加观测能力
type ObservableStore[K, V any] struct {
	store Store[K, V]

	logger  log.Logger
	metrics *ObservableMetrics
	tracer  trace.Tracer
	name    string
}

func NewObservableStoreWithOptions[K, V any](store Store[K, V], options *ObservableStoreOptions, opts ...ObservableOption) (*ObservableStore[K, V], error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if options == nil {
		return nil, errors.New("options is nil")
	}

	o := &observableOptions{}
	for _, opt := range opts {
		opt(o)
	}

	name := options.Name
	if name == "" {
		name = "store"
	}
	obs := &ObservableStore[K, V]{store: store, name: name}

	if options.EnableLogging {
		logger := o.logger
		if logger == nil {
			logger = log.Default()
		}
		obs.logger = logger.WithGroup("observableStore")
	}

	if options.EnableMetrics {
		registerer := o.registerer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		metrics, err := NewObservableMetrics(name, registerer)
		if err != nil {
			return nil, errors.WithMessage(err, "failed to create metrics")
		}
		obs.metrics = metrics
	}

	if options.EnableTracing {
		obs.tracer = otel.Tracer(fmt.Sprintf("store.%s", name))
	}

	return obs, nil
}

// observe 统一的操作观测逻辑，batchSize 小于 0 表示不是批量操作。
// ErrKeyNotFound 记为 not_found，不视为失败
func (obs *ObservableStore[K, V]) observe(ctx context.Context, operation string, batchSize int, fn func(context.Context) error) error {
	start := time.Now()

	var span trace.Span
	if obs.tracer != nil {
		attrs := []attribute.KeyValue{
			attribute.String("component", obs.name),
			attribute.String("operation", operation),
		}
		if batchSize >= 0 {
			attrs = append(attrs, attribute.Int("batch_size", batchSize))
		}
		ctx, span = obs.tracer.Start(ctx, fmt.Sprintf("store.%s", operation), trace.WithAttributes(attrs...))
		defer span.End()
	}

	err := fn(ctx)
	duration := time.Since(start)

	status := "success"
	if errors.Is(err, ErrKeyNotFound) {
		status = "not_found"
	} else if err != nil {
		status = "error"
	}

	if span != nil {
		span.SetAttributes(attribute.Int64("duration_ms", duration.Milliseconds()))
		if status == "error" {
			span.SetStatus(codes.Error, err.Error())
			span.RecordError(err)
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if obs.metrics != nil {
		obs.metrics.operationCounter.WithLabelValues(operation, status).Inc()
		obs.metrics.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
		if batchSize >= 0 {
			obs.metrics.batchSizeHistogram.WithLabelValues(operation).Observe(float64(batchSize))
		}
	}

	if obs.logger != nil {
		args := []any{
			"component", obs.name,
			"operation", operation,
			"status", status,
			"duration_ms", duration.Milliseconds(),
		}
		if batchSize >= 0 {
			args = append(args, "batch_size", batchSize)
		}
		if status == "error" {
			obs.logger.ErrorContext(ctx, "store operation failed", append(args, "error", err.Error())...)
		} else {
			obs.logger.DebugContext(ctx, "store operation completed", args...)
		}
	}

	return err
}

func (obs *ObservableStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	return obs.observe(ctx, "set", -1, func(ctx context.Context) error {
		return obs.store.Set(ctx, key, value, opts...)
	})
}

func (obs *ObservableStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	var result V
	err := obs.observe(ctx, "get", -1, func(ctx context.Context) error {
		var getErr error
		result, getErr = obs.store.Get(ctx, key)
		return getErr
	})
	return result, err
}

func (obs *ObservableStore[K, V]) Del(ctx context.Context, key K) error {
	return obs.observe(ctx, "del", -1, func(ctx context.Context) error {
		return obs.store.Del(ctx, key)
	})
}

func (obs *ObservableStore[K, V]) BatchSet(ctx context.Context, keys []K, vals []V, opts ...setOption) ([]error, error) {
	var result []error
	err := obs.observe(ctx, "batch_set", len(keys), func(ctx context.Context) error {
		var batchErr error
		result, batchErr = obs.store.BatchSet(ctx, keys, vals, opts...)
		return batchErr
	})
	return result, err
}

func (obs *ObservableStore[K, V]) Close() error {
	return obs.observe(context.Background(), "close", -1, func(ctx context.Context) error {
		return obs.store.Close()
	})
}
