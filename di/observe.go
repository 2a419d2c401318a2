package di

import (
	"context"
	"time"

	"github.com/KOMKZ/go-yogan-inject/binding"
	"github.com/KOMKZ/go-yogan-inject/component"
	"github.com/KOMKZ/go-yogan-inject/scope"
	"github.com/KOMKZ/go-yogan-inject/supplier"
	"github.com/KOMKZ/go-yogan-inject/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// instruments inject_* 指标
type instruments struct {
	created         metric.Int64Counter
	disposed        metric.Int64Counter
	failures        metric.Int64Counter
	activations     metric.Int64Counter
	active          metric.Int64UpDownCounter
	produceDuration metric.Float64Histogram
}

// MetricsName 实现 component.MetricsProvider
func (m *Manager) MetricsName() string {
	return component.ComponentInject
}

// IsMetricsEnabled 实现 component.MetricsProvider
func (m *Manager) IsMetricsEnabled() bool {
	return m.config.MetricsEnabled
}

// RegisterMetrics 实现 component.MetricsProvider
func (m *Manager) RegisterMetrics(meter metric.Meter) error {
	b := telemetry.NewMetricsBuilder(meter, "inject")
	inst := &instruments{}

	var err error
	if inst.created, err = b.Counter("instances_created_total", "Instances produced and stored by a scope"); err != nil {
		return err
	}
	if inst.disposed, err = b.Counter("instances_disposed_total", "Instances handed back to their supplier"); err != nil {
		return err
	}
	if inst.failures, err = b.Counter("production_failures_total", "Supplier production failures"); err != nil {
		return err
	}
	if inst.activations, err = b.Counter("scope_activations_total", "Scope activations"); err != nil {
		return err
	}
	if inst.active, err = b.UpDownCounter("active_scopes", "Open scope activations"); err != nil {
		return err
	}
	if inst.produceDuration, err = b.DurationHistogram("produce_duration_seconds", "Supplier production latency"); err != nil {
		return err
	}

	m.metrics.Store(inst)
	return nil
}

var _ component.MetricsProvider = (*Manager)(nil)

func scopeAttr(category scope.Category) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("scope", category.String()))
}

func (m *Manager) observeProduce(ctx context.Context, b *binding.Binding, elapsed time.Duration, err error) {
	inst := m.metrics.Load()
	if inst == nil {
		return
	}
	inst.produceDuration.Record(ctx, elapsed.Seconds(), scopeAttr(b.Scope()))
	if err != nil {
		inst.failures.Add(ctx, 1, scopeAttr(b.Scope()))
	}
}

func (m *Manager) observeDispose(ctx context.Context, category scope.Category) {
	if inst := m.metrics.Load(); inst != nil {
		inst.disposed.Add(ctx, 1, scopeAttr(category))
	}
}

// hooks 作用域生命周期 -> 日志与指标
func (m *Manager) hooks() scope.Hooks {
	return scope.Hooks{
		OnActivate: func(ctx context.Context, c *scope.Context) {
			m.logger.DebugCtx(ctx, "scope activated",
				zap.String("scope", c.Category().String()), zap.String("scope_id", c.ID()))
			if inst := m.metrics.Load(); inst != nil {
				inst.activations.Add(ctx, 1, scopeAttr(c.Category()))
				inst.active.Add(ctx, 1, scopeAttr(c.Category()))
			}
		},
		OnCreate: func(ctx context.Context, c *scope.Context, key uint64, instance any) {
			category := scope.PerLookup
			if c != nil {
				category = c.Category()
			}
			m.logger.DebugCtx(ctx, "instance created",
				zap.Uint64("binding_id", key),
				zap.String("type", supplier.Describe(instance)),
				zap.String("scope", category.String()),
			)
			if inst := m.metrics.Load(); inst != nil {
				inst.created.Add(ctx, 1, scopeAttr(category))
			}
		},
		OnDispose: func(ctx context.Context, c *scope.Context, key uint64, instance any, err error) {
			if err != nil {
				m.logger.WarnCtx(ctx, "instance dispose failed",
					zap.Uint64("binding_id", key),
					zap.String("type", supplier.Describe(instance)),
					zap.String("scope_id", c.ID()),
					zap.Error(err),
				)
				return
			}
			m.logger.DebugCtx(ctx, "instance disposed",
				zap.Uint64("binding_id", key),
				zap.String("type", supplier.Describe(instance)),
				zap.String("scope_id", c.ID()),
			)
			m.observeDispose(ctx, c.Category())
		},
		OnClose: func(ctx context.Context, c *scope.Context, disposed int) {
			m.logger.DebugCtx(ctx, "scope closed",
				zap.String("scope", c.Category().String()),
				zap.String("scope_id", c.ID()),
				zap.Int("disposed", disposed),
			)
			if c.Category() == scope.Singleton {
				return
			}
			if inst := m.metrics.Load(); inst != nil {
				inst.active.Add(ctx, -1, scopeAttr(c.Category()))
			}
		},
	}
}
