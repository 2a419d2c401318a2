package di

import (
	"context"
	"time"

	"github.com/KOMKZ/go-yogan-inject/binding"
	"github.com/KOMKZ/go-yogan-inject/scope"
	"github.com/KOMKZ/go-yogan-inject/supplier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// producer 返回绑定的 CreateFunc：按 supplier 作用域取 supplier，生产实例并返回生产它的 supplier
func (m *Manager) producer(b *binding.Binding) scope.CreateFunc {
	return func(ctx context.Context) (any, supplier.Supplier, error) {
		s := b.Supplier()

		ctx, span := m.tracer.Start(ctx, "inject.produce", trace.WithAttributes(
			attribute.String("inject.target", b.Target().String()),
			attribute.String("inject.scope", b.Scope().String()),
			attribute.Int64("inject.binding_id", int64(b.ID())),
		))
		defer span.End()

		start := time.Now()
		instance, err := s.Get(ctx)
		m.observeProduce(ctx, b, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			m.logger.WarnCtx(ctx, "supplier production failed",
				zap.Stringer("target", b.Target()),
				zap.String("scope", b.Scope().String()),
				zap.Error(err),
			)
			return nil, nil, ErrSupplierProduction.
				WithMsgf("produce %s failed", b.Target()).
				WithData("target", b.Target().String()).
				Wrap(err)
		}
		return instance, s, nil
	}
}
