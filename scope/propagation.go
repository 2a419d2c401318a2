package scope

import (
	"context"

	"github.com/KOMKZ/go-yogan-inject/logger"
)

type ctxKey struct {
	category Category
}

// WithContext 将激活的 Context 放入 ctx，同时写入 scope_id 供日志使用
func WithContext(ctx context.Context, c *Context) context.Context {
	ctx = context.WithValue(ctx, ctxKey{category: c.category}, c)
	return logger.ContextWithScopeID(ctx, c.id)
}

// FromContext 取出 ctx 中指定类别的 Context，不存在返回 nil
func FromContext(ctx context.Context, category Category) *Context {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(ctxKey{category: category.OrDefault()}).(*Context)
	return c
}
