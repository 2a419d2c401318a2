package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayeredError_New(t *testing.T) {
	err := New(62, 1, "scope", "error.scope.not_active", "scope not active")

	assert.Equal(t, 620001, err.Code())
	assert.Equal(t, "scope", err.Module())
	assert.Equal(t, "error.scope.not_active", err.MsgKey())
	assert.Equal(t, "scope not active", err.Message())
	assert.Equal(t, "scope not active", err.Error())
	assert.Empty(t, err.Data())
}

func TestLayeredError_Wrap(t *testing.T) {
	cause := errors.New("boom")
	base := New(63, 1, "inject", "error.inject.production", "supplier failed")
	wrapped := base.Wrap(cause)

	assert.Equal(t, "supplier failed: boom", wrapped.Error())
	assert.Same(t, cause, wrapped.Cause())
	assert.True(t, errors.Is(wrapped, cause))
	assert.True(t, errors.Is(wrapped, base))
	// 原实例不受影响
	assert.Nil(t, base.Cause())
	// nil cause 返回自身
	assert.Same(t, base, base.Wrap(nil))
}

func TestLayeredError_IsThroughFmtWrap(t *testing.T) {
	base := New(62, 2, "scope", "error.scope.closed", "scope closed")
	err := fmt.Errorf("lookup: %w", base.WithMsg("scope closed: req-1"))

	assert.True(t, errors.Is(err, base))
	assert.False(t, errors.Is(err, New(62, 3, "scope", "x", "y")))

	var le *LayeredError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "scope closed: req-1", le.Message())
}

func TestLayeredError_WithData(t *testing.T) {
	base := New(61, 1, "binding", "error.binding.invalid", "invalid binding")
	withData := base.WithData("type", "string")

	assert.Equal(t, "string", withData.Data()["type"])
	assert.Empty(t, base.Data())
}

func TestLayeredError_Wrapf(t *testing.T) {
	base := New(61, 1, "binding", "error.binding.invalid", "invalid binding")
	err := base.Wrapf(errors.New("nil supplier"), "invalid binding for %s", "string")

	assert.Equal(t, "invalid binding for string: nil supplier", err.Error())
	assert.Contains(t, err.String(), "code:610001")
}
