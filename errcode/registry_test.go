package errcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	err := New(70, 1, "test", "error.test.a", "a")

	assert.Same(t, err, r.Register(err))
	assert.Equal(t, "test:error.test.a", r.codes[700001])
}

func TestRegistry_RegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register(New(70, 1, "test", "error.test.a", "a"))
	assert.NotPanics(t, func() {
		r.Register(New(70, 1, "test", "error.test.a", "a again"))
	})
	assert.Len(t, r.codes, 1)
}

func TestRegistry_RegisterConflict(t *testing.T) {
	r := NewRegistry()
	r.Register(New(70, 1, "test", "error.test.a", "a"))

	assert.Panics(t, func() {
		r.Register(New(70, 1, "test", "error.test.b", "b"))
	})
}

func TestRegistry_Lock(t *testing.T) {
	r := NewRegistry()
	r.Register(New(70, 1, "test", "error.test.a", "a"))
	assert.False(t, r.IsLocked())

	r.Lock()
	assert.True(t, r.IsLocked())
	assert.Panics(t, func() {
		r.Register(New(70, 2, "test", "error.test.c", "c"))
	})
	assert.Len(t, r.codes, 1)
}
