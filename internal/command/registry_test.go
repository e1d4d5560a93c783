package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndExecute(t *testing.T) {
	r := NewRegistry()

	var got []any
	require.NoError(t, r.Register("editor.insert", func(_ context.Context, args []any) (any, error) {
		got = args
		return "done", nil
	}))

	assert.True(t, r.Has("editor.insert"))
	res, err := r.Execute(context.Background(), "editor.insert", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, "done", res)
	assert.Equal(t, []any{"a", 1}, got)
}

func TestRegistry_RegisterTwice(t *testing.T) {
	r := NewRegistry()
	h := func(context.Context, []any) (any, error) { return nil, nil }

	require.NoError(t, r.Register("x", h))
	assert.ErrorIs(t, r.Register("x", h), ErrAlreadyRegistered)
	assert.Error(t, r.Register("", h))
	assert.Error(t, r.Register("y", nil))
}

func TestRegistry_UnknownCommand(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRegistry_CancelledContext(t *testing.T) {
	r := NewRegistry()
	called := false
	require.NoError(t, r.Register("x", func(context.Context, []any) (any, error) {
		called = true
		return nil, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Execute(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRegistry_ListAndUnregister(t *testing.T) {
	r := NewRegistry()
	h := func(context.Context, []any) (any, error) { return nil, nil }
	require.NoError(t, r.Register("b", h))
	require.NoError(t, r.Register("a", h))

	assert.Equal(t, []string{"a", "b"}, r.List())

	r.Unregister("a")
	assert.False(t, r.Has("a"))
	assert.Equal(t, []string{"b"}, r.List())
}
