package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/bosscss/internal/proptree"
)

func TestTrigger(t *testing.T) {
	bus := NewBus(nil)

	var got []string
	bus.Subscribe("a", OnProp, func(_ context.Context, e Event) error {
		got = append(got, "a:"+e.(PropEvent).Property)
		return nil
	})
	bus.Subscribe("b", OnProp, func(_ context.Context, e Event) error {
		got = append(got, "b:"+e.(PropEvent).Property)
		return nil
	})
	bus.Subscribe("c", OnParse, func(_ context.Context, e Event) error {
		got = append(got, "c")
		return nil
	})

	require.NoError(t, bus.Trigger(context.Background(), PropEvent{Property: "color"}, nil))
	assert.Equal(t, []string{"a:color", "b:color"}, got)

	got = nil
	require.NoError(t, bus.Trigger(context.Background(), PropEvent{Property: "width"}, func(plugin string) bool {
		return plugin == "b"
	}))
	assert.Equal(t, []string{"b:width"}, got)
	assert.Equal(t, 2, bus.Len(OnProp))
}

func TestTriggerCombinesErrors(t *testing.T) {
	bus := NewBus(nil)
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	bus.Subscribe("a", OnParse, func(context.Context, Event) error { return errA })
	bus.Subscribe("b", OnParse, func(context.Context, Event) error { return errB })

	err := bus.Trigger(context.Background(), ParseEvent{Source: "x.tsx"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestTriggerCanceled(t *testing.T) {
	bus := NewBus(nil)
	called := false
	bus.Subscribe("a", OnParse, func(context.Context, Event) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := bus.Trigger(ctx, ParseEvent{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestNilBus(t *testing.T) {
	var bus *Bus
	assert.NoError(t, bus.Trigger(context.Background(), ParseEvent{}, nil))
}

func TestDescribe(t *testing.T) {
	tree := proptree.New()
	tree.Set("color", proptree.Static("red"))

	assert.Equal(t, "onPropTree a.tsx: 1 props", Describe(PropTreeEvent{Source: "a.tsx", Tree: tree}))
	assert.Equal(t, "onParse a.tsx: 3 tokens", Describe(ParseEvent{Source: "a.tsx", Tokens: 3}))
	assert.Equal(t, "onCompileProp a.tsx: color", Describe(CompilePropEvent{Source: "a.tsx", Property: "color"}))
}
