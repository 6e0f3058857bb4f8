package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptbind/bridge/internal/shared/id"
	"github.com/scriptbind/bridge/internal/value"
)

func TestRegisterCommandRoutesToContextQueue(t *testing.T) {
	r := NewRegistry(nil)
	ctxID := id.NewContextID(1)
	q := r.Register(ctxID)

	args := []value.Value{value.NewString("text"), value.NewString("hello")}
	require.NoError(t, r.RegisterCommand(ctxID, 7, OpSetProperty, args, 0))
	require.Equal(t, 1, q.Len())

	var got Command
	q.DrainAndApply(func(cmd Command) { got = cmd })

	assert.Equal(t, OpSetProperty, got.Opcode)
	assert.Equal(t, uint64(7), got.TargetID)
	require.Len(t, got.Args, 2)
	assert.Equal(t, "text", got.Args[0].AsString())
	assert.Equal(t, "hello", got.Args[1].AsString())
}

func TestRegisterCommandUnknownContext(t *testing.T) {
	r := NewRegistry(nil)
	err := r.RegisterCommand(id.NewContextID(9), 1, OpDispose, nil, 0)
	assert.Error(t, err)
}

func TestRegisterTwiceReturnsSameQueue(t *testing.T) {
	r := NewRegistry(nil)
	ctxID := id.NewContextID(2)
	assert.Same(t, r.Register(ctxID), r.Register(ctxID))
}

func TestRemoveDropsQueue(t *testing.T) {
	r := NewRegistry(nil)
	ctxID := id.NewContextID(3)
	r.Register(ctxID)
	r.Remove(ctxID)

	_, ok := r.Lookup(ctxID)
	assert.False(t, ok)
	assert.Error(t, r.RegisterCommand(ctxID, 1, OpDispose, nil, 0))
}
