package execution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptbind/bridge/internal/command"
	"github.com/scriptbind/bridge/internal/value"
)

func newTestRegistry(t *testing.T) (*Registry, *command.Registry) {
	t.Helper()
	commands := command.NewRegistry(nil)
	return NewRegistry(commands, nil), commands
}

func TestCreateRegistersLiveContext(t *testing.T) {
	reg, commands := newTestRegistry(t)

	ctx := reg.Create(1, Options{})
	require.True(t, ctx.IsValid())

	looked, ok := reg.Lookup(ctx.ID())
	require.True(t, ok)
	assert.Same(t, ctx, looked)

	_, ok = commands.Lookup(ctx.ID())
	assert.True(t, ok, "queue must be registered alongside the context")
}

func TestTeardownInvalidatesAndDeregisters(t *testing.T) {
	reg, commands := newTestRegistry(t)
	ctx := reg.Create(1, Options{})

	reg.Teardown(ctx.ID())

	assert.False(t, ctx.IsValid())
	_, ok := reg.Lookup(ctx.ID())
	assert.False(t, ok)
	_, ok = commands.Lookup(ctx.ID())
	assert.False(t, ok)
}

func TestFlushPendingCommandsAppliesInOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var applied []string
	ctx := reg.Create(1, Options{
		Applier: func(cmd command.Command) {
			applied = append(applied, cmd.Args[0].AsString())
		},
	})

	ctx.Enqueue(7, command.OpSetProperty, []value.Value{value.NewString("first")}, 0)
	ctx.Enqueue(7, command.OpSetProperty, []value.Value{value.NewString("second")}, 0)
	ctx.FlushPendingCommands()

	assert.Equal(t, []string{"first", "second"}, applied)
	assert.Equal(t, 0, ctx.Queue().Len())
}

func TestPostTaskDroppedAfterTeardown(t *testing.T) {
	reg, _ := newTestRegistry(t)

	ran := false
	ctx := reg.Create(1, Options{
		Tasks: TaskRunnerFunc(func(task func()) { task() }),
	})

	ctx.PostTask(func() { ran = true })
	require.True(t, ran)

	reg.Teardown(ctx.ID())
	ran = false
	ctx.PostTask(func() { ran = true })
	assert.False(t, ran, "tasks posted to a dead context must be dropped")
}

func TestReportUncaughtErrorUsesSink(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var got error
	ctx := reg.Create(1, Options{
		OnUncaughtError: func(err error) { got = err },
	})

	boom := errors.New("boom")
	ctx.ReportUncaughtError(boom)
	assert.Equal(t, boom, got)
}

func TestGenerationDistinguishesRecreatedContext(t *testing.T) {
	reg, _ := newTestRegistry(t)

	first := reg.Create(1, Options{})
	reg.Teardown(first.ID())
	second := reg.Create(1, Options{})

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, first.ID().Sequence(), second.ID().Sequence())
}
