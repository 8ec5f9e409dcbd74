package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
)

func noop(context.Context, *State) error { return nil }

func TestDefaultPlans(t *testing.T) {
	svc := NewService(Deps{})

	tests := map[string][]string{
		TaskPrepare: {"prepare"},
		TaskSQLite:  {"prepare", "sqlite"},
		TaskBuild:   {"prepare", "sqlite", "build"},
		TaskPublish: {"prepare", "sqlite", "publish"},
		TaskUpdate:  {"prepare", "update"},
		TaskClean:   {"clean"},
	}
	for task, want := range tests {
		got, err := svc.Plan(task)
		require.NoError(t, err, task)
		require.Equal(t, want, got, task)
	}
}

func TestPlanRunsSharedDependencyOnce(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Task{Name: "a", Run: noop}))
	require.NoError(t, g.Add(Task{Name: "b", Deps: []string{"a"}, Run: noop}))
	require.NoError(t, g.Add(Task{Name: "c", Deps: []string{"a"}, Run: noop}))
	require.NoError(t, g.Add(Task{Name: "d", Deps: []string{"b", "c"}, Run: noop}))

	plan, err := g.Plan("d")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "d"}, plan)
}

func TestPlanUnknownTask(t *testing.T) {
	_, err := NewService(Deps{}).Plan("deploy")
	require.Error(t, err)
	require.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
}

func TestPlanUnknownDependency(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Task{Name: "a", Deps: []string{"missing"}, Run: noop}))

	_, err := g.Plan("a")
	require.ErrorContains(t, err, `task "a" depends on unknown task "missing"`)
}

func TestPlanCycle(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Task{Name: "a", Deps: []string{"b"}, Run: noop}))
	require.NoError(t, g.Add(Task{Name: "b", Deps: []string{"a"}, Run: noop}))

	_, err := g.Plan("a")
	require.ErrorContains(t, err, "a -> b -> a")
}

func TestAddDuplicate(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Task{Name: "a", Run: noop}))
	require.Error(t, g.Add(Task{Name: "a", Run: noop}))
	require.Error(t, g.Add(Task{Run: noop}))
}
