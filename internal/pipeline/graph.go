package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	foundationerrors "git.home.luguber.info/inful/sqlite3src/internal/foundation/errors"
)

// Task names.
const (
	TaskPrepare = "prepare"
	TaskSQLite  = "sqlite"
	TaskBuild   = "build"
	TaskPublish = "publish"
	TaskUpdate  = "update"
	TaskClean   = "clean"
)

// Task is a named unit of work with declared dependencies.
type Task struct {
	Name        string
	Description string
	Deps        []string
	Run         func(ctx context.Context, st *State) error
}

// Graph holds tasks keyed by name.
type Graph struct {
	tasks map[string]*Task
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{tasks: map[string]*Task{}}
}

// Add registers t. Names must be unique.
func (g *Graph) Add(t Task) error {
	if t.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if _, exists := g.tasks[t.Name]; exists {
		return fmt.Errorf("task %q already registered", t.Name)
	}
	g.tasks[t.Name] = &t
	return nil
}

// Task returns the task registered under name.
func (g *Graph) Task(name string) (*Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Names returns all task names sorted.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.tasks))
	for n := range g.tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Plan returns the dependency closure of name in execution order, dependencies
// first and name last. Dependencies run in declaration order.
func (g *Graph) Plan(name string) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var order []string
	var stack []string

	var visit func(n string) error
	visit = func(n string) error {
		t, ok := g.tasks[n]
		if !ok {
			msg := fmt.Sprintf("unknown task %q", n)
			if len(stack) > 0 {
				msg = fmt.Sprintf("task %q depends on unknown task %q", stack[len(stack)-1], n)
			}
			return foundationerrors.ValidationError(msg).
				WithContext("valid", strings.Join(g.Names(), ", ")).
				Build()
		}
		switch state[n] {
		case done:
			return nil
		case visiting:
			cycle := strings.Join(append(stack, n), " -> ")
			return foundationerrors.InternalError("task dependency cycle: " + cycle).Build()
		}
		state[n] = visiting
		stack = append(stack, n)
		for _, dep := range t.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		order = append(order, n)
		return nil
	}

	if err := visit(name); err != nil {
		return nil, err
	}
	return order, nil
}
