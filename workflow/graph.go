// Package workflow runs small linear graphs of named steps over a shared State.
package workflow

import (
	"context"

	"github.com/pkg/errors"
)

// NodeFunc transforms the state in place.
type NodeFunc func(ctx context.Context, st *State) error

// Graph is a builder for a linear workflow. Build it with AddNode, AddEdge,
// SetEntryPoint and SetFinishPoint, then Compile.
type Graph struct {
	nodes  map[string]NodeFunc
	edges  map[string]string
	entry  string
	finish string
	err    error
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]NodeFunc),
		edges: make(map[string]string),
	}
}

func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge routes control from one node to the next. Nodes have at most one
// outgoing edge; a conflicting edge is reported by Compile.
func (g *Graph) AddEdge(from, to string) *Graph {
	if prev, ok := g.edges[from]; ok && prev != to && g.err == nil {
		g.err = errors.Errorf("workflow: node %q already routes to %q", from, prev)
		return g
	}
	g.edges[from] = to
	return g
}

func (g *Graph) SetEntryPoint(name string) *Graph {
	g.entry = name
	return g
}

func (g *Graph) SetFinishPoint(name string) *Graph {
	g.finish = name
	return g
}

// Compile validates the graph and resolves it into an ordered path from
// entry to finish.
func (g *Graph) Compile() (*Runnable, error) {
	if g.err != nil {
		return nil, g.err
	}
	if g.entry == "" {
		return nil, errors.New("workflow: entry point not set")
	}
	if g.finish == "" {
		return nil, errors.New("workflow: finish point not set")
	}
	for _, name := range []string{g.entry, g.finish} {
		if _, ok := g.nodes[name]; !ok {
			return nil, errors.Errorf("workflow: unknown node %q", name)
		}
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, errors.Errorf("workflow: edge from unknown node %q", from)
		}
		if _, ok := g.nodes[to]; !ok {
			return nil, errors.Errorf("workflow: edge to unknown node %q", to)
		}
	}

	var path []step
	visited := make(map[string]bool)
	cur := g.entry
	for {
		if visited[cur] {
			return nil, errors.Errorf("workflow: cycle at node %q", cur)
		}
		visited[cur] = true
		path = append(path, step{name: cur, fn: g.nodes[cur]})
		if cur == g.finish {
			break
		}
		next, ok := g.edges[cur]
		if !ok {
			return nil, errors.Errorf("workflow: finish %q unreachable from %q", g.finish, g.entry)
		}
		cur = next
	}
	return &Runnable{steps: path}, nil
}

type step struct {
	name string
	fn   NodeFunc
}

// Runnable is a compiled, read-only workflow safe for concurrent Invoke calls.
type Runnable struct {
	steps []step
}

// Invoke runs every step in order on a copy of in and returns the final state.
// The first failing step or a cancelled context stops the run.
func (r *Runnable) Invoke(ctx context.Context, in State) (State, error) {
	st := in
	for _, s := range r.steps {
		if err := ctx.Err(); err != nil {
			return st, errors.Wrapf(err, "workflow: before node %q", s.name)
		}
		if err := s.fn(ctx, &st); err != nil {
			return st, errors.Wrapf(err, "workflow: node %q", s.name)
		}
	}
	return st, nil
}

// Steps lists node names in execution order.
func (r *Runnable) Steps() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.name
	}
	return names
}
