package ridemap

import (
	"fmt"
	"slices"
)

// Validate checks the structural invariants of a generated run map: one
// start node, at least one finish, known node types, edges between existing
// nodes mirrored by Node.Next, no cycles, a finish reachable from the start
// and well-formed islands.
func Validate(run *Run) error {
	if run == nil || len(run.Nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidGraph)
	}

	ids := make(map[string]*Node, len(run.Nodes))
	var starts, finishes []string
	for i := range run.Nodes {
		n := &run.Nodes[i]
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node %q", ErrInvalidGraph, n.ID)
		}
		if !n.Type.Valid() {
			return fmt.Errorf("%w: node %q has unknown type %q", ErrInvalidGraph, n.ID, n.Type)
		}
		ids[n.ID] = n
		switch n.Type {
		case NodeStart:
			starts = append(starts, n.ID)
		case NodeFinish:
			finishes = append(finishes, n.ID)
		case NodeStandard, NodeHard, NodeShop, NodeEvent, NodeBoss, NodeElite:
		}
	}
	if len(starts) != 1 {
		return fmt.Errorf("%w: want exactly one start node, got %d", ErrInvalidGraph, len(starts))
	}
	if len(finishes) == 0 {
		return fmt.Errorf("%w: no finish node", ErrInvalidGraph)
	}

	for _, e := range run.Edges {
		if _, ok := ids[e.From]; !ok {
			return fmt.Errorf("%w: edge %s references unknown from node %q", ErrInvalidGraph, e.ID, e.From)
		}
		if _, ok := ids[e.To]; !ok {
			return fmt.Errorf("%w: edge %s references unknown to node %q", ErrInvalidGraph, e.ID, e.To)
		}
		if e.Profile.Len() == 0 {
			return fmt.Errorf("%w: edge %s has an empty profile", ErrInvalidGraph, e.ID)
		}
	}
	for _, n := range run.Nodes {
		if !slices.Equal(n.Next, run.Downstream(n.ID)) {
			return fmt.Errorf("%w: node %q next list does not match its edges", ErrInvalidGraph, n.ID)
		}
	}

	if err := validateAcyclic(run.Nodes, run.Edges); err != nil {
		return err
	}

	reach := Reachable(run, starts[0])
	found := false
	for _, f := range finishes {
		if reach[f] {
			found = true
			break
		}
	}
	if !found {
		return ErrUnreachableFinish
	}

	return validateIslands(run)
}

// Reachable returns the set of node IDs reachable from start by following
// edges, start included.
func Reachable(run *Run, start string) map[string]bool {
	adj := make(map[string][]string)
	for _, e := range run.Edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// validateIslands checks every boss closes an island of exactly one shop, one
// boss and four interior nodes drawn from standard, event and hard.
func validateIslands(run *Run) error {
	for _, boss := range run.NodesOfType(NodeBoss) {
		island, ok := islandOf(run, boss.ID)
		if !ok {
			return fmt.Errorf("%w: boss %q does not close a well-formed island", ErrInvalidGraph, boss.ID)
		}
		shops, interior := 0, 0
		for _, id := range island {
			n, _ := run.Node(id)
			switch n.Type {
			case NodeShop:
				shops++
			case NodeStandard, NodeEvent, NodeHard:
				interior++
			case NodeBoss:
			case NodeStart, NodeFinish, NodeElite:
				return fmt.Errorf("%w: island of %q contains %s node %q", ErrInvalidGraph, boss.ID, n.Type, id)
			}
		}
		if shops != 1 || interior != 4 {
			return fmt.Errorf("%w: island of %q has %d shops and %d interior nodes", ErrInvalidGraph, boss.ID, shops, interior)
		}
	}
	return nil
}

// islandOf walks back from a boss: boss <- pre-boss <- three branches <- entry.
func islandOf(run *Run, bossID string) ([]string, bool) {
	upstream := func(id string) []string {
		var out []string
		for _, e := range run.Edges {
			if e.To == id {
				out = append(out, e.From)
			}
		}
		return out
	}
	pre := upstream(bossID)
	if len(pre) != 1 {
		return nil, false
	}
	mids := upstream(pre[0])
	if len(mids) != 3 {
		return nil, false
	}
	var entry string
	for _, m := range mids {
		up := upstream(m)
		if len(up) != 1 || (entry != "" && up[0] != entry) {
			return nil, false
		}
		entry = up[0]
	}
	island := append([]string{entry}, mids...)
	return append(island, pre[0], bossID), true
}

// validateAcyclic checks that the edges don't form a cycle using DFS.
func validateAcyclic(nodes []Node, edges []Edge) error {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int, len(nodes))
	for _, n := range nodes {
		state[n.ID] = unvisited
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for _, n := range nodes {
		if state[n.ID] == unvisited && dfs(n.ID) {
			return ErrCycleDetected
		}
	}
	return nil
}
