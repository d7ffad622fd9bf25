package ridemap

import (
	"encoding/json"
	"time"
)

// NodeType is the closed set of map location kinds.
type NodeType string

const (
	NodeStart    NodeType = "start"
	NodeStandard NodeType = "standard"
	NodeHard     NodeType = "hard"
	NodeShop     NodeType = "shop"
	NodeEvent    NodeType = "event"
	NodeBoss     NodeType = "boss"
	NodeFinish   NodeType = "finish"
	// NodeElite is reserved. The generator never emits it; challenge data for
	// elite nodes is attached by the caller.
	NodeElite NodeType = "elite"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeStandard, NodeHard, NodeShop, NodeEvent, NodeBoss, NodeFinish, NodeElite:
		return true
	default:
		return false
	}
}

// Point is a normalized 2-D layout position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a location on the run map.
// Next lists downstream node IDs in edge creation order; it is only ever
// written by the graph builder alongside the matching Edge.
type Node struct {
	ID        string          `json:"id"`
	Type      NodeType        `json:"type"`
	Floor     int             `json:"floor"`
	Position  Point           `json:"position"`
	Next      []string        `json:"next"`
	Biome     string          `json:"biome,omitempty"`
	Challenge json.RawMessage `json:"challenge,omitempty"`
}

// Edge is a directed connection between two nodes carrying its road terrain.
// Cleared is owned by the run-state collaborator; the generator always
// creates edges uncleared.
type Edge struct {
	ID      string  `json:"id"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Profile Profile `json:"profile"`
	Cleared bool    `json:"cleared"`
}

// Run is the explicit run context the generator writes into and the run-state
// collaborator persists. It holds plain data only.
type Run struct {
	ID                string    `json:"id"`
	Config            RunConfig `json:"config"`
	Nodes             []Node    `json:"nodes"`
	Edges             []Edge    `json:"edges"`
	CurrentNodeID     string    `json:"currentNodeId"`
	Visited           []string  `json:"visited"`
	RunLength         int       `json:"runLength"`
	TotalMapDistanceM float64   `json:"totalMapDistanceM"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Node returns the node with the given ID.
func (r *Run) Node(id string) (*Node, bool) {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i], true
		}
	}
	return nil, false
}

// Edge returns the edge with the given ID.
func (r *Run) Edge(id string) (*Edge, bool) {
	for i := range r.Edges {
		if r.Edges[i].ID == id {
			return &r.Edges[i], true
		}
	}
	return nil, false
}

// EdgeBetween returns the edge running from -> to.
func (r *Run) EdgeBetween(from, to string) (*Edge, bool) {
	for i := range r.Edges {
		if r.Edges[i].From == from && r.Edges[i].To == to {
			return &r.Edges[i], true
		}
	}
	return nil, false
}

// Downstream derives the outgoing neighbours of id from the edge list.
func (r *Run) Downstream(id string) []string {
	var out []string
	for _, e := range r.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// NodesOfType returns every node of type t in creation order.
func (r *Run) NodesOfType(t NodeType) []Node {
	var out []Node
	for _, n := range r.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// HasVisited reports whether the node is in the visited set.
func (r *Run) HasVisited(id string) bool {
	for _, v := range r.Visited {
		if v == id {
			return true
		}
	}
	return false
}
