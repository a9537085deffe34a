package lineage

import (
	"sort"

	"github.com/correlator-io/dbt-correlator/internal/artifact"
)

// Graph is the manifest dependency graph, held as an arena of nodes
// indexed by unique_id with edges as ordered id lists. Edges referencing
// ids absent from the arena are kept as-is; traversal reports them as
// dangling instead of failing.
type Graph struct {
	meta  artifact.ManifestMetadata
	nodes map[string]*artifact.Node
	deps  map[string][]string // unique_id -> upstream ids, declared order
}

// NewGraph builds the dependency graph from a parsed manifest.
func NewGraph(m *artifact.Manifest) *Graph {
	g := &Graph{
		meta:  m.Metadata,
		nodes: make(map[string]*artifact.Node, len(m.Nodes)),
		deps:  make(map[string][]string, len(m.Nodes)),
	}
	for id, node := range m.Nodes {
		g.nodes[id] = node
		if len(node.DependsOn) > 0 {
			g.deps[id] = append([]string(nil), node.DependsOn...)
		}
	}
	return g
}

// Metadata returns the manifest metadata the graph was built from.
func (g *Graph) Metadata() artifact.ManifestMetadata {
	return g.meta
}

// Node returns the node for a unique_id.
func (g *Graph) Node(id string) (*artifact.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Dependencies returns the upstream ids of a node in declared order.
func (g *Graph) Dependencies(id string) []string {
	return g.deps[id]
}

// ModelIDs returns all model node ids, sorted for deterministic output.
func (g *Graph) ModelIDs() []string {
	var ids []string
	for id, n := range g.nodes {
		if n.ResourceType == "model" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of dependency edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, d := range g.deps {
		count += len(d)
	}
	return count
}
