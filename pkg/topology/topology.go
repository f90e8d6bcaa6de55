// Package topology models the directed segment graph of a heat network,
// rooted at the plant node. The same topology drives both the supply and the
// return side; the builder derives the return graph by mirroring.
package topology

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoPlantRoot indicates the plant node does not appear in the graph.
	ErrNoPlantRoot = errors.New("topology: plant node not present in graph")
	// ErrDuplicateSegment indicates two segments share an id.
	ErrDuplicateSegment = errors.New("topology: duplicate segment id")
	// ErrCycle indicates the directed graph contains a cycle. Flow
	// aggregation is undefined on loops, so they are rejected outright.
	ErrCycle = errors.New("topology: graph contains a cycle")
	// ErrMultiParent indicates a node fed by more than one segment. Split
	// ratios for meshed networks are unspecified, so they are rejected
	// rather than guessed at.
	ErrMultiParent = errors.New("topology: node has multiple feeding segments")
)

// SegmentDef is one directed edge of the network topology.
type SegmentDef struct {
	ID       string  `yaml:"id" json:"id"`
	FromNode string  `yaml:"from_node" json:"from_node"`
	ToNode   string  `yaml:"to_node" json:"to_node"`
	LengthM  float64 `yaml:"length_m" json:"length_m"`
	Category string  `yaml:"category" json:"category"`
}

// BuildingRef binds a graph node to a building id from the demand input.
type BuildingRef struct {
	NodeID     string `yaml:"node_id" json:"node_id"`
	BuildingID string `yaml:"building_id" json:"building_id"`
}

// Def is the external topology collaborator's input shape.
type Def struct {
	PlantNodeID string        `yaml:"plant_node_id" json:"plant_node_id"`
	Segments    []SegmentDef  `yaml:"segments" json:"segments"`
	Buildings   []BuildingRef `yaml:"buildings" json:"buildings"`
}

// Graph is a validated, indexed topology.
type Graph struct {
	PlantNodeID string
	Segments    []SegmentDef

	children  map[string][]SegmentDef
	inDegree  map[string]int
	buildings map[string]string // node id -> building id
	nodes     map[string]bool
}

// Load reads a topology definition from a YAML file and indexes it.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}
	var def Def
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing topology YAML: %w", err)
	}
	return New(def)
}

// New indexes a topology definition. Structural soundness (cycles,
// reachability) is checked separately by Validate.
func New(def Def) (*Graph, error) {
	g := &Graph{
		PlantNodeID: def.PlantNodeID,
		children:    make(map[string][]SegmentDef),
		inDegree:    make(map[string]int),
		buildings:   make(map[string]string),
		nodes:       make(map[string]bool),
	}

	seen := make(map[string]bool, len(def.Segments))
	for _, seg := range def.Segments {
		if seen[seg.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSegment, seg.ID)
		}
		seen[seg.ID] = true
		g.Segments = append(g.Segments, seg)
		g.children[seg.FromNode] = append(g.children[seg.FromNode], seg)
		g.inDegree[seg.ToNode]++
		g.nodes[seg.FromNode] = true
		g.nodes[seg.ToNode] = true
	}

	// Deterministic iteration everywhere downstream.
	sort.Slice(g.Segments, func(i, j int) bool { return g.Segments[i].ID < g.Segments[j].ID })
	for node := range g.children {
		edges := g.children[node]
		sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	}

	for _, b := range def.Buildings {
		g.buildings[b.NodeID] = b.BuildingID
	}
	return g, nil
}

// Children returns the outgoing segments of a node, sorted by segment id.
func (g *Graph) Children(node string) []SegmentDef {
	return g.children[node]
}

// BuildingAt returns the building bound to a node, if any.
func (g *Graph) BuildingAt(node string) (string, bool) {
	id, ok := g.buildings[node]
	return id, ok
}

// Buildings returns all node-to-building bindings sorted by node id.
func (g *Graph) Buildings() []BuildingRef {
	refs := make([]BuildingRef, 0, len(g.buildings))
	for node, id := range g.buildings {
		refs = append(refs, BuildingRef{NodeID: node, BuildingID: id})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].NodeID < refs[j].NodeID })
	return refs
}

// Nodes returns all node ids in sorted order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
