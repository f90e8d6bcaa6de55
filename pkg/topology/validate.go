package topology

import (
	"fmt"
	"sort"

	"github.com/ijhewaratne/heatgrid/pkg/validation"
)

// Validate checks the topology is usable for bottom-up flow aggregation:
// the plant root exists, every node has at most one feeding segment, and the
// graph is acyclic. Buildings unreachable from the plant are reported as
// warnings, not failures.
func (g *Graph) Validate() (*validation.Report, error) {
	report := validation.NewReport()

	if !g.nodes[g.PlantNodeID] {
		return report, fmt.Errorf("%w: %q", ErrNoPlantRoot, g.PlantNodeID)
	}

	for _, node := range g.Nodes() {
		if node == g.PlantNodeID {
			continue
		}
		if g.inDegree[node] > 1 {
			return report, fmt.Errorf("%w: node %s fed by %d segments", ErrMultiParent, node, g.inDegree[node])
		}
	}

	if _, err := g.TopoOrder(); err != nil {
		return report, err
	}

	reachable := g.reachableFrom(g.PlantNodeID)
	for _, ref := range g.Buildings() {
		if !g.nodes[ref.NodeID] {
			report.AddWarning(validation.Result{
				Level:    validation.LevelAnalytical,
				Message:  fmt.Sprintf("building %s is bound to unknown node %s", ref.BuildingID, ref.NodeID),
				EntityID: ref.BuildingID,
			})
			continue
		}
		if !reachable[ref.NodeID] {
			report.AddWarning(validation.Result{
				Level:    validation.LevelAnalytical,
				Message:  fmt.Sprintf("building %s at node %s is not reachable from the plant", ref.BuildingID, ref.NodeID),
				EntityID: ref.BuildingID,
			})
		}
	}

	report.AddInfo(validation.Result{
		Level:   validation.LevelAnalytical,
		Message: fmt.Sprintf("topology: %d nodes, %d segments, %d buildings", len(g.nodes), len(g.Segments), len(g.buildings)),
	})
	return report, nil
}

// TopoOrder returns the nodes in topological order (Kahn's algorithm) with
// sorted tie-breaking for determinism. A cycle yields ErrCycle.
func (g *Graph) TopoOrder() ([]string, error) {
	inDeg := make(map[string]int, len(g.nodes))
	for n := range g.nodes {
		inDeg[n] = g.inDegree[n]
	}

	var ready []string
	for n, d := range inDeg {
		if d == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		var freed []string
		for _, seg := range g.children[node] {
			inDeg[seg.ToNode]--
			if inDeg[seg.ToNode] == 0 {
				freed = append(freed, seg.ToNode)
			}
		}
		sort.Strings(freed)
		ready = append(ready, freed...)
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes ordered", ErrCycle, len(order), len(g.nodes))
	}
	return order, nil
}

func (g *Graph) reachableFrom(root string) map[string]bool {
	seen := map[string]bool{root: true}
	stack := []string{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, seg := range g.children[node] {
			if !seen[seg.ToNode] {
				seen[seg.ToNode] = true
				stack = append(stack, seg.ToNode)
			}
		}
	}
	return seen
}
