package topology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treeDef() Def {
	return Def{
		PlantNodeID: "plant",
		Segments: []SegmentDef{
			{ID: "m1", FromNode: "plant", ToNode: "j1", LengthM: 200, Category: "main"},
			{ID: "d1", FromNode: "j1", ToNode: "j2", LengthM: 100, Category: "distribution"},
			{ID: "s1", FromNode: "j2", ToNode: "b1", LengthM: 20, Category: "service"},
			{ID: "s2", FromNode: "j1", ToNode: "b2", LengthM: 30, Category: "service"},
		},
		Buildings: []BuildingRef{
			{NodeID: "b1", BuildingID: "bldg-1"},
			{NodeID: "b2", BuildingID: "bldg-2"},
		},
	}
}

func TestNewIndexesGraph(t *testing.T) {
	g, err := New(treeDef())
	require.NoError(t, err)

	assert.Equal(t, []string{"b1", "b2", "j1", "j2", "plant"}, g.Nodes())

	children := g.Children("j1")
	require.Len(t, children, 2)
	assert.Equal(t, "d1", children[0].ID)
	assert.Equal(t, "s2", children[1].ID)

	id, ok := g.BuildingAt("b1")
	require.True(t, ok)
	assert.Equal(t, "bldg-1", id)

	_, ok = g.BuildingAt("j1")
	assert.False(t, ok)
}

func TestNewRejectsDuplicateSegment(t *testing.T) {
	def := treeDef()
	def.Segments = append(def.Segments, SegmentDef{ID: "m1", FromNode: "j2", ToNode: "j3"})

	_, err := New(def)
	require.ErrorIs(t, err, ErrDuplicateSegment)
}

func TestValidateAcceptsTree(t *testing.T) {
	g, err := New(treeDef())
	require.NoError(t, err)

	report, err := g.Validate()
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Warnings)
}

func TestValidateMissingPlantRoot(t *testing.T) {
	def := treeDef()
	def.PlantNodeID = "nowhere"
	g, err := New(def)
	require.NoError(t, err)

	_, err = g.Validate()
	require.ErrorIs(t, err, ErrNoPlantRoot)
}

func TestValidateRejectsCycle(t *testing.T) {
	def := treeDef()
	def.Segments = append(def.Segments, SegmentDef{ID: "back", FromNode: "j2", ToNode: "plant", LengthM: 50})
	g, err := New(def)
	require.NoError(t, err)

	_, err = g.Validate()
	require.ErrorIs(t, err, ErrCycle)
}

func TestValidateRejectsMultiParent(t *testing.T) {
	// Diamond: j2 fed from both j1 and plant.
	def := treeDef()
	def.Segments = append(def.Segments, SegmentDef{ID: "x1", FromNode: "plant", ToNode: "j2", LengthM: 150})
	g, err := New(def)
	require.NoError(t, err)

	_, err = g.Validate()
	require.ErrorIs(t, err, ErrMultiParent)
}

func TestValidateWarnsOnUnreachableBuilding(t *testing.T) {
	def := treeDef()
	def.Segments = append(def.Segments, SegmentDef{ID: "iso", FromNode: "island", ToNode: "b9", LengthM: 10, Category: "service"})
	def.Buildings = append(def.Buildings, BuildingRef{NodeID: "b9", BuildingID: "bldg-9"})
	g, err := New(def)
	require.NoError(t, err)

	report, err := g.Validate()
	require.NoError(t, err)
	assert.True(t, report.Valid, "unreachable building is a warning, not an error")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "bldg-9", report.Warnings[0].EntityID)
}

func TestValidateWarnsOnUnknownBuildingNode(t *testing.T) {
	def := treeDef()
	def.Buildings = append(def.Buildings, BuildingRef{NodeID: "ghost", BuildingID: "bldg-x"})
	g, err := New(def)
	require.NoError(t, err)

	report, err := g.Validate()
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Message, "unknown node")
}

func TestTopoOrderDeterministic(t *testing.T) {
	g, err := New(treeDef())
	require.NoError(t, err)

	first, err := g.TopoOrder()
	require.NoError(t, err)
	assert.Equal(t, "plant", first[0])

	// Every segment must point forward in the order.
	pos := make(map[string]int, len(first))
	for i, n := range first {
		pos[n] = i
	}
	for _, seg := range g.Segments {
		assert.Less(t, pos[seg.FromNode], pos[seg.ToNode], "segment %s", seg.ID)
	}

	second, err := g.TopoOrder()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	topoYAML := `
plant_node_id: plant
segments:
  - id: m1
    from_node: plant
    to_node: j1
    length_m: 120
    category: main
  - id: s1
    from_node: j1
    to_node: b1
    length_m: 15
    category: service
buildings:
  - node_id: b1
    building_id: bldg-1
`
	path := filepath.Join(dir, "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(topoYAML), 0o644))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "plant", g.PlantNodeID)
	require.Len(t, g.Segments, 2)
	assert.Equal(t, 120.0, g.Segments[0].LengthM)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
