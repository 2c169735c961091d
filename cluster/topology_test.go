package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopologyAppendRange(t *testing.T) {
	topo := newTopology()
	assert.True(t, topo.Empty())

	topo.appendRange("h2:7001", SlotRange{First: 8192, Last: 16383})
	topo.appendRange("h1:7000", SlotRange{First: 0, Last: 100})
	topo.appendRange("h2:7001", SlotRange{First: 101, Last: 200})

	assert.False(t, topo.Empty())
	assert.Equal(t, 2, topo.Len())
	assert.Equal(t, []string{"h2:7001", "h1:7000"}, topo.NodeKeys())
	assert.Equal(t, []SlotRange{{8192, 16383}, {101, 200}}, topo.Ranges("h2:7001"))
	assert.Nil(t, topo.Ranges("h3:7002"))
}

func TestTopologyCopies(t *testing.T) {
	topo := newTopology()
	topo.appendRange("h1:7000", SlotRange{First: 0, Last: 16383})

	ranges := topo.Ranges("h1:7000")
	ranges[0].Last = 1
	keys := topo.NodeKeys()
	keys[0] = "other"
	m := topo.Map()
	delete(m, "h1:7000")

	assert.Equal(t, []SlotRange{{0, 16383}}, topo.Ranges("h1:7000"))
	assert.Equal(t, []string{"h1:7000"}, topo.NodeKeys())
}

func TestTopologyOwners(t *testing.T) {
	topo := newTopology()
	topo.appendRange("10.0.0.1:7000", SlotRange{First: 0, Last: 8191})
	topo.appendRange("10.0.0.2:7001", SlotRange{First: 0, Last: 8191})
	topo.appendRange("10.0.0.3:7002", SlotRange{First: 8192, Last: 16383})

	assert.Equal(t, []string{"10.0.0.1:7000", "10.0.0.2:7001"}, topo.Owners(0))
	assert.Equal(t, []string{"10.0.0.3:7002"}, topo.Owners(16383))
	assert.Nil(t, topo.Owners(SlotCount))
	// slot of "foo" is 12182
	assert.Equal(t, []string{"10.0.0.3:7002"}, topo.OwnersOfKey("foo"))
}

func TestNilTopology(t *testing.T) {
	var topo *Topology
	assert.True(t, topo.Empty())
	assert.Equal(t, 0, topo.Len())
	assert.Nil(t, topo.NodeKeys())
	assert.Nil(t, topo.Owners(1))
	assert.Empty(t, topo.Map())
}

func TestSlotRange(t *testing.T) {
	r := SlotRange{First: 100, Last: 200}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(200))
	assert.False(t, r.Contains(99))
	assert.False(t, r.Contains(201))
	assert.Equal(t, "100-200", r.String())
}
