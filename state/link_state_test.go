package state

import (
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linkStrings(links []*Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.String())
	}
	return out
}

func TestLinkStateAddLink(t *testing.T) {
	ls := NewLinkState()
	link := mustLink(t, "a", adj("b", "eth0", "eth1", 10), "b", adj("a", "eth1", "eth0", 10))
	ls.AddLink(link)

	fromA := ls.LinksFromNode("a")
	fromB := ls.LinksFromNode("b")
	require.Len(t, fromA, 1)
	require.Len(t, fromB, 1)
	assert.True(t, fromA.Contains(link))
	// both endpoints see the same link
	assert.Same(t, fromA.Get(link), fromB.Get(link))

	link.SetMetricFromNode("a", 99)
	assert.Equal(t, Metric(99), ls.LinksFromNode("b").Get(link).MetricFromNode("a"))

	assert.Equal(t, []string{"a", "b"}, ls.Nodes())
	assert.Equal(t, 1, ls.NumLinks())
}

func TestLinkStateAddLinkReplaces(t *testing.T) {
	ls := NewLinkState()
	first := mustLink(t, "a", adj("b", "eth0", "eth1", 10), "b", adj("a", "eth1", "eth0", 10))
	second := mustLink(t, "b", adj("a", "eth1", "eth0", 3), "a", adj("b", "eth0", "eth1", 3))
	ls.AddLink(first)
	ls.AddLink(second)

	assert.Equal(t, 1, ls.NumLinks())
	assert.Same(t, second, ls.LinksFromNode("a").Get(first))
	assert.Same(t, second, ls.LinksFromNode("b").Get(first))
}

func TestLinkStateLinksFromUnknownNode(t *testing.T) {
	ls := NewLinkState()
	assert.Empty(t, ls.LinksFromNode("x"))
	assert.NotNil(t, ls.LinksFromNode("x"))
	assert.Empty(t, ls.OrderedLinksFromNode("x"))
	assert.Empty(t, ls.RemoveLinksFromNode("x"))
	assert.Empty(t, ls.Nodes())
}

func TestLinkStateLinksFromNodeIsACopy(t *testing.T) {
	ls := NewLinkState()
	link := mustLink(t, "a", adj("b", "eth0", "eth1", 1), "b", adj("a", "eth1", "eth0", 1))
	ls.AddLink(link)

	set := ls.LinksFromNode("a")
	delete(set, link.key)
	assert.Len(t, ls.LinksFromNode("a"), 1)
}

func TestLinkStateRemoveLinksFromNode(t *testing.T) {
	ls := NewLinkState()
	ab := mustLink(t, "a", adj("b", "eth0", "eth0", 1), "b", adj("a", "eth0", "eth0", 1))
	ac := mustLink(t, "a", adj("c", "eth1", "eth0", 1), "c", adj("a", "eth0", "eth1", 1))
	bc := mustLink(t, "b", adj("c", "eth1", "eth1", 1), "c", adj("b", "eth1", "eth1", 1))
	for _, l := range []*Link{bc, ac, ab} {
		ls.AddLink(l)
	}
	require.Equal(t, 3, ls.NumLinks())

	removed := ls.RemoveLinksFromNode("a")
	assert.Equal(t, linkStrings([]*Link{ab, ac}), linkStrings(removed))
	assert.Empty(t, ls.LinksFromNode("a"))
	assert.False(t, ls.LinksFromNode("b").Contains(ab))
	assert.False(t, ls.LinksFromNode("c").Contains(ac))
	assert.True(t, ls.LinksFromNode("b").Contains(bc))
	assert.True(t, ls.LinksFromNode("c").Contains(bc))
	assert.Equal(t, 1, ls.NumLinks())

	// no dangling link references a removed node
	for _, node := range ls.Nodes() {
		for _, l := range ls.OrderedLinksFromNode(node) {
			assert.False(t, l.HasNode("a"))
		}
	}
	assert.Equal(t, []string{"b", "c"}, ls.Nodes())
}

func TestLinkStateRemoveLink(t *testing.T) {
	ls := NewLinkState()
	link := mustLink(t, "a", adj("b", "eth0", "eth1", 1), "b", adj("a", "eth1", "eth0", 1))
	ls.AddLink(link)
	ls.RemoveLink(link)
	assert.Zero(t, ls.NumLinks())
	assert.Empty(t, ls.Nodes())
	// removing twice is a no-op
	ls.RemoveLink(link)
}

func TestLinkStateOrderingIsDeterministic(t *testing.T) {
	build := func(order []int) []string {
		ls := NewLinkState()
		links := []*Link{
			mustLink(t, "a", adj("b", "eth0", "eth0", 1), "b", adj("a", "eth0", "eth0", 1)),
			mustLink(t, "a", adj("b", "eth1", "eth1", 1), "b", adj("a", "eth1", "eth1", 1)),
			mustLink(t, "c", adj("a", "eth0", "eth2", 1), "a", adj("c", "eth2", "eth0", 1)),
			mustLink(t, "d", adj("a", "eth0", "eth3", 1), "a", adj("d", "eth3", "eth0", 1)),
		}
		for _, i := range order {
			ls.AddLink(links[i])
		}
		return linkStrings(ls.OrderedLinksFromNode("a"))
	}
	expected := []string{
		"a%eth0 <---> b%eth0",
		"a%eth1 <---> b%eth1",
		"a%eth2 <---> c%eth0",
		"a%eth3 <---> d%eth0",
	}
	assert.Empty(t, cmp.Diff(expected, build([]int{0, 1, 2, 3})))
	assert.Empty(t, cmp.Diff(expected, build([]int{3, 2, 1, 0})))
	assert.Empty(t, cmp.Diff(expected, build([]int{2, 0, 3, 1})))
}

func TestLinkStateNodeOverload(t *testing.T) {
	ls := NewLinkState()
	assert.False(t, ls.IsNodeOverloaded("a"))
	assert.False(t, ls.UpdateNodeOverloaded("a", false))
	assert.True(t, ls.UpdateNodeOverloaded("a", true))
	assert.True(t, ls.IsNodeOverloaded("a"))
	assert.False(t, ls.UpdateNodeOverloaded("a", true))
	assert.True(t, ls.UpdateNodeOverloaded("a", false))
	assert.False(t, ls.IsNodeOverloaded("a"))
	assert.Equal(t, []string{"a"}, ls.Nodes())
}

func TestLinkStateScenario(t *testing.T) {
	ls := NewLinkState()
	link, err := NewLink("a", adj("b", "eth0", "eth1", 10), "b", adj("a", "eth1", "eth0", 10))
	require.NoError(t, err)
	ls.AddLink(link)

	assert.Len(t, ls.LinksFromNode("a"), 1)
	assert.Len(t, ls.LinksFromNode("b"), 1)
	assert.Equal(t, Metric(10), link.MetricFromNode("a"))

	assert.True(t, ls.UpdateNodeOverloaded("b", true))
	assert.True(t, ls.IsNodeOverloaded("b"))

	ls.RemoveLinksFromNode("a")
	assert.Empty(t, ls.LinksFromNode("a"))
	assert.Empty(t, ls.LinksFromNode("b"))
	// overload state is independent of links
	assert.True(t, ls.IsNodeOverloaded("b"))
}

func adjDb(node string, adjs ...Adjacency) AdjacencyDatabase {
	return AdjacencyDatabase{NodeName: node, Adjacencies: adjs}
}

func TestUpdateAdjacencyDatabaseNeedsBothSides(t *testing.T) {
	ls := NewLinkState()
	change, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 10)), 0, 3)
	require.NoError(t, err)
	assert.Empty(t, change.Added)
	assert.Zero(t, ls.NumLinks())

	// b advertises the wrong interface, still no link
	_, err = ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth9", 10)), 0, 3)
	require.NoError(t, err)
	assert.Zero(t, ls.NumLinks())

	change, err = ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth0", 20)), 0, 3)
	require.NoError(t, err)
	require.Len(t, change.Added, 1)
	assert.True(t, change.TopologyChanged)
	assert.Equal(t, 1, ls.NumLinks())

	link := change.Added[0]
	assert.Equal(t, "a%eth0 <---> b%eth1", link.String())
	assert.Equal(t, Metric(10), link.MetricFromNode("a"))
	assert.Equal(t, Metric(20), link.MetricFromNode("b"))
	assert.True(t, link.IsUp())

	db, ok := ls.AdjacencyDatabase("b")
	assert.True(t, ok)
	assert.Equal(t, "b", db.NodeName)
	_, ok = ls.AdjacencyDatabase("c")
	assert.False(t, ok)
}

func TestUpdateAdjacencyDatabaseHoldUp(t *testing.T) {
	ls := NewLinkState()
	_, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 10)), 2, 3)
	require.NoError(t, err)
	change, err := ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth0", 10)), 2, 3)
	require.NoError(t, err)

	require.Len(t, change.Added, 1)
	link := change.Added[0]
	assert.False(t, link.IsUp())
	assert.False(t, change.TopologyChanged)
	assert.True(t, ls.HasHolds())

	assert.False(t, ls.DecrementHolds().TopologyChanged)
	assert.True(t, ls.DecrementHolds().TopologyChanged)
	assert.True(t, link.IsUp())
	assert.False(t, ls.HasHolds())
}

func TestUpdateAdjacencyDatabaseMetricHold(t *testing.T) {
	ls := NewLinkState()
	_, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 10)), 0, 2)
	require.NoError(t, err)
	_, err = ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth0", 10)), 0, 2)
	require.NoError(t, err)
	link := ls.Links()[0]

	// worse metric is held down
	change, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 50)), 0, 2)
	require.NoError(t, err)
	assert.False(t, change.TopologyChanged)
	assert.Equal(t, Metric(10), link.MetricFromNode("a"))

	// re-advertising the same metric does not restart the hold
	_, err = ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 50)), 0, 2)
	require.NoError(t, err)
	assert.False(t, ls.DecrementHolds().TopologyChanged)
	assert.True(t, ls.DecrementHolds().TopologyChanged)
	assert.Equal(t, Metric(50), link.MetricFromNode("a"))

	// better metric is applied at once
	change, err = ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 5)), 0, 2)
	require.NoError(t, err)
	assert.True(t, change.TopologyChanged)
	assert.Equal(t, Metric(5), link.MetricFromNode("a"))
	assert.Equal(t, Metric(10), link.MetricFromNode("b"))
}

func TestUpdateAdjacencyDatabaseAttributes(t *testing.T) {
	ls := NewLinkState()
	_, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 10)), 0, 2)
	require.NoError(t, err)
	_, err = ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth0", 10)), 0, 2)
	require.NoError(t, err)

	a := adj("b", "eth0", "eth1", 10)
	a.AdjLabel = 50001
	a.NextHopV4 = netip.MustParseAddr("10.0.0.2")
	db := adjDb("a", a)
	db.NodeLabel = 16001
	change, err := ls.UpdateAdjacencyDatabase(db, 0, 2)
	require.NoError(t, err)
	assert.False(t, change.TopologyChanged)
	assert.True(t, change.LinkAttributesChanged)
	assert.True(t, change.NodeLabelChanged)
	assert.True(t, change.Changed())

	link := ls.Links()[0]
	assert.Equal(t, int32(50001), link.AdjLabelFromNode("a"))
	assert.Equal(t, netip.MustParseAddr("10.0.0.2"), link.NhV4FromNode("a"))

	change, err = ls.UpdateAdjacencyDatabase(db, 0, 2)
	require.NoError(t, err)
	assert.False(t, change.Changed())
}

func TestUpdateAdjacencyDatabaseRemovesStaleLinks(t *testing.T) {
	ls := NewLinkState()
	_, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 1), adj("c", "eth1", "eth0", 1)), 0, 2)
	require.NoError(t, err)
	_, err = ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth0", 1)), 0, 2)
	require.NoError(t, err)
	_, err = ls.UpdateAdjacencyDatabase(adjDb("c", adj("a", "eth0", "eth1", 1)), 0, 2)
	require.NoError(t, err)
	require.Equal(t, 2, ls.NumLinks())

	change, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("c", "eth1", "eth0", 1)), 0, 2)
	require.NoError(t, err)
	assert.True(t, change.TopologyChanged)
	assert.Equal(t, []string{"a%eth0 <---> b%eth1"}, linkStrings(change.Removed))
	assert.Empty(t, ls.LinksFromNode("b"))
	assert.Equal(t, 1, ls.NumLinks())
}

func TestUpdateAdjacencyDatabaseNodeOverload(t *testing.T) {
	ls := NewLinkState()
	db := adjDb("a")
	db.Overloaded = true
	change, err := ls.UpdateAdjacencyDatabase(db, 0, 1)
	require.NoError(t, err)
	assert.False(t, change.TopologyChanged)
	assert.False(t, ls.IsNodeOverloaded("a"))

	assert.True(t, ls.DecrementHolds().TopologyChanged)
	assert.True(t, ls.IsNodeOverloaded("a"))

	db.Overloaded = false
	change, err = ls.UpdateAdjacencyDatabase(db, 0, 1)
	require.NoError(t, err)
	assert.True(t, change.TopologyChanged)
	assert.False(t, ls.IsNodeOverloaded("a"))
}

func TestUpdateNodeOverloadedOverridesPendingHold(t *testing.T) {
	ls := NewLinkState()
	db := adjDb("a")
	db.Overloaded = true
	_, err := ls.UpdateAdjacencyDatabase(db, 0, 3)
	require.NoError(t, err)
	require.True(t, ls.HasHolds())
	require.False(t, ls.IsNodeOverloaded("a"))

	assert.True(t, ls.UpdateNodeOverloaded("a", true))
	assert.True(t, ls.IsNodeOverloaded("a"))
	assert.False(t, ls.HasHolds())

	// the same advertisement again changes nothing
	change, err := ls.UpdateAdjacencyDatabase(db, 0, 3)
	require.NoError(t, err)
	assert.False(t, change.TopologyChanged)
	assert.True(t, ls.IsNodeOverloaded("a"))
	assert.False(t, ls.HasHolds())

	// a direct clear also drops a pending advertised clear
	assert.True(t, ls.UpdateNodeOverloaded("a", false))
	assert.False(t, ls.UpdateNodeOverloaded("a", false))
	assert.False(t, ls.IsNodeOverloaded("a"))
}

func TestUpdateAdjacencyDatabaseRejectsInvalid(t *testing.T) {
	ls := NewLinkState()
	_, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("a", "eth0", "eth1", 1)), 0, 0)
	assert.ErrorIs(t, err, ErrSelfAdjacency)

	_, err = ls.UpdateAdjacencyDatabase(adjDb("", adj("b", "eth0", "eth1", 1)), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "", 1)), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 1), adj("b", "eth2", "eth1", 1)), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidLink)

	// rejected databases leave no trace
	assert.Empty(t, ls.Nodes())
}

func TestDeleteAdjacencyDatabase(t *testing.T) {
	ls := NewLinkState()
	_, err := ls.UpdateAdjacencyDatabase(adjDb("a", adj("b", "eth0", "eth1", 1)), 0, 2)
	require.NoError(t, err)
	_, err = ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth0", 1)), 0, 2)
	require.NoError(t, err)

	change := ls.DeleteAdjacencyDatabase("b")
	assert.True(t, change.TopologyChanged)
	assert.Len(t, change.Removed, 1)
	assert.Zero(t, ls.NumLinks())
	assert.Equal(t, []string{"a"}, ls.Nodes())

	assert.False(t, ls.DeleteAdjacencyDatabase("b").Changed())

	// a re-advertised b links back up
	change, err = ls.UpdateAdjacencyDatabase(adjDb("b", adj("a", "eth1", "eth0", 1)), 0, 2)
	require.NoError(t, err)
	assert.Len(t, change.Added, 1)
}

func TestLinkStateChangeMerge(t *testing.T) {
	link := mustLink(t, "a", adj("b", "eth0", "eth1", 1), "b", adj("a", "eth1", "eth0", 1))
	c := LinkStateChange{}
	assert.False(t, c.Changed())
	c.Merge(LinkStateChange{LinkAttributesChanged: true, Added: []*Link{link}})
	c.Merge(LinkStateChange{Removed: []*Link{link}})
	assert.True(t, c.Changed())
	assert.False(t, c.TopologyChanged)
	assert.Len(t, c.Added, 1)
	assert.Len(t, c.Removed, 1)
}
