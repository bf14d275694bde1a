package state

import (
	"maps"
	"slices"
)

// LinkSet holds links keyed by their endpoint identity
type LinkSet map[linkKey]*Link

func (s LinkSet) Contains(l *Link) bool {
	_, ok := s[l.key]
	return ok
}

func (s LinkSet) Get(l *Link) *Link {
	return s[l.key]
}

func (s LinkSet) Ordered() []*Link {
	return slices.SortedFunc(maps.Values(s), (*Link).Compare)
}

// LinkState only stores bidirectional links. Each link is held once and is
// reachable from the node at either end.
//
// LinkState access must be done only on a single Goroutine
type LinkState struct {
	// the same *Link is stored under both of its endpoint node names
	linkMap       map[string]LinkSet
	nodeOverloads map[string]*HoldableValue[bool]
	adjDbs        map[string]AdjacencyDatabase
}

func NewLinkState() *LinkState {
	return &LinkState{
		linkMap:       make(map[string]LinkSet),
		nodeOverloads: make(map[string]*HoldableValue[bool]),
		adjDbs:        make(map[string]AdjacencyDatabase),
	}
}

// AddLink stores link under both endpoints, replacing any link with the same
// endpoints.
func (ls *LinkState) AddLink(link *Link) {
	for _, node := range []string{link.FirstNodeName(), link.SecondNodeName()} {
		set, ok := ls.linkMap[node]
		if !ok {
			set = make(LinkSet)
			ls.linkMap[node] = set
		}
		set[link.key] = link
	}
}

func (ls *LinkState) RemoveLink(link *Link) {
	for _, node := range []string{link.FirstNodeName(), link.SecondNodeName()} {
		ls.removeFromNode(node, link.key)
	}
}

func (ls *LinkState) removeFromNode(node string, key linkKey) {
	set, ok := ls.linkMap[node]
	if !ok {
		return
	}
	delete(set, key)
	if len(set) == 0 {
		delete(ls.linkMap, node)
	}
}

// RemoveLinksFromNode drops every link touching nodeName from both ends, and
// returns the removed links in order.
func (ls *LinkState) RemoveLinksFromNode(nodeName string) []*Link {
	removed := ls.linkMap[nodeName].Ordered()
	for _, link := range removed {
		ls.removeFromNode(link.OtherNodeName(nodeName), link.key)
	}
	delete(ls.linkMap, nodeName)
	return removed
}

// LinksFromNode returns a copy of the links of nodeName, empty if unknown
func (ls *LinkState) LinksFromNode(nodeName string) LinkSet {
	set, ok := ls.linkMap[nodeName]
	if !ok {
		return LinkSet{}
	}
	return maps.Clone(set)
}

// OrderedLinksFromNode is LinksFromNode sorted by endpoint identity, so
// consumers iterate deterministically.
func (ls *LinkState) OrderedLinksFromNode(nodeName string) []*Link {
	return ls.linkMap[nodeName].Ordered()
}

// UpdateNodeOverloaded sets the flag immediately, dropping any pending hold,
// and reports whether the exposed flag changed.
func (ls *LinkState) UpdateNodeOverloaded(nodeName string, isOverloaded bool) bool {
	return ls.nodeOverload(nodeName).UpdateValue(isOverloaded, 0, 0)
}

// convergeNodeOverloaded applies an advertised overload flag through holds
func (ls *LinkState) convergeNodeOverloaded(nodeName string, isOverloaded bool, holdUpTtl, holdDownTtl uint64) bool {
	return ls.nodeOverload(nodeName).Converge(isOverloaded, holdUpTtl, holdDownTtl)
}

func (ls *LinkState) nodeOverload(nodeName string) *HoldableValue[bool] {
	ov, ok := ls.nodeOverloads[nodeName]
	if !ok {
		ov = NewHoldableValue(false, OverloadBringsUp)
		ls.nodeOverloads[nodeName] = ov
	}
	return ov
}

func (ls *LinkState) IsNodeOverloaded(nodeName string) bool {
	ov, ok := ls.nodeOverloads[nodeName]
	if !ok {
		return false
	}
	return ov.Value()
}

// Nodes returns every node known through links, overloads or advertisements
func (ls *LinkState) Nodes() []string {
	nodes := slices.Collect(maps.Keys(ls.linkMap))
	nodes = slices.AppendSeq(nodes, maps.Keys(ls.nodeOverloads))
	nodes = slices.AppendSeq(nodes, maps.Keys(ls.adjDbs))
	slices.Sort(nodes)
	return slices.Compact(nodes)
}

func (ls *LinkState) NumLinks() int {
	n := 0
	for _, set := range ls.linkMap {
		n += len(set)
	}
	return n / 2
}

// Links returns every link once, in order
func (ls *LinkState) Links() []*Link {
	links := make([]*Link, 0)
	for node, set := range ls.linkMap {
		for _, link := range set {
			if link.FirstNodeName() == node {
				links = append(links, link)
			}
		}
	}
	slices.SortFunc(links, (*Link).Compare)
	return links
}

// AdvertisedNodes returns the nodes with an adjacency database, sorted
func (ls *LinkState) AdvertisedNodes() []string {
	return slices.Sorted(maps.Keys(ls.adjDbs))
}

func (ls *LinkState) AdjacencyDatabase(nodeName string) (AdjacencyDatabase, bool) {
	db, ok := ls.adjDbs[nodeName]
	if !ok {
		return AdjacencyDatabase{}, false
	}
	return db.Clone(), true
}

// maybeMakeLink returns the link for adj if the far node advertises it back
func (ls *LinkState) maybeMakeLink(nodeName string, adj Adjacency) *Link {
	otherDb, ok := ls.adjDbs[adj.OtherNodeName]
	if !ok {
		return nil
	}
	for _, otherAdj := range otherDb.Adjacencies {
		if adj.mirrors(nodeName, adj.OtherNodeName, otherAdj) {
			link, err := NewLink(nodeName, adj, adj.OtherNodeName, otherAdj)
			if err != nil {
				return nil
			}
			return link
		}
	}
	return nil
}

// UpdateAdjacencyDatabase applies a node's advertisement. Links are only
// created when the far end advertises the mirror adjacency. Changes that make
// things worse are held for holdDownTtl ticks, improvements for holdUpTtl.
func (ls *LinkState) UpdateAdjacencyDatabase(db AdjacencyDatabase, holdUpTtl, holdDownTtl uint64) (LinkStateChange, error) {
	if err := ValidateAdjacencyDatabase(db); err != nil {
		return LinkStateChange{}, err
	}
	change := LinkStateChange{}
	node := db.NodeName

	prior := ls.adjDbs[node]
	ls.adjDbs[node] = db.Clone()
	change.NodeLabelChanged = prior.NodeLabel != db.NodeLabel
	change.TopologyChanged = ls.convergeNodeOverloaded(node, db.Overloaded, holdUpTtl, holdDownTtl)

	newLinks := make(LinkSet)
	for _, adj := range db.Adjacencies {
		if link := ls.maybeMakeLink(node, adj); link != nil {
			newLinks[link.key] = link
		}
	}

	for _, old := range ls.OrderedLinksFromNode(node) {
		if !newLinks.Contains(old) {
			ls.RemoveLink(old)
			change.Removed = append(change.Removed, old)
			change.TopologyChanged = true
		}
	}

	for _, link := range newLinks.Ordered() {
		old := ls.linkMap[node].Get(link)
		if old == nil {
			link.holdUp(holdUpTtl)
			ls.AddLink(link)
			change.Added = append(change.Added, link)
			change.TopologyChanged = change.TopologyChanged || link.IsUp()
			continue
		}
		if old.UpdateMetricFromNode(node, link.MetricFromNode(node), holdUpTtl, holdDownTtl) {
			change.TopologyChanged = true
		}
		if old.UpdateOverloadFromNode(node, link.OverloadFromNode(node), holdUpTtl, holdDownTtl) {
			change.TopologyChanged = true
		}
		if old.AdjLabelFromNode(node) != link.AdjLabelFromNode(node) {
			old.SetAdjLabelFromNode(node, link.AdjLabelFromNode(node))
			change.LinkAttributesChanged = true
		}
		if old.NhV4FromNode(node) != link.NhV4FromNode(node) {
			old.SetNhV4FromNode(node, link.NhV4FromNode(node))
			change.LinkAttributesChanged = true
		}
		if old.NhV6FromNode(node) != link.NhV6FromNode(node) {
			old.SetNhV6FromNode(node, link.NhV6FromNode(node))
			change.LinkAttributesChanged = true
		}
	}
	return change, nil
}

// DeleteAdjacencyDatabase forgets a node's advertisement along with its links
func (ls *LinkState) DeleteAdjacencyDatabase(nodeName string) LinkStateChange {
	change := LinkStateChange{}
	if _, ok := ls.adjDbs[nodeName]; !ok {
		return change
	}
	delete(ls.adjDbs, nodeName)
	change.Removed = ls.RemoveLinksFromNode(nodeName)
	change.TopologyChanged = len(change.Removed) > 0
	if ov, ok := ls.nodeOverloads[nodeName]; ok {
		change.TopologyChanged = change.TopologyChanged || ov.Value()
		delete(ls.nodeOverloads, nodeName)
	}
	return change
}

func (ls *LinkState) HasHolds() bool {
	for _, ov := range ls.nodeOverloads {
		if ov.HasHold() {
			return true
		}
	}
	for _, set := range ls.linkMap {
		for _, link := range set {
			if link.HasHolds() {
				return true
			}
		}
	}
	return false
}

// DecrementHolds advances every hold in the database by one tick
func (ls *LinkState) DecrementHolds() LinkStateChange {
	change := LinkStateChange{}
	for _, ov := range ls.nodeOverloads {
		if ov.DecrementTtl() {
			change.TopologyChanged = true
		}
	}
	for node, set := range ls.linkMap {
		for _, link := range set {
			// each link is visited from both ends, tick it once
			if link.FirstNodeName() != node {
				continue
			}
			if link.DecrementHolds() {
				change.TopologyChanged = true
			}
		}
	}
	return change
}
