package state

import (
	"cmp"
	"fmt"
	"net/netip"

	"github.com/cespare/xxhash/v2"
)

type Metric uint64

// Adjacency is a one-sided advertisement by a node that it has a neighbour
// reachable over one of its interfaces.
type Adjacency struct {
	OtherNodeName string     `yaml:"other_node"`
	IfName        string     `yaml:"if_name"`
	OtherIfName   string     `yaml:"other_if_name"`
	Metric        Metric     `yaml:"metric,omitempty"`    // 0 means unspecified
	AdjLabel      int32      `yaml:"adj_label,omitempty"` // MPLS adjacency label
	Overloaded    bool       `yaml:"overloaded,omitempty"`
	NextHopV4     netip.Addr `yaml:"nh_v4"`
	NextHopV6     netip.Addr `yaml:"nh_v6"`
}

type endpointName struct {
	Node  string
	Iface string
}

func compareEndpoint(a, b endpointName) int {
	return cmp.Or(cmp.Compare(a.Node, b.Node), cmp.Compare(a.Iface, b.Iface))
}

// linkKey is the unordered pair of (node, iface) endpoints, stored sorted
type linkKey struct {
	Lo, Hi endpointName
}

func newLinkKey(a, b endpointName) linkKey {
	if compareEndpoint(a, b) > 0 {
		a, b = b, a
	}
	return linkKey{Lo: a, Hi: b}
}

func (k linkKey) compare(o linkKey) int {
	return cmp.Or(compareEndpoint(k.Lo, o.Lo), compareEndpoint(k.Hi, o.Hi))
}

func (k linkKey) hash() uint64 {
	d := xxhash.New()
	for _, s := range []string{k.Lo.Node, k.Lo.Iface, k.Hi.Node, k.Hi.Iface} {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

type linkEnd struct {
	node     string
	iface    string
	metric   *HoldableValue[Metric]
	adjLabel int32
	overload *HoldableValue[bool]
	nhV4     netip.Addr
	nhV6     netip.Addr
}

func newLinkEnd(node string, adj Adjacency) linkEnd {
	metric := adj.Metric
	if metric == 0 {
		metric = DefaultMetric
	}
	return linkEnd{
		node:     node,
		iface:    adj.IfName,
		metric:   NewHoldableValue(metric, MetricBringsUp),
		adjLabel: adj.AdjLabel,
		overload: NewHoldableValue(adj.Overloaded, OverloadBringsUp),
		nhV4:     adj.NextHopV4,
		nhV6:     adj.NextHopV6,
	}
}

// Link is a bidirectional adjacency between two nodes. Its identity is the
// unordered pair of (node, iface) endpoints; only the per-endpoint attributes
// are mutable. A single Link is shared by both endpoint entries of a LinkState.
type Link struct {
	ends [2]linkEnd
	key  linkKey
	hash uint64
	up   *HoldableValue[bool]
}

func NewLink(node1 string, adj1 Adjacency, node2 string, adj2 Adjacency) (*Link, error) {
	if node1 == "" || node2 == "" || adj1.IfName == "" || adj2.IfName == "" {
		return nil, fmt.Errorf("%w: empty node or interface name (%s%%%s, %s%%%s)",
			ErrInvalidLink, node1, adj1.IfName, node2, adj2.IfName)
	}
	if node1 == node2 {
		return nil, fmt.Errorf("%w: %s", ErrSelfAdjacency, node1)
	}
	key := newLinkKey(endpointName{node1, adj1.IfName}, endpointName{node2, adj2.IfName})
	return &Link{
		ends: [2]linkEnd{newLinkEnd(node1, adj1), newLinkEnd(node2, adj2)},
		key:  key,
		hash: key.hash(),
		up:   NewHoldableValue(true, LinkUpBringsUp),
	}, nil
}

func (l *Link) end(nodeName string) *linkEnd {
	switch nodeName {
	case l.ends[0].node:
		return &l.ends[0]
	case l.ends[1].node:
		return &l.ends[1]
	}
	panic(fmt.Errorf("%w: %q is not an endpoint of %s", ErrUnknownNode, nodeName, l))
}

func (l *Link) Hash() uint64 {
	return l.hash
}

func (l *Link) FirstNodeName() string {
	return l.ends[0].node
}

func (l *Link) SecondNodeName() string {
	return l.ends[1].node
}

func (l *Link) HasNode(nodeName string) bool {
	return l.ends[0].node == nodeName || l.ends[1].node == nodeName
}

func (l *Link) OtherNodeName(nodeName string) string {
	switch nodeName {
	case l.ends[0].node:
		return l.ends[1].node
	case l.ends[1].node:
		return l.ends[0].node
	}
	panic(fmt.Errorf("%w: %q is not an endpoint of %s", ErrUnknownNode, nodeName, l))
}

func (l *Link) IfaceFromNode(nodeName string) string {
	return l.end(nodeName).iface
}

func (l *Link) MetricFromNode(nodeName string) Metric {
	return l.end(nodeName).metric.Value()
}

func (l *Link) AdjLabelFromNode(nodeName string) int32 {
	return l.end(nodeName).adjLabel
}

func (l *Link) OverloadFromNode(nodeName string) bool {
	return l.end(nodeName).overload.Value()
}

func (l *Link) NhV4FromNode(nodeName string) netip.Addr {
	return l.end(nodeName).nhV4
}

func (l *Link) NhV6FromNode(nodeName string) netip.Addr {
	return l.end(nodeName).nhV6
}

func (l *Link) SetMetricFromNode(nodeName string, metric Metric) {
	l.end(nodeName).metric.UpdateValue(metric, 0, 0)
}

func (l *Link) SetAdjLabelFromNode(nodeName string, adjLabel int32) {
	l.end(nodeName).adjLabel = adjLabel
}

func (l *Link) SetOverloadFromNode(nodeName string, overload bool) {
	l.end(nodeName).overload.UpdateValue(overload, 0, 0)
}

func (l *Link) SetNhV4FromNode(nodeName string, nh netip.Addr) {
	l.end(nodeName).nhV4 = nh
}

func (l *Link) SetNhV6FromNode(nodeName string, nh netip.Addr) {
	l.end(nodeName).nhV6 = nh
}

// UpdateMetricFromNode changes the metric advertised by nodeName, holding the
// old metric according to the direction of the change. Re-advertising a
// pending metric does not restart its hold. Returns true if the exposed
// metric changed.
func (l *Link) UpdateMetricFromNode(nodeName string, metric Metric, holdUpTtl, holdDownTtl uint64) bool {
	return l.end(nodeName).metric.Converge(metric, holdUpTtl, holdDownTtl)
}

func (l *Link) UpdateOverloadFromNode(nodeName string, overload bool, holdUpTtl, holdDownTtl uint64) bool {
	return l.end(nodeName).overload.Converge(overload, holdUpTtl, holdDownTtl)
}

// IsOverloaded is true if either endpoint has withdrawn the link from transit
func (l *Link) IsOverloaded() bool {
	return l.ends[0].overload.Value() || l.ends[1].overload.Value()
}

// IsUp is false while a newly discovered link is still being held down
func (l *Link) IsUp() bool {
	return l.up.Value()
}

// holdUp marks the link as not yet usable, becoming usable after holdUpTtl ticks
func (l *Link) holdUp(holdUpTtl uint64) {
	l.up.UpdateValue(false, 0, 0)
	l.up.UpdateValue(true, holdUpTtl, 0)
}

func (l *Link) HasHolds() bool {
	if l.up.HasHold() {
		return true
	}
	for i := range l.ends {
		if l.ends[i].metric.HasHold() || l.ends[i].overload.HasHold() {
			return true
		}
	}
	return false
}

// DecrementHolds advances every hold on this link by one tick, returning true
// if any exposed attribute changed.
func (l *Link) DecrementHolds() bool {
	changed := l.up.DecrementTtl()
	for i := range l.ends {
		// no short circuit, every hold must tick
		changed = l.ends[i].metric.DecrementTtl() || changed
		changed = l.ends[i].overload.DecrementTtl() || changed
	}
	return changed
}

// Compare orders links by their unordered endpoint pair
func (l *Link) Compare(o *Link) int {
	return l.key.compare(o.key)
}

func (l *Link) Less(o *Link) bool {
	return l.Compare(o) < 0
}

// Equal compares identity only, attributes are ignored
func (l *Link) Equal(o *Link) bool {
	return l.hash == o.hash && l.key == o.key
}

func (l *Link) String() string {
	return fmt.Sprintf("%s%%%s <---> %s%%%s", l.key.Lo.Node, l.key.Lo.Iface, l.key.Hi.Node, l.key.Hi.Iface)
}

func (l *Link) DirectionalString(fromNode string) string {
	from := l.end(fromNode)
	to := l.end(l.OtherNodeName(fromNode))
	return fmt.Sprintf("%s%%%s ---> %s%%%s", from.node, from.iface, to.node, to.iface)
}
