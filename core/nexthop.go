package core

import (
	"net/netip"

	"github.com/encodeous/lsdb/state"
	"github.com/gaissmai/bart"
)

// NextHop is a link as seen from the node that forwards over it
type NextHop struct {
	Link *state.Link
	From string
}

func (nh NextHop) String() string {
	return nh.Link.DirectionalString(nh.From)
}

// NextHopIndex resolves next-hop addresses programmed into the FIB back to
// the link and direction that advertised them.
type NextHopIndex struct {
	table bart.Table[[]NextHop]
	size  int
}

func NewNextHopIndex() *NextHopIndex {
	return &NextHopIndex{
		table: bart.Table[[]NextHop]{},
	}
}

func (idx *NextHopIndex) Size() int {
	return idx.size
}

func (idx *NextHopIndex) insert(addr netip.Addr, nh NextHop) {
	if !addr.IsValid() {
		return
	}
	addr = addr.WithZone("")
	pfx := netip.PrefixFrom(addr, addr.BitLen())
	existing, _ := idx.table.Get(pfx)
	idx.table.Insert(pfx, append(existing, nh))
	idx.size++
}

// Rebuild replaces the index with the next-hops of every link in ls
func (idx *NextHopIndex) Rebuild(ls *state.LinkState) {
	idx.table = bart.Table[[]NextHop]{}
	idx.size = 0
	for _, link := range ls.Links() {
		for _, node := range []string{link.FirstNodeName(), link.SecondNodeName()} {
			nh := NextHop{Link: link, From: node}
			idx.insert(link.NhV4FromNode(node), nh)
			idx.insert(link.NhV6FromNode(node), nh)
		}
	}
}

// Lookup returns every link direction using addr as its next-hop. Link-local
// IPv6 next-hops are commonly shared by several links.
func (idx *NextHopIndex) Lookup(addr netip.Addr) []NextHop {
	nhs, ok := idx.table.Lookup(addr.WithZone(""))
	if !ok {
		return nil
	}
	return nhs
}
