package core

import (
	"github.com/encodeous/lsdb/perf"
	"github.com/encodeous/lsdb/state"
	"github.com/jellydator/ttlcache/v3"
)

// Decision owns the link-state database. Adjacency databases are published
// into it by the flooding layer, and it ticks every hold once per
// TickInterval.
type Decision struct {
	// node name -> last advertisement, expires if not refreshed. Expiry is
	// measured on wall time, not on Env.Clock.
	adverts  *ttlcache.Cache[string, state.AdjacencyDatabase]
	NextHops *NextHopIndex
}

func (d *Decision) Init(s *state.State) error {
	s.Log.Debug("init decision")
	s.LinkState = state.NewLinkState()
	d.adverts = ttlcache.New[string, state.AdjacencyDatabase](
		ttlcache.WithTTL[string, state.AdjacencyDatabase](s.AdjacencyExpiry),
		ttlcache.WithDisableTouchOnHit[string, state.AdjacencyDatabase](),
	)
	d.NextHops = NewNextHopIndex()

	s.Log.Debug("schedule hold ticks", "interval", s.TickInterval)
	s.Env.RepeatTask(d.Tick, s.TickInterval)
	return nil
}

func (d *Decision) Cleanup(s *state.State) error {
	if d.adverts != nil {
		d.adverts.DeleteAll()
	}
	return nil
}

// Publish applies an adjacency database advertised by db.NodeName and
// refreshes its expiry.
func (d *Decision) Publish(s *state.State, db state.AdjacencyDatabase) error {
	holdUp, holdDown := s.HoldTtls()
	change, err := s.UpdateAdjacencyDatabase(db, holdUp, holdDown)
	if err != nil {
		return err
	}
	d.adverts.Set(db.NodeName, db.Clone(), ttlcache.DefaultTTL)
	perf.AdjacencyUpdates.Add(1)
	d.apply(s, change)
	return nil
}

// Withdraw removes a node's advertisement and every link that touches it
func (d *Decision) Withdraw(s *state.State, node string) {
	d.adverts.Delete(node)
	change := s.DeleteAdjacencyDatabase(node)
	d.apply(s, change)
}

// Tick is one protocol tick: stale advertisements are dropped, then every
// pending hold is advanced.
func (d *Decision) Tick(s *state.State) error {
	change := state.LinkStateChange{}
	for _, node := range s.AdvertisedNodes() {
		if d.adverts.Has(node) {
			continue
		}
		s.Log.Info("adjacency database expired", "node", node)
		perf.AdjacencyExpired.Add(1)
		change.Merge(s.DeleteAdjacencyDatabase(node))
	}
	d.adverts.DeleteExpired()
	if s.HasHolds() {
		perf.HoldTicks.Add(1)
		change.Merge(s.DecrementHolds())
	}
	d.apply(s, change)
	return nil
}

func (d *Decision) apply(s *state.State, change state.LinkStateChange) {
	for _, link := range change.Added {
		s.Log.Debug("link added", "link", link.String(), "up", link.IsUp())
	}
	for _, link := range change.Removed {
		s.Log.Debug("link removed", "link", link.String())
	}
	perf.LinksAdded.Add(float64(len(change.Added)))
	perf.LinksRemoved.Add(float64(len(change.Removed)))

	if change.TopologyChanged || change.LinkAttributesChanged {
		d.NextHops.Rebuild(s.LinkState)
	}
	if change.TopologyChanged {
		perf.TopologyChanges.Add(1)
		s.Log.Info("topology changed", "nodes", len(s.Nodes()), "links", s.NumLinks(), "holds", s.HasHolds())
	}
	if change.NodeLabelChanged {
		s.Log.Debug("node label changed")
	}
}
