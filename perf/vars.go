package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency  = metric.NewHistogram("1m1s")
	AdjacencyUpdates = metric.NewCounter("10s1s")
	AdjacencyExpired = metric.NewCounter("1m1s")
	LinksAdded       = metric.NewCounter("1m1s")
	LinksRemoved     = metric.NewCounter("1m1s")
	HoldTicks        = metric.NewCounter("1m1s")
	TopologyChanges  = metric.NewCounter("1m1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("lsdb:AdjacencyUpdates/s", AdjacencyUpdates)
	expvar.Publish("lsdb:AdjacencyExpired", AdjacencyExpired)
	expvar.Publish("lsdb:LinksAdded", LinksAdded)
	expvar.Publish("lsdb:LinksRemoved", LinksRemoved)
	expvar.Publish("lsdb:HoldTicks", HoldTicks)
	expvar.Publish("lsdb:TopologyChanges", TopologyChanges)
	expvar.Publish("lsdb:DispatchLatency (µs)", DispatchLatency)
}
