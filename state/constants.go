package state

import "time"

const (
	// DefaultMetric is used when an adjacency does not advertise a metric
	DefaultMetric = Metric(1)
)

var (
	DefaultHoldUpTtl       = uint64(0) // good news is applied immediately
	DefaultHoldDownTtl     = uint64(3)
	DefaultTickInterval    = time.Second * 1
	DefaultRefreshInterval = time.Second * 5
	// an advertisement that is not refreshed is dropped after this long
	DefaultAdjacencyExpiry = 6 * DefaultRefreshInterval

	DispatchWarnThreshold = time.Millisecond * 4
	DispatchBufferSize    = 128
)
