package orchestrator

import "github.com/iulianpascalau/social-metrics/common"

// GroupState is the fetch state of one metric group within a session
type GroupState string

// The states a metric group moves through. Transitions are strictly monotonic:
// Pending -> Loading -> {Succeeded | Failed}, never backward.
const (
	StatePending   GroupState = "Pending"
	StateLoading   GroupState = "Loading"
	StateSucceeded GroupState = "Succeeded"
	StateFailed    GroupState = "Failed"
)

// GroupResult is the current view of one metric group within a session
type GroupResult struct {
	Group           string
	State           GroupState
	Data            *common.NormalizedResponse
	Err             error
	ServedFromCache bool
	LastFetchedAt   int64
}

// Event is emitted to subscribers on every group state change. The terminal
// event has SessionComplete set, a State reflecting the whole session
// (Succeeded only when every group succeeded) and carries the merged payload
// of all succeeded groups, stale-substituted ones included.
type Event struct {
	Group           string
	State           GroupState
	Data            *common.NormalizedResponse
	Err             error
	ServedFromCache bool
	LastFetchedAt   int64
	SessionComplete bool
	MergedPayload   map[string]common.NormalizedResponse
}

// Request describes one progressive fetch: which company, platform and
// resource, and which metric groups to fan out over
type Request struct {
	CompanyID  string
	Platform   common.Platform
	ResourceID string
	Groups     []string
	TimeRange  common.TimeRange
}

// Key returns the cache key the request maps to
func (r Request) Key() common.CacheKey {
	return common.CacheKey{
		CompanyID:  r.CompanyID,
		Platform:   r.Platform,
		ResourceID: r.ResourceID,
	}
}
