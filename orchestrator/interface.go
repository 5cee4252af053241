package orchestrator

import (
	"context"

	"github.com/iulianpascalau/social-metrics/common"
)

// PlatformClient translates a credential, resource and metric group into one
// upstream call returning a normalized result or a classified error
type PlatformClient interface {
	Platform() common.Platform
	FetchMetricGroup(
		ctx context.Context,
		credential common.Credential,
		resourceID string,
		groupName string,
		timeRange common.TimeRange,
	) (*common.NormalizedResponse, error)

	IsInterfaceNil() bool
}

// CredentialProvider resolves per-company platform credentials
type CredentialProvider interface {
	Resolve(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error)
	IsInterfaceNil() bool
}

// ResponseCache is the persisted last-known-good response store used both for
// write-through on success and for stale-serving fallback on failure
type ResponseCache interface {
	GetData(ctx context.Context, companyID string, platform common.Platform, resourceID string) (common.CacheEntry, error)
	StoreData(
		ctx context.Context,
		companyID string,
		platform common.Platform,
		resourceID string,
		payload map[string]common.NormalizedResponse,
		fetchStatus common.FetchStatus,
	) error

	IsInterfaceNil() bool
}

// Session is the consumer view of one in-flight progressive fetch
type Session interface {
	// Key returns the cache key this session fetches for
	Key() common.CacheKey

	// Subscribe returns a channel delivering one event per group state change
	// plus a terminal session-complete event. The channel is closed when the
	// session completes or is cancelled. Subscribing to an already finished
	// session returns a closed channel; use CurrentState to catch up.
	Subscribe() <-chan Event

	// CurrentState returns a snapshot of every group's current state so late
	// subscribers can catch up without re-fetching
	CurrentState() map[string]GroupResult

	// Done is closed once every group reached a terminal state
	Done() <-chan struct{}

	// Cancel detaches all subscribers. In-flight upstream calls are allowed
	// to complete and still write through to the response cache.
	Cancel()

	IsInterfaceNil() bool
}
