package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iulianpascalau/social-metrics/clients"
	"github.com/iulianpascalau/social-metrics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("orchestrator")

const defaultFetchTimeout = 15 * time.Second

// ArgsFetchOrchestrator defines the fetch orchestrator arguments
type ArgsFetchOrchestrator struct {
	Clients            map[common.Platform]PlatformClient
	CredentialProvider CredentialProvider
	ResponseCache      ResponseCache
	FetchTimeout       time.Duration
}

// fetchOrchestrator fans one session out into N independent concurrent metric
// group fetches over a shared credential, applying the stale-serving fallback
// policy per group
type fetchOrchestrator struct {
	clients map[common.Platform]PlatformClient
	creds   CredentialProvider
	cache   ResponseCache
	timeout time.Duration

	mutSessions sync.Mutex
	sessions    map[string]*fetchSession
}

// NewFetchOrchestrator creates a new fetch orchestrator
func NewFetchOrchestrator(args ArgsFetchOrchestrator) (*fetchOrchestrator, error) {
	if check.IfNil(args.CredentialProvider) {
		return nil, errors.New("nil credential provider")
	}
	if check.IfNil(args.ResponseCache) {
		return nil, errors.New("nil response cache")
	}
	if len(args.Clients) == 0 {
		return nil, errors.New("no platform clients provided")
	}
	for platform, client := range args.Clients {
		if check.IfNil(client) {
			return nil, fmt.Errorf("nil client for platform %s", platform)
		}
	}

	timeout := args.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &fetchOrchestrator{
		clients:  args.Clients,
		creds:    args.CredentialProvider,
		cache:    args.ResponseCache,
		timeout:  timeout,
		sessions: make(map[string]*fetchSession),
	}, nil
}

// StartSession starts a progressive fetch for the request, or joins the
// in-flight session for the same (company, platform, resource) key: duplicate
// UI-triggered refreshes coalesce into one fetch. The registry entry lives for
// the whole session, so late joiners coalesce too, not just simultaneous ones.
func (o *fetchOrchestrator) StartSession(request Request) (Session, error) {
	_, found := o.clients[request.Platform]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, request.Platform)
	}
	if len(request.Groups) == 0 {
		return nil, ErrNoGroups
	}

	key := request.Key()

	o.mutSessions.Lock()
	defer o.mutSessions.Unlock()

	existing, inFlight := o.sessions[key.String()]
	if inFlight {
		return existing, nil
	}

	session := newFetchSession(key, request.Groups)
	o.sessions[key.String()] = session
	go o.runSession(session, request)

	return session, nil
}

func (o *fetchOrchestrator) runSession(session *fetchSession, request Request) {
	// the session deliberately outlives its callers: a detached consumer does
	// not abort in-flight fetches, the write-through still serves the next one
	ctx := context.Background()

	session.notifyPending()

	credCtx, cancelCred := context.WithTimeout(ctx, o.timeout)
	credential, err := o.creds.Resolve(credCtx, request.CompanyID, request.Platform)
	cancelCred()
	if err != nil {
		log.Warn("credential resolution failed, failing all groups",
			"key", session.key.String(), "error", err)

		for _, group := range request.Groups {
			session.setFailed(group, fmt.Errorf("%w: %s", ErrCredentialUnavailable, err.Error()))
		}
		o.finishSession(session, make(map[string]common.NormalizedResponse))

		return
	}

	client := o.clients[request.Platform]

	var wg sync.WaitGroup
	wg.Add(len(request.Groups))
	for _, group := range request.Groups {
		go func(groupName string) {
			defer wg.Done()

			o.fetchGroup(ctx, session, client, credential, request, groupName)
		}(group)
	}
	wg.Wait()

	merged, live, allSucceeded := session.assembleResults()
	if allSucceeded && len(live) == len(merged) && len(live) > 0 {
		// the stored entry is only replaced whole: writing the live subset of
		// a partially substituted session would drop the substituted groups'
		// last known good payloads, and re-storing a substituted payload
		// would stamp stale data as fresh
		storeCtx, cancelStore := context.WithTimeout(ctx, o.timeout)
		err = o.cache.StoreData(storeCtx, request.CompanyID, request.Platform, request.ResourceID, live, common.FetchStatusSuccess)
		cancelStore()
		if err != nil {
			// a cache write failure never fails the fetch, the data already
			// reached the consumer
			log.Warn("response cache write failed", "key", session.key.String(), "error", err)
		}
	}

	o.finishSession(session, merged)
}

// finishSession drops the session from the in-flight map before completing it
// so a consumer that saw Done closed can immediately start a fresh one
func (o *fetchOrchestrator) finishSession(session *fetchSession, merged map[string]common.NormalizedResponse) {
	o.mutSessions.Lock()
	delete(o.sessions, session.key.String())
	o.mutSessions.Unlock()

	session.complete(merged)
}

func (o *fetchOrchestrator) fetchGroup(
	ctx context.Context,
	session *fetchSession,
	client PlatformClient,
	credential common.Credential,
	request Request,
	groupName string,
) {
	session.setLoading(groupName)

	fetchCtx, cancelFetch := context.WithTimeout(ctx, o.timeout)
	defer cancelFetch()

	data, err := client.FetchMetricGroup(fetchCtx, credential, request.ResourceID, groupName, request.TimeRange)
	if err == nil {
		session.setSucceeded(groupName, data, false, 0)
		return
	}

	class, classified := clients.ClassOf(err)
	if !classified {
		class = clients.ClassUpstreamError
	}

	log.Debug("metric group fetch failed",
		"key", session.key.String(), "group", groupName, "class", class, "error", err)

	if !clients.ShouldServeStale(class) {
		session.setFailed(groupName, err)
		return
	}

	cacheCtx, cancelCache := context.WithTimeout(ctx, o.timeout)
	defer cancelCache()

	entry, cacheErr := o.cache.GetData(cacheCtx, request.CompanyID, request.Platform, request.ResourceID)
	if cacheErr != nil || entry.FetchStatus != common.FetchStatusSuccess {
		session.setFailed(groupName, err)
		return
	}

	cached, found := entry.Payload[groupName]
	if !found {
		session.setFailed(groupName, err)
		return
	}

	// the live failure stays in the logs above; the consumer gets the stale
	// payload tagged with its age
	session.setSucceeded(groupName, &cached, true, entry.LastFetchedAt)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (o *fetchOrchestrator) IsInterfaceNil() bool {
	return o == nil
}
