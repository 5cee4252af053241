package orchestrator

import (
	"sync"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
)

// fetchSession tracks the per-group state machine of one progressive fetch
// and fans events out to its subscribers
type fetchSession struct {
	key       common.CacheKey
	createdAt time.Time

	mut         sync.RWMutex
	groups      map[string]*GroupResult
	subscribers []chan Event
	detached    bool
	completed   bool

	done chan struct{}
}

func newFetchSession(key common.CacheKey, groupNames []string) *fetchSession {
	groups := make(map[string]*GroupResult, len(groupNames))
	for _, name := range groupNames {
		groups[name] = &GroupResult{
			Group: name,
			State: StatePending,
		}
	}

	return &fetchSession{
		key:       key,
		createdAt: time.Now(),
		groups:    groups,
		done:      make(chan struct{}),
	}
}

// Key returns the cache key this session fetches for
func (s *fetchSession) Key() common.CacheKey {
	return s.key
}

// Subscribe registers a new event channel. The buffer covers every event the
// session can emit so a consumer reading after completion loses nothing.
func (s *fetchSession) Subscribe() <-chan Event {
	s.mut.Lock()
	defer s.mut.Unlock()

	ch := make(chan Event, 3*len(s.groups)+1)
	if s.detached || s.completed {
		close(ch)
		return ch
	}

	s.subscribers = append(s.subscribers, ch)

	return ch
}

// CurrentState returns a copy of every group's current state
func (s *fetchSession) CurrentState() map[string]GroupResult {
	s.mut.RLock()
	defer s.mut.RUnlock()

	snapshot := make(map[string]GroupResult, len(s.groups))
	for name, result := range s.groups {
		snapshot[name] = *result
	}

	return snapshot
}

// Done is closed once every group reached a terminal state
func (s *fetchSession) Done() <-chan struct{} {
	return s.done
}

// Cancel detaches all subscribers without touching group state: in-flight
// fetches keep running so the write-through still benefits the next reader
func (s *fetchSession) Cancel() {
	s.mut.Lock()
	defer s.mut.Unlock()

	if s.detached || s.completed {
		return
	}

	s.detached = true
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}

// notifyPending emits the initial Pending event for every group so consumers
// can render one loading placeholder per group up front
func (s *fetchSession) notifyPending() {
	s.mut.Lock()
	defer s.mut.Unlock()

	for name := range s.groups {
		s.notifyUnlocked(Event{
			Group: name,
			State: StatePending,
		})
	}
}

func (s *fetchSession) setLoading(group string) {
	s.mut.Lock()
	defer s.mut.Unlock()

	result, found := s.groups[group]
	if !found || result.State != StatePending {
		return
	}

	result.State = StateLoading
	s.notifyUnlocked(Event{
		Group: group,
		State: StateLoading,
	})
}

func (s *fetchSession) setSucceeded(group string, data *common.NormalizedResponse, servedFromCache bool, lastFetchedAt int64) {
	s.mut.Lock()
	defer s.mut.Unlock()

	result, found := s.groups[group]
	if !found || isTerminal(result.State) {
		return
	}

	result.State = StateSucceeded
	result.Data = data
	result.Err = nil
	result.ServedFromCache = servedFromCache
	result.LastFetchedAt = lastFetchedAt

	s.notifyUnlocked(Event{
		Group:           group,
		State:           StateSucceeded,
		Data:            data,
		ServedFromCache: servedFromCache,
		LastFetchedAt:   lastFetchedAt,
	})
}

func (s *fetchSession) setFailed(group string, err error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	result, found := s.groups[group]
	if !found || isTerminal(result.State) {
		return
	}

	result.State = StateFailed
	result.Err = err

	s.notifyUnlocked(Event{
		Group: group,
		State: StateFailed,
		Err:   err,
	})
}

// complete emits the terminal event, closes all subscriber channels and the
// done channel. Idempotent. The terminal event's state reflects the whole
// session: Succeeded only when every group succeeded.
func (s *fetchSession) complete(mergedPayload map[string]common.NormalizedResponse) {
	s.mut.Lock()
	if s.completed {
		s.mut.Unlock()
		return
	}
	s.completed = true

	state := StateSucceeded
	for _, result := range s.groups {
		if result.State != StateSucceeded {
			state = StateFailed
			break
		}
	}

	s.notifyUnlocked(Event{
		State:           state,
		SessionComplete: true,
		MergedPayload:   mergedPayload,
	})
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	s.mut.Unlock()

	close(s.done)
}

// assembleResults returns the merged presentation payload (every succeeded
// group, stale-substituted ones included), the live-only subset eligible for
// write-through, and whether all groups succeeded
func (s *fetchSession) assembleResults() (merged map[string]common.NormalizedResponse, live map[string]common.NormalizedResponse, allSucceeded bool) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	merged = make(map[string]common.NormalizedResponse)
	live = make(map[string]common.NormalizedResponse)
	allSucceeded = true

	for name, result := range s.groups {
		if result.State != StateSucceeded || result.Data == nil {
			allSucceeded = false
			continue
		}

		merged[name] = *result.Data
		if !result.ServedFromCache {
			live[name] = *result.Data
		}
	}

	return merged, live, allSucceeded
}

// notifyUnlocked must be called with s.mut held. A subscriber that stopped
// reading does not block the session: its channel buffer already covers all
// events, anything beyond that is dropped.
func (s *fetchSession) notifyUnlocked(event Event) {
	if s.detached {
		return
	}

	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			log.Warn("dropping event for slow subscriber", "key", s.key.String(), "group", event.Group)
		}
	}
}

func isTerminal(state GroupState) bool {
	return state == StateSucceeded || state == StateFailed
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *fetchSession) IsInterfaceNil() bool {
	return s == nil
}
