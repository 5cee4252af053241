package orchestrator

import (
	"errors"
	"testing"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = common.CacheKey{
	CompanyID:  "acme",
	Platform:   common.PlatformFacebook,
	ResourceID: "page-1",
}

func testResponse(value float64) *common.NormalizedResponse {
	return &common.NormalizedResponse{
		ResourceID: "page-1",
		Metrics: map[string]map[string]float64{
			"page_fans": {"day": value},
		},
	}
}

func TestFetchSession_InitialStateIsPending(t *testing.T) {
	t.Parallel()

	session := newFetchSession(testKey, []string{"followers", "engagement"})

	state := session.CurrentState()
	require.Len(t, state, 2)
	assert.Equal(t, StatePending, state["followers"].State)
	assert.Equal(t, StatePending, state["engagement"].State)
	assert.Equal(t, testKey, session.Key())
	assert.False(t, session.IsInterfaceNil())
}

func TestFetchSession_TransitionsAreMonotonic(t *testing.T) {
	t.Parallel()

	t.Run("terminal state is never overwritten", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers"})

		session.setLoading("followers")
		session.setSucceeded("followers", testResponse(100), false, 0)

		session.setFailed("followers", errors.New("too late"))
		session.setSucceeded("followers", testResponse(999), true, 123)
		session.setLoading("followers")

		state := session.CurrentState()
		assert.Equal(t, StateSucceeded, state["followers"].State)
		assert.Equal(t, 100.0, state["followers"].Data.Metrics["page_fans"]["day"])
		assert.Nil(t, state["followers"].Err)
		assert.False(t, state["followers"].ServedFromCache)
	})
	t.Run("failed stays failed", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers"})
		expectedErr := errors.New("upstream down")

		session.setLoading("followers")
		session.setFailed("followers", expectedErr)
		session.setSucceeded("followers", testResponse(100), false, 0)

		state := session.CurrentState()
		assert.Equal(t, StateFailed, state["followers"].State)
		assert.Equal(t, expectedErr, state["followers"].Err)
	})
	t.Run("loading only from pending", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers"})

		session.setLoading("followers")
		session.setLoading("followers") // no-op, already loading

		state := session.CurrentState()
		assert.Equal(t, StateLoading, state["followers"].State)
	})
	t.Run("unknown group is ignored", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers"})

		session.setLoading("no-such-group")
		session.setSucceeded("no-such-group", testResponse(1), false, 0)

		state := session.CurrentState()
		require.Len(t, state, 1)
		assert.Equal(t, StatePending, state["followers"].State)
	})
}

func TestFetchSession_SubscribersReceiveAllEvents(t *testing.T) {
	t.Parallel()

	session := newFetchSession(testKey, []string{"followers"})
	ch := session.Subscribe()

	session.notifyPending()
	session.setLoading("followers")
	session.setSucceeded("followers", testResponse(100), false, 0)
	session.complete(map[string]common.NormalizedResponse{"followers": *testResponse(100)})

	var events []Event
	for event := range ch {
		events = append(events, event)
	}

	require.Len(t, events, 4)
	assert.Equal(t, StatePending, events[0].State)
	assert.Equal(t, StateLoading, events[1].State)
	assert.Equal(t, StateSucceeded, events[2].State)
	assert.True(t, events[3].SessionComplete)
	assert.Equal(t, StateSucceeded, events[3].State)
	assert.Len(t, events[3].MergedPayload, 1)

	select {
	case <-session.Done():
	default:
		assert.Fail(t, "done channel should be closed after complete")
	}
}

func TestFetchSession_SubscribeAfterCompletionReturnsClosedChannel(t *testing.T) {
	t.Parallel()

	session := newFetchSession(testKey, []string{"followers"})
	session.setSucceeded("followers", testResponse(100), false, 0)
	session.complete(map[string]common.NormalizedResponse{"followers": *testResponse(100)})

	ch := session.Subscribe()
	_, open := <-ch
	assert.False(t, open)

	// late subscribers catch up through the snapshot instead
	state := session.CurrentState()
	assert.Equal(t, StateSucceeded, state["followers"].State)
}

func TestFetchSession_CancelDetachesWithoutTouchingState(t *testing.T) {
	t.Parallel()

	session := newFetchSession(testKey, []string{"followers"})
	ch := session.Subscribe()

	session.setLoading("followers")
	session.Cancel()
	session.Cancel() // idempotent

	// the channel is closed once buffered events are drained
	event, open := <-ch
	require.True(t, open)
	assert.Equal(t, StateLoading, event.State)
	_, open = <-ch
	assert.False(t, open)

	// state keeps progressing for the write-through path
	session.setSucceeded("followers", testResponse(100), false, 0)
	state := session.CurrentState()
	assert.Equal(t, StateSucceeded, state["followers"].State)
}

func TestFetchSession_TerminalEventStateReflectsOutcome(t *testing.T) {
	t.Parallel()

	lastEvent := func(ch <-chan Event) Event {
		var event Event
		for event = range ch {
		}
		return event
	}

	t.Run("all groups succeeded", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers"})
		ch := session.Subscribe()

		session.setSucceeded("followers", testResponse(100), false, 0)
		session.complete(map[string]common.NormalizedResponse{"followers": *testResponse(100)})

		event := lastEvent(ch)
		assert.True(t, event.SessionComplete)
		assert.Equal(t, StateSucceeded, event.State)
	})
	t.Run("a failed group marks the terminal event failed", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers", "reach"})
		ch := session.Subscribe()

		session.setSucceeded("followers", testResponse(100), false, 0)
		session.setFailed("reach", errors.New("upstream down"))
		session.complete(map[string]common.NormalizedResponse{"followers": *testResponse(100)})

		event := lastEvent(ch)
		assert.True(t, event.SessionComplete)
		assert.Equal(t, StateFailed, event.State)
	})
	t.Run("every group failed marks the terminal event failed", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers"})
		ch := session.Subscribe()

		session.setFailed("followers", errors.New("no credential"))
		session.complete(make(map[string]common.NormalizedResponse))

		event := lastEvent(ch)
		assert.True(t, event.SessionComplete)
		assert.Equal(t, StateFailed, event.State)
	})
}

func TestFetchSession_CompleteIsIdempotent(t *testing.T) {
	t.Parallel()

	session := newFetchSession(testKey, []string{"followers"})
	session.setFailed("followers", errors.New("boom"))

	session.complete(make(map[string]common.NormalizedResponse))
	session.complete(make(map[string]common.NormalizedResponse)) // no double close panic
}

func TestFetchSession_AssembleResults(t *testing.T) {
	t.Parallel()

	t.Run("all live", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers", "reach"})
		session.setSucceeded("followers", testResponse(100), false, 0)
		session.setSucceeded("reach", testResponse(200), false, 0)

		merged, live, allSucceeded := session.assembleResults()
		assert.True(t, allSucceeded)
		assert.Len(t, merged, 2)
		assert.Len(t, live, 2)
	})
	t.Run("stale substituted group is merged but not live", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers", "reach"})
		session.setSucceeded("followers", testResponse(100), false, 0)
		session.setSucceeded("reach", testResponse(200), true, 1700000000)

		merged, live, allSucceeded := session.assembleResults()
		assert.True(t, allSucceeded)
		assert.Len(t, merged, 2)
		require.Len(t, live, 1)
		_, found := live["followers"]
		assert.True(t, found)
	})
	t.Run("failed group breaks allSucceeded", func(t *testing.T) {
		session := newFetchSession(testKey, []string{"followers", "reach"})
		session.setSucceeded("followers", testResponse(100), false, 0)
		session.setFailed("reach", errors.New("boom"))

		merged, live, allSucceeded := session.assembleResults()
		assert.False(t, allSucceeded)
		assert.Len(t, merged, 1)
		assert.Len(t, live, 1)
	})
}
