package warmer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/iulianpascalau/social-metrics/config"
	"github.com/iulianpascalau/social-metrics/orchestrator"
	"github.com/iulianpascalau/social-metrics/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrchestrator(t *testing.T, client orchestrator.PlatformClient, cache orchestrator.ResponseCache) Orchestrator {
	orch, err := orchestrator.NewFetchOrchestrator(orchestrator.ArgsFetchOrchestrator{
		Clients: map[common.Platform]orchestrator.PlatformClient{
			common.PlatformFacebook: client,
		},
		CredentialProvider: &testsCommon.CredentialProviderStub{},
		ResponseCache:      cache,
		FetchTimeout:       time.Second,
	})
	require.Nil(t, err)

	return orch
}

func TestNewCacheWarmer(t *testing.T) {
	t.Parallel()

	t.Run("nil orchestrator should error", func(t *testing.T) {
		warmer, err := NewCacheWarmer(nil, nil)

		assert.Nil(t, warmer)
		assert.True(t, warmer.IsInterfaceNil())
		assert.Error(t, err)
	})
	t.Run("should work with no entries", func(t *testing.T) {
		orch := createTestOrchestrator(t, &testsCommon.PlatformClientStub{}, &testsCommon.ResponseCacheStub{})
		warmer, err := NewCacheWarmer(nil, orch)

		assert.NotNil(t, warmer)
		assert.False(t, warmer.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestCacheWarmer_ProcessRefreshesConfiguredResources(t *testing.T) {
	t.Parallel()

	numStores := uint32(0)
	cache := &testsCommon.ResponseCacheStub{
		StoreDataHandler: func(_ context.Context, _ string, _ common.Platform, _ string, payload map[string]common.NormalizedResponse, _ common.FetchStatus) error {
			atomic.AddUint32(&numStores, 1)
			assert.Len(t, payload, 2)
			return nil
		},
	}

	orch := createTestOrchestrator(t, &testsCommon.PlatformClientStub{}, cache)
	warmer, err := NewCacheWarmer([]config.WarmupConfig{
		{
			CompanyID:  "acme",
			Platform:   "facebook",
			ResourceID: "page-1",
			Groups:     []string{"followers", "engagement"},
		},
		{
			CompanyID:  "globex",
			Platform:   "facebook",
			ResourceID: "page-9",
			Groups:     []string{"followers", "reach"},
		},
	}, orch)
	require.Nil(t, err)

	warmer.Process(context.Background())

	assert.Equal(t, uint32(2), atomic.LoadUint32(&numStores))
}

func TestCacheWarmer_ProcessSkipsUnstartableSessions(t *testing.T) {
	t.Parallel()

	numStores := uint32(0)
	cache := &testsCommon.ResponseCacheStub{
		StoreDataHandler: func(_ context.Context, _ string, _ common.Platform, _ string, _ map[string]common.NormalizedResponse, _ common.FetchStatus) error {
			atomic.AddUint32(&numStores, 1)
			return nil
		},
	}

	orch := createTestOrchestrator(t, &testsCommon.PlatformClientStub{}, cache)
	warmer, err := NewCacheWarmer([]config.WarmupConfig{
		{
			CompanyID:  "acme",
			Platform:   "no-such-platform",
			ResourceID: "page-1",
			Groups:     []string{"followers"},
		},
		{
			CompanyID:  "acme",
			Platform:   "facebook",
			ResourceID: "page-1",
			Groups:     []string{"followers"},
		},
	}, orch)
	require.Nil(t, err)

	// the unknown platform entry is logged and skipped, the next one still runs
	warmer.Process(context.Background())

	assert.Equal(t, uint32(1), atomic.LoadUint32(&numStores))
}

func TestCacheWarmer_ProcessStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	releaseFetch := make(chan struct{})
	client := &testsCommon.PlatformClientStub{
		FetchMetricGroupHandler: func(_ context.Context, _ common.Credential, resourceID string, _ string, _ common.TimeRange) (*common.NormalizedResponse, error) {
			<-releaseFetch
			return &common.NormalizedResponse{ResourceID: resourceID}, nil
		},
	}
	defer close(releaseFetch)

	orch := createTestOrchestrator(t, client, &testsCommon.ResponseCacheStub{})
	warmer, err := NewCacheWarmer([]config.WarmupConfig{
		{
			CompanyID:  "acme",
			Platform:   "facebook",
			ResourceID: "page-1",
			Groups:     []string{"followers"},
		},
	}, orch)
	require.Nil(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finished := make(chan struct{})
	go func() {
		warmer.Process(ctx)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		assert.Fail(t, "process should return on a cancelled context")
	}
}
