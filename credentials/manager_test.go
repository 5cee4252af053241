package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/iulianpascalau/social-metrics/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntegrationsManager(t *testing.T) {
	t.Parallel()

	t.Run("nil store should error", func(t *testing.T) {
		cache, _ := NewCredentialCache(time.Minute)
		manager, err := NewIntegrationsManager(nil, cache)

		assert.Nil(t, manager)
		assert.True(t, manager.IsInterfaceNil())
		assert.Error(t, err)
	})
	t.Run("nil cache should error", func(t *testing.T) {
		manager, err := NewIntegrationsManager(&testsCommon.CredentialStoreStub{}, nil)

		assert.Nil(t, manager)
		assert.Error(t, err)
	})
	t.Run("should work", func(t *testing.T) {
		cache, _ := NewCredentialCache(time.Minute)
		manager, err := NewIntegrationsManager(&testsCommon.CredentialStoreStub{}, cache)

		assert.NotNil(t, manager)
		assert.False(t, manager.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestIntegrationsManager_UpsertInvalidatesCache(t *testing.T) {
	t.Parallel()

	cache, _ := NewCredentialCache(time.Minute)
	manager, err := NewIntegrationsManager(&testsCommon.CredentialStoreStub{}, cache)
	require.Nil(t, err)

	cache.Put("acme", common.PlatformFacebook, common.Credential{AccessToken: "old-token"})

	err = manager.UpsertIntegration(context.Background(), common.Credential{
		CompanyID:   "acme",
		Platform:    common.PlatformFacebook,
		AccessToken: "new-token",
	})
	require.Nil(t, err)

	_, found := cache.Get("acme", common.PlatformFacebook)
	assert.False(t, found)
}

func TestIntegrationsManager_DeleteInvalidatesCache(t *testing.T) {
	t.Parallel()

	cache, _ := NewCredentialCache(time.Minute)
	manager, err := NewIntegrationsManager(&testsCommon.CredentialStoreStub{}, cache)
	require.Nil(t, err)

	cache.Put("acme", common.PlatformX, common.Credential{AccessToken: "token"})

	err = manager.DeleteIntegration(context.Background(), "acme", common.PlatformX)
	require.Nil(t, err)

	_, found := cache.Get("acme", common.PlatformX)
	assert.False(t, found)
}

func TestIntegrationsManager_StoreErrorKeepsCache(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("store is down")
	store := &testsCommon.CredentialStoreStub{
		UpsertIntegrationHandler: func(ctx context.Context, credential common.Credential) error {
			return expectedErr
		},
	}

	cache, _ := NewCredentialCache(time.Minute)
	manager, err := NewIntegrationsManager(store, cache)
	require.Nil(t, err)

	cache.Put("acme", common.PlatformLinkedin, common.Credential{AccessToken: "token"})

	err = manager.UpsertIntegration(context.Background(), common.Credential{
		CompanyID: "acme",
		Platform:  common.PlatformLinkedin,
	})
	assert.Equal(t, expectedErr, err)

	// the cached credential is still valid since the store was not changed
	_, found := cache.Get("acme", common.PlatformLinkedin)
	assert.True(t, found)
}
