package credentials

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/iulianpascalau/social-metrics/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredentialProvider(t *testing.T) {
	t.Parallel()

	t.Run("nil cache should error", func(t *testing.T) {
		provider, err := NewCredentialProvider(nil, &testsCommon.CredentialStoreStub{})

		assert.Nil(t, provider)
		assert.True(t, provider.IsInterfaceNil())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nil credential cache")
	})
	t.Run("nil store should error", func(t *testing.T) {
		cache, _ := NewCredentialCache(time.Minute)
		provider, err := NewCredentialProvider(cache, nil)

		assert.Nil(t, provider)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nil credential store")
	})
	t.Run("should work", func(t *testing.T) {
		cache, _ := NewCredentialCache(time.Minute)
		provider, err := NewCredentialProvider(cache, &testsCommon.CredentialStoreStub{})

		assert.NotNil(t, provider)
		assert.False(t, provider.IsInterfaceNil())
		assert.Nil(t, err)
	})
}

func TestCredentialProvider_Resolve(t *testing.T) {
	t.Parallel()

	expectedCredential := common.Credential{
		CompanyID:   "acme",
		Platform:    common.PlatformFacebook,
		AccessToken: "store-token",
	}

	t.Run("miss falls through to the store and caches the result", func(t *testing.T) {
		numStoreCalls := 0
		store := &testsCommon.CredentialStoreStub{
			GetCredentialHandler: func(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
				numStoreCalls++
				return expectedCredential, nil
			},
		}

		cache, _ := NewCredentialCache(time.Minute)
		provider, err := NewCredentialProvider(cache, store)
		require.Nil(t, err)

		credential, err := provider.Resolve(context.Background(), "acme", common.PlatformFacebook)
		assert.Nil(t, err)
		assert.Equal(t, expectedCredential, credential)
		assert.Equal(t, 1, numStoreCalls)

		// second resolve is served from the cache
		credential, err = provider.Resolve(context.Background(), "acme", common.PlatformFacebook)
		assert.Nil(t, err)
		assert.Equal(t, expectedCredential, credential)
		assert.Equal(t, 1, numStoreCalls)
	})
	t.Run("store not found is propagated", func(t *testing.T) {
		store := &testsCommon.CredentialStoreStub{
			GetCredentialHandler: func(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
				return common.Credential{}, ErrNotFound
			},
		}

		cache, _ := NewCredentialCache(time.Minute)
		provider, _ := NewCredentialProvider(cache, store)

		credential, err := provider.Resolve(context.Background(), "acme", common.PlatformLinkedin)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Empty(t, credential.AccessToken)
	})
	t.Run("concurrent misses coalesce into one store read", func(t *testing.T) {
		numStoreCalls := uint32(0)
		releaseStore := make(chan struct{})
		store := &testsCommon.CredentialStoreStub{
			GetCredentialHandler: func(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
				atomic.AddUint32(&numStoreCalls, 1)
				<-releaseStore
				return expectedCredential, nil
			},
		}

		cache, _ := NewCredentialCache(time.Minute)
		provider, err := NewCredentialProvider(cache, store)
		require.Nil(t, err)

		numResolvers := 10
		var wg sync.WaitGroup
		wg.Add(numResolvers)
		for i := 0; i < numResolvers; i++ {
			go func() {
				defer wg.Done()

				credential, errResolve := provider.Resolve(context.Background(), "acme", common.PlatformFacebook)
				assert.Nil(t, errResolve)
				assert.Equal(t, expectedCredential, credential)
			}()
		}

		time.Sleep(100 * time.Millisecond) // let the resolvers pile up on the in-flight read
		close(releaseStore)
		wg.Wait()

		assert.Equal(t, uint32(1), atomic.LoadUint32(&numStoreCalls))
	})
	t.Run("invalidate forces the next resolve back to the store", func(t *testing.T) {
		numStoreCalls := 0
		store := &testsCommon.CredentialStoreStub{
			GetCredentialHandler: func(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
				numStoreCalls++
				return expectedCredential, nil
			},
		}

		cache, _ := NewCredentialCache(time.Minute)
		provider, _ := NewCredentialProvider(cache, store)

		_, _ = provider.Resolve(context.Background(), "acme", common.PlatformFacebook)
		provider.Invalidate("acme")
		_, _ = provider.Resolve(context.Background(), "acme", common.PlatformFacebook)

		assert.Equal(t, 2, numStoreCalls)
	})
}
