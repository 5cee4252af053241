package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	"golang.org/x/sync/singleflight"
)

// Cache defines the TTL-bounded credential cache operations
type Cache interface {
	Get(companyID string, platform common.Platform) (common.Credential, bool)
	Put(companyID string, platform common.Platform, credential common.Credential)
	Invalidate(companyID string, platforms ...common.Platform)
	IsInterfaceNil() bool
}

// credentialProvider resolves credentials through the cache, falling through
// to the store on a miss. Concurrent misses for the same key coalesce into a
// single store read.
type credentialProvider struct {
	cache Cache
	store Store
	sf    singleflight.Group
}

// NewCredentialProvider creates a new cache-through credential resolver
func NewCredentialProvider(cache Cache, store Store) (*credentialProvider, error) {
	if check.IfNil(cache) {
		return nil, errors.New("nil credential cache")
	}
	if check.IfNil(store) {
		return nil, errors.New("nil credential store")
	}

	return &credentialProvider{
		cache: cache,
		store: store,
	}, nil
}

// Resolve returns the credential for the company and platform. Cache misses
// fall through to the store and the result is cached for the next caller;
// concurrent misses share one store read, bounded by the winning caller's
// context.
func (p *credentialProvider) Resolve(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
	credential, found := p.cache.Get(companyID, platform)
	if found {
		return credential, nil
	}

	value, err, _ := p.sf.Do(cacheKey(companyID, platform), func() (interface{}, error) {
		// a caller that lost the race to an already finished flight still gets
		// the freshly cached credential
		cached, cachedFound := p.cache.Get(companyID, platform)
		if cachedFound {
			return cached, nil
		}

		fetched, errGet := p.store.GetCredential(ctx, companyID, platform)
		if errGet != nil {
			return nil, errGet
		}

		p.cache.Put(companyID, platform, fetched)

		return fetched, nil
	})
	if err != nil {
		return common.Credential{}, fmt.Errorf("%w for company %s, platform %s", err, companyID, platform)
	}

	return value.(common.Credential), nil
}

// Invalidate drops the cached credentials of a company so the next resolve
// re-reads the store. Called whenever an integration is edited or deleted.
func (p *credentialProvider) Invalidate(companyID string, platforms ...common.Platform) {
	p.cache.Invalidate(companyID, platforms...)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *credentialProvider) IsInterfaceNil() bool {
	return p == nil
}
