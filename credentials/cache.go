package credentials

import (
	"sync"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
)

type cachedCredential struct {
	credential common.Credential
	cachedAt   time.Time
}

// credentialCache is a process-local TTL-bounded cache in front of the
// credential store. A cached credential is never returned past its TTL,
// independent of the upstream token's own expiry.
type credentialCache struct {
	ttl     time.Duration
	mut     sync.RWMutex
	entries map[string]cachedCredential
}

// NewCredentialCache creates a new in-memory credential cache
func NewCredentialCache(ttl time.Duration) (*credentialCache, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	return &credentialCache{
		ttl:     ttl,
		entries: make(map[string]cachedCredential),
	}, nil
}

func cacheKey(companyID string, platform common.Platform) string {
	return companyID + ":" + string(platform)
}

// Get returns the cached credential for the company and platform. The second
// return value is false on a miss or when the entry outlived the TTL.
func (cc *credentialCache) Get(companyID string, platform common.Platform) (common.Credential, bool) {
	cc.mut.RLock()
	entry, found := cc.entries[cacheKey(companyID, platform)]
	cc.mut.RUnlock()

	if !found {
		return common.Credential{}, false
	}
	if time.Since(entry.cachedAt) >= cc.ttl {
		return common.Credential{}, false
	}

	return entry.credential, true
}

// Put stores the credential, resetting its TTL window. Concurrent puts for the
// same key are allowed, last write wins.
func (cc *credentialCache) Put(companyID string, platform common.Platform, credential common.Credential) {
	cc.mut.Lock()
	cc.entries[cacheKey(companyID, platform)] = cachedCredential{
		credential: credential,
		cachedAt:   time.Now(),
	}
	cc.mut.Unlock()
}

// Invalidate removes the cached credentials of a company. With no platforms
// provided it clears every platform entry for that company, otherwise only
// the provided ones.
func (cc *credentialCache) Invalidate(companyID string, platforms ...common.Platform) {
	cc.mut.Lock()
	defer cc.mut.Unlock()

	if len(platforms) == 0 {
		platforms = common.KnownPlatforms
	}

	for _, platform := range platforms {
		delete(cc.entries, cacheKey(companyID, platform))
	}
}

// Len returns the number of cached entries, expired ones included
func (cc *credentialCache) Len() int {
	cc.mut.RLock()
	defer cc.mut.RUnlock()

	return len(cc.entries)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (cc *credentialCache) IsInterfaceNil() bool {
	return cc == nil
}
