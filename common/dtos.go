package common

// Platform identifies one external social-media API provider
type Platform string

// The platforms this service knows how to talk to
const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedin  Platform = "linkedin"
	PlatformX         Platform = "x"
)

// KnownPlatforms holds all supported platform identifiers
var KnownPlatforms = []Platform{PlatformFacebook, PlatformInstagram, PlatformLinkedin, PlatformX}

// IsKnownPlatform returns true if the provided value is a supported platform identifier
func IsKnownPlatform(p Platform) bool {
	for _, known := range KnownPlatforms {
		if p == known {
			return true
		}
	}

	return false
}

// Credential authorizes calls to one platform on behalf of one company.
// ExpiresAt is the upstream token's own expiry (unix seconds, 0 if the
// platform does not expire tokens) and is advisory only for this service.
type Credential struct {
	CompanyID    string
	Platform     Platform
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// TimeRange bounds a metrics query, in unix seconds. A zero value means
// "whatever the platform considers current".
type TimeRange struct {
	Since int64
	Until int64
}

// NormalizedResponse is the common shape every platform's idiosyncratic
// response is converted to at the client boundary: metric name -> period
// (day/week/days_28/lifetime) -> latest value, plus identity fields.
type NormalizedResponse struct {
	ResourceID   string                        `json:"resourceId"`
	ResourceName string                        `json:"resourceName,omitempty"`
	Metrics      map[string]map[string]float64 `json:"metrics"`
}

// FetchStatus records whether the last upstream fetch for a cache entry succeeded
type FetchStatus string

// The possible fetch statuses of a cache entry
const (
	FetchStatusSuccess FetchStatus = "SUCCESS"
	FetchStatusError   FetchStatus = "ERROR"
)

// CacheKey uniquely identifies one cached response
type CacheKey struct {
	CompanyID  string
	Platform   Platform
	ResourceID string
}

// String returns the canonical string form of the key
func (k CacheKey) String() string {
	return k.CompanyID + ":" + string(k.Platform) + ":" + k.ResourceID
}

// CacheEntry is the last known good payload for one cache key, keyed inside
// by metric group name so a single group can be substituted on fallback
type CacheEntry struct {
	Key           CacheKey
	Payload       map[string]NormalizedResponse
	FetchStatus   FetchStatus
	LastFetchedAt int64
}
