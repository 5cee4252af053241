package testsCommon

import (
	"context"
	"errors"

	"github.com/iulianpascalau/social-metrics/common"
)

// ResponseCacheStub -
type ResponseCacheStub struct {
	GetDataHandler   func(ctx context.Context, companyID string, platform common.Platform, resourceID string) (common.CacheEntry, error)
	StoreDataHandler func(ctx context.Context, companyID string, platform common.Platform, resourceID string, payload map[string]common.NormalizedResponse, fetchStatus common.FetchStatus) error
}

// GetData -
func (stub *ResponseCacheStub) GetData(ctx context.Context, companyID string, platform common.Platform, resourceID string) (common.CacheEntry, error) {
	if stub.GetDataHandler != nil {
		return stub.GetDataHandler(ctx, companyID, platform, resourceID)
	}

	return common.CacheEntry{}, errors.New("no cached response for key")
}

// StoreData -
func (stub *ResponseCacheStub) StoreData(
	ctx context.Context,
	companyID string,
	platform common.Platform,
	resourceID string,
	payload map[string]common.NormalizedResponse,
	fetchStatus common.FetchStatus,
) error {
	if stub.StoreDataHandler != nil {
		return stub.StoreDataHandler(ctx, companyID, platform, resourceID, payload, fetchStatus)
	}

	return nil
}

// IsInterfaceNil -
func (stub *ResponseCacheStub) IsInterfaceNil() bool {
	return stub == nil
}
