package testsCommon

import (
	"context"

	"github.com/iulianpascalau/social-metrics/common"
)

// PlatformClientStub -
type PlatformClientStub struct {
	PlatformHandler         func() common.Platform
	FetchMetricGroupHandler func(ctx context.Context, credential common.Credential, resourceID string, groupName string, timeRange common.TimeRange) (*common.NormalizedResponse, error)
}

// Platform -
func (stub *PlatformClientStub) Platform() common.Platform {
	if stub.PlatformHandler != nil {
		return stub.PlatformHandler()
	}

	return common.PlatformFacebook
}

// FetchMetricGroup -
func (stub *PlatformClientStub) FetchMetricGroup(
	ctx context.Context,
	credential common.Credential,
	resourceID string,
	groupName string,
	timeRange common.TimeRange,
) (*common.NormalizedResponse, error) {
	if stub.FetchMetricGroupHandler != nil {
		return stub.FetchMetricGroupHandler(ctx, credential, resourceID, groupName, timeRange)
	}

	return &common.NormalizedResponse{
		ResourceID: resourceID,
		Metrics:    make(map[string]map[string]float64),
	}, nil
}

// IsInterfaceNil -
func (stub *PlatformClientStub) IsInterfaceNil() bool {
	return stub == nil
}
