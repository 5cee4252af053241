package testsCommon

import (
	"context"

	"github.com/iulianpascalau/social-metrics/common"
)

// IntegrationsManagerStub -
type IntegrationsManagerStub struct {
	UpsertIntegrationHandler func(ctx context.Context, credential common.Credential) error
	DeleteIntegrationHandler func(ctx context.Context, companyID string, platform common.Platform) error
}

// UpsertIntegration -
func (stub *IntegrationsManagerStub) UpsertIntegration(ctx context.Context, credential common.Credential) error {
	if stub.UpsertIntegrationHandler != nil {
		return stub.UpsertIntegrationHandler(ctx, credential)
	}

	return nil
}

// DeleteIntegration -
func (stub *IntegrationsManagerStub) DeleteIntegration(ctx context.Context, companyID string, platform common.Platform) error {
	if stub.DeleteIntegrationHandler != nil {
		return stub.DeleteIntegrationHandler(ctx, companyID, platform)
	}

	return nil
}

// IsInterfaceNil -
func (stub *IntegrationsManagerStub) IsInterfaceNil() bool {
	return stub == nil
}
