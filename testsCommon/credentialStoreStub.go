package testsCommon

import (
	"context"

	"github.com/iulianpascalau/social-metrics/common"
)

// CredentialStoreStub -
type CredentialStoreStub struct {
	GetCredentialHandler     func(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error)
	UpsertIntegrationHandler func(ctx context.Context, credential common.Credential) error
	DeleteIntegrationHandler func(ctx context.Context, companyID string, platform common.Platform) error
}

// GetCredential -
func (stub *CredentialStoreStub) GetCredential(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
	if stub.GetCredentialHandler != nil {
		return stub.GetCredentialHandler(ctx, companyID, platform)
	}

	return common.Credential{
		CompanyID:   companyID,
		Platform:    platform,
		AccessToken: "stub-token",
	}, nil
}

// UpsertIntegration -
func (stub *CredentialStoreStub) UpsertIntegration(ctx context.Context, credential common.Credential) error {
	if stub.UpsertIntegrationHandler != nil {
		return stub.UpsertIntegrationHandler(ctx, credential)
	}

	return nil
}

// DeleteIntegration -
func (stub *CredentialStoreStub) DeleteIntegration(ctx context.Context, companyID string, platform common.Platform) error {
	if stub.DeleteIntegrationHandler != nil {
		return stub.DeleteIntegrationHandler(ctx, companyID, platform)
	}

	return nil
}

// IsInterfaceNil -
func (stub *CredentialStoreStub) IsInterfaceNil() bool {
	return stub == nil
}
