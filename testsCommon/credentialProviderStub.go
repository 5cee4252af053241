package testsCommon

import (
	"context"

	"github.com/iulianpascalau/social-metrics/common"
)

// CredentialProviderStub -
type CredentialProviderStub struct {
	ResolveHandler func(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error)
}

// Resolve -
func (stub *CredentialProviderStub) Resolve(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error) {
	if stub.ResolveHandler != nil {
		return stub.ResolveHandler(ctx, companyID, platform)
	}

	return common.Credential{
		CompanyID:   companyID,
		Platform:    platform,
		AccessToken: "stub-token",
	}, nil
}

// IsInterfaceNil -
func (stub *CredentialProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
