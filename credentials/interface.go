package credentials

import (
	"context"

	"github.com/iulianpascalau/social-metrics/common"
)

// Store defines the persisted source of truth for per-company platform credentials
type Store interface {
	// GetCredential returns the credential of a connected integration or ErrNotFound
	GetCredential(ctx context.Context, companyID string, platform common.Platform) (common.Credential, error)

	IsInterfaceNil() bool
}
