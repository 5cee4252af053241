package credentials

import (
	"context"
	"errors"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
)

// ManagedStore extends the read-only store with integration write operations
type ManagedStore interface {
	Store
	UpsertIntegration(ctx context.Context, credential common.Credential) error
	DeleteIntegration(ctx context.Context, companyID string, platform common.Platform) error
}

// integrationsManager applies integration changes to the store and drops the
// matching cached credentials so the next resolve re-reads the store
type integrationsManager struct {
	store ManagedStore
	cache Cache
}

// NewIntegrationsManager creates a new integrations manager
func NewIntegrationsManager(store ManagedStore, cache Cache) (*integrationsManager, error) {
	if check.IfNil(store) {
		return nil, errors.New("nil credential store")
	}
	if check.IfNil(cache) {
		return nil, errors.New("nil credential cache")
	}

	return &integrationsManager{
		store: store,
		cache: cache,
	}, nil
}

// UpsertIntegration writes the credential and invalidates the cached one
func (m *integrationsManager) UpsertIntegration(ctx context.Context, credential common.Credential) error {
	err := m.store.UpsertIntegration(ctx, credential)
	if err != nil {
		return err
	}

	m.cache.Invalidate(credential.CompanyID, credential.Platform)

	return nil
}

// DeleteIntegration removes the integration and invalidates the cached credential
func (m *integrationsManager) DeleteIntegration(ctx context.Context, companyID string, platform common.Platform) error {
	err := m.store.DeleteIntegration(ctx, companyID, platform)
	if err != nil {
		return err
	}

	m.cache.Invalidate(companyID, platform)

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (m *integrationsManager) IsInterfaceNil() bool {
	return m == nil
}
