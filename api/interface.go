package api

import (
	"context"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/iulianpascalau/social-metrics/orchestrator"
)

// Orchestrator defines the progressive fetch operations exposed to the HTTP layer
type Orchestrator interface {
	// StartSession starts a progressive fetch for the request or joins the
	// in-flight session for the same (company, platform, resource) key
	StartSession(request orchestrator.Request) (orchestrator.Session, error)

	IsInterfaceNil() bool
}

// IntegrationsManager defines the write operations on platform integrations.
// Implementations must invalidate the credential cache on every change.
type IntegrationsManager interface {
	UpsertIntegration(ctx context.Context, credential common.Credential) error
	DeleteIntegration(ctx context.Context, companyID string, platform common.Platform) error

	IsInterfaceNil() bool
}
