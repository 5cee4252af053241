package warmer

import "github.com/iulianpascalau/social-metrics/orchestrator"

// Orchestrator defines the progressive fetch operations used by the warmer
type Orchestrator interface {
	StartSession(request orchestrator.Request) (orchestrator.Session, error)
	IsInterfaceNil() bool
}
