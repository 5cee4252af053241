package warmer

import (
	"context"
	"errors"
	"time"

	"github.com/iulianpascalau/social-metrics/common"
	"github.com/iulianpascalau/social-metrics/config"
	"github.com/iulianpascalau/social-metrics/orchestrator"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("warmer")

const sessionWaitTimeout = 60 * time.Second

// cacheWarmer periodically re-fetches the configured resources through the
// orchestrator so the response cache has something fresh to serve when an
// upstream degrades
type cacheWarmer struct {
	entries []config.WarmupConfig
	orch    Orchestrator
}

// NewCacheWarmer creates a new cache warmer
func NewCacheWarmer(entries []config.WarmupConfig, orch Orchestrator) (*cacheWarmer, error) {
	if check.IfNil(orch) {
		return nil, errors.New("nil orchestrator")
	}

	return &cacheWarmer{
		entries: entries,
		orch:    orch,
	}, nil
}

// Process starts one warm-up session per configured resource and waits for
// all of them to finish. Failures are logged and skipped, the next cron tick
// will try again.
func (w *cacheWarmer) Process(ctx context.Context) {
	log.Debug("waking up to warm the response cache", "resources", len(w.entries))

	for _, entry := range w.entries {
		session, err := w.orch.StartSession(orchestrator.Request{
			CompanyID:  entry.CompanyID,
			Platform:   common.Platform(entry.Platform),
			ResourceID: entry.ResourceID,
			Groups:     entry.Groups,
		})
		if err != nil {
			log.Warn("failed to start warm-up session",
				"company", entry.CompanyID, "platform", entry.Platform,
				"resource", entry.ResourceID, "error", err)
			continue
		}

		select {
		case <-session.Done():
		case <-ctx.Done():
			return
		case <-time.After(sessionWaitTimeout):
			log.Warn("warm-up session did not finish in time",
				"company", entry.CompanyID, "platform", entry.Platform,
				"resource", entry.ResourceID)
		}
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (w *cacheWarmer) IsInterfaceNil() bool {
	return w == nil
}
