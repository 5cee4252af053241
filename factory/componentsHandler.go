package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iulianpascalau/social-metrics/api"
	"github.com/iulianpascalau/social-metrics/clients"
	"github.com/iulianpascalau/social-metrics/common"
	"github.com/iulianpascalau/social-metrics/config"
	"github.com/iulianpascalau/social-metrics/credentials"
	"github.com/iulianpascalau/social-metrics/orchestrator"
	"github.com/iulianpascalau/social-metrics/storage"
	"github.com/iulianpascalau/social-metrics/warmer"
)

const defaultCredentialTTL = 5 * time.Minute

type closer interface {
	Close() error
}

type componentsHandler struct {
	server       Server
	orchestrator api.Orchestrator
	warmer       *warmerComponents
	closers      []closer

	mutCancel sync.Mutex
	cancel    func()
}

type warmerComponents struct {
	processor func(ctx context.Context)
	interval  time.Duration
}

// NewComponentsHandler creates and wires all service components
func NewComponentsHandler(
	credentialsDBPath string,
	responsesDBPath string,
	serviceKeyApi string,
	authUsername string,
	authPassword string,
	cfg config.Config,
) (*componentsHandler, error) {
	credentialStore, err := credentials.NewSQLiteStore(credentialsDBPath)
	if err != nil {
		return nil, err
	}

	responseCache, err := storage.NewSQLiteResponseCache(responsesDBPath)
	if err != nil {
		_ = credentialStore.Close()
		return nil, err
	}

	handler := &componentsHandler{
		closers: []closer{credentialStore, responseCache},
	}

	ttl := defaultCredentialTTL
	if cfg.CredentialTTLInSeconds > 0 {
		ttl = time.Duration(cfg.CredentialTTLInSeconds) * time.Second
	}

	credentialCache, err := credentials.NewCredentialCache(ttl)
	if err != nil {
		handler.closeAll()
		return nil, err
	}

	credentialProvider, err := credentials.NewCredentialProvider(credentialCache, credentialStore)
	if err != nil {
		handler.closeAll()
		return nil, err
	}

	integrationsManager, err := credentials.NewIntegrationsManager(credentialStore, credentialCache)
	if err != nil {
		handler.closeAll()
		return nil, err
	}

	fetchTimeout := time.Duration(cfg.FetchTimeoutInSeconds) * time.Second
	platformClients, err := createPlatformClients(cfg.Platforms, fetchTimeout)
	if err != nil {
		handler.closeAll()
		return nil, err
	}

	orch, err := orchestrator.NewFetchOrchestrator(orchestrator.ArgsFetchOrchestrator{
		Clients:            platformClients,
		CredentialProvider: credentialProvider,
		ResponseCache:      responseCache,
		FetchTimeout:       fetchTimeout,
	})
	if err != nil {
		handler.closeAll()
		return nil, err
	}
	handler.orchestrator = orch

	serverArgs := api.ArgsWebServer{
		ServiceKeyApi:  serviceKeyApi,
		AuthUsername:   authUsername,
		AuthPassword:   authPassword,
		ListenAddress:  cfg.ListenAddress,
		Orchestrator:   orch,
		Integrations:   integrationsManager,
		GeneralHandler: api.CORSMiddleware,
	}

	server, err := api.NewServer(serverArgs)
	if err != nil {
		handler.closeAll()
		return nil, err
	}
	handler.server = server

	if len(cfg.Warmup) > 0 && cfg.WarmupIntervalInSeconds > 0 {
		cacheWarmer, errWarmer := warmer.NewCacheWarmer(cfg.Warmup, orch)
		if errWarmer != nil {
			handler.closeAll()
			return nil, errWarmer
		}

		handler.warmer = &warmerComponents{
			processor: cacheWarmer.Process,
			interval:  time.Duration(cfg.WarmupIntervalInSeconds) * time.Second,
		}
	}

	return handler, nil
}

func createPlatformClients(platforms []config.PlatformConfig, timeout time.Duration) (map[common.Platform]orchestrator.PlatformClient, error) {
	result := make(map[common.Platform]orchestrator.PlatformClient, len(platforms))
	for _, platformCfg := range platforms {
		platform := common.Platform(platformCfg.Name)
		switch platform {
		case common.PlatformFacebook:
			result[platform] = clients.NewFacebookClient(platformCfg.BaseURL, timeout)
		case common.PlatformInstagram:
			result[platform] = clients.NewInstagramClient(platformCfg.BaseURL, timeout)
		case common.PlatformLinkedin:
			result[platform] = clients.NewLinkedinClient(platformCfg.BaseURL, timeout)
		case common.PlatformX:
			result[platform] = clients.NewXClient(platformCfg.BaseURL, timeout)
		default:
			return nil, fmt.Errorf("unknown platform in config: %s", platformCfg.Name)
		}
	}

	return result, nil
}

// GetServer returns the web server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// GetOrchestrator returns the fetch orchestrator component
func (ch *componentsHandler) GetOrchestrator() api.Orchestrator {
	return ch.orchestrator
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.server.Start()

	if ch.warmer == nil {
		return
	}

	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())

	common.CronJobStarter(ctx, ch.warmer.processor, ch.warmer.interval)
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	if ch.cancel != nil {
		ch.cancel()
		ch.cancel = nil
	}
	ch.mutCancel.Unlock()

	if ch.server != nil {
		_ = ch.server.Close()
	}
	ch.closeAll()
}

func (ch *componentsHandler) closeAll() {
	for _, component := range ch.closers {
		_ = component.Close()
	}
	ch.closers = nil
}
