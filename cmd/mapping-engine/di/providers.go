package di

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/omarluq/mapping-engine/internal/adminapi"
	"github.com/omarluq/mapping-engine/internal/configsource/awsssm"
	"github.com/omarluq/mapping-engine/internal/configstore"
	"github.com/omarluq/mapping-engine/internal/engineconfig"
	"github.com/omarluq/mapping-engine/internal/enginehealth"
	"github.com/omarluq/mapping-engine/internal/mapping"
	"github.com/omarluq/mapping-engine/internal/ruleprovider"
)

// Service wrapper types for DI registration, following the teacher's
// pattern of distinguishing otherwise-identical pointer types.

// ConfigService wraps the loaded engine configuration with hot-reload
// support via atomic.Pointer, mirroring the teacher's ConfigService.
//
//nolint:govet // field order optimized for readability over memory alignment
type ConfigService struct {
	config  atomic.Pointer[engineconfig.Config]
	watcher *engineconfig.Watcher
	path    string

	// Config is the initial config pointer, kept for callers that only
	// need the value at startup.
	Config *engineconfig.Config
}

// Get returns the current configuration via atomic load.
func (c *ConfigService) Get() *engineconfig.Config {
	return c.config.Load()
}

// StartWatching begins watching the config file for changes in the
// background. Call after the container is fully initialized.
func (c *ConfigService) StartWatching(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	c.watcher.OnReload(func(newCfg *engineconfig.Config) error {
		c.config.Store(newCfg)
		log.Info().Str("path", c.path).Msg("engine config hot-reloaded")
		return nil
	})

	go func() {
		if err := c.watcher.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("config watcher error")
		}
	}()

	log.Info().Str("path", c.path).Msg("config file watcher started")
}

// Shutdown implements do.Shutdowner.
func (c *ConfigService) Shutdown() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// StoreService wraps the Abstract Config Store.
type StoreService struct {
	Store *configstore.Store
}

// DispatcherService wraps the Event Dispatcher.
type DispatcherService struct {
	Dispatcher *mapping.Dispatcher
}

// Shutdown implements do.Shutdowner, draining dispatcher lanes.
func (d *DispatcherService) Shutdown() error {
	if d.Dispatcher != nil {
		d.Dispatcher.Shutdown()
	}
	return nil
}

// MappingServiceHandle wraps the Mapping Service.
type MappingServiceHandle struct {
	Service *mapping.Service
}

// Shutdown implements do.Shutdowner.
func (m *MappingServiceHandle) Shutdown() error {
	if m.Service != nil {
		m.Service.Shutdown()
	}
	return nil
}

// EngineHealthService wraps the operational health tracker.
type EngineHealthService struct {
	Tracker *enginehealth.Tracker
}

// AdminServerService wraps the read-only admin HTTP server.
type AdminServerService struct {
	Server *adminapi.Server
}

// Shutdown implements do.Shutdowner.
func (a *AdminServerService) Shutdown() error {
	if a.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.Server.Shutdown(ctx)
}

// RuleProviderService wraps the optional file- and HTTP-backed rule
// sources feeding the Mapping Service's Provider Registry.
type RuleProviderService struct {
	FileSource *ruleprovider.FileSource
	HTTPSource *ruleprovider.HTTPSource
	cancel     context.CancelFunc
}

// Shutdown implements do.Shutdowner.
func (r *RuleProviderService) Shutdown() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.FileSource != nil {
		return r.FileSource.Close()
	}
	return nil
}

// AWSSSMService wraps the optional SSM Parameter Store rehydration source.
type AWSSSMService struct {
	Source *awsssm.Source
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdowner.
func (a *AWSSSMService) Shutdown() error {
	if a.cancel != nil {
		a.cancel()
	}
	return nil
}

// RegisterSingletons registers all service providers as singletons, in
// dependency order:
//  1. Config (no dependencies)
//  2. Store (no dependencies)
//  3. Dispatcher (depends on Config, for worker count)
//  4. MappingService (depends on Store, Dispatcher)
//  5. EngineHealth (depends on Dispatcher, MappingService)
//  6. RuleProvider (depends on Config, MappingService) - optional
//  7. AWSSSM (depends on Config, Store) - optional
//  8. AdminServer (depends on Config, MappingService, EngineHealth)
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewStore)
	do.Provide(i, NewDispatcher)
	do.Provide(i, NewMappingService)
	do.Provide(i, NewEngineHealth)
	do.Provide(i, NewRuleProvider)
	do.Provide(i, NewAWSSSM)
	do.Provide(i, NewAdminServer)
}

// NewConfig loads the engine configuration and creates a watcher. The
// watcher is created but not started - call StartWatching after container
// init.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)

	cfg, err := engineconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load engine config from %s: %w", path, err)
	}

	svc := &ConfigService{Config: cfg, path: path}
	svc.config.Store(cfg)

	watcher, err := engineconfig.NewWatcher(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watcher creation failed, hot-reload disabled")
	} else {
		svc.watcher = watcher
	}

	return svc, nil
}

// NewStore creates the Abstract Config Store.
func NewStore(_ do.Injector) (*StoreService, error) {
	return &StoreService{Store: configstore.New()}, nil
}

// NewDispatcher creates the Event Dispatcher sized by
// dispatcher.workers (spec §4.5).
func NewDispatcher(i do.Injector) (*DispatcherService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	d := mapping.NewDispatcher(cfgSvc.Config.Dispatcher.EffectiveWorkers())
	return &DispatcherService{Dispatcher: d}, nil
}

// NewMappingService creates the Mapping Service and subscribes it to the
// Abstract Config Store's change feed.
func NewMappingService(i do.Injector) (*MappingServiceHandle, error) {
	storeSvc := do.MustInvoke[*StoreService](i)
	dispatcherSvc := do.MustInvoke[*DispatcherService](i)

	svc := mapping.NewService(storeSvc.Store, dispatcherSvc.Dispatcher)
	storeSvc.Store.Subscribe(svc)

	return &MappingServiceHandle{Service: svc}, nil
}

// NewEngineHealth creates the health tracker and subscribes it to the
// Mapping Service's change feed.
func NewEngineHealth(i do.Injector) (*EngineHealthService, error) {
	dispatcherSvc := do.MustInvoke[*DispatcherService](i)
	mappingSvc := do.MustInvoke[*MappingServiceHandle](i)

	tracker := enginehealth.NewTracker(dispatcherSvc.Dispatcher)
	mappingSvc.Service.Subscribe(tracker)

	return &EngineHealthService{Tracker: tracker}, nil
}

// NewRuleProvider creates the file- and HTTP-backed rule sources when
// configured, and starts them in the background. Returns an empty service
// (no sources) when neither is configured - this is not an error.
func NewRuleProvider(i do.Injector) (*RuleProviderService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	mappingSvc := do.MustInvoke[*MappingServiceHandle](i)
	cfg := cfgSvc.Config.RuleProvider

	svc := &RuleProviderService{}
	ctx, cancel := context.WithCancel(context.Background())
	svc.cancel = cancel

	if cfg.RulesDir != "" {
		fileSource, err := ruleprovider.NewFileSource(cfg.RulesDir, mappingSvc.Service)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create rule file source: %w", err)
		}
		if err := fileSource.LoadAll(); err != nil {
			log.Warn().Err(err).Str("dir", cfg.RulesDir).Msg("rule file source: initial load had errors")
		}
		go func() {
			if err := fileSource.Watch(ctx); err != nil {
				log.Error().Err(err).Msg("rule file source watch error")
			}
		}()
		svc.FileSource = fileSource
	}

	if cfg.Enabled() {
		httpSource, err := ruleprovider.NewHTTPSource(ruleprovider.HTTPSourceConfig{
			Endpoint:     cfg.HTTPEndpoint,
			PollInterval: cfg.PollInterval,
			ClientID:     cfg.OAuth2.ClientID,
			ClientSecret: cfg.OAuth2.ClientSecret,
			TokenURL:     cfg.OAuth2.TokenURL,
			Scopes:       cfg.OAuth2.Scopes,
		}, mappingSvc.Service)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create rule http source: %w", err)
		}
		go func() {
			if err := httpSource.Run(ctx); err != nil {
				log.Error().Err(err).Msg("rule http source run error")
			}
		}()
		svc.HTTPSource = httpSource
	}

	return svc, nil
}

// NewAWSSSM creates the AWS SSM rehydration source when configured, and
// starts it in the background.
func NewAWSSSM(i do.Injector) (*AWSSSMService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	storeSvc := do.MustInvoke[*StoreService](i)
	cfg := cfgSvc.Config.AWSSSM

	if !cfg.Enabled() {
		return &AWSSSMService{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	source, err := awsssm.NewSource(ctx, awsssm.Config{
		Region:       cfg.Region,
		PathPrefix:   cfg.PathPrefix,
		ConfigType:   awsssmConfigType(cfg),
		PollInterval: cfg.PollInterval,
		CacheTTL:     cfg.CacheTTL,
	}, storeSvc.Store)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create aws ssm source: %w", err)
	}

	go func() {
		if err := source.Run(ctx); err != nil {
			log.Error().Err(err).Msg("aws ssm source run error")
		}
	}()

	return &AWSSSMService{Source: source, cancel: cancel}, nil
}

// awsssmConfigType derives the abstract config type the SSM source
// publishes entities under from its path prefix's final segment, e.g.
// "/mapping-engine/LdapConfig/" -> "LdapConfig".
func awsssmConfigType(cfg engineconfig.AWSSSMConfig) string {
	prefix := cfg.PathPrefix
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	last := prefix
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] == '/' {
			last = prefix[i+1:]
			break
		}
	}
	if last == "" {
		return "SSMConfig"
	}
	return last
}

// NewAdminServer creates the read-only admin HTTP server.
func NewAdminServer(i do.Injector) (*AdminServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	mappingSvc := do.MustInvoke[*MappingServiceHandle](i)
	healthSvc := do.MustInvoke[*EngineHealthService](i)

	server := adminapi.NewServer(cfgSvc.Config.Server.ListenAddr, mappingSvc.Service, healthSvc.Tracker)

	return &AdminServerService{Server: server}, nil
}
