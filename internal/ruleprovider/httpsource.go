package ruleprovider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/omarluq/mapping-engine/internal/mapping"
)

// HTTPSourceConfig configures an HTTPSource. It mirrors
// engineconfig.RuleProviderConfig's relevant fields so callers can wire one
// straight from the loaded engine configuration.
type HTTPSourceConfig struct {
	Endpoint     string
	PollInterval time.Duration
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// HTTPSource polls a remote rule registry over HTTP, oauth2 client-credentials
// secured, circuit broken, and rate limited, and keeps bound RuleProviders in
// sync with the registry's current document set. Grounded on
// providers.VertexProvider's oauth2.TokenSource pattern and
// health.CircuitBreaker's gobreaker wrapping.
type HTTPSource struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	limiter  *rate.Limiter
	service  *mapping.Service
	interval time.Duration

	mu     sync.Mutex
	active map[string]*RuleProvider // registry id -> currently bound provider
}

// NewHTTPSource builds an HTTPSource from cfg, wiring an oauth2
// client-credentials token source into the HTTP client's transport.
func NewHTTPSource(cfg HTTPSourceConfig, service *mapping.Service) (*HTTPSource, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ruleprovider: endpoint is required")
	}

	var client *http.Client
	if cfg.TokenURL != "" {
		ccCfg := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = ccCfg.Client(context.Background())
	} else {
		client = http.DefaultClient
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	breakerSettings := gobreaker.Settings{
		Name:        "ruleprovider-http",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("ruleprovider: http source circuit state changed")
		},
	}

	return &HTTPSource{
		endpoint: cfg.Endpoint,
		client:   client,
		breaker:  gobreaker.NewCircuitBreaker[[]byte](breakerSettings),
		limiter:  rate.NewLimiter(rate.Every(interval/2), 1),
		service:  service,
		interval: interval,
		active:   make(map[string]*RuleProvider),
	}, nil
}

// Run polls the registry on interval until ctx is canceled, returning its
// (context) error when it stops.
func (s *HTTPSource) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.Poll(ctx); err != nil {
		log.Error().Err(err).Msg("ruleprovider: initial http poll failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				log.Error().Err(err).Msg("ruleprovider: http poll failed")
			}
		}
	}
}

// Poll fetches the registry's current document set once, reconciling bound
// providers against it: new ids are bound, ids already bound are rebound to
// a freshly built provider on every poll (whether or not the document
// changed), and ids no longer present are unbound.
func (s *HTTPSource) Poll(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return fmt.Errorf("ruleprovider: fetch failed: %w", err)
	}

	seen := make(map[string]struct{})
	var firstErr error

	gjson.ParseBytes(body).ForEach(func(_, doc gjson.Result) bool {
		id := doc.Get("id").String()
		if id == "" {
			return true
		}
		seen[id] = struct{}{}

		rule := &Rule{
			MappingName: doc.Get("mapping_name").String(),
			Rank:        int32(doc.Get("rank").Int()),
			Partial:     doc.Get("partial").Bool(),
			Properties:  map[string]string{},
			Dependent:   map[string][]string{},
		}
		doc.Get("properties").ForEach(func(k, v gjson.Result) bool {
			rule.Properties[k.String()] = v.String()
			return true
		})
		doc.Get("dependent_configs").ForEach(func(typ, attrs gjson.Result) bool {
			for _, a := range attrs.Array() {
				rule.Dependent[typ.String()] = append(rule.Dependent[typ.String()], a.String())
			}
			return true
		})

		if rule.MappingName == "" {
			return true
		}
		if err := s.reconcile(id, rule); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})

	s.pruneUnseen(seen)
	return firstErr
}

func (s *HTTPSource) reconcile(id string, rule *Rule) error {
	newProvider := NewRuleProvider(id, rule)

	s.mu.Lock()
	old, existed := s.active[id]
	s.active[id] = newProvider
	s.mu.Unlock()

	if existed {
		return s.service.Rebind(old, newProvider)
	}
	return s.service.Bind(newProvider)
}

func (s *HTTPSource) pruneUnseen(seen map[string]struct{}) {
	s.mu.Lock()
	stale := make([]string, 0)
	for id := range s.active {
		if _, ok := seen[id]; !ok {
			stale = append(stale, id)
		}
	}
	var providers []*RuleProvider
	for _, id := range stale {
		providers = append(providers, s.active[id])
		delete(s.active, id)
	}
	s.mu.Unlock()

	for _, p := range providers {
		if _, err := s.service.Unbind(p); err != nil {
			log.Error().Err(err).Str("provider", p.Name()).Msg("ruleprovider: failed to unbind stale http provider")
		}
	}
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}
