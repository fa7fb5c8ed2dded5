package awsssm

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/omarluq/mapping-engine/internal/configdomain"
	"github.com/omarluq/mapping-engine/internal/configstore"
)

const cacheKey = "ssm-parameters"

// Source polls AWS SSM Parameter Store under Config.PathPrefix and syncs
// the resulting entities into a configstore.Store. A Ristretto cache
// absorbs poll ticks that land inside CacheTTL of the previous successful
// fetch, and a circuit breaker degrades gracefully when SSM is unreachable,
// same roles cache.ristrettoCache and health.CircuitBreaker play in the
// teacher, scoped here to one rehydration source.
type Source struct {
	client  *ssm.Client
	cache   *ristretto.Cache[string, []byte]
	breaker *gobreaker.CircuitBreaker[[]byte]
	store   *configstore.Store
	cfg     Config
}

// NewSource builds a Source, loading AWS credentials the default way
// (environment, shared config, container/instance role) scoped to
// cfg.Region.
func NewSource(ctx context.Context, cfg Config, store *configstore.Store) (*Source, error) {
	if cfg.PathPrefix == "" {
		return nil, fmt.Errorf("awsssm: path prefix is required")
	}
	if cfg.ConfigType == "" {
		return nil, fmt.Errorf("awsssm: config type is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("awsssm: failed to load AWS config: %w", err)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e4,
		MaxCost:     1 << 24,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("awsssm: failed to create cache: %w", err)
	}

	breakerSettings := gobreaker.Settings{
		Name:        "awsssm",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("awsssm: circuit state changed")
		},
	}

	return &Source{
		client:  ssm.NewFromConfig(awsCfg),
		cache:   cache,
		breaker: gobreaker.NewCircuitBreaker[[]byte](breakerSettings),
		store:   store,
		cfg:     cfg,
	}, nil
}

// Run polls on cfg.PollInterval until ctx is canceled.
func (s *Source) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.effectivePollInterval())
	defer ticker.Stop()

	if err := s.Poll(ctx); err != nil {
		log.Error().Err(err).Msg("awsssm: initial poll failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				log.Error().Err(err).Msg("awsssm: poll failed")
			}
		}
	}
}

// Poll fetches the current parameter subtree (through the cache and
// circuit breaker) and syncs the resulting entities into the store.
func (s *Source) Poll(ctx context.Context) error {
	if cached, found := s.cache.Get(cacheKey); found {
		s.syncFromRaw(cached)
		return nil
	}

	raw, err := s.breaker.Execute(func() ([]byte, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		return fmt.Errorf("awsssm: fetch failed: %w", err)
	}

	s.cache.SetWithTTL(cacheKey, raw, int64(len(raw)), s.cfg.effectiveCacheTTL())
	s.syncFromRaw(raw)
	return nil
}

func (s *Source) syncFromRaw(raw []byte) {
	s.store.SyncGroup(configdomain.ConfigType(s.cfg.ConfigType), s.parseEntities(raw))
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	raw := []byte("[]")
	paginator := ssm.NewGetParametersByPathPaginator(s.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(s.cfg.PathPrefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range page.Parameters {
			var setErr error
			raw, setErr = sjson.SetBytes(raw, "-1.name", aws.ToString(p.Name))
			if setErr != nil {
				return nil, setErr
			}
			raw, setErr = sjson.SetBytes(raw, "-1.value", aws.ToString(p.Value))
			if setErr != nil {
				return nil, setErr
			}
		}
	}
	return raw, nil
}

// parseEntities groups flat parameter records by the instance segment
// immediately under PathPrefix, treating the next segment as the attribute
// name: <PathPrefix>/<instance>/<attribute>.
func (s *Source) parseEntities(raw []byte) []configdomain.Entity {
	grouped := make(map[string]map[string]string)

	gjson.ParseBytes(raw).ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name").String()
		value := item.Get("value").String()

		rel := strings.TrimPrefix(name, s.cfg.PathPrefix)
		rel = strings.Trim(rel, "/")
		parts := strings.SplitN(rel, "/", 2)
		if len(parts) != 2 {
			return true
		}
		instanceID, attr := parts[0], parts[1]
		if grouped[instanceID] == nil {
			grouped[instanceID] = make(map[string]string)
		}
		grouped[instanceID][attr] = value
		return true
	})

	entities := make([]configdomain.Entity, 0, len(grouped))
	for id, attrs := range grouped {
		entities = append(entities, &entity{
			configType: configdomain.ConfigType(s.cfg.ConfigType),
			instanceID: id,
			version:    hashAttrs(attrs),
			attrs:      attrs,
		})
	}
	return entities
}

// hashAttrs derives a version from the entity's content rather than a
// monotonic counter, so SyncGroup only sees an instance as "Updated" when
// its attributes actually changed between poll cycles, not on every poll
// that happens to land outside the cache TTL.
func hashAttrs(attrs map[string]string) int64 {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(attrs[k]))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64())
}
