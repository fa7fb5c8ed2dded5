package awsssm

import "time"

const defaultPollInterval = time.Minute

// Config configures a Source.
type Config struct {
	// Region is the AWS region to query.
	Region string
	// PathPrefix is the SSM parameter path to poll recursively, e.g.
	// "/mapping-engine/LdapConfig/". Parameters are expected to be laid out
	// as <PathPrefix>/<instance>/<attribute>.
	PathPrefix string
	// ConfigType is the abstract config type the synced entities are
	// published under.
	ConfigType string
	// PollInterval is the time between SSM polls. Defaults to 1 minute.
	PollInterval time.Duration
	// CacheTTL bounds how long a successful fetch is cached before the next
	// poll is allowed to hit SSM again even if called early. Defaults to
	// half of PollInterval.
	CacheTTL time.Duration
}

func (c Config) effectivePollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return defaultPollInterval
	}
	return c.PollInterval
}

func (c Config) effectiveCacheTTL() time.Duration {
	if c.CacheTTL > 0 {
		return c.CacheTTL
	}
	return c.effectivePollInterval() / 2
}
