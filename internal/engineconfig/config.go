// Package engineconfig provides configuration loading, parsing, and
// hot-reload for the mapping-engine process itself: where to listen, how
// many dispatcher workers to run, and how to reach the external
// collaborators (rule providers, AWS SSM) that feed the Abstract Config
// Store and the Provider Registry. It has no knowledge of Mapping Ids or
// Config Entities; those are runtime data, not process configuration.
package engineconfig

import (
	"errors"
	"fmt"
	"time"
)

// Configuration errors.
var (
	ErrWorkersRequired = errors.New("engineconfig: dispatcher.workers must be >= 0")
)

// Log level constants, matching the teacher's logging config vocabulary.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config is the complete mapping-engine process configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" toml:"server"`
	Dispatcher   DispatcherConfig   `yaml:"dispatcher" toml:"dispatcher"`
	Logging      LoggingConfig      `yaml:"logging" toml:"logging"`
	RuleProvider RuleProviderConfig `yaml:"rule_provider" toml:"rule_provider"`
	AWSSSM       AWSSSMConfig       `yaml:"aws_ssm" toml:"aws_ssm"`
}

// ServerConfig controls the plaintext HTTP/2 admin API (spec §6 external
// interfaces, supplemented: introspection over the Mapping Service).
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr" toml:"listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// DispatcherConfig controls the Event Dispatcher's bounded worker pool
// (spec §4.5).
type DispatcherConfig struct {
	Workers int `yaml:"workers" toml:"workers"`
}

// EffectiveWorkers returns Workers, or the spec's default of 16 if unset.
func (d DispatcherConfig) EffectiveWorkers() int {
	if d.Workers <= 0 {
		return 16
	}
	return d.Workers
}

// LoggingConfig controls the zerolog root logger.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Pretty bool   `yaml:"pretty" toml:"pretty"`
}

// EffectiveLevel returns Level, or LevelInfo if unset.
func (l LoggingConfig) EffectiveLevel() string {
	if l.Level == "" {
		return LevelInfo
	}
	return l.Level
}

// RuleProviderConfig configures the file-backed and HTTP-backed mapping
// rule sources (spec §6.4, supplemented).
type RuleProviderConfig struct {
	// RulesDir is watched for mapping rule documents (key=value property
	// files plus a reserved dependent.configs key).
	RulesDir string `yaml:"rules_dir" toml:"rules_dir"`

	// HTTPEndpoint, if set, polls a remote rule registry over OAuth2
	// client-credentials in addition to the file source.
	HTTPEndpoint string        `yaml:"http_endpoint" toml:"http_endpoint"`
	PollInterval time.Duration `yaml:"poll_interval" toml:"poll_interval"`

	OAuth2 OAuth2Config `yaml:"oauth2" toml:"oauth2"`
}

// OAuth2Config configures client-credentials auth for the remote rule
// registry.
type OAuth2Config struct {
	ClientID     string   `yaml:"client_id" toml:"client_id"`
	ClientSecret string   `yaml:"client_secret" toml:"client_secret"`
	TokenURL     string   `yaml:"token_url" toml:"token_url"`
	Scopes       []string `yaml:"scopes" toml:"scopes"`
}

// Enabled reports whether the remote rule registry is configured.
func (c RuleProviderConfig) Enabled() bool {
	return c.HTTPEndpoint != ""
}

// AWSSSMConfig configures the AWS SSM Parameter Store rehydration source
// (spec §6.5 "abstract-store rehydration", supplemented).
type AWSSSMConfig struct {
	Region       string        `yaml:"region" toml:"region"`
	PathPrefix   string        `yaml:"path_prefix" toml:"path_prefix"`
	PollInterval time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	CacheTTL     time.Duration `yaml:"cache_ttl" toml:"cache_ttl"`
}

// Enabled reports whether SSM rehydration is configured.
func (c AWSSSMConfig) Enabled() bool {
	return c.PathPrefix != ""
}

// Validate checks the configuration for internal consistency, mirroring
// the teacher's pattern of collecting every error before returning (see
// ValidationError).
func (c *Config) Validate() error {
	var verr ValidationError

	if c.Server.ListenAddr == "" {
		verr.Add("server.listen_addr is required")
	}
	if c.Dispatcher.Workers < 0 {
		verr.Addf("dispatcher.workers must be >= 0, got %d", c.Dispatcher.Workers)
	}
	if c.RuleProvider.Enabled() && c.RuleProvider.OAuth2.TokenURL == "" {
		verr.Add("rule_provider.oauth2.token_url is required when rule_provider.http_endpoint is set")
	}
	if c.AWSSSM.Enabled() && c.AWSSSM.Region == "" {
		verr.Add("aws_ssm.region is required when aws_ssm.path_prefix is set")
	}

	return verr.ToError()
}

// String renders a short summary for startup logs.
func (c *Config) String() string {
	return fmt.Sprintf(
		"server=%s dispatcher_workers=%d rules_dir=%s aws_ssm_enabled=%t",
		c.Server.ListenAddr, c.Dispatcher.EffectiveWorkers(), c.RuleProvider.RulesDir, c.AWSSSM.Enabled(),
	)
}
