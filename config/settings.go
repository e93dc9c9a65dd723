package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/hyperkit/httpclient"
	"github.com/kbukum/hyperkit/hyper"
	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/observability"
	"github.com/kbukum/hyperkit/validation"
)

// Default target settings.
const (
	DefaultPort     = 443
	DefaultUsername = "admin"
	DefaultAPIPath  = "/v3"
)

// Settings describes the API under test and how to reach it.
type Settings struct {
	// URL is the API base URL. When empty it is built from Host and Port
	// as https://<host>:<port>/v3.
	URL  string `yaml:"url" mapstructure:"url" validate:"omitempty,url"`
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`

	Token     string `yaml:"token" mapstructure:"token"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key" validate:"required_with=AccessKey"`
	Username  string `yaml:"username" mapstructure:"username"`
	Password  string `yaml:"password" mapstructure:"password"`

	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	CAFile   string `yaml:"ca_file" mapstructure:"ca_file"`
	Strict   bool   `yaml:"strict" mapstructure:"strict"`

	Retries     int           `yaml:"retries" mapstructure:"retries" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	WaitTimeout time.Duration `yaml:"wait_timeout" mapstructure:"wait_timeout" validate:"gte=0"`

	// RateLimit and the breaker settings are off when zero.
	RateLimit       float64       `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
	BreakerFailures int           `yaml:"breaker_failures" mapstructure:"breaker_failures" validate:"gte=0"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown" mapstructure:"breaker_cooldown" validate:"gte=0"`

	Cache     CacheSettings     `yaml:"cache" mapstructure:"cache"`
	Logging   logger.Config     `yaml:"logging" mapstructure:"logging"`
	Telemetry TelemetrySettings `yaml:"telemetry" mapstructure:"telemetry"`
}

// CacheSettings controls the on-disk schema cache.
type CacheSettings struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"gte=0"`
}

// TelemetrySettings enables OTLP export when Endpoint is set.
type TelemetrySettings struct {
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults fills in zero-value fields.
func (s *Settings) ApplyDefaults() {
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.Username == "" {
		s.Username = DefaultUsername
	}
	if s.Cache.Enabled && s.Cache.TTL == 0 {
		s.Cache.TTL = hyper.DefaultCacheTTL
	}
	if s.Telemetry.SampleRate == 0 {
		s.Telemetry.SampleRate = 1
	}
	s.Logging.ApplyDefaults()
}

// Validate checks struct constraints and that a target is named.
func (s *Settings) Validate() error {
	if err := validation.Validate(s); err != nil {
		return err
	}
	v := validation.New()
	v.Check(s.URL != "" || s.Host != "", "url", "url or host is required")
	if err := s.Logging.Validate(); err != nil {
		v.AddError("logging", err.Error())
	}
	return v.Validate()
}

// BaseURL returns URL, or the URL derived from Host and Port.
func (s *Settings) BaseURL() string {
	if s.URL != "" {
		return s.URL
	}
	if s.Host == "" {
		return ""
	}
	host := strings.TrimSuffix(s.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if s.Port != 0 && s.Port != DefaultPort {
		host = fmt.Sprintf("%s:%d", host, s.Port)
	}
	return host + DefaultAPIPath
}

// ClientConfig builds the hyper client configuration. log and metrics
// may be nil.
func (s *Settings) ClientConfig(log *logger.Logger, metrics *observability.Metrics) hyper.Config {
	return hyper.Config{
		URL:         s.BaseURL(),
		AccessKey:   s.AccessKey,
		SecretKey:   s.SecretKey,
		Token:       s.Token,
		Insecure:    s.Insecure,
		CAFile:      s.CAFile,
		Cache:       s.Cache.Enabled,
		CacheDir:    s.Cache.Dir,
		CacheTTL:    s.Cache.TTL,
		Strict:      s.Strict,
		Retries:     s.Retries,
		Timeout:     s.Timeout,
		WaitTimeout: s.WaitTimeout,

		RateLimit:       s.RateLimit,
		BreakerFailures: s.BreakerFailures,
		BreakerCooldown: s.BreakerCooldown,

		Logger:  log,
		Metrics: metrics,
	}
}

// TransportConfig builds the bare transport settings used for login,
// before any credentials exist.
func (s *Settings) TransportConfig(log *logger.Logger) httpclient.Config {
	return httpclient.Config{
		BaseURL: s.BaseURL(),
		Timeout: s.Timeout,
		TLS:     &httpclient.TLSConfig{Insecure: s.Insecure, CAFile: s.CAFile},
		Cookies: true,
		Logger:  log,
	}
}

// TracerConfig maps telemetry settings onto the tracer configuration.
func (s *Settings) TracerConfig(serviceName string) observability.TracerConfig {
	cfg := observability.DefaultTracerConfig(serviceName)
	cfg.Endpoint = s.Telemetry.Endpoint
	cfg.Insecure = s.Telemetry.Insecure
	cfg.SampleRate = s.Telemetry.SampleRate
	return cfg
}

// MeterConfig maps telemetry settings onto the meter configuration.
func (s *Settings) MeterConfig(serviceName string) observability.MeterConfig {
	cfg := observability.DefaultMeterConfig(serviceName)
	cfg.Endpoint = s.Telemetry.Endpoint
	cfg.Insecure = s.Telemetry.Insecure
	return cfg
}
