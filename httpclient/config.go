package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/observability"
	"github.com/kbukum/hyperkit/resilience"
)

const (
	defaultTimeout = 30 * time.Second
	defaultName    = "hyperkit"
)

// Config configures the HTTP adapter.
type Config struct {
	// Name tags logs, spans and metrics. Defaults to "hyperkit".
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request paths. Absolute URLs, as
	// found in hypermedia links, are used unchanged.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single exchange. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Auth is applied to every request.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Cookies keeps a session cookie jar, so a token issued by a login
	// call is also replayed as a cookie.
	Cookies bool `yaml:"cookies" mapstructure:"cookies"`

	// Logger receives the request/response audit trail. Defaults to the
	// global logger.
	Logger *logger.Logger `yaml:"-" mapstructure:"-"`

	// Metrics records request counts and durations when set.
	Metrics *observability.Metrics `yaml:"-" mapstructure:"-"`

	// RateLimiter paces outgoing requests. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"-" mapstructure:"-"`

	// CircuitBreaker fails fast after repeated transport errors and 5xx
	// answers. Other statuses never count against it. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" {
		c.Name = defaultName
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return c.TLS.Validate()
}
