package hyper

import (
	"context"
	"net/http"
	"time"

	"github.com/kbukum/hyperkit/errors"
	"github.com/kbukum/hyperkit/httpclient"
	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/observability"
	"github.com/kbukum/hyperkit/resilience"
	"github.com/kbukum/hyperkit/validation"
)

// HeaderSchemas names the header that points at the schema document.
const HeaderSchemas = "X-API-Schemas"

// Defaults.
const (
	DefaultRetries     = 3
	DefaultRetryDelay  = 100 * time.Millisecond
	DefaultWaitTimeout = 45 * time.Second
)

// Config configures a Client.
type Config struct {
	// URL is the API base URL, e.g. https://rancher.local/v3.
	URL string `mapstructure:"url" validate:"required,url"`

	// AccessKey and SecretKey are sent as Basic credentials. When AccessKey
	// is empty, Token is sent as a Bearer token.
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key" validate:"required_with=AccessKey"`
	Token     string `mapstructure:"token"`

	// Headers are sent with every request.
	Headers map[string]string `mapstructure:"headers"`

	// Insecure skips server certificate verification.
	Insecure bool   `mapstructure:"insecure"`
	CAFile   string `mapstructure:"ca_file" validate:"omitempty,file"`

	// Cache keeps the schema document in CacheDir for CacheTTL.
	Cache    bool          `mapstructure:"cache"`
	CacheDir string        `mapstructure:"cache_dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`

	// Strict rejects list filters the schema does not declare.
	Strict bool `mapstructure:"strict"`

	// Retries is the total number of attempts for a mutating call that
	// keeps answering 409, with RetryDelay between attempts.
	Retries    int           `mapstructure:"retries" validate:"gte=0"`
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`

	// Timeout bounds a single HTTP exchange.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// WaitTimeout is used by the wait helpers when the caller passes no
	// timeout.
	WaitTimeout time.Duration `mapstructure:"wait_timeout" validate:"gte=0"`

	// RateLimit caps requests per second; 0 leaves them unpaced.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`

	// BreakerFailures consecutive transport errors or 5xx answers make
	// calls fail fast for BreakerCooldown. 0 disables the breaker.
	BreakerFailures int           `mapstructure:"breaker_failures" validate:"gte=0"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown" validate:"gte=0"`

	Logger  *logger.Logger         `mapstructure:"-"`
	Metrics *observability.Metrics `mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}
	if c.Cache && c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Client talks to a schema-driven hypermedia API. Schema loading is not
// safe for concurrent use; once loaded, lookups and calls may run
// concurrently.
type Client struct {
	cfg       Config
	transport *httpclient.Adapter
	cache     *schemaCache
	schema    *Schema
	ops       map[string]TypeOps
	log       *logger.Logger
}

// New builds a client and loads the schema. It fails with a
// CONFIGURATION_ERROR when the schema cannot be loaded or has no types.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	hc := httpclient.Config{
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.KeyAuth(cfg.AccessKey, cfg.SecretKey, cfg.Token),
		TLS:     &httpclient.TLSConfig{Insecure: cfg.Insecure, CAFile: cfg.CAFile},
		Headers: cfg.Headers,
		Logger:  log,
		Metrics: cfg.Metrics,
	}
	if cfg.RateLimit > 0 {
		hc.RateLimiter = &resilience.RateLimiterConfig{Rate: cfg.RateLimit}
	}
	if cfg.BreakerFailures > 0 {
		hc.CircuitBreaker = &resilience.CircuitBreakerConfig{
			MaxFailures: cfg.BreakerFailures,
			Cooldown:    cfg.BreakerCooldown,
		}
	}
	transport, err := httpclient.New(hc)
	if err != nil {
		return nil, errors.Configuration("invalid transport settings", err)
	}

	c := &Client{
		cfg:       cfg,
		transport: transport,
		log:       log.WithComponent("hyper"),
	}
	if cfg.Cache {
		c.cache = newSchemaCache(cfg.CacheDir, cfg.CacheTTL, cfg.URL, cfg.AccessKey)
	}

	if err := c.loadSchema(ctx, false); err != nil {
		transport.Close()
		return nil, err
	}
	return c, nil
}

// ReloadSchema fetches the schema again, bypassing the cache.
func (c *Client) ReloadSchema(ctx context.Context) error {
	return c.loadSchema(ctx, true)
}

// Schema returns the loaded schema.
func (c *Client) Schema() *Schema { return c.schema }

// Config returns the client's configuration with defaults applied.
func (c *Client) Config() Config { return c.cfg }

// Valid reports whether the client has a URL and a loaded schema.
func (c *Client) Valid() bool {
	return c != nil && c.cfg.URL != "" && c.schema != nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.Close()
}

func (c *Client) loadSchema(ctx context.Context, force bool) error {
	if c.schema != nil && !force {
		return nil
	}

	var text string
	fromCache := false
	if !force && c.cache != nil {
		text, fromCache = c.cache.read()
	}

	if !fromCache {
		fetched, err := c.fetchSchema(ctx)
		if err != nil {
			return errors.Configuration("failed to load schema from "+c.cfg.URL, err)
		}
		text = fetched
		if c.cache != nil {
			if err := c.cache.write(text); err != nil {
				c.log.Warn("schema cache write failed", logger.ErrorFields("cache", err))
			}
		}
	}

	root, err := decoder{client: c}.decode([]byte(text))
	if err != nil {
		return errors.Configuration("schema document is not valid JSON", err)
	}
	schema := NewSchema(text, root)
	if len(schema.Types) == 0 {
		return errors.Configuration("schema from "+c.cfg.URL+" contains no types", nil)
	}

	c.schema = schema
	c.ops = buildCapabilities(c, schema)
	c.log.Debug("schema loaded", logger.Fields(
		"types", len(schema.Types),
		"cached", fromCache,
	))
	return nil
}

// fetchSchema GETs the base URL and follows X-API-Schemas, reusing the
// first body when the header points back at the base URL.
func (c *Client) fetchSchema(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, c.cfg.URL, nil, nil)
	if err != nil {
		return "", err
	}
	schemaURL := resp.Header.Get(HeaderSchemas)
	if schemaURL == "" || schemaURL == c.cfg.URL {
		return string(resp.Body), nil
	}
	resp, err = c.send(ctx, http.MethodGet, schemaURL, nil, nil)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}
