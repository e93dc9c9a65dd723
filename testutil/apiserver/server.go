package apiserver

import (
	"context"
	"crypto/rand"
	"fmt"
	"maps"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/kbukum/hyperkit/component"
	"github.com/kbukum/hyperkit/logger"
	"github.com/kbukum/hyperkit/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Default credentials.
const (
	DefaultAccessKey = "token-admin"
	DefaultSecretKey = "admin-secret"
	DefaultUsername  = "admin"
	DefaultPassword  = "admin-password"
)

// Config configures the fake API.
type Config struct {
	// Name identifies the server to a testutil.Manager. Defaults to
	// "apiserver".
	Name string

	AccessKey string
	SecretKey string
	Username  string
	Password  string
	Types     []TypeDef
	Logger    *logger.Logger
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "apiserver"
	}
	if c.AccessKey == "" {
		c.AccessKey = DefaultAccessKey
	}
	if c.SecretKey == "" {
		c.SecretKey = DefaultSecretKey
	}
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.Password == "" {
		c.Password = DefaultPassword
	}
	if len(c.Types) == 0 {
		c.Types = DefaultTypes()
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
}

// Request is one request the server answered.
type Request struct {
	Method string
	Path   string
	Query  url.Values
}

type failure struct {
	method string
	status int
	left   int
}

// Server is a fake schema-driven hypermedia API backed by httptest. It
// implements testutil.TestComponent.
type Server struct {
	cfg    Config
	types  map[string]TypeDef
	byColl map[string]TypeDef
	engine *gin.Engine
	log    *logger.Logger

	jwtKey       []byte
	passwordHash []byte

	mu       sync.Mutex
	ts       *httptest.Server
	store    *store
	requests []Request
	failures []*failure
}

var (
	_ component.Component    = (*Server)(nil)
	_ component.Describable  = (*Server)(nil)
	_ testutil.TestComponent = (*Server)(nil)
)

// New builds a server. Call Start, or testutil.T(t).Setup, before use.
func New(cfg Config) (*Server, error) {
	cfg.ApplyDefaults()

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("apiserver: hash password: %w", err)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("apiserver: jwt key: %w", err)
	}

	s := &Server{
		cfg:          cfg,
		types:        map[string]TypeDef{},
		byColl:       map[string]TypeDef{},
		log:          cfg.Logger.WithComponent("apiserver"),
		jwtKey:       key,
		passwordHash: hash,
		store:        newStore(),
	}
	for _, t := range cfg.Types {
		s.types[t.ID] = t
		s.byColl[t.Collection()] = t
	}
	s.engine = s.routes()
	return s, nil
}

// --- component.Component ---

func (s *Server) Name() string { return s.cfg.Name }

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts != nil {
		return fmt.Errorf("apiserver already started")
	}
	s.ts = httptest.NewServer(s.engine)
	s.log.Debug("started", logger.Fields(logger.FieldURL, s.ts.URL))
	return nil
}

func (s *Server) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return nil
	}
	s.ts.Close()
	s.ts = nil
	return nil
}

func (s *Server) Health(_ context.Context) component.Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

// Describe reports where the server listens.
func (s *Server) Describe() component.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := component.Description{Name: s.Name(), Type: "http"}
	if s.ts != nil {
		d.Details = s.ts.URL
		if u, err := url.Parse(s.ts.URL); err == nil {
			d.Port, _ = strconv.Atoi(u.Port())
		}
	}
	return d
}

// --- testutil.TestComponent ---

// Reset drops every resource, recorded request and scripted failure.
func (s *Server) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = newStore()
	s.requests = nil
	s.failures = nil
	return nil
}

// Snapshot captures the stored resources.
func (s *Server) Snapshot(_ context.Context) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.clone()
}

// Restore replaces the stored resources with a snapshot.
func (s *Server) Restore(_ context.Context, snapshot interface{}) error {
	snap, ok := snapshot.(*store)
	if !ok {
		return fmt.Errorf("apiserver: unexpected snapshot %T", snapshot)
	}
	restored, err := snap.clone()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = restored
	return nil
}

// --- test scripting ---

// URL is the API base URL, <server>/v3. Empty until started.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL + "/v3"
}

// Seed stores a resource of typeID and returns its fields, including the
// assigned id.
func (s *Server) Seed(typeID string, fields map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fields == nil {
		fields = map[string]any{}
	}
	return s.store.put(typeID, fields)
}

// Resource returns a copy of the stored fields of typeID/id.
func (s *Server) Resource(typeID, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store.get(typeID, id)
	if !ok {
		return nil, false
	}
	return maps.Clone(rec.Fields), true
}

// SetTransitioning makes the next polls GETs of typeID/id report
// transitioning=yes; the one after reports final ("no" or "error" with
// message as transitioningMessage).
func (s *Server) SetTransitioning(typeID, id string, polls int, final, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.store.get(typeID, id)
	if !ok {
		return
	}
	rec.Transitions = polls
	rec.FinalState = final
	rec.FinalMsg = message
	rec.Fields["transitioning"] = "yes"
}

// FailNext answers the next times resource requests with method with
// status. Schema and root requests are never failed.
func (s *Server) FailNext(method string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, &failure{method: method, status: status, left: times})
}

// Requests returns every request answered so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many answered requests match method and have a path
// ending in suffix.
func (s *Server) Count(method, suffix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			n++
		}
	}
	return n
}

// SchemaFetches is how many times the schema collection was served.
func (s *Server) SchemaFetches() int {
	return s.Count("GET", "/v3/schemas")
}
