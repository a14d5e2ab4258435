package di

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	"github.com/goliatone/go-errors"
	"go.uber.org/zap"

	"github.com/goliatone/go-careteam-sync/api"
	"github.com/goliatone/go-careteam-sync/auth"
	"github.com/goliatone/go-careteam-sync/cache"
	"github.com/goliatone/go-careteam-sync/domain"
	"github.com/goliatone/go-careteam-sync/endpoints"
	"github.com/goliatone/go-careteam-sync/internal/clock"
	"github.com/goliatone/go-careteam-sync/internal/config"
	"github.com/goliatone/go-careteam-sync/internal/logging"
	"github.com/goliatone/go-careteam-sync/session"
)

// Container wires configuration into a ready-to-use dashboard data layer:
// one cache engine, the persisted session, the auth machine and the four
// endpoint namespaces sharing that engine.
type Container struct {
	config *config.Config
	logger *zap.Logger

	engine  *cache.Engine
	storage session.Storage
	auth    *auth.Machine

	users    *endpoints.Users
	messages *endpoints.Messages
	surveys  *endpoints.Surveys
	careTeam *endpoints.CareTeam

	closers []func() error
}

type options struct {
	logger     *zap.Logger
	storage    session.Storage
	clock      clock.Clock
	httpClient *http.Client
}

// Option overrides a dependency the container would otherwise build itself.
type Option func(*options)

// WithLogger uses logger instead of one built from the logging config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStorage uses storage instead of the configured session backend.
func WithStorage(storage session.Storage) Option {
	return func(o *options) { o.storage = storage }
}

// WithClock drives polling from c.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithHTTPClient sends API calls through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// NewContainer builds every component from cfg. Call Close when done.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required", errors.CategoryValidation)
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	c.logger = o.logger
	if c.logger == nil {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "build logger")
		}
		c.logger = logger
		c.closers = append(c.closers, func() error { _ = logger.Sync(); return nil })
	}

	engineOpts := []cache.Option{cache.WithLogger(c.logger.Named("cache"))}
	if o.clock != nil {
		engineOpts = append(engineOpts, cache.WithClock(o.clock))
	}
	engine, err := cache.New(cfg.Cache.Engine(), engineOpts...)
	if err != nil {
		return nil, err
	}
	c.engine = engine
	c.closers = append(c.closers, func() error { engine.Teardown(); return nil })

	c.storage = o.storage
	if c.storage == nil {
		storage, closer, err := OpenStorage(ctx, cfg.Session)
		if err != nil {
			return nil, err
		}
		c.storage = storage
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}

	c.auth = auth.NewMachine(ctx, session.NewStore(c.storage), auth.WithLogger(c.logger.Named("auth")))

	clientOpts := []api.Option{api.WithLogger(c.logger.Named("api"))}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(o.httpClient))
	}
	public, err := api.NewClient(cfg.API.Client(), clientOpts...)
	if err != nil {
		return nil, err
	}
	authed := public.WithToken(c.auth.Token)

	if c.users, err = endpoints.NewUsers(engine, public); err != nil {
		return nil, err
	}
	if c.surveys, err = endpoints.NewSurveys(engine, public); err != nil {
		return nil, err
	}
	if c.messages, err = endpoints.NewMessages(engine, authed); err != nil {
		return nil, err
	}
	if c.careTeam, err = endpoints.NewCareTeam(engine, authed); err != nil {
		return nil, err
	}

	ok = true
	return c, nil
}

// NewContainerWithDefaults loads configuration from the usual places.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	return NewContainer(ctx, cfg, opts...)
}

// OpenStorage opens the configured session backend. The returned closer
// may be nil.
func OpenStorage(ctx context.Context, cfg config.SessionConfig) (session.Storage, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return session.NewMemoryStorage(), nil, nil
	case config.BackendRedis:
		storage, err := session.NewRedisStorageWithURL(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryValidation, "invalid redis url")
		}
		return storage, storage.Close, nil
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, nil, errors.Wrap(err, errors.CategoryInternal, "create session directory")
			}
		}
		db, err := session.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.CategoryInternal, "open session database")
		}
		storage, err := session.NewSQLStorage(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return storage, storage.Close, nil
	}
	return nil, nil, errors.New("unknown session backend "+cfg.Backend, errors.CategoryValidation)
}

// SignIn logs in against the backend and, on success, records the identity
// in the auth machine. It returns the pending post-login redirect, if any,
// and clears it.
func (c *Container) SignIn(ctx context.Context, req domain.LoginRequest) (domain.CareTeamMember, string, error) {
	member, err := c.careTeam.Login(ctx, req)
	if err != nil {
		return domain.CareTeamMember{}, "", err
	}
	if err := c.auth.Login(ctx, member); err != nil {
		return member, "", err
	}
	returnTo, _, err := c.auth.ConsumeReturnTo(ctx)
	if err != nil {
		c.logger.Warn("failed to clear persisted return path", zap.Error(err))
	}
	return member, returnTo, nil
}

// SignOut forgets the current identity.
func (c *Container) SignOut(ctx context.Context) error {
	return c.auth.Logout(ctx)
}

// Close tears down the engine and releases storage, in reverse build order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) Config() *config.Config { return c.config }
func (c *Container) Logger() *zap.Logger { return c.logger }
func (c *Container) Engine() *cache.Engine { return c.engine }
func (c *Container) Storage() session.Storage { return c.storage }
func (c *Container) Auth() *auth.Machine { return c.auth }
func (c *Container) Users() *endpoints.Users { return c.users }
func (c *Container) Messages() *endpoints.Messages { return c.messages }
func (c *Container) Surveys() *endpoints.Surveys { return c.surveys }
func (c *Container) CareTeam() *endpoints.CareTeam { return c.careTeam }
