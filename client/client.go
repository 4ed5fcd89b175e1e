package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookyhq/booksync/config"
	"github.com/bookyhq/booksync/mutate"
	"github.com/bookyhq/booksync/observe"
	"github.com/bookyhq/booksync/query"
	"github.com/bookyhq/booksync/remote"
	"github.com/bookyhq/booksync/session"
	"github.com/bookyhq/booksync/store"
)

// ServiceName identifies this library in telemetry.
const ServiceName = "booksync"

// Version is the library version reported in telemetry.
const Version = "1.2.0"

// Client is the consumer-facing entry point. Safe for concurrent use.
type Client struct {
	cfg     config.Config
	session *session.TokenProvider
	source  remote.Source
	store   *store.Store
	runner  *query.Runner
	coord   *mutate.Coordinator
	obs     observe.Observer
	fencing bool
}

// Option configures a Client.
type Option func(*Client)

// WithSource replaces the remote data source. Used by tests and by
// consumers with a non-HTTP transport.
func WithSource(src remote.Source) Option {
	return func(c *Client) { c.source = src }
}

// WithObserver replaces the telemetry observer built from config.
func WithObserver(obs observe.Observer) Option {
	return func(c *Client) { c.obs = obs }
}

// New constructs a fully wired client from configuration.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		session: session.NewTokenProvider(cfg.Token),
		store:   store.New(cfg.Staleness()),
		fencing: cfg.Fencing(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.obs == nil {
		obs, err := observe.NewObserver(ctx, cfg.ObserverConfig(ServiceName, Version))
		if err != nil {
			return nil, fmt.Errorf("client: setup telemetry: %w", err)
		}
		c.obs = obs
	}

	if c.source == nil {
		transport := session.NewTransport(c.session, nil)
		hc := transport.HTTPClient()
		hc.Timeout = cfg.Timeout()
		c.source = remote.NewClient(cfg.BaseURL, remote.WithHTTPClient(hc))
	}

	c.runner = query.NewRunner(c.store, query.WithObserver(c.obs))
	c.coord = mutate.NewCoordinator(c.store, mutate.DefaultGraph(),
		mutate.WithObserver(c.obs),
		mutate.WithReconcilers(
			mutate.NewCartLoanReconciler(c.store, c.source, c.obs.Logger()),
		),
	)

	return c, nil
}

// SetToken installs a session credential after login. An empty token
// logs out.
func (c *Client) SetToken(token string) {
	c.session.SetToken(token)
}

// Identity returns the current session identity, if any.
func (c *Client) Identity() (session.Identity, bool) {
	return c.session.Identity()
}

// Unauthorized reports whether err means the session has expired.
// Callers react by tearing down the session and re-authenticating.
func (c *Client) Unauthorized(err error) bool {
	return errors.Is(err, remote.ErrUnauthorized)
}

// Store exposes the store for subscription wiring. Consumers read
// through handles; direct writes are not part of the contract.
func (c *Client) Store() *store.Store {
	return c.store
}

// Shutdown flushes telemetry.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.obs.Shutdown(ctx)
}

// fence returns the mutation fence for an entity, or "" when fencing
// is disabled.
func (c *Client) fence(id string) string {
	if !c.fencing {
		return ""
	}
	return id
}
