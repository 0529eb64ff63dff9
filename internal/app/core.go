package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/resource"
	"github.com/dmehra2102/PostDeck/internal/store"
	"github.com/dmehra2102/PostDeck/pkg/auth"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var timeNow = time.Now

// Core is the single coordinating service. It owns the Store and the
// Resource Cache and exposes the read, fetch and mutation APIs consumers bind to.
type Core struct {
	store    *store.Store
	cache    *resource.Cache
	api      domain.RemoteResource
	logger   *zap.Logger
	tracer   trace.Tracer
	validate *validator.Validate

	views *viewRegistry

	// applyMu orders loaded results against mutations and logout so a
	// result checked as current cannot land after a later eviction.
	applyMu sync.Mutex

	mu            sync.Mutex
	subscriptions map[int]*subscription
	nextSubID     int
	unsubscribe   func()
}

// NewCore wires a core around st, cache and api. A nil logger disables logging.
func NewCore(st *store.Store, cache *resource.Cache, api domain.RemoteResource, logger *zap.Logger) *Core {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Core{
		store:         st,
		cache:         cache,
		api:           api,
		logger:        logger,
		tracer:        otel.Tracer("postdeck-core"),
		validate:      validator.New(),
		subscriptions: make(map[int]*subscription),
	}
	c.views = newViewRegistry(st)
	c.unsubscribe = st.Subscribe(c.onStateChange)
	return c
}

// Close detaches the core from its store.
func (c *Core) Close() {
	c.unsubscribe()
}

func (c *Core) Store() *store.Store { return c.store }

func (c *Core) Cache() *resource.Cache { return c.cache }

// Dispatch applies a UI-originated action to the store.
func (c *Core) Dispatch(action store.Action) error {
	return c.store.Dispatch(action)
}

// Login stores the session credentials. A JWT whose exp claim already
// passed is refused.
func (c *Core) Login(token string, userID int) error {
	if err := auth.CheckExpiry(token, timeNow()); err != nil {
		return err
	}
	if err := c.store.Dispatch(store.Login{Token: token, UserID: userID}); err != nil {
		return err
	}
	c.logger.Info("session started", zap.Int("user_id", userID))
	return nil
}

// Logout clears the session and resets the cache. Requests still in flight
// for the old session resolve but are not cached.
func (c *Core) Logout() error {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
	if err := c.store.Dispatch(store.Logout{}); err != nil {
		return err
	}
	c.cache.Reset()
	c.logger.Info("session ended")
	return nil
}

func (c *Core) credentials() auth.Credentials {
	s := c.store.State().Session
	return auth.Credentials{Token: s.Token, UserID: s.UserID}
}

// observe inspects a failure from the remote resource. An expired session
// forces a logout; everything else passes through unchanged.
func (c *Core) observe(err error) error {
	if err == nil || !auth.IsAuthExpired(err) {
		return err
	}
	if !c.store.State().Session.Authenticated() {
		return err
	}
	c.logger.Warn("session expired, logging out", zap.Error(err))
	if lerr := c.Logout(); lerr != nil {
		return errors.Join(err, lerr)
	}
	_ = c.store.Dispatch(store.Notify{Message: "Your session has expired. Please sign in again.", Level: "warning"})
	return err
}

func (c *Core) withCredentials(ctx context.Context) (context.Context, auth.Credentials) {
	creds := c.credentials()
	return auth.ContextWithCredentials(ctx, creds), creds
}
