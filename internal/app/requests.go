package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/resource"
	"github.com/dmehra2102/PostDeck/internal/store"
	"go.uber.org/zap"
)

// route is a resolved read against the remote resource.
type route struct {
	binding  binding
	parent   domain.ResourceType
	parentID int
	id       int
	query    url.Values
}

// complete reports whether the route reads a whole, unfiltered collection,
// in which case its payload replaces the store collection.
func (r route) complete() bool {
	return r.id == 0 && r.parentID == 0 && len(r.query) == 0
}

func (r route) tags() []resource.Tag {
	typ := r.binding.resource()
	switch {
	case r.parentID > 0:
		return append(listTags(typ), resource.IDTag(r.parent.TagType(), r.parentID))
	case r.id > 0:
		return itemTags(typ, r.id)
	default:
		return listTags(typ)
	}
}

func (r route) fetch(ctx context.Context, api domain.RemoteResource) (any, error) {
	switch {
	case r.parentID > 0:
		return r.binding.listByParent(ctx, api, r.parent, r.parentID)
	case r.id > 0:
		return r.binding.get(ctx, api, r.id)
	default:
		return r.binding.list(ctx, api, r.query)
	}
}

// resolve maps "/type", "/type/id" and "/parent/id/child" onto bindings.
func resolve(req resource.Request) (route, error) {
	op := "resolve " + req.Path
	if !strings.EqualFold(req.Method, http.MethodGet) {
		return route{}, domain.ValidationError(op, fmt.Errorf("method %s is not a read; use a mutation", req.Method))
	}

	segments := strings.Split(strings.Trim(path.Clean(req.Path), "/"), "/")
	switch len(segments) {
	case 1:
		b, err := bindingFor(domain.ResourceType(segments[0]))
		if err != nil {
			return route{}, err
		}
		return route{binding: b, query: req.Query}, nil
	case 2:
		b, err := bindingFor(domain.ResourceType(segments[0]))
		if err != nil {
			return route{}, err
		}
		id, err := parseID(op, segments[1])
		if err != nil {
			return route{}, err
		}
		return route{binding: b, id: id}, nil
	case 3:
		parent := domain.ResourceType(segments[0])
		if !parent.Valid() {
			return route{}, domain.ValidationError(op, fmt.Errorf("%w: %s", domain.ErrUnknownRoute, req.Path))
		}
		id, err := parseID(op, segments[1])
		if err != nil {
			return route{}, err
		}
		b, err := bindingFor(domain.ResourceType(segments[2]))
		if err != nil {
			return route{}, err
		}
		return route{binding: b, parent: parent, parentID: id}, nil
	default:
		return route{}, domain.ValidationError(op, fmt.Errorf("%w: %s", domain.ErrUnknownRoute, req.Path))
	}
}

func parseID(op, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, domain.ValidationError(op, domain.ErrInvalidID)
	}
	return id, nil
}

// Request reads key ("GET /posts?_page=1") through the resource cache.
// Concurrent identical requests share one remote call. Loaded records are
// merged into the store, or replace it for a complete collection read.
func (c *Core) Request(ctx context.Context, key string) (any, error) {
	return c.request(ctx, key, false)
}

// Refetch is Request that bypasses a cached payload. A failed refetch drops
// the previous payload.
func (c *Core) Refetch(ctx context.Context, key string) (any, error) {
	return c.request(ctx, key, true)
}

// RequestKey returns the scoped cache key Request uses for key.
func (c *Core) RequestKey(key string) (resource.Key, error) {
	req, err := resource.ParseRequest(key)
	if err != nil {
		return "", domain.ValidationError("parse request", err)
	}
	req.Scope = c.credentials().Scope()
	return req.Key(), nil
}

func (c *Core) request(ctx context.Context, key string, refetch bool) (any, error) {
	req, err := resource.ParseRequest(key)
	if err != nil {
		return nil, domain.ValidationError("parse request", err)
	}
	rt, err := resolve(req)
	if err != nil {
		return nil, err
	}

	ctx, creds := c.withCredentials(ctx)
	req.Scope = creds.Scope()
	cacheKey := req.Key()

	load := func(ctx context.Context) (any, error) {
		return rt.fetch(ctx, c.api)
	}
	commit := func(payload any, current func() bool) {
		c.applyMu.Lock()
		defer c.applyMu.Unlock()
		if !current() {
			c.logger.Debug("skipped superseded result", zap.String("key", string(cacheKey)))
			return
		}
		c.apply(cacheKey, rt, payload)
	}

	var payload any
	if refetch {
		payload, err = c.cache.RefetchWith(ctx, cacheKey, load, commit, rt.tags()...)
	} else {
		payload, err = c.cache.FetchWith(ctx, cacheKey, load, commit, rt.tags()...)
	}
	if err != nil {
		return nil, c.observe(err)
	}
	return payload, nil
}

func (c *Core) apply(key resource.Key, rt route, payload any) {
	var (
		action store.Action
		err    error
	)
	if rt.complete() {
		action, err = rt.binding.replaceAction(payload)
	} else {
		action, err = rt.binding.upsertAction(payload)
	}
	if err == nil {
		err = c.store.Dispatch(action)
	}
	if err != nil {
		c.logger.Error("cannot apply loaded records", zap.String("key", string(key)), zap.Error(err))
	}
}
