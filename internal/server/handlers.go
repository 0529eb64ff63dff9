package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmehra2102/PostDeck/internal/app"
	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/resource"
	"github.com/dmehra2102/PostDeck/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type viewResponse struct {
	View     string `json:"view"`
	Revision uint64 `json:"revision"`
	Value    any    `json:"value"`
}

type entryResponse struct {
	Key       string    `json:"key"`
	Status    string    `json:"status"`
	Payload   any       `json:"payload,omitempty"`
	Error     string    `json:"error,omitempty"`
	Tags      []string  `json:"tags"`
	FetchedAt time.Time `json:"fetchedAt,omitzero"`
	Stale     bool      `json:"stale"`
}

type loginRequest struct {
	Token  string `json:"token" binding:"required"`
	UserID int    `json:"userId" binding:"gte=0"`
}

type filterRequest struct {
	Search    string `json:"search"`
	Category  string `json:"category"`
	SortBy    string `json:"sortBy"`
	Direction string `json:"direction"`
}

type pageRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required,oneof=light dark"`
}

type invalidateRequest struct {
	Target string `json:"target" binding:"required"`
}

// inputs maps a resource to its mutation payload type.
var inputs = map[domain.ResourceType]func() any{
	domain.ResourcePosts:    func() any { return &domain.PostInput{} },
	domain.ResourceTodos:    func() any { return &domain.TodoInput{} },
	domain.ResourceComments: func() any { return &domain.CommentInput{} },
	domain.ResourceUsers:    func() any { return &domain.UserInput{} },
}

func (h *Handlers) ListViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"views": h.core.Views()})
}

func (h *Handlers) GetView(c *gin.Context) {
	name := c.Param("name")
	params := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	value, rev, err := h.core.View(name, params)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewResponse{View: name, Revision: rev, Value: value})
}

func (h *Handlers) Fetch(c *gin.Context) {
	h.fetch(c, h.core.Request)
}

func (h *Handlers) Refetch(c *gin.Context) {
	h.fetch(c, h.core.Refetch)
}

func (h *Handlers) fetch(c *gin.Context, read func(ctx context.Context, key string) (any, error)) {
	key := "GET " + c.Param("path")
	if raw := c.Request.URL.RawQuery; raw != "" {
		key += "?" + raw
	}

	payload, err := read(c.Request.Context(), key)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handlers) Create(c *gin.Context) {
	h.mutate(c, app.OpCreate, 0)
}

func (h *Handlers) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.mutate(c, app.OpUpdate, id)
}

func (h *Handlers) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	h.mutate(c, app.OpDelete, id)
}

func (h *Handlers) pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		h.writeError(c, domain.ValidationError("parse id", domain.ErrInvalidID))
		return 0, false
	}
	return id, true
}

func (h *Handlers) mutate(c *gin.Context, op app.Op, id int) {
	res := domain.ResourceType(c.Param("resource"))
	m := app.Mutation{Op: op, Resource: res, ID: id, Invalidates: parseTags(c.Query("invalidate"))}

	if op != app.OpDelete {
		newInput, ok := inputs[res]
		if !ok {
			h.writeError(c, domain.ValidationError("decode payload", domain.ErrUnknownRoute))
			return
		}
		payload := newInput()
		if err := c.ShouldBindJSON(payload); err != nil {
			h.writeError(c, domain.ValidationError("decode payload", err))
			return
		}
		m.Payload = payload
	}

	result, err := h.core.Mutate(c.Request.Context(), m)
	if err != nil {
		h.writeError(c, err)
		return
	}
	switch op {
	case app.OpCreate:
		c.JSON(http.StatusCreated, result)
	case app.OpDelete:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, result)
	}
}

func parseTags(s string) []resource.Tag {
	if s == "" {
		return nil
	}
	var tags []resource.Tag
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, resource.ParseTag(part))
		}
	}
	return tags
}

func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.ValidationError("login", err))
		return
	}
	if err := h.core.Login(req.Token, req.UserID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) Logout(c *gin.Context) {
	if err := h.core.Logout(); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) SetFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.ValidationError("set filter", err))
		return
	}
	h.dispatch(c, store.SetFilter{Filter: domain.FilterSpec{
		Search:    req.Search,
		Category:  req.Category,
		SortBy:    req.SortBy,
		Direction: domain.ParseSortDirection(req.Direction),
	}})
}

func (h *Handlers) SetPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.ValidationError("set page", err))
		return
	}
	if req.PageSize != 0 {
		if err := h.core.Dispatch(store.SetPageSize{PageSize: req.PageSize}); err != nil {
			h.writeError(c, err)
			return
		}
	}
	if req.Page == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	h.dispatch(c, store.SetPage{Page: req.Page})
}

func (h *Handlers) SetTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.ValidationError("set theme", err))
		return
	}
	h.dispatch(c, store.SetTheme{Theme: store.Theme(req.Theme)})
}

func (h *Handlers) dispatch(c *gin.Context, action store.Action) {
	if err := h.core.Dispatch(action); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.core.Cache().Stats())
}

func (h *Handlers) CacheEntry(c *gin.Context) {
	key, err := h.core.RequestKey(c.Query("key"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	e := h.core.Cache().Entry(key)

	resp := entryResponse{
		Key:       string(e.Key),
		Status:    e.Status.String(),
		Payload:   e.Payload,
		Tags:      make([]string, 0, len(e.Tags)),
		FetchedAt: e.FetchedAt,
		Stale:     e.Stale,
	}
	if e.Err != nil {
		resp.Error = e.Err.Error()
	}
	for _, t := range e.Tags {
		resp.Tags = append(resp.Tags, t.String())
	}
	c.JSON(http.StatusOK, resp)
}

// Invalidate accepts a tag ("Post", "Post:3") or a request key ("GET /posts").
func (h *Handlers) Invalidate(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.ValidationError("invalidate", err))
		return
	}
	target := req.Target
	if resource.IsKey(target) {
		key, err := h.core.RequestKey(target)
		if err != nil {
			h.writeError(c, err)
			return
		}
		target = string(key)
	}
	c.JSON(http.StatusOK, gin.H{"evicted": h.core.Cache().Invalidate(target)})
}

// writeError maps error kinds onto HTTP statuses.
func (h *Handlers) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var derr *domain.Error
	switch {
	case errors.Is(err, domain.ErrUnknownView):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &derr):
		switch derr.Kind {
		case domain.KindValidation:
			status = http.StatusBadRequest
		case domain.KindAuthExpired:
			status = http.StatusUnauthorized
		case domain.KindTransport:
			status = http.StatusBadGateway
		case domain.KindResource:
			status = http.StatusBadGateway
			if derr.Status >= 400 && derr.Status < 500 {
				status = derr.Status
			}
		}
	}

	if status >= 500 {
		h.logger.Error("request error", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
		"kind":  domain.KindOf(err).String(),
	})
}
