package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/infrastructure/config"
	"github.com/dmehra2102/PostDeck/internal/interceptors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxErrorBody = 1 << 10

// Client talks to the REST-like demo API. It implements domain.RemoteResource.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tracer    trace.Tracer
}

var _ domain.RemoteResource = (*Client)(nil)

// NewClient builds a client whose transport is wrapped by middlewares,
// outermost first.
func NewClient(cfg config.APIConfig, base http.RoundTripper, middlewares ...interceptors.Middleware) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: u,
		http: &http.Client{
			Transport: interceptors.Chain(base, middlewares...),
			Timeout:   timeout,
		},
		userAgent: cfg.UserAgent,
		tracer:    otel.Tracer("api-client"),
	}, nil
}

func (c *Client) List(ctx context.Context, resource domain.ResourceType, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, resource.Path(0), query, nil, out)
}

func (c *Client) ListByParent(ctx context.Context, parent domain.ResourceType, parentID int, child domain.ResourceType, out any) error {
	if parentID <= 0 {
		return domain.ValidationError("list "+string(child), domain.ErrInvalidID)
	}
	return c.do(ctx, http.MethodGet, parent.Path(parentID)+"/"+string(child), nil, nil, out)
}

func (c *Client) Get(ctx context.Context, resource domain.ResourceType, id int, out any) error {
	if id <= 0 {
		return domain.ValidationError("get "+string(resource), domain.ErrInvalidID)
	}
	return c.do(ctx, http.MethodGet, resource.Path(id), nil, nil, out)
}

func (c *Client) Create(ctx context.Context, resource domain.ResourceType, payload any, out any) error {
	return c.do(ctx, http.MethodPost, resource.Path(0), nil, payload, out)
}

func (c *Client) Update(ctx context.Context, resource domain.ResourceType, id int, payload any, out any) error {
	if id <= 0 {
		return domain.ValidationError("update "+string(resource), domain.ErrInvalidID)
	}
	return c.do(ctx, http.MethodPut, resource.Path(id), nil, payload, out)
}

func (c *Client) Delete(ctx context.Context, resource domain.ResourceType, id int) error {
	if id <= 0 {
		return domain.ValidationError("delete "+string(resource), domain.ErrInvalidID)
	}
	return c.do(ctx, http.MethodDelete, resource.Path(id), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	op := method + " " + path

	ctx, span := c.tracer.Start(ctx, "api."+strings.ToLower(method))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	err := c.send(ctx, op, method, path, query, payload, out, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, payload any, out any, span trace.Span) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return domain.ValidationError(op, fmt.Errorf("encode payload: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return domain.ValidationError(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return derr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return domain.TransportError(op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorBody(resp.Body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return domain.AuthExpiredError(op, msg)
		}
		return domain.ResourceError(op, resp.StatusCode, msg)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ResourceError(op, resp.StatusCode, "decode response: "+err.Error())
	}
	return nil
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	msg := strings.TrimSpace(string(data))
	if msg == "{}" {
		return ""
	}
	return msg
}

// PageQuery builds the page/limit parameters understood by the demo API.
func PageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("_page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("_limit", strconv.Itoa(limit))
	}
	return q
}
