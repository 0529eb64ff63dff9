package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/infrastructure/config"
	"github.com/dmehra2102/PostDeck/internal/interceptors"
	"github.com/dmehra2102/PostDeck/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, UserAgent: "test"}, nil,
		interceptors.RecoveryInterceptor(zap.NewNop()),
		interceptors.LoggingInterceptor(zap.NewNop()),
		interceptors.MetricsInterceptor(),
		interceptors.AuthInterceptor(nil),
	)
	require.NoError(t, err)
	return client
}

func TestClientList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("_page"))
		assert.Equal(t, "5", r.URL.Query().Get("_limit"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_ = json.NewEncoder(w).Encode([]domain.Post{{ID: 6, UserID: 1, Title: "six"}})
	})

	var posts []domain.Post
	require.NoError(t, client.List(context.Background(), domain.ResourcePosts, PageQuery(2, 5), &posts))
	assert.Equal(t, []domain.Post{{ID: 6, UserID: 1, Title: "six"}}, posts)
}

func TestClientNestedList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/3/comments", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]domain.Comment{{ID: 1, PostID: 3}})
	})

	var comments []domain.Comment
	require.NoError(t, client.ListByParent(context.Background(), domain.ResourcePosts, 3, domain.ResourceComments, &comments))
	assert.Len(t, comments, 1)

	err := client.ListByParent(context.Background(), domain.ResourcePosts, 0, domain.ResourceComments, &comments)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClientMutations(t *testing.T) {
	var mu sync.Mutex
	var methods []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		methods = append(methods, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodPost, http.MethodPut:
			assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
			var todo domain.Todo
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&todo))
			if todo.ID == 0 {
				todo.ID = 201
			}
			_ = json.NewEncoder(w).Encode(todo)
		case http.MethodDelete:
			_, _ = w.Write([]byte("{}"))
		}
	})

	ctx := context.Background()
	var created domain.Todo
	require.NoError(t, client.Create(ctx, domain.ResourceTodos, domain.Todo{UserID: 1, Title: "new"}, &created))
	assert.Equal(t, 201, created.ID)

	var updated domain.Todo
	require.NoError(t, client.Update(ctx, domain.ResourceTodos, 5, domain.Todo{ID: 5, Completed: true}, &updated))
	assert.True(t, updated.Completed)

	require.NoError(t, client.Delete(ctx, domain.ResourceTodos, 5))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"POST /todos", "PUT /todos/5", "DELETE /todos/5"}, methods)
}

func TestClientErrorClassification(t *testing.T) {
	t.Run("non-2xx is a resource error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such post", http.StatusNotFound)
		})
		err := client.Get(context.Background(), domain.ResourcePosts, 999, &domain.Post{})
		var derr *domain.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, domain.KindResource, derr.Kind)
		assert.Equal(t, http.StatusNotFound, derr.Status)
		assert.Equal(t, "no such post", derr.Message)
	})

	t.Run("401 is auth expired", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		err := client.Get(context.Background(), domain.ResourceUsers, 1, &domain.User{})
		assert.ErrorIs(t, err, domain.ErrAuthExpired)
	})

	t.Run("connection failure is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		client, err := NewClient(config.APIConfig{BaseURL: srv.URL}, nil)
		require.NoError(t, err)

		err = client.List(context.Background(), domain.ResourcePosts, nil, &[]domain.Post{})
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("malformed body is a resource error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})
		err := client.List(context.Background(), domain.ResourcePosts, nil, &[]domain.Post{})
		assert.ErrorIs(t, err, domain.ErrResource)
	})
}

func TestClientBearerToken(t *testing.T) {
	var seen atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	ctx := auth.ContextWithCredentials(context.Background(), auth.Credentials{Token: "opaque", UserID: 1})
	require.NoError(t, client.Get(ctx, domain.ResourceUsers, 1, &domain.User{}))
	assert.Equal(t, "Bearer opaque", seen.Load())
}
