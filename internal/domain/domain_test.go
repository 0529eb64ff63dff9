package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceType(t *testing.T) {
	assert.Equal(t, "Post", ResourcePosts.TagType())
	assert.Equal(t, "Comment", ResourceComments.TagType())
	assert.Equal(t, "/posts", ResourcePosts.Path(0))
	assert.Equal(t, "/todos/7", ResourceTodos.Path(7))
	assert.False(t, ResourceType("albums").Valid())
}

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"valid", Pagination{Page: 2, PageSize: 25}, Pagination{Page: 2, PageSize: 25}},
		{"page below one", Pagination{Page: 0, PageSize: 10}, Pagination{Page: 1, PageSize: 10}},
		{"negative page", Pagination{Page: -4, PageSize: 10}, Pagination{Page: 1, PageSize: 10}},
		{"zero size", Pagination{Page: 1}, Pagination{Page: 1, PageSize: DefaultPageSize}},
		{"oversized", Pagination{Page: 1, PageSize: 1000}, Pagination{Page: 1, PageSize: DefaultPageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("load posts: %w", TransportError("GET /posts", errors.New("connection refused")))

	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrResource)
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, "load posts: GET /posts: connection refused", err.Error())

	res := ResourceError("GET /posts/9", 404, "not found")
	assert.Equal(t, "GET /posts/9: not found (status 404)", res.Error())
	assert.False(t, res.Retryable())
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}
