package derive

import (
	"fmt"
	"math"
	"testing"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePosts(n int) []domain.Post {
	posts := make([]domain.Post, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, domain.Post{
			ID:     i,
			UserID: (i-1)/10 + 1,
			Title:  fmt.Sprintf("post %02d", i),
			Body:   "body",
		})
	}
	return posts
}

func TestFilterSearch(t *testing.T) {
	posts := []domain.Post{
		{ID: 1, Title: "Sunt aut facere", Body: "quia et suscipit"},
		{ID: 2, Title: "qui est esse", Body: "est rerum tempore"},
		{ID: 3, Title: "ea molestias", Body: "et iusto sed QUO"},
	}

	t.Run("case insensitive over all fields", func(t *testing.T) {
		got := PostPipeline.Filter(posts, domain.FilterSpec{Search: "QUI", Category: domain.CategoryAll})
		assert.Equal(t, []int{1, 2}, ids(got))

		got = PostPipeline.Filter(posts, domain.FilterSpec{Search: "quo"})
		assert.Equal(t, []int{3}, ids(got))
	})

	t.Run("empty term is identity", func(t *testing.T) {
		got := PostPipeline.Filter(posts, domain.FilterSpec{Category: domain.CategoryAll})
		require.Len(t, got, 3)
		assert.Same(t, &posts[0], &got[0])
	})

	t.Run("no match yields empty", func(t *testing.T) {
		got := PostPipeline.Filter(posts, domain.FilterSpec{Search: "zzz"})
		assert.Empty(t, got)
	})
}

func TestFilterCategory(t *testing.T) {
	todos := []domain.Todo{
		{ID: 1, Title: "a", Completed: true},
		{ID: 2, Title: "b"},
		{ID: 3, Title: "c", Completed: true},
	}
	got := TodoPipeline.Filter(todos, domain.FilterSpec{Category: domain.TodoCompleted})
	assert.Equal(t, []int{1, 3}, ids(got))

	got = TodoPipeline.Filter(todos, domain.FilterSpec{Category: domain.TodoPending, Search: "b"})
	assert.Equal(t, []int{2}, ids(got))
}

func TestSortStable(t *testing.T) {
	todos := []domain.Todo{
		{ID: 4, UserID: 2},
		{ID: 1, UserID: 1},
		{ID: 3, UserID: 2},
		{ID: 2, UserID: 1},
	}

	asc := TodoPipeline.Sort(todos, "userId", domain.SortAscending)
	assert.Equal(t, []int{1, 2, 4, 3}, ids(asc))

	desc := TodoPipeline.Sort(todos, "userId", domain.SortDescending)
	assert.Equal(t, []int{4, 3, 1, 2}, ids(desc))

	for i := 0; i < 5; i++ {
		assert.Equal(t, ids(asc), ids(TodoPipeline.Sort(todos, "userId", domain.SortAscending)))
	}

	assert.Equal(t, []int{4, 1, 3, 2}, ids(todos), "input must not be reordered")
	assert.Equal(t, ids(todos), ids(TodoPipeline.Sort(todos, "nope", domain.SortAscending)))
}

func TestSortText(t *testing.T) {
	users := []domain.User{{ID: 1, Name: "Leanne"}, {ID: 2, Name: "Ervin"}, {ID: 3, Name: "Clementine"}}
	got := UserPipeline.Sort(users, "name", domain.SortAscending)
	assert.Equal(t, []int{3, 2, 1}, ids(got))
}

func TestPaginate(t *testing.T) {
	posts := samplePosts(25)

	tests := []struct {
		name    string
		page    int
		want    []int
		hasNext bool
		hasPrev bool
	}{
		{"first page", 1, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, true, false},
		{"last partial page", 3, []int{21, 22, 23, 24, 25}, false, true},
		{"past the end", 4, []int{}, false, true},
		{"clamped below one", 0, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, true, false},
		{"largest page number", math.MaxInt, []int{}, false, true},
		{"page whose offset overflows", math.MaxInt/10 + 2, []int{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Paginate(posts, domain.Pagination{Page: tt.page, PageSize: 10})
			require.NotNil(t, res.Items)
			assert.Equal(t, tt.want, ids(res.Items))
			assert.Equal(t, 25, res.TotalItems)
			assert.Equal(t, 3, res.TotalPages)
			assert.Equal(t, tt.hasNext, res.HasNext)
			assert.Equal(t, tt.hasPrev, res.HasPrev)
		})
	}

	empty := Paginate[domain.Post](nil, domain.Pagination{Page: 1, PageSize: 10})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestSummarizeTodos(t *testing.T) {
	stats := SummarizeTodos([]domain.Todo{{ID: 1, Completed: true}, {ID: 2}, {ID: 3}, {ID: 4, Completed: true}})
	assert.Equal(t, TodoStats{Total: 4, Completed: 2, Pending: 2, CompletionRate: 0.5}, stats)
	assert.Equal(t, TodoStats{}, SummarizeTodos(nil))

	counts := CountBy(samplePosts(25), func(p domain.Post) int { return p.UserID })
	assert.Equal(t, map[int]int{1: 10, 2: 10, 3: 5}, counts)
}

func ids[T domain.Record](items []T) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.RecordID())
	}
	return out
}
