package store

import (
	"testing"

	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unknownAction struct{}

func (unknownAction) isAction() {}

func TestCollectionCopyOnWrite(t *testing.T) {
	base := NewCollection(domain.Post{ID: 1, Title: "a"}, domain.Post{ID: 2, Title: "b"})

	next := base.Upsert(domain.Post{ID: 2, Title: "b2"}, domain.Post{ID: 3, Title: "c"})
	assert.Equal(t, []int{1, 2}, base.IDs())
	assert.Equal(t, []int{1, 2, 3}, next.IDs())

	p, ok := base.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b", p.Title)

	p, _ = next.Get(2)
	assert.Equal(t, "b2", p.Title)

	removed, ok := next.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, []int{2, 3}, removed.IDs())
	assert.Equal(t, 3, next.Len())

	_, ok = removed.Remove(42)
	assert.False(t, ok)
}

func TestReduceRecords(t *testing.T) {
	s := InitialState()

	s, err := Reduce(s, ReplaceRecords[domain.Todo]{Records: []domain.Todo{{ID: 1, Title: "one"}, {ID: 2, Title: "two"}}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Rev.Todos)
	assert.Equal(t, 2, s.Todos.Len())

	t.Run("identical replace keeps revision", func(t *testing.T) {
		again, err := Reduce(s, ReplaceRecords[domain.Todo]{Records: []domain.Todo{{ID: 1, Title: "one"}, {ID: 2, Title: "two"}}})
		require.NoError(t, err)
		assert.Equal(t, s.Rev, again.Rev)
	})

	t.Run("upsert merges", func(t *testing.T) {
		next, err := Reduce(s, UpsertRecords[domain.Todo]{Records: []domain.Todo{{ID: 2, Title: "two", Completed: true}}})
		require.NoError(t, err)
		assert.Equal(t, uint64(2), next.Rev.Todos)
		got, _ := next.Todos.Get(2)
		assert.True(t, got.Completed)
		assert.Equal(t, uint64(0), next.Rev.Posts)
	})

	t.Run("remove", func(t *testing.T) {
		next, err := Reduce(s, RemoveRecord[domain.Todo]{ID: 1})
		require.NoError(t, err)
		assert.Equal(t, []int{2}, next.Todos.IDs())

		same, err := Reduce(next, RemoveRecord[domain.Todo]{ID: 1})
		require.NoError(t, err)
		assert.Equal(t, next.Rev, same.Rev)
	})
}

func TestReduceFilterRewindsPage(t *testing.T) {
	s := InitialState()
	s, err := Reduce(s, SetPage{Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Page.Page)

	s, err = Reduce(s, SetFilter{Filter: domain.FilterSpec{Search: "qui"}})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Page.Page)
	assert.Equal(t, domain.CategoryAll, s.Filter.Category)
	assert.Equal(t, "id", s.Filter.SortBy)

	rev := s.Rev
	s, err = Reduce(s, SetFilter{Filter: domain.FilterSpec{Search: "qui"}})
	require.NoError(t, err)
	assert.Equal(t, rev, s.Rev, "equal filter value must not bump the revision")
}

func TestReducePageClamp(t *testing.T) {
	s, err := Reduce(InitialState(), SetPage{Page: -2})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Page.Page)
}

func TestReduceRejects(t *testing.T) {
	s := InitialState()

	_, err := Reduce(s, unknownAction{})
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	_, err = Reduce(s, Login{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Reduce(s, SetTheme{Theme: "sepia"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReduceUI(t *testing.T) {
	s := InitialState()
	s, _ = Reduce(s, SetTheme{Theme: ThemeDark})
	s, _ = Reduce(s, OpenModal{Name: "new-post"})
	s, _ = Reduce(s, Notify{Message: "saved", Level: "info"})
	assert.Equal(t, ThemeDark, s.UI.Theme)
	assert.Equal(t, "new-post", s.UI.Modal)
	require.NotNil(t, s.UI.Notification)

	s, _ = Reduce(s, CloseModal{})
	s, _ = Reduce(s, DismissNotification{})
	assert.Empty(t, s.UI.Modal)
	assert.Nil(t, s.UI.Notification)
}

func TestStoreDispatchNotifies(t *testing.T) {
	st := New(InitialState(), nil)

	var calls int
	var last State
	unsubscribe := st.Subscribe(func(prev, next State) {
		calls++
		last = next
	})

	require.NoError(t, st.Dispatch(Login{Token: "abc", UserID: 1}))
	assert.Equal(t, 1, calls)
	assert.True(t, last.Session.Authenticated())

	// no-op transitions do not notify
	require.NoError(t, st.Dispatch(Login{Token: "abc", UserID: 1}))
	assert.Equal(t, 1, calls)

	// rejected actions leave the state untouched
	before := st.State()
	assert.Error(t, st.Dispatch(unknownAction{}))
	assert.Equal(t, before, st.State())

	unsubscribe()
	require.NoError(t, st.Dispatch(Logout{}))
	assert.Equal(t, 1, calls)
	assert.False(t, st.State().Session.Authenticated())
}
