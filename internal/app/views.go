package app

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/dmehra2102/PostDeck/internal/derive"
	"github.com/dmehra2102/PostDeck/internal/domain"
	"github.com/dmehra2102/PostDeck/internal/store"
	lru "github.com/hashicorp/golang-lru"
)

// maxParameterizedViews bounds how many parameter sets keep a built node.
const maxParameterizedViews = 256

// View names served by Core.View.
const (
	ViewPosts        = "posts.visible"
	ViewPostsPage    = "posts.page"
	ViewPostsByUser  = "posts.byUser"
	ViewPostCounts   = "posts.countByUser"
	ViewTodos        = "todos.visible"
	ViewTodosPage    = "todos.page"
	ViewTodoStats    = "todos.stats"
	ViewUsers        = "users.visible"
	ViewUsersPage    = "users.page"
	ViewPostComments = "comments.byPost"
	ViewFilter       = "filter"
	ViewPagination   = "pagination"
	ViewSession      = "session"
	ViewUI           = "ui"
)

// view is a derivation with its value type erased.
type view interface {
	read() (any, uint64)
}

type reader[T any] interface {
	Read() (T, uint64)
}

type erased[T any] struct {
	node reader[T]
}

func (e erased[T]) read() (any, uint64) {
	v, r := e.node.Read()
	return v, r
}

func erase[T any](n reader[T]) view { return erased[T]{node: n} }

// viewFactory builds a view. params lists the parameters the view accepts.
type viewFactory struct {
	params []string
	build  func(r *viewRegistry, params map[string]string) (view, error)
}

// viewRegistry builds each view once per distinct parameter set and keeps it,
// so repeated reads share one memoized node. Parameterized views are kept in
// an LRU; a subscription holds its node even after it is evicted.
type viewRegistry struct {
	mu            sync.Mutex
	factories     map[string]viewFactory
	built         map[string]view
	parameterized *lru.Cache

	posts    *derive.Selected[store.State, []domain.Post]
	todos    *derive.Selected[store.State, []domain.Todo]
	users    *derive.Selected[store.State, []domain.User]
	comments *derive.Selected[store.State, []domain.Comment]
	filter   *derive.Selected[store.State, domain.FilterSpec]
	page     *derive.Selected[store.State, domain.Pagination]
	session  *derive.Selected[store.State, store.Session]
	ui       *derive.Selected[store.State, store.UIFlags]

	visiblePosts *derive.Derived[[]domain.Post]
	visibleTodos *derive.Derived[[]domain.Todo]
	visibleUsers *derive.Derived[[]domain.User]
}

func newViewRegistry(st *store.Store) *viewRegistry {
	parameterized, err := lru.New(maxParameterizedViews)
	if err != nil {
		panic(err)
	}
	r := &viewRegistry{
		built:         make(map[string]view),
		parameterized: parameterized,

		posts: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.Posts },
			func(s store.State) []domain.Post { return s.Posts.Items() }),
		todos: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.Todos },
			func(s store.State) []domain.Todo { return s.Todos.Items() }),
		users: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.Users },
			func(s store.State) []domain.User { return s.Users.Items() }),
		comments: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.Comments },
			func(s store.State) []domain.Comment { return s.Comments.Items() }),
		filter: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.Filter },
			func(s store.State) domain.FilterSpec { return s.Filter }),
		page: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.Page },
			func(s store.State) domain.Pagination { return s.Page }),
		session: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.Session },
			func(s store.State) store.Session { return s.Session }),
		ui: derive.Select(st.State,
			func(s store.State) uint64 { return s.Rev.UI },
			func(s store.State) store.UIFlags { return s.UI }),
	}

	r.visiblePosts = derive.Derive2(ViewPosts, r.posts, r.filter, derive.PostPipeline.Visible)
	r.visibleTodos = derive.Derive2(ViewTodos, r.todos, r.filter, derive.TodoPipeline.Visible)
	r.visibleUsers = derive.Derive2(ViewUsers, r.users, r.filter, derive.UserPipeline.Visible)

	r.factories = map[string]viewFactory{
		ViewPosts:        fixed(func(r *viewRegistry) view { return erase(r.visiblePosts) }),
		ViewTodos:        fixed(func(r *viewRegistry) view { return erase(r.visibleTodos) }),
		ViewUsers:        fixed(func(r *viewRegistry) view { return erase(r.visibleUsers) }),
		ViewPostsPage:    fixed(buildPostsPage),
		ViewTodosPage:    fixed(buildTodosPage),
		ViewUsersPage:    fixed(buildUsersPage),
		ViewTodoStats:    fixed(buildTodoStats),
		ViewPostCounts:   fixed(buildPostCounts),
		ViewPostsByUser:  {params: []string{"userId"}, build: buildPostsByUser},
		ViewPostComments: {params: []string{"postId"}, build: buildPostComments},
		ViewFilter:       fixed(func(r *viewRegistry) view { return erase(r.filter) }),
		ViewPagination:   fixed(func(r *viewRegistry) view { return erase(r.page) }),
		ViewSession:      fixed(func(r *viewRegistry) view { return erase(r.session) }),
		ViewUI:           fixed(func(r *viewRegistry) view { return erase(r.ui) }),
	}
	return r
}

func fixed(build func(r *viewRegistry) view) viewFactory {
	return viewFactory{build: func(r *viewRegistry, _ map[string]string) (view, error) {
		return build(r), nil
	}}
}

// lookup returns the view for name and params, building it on first use.
// Parameters the view does not accept are rejected.
func (r *viewRegistry) lookup(name string, params map[string]string) (view, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownView, name)
	}
	for k := range params {
		if !slices.Contains(factory.params, k) {
			return nil, domain.ValidationError("view "+name, fmt.Errorf("unknown parameter %q", k))
		}
	}
	id := viewID(name, params)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(factory.params) == 0 {
		if v, ok := r.built[id]; ok {
			return v, nil
		}
	} else if v, ok := r.parameterized.Get(id); ok {
		return v.(view), nil
	}

	v, err := factory.build(r, params)
	if err != nil {
		return nil, err
	}
	if len(factory.params) == 0 {
		r.built[id] = v
	} else {
		r.parameterized.Add(id, v)
	}
	return v, nil
}

func (r *viewRegistry) names() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

func viewID(name string, params map[string]string) string {
	if len(params) == 0 {
		return name
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return name + "?" + q.Encode()
}

func intParam(view string, params map[string]string, name string) (int, error) {
	raw, ok := params[name]
	if !ok {
		return 0, domain.ValidationError("view "+view, fmt.Errorf("missing parameter %q", name))
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, domain.ValidationError("view "+view, fmt.Errorf("parameter %q must be a positive integer", name))
	}
	return n, nil
}

func buildPostsPage(r *viewRegistry) view {
	return erase(derive.Derive2(ViewPostsPage, r.visiblePosts, r.page, derive.Paginate[domain.Post]))
}

func buildTodosPage(r *viewRegistry) view {
	return erase(derive.Derive2(ViewTodosPage, r.visibleTodos, r.page, derive.Paginate[domain.Todo]))
}

func buildUsersPage(r *viewRegistry) view {
	return erase(derive.Derive2(ViewUsersPage, r.visibleUsers, r.page, derive.Paginate[domain.User]))
}

func buildTodoStats(r *viewRegistry) view {
	return erase(derive.Derive1(ViewTodoStats, r.todos, derive.SummarizeTodos,
		derive.WithEqual(func(a, b derive.TodoStats) bool { return a == b })))
}

func buildPostCounts(r *viewRegistry) view {
	return erase(derive.Derive1(ViewPostCounts, r.posts,
		func(posts []domain.Post) map[int]int {
			return derive.CountBy(posts, func(p domain.Post) int { return p.UserID })
		},
		derive.WithEqual(func(a, b map[int]int) bool { return maps.Equal(a, b) }),
	))
}

func buildPostsByUser(r *viewRegistry, params map[string]string) (view, error) {
	userID, err := intParam(ViewPostsByUser, params, "userId")
	if err != nil {
		return nil, err
	}
	return erase(derive.Derive1(ViewPostsByUser, r.posts, func(posts []domain.Post) []domain.Post {
		return derive.Where(posts, func(p domain.Post) bool { return p.UserID == userID })
	})), nil
}

func buildPostComments(r *viewRegistry, params map[string]string) (view, error) {
	postID, err := intParam(ViewPostComments, params, "postId")
	if err != nil {
		return nil, err
	}
	return erase(derive.Derive1(ViewPostComments, r.comments, func(comments []domain.Comment) []domain.Comment {
		return derive.Where(comments, func(c domain.Comment) bool { return c.PostID == postID })
	})), nil
}

// View returns the current value of a named view and its revision. The
// revision changes only when the value's identity changed.
func (c *Core) View(name string, params map[string]string) (any, uint64, error) {
	v, err := c.views.lookup(name, params)
	if err != nil {
		return nil, 0, err
	}
	value, rev := v.read()
	return value, rev, nil
}

// Views lists the registered view names.
func (c *Core) Views() []string {
	return c.views.names()
}

// ViewFunc receives a view's new value after its identity changed.
type ViewFunc func(value any, revision uint64)

type subscription struct {
	view view
	fn   ViewFunc

	mu   sync.Mutex
	last uint64
}

// Subscribe calls fn after every dispatch that changed the view's output.
// fn runs on the dispatching goroutine and must not dispatch itself.
func (c *Core) Subscribe(name string, params map[string]string, fn ViewFunc) (func(), error) {
	v, err := c.views.lookup(name, params)
	if err != nil {
		return nil, err
	}
	_, rev := v.read()
	sub := &subscription{view: v, fn: fn, last: rev}

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscriptions[id] = sub
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscriptions, id)
	}, nil
}

func (c *Core) onStateChange(_, _ store.State) {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subscriptions))
	for _, s := range c.subscriptions {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		value, rev := s.view.read()
		s.mu.Lock()
		changed := rev != s.last
		s.last = rev
		s.mu.Unlock()
		if changed {
			s.fn(value, rev)
		}
	}
}
