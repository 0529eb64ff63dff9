package store

import "github.com/dmehra2102/PostDeck/internal/domain"

// Session holds the optional bearer credentials of the signed-in user.
type Session struct {
	Token  string
	UserID int
}

func (s Session) Authenticated() bool { return s.Token != "" }

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type Notification struct {
	Message string
	Level   string
}

// UIFlags are raw presentation flags written by the UI layer.
type UIFlags struct {
	Theme        Theme
	Modal        string
	Notification *Notification
}

// Revisions counts changes per state slice. Derivations compare revisions
// instead of deep values to decide whether to recompute.
type Revisions struct {
	Posts    uint64
	Todos    uint64
	Users    uint64
	Comments uint64
	Filter   uint64
	Page     uint64
	Session  uint64
	UI       uint64
}

// State is the canonical, normalized application state. Values are never
// mutated in place. Reduce returns a new State for every change.
type State struct {
	Posts    Collection[domain.Post]
	Todos    Collection[domain.Todo]
	Users    Collection[domain.User]
	Comments Collection[domain.Comment]

	Filter  domain.FilterSpec
	Page    domain.Pagination
	Session Session
	UI      UIFlags

	Rev Revisions
}

func InitialState() State {
	return State{
		Filter: domain.DefaultFilter(),
		Page:   domain.DefaultPagination(),
		UI:     UIFlags{Theme: ThemeLight},
	}
}
