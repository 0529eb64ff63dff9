package store

import "github.com/dmehra2102/PostDeck/internal/domain"

// Action is a typed state transition. The set is closed: only types in this
// package implement it, and Reduce matches every one of them.
type Action interface {
	isAction()
}

// Storable lists the record types the store keeps collections for.
type Storable interface {
	domain.Post | domain.Todo | domain.User | domain.Comment
	Entity
}

// ReplaceRecords swaps a whole collection, e.g. after a list fetch.
type ReplaceRecords[T Storable] struct {
	Records []T
}

// UpsertRecords inserts or merges records by ID, keeping the position of
// records already present.
type UpsertRecords[T Storable] struct {
	Records []T
}

// RemoveRecord deletes a record by ID.
type RemoveRecord[T Storable] struct {
	ID int
}

// SetFilter replaces the filter spec and rewinds to the first page.
type SetFilter struct {
	Filter domain.FilterSpec
}

type SetPage struct {
	Page int
}

type SetPageSize struct {
	PageSize int
}

type Login struct {
	Token  string
	UserID int
}

type Logout struct{}

type SetTheme struct {
	Theme Theme
}

type OpenModal struct {
	Name string
}

type CloseModal struct{}

type Notify struct {
	Message string
	Level   string
}

type DismissNotification struct{}

func (ReplaceRecords[T]) isAction()   {}
func (UpsertRecords[T]) isAction()    {}
func (RemoveRecord[T]) isAction()     {}
func (SetFilter) isAction()           {}
func (SetPage) isAction()             {}
func (SetPageSize) isAction()         {}
func (Login) isAction()               {}
func (Logout) isAction()              {}
func (SetTheme) isAction()            {}
func (OpenModal) isAction()           {}
func (CloseModal) isAction()          {}
func (Notify) isAction()              {}
func (DismissNotification) isAction() {}
