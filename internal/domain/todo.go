package domain

import (
	"strconv"
	"strings"
)

// Record is a domain entity with a stable identifier.
type Record interface {
	RecordID() int
}

type Todo struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func (t Todo) RecordID() int { return t.ID }

// Status reports the todo state as used by category filters.
func (t Todo) Status() string {
	if t.Completed {
		return TodoCompleted
	}
	return TodoPending
}

const (
	TodoCompleted = "completed"
	TodoPending   = "pending"
)

type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

func (p Post) RecordID() int { return p.ID }

type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"postId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

func (c Comment) RecordID() int { return c.ID }

type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (u User) RecordID() int { return u.ID }

// ResourceType names a remote collection and doubles as its cache tag type.
type ResourceType string

const (
	ResourcePosts    ResourceType = "posts"
	ResourceTodos    ResourceType = "todos"
	ResourceUsers    ResourceType = "users"
	ResourceComments ResourceType = "comments"
)

// TagType returns the invalidation tag type for the resource ("Post", "Todo", ...).
func (r ResourceType) TagType() string {
	s := strings.TrimSuffix(string(r), "s")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Path returns the collection path, or the item path when id > 0.
func (r ResourceType) Path(id int) string {
	if id > 0 {
		return "/" + string(r) + "/" + strconv.Itoa(id)
	}
	return "/" + string(r)
}

func (r ResourceType) Valid() bool {
	switch r {
	case ResourcePosts, ResourceTodos, ResourceUsers, ResourceComments:
		return true
	}
	return false
}
