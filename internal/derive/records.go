package derive

import (
	"strconv"

	"github.com/dmehra2102/PostDeck/internal/domain"
)

var PostPipeline = Pipeline[domain.Post]{
	SearchFields: func(p domain.Post) []string { return []string{p.Title, p.Body} },
	Category:     func(p domain.Post) string { return strconv.Itoa(p.UserID) },
	Sorters: map[string]Comparator[domain.Post]{
		"id":     ByInt(func(p domain.Post) int { return p.ID }),
		"userId": ByInt(func(p domain.Post) int { return p.UserID }),
		"title":  ByString(func(p domain.Post) string { return p.Title }),
	},
}

var TodoPipeline = Pipeline[domain.Todo]{
	SearchFields: func(t domain.Todo) []string { return []string{t.Title} },
	Category:     domain.Todo.Status,
	Sorters: map[string]Comparator[domain.Todo]{
		"id":        ByInt(func(t domain.Todo) int { return t.ID }),
		"userId":    ByInt(func(t domain.Todo) int { return t.UserID }),
		"title":     ByString(func(t domain.Todo) string { return t.Title }),
		"completed": ByBool(func(t domain.Todo) bool { return t.Completed }),
	},
}

var UserPipeline = Pipeline[domain.User]{
	SearchFields: func(u domain.User) []string { return []string{u.Name, u.Username, u.Email} },
	Sorters: map[string]Comparator[domain.User]{
		"id":       ByInt(func(u domain.User) int { return u.ID }),
		"name":     ByString(func(u domain.User) string { return u.Name }),
		"username": ByString(func(u domain.User) string { return u.Username }),
	},
}

var CommentPipeline = Pipeline[domain.Comment]{
	SearchFields: func(c domain.Comment) []string { return []string{c.Name, c.Email, c.Body} },
	Category:     func(c domain.Comment) string { return strconv.Itoa(c.PostID) },
	Sorters: map[string]Comparator[domain.Comment]{
		"id":   ByInt(func(c domain.Comment) int { return c.ID }),
		"name": ByString(func(c domain.Comment) string { return c.Name }),
	},
}
