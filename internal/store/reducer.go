package store

import (
	"fmt"

	"github.com/dmehra2102/PostDeck/internal/domain"
)

// Reduce applies an action to s and returns the next state. s is never
// modified. Revisions advance only for slices whose value actually changed.
func Reduce(s State, action Action) (State, error) {
	next := s
	switch a := action.(type) {
	case ReplaceRecords[domain.Post]:
		next.Posts = replaceAll(s.Posts, a.Records, &next.Rev.Posts)
	case ReplaceRecords[domain.Todo]:
		next.Todos = replaceAll(s.Todos, a.Records, &next.Rev.Todos)
	case ReplaceRecords[domain.User]:
		next.Users = replaceAll(s.Users, a.Records, &next.Rev.Users)
	case ReplaceRecords[domain.Comment]:
		next.Comments = replaceAll(s.Comments, a.Records, &next.Rev.Comments)

	case UpsertRecords[domain.Post]:
		next.Posts = upsertMany(s.Posts, a.Records, &next.Rev.Posts)
	case UpsertRecords[domain.Todo]:
		next.Todos = upsertMany(s.Todos, a.Records, &next.Rev.Todos)
	case UpsertRecords[domain.User]:
		next.Users = upsertMany(s.Users, a.Records, &next.Rev.Users)
	case UpsertRecords[domain.Comment]:
		next.Comments = upsertMany(s.Comments, a.Records, &next.Rev.Comments)

	case RemoveRecord[domain.Post]:
		next.Posts = removeOne(s.Posts, a.ID, &next.Rev.Posts)
	case RemoveRecord[domain.Todo]:
		next.Todos = removeOne(s.Todos, a.ID, &next.Rev.Todos)
	case RemoveRecord[domain.User]:
		next.Users = removeOne(s.Users, a.ID, &next.Rev.Users)
	case RemoveRecord[domain.Comment]:
		next.Comments = removeOne(s.Comments, a.ID, &next.Rev.Comments)

	case SetFilter:
		f := a.Filter.Normalize()
		if f != s.Filter {
			next.Filter = f
			next.Rev.Filter++
			if s.Page.Page != 1 {
				next.Page.Page = 1
				next.Rev.Page++
			}
		}
	case SetPage:
		p := domain.Pagination{Page: a.Page, PageSize: s.Page.PageSize}.Normalize()
		setIfChanged(&next.Page, p, &next.Rev.Page)
	case SetPageSize:
		p := domain.Pagination{Page: 1, PageSize: a.PageSize}.Normalize()
		setIfChanged(&next.Page, p, &next.Rev.Page)

	case Login:
		if a.Token == "" {
			return s, domain.ValidationError("login", fmt.Errorf("token is required"))
		}
		setIfChanged(&next.Session, Session{Token: a.Token, UserID: a.UserID}, &next.Rev.Session)
	case Logout:
		setIfChanged(&next.Session, Session{}, &next.Rev.Session)

	case SetTheme:
		if a.Theme != ThemeLight && a.Theme != ThemeDark {
			return s, domain.ValidationError("set theme", fmt.Errorf("unknown theme %q", a.Theme))
		}
		if a.Theme != s.UI.Theme {
			next.UI.Theme = a.Theme
			next.Rev.UI++
		}
	case OpenModal:
		if a.Name != s.UI.Modal {
			next.UI.Modal = a.Name
			next.Rev.UI++
		}
	case CloseModal:
		if s.UI.Modal != "" {
			next.UI.Modal = ""
			next.Rev.UI++
		}
	case Notify:
		next.UI.Notification = &Notification{Message: a.Message, Level: a.Level}
		next.Rev.UI++
	case DismissNotification:
		if s.UI.Notification != nil {
			next.UI.Notification = nil
			next.Rev.UI++
		}

	default:
		return s, fmt.Errorf("%w: %T", domain.ErrUnknownAction, action)
	}
	return next, nil
}

func replaceAll[T Entity](c Collection[T], records []T, rev *uint64) Collection[T] {
	next := NewCollection(records...)
	if next.Equal(c) {
		return c
	}
	*rev++
	return next
}

func upsertMany[T Entity](c Collection[T], records []T, rev *uint64) Collection[T] {
	next := c.Upsert(records...)
	if next.Equal(c) {
		return c
	}
	*rev++
	return next
}

func removeOne[T Entity](c Collection[T], id int, rev *uint64) Collection[T] {
	next, ok := c.Remove(id)
	if ok {
		*rev++
	}
	return next
}

func setIfChanged[T comparable](dst *T, v T, rev *uint64) {
	if *dst != v {
		*dst = v
		*rev++
	}
}
