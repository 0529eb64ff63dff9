package derive

import "github.com/dmehra2102/PostDeck/internal/domain"

// TodoStats summarizes a set of todos.
type TodoStats struct {
	Total          int
	Completed      int
	Pending        int
	CompletionRate float64
}

func SummarizeTodos(todos []domain.Todo) TodoStats {
	var s TodoStats
	for _, t := range todos {
		if t.Completed {
			s.Completed++
		}
	}
	s.Total = len(todos)
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total)
	}
	return s
}

// CountBy groups items by key and counts each group.
func CountBy[T any, K comparable](items []T, key func(T) K) map[K]int {
	out := make(map[K]int)
	for _, it := range items {
		out[key(it)]++
	}
	return out
}

// Where keeps the items for which keep returns true.
func Where[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
