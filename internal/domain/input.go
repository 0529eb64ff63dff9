package domain

// Mutation payloads. Field rules are enforced with validator struct tags
// before a request is dispatched.

type PostInput struct {
	UserID int    `json:"userId" validate:"required,gt=0"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"max=10000"`
}

type TodoInput struct {
	UserID    int    `json:"userId" validate:"required,gt=0"`
	Title     string `json:"title" validate:"required,max=200"`
	Completed bool   `json:"completed"`
}

type CommentInput struct {
	PostID int    `json:"postId" validate:"required,gt=0"`
	Name   string `json:"name" validate:"required,max=200"`
	Email  string `json:"email" validate:"required,email"`
	Body   string `json:"body" validate:"required"`
}

type UserInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,alphanum,max=50"`
	Email    string `json:"email" validate:"required,email"`
}
