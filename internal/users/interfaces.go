package users

import (
	"context"
)

// UserStore defines the interface for user storage operations.
// Implementations enforce email uniqueness and assign IDs; they apply no business validation.
type UserStore interface {
	ListUsers(ctx context.Context) ([]*User, error)
	GetUser(ctx context.Context, userID string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) (*User, error)
	UpdateUser(ctx context.Context, userID string, patch *UserPatch) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// UserService defines the interface for user service operations
type UserService interface {
	ListUsers(ctx context.Context) ([]UserView, error)
	GetUser(ctx context.Context, userID string) (*UserView, error)
	CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error)
	UpdateUser(ctx context.Context, userID string, req *UpdateUserRequest) (*MessageResponse, error)
	DeleteUser(ctx context.Context, userID string) (*MessageResponse, error)
}
