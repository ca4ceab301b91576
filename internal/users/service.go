package users

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	store  UserStore
	logger *zap.Logger
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore, logger *zap.Logger) *UserServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserServiceImpl{
		store:  store,
		logger: logger,
	}
}

// ListUsers returns the read projection of every stored user
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, s.fail("list users", "", fmt.Errorf("failed to list users: %w", err))
	}

	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, user.View())
	}
	return views, nil
}

// GetUser returns the read projection of one user
func (s *UserServiceImpl) GetUser(ctx context.Context, userID string) (*UserView, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, s.fail("get user", userID, s.translate(userID, err))
	}

	view := user.View()
	return &view, nil
}

// CreateUser validates the request, rejects duplicate emails and stores the user
func (s *UserServiceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, s.fail("create user", "", err)
	}

	user, err := req.ToUser()
	if err != nil {
		return nil, s.fail("create user", "", err)
	}

	// Fast path for a friendly error; the store's unique constraint is authoritative
	_, err = s.store.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, s.fail("create user", "", NewUserAlreadyExistsError(nil))
	case !errors.Is(err, ErrUserNotFound):
		return nil, s.fail("create user", "", fmt.Errorf("failed to check if user exists: %w", err))
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, s.fail("create user", "", s.translate("", err))
	}

	s.logger.Info("User created", zap.String("user_id", created.ID))
	return created, nil
}

// UpdateUser merges the supplied fields over an existing user. Required-field checks are not re-applied.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID string, req *UpdateUserRequest) (*MessageResponse, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, s.fail("update user", userID, s.translate(userID, err))
	}

	patch, err := req.ToPatch()
	if err != nil {
		return nil, s.fail("update user", userID, err)
	}

	updated, err := s.store.UpdateUser(ctx, userID, patch)
	if err != nil {
		return nil, s.fail("update user", userID, s.translate(userID, err))
	}

	return &MessageResponse{
		Message: fmt.Sprintf("User - %s updated successfully", updated.FirstName),
	}, nil
}

// DeleteUser removes a user
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID string) (*MessageResponse, error) {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return nil, s.fail("delete user", userID, s.translate(userID, err))
	}

	s.logger.Info("User deleted", zap.String("user_id", userID))
	return &MessageResponse{
		Message: fmt.Sprintf("User with id - %s deleted", userID),
	}, nil
}

// translate maps store sentinels onto client-facing errors
func (s *UserServiceImpl) translate(userID string, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewUserNotFoundError(userID)
	case errors.Is(err, ErrEmailTaken):
		return NewUserAlreadyExistsError(err)
	default:
		return fmt.Errorf("store failure: %w", err)
	}
}

// fail logs a failed operation and hands the error back
func (s *UserServiceImpl) fail(operation, userID string, err error) error {
	fields := []zap.Field{zap.String("operation", operation), zap.Error(err)}
	if userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}

	if ErrorType(err) != "" {
		s.logger.Warn("User operation rejected", fields...)
	} else {
		s.logger.Error("User operation failed", fields...)
	}
	return err
}
