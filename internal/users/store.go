package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// UserSchema represents the users table schema in PostgreSQL and SQLite
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk" json:"id"`
	FirstName string    `bun:"first_name,notnull" json:"first_name"`
	LastName  string    `bun:"last_name,notnull" json:"last_name"`
	Email     string    `bun:"email,notnull,unique" json:"email"`
	Age       time.Time `bun:"age,notnull" json:"age"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// UserStoreImpl implements the UserStore interface on top of bun
type UserStoreImpl struct {
	db *bun.DB
}

// NewUserStore creates a new user store instance
func NewUserStore(db *bun.DB) *UserStoreImpl {
	return &UserStoreImpl{
		db: db,
	}
}

// CreateSchema creates the users table and its indexes if they do not exist
func (s *UserStoreImpl) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*UserSchema)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*UserSchema)(nil)).
		Index("idx_users_created_at").
		Column("created_at").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	return nil
}

// ListUsers returns every user in insertion order
func (s *UserStoreImpl) ListUsers(ctx context.Context) ([]*User, error) {
	var rows []UserSchema
	err := s.db.NewSelect().
		Model(&rows).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, UserSchemaToUser(row))
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (s *UserStoreImpl) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.getBy(ctx, s.db, "id", userID, false)
}

// GetUserByEmail retrieves a user by email
func (s *UserStoreImpl) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getBy(ctx, s.db, "email", email, false)
}

// CreateUser assigns an ID and persists a new user
func (s *UserStoreImpl) CreateUser(ctx context.Context, user *User) (*User, error) {
	now := time.Now().UTC()

	created := *user
	created.ID = uuid.NewString()
	created.Age = user.Age.UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	userSchema := UserToUserSchema(&created)

	_, err := s.db.NewInsert().
		Model(&userSchema).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &created, nil
}

// UpdateUser merges patch over the stored user inside a transaction
func (s *UserStoreImpl) UpdateUser(ctx context.Context, userID string, patch *UserPatch) (*User, error) {
	var updated *User

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.getBy(ctx, tx, "id", userID, true)
		if err != nil {
			return err
		}

		patch.Apply(user)
		user.UpdatedAt = time.Now().UTC()

		userSchema := UserToUserSchema(user)
		result, err := tx.NewUpdate().
			Model(&userSchema).
			WherePK().
			Exec(ctx)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("failed to update user: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrUserNotFound
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteUser removes a user
func (s *UserStoreImpl) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.NewDelete().
		Model((*UserSchema)(nil)).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Name reports the backend for health output
func (s *UserStoreImpl) Name() string {
	if s.db.Dialect().Name() == dialect.SQLite {
		return "sqlite"
	}
	return "postgres"
}

// HealthCheck pings the database
func (s *UserStoreImpl) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *UserStoreImpl) Close(_ context.Context) error {
	return s.db.Close()
}

func (s *UserStoreImpl) getBy(ctx context.Context, db bun.IDB, column, value string, forUpdate bool) (*User, error) {
	userSchema := new(UserSchema)
	query := db.NewSelect().
		Model(userSchema).
		Where("? = ?", bun.Ident(column), value)
	if forUpdate && s.db.Dialect().Name() == dialect.PG {
		query = query.For("UPDATE")
	}

	if err := query.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return UserSchemaToUser(*userSchema), nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// Helper conversion functions
func UserSchemaToUser(schema UserSchema) *User {
	return &User{
		ID:        schema.ID,
		FirstName: schema.FirstName,
		LastName:  schema.LastName,
		Email:     schema.Email,
		Age:       schema.Age.UTC(),
		CreatedAt: schema.CreatedAt.UTC(),
		UpdatedAt: schema.UpdatedAt.UTC(),
	}
}

func UserToUserSchema(user *User) UserSchema {
	return UserSchema{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Age:       user.Age,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
