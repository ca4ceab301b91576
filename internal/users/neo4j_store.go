package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

// Neo4jStore implements UserStore with (:User) nodes
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ UserStore = (*Neo4jStore)(nil)

// NewNeo4jStore creates a user store on the given database
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
	}
}

// EnsureConstraints creates the id and email uniqueness constraints
func (s *Neo4jStore) EnsureConstraints(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
		"CREATE CONSTRAINT user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE",
	}

	for _, constraint := range constraints {
		result, err := session.Run(ctx, constraint, nil)
		if err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}

	return nil
}

// ListUsers returns every user ordered by creation time
func (s *Neo4jStore) ListUsers(ctx context.Context) ([]*User, error) {
	result, err := s.read(ctx, "MATCH (u:User) RETURN u ORDER BY u.created_at, u.id", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(result.Records))
	for _, record := range result.Records {
		user, err := userFromRecord(record)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (s *Neo4jStore) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.findOne(ctx, "MATCH (u:User {id: $value}) RETURN u", userID)
}

// GetUserByEmail retrieves a user by email
func (s *Neo4jStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, "MATCH (u:User {email: $value}) RETURN u", email)
}

// CreateUser assigns an ID and creates the node
func (s *Neo4jStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	now := time.Now().UTC()

	query := `
		CREATE (u:User {
			id: $id,
			first_name: $first_name,
			last_name: $last_name,
			email: $email,
			age: $age,
			created_at: $now,
			updated_at: $now
		})
		RETURN u
	`

	params := map[string]any{
		"id":         uuid.NewString(),
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"age":        user.Age.UTC(),
		"now":        now,
	}

	result, err := s.write(ctx, query, params)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("failed to create user: no node returned")
	}

	return userFromRecord(result.Records[0])
}

// UpdateUser sets the supplied properties on the node
func (s *Neo4jStore) UpdateUser(ctx context.Context, userID string, patch *UserPatch) (*User, error) {
	props := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if patch.FirstName != nil {
		props["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		props["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		props["email"] = *patch.Email
	}
	if patch.Age != nil {
		props["age"] = patch.Age.UTC()
	}

	result, err := s.write(ctx, "MATCH (u:User {id: $id}) SET u += $props RETURN u", map[string]any{
		"id":    userID,
		"props": props,
	})
	if err != nil {
		if isConstraintViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, ErrUserNotFound
	}

	return userFromRecord(result.Records[0])
}

// DeleteUser removes the node
func (s *Neo4jStore) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.write(ctx, "MATCH (u:User {id: $id}) DELETE u RETURN count(*) AS deleted", map[string]any{
		"id": userID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if len(result.Records) == 0 {
		return ErrUserNotFound
	}

	deleted, _ := result.Records[0].Get("deleted")
	if count, ok := deleted.(int64); !ok || count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Neo4jStore) Name() string {
	return "neo4j"
}

// HealthCheck verifies the driver can reach the server
func (s *Neo4jStore) HealthCheck(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close closes the driver
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) findOne(ctx context.Context, query, value string) (*User, error) {
	result, err := s.read(ctx, query, map[string]any{"value": value})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, ErrUserNotFound
	}
	return userFromRecord(result.Records[0])
}

func (s *Neo4jStore) read(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting())
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithWritersRouting())
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && neoErr.Code == constraintViolationCode
}

func userFromRecord(record *neo4j.Record) (*User, error) {
	value, ok := record.Get("u")
	if !ok {
		return nil, fmt.Errorf("record has no user node")
	}
	node, ok := value.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("unexpected user value %T", value)
	}

	user := &User{}
	user.ID, _ = node.Props["id"].(string)
	user.FirstName, _ = node.Props["first_name"].(string)
	user.LastName, _ = node.Props["last_name"].(string)
	user.Email, _ = node.Props["email"].(string)
	if age, ok := node.Props["age"].(time.Time); ok {
		user.Age = age.UTC()
	}
	if createdAt, ok := node.Props["created_at"].(time.Time); ok {
		user.CreatedAt = createdAt.UTC()
	}
	if updatedAt, ok := node.Props["updated_at"].(time.Time); ok {
		user.UpdatedAt = updatedAt.UTC()
	}

	return user, nil
}
