package users

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// TestMongoStoreIntegration runs against a live MongoDB and is skipped when none is reachable
func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("MongoDB not available, skipping integration test: %v", err)
		return
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("MongoDB not reachable, skipping integration test: %v", err)
		return
	}

	store := NewMongoStore(client, "usermgr_test", "users")
	t.Cleanup(func() {
		_ = client.Database("usermgr_test").Drop(context.Background())
		_ = store.Close(context.Background())
	})

	require.NoError(t, store.EnsureIndexes(context.Background()))
	assert.Equal(t, "mongodb", store.Name())
	require.NoError(t, store.HealthCheck(context.Background()))

	runStoreContract(t, store)

	t.Run("non hex ids are not found", func(t *testing.T) {
		_, err := store.GetUser(context.Background(), "not-an-object-id")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.ErrorIs(t, store.DeleteUser(context.Background(), "not-an-object-id"), ErrUserNotFound)
	})
}

func TestUserDocumentToUser(t *testing.T) {
	created := UserDocument{
		ID:        primitive.NewObjectID(),
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Age:       time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	user := created.toUser()

	assert.Equal(t, created.ID.Hex(), user.ID)
	assert.Equal(t, "John", user.FirstName)
	assert.Equal(t, "1990-05-01", FormatAge(user.Age))
}
