package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"todo-project/microservices/tasks-service/config"
)

func TestOpenStorage_Memory(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Storage.Backend = config.BackendMemory

	st, err := openStorage(cfg)
	require.NoError(t, err)
	t.Cleanup(st.close)

	ctx := context.Background()
	user, err := st.users.EnsureUser(ctx, "user123")
	require.NoError(t, err)
	assert.Equal(t, "user123", user.UserID)
}

func TestOpenStorage_MongoUnreachableDisconnects(t *testing.T) {
	var disconnects int
	original := disconnectMongo
	disconnectMongo = func(ctx context.Context, client *mongo.Client) error {
		disconnects++
		return original(ctx, client)
	}
	t.Cleanup(func() { disconnectMongo = original })

	cfg := config.NewConfig()
	cfg.Storage.Backend = config.BackendMongo
	cfg.Mongo.URI = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"

	st, err := openStorage(cfg)

	assert.Error(t, err)
	assert.Nil(t, st)
	assert.Equal(t, 1, disconnects)
}
