package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todo-project/microservices/tasks-service/models"
)

type MongoRepositorySuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	client    *mongo.Client
	db        *mongo.Database
	repo      *MongoRepository
}

func TestMongoRepositorySuite(t *testing.T) {
	skipUnlessIntegration(t)
	suite.Run(t, new(MongoRepositorySuite))
}

func (s *MongoRepositorySuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "27017")
	require.NoError(s.T(), err)

	s.client, err = mongo.Connect(s.ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.client.Ping(s.ctx, nil))

	s.db = s.client.Database("tasks_test")
}

func (s *MongoRepositorySuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *MongoRepositorySuite) SetupTest() {
	require.NoError(s.T(), s.db.Drop(s.ctx))
	s.repo = NewMongoRepository(s.db.Collection("tasks"), s.db.Collection("users"))
	require.NoError(s.T(), s.repo.EnsureIndexes(s.ctx))
}

func (s *MongoRepositorySuite) TestContract() {
	runStoreContract(s.T(), s.repo)
}

func (s *MongoRepositorySuite) TestUniqueIndexIsPartial() {
	cursor, err := s.db.Collection("tasks").Indexes().List(s.ctx)
	s.Require().NoError(err)

	var indexes []bson.M
	s.Require().NoError(cursor.All(s.ctx, &indexes))

	var found bool
	for _, idx := range indexes {
		if idx["name"] == "taskName_userId_active" {
			found = true
			s.Equal(true, idx["unique"])
			s.Contains(fmt.Sprint(idx["partialFilterExpression"]), "isDeleted")
		}
	}
	s.True(found, "unique task name index missing")
}

func (s *MongoRepositorySuite) TestStoredDocumentShape() {
	created, err := s.repo.InsertTask(s.ctx, &models.Task{
		TaskName: "shape", Description: "document layout", Priority: 2, UserID: "u1",
	})
	s.Require().NoError(err)

	var raw bson.M
	s.Require().NoError(s.db.Collection("tasks").FindOne(s.ctx, bson.M{}).Decode(&raw))
	s.Equal("shape", raw["taskName"])
	s.Equal("u1", raw["userId"])
	s.Equal(false, raw["isDeleted"])
	s.Contains(raw, "createdAt")
	s.Contains(raw, "updatedAt")
	s.Len(created.ID, 24)
}
