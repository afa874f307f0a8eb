package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todo-project/microservices/tasks-service/config"
	"todo-project/microservices/tasks-service/handlers"
	"todo-project/microservices/tasks-service/logging"
	"todo-project/microservices/tasks-service/middleware"
	"todo-project/microservices/tasks-service/repositories"
	"todo-project/microservices/tasks-service/resolvers"
	"todo-project/microservices/tasks-service/services"
)

// storage is what a backend contributes to the service, plus its teardown.
type storage struct {
	tasks repositories.TaskRepository
	users repositories.UserRepository
	close func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger(logging.Options{})
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	logging.InitLogger(logging.Options{Filename: cfg.Logging.File, Level: cfg.Logging.Level})
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasks Service...")

	store, err := openStorage(cfg)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: %v", err)
	}
	defer store.close()

	storageBreaker := repositories.NewStorageBreaker("storage-cb", cfg.Breaker.Timeout, cfg.Breaker.MaxFailures)
	guarded := repositories.NewBreakerRepository(store.tasks, store.users, storageBreaker)

	var activity repositories.ActivityRecorder
	if len(cfg.Cassandra.Hosts) > 0 {
		activityRepo, err := repositories.NewActivityRepo(cfg.Cassandra.Hosts, cfg.Cassandra.Keyspace)
		if err != nil {
			logging.Logger.Fatalf("Event ID: ACTIVITY_STORE_FAILED, Description: %v", err)
		}
		defer activityRepo.Close()
		if err := activityRepo.CreateTable(); err != nil {
			logging.Logger.Fatalf("Event ID: ACTIVITY_STORE_FAILED, Description: %v", err)
		}
		activity = activityRepo
	} else {
		logging.Logger.Info("Event ID: ACTIVITY_STORE_DISABLED, Description: CASS_DB not set, activity journal disabled")
	}

	taskService := services.NewTaskService(guarded, guarded, activity)
	schema, err := resolvers.NewSchema(taskService, cfg.Server.GraphQLMaxDepth)
	if err != nil {
		logging.Logger.Fatalf("Event ID: SCHEMA_PARSE_FAILED, Description: %v", err)
	}
	graphQLHandler := handlers.NewGraphQLHandler(schema, cfg.Server.RequestTimeout)

	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog)
	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)

	requireToken := middleware.JWTAuth(cfg.Auth.JWTSecret)
	r.Handle("/graphql", requireToken(http.HandlerFunc(graphQLHandler.Query))).Methods(http.MethodGet, http.MethodPost)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.CORS(cfg.Server.CORSOrigin)(r),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down Tasks Service...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
}

// openStorage connects the configured backend and prepares its schema.
func openStorage(cfg *config.Config) (*storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		repo := repositories.NewPostgresRepository(pool)
		if err := repo.EnsureTables(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logging.Logger.Info("Event ID: DB_CONNECTED, Description: Successfully connected to PostgreSQL")
		return &storage{tasks: repo, users: repo, close: pool.Close}, nil

	case config.BackendMemory:
		logging.Logger.Warn("Event ID: DB_IN_MEMORY, Description: Using in-memory storage, data is lost on restart")
		repo := repositories.NewMemoryRepository()
		return &storage{tasks: repo, users: repo, close: func() {}}, nil

	default:
		return openMongo(ctx, cfg)
	}
}

// disconnectMongo is replaced in tests.
var disconnectMongo = func(ctx context.Context, client *mongo.Client) error {
	return client.Disconnect(ctx)
}

// openMongo connects, verifies the server and ensures the task indexes. The
// client is disconnected again if any step after Connect fails.
func openMongo(ctx context.Context, cfg *config.Config) (*storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	closeClient := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := disconnectMongo(ctx, client); err != nil {
			logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}

	if err := client.Ping(ctx, nil); err != nil {
		closeClient()
		return nil, err
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.Mongo.URI)

	db := client.Database(cfg.Mongo.Database)
	repo := repositories.NewMongoRepository(db.Collection(cfg.Mongo.TasksCollection), db.Collection(cfg.Mongo.UsersCollection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeClient()
		return nil, err
	}
	logging.Logger.Infof("Event ID: DB_COLLECTION_SET, Description: Using MongoDB collections: %s/%s, %s/%s",
		cfg.Mongo.Database, cfg.Mongo.TasksCollection, cfg.Mongo.Database, cfg.Mongo.UsersCollection)

	return &storage{tasks: repo, users: repo, close: closeClient}, nil
}
