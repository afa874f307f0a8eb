package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/gocql/gocql"

	"todo-project/microservices/tasks-service/logging"
	"todo-project/microservices/tasks-service/models"
)

var keyspacePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// ActivityRepo journals task mutations in Cassandra, partitioned by user.
type ActivityRepo struct {
	session *gocql.Session
}

// NewActivityRepo connects to the cluster, creating the keyspace if it
// doesn't exist.
func NewActivityRepo(hosts []string, keyspace string) (*ActivityRepo, error) {
	if !keyspacePattern.MatchString(keyspace) {
		return nil, fmt.Errorf("invalid keyspace name %q", keyspace)
	}

	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	cluster.Timeout = 5 * time.Second
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cassandra: %w", err)
	}

	err = session.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s
		 WITH replication = {
			 'class': 'SimpleStrategy',
			 'replication_factor': 1
		 }`, keyspace)).Exec()
	session.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to create keyspace: %w", err)
	}

	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to keyspace %s: %w", keyspace, err)
	}

	logging.Logger.Infof("Event ID: ACTIVITY_STORE_CONNECTED, Description: Connected to Cassandra keyspace %s", keyspace)
	return &ActivityRepo{session: session}, nil
}

// CreateTable creates the task_activity table if it doesn't exist.
func (r *ActivityRepo) CreateTable() error {
	err := r.session.Query(
		`CREATE TABLE IF NOT EXISTS task_activity (
			user_id    TEXT,
			created_at TIMESTAMP,
			id         TIMEUUID,
			task_id    TEXT,
			task_name  TEXT,
			action     TEXT,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create task_activity table: %w", err)
	}
	return nil
}

// Record appends one journal entry.
func (r *ActivityRepo) Record(ctx context.Context, a models.Activity) error {
	id := gocql.TimeUUID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = id.Time()
	}

	err := r.session.Query(
		`INSERT INTO task_activity (user_id, created_at, id, task_id, task_name, action)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.UserID, a.CreatedAt, id, a.TaskID, a.TaskName, string(a.Action),
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) Close() {
	r.session.Close()
	logging.Logger.Info("Event ID: ACTIVITY_STORE_CLOSED, Description: Cassandra session closed")
}
