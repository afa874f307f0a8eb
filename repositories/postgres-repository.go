package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo-project/microservices/tasks-service/models"
)

const pgUniqueViolation = "23505"

const taskColumns = `id, task_name, description, is_done, priority, tags, user_id, is_deleted, created_at, updated_at`

// PostgresRepository stores tasks and users in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps an open pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureTables creates the tables and indexes if they don't exist.
func (r *PostgresRepository) EnsureTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id      TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			name    TEXT,
			email   TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			task_name   TEXT NOT NULL,
			description TEXT NOT NULL,
			is_done     BOOLEAN NOT NULL DEFAULT FALSE,
			priority    INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 5),
			tags        TEXT[] NOT NULL DEFAULT '{}',
			user_id     TEXT NOT NULL,
			is_deleted  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_name_user_active ON tasks (task_name, user_id) WHERE NOT is_deleted`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks (is_deleted, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_updated ON tasks (user_id, is_deleted, updated_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare schema: %w", err)
		}
	}
	return nil
}

// InsertTask assigns a UUID and fills zero timestamps. SQLSTATE 23505 maps to
// ErrDuplicateKey.
func (r *PostgresRepository) InsertTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	t := task.Clone()
	// v7 ids sort by creation time, which keeps the id tie-breaker stable.
	t.ID = uuid.Must(uuid.NewV7()).String()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.TaskName, t.Description, t.IsDone, t.Priority, t.Tags, t.UserID, t.IsDeleted, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return t, nil
}

// FindTaskByID returns ErrNotFound when no row matches.
func (r *PostgresRepository) FindTaskByID(ctx context.Context, id string) (*models.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindTasks(ctx context.Context, filter models.TaskFilter, order models.TaskSort) ([]*models.Task, error) {
	where, args := filterToSQL(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + sortToSQL(order)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}

func (r *PostgresRepository) ExistsTask(ctx context.Context, filter models.TaskFilter) (bool, error) {
	where, args := filterToSQL(filter)
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks`+where+`)`, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up task: %w", err)
	}
	return exists, nil
}

// UpdateTaskByID writes only the present fields of patch in one statement.
func (r *PostgresRepository) UpdateTaskByID(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC().Truncate(time.Millisecond)}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if v, ok := patch.TaskName.Get(); ok {
		add("task_name", v)
	}
	if v, ok := patch.Description.Get(); ok {
		add("description", v)
	}
	if v, ok := patch.IsDone.Get(); ok {
		add("is_done", v)
	}
	if v, ok := patch.Priority.Get(); ok {
		add("priority", v)
	}
	if v, ok := patch.Tags.Get(); ok {
		add("tags", append([]string{}, v...))
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), taskColumns)

	t, err := scanTask(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindUserByUserID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, name, email FROM users WHERE user_id = $1`, userID).
		Scan(&u.ID, &u.UserID, &u.Name, &u.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &u, nil
}

// EnsureUser inserts the user unless it exists and returns the stored row.
func (r *PostgresRepository) EnsureUser(ctx context.Context, userID string) (*models.User, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`, uuid.NewString(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return r.FindUserByUserID(ctx, userID)
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.TaskName, &t.Description, &t.IsDone, &t.Priority, &t.Tags,
		&t.UserID, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func filterToSQL(f models.TaskFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if v, ok := f.UserID.Get(); ok {
		add("user_id = $%d", v)
	}
	if v, ok := f.TaskName.Get(); ok {
		add("task_name = $%d", v)
	}
	if v, ok := f.IsDone.Get(); ok {
		add("is_done = $%d", v)
	}
	if v, ok := f.IsDeleted.Get(); ok {
		add("is_deleted = $%d", v)
	}
	if f.ExcludeID != "" {
		add("id <> $%d", f.ExcludeID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sortToSQL(order models.TaskSort) string {
	if order == models.SortByUpdatedDesc {
		return " ORDER BY updated_at DESC, id DESC"
	}
	return " ORDER BY created_at DESC, id DESC"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
