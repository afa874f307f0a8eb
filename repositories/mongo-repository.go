package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todo-project/microservices/tasks-service/models"
)

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	TaskName    string             `bson:"taskName"`
	Description string             `bson:"description"`
	IsDone      bool               `bson:"isDone"`
	Priority    int                `bson:"priority"`
	Tags        []string           `bson:"tags"`
	UserID      string             `bson:"userId"`
	IsDeleted   bool               `bson:"isDeleted"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type userDocument struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	UserID string             `bson:"userId"`
	Name   *string            `bson:"name,omitempty"`
	Email  *string            `bson:"email,omitempty"`
}

func (d *taskDocument) toModel() *models.Task {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Task{
		ID:          d.ID.Hex(),
		TaskName:    d.TaskName,
		Description: d.Description,
		IsDone:      d.IsDone,
		Priority:    d.Priority,
		Tags:        tags,
		UserID:      d.UserID,
		IsDeleted:   d.IsDeleted,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func (d *userDocument) toModel() *models.User {
	return &models.User{ID: d.ID.Hex(), UserID: d.UserID, Name: d.Name, Email: d.Email}
}

// MongoRepository stores tasks and users in two MongoDB collections.
type MongoRepository struct {
	tasksCollection *mongo.Collection
	usersCollection *mongo.Collection
}

// NewMongoRepository uses the given collections as-is; call EnsureIndexes
// before serving traffic.
func NewMongoRepository(tasksCollection, usersCollection *mongo.Collection) *MongoRepository {
	return &MongoRepository{
		tasksCollection: tasksCollection,
		usersCollection: usersCollection,
	}
}

// EnsureIndexes creates the unique and listing indexes. The task name index
// is partial so that a soft-deleted task frees its name.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	taskIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "taskName", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().
				SetName("taskName_userId_active").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isDeleted": false}),
		},
		{
			Keys: bson.D{{Key: "isDeleted", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isDeleted", Value: 1}, {Key: "updatedAt", Value: -1}},
		},
	}
	if _, err := r.tasksCollection.Indexes().CreateMany(ctx, taskIndexes); err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	userIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.usersCollection.Indexes().CreateOne(ctx, userIndex); err != nil {
		return fmt.Errorf("failed to create user index: %w", err)
	}
	return nil
}

// InsertTask stores a new task under a fresh ObjectID. Zero timestamps
// default to now. A name clash with an active task returns ErrDuplicateKey.
func (r *MongoRepository) InsertTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		TaskName:    task.TaskName,
		Description: task.Description,
		IsDone:      task.IsDone,
		Priority:    task.Priority,
		Tags:        append([]string{}, task.Tags...),
		UserID:      task.UserID,
		IsDeleted:   task.IsDeleted,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	if _, err := r.tasksCollection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return doc.toModel(), nil
}

// FindTaskByID returns ErrNotFound for unknown or malformed ids.
func (r *MongoRepository) FindTaskByID(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc taskDocument
	if err := r.tasksCollection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	return doc.toModel(), nil
}

// FindTasks lists the tasks matching filter in the given order.
func (r *MongoRepository) FindTasks(ctx context.Context, filter models.TaskFilter, order models.TaskSort) ([]*models.Task, error) {
	opts := options.Find().SetSort(sortToBSON(order))
	cursor, err := r.tasksCollection.Find(ctx, filterToBSON(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]*models.Task, 0)
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		tasks = append(tasks, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return tasks, nil
}

// ExistsTask reports whether any task matches filter.
func (r *MongoRepository) ExistsTask(ctx context.Context, filter models.TaskFilter) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.tasksCollection.FindOne(ctx, filterToBSON(filter), opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up task: %w", err)
	}
	return true, nil
}

// UpdateTaskByID sets the present fields of patch plus updatedAt and returns
// the document after the update.
func (r *MongoRepository) UpdateTaskByID(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC().Truncate(time.Millisecond)}
	if v, ok := patch.TaskName.Get(); ok {
		set["taskName"] = v
	}
	if v, ok := patch.Description.Get(); ok {
		set["description"] = v
	}
	if v, ok := patch.IsDone.Get(); ok {
		set["isDone"] = v
	}
	if v, ok := patch.Priority.Get(); ok {
		set["priority"] = v
	}
	if v, ok := patch.Tags.Get(); ok {
		set["tags"] = append([]string{}, v...)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = r.tasksCollection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return doc.toModel(), nil
}

// FindUserByUserID looks a user up by business key.
func (r *MongoRepository) FindUserByUserID(ctx context.Context, userID string) (*models.User, error) {
	var doc userDocument
	if err := r.usersCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return doc.toModel(), nil
}

// EnsureUser upserts the user so concurrent first requests create one record.
func (r *MongoRepository) EnsureUser(ctx context.Context, userID string) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	update := bson.M{"$setOnInsert": bson.M{"userId": userID}}

	var doc userDocument
	err := r.usersCollection.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&doc)
	if err != nil {
		// Two concurrent upserts can both miss; the loser hits the unique index
		// and the winner's document is already there.
		if mongo.IsDuplicateKeyError(err) {
			return r.FindUserByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return doc.toModel(), nil
}

func filterToBSON(f models.TaskFilter) bson.M {
	m := bson.M{}
	if v, ok := f.UserID.Get(); ok {
		m["userId"] = v
	}
	if v, ok := f.TaskName.Get(); ok {
		m["taskName"] = v
	}
	if v, ok := f.IsDone.Get(); ok {
		m["isDone"] = v
	}
	if v, ok := f.IsDeleted.Get(); ok {
		m["isDeleted"] = v
	}
	if f.ExcludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(f.ExcludeID); err == nil {
			m["_id"] = bson.M{"$ne": oid}
		}
	}
	return m
}

func sortToBSON(order models.TaskSort) bson.D {
	if order == models.SortByUpdatedDesc {
		return bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}}
	}
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}
