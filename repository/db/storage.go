package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/logging"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	DefaultTimeout  = 15 * time.Second
	UsersCollection = "users"
	TasksCollection = "tasks"
)

var dupIndexPattern = regexp.MustCompile(`index: (\S+) dup key`)

// indexFields maps unique index names created by the migrations to the
// document field they guard.
var indexFields = map[string]string{
	"username_unique": "username",
	"email_unique":    "email",
	"subject_unique":  "subject",
}

type Storage struct {
	client  *mongo.Client
	users   *mongo.Collection
	tasks   *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

// NewStorage connects to uri and pings the primary before returning.
func NewStorage(ctx context.Context, uri, database string, timeout time.Duration) (*Storage, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		logging.Error().Err(err).Msg("mongo connect failed")
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrStoreConnection, err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logging.Error().Err(err).Msg("mongo ping failed")
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrStoreConnection, err)
	}

	s := NewStorageFromDatabase(client.Database(database), timeout)
	s.client = client
	logging.Info().Str("database", database).Msg("connected to mongo")
	return s, nil
}

// NewStorageFromDatabase wraps an existing database handle. Close is a
// no-op on the result unless the client was opened by NewStorage.
func NewStorageFromDatabase(db *mongo.Database, timeout time.Duration) *Storage {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Storage{
		users:   db.Collection(UsersCollection),
		tasks:   db.Collection(TasksCollection),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.users.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		user.ID = primitive.NilObjectID
		return s.fail(ctx, "create user", err)
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, "get user by id", bson.M{"_id": id})
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "get user by username", bson.M{"username": username})
}

func (s *Storage) UpdateUser(ctx context.Context, id primitive.ObjectID, fields models.UserFields) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set := bson.M{"updatedAt": s.now()}
	if fields.Username != "" {
		set["username"] = fields.Username
	}
	if fields.Email != "" {
		set["email"] = fields.Email
	}
	if fields.Password != "" {
		set["password"] = fields.Password
	}

	user := &models.User{}
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(user)
	if err != nil {
		return nil, s.fail(ctx, "update user", err)
	}
	return user, nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := s.tasks.InsertOne(ctx, task); err != nil {
		task.ID = primitive.NilObjectID
		return s.fail(ctx, "create task", err)
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	return s.findTask(ctx, "get task by id", bson.M{"_id": id})
}

func (s *Storage) GetTaskBySubject(ctx context.Context, subject string) (*models.Task, error) {
	return s.findTask(ctx, "get task by subject", bson.M{"subject": subject})
}

func (s *Storage) GetTasksByStatus(ctx context.Context, status models.Status) ([]models.Task, error) {
	return s.findTasks(ctx, "get tasks by status", bson.M{"status": status})
}

func (s *Storage) GetTasksByUsername(ctx context.Context, username string) ([]models.Task, error) {
	return s.findTasks(ctx, "get tasks by username", bson.M{"username": username})
}

func (s *Storage) UpdateTask(ctx context.Context, id primitive.ObjectID, fields models.TaskFields) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	set := bson.M{"updatedAt": s.now()}
	if fields.Subject != "" {
		set["subject"] = fields.Subject
	}
	if fields.Description != "" {
		set["description"] = fields.Description
	}
	if fields.Status != "" {
		set["status"] = fields.Status
	}

	task := &models.Task{}
	err := s.tasks.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(task)
	if err != nil {
		return nil, s.fail(ctx, "update task", err)
	}
	return task, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	task := &models.Task{}
	if err := s.tasks.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(task); err != nil {
		return nil, s.fail(ctx, "delete task", err)
	}
	return task, nil
}

func (s *Storage) findUser(ctx context.Context, op string, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user := &models.User{}
	if err := s.users.FindOne(ctx, filter).Decode(user); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return user, nil
}

func (s *Storage) findTask(ctx context.Context, op string, filter bson.M) (*models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	task := &models.Task{}
	if err := s.tasks.FindOne(ctx, filter).Decode(task); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return task, nil
}

func (s *Storage) findTasks(ctx context.Context, op string, filter bson.M) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.tasks.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return tasks, nil
}

// fail maps driver errors onto the storage sentinels. Anything it cannot
// map is logged and returned wrapped.
func (s *Storage) fail(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return domainerrors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return &domainerrors.DuplicateKeyError{Field: duplicateField(err), Err: err}
	}
	logging.Ctx(ctx).Error().Err(err).Str("op", op).Msg("mongo operation failed")
	return fmt.Errorf("%s: %w", op, err)
}

// duplicateField reads the violated index out of an E11000 message.
func duplicateField(err error) string {
	m := dupIndexPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return ""
	}
	if field, ok := indexFields[m[1]]; ok {
		return field
	}
	// Default index names look like "<field>_1".
	return strings.TrimSuffix(m[1], "_1")
}
