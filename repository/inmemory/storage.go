package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage keeps users and tasks in process memory. It enforces the same
// unique fields as the Mongo indexes: username, email and subject.
type Storage struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
	tasks map[primitive.ObjectID]models.Task
	now   func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[primitive.ObjectID]models.User),
		tasks: make(map[primitive.ObjectID]models.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Storage) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Storage) Close(context.Context) error { return nil }

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.userConflict(primitive.NilObjectID, user.Username, user.Email); err != nil {
		return err
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (s *Storage) UpdateUser(ctx context.Context, id primitive.ObjectID, fields models.UserFields) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	if err := s.userConflict(id, fields.Username, fields.Email); err != nil {
		return nil, err
	}

	if fields.Username != "" {
		user.Username = fields.Username
	}
	if fields.Email != "" {
		user.Email = fields.Email
	}
	if fields.Password != "" {
		user.Password = fields.Password
	}
	user.UpdatedAt = s.now()
	s.users[id] = user
	return &user, nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.subjectConflict(primitive.NilObjectID, task.Subject); err != nil {
		return err
	}
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return &task, nil
}

func (s *Storage) GetTaskBySubject(ctx context.Context, subject string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, task := range s.tasks {
		if task.Subject == subject {
			return &task, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (s *Storage) GetTasksByStatus(ctx context.Context, status models.Status) ([]models.Task, error) {
	return s.filterTasks(func(t models.Task) bool { return t.Status == status }), nil
}

func (s *Storage) GetTasksByUsername(ctx context.Context, username string) ([]models.Task, error) {
	return s.filterTasks(func(t models.Task) bool { return t.Username == username }), nil
}

func (s *Storage) UpdateTask(ctx context.Context, id primitive.ObjectID, fields models.TaskFields) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	if err := s.subjectConflict(id, fields.Subject); err != nil {
		return nil, err
	}

	if fields.Subject != "" {
		task.Subject = fields.Subject
	}
	if fields.Description != "" {
		task.Description = fields.Description
	}
	if fields.Status != "" {
		task.Status = fields.Status
	}
	task.UpdatedAt = s.now()
	s.tasks[id] = task
	return &task, nil
}

func (s *Storage) DeleteTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	delete(s.tasks, id)
	return &task, nil
}

// filterTasks returns matches ordered by id, as the Mongo queries do.
func (s *Storage) filterTasks(match func(models.Task) bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []models.Task{}
	for _, task := range s.tasks {
		if match(task) {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID.Hex() < tasks[j].ID.Hex() })
	return tasks
}

// userConflict must be called with mu held.
func (s *Storage) userConflict(self primitive.ObjectID, username, email string) error {
	taken := func(match func(models.User) bool) bool {
		for id, user := range s.users {
			if id != self && match(user) {
				return true
			}
		}
		return false
	}

	if username != "" && taken(func(u models.User) bool { return u.Username == username }) {
		return &domainerrors.DuplicateKeyError{Field: "username"}
	}
	if email != "" && taken(func(u models.User) bool { return u.Email == email }) {
		return &domainerrors.DuplicateKeyError{Field: "email"}
	}
	return nil
}

// subjectConflict must be called with mu held.
func (s *Storage) subjectConflict(self primitive.ObjectID, subject string) error {
	if subject == "" {
		return nil
	}
	for id, task := range s.tasks {
		if id != self && task.Subject == subject {
			return &domainerrors.DuplicateKeyError{Field: "subject"}
		}
	}
	return nil
}
