package service

import (
	"context"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/logging"
)

type TaskService struct {
	tasks  TaskRepository
	owners OwnerLookup
	clock  clock
}

func NewTaskService(tasks TaskRepository, owners OwnerLookup) *TaskService {
	return &TaskService{tasks: tasks, owners: owners}
}

// Create stores a task for an existing owner.
func (s *TaskService) Create(ctx context.Context, req models.CreateTaskRequest) (*models.Task, error) {
	owner, err := s.owners.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, translate(ctx, "resolve task owner", err, messages.UserNotFound)
	}
	if owner == nil {
		return nil, domainerrors.NotFound(messages.UserNotFound)
	}

	now := s.clock.now()
	task := &models.Task{
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
		Username:    owner.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, translate(ctx, "create task", err, messages.TaskNotFound)
	}

	logging.Ctx(ctx).Info().
		Str("task_id", task.ID.Hex()).
		Str("username", task.Username).
		Msg("task created")
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, req models.UpdateTaskRequest) (*models.Task, error) {
	id, err := parseID(req.ID, messages.TaskNotFound)
	if err != nil {
		return nil, err
	}

	fields := models.TaskFields{
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
	}

	var task *models.Task
	if fields.Empty() {
		task, err = s.tasks.GetTaskByID(ctx, id)
	} else {
		task, err = s.tasks.UpdateTask(ctx, id, fields)
	}
	if err != nil {
		return nil, translate(ctx, "update task", err, messages.TaskNotFound)
	}
	if task == nil {
		return nil, domainerrors.NotFound(messages.TaskNotFound)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, hexID string) error {
	id, err := parseID(hexID, messages.TaskNotFound)
	if err != nil {
		return err
	}

	task, err := s.tasks.DeleteTask(ctx, id)
	if err != nil {
		return translate(ctx, "delete task", err, messages.TaskNotFound)
	}
	if task == nil {
		return domainerrors.NotFound(messages.TaskNotFound)
	}
	logging.Ctx(ctx).Info().Str("task_id", hexID).Msg("task deleted")
	return nil
}

func (s *TaskService) RetrieveByStatus(ctx context.Context, status models.Status) ([]models.Task, error) {
	tasks, err := s.tasks.GetTasksByStatus(ctx, status)
	return many(ctx, "retrieve tasks by status", tasks, err)
}

func (s *TaskService) RetrieveByUsername(ctx context.Context, username string) ([]models.Task, error) {
	tasks, err := s.tasks.GetTasksByUsername(ctx, username)
	return many(ctx, "retrieve tasks by username", tasks, err)
}

func (s *TaskService) RetrieveBySubject(ctx context.Context, subject string) (*models.Task, error) {
	task, err := s.tasks.GetTaskBySubject(ctx, subject)
	if err != nil {
		return nil, translate(ctx, "retrieve task by subject", err, messages.TaskNotFound)
	}
	if task == nil {
		return nil, domainerrors.NotFound(messages.TaskNotFound)
	}
	return task, nil
}

func many(ctx context.Context, op string, tasks []models.Task, err error) ([]models.Task, error) {
	if err != nil {
		return nil, translate(ctx, op, err, messages.TasksNotFound)
	}
	if len(tasks) == 0 {
		return nil, domainerrors.NotFound(messages.TasksNotFound)
	}
	return tasks, nil
}
