package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTask(t *testing.T) {
	request := models.CreateTaskRequest{
		Subject:     "Complete project report",
		Description: "Finish the final report",
		Status:      models.StatusPending,
		Username:    "newUser",
	}

	tests := []struct {
		name      string
		mockSetup func(*MockTaskRepository, *MockUserRepository)
		want      struct {
			status  int
			message string
		}
	}{
		{
			name: "successful creation",
			mockSetup: func(tasks *MockTaskRepository, users *MockUserRepository) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(&models.User{Username: "newUser"}, nil)
				tasks.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
					return task.Subject == request.Subject && task.Username == "newUser" && task.Status == models.StatusPending
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.Task).ID = primitive.NewObjectID()
				}).Return(nil)
			},
		},
		{
			name: "owner does not exist",
			mockSetup: func(tasks *MockTaskRepository, users *MockUserRepository) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(nil, domainerrors.ErrNotFound)
			},
			want: struct {
				status  int
				message string
			}{http.StatusNotFound, messages.UserNotFound},
		},
		{
			name: "duplicate subject",
			mockSetup: func(tasks *MockTaskRepository, users *MockUserRepository) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(&models.User{Username: "newUser"}, nil)
				tasks.On("CreateTask", mock.Anything, mock.Anything).Return(&domainerrors.DuplicateKeyError{Field: "subject"})
			},
			want: struct {
				status  int
				message string
			}{http.StatusConflict, "subject already exists."},
		},
		{
			name: "storage failure",
			mockSetup: func(tasks *MockTaskRepository, users *MockUserRepository) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(&models.User{Username: "newUser"}, nil)
				tasks.On("CreateTask", mock.Anything, mock.Anything).Return(fmt.Errorf("server selection timeout"))
			},
			want: struct {
				status  int
				message string
			}{http.StatusInternalServerError, messages.ServerError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(MockTaskRepository)
			users := new(MockUserRepository)
			tt.mockSetup(tasks, users)
			svc := NewTaskService(tasks, users)

			task, err := svc.Create(context.Background(), request)

			if tt.want.status != 0 {
				requireClassified(t, err, tt.want.status, tt.want.message)
			} else {
				require.NoError(t, err)
				assert.False(t, task.ID.IsZero())
				assert.Equal(t, request.Description, task.Description)
			}
			tasks.AssertExpectations(t)
			users.AssertExpectations(t)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	id := primitive.NewObjectID()
	stored := &models.Task{ID: id, Subject: "Complete project report", Status: models.StatusComplete}

	tests := []struct {
		name      string
		request   models.UpdateTaskRequest
		mockSetup func(*MockTaskRepository)
		want      struct {
			status  int
			message string
		}
	}{
		{
			name:    "status only",
			request: models.UpdateTaskRequest{ID: id.Hex(), Status: models.StatusComplete},
			mockSetup: func(m *MockTaskRepository) {
				m.On("UpdateTask", mock.Anything, id, models.TaskFields{Status: models.StatusComplete}).Return(stored, nil)
			},
		},
		{
			name:    "no fields reads the task",
			request: models.UpdateTaskRequest{ID: id.Hex()},
			mockSetup: func(m *MockTaskRepository) {
				m.On("GetTaskByID", mock.Anything, id).Return(stored, nil)
			},
		},
		{
			name:    "unknown task",
			request: models.UpdateTaskRequest{ID: id.Hex(), Subject: "Another subject line"},
			mockSetup: func(m *MockTaskRepository) {
				m.On("UpdateTask", mock.Anything, id, mock.Anything).Return(nil, domainerrors.ErrNotFound)
			},
			want: struct {
				status  int
				message string
			}{http.StatusNotFound, messages.TaskNotFound},
		},
		{
			name:      "malformed id",
			request:   models.UpdateTaskRequest{ID: "not-an-object-id", Status: models.StatusPending},
			mockSetup: func(m *MockTaskRepository) {},
			want: struct {
				status  int
				message string
			}{http.StatusNotFound, messages.TaskNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(MockTaskRepository)
			tt.mockSetup(tasks)
			svc := NewTaskService(tasks, new(MockUserRepository))

			task, err := svc.Update(context.Background(), tt.request)

			if tt.want.status != 0 {
				requireClassified(t, err, tt.want.status, tt.want.message)
			} else {
				require.NoError(t, err)
				assert.Equal(t, stored, task)
			}
			tasks.AssertExpectations(t)
		})
	}
}

func TestDeleteTask(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name      string
		id        string
		mockSetup func(*MockTaskRepository)
		want      struct {
			status  int
			message string
		}
	}{
		{
			name: "existing task",
			id:   id.Hex(),
			mockSetup: func(m *MockTaskRepository) {
				m.On("DeleteTask", mock.Anything, id).Return(&models.Task{ID: id}, nil)
			},
		},
		{
			name: "non-existent task",
			id:   id.Hex(),
			mockSetup: func(m *MockTaskRepository) {
				m.On("DeleteTask", mock.Anything, id).Return(nil, domainerrors.ErrNotFound)
			},
			want: struct {
				status  int
				message string
			}{http.StatusNotFound, messages.TaskNotFound},
		},
		{
			name: "nothing deleted",
			id:   id.Hex(),
			mockSetup: func(m *MockTaskRepository) {
				m.On("DeleteTask", mock.Anything, id).Return(nil, nil)
			},
			want: struct {
				status  int
				message string
			}{http.StatusNotFound, messages.TaskNotFound},
		},
		{
			name: "storage failure",
			id:   id.Hex(),
			mockSetup: func(m *MockTaskRepository) {
				m.On("DeleteTask", mock.Anything, id).Return(nil, fmt.Errorf("connection reset"))
			},
			want: struct {
				status  int
				message string
			}{http.StatusInternalServerError, messages.ServerError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := new(MockTaskRepository)
			tt.mockSetup(tasks)
			svc := NewTaskService(tasks, new(MockUserRepository))

			err := svc.Delete(context.Background(), tt.id)

			if tt.want.status != 0 {
				requireClassified(t, err, tt.want.status, tt.want.message)
			} else {
				require.NoError(t, err)
			}
			tasks.AssertExpectations(t)
		})
	}
}

func TestRetrieveTasks(t *testing.T) {
	list := []models.Task{{Subject: "Complete project report", Status: models.StatusPending, Username: "newUser"}}

	tasks := new(MockTaskRepository)
	tasks.On("GetTasksByStatus", mock.Anything, models.StatusPending).Return(list, nil)
	tasks.On("GetTasksByStatus", mock.Anything, models.StatusComplete).Return([]models.Task{}, nil)
	tasks.On("GetTasksByUsername", mock.Anything, "newUser").Return(list, nil)
	tasks.On("GetTasksByUsername", mock.Anything, "broken").Return(nil, fmt.Errorf("cursor killed"))
	tasks.On("GetTaskBySubject", mock.Anything, "Complete project report").Return(&list[0], nil)
	tasks.On("GetTaskBySubject", mock.Anything, "Missing subject line").Return(nil, domainerrors.ErrNotFound)
	svc := NewTaskService(tasks, new(MockUserRepository))
	ctx := context.Background()

	got, err := svc.RetrieveByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, list, got)

	again, err := svc.RetrieveByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = svc.RetrieveByStatus(ctx, models.StatusComplete)
	requireClassified(t, err, http.StatusNotFound, messages.TasksNotFound)

	got, err = svc.RetrieveByUsername(ctx, "newUser")
	require.NoError(t, err)
	assert.Equal(t, list, got)

	_, err = svc.RetrieveByUsername(ctx, "broken")
	requireClassified(t, err, http.StatusInternalServerError, messages.ServerError)

	task, err := svc.RetrieveBySubject(ctx, "Complete project report")
	require.NoError(t, err)
	assert.Equal(t, &list[0], task)

	_, err = svc.RetrieveBySubject(ctx, "Missing subject line")
	requireClassified(t, err, http.StatusNotFound, messages.TaskNotFound)
}
