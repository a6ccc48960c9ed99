package db

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMockStorage(mt *mtest.T) *Storage {
	return NewStorageFromDatabase(mt.DB, time.Second)
}

func taskDoc(id primitive.ObjectID, subject string, status models.Status) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "subject", Value: subject},
		{Key: "description", Value: "Finish the final report"},
		{Key: "status", Value: string(status)},
		{Key: "username", Value: "newUser"},
	}
}

func TestCreateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserted", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{Username: "newUser", Email: "random@mail.com"}
		require.NoError(t, s.CreateUser(context.Background(), user))
		assert.False(t, user.ID.IsZero())
	})

	mt.Run("duplicate username", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: tasks.users index: username_unique dup key: { username: "newUser" }`,
		}))

		user := &models.User{Username: "newUser"}
		err := s.CreateUser(context.Background(), user)

		dup, ok := domainerrors.AsDuplicateKey(err)
		require.True(t, ok)
		assert.Equal(t, "username", dup.Field)
		assert.Equal(t, "username already exists.", dup.Error())
		assert.True(t, user.ID.IsZero())
	})

	mt.Run("technical failure", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad value",
		}))

		err := s.CreateUser(context.Background(), &models.User{Username: "newUser"})
		require.Error(t, err)
		_, dup := domainerrors.AsDuplicateKey(err)
		assert.False(t, dup)
		assert.False(t, errors.Is(err, domainerrors.ErrNotFound))
	})
}

func TestGetUserByUsername(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		s := newMockStorage(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "newUser"},
			{Key: "email", Value: "random@mail.com"},
			{Key: "password", Value: "$2a$10$hash"},
			{Key: "role", Value: "General"},
		}))

		user, err := s.GetUserByUsername(context.Background(), "newUser")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, models.RoleGeneral, user.Role)
		assert.Equal(t, "$2a$10$hash", user.Password)
	})

	mt.Run("missing", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.users", mtest.FirstBatch))

		user, err := s.GetUserByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
		assert.Nil(t, user)
	})
}

func TestUpdateUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("updated", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "renamed"},
			{Key: "email", Value: "random@mail.com"},
		}}))

		user, err := s.UpdateUser(context.Background(), id, models.UserFields{Username: "renamed"})
		require.NoError(t, err)
		assert.Equal(t, "renamed", user.Username)
	})

	mt.Run("missing", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.UpdateUser(context.Background(), id, models.UserFields{Username: "renamed"})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: `E11000 duplicate key error collection: tasks.users index: email_unique dup key: { email: "taken@mail.com" }`,
		}))

		_, err := s.UpdateUser(context.Background(), id, models.UserFields{Email: "taken@mail.com"})
		dup, ok := domainerrors.AsDuplicateKey(err)
		require.True(t, ok)
		assert.Equal(t, "email", dup.Field)
	})
}

func TestTaskQueries(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("by status", func(mt *mtest.T) {
		s := newMockStorage(mt)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.tasks", mtest.FirstBatch,
			taskDoc(first, "Complete project report", models.StatusPending),
			taskDoc(second, "Review pull requests", models.StatusPending),
		))

		tasks, err := s.GetTasksByStatus(context.Background(), models.StatusPending)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, first, tasks[0].ID)
		assert.Equal(t, "Review pull requests", tasks[1].Subject)
	})

	mt.Run("by username empty", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.tasks", mtest.FirstBatch))

		tasks, err := s.GetTasksByUsername(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	mt.Run("by subject", func(mt *mtest.T) {
		s := newMockStorage(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.tasks", mtest.FirstBatch,
			taskDoc(id, "Complete project report", models.StatusComplete)))

		task, err := s.GetTaskBySubject(context.Background(), "Complete project report")
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
		assert.Equal(t, models.StatusComplete, task.Status)
	})

	mt.Run("query failure", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad value",
		}))

		_, err := s.GetTasksByStatus(context.Background(), models.StatusPending)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "get tasks by status")
	})
}

func TestTaskWrites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		task := &models.Task{Subject: "Complete project report", Status: models.StatusPending, Username: "newUser"}
		require.NoError(t, s.CreateTask(context.Background(), task))
		assert.False(t, task.ID.IsZero())
	})

	mt.Run("create duplicate subject", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: `E11000 duplicate key error collection: tasks.tasks index: subject_unique dup key: { subject: "Complete project report" }`,
		}))

		err := s.CreateTask(context.Background(), &models.Task{Subject: "Complete project report"})
		dup, ok := domainerrors.AsDuplicateKey(err)
		require.True(t, ok)
		assert.Equal(t, "subject already exists.", dup.Error())
	})

	mt.Run("update", func(mt *mtest.T) {
		s := newMockStorage(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value",
			Value: taskDoc(id, "Complete project report", models.StatusComplete)}))

		task, err := s.UpdateTask(context.Background(), id, models.TaskFields{Status: models.StatusComplete})
		require.NoError(t, err)
		assert.Equal(t, models.StatusComplete, task.Status)
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := newMockStorage(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value",
			Value: taskDoc(id, "Complete project report", models.StatusPending)}))

		task, err := s.DeleteTask(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, task.ID)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		s := newMockStorage(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		task, err := s.DeleteTask(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
		assert.Nil(t, task)
	})
}

func TestDuplicateField(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{`E11000 duplicate key error collection: tasks.users index: username_unique dup key: { username: "a" }`, "username"},
		{`E11000 duplicate key error collection: tasks.users index: email_unique dup key: { email: "a" }`, "email"},
		{`E11000 duplicate key error collection: tasks.tasks index: subject_1 dup key: { subject: "a" }`, "subject"},
		{`E11000 duplicate key error`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, duplicateField(errors.New(tt.message)))
		})
	}
}

func TestCloseWithoutClient(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("borrowed database", func(mt *mtest.T) {
		assert.NoError(t, newMockStorage(mt).Close(context.Background()))
	})
}
