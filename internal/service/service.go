// Package service holds the business rules between controllers and
// storage.
//
// Every storage error leaves this package classified: errors that are
// already classified pass through, duplicate keys become UniqueConstraint,
// the not-found sentinel becomes NotFound with the operation's message and
// anything else is logged and hidden behind a server error.
package service

import (
	"context"
	"errors"
	"time"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/logging"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, fields models.UserFields) (*models.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	UpdateTask(ctx context.Context, id primitive.ObjectID, fields models.TaskFields) (*models.Task, error)
	DeleteTask(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	GetTasksByStatus(ctx context.Context, status models.Status) ([]models.Task, error)
	GetTasksByUsername(ctx context.Context, username string) ([]models.Task, error)
	GetTaskBySubject(ctx context.Context, subject string) (*models.Task, error)
}

// OwnerLookup resolves task owners.
type OwnerLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

func translate(ctx context.Context, op string, err error, notFound string) error {
	if e, ok := domainerrors.As(err); ok {
		return e
	}
	if dup, ok := domainerrors.AsDuplicateKey(err); ok {
		return domainerrors.UniqueConstraint(dup.Error(), err)
	}
	if errors.Is(err, domainerrors.ErrNotFound) {
		return domainerrors.NotFound(notFound)
	}

	logging.Ctx(ctx).Error().Err(err).Str("op", op).Msg("storage operation failed")
	return domainerrors.Server(err)
}

// parseID treats a malformed id like an unknown one.
func parseID(hex string, notFound string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, domainerrors.NotFound(notFound)
	}
	return id, nil
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
