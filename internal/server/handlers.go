package server

import (
	"net/http"

	"taskmanager/internal/auth"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/pipeline"

	"github.com/gin-gonic/gin"
)

func (TAPI *TaskAPI) login(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	token, err := TAPI.deps.Auth.Login(ctx.Request.Context(), models.LoginRequest{
		Username: payload.Get("username"),
		Password: payload.Get("password"),
	})
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.JSON(http.StatusOK, gin.H{"token": token})
}

func (TAPI *TaskAPI) register(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	_, err := TAPI.deps.Users.Register(ctx.Request.Context(), models.RegisterRequest{
		Username: payload.Get("username"),
		Email:    payload.Get("email"),
		Password: payload.Get("password"),
	})
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.Message(http.StatusCreated, messages.UserRegistered)
}

func (TAPI *TaskAPI) updateUser(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	_, err := TAPI.deps.Users.Update(ctx.Request.Context(), models.UpdateUserRequest{
		ID:       payload.Get("id"),
		Username: payload.Get("username"),
		Email:    payload.Get("email"),
		Password: payload.Get("password"),
	})
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.Message(http.StatusOK, messages.UserUpdated)
}

func (TAPI *TaskAPI) createTask(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	owner := payload.Get("username")
	if owner == "" {
		owner = auth.Username(ctx)
	}

	_, err := TAPI.deps.Tasks.Create(ctx.Request.Context(), models.CreateTaskRequest{
		Subject:     payload.Get("subject"),
		Description: payload.Get("description"),
		Status:      models.Status(payload.Get("status")),
		Username:    owner,
	})
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.Message(http.StatusCreated, messages.TaskCreated)
}

func (TAPI *TaskAPI) updateTask(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	_, err := TAPI.deps.Tasks.Update(ctx.Request.Context(), models.UpdateTaskRequest{
		ID:          payload.Get("id"),
		Subject:     payload.Get("subject"),
		Description: payload.Get("description"),
		Status:      models.Status(payload.Get("status")),
	})
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.Message(http.StatusOK, messages.TaskUpdated)
}

func (TAPI *TaskAPI) deleteTask(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	if err := TAPI.deps.Tasks.Delete(ctx.Request.Context(), payload.Get("id")); err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.NoContent()
}

func (TAPI *TaskAPI) getTasksByStatus(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	tasks, err := TAPI.deps.Tasks.RetrieveByStatus(ctx.Request.Context(), models.Status(payload.Get("status")))
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.Data(http.StatusOK, tasks)
}

func (TAPI *TaskAPI) getTasksByUsername(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	tasks, err := TAPI.deps.Tasks.RetrieveByUsername(ctx.Request.Context(), payload.Get("username"))
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.Data(http.StatusOK, tasks)
}

func (TAPI *TaskAPI) getTaskBySubject(ctx *gin.Context) *pipeline.Response {
	payload, resp := pipeline.Validated(ctx)
	if resp != nil {
		return resp
	}

	task, err := TAPI.deps.Tasks.RetrieveBySubject(ctx.Request.Context(), payload.Get("subject"))
	if err != nil {
		return pipeline.FromError(err)
	}
	return pipeline.Data(http.StatusOK, task)
}
