// Package pipeline runs a route as an ordered list of stages.
//
// A stage either lets the request continue (nil) or ends it with a
// Response. The first non-nil Response is written and nothing after it
// runs. The last stage of a route is its controller, which always answers.
package pipeline

import (
	"net/http"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/logging"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int
	Body   any
}

type Stage func(ctx *gin.Context) *Response

type messageBody struct {
	Message string `json:"message"`
}

type ErrorItem struct {
	Message string `json:"message"`
}

// Envelope is the body of every validation failure.
type Envelope struct {
	Message string      `json:"message"`
	Errors  []ErrorItem `json:"errors"`
}

func JSON(status int, body any) *Response {
	return &Response{Status: status, Body: body}
}

func Message(status int, message string) *Response {
	return &Response{Status: status, Body: messageBody{Message: message}}
}

func Data(status int, data any) *Response {
	return &Response{Status: status, Body: gin.H{"data": data}}
}

func NoContent() *Response {
	return &Response{Status: http.StatusNoContent}
}

// Invalid builds the 400 envelope listing reasons in order.
func Invalid(reasons ...messages.Reason) *Response {
	items := make([]ErrorItem, 0, len(reasons))
	for _, r := range reasons {
		items = append(items, ErrorItem{Message: r.Message()})
	}
	return &Response{
		Status: http.StatusBadRequest,
		Body:   Envelope{Message: messages.BadRequest, Errors: items},
	}
}

// FromError answers with the status and message the error declares.
// Anything unclassified is a server error.
func FromError(err error) *Response {
	if e, ok := domainerrors.As(err); ok {
		return Message(e.Status, e.Message)
	}
	return Message(http.StatusInternalServerError, messages.ServerError)
}

// Handler chains stages into one gin handler.
func Handler(stages ...Stage) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		for _, stage := range stages {
			if resp := stage(ctx); resp != nil {
				write(ctx, resp)
				return
			}
		}
		logging.Ctx(ctx.Request.Context()).Error().
			Str("path", ctx.FullPath()).
			Msg("route finished without a response")
		write(ctx, Message(http.StatusInternalServerError, messages.ServerError))
	}
}

func write(ctx *gin.Context, resp *Response) {
	if resp.Body == nil {
		ctx.AbortWithStatus(resp.Status)
		return
	}
	ctx.AbortWithStatusJSON(resp.Status, resp.Body)
}
