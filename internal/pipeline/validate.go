package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"taskmanager/internal/domain/messages"
	"taskmanager/internal/logging"
	"taskmanager/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	payloadKey = "pipeline.payload"
	resultKey  = "pipeline.result"
)

// Validate parses the JSON body once, runs rs against it and stores both
// payload and result on the context. Query parameters fill fields the
// body does not carry.
func Validate(rs validation.RuleSet) Stage {
	return func(ctx *gin.Context) *Response {
		payload, err := readPayload(ctx)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				resp := Invalid(messages.BodyTooLarge)
				resp.Status = http.StatusRequestEntityTooLarge
				return resp
			}
			logging.Ctx(ctx.Request.Context()).Debug().Err(err).Msg("request body rejected")
			return Invalid(messages.BodyMalformed)
		}

		res := validation.Run(rs, payload)
		ctx.Set(payloadKey, payload)
		ctx.Set(resultKey, res)
		if !res.OK() {
			return Invalid(res.Reasons()...)
		}
		return nil
	}
}

// Validated returns the payload checked by Validate, or the response to
// answer with when it is missing or failed.
func Validated(ctx *gin.Context) (validation.Payload, *Response) {
	v, ok := ctx.Get(resultKey)
	if !ok {
		return nil, Invalid(messages.BodyMalformed)
	}
	res, ok := v.(validation.Result)
	if !ok {
		return nil, Invalid(messages.BodyMalformed)
	}
	if !res.OK() {
		return nil, Invalid(res.Reasons()...)
	}
	payload, _ := ctx.MustGet(payloadKey).(validation.Payload)
	return payload, nil
}

var errNotObject = errors.New("request body is not a JSON object")

// readPayload treats a body as empty only when it was read in full and
// held nothing but whitespace. A failed read is an error.
func readPayload(ctx *gin.Context) (validation.Payload, error) {
	var raw map[string]any
	if err := ctx.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		body, read := ctx.Get(gin.BodyBytesKey)
		if !read {
			return nil, err
		}
		b, _ := body.([]byte)
		if len(bytes.TrimSpace(b)) != 0 {
			return nil, fmt.Errorf("%w: %v", errNotObject, err)
		}
	}

	payload := validation.PayloadFromJSON(raw)
	for name, values := range ctx.Request.URL.Query() {
		if _, present := payload[name]; !present && len(values) > 0 {
			payload[name] = values[0]
		}
	}
	return payload, nil
}
