// Package auth guards routes with bearer tokens.
//
// The gate runs three stages: the Authorization header must be present,
// its token must verify, and the user it names must still exist. Login
// marks its request so the existence check is skipped.
package auth

import (
	"context"
	"net/http"
	"strings"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/logging"
	"taskmanager/internal/pipeline"

	"github.com/gin-gonic/gin"
)

const (
	usernameKey   = "auth.username"
	skipLookupKey = "auth.skip_lookup"
)

type UserLookup interface {
	RetrieveByUsername(ctx context.Context, username string) (*models.User, error)
}

// Gate returns the stages protecting an authenticated route.
func Gate(tokens *Tokens, users UserLookup) []pipeline.Stage {
	return []pipeline.Stage{
		RequireHeader(),
		VerifyToken(tokens),
		EnsureUserExists(users),
	}
}

func RequireHeader() pipeline.Stage {
	return func(ctx *gin.Context) *pipeline.Response {
		values, present := ctx.Request.Header["Authorization"]
		if !present {
			return pipeline.Message(http.StatusUnauthorized, messages.AuthHeaderRequired.Message())
		}
		if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			return pipeline.Invalid(messages.AuthHeaderRequired)
		}
		return nil
	}
}

func VerifyToken(tokens *Tokens) pipeline.Stage {
	return func(ctx *gin.Context) *pipeline.Response {
		raw := strings.TrimSpace(ctx.GetHeader("Authorization"))
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))

		claims, err := tokens.Verify(raw)
		if err != nil {
			logging.Ctx(ctx.Request.Context()).Debug().Err(err).Msg("token rejected")
			return pipeline.Message(http.StatusForbidden, messages.TokenInvalid)
		}
		ctx.Set(usernameKey, claims.Username)
		return nil
	}
}

func EnsureUserExists(users UserLookup) pipeline.Stage {
	return func(ctx *gin.Context) *pipeline.Response {
		if ctx.GetBool(skipLookupKey) {
			return nil
		}

		_, err := users.RetrieveByUsername(ctx.Request.Context(), Username(ctx))
		switch {
		case err == nil:
			return nil
		case domainerrors.IsKind(err, domainerrors.KindNotFound):
			return pipeline.Message(http.StatusUnauthorized, messages.AuthFailed)
		default:
			logging.Ctx(ctx.Request.Context()).Error().Err(err).Msg("token owner lookup failed")
			return pipeline.Message(http.StatusInternalServerError, messages.ServerError)
		}
	}
}

// LoginRoute marks the request as a login so EnsureUserExists lets it through.
func LoginRoute() pipeline.Stage {
	return func(ctx *gin.Context) *pipeline.Response {
		ctx.Set(skipLookupKey, true)
		return nil
	}
}

// Username is the verified token owner, empty before VerifyToken ran.
func Username(ctx *gin.Context) string {
	return ctx.GetString(usernameKey)
}
