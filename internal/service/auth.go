package service

import (
	"context"
	"errors"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/logging"

	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(username string) (string, error)
}

type AuthService struct {
	users  OwnerLookup
	tokens TokenIssuer
}

func NewAuthService(users OwnerLookup, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login answers an unknown user and a wrong password with the same
// Unauthorized error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, domainerrors.ErrNotFound), err == nil && user == nil:
		return "", domainerrors.Unauthorized(messages.AuthFailed)
	case domainerrors.IsKind(err, domainerrors.KindNotFound):
		return "", domainerrors.Unauthorized(messages.AuthFailed)
	case err != nil:
		return "", translate(ctx, "login lookup", err, messages.AuthFailed)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return "", domainerrors.Unauthorized(messages.AuthFailed)
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("username", user.Username).Msg("stored password hash unusable")
		return "", domainerrors.Server(err)
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("token signing failed")
		return "", domainerrors.Server(err)
	}
	return token, nil
}
