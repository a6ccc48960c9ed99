package service

import (
	"context"
	"errors"
	"strings"

	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/domain/messages"
	"taskmanager/internal/domain/models"
	"taskmanager/internal/logging"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo  UserRepository
	cost  int
	clock clock
}

// NewUserService hashes passwords with the given bcrypt cost; values
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewUserService(repo UserRepository, cost int) *UserService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, cost: cost}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	hash, err := s.hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	user := &models.User{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		Password:  hash,
		Role:      models.RoleGeneral,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, translate(ctx, "register user", err, messages.UserNotFound)
	}

	logging.Ctx(ctx).Info().Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Update changes the supplied fields only. The password is rehashed when a
// new one is given.
func (s *UserService) Update(ctx context.Context, req models.UpdateUserRequest) (*models.User, error) {
	id, err := parseID(req.ID, messages.UserNotFound)
	if err != nil {
		return nil, err
	}

	fields := models.UserFields{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
	}
	if req.Password != "" {
		if fields.Password, err = s.hash(ctx, req.Password); err != nil {
			return nil, err
		}
	}

	var user *models.User
	if fields.Empty() {
		user, err = s.repo.GetUserByID(ctx, id)
	} else {
		user, err = s.repo.UpdateUser(ctx, id, fields)
	}
	if err != nil {
		return nil, translate(ctx, "update user", err, messages.UserNotFound)
	}
	if user == nil {
		return nil, domainerrors.NotFound(messages.UserNotFound)
	}
	return user, nil
}

func (s *UserService) RetrieveByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, translate(ctx, "retrieve user", err, messages.UserNotFound)
	}
	if user == nil {
		return nil, domainerrors.NotFound(messages.UserNotFound)
	}
	return user, nil
}

func (s *UserService) hash(ctx context.Context, password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domainerrors.Validation(messages.PasswordMaxBytes.Message())
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("password hashing failed")
		return "", domainerrors.Server(err)
	}
	return string(b), nil
}
