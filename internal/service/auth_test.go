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
	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(strongPassword), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &models.User{Username: "newUser", Password: string(hash)}

	tests := []struct {
		name      string
		request   models.LoginRequest
		mockSetup func(*MockUserRepository, *MockTokenIssuer)
		want      struct {
			token   string
			status  int
			message string
		}
	}{
		{
			name:    "valid credentials",
			request: models.LoginRequest{Username: "newUser", Password: strongPassword},
			mockSetup: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(stored, nil)
				tokens.On("Issue", "newUser").Return("signed.token.value", nil)
			},
			want: struct {
				token   string
				status  int
				message string
			}{token: "signed.token.value"},
		},
		{
			name:    "unknown user",
			request: models.LoginRequest{Username: "ghost", Password: strongPassword},
			mockSetup: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, domainerrors.ErrNotFound)
			},
			want: struct {
				token   string
				status  int
				message string
			}{status: http.StatusUnauthorized, message: messages.AuthFailed},
		},
		{
			name:    "wrong password",
			request: models.LoginRequest{Username: "newUser", Password: "Wr0ng!pass"},
			mockSetup: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(stored, nil)
			},
			want: struct {
				token   string
				status  int
				message string
			}{status: http.StatusUnauthorized, message: messages.AuthFailed},
		},
		{
			name:    "lookup failure",
			request: models.LoginRequest{Username: "newUser", Password: strongPassword},
			mockSetup: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(nil, fmt.Errorf("no reachable servers"))
			},
			want: struct {
				token   string
				status  int
				message string
			}{status: http.StatusInternalServerError, message: messages.ServerError},
		},
		{
			name:    "signing failure",
			request: models.LoginRequest{Username: "newUser", Password: strongPassword},
			mockSetup: func(users *MockUserRepository, tokens *MockTokenIssuer) {
				users.On("GetUserByUsername", mock.Anything, "newUser").Return(stored, nil)
				tokens.On("Issue", "newUser").Return("", fmt.Errorf("key is invalid"))
			},
			want: struct {
				token   string
				status  int
				message string
			}{status: http.StatusInternalServerError, message: messages.ServerError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tokens := new(MockTokenIssuer)
			tt.mockSetup(users, tokens)
			svc := NewAuthService(users, tokens)

			token, err := svc.Login(context.Background(), tt.request)

			if tt.want.status != 0 {
				requireClassified(t, err, tt.want.status, tt.want.message)
				assert.Empty(t, token)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.token, token)
			}
			users.AssertExpectations(t)
			tokens.AssertExpectations(t)
		})
	}
}
