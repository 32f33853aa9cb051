package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/subtrack/internal/auth"
)

var (
	secret   = []byte("test-secret")
	issuedAt = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
)

func newUser(t *testing.T, password string) *auth.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return &auth.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		FirstName:    "Jane",
		LastName:     "Doe",
	}
}

func newService(repo auth.Repository, now *time.Time) *auth.Service {
	return auth.NewService(repo, auth.Config{
		Secret:          secret,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		Now:             func() time.Time { return *now },
	})
}

func TestService_Login(t *testing.T) {
	type testCase struct {
		name      string
		email     string
		password  string
		setupMock func(m *auth.MockRepository, u *auth.User)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			email:    " Jane@Example.com ",
			password: "correct horse",
			setupMock: func(m *auth.MockRepository, u *auth.User) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "jane@example.com").Return(u, nil)
				m.EXPECT().CreateRefreshToken(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:     "WrongPassword",
			email:    "jane@example.com",
			password: "wrong",
			setupMock: func(m *auth.MockRepository, u *auth.User) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "jane@example.com").Return(u, nil)
			},
			wantErr: auth.ErrInvalidCredentials,
		},
		{
			name:     "UnknownUser",
			email:    "nobody@example.com",
			password: "correct horse",
			setupMock: func(m *auth.MockRepository, _ *auth.User) {
				m.EXPECT().GetUserByEmail(gomock.Any(), "nobody@example.com").Return(nil, auth.ErrUserNotFound)
			},
			wantErr: auth.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := auth.NewMockRepository(ctrl)
			u := newUser(t, "correct horse")
			tt.setupMock(repo, u)

			now := issuedAt
			svc := newService(repo, &now)

			pair, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, pair.Token)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, pair.RefreshToken)

			claims, err := svc.Verify(pair.Token)
			require.NoError(t, err)
			assert.Equal(t, "jane@example.com", claims.Username)
			assert.Equal(t, "Jane", claims.FirstName)
			assert.Equal(t, "Doe", claims.LastName)
			assert.Equal(t, u.ID.String(), claims.Subject)
			assert.Equal(t, issuedAt.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
		})
	}
}

func TestService_Refresh_RotatesToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	u := newUser(t, "correct horse")
	now := issuedAt
	svc := newService(repo, &now)

	var stored *auth.RefreshToken

	repo.EXPECT().GetUserByEmail(gomock.Any(), u.Email).Return(u, nil)
	repo.EXPECT().CreateRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *auth.RefreshToken) error {
			stored = rt
			return nil
		})

	first, err := svc.Login(context.Background(), u.Email, "correct horse")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, first.RefreshToken, stored.TokenHash)
	assert.Equal(t, issuedAt.Add(24*time.Hour), stored.ExpiresAt)

	now = issuedAt.Add(2 * time.Hour)

	repo.EXPECT().GetRefreshToken(gomock.Any(), stored.TokenHash).Return(stored, nil)
	repo.EXPECT().GetUser(gomock.Any(), u.ID).Return(u, nil)
	repo.EXPECT().RevokeRefreshToken(gomock.Any(), stored.TokenHash, now).Return(nil)
	repo.EXPECT().CreateRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	claims, err := svc.Verify(second.Token)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestService_Refresh_Rejected(t *testing.T) {
	revoked := issuedAt.Add(-time.Minute)

	type testCase struct {
		name      string
		token     string
		setupMock func(m *auth.MockRepository)
	}

	tests := []testCase{
		{
			name:  "Empty",
			token: "",
		},
		{
			name:  "Unknown",
			token: "nope",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetRefreshToken(gomock.Any(), gomock.Any()).Return(nil, auth.ErrInvalidRefreshToken)
			},
		},
		{
			name:  "Revoked",
			token: "revoked",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetRefreshToken(gomock.Any(), gomock.Any()).Return(&auth.RefreshToken{
					ExpiresAt: issuedAt.Add(time.Hour),
					RevokedAt: &revoked,
				}, nil)
			},
		},
		{
			name:  "Expired",
			token: "expired",
			setupMock: func(m *auth.MockRepository) {
				m.EXPECT().GetRefreshToken(gomock.Any(), gomock.Any()).Return(&auth.RefreshToken{
					ExpiresAt: issuedAt,
				}, nil)
			},
		},
		{
			name:  "UserGone",
			token: "orphan",
			setupMock: func(m *auth.MockRepository) {
				userID := uuid.New()
				m.EXPECT().GetRefreshToken(gomock.Any(), gomock.Any()).Return(&auth.RefreshToken{
					UserID:    userID,
					ExpiresAt: issuedAt.Add(time.Hour),
				}, nil)
				m.EXPECT().GetUser(gomock.Any(), userID).Return(nil, auth.ErrUserNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := auth.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			now := issuedAt
			svc := newService(repo, &now)

			_, err := svc.Refresh(context.Background(), tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
		})
	}
}

func TestService_Verify(t *testing.T) {
	sign := func(method jwt.SigningMethod, key any, exp time.Time) string {
		token, err := jwt.NewWithClaims(method, auth.Claims{
			Username: "jane@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		}).SignedString(key)
		require.NoError(t, err)

		return token
	}

	type testCase struct {
		name    string
		token   string
		wantErr bool
	}

	tests := []testCase{
		{name: "Valid", token: sign(jwt.SigningMethodHS256, secret, issuedAt.Add(time.Minute))},
		{name: "Expired", token: sign(jwt.SigningMethodHS256, secret, issuedAt.Add(-time.Minute)), wantErr: true},
		{name: "WrongSecret", token: sign(jwt.SigningMethodHS256, []byte("other"), issuedAt.Add(time.Minute)), wantErr: true},
		{name: "WrongAlgorithm", token: sign(jwt.SigningMethodHS512, secret, issuedAt.Add(time.Minute)), wantErr: true},
		{name: "Garbage", token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := issuedAt
			svc := newService(nil, &now)

			claims, err := svc.Verify(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, auth.ErrInvalidToken)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "jane@example.com", claims.Username)
		})
	}
}

func TestService_CreateUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := auth.NewMockRepository(ctrl)
	now := issuedAt
	svc := newService(repo, &now)

	repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)

	u, err := svc.CreateUser(context.Background(), auth.CreateUserParams{
		Email:     " Jane@Example.com",
		Password:  "correct horse",
		FirstName: "Jane",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))

	_, err = svc.CreateUser(context.Background(), auth.CreateUserParams{Email: "bad", Password: "short"})
	assert.ErrorIs(t, err, auth.ErrInvalidUser)
}
