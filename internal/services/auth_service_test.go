package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/intervue/internal/models"
	"github.com/yoockh/intervue/internal/utils"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.byID {
		if v.Email == u.Email {
			return utils.ErrDuplicate
		}
	}
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return utils.ErrNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

var testTokens = utils.TokenConfig{Secret: "test-secret", Issuer: "intervue", TTL: time.Hour}

func TestAuthRegisterLogin(t *testing.T) {
	svc := NewAuthService(newMemUsers(), testTokens)
	ctx := context.Background()

	reg, err := svc.Register(ctx, " Ann@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", reg.User.Email)
	assert.Equal(t, models.RoleMember, reg.User.Role)

	claims, err := utils.ParseToken(testTokens, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.Subject)

	_, err = svc.Register(ctx, "ann@example.com", "password123")
	assert.True(t, utils.IsCode(err, utils.CodeConflict))

	_, err = svc.Register(ctx, "bob@example.com", "short")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	_, err = svc.Register(ctx, "not-an-email", "password123")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	login, err := svc.Login(ctx, "ANN@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestAuthChangePassword(t *testing.T) {
	svc := NewAuthService(newMemUsers(), testTokens)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "ann@example.com", "password123")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, reg.User.ID, "wrong-password", "newpassword1")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	err = svc.ChangePassword(ctx, reg.User.ID, "password123", "short")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	require.NoError(t, svc.ChangePassword(ctx, reg.User.ID, "password123", "newpassword1"))

	_, err = svc.Login(ctx, "ann@example.com", "password123")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
	_, err = svc.Login(ctx, "ann@example.com", "newpassword1")
	assert.NoError(t, err)
}
