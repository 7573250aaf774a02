package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/perfumery/pkg/auth"
	"github.com/example/perfumery/pkg/models"
	"github.com/example/perfumery/pkg/repository"
	"github.com/example/perfumery/pkg/service"
	"github.com/example/perfumery/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserFixture() (*service.UserService, *fakeUserStore, *auth.TokenManager) {
	store := newFakeUserStore()
	tokens := auth.NewTokenManager("testsecret", time.Hour)
	logger := zap.NewNop()
	return service.NewUserService(store, tokens, service.NewAuditor(&fakeAuditStore{}, logger), logger), store, tokens
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc, store, tokens := newUserFixture()
	ctx := context.Background()

	session, err := svc.Register(ctx, validation.RegisterRequest{Name: "Layla", Email: "Layla@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "layla@example.com", session.User.Email)
	assert.Equal(t, models.RoleCustomer, session.User.Role)
	assert.NotEqual(t, "password123", store.users[session.User.ID].PasswordHash)

	claims, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID.Hex(), claims.Subject)
	assert.False(t, claims.IsAdmin())

	_, err = svc.Register(ctx, validation.RegisterRequest{Name: "Layla", Email: "layla@example.com", Password: "password123"})
	assert.ErrorIs(t, err, service.ErrEmailTaken)

	session, err = svc.Login(ctx, validation.LoginRequest{Email: "LAYLA@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = svc.Login(ctx, validation.LoginRequest{Email: "layla@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, validation.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestUserService_AdminCRUD(t *testing.T) {
	svc, _, _ := newUserFixture()
	ctx := context.Background()

	admin, err := svc.Create(ctx, validation.CreateUserRequest{Name: "Admin", Email: "admin@example.com", Password: "password123", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	customer, err := svc.Create(ctx, validation.CreateUserRequest{Name: "Sam", Email: "sam@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, customer.Role)

	taken := "admin@example.com"
	_, err = svc.Update(ctx, customer.ID, validation.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, service.ErrEmailTaken)

	newPassword := "another-password"
	_, err = svc.Update(ctx, customer.ID, validation.UserPatch{Password: &newPassword})
	require.NoError(t, err)
	_, err = svc.Login(ctx, validation.LoginRequest{Email: "sam@example.com", Password: newPassword})
	assert.NoError(t, err)

	list, err := svc.List(ctx, repository.Page{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	require.NoError(t, svc.Delete(ctx, customer.ID))
	_, err = svc.Get(ctx, customer.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
