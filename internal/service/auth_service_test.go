package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/systemcontrol/defect-service/internal/config"
	"github.com/systemcontrol/defect-service/internal/domain"
	"github.com/systemcontrol/defect-service/internal/repository"
)

func newAuthFixture(t *testing.T) (*AuthService, repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	cfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4}
	return NewAuthService(cfg, store, zap.NewNop()), store
}

func TestEnsureDefaultUsersSeedsOncePerRole(t *testing.T) {
	svc, store := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	roles := map[domain.Role]bool{}
	for _, u := range users {
		roles[u.Role] = true
	}
	assert.True(t, roles[domain.RoleAdmin])
	assert.True(t, roles[domain.RoleManager])
	assert.True(t, roles[domain.RoleEngineer])

	// a second run must not duplicate accounts
	require.NoError(t, svc.EnsureDefaultUsers(ctx))
	users, err = store.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	user, token, _, err := svc.Login(ctx, "engineer", "engineer")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEngineer, user.Role)
	assert.NotEmpty(t, token)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())

	_, _, _, err = svc.Login(ctx, "engineer", "wrong")
	assertDomainCode(t, err, "UNAUTHORIZED")

	_, _, _, err = svc.Login(ctx, "nobody", "pw")
	assertDomainCode(t, err, "UNAUTHORIZED")
}
