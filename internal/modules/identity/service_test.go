package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zubacrafts/storefront/internal/store"
)

func newTestService(t *testing.T, verify CredentialVerifier) (Service, Repository) {
	t.Helper()
	db := store.NewMemory()
	require.NoError(t, db.DefineCollection(context.Background(), Spec))
	repo := NewStoreRepository(db)
	return NewService(repo, db, verify, nil), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Email: "Alice@Example.com", Password: "s3cret", FirstName: "Alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, RoleCustomer, u.Role)

	got, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotNil(t, got.LastLogin)
	assert.True(t, svc.IsAuthenticated(ctx))

	actor := svc.CurrentActor(ctx)
	assert.Equal(t, u.ID, actor.UserID)
	assert.False(t, actor.Admin)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "x"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterRequest{Email: "ALICE@example.com", Password: "y"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "s3cret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, svc.IsAuthenticated(ctx))
}

func TestLoginSignalsTwoFactor(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "s3cret"})
	require.NoError(t, err)
	u.TwoFactorEnabled = true
	require.NoError(t, repo.UpdateUser(ctx, u))

	_, err = svc.Login(ctx, "alice@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrTwoFactorRequired)
	// a distinguished outcome, not a session
	assert.False(t, svc.IsAuthenticated(ctx))
}

func TestLogoutClearsSession(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "s3cret"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	svc.Logout(ctx)
	assert.False(t, svc.IsAuthenticated(ctx))
	assert.True(t, svc.CurrentActor(ctx).Guest())
	// logging out twice is harmless
	svc.Logout(ctx)
}

func TestBcryptVerifierRoundTrip(t *testing.T) {
	svc, repo := newTestService(t, BcryptVerifier{})
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Password: "s3cret"})
	require.NoError(t, err)

	stored, err := repo.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.Password)

	_, err = svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice@example.com", "S3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminActor(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterRequest{Email: "root@example.com", Password: "pw"})
	require.NoError(t, err)
	u.Role = RoleAdmin
	require.NoError(t, repo.UpdateUser(ctx, u))

	_, err = svc.Login(ctx, "root@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, svc.IsAdmin(ctx))
	assert.True(t, svc.CurrentActor(ctx).Admin)
}
