package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcorn/popcorn/internal/testutil"
	"github.com/popcorn/popcorn/internal/validate"
)

type fakeProfiles struct {
	mu      sync.Mutex
	created map[string]string
	err     error
}

func (f *fakeProfiles) CreateEmpty(_ context.Context, userID, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.created == nil {
		f.created = map[string]string{}
	}
	f.created[userID] = email
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeProfiles) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	profiles := &fakeProfiles{}
	svc, err := NewService(tdb.Conn, profiles, "test-secret", time.Hour, tdb.Logger)
	require.NoError(t, err)
	return svc, profiles
}

func TestSignUp_CreatesProfile(t *testing.T) {
	svc, profiles := newTestService(t)

	acct, err := svc.SignUp(context.Background(), " New@Example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, acct.UserID)
	assert.Equal(t, "new@example.com", acct.Email)
	assert.Equal(t, "new@example.com", profiles.created[acct.UserID])
}

func TestSignUp_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), "not-an-email", "123")
	var ve *validate.Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid email address", ve.Fields["email"])
	assert.Equal(t, "Password must be at least 6 characters", ve.Fields["password"])
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "dup@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "DUP@example.com", "secret2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUp_ProfileFailureRollsBack(t *testing.T) {
	svc, profiles := newTestService(t)
	ctx := context.Background()
	profiles.err = errors.New("store down")

	_, err := svc.SignUp(ctx, "a@example.com", "secret1")
	require.Error(t, err)

	profiles.err = nil
	_, err = svc.SignUp(ctx, "a@example.com", "secret1")
	assert.NoError(t, err, "email should be free again after rollback")
}

func TestSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acct, err := svc.SignUp(ctx, "login@example.com", "secret1")
	require.NoError(t, err)

	token, got, err := svc.SignIn(ctx, "LOGIN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, acct, got)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, acct.UserID, claims.UserID())
	assert.Equal(t, acct.Email, claims.Email)
	assert.NotEmpty(t, claims.ID)

	_, _, err = svc.SignIn(ctx, "login@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, "login@example.com", "   ")
	var ve *validate.Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Password cannot be empty", ve.Fields["password"])
}

func TestSignOut_RevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "out@example.com", "secret1")
	require.NoError(t, err)
	token, _, err := svc.SignIn(ctx, "out@example.com", "secret1")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(ctx, claims))
	require.NoError(t, svc.SignOut(ctx, claims), "signing out twice is harmless")

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// A fresh login still works.
	token2, _, err := svc.SignIn(ctx, "out@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, token2)
	assert.NoError(t, err)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewService(nil, nil, "other-secret", time.Hour, svc.logger)
	require.NoError(t, err)
	foreign, err := other.GenerateToken(Account{UserID: "u1", Email: "x@y.co"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Subject:   "u1",
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString(svc.jwtSecret)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestPurgeRevoked(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	past := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "old",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	future := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "new",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	require.NoError(t, svc.SignOut(ctx, past))
	require.NoError(t, svc.SignOut(ctx, future))

	n, err := svc.PurgeRevoked(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
