package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*Sessions, *SQLDB) {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSessions(db, NewTokenIssuer([]byte("k"), time.Minute), time.Hour), db
}

func TestSessions_RegisterStoresHashOnly(t *testing.T) {
	s, db := newTestSessions(t)
	ctx := testContext(t)

	acc, err := s.Register(ctx, RegisterInput{Email: " Ann@Example.com ", Password: "secret123", FName: " Ann "})
	require.NoError(t, err)
	assert.NotZero(t, acc.No)
	assert.Equal(t, "ann@example.com", acc.Email)
	assert.Equal(t, "Ann", acc.FName)
	assert.Equal(t, StatusActive, acc.Status)

	stored, err := db.GetAccountByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.True(t, comparePassword(stored.Password, "secret123"))
}

func TestSessions_LoginRejectsInactive(t *testing.T) {
	s, db := newTestSessions(t)
	ctx := testContext(t)
	acc, err := s.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = db.db.ExecContext(ctx, `UPDATE employees SET status = 'inactive' WHERE no = ?`, acc.No)
	require.NoError(t, err)

	_, err = s.Login(ctx, "a@x.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessions_RefreshAfterDeactivation(t *testing.T) {
	s, db := newTestSessions(t)
	ctx := testContext(t)
	acc, err := s.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	res, err := s.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	_, err = db.db.ExecContext(ctx, `UPDATE employees SET status = 'inactive' WHERE no = ?`, acc.No)
	require.NoError(t, err)

	_, err = s.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessions_RefreshExpired(t *testing.T) {
	s, _ := newTestSessions(t)
	ctx := testContext(t)
	_, err := s.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	res, err := s.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessions_RefreshRotates(t *testing.T) {
	s, db := newTestSessions(t)
	ctx := testContext(t)
	_, err := s.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	res, err := s.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	pair, err := s.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.AccessToken, pair.AccessToken)
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	old, err := db.GetRefreshToken(ctx, hashToken(res.RefreshToken))
	require.NoError(t, err)
	assert.True(t, old.Revoked)

	next, err := db.GetRefreshToken(ctx, hashToken(pair.RefreshToken))
	require.NoError(t, err)
	assert.False(t, next.Revoked)
	assert.Equal(t, old.AccountNo, next.AccountNo)

	no, err := s.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, old.AccountNo, no)
}

func TestSessions_LogoutThenRefresh(t *testing.T) {
	s, _ := newTestSessions(t)
	ctx := testContext(t)
	_, err := s.Register(ctx, RegisterInput{Email: "a@x.com", Password: "secret123"})
	require.NoError(t, err)
	res, err := s.Login(ctx, "a@x.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, res.RefreshToken))
	require.NoError(t, s.Logout(ctx, res.RefreshToken))
	require.NoError(t, s.Logout(ctx, "never-issued"))

	_, err = s.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestSessions_LoginValidation(t *testing.T) {
	s, _ := newTestSessions(t)
	_, err := s.Login(testContext(t), "", "secret123")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.Login(testContext(t), "a@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)
}
