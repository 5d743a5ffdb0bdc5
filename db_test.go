package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDollarNumbers(t *testing.T) {
	assert.Equal(t, "UPDATE t SET a = $1 WHERE b = $2 AND c = $3", dollarNumbers("UPDATE t SET a = ? WHERE b = ? AND c = ?"))
	assert.Equal(t, "SELECT 1", dollarNumbers("SELECT 1"))
}

func TestSQLiteDB_AccountUniqueness(t *testing.T) {
	db := newTestDB(t)
	ctx := testContext(t)

	a := &Account{Email: "a@x.com", Password: "h"}
	require.NoError(t, db.CreateAccount(ctx, a))
	assert.NotZero(t, a.No)
	assert.Equal(t, StatusActive, a.Status)

	err := db.CreateAccount(ctx, &Account{Email: "a@x.com", Password: "h2"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.EqualError(t, err, "Email already exists")

	exists, err := db.EmailExists(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = db.EmailExists(ctx, "b@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteDB_ForeignKeys(t *testing.T) {
	db := newTestDB(t)
	ctx := testContext(t)

	missing := int64(99)
	err := db.CreateAccount(ctx, &Account{Email: "a@x.com", Password: "h", RankID: &missing})
	assert.ErrorIs(t, err, ErrValidation)

	rank := &Lookup{Kind: KindRank, Value: "Manager"}
	require.NoError(t, db.CreateLookup(ctx, rank))
	a := &Account{Email: "a@x.com", Password: "h", RankID: &rank.No}
	require.NoError(t, db.CreateAccount(ctx, a))

	// deleting the rank leaves the employee without one
	require.NoError(t, db.DeleteLookup(ctx, KindRank, rank.No))
	got, err := db.GetAccount(ctx, a.No)
	require.NoError(t, err)
	assert.Nil(t, got.RankID)
}

func TestSQLiteDB_RotateRefreshToken(t *testing.T) {
	db := newTestDB(t)
	ctx := testContext(t)
	a := &Account{Email: "a@x.com", Password: "h"}
	require.NoError(t, db.CreateAccount(ctx, a))

	exp := time.Now().Add(time.Hour)
	first := &RefreshToken{TokenHash: "h1", AccountNo: a.No, ExpiresAt: exp}
	require.NoError(t, db.CreateRefreshToken(ctx, first))

	require.NoError(t, db.RotateRefreshToken(ctx, "h1", &RefreshToken{TokenHash: "h2", AccountNo: a.No, ExpiresAt: exp}))

	// a second rotation of the same token loses
	err := db.RotateRefreshToken(ctx, "h1", &RefreshToken{TokenHash: "h3", AccountNo: a.No, ExpiresAt: exp})
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, err = db.GetRefreshToken(ctx, "h3")
	assert.ErrorIs(t, err, ErrNotFound, "losing rotation is rolled back")

	got, err := db.GetRefreshToken(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	assert.True(t, got.Rotated)

	got, err = db.GetRefreshToken(ctx, "h2")
	require.NoError(t, err)
	assert.False(t, got.Revoked)
	assert.WithinDuration(t, exp, got.ExpiresAt, time.Second)

	// logout revokes without marking rotation
	require.NoError(t, db.RevokeRefreshToken(ctx, "h2"))
	got, err = db.GetRefreshToken(ctx, "h2")
	require.NoError(t, err)
	assert.True(t, got.Revoked)
	assert.False(t, got.Rotated)
}

func TestInitSQLite_Upgrades(t *testing.T) {
	db := newTestDB(t)
	// running the schema again over an up to date file is harmless
	require.NoError(t, initSQLite(db.db))
}

func TestSQLiteDB_DeleteAccountDropsTokens(t *testing.T) {
	db := newTestDB(t)
	ctx := testContext(t)
	a := &Account{Email: "a@x.com", Password: "h"}
	require.NoError(t, db.CreateAccount(ctx, a))
	require.NoError(t, db.CreateRefreshToken(ctx, &RefreshToken{TokenHash: "h1", AccountNo: a.No, ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, db.DeleteAccount(ctx, a.No))
	_, err := db.GetRefreshToken(ctx, "h1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteAccount(ctx, a.No), ErrNotFound)
}

func TestSQLiteDB_EmptyListsAreNotNil(t *testing.T) {
	db := newTestDB(t)
	ctx := testContext(t)

	accounts, err := db.ListAccounts(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	lookups, err := db.ListLookups(ctx, KindFrom)
	require.NoError(t, err)
	assert.NotNil(t, lookups)
	customers, err := db.ListCustomers(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, customers)
	stocks, err := db.ListStocks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, stocks)
	logs, err := db.ListLogs(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, logs)
}

func TestMemoryAdapter(t *testing.T) {
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := testContext(t)
	require.NoError(t, db.Ping(ctx))
	require.NoError(t, db.CreateStock(ctx, &Stock{Name: "PTT"}))
	list, err := db.ListStocks(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
