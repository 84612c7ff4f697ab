package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobeehub/internal/auth"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	storage, err := New(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		storage.Close()
	})

	return storage
}

func testTokens() *auth.TokenData {
	return &auth.TokenData{
		AccessToken:  "access-1",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		ExpiresIn:    3600,
		Expires:      time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteStorage_Tokens(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	// Nothing stored yet
	loaded, err := storage.LoadTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	tokens := testTokens()
	require.NoError(t, storage.SaveTokens(ctx, tokens))

	loaded, err = storage.LoadTokens(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, tokens.AccessToken, loaded.AccessToken)
	assert.Equal(t, tokens.TokenType, loaded.TokenType)
	assert.Equal(t, tokens.RefreshToken, loaded.RefreshToken)
	assert.True(t, tokens.Expires.Equal(loaded.Expires))

	// Replaced wholesale
	replacement := testTokens()
	replacement.AccessToken = "access-2"
	replacement.RefreshToken = "refresh-2"
	require.NoError(t, storage.SaveTokens(ctx, replacement))

	loaded, err = storage.LoadTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-2", loaded.AccessToken)
	assert.Equal(t, "refresh-2", loaded.RefreshToken)

	require.NoError(t, storage.ClearTokens(ctx))
	loaded, err = storage.LoadTokens(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSQLiteStorage_TokensSurviveReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.SaveTokens(ctx, testTokens()))
	require.NoError(t, first.Close())

	// Migrations are a no-op the second time
	second, err := New(dbPath)
	require.NoError(t, err)
	defer second.Close()

	loaded, err := second.LoadTokens(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access-1", loaded.AccessToken)
}

func TestSQLiteStorage_Notices(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	storage.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	notices, err := storage.ListNotices(ctx)
	require.NoError(t, err)
	assert.Empty(t, notices)

	require.NoError(t, storage.AddNotice(ctx, auth.NoticePin, "PIN abcd"))
	require.NoError(t, storage.AddNotice(ctx, auth.NoticeReauthorization, "re-authorize"))

	notices, err = storage.ListNotices(ctx)
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, auth.NoticePin, notices[0].Key)
	assert.Equal(t, "PIN abcd", notices[0].Message)
	assert.Equal(t, auth.NoticeReauthorization, notices[1].Key)

	// Same key replaces the message
	require.NoError(t, storage.AddNotice(ctx, auth.NoticePin, "PIN efgh"))
	notices, err = storage.ListNotices(ctx)
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "PIN efgh", notices[1].Message)

	assert.Error(t, storage.AddNotice(ctx, "", "no key"))

	require.NoError(t, storage.RemoveNotices(ctx))
	notices, err = storage.ListNotices(ctx)
	require.NoError(t, err)
	assert.Empty(t, notices)
}
