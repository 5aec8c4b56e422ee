package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "secret key is empty"},
		{name: "whitespace", key: "   ", wantErr: "secret key is empty"},
		{name: "absolute", key: "/etc/access_token", wantErr: "invalid secret key"},
		{name: "traversal", key: "../access_token", wantErr: "invalid secret key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Put(context.Background(), domain.AccessTokenKey, "A1"))
	require.NoError(t, store.Put(context.Background(), domain.AccessTokenKey, "A2"))

	got, err := store.Get(context.Background(), domain.AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "A2", got)

	info, err := os.Stat(filepath.Join(root, domain.AccessTokenKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretFileMod), info.Mode().Perm())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStoreGetMissingSecretReportsNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Get(context.Background(), domain.RefreshTokenKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreDeleteIsIdempotentWhenSecretMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), domain.RefreshTokenKey, "R1"))

	require.NoError(t, store.Delete(context.Background(), domain.RefreshTokenKey))
	require.NoError(t, store.Delete(context.Background(), domain.RefreshTokenKey))

	_, err := store.Get(context.Background(), domain.RefreshTokenKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreHonoursCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewStore(t.TempDir()).Put(ctx, domain.AccessTokenKey, "A1")
	require.ErrorIs(t, err, context.Canceled)
}
