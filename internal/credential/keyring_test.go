package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryKeyring(t *testing.T) *keyring.ArrayKeyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	original := open
	open = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { open = original })
	return ring
}

func TestSetThenResolve(t *testing.T) {
	useMemoryKeyring(t)
	key := SourceKey(KeyIMAPPassword, "work")

	v, err := Resolve("", key)
	require.NoError(t, err)
	assert.Empty(t, v, "missing entries resolve to empty")

	require.NoError(t, Set(key, "s3cret"))

	v, err = Resolve("", key)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	v, err = Resolve("from-env", key)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v, "explicit value wins")
}

func TestDeleteRemovesEntry(t *testing.T) {
	useMemoryKeyring(t)
	require.NoError(t, Set(KeyDatabaseURL, "postgres://db"))

	got, err := Get(KeyDatabaseURL)
	require.NoError(t, err)
	assert.Equal(t, "postgres://db", got)

	require.NoError(t, Delete(KeyDatabaseURL))

	_, err = Get(KeyDatabaseURL)
	assert.True(t, isNotFound(err))
}

func TestSourceKey(t *testing.T) {
	assert.Equal(t, "imap-password-work", SourceKey(KeyIMAPPassword, "work"))
	assert.Equal(t, "redis-password-redis-0", SourceKey(KeyRedisPassword, "redis-0"))
	assert.Equal(t, "redis-password", SourceKey(KeyRedisPassword, ""))
}
