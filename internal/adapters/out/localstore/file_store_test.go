package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	devicedom "sripavan/internal/domain/device"
)

func TestFileStore_SlotsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := NewFileFactory(dir)
	require.NoError(t, err)
	s, err := f.ForDevice("dev-1")
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "cart", `[{"id":"sku-1","quantity":3}]`))
	require.NoError(t, s.Set(ctx, "adminMode", "1"))

	// a fresh factory reads what the first one wrote
	f2, err := NewFileFactory(dir)
	require.NoError(t, err)
	s2, err := f2.ForDevice("dev-1")
	require.NoError(t, err)

	v, ok, err := s2.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"sku-1","quantity":3}]`, v)
}

func TestFileStore_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f, err := NewFileFactory(dir)
	require.NoError(t, err)
	s, err := f.ForDevice("dev-2")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, "cart"))
	require.NoError(t, s.Set(ctx, "cart", "[]"))
	require.NoError(t, s.Remove(ctx, "cart"))
	require.NoError(t, s.Remove(ctx, "cart"))

	_, err = os.Stat(filepath.Join(dir, "dev-2.json"))
	assert.True(t, os.IsNotExist(err), "last slot removed deletes the file")
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dev-3.json"), []byte("{nope"), 0o600))

	f, err := NewFileFactory(dir)
	require.NoError(t, err)
	s, err := f.ForDevice("dev-3")
	require.NoError(t, err)

	_, _, err = s.Get(context.Background(), "cart")
	assert.Error(t, err)
}

func TestFactories_RejectUnsafeDeviceIDs(t *testing.T) {
	f, err := NewFileFactory(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../etc", "a/b", "dev 1"} {
		_, err := f.ForDevice(id)
		assert.ErrorIs(t, err, devicedom.ErrInvalidDeviceID, id)
	}

	r := NewRedisFactory(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "sp:", 0)
	_, err = r.ForDevice("../x")
	assert.ErrorIs(t, err, devicedom.ErrInvalidDeviceID)
	assert.Equal(t, "sp:device:dev-1", r.key("dev-1"))
	assert.Equal(t, DefaultRedisTTL, r.ttl)
}

func TestFileFactory_SharesStorePerDevice(t *testing.T) {
	f, err := NewFileFactory(t.TempDir())
	require.NoError(t, err)

	a, err := f.ForDevice("dev-1")
	require.NoError(t, err)
	b, err := f.ForDevice(" dev-1 ")
	require.NoError(t, err)
	assert.Same(t, a, b)
}
