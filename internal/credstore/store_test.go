package credstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// failingStorage rejects every operation, simulating a disabled medium.
type failingStorage struct{}

func (failingStorage) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("storage disabled")
}
func (failingStorage) Set(ctx context.Context, key, value string) error {
	return errors.New("storage disabled")
}
func (failingStorage) Delete(ctx context.Context, key string) error {
	return errors.New("storage disabled")
}

func TestSetPairAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryStorage())

	s.SetPair(ctx, "acc-1", "ref-1")
	require.Equal(t, "acc-1", s.Access(ctx))
	require.Equal(t, "ref-1", s.Refresh(ctx))
	require.True(t, s.HasCredential(ctx))
}

func TestClearRemovesMemoryAndStorage(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := NewStore(storage)

	s.SetPair(ctx, "acc-1", "ref-1")
	s.Clear(ctx)

	require.Empty(t, s.Access(ctx))
	require.Empty(t, s.Refresh(ctx))
	require.False(t, s.HasCredential(ctx))

	v, err := storage.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Empty(t, v)
}

func TestPersistenceSurvivesReload(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	NewStore(storage).SetPair(ctx, "acc-1", "ref-1")

	// a fresh store over the same storage simulates a page reload
	reloaded := NewStore(storage)
	require.Equal(t, "acc-1", reloaded.Access(ctx))
	require.Equal(t, "ref-1", reloaded.Refresh(ctx))
}

func TestReadThroughCachesStorageValue(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, KeyAccessToken, "acc-1"))

	s := NewStore(storage)
	require.Equal(t, "acc-1", s.Access(ctx))

	// in-memory value wins once loaded, even after the backing entry changes
	require.NoError(t, storage.Set(ctx, KeyAccessToken, "acc-2"))
	require.Equal(t, "acc-1", s.Access(ctx))
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	s := NewStore(failingStorage{})

	// the in-memory session keeps working even when persistence is unavailable
	s.SetPair(ctx, "acc-1", "ref-1")
	require.Equal(t, "acc-1", s.Access(ctx))
	require.Equal(t, "ref-1", s.Refresh(ctx))

	s.Clear(ctx)
	require.Empty(t, s.Access(ctx))
}

func TestNilStorageIsMemoryOnly(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)

	require.Empty(t, s.Access(ctx))
	s.SetPair(ctx, "acc-1", "ref-1")
	require.Equal(t, "acc-1", s.Access(ctx))
	s.Clear(ctx)
	require.False(t, s.HasCredential(ctx))
}

func TestFileStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	v, err := fs.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Empty(t, v)

	require.NoError(t, fs.Set(ctx, KeyAccessToken, "acc-1"))
	v, err = fs.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "acc-1", v)

	require.NoError(t, fs.Delete(ctx, KeyAccessToken))
	require.NoError(t, fs.Delete(ctx, KeyAccessToken))
}
