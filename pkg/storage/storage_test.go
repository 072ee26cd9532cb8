package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "clients_list:{\"page\":1}", []byte("one")))
	require.NoError(t, s.Set(ctx, "clients_detail:{\"id\":\"a\"}", []byte("two")))
	require.NoError(t, s.Set(ctx, "candidates_list:{}", []byte("three")))

	got, err := s.Get(ctx, "clients_list:{\"page\":1}")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	keys, err := s.Keys(ctx, "clients_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"clients_list:{\"page\":1}", "clients_detail:{\"id\":\"a\"}"}, keys)

	require.NoError(t, s.Set(ctx, "clients_list:{\"page\":1}", []byte("updated")))
	got, err = s.Get(ctx, "clients_list:{\"page\":1}")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), got)

	require.NoError(t, s.Delete(ctx, "clients_list:{\"page\":1}"))
	require.NoError(t, s.Delete(ctx, "clients_list:{\"page\":1}"), "deleting twice is not an error")
	_, err = s.Get(ctx, "clients_list:{\"page\":1}")
	require.ErrorIs(t, err, ErrNotFound)

	all, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestMemoryStorageQuota(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryWithQuota(16)

	require.NoError(t, s.Set(ctx, "k", []byte("0123456789")))
	err := s.Set(ctx, "k2", []byte("0123456789"))
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.True(t, IsFailure(err))

	// overwriting reuses the space held by the previous value
	require.NoError(t, s.Set(ctx, "k", []byte("abcdefghijklmno")))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Set(ctx, "k2", []byte("0123456789")))
}

func TestFileStorage(t *testing.T) {
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestFileStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "refactortrack.activity", []byte("1700000000")))

	second, err := NewFile(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, "refactortrack.activity")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", string(got))
}

func TestFileStorageLongKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)

	// well past the 255-byte file name limit
	long := `clients_list:{"industry":"` + strings.Repeat("i", 100) + `","search":"` + strings.Repeat("s", 1000) + `"}`
	other := `candidates_list:{"skills":"` + strings.Repeat("kubernetes,", 90) + `"}`
	require.NoError(t, s.Set(ctx, long, []byte("page")))
	require.NoError(t, s.Set(ctx, other, []byte("other")))

	got, err := s.Get(ctx, long)
	require.NoError(t, err)
	assert.Equal(t, "page", string(got))

	keys, err := s.Keys(ctx, "clients_")
	require.NoError(t, err)
	assert.Equal(t, []string{long}, keys)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.LessOrEqual(t, len(e.Name()), 255)
	}

	require.NoError(t, s.Delete(ctx, long))
	_, err = s.Get(ctx, long)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileStorageIgnoresForeignFiles(t *testing.T) {
	ctx := context.Background()
	s, err := NewFile(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "clients_list:{}", []byte("x")))
	require.NoError(t, os.WriteFile(s.Dir()+"/garbage.entry", []byte{0xff}, 0o600))

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"clients_list:{}"}, keys)
}

func TestRedisStorage(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client, err := NewRedisClient(context.Background(), RedisConfig{Address: addr})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	s := NewRedis(client, "rt-test-"+uuid.NewString()+":")
	require.NoError(t, s.Ping(context.Background()))
	exerciseStorage(t, s)

	keys, err := s.Keys(context.Background(), "")
	require.NoError(t, err)
	for _, k := range keys {
		require.NoError(t, s.Delete(context.Background(), k))
	}
}

type sealedDoc struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

func TestVaultRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	v, err := NewVault(store, "refactortrack.auth", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	var out sealedDoc
	require.ErrorIs(t, v.Load(ctx, &out), ErrNotFound)

	in := sealedDoc{AccessToken: "secret-access-token", UserID: "u-1"}
	require.NoError(t, v.Save(ctx, in))

	raw, err := store.Get(ctx, "refactortrack.auth")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-access-token", "blob must not be stored in clear text")

	require.NoError(t, v.Load(ctx, &out))
	assert.Equal(t, in, out)

	require.NoError(t, v.Clear(ctx))
	require.ErrorIs(t, v.Load(ctx, &out), ErrNotFound)
}

func TestVaultRejectsWrongKeyAndTampering(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	v, err := NewVault(store, "refactortrack.auth", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	require.NoError(t, v.Save(ctx, sealedDoc{AccessToken: "a"}))

	other, err := NewVault(store, "refactortrack.auth", []byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)
	var out sealedDoc
	require.ErrorIs(t, other.Load(ctx, &out), ErrCorrupted)

	raw, err := store.Get(ctx, "refactortrack.auth")
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, store.Set(ctx, "refactortrack.auth", raw))
	require.ErrorIs(t, v.Load(ctx, &out), ErrCorrupted)
}

func TestVaultRequiresLongSecret(t *testing.T) {
	_, err := NewVault(NewMemory(), "k", []byte("short"))
	require.Error(t, err)
}
