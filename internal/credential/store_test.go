package credential

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"redis":  NewRedis(client),
	}
}

func TestEnrollAndVerify(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Enroll(ctx, "a@b.com", "1234"))

			ok, err := store.Verify(ctx, "a@b.com", "1234")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.Verify(ctx, "a@b.com", "9999")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerifyUnknownIdentifier(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Verify(context.Background(), "nobody@x.com", "1234")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestEnrollOverwrites(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Enroll(ctx, "reset@x.com", "1111"))
			require.NoError(t, store.Enroll(ctx, "reset@x.com", "2222"))

			ok, err := store.Verify(ctx, "reset@x.com", "1111")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = store.Verify(ctx, "reset@x.com", "2222")
			require.NoError(t, err)
			assert.True(t, ok)

			ids, err := store.Identifiers(ctx)
			require.NoError(t, err)
			assert.Len(t, ids, 1, "re-enrolling must not duplicate the registry entry")
		})
	}
}

func TestExistsAndRegistry(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			exists, err := store.Exists(ctx, "new@x.com")
			require.NoError(t, err)
			assert.False(t, exists)

			require.NoError(t, store.Enroll(ctx, "new@x.com", "4321"))

			exists, err = store.Exists(ctx, "new@x.com")
			require.NoError(t, err)
			assert.True(t, exists)

			ids, err := store.Identifiers(ctx)
			require.NoError(t, err)
			assert.Contains(t, ids, "new@x.com")
		})
	}
}
