package sqlitekv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "device.db")

	store, err := New(path)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "events")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "events", `[]`))
	require.NoError(t, store.Set(ctx, "events", `[{"id":"1"}]`))

	v, ok, err := store.Get(ctx, "events")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, store.Remove(ctx, "events"))
	_, ok, err = store.Get(ctx, "events")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "templates", `["persisted"]`))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err = reopened.Get(ctx, "templates")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["persisted"]`, v)
}
