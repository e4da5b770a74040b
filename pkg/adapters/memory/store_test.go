package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/spellout/pkg/adapters/memory"
	"github.com/aretw0/spellout/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	payload := []byte("abc")
	require.NoError(t, store.Save(ctx, "s", payload))
	payload[0] = 'x'

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(loaded))

	loaded[1] = 'y'
	again, _ := store.Load(ctx, "s")
	assert.Equal(t, "abc", string(again))
}
