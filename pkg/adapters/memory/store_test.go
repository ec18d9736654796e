package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	ports.RunDocumentStoreContract(t, memory.NewStore())
}

func TestStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	doc := map[string]any{"nested": map[string]any{"x": 1}}
	require.NoError(t, store.Save(ctx, "d", doc))

	// Mutating the original after save must not leak into the store.
	doc["nested"].(map[string]any)["x"] = 99

	loaded, err := store.Load(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded["nested"].(map[string]any)["x"])

	// Mutating a loaded copy must not leak either.
	loaded["nested"].(map[string]any)["x"] = 42
	again, err := store.Load(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, 1, again["nested"].(map[string]any)["x"])
}
