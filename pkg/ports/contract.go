package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a
// DocumentStore implementation adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := map[string]any{
			"name": "cube",
			"position": map[string]any{
				"x": 1.5,
				"y": 0.0,
			},
			"tags": []any{"a", "b"},
		}

		err := store.Save(ctx, docID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "cube", loaded["name"])

		pos, ok := loaded["position"].(map[string]any)
		require.True(t, ok, "nested maps must survive the round trip")
		// JSON persistence may widen numerics; only require presence here.
		assert.Contains(t, pos, "x")
		assert.Len(t, loaded["tags"], 2)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, docID, map[string]any{"rev": "one"}))
		require.NoError(t, store.Save(ctx, docID, map[string]any{"rev": "two"}))

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, "two", loaded["rev"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, docID, map[string]any{"k": "v"})
		require.NoError(t, err)

		err = store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		_ = store.Save(ctx, id1, map[string]any{"n": 1})
		_ = store.Save(ctx, id2, map[string]any{"n": 2})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
