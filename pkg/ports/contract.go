package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/speriment/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunArtifactStoreContract runs a suite of tests to verify that an ArtifactStore implementation
// adheres to the defined interface contract.
func RunArtifactStoreContract(t *testing.T, store ArtifactStore) {
	ctx := context.Background()
	name := "contract_" + time.Now().Format("20060102150405")
	artifact := []byte("{\n    \"blocks\": [],\n    \"exchangeable\": []\n}")

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, artifact), "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, artifact, loaded, "artifact bytes must round-trip unchanged")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		replacement := []byte(`{"blocks": [{"id": "1", "pages": []}], "exchangeable": []}`)
		require.NoError(t, store.Save(ctx, name, replacement))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, replacement, loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing_"+name)
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})

	t.Run("Invalid Name", func(t *testing.T) {
		for _, bad := range []string{"", "1st", "my-exp", "../escape", "var"} {
			err := store.Save(ctx, bad, artifact)
			assert.ErrorIs(t, err, domain.ErrInvalidVariableName, "name %q", bad)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, artifact))

		require.NoError(t, store.Delete(ctx, name), "Delete should not return error")

		_, err := store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound, "Load after Delete should return ErrArtifactNotFound")

		assert.NoError(t, store.Delete(ctx, name), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		names := []string{name + "_b", name + "_a", name + "_c"}
		for i, n := range names {
			require.NoError(t, store.Save(ctx, n, []byte(fmt.Sprintf(`{"n": %d}`, i))))
		}
		defer func() {
			for _, n := range names {
				_ = store.Delete(ctx, n)
			}
		}()

		listed, err := store.List(ctx)
		require.NoError(t, err)
		assert.Subset(t, listed, names)
		assert.IsNonDecreasing(t, listed, "names are listed in ascending order")
	})
}
