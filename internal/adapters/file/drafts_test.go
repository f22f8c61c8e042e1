package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/quire/internal/adapters/file"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftStore_Contract(t *testing.T) {
	ports.RunDraftStoreContract(t, file.NewDraftStore(t.TempDir()))
}

func TestDraftStore_ListSkipsStrayFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewDraftStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc", &domain.Draft{SessionID: "abc"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-abc.json-123"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, ids)
}

func TestDraftStore_RejectsPathIDs(t *testing.T) {
	store := file.NewDraftStore(t.TempDir())
	err := store.Save(context.Background(), "../escape", &domain.Draft{})
	assert.Error(t, err)
}

func TestDraftStore_MissingDirListsNothing(t *testing.T) {
	store := file.NewDraftStore(filepath.Join(t.TempDir(), "nope"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
