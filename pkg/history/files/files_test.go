package files_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/pkg/history/files"
	"github.com/agentstation/catalogsync/pkg/history/historytest"
)

func TestStore(t *testing.T) {
	store, err := files.New(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	historytest.Run(t, store)
}

func TestFileLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := files.New(dir)
	require.NoError(t, err)

	e := historytest.Entry("shop", "gid://shopify/ProductVariant/9", "run_x", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, store.Put(context.Background(), e.Key(), e))

	dirents, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, dirents, 1, "temporary files must not remain")

	name := dirents[0].Name()
	assert.True(t, strings.HasSuffix(name, ".yaml"))
	assert.NotContains(t, name, "/")

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: run_x")
	assert.Contains(t, string(data), "variant_id: gid://shopify/ProductVariant/9")

	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	keys, err := store.List(context.Background(), "shop:")
	require.NoError(t, err)
	assert.Equal(t, []string{e.Key()}, keys)
}

func TestHomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	store, err := files.New("~/.catalogsync/history")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".catalogsync", "history"), store.Dir())
}
