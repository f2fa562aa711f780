package rediskv_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/pkg/history/historytest"
	"github.com/agentstation/catalogsync/pkg/history/rediskv"
)

func newStore(t *testing.T, namespace string) (*rediskv.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := rediskv.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rediskv.New(rdb, namespace), mr
}

func TestStore(t *testing.T) {
	store, _ := newStore(t, "")
	historytest.Run(t, store)
}

func TestNamespace(t *testing.T) {
	store, mr := newStore(t, "test:")
	e := historytest.Entry("shop", "v1", "run_1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, store.Put(context.Background(), e.Key(), e))

	assert.True(t, mr.Exists("test:"+e.Key()))
	assert.False(t, mr.Exists(rediskv.DefaultNamespace+e.Key()))
}

func TestGlobCharactersInPrefix(t *testing.T) {
	store, _ := newStore(t, "")
	ctx := context.Background()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	star := historytest.Entry("shop*", "v1", "run_1", ts)
	plain := historytest.Entry("shopx", "v1", "run_1", ts)
	require.NoError(t, store.Put(ctx, star.Key(), star))
	require.NoError(t, store.Put(ctx, plain.Key(), plain))

	keys, err := store.List(ctx, "shop*:")
	require.NoError(t, err)
	assert.Equal(t, []string{star.Key()}, keys)
}

func TestConnectErrors(t *testing.T) {
	_, err := rediskv.Connect(context.Background(), "not a url")
	assert.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = rediskv.Connect(ctx, "redis://127.0.0.1:1")
	assert.Error(t, err)

}
