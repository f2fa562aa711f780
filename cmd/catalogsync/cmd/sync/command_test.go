package sync

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/cmd/cmdtest"
	"github.com/agentstation/catalogsync/pkg/errors"
)

func decodeRuns(t *testing.T, out string) []catalogsync.RunResult {
	t.Helper()
	var runs []catalogsync.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	return runs
}

func TestSyncDryRun(t *testing.T) {
	f := cmdtest.New(t)

	res := cmdtest.Execute(t, NewCommand(f.App), cmdtest.Tenant, "--dry-run")
	require.NoError(t, res.Err)

	runs := decodeRuns(t, res.Stdout)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].DryRun)
	assert.Equal(t, 1, runs[0].ValidMatches)
	assert.Equal(t, 1, runs[0].FeedInvalidRows)
	assert.Empty(t, f.Catalog.PriceCalls())
	assert.Contains(t, res.Stderr, cmdtest.Tenant)
}

func TestSyncApplies(t *testing.T) {
	f := cmdtest.New(t)

	res := cmdtest.Execute(t, NewCommand(f.App), "--all")
	require.NoError(t, res.Err)

	runs := decodeRuns(t, res.Stdout)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Successful)

	e, ok := f.Catalog.Entry("v1")
	require.True(t, ok)
	assert.True(t, e.CurrentPrice.Equal(decimal.RequireFromString("45")))
}

func TestSyncArgs(t *testing.T) {
	f := cmdtest.New(t)

	t.Run("no tenants", func(t *testing.T) {
		res := cmdtest.Execute(t, NewCommand(f.App))
		assert.Error(t, res.Err)
	})

	t.Run("tenants and all", func(t *testing.T) {
		res := cmdtest.Execute(t, NewCommand(f.App), cmdtest.Tenant, "--all")
		assert.Error(t, res.Err)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		res := cmdtest.Execute(t, NewCommand(f.App), "nope", cmdtest.Tenant)
		require.Error(t, res.Err)
		assert.True(t, errors.IsNotFound(res.Err))
		assert.Len(t, decodeRuns(t, res.Stdout), 1, "known tenant still runs")
	})
}
