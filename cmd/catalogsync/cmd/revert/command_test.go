package revert

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync/internal/cmd/cmdtest"
	"github.com/agentstation/catalogsync/pkg/errors"
	"github.com/agentstation/catalogsync/pkg/revert"
)

func TestRevert(t *testing.T) {
	f := cmdtest.New(t)
	run, err := f.Client.Sync(context.Background(), cmdtest.Tenant)
	require.NoError(t, err)
	require.Equal(t, 1, run.Successful)

	res := cmdtest.Execute(t, NewCommand(f.App), cmdtest.Tenant, run.RunID)
	require.NoError(t, res.Err)

	var r revert.Result
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &r))
	assert.Equal(t, run.RunID, r.RunID)
	assert.Equal(t, 1, r.Successful)

	e, _ := f.Catalog.Entry("v1")
	assert.True(t, e.CurrentPrice.Equal(decimal.RequireFromString("50")))

	again := cmdtest.Execute(t, NewCommand(f.App), cmdtest.Tenant, run.RunID)
	require.Error(t, again.Err)
	assert.True(t, errors.IsNotFound(again.Err))
}

func TestRevertArgs(t *testing.T) {
	f := cmdtest.New(t)
	res := cmdtest.Execute(t, NewCommand(f.App), cmdtest.Tenant)
	assert.Error(t, res.Err)
}
