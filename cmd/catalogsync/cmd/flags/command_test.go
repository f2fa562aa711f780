package flags

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/cmd/cmdtest"
)

func TestFlags(t *testing.T) {
	f := cmdtest.New(t)

	res := cmdtest.Execute(t, NewCommand(f.App), cmdtest.Tenant)
	require.NoError(t, res.Err)

	var r catalogsync.FlagResult
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &r))
	assert.Equal(t, cmdtest.Tenant, r.Tenant)
	assert.Equal(t, 1, r.Available)
	assert.Len(t, f.Catalog.FlagCalls(), 1)
}

func TestFlagsDryRun(t *testing.T) {
	f := cmdtest.New(t)

	res := cmdtest.Execute(t, NewCommand(f.App), cmdtest.Tenant, "--dry-run")
	require.NoError(t, res.Err)
	assert.Empty(t, f.Catalog.FlagCalls())
}
