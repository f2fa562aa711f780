package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/cmd/table"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/revert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"wide", FormatWide, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "json")

	require.NoError(t, p.Revert(&revert.Result{Tenant: "acme", RunID: "run_1", Successful: 2}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run_1", got["run_id"])
	assert.EqualValues(t, 2, got["successful"])
}

func TestPrinterYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "yaml")

	require.NoError(t, p.Flags(&catalogsync.FlagResult{RunID: "run_2", Tenant: "acme", Changed: 3}))
	assert.Contains(t, buf.String(), "run_id: run_2")
	assert.Contains(t, buf.String(), "changed: 3")
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "table")

	require.NoError(t, p.Revert(&revert.Result{Tenant: "acme", RunID: "run_1", Entries: 4, Successful: 4}))
	out := buf.String()
	assert.Contains(t, out, "PROPERTY")
	assert.Contains(t, out, "run_1")
	assert.Contains(t, out, "✓ 4")
}

func TestPrinterTableAlignment(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, "table")

	require.NoError(t, p.History([]history.RunSummary{{RunID: "run_1", Entries: 12, Increases: 2}}))
	out := buf.String()
	assert.Contains(t, out, "RUN")
	assert.Contains(t, out, "run_1")
	assert.Contains(t, out, "12")
}

func TestPrinterPrint(t *testing.T) {
	counts := map[string]int{"acme": 3}

	t.Run("table without rows falls back to json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewPrinter(&buf, "table").Print(counts, nil))

		var got map[string]int
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, counts, got)
	})

	t.Run("structured formats ignore rows", func(t *testing.T) {
		var buf bytes.Buffer
		called := false
		err := NewPrinter(&buf, "yaml").Print(counts, func() table.Data {
			called = true
			return table.Data{}
		})
		require.NoError(t, err)
		assert.False(t, called)
		assert.Equal(t, "acme: 3\n", buf.String())
	})

	t.Run("wide renders rows", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewPrinter(&buf, "wide").Print(counts, func() table.Data {
			return table.Data{Headers: []string{"Tenant", "Pruned"}, Rows: [][]string{{"acme", "3"}}}
		})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "PRUNED")
	})
}

func TestFormatStructured(t *testing.T) {
	assert.True(t, FormatJSON.Structured())
	assert.True(t, FormatYAML.Structured())
	assert.False(t, FormatTable.Structured())
	assert.False(t, FormatWide.Structured())
}
