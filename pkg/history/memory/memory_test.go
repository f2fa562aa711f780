package memory_test

import (
	"testing"

	"github.com/agentstation/catalogsync/pkg/history/historytest"
	"github.com/agentstation/catalogsync/pkg/history/memory"
)

func TestStore(t *testing.T) {
	historytest.Run(t, memory.New())
}
