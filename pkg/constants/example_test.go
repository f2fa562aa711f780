package constants_test

import (
	"fmt"
	"time"

	"github.com/agentstation/catalogsync/pkg/constants"
)

// Example_batching shows how a list of changes splits into mutation batches.
func Example_batching() {
	changes := 23
	batches := (changes + constants.PriceBatchSize - 1) / constants.PriceBatchSize
	waits := time.Duration(batches-1) * constants.InterBatchDelay

	fmt.Printf("%d changes -> %d batches, %v of delay\n", changes, batches, waits)
	// Output:
	// 23 changes -> 3 batches, 2s of delay
}

// Example_polling shows the maximum number of status polls for one bulk job.
func Example_polling() {
	polls := int(constants.MaxPollWait/constants.PollInterval) + 1
	fmt.Printf("at most %d polls\n", polls)
	// Output:
	// at most 121 polls
}
