package catalogsync

import "github.com/google/uuid"

// newRunID returns a unique, time-ordered run identifier.
func newRunID() string {
	return "run_" + uuid.Must(uuid.NewV7()).String()
}
