package snapshot

import (
	"fmt"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// transitions lists the states reachable from each non-terminal state.
// Terminal states have no outgoing transitions.
var transitions = map[catalogs.JobState][]catalogs.JobState{
	catalogs.JobCreated: {catalogs.JobCreated, catalogs.JobRunning, catalogs.JobCompleted, catalogs.JobFailed, catalogs.JobCanceled},
	catalogs.JobRunning: {catalogs.JobRunning, catalogs.JobCompleted, catalogs.JobFailed, catalogs.JobCanceled},
}

// CanTransition reports whether a job may move from one state to another.
func CanTransition(from, to catalogs.JobState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Job tracks a bulk job through CREATED → RUNNING → COMPLETED|FAILED|CANCELED.
type Job struct {
	ID          string
	ErrorCode   string
	URL         string
	ObjectCount int64

	state catalogs.JobState
	polls int
}

// NewJob returns a job in the CREATED state.
func NewJob(id string) *Job {
	return &Job{ID: id, state: catalogs.JobCreated}
}

// State returns the current state.
func (j *Job) State() catalogs.JobState {
	return j.state
}

// Polls returns the number of statuses applied.
func (j *Job) Polls() int {
	return j.polls
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	return j.state.Terminal()
}

// Advance applies a polled status. Illegal transitions leave the job unchanged.
func (j *Job) Advance(st *catalogs.JobStatus) error {
	if st == nil {
		return errors.NewValidationError("status", nil, "nil job status")
	}
	if !CanTransition(j.state, st.Status) {
		return &errors.ValidationError{
			Field:   "status",
			Value:   st.Status,
			Message: fmt.Sprintf("illegal bulk job transition %s -> %s", j.state, st.Status),
		}
	}
	j.polls++
	j.state = st.Status
	j.ErrorCode = st.ErrorCode
	j.URL = st.URL
	j.ObjectCount = st.ObjectCount
	return nil
}
