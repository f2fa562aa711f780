package adminapi

import (
	"context"
	"strconv"

	"github.com/agentstation/catalogsync/pkg/catalogs"
	"github.com/agentstation/catalogsync/pkg/errors"
)

const submitMutation = `mutation SubmitBulkQuery($query: String!) {
  bulkOperationRunQuery(query: $query) {
    bulkOperation { id status }
    userErrors { field message }
  }
}`

const pollQuery = `query PollBulkOperation($id: ID!) {
  node(id: $id) {
    ... on BulkOperation { id status errorCode objectCount url }
  }
}`

// SubmitBulkQuery implements catalogs.Service.
func (c *Client) SubmitBulkQuery(ctx context.Context, query string) (*catalogs.Submission, error) {
	var data struct {
		Run struct {
			BulkOperation *struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"bulkOperation"`
			UserErrors userErrors `json:"userErrors"`
		} `json:"bulkOperationRunQuery"`
	}
	if err := c.do(ctx, submitMutation, map[string]any{"query": query}, &data); err != nil {
		return nil, err
	}

	sub := &catalogs.Submission{UserErrors: data.Run.UserErrors.convert()}
	if op := data.Run.BulkOperation; op != nil {
		sub.JobID = op.ID
		sub.Status = jobState(op.Status)
	}
	if sub.JobID == "" && len(sub.UserErrors) == 0 {
		sub.UserErrors = []catalogs.UserError{{Message: "no bulk operation returned"}}
	}
	return sub, nil
}

// PollJob implements catalogs.Service.
func (c *Client) PollJob(ctx context.Context, jobID string) (*catalogs.JobStatus, error) {
	var data struct {
		Node *struct {
			ID          string  `json:"id"`
			Status      string  `json:"status"`
			ErrorCode   *string `json:"errorCode"`
			ObjectCount string  `json:"objectCount"`
			URL         *string `json:"url"`
		} `json:"node"`
	}
	if err := c.do(ctx, pollQuery, map[string]any{"id": jobID}, &data); err != nil {
		return nil, err
	}
	if data.Node == nil || data.Node.ID == "" {
		return nil, errors.NewNotFoundError("bulk operation", jobID)
	}

	n := data.Node
	st := &catalogs.JobStatus{ID: n.ID, Status: jobState(n.Status)}
	if n.ErrorCode != nil {
		st.ErrorCode = *n.ErrorCode
	}
	if n.URL != nil {
		st.URL = *n.URL
	}
	if n.ObjectCount != "" {
		st.ObjectCount, _ = strconv.ParseInt(n.ObjectCount, 10, 64)
	}
	if n.Status == "EXPIRED" && st.ErrorCode == "" {
		st.ErrorCode = "EXPIRED"
	}
	return st, nil
}

// jobState maps the API's bulk operation status onto the job lifecycle.
// CANCELING is still in progress; EXPIRED results are unusable.
func jobState(s string) catalogs.JobState {
	switch s {
	case "CREATED":
		return catalogs.JobCreated
	case "RUNNING", "CANCELING":
		return catalogs.JobRunning
	case "COMPLETED":
		return catalogs.JobCompleted
	case "CANCELED":
		return catalogs.JobCanceled
	default:
		return catalogs.JobFailed
	}
}
