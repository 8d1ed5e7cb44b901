package upstream

import (
	"context"
	"errors"
)

// ErrEmptyResult reports a 2xx workflow reply without a result at any of
// the known locations.
var ErrEmptyResult = errors.New("결과를 받을 수 없습니다.")

// WorkflowRequest is the envelope for the workflow run endpoint.
type WorkflowRequest struct {
	Inputs map[string]interface{} `json:"inputs"`
	Mode   string                 `json:"mode"`
	User   string                 `json:"user"`
}

// RunWorkflow executes one blocking workflow run for query and returns
// the extracted result text.
func (c *Client) RunWorkflow(ctx context.Context, apiKey, query string) (string, error) {
	req := WorkflowRequest{
		Inputs: map[string]interface{}{"query": query},
		Mode:   ModeBlocking,
		User:   c.userID,
	}

	resp, err := c.PostJSON(ctx, apiKey, PathWorkflow, req)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", NewAPIError(resp.Status, resp.ErrorCode())
	}

	result, ok := ExtractWorkflowResult(resp.Body)
	if !ok {
		return "", ErrEmptyResult
	}
	return result, nil
}
