package upstream

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyAnswer reports a 2xx chat reply without a usable answer field.
var ErrEmptyAnswer = errors.New("결과를 받을 수 없습니다.")

// FileRef references an uploaded file in a chat request.
type FileRef struct {
	Type           string `json:"type"`
	TransferMethod string `json:"transfer_method"`
	UploadFileID   string `json:"upload_file_id,omitempty"`
	URL            string `json:"url,omitempty"`
}

// ChatRequest is the envelope for the chat completion endpoint.
type ChatRequest struct {
	Inputs         map[string]interface{} `json:"inputs"`
	Query          string                 `json:"query"`
	Mode           string                 `json:"mode"`
	ConversationID string                 `json:"conversation_id"`
	User           string                 `json:"user"`
	Files          []FileRef              `json:"files,omitempty"`
}

// ChatResult is the parsed outcome of a chat call.
type ChatResult struct {
	Answer         string
	ConversationID string
}

// Chat runs one blocking chat completion. The returned answer has tool
// markup stripped; ConversationID enables multi-turn context on the
// next call.
func (c *Client) Chat(ctx context.Context, apiKey string, req ChatRequest) (*ChatResult, error) {
	if req.Inputs == nil {
		req.Inputs = map[string]interface{}{}
	}
	if req.Mode == "" {
		req.Mode = ModeBlocking
	}
	if req.User == "" {
		req.User = c.userID
	}

	resp, err := c.PostJSON(ctx, apiKey, PathChat, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, NewAPIError(resp.Status, resp.ErrorCode())
	}

	answer, _ := resp.Body["answer"].(string)
	answer = StripTools(answer)
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	result := &ChatResult{Answer: answer}
	if convID, ok := resp.Body["conversation_id"].(string); ok {
		result.ConversationID = convID
	}
	return result, nil
}
