package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL: srv.URL,
		UserID:  "slack_user",
		Timeout: 5 * time.Second,
	})
}

func TestChatSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "reduce noise near turbines", req.Query)
		assert.Equal(t, ModeBlocking, req.Mode)
		assert.Equal(t, "slack_user", req.User)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"answer":          "**Use ear protection**",
			"conversation_id": "conv-9",
		})
	})

	result, err := client.Chat(context.Background(), "key-123", ChatRequest{
		Query: "reduce noise near turbines",
	})
	require.NoError(t, err)
	assert.Equal(t, "**Use ear protection**", result.Answer)
	assert.Equal(t, "conv-9", result.ConversationID)
}

func TestChatStripsToolMarkup(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"answer": "<tools>{\"name\":\"search\"}</tools>\n답변입니다.",
		})
	})

	result, err := client.Chat(context.Background(), "k", ChatRequest{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "답변입니다.", result.Answer)
}

func TestChatEmptyAnswer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"answer": ""})
	})

	_, err := client.Chat(context.Background(), "k", ChatRequest{Query: "q"})
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestChatUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{"code": "provider_quota_exceeded"})
	})

	_, err := client.Chat(context.Background(), "k", ChatRequest{Query: "q"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "쿼터 초과", apiErr.Title)
	assert.Equal(t, "provider_quota_exceeded", apiErr.Code)
}

func TestChatPassesConversationAndFiles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "conv-7", req.ConversationID)
		require.Len(t, req.Files, 1)
		assert.Equal(t, "file-1", req.Files[0].UploadFileID)
		assert.Equal(t, "local_file", req.Files[0].TransferMethod)

		json.NewEncoder(w).Encode(map[string]interface{}{"answer": "ok", "conversation_id": "conv-7"})
	})

	result, err := client.Chat(context.Background(), "k", ChatRequest{
		Query:          "q",
		ConversationID: "conv-7",
		Files: []FileRef{{
			Type:           "image",
			TransferMethod: "local_file",
			UploadFileID:   "file-1",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "conv-7", result.ConversationID)
}

func TestRunWorkflowExtractsNestedResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workflows/run", r.URL.Path)

		var req WorkflowRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "turbine news", req.Inputs["query"])
		assert.Equal(t, ModeBlocking, req.Mode)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"outputs": map[string]interface{}{"result": "## Headlines"},
			},
		})
	})

	result, err := client.RunWorkflow(context.Background(), "k", "turbine news")
	require.NoError(t, err)
	assert.Equal(t, "## Headlines", result)
}

func TestRunWorkflowMissingResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "succeeded"})
	})

	_, err := client.RunWorkflow(context.Background(), "k", "q")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestRunWorkflowUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"code": "workflow_request_error"})
	})

	_, err := client.RunWorkflow(context.Background(), "k", "q")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "워크플로우 실행 실패", apiErr.Title)
}

func TestUploadFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "fake-png", string(data))
		assert.Equal(t, "site.png", header.Filename)
		assert.Equal(t, "slack_user", r.FormValue("user"))

		json.NewEncoder(w).Encode(map[string]interface{}{"id": "file-42"})
	})

	fileID, err := client.UploadFile(context.Background(), "k", "site.png", bytesReader("fake-png"), "slack_user")
	require.NoError(t, err)
	assert.Equal(t, "file-42", fileID)
}

func TestUploadFileMissingID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})

	_, err := client.UploadFile(context.Background(), "k", "a.png", bytesReader("x"), "")
	assert.ErrorIs(t, err, ErrMissingFileID)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second})
	srv.Close() // force connection refused

	_, err := client.RunWorkflow(context.Background(), "k", "q")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport errors are not API errors")
}
