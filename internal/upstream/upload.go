package upstream

import (
	"context"
	"errors"
	"io"
)

// ErrMissingFileID reports a 2xx upload reply without a file identifier.
var ErrMissingFileID = errors.New("파일 업로드 실패")

// UploadFile uploads an image and returns the opaque file id the chat
// endpoint expects in its files array.
func (c *Client) UploadFile(ctx context.Context, apiKey, filename string, file io.Reader, user string) (string, error) {
	if user == "" {
		user = c.userID
	}

	resp, err := c.PostFile(ctx, apiKey, PathUpload, filename, file, user)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", NewAPIError(resp.Status, resp.ErrorCode())
	}

	fileID, ok := resp.Body["id"].(string)
	if !ok || fileID == "" {
		return "", ErrMissingFileID
	}
	return fileID, nil
}
