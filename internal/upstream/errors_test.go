package upstream

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAPIErrorKnownCode(t *testing.T) {
	err := NewAPIError(http.StatusTooManyRequests, "provider_quota_exceeded")

	assert.Equal(t, "쿼터 초과", err.Title)
	assert.Equal(t, "provider_quota_exceeded", err.Code)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Contains(t, err.Detail, "쿼터(Quota)")
}

func TestNewAPIErrorStatusFallbacks(t *testing.T) {
	tests := []struct {
		status int
		title  string
	}{
		{http.StatusBadRequest, "잘못된 요청"},
		{http.StatusNotFound, "대화를 찾을 수 없음"},
		{http.StatusInternalServerError, "내부 서버 오류"},
		{http.StatusBadGateway, "요청 실패"},
	}

	for _, tt := range tests {
		err := NewAPIError(tt.status, "")
		assert.Equal(t, tt.title, err.Title, "status %d", tt.status)
		assert.Equal(t, tt.status, err.Status)
	}
}

func TestNewAPIErrorUnknownCodeFallsBackToStatus(t *testing.T) {
	err := NewAPIError(http.StatusBadGateway, "something_new")

	assert.Equal(t, "요청 실패", err.Title)
	assert.Contains(t, err.Detail, "HTTP 502")
	assert.Equal(t, "something_new", err.Code)
}

func TestAPIErrorError(t *testing.T) {
	err := NewAPIError(http.StatusInternalServerError, "internal_server_error")
	assert.Contains(t, err.Error(), "내부 서버 오류")
}
