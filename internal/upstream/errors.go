package upstream

import (
	"fmt"
	"net/http"
)

// APIError is a normalized upstream failure. Title and Detail are the
// human-readable Korean messages shown in the chat surface; Code is the
// upstream's machine code when it sent one.
type APIError struct {
	Title  string `json:"error"`
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
	Status int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

// errorMessage pairs a title with its detail text.
type errorMessage struct {
	Title  string
	Detail string
}

// Known upstream error codes, mapped to user-facing messages. Chat and
// workflow endpoints share one table; unrecognized codes fall back to
// HTTP-status-keyed generics.
var errorMessages = map[string]errorMessage{
	"invalid_param": {
		Title:  "잘못된 파라미터 입력",
		Detail: "요청 파라미터를 확인해주세요. 앱이 발행되지 않았다면 MISO 앱 편집화면에서 저장 버튼을 눌러주세요.",
	},
	"app_unavailable": {
		Title:  "앱을 사용할 수 없음",
		Detail: "앱(App) 설정 정보를 사용할 수 없습니다. MISO 관리자에게 문의해주세요.",
	},
	"provider_not_initialize": {
		Title:  "모델 인증 정보 없음",
		Detail: "사용 가능한 모델 인증 정보가 없습니다. MISO 관리자에게 문의해주세요.",
	},
	"provider_quota_exceeded": {
		Title:  "쿼터 초과",
		Detail: "모델 호출 쿼터(Quota)가 초과되었습니다. MISO 관리자에게 문의해주세요.",
	},
	"model_currently_not_support": {
		Title:  "모델 사용 불가",
		Detail: "현재 모델을 사용할 수 없습니다. MISO 관리자에게 문의해주세요.",
	},
	"completion_request_error": {
		Title:  "텍스트 생성 요청 실패",
		Detail: "텍스트 생성 요청에 실패하였습니다. 잠시 후 다시 시도해주세요.",
	},
	"workflow_request_error": {
		Title:  "워크플로우 실행 실패",
		Detail: "워크플로우 실행 중 오류가 발생했습니다. 요청 내용을 확인해주세요.",
	},
	"internal_server_error": {
		Title:  "내부 서버 오류",
		Detail: "MISO 서버에서 오류가 발생했습니다. 잠시 후 다시 시도해주세요.",
	},
}

// messageFor resolves the user-facing message for a status/code pair.
func messageFor(status int, code string) errorMessage {
	if code != "" {
		if msg, ok := errorMessages[code]; ok {
			return msg
		}
	}

	switch status {
	case http.StatusBadRequest:
		return errorMessage{
			Title:  "잘못된 요청",
			Detail: "요청 형식이 올바르지 않습니다. 입력값을 확인해주세요.",
		}
	case http.StatusNotFound:
		return errorMessage{
			Title:  "대화를 찾을 수 없음",
			Detail: "요청한 대화(conversation)를 찾을 수 없습니다. conversation_id를 확인해주세요.",
		}
	case http.StatusInternalServerError:
		return errorMessages["internal_server_error"]
	}

	return errorMessage{
		Title:  "요청 실패",
		Detail: fmt.Sprintf("HTTP %d: 요청 처리 중 오류가 발생했습니다.", status),
	}
}

// NewAPIError builds the normalized error for an upstream failure reply.
func NewAPIError(status int, code string) *APIError {
	msg := messageFor(status, code)
	return &APIError{
		Title:  msg.Title,
		Detail: msg.Detail,
		Code:   code,
		Status: status,
	}
}
