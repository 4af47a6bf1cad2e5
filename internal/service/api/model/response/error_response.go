package response

// ErrorResponse API 오류 응답
type ErrorResponse struct {
	// ResultCode HTTP 상태 코드 (예: 400, 409, 502)
	ResultCode int `json:"result_code"`

	// Message 에러 메시지 (호스트 UI에 그대로 표시됩니다)
	Message string `json:"message"`

	// ErrorType 작업 실행 실패 분류 (예: TaskFailed, Timeout)
	ErrorType string `json:"error_type,omitempty"`
}
