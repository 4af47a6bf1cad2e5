package constants

// 클라이언트에게 반환되는 에러 메시지 상수입니다.
const (
	// 400 Bad Request
	ErrMsgBadRequest             = "잘못된 요청입니다"
	ErrMsgBadRequestInvalidBody  = "요청 본문을 파싱할 수 없습니다. JSON 형식을 확인해주세요"
	ErrMsgBadRequestInvalidImage = "입력 이미지를 디코딩할 수 없습니다 (%s #%d)"

	// 404 Not Found
	ErrMsgNotFound = "요청한 리소스를 찾을 수 없습니다"

	// 409 Conflict
	ErrMsgNodeBusy = "이 노드에서 이미 작업이 실행 중입니다 (node_id: %s)"

	// 413 Request Entity Too Large
	ErrMsgRequestEntityTooLarge = "요청 본문이 너무 큽니다"

	// 415 Unsupported Media Type
	ErrMsgUnsupportedMediaType = "지원하지 않는 미디어 타입입니다"

	// 429 Too Many Requests
	ErrMsgTooManyRequests = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요"

	// 500 Internal Server Error
	ErrMsgInternalServer = "내부 서버 오류가 발생했습니다"

	// 503 Service Unavailable
	ErrMsgLicenseUnavailable = "라이선스 관리자를 사용할 수 없습니다"
)

// 라이선스 활성화 응답 메시지입니다. 호스트 UI에 그대로 표시됩니다.
const (
	MsgActivateSuccess = "激活成功！Pro 功能已解锁。"
	MsgActivateInvalid = "激活码无效，请检查后重试。"
)
