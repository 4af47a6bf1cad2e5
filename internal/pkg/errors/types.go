package errors

import "strconv"

// ErrorType 에러의 종류를 나타내는 타입입니다.
//
// 인프라 계층의 분류(Internal, System, NotFound, Unavailable)와 함께
// 클라우드 작업 실행 과정에서 발생하는 실패 분류를 포함합니다.
type ErrorType int

// 에러 타입 상수
const (
	// Unknown 알 수 없는 에러
	Unknown ErrorType = iota

	// Internal 내부 로직 오류 (버그 등)
	Internal

	// System 시스템 또는 인프라 오류 (디스크, 네트워크 등)
	System

	// NotFound 리소스를 찾을 수 없음
	NotFound

	// Unavailable 서비스 일시적 사용 불가
	Unavailable

	// Auth API Key 등 인증 자격 증명이 없음
	Auth

	// Validation 필수 식별자 누락, 설정값 오류 등 입력값 검증 실패
	Validation

	// Entitlement Pro 기능 미활성화 또는 일일 사용 한도 초과
	Entitlement

	// Credential 업로드용 임시 자격 증명 발급 실패
	Credential

	// Upload 오브젝트 스토리지 업로드 실패
	Upload

	// Submission 클라우드 작업 생성 요청 거부
	Submission

	// TaskFailed 서버가 작업 실패를 선언함
	TaskFailed

	// Timeout 작업이 종료 상태나 결과물 없이 끝남
	Timeout

	// Decode 결과물 디코딩 실패 (개별 결과물 단위, 치명적이지 않음)
	Decode

	// Interrupted 호스트가 작업 중단을 요청함
	Interrupted
)

var errorTypeNames = [...]string{
	Unknown:     "Unknown",
	Internal:    "Internal",
	System:      "System",
	NotFound:    "NotFound",
	Unavailable: "Unavailable",
	Auth:        "Auth",
	Validation:  "Validation",
	Entitlement: "Entitlement",
	Credential:  "Credential",
	Upload:      "Upload",
	Submission:  "Submission",
	TaskFailed:  "TaskFailed",
	Timeout:     "Timeout",
	Decode:      "Decode",
	Interrupted: "Interrupted",
}

// String 에러 타입의 이름을 반환합니다. 정의되지 않은 값은 "ErrorType(N)" 형식으로 반환합니다.
func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "ErrorType(" + strconv.Itoa(int(t)) + ")"
	}
	return errorTypeNames[t]
}
