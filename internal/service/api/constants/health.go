package constants

// 헬스체크 및 시스템 상태 관련 상수입니다.
const (
	// HealthStatusHealthy 헬스체크 상태: 정상
	HealthStatusHealthy = "healthy"

	// HealthStatusUnhealthy 헬스체크 상태: 비정상
	HealthStatusUnhealthy = "unhealthy"

	// DependencyAPIKey 외부 의존성 ID: 원격 서비스 API Key
	DependencyAPIKey = "api_key"

	// DependencyLicense 외부 의존성 ID: 라이선스 상태 파일
	DependencyLicense = "license"

	// MsgDepStatusHealthy 외부 의존성 상태: 정상
	MsgDepStatusHealthy = "정상 작동 중"

	// MsgDepStatusAPIKeyMissing 외부 의존성 상태: API Key 미설정
	MsgDepStatusAPIKeyMissing = "API Key가 설정되지 않았습니다"

	// MsgDepStatusNotInitialized 외부 의존성 상태: 미초기화
	MsgDepStatusNotInitialized = "서비스가 초기화되지 않음"
)
