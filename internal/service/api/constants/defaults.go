package constants

import "time"

// 서버 설정 기본값 상수입니다.
//
// 작업 실행 엔드포인트는 원격 작업이 끝날 때까지 응답하지 않으므로 ReadTimeout, WriteTimeout은 두지 않습니다.
const (
	// DefaultReadHeaderTimeout HTTP 헤더 읽기 최대 대기 시간 (Slowloris 방어)
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultIdleTimeout Keep-Alive 연결의 최대 유휴 시간
	DefaultIdleTimeout = 120 * time.Second

	// DefaultBodyLimit 요청 본문 최대 크기 (Base64 이미지 배치 포함)
	DefaultBodyLimit = "32M"

	// DefaultRateLimitPerSecond IP별 초당 허용 요청 수
	DefaultRateLimitPerSecond = 20.0

	// DefaultRateLimitBurst IP별 순간 최대 요청 수
	DefaultRateLimitBurst = 40

	// DefaultShutdownTimeout Graceful Shutdown 시 최대 대기 시간
	DefaultShutdownTimeout = 5 * time.Second
)
