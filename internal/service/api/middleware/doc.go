// Package middleware 호스트 연동 HTTP 서버에서 사용하는 Echo 미들웨어입니다.
//
// 서버에 등록되는 순서는 다음과 같습니다.
//
//	PanicRecovery → RequestID → HTTPLogger → RateLimit → BodyLimit → CORS → Secure
//
// ValidateContentType은 JSON 본문을 받는 POST 라우트에만 붙이고,
// Logger는 Echo 내부 로그를 애플리케이션 로거(logrus)로 보냅니다.
package middleware
