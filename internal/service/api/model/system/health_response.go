// Package system 헬스체크 응답 모델입니다.
package system

// HealthResponse GET /health 응답입니다.
//
// Status는 서버가 요청을 받을 수 있으면 항상 healthy이며, API Key나 라이선스 상태 같은
// 실행 전제 조건은 Dependencies에 따로 보고합니다.
type HealthResponse struct {
	Status       string                      `json:"status"`
	Uptime       int64                       `json:"uptime"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus 실행 전제 조건 하나의 상태입니다.
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
