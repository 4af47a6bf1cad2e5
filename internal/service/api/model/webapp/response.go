package webapp

// APIKeyResponse 설정된 API Key 응답. 키가 없으면 빈 문자열입니다.
type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// ActivateResponse 라이선스 활성화 결과
type ActivateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DefaultAppsResponse 기본 앱 목록
type DefaultAppsResponse struct {
	DefaultApps []string `json:"default_apps"`
}

// InterruptResponse 중단 요청 접수 결과
type InterruptResponse struct {
	Success bool   `json:"success"`
	NodeID  string `json:"node_id"`
}

// RunResponse 노드 실행 결과
type RunResponse struct {
	RequestID string           `json:"request_id"`
	WebAppID  int              `json:"web_app_id"`
	OutputDir string           `json:"output_dir"`
	Outputs   []OutputResponse `json:"outputs"`
}

// OutputResponse 결과물 하나의 요약입니다. 텐서 값은 전송하지 않고 형상만 알려줍니다.
type OutputResponse struct {
	Kind string `json:"kind"`
	Path string `json:"path"`

	// 이미지
	Width    int `json:"width,omitempty"`
	Height   int `json:"height,omitempty"`
	Channels int `json:"channels,omitempty"`

	// 오디오
	SampleRate int `json:"sample_rate,omitempty"`
	Samples    int `json:"samples,omitempty"`
}
