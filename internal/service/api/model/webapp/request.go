package webapp

// ActivateRequest 라이선스 활성화 요청
type ActivateRequest struct {
	Key string `json:"key" validate:"required" korean:"활성화 키"`
}

// RunRequest 노드 실행 요청
type RunRequest struct {
	NodeID          string `json:"node_id" validate:"required,max=128" korean:"노드 ID"`
	App             string `json:"app"`
	InputValuesJSON string `json:"input_values_json"`

	// Images 라벨별 Base64 인코딩된 이미지 배치 (PNG, JPEG 등)
	Images map[string][]string `json:"images"`

	// Values 라벨별 일반 입력값
	Values map[string]any `json:"values"`
}

// InterruptRequest 노드 작업 중단 요청
type InterruptRequest struct {
	NodeID string `json:"node_id" validate:"required,max=128" korean:"노드 ID"`
}
