package contract

// ProgressEventName 호스트 UI로 전달되는 진행률 이벤트의 이름입니다.
const ProgressEventName = "bizyair_progress"

// ProgressEvent 작업 진행 상황 알림입니다.
type ProgressEvent struct {
	NodeID   string  `json:"node_id"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status"`

	// Message 비어있으면 Status와 같은 값으로 채워집니다.
	Message string `json:"msg"`
}

// ProgressReporter 진행률 이벤트를 외부 관찰자에게 전달합니다.
//
// Report는 호출자를 블로킹해서는 안 되며, 전달이 불가능한 이벤트는 버려도 됩니다.
type ProgressReporter interface {
	Report(ev ProgressEvent)
}

// ProgressReporterFunc 함수를 ProgressReporter로 사용할 수 있게 합니다.
type ProgressReporterFunc func(ev ProgressEvent)

func (f ProgressReporterFunc) Report(ev ProgressEvent) {
	f(ev)
}

// DiscardProgress 모든 이벤트를 버리는 ProgressReporter입니다.
var DiscardProgress ProgressReporter = ProgressReporterFunc(func(ProgressEvent) {})
