package progress

import (
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

// Sink Dispatcher가 꺼낸 진행률 이벤트를 최종 관찰자(UI, 터미널, 로그)에게 전달합니다.
//
// Deliver는 Dispatcher의 단일 워커 고루틴에서 순차적으로 호출됩니다.
type Sink interface {
	Deliver(ev contract.ProgressEvent) error
}

// SinkFunc 함수를 Sink로 사용할 수 있게 합니다.
type SinkFunc func(ev contract.ProgressEvent) error

func (f SinkFunc) Deliver(ev contract.ProgressEvent) error {
	return f(ev)
}

// LogSink 진행률 이벤트를 Debug 레벨 로그로 남깁니다.
type LogSink struct{}

func (LogSink) Deliver(ev contract.ProgressEvent) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"node_id":  ev.NodeID,
		"progress": ev.Progress,
		"status":   ev.Status,
		"msg":      ev.Message,
	}).Debug("진행률 이벤트")

	return nil
}
