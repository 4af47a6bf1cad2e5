// Package progress 작업 진행률 이벤트를 호스트 UI와 터미널로 전달하는 비동기 Dispatcher와 Sink 구현체를 제공합니다.
//
// 오케스트레이터는 contract.ProgressReporter 인터페이스로 Dispatcher에 이벤트를 넣기만 하며,
// 큐가 가득 차거나 Dispatcher가 종료된 경우 이벤트는 조용히 버려집니다(fire-and-forget).
package progress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

// component 진행률 전달 서비스의 로깅용 컴포넌트 이름
const component = "progress.dispatcher"

// DefaultQueueSize 큐 크기가 지정되지 않았을 때 사용하는 기본 버퍼 크기입니다.
const DefaultQueueSize = 64

// Dispatcher 진행률 이벤트를 버퍼 채널에 적재하고, 단일 워커 고루틴이 등록된 Sink들에 순서대로 전달합니다.
type Dispatcher struct {
	sinks []Sink

	// eventC 전달 대기 중인 이벤트 큐입니다.
	// 다중 프로듀서 환경에서 닫힌 채널 전송 패닉을 피하기 위해 명시적으로 닫지 않습니다.
	eventC chan contract.ProgressEvent

	mu      sync.RWMutex
	started bool
	closed  bool

	dropped atomic.Uint64
}

// NewDispatcher 새로운 Dispatcher를 생성합니다. queueSize가 0 이하이면 DefaultQueueSize를 사용합니다.
func NewDispatcher(queueSize int, sinks ...Sink) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}

	return &Dispatcher{
		sinks:  filtered,
		eventC: make(chan contract.ProgressEvent, queueSize),
	}
}

// Report 진행률 이벤트를 큐에 넣습니다. 호출자를 블로킹하지 않습니다.
//
// 노드 ID가 없는 이벤트는 전달 대상이 없으므로 버립니다.
// 큐가 가득 찼거나 Dispatcher가 종료된 경우에도 이벤트를 버리고 드롭 카운터를 증가시킵니다.
func (d *Dispatcher) Report(ev contract.ProgressEvent) {
	if ev.NodeID == "" {
		return
	}
	if ev.Message == "" {
		ev.Message = ev.Status
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		return
	}

	select {
	case d.eventC <- ev:
	default:
		if d.dropped.Add(1)%100 == 1 {
			applog.WithComponentAndFields(component, applog.Fields{
				"node_id":       ev.NodeID,
				"dropped_total": d.dropped.Load(),
			}).Warn("진행률 이벤트 드롭: 전달 대기열 용량 초과 (Queue Full)")
		}
	}
}

// Dropped 지금까지 버려진 이벤트 수를 반환합니다.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Start 워커 고루틴을 시작합니다.
//
// serviceStopCtx가 취소되면 새 이벤트 수락을 중단하고, 큐에 남은 이벤트를 모두 전달한 뒤 serviceStopWG.Done()을 호출합니다.
func (d *Dispatcher) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		serviceStopWG.Done()
		return ErrDispatcherClosed
	}
	if d.started {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("진행률 Dispatcher가 이미 실행 중입니다 (중복 호출)")
		return nil
	}
	d.started = true

	applog.WithComponentAndFields(component, applog.Fields{
		"sinks":      len(d.sinks),
		"queue_size": cap(d.eventC),
	}).Info("서비스 시작 완료: 진행률 Dispatcher가 이벤트 전달을 시작합니다")

	go d.run(serviceStopCtx, serviceStopWG)

	return nil
}

func (d *Dispatcher) run(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	for {
		select {
		case ev := <-d.eventC:
			d.deliver(ev)

		case <-serviceStopCtx.Done():
			d.mu.Lock()
			d.closed = true
			d.mu.Unlock()

			// closed 이후에는 새 이벤트가 들어오지 않으므로 남은 이벤트만 비웁니다.
			for {
				select {
				case ev := <-d.eventC:
					d.deliver(ev)
				default:
					applog.WithComponentAndFields(component, applog.Fields{
						"dropped_total": d.dropped.Load(),
					}).Info("진행률 Dispatcher 종료 완료")
					return
				}
			}
		}
	}
}

// deliver 이벤트를 모든 Sink에 전달합니다. 하나의 Sink 실패나 패닉이 다른 Sink 전달을 막지 않습니다.
func (d *Dispatcher) deliver(ev contract.ProgressEvent) {
	for _, s := range d.sinks {
		if err := safeDeliver(s, ev); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"node_id": ev.NodeID,
				"sink":    fmt.Sprintf("%T", s),
				"error":   err,
			}).Warn("진행률 이벤트 전달 실패")
		}
	}
}

func safeDeliver(s Sink, ev contract.ProgressEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanicked, r)
		}
	}()

	return s.Deliver(ev)
}
