// Package interrupt 노드별 작업 중단 요청을 기록하고, 오케스트레이터가 폴링 주기마다 확인할 수 있는 InterruptChecker를 제공합니다.
package interrupt

import (
	"context"
	"sync"

	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

const component = "interrupt.registry"

// Registry 노드 ID별 중단 요청 플래그 저장소입니다. 여러 고루틴에서 동시에 사용해도 안전합니다.
type Registry struct {
	mu        sync.RWMutex
	requested map[string]struct{}
}

// NewRegistry 새로운 Registry를 생성합니다.
func NewRegistry() *Registry {
	return &Registry{
		requested: make(map[string]struct{}),
	}
}

// Request 노드의 실행 중인 작업에 중단을 요청합니다.
func (r *Registry) Request(nodeID string) {
	r.mu.Lock()
	r.requested[nodeID] = struct{}{}
	r.mu.Unlock()

	applog.WithComponentAndFields(component, applog.Fields{
		"node_id": nodeID,
	}).Info("작업 중단 요청 접수")
}

// Clear 노드의 중단 요청을 해제합니다. 새 작업을 시작하기 전에 호출합니다.
func (r *Registry) Clear(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requested, nodeID)
}

// IsRequested 노드에 중단 요청이 있는지 확인합니다.
func (r *Registry) IsRequested(nodeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.requested[nodeID]
	return ok
}

// Checker 노드에 중단 요청이 있거나 ctx가 취소되면 true를 반환하는 InterruptChecker를 만듭니다.
func (r *Registry) Checker(ctx context.Context, nodeID string) contract.InterruptChecker {
	return contract.InterruptCheckerFunc(func() bool {
		if ctx != nil && ctx.Err() != nil {
			return true
		}
		return r.IsRequested(nodeID)
	})
}
