// Package service 애플리케이션을 구성하는 장기 실행 서비스의 공통 생명주기 인터페이스를 정의합니다.
package service

import (
	"context"
	"sync"
)

// Service 시작과 종료를 main에서 일괄 관리하는 서비스입니다.
//
// 호출자는 Start 호출 전에 serviceStopWG.Add(1)을 수행합니다.
// 구현체는 시작에 실패하면 즉시 serviceStopWG.Done()을 호출하고 에러를 반환하며,
// 성공하면 serviceStopCtx가 취소되어 리소스 정리를 마친 뒤 serviceStopWG.Done()을 호출합니다.
type Service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}
