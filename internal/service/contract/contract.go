// Package contract 작업 실행 오케스트레이터와 외부 협력자(호스트, 라이선스, 자격 증명) 사이의 인터페이스를 정의합니다.
//
// 오케스트레이터는 구체 구현에 의존하지 않고 이 인터페이스만 사용하며,
// 실제 구현은 license, apikey, progress, interrupt 패키지가 제공합니다.
package contract

// APIKeySource 원격 서비스 호출에 사용할 API Key를 제공합니다.
type APIKeySource interface {
	// APIKey 설정된 키를 반환합니다. 키가 없으면 false를 반환합니다.
	APIKey() (string, bool)
}

// LicenseManager Pro 기능(오디오/비디오 처리) 사용 권한과 일일 사용량을 관리합니다.
type LicenseManager interface {
	IsActivated() bool

	// CheckDailyLimit 오늘 추가 사용이 가능한지와 사용자에게 보여줄 상태 메시지를 반환합니다.
	CheckDailyLimit() (bool, string)

	IncrementUsage() error
}

// InterruptChecker 호스트가 실행 중인 작업의 중단을 요청했는지 확인합니다.
// 폴링 주기마다 호출되므로 가볍게 구현해야 합니다.
type InterruptChecker interface {
	IsInterruptRequested() bool
}

// InterruptCheckerFunc 함수를 InterruptChecker로 사용할 수 있게 합니다.
type InterruptCheckerFunc func() bool

func (f InterruptCheckerFunc) IsInterruptRequested() bool {
	return f()
}

// NeverInterrupted 중단 요청이 없는 InterruptChecker입니다.
var NeverInterrupted InterruptChecker = InterruptCheckerFunc(func() bool { return false })
