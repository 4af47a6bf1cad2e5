// Package mocks contract 패키지 인터페이스의 testify Mock 구현체를 제공합니다.
package mocks

import (
	"sync"

	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	"github.com/stretchr/testify/mock"
)

var (
	_ contract.APIKeySource     = (*MockAPIKeySource)(nil)
	_ contract.LicenseManager   = (*MockLicenseManager)(nil)
	_ contract.InterruptChecker = (*MockInterruptChecker)(nil)
	_ contract.ProgressReporter = (*RecordingReporter)(nil)
)

// MockAPIKeySource contract.APIKeySource의 Mock 구현체입니다.
type MockAPIKeySource struct {
	mock.Mock
}

func (m *MockAPIKeySource) APIKey() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

// MockLicenseManager contract.LicenseManager의 Mock 구현체입니다.
type MockLicenseManager struct {
	mock.Mock
}

func (m *MockLicenseManager) IsActivated() bool {
	return m.Called().Bool(0)
}

func (m *MockLicenseManager) CheckDailyLimit() (bool, string) {
	args := m.Called()
	return args.Bool(0), args.String(1)
}

func (m *MockLicenseManager) IncrementUsage() error {
	return m.Called().Error(0)
}

// MockInterruptChecker contract.InterruptChecker의 Mock 구현체입니다.
type MockInterruptChecker struct {
	mock.Mock
}

func (m *MockInterruptChecker) IsInterruptRequested() bool {
	return m.Called().Bool(0)
}

// RecordingReporter 전달받은 진행률 이벤트를 순서대로 기록합니다.
type RecordingReporter struct {
	mu     sync.Mutex
	events []contract.ProgressEvent
}

func (r *RecordingReporter) Report(ev contract.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events 기록된 이벤트의 복사본을 반환합니다.
func (r *RecordingReporter) Events() []contract.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]contract.ProgressEvent(nil), r.events...)
}
