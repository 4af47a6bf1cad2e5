// Package license Pro 기능(오디오/비디오 처리) 사용 권한과 일일 사용량을 파일 기반으로 관리합니다.
//
// 활성화 키는 기기 식별자에 대한 HMAC-SHA256 서명의 접두사이며,
// 상태(활성화 키, 날짜별 사용 횟수)는 JSON 파일에 원자적으로 저장됩니다.
package license

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	"github.com/darkkaiser/bizyair-runner/pkg/fileutil"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
)

const component = "license.manager"

// keyLength 활성화 키 길이(16진수 문자 수)입니다.
const keyLength = 20

// dateLayout 사용량 기록의 날짜 키 형식입니다 (로컬 시간 기준).
const dateLayout = "2006-01-02"

var _ contract.LicenseManager = (*Manager)(nil)

// state 상태 파일에 저장되는 내용입니다.
type state struct {
	LicenseKey string         `json:"license_key,omitempty"`
	Usage      map[string]int `json:"usage,omitempty"`
}

// Info 호스트 UI에 표시할 라이선스 요약 정보입니다.
type Info struct {
	IsActivated bool   `json:"is_activated"`
	MachineID   string `json:"machine_id"`
	StatusMsg   string `json:"status_msg"`
	Allowed     bool   `json:"allowed"`
}

// Manager 파일 기반 라이선스 관리자입니다. 여러 고루틴에서 동시에 사용해도 안전합니다.
type Manager struct {
	path       string
	secret     []byte
	dailyLimit int
	machineID  string

	now func() time.Time

	mu sync.Mutex
	st state
}

// Option Manager 생성 옵션입니다.
type Option func(*Manager)

// WithMachineID 자동 감지 대신 지정한 기기 식별자를 사용합니다.
func WithMachineID(id string) Option {
	return func(m *Manager) {
		m.machineID = id
	}
}

// WithClock 현재 시각을 반환하는 함수를 교체합니다.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager 상태 파일을 읽어 Manager를 생성합니다.
//
// 상태 파일이 없으면 빈 상태로 시작하고, 손상된 파일은 경고 로그를 남긴 뒤 빈 상태로 대체합니다.
func NewManager(cfg config.LicenseConfig, opts ...Option) (*Manager, error) {
	m := &Manager{
		path:       cfg.StateFile,
		secret:     []byte(cfg.ProductSecret),
		dailyLimit: cfg.DailyLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.machineID == "" {
		m.machineID = detectMachineID()
	}

	if err := m.load(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.st = state{Usage: map[string]int{}}
			return nil
		}
		return newErrStateReadFailed(err, m.path)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"path":  m.path,
			"error": err,
		}).Warn("라이선스 상태 파일이 손상되어 새 상태로 시작합니다")

		st = state{}
	}
	if st.Usage == nil {
		st.Usage = map[string]int{}
	}
	m.st = st

	return nil
}

// saveLocked 호출자는 m.mu를 보유해야 합니다.
func (m *Manager) saveLocked() error {
	data, err := json.MarshalIndent(m.st, "", "\t")
	if err != nil {
		return newErrStateMarshalFailed(err)
	}
	if err := fileutil.WriteFileAtomic(m.path, data, 0600); err != nil {
		return newErrStateSaveFailed(err, m.path)
	}
	return nil
}

// MachineID 현재 기기의 식별자를 반환합니다.
func (m *Manager) MachineID() string {
	return m.machineID
}

// ExpectedKey 주어진 기기 식별자에 대해 유효한 활성화 키를 계산합니다.
func ExpectedKey(productSecret, machineID string) string {
	mac := hmac.New(sha256.New, []byte(productSecret))
	mac.Write([]byte(machineID))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))[:keyLength]
}

// normalizeKey 사용자가 입력한 키에서 공백과 구분자(-)를 제거하고 대문자로 통일합니다.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	return strings.ToUpper(key)
}

func (m *Manager) verify(key string) bool {
	if key == "" {
		return false
	}
	expected := ExpectedKey(string(m.secret), m.machineID)
	return hmac.Equal([]byte(normalizeKey(key)), []byte(expected))
}

// IsActivated 저장된 활성화 키가 현재 기기에 대해 유효한지 확인합니다.
func (m *Manager) IsActivated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verify(m.st.LicenseKey)
}

// Activate 키를 검증하고 유효하면 상태 파일에 저장합니다.
func (m *Manager) Activate(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.verify(key) {
		applog.WithComponentAndFields(component, applog.Fields{
			"machine_id": m.machineID,
			"key":        applog.MaskSensitiveData(key),
		}).Warn("라이선스 활성화 실패: 유효하지 않은 키")

		return false, nil
	}

	prev := m.st.LicenseKey
	m.st.LicenseKey = normalizeKey(key)
	if err := m.saveLocked(); err != nil {
		m.st.LicenseKey = prev
		return false, err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"machine_id": m.machineID,
	}).Info("라이선스 활성화 완료")

	return true, nil
}

func (m *Manager) today() string {
	return m.now().Format(dateLayout)
}

// CheckDailyLimit 오늘 Pro 기능을 추가로 사용할 수 있는지와 상태 메시지를 반환합니다.
func (m *Manager) CheckDailyLimit() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkDailyLimitLocked()
}

func (m *Manager) checkDailyLimitLocked() (bool, string) {
	used := m.st.Usage[m.today()]

	if m.dailyLimit <= 0 {
		return true, fmt.Sprintf("今日已使用 %d 次 (无限制)", used)
	}
	if used >= m.dailyLimit {
		return false, fmt.Sprintf("今日使用次数已达上限 (%d/%d)，请明天再试。", used, m.dailyLimit)
	}
	return true, fmt.Sprintf("今日剩余次数: %d/%d", m.dailyLimit-used, m.dailyLimit)
}

// IncrementUsage 오늘의 사용 횟수를 1 증가시키고 저장합니다.
func (m *Manager) IncrementUsage() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := m.today()
	m.st.Usage[day]++
	if err := m.saveLocked(); err != nil {
		m.st.Usage[day]--
		return err
	}

	return nil
}

// UsageToday 오늘의 사용 횟수를 반환합니다.
func (m *Manager) UsageToday() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Usage[m.today()]
}

// Info 활성화 여부, 기기 식별자, 일일 사용 가능 여부를 한 번에 반환합니다.
func (m *Manager) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed, msg := m.checkDailyLimitLocked()
	activated := m.verify(m.st.LicenseKey)
	if !activated {
		msg = "未激活 (Pro 功能不可用)"
	}

	return Info{
		IsActivated: activated,
		MachineID:   m.machineID,
		StatusMsg:   msg,
		Allowed:     allowed,
	}
}

// PruneUsage retention보다 오래된 날짜의 사용 기록을 삭제하고 삭제한 항목 수를 반환합니다.
func (m *Manager) PruneUsage(retention time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-retention).Format(dateLayout)

	var stale []string
	for day := range m.st.Usage {
		// 같은 형식의 날짜 문자열은 사전순 비교가 시간순 비교와 같습니다.
		if day < cutoff {
			stale = append(stale, day)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	sort.Strings(stale)

	removed := make(map[string]int, len(stale))
	for _, day := range stale {
		removed[day] = m.st.Usage[day]
		delete(m.st.Usage, day)
	}

	if err := m.saveLocked(); err != nil {
		for day, n := range removed {
			m.st.Usage[day] = n
		}
		return 0, err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"removed": len(stale),
		"oldest":  stale[0],
	}).Info("오래된 라이선스 사용 기록 정리 완료")

	return len(stale), nil
}
