package license

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/bizyair-runner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret    = "unit-test-secret"
	testMachineID = "0123456789ABCDEF"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newTestManager(t *testing.T, dailyLimit int) (*Manager, string, *fakeClock) {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".bizyair_app_config")
	clock := &fakeClock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.Local)}

	m, err := NewManager(config.LicenseConfig{
		StateFile:     path,
		DailyLimit:    dailyLimit,
		ProductSecret: testSecret,
	}, WithMachineID(testMachineID), WithClock(clock.Now))
	require.NoError(t, err)

	return m, path, clock
}

func TestExpectedKey(t *testing.T) {
	t.Parallel()

	k1 := ExpectedKey(testSecret, testMachineID)
	assert.Len(t, k1, keyLength)
	assert.Equal(t, k1, ExpectedKey(testSecret, testMachineID))
	assert.NotEqual(t, k1, ExpectedKey("other-secret", testMachineID))
	assert.NotEqual(t, k1, ExpectedKey(testSecret, "FEDCBA9876543210"))
}

func TestHashMachineID(t *testing.T) {
	t.Parallel()

	id := hashMachineID("host-a", "00:11:22:33:44:55")
	assert.Len(t, id, machineIDLength)
	assert.Equal(t, id, hashMachineID("host-a", "00:11:22:33:44:55"))
	assert.NotEqual(t, id, hashMachineID("host-b", "00:11:22:33:44:55"))
	assert.NotEmpty(t, detectMachineID())
}

func TestManager_Activate(t *testing.T) {
	t.Parallel()

	m, path, _ := newTestManager(t, 0)
	assert.False(t, m.IsActivated())
	assert.Equal(t, testMachineID, m.MachineID())

	ok, err := m.Activate("not-a-key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, m.IsActivated())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "잘못된 키로는 상태 파일을 만들지 않습니다")

	// 소문자와 구분자가 섞인 입력도 허용합니다.
	key := ExpectedKey(testSecret, testMachineID)
	input := " " + key[:5] + "-" + key[5:10] + "-" + key[10:] + " "
	ok, err = m.Activate(strings.ToLower(input))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, m.IsActivated())

	// 재시작 후에도 활성화 상태가 유지됩니다.
	reloaded, err := NewManager(config.LicenseConfig{StateFile: path, ProductSecret: testSecret}, WithMachineID(testMachineID))
	require.NoError(t, err)
	assert.True(t, reloaded.IsActivated())

	// 다른 기기에서는 같은 상태 파일이 유효하지 않습니다.
	otherMachine, err := NewManager(config.LicenseConfig{StateFile: path, ProductSecret: testSecret}, WithMachineID("FFFFFFFFFFFFFFFF"))
	require.NoError(t, err)
	assert.False(t, otherMachine.IsActivated())
}

func TestManager_DailyLimit(t *testing.T) {
	t.Parallel()

	m, path, clock := newTestManager(t, 2)

	allowed, msg := m.CheckDailyLimit()
	assert.True(t, allowed)
	assert.Contains(t, msg, "2/2")

	require.NoError(t, m.IncrementUsage())
	require.NoError(t, m.IncrementUsage())
	assert.Equal(t, 2, m.UsageToday())

	allowed, msg = m.CheckDailyLimit()
	assert.False(t, allowed)
	assert.Contains(t, msg, "(2/2)")

	// 사용량은 상태 파일에 날짜별로 저장됩니다.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var st state
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, 2, st.Usage["2026-05-10"])

	// 날짜가 바뀌면 다시 사용할 수 있습니다.
	clock.Set(clock.Now().Add(24 * time.Hour))
	allowed, _ = m.CheckDailyLimit()
	assert.True(t, allowed)
	assert.Zero(t, m.UsageToday())
}

func TestManager_UnlimitedByDefault(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.IncrementUsage())
	}

	allowed, msg := m.CheckDailyLimit()
	assert.True(t, allowed)
	assert.Contains(t, msg, "5")
}

func TestManager_Info(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t, 1)

	info := m.Info()
	assert.False(t, info.IsActivated)
	assert.Equal(t, testMachineID, info.MachineID)
	assert.True(t, info.Allowed)
	assert.NotEmpty(t, info.StatusMsg)

	ok, err := m.Activate(ExpectedKey(testSecret, testMachineID))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, m.IncrementUsage())

	info = m.Info()
	assert.True(t, info.IsActivated)
	assert.False(t, info.Allowed)
	assert.Contains(t, info.StatusMsg, "(1/1)")
}

func TestManager_CorruptStateFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	m, err := NewManager(config.LicenseConfig{StateFile: path, ProductSecret: testSecret}, WithMachineID(testMachineID))
	require.NoError(t, err)
	assert.False(t, m.IsActivated())
	assert.Zero(t, m.UsageToday())
}

func TestManager_UnreadableStatePath(t *testing.T) {
	t.Parallel()

	// 디렉토리를 상태 파일 경로로 지정하면 읽기 단계에서 실패합니다.
	dir := t.TempDir()
	_, err := NewManager(config.LicenseConfig{StateFile: dir, ProductSecret: testSecret}, WithMachineID(testMachineID))
	assert.Error(t, err)
}

func TestManager_IncrementUsageRollbackOnSaveFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	m, err := NewManager(config.LicenseConfig{
		StateFile:     filepath.Join(blocker, "state.json"),
		ProductSecret: testSecret,
	}, WithMachineID(testMachineID))
	require.NoError(t, err)

	assert.Error(t, m.IncrementUsage())
	assert.Zero(t, m.UsageToday(), "저장 실패 시 증가분을 되돌려야 합니다")
}

func TestManager_PruneUsage(t *testing.T) {
	t.Parallel()

	m, path, _ := newTestManager(t, 0)

	m.mu.Lock()
	m.st.Usage["2026-03-01"] = 4
	m.st.Usage["2026-04-09"] = 1
	m.st.Usage["2026-05-09"] = 2
	m.mu.Unlock()

	removed, err := m.PruneUsage(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var st state
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, map[string]int{"2026-05-09": 2}, st.Usage)

	removed, err = m.PruneUsage(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
