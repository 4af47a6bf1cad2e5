package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNormalizeEnvKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"BIZYAIR_DEBUG", "debug"},
		{"BIZYAIR_POLLING__INTERVAL", "polling.interval"},
		{"BIZYAIR_HTTP_SERVER__RATE_LIMIT__BURST", "http_server.rate_limit.burst"},
		{"BIZYAIR_Mixed_Case__Key", "mixed_case.key"},
		{"DEBUG", "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeEnvKey(tt.input))
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := newDefaultConfig()
	cfg.License.StateFile = filepath.Join(t.TempDir(), "state")

	assert.False(t, cfg.Debug)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Polling.InitialDelay)
	assert.Equal(t, 1*time.Second, cfg.Polling.Interval)
	assert.Equal(t, 10*time.Second, cfg.Polling.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Cancel.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Download.Timeout)
	assert.Equal(t, int64(-1), cfg.Download.MaxBytes)
	assert.Equal(t, 0.25, cfg.Polling.SimulatedStart)
	assert.Equal(t, 0.95, cfg.Polling.SimulatedCap)

	require.NoError(t, cfg.validate(newValidator()), "기본 설정은 항상 유효해야 합니다")
}

func TestLoadWithFile_DefaultsOnly(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultListenHost, cfg.HTTPServer.ListenHost)
	assert.Equal(t, DefaultListenPort, cfg.HTTPServer.ListenPort)
	assert.Equal(t, []string{"*"}, cfg.HTTPServer.AllowOrigins)
	assert.Equal(t, filepath.Join(home, ".bizyair_app_config"), cfg.License.StateFile)
}

func TestLoadWithFile_FileAndEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `{
		"debug": true,
		"polling": { "interval": "2s", "max_wait": "5m" },
		"download": { "output_dir": "/tmp/bizyair-out" },
		"license": { "state_file": "/tmp/state.json", "daily_limit": 20 },
		"http_server": { "listen_port": 9000, "allow_origins": ["http://localhost:8188"] }
	}`)

	t.Setenv("BIZYAIR_POLLING__INTERVAL", "500ms")
	t.Setenv("BIZYAIR_HTTP_SERVER__RATE_LIMIT__BURST", "7")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 500*time.Millisecond, cfg.Polling.Interval, "환경 변수가 파일 설정보다 우선해야 합니다")
	assert.Equal(t, 5*time.Minute, cfg.Polling.MaxWait)
	assert.Equal(t, 3*time.Second, cfg.Polling.InitialDelay, "지정하지 않은 값은 기본값을 유지해야 합니다")
	assert.Equal(t, "/tmp/bizyair-out", cfg.Download.OutputDir)
	assert.Equal(t, "/tmp/state.json", cfg.License.StateFile)
	assert.Equal(t, 20, cfg.License.DailyLimit)
	assert.Equal(t, 9000, cfg.HTTPServer.ListenPort)
	assert.Equal(t, 7, cfg.HTTPServer.RateLimit.Burst)
	assert.Equal(t, []string{"http://localhost:8188"}, cfg.HTTPServer.AllowOrigins)
}

func TestLoadWithFile_Errors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Run("파일 없음", func(t *testing.T) {
		_, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.System))
		assert.Contains(t, err.Error(), "설정 파일을 찾을 수 없습니다")
	})

	t.Run("JSON 문법 오류", func(t *testing.T) {
		_, err := LoadWithFile(writeConfigFile(t, `{ "debug": `))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Validation))
	})

	t.Run("알 수 없는 키", func(t *testing.T) {
		_, err := LoadWithFile(writeConfigFile(t, `{ "unknown_section": { "a": 1 } }`))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Validation))
		assert.Contains(t, err.Error(), "unknown_section")
	})

	t.Run("유효성 검증 실패", func(t *testing.T) {
		_, err := LoadWithFile(writeConfigFile(t, `{ "http_server": { "listen_port": 70000 } }`))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Validation))
		assert.Contains(t, err.Error(), "listen_port")
	})
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		modify      func(c *AppConfig)
		expectError string
	}{
		{
			name:   "기본값",
			modify: func(c *AppConfig) {},
		},
		{
			name:        "잘못된 포트",
			modify:      func(c *AppConfig) { c.HTTPServer.ListenPort = 0 },
			expectError: "listen_port",
		},
		{
			name:        "잘못된 서비스 주소",
			modify:      func(c *AppConfig) { c.API.BaseURL = "not-a-url" },
			expectError: "base_url",
		},
		{
			name:        "API Key 파일 누락",
			modify:      func(c *AppConfig) { c.APIKeyFile = "" },
			expectError: "api_key_file",
		},
		{
			name:        "폴링 주기 0",
			modify:      func(c *AppConfig) { c.Polling.Interval = 0 },
			expectError: "polling.interval",
		},
		{
			name:        "추정 진행률 상한 1 이상",
			modify:      func(c *AppConfig) { c.Polling.SimulatedCap = 1.0 },
			expectError: "polling.simulated_cap",
		},
		{
			name: "추정 진행률 시작값이 상한보다 큼",
			modify: func(c *AppConfig) {
				c.Polling.SimulatedStart = 0.9
				c.Polling.SimulatedCap = 0.5
			},
			expectError: "simulated_start",
		},
		{
			name: "대기 단계 진행률이 준비 단계보다 큼",
			modify: func(c *AppConfig) {
				c.Polling.QueuingFloor = 0.3
			},
			expectError: "queuing_floor",
		},
		{
			name:        "다운로드 최대 크기 -1 미만",
			modify:      func(c *AppConfig) { c.Download.MaxBytes = -2 },
			expectError: "download.max_bytes",
		},
		{
			name:        "경로가 포함된 CORS Origin",
			modify:      func(c *AppConfig) { c.HTTPServer.AllowOrigins = []string{"https://example.com/"} },
			expectError: "CORS Origin 형식이 올바르지 않습니다",
		},
		{
			name:        "와일드카드와 도메인 혼용",
			modify:      func(c *AppConfig) { c.HTTPServer.AllowOrigins = []string{"*", "https://example.com"} },
			expectError: "와일드카드",
		},
		{
			name:        "빈 CORS 목록",
			modify:      func(c *AppConfig) { c.HTTPServer.AllowOrigins = nil },
			expectError: "allow_origins",
		},
		{
			name:        "잘못된 사용 기록 정리 주기",
			modify:      func(c *AppConfig) { c.License.PruneSchedule = "0 4 * * *" },
			expectError: "license.prune_schedule",
		},
		{
			name:        "잘못된 수신 주소",
			modify:      func(c *AppConfig) { c.HTTPServer.ListenHost = "not a host!" },
			expectError: "listen_host",
		},
		{
			name:   "모든 인터페이스에서 수신",
			modify: func(c *AppConfig) { c.HTTPServer.ListenHost = "" },
		},
		{
			name:   "포트가 포함된 CORS Origin",
			modify: func(c *AppConfig) { c.HTTPServer.AllowOrigins = []string{"http://127.0.0.1:8188"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newDefaultConfig()
			cfg.License.StateFile = "/tmp/state"
			tt.modify(&cfg)

			err := cfg.validate(newValidator())
			if tt.expectError == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.Validation))
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestAppConfig_VerifyRecommendations(t *testing.T) {
	t.Parallel()

	cfg := newDefaultConfig()
	assert.Len(t, cfg.VerifyRecommendations(), 2)

	cfg.HTTPServer.ListenPort = 80
	cfg.Polling.MaxWait = time.Hour
	cfg.License.ProductSecret = "custom"

	warnings := cfg.VerifyRecommendations()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "port: 80")
}
