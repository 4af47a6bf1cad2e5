package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "bizyair-runner"

	// DefaultFilename 실행 인자로 경로가 주어지지 않았을 때 참조하는 기본 설정 파일명입니다.
	DefaultFilename = AppName + ".json"

	// envPrefix 설정을 덮어쓰는 환경 변수의 접두사입니다.
	envPrefix = "BIZYAIR_"

	// defaultLicenseStateFilename 사용자 홈 디렉토리에 생성되는 라이선스 상태 파일명입니다.
	defaultLicenseStateFilename = ".bizyair_app_config"
)

// 원격 서비스 및 작업 실행 정책의 기본값
const (
	DefaultBaseURL        = "https://api.bizyair.cn"
	DefaultClientIDPrefix = "comfyui_"
	DefaultRequestTimeout = 30 * time.Second

	DefaultUploadTimeout = 60 * time.Second

	DefaultPollInitialDelay   = 3 * time.Second
	DefaultPollInterval       = 1 * time.Second
	DefaultPollRequestTimeout = 10 * time.Second

	DefaultSimulatedStart = 0.25
	DefaultSimulatedStep  = 0.01
	DefaultSimulatedCap   = 0.95
	DefaultQueuingFloor   = 0.1
	DefaultPreparingFloor = 0.2

	DefaultCancelTimeout = 5 * time.Second

	DefaultOutputDir       = "output"
	DefaultDownloadTimeout = 60 * time.Second

	DefaultListenHost = "127.0.0.1"
	DefaultListenPort = 8189
)

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
// 기본 설정 파일이 없으면 기본값과 환경 변수만으로 설정을 구성합니다.
func Load() (*AppConfig, error) {
	if _, err := os.Stat(DefaultFilename); errors.Is(err, fs.ErrNotExist) {
		return LoadWithFile("")
	}
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
//
// 우선순위: 기본값 < JSON 설정 파일 < 환경 변수(.env 포함)
// filename이 빈 문자열이면 설정 파일 단계를 건너뜁니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	// .env 파일은 선택 사항입니다. 이미 설정된 환경 변수는 덮어쓰지 않습니다.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Wrap(err, apperrors.System, ".env 파일 로드에 실패했습니다")
	}

	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	if err := k.Load(structs.Provider(newDefaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드
	if filename != "" {
		if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
			}
			return nil, apperrors.Wrap(err, apperrors.Validation, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
		}
	}

	// 3. 환경 변수 로드 (최우선 순위)
	// 예: BIZYAIR_POLLING__INTERVAL -> polling.interval
	if err := k.Load(env.Provider(envPrefix, ".", normalizeEnvKey), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링
	var appConfig AppConfig
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused:      true, // 구조체에 없는 키가 설정에 존재하면 에러
			WeaklyTypedInput: true,
			Result:           &appConfig,
		},
	}
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Validation, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	if err := appConfig.resolvePaths(); err != nil {
		return nil, err
	}

	// 5. 유효성 검사
	if err := appConfig.validate(newValidator()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Validation, fmt.Sprintf("설정('%s')의 유효성 검증에 실패했습니다", displayName(filename)))
	}

	return &appConfig, nil
}

// normalizeEnvKey 환경 변수명을 koanf 키 경로로 변환합니다.
// 이중 언더스코어(__)는 계층 구분자(.)로 변환됩니다.
func normalizeEnvKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// newDefaultConfig 기본값으로 채워진 설정 객체를 생성합니다.
func newDefaultConfig() AppConfig {
	return AppConfig{
		Debug: false,
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			ClientIDPrefix: DefaultClientIDPrefix,
			RequestTimeout: DefaultRequestTimeout,
		},
		Upload: UploadConfig{
			Timeout: DefaultUploadTimeout,
		},
		Polling: PollingConfig{
			InitialDelay:   DefaultPollInitialDelay,
			Interval:       DefaultPollInterval,
			RequestTimeout: DefaultPollRequestTimeout,
			MaxWait:        0,
			SimulatedStart: DefaultSimulatedStart,
			SimulatedStep:  DefaultSimulatedStep,
			SimulatedCap:   DefaultSimulatedCap,
			QueuingFloor:   DefaultQueuingFloor,
			PreparingFloor: DefaultPreparingFloor,
		},
		Cancel: CancelConfig{
			Timeout: DefaultCancelTimeout,
		},
		Download: DownloadConfig{
			OutputDir:  DefaultOutputDir,
			Timeout:    DefaultDownloadTimeout,
			MaxBytes:   -1,
			MaxRetries: 0,
			RetryDelay: 1 * time.Second,
		},
		License: LicenseConfig{
			StateFile:     "",
			DailyLimit:    0,
			ProductSecret: "bizyair-webapp",
			PruneSchedule: "@daily",
		},
		APIKeyFile:      "api_key.ini",
		DefaultAppsFile: "default_apps.json",
		AppCache: AppCacheConfig{
			Size: 128,
			TTL:  10 * time.Minute,
		},
		HTTPServer: HTTPServerConfig{
			ListenHost:   DefaultListenHost,
			ListenPort:   DefaultListenPort,
			AllowOrigins: []string{"*"},
			BodyLimit:    "32M",
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 20,
				Burst:             40,
			},
		},
		Progress: ProgressConfig{
			QueueSize: 64,
		},
	}
}

// resolvePaths 비어있는 경로 설정을 실행 환경에 맞게 채웁니다.
func (c *AppConfig) resolvePaths() error {
	if c.License.StateFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return apperrors.Wrap(err, apperrors.System, "사용자 홈 디렉토리를 확인할 수 없습니다 (license.state_file을 직접 지정하세요)")
		}
		c.License.StateFile = filepath.Join(home, defaultLicenseStateFilename)
	}
	return nil
}

func displayName(filename string) string {
	if filename == "" {
		return "기본값"
	}
	return filename
}
