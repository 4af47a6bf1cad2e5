package config

import (
	"fmt"
	"time"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/darkkaiser/bizyair-runner/pkg/cronx"
	"github.com/go-playground/validator/v10"
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug bool `json:"debug"`

	API      APIConfig      `json:"api"`
	Upload   UploadConfig   `json:"upload"`
	Polling  PollingConfig  `json:"polling"`
	Cancel   CancelConfig   `json:"cancel"`
	Download DownloadConfig `json:"download"`
	License  LicenseConfig  `json:"license"`

	APIKeyFile      string `json:"api_key_file" validate:"required"`
	DefaultAppsFile string `json:"default_apps_file"`

	AppCache   AppCacheConfig   `json:"app_cache"`
	HTTPServer HTTPServerConfig `json:"http_server"`
	Progress   ProgressConfig   `json:"progress"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "설정"); err != nil {
		return err
	}

	if err := c.Polling.validate(); err != nil {
		return err
	}

	if err := c.License.validate(); err != nil {
		return err
	}

	if err := c.HTTPServer.validate(); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 강제적인 에러는 아니지만 운영상 주의가 필요한 설정에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if c.HTTPServer.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.HTTPServer.ListenPort))
	}
	if c.Polling.MaxWait == 0 {
		warnings = append(warnings, "작업 최대 대기 시간(polling.max_wait)이 설정되지 않아 서버가 종료 상태를 보고할 때까지 무기한 대기합니다")
	}
	if c.License.ProductSecret == "bizyair-webapp" {
		warnings = append(warnings, "라이선스 서명 키(license.product_secret)가 기본값입니다. 배포 환경에서는 반드시 변경하세요")
	}

	return warnings
}

// APIConfig 원격 추론 서비스 접속 설정
type APIConfig struct {
	BaseURL        string        `json:"base_url" validate:"required,http_url"`
	ClientIDPrefix string        `json:"client_id_prefix" validate:"required"`
	RequestTimeout time.Duration `json:"request_timeout" validate:"gt=0"`
}

// UploadConfig 입력 미디어 업로드 설정
type UploadConfig struct {
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
}

// PollingConfig 작업 상태 조회 주기와 진행률 추정 상수
type PollingConfig struct {
	InitialDelay   time.Duration `json:"initial_delay" validate:"gte=0"`
	Interval       time.Duration `json:"interval" validate:"gt=0"`
	RequestTimeout time.Duration `json:"request_timeout" validate:"gt=0"`

	// MaxWait 0이면 무기한 대기합니다.
	MaxWait time.Duration `json:"max_wait" validate:"gte=0"`

	SimulatedStart float64 `json:"simulated_start" validate:"gte=0,lt=1"`
	SimulatedStep  float64 `json:"simulated_step" validate:"gt=0,lt=1"`
	SimulatedCap   float64 `json:"simulated_cap" validate:"gt=0,lt=1"`
	QueuingFloor   float64 `json:"queuing_floor" validate:"gte=0,lt=1"`
	PreparingFloor float64 `json:"preparing_floor" validate:"gte=0,lt=1"`
}

func (c *PollingConfig) validate() error {
	if c.SimulatedStart > c.SimulatedCap {
		return apperrors.New(apperrors.Validation, fmt.Sprintf("추정 진행률 시작값(simulated_start: %v)은 상한(simulated_cap: %v)보다 클 수 없습니다", c.SimulatedStart, c.SimulatedCap))
	}
	if c.QueuingFloor > c.PreparingFloor {
		return apperrors.New(apperrors.Validation, fmt.Sprintf("대기 단계 진행률(queuing_floor: %v)은 준비 단계 진행률(preparing_floor: %v)보다 클 수 없습니다", c.QueuingFloor, c.PreparingFloor))
	}
	return nil
}

// CancelConfig 작업 중단 요청 설정
type CancelConfig struct {
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
}

// DownloadConfig 결과물 다운로드 설정
type DownloadConfig struct {
	OutputDir string        `json:"output_dir" validate:"required"`
	Timeout   time.Duration `json:"timeout" validate:"gt=0"`

	// MaxBytes 결과물 하나의 최대 크기 (-1: 제한 없음)
	MaxBytes int64 `json:"max_bytes" validate:"gte=-1"`

	MaxRetries int           `json:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `json:"retry_delay" validate:"gt=0"`
}

// LicenseConfig Pro 기능 라이선스 설정
type LicenseConfig struct {
	StateFile string `json:"state_file"`

	// DailyLimit 하루 최대 Pro 기능 사용 횟수 (0: 무제한)
	DailyLimit int `json:"daily_limit" validate:"gte=0"`

	ProductSecret string `json:"product_secret" validate:"required"`

	// PruneSchedule 오래된 사용 기록을 정리하는 Cron 표현식 (serve 모드)
	PruneSchedule string `json:"prune_schedule"`
}

func (c *LicenseConfig) validate() error {
	if c.PruneSchedule == "" {
		return nil
	}
	if err := cronx.Validate(c.PruneSchedule); err != nil {
		return apperrors.Wrap(err, apperrors.Validation, "라이선스 사용 기록 정리 주기(license.prune_schedule)가 올바르지 않습니다")
	}
	return nil
}

// AppCacheConfig 웹앱 상세 정보 캐시 설정
type AppCacheConfig struct {
	Size int           `json:"size" validate:"gt=0"`
	TTL  time.Duration `json:"ttl" validate:"gt=0"`
}

// HTTPServerConfig 호스트 연동용 HTTP 서버 설정
type HTTPServerConfig struct {
	// ListenHost 비어있으면 모든 인터페이스에서 수신합니다.
	ListenHost   string          `json:"listen_host" validate:"omitempty,ip|hostname"`
	ListenPort   int             `json:"listen_port" validate:"min=1,max=65535"`
	AllowOrigins []string        `json:"allow_origins" validate:"dive,cors_origin"`
	BodyLimit    string          `json:"body_limit" validate:"required"`
	RateLimit    RateLimitConfig `json:"rate_limit"`
}

func (c *HTTPServerConfig) validate() error {
	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.Validation, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}

	for _, origin := range c.AllowOrigins {
		if origin == "*" && len(c.AllowOrigins) > 1 {
			return apperrors.New(apperrors.Validation, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
		}
	}

	return nil
}

// RateLimitConfig IP별 요청 속도 제한 설정
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" validate:"gt=0"`
	Burst             int     `json:"burst" validate:"gt=0"`
}

// ProgressConfig 진행률 이벤트 전달 설정
type ProgressConfig struct {
	QueueSize int `json:"queue_size" validate:"gt=0"`
}
