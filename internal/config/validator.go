package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	apperrors "github.com/darkkaiser/bizyair-runner/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 에러 메시지에 Go 구조체 필드명 대신 JSON 이름(예: listen_port)을 사용합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("cors_origin", validateCORSOrigin); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'cors_origin' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

// validateCORSOrigin 'Scheme://Host[:Port]' 형식 또는 와일드카드('*')인지 검증합니다.
// 경로, 쿼리, 프래그먼트, 사용자 정보를 포함하면 유효하지 않습니다.
func validateCORSOrigin(fl validator.FieldLevel) bool {
	origin := strings.TrimSpace(fl.Field().String())
	if origin == "*" {
		return true
	}
	if origin == "" || strings.HasSuffix(origin, "/") {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return false
	}

	return u.Hostname() != ""
}

// checkStruct 구조체의 유효성을 태그 규칙에 따라 검증하고, 첫 번째 오류를 사용자 친화적인 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s any, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Wrap(err, apperrors.Validation, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	firstErr := validationErrors[0]

	// 필드별 커스텀 에러 처리
	switch firstErr.StructField() {
	case "ListenPort":
		return apperrors.New(apperrors.Validation, "HTTP 서버 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
	case "BaseURL":
		return apperrors.New(apperrors.Validation, fmt.Sprintf("서비스 주소(base_url)가 올바른 HTTP(S) URL이 아닙니다: '%v'", firstErr.Value()))
	case "APIKeyFile":
		return apperrors.New(apperrors.Validation, "API Key 파일 경로(api_key_file)는 필수입니다")
	case "ProductSecret":
		return apperrors.New(apperrors.Validation, "라이선스 서명 키(license.product_secret)는 필수입니다")
	}

	// 태그별 커스텀 에러 처리
	if firstErr.Tag() == "cors_origin" {
		return apperrors.New(apperrors.Validation, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%v' (형식: Scheme://Host[:Port], 예: https://example.com)", firstErr.Value()))
	}

	return apperrors.New(apperrors.Validation, fmt.Sprintf("%s의 값이 올바르지 않습니다: %s (조건: %s, 값: '%v')", contextName, trimRootNamespace(firstErr.Namespace()), tagWithParam(firstErr), firstErr.Value()))
}

// trimRootNamespace "AppConfig.polling.interval" → "polling.interval"
func trimRootNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx != -1 {
		return ns[idx+1:]
	}
	return ns
}

func tagWithParam(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
