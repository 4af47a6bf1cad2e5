package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator 요청 검증에 사용하는 validator를 반환합니다. 처음 호출될 때 한 번만 생성됩니다.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(fieldDisplayName)
	})

	return validate
}

// fieldDisplayName 에러 메시지에 표시할 필드 이름을 korean 태그, json 태그, 필드명 순서로 고릅니다.
func fieldDisplayName(fld reflect.StructField) string {
	if name := fld.Tag.Get("korean"); name != "" {
		return name
	}
	if name, _, _ := strings.Cut(fld.Tag.Get("json"), ","); name != "" && name != "-" {
		return name
	}
	return fld.Name
}

// ValidateRequest 요청 구조체의 validate 태그를 검사합니다. 실패하면 validator.ValidationErrors를 반환합니다.
func ValidateRequest(req any) error {
	return getValidator().Struct(req)
}

// FormatValidationError 검증 에러를 호스트 UI에 표시할 한글 메시지로 바꿉니다. 첫 번째 필드 에러만 사용합니다.
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}

	return formatFieldError(fieldErrs[0])
}

func formatFieldError(fe validator.FieldError) string {
	name := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s는 필수입니다", name)
	case "min":
		if isString {
			return fmt.Sprintf("%s는 최소 %s자 이상이어야 합니다", name, fe.Param())
		}
		return fmt.Sprintf("%s는 최소 %s 이상이어야 합니다", name, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s는 최대 %s자까지 입력 가능합니다", name, fe.Param())
		}
		return fmt.Sprintf("%s는 최대 %s까지 입력 가능합니다", name, fe.Param())
	case "gt":
		return fmt.Sprintf("%s는 %s보다 커야 합니다", name, fe.Param())
	case "dive":
		return fmt.Sprintf("%s의 항목이 올바르지 않습니다", name)
	default:
		return fmt.Sprintf("%s 검증 실패: %s", name, fe.Tag())
	}
}
