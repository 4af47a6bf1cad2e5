package fetcher

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

var (
	// sensitiveExactKeys 이름 전체가 일치할 때만 마스킹하는 쿼리 파라미터 (대소문자 무시)
	sensitiveExactKeys = []string{
		"token", "auth", "key", "secret", "password", "signature",
		"access_token", "api_key", "access_key", "secret_key",
		"ossaccesskeyid", "security-token", "x-oss-security-token",
	}

	// sensitiveSuffixes 해당 접미사로 끝나면 마스킹하는 쿼리 파라미터
	sensitiveSuffixes = []string{"_token", "_secret", "_key", "_sig"}

	sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie", "X-Oss-Security-Token"}
)

// redactHeaders 민감한 헤더 값을 마스킹한 복사본을 반환합니다.
func redactHeaders(h http.Header) http.Header {
	if h == nil {
		return nil
	}

	masked := h.Clone()
	for _, key := range sensitiveHeaders {
		if masked.Get(key) != "" {
			masked.Set(key, "***")
		}
	}
	return masked
}

// redactURL 사용자 정보와 민감한 쿼리 파라미터 값을 마스킹한 URL 문자열을 반환합니다.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	clone := *u
	if clone.User != nil {
		clone.User = url.User(clone.User.Username())
		if _, hasPassword := u.User.Password(); hasPassword {
			clone.User = url.UserPassword(clone.User.Username(), "xxxxx")
		}
	}

	if clone.RawQuery != "" {
		pairs := strings.Split(clone.RawQuery, "&")
		for i, pair := range pairs {
			key, _, _ := strings.Cut(pair, "=")
			if unescaped, err := url.QueryUnescape(key); err == nil && isSensitiveKey(unescaped) {
				pairs[i] = key + "=***"
			}
		}
		clone.RawQuery = strings.Join(pairs, "&")
	}

	return clone.String()
}

// RedactURL 로깅용으로 민감 정보를 마스킹한 URL 문자열을 반환합니다.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid url]"
	}
	return redactURL(u)
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if slices.Contains(sensitiveExactKeys, lower) {
		return true
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
