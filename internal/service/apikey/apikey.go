// Package apikey INI 파일(api_key.ini)에서 원격 서비스 API Key를 읽어오는 contract.APIKeySource 구현체를 제공합니다.
package apikey

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/darkkaiser/bizyair-runner/internal/service/contract"
	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/go-ini/ini"
)

const component = "apikey.source"

const (
	sectionName = "auth"
	keyName     = "api_key"
)

var _ contract.APIKeySource = (*FileSource)(nil)

// FileSource 호출할 때마다 INI 파일을 다시 읽으므로, 실행 중에 키를 교체해도 재시작이 필요 없습니다.
type FileSource struct {
	path string
}

// NewFileSource 새로운 FileSource를 생성합니다.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path INI 파일 경로를 반환합니다.
func (s *FileSource) Path() string {
	return s.path
}

// APIKey [auth] 섹션의 api_key 값을 반환합니다.
// 파일, 섹션, 키 중 하나라도 없거나 값이 비어있으면 false를 반환합니다.
func (s *FileSource) APIKey() (string, bool) {
	f, err := ini.Load(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			applog.WithComponentAndFields(component, applog.Fields{
				"path":  s.path,
				"error": err,
			}).Warn("API Key 파일을 읽을 수 없습니다")
		}
		return "", false
	}

	sec, err := f.GetSection(sectionName)
	if err != nil || !sec.HasKey(keyName) {
		return "", false
	}

	key := strings.TrimSpace(sec.Key(keyName).String())
	if key == "" {
		return "", false
	}

	return key, true
}
