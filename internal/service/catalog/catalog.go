// Package catalog 호스트 UI에 기본으로 노출할 웹앱 목록(default_apps.json)을 읽어옵니다.
package catalog

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	applog "github.com/darkkaiser/bizyair-runner/pkg/log"
	"github.com/tidwall/gjson"
)

const component = "catalog.default_apps"

// FileCatalog default_apps.json 파일에서 기본 웹앱 ID 목록을 읽어옵니다.
//
// 지원 형식:
//
//	{"default_apps": {"이미지": [{"id": 101, "name": "..."}], "비디오": [{"id": 202}]}}
//	{"default_apps": [{"id": 101}, "202", 303]}
type FileCatalog struct {
	path string
}

// NewFileCatalog 새로운 FileCatalog를 생성합니다.
func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

// DefaultApps 기본 웹앱 ID 목록을 문자열로 반환합니다.
// 파일이 없거나 형식이 잘못된 경우 빈 목록을 반환합니다.
func (c *FileCatalog) DefaultApps() []string {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			applog.WithComponentAndFields(component, applog.Fields{
				"path":  c.path,
				"error": err,
			}).Warn("기본 웹앱 목록 파일을 읽을 수 없습니다")
		}
		return []string{}
	}

	if !gjson.ValidBytes(data) {
		applog.WithComponentAndFields(component, applog.Fields{
			"path": c.path,
		}).Warn("기본 웹앱 목록 파일의 JSON 형식이 올바르지 않습니다")
		return []string{}
	}

	return ParseDefaultApps(data)
}

// ParseDefaultApps default_apps 항목에서 웹앱 ID를 순서대로 추출합니다.
func ParseDefaultApps(data []byte) []string {
	apps := []string{}
	raw := gjson.GetBytes(data, "default_apps")

	switch {
	case raw.IsObject():
		// 카테고리별 목록: 각 카테고리 안의 객체에서 id만 추출합니다.
		raw.ForEach(func(_, category gjson.Result) bool {
			if !category.IsArray() {
				return true
			}
			category.ForEach(func(_, app gjson.Result) bool {
				if id, ok := objectID(app); ok {
					apps = append(apps, id)
				}
				return true
			})
			return true
		})

	case raw.IsArray():
		// 이전 형식: 객체, 문자열, 숫자가 섞인 단순 목록
		raw.ForEach(func(_, app gjson.Result) bool {
			if id, ok := objectID(app); ok {
				apps = append(apps, id)
				return true
			}
			switch app.Type {
			case gjson.String:
				apps = append(apps, app.Str)
			case gjson.Number:
				apps = append(apps, numberString(app))
			}
			return true
		})
	}

	return apps
}

func objectID(app gjson.Result) (string, bool) {
	if !app.IsObject() {
		return "", false
	}

	id := app.Get("id")
	switch id.Type {
	case gjson.String:
		return id.Str, true
	case gjson.Number:
		return numberString(id), true
	case gjson.Null:
		if id.Exists() {
			return "None", true
		}
	}

	return "", false
}

// numberString 정수 ID는 소수점 없이 표기합니다.
func numberString(r gjson.Result) string {
	if r.Num == float64(int64(r.Num)) {
		return strconv.FormatInt(int64(r.Num), 10)
	}
	return r.Raw
}
