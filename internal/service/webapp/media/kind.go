// Package media 원격 작업 결과물(이미지, 오디오, 비디오)을 확장자에 따라 메모리 상의 타입으로 디코딩하고,
// 업로드할 입력 이미지를 PNG로 인코딩합니다.
package media

import (
	"net/url"
	"path"
	"strings"
)

// Kind 결과물의 종류입니다.
type Kind string

const (
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// DefaultExtension URL 경로에 확장자가 없을 때 사용하는 확장자입니다.
const DefaultExtension = ".png"

var (
	imageExtensions = map[string]struct{}{".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {}, ".bmp": {}, ".tiff": {}}
	audioExtensions = map[string]struct{}{".mp3": {}, ".wav": {}, ".flac": {}, ".aac": {}, ".ogg": {}, ".m4a": {}}
)

// KindOf 확장자(소문자, 점 포함)로 결과물 종류를 판별합니다. 이미지와 오디오가 아니면 비디오로 취급합니다.
func KindOf(ext string) Kind {
	ext = strings.ToLower(ext)
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	if _, ok := audioExtensions[ext]; ok {
		return KindAudio
	}
	return KindVideo
}

// ExtensionFromURL URL 경로의 확장자를 소문자로 반환합니다. 확장자가 없으면 DefaultExtension을 반환합니다.
func ExtensionFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}

	ext := strings.ToLower(path.Ext(p))
	if ext == "" || ext == "." {
		return DefaultExtension
	}
	return ext
}
