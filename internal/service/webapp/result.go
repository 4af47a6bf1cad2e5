package webapp

import (
	"github.com/darkkaiser/bizyair-runner/internal/service/webapp/media"
)

// Result 디코딩된 결과물입니다. ImageResult, AudioResult, VideoResult 중 하나이며
// 다운로드된 파일은 디스크에 그대로 남습니다.
type Result interface {
	Kind() media.Kind

	// FilePath 다운로드된 원본 파일 경로입니다.
	FilePath() string

	isResult()
}

// ImageResult 이미지 텐서(1 x H x W x C)로 디코딩된 결과물입니다.
type ImageResult struct {
	Path  string
	Image *media.Image
}

func (r *ImageResult) Kind() media.Kind { return media.KindImage }
func (r *ImageResult) FilePath() string { return r.Path }
func (*ImageResult) isResult()          {}

// AudioResult 오디오 파형(1 x C x N)과 샘플레이트로 디코딩된 결과물입니다.
type AudioResult struct {
	Path  string
	Audio *media.Audio
}

func (r *AudioResult) Kind() media.Kind { return media.KindAudio }
func (r *AudioResult) FilePath() string { return r.Path }
func (*AudioResult) isResult()          {}

// VideoResult 디코딩하지 않고 파일 경로만 전달하는 결과물입니다.
type VideoResult struct {
	Path string
}

func (r *VideoResult) Kind() media.Kind { return media.KindVideo }
func (r *VideoResult) FilePath() string { return r.Path }
func (*VideoResult) isResult()          {}

var (
	_ Result = (*ImageResult)(nil)
	_ Result = (*AudioResult)(nil)
	_ Result = (*VideoResult)(nil)
)
