package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// wavFormatIEEEFloat WAVE 헤더의 오디오 포맷 코드(3 = IEEE 부동소수점)입니다.
const wavFormatIEEEFloat = 3

// maxAudioSamples 디코딩할 수 있는 전체 채널의 샘플 수 상한입니다. (float32 기준 512 MiB)
const maxAudioSamples = 1 << 27

// Audio 배치 크기 1의 오디오 파형(1 x C x N)입니다.
//
// Waveform[c]는 채널 c의 샘플이며 각 값은 [-1, 1] 범위입니다.
type Audio struct {
	SampleRate int
	Waveform   [][]float32
}

// Channels 채널 수를 반환합니다.
func (a *Audio) Channels() int {
	return len(a.Waveform)
}

// Samples 채널당 샘플 수를 반환합니다.
func (a *Audio) Samples() int {
	if len(a.Waveform) == 0 {
		return 0
	}
	return len(a.Waveform[0])
}

// Shape 텐서 형상 [1, C, N]을 반환합니다.
func (a *Audio) Shape() [3]int {
	return [3]int{1, a.Channels(), a.Samples()}
}

// DecodeAudio 확장자에 맞는 디코더로 오디오를 디코딩합니다.
//
// WAV, MP3, FLAC, Ogg Vorbis를 지원하며, AAC와 M4A는 디코더가 없으므로 Decode 에러를 반환합니다.
func DecodeAudio(ext string, r io.Reader) (_ *Audio, err error) {
	defer recoverDecodePanic("오디오", &err)

	switch strings.ToLower(ext) {
	case ".wav":
		return decodeWAV(r)
	case ".mp3":
		return decodeMP3(r)
	case ".flac":
		return decodeFLAC(r)
	case ".ogg":
		return decodeOGG(r)
	default:
		return nil, newErrUnsupportedCodec(ext)
	}
}

// deinterleave 인터리브된 샘플을 채널별 파형으로 분리합니다. 마지막 불완전 프레임은 버립니다.
func deinterleave(samples []float32, channels int) [][]float32 {
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[c][i] = samples[i*channels+c]
		}
	}
	return out
}

func decodeWAV(r io.Reader) (*Audio, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newErrDecodeFailed(err, "WAV")
	}

	if err := validateRIFFChunks(data); err != nil {
		return nil, newErrDecodeFailed(err, "WAV")
	}

	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, newErrDecodeFailed(errors.New("유효한 WAVE 파일이 아닙니다"), "WAV")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, newErrDecodeFailed(err, "WAV")
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, newErrDecodeFailed(errors.New("채널 정보가 없습니다"), "WAV")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, newErrDecodeFailed(errors.New("지원하지 않는 비트 깊이입니다"), "WAV")
	}
	if len(buf.Data) > maxAudioSamples {
		return nil, newErrTooManySamples("WAV", uint64(len(buf.Data)))
	}
	isFloat := d.WavAudioFormat == wavFormatIEEEFloat && bitDepth == 32

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		switch {
		case isFloat:
			samples[i] = math.Float32frombits(uint32(int32(v)))
		case bitDepth == 8:
			// 8비트 PCM은 부호 없는 값(중앙값 128)입니다.
			samples[i] = float32(v-128) / 128
		default:
			samples[i] = float32(float64(v) / float64(int64(1)<<(bitDepth-1)))
		}
	}

	return &Audio{
		SampleRate: buf.Format.SampleRate,
		Waveform:   deinterleave(samples, buf.Format.NumChannels),
	}, nil
}

// decodeMP3 go-mp3는 항상 16비트 리틀엔디언 스테레오 PCM을 출력합니다.
func decodeMP3(r io.Reader) (*Audio, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, newErrDecodeFailed(err, "MP3")
	}

	pcm, err := io.ReadAll(io.LimitReader(d, 2*maxAudioSamples+2))
	if err != nil {
		return nil, newErrDecodeFailed(err, "MP3")
	}
	if len(pcm) > 2*maxAudioSamples {
		return nil, newErrTooManySamples("MP3", uint64(len(pcm)/2))
	}

	const channels = 2
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		samples[i] = float32(v) / 32768
	}

	return &Audio{
		SampleRate: d.SampleRate(),
		Waveform:   deinterleave(samples, channels),
	}, nil
}

func decodeFLAC(r io.Reader) (*Audio, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, newErrDecodeFailed(err, "FLAC")
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels <= 0 {
		return nil, newErrDecodeFailed(errors.New("채널 정보가 없습니다"), "FLAC")
	}
	if total := stream.Info.NSamples * uint64(channels); total > maxAudioSamples {
		return nil, newErrTooManySamples("FLAC", total)
	}
	scale := float32(int64(1) << (stream.Info.BitsPerSample - 1))

	waveform := make([][]float32, channels)
	decoded := 0
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, newErrDecodeFailed(err, "FLAC")
		}

		for c := 0; c < channels && c < len(frame.Subframes); c++ {
			decoded += len(frame.Subframes[c].Samples)
			if decoded > maxAudioSamples {
				return nil, newErrTooManySamples("FLAC", uint64(decoded))
			}
			for _, s := range frame.Subframes[c].Samples {
				waveform[c] = append(waveform[c], float32(s)/scale)
			}
		}
	}

	return &Audio{
		SampleRate: int(stream.Info.SampleRate),
		Waveform:   waveform,
	}, nil
}

func decodeOGG(r io.Reader) (*Audio, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, newErrDecodeFailed(err, "Ogg Vorbis")
	}
	if format.Channels <= 0 {
		return nil, newErrDecodeFailed(errors.New("채널 정보가 없습니다"), "Ogg Vorbis")
	}

	return &Audio{
		SampleRate: format.SampleRate,
		Waveform:   deinterleave(samples, format.Channels),
	}, nil
}

// validateRIFFChunks RIFF 청크 크기가 실제 데이터 길이를 넘지 않는지 확인합니다.
//
// data 청크는 스트리밍으로 기록된 파일처럼 크기가 부풀려져 있을 수 있으므로 예외로 둡니다.
func validateRIFFChunks(data []byte) error {
	const headerSize = 12
	if len(data) < headerSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return errors.New("RIFF/WAVE 헤더가 없습니다")
	}

	hasFmt := false
	for pos := headerSize; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := uint64(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		remaining := uint64(len(data) - pos - 8)

		if id == "data" {
			if !hasFmt {
				return errors.New("fmt 청크보다 data 청크가 먼저 나왔습니다")
			}
			return nil
		}
		if size > remaining {
			return fmt.Errorf("'%s' 청크 크기(%d)가 남은 데이터(%d)보다 큽니다", id, size, remaining)
		}
		if id == "fmt " {
			hasFmt = true
		}

		pos += 8 + int(size) + int(size&1)
	}

	return errors.New("data 청크가 없습니다")
}
