package media

import (
	"bufio"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"

	// 디코더 등록
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image 배치 크기 1의 이미지 텐서(1 x H x W x C)입니다.
//
// Pixels는 행 우선(row-major) HWC 순서이며 각 값은 [0, 1] 범위입니다.
// Channels는 원본이 RGBA이면 4, 그 외(그레이스케일+알파, 팔레트 포함)는 3(RGB)입니다.
type Image struct {
	Height   int
	Width    int
	Channels int
	Pixels   []float32
}

// Shape 텐서 형상 [1, H, W, C]를 반환합니다.
func (img *Image) Shape() [4]int {
	return [4]int{1, img.Height, img.Width, img.Channels}
}

// At (y, x) 위치의 c 채널 값을 반환합니다.
func (img *Image) At(y, x, c int) float32 {
	return img.Pixels[(y*img.Width+x)*img.Channels+c]
}

// DecodeImage PNG, JPEG, WebP, BMP, TIFF 이미지를 텐서로 디코딩합니다.
func DecodeImage(r io.Reader) (_ *Image, err error) {
	defer recoverDecodePanic("이미지", &err)

	br := bufio.NewReader(r)
	pngAlpha, isPNG := pngHasAlpha(br)

	src, _, err := image.Decode(br)
	if err != nil {
		return nil, newErrDecodeFailed(err, "이미지")
	}

	b := src.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	channels := 3
	if (isPNG && pngAlpha) || (!isPNG && hasAlphaChannel(src)) {
		channels = 4
	}

	img := &Image{
		Height:   b.Dy(),
		Width:    b.Dx(),
		Channels: channels,
		Pixels:   make([]float32, b.Dx()*b.Dy()*channels),
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// 알파를 제거할 때 합성하지 않고 색상 값을 그대로 사용하도록 비선형(non-premultiplied) 값으로 변환합니다.
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			img.Pixels[i] = float32(c.R) / 255
			img.Pixels[i+1] = float32(c.G) / 255
			img.Pixels[i+2] = float32(c.B) / 255
			if channels == 4 {
				img.Pixels[i+3] = float32(c.A) / 255
			}
			i += channels
		}
	}

	return img, nil
}

// pngColorTypeRGBA PNG IHDR의 컬러 타입 6(트루컬러 + 알파)입니다.
const pngColorTypeRGBA = 6

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// pngHasAlpha PNG이면 IHDR 컬러 타입이 RGBA인지 확인합니다. 스트림을 소비하지 않습니다.
//
// 그레이스케일+알파 PNG도 *image.NRGBA로 디코딩되므로 디코딩 결과 타입만으로는 구분할 수 없습니다.
func pngHasAlpha(br *bufio.Reader) (alpha, isPNG bool) {
	// 시그니처(8) + 청크 길이(4) + "IHDR"(4) + 너비(4) + 높이(4) + 비트 깊이(1) + 컬러 타입(1)
	hdr, err := br.Peek(26)
	if err != nil || !bytes.Equal(hdr[:8], pngSignature) || string(hdr[12:16]) != "IHDR" {
		return false, false
	}
	return hdr[25] == pngColorTypeRGBA, true
}

// hasAlphaChannel PNG가 아닌 원본 이미지가 알파 채널을 가지고 있는지 판단합니다.
//
// 곱셈 알파(premultiplied) 타입은 실제로 투명한 픽셀이 있을 때만 알파 채널로 취급합니다.
func hasAlphaChannel(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return true
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	default:
		return false
	}
}

// EncodePNG 이미지 텐서를 PNG로 인코딩합니다. 값은 [0, 1]로 잘라낸 뒤 255를 곱해 버림합니다.
//
// Channels가 1이면 그레이스케일, 3이면 RGB, 4이면 RGBA로 저장합니다.
func EncodePNG(w io.Writer, img *Image) error {
	if img == nil || img.Height <= 0 || img.Width <= 0 || len(img.Pixels) != img.Height*img.Width*img.Channels {
		h, wd, c, n := 0, 0, 0, 0
		if img != nil {
			h, wd, c, n = img.Height, img.Width, img.Channels, len(img.Pixels)
		}
		return newErrInvalidImageShape(h, wd, c, n)
	}

	rect := image.Rect(0, 0, img.Width, img.Height)

	var out image.Image
	switch img.Channels {
	case 1:
		gray := image.NewGray(rect)
		for i, v := range img.Pixels {
			gray.Pix[i] = toByte(v)
		}
		out = gray

	case 3, 4:
		nrgba := image.NewNRGBA(rect)
		for p := 0; p < img.Width*img.Height; p++ {
			src := img.Pixels[p*img.Channels:]
			dst := nrgba.Pix[p*4:]
			dst[0], dst[1], dst[2] = toByte(src[0]), toByte(src[1]), toByte(src[2])
			dst[3] = 255
			if img.Channels == 4 {
				dst[3] = toByte(src[3])
			}
		}
		out = nrgba

	default:
		return newErrInvalidImageShape(img.Height, img.Width, img.Channels, len(img.Pixels))
	}

	return png.Encode(w, out)
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v * 255)
	}
}
