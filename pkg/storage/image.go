package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedImage 不支持的图片格式
var ErrUnsupportedImage = errors.New("不支持的图片格式（仅支持 jpg/png/gif/webp）")

// ImageOptions 图片压缩参数
type ImageOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   float32
}

// ToWebP 解码图片，按最大尺寸等比缩小后重新编码为 WebP
func ToWebP(data []byte, opt ImageOptions) ([]byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if (opt.MaxWidth > 0 && b.Dx() > opt.MaxWidth) || (opt.MaxHeight > 0 && b.Dy() > opt.MaxHeight) {
		maxW, maxH := opt.MaxWidth, opt.MaxHeight
		if maxW <= 0 {
			maxW = b.Dx()
		}
		if maxH <= 0 {
			maxH = b.Dy()
		}
		img = imaging.Fit(img, maxW, maxH, imaging.Lanczos)
	}

	q := opt.Quality
	if q <= 0 {
		q = 80
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("WebP 编码失败: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrUnsupportedImage
	}
	ct := http.DetectContentType(data)
	if strings.Contains(ct, "webp") {
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, ErrUnsupportedImage
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUnsupportedImage
	}
	return img, nil
}

// WebPFilename 将扩展名替换为 .webp
func WebPFilename(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		filename = filename[:i]
	}
	return filename + ".webp"
}
