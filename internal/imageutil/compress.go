package imageutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // декодер WebP для image.Decode
)

// Шаги лестницы качества JPEG в процентах.
const (
	qualityStep = 10
	minQuality  = 10
)

// Options — параметры сжатия. Нулевые значения заменяются умолчаниями.
type Options struct {
	// MaxSizeKB — бюджет размера результата в килобайтах.
	MaxSizeKB float64
	// InitialQuality — начальное качество JPEG в диапазоне (0, 1].
	InitialQuality float64
}

// withDefaults подставляет значения по умолчанию.
func (o Options) withDefaults() Options {
	if o.MaxSizeKB <= 0 {
		o.MaxSizeKB = DefaultMaxSizeKB
	}
	if o.InitialQuality <= 0 || o.InitialQuality > 1 {
		o.InitialQuality = DefaultQuality
	}
	return o
}

// EncodedImage — результат сжатия.
type EncodedImage struct {
	Encoding Encoding
	// Payload — data URL вида data:image/jpeg;base64,...
	Payload string
	// SizeKB — размер декодированных байт в килобайтах.
	SizeKB float64
	// Quality — итоговое качество JPEG (0 для png).
	Quality float64
	Width   int
	Height  int
}

// Compress уменьшает изображение до 800x600 и подбирает кодирование,
// укладывающееся в opts.MaxSizeKB.
//
// PNG сначала кодируется без потерь с сохранением прозрачности. Остальные
// форматы и PNG, не уложившийся в бюджет, кодируются в JPEG поверх белого
// фона; качество снижается на 0.1, пока размер больше бюджета и качество
// выше 0.1.
func Compress(u Upload, opts Options) (*EncodedImage, error) {
	if err := Validate(u); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	src, err := imaging.Decode(bytes.NewReader(u.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	resized := resize(src)
	quality := qualityPercent(opts.InitialQuality)

	var (
		flat *image.NRGBA
		out  *EncodedImage
	)
	if u.mimeType() == "image/png" {
		out, err = encodePNG(resized)
	} else {
		flat = flatten(resized)
		out, err = encodeJPEG(flat, quality)
	}
	if err != nil {
		return nil, err
	}

	for out.SizeKB > opts.MaxSizeKB && quality > minQuality {
		quality -= qualityStep
		if flat == nil {
			flat = flatten(resized)
		}
		out, err = encodeJPEG(flat, quality)
		if err != nil {
			return nil, err
		}
	}

	if out.SizeKB > opts.MaxSizeKB {
		return nil, &CompressionError{MaxSizeKB: opts.MaxSizeKB}
	}
	return out, nil
}

// fitWithin вычисляет размеры, вписанные в рамку maxW x maxH с сохранением
// пропорций. Изображение только уменьшается.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return min(nw, maxW), min(nh, maxH)
}

// resize вписывает изображение в 800x600, сохраняя альфа-канал.
func resize(src image.Image) *image.NRGBA {
	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), MaxWidth, MaxHeight)
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(src)
	}
	return imaging.Resize(src, w, h, imaging.Lanczos)
}

// flatten накладывает изображение на непрозрачный белый холст.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := imaging.New(b.Dx(), b.Dy(), color.White)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// qualityPercent переводит качество из (0, 1] в проценты 1..100.
func qualityPercent(q float64) int {
	return min(100, max(1, int(math.Round(q*100))))
}

func encodeJPEG(img *image.NRGBA, quality int) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("ошибка кодирования JPEG: %w", err)
	}
	return newEncoded(EncodingJPEG, buf.Bytes(), float64(quality)/100, img.Bounds()), nil
}

func encodePNG(img *image.NRGBA) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("ошибка кодирования PNG: %w", err)
	}
	return newEncoded(EncodingPNG, buf.Bytes(), 0, img.Bounds()), nil
}

func newEncoded(enc Encoding, data []byte, quality float64, bounds image.Rectangle) *EncodedImage {
	payload := EncodePayload(enc, data)
	return &EncodedImage{
		Encoding: enc,
		Payload:  payload,
		SizeKB:   SizeKB(payload),
		Quality:  quality,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}
}
