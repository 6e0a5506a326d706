// Пакет imageutil — подготовка изображений товаров к хранению в БД.
// Загруженный файл проверяется, уменьшается до 800x600 и кодируется в
// data URL (jpeg или png), размер которого не превышает заданного бюджета.
package imageutil

import (
	"errors"
	"fmt"
	"strings"
)

// Ограничения загрузки.
const (
	// MaxUploadBytes — максимальный размер исходного файла (10 MiB).
	MaxUploadBytes = 10 * 1024 * 1024
	// MaxWidth, MaxHeight — рамка, в которую вписывается изображение.
	MaxWidth  = 800
	MaxHeight = 600
	// DefaultMaxSizeKB — бюджет размера результата по умолчанию.
	DefaultMaxSizeKB = 250
	// DefaultQuality — начальное качество JPEG по умолчанию.
	DefaultQuality = 0.8
)

// Ошибки кодировщика. Тексты стабильны и показываются пользователю.
var (
	ErrNoFile            = errors.New("No file provided")
	ErrInvalidType       = errors.New("Invalid file type. Please use JPEG, PNG, or WebP images.")
	ErrFileTooLarge      = errors.New("Original file size too large. Please use an image smaller than 10MB.")
	ErrDecodeFailed      = errors.New("Failed to load image")
	ErrCompressionFailed = errors.New("Unable to compress image")
	ErrInvalidPayload    = errors.New("Image must be a valid base64 data URL within the size limit")
)

// CompressionError — бюджет размера недостижим даже при минимальном качестве.
// errors.Is(err, ErrCompressionFailed) == true.
type CompressionError struct {
	MaxSizeKB float64
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("Unable to compress image below %gKB", e.MaxSizeKB)
}

// Is позволяет сравнивать CompressionError с ErrCompressionFailed.
func (e *CompressionError) Is(target error) bool {
	return target == ErrCompressionFailed
}

// Encoding — формат результата.
type Encoding string

const (
	EncodingJPEG Encoding = "jpeg"
	EncodingPNG  Encoding = "png"
)

// allowedTypes — допустимые MIME-типы исходного файла.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Upload — исходный файл, полученный от клиента.
type Upload struct {
	// Data — содержимое файла.
	Data []byte
	// ContentType — MIME-тип, заявленный клиентом.
	ContentType string
	// Size — заявленный размер в байтах (0 — берётся len(Data)).
	Size int64
}

// size возвращает размер файла в байтах.
func (u Upload) size() int64 {
	if u.Size > 0 {
		return u.Size
	}
	return int64(len(u.Data))
}

// mimeType возвращает MIME-тип без параметров, в нижнем регистре.
func (u Upload) mimeType() string {
	mt, _, _ := strings.Cut(u.ContentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// Validate проверяет тип и размер файла до декодирования.
func Validate(u Upload) error {
	if len(u.Data) == 0 && u.Size == 0 {
		return ErrNoFile
	}
	if !allowedTypes[u.mimeType()] {
		return ErrInvalidType
	}
	if u.size() > MaxUploadBytes {
		return ErrFileTooLarge
	}
	return nil
}
