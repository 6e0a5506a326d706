package imageutil

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg" // декодеры для image.DecodeConfig
	_ "image/png"
	"strings"
)

const dataURLPrefix = "data:"

// payloadTypes — media type data URL и формат, который должен вернуть
// image.DecodeConfig для его байт.
var payloadTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
}

// EncodePayload упаковывает байты изображения в data URL.
func EncodePayload(enc Encoding, data []byte) string {
	return dataURLPrefix + "image/" + string(enc) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// splitPayload разбирает data URL вида data:<type>;base64,<data>.
func splitPayload(payload string) (mediaType, data string, ok bool) {
	rest, found := strings.CutPrefix(payload, dataURLPrefix)
	if !found {
		return "", "", false
	}
	header, data, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, params, _ := strings.Cut(header, ";")
	if params != "base64" {
		return "", "", false
	}
	return strings.ToLower(mediaType), data, true
}

// SizeKB возвращает размер декодированных байт payload в килобайтах.
// Длина считается по base64 без декодирования: 3/4 длины минус паддинг.
func SizeKB(payload string) float64 {
	_, data, ok := splitPayload(payload)
	if !ok {
		return 0
	}
	n := len(data) * 3 / 4
	switch {
	case strings.HasSuffix(data, "=="):
		n -= 2
	case strings.HasSuffix(data, "="):
		n--
	}
	if n < 0 {
		n = 0
	}
	return float64(n) / 1024
}

// DecodePayload возвращает байты изображения из data URL.
// Допустимы только image/jpeg, image/png и image/webp.
func DecodePayload(payload string) ([]byte, error) {
	mediaType, data, ok := splitPayload(payload)
	if !ok {
		return nil, ErrInvalidPayload
	}
	if _, known := payloadTypes[mediaType]; !known {
		return nil, ErrInvalidPayload
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, ErrInvalidPayload
	}
	return raw, nil
}

// ValidatePayload проверяет изображение товара перед сохранением:
// data URL допустимого типа, байты которого действительно являются
// изображением этого формата, в пределах maxSizeKB.
// Пустая строка допустима (изображения нет).
func ValidatePayload(payload string, maxSizeKB float64) error {
	if payload == "" {
		return nil
	}
	raw, err := DecodePayload(payload)
	if err != nil {
		return err
	}
	if float64(len(raw))/1024 > maxSizeKB {
		return ErrInvalidPayload
	}
	mediaType, _, _ := splitPayload(payload)
	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil || format != payloadTypes[mediaType] {
		return ErrInvalidPayload
	}
	return nil
}
