// images.go — POST /api/admin/images: сжатие изображения товара на сервере.
// Принимает multipart/form-data с полем file, возвращает data URL,
// пригодный для полей image и secondaryImage товара.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	apierrors "github.com/VinaySavla/royanix/internal/api/errors"
	"github.com/VinaySavla/royanix/internal/imageutil"
)

const (
	// multipartOverhead — запас на заголовки и прочие поля формы.
	multipartOverhead = 1 << 20
	// multipartMemory — объём формы, хранимый в памяти; остальное во временных файлах.
	multipartMemory = 8 << 20
)

// EncodeImage — POST /api/admin/images.
// Поля формы: file (обязательно), maxSizeKB и quality (необязательно).
func (h *APIHandler) EncodeImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imageutil.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.ValidationError(w, imageutil.ErrFileTooLarge.Error())
			return
		}
		apierrors.ValidationError(w, imageutil.ErrNoFile.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	opts, msg := imageOptions(r)
	if msg != "" {
		apierrors.ValidationError(w, msg)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, imageutil.ErrNoFile.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to read file")
		return
	}

	out, err := h.images.Process(imageutil.Upload{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}, opts)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to process image")
		return
	}

	writeJSON(w, http.StatusOK, encodedImageJSON{
		Image:    out.Payload,
		Encoding: string(out.Encoding),
		SizeKB:   out.SizeKB,
		Quality:  out.Quality,
		Width:    out.Width,
		Height:   out.Height,
	})
}

// imageOptions читает необязательные параметры сжатия.
// Пустые значения оставляют умолчания сервиса.
func imageOptions(r *http.Request) (imageutil.Options, string) {
	var opts imageutil.Options

	if v := r.FormValue("maxSizeKB"); v != "" {
		kb, err := strconv.ParseFloat(v, 64)
		if err != nil || kb <= 0 {
			return opts, "maxSizeKB must be a positive number"
		}
		opts.MaxSizeKB = kb
	}
	if v := r.FormValue("quality"); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil || q <= 0 || q > 1 {
			return opts, "quality must be a number in (0, 1]"
		}
		opts.InitialQuality = q
	}
	return opts, ""
}
