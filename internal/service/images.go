// images.go — обработка загруженных изображений товаров.
package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/VinaySavla/royanix/internal/imageutil"
)

// Prometheus-метрики кодировщика изображений.
var (
	imageEncodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rx_image_encodes_total",
		Help: "Количество успешно закодированных изображений по формату результата.",
	}, []string{"encoding"})
	imageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rx_image_failures_total",
		Help: "Количество отклонённых изображений по причине.",
	}, []string{"reason"})
	imageOutputKB = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rx_image_output_kb",
		Help:    "Размер закодированного изображения в килобайтах.",
		Buckets: []float64{10, 25, 50, 100, 150, 200, 250, 500},
	})
	imageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rx_image_encode_duration_seconds",
		Help:    "Длительность сжатия изображения в секундах.",
		Buckets: prometheus.DefBuckets,
	})
)

// ImageService — проверка и сжатие изображений с записью метрик.
type ImageService struct {
	defaults imageutil.Options
	logger   *slog.Logger
}

// NewImageService создаёт сервис изображений.
// defaults — параметры сжатия, если запрос их не задаёт.
func NewImageService(defaults imageutil.Options, logger *slog.Logger) *ImageService {
	return &ImageService{
		defaults: defaults,
		logger:   logger.With(slog.String("component", "image_service")),
	}
}

// Process проверяет и сжимает изображение. Нулевые поля opts заменяются
// значениями сервиса.
func (s *ImageService) Process(u imageutil.Upload, opts imageutil.Options) (*imageutil.EncodedImage, error) {
	if opts.MaxSizeKB <= 0 {
		opts.MaxSizeKB = s.defaults.MaxSizeKB
	}
	if opts.InitialQuality <= 0 {
		opts.InitialQuality = s.defaults.InitialQuality
	}

	start := time.Now()
	out, err := imageutil.Compress(u, opts)
	imageDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		reason := failureReason(err)
		imageFailuresTotal.WithLabelValues(reason).Inc()
		s.logger.Info("Изображение отклонено",
			slog.String("reason", reason),
			slog.String("content_type", u.ContentType),
			slog.Int64("size", int64(len(u.Data))),
		)
		return nil, err
	}

	imageEncodesTotal.WithLabelValues(string(out.Encoding)).Inc()
	imageOutputKB.Observe(out.SizeKB)
	s.logger.Debug("Изображение закодировано",
		slog.String("encoding", string(out.Encoding)),
		slog.Float64("size_kb", out.SizeKB),
		slog.Float64("quality", out.Quality),
		slog.Int("width", out.Width),
		slog.Int("height", out.Height),
	)
	return out, nil
}

// failureReason — значение метки reason для ошибки кодировщика.
func failureReason(err error) string {
	switch {
	case errors.Is(err, imageutil.ErrNoFile):
		return "no_file"
	case errors.Is(err, imageutil.ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, imageutil.ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, imageutil.ErrDecodeFailed):
		return "decode_failed"
	case errors.Is(err, imageutil.ErrCompressionFailed):
		return "compression_failed"
	default:
		return "internal"
	}
}
