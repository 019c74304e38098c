package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/metrics"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/pkg/validation"
)

// ObjectStore persists binary objects and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// VideoUpload is a base64 payload, optionally prefixed as a data URL.
type VideoUpload struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	Data        string `json:"data" validate:"required"`
}

// UploadService stores admin video uploads.
type UploadService struct {
	store    ObjectStore
	prefix   string
	maxBytes int64
}

// NewUploadService creates a new UploadService. A nil store makes every
// upload fail with SERVICE_UNAVAILABLE.
func NewUploadService(store ObjectStore, prefix string, maxBytes int64) *UploadService {
	return &UploadService{
		store:    store,
		prefix:   strings.Trim(prefix, "/"),
		maxBytes: maxBytes,
	}
}

// UploadVideo decodes the payload and stores it under <prefix>/<uuid>.<ext>.
func (s *UploadService) UploadVideo(ctx context.Context, req VideoUpload) (*domain.UploadResult, error) {
	if err := validation.Struct(&req); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, apperrors.New(apperrors.CodeServiceUnavailable,
			"object storage is not configured", http.StatusServiceUnavailable)
	}

	data, err := decodeBase64Payload(req.Data)
	if err != nil {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequest, "data is not valid base64")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, apperrors.New(apperrors.CodePayloadTooLarge,
			"upload exceeds the size limit", http.StatusRequestEntityTooLarge)
	}

	key := objectKey(s.prefix, req.Filename)
	url, err := s.store.Put(ctx, key, data, req.ContentType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUploadFailed, "failed to store upload",
			http.StatusInternalServerError)
	}

	metrics.UploadBytes.Add(float64(len(data)))
	logger.Ctx(ctx).Info("Video uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return &domain.UploadResult{URL: url, Key: key}, nil
}

// decodeBase64Payload strips a data URL header such as
// "data:video/mp4;base64," and decodes the rest.
func decodeBase64Payload(payload string) ([]byte, error) {
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.TrimSpace(payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

func objectKey(prefix, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	ext = strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, ext)
	if ext == "" {
		ext = "bin"
	}

	name := uuid.NewString() + "." + ext
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
