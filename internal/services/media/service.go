package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotAnImage   = errors.New("attachment must be an image")
	ErrFileTooLarge = errors.New("attachment exceeds the size limit")
)

const (
	signedURLTTL      = 24 * time.Hour
	maxAttachmentSize = 5 << 20
	uploadAttempts    = 3
	uploadBackoff     = 500 * time.Millisecond
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutAttachment(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Attachment struct {
	ObjectKey string
	URL       string
	Size      int64
	CreatedAt time.Time
}

type Service struct {
	storage ObjectStorage
	logger  *zap.Logger
	sleep   func(d time.Duration)
	now     func() time.Time
}

func NewService(storage ObjectStorage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		storage: storage,
		logger:  logger,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

// UploadAttachment stores a chat image and returns its signed URL. Only
// image content types up to 5 MiB are accepted. The put is retried up to
// three times with a fixed backoff since object storage hiccups are the
// common failure here.
func (s *Service) UploadAttachment(ctx context.Context, userID int64, fileName, contentType string, body io.ReadSeeker, size int64) (Attachment, error) {
	if userID <= 0 || body == nil || size <= 0 {
		return Attachment{}, ErrValidation
	}
	if s.storage == nil {
		return Attachment{}, fmt.Errorf("media storage is not configured")
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !allowedImageTypes[contentType] {
		return Attachment{}, ErrNotAnImage
	}
	if size > maxAttachmentSize {
		return Attachment{}, ErrFileTooLarge
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Attachment{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey, err := buildAttachmentKey(userID, fileName, s.now().UTC())
	if err != nil {
		return Attachment{}, fmt.Errorf("build object key: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= uploadAttempts; attempt++ {
		if attempt > 1 {
			if _, err := body.Seek(0, io.SeekStart); err != nil {
				return Attachment{}, fmt.Errorf("rewind attachment body: %w", err)
			}
			s.sleep(uploadBackoff)
		}

		lastErr = s.storage.PutAttachment(ctx, objectKey, body, size, contentType)
		if lastErr == nil {
			break
		}
		s.logger.Warn("attachment upload attempt failed",
			zap.Int64("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
	}
	if lastErr != nil {
		return Attachment{}, fmt.Errorf("put attachment after %d attempts: %w", uploadAttempts, lastErr)
	}

	url, err := s.storage.PresignGet(ctx, objectKey, signedURLTTL)
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return Attachment{}, fmt.Errorf("presign attachment url: %w", err)
	}

	return Attachment{
		ObjectKey: objectKey,
		URL:       url,
		Size:      size,
		CreatedAt: s.now().UTC(),
	}, nil
}

func buildAttachmentKey(userID int64, fileName string, now time.Time) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}

	stamp := now.Format("20060102T150405")
	return fmt.Sprintf("users/%d/attachments/%s_%s%s", userID, stamp, hex.EncodeToString(rnd), ext), nil
}

func MaxAttachmentSize() int64 {
	return maxAttachmentSize
}
