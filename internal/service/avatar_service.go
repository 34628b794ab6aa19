package service

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"time"

	"kolboard/internal/config"
	"kolboard/internal/models"
	"kolboard/internal/observability"
	"kolboard/internal/repository"
	"kolboard/internal/storage"
	"kolboard/internal/validation"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultAvatarMaxBytes   = 2 * 1024 * 1024
	DefaultAvatarOutputSize = 512
	DefaultAvatarQuality    = 95
	DefaultAvatarMaxPixels  = 4096 * 4096
)

// ObjectStorage is the subset of the object store used for avatars.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(u string) (string, bool)
}

type UploadAvatarInput struct {
	UserID      uuid.UUID
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

type AvatarService struct {
	store      ObjectStorage
	userRepo   repository.UserRepository
	maxBytes   int64
	outputSize int
	quality    int
	maxPixels  int
	now        func() time.Time
}

func NewAvatarService(store ObjectStorage, userRepo repository.UserRepository, cfg *config.Config) *AvatarService {
	s := &AvatarService{
		store:      store,
		userRepo:   userRepo,
		maxBytes:   DefaultAvatarMaxBytes,
		outputSize: DefaultAvatarOutputSize,
		quality:    DefaultAvatarQuality,
		maxPixels:  DefaultAvatarMaxPixels,
		now:        time.Now,
	}
	if cfg != nil {
		if cfg.AvatarMaxBytes > 0 {
			s.maxBytes = cfg.AvatarMaxBytes
		}
		if cfg.AvatarOutputSize > 0 {
			s.outputSize = cfg.AvatarOutputSize
		}
		if cfg.AvatarJPEGQuality > 0 {
			s.quality = cfg.AvatarJPEGQuality
		}
		if cfg.AvatarMaxPixels > 0 {
			s.maxPixels = cfg.AvatarMaxPixels
		}
	}
	return s
}

// Upload crops the image to a centered square, scales it to the output size,
// stores it as JPEG and points the user's avatar_url at it. Nothing reaches
// storage unless the file passes validation and decodes.
func (s *AvatarService) Upload(ctx context.Context, in UploadAvatarInput) (*models.User, error) {
	if in.UserID == uuid.Nil {
		return nil, models.NewValidationError("Invalid user")
	}
	size := in.Size
	if size == 0 {
		size = int64(len(in.Content))
	}
	if err := validation.ValidateAvatar(size, in.ContentType, s.maxBytes); err != nil {
		observability.AvatarUploads.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if int64(len(in.Content)) >= s.maxBytes {
		observability.AvatarUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("avatar file is too large")
	}

	// Header dimensions are checked before the full decode allocates pixels.
	header, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		observability.AvatarUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("Invalid image file")
	}
	if header.Width <= 0 || header.Height <= 0 || int64(header.Width)*int64(header.Height) > int64(s.maxPixels) {
		observability.AvatarUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("avatar dimensions are too large")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		observability.AvatarUploads.WithLabelValues("rejected").Inc()
		return nil, models.NewValidationError("Invalid image file")
	}

	square := cropCenterSquare(decoded)
	scaled := resizeSquare(square, s.outputSize)
	encoded, err := encodeJPEG(scaled, s.quality)
	if err != nil {
		observability.AvatarUploads.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}

	previous, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	key := storage.AvatarKey(in.UserID, s.now())
	url, err := s.store.Put(ctx, key, encoded, storage.PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: storage.AvatarCacheControl,
	})
	if err != nil {
		observability.AvatarUploads.WithLabelValues("error").Inc()
		return nil, models.NewInternalError(err)
	}

	if err := s.userRepo.UpdateFields(ctx, in.UserID, map[string]any{"avatar_url": url}); err != nil {
		_ = s.store.Delete(ctx, key)
		observability.AvatarUploads.WithLabelValues("error").Inc()
		return nil, err
	}
	observability.AvatarUploads.WithLabelValues("stored").Inc()

	if oldKey, ok := s.store.KeyFromURL(previous.AvatarURL); ok && oldKey != key {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			observability.Logger.WarnContext(ctx, "failed to delete previous avatar",
				slog.String("key", oldKey),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.userRepo.GetByID(ctx, in.UserID)
}

func cropCenterSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	return cropToRect(src, x, y, side, side)
}

func cropToRect(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeSquare(src image.Image, side int) image.Image {
	b := src.Bounds()
	if b.Dx() == side && b.Dy() == side {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
