package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"strings"

	"memoria/internal/config"
	"memoria/internal/models"
	"memoria/internal/observability"
	"memoria/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultImageMaxUploadSizeMB = 10
	// MasterMaxSize caps the long edge of a stored memory photo.
	MasterMaxSize = 2048
	WebPQuality   = 80
	// maxSourcePixels rejects images whose header promises more pixels than
	// a phone camera produces, before any pixel data is decoded.
	maxSourcePixels = 50_000_000
	storedImageType = "image/webp"
)

// acceptedFormats maps image.Decode format names to the MIME type a client
// may declare for them.
var acceptedFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

type UploadImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadedImage describes the stored, re-encoded image.
type UploadedImage struct {
	URL    string `json:"imageUrl"`
	Key    string `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageService turns an uploaded photo into a WebP master no larger than
// MasterMaxSize on its long edge and stores it under a content-derived key.
type ImageService struct {
	store    storage.Storage
	maxBytes int64
}

func NewImageService(store storage.Storage, cfg *config.Config) *ImageService {
	mb := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		mb = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{store: store, maxBytes: int64(mb) << 20}
}

func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*UploadedImage, error) {
	img, err := s.upload(ctx, in)
	observability.ImageUploadsTotal.WithLabelValues(s.store.Name(), uploadOutcome(err)).Inc()
	return img, err
}

func uploadOutcome(err error) string {
	var appErr *models.AppError
	switch {
	case err == nil:
		return "stored"
	case errors.As(err, &appErr) && appErr.Code != models.CodeInternal:
		return "rejected"
	default:
		return "error"
	}
}

func (s *ImageService) upload(ctx context.Context, in UploadImageInput) (*UploadedImage, error) {
	switch {
	case len(in.Content) == 0:
		return nil, models.NewValidationError("No file uploaded")
	case int64(len(in.Content)) > s.maxBytes:
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes>>20))
	}
	if _, ok := formatForMIME(http.DetectContentType(in.Content)); !ok {
		return nil, models.NewValidationError("Invalid image type")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	mimeType, ok := acceptedFormats[format]
	if !ok {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxSourcePixels {
		return nil, models.NewValidationError("Image dimensions too large")
	}
	if declared := mediaType(in.ContentType); strings.HasPrefix(declared, "image/") {
		if f, _ := formatForMIME(declared); acceptedFormats[f] != mimeType {
			return nil, models.NewValidationError("Image content type mismatch")
		}
	}

	src, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	master := fitWithin(src, MasterMaxSize)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, master, &webp.Options{Quality: WebPQuality}); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("encode webp: %w", err))
	}
	encoded := buf.Bytes()

	key := contentKey(encoded)
	url, err := s.store.Put(ctx, key, encoded, storedImageType)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("store %s: %w", key, err))
	}

	size := master.Bounds().Size()
	return &UploadedImage{URL: url, Key: key, Width: size.X, Height: size.Y}, nil
}

// contentKey is "ab/abcdef....webp" where the prefix is the first hash byte,
// so identical uploads share one object.
func contentKey(content []byte) string {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	return hash[:2] + "/" + hash + ".webp"
}

// fitWithin scales src down so neither edge exceeds limit, keeping the
// aspect ratio. Smaller images are returned untouched.
func fitWithin(src image.Image, limit int) image.Image {
	b := src.Bounds()
	long := max(b.Dx(), b.Dy())
	if long <= limit || b.Empty() {
		return src
	}
	w := max(1, b.Dx()*limit/long)
	h := max(1, b.Dy()*limit/long)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// formatForMIME returns the decoder format name for an image MIME type.
// "image/jpg" is accepted as a common misspelling of image/jpeg.
func formatForMIME(contentType string) (string, bool) {
	mt := mediaType(contentType)
	if mt == "image/jpg" {
		mt = "image/jpeg"
	}
	for format, m := range acceptedFormats {
		if m == mt {
			return format, true
		}
	}
	return "", false
}
