package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"memoria/internal/config"
	"memoria/internal/models"
	"memoria/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageService_UploadStoresWebP(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemoryStorage()
	svc := NewImageService(store, nil)

	img, err := svc.Upload(context.Background(), UploadImageInput{
		Filename:    "photo.png",
		ContentType: "image/png",
		Content:     testutil.TinyPNG(t, 40, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, img.Width)
	assert.Equal(t, 30, img.Height)
	assert.True(t, strings.HasSuffix(img.Key, ".webp"))
	assert.Equal(t, img.Key[:2]+"/", img.Key[:3])
	assert.Equal(t, "/images/"+img.Key, img.URL)

	body, contentType, ok := store.Object(img.Key)
	require.True(t, ok)
	assert.Equal(t, "image/webp", contentType)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 40, cfg.Width)
}

func TestImageService_UploadIsContentAddressed(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemoryStorage()
	svc := NewImageService(store, nil)
	content := testutil.TinyPNG(t, 8, 8)

	first, err := svc.Upload(context.Background(), UploadImageInput{Content: content})
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), UploadImageInput{Content: content})
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, 1, store.Len())
}

func TestImageService_UploadDownsizesLargeImages(t *testing.T) {
	t.Parallel()

	svc := NewImageService(testutil.NewMemoryStorage(), nil)
	img, err := svc.Upload(context.Background(), UploadImageInput{Content: testutil.TinyPNG(t, 4096, 1024)})
	require.NoError(t, err)
	assert.Equal(t, MasterMaxSize, img.Width)
	assert.Equal(t, 512, img.Height)
}

func TestImageService_UploadRejections(t *testing.T) {
	t.Parallel()

	svc := NewImageService(testutil.NewMemoryStorage(), &config.Config{ImageMaxUploadSizeMB: 1})
	png := testutil.TinyPNG(t, 4, 4)

	tests := []struct {
		name  string
		input UploadImageInput
	}{
		{"empty", UploadImageInput{}},
		{"too large", UploadImageInput{Content: make([]byte, 1024*1024+1)}},
		{"not an image", UploadImageInput{Content: []byte("hello, world")}},
		{"truncated png", UploadImageInput{Content: png[:20]}},
		{"content type mismatch", UploadImageInput{Content: png, ContentType: "image/jpeg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.input)
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestImageService_StorageFailureIsInternal(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemoryStorage()
	store.PutErr = errors.New("bucket unavailable")
	svc := NewImageService(store, nil)

	_, err := svc.Upload(context.Background(), UploadImageInput{Content: testutil.TinyPNG(t, 4, 4)})
	assertAppError(t, err, models.CodeInternal)
}
