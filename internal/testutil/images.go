package testutil

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
)

// MemoryStorage is an in-memory storage.Storage for tests.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	// PutErr, when set, is returned by every Put.
	PutErr error
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *MemoryStorage) Name() string { return "memory" }

func (s *MemoryStorage) Put(_ context.Context, key string, body []byte, contentType string) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	if key == "" {
		return "", errors.New("empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	s.types[key] = contentType
	return s.URL(key), nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *MemoryStorage) URL(key string) string { return "/images/" + key }

// Object returns the stored body and content type of key.
func (s *MemoryStorage) Object(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	return body, s.types[key], ok
}

// Len reports how many objects are stored.
func (s *MemoryStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
