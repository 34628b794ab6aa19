// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"kolboard/internal/storage"
)

// StoredObject is one object captured by StorageStub.
type StoredObject struct {
	Key  string
	Data []byte
	Opts storage.PutOptions
}

// StorageStub is an in-memory object store. It records every Put and Delete.
type StorageStub struct {
	mu      sync.Mutex
	BaseURL string
	Objects map[string]StoredObject
	Puts    []StoredObject
	Deletes []string
	PutErr  error
}

// NewStorageStub creates a stub serving objects under https://cdn.test/user-uploads.
func NewStorageStub() *StorageStub {
	return &StorageStub{
		BaseURL: "https://cdn.test/user-uploads",
		Objects: make(map[string]StoredObject),
	}
}

// Put stores data under key and returns its public URL.
func (s *StorageStub) Put(_ context.Context, key string, data []byte, opts storage.PutOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return "", s.PutErr
	}
	obj := StoredObject{Key: key, Data: append([]byte(nil), data...), Opts: opts}
	s.Objects[key] = obj
	s.Puts = append(s.Puts, obj)
	return fmt.Sprintf("%s/%s", s.BaseURL, key), nil
}

// Delete removes key.
func (s *StorageStub) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	s.Deletes = append(s.Deletes, key)
	return nil
}

// KeyFromURL reverses Put's URL.
func (s *StorageStub) KeyFromURL(u string) (string, bool) {
	prefix := s.BaseURL + "/"
	if !strings.HasPrefix(u, prefix) {
		return "", false
	}
	return strings.TrimPrefix(u, prefix), true
}

// PutCount returns how many objects were written.
func (s *StorageStub) PutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Puts)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
