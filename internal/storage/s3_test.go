package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedPut struct {
	path         string
	contentType  string
	cacheControl string
	body         []byte
}

type fakeS3 struct {
	mu   sync.Mutex
	puts []recordedPut
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.puts = append(f.puts, recordedPut{
			path:         r.URL.Path,
			contentType:  r.Header.Get("Content-Type"),
			cacheControl: r.Header.Get("Cache-Control"),
			body:         body,
		})
		f.mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T) (*ObjectStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewObjectStore(context.Background(), Config{
		Endpoint:     srv.URL,
		Region:       "us-east-1",
		Bucket:       "user-uploads",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		PublicURL:    "https://cdn.example.com/storage/v1/object/public",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	return store, fake
}

func TestNewObjectStore_Validation(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewObjectStore(context.Background(), Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half credentials", func(t *testing.T) {
		_, err := NewObjectStore(context.Background(), Config{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
	})

	t.Run("public url defaults to endpoint", func(t *testing.T) {
		store, err := NewObjectStore(context.Background(), Config{
			Bucket: "b", Endpoint: "http://localhost:9000/", AccessKey: "k", SecretKey: "s",
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/b/avatars/x.jpg", store.PublicURL("avatars/x.jpg"))
	})
}

func TestPut_SetsKeyAndHeaders(t *testing.T) {
	store, fake := newTestStore(t)
	userID := uuid.MustParse("6f1c1c84-3f7e-4c55-9a61-2f1b8d1f0a11")
	key := AvatarKey(userID, time.UnixMilli(1700000000123))

	url, err := store.Put(context.Background(), key, []byte("jpeg-bytes"), PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: AvatarCacheControl,
	})
	require.NoError(t, err)

	assert.Equal(t, "avatars/6f1c1c84-3f7e-4c55-9a61-2f1b8d1f0a11-1700000000123.jpg", key)
	assert.Equal(t, "https://cdn.example.com/storage/v1/object/public/user-uploads/"+key, url)

	require.Len(t, fake.puts, 1)
	put := fake.puts[0]
	assert.Equal(t, "/user-uploads/"+key, put.path)
	assert.Equal(t, "image/jpeg", put.contentType)
	assert.Equal(t, "max-age=3600", put.cacheControl)
	assert.Equal(t, []byte("jpeg-bytes"), put.body)
}

func TestPut_OverwritesSameKey(t *testing.T) {
	store, fake := newTestStore(t)
	for i := 0; i < 2; i++ {
		_, err := store.Put(context.Background(), "avatars/a.jpg", []byte{byte(i)}, PutOptions{ContentType: "image/jpeg"})
		require.NoError(t, err)
	}
	assert.Len(t, fake.puts, 2)
}

func TestPut_EmptyKey(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Put(context.Background(), "", nil, PutOptions{})
	assert.Error(t, err)
}

func TestKeyFromURL(t *testing.T) {
	store, _ := newTestStore(t)
	key, ok := store.KeyFromURL(store.PublicURL("avatars/u-1.jpg"))
	assert.True(t, ok)
	assert.Equal(t, "avatars/u-1.jpg", key)

	_, ok = store.KeyFromURL("https://elsewhere.example.com/a.jpg")
	assert.False(t, ok)
}

func TestEnsureBucket_Exists(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.EnsureBucket(context.Background()))
}
