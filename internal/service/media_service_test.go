package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// pngBytes is a minimal PNG header, enough for magic-number detection.
var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

type memStorage struct {
	files map[string][]byte
	types map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte), types: make(map[string]string)}
}

func (s *memStorage) Save(ctx context.Context, filename string, data []byte, contentType string) error {
	s.files[filename] = data
	s.types[filename] = contentType
	return nil
}

func TestDownloadImagesFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer srv.Close()

	storage := newMemStorage()
	m := NewMediaService(storage)

	saved := m.DownloadImages(context.Background(), []string{srv.URL + "/pic.png"}, "Telegram")
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved file, got %d", len(saved))
	}

	name := saved[0]
	if !strings.HasPrefix(name, "telegram-") {
		t.Errorf("filename must be namespaced by network, got %q", name)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("filename must keep the url extension, got %q", name)
	}
	if string(storage.files[name]) != string(pngBytes) {
		t.Error("stored bytes differ from the served image")
	}
	if storage.types[name] != "image/png" {
		t.Errorf("expected content type forwarded, got %q", storage.types[name])
	}
}

func TestDownloadImagesFromDataURI(t *testing.T) {
	storage := newMemStorage()
	m := NewMediaService(storage)

	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	saved := m.DownloadImages(context.Background(), []string{ref}, "VK")
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved file, got %d", len(saved))
	}
	if !strings.HasSuffix(saved[0], ".png") {
		t.Errorf("extension must be sniffed from the bytes, got %q", saved[0])
	}
	if storage.types[saved[0]] != "image/png" {
		t.Errorf("expected content type from the data uri, got %q", storage.types[saved[0]])
	}
}

func TestDownloadImagesFromBareBase64(t *testing.T) {
	storage := newMemStorage()
	m := NewMediaService(storage)

	saved := m.DownloadImages(context.Background(), []string{base64.StdEncoding.EncodeToString(pngBytes)}, "VK")
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved file, got %d", len(saved))
	}
	if string(storage.files[saved[0]]) != string(pngBytes) {
		t.Error("decoded bytes differ from the original")
	}
}

func TestDownloadImagesSkipsBrokenReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	storage := newMemStorage()
	m := NewMediaService(storage)

	saved := m.DownloadImages(context.Background(), []string{
		srv.URL + "/missing.png",
		"::::not a reference::::",
		"data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes),
	}, "Telegram")

	// The one good reference survives; the broken ones are skipped.
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved file, got %d", len(saved))
	}
}

func TestDownloadImagesUniqueNames(t *testing.T) {
	storage := newMemStorage()
	m := NewMediaService(storage)

	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	saved := m.DownloadImages(context.Background(), []string{ref, ref, ref}, "Telegram")
	if len(saved) != 3 {
		t.Fatalf("expected 3 saved files, got %d", len(saved))
	}

	seen := make(map[string]bool)
	for _, name := range saved {
		if seen[name] {
			t.Fatalf("duplicate filename %q", name)
		}
		seen[name] = true
	}
}

func TestSaveUploadAcceptsKnownTypes(t *testing.T) {
	storage := newMemStorage()
	m := NewMediaService(storage)

	name, fileType, err := m.SaveUpload(context.Background(), "photo.png", pngBytes)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if fileType != "image/png" {
		t.Errorf("expected image/png, got %q", fileType)
	}
	if !strings.HasSuffix(name, "photo.png") {
		t.Errorf("stored name must keep the original, got %q", name)
	}
	if _, ok := storage.files[name]; !ok {
		t.Error("upload was not stored")
	}
}

func TestSaveUploadRejectsUnknownTypes(t *testing.T) {
	m := NewMediaService(newMemStorage())

	if _, _, err := m.SaveUpload(context.Background(), "notes.txt", []byte("plain text")); err == nil {
		t.Fatal("expected unknown file type rejected")
	}
}

func TestSaveUploadSanitizesName(t *testing.T) {
	storage := newMemStorage()
	m := NewMediaService(storage)

	name, _, err := m.SaveUpload(context.Background(), "my photo/v1.png", pngBytes)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if strings.ContainsAny(name, "/ ") {
		t.Errorf("stored name must not contain separators or spaces, got %q", name)
	}
}
