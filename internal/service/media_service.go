package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	config "contentfactory/configs"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	maxImageSize = 25 * 1024 * 1024
	nanoidAlpha  = "abcdefghijklmnopqrstuvwxyz0123456789"
	nanoidLength = 8
)

var allowedUploadTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "mp4": {}, "mov": {},
}

var (
	dataURIRe   = regexp.MustCompile(`^data:(image/\w+);base64,(.+)$`)
	bareBase64  = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)
	unsafeChars = strings.NewReplacer("/", "-", "\\", "-", " ", "_")
)

// MediaStorage persists one media file under a name.
type MediaStorage interface {
	Save(ctx context.Context, filename string, data []byte, contentType string) error
}

type localStorage struct {
	dir string
}

func NewLocalStorage(dir string) MediaStorage {
	return &localStorage{dir: dir}
}

func (s *localStorage) Save(ctx context.Context, filename string, data []byte, contentType string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}

// NewMediaStorage picks R2 when a bucket is configured and the local upload
// directory otherwise.
func NewMediaStorage(cfg config.Config) MediaStorage {
	if cfg.R2.BucketName != "" {
		return NewR2Storage(cfg)
	}
	return NewLocalStorage(cfg.UploadDir)
}

// MediaService materializes webhook image references and dashboard uploads
// into the media store.
type MediaService interface {
	DownloadImages(ctx context.Context, refs []string, networkName string) []string
	SaveUpload(ctx context.Context, originalName string, data []byte) (string, string, error)
}

type mediaService struct {
	storage MediaStorage
	client  *http.Client
}

func NewMediaService(storage MediaStorage) MediaService {
	return &mediaService{
		storage: storage,
		client:  &http.Client{Timeout: webhookTimeout},
	}
}

// DownloadImages saves every reference it can and skips the rest; a broken
// image never fails the generation that produced it. References are either
// http(s) URLs or base64 data (with or without a data-URI prefix).
func (s *mediaService) DownloadImages(ctx context.Context, refs []string, networkName string) []string {
	var saved []string
	for _, ref := range refs {
		switch {
		case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
			filename, err := s.downloadFromHTTP(ctx, ref, networkName)
			if err != nil {
				slog.Error("downloading image", "url", ref, "error", err)
				continue
			}
			saved = append(saved, filename)
		case strings.HasPrefix(ref, "data:image/"), bareBase64.MatchString(ref):
			filename, err := s.saveBase64(ctx, ref, networkName)
			if err != nil {
				slog.Error("saving base64 image", "error", err)
				continue
			}
			saved = append(saved, filename)
		default:
			slog.Warn("unsupported image reference format", "network", networkName)
		}
	}
	return saved
}

func (s *mediaService) downloadFromHTTP(ctx context.Context, url, networkName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	ext := path.Ext(strings.SplitN(url, "?", 2)[0])
	if ext == "" {
		ext = sniffExtension(data)
	}

	filename, err := mediaFilename(networkName, ext)
	if err != nil {
		return "", err
	}
	if err := s.storage.Save(ctx, filename, data, resp.Header.Get("Content-Type")); err != nil {
		return "", err
	}
	return filename, nil
}

func (s *mediaService) saveBase64(ctx context.Context, ref, networkName string) (string, error) {
	encoded := ref
	contentType := ""

	if matches := dataURIRe.FindStringSubmatch(ref); matches != nil {
		contentType = matches[1]
		encoded = matches[2]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode base64 image: %w", err)
	}

	ext := sniffExtension(data)
	if contentType == "" {
		contentType = "image/jpeg"
	}

	filename, err := mediaFilename(networkName, ext)
	if err != nil {
		return "", err
	}
	if err := s.storage.Save(ctx, filename, data, contentType); err != nil {
		return "", err
	}
	return filename, nil
}

func sniffExtension(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return ".jpg"
	}
	return "." + kind.Extension
}

// mediaFilename namespaces a stored file by network, timestamp and a random
// disambiguator so concurrent generations never collide.
func mediaFilename(networkName, ext string) (string, error) {
	id, err := gonanoid.Generate(nanoidAlpha, nanoidLength)
	if err != nil {
		return "", fmt.Errorf("generate media id: %w", err)
	}
	name := unsafeChars.Replace(strings.ToLower(networkName))
	return fmt.Sprintf("%s-%d-%s%s", name, time.Now().UnixMilli(), id, ext), nil
}

// SaveUpload validates and stores a dashboard upload, returning the stored
// name and detected content type.
func (s *mediaService) SaveUpload(ctx context.Context, originalName string, data []byte) (string, string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", "", fmt.Errorf("unsupported file type")
	}
	if _, ok := allowedUploadTypes[kind.Extension]; !ok {
		return "", "", fmt.Errorf("file type %s is not allowed", kind.Extension)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), unsafeChars.Replace(originalName))
	if err := s.storage.Save(ctx, name, data, kind.MIME.Value); err != nil {
		return "", "", err
	}
	return name, kind.MIME.Value, nil
}
