package media

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dom/watchnest/internal/config"
	"github.com/google/uuid"
)

// Uploader moves a local temp file to the media host and returns its public
// URL. The local file is removed whether or not the upload succeeds.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// New builds the uploader selected by cfg.Media.Backend.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (Uploader, error) {
	switch cfg.Media.Backend {
	case config.MediaBackendS3:
		return NewS3Uploader(ctx, cfg.Media, logger)
	case config.MediaBackendDisk:
		return NewDiskUploader(cfg.Media.Dir, cfg.Media.PublicBaseURL+"/static", logger)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Media.Backend)
	}
}

// storageKey places uploads under a dated prefix with a random name that keeps
// the original extension.
func storageKey(localPath string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("media/%04d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
}

// SecureURL upgrades http URLs to https unless they point at a local host.
func SecureURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return raw
	}
	host := u.Hostname()
	if host == "localhost" {
		return raw
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return raw
	}
	u.Scheme = "https"
	return u.String()
}
